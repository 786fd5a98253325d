/*
 * Copyright 2018-2023, CS Systemes d'Information, http://csgroup.eu
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

const cloudsYAML = `
clouds:
  - name: prod
    auth:
      identity_endpoint: https://keystone.example.com:5000/v3
      username: demo
      password: secret
      project_name: demo
      region: RegionOne
    sharedfilesystem:
      microversion: "2.7"
    cache:
      enabled: true
      expiration: 90s
    timings:
      timeouts:
        operation: 10m
      delays:
        normal: 3s
  - name: staging
    auth:
      identity_endpoint: https://keystone.staging:5000/v3
      token_id: abc
`

func writeClouds(t *testing.T, content string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "clouds.yaml")
	require.Nil(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeClouds(t, cloudsYAML)

	clouds, xerr := Load(context.Background(), path)
	require.Nil(t, xerr)
	require.Len(t, clouds, 2)

	prod := clouds[0]
	require.Equal(t, "prod", prod.Name)
	require.Equal(t, "demo", prod.Auth.Username)
	require.Equal(t, "RegionOne", prod.Auth.Region)
	require.Equal(t, "2.7", prod.SharedFileSystem.Microversion)
	require.Equal(t, 90*time.Second, prod.Cache.Expiration)
	require.Equal(t, 10*time.Minute, prod.Timings.Operation)

	cfg := prod.Configuration()
	require.Equal(t, 3*time.Second, cfg.Timings.NormalDelay())
	require.Equal(t, "public", cfg.SharedFileSystem.Availability)
	require.Nil(t, cfg.Validate())
}

func TestFind(t *testing.T) {
	path := writeClouds(t, cloudsYAML)

	cloud, xerr := Find(context.Background(), path, "staging")
	require.Nil(t, xerr)
	require.Equal(t, "abc", cloud.Auth.TokenID)

	_, xerr = Find(context.Background(), path, "unknown")
	require.NotNil(t, xerr)
	_, ok := xerr.(*fail.ErrNotFound)
	require.True(t, ok)

	_, xerr = Find(context.Background(), path, "")
	require.NotNil(t, xerr)
	_, ok = xerr.(*fail.ErrInvalidRequest)
	require.True(t, ok)
}

func TestLoadMissingName(t *testing.T) {
	path := writeClouds(t, "clouds:\n  - auth:\n      username: demo\n")
	_, xerr := Load(context.Background(), path)
	require.NotNil(t, xerr)
	_, ok := xerr.(*fail.ErrSyntax)
	require.True(t, ok)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("OS_AUTH_URL", "https://keystone.example.com:5000/v3")
	t.Setenv("OS_USERNAME", "demo")
	t.Setenv("OS_PASSWORD", "secret")
	t.Setenv("OS_PROJECT_NAME", "demo")
	t.Setenv("OS_DOMAIN_NAME", "Default")
	t.Setenv("OS_REGION_NAME", "RegionOne")
	t.Setenv("OS_SHARE_API_VERSION", "2.40")

	cloud, xerr := Find(context.Background(), "", EnvCloudName)
	require.Nil(t, xerr)
	require.Equal(t, EnvCloudName, cloud.Name)
	require.Equal(t, "demo", cloud.Auth.ProjectName)
	require.Equal(t, "Default", cloud.Auth.DomainName)
	require.Equal(t, "RegionOne", cloud.Auth.Region)
	require.Equal(t, "2.40", cloud.SharedFileSystem.Microversion)
}

func TestFromEnvUserDomain(t *testing.T) {
	t.Setenv("OS_AUTH_URL", "https://keystone.example.com:5000/v3")
	t.Setenv("OS_USERNAME", "demo")
	t.Setenv("OS_PASSWORD", "secret")
	t.Setenv("OS_PROJECT_NAME", "demo")
	t.Setenv("OS_DOMAIN_ID", "")
	t.Setenv("OS_DOMAIN_NAME", "")
	t.Setenv("OS_USER_DOMAIN_NAME", "users")
	t.Setenv("OS_PROJECT_DOMAIN_ID", "projects-id")

	cloud, xerr := FromEnv()
	require.Nil(t, xerr)
	require.Equal(t, "users", cloud.Auth.DomainName)
	require.Equal(t, "", cloud.Auth.DomainID)
	_, set := os.LookupEnv("OS_DOMAIN_NAME")
	require.True(t, set)
	require.Equal(t, "", os.Getenv("OS_DOMAIN_NAME"))

	t.Setenv("OS_USER_DOMAIN_NAME", "")
	cloud, xerr = FromEnv()
	require.Nil(t, xerr)
	require.Equal(t, "projects-id", cloud.Auth.DomainID)

	t.Setenv("OS_PROJECT_DOMAIN_ID", "")
	_, xerr = FromEnv()
	require.NotNil(t, xerr)
}
