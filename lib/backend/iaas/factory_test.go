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

package iaas

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/CS-SI/sharedfs/lib/backend/iaas/config"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/filters"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/manilatest"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/options"
	"github.com/CS-SI/sharedfs/lib/backend/resources/abstract"
	"github.com/CS-SI/sharedfs/lib/backend/resources/enums/sharestate"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

func TestNewServiceFromClient(t *testing.T) {
	server := manilatest.NewServer()
	defer server.Close()
	server.AddShare(abstract.Share{ID: "id-1", Name: "data", Status: sharestate.Available})

	cfg := options.DefaultConfiguration()
	cfg.Breaker.Enabled = true
	svc, xerr := NewServiceFromClient("test", server.Client("2.7"), cfg)
	require.Nil(t, xerr)
	require.Equal(t, "test", svc.GetName())
	require.Equal(t, "2.7", svc.Proxy().Microversion().String())
	require.Equal(t, "2.7", svc.Configuration().SharedFileSystem.Microversion)
	require.NotNil(t, svc.Metrics())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		share, xerr := svc.Cloud().GetShare(ctx, filters.ByNameOrID("data"), filters.None())
		require.Nil(t, xerr)
		require.Equal(t, "id-1", share.ID)
	}
	require.Equal(t, 1, server.Count(http.MethodGet, "/shares/detail"))

	require.Nil(t, svc.InvalidateCache(ctx))
	_, xerr = svc.Cloud().ListShares(ctx)
	require.Nil(t, xerr)
	require.Equal(t, 2, server.Count(http.MethodGet, "/shares/detail"))
}

func TestNewServiceFromClientWithoutCache(t *testing.T) {
	server := manilatest.NewServer()
	defer server.Close()

	cfg := options.DefaultConfiguration()
	cfg.Cache.Enabled = false
	cfg.Timings.Delays.Normal = 3 * time.Second
	svc, xerr := NewServiceFromClient("test", server.Client(""), cfg)
	require.Nil(t, xerr)
	require.Equal(t, 3*time.Second, svc.Timings().NormalDelay())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, xerr := svc.Cloud().ListShares(ctx)
		require.Nil(t, xerr)
	}
	require.Equal(t, 2, server.Count(http.MethodGet, "/shares/detail"))
}

func TestNewServiceFromClientValidation(t *testing.T) {
	server := manilatest.NewServer()
	defer server.Close()

	_, xerr := NewServiceFromClient("", server.Client(""), options.DefaultConfiguration())
	require.IsType(t, &fail.ErrInvalidParameter{}, xerr)

	_, xerr = NewServiceFromClient("test", nil, options.DefaultConfiguration())
	require.IsType(t, &fail.ErrInvalidParameter{}, xerr)

	cfg := options.DefaultConfiguration()
	cfg.SharedFileSystem.Availability = "everywhere"
	_, xerr = NewServiceFromClient("test", server.Client(""), cfg)
	require.NotNil(t, xerr)
}

func TestNewServiceRejectsInvalidCloud(t *testing.T) {
	_, xerr := NewService(context.Background(), config.Cloud{})
	require.NotNil(t, xerr)

	_, xerr = NewService(context.Background(), config.Cloud{Name: "broken"})
	require.NotNil(t, xerr)
}

func TestUseService(t *testing.T) {
	defer ForgetServices()

	path := filepath.Join(t.TempDir(), "clouds.yaml")
	content := `
clouds:
  - name: broken
    auth:
      identity_endpoint: https://keystone.example.com:5000/v3
      username: demo
      password: secret
      project_name: demo
    sharedfilesystem:
      microversion: latest
`
	require.Nil(t, os.WriteFile(path, []byte(content), 0600))

	_, xerr := UseService(context.Background(), path, "broken")
	require.NotNil(t, xerr)

	_, xerr = UseService(context.Background(), path, "unknown")
	require.IsType(t, &fail.ErrNotFound{}, xerr)
}

func TestRegistry(t *testing.T) {
	defer ForgetServices()

	server := manilatest.NewServer()
	defer server.Close()

	first, xerr := NewServiceFromClient("first", server.Client(""), options.DefaultConfiguration())
	require.Nil(t, xerr)
	second, xerr := NewServiceFromClient("second", server.Client(""), options.DefaultConfiguration())
	require.Nil(t, xerr)

	_, ok := registered("clouds.yaml", "prod")
	require.False(t, ok)

	require.Equal(t, first, register("clouds.yaml", "prod", first))
	require.Equal(t, first, register("clouds.yaml", "prod", second))

	svc, ok := registered("clouds.yaml", "prod")
	require.True(t, ok)
	require.Equal(t, "first", svc.GetName())

	// UseService returns the registered service without reading the configuration
	svc, xerr = UseService(context.Background(), "clouds.yaml", "prod")
	require.Nil(t, xerr)
	require.Equal(t, "first", svc.GetName())
}
