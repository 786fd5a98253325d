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

// Package config loads the description of the clouds the shared file system client can talk to
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gophercloud/gophercloud/openstack"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/CS-SI/sharedfs/lib/backend/iaas/options"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
	"github.com/CS-SI/sharedfs/lib/utils/temporal"
)

// EnvCloudName is the name given to the cloud built from OS_* environment variables
const EnvCloudName = "env"

// Cloud is the description of one cloud of the configuration file
type Cloud struct {
	Name             string                   `mapstructure:"name"`
	Auth             options.Authentication   `mapstructure:"auth"`
	SharedFileSystem options.SharedFileSystem `mapstructure:"sharedfilesystem"`
	Cache            options.Cache            `mapstructure:"cache"`
	Breaker          options.Breaker          `mapstructure:"breaker"`
	Timings          temporal.MutableTimings  `mapstructure:"timings"`
}

// Configuration returns the options.Configuration of the cloud, with defaults applied
func (c Cloud) Configuration() options.Configuration {
	timings := c.Timings
	cfg := options.Configuration{
		SharedFileSystem: c.SharedFileSystem,
		Cache:            c.Cache,
		Breaker:          c.Breaker,
		Timings:          &timings,
	}
	cfg.Normalize()
	return cfg
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		return v
	}

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".sharedfs"))
		v.AddConfigPath(filepath.Join(home, ".config", "sharedfs"))
	}
	v.AddConfigPath("/etc/sharedfs")
	v.SetConfigName("clouds")
	return v
}

// Load reads the clouds described in the configuration file 'path'; if 'path' is empty, the file 'clouds.(yaml|toml|json)'
// is searched in the current directory, then in $HOME/.sharedfs, $HOME/.config/sharedfs and /etc/sharedfs
func Load(ctx context.Context, path string) ([]Cloud, fail.Error) {
	return loadFromViper(ctx, newViper(path))
}

func loadFromViper(ctx context.Context, v *viper.Viper) ([]Cloud, fail.Error) {
	if err := v.ReadInConfig(); err != nil {
		switch err.(type) {
		case viper.ConfigFileNotFoundError:
			return nil, fail.NotFoundErrorWithCause(err, "no configuration file found")
		default:
			if os.IsNotExist(err) {
				return nil, fail.NotFoundErrorWithCause(err, "no configuration file found")
			}
			logrus.WithContext(ctx).Errorf("error reading configuration file: %s", err.Error())
			return nil, fail.SyntaxErrorWithCause(err, "error reading configuration file")
		}
	}

	var clouds []Cloud
	err := v.UnmarshalKey("clouds", &clouds, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fail.SyntaxErrorWithCause(err, "failed to decode the clouds of '%s'", v.ConfigFileUsed())
	}

	for i := range clouds {
		clouds[i].Name = strings.TrimSpace(clouds[i].Name)
		if clouds[i].Name == "" {
			return nil, fail.SyntaxError("missing field 'name' for cloud #%d in '%s'", i+1, v.ConfigFileUsed())
		}
	}
	return clouds, nil
}

// Find returns the cloud named 'name'. If 'name' is empty, the only cloud of the file is used; when there is no
// configuration file, or when 'name' is "env", the cloud is built from OS_* environment variables.
func Find(ctx context.Context, path, name string) (*Cloud, fail.Error) {
	if name == EnvCloudName {
		return FromEnv()
	}

	clouds, xerr := Load(ctx, path)
	if xerr != nil {
		switch xerr.(type) {
		case *fail.ErrNotFound:
			if name == "" {
				logrus.WithContext(ctx).Debugf("no configuration file found, using OS_* environment variables")
				return FromEnv()
			}
			return nil, xerr
		default:
			return nil, xerr
		}
	}

	if name == "" {
		switch len(clouds) {
		case 0:
			return FromEnv()
		case 1:
			return &clouds[0], nil
		default:
			return nil, fail.InvalidRequestError("%d clouds are configured, one has to be selected", len(clouds))
		}
	}

	for i := range clouds {
		if clouds[i].Name == name {
			return &clouds[i], nil
		}
	}
	return nil, fail.NotFoundError("failed to find cloud '%s' in configuration", name)
}

// domainVariables are the variables giving the domain, by precedence; openrc files usually set the user or project ones only
var domainVariables = [][2]string{
	{"OS_DOMAIN_ID", "OS_DOMAIN_NAME"},
	{"OS_USER_DOMAIN_ID", "OS_USER_DOMAIN_NAME"},
	{"OS_PROJECT_DOMAIN_ID", "OS_PROJECT_DOMAIN_NAME"},
}

// FromEnv builds a Cloud from the standard OS_* environment variables
func FromEnv() (*Cloud, fail.Error) {
	domainID, domainName := domainFromEnv()
	if os.Getenv("OS_DOMAIN_ID") == "" && os.Getenv("OS_DOMAIN_NAME") == "" && (domainID != "" || domainName != "") {
		// AuthOptionsFromEnv only reads OS_DOMAIN_*
		variable, value := "OS_DOMAIN_ID", domainID
		if value == "" {
			variable, value = "OS_DOMAIN_NAME", domainName
		}
		previous, had := os.LookupEnv(variable)
		if err := os.Setenv(variable, value); err != nil {
			return nil, fail.ConvertError(err)
		}
		defer func() {
			if had {
				_ = os.Setenv(variable, previous)
			} else {
				_ = os.Unsetenv(variable)
			}
		}()
	}

	ao, err := openstack.AuthOptionsFromEnv()
	if err != nil {
		return nil, fail.NotFoundErrorWithCause(err, "failed to read authentication from environment")
	}

	cloud := &Cloud{
		Name: EnvCloudName,
		Auth: options.FromGophercloud(ao, os.Getenv("OS_REGION_NAME")),
		SharedFileSystem: options.SharedFileSystem{
			Microversion: os.Getenv("OS_SHARE_API_VERSION"),
			Availability: os.Getenv("OS_INTERFACE"),
		},
		Cache: options.Cache{Enabled: true},
	}
	return cloud, nil
}

func domainFromEnv() (id string, name string) {
	for _, v := range domainVariables {
		id, name = os.Getenv(v[0]), os.Getenv(v[1])
		if id != "" || name != "" {
			return id, name
		}
	}
	return "", ""
}
