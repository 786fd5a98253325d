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

package options

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/CS-SI/sharedfs/lib/utils/fail"
	"github.com/CS-SI/sharedfs/lib/utils/temporal"
)

const (
	DefaultCacheExpiration = 5 * time.Minute
	DefaultCacheMaxEntries = 1000
)

// SharedFileSystem contains the options of the shared file system endpoint
type SharedFileSystem struct {
	// Microversion is the API microversion sent with every request ("" means the base version)
	Microversion string `mapstructure:"microversion" json:"microversion,omitempty"`
	// Availability selects the endpoint interface in the catalog: public, internal or admin
	Availability string `mapstructure:"availability" json:"availability,omitempty"`
	// Endpoint overrides the endpoint found in the catalog
	Endpoint string `mapstructure:"endpoint" json:"endpoint,omitempty"`
}

// Cache contains the options of the listing cache
type Cache struct {
	Enabled    bool          `mapstructure:"enabled" json:"enabled"`
	Expiration time.Duration `mapstructure:"expiration" json:"expiration,omitempty"`
	MaxEntries int64         `mapstructure:"max_entries" json:"max_entries,omitempty"`
}

// Breaker contains the options of the circuit breaker guarding remote calls
type Breaker struct {
	Enabled     bool          `mapstructure:"enabled" json:"enabled"`
	MaxFailures uint32        `mapstructure:"max_failures" json:"max_failures,omitempty"`
	OpenTimeout time.Duration `mapstructure:"open_timeout" json:"open_timeout,omitempty"`
}

// Configuration groups the non-authentication options of a cloud
type Configuration struct {
	SharedFileSystem SharedFileSystem         `mapstructure:"sharedfilesystem" json:"sharedfilesystem"`
	Cache            Cache                    `mapstructure:"cache" json:"cache"`
	Breaker          Breaker                  `mapstructure:"breaker" json:"breaker"`
	Timings          *temporal.MutableTimings `mapstructure:"timings" json:"timings,omitempty"`
}

var microversionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// DefaultConfiguration returns a Configuration with default values
func DefaultConfiguration() Configuration {
	return Configuration{
		SharedFileSystem: SharedFileSystem{Availability: "public"},
		Cache: Cache{
			Enabled:    true,
			Expiration: DefaultCacheExpiration,
			MaxEntries: DefaultCacheMaxEntries,
		},
		Timings: temporal.NewTimings(),
	}
}

// Normalize fills the unset values with defaults
func (c *Configuration) Normalize() {
	if c == nil {
		return
	}
	if c.SharedFileSystem.Availability == "" {
		c.SharedFileSystem.Availability = "public"
	}
	if c.Cache.Expiration <= 0 {
		c.Cache.Expiration = DefaultCacheExpiration
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = DefaultCacheMaxEntries
	}
	if c.Timings == nil {
		c.Timings = temporal.NewTimings()
	} else {
		_ = c.Timings.Update(temporal.NewTimings())
	}
}

// Validate checks the content of the configuration
func (c Configuration) Validate() fail.Error {
	sfs := c.SharedFileSystem
	err := validation.ValidateStruct(&sfs,
		validation.Field(&sfs.Microversion, validation.Match(microversionPattern)),
		validation.Field(&sfs.Availability, validation.In("", "public", "internal", "admin")),
	)
	if err != nil {
		return fail.InvalidRequestErrorWithCause(err, "invalid shared file system options")
	}
	return nil
}
