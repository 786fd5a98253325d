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

package temporal

import (
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"

	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

const (
	// defaultContextTimeout is the default timeout applied to a whole command when none is given
	defaultContextTimeout = 10 * time.Minute

	// defaultCommunicationTimeout is the default timeout for HTTP communication with the shared file system endpoint
	defaultCommunicationTimeout = 3 * time.Minute

	// defaultOperationTimeout is the default time given to a share to reach a wanted status
	defaultOperationTimeout = 120 * time.Second

	// defaultSmallDelay is the predefined small delay
	defaultSmallDelay = 1 * time.Second

	// defaultNormalDelay is the default delay between two status polls
	defaultNormalDelay = 2 * time.Second
)

// Timings exposes the durations used by the shared file system client
type Timings interface {
	ContextTimeout() time.Duration
	CommunicationTimeout() time.Duration
	OperationTimeout() time.Duration
	SmallDelay() time.Duration
	NormalDelay() time.Duration
}

type Timeouts struct {
	Communication time.Duration `json:"timeout_communication,omitempty" mapstructure:"communication" toml:"communication"`
	Context       time.Duration `json:"timeout_context,omitempty" mapstructure:"context" toml:"context"`
	Operation     time.Duration `json:"timeout_operation,omitempty" mapstructure:"operation" toml:"operation"`
}

type Delays struct {
	Small  time.Duration `json:"delay_small,omitempty" mapstructure:"small" toml:"small"`
	Normal time.Duration `json:"delay_normal,omitempty" mapstructure:"normal" toml:"normal"`
}

type MutableTimings struct {
	Timeouts `json:"timeouts" mapstructure:"timeouts" toml:"timeouts"`
	Delays   `json:"delays" mapstructure:"delays" toml:"delays"`
}

// NewTimings creates a new instance of MutableTimings with default values
func NewTimings() *MutableTimings {
	return &MutableTimings{
		Timeouts: Timeouts{
			Communication: CommunicationTimeout(),
			Context:       ContextTimeout(),
			Operation:     OperationTimeout(),
		},
		Delays: Delays{
			Small:  SmallDelay(),
			Normal: NormalDelay(),
		},
	}
}

// Update fills the zero values of 't' with the ones of 'a'
func (t *MutableTimings) Update(a *MutableTimings) error {
	if t == nil {
		return fail.InvalidInstanceError()
	}
	if a == nil {
		return nil
	}

	if t.Communication == 0 && a.Communication != 0 {
		t.Communication = a.Communication
	}
	if t.Context == 0 && a.Context != 0 {
		t.Context = a.Context
	}
	if t.Operation == 0 && a.Operation != 0 {
		t.Operation = a.Operation
	}
	if t.Small == 0 && a.Small != 0 {
		t.Small = a.Small
	}
	if t.Normal == 0 && a.Normal != 0 {
		t.Normal = a.Normal
	}
	return nil
}

// ToToml renders the timings in TOML
func (t MutableTimings) ToToml() (string, error) {
	barr, err := toml.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(barr), nil
}

// ContextTimeout returns the configured timeout for a whole command (optionally overloaded from ENV)
func (t *MutableTimings) ContextTimeout() time.Duration {
	if t == nil || t.Timeouts.Context == 0 {
		return ContextTimeout()
	}
	return t.Timeouts.Context
}

// CommunicationTimeout returns the configured timeout for communication (optionally overloaded from ENV)
func (t *MutableTimings) CommunicationTimeout() time.Duration {
	if t == nil || t.Timeouts.Communication == 0 {
		return CommunicationTimeout()
	}
	return t.Timeouts.Communication
}

// OperationTimeout returns the configured timeout for operation (optionally overloaded from ENV)
func (t *MutableTimings) OperationTimeout() time.Duration {
	if t == nil || t.Timeouts.Operation == 0 {
		return OperationTimeout()
	}
	return t.Timeouts.Operation
}

// SmallDelay returns the duration of a small delay
func (t *MutableTimings) SmallDelay() time.Duration {
	if t == nil || t.Delays.Small == 0 {
		return SmallDelay()
	}
	return t.Delays.Small
}

// NormalDelay returns the duration of a normal delay
func (t *MutableTimings) NormalDelay() time.Duration {
	if t == nil || t.Delays.Normal == 0 {
		return NormalDelay()
	}
	return t.Delays.Normal
}

// envDuration returns the first duration parsed from the environment variables 'keys', or 'fallback'
func envDuration(fallback time.Duration, keys ...string) time.Duration {
	for _, key := range keys {
		raw, ok := os.LookupEnv(key)
		if !ok || raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			logrus.Warnf("ignoring %s: '%s' is not a duration", key, raw)
			continue
		}
		return d
	}
	return fallback
}

// CommunicationTimeout returns the default timeout of a request to the endpoint
func CommunicationTimeout() time.Duration {
	return envDuration(defaultCommunicationTimeout, "SHAREDFS_COMMUNICATION_TIMEOUT")
}

// ContextTimeout returns the default timeout of a whole command
func ContextTimeout() time.Duration {
	return envDuration(defaultContextTimeout, "SHAREDFS_CONTEXT_TIMEOUT")
}

// OperationTimeout returns the default timeout of a wait
func OperationTimeout() time.Duration {
	return envDuration(defaultOperationTimeout, "SHAREDFS_OP_TIMEOUT", "SHAREDFS_OPERATION_TIMEOUT")
}

func SmallDelay() time.Duration {
	return envDuration(defaultSmallDelay, "SHAREDFS_MIN_DELAY", "SHAREDFS_SMALL_DELAY")
}

// NormalDelay returns the default delay between two polls
func NormalDelay() time.Duration {
	return envDuration(defaultNormalDelay, "SHAREDFS_DEFAULT_DELAY", "SHAREDFS_NORMAL_DELAY")
}
