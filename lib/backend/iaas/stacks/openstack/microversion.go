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

package openstack

import (
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

// actionsWithoutPrefixSince is the first microversion accepting action names without the "os-" prefix
const actionsWithoutPrefixSince = "2.7"

var unprefixedActions = version.Must(version.NewVersion(actionsWithoutPrefixSince))

// Microversion is the API microversion negotiated with the shared file system service
type Microversion struct {
	raw     string
	version *version.Version
}

// ParseMicroversion parses a microversion like "2.7"; an empty string stands for the base version
func ParseMicroversion(raw string) (Microversion, fail.Error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Microversion{}, nil
	}

	v, err := version.NewVersion(raw)
	if err != nil {
		return Microversion{}, fail.SyntaxErrorWithCause(err, "invalid microversion '%s'", raw)
	}
	return Microversion{raw: raw, version: v}, nil
}

// String returns the microversion as sent in request headers
func (m Microversion) String() string {
	return m.raw
}

// IsSet tells if a microversion has been chosen
func (m Microversion) IsSet() bool {
	return m.version != nil
}

// AtLeast tells if the microversion is greater than or equal to 'other'
func (m Microversion) AtLeast(other string) bool {
	if m.version == nil {
		return false
	}
	o, err := version.NewVersion(other)
	if err != nil {
		return false
	}
	return m.version.GreaterThanOrEqual(o)
}

// ActionKey returns the key of the action 'name' in the body of a POST to the "action" endpoint
func (m Microversion) ActionKey(name string) string {
	if m.version == nil || m.version.LessThan(unprefixedActions) {
		return "os-" + name
	}
	return name
}
