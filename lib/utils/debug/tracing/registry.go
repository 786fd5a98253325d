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

package tracing

import (
	"os"
	"strings"
	"sync"

	"github.com/CS-SI/sharedfs/lib/utils/data/json"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

var (
	settings     map[string]map[string]bool
	settingsLock sync.RWMutex
)

// RegisterTraceSettings keeps track of what has to be traced, as JSON like {"share": {"create": true}, "cloud": {}}.
// The content of env variable SHAREDFS_TRACE is merged in: "key" enables a key as a whole, "key.subkey" enables a
// subkey, "!key" disables a key.
func RegisterTraceSettings(jsonSettings string) fail.Error {
	newSettings := map[string]map[string]bool{}
	if jsonSettings != "" {
		if err := json.Unmarshal([]byte(jsonSettings), &newSettings); err != nil {
			return fail.SyntaxErrorWithCause(err, "no trace are enabled, an error occurred loading trace settings")
		}
	}

	if env := os.Getenv("SHAREDFS_TRACE"); env != "" {
		for _, part := range strings.Split(env, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			keys := strings.Split(part, ".")
			key := strings.TrimSpace(keys[0])
			reverse := false
			if strings.HasPrefix(key, "!") {
				key = key[1:]
				reverse = true
			}

			keysLength := len(keys)
			switch {
			case reverse && keysLength == 1:
				delete(newSettings, key)
				continue
			case reverse:
				if _, ok := newSettings[key]; !ok {
					newSettings[key] = map[string]bool{}
				}
				newSettings[key][strings.TrimSpace(keys[1])] = false
				continue
			}

			if _, ok := newSettings[key]; !ok || keysLength == 1 {
				newSettings[key] = map[string]bool{}
			}
			if keysLength > 1 {
				newSettings[key][strings.TrimSpace(keys[1])] = true
			}
		}
	}

	settingsLock.Lock()
	settings = newSettings
	settingsLock.Unlock()
	return nil
}
