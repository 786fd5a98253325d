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

package verdict

import (
	"fmt"
)

// Enum represents the decision taken by an arbiter after a try
type Enum int

const (
	// Undecided means the arbiter has no opinion
	Undecided Enum = iota
	// Retry means another try is wanted
	Retry
	// Done means no more try is wanted
	Done
	// Abort means the tries must stop on error
	Abort
)

var stringMap = map[Enum]string{
	Undecided: "Undecided",
	Retry:     "Retry",
	Done:      "Done",
	Abort:     "Abort",
}

// String returns a printable representation of the verdict
func (e Enum) String() string {
	if s, ok := stringMap[e]; ok {
		return s
	}
	return fmt.Sprintf("Enum(%d)", int(e))
}
