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

package retry

import (
	"time"
)

// Officer sleeps or selects any amount of time for each attempt
type Officer struct {
	// Delay returns the time to wait after the try 't'
	Delay func(t Try) time.Duration
}

// Constant waits the same duration after every try
func Constant(duration time.Duration) *Officer {
	return &Officer{
		Delay: func(Try) time.Duration {
			return duration
		},
	}
}
