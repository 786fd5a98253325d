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

// Package exitcode defines the exit codes of the command line tools
package exitcode

// Enum represents an exit code
type Enum int

const (
	// OK is the code of a successful command
	OK Enum = iota
	// Run is the code of a generic failure
	Run
	InvalidArgument
	InvalidOption
	NotFound
	Timeout
	Duplicate
	NotAuthenticated
	Forbidden
	NotAvailable
	InvalidRequest
	Interrupted
	NotImplemented
	// NextExitCode is the first code free for use
	NextExitCode
)

var names = map[Enum]string{
	OK:               "OK",
	Run:              "Run",
	InvalidArgument:  "InvalidArgument",
	InvalidOption:    "InvalidOption",
	NotFound:         "NotFound",
	Timeout:          "Timeout",
	Duplicate:        "Duplicate",
	NotAuthenticated: "NotAuthenticated",
	Forbidden:        "Forbidden",
	NotAvailable:     "NotAvailable",
	InvalidRequest:   "InvalidRequest",
	Interrupted:      "Interrupted",
	NotImplemented:   "NotImplemented",
}

// String returns the name of the exit code
func (e Enum) String() string {
	if n, ok := names[e]; ok {
		return n
	}
	return "Unknown"
}
