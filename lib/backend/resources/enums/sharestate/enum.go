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

// Package sharestate defines the statuses a share goes through during its life cycle
package sharestate

import (
	"strings"

	mapset "github.com/deckarep/golang-set"
)

// Enum represents the status of a share, as reported by the shared file system service
type Enum string

const (
	Creating        Enum = "creating"
	Available       Enum = "available"
	Attaching       Enum = "attaching"
	InUse           Enum = "in-use"
	Deleting        Enum = "deleting"
	Error           Enum = "error"
	ErrorDeleting   Enum = "error_deleting"
	BackingUp       Enum = "backing-up"
	RestoringBackup Enum = "restoring-backup"
	ErrorRestoring  Enum = "error_restoring"
	Extending       Enum = "extending"
	ErrorExtending  Enum = "error_extending"
	Shrinking       Enum = "shrinking"
	ErrorShrinking  Enum = "error_shrinking"
	Migrating       Enum = "migrating"
	Manage          Enum = "manage_starting"
	Unknown         Enum = ""
)

var (
	known = mapset.NewSet(
		Creating, Available, Attaching, InUse, Deleting, Error, ErrorDeleting, BackingUp, RestoringBackup,
		ErrorRestoring, Extending, ErrorExtending, Shrinking, ErrorShrinking, Migrating, Manage,
	)
	// terminal statuses are the ones a share stays in without further action
	terminal = mapset.NewSet(Available, Error)
)

// Parse converts a raw status to Enum; unknown values are kept as-is, lowercased
func Parse(raw string) Enum {
	return Enum(strings.ToLower(strings.TrimSpace(raw)))
}

// String ...
func (e Enum) String() string {
	return string(e)
}

// IsKnown tells if the status is one documented by the service
func (e Enum) IsKnown() bool {
	return known.Contains(e)
}

// IsTerminal tells if the status cannot evolve without a new request
func (e Enum) IsTerminal() bool {
	return terminal.Contains(Parse(string(e)))
}

// IsError tells if the status denotes a failure
func (e Enum) IsError() bool {
	return strings.HasPrefix(string(Parse(string(e))), "error")
}
