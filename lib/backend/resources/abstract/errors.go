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

package abstract

import (
	"fmt"
	"time"

	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

const (
	ShareKind     = "share"
	ShareTypeKind = "share type"
)

// ResourceNotFoundError creates a NotFound error
func ResourceNotFoundError(resource, name string) *fail.ErrNotFound {
	msgFinal := fmt.Sprintf("failed to find %s", resource)
	if name != "" {
		msgFinal += fmt.Sprintf(" '%s'", name)
	}
	return fail.NotFoundError(msgFinal)
}

// ResourceTimeoutError creates a Timeout error
func ResourceTimeoutError(resource, name string, dur time.Duration) *fail.ErrTimeout {
	msgFinal := fmt.Sprintf("timeout waiting for %s '%s'", resource, name)
	return fail.TimeoutError(nil, dur, msgFinal)
}

// ResourceDuplicateError creates a Duplicate error
func ResourceDuplicateError(resource, name string) *fail.ErrDuplicate {
	return fail.DuplicateError(fmt.Sprintf("more than one %s matches '%s'", resource, name))
}

// ResourceFailureError creates an Execution error telling the resource reached a failure status
func ResourceFailureError(resource, id, status string) *fail.ErrExecution {
	xerr := fail.ExecutionError(nil, fmt.Sprintf("%s '%s' transitioned to failure status '%s'", resource, id, status))
	_ = xerr.Annotate("status", status)
	return xerr
}

// ResourceInvalidRequestError creates an InvalidRequest error
func ResourceInvalidRequestError(resource, reason string) *fail.ErrInvalidRequest {
	return fail.InvalidRequestError(fmt.Sprintf("%s request is invalid: %s", resource, reason))
}
