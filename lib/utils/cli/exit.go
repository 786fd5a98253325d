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

package cli

import (
	"context"
	"errors"

	urfcli "github.com/urfave/cli"

	"github.com/CS-SI/sharedfs/lib/utils/cli/enums/exitcode"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
	"github.com/CS-SI/sharedfs/lib/utils/strprocess"
)

// ExitOnErrorWithMessage builds an error to return to urfave/cli with the exit code 'code'
func ExitOnErrorWithMessage(code exitcode.Enum, msg string) urfcli.ExitCoder {
	return urfcli.NewExitError(msg, int(code))
}

// ExitOnInvalidArgument ...
func ExitOnInvalidArgument(msg string) urfcli.ExitCoder {
	return ExitOnErrorWithMessage(exitcode.InvalidArgument, msg)
}

// ExitOnInvalidOption ...
func ExitOnInvalidOption(msg string) urfcli.ExitCoder {
	return ExitOnErrorWithMessage(exitcode.InvalidOption, msg)
}

// ExitOnFailure converts 'err' to an error carrying the exit code corresponding to its kind; 'action' describes
// what was attempted and prefixes the message
func ExitOnFailure(err error, action string) urfcli.ExitCoder {
	if err == nil {
		return nil
	}
	if exitCoder, ok := err.(urfcli.ExitCoder); ok {
		return exitCoder
	}

	msg := err.Error()
	if action != "" {
		msg = "failed to " + action + ": " + msg
	}
	return ExitOnErrorWithMessage(ExitCode(err), strprocess.Capitalize(msg))
}

// ExitCode returns the exit code corresponding to the kind of 'err'
func ExitCode(err error) exitcode.Enum {
	if err == nil {
		return exitcode.OK
	}
	if errors.Is(err, context.Canceled) {
		return exitcode.Interrupted
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return exitcode.Timeout
	}

	switch err.(type) {
	case *fail.ErrNotFound:
		return exitcode.NotFound
	case *fail.ErrTimeout:
		return exitcode.Timeout
	case *fail.ErrDuplicate:
		return exitcode.Duplicate
	case *fail.ErrInvalidParameter, *fail.ErrSyntax:
		return exitcode.InvalidArgument
	case *fail.ErrInvalidRequest:
		return exitcode.InvalidRequest
	case *fail.ErrNotAuthenticated:
		return exitcode.NotAuthenticated
	case *fail.ErrForbidden:
		return exitcode.Forbidden
	case *fail.ErrNotAvailable, *fail.ErrOverload:
		return exitcode.NotAvailable
	case *fail.ErrAborted:
		return exitcode.Interrupted
	case *fail.ErrNotImplemented:
		return exitcode.NotImplemented
	default:
		return exitcode.Run
	}
}
