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

package fail

import (
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
)

type messagePrepender interface {
	prependToMessage(string)
}

// AddConsequence adds an error 'cons' to the list of consequences of 'err'
func AddConsequence(err error, cons error) error {
	if err != nil {
		conseq, ok := err.(Error)
		if ok {
			if cons != nil {
				return conseq.AddConsequence(cons)
			}
			return conseq
		}
		if cons != nil {
			logrus.Errorf("trying to add error [%s] to existing error [%s] but failed", cons, err)
		}
	}
	return err
}

// Consequences returns the list of consequences
func Consequences(err error) []error {
	if err != nil {
		if conseq, ok := err.(Error); ok {
			return conseq.Consequences()
		}
	}
	return []error{}
}

// Wrap adds the message 'msg' in front of the message of 'cause', keeping the kind of the error when 'cause' is
// already a fail.Error
func Wrap(cause error, msg ...interface{}) Error {
	if cause == nil {
		return nil
	}
	message := strings.TrimSpace(FormatMessage(msg...))
	if casted, ok := cause.(Error); ok {
		if message != "" {
			if p, ok := casted.(messagePrepender); ok {
				p.prependToMessage(message)
			}
		}
		return casted
	}
	return NewErrorWithCause(cause, message)
}

// Cause returns the immediate cause of an error, or the error itself if it has no cause
func Cause(err error) error {
	if casted, ok := err.(Error); ok {
		if c := casted.Cause(); c != nil {
			return c
		}
	}
	return err
}

// RootCause follows the chain of causes and returns the deepest one
func RootCause(err error) (resp error) {
	resp = err
	for err != nil {
		var next error
		switch casted := err.(type) {
		case Error:
			next = casted.Cause()
		default:
			next = errors.Unwrap(err)
		}
		if next == nil {
			break
		}
		resp, err = next, next
	}
	return resp
}

// ConvertError converts an error to a fail.Error
func ConvertError(err error) Error {
	if err == nil {
		return nil
	}
	if casted, ok := err.(Error); ok {
		return casted
	}
	return NewErrorWithCause(err)
}

// IgnoreError is used to explicitly discard an error that has been taken into account
func IgnoreError(_ error) {}
