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
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/CS-SI/sharedfs/lib/utils/data/json"
	"github.com/CS-SI/sharedfs/lib/utils/strprocess"
)

// Annotations contains additional information attached to an error
type Annotations map[string]interface{}

// Error defines the interface of a sharedfs error
type Error interface {
	error

	Cause() error       // returns the first immediate cause of an error
	RootCause() error   // returns the root cause of an error
	Unwrap() error      // satisfies errors.Unwrap
	Consequences() []error
	AddConsequence(error) Error
	Annotate(key string, value interface{}) Error
	Annotations() Annotations
	Annotation(key string) (interface{}, bool)
	UnformattedError() string
	IsNull() bool
}

// errorCore is the implementation of interface Error shared by all the kinds of error
type errorCore struct {
	self         Error
	message      string
	cause        error
	annotations  Annotations
	consequences []error
	lock         *sync.RWMutex
}

// newError creates a new failure report with a message 'message', a causer error 'causer' and a list of teardown problems 'consequences'
func newError(cause error, consequences []error, msg ...interface{}) *errorCore {
	if consequences == nil {
		consequences = []error{}
	}
	return &errorCore{
		message:      strings.TrimSpace(strprocess.FormatStrings(msg...)),
		cause:        cause,
		consequences: consequences,
		annotations:  make(Annotations),
		lock:         &sync.RWMutex{},
	}
}

// bind records the concrete error embedding the core, so chained calls return the right type
func bind[T Error](e T, core *errorCore) T {
	core.self = e
	return e
}

// IsNull tells if the instance is to be considered as null value
func (e *errorCore) IsNull() bool {
	if e == nil || e.lock == nil {
		return true
	}
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.message == "" && e.cause == nil && len(e.annotations) == 0
}

func (e *errorCore) me() Error {
	if e.self != nil {
		return e.self
	}
	return e
}

// Cause is just an accessor for internal e.cause
func (e *errorCore) Cause() error {
	if e == nil || e.lock == nil {
		return nil
	}
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.cause
}

// Unwrap implements the Wrapper interface
func (e *errorCore) Unwrap() error {
	return e.Cause()
}

// RootCause returns the initial error's cause
func (e *errorCore) RootCause() error {
	return RootCause(e.me())
}

// Annotations ...
func (e *errorCore) Annotations() Annotations {
	if e == nil || e.lock == nil {
		return Annotations{}
	}
	e.lock.RLock()
	defer e.lock.RUnlock()
	out := make(Annotations, len(e.annotations))
	for k, v := range e.annotations {
		out[k] = v
	}
	return out
}

// Annotation ...
func (e *errorCore) Annotation(key string) (interface{}, bool) {
	if e == nil || e.lock == nil {
		return nil, false
	}
	e.lock.RLock()
	defer e.lock.RUnlock()
	r, ok := e.annotations[key]
	return r, ok
}

// Annotate adds an annotation (key-value) pair to current error 'e'
func (e *errorCore) Annotate(key string, value interface{}) Error {
	if e == nil || e.lock == nil {
		return e
	}
	e.lock.Lock()
	if e.annotations == nil {
		e.annotations = make(Annotations)
	}
	e.annotations[key] = value
	e.lock.Unlock()
	return e.me()
}

// AddConsequence adds an error 'err' to the list of consequences
func (e *errorCore) AddConsequence(err error) Error {
	if e == nil || e.lock == nil {
		return e
	}
	if err == nil || err == e.me() || Cause(err) == e.me() {
		return e.me()
	}
	e.lock.Lock()
	e.consequences = append(e.consequences, err)
	e.lock.Unlock()
	return e.me()
}

// Consequences returns the consequences of current error (detected teardown problems)
func (e *errorCore) Consequences() []error {
	if e == nil || e.lock == nil {
		return []error{}
	}
	e.lock.RLock()
	defer e.lock.RUnlock()
	return append([]error{}, e.consequences...)
}

// UnformattedError returns the message of the error, without cause nor consequences
func (e *errorCore) UnformattedError() string {
	if e == nil || e.lock == nil {
		return ""
	}
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.message
}

// Error returns a human-friendly error explanation
// satisfies interface error
func (e *errorCore) Error() string {
	if e == nil || e.lock == nil {
		return ""
	}
	e.lock.RLock()
	defer e.lock.RUnlock()

	msgFinal := e.message
	if e.cause != nil {
		if raw := e.cause.Error(); raw != "" && raw != e.message {
			if msgFinal != "" {
				msgFinal += ": "
			}
			msgFinal += raw
		}
	}

	if lenConseq := uint(len(e.consequences)); lenConseq > 0 {
		msgFinal += fmt.Sprintf("\nwith consequence%s:", strprocess.Plural(lenConseq))
		for _, con := range e.consequences {
			msgFinal += "\n- " + con.Error()
		}
	}

	if len(e.annotations) > 0 {
		if j, err := json.Marshal(e.annotations); err == nil {
			msgFinal += "\nWith annotations: " + string(j)
		}
	}
	return msgFinal
}

// prependToMessage adds 'msg' as prefix to current message of 'e'
func (e *errorCore) prependToMessage(msg string) {
	if e == nil || e.lock == nil || msg == "" {
		return
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.message == "" {
		e.message = msg
		return
	}
	e.message = msg + ": " + e.message
}

// ErrUnqualified is a generic Error type that has no particular signification
type ErrUnqualified struct {
	*errorCore
}

// NewError creates a new failure report
func NewError(msg ...interface{}) Error {
	core := newError(nil, nil, msg...)
	return bind(&ErrUnqualified{core}, core)
}

// NewErrorWithCause creates a new failure report with a cause
func NewErrorWithCause(cause error, msg ...interface{}) Error {
	core := newError(cause, nil, msg...)
	return bind(&ErrUnqualified{core}, core)
}

// NewErrorWithCauseAndConsequences creates a new failure report with a cause and a list of teardown problems 'consequences'
func NewErrorWithCauseAndConsequences(cause error, consequences []error, msg ...interface{}) Error {
	core := newError(cause, consequences, msg...)
	return bind(&ErrUnqualified{core}, core)
}

// ErrTimeout defines a ErrTimeout error
type ErrTimeout struct {
	*errorCore
	dur time.Duration
}

// TimeoutError returns an ErrTimeout instance
func TimeoutError(cause error, dur time.Duration, msg ...interface{}) *ErrTimeout {
	message := strprocess.FormatStrings(msg...)
	if dur > 0 {
		limitMsg := fmt.Sprintf("(timeout: %s)", dur)
		if message != "" {
			message += " "
		}
		message += limitMsg
	}
	core := newError(cause, nil, message)
	return bind(&ErrTimeout{errorCore: core, dur: dur}, core)
}

// Duration returns the limit that has been reached
func (e *ErrTimeout) Duration() time.Duration {
	if e == nil {
		return 0
	}
	return e.dur
}

// ErrNotFound resource not found error
type ErrNotFound struct {
	*errorCore
}

// NotFoundError creates an ErrNotFound error
func NotFoundError(msg ...interface{}) *ErrNotFound {
	core := newError(nil, nil, msg...)
	return bind(&ErrNotFound{core}, core)
}

// NotFoundErrorWithCause creates an ErrNotFound error initialized with cause 'cause'
func NotFoundErrorWithCause(cause error, msg ...interface{}) *ErrNotFound {
	core := newError(cause, nil, msg...)
	return bind(&ErrNotFound{core}, core)
}

// ErrNotAvailable resource not available error
type ErrNotAvailable struct {
	*errorCore
}

// NotAvailableError creates an ErrNotAvailable error
func NotAvailableError(msg ...interface{}) *ErrNotAvailable {
	core := newError(nil, nil, msg...)
	return bind(&ErrNotAvailable{core}, core)
}

// NotAvailableErrorWithCause creates an ErrNotAvailable error initialized with a cause 'cause'
func NotAvailableErrorWithCause(cause error, msg ...interface{}) *ErrNotAvailable {
	core := newError(cause, nil, msg...)
	return bind(&ErrNotAvailable{core}, core)
}

// ErrDuplicate already exists error
type ErrDuplicate struct {
	*errorCore
}

// DuplicateError creates an ErrDuplicate error
func DuplicateError(msg ...interface{}) *ErrDuplicate {
	core := newError(nil, nil, msg...)
	return bind(&ErrDuplicate{core}, core)
}

// DuplicateErrorWithCause creates an ErrDuplicate error initialized with a cause 'cause'
func DuplicateErrorWithCause(cause error, msg ...interface{}) *ErrDuplicate {
	core := newError(cause, nil, msg...)
	return bind(&ErrDuplicate{core}, core)
}

// ErrInvalidRequest ...
type ErrInvalidRequest struct {
	*errorCore
}

// InvalidRequestError creates an ErrInvalidRequest error
func InvalidRequestError(msg ...interface{}) *ErrInvalidRequest {
	core := newError(nil, nil, msg...)
	return bind(&ErrInvalidRequest{core}, core)
}

// InvalidRequestErrorWithCause creates an ErrInvalidRequest error initialized with a cause 'cause'
func InvalidRequestErrorWithCause(cause error, msg ...interface{}) *ErrInvalidRequest {
	core := newError(cause, nil, msg...)
	return bind(&ErrInvalidRequest{core}, core)
}

// ErrSyntax ...
type ErrSyntax struct {
	*errorCore
}

// SyntaxError creates an ErrSyntax error
func SyntaxError(msg ...interface{}) *ErrSyntax {
	core := newError(nil, nil, msg...)
	return bind(&ErrSyntax{core}, core)
}

// SyntaxErrorWithCause creates an ErrSyntax error initialized with a cause 'cause'
func SyntaxErrorWithCause(cause error, msg ...interface{}) *ErrSyntax {
	core := newError(cause, nil, msg...)
	return bind(&ErrSyntax{core}, core)
}

// ErrNotAuthenticated when action is done without being authenticated first
type ErrNotAuthenticated struct {
	*errorCore
}

// NotAuthenticatedError creates an ErrNotAuthenticated error
func NotAuthenticatedError(msg ...interface{}) *ErrNotAuthenticated {
	core := newError(nil, nil, msg...)
	return bind(&ErrNotAuthenticated{core}, core)
}

// ErrForbidden when action is not allowed.
type ErrForbidden struct {
	*errorCore
}

// ForbiddenError creates an ErrForbidden error
func ForbiddenError(msg ...interface{}) *ErrForbidden {
	core := newError(nil, nil, msg...)
	return bind(&ErrForbidden{core}, core)
}

// ErrAborted is used to signal abortion
type ErrAborted struct {
	*errorCore
}

// AbortedError creates an ErrAborted error
// If err != nil, this err will become the cause of the abortion
func AbortedError(err error, msg ...interface{}) *ErrAborted {
	var message string
	if len(msg) == 0 {
		message = "aborted"
	} else {
		message = strprocess.FormatStrings(msg...)
	}
	core := newError(err, nil, message)
	return bind(&ErrAborted{core}, core)
}

// ErrOverflow is used when a limit is reached
type ErrOverflow struct {
	*errorCore
	limit uint
}

// OverflowError creates an ErrOverflow error
func OverflowError(err error, limit uint, msg ...interface{}) *ErrOverflow {
	message := strprocess.FormatStrings(msg...)
	if limit > 0 {
		limitMsg := fmt.Sprintf("(limit: %d)", limit)
		if message != "" {
			message += " "
		}
		message += limitMsg
	}
	core := newError(err, nil, message)
	return bind(&ErrOverflow{errorCore: core, limit: limit}, core)
}

// ErrOverload when action cannot be honored because provider is overloaded (ie too many requests occurred in a given time).
type ErrOverload struct {
	*errorCore
}

// OverloadError creates an ErrOverload error
func OverloadError(msg ...interface{}) *ErrOverload {
	core := newError(nil, nil, msg...)
	return bind(&ErrOverload{core}, core)
}

// ErrNotImplemented ...
type ErrNotImplemented struct {
	*errorCore
}

// NotImplementedError creates an ErrNotImplemented report
func NotImplementedError(msg ...interface{}) *ErrNotImplemented {
	core := newError(nil, nil, msg...)
	return bind(&ErrNotImplemented{core}, core)
}

// ErrRuntimePanic ...
type ErrRuntimePanic struct {
	*errorCore
}

// RuntimePanicError creates an ErrRuntimePanic error
func RuntimePanicError(pattern string, msg ...interface{}) *ErrRuntimePanic {
	core := newError(fmt.Errorf(pattern, msg...), nil, "runtime panic")
	return bind(&ErrRuntimePanic{core}, core)
}

// ErrInvalidInstance has to be used when a method is called from an instance equal to nil
type ErrInvalidInstance struct {
	*errorCore
}

// InvalidInstanceError creates an ErrInvalidInstance error
func InvalidInstanceError() *ErrInvalidInstance {
	core := newError(nil, nil, "invalid instance: calling method from a nil pointer")
	return bind(&ErrInvalidInstance{core}, core)
}

// ErrInvalidParameter ...
type ErrInvalidParameter struct {
	*errorCore
}

// InvalidParameterError creates an ErrInvalidParameter error
func InvalidParameterError(what string, why ...interface{}) *ErrInvalidParameter {
	core := newError(nil, nil, "invalid parameter '"+what+"': "+strprocess.FormatStrings(why...))
	return bind(&ErrInvalidParameter{core}, core)
}

// InvalidParameterCannotBeNilError is a specialized *ErrInvalidParameter with message "cannot be nil"
func InvalidParameterCannotBeNilError(what string) *ErrInvalidParameter {
	return InvalidParameterError(what, "cannot be nil")
}

// InvalidParameterCannotBeEmptyStringError is a specialized *ErrInvalidParameter with message "cannot be empty string"
func InvalidParameterCannotBeEmptyStringError(what string) *ErrInvalidParameter {
	return InvalidParameterError(what, "cannot be empty string")
}

// ErrInvalidInstanceContent has to be used when a property of an instance contains invalid value
type ErrInvalidInstanceContent struct {
	*errorCore
}

// InvalidInstanceContentError creates an ErrInvalidInstanceContent error
func InvalidInstanceContentError(what, why string) *ErrInvalidInstanceContent {
	core := newError(nil, nil, "invalid instance content '"+what+"': "+why)
	return bind(&ErrInvalidInstanceContent{core}, core)
}

// ErrInconsistent is used when data used is inconsistent
type ErrInconsistent struct {
	*errorCore
}

// InconsistentError creates an ErrInconsistent error
func InconsistentError(msg ...interface{}) *ErrInconsistent {
	core := newError(nil, nil, msg...)
	return bind(&ErrInconsistent{core}, core)
}

// ErrExecution is used when the remote side reports the failure of an operation
type ErrExecution struct {
	*errorCore
}

// ExecutionError creates an ErrExecution error
func ExecutionError(cause error, msg ...interface{}) *ErrExecution {
	core := newError(cause, nil, msg...)
	return bind(&ErrExecution{core}, core)
}
