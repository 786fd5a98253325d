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

package stacks

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/CS-SI/sharedfs/lib/backend/iaas/options"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

const (
	defaultBreakerMaxFailures = 5
	defaultBreakerOpenTimeout = 30 * time.Second
)

// RemoteCaller runs the calls to the remote API, optionally guarded by a circuit breaker.
// Failed calls are never retried: the normalized error is returned to the caller.
type RemoteCaller struct {
	breaker *gobreaker.CircuitBreaker
}

// NewRemoteCaller creates a RemoteCaller; the circuit breaker is enabled only if 'opts.Enabled' is true
func NewRemoteCaller(name string, opts options.Breaker) *RemoteCaller {
	if !opts.Enabled {
		return &RemoteCaller{}
	}

	maxFailures := opts.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	openTimeout := opts.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = defaultBreakerOpenTimeout
	}

	return &RemoteCaller{
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logrus.Warnf("circuit breaker '%s' switched from %s to %s", name, from, to)
			},
		}),
	}
}

// Call calls a remote API; the remote call is done inside 'callback', and the error returned is translated by 'convertError'
func (rc *RemoteCaller) Call(ctx context.Context, callback func() error, convertError func(error) fail.Error) (ferr fail.Error) {
	defer fail.OnPanic(&ferr)

	if callback == nil {
		return fail.InvalidParameterCannotBeNilError("callback")
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return fail.AbortedError(err, "remote call canceled")
		}
	}

	normalizeError := convertError
	if normalizeError == nil {
		normalizeError = fail.ConvertError
	}

	if rc == nil || rc.breaker == nil {
		if err := callback(); err != nil {
			return normalizeError(err)
		}
		return nil
	}

	var callErr fail.Error
	_, err := rc.breaker.Execute(func() (interface{}, error) {
		if innerErr := callback(); innerErr != nil {
			callErr = normalizeError(innerErr)
			if !countsAsFailure(callErr) {
				return nil, nil
			}
			return nil, callErr
		}
		return nil, nil
	})
	switch err {
	case nil:
		return callErr
	case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
		return fail.NotAvailableErrorWithCause(err, "remote service considered unavailable")
	default:
		return callErr
	}
}

// countsAsFailure tells if an error denotes a malfunction of the remote service, as opposed to a legitimate answer
// such as "not found"
func countsAsFailure(xerr fail.Error) bool {
	switch xerr.(type) {
	case *fail.ErrNotAvailable, *fail.ErrExecution, *fail.ErrOverflow, *fail.ErrUnqualified, *fail.ErrTimeout:
		return true
	default:
		return false
	}
}

// RemoteCall calls a remote API without circuit breaker
func RemoteCall(ctx context.Context, callback func() error, convertError func(error) fail.Error) fail.Error {
	var rc *RemoteCaller
	return rc.Call(ctx, callback, convertError)
}
