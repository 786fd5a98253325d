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

package resource

import (
	"context"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/sirupsen/logrus"

	"github.com/CS-SI/sharedfs/lib/backend/resources/abstract"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
	"github.com/CS-SI/sharedfs/lib/utils/retry"
	"github.com/CS-SI/sharedfs/lib/utils/valid"
)

const (
	// DefaultWaitInterval is the delay between two polls
	DefaultWaitInterval = 2 * time.Second
	// DefaultWaitTimeout is the maximum duration of a wait
	DefaultWaitTimeout = 120 * time.Second
	// Unbounded, used as WaitOptions.Wait, makes a wait last until success, failure or cancellation
	Unbounded time.Duration = -1
)

// DefaultFailures lists the statuses considered as failures when none are given
var DefaultFailures = []string{"Error"}

// Statused is implemented by resources carrying a status
type Statused interface {
	GetStatus() string
}

// WaitOptions tunes a wait
type WaitOptions struct {
	// Kind and ID name the resource in errors
	Kind string
	ID   string
	// Interval between polls; DefaultWaitInterval if <= 0
	Interval time.Duration
	// Wait is the maximum duration of the wait; DefaultWaitTimeout if 0, no limit if < 0
	Wait time.Duration
	// Failures lists the statuses ending the wait in error; DefaultFailures if nil
	Failures []string
	// OnPoll, if set, is called before each poll
	OnPoll func()
}

func (o WaitOptions) interval() time.Duration {
	if o.Interval <= 0 {
		return DefaultWaitInterval
	}
	return o.Interval
}

// timeout returns the limit of the wait, 0 meaning no limit
func (o WaitOptions) timeout() time.Duration {
	switch {
	case o.Wait == 0:
		return DefaultWaitTimeout
	case o.Wait < 0:
		return 0
	default:
		return o.Wait
	}
}

func (o WaitOptions) failures() mapset.Set {
	list := o.Failures
	if list == nil {
		list = DefaultFailures
	}
	out := mapset.NewSet()
	for _, v := range list {
		out.Add(strings.ToLower(v))
	}
	return out
}

// WaitForStatus polls the resource with 'fetch' until its status is 'status' (case-insensitive).
// Returns a *fail.ErrExecution if a failure status is reached or if the resource went away,
// and a *fail.ErrTimeout if the wait limit is reached first.
// If 'current' already has the wanted status, it is returned without polling.
func WaitForStatus[T Statused](ctx context.Context, current T, fetch func(context.Context) (T, fail.Error), status string, opts WaitOptions) (_ T, ferr fail.Error) {
	defer fail.OnPanic(&ferr)

	var empty T
	if ctx == nil {
		return empty, fail.InvalidParameterCannotBeNilError("ctx")
	}
	if fetch == nil {
		return empty, fail.InvalidParameterCannotBeNilError("fetch")
	}
	if status == "" {
		return empty, fail.InvalidParameterCannotBeEmptyStringError("status")
	}
	if !valid.IsNil(current) && strings.EqualFold(current.GetStatus(), status) {
		return current, nil
	}

	return waitUntil(ctx, current, fetch, func(res T) bool {
		return strings.EqualFold(res.GetStatus(), status)
	}, "status '"+status+"'", opts)
}

// WaitUntil polls the resource with 'fetch' until 'done' holds for it; it always polls at least once.
// Failure statuses, disappearance and the wait limit end the wait as in WaitForStatus; 'what' describes the expected state in errors.
func WaitUntil[T Statused](ctx context.Context, fetch func(context.Context) (T, fail.Error), done func(T) bool, what string, opts WaitOptions) (_ T, ferr fail.Error) {
	defer fail.OnPanic(&ferr)

	var empty T
	if ctx == nil {
		return empty, fail.InvalidParameterCannotBeNilError("ctx")
	}
	if fetch == nil {
		return empty, fail.InvalidParameterCannotBeNilError("fetch")
	}
	if done == nil {
		return empty, fail.InvalidParameterCannotBeNilError("done")
	}
	return waitUntil(ctx, empty, fetch, done, what, opts)
}

func waitUntil[T Statused](ctx context.Context, current T, fetch func(context.Context) (T, fail.Error), done func(T) bool, what string, opts WaitOptions) (T, fail.Error) {
	failures := opts.failures()
	timeout := opts.timeout()
	last := current
	var outcome fail.Error
	xerr := retry.WhileUnsuccessful(ctx,
		func() error {
			if opts.OnPoll != nil {
				opts.OnPoll()
			}
			res, innerXErr := fetch(ctx)
			if innerXErr != nil {
				switch innerXErr.(type) {
				case *fail.ErrNotFound:
					outcome = fail.ExecutionError(innerXErr, "%s '%s' went away while waiting for %s", opts.Kind, opts.ID, what)
				default:
					outcome = innerXErr
				}
				return retry.StopRetryError(outcome)
			}
			if valid.IsNil(res) {
				outcome = fail.ExecutionError(nil, "%s '%s' went away while waiting for %s", opts.Kind, opts.ID, what)
				return retry.StopRetryError(outcome)
			}

			last = res
			got := res.GetStatus()
			if done(res) {
				return nil
			}
			if failures.Contains(strings.ToLower(got)) {
				outcome = abstract.ResourceFailureError(opts.Kind, opts.ID, got)
				return retry.StopRetryError(outcome)
			}
			logrus.WithContext(ctx).Tracef("%s '%s' is in status '%s', waiting for %s", opts.Kind, opts.ID, got, what)
			return fail.NewError("%s '%s' is in status '%s'", opts.Kind, opts.ID, got)
		},
		opts.interval(),
		timeout,
	)
	if outcome != nil {
		return last, outcome
	}
	if xerr != nil {
		if _, ok := xerr.(*retry.ErrTimeout); ok {
			return last, abstract.ResourceTimeoutError(opts.Kind, opts.ID, timeout)
		}
		return last, xerr
	}
	return last, nil
}

// WaitForDelete polls the resource with 'fetch' until it is not found anymore, or its status is "deleted"
func WaitForDelete[T Statused](ctx context.Context, fetch func(context.Context) (T, fail.Error), opts WaitOptions) (ferr fail.Error) {
	defer fail.OnPanic(&ferr)

	if ctx == nil {
		return fail.InvalidParameterCannotBeNilError("ctx")
	}
	if fetch == nil {
		return fail.InvalidParameterCannotBeNilError("fetch")
	}

	timeout := opts.timeout()
	var outcome fail.Error
	xerr := retry.WhileUnsuccessful(ctx,
		func() error {
			if opts.OnPoll != nil {
				opts.OnPoll()
			}
			res, innerXErr := fetch(ctx)
			if innerXErr != nil {
				if _, ok := innerXErr.(*fail.ErrNotFound); ok {
					return nil
				}
				outcome = innerXErr
				return retry.StopRetryError(outcome)
			}
			if valid.IsNil(res) || strings.EqualFold(res.GetStatus(), "deleted") {
				return nil
			}
			return fail.NewError("%s '%s' still exists", opts.Kind, opts.ID)
		},
		opts.interval(),
		timeout,
	)
	if outcome != nil {
		return outcome
	}
	if xerr != nil {
		if _, ok := xerr.(*retry.ErrTimeout); ok {
			return abstract.ResourceTimeoutError(opts.Kind, opts.ID, timeout)
		}
		return xerr
	}
	return nil
}
