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

// Package retry implements a mean to retry an action with ability to define complex
// delays and stop conditions

import (
	"context"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"github.com/CS-SI/sharedfs/lib/utils/fail"
	"github.com/CS-SI/sharedfs/lib/utils/retry/enums/verdict"
)

// Try keeps track of the number of tries, starting from 1. Action is valid only when Err is nil.
type Try struct {
	Start time.Time
	Count uint
	Err   error
}

// Notify is called after every try, once the arbiter has decided
type Notify func(Try, verdict.Enum)

type action struct {
	// Officer is used to apply needed delay between 2 tries. If nil, no delay will be used.
	Officer *Officer
	// Arbiter is called for every try to determine if next try is wanted
	Arbiter Arbiter
	// Run is called for every try
	Run func() error
	// Notify is called after every verdict
	Notify Notify
}

// Action tries to execute 'run' following verdicts from arbiter, with delay decided by 'officer'.
// The loop stops early when 'ctx' is done.
func Action(ctx context.Context, run func() error, arbiter Arbiter, officer *Officer, notify Notify) fail.Error {
	if run == nil {
		return fail.InvalidParameterCannotBeNilError("run")
	}
	if arbiter == nil {
		return fail.InvalidParameterCannotBeNilError("arbiter")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return action{
		Officer: officer,
		Arbiter: arbiter,
		Run:     run,
		Notify:  notify,
	}.loop(ctx)
}

// WhileUnsuccessful retries every 'delay' while 'run' is unsuccessful with a 'timeout'.
// A 'timeout' <= 0 means the tries never expire.
func WhileUnsuccessful(ctx context.Context, run func() error, delay time.Duration, timeout time.Duration) fail.Error {
	return WhileUnsuccessfulWithNotify(ctx, run, delay, timeout, DefaultNotifier())
}

// WhileUnsuccessfulWithNotify retries while 'run' is unsuccessful (ie 'run' returns an error != nil),
// waiting 'delay' after each try, expiring after 'timeout' (never if 'timeout' <= 0)
func WhileUnsuccessfulWithNotify(ctx context.Context, run func() error, delay time.Duration, timeout time.Duration, notify Notify) fail.Error {
	if delay > timeout && timeout > 0 {
		logrus.Warnf("unexpected parameters: 'delay' greater than 'timeout' ?? : (%s) > (%s)", delay, timeout)
	}
	if delay <= 0 {
		delay = time.Second
	}

	var arbiter Arbiter
	if timeout <= 0 {
		arbiter = PrevailDone(Canceled(ctx), Unsuccessful())
	} else {
		arbiter = PrevailDone(Canceled(ctx), Unsuccessful(), Timeout(timeout))
	}
	return Action(ctx, run, arbiter, Constant(delay), notify)
}

// WhileUnsuccessfulWithLimitedRetries uses Unsuccessful and Max arbiters
func WhileUnsuccessfulWithLimitedRetries(ctx context.Context, run func() error, delay time.Duration, retries uint) fail.Error {
	var arbiter Arbiter
	if retries >= 1 {
		arbiter = PrevailDone(Canceled(ctx), Unsuccessful(), Max(retries))
	} else {
		arbiter = PrevailDone(Canceled(ctx), Unsuccessful())
	}
	return Action(ctx, run, arbiter, Constant(delay), DefaultNotifier())
}

// DefaultNotifier provides a default Notifier
func DefaultNotifier() Notify {
	if forensics := os.Getenv("SHAREDFS_FORENSICS"); forensics == "" {
		return func(t Try, v verdict.Enum) {}
	}

	return func(t Try, v verdict.Enum) {
		switch v {
		case verdict.Retry:
			logrus.Tracef("retrying (#%d), previous error was: %v [%s]", t.Count, t.Err, spew.Sdump(fail.RootCause(t.Err)))
		case verdict.Done:
			if t.Err != nil {
				logrus.Tracef("no more retries, operation had an error %v [%s] but it's considered OK", t.Err, spew.Sdump(fail.RootCause(t.Err)))
			} else if t.Count > 1 {
				logrus.Tracef("no more retries, operation was OK")
			}
		case verdict.Undecided:
			logrus.Tracef("nothing to do")
		case verdict.Abort:
			logrus.Tracef("aborting, previous error was: %v [%s]", t.Err, spew.Sdump(fail.RootCause(t.Err)))
		}
	}
}

// loop executes the tries and stops if the arbiter says so; the timeout is evaluated after each try (hence a
// "soft timeout")
func (a action) loop(ctx context.Context) fail.Error {
	start := time.Now()

	for count := uint(1); ; count++ {
		var err error
		if cerr := ctx.Err(); cerr != nil {
			err = cerr
		} else {
			err = a.Run()
		}

		try := Try{
			Start: start,
			Count: count,
			Err:   err,
		}

		v, retryErr := a.Arbiter(try)

		if a.Notify != nil {
			a.Notify(try, v)
		}

		switch v {
		case verdict.Done, verdict.Abort:
			return retryErr
		default:
			if cerr := ctx.Err(); cerr != nil {
				return fail.AbortedError(cerr, "retries canceled")
			}
			if a.Officer == nil || a.Officer.Delay == nil {
				continue
			}
			timer := time.NewTimer(a.Officer.Delay(try))
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
	}
}
