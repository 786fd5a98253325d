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
	"context"
	"time"

	"github.com/CS-SI/sharedfs/lib/utils/fail"
	"github.com/CS-SI/sharedfs/lib/utils/retry/enums/verdict"
)

// Arbiter decides, after each try, if the retries go on
type Arbiter func(Try) (verdict.Enum, fail.Error)

// PrevailDone combines arbiters: an error or an Abort wins, then Done, then Retry
func PrevailDone(arbiters ...Arbiter) Arbiter {
	return func(t Try) (verdict.Enum, fail.Error) {
		decision := verdict.Retry
		for _, a := range arbiters {
			v, err := a(t)
			if err != nil {
				return verdict.Abort, err
			}

			switch v {
			case verdict.Done:
				decision = verdict.Done
			case verdict.Abort:
				return verdict.Abort, nil
			}
		}
		return decision, nil
	}
}

// final tells if 'err' ends the retries whatever the arbiters say, and returns it as the outcome
func final(err error) (fail.Error, bool) {
	switch cerr := err.(type) {
	case *ErrStopRetry:
		return cerr, true
	case *fail.ErrRuntimePanic:
		return cerr, true
	default:
		return nil, false
	}
}

// Unsuccessful returns Retry when the try produced an error; returns Done otherwise
func Unsuccessful() Arbiter {
	return func(t Try) (verdict.Enum, fail.Error) {
		if t.Err == nil {
			return verdict.Done, nil
		}
		if xerr, ok := final(t.Err); ok {
			return verdict.Done, xerr
		}
		return verdict.Retry, nil
	}
}

// Timeout aborts the retries once 'limit' has elapsed since the first try, while the tries fail
func Timeout(limit time.Duration) Arbiter {
	return func(t Try) (verdict.Enum, fail.Error) {
		if t.Err == nil {
			return verdict.Done, nil
		}
		if xerr, ok := final(t.Err); ok {
			return verdict.Done, xerr
		}
		if time.Since(t.Start) >= limit {
			return verdict.Abort, TimeoutError(t.Err, limit)
		}
		return verdict.Retry, nil
	}
}

// Max aborts the retries after 'limit' failed tries
func Max(limit uint) Arbiter {
	return func(t Try) (verdict.Enum, fail.Error) {
		if t.Err == nil {
			return verdict.Done, nil
		}
		if xerr, ok := final(t.Err); ok {
			return verdict.Done, xerr
		}
		if t.Count >= limit {
			return verdict.Abort, LimitError(t.Err, limit)
		}
		return verdict.Retry, nil
	}
}

// Canceled aborts as soon as the context 'ctx' is done
func Canceled(ctx context.Context) Arbiter {
	return func(t Try) (verdict.Enum, fail.Error) {
		if ctx == nil {
			return verdict.Undecided, nil
		}
		if err := ctx.Err(); err != nil && t.Err != nil {
			return verdict.Abort, fail.AbortedError(err, "retries canceled")
		}
		return verdict.Undecided, nil
	}
}
