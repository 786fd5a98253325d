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

package cloud

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/CS-SI/sharedfs/lib/backend/iaas/filters"
	"github.com/CS-SI/sharedfs/lib/backend/resources/abstract"
	"github.com/CS-SI/sharedfs/lib/backend/resources/enums/sharestate"
	"github.com/CS-SI/sharedfs/lib/utils/debug"
	"github.com/CS-SI/sharedfs/lib/utils/debug/tracing"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
	"github.com/CS-SI/sharedfs/lib/utils/retry"
)

// CreateShare creates a share. If 'wait' is true, waits until the share is available; 'timeout' <= 0 waits forever.
// Returns a *fail.ErrExecution if the share ends in error, a *fail.ErrTimeout if the wait lasts longer than 'timeout'.
func (c *Cloud) CreateShare(ctx context.Context, req abstract.ShareRequest, wait bool, timeout time.Duration) (_ *abstract.Share, ferr fail.Error) {
	defer fail.OnPanic(&ferr)

	if c == nil {
		return nil, fail.InvalidInstanceError()
	}

	tracer := debug.NewTracer(ctx, tracing.ShouldTrace("cloud.share"), "(%s, %d, %v, %s)", req.ShareProto, req.Size, wait, timeout).WithStopwatch().Entering()
	defer tracer.Exiting()

	share, xerr := c.proxy.CreateShare(ctx, req)
	if xerr != nil {
		return nil, fail.Wrap(xerr, "error in creating share")
	}
	c.InvalidateShares(ctx)

	if share.Status == sharestate.Error {
		return nil, creationFailure(share.ID)
	}
	if !wait {
		return share, nil
	}

	id := share.ID
	var outcome fail.Error
	xerr = retry.WhileUnsuccessful(ctx,
		func() error {
			c.metrics.RecordWaitPoll("share.create")
			current, innerXErr := c.GetShare(ctx, filters.ByID(id), filters.None())
			if innerXErr != nil {
				outcome = innerXErr
				return retry.StopRetryError(innerXErr)
			}
			if current == nil {
				return fail.NotFoundError("share '%s' not listed yet", id)
			}
			switch current.Status {
			case sharestate.Available:
				share = current
				return nil
			case sharestate.Error:
				outcome = creationFailure(id)
				return retry.StopRetryError(outcome)
			default:
				return fail.NewError("share '%s' is in status '%s'", id, current.Status)
			}
		},
		c.pollInterval,
		timeout,
	)
	if outcome != nil {
		return nil, outcome
	}
	if xerr != nil {
		if _, ok := xerr.(*retry.ErrTimeout); ok {
			return nil, fail.TimeoutError(xerr.Cause(), timeout, "timeout waiting for the share to be available")
		}
		return nil, xerr
	}
	return share, nil
}

func creationFailure(id string) fail.Error {
	xerr := fail.ExecutionError(nil, "error in creating share")
	return xerr.Annotate("id", id)
}

// UpdateShare changes the name, description or visibility of the share designated by 'sel'
func (c *Cloud) UpdateShare(ctx context.Context, sel filters.Selector, update abstract.ShareUpdate) (_ *abstract.Share, ferr fail.Error) {
	defer fail.OnPanic(&ferr)

	if c == nil {
		return nil, fail.InvalidInstanceError()
	}

	share, xerr := c.GetShare(ctx, sel, filters.None())
	if xerr != nil {
		return nil, xerr
	}
	if share == nil {
		return nil, abstract.ResourceNotFoundError(abstract.ShareKind, selectorRef(sel))
	}

	updated, xerr := c.proxy.UpdateShare(ctx, share.ID, update)
	c.InvalidateShares(ctx)
	if xerr != nil {
		return nil, fail.Wrap(xerr, "error updating share %s", selectorRef(sel))
	}
	return updated, nil
}

// DeleteShare deletes the share designated by 'sel'. If 'force' is true, the share is deleted whatever its status.
// If 'wait' is true, waits until the share is gone; 'timeout' <= 0 waits forever.
// Returns false without error if the share does not exist.
func (c *Cloud) DeleteShare(ctx context.Context, sel filters.Selector, wait bool, timeout time.Duration, force bool) (_ bool, ferr fail.Error) {
	defer fail.OnPanic(&ferr)

	if c == nil {
		return false, fail.InvalidInstanceError()
	}

	tracer := debug.NewTracer(ctx, tracing.ShouldTrace("cloud.share"), "(%s, %v, %s, %v)", sel, wait, timeout, force).WithStopwatch().Entering()
	defer tracer.Exiting()

	c.InvalidateShares(ctx)
	share, xerr := c.GetShare(ctx, sel, filters.None())
	if xerr != nil {
		return false, xerr
	}
	if share == nil {
		logrus.WithContext(ctx).Debugf("share %s does not exist", sel)
		return false, nil
	}

	if force {
		xerr = c.proxy.ForceDeleteShare(ctx, share.ID)
	} else {
		xerr = c.proxy.DeleteShare(ctx, share.ID, false)
	}
	if xerr != nil {
		if _, ok := xerr.(*fail.ErrNotFound); ok {
			logrus.WithContext(ctx).Debugf("share %s not found when deleting, ignoring", share.ID)
			return false, nil
		}
		return false, fail.Wrap(xerr, "error in deleting share")
	}
	c.InvalidateShares(ctx)

	if !wait {
		return true, nil
	}

	id := share.ID
	var outcome fail.Error
	xerr = retry.WhileUnsuccessful(ctx,
		func() error {
			c.metrics.RecordWaitPoll("share.delete")
			current, innerXErr := c.GetShare(ctx, filters.ByID(id), filters.None())
			if innerXErr != nil {
				outcome = innerXErr
				return retry.StopRetryError(innerXErr)
			}
			if current != nil {
				return fail.NewError("share '%s' still exists", id)
			}
			return nil
		},
		c.pollInterval,
		timeout,
	)
	if outcome != nil {
		return true, outcome
	}
	if xerr != nil {
		if _, ok := xerr.(*retry.ErrTimeout); ok {
			return true, fail.TimeoutError(xerr.Cause(), timeout, "timeout waiting for the share to be deleted")
		}
		return true, xerr
	}
	return true, nil
}
