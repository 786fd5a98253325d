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
	"golang.org/x/sync/singleflight"

	"github.com/CS-SI/sharedfs/lib/backend/iaas/cache"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/filters"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/metrics"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/stacks/sharedfilesystem"
	"github.com/CS-SI/sharedfs/lib/backend/resources/abstract"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
	"github.com/CS-SI/sharedfs/lib/utils/retry"
	"github.com/CS-SI/sharedfs/lib/utils/temporal"
)

const (
	sharesCacheKey     = "shares"
	shareTypesCacheKey = "share_types"

	// listAttempts is the number of times a share listing is started over when a page vanishes
	listAttempts = 5
)

// Cloud offers cached listings and name-or-ID lookups of shares and share types, and creations and deletions
// waiting for the final status
type Cloud struct {
	proxy        *sharedfilesystem.Proxy
	cache        cache.Service
	metrics      *metrics.Collector
	group        singleflight.Group
	pollInterval time.Duration
}

// Option configures a Cloud
type Option func(*Cloud)

// WithCache sets the cache of the listings; without it, nothing is cached
func WithCache(svc cache.Service) Option {
	return func(c *Cloud) {
		if svc != nil {
			c.cache = svc
		}
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Cloud) {
		c.metrics = collector
	}
}

// WithPollInterval sets the delay between two polls while waiting
func WithPollInterval(interval time.Duration) Option {
	return func(c *Cloud) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// New creates a Cloud on top of 'proxy'
func New(proxy *sharedfilesystem.Proxy, opts ...Option) (*Cloud, fail.Error) {
	if proxy == nil {
		return nil, fail.InvalidParameterCannotBeNilError("proxy")
	}

	c := &Cloud{
		proxy:        proxy,
		cache:        cache.NewNoop(),
		pollInterval: temporal.NormalDelay(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Proxy returns the proxy used
func (c *Cloud) Proxy() *sharedfilesystem.Proxy {
	return c.proxy
}

// InvalidateShares drops the cached share listing
func (c *Cloud) InvalidateShares(ctx context.Context) {
	if xerr := c.cache.Invalidate(ctx, sharesCacheKey); xerr != nil {
		logrus.WithContext(ctx).Warnf("failed to invalidate share listing: %v", xerr)
	}
}

// InvalidateShareTypes drops the cached share type listing
func (c *Cloud) InvalidateShareTypes(ctx context.Context) {
	if xerr := c.cache.Invalidate(ctx, shareTypesCacheKey); xerr != nil {
		logrus.WithContext(ctx).Warnf("failed to invalidate share type listing: %v", xerr)
	}
}

// noPendingShares tells if every share is in a terminal status, i.e. if the listing can be cached
func noPendingShares(shares []abstract.Share) bool {
	for _, v := range shares {
		if !v.Status.IsTerminal() {
			return false
		}
	}
	return true
}

// sharePointers returns deep copies of 'shares', so the callers cannot alter the cached listing
func sharePointers(shares []abstract.Share) []*abstract.Share {
	out := make([]*abstract.Share, 0, len(shares))
	for _, v := range shares {
		out = append(out, v.Clone())
	}
	return out
}

func shareTypePointers(types []abstract.ShareType) []*abstract.ShareType {
	out := make([]*abstract.ShareType, 0, len(types))
	for _, v := range types {
		out = append(out, v.Clone())
	}
	return out
}

// ListShares lists all the shares, with details.
// When a "next" link vanishes during the traversal, the listing is started over, up to 5 times; if every attempt
// fails, the shares gathered by the last attempt are returned without error.
// The result is cached unless a share is not in a terminal status.
func (c *Cloud) ListShares(ctx context.Context) ([]*abstract.Share, fail.Error) {
	if c == nil {
		return nil, fail.InvalidInstanceError()
	}

	if cached, ok := c.cache.Get(ctx, sharesCacheKey); ok {
		if shares, ok := cached.([]abstract.Share); ok {
			c.metrics.RecordCacheLookup(true)
			return sharePointers(shares), nil
		}
	}
	c.metrics.RecordCacheLookup(false)

	// concurrent listings share the same requests
	v, err, _ := c.group.Do(sharesCacheKey, func() (interface{}, error) {
		shares, complete, xerr := c.listShares(ctx)
		if xerr != nil {
			return nil, xerr
		}
		if complete {
			if xerr := c.cache.Put(ctx, sharesCacheKey, shares, noPendingShares(shares)); xerr != nil {
				logrus.WithContext(ctx).Warnf("failed to cache share listing: %v", xerr)
			}
		}
		return shares, nil
	})
	if err != nil {
		return nil, fail.ConvertError(err)
	}
	return sharePointers(v.([]abstract.Share)), nil
}

// listShares walks the share listing; 'complete' is false when the last attempt could not reach the last page
func (c *Cloud) listShares(ctx context.Context) (shares []abstract.Share, complete bool, ferr fail.Error) {
	defer fail.OnPanic(&ferr)

	var (
		mapper  = c.proxy.ShareMapper()
		attempt uint
		outcome fail.Error
	)
	xerr := retry.WhileUnsuccessfulWithLimitedRetries(ctx,
		func() error {
			attempt++
			shares = []abstract.Share{}
			pages := 0
			innerXErr := mapper.Each(ctx, true, nil, func(items []abstract.Share) fail.Error {
				pages++
				shares = append(shares, items...)
				return nil
			})
			if innerXErr == nil {
				return nil
			}
			if _, ok := innerXErr.(*fail.ErrNotFound); !ok || pages == 0 {
				outcome = innerXErr
				return retry.StopRetryError(innerXErr)
			}

			logrus.WithContext(ctx).Debugf("while listing shares, could not find next link after page %d (attempt %d/%d): %v", pages, attempt, listAttempts, innerXErr)
			if attempt < listAttempts {
				c.metrics.RecordListingRestart()
			}
			return innerXErr
		},
		0, listAttempts,
	)
	switch xerr.(type) {
	case nil:
		return shares, true, nil
	case *retry.ErrLimit:
		logrus.WithContext(ctx).Debugf("list shares failed to retrieve all shares after %d attempts, returning what was found", listAttempts)
		return shares, false, nil
	default:
		if outcome != nil {
			return nil, false, outcome
		}
		return nil, false, xerr
	}
}

// ListShareTypes lists all the share types, public or not; the result is cached
func (c *Cloud) ListShareTypes(ctx context.Context) ([]*abstract.ShareType, fail.Error) {
	if c == nil {
		return nil, fail.InvalidInstanceError()
	}

	if cached, ok := c.cache.Get(ctx, shareTypesCacheKey); ok {
		if types, ok := cached.([]abstract.ShareType); ok {
			c.metrics.RecordCacheLookup(true)
			return shareTypePointers(types), nil
		}
	}
	c.metrics.RecordCacheLookup(false)

	v, err, _ := c.group.Do(shareTypesCacheKey, func() (interface{}, error) {
		types, xerr := c.proxy.Types(ctx, map[string]string{"is_public": "all"})
		if xerr != nil {
			return nil, fail.Wrap(xerr, "error fetching share type list")
		}
		if xerr := c.cache.Put(ctx, shareTypesCacheKey, types, true); xerr != nil {
			logrus.WithContext(ctx).Warnf("failed to cache share type listing: %v", xerr)
		}
		return types, nil
	})
	if err != nil {
		return nil, fail.ConvertError(err)
	}
	return shareTypePointers(v.([]abstract.ShareType)), nil
}

// SearchShares returns the shares designated by 'sel' and kept by 'f'
func (c *Cloud) SearchShares(ctx context.Context, sel filters.Selector, f filters.Filter) ([]*abstract.Share, fail.Error) {
	shares, xerr := c.ListShares(ctx)
	if xerr != nil {
		return nil, xerr
	}
	return filters.Apply(shares, sel, f)
}

// SearchShareTypes returns the share types designated by 'sel' and kept by 'f'
func (c *Cloud) SearchShareTypes(ctx context.Context, sel filters.Selector, f filters.Filter) ([]*abstract.ShareType, fail.Error) {
	types, xerr := c.ListShareTypes(ctx)
	if xerr != nil {
		return nil, xerr
	}
	return filters.Apply(types, sel, f)
}

// GetShare returns the share designated by 'sel' and kept by 'f', or nil if there is none.
// A *fail.ErrDuplicate is returned if several shares match.
func (c *Cloud) GetShare(ctx context.Context, sel filters.Selector, f filters.Filter) (*abstract.Share, fail.Error) {
	shares, xerr := c.ListShares(ctx)
	if xerr != nil {
		return nil, xerr
	}
	share, xerr := filters.Unique(shares, sel, f)
	if xerr != nil {
		if _, ok := xerr.(*fail.ErrDuplicate); ok {
			return nil, abstract.ResourceDuplicateError(abstract.ShareKind, selectorRef(sel))
		}
		return nil, xerr
	}
	return share, nil
}

// GetShareByID fetches the share identified by 'id' directly from the API, bypassing the cache
func (c *Cloud) GetShareByID(ctx context.Context, id string) (*abstract.Share, fail.Error) {
	if c == nil {
		return nil, fail.InvalidInstanceError()
	}
	share, xerr := c.proxy.GetShare(ctx, id)
	if xerr != nil {
		return nil, fail.Wrap(xerr, "error getting share with ID %s", id)
	}
	return share, nil
}

// GetShareType returns the share type designated by 'sel' and kept by 'f', or nil if there is none
func (c *Cloud) GetShareType(ctx context.Context, sel filters.Selector, f filters.Filter) (*abstract.ShareType, fail.Error) {
	types, xerr := c.ListShareTypes(ctx)
	if xerr != nil {
		return nil, xerr
	}
	st, xerr := filters.Unique(types, sel, f)
	if xerr != nil {
		if _, ok := xerr.(*fail.ErrDuplicate); ok {
			return nil, abstract.ResourceDuplicateError(abstract.ShareTypeKind, selectorRef(sel))
		}
		return nil, xerr
	}
	return st, nil
}

// GetShareID returns the ID of the share whose name or ID is 'ref', or "" if there is none
func (c *Cloud) GetShareID(ctx context.Context, ref string) (string, fail.Error) {
	share, xerr := c.GetShare(ctx, filters.ByNameOrID(ref), filters.None())
	if xerr != nil {
		return "", xerr
	}
	if share == nil {
		return "", nil
	}
	return share.ID, nil
}

// ShareExists tells if a share whose name or ID is 'ref' exists
func (c *Cloud) ShareExists(ctx context.Context, ref string) (bool, fail.Error) {
	share, xerr := c.GetShare(ctx, filters.ByNameOrID(ref), filters.None())
	if xerr != nil {
		return false, xerr
	}
	return share != nil, nil
}

func selectorRef(sel filters.Selector) string {
	if ref := sel.Ref(); ref != "" {
		return ref
	}
	return sel.String()
}
