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

package sharedfilesystem

import (
	"context"
	"fmt"

	"github.com/gophercloud/gophercloud"

	"github.com/CS-SI/sharedfs/lib/backend/iaas/metrics"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/resource"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/stacks"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/stacks/openstack"
	"github.com/CS-SI/sharedfs/lib/backend/resources/abstract"
	"github.com/CS-SI/sharedfs/lib/backend/resources/enums/sharestate"
	"github.com/CS-SI/sharedfs/lib/utils/debug"
	"github.com/CS-SI/sharedfs/lib/utils/debug/tracing"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

var resizeFailures = []string{sharestate.Error.String(), sharestate.ErrorExtending.String(), sharestate.ErrorShrinking.String()}

// Proxy gives a typed access to shares and share types, without cache nor implicit wait
type Proxy struct {
	shares       *resource.Mapper[abstract.Share]
	types        *resource.Mapper[abstract.ShareType]
	microversion openstack.Microversion
	metrics      *metrics.Collector
}

// NewProxy creates a Proxy on top of 'client'; 'caller' and 'collector' may be nil
func NewProxy(client *gophercloud.ServiceClient, caller *stacks.RemoteCaller, collector *metrics.Collector) (*Proxy, fail.Error) {
	if client == nil {
		return nil, fail.InvalidParameterCannotBeNilError("client")
	}

	mv, xerr := openstack.ParseMicroversion(client.Microversion)
	if xerr != nil {
		return nil, xerr
	}

	opts := []resource.Option{resource.WithRemoteCaller(caller), resource.WithMetrics(collector)}
	shares, xerr := resource.NewMapper[abstract.Share](client, ShareDescriptor, opts...)
	if xerr != nil {
		return nil, xerr
	}
	types, xerr := resource.NewMapper[abstract.ShareType](client, TypeDescriptor, opts...)
	if xerr != nil {
		return nil, xerr
	}

	return &Proxy{
		shares:       shares,
		types:        types,
		microversion: mv,
		metrics:      collector,
	}, nil
}

// Microversion returns the microversion used by the proxy
func (p *Proxy) Microversion() openstack.Microversion {
	return p.microversion
}

// ShareMapper gives access to the shares resource mapper
func (p *Proxy) ShareMapper() *resource.Mapper[abstract.Share] {
	return p.shares
}

// TypeMapper gives access to the share types resource mapper
func (p *Proxy) TypeMapper() *resource.Mapper[abstract.ShareType] {
	return p.types
}

// GetType returns the share type identified by 'id'
func (p *Proxy) GetType(ctx context.Context, id string) (*abstract.ShareType, fail.Error) {
	if p == nil {
		return nil, fail.InvalidInstanceError()
	}
	return p.types.Get(ctx, id)
}

// Types lists the share types; the only accepted query key is "is_public"
func (p *Proxy) Types(ctx context.Context, query map[string]string) ([]abstract.ShareType, fail.Error) {
	if p == nil {
		return nil, fail.InvalidInstanceError()
	}
	return p.types.List(ctx, false, query)
}

// CreateType creates a share type
func (p *Proxy) CreateType(ctx context.Context, req abstract.ShareTypeRequest) (*abstract.ShareType, fail.Error) {
	if p == nil {
		return nil, fail.InvalidInstanceError()
	}
	if xerr := req.Validate(); xerr != nil {
		return nil, xerr
	}

	defer debug.NewTracer(ctx, tracing.ShouldTrace("stacks.sharedfilesystem"), "(%s)", req.Name).WithStopwatch().Entering().Exiting()

	return p.types.Create(ctx, req)
}

// DeleteType deletes a share type; if 'ignoreMissing' is false, a missing type is a *fail.ErrNotFound
func (p *Proxy) DeleteType(ctx context.Context, id string, ignoreMissing bool) fail.Error {
	if p == nil {
		return fail.InvalidInstanceError()
	}
	return p.types.Delete(ctx, id, ignoreMissing)
}

// GetShare returns the share identified by 'id'
func (p *Proxy) GetShare(ctx context.Context, id string) (*abstract.Share, fail.Error) {
	if p == nil {
		return nil, fail.InvalidInstanceError()
	}
	return p.shares.Get(ctx, id)
}

// Shares lists the shares; with 'details', the full attributes are returned.
// Accepted query keys: name, status, project_id and all_projects.
func (p *Proxy) Shares(ctx context.Context, details bool, query map[string]string) ([]abstract.Share, fail.Error) {
	if p == nil {
		return nil, fail.InvalidInstanceError()
	}
	return p.shares.List(ctx, details, query)
}

// CreateShare creates a share; it does not wait for the share to be available
func (p *Proxy) CreateShare(ctx context.Context, req abstract.ShareRequest) (*abstract.Share, fail.Error) {
	if p == nil {
		return nil, fail.InvalidInstanceError()
	}
	if xerr := req.Validate(); xerr != nil {
		return nil, xerr
	}

	defer debug.NewTracer(ctx, tracing.ShouldTrace("stacks.sharedfilesystem"), "(%s, %d)", req.ShareProto, req.Size).WithStopwatch().Entering().Exiting()

	return p.shares.Create(ctx, req)
}

// UpdateShare changes the attributes of the share identified by 'id'
func (p *Proxy) UpdateShare(ctx context.Context, id string, update abstract.ShareUpdate) (*abstract.Share, fail.Error) {
	if p == nil {
		return nil, fail.InvalidInstanceError()
	}
	if update.IsEmpty() {
		return nil, fail.InvalidParameterError("update", "nothing to update")
	}
	return p.shares.Commit(ctx, id, update.ToMap())
}

// DeleteShare deletes a share; if 'ignoreMissing' is false, a missing share is a *fail.ErrNotFound
func (p *Proxy) DeleteShare(ctx context.Context, id string, ignoreMissing bool) fail.Error {
	if p == nil {
		return fail.InvalidInstanceError()
	}
	return p.shares.Delete(ctx, id, ignoreMissing)
}

// ForceDeleteShare deletes a share whatever its status, using the force_delete action
func (p *Proxy) ForceDeleteShare(ctx context.Context, id string) fail.Error {
	if p == nil {
		return fail.InvalidInstanceError()
	}
	return p.shares.Action(ctx, id, map[string]interface{}{p.microversion.ActionKey("force_delete"): nil})
}

// ExtendShare grows the share to 'newSize' GB; the change is asynchronous, use WaitForSize to wait for it
func (p *Proxy) ExtendShare(ctx context.Context, id string, newSize int) fail.Error {
	return p.resize(ctx, id, "extend", newSize)
}

// ShrinkShare reduces the share to 'newSize' GB; the change is asynchronous, use WaitForSize to wait for it
func (p *Proxy) ShrinkShare(ctx context.Context, id string, newSize int) fail.Error {
	return p.resize(ctx, id, "shrink", newSize)
}

func (p *Proxy) resize(ctx context.Context, id, action string, newSize int) fail.Error {
	if p == nil {
		return fail.InvalidInstanceError()
	}
	if newSize < 1 {
		return fail.InvalidParameterError("newSize", "must be at least 1")
	}

	defer debug.NewTracer(ctx, tracing.ShouldTrace("stacks.sharedfilesystem"), "(%s, %s, %d)", id, action, newSize).Entering().Exiting()

	return p.shares.Action(ctx, id, map[string]interface{}{
		p.microversion.ActionKey(action): map[string]int{"new_size": newSize},
	})
}

// WaitForStatus waits for 'share' to reach 'status' ("available" if empty); see resource.WaitForStatus
func (p *Proxy) WaitForStatus(ctx context.Context, share *abstract.Share, status string, opts resource.WaitOptions) (*abstract.Share, fail.Error) {
	if p == nil {
		return nil, fail.InvalidInstanceError()
	}
	if share.IsNull() {
		return nil, fail.InvalidParameterCannotBeNilError("share")
	}
	if status == "" {
		status = sharestate.Available.String()
	}

	opts = p.waitOptions(share, "share.wait_status", opts)
	return resource.WaitForStatus(ctx, share,
		func(ctx context.Context) (*abstract.Share, fail.Error) {
			return p.shares.Get(ctx, share.ID)
		},
		status, opts,
	)
}

// WaitForSize waits for 'share' to be available with a size of 'size' GB, as reported once an extend or a shrink is done.
// Polling starts at once: the server may still report the share available with its former size right after the action.
func (p *Proxy) WaitForSize(ctx context.Context, share *abstract.Share, size int, opts resource.WaitOptions) (*abstract.Share, fail.Error) {
	if p == nil {
		return nil, fail.InvalidInstanceError()
	}
	if share.IsNull() {
		return nil, fail.InvalidParameterCannotBeNilError("share")
	}
	if size < 1 {
		return nil, fail.InvalidParameterError("size", "must be at least 1")
	}
	if opts.Failures == nil {
		opts.Failures = resizeFailures
	}

	opts = p.waitOptions(share, "share.wait_size", opts)
	return resource.WaitUntil(ctx,
		func(ctx context.Context) (*abstract.Share, fail.Error) {
			return p.shares.Get(ctx, share.ID)
		},
		func(s *abstract.Share) bool {
			return s.Size == size && s.Status == sharestate.Available
		},
		fmt.Sprintf("size %d GB", size), opts,
	)
}

// WaitForDelete waits for 'share' to disappear; see resource.WaitForDelete
func (p *Proxy) WaitForDelete(ctx context.Context, share *abstract.Share, opts resource.WaitOptions) fail.Error {
	if p == nil {
		return fail.InvalidInstanceError()
	}
	if share.IsNull() {
		return fail.InvalidParameterCannotBeNilError("share")
	}

	opts = p.waitOptions(share, "share.wait_delete", opts)
	return resource.WaitForDelete(ctx,
		func(ctx context.Context) (*abstract.Share, fail.Error) {
			return p.shares.Get(ctx, share.ID)
		},
		opts,
	)
}

func (p *Proxy) waitOptions(share *abstract.Share, operation string, opts resource.WaitOptions) resource.WaitOptions {
	opts.Kind = abstract.ShareKind
	opts.ID = share.ID
	previous := opts.OnPoll
	opts.OnPoll = func() {
		p.metrics.RecordWaitPoll(operation)
		if previous != nil {
			previous()
		}
	}
	return opts
}
