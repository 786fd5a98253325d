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
	"net/url"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/pagination"

	"github.com/CS-SI/sharedfs/lib/backend/iaas/metrics"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/stacks"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/stacks/openstack"
	"github.com/CS-SI/sharedfs/lib/utils/debug"
	"github.com/CS-SI/sharedfs/lib/utils/debug/tracing"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

// Mapper binds a Descriptor to a service client and converts the JSON envelopes to values of type T
type Mapper[T any] struct {
	desc    Descriptor
	client  *gophercloud.ServiceClient
	caller  *stacks.RemoteCaller
	metrics *metrics.Collector
}

// Option configures a Mapper
type Option func(*settings)

type settings struct {
	caller  *stacks.RemoteCaller
	metrics *metrics.Collector
}

// WithRemoteCaller makes the Mapper run its requests through 'caller'
func WithRemoteCaller(caller *stacks.RemoteCaller) Option {
	return func(s *settings) {
		s.caller = caller
	}
}

// WithMetrics makes the Mapper count its requests in 'collector'
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *settings) {
		s.metrics = collector
	}
}

// NewMapper creates a Mapper
func NewMapper[T any](client *gophercloud.ServiceClient, desc Descriptor, opts ...Option) (*Mapper[T], fail.Error) {
	if client == nil {
		return nil, fail.InvalidParameterCannotBeNilError("client")
	}
	if desc.ResourceKey == "" || desc.ResourcesKey == "" || desc.BasePath == "" {
		return nil, fail.InvalidParameterError("desc", "resource keys and base path must be set")
	}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return &Mapper[T]{
		desc:    desc,
		client:  client,
		caller:  s.caller,
		metrics: s.metrics,
	}, nil
}

// Descriptor returns the descriptor of the resource
func (m *Mapper[T]) Descriptor() Descriptor {
	return m.desc
}

// Client returns the service client used
func (m *Mapper[T]) Client() *gophercloud.ServiceClient {
	return m.client
}

func (m *Mapper[T]) call(ctx context.Context, operation string, callback func() error) fail.Error {
	xerr := m.caller.Call(ctx, callback, openstack.NormalizeError)
	m.metrics.RecordRequest(m.desc.ResourceKey+"."+operation, xerr)
	return xerr
}

func (m *Mapper[T]) decode(r gophercloud.Result) (*T, fail.Error) {
	var out T
	if err := r.ExtractIntoStructPtr(&out, m.desc.ResourceKey); err != nil {
		return nil, fail.SyntaxErrorWithCause(err, "failed to decode %s", m.desc.Kind)
	}
	return &out, nil
}

// Get fetches the resource identified by 'id'
func (m *Mapper[T]) Get(ctx context.Context, id string) (_ *T, ferr fail.Error) {
	defer fail.OnPanic(&ferr)

	if id == "" {
		return nil, fail.InvalidParameterCannotBeEmptyStringError("id")
	}
	if xerr := m.desc.checkAllowed(m.desc.AllowFetch, "fetch"); xerr != nil {
		return nil, xerr
	}

	defer debug.NewTracer(ctx, tracing.ShouldTrace("resource."+m.desc.ResourceKey), "(%s)", id).Entering().Exiting()

	var r gophercloud.Result
	xerr := m.call(ctx, "get", func() error {
		_, r.Err = m.client.Get(m.client.ServiceURL(m.desc.BasePath, id), &r.Body, nil)
		return r.Err
	})
	if xerr != nil {
		return nil, xerr
	}
	return m.decode(r)
}

// Create creates a resource; 'body' is sent inside the resource envelope
func (m *Mapper[T]) Create(ctx context.Context, body interface{}) (_ *T, ferr fail.Error) {
	defer fail.OnPanic(&ferr)

	if body == nil {
		return nil, fail.InvalidParameterCannotBeNilError("body")
	}
	if xerr := m.desc.checkAllowed(m.desc.AllowCreate, "create"); xerr != nil {
		return nil, xerr
	}

	defer debug.NewTracer(ctx, tracing.ShouldTrace("resource."+m.desc.ResourceKey), "").Entering().Exiting()

	var r gophercloud.Result
	xerr := m.call(ctx, "create", func() error {
		_, r.Err = m.client.Post(m.client.ServiceURL(m.desc.BasePath), map[string]interface{}{m.desc.ResourceKey: body}, &r.Body, &gophercloud.RequestOpts{
			OkCodes: []int{200, 201, 202},
		})
		return r.Err
	})
	if xerr != nil {
		return nil, xerr
	}
	return m.decode(r)
}

// Commit updates the resource identified by 'id' with the attributes of 'body'
func (m *Mapper[T]) Commit(ctx context.Context, id string, body interface{}) (_ *T, ferr fail.Error) {
	defer fail.OnPanic(&ferr)

	if id == "" {
		return nil, fail.InvalidParameterCannotBeEmptyStringError("id")
	}
	if body == nil {
		return nil, fail.InvalidParameterCannotBeNilError("body")
	}
	if xerr := m.desc.checkAllowed(m.desc.AllowCommit, "commit"); xerr != nil {
		return nil, xerr
	}

	defer debug.NewTracer(ctx, tracing.ShouldTrace("resource."+m.desc.ResourceKey), "(%s)", id).Entering().Exiting()

	var r gophercloud.Result
	xerr := m.call(ctx, "commit", func() error {
		_, r.Err = m.client.Put(m.client.ServiceURL(m.desc.BasePath, id), map[string]interface{}{m.desc.ResourceKey: body}, &r.Body, &gophercloud.RequestOpts{
			OkCodes: []int{200, 202},
		})
		return r.Err
	})
	if xerr != nil {
		return nil, xerr
	}
	return m.decode(r)
}

// Delete deletes the resource identified by 'id'; if 'ignoreMissing' is true, a missing resource is not an error
func (m *Mapper[T]) Delete(ctx context.Context, id string, ignoreMissing bool) (ferr fail.Error) {
	defer fail.OnPanic(&ferr)

	if id == "" {
		return fail.InvalidParameterCannotBeEmptyStringError("id")
	}
	if xerr := m.desc.checkAllowed(m.desc.AllowDelete, "delete"); xerr != nil {
		return xerr
	}

	defer debug.NewTracer(ctx, tracing.ShouldTrace("resource."+m.desc.ResourceKey), "(%s)", id).Entering().Exiting()

	xerr := m.call(ctx, "delete", func() error {
		_, err := m.client.Delete(m.client.ServiceURL(m.desc.BasePath, id), &gophercloud.RequestOpts{
			OkCodes: []int{202, 204},
		})
		return err
	})
	if xerr != nil {
		if _, ok := xerr.(*fail.ErrNotFound); ok && ignoreMissing {
			return nil
		}
		return xerr
	}
	return nil
}

// Action posts 'body' to the action endpoint of the resource identified by 'id'
func (m *Mapper[T]) Action(ctx context.Context, id string, body interface{}) (ferr fail.Error) {
	defer fail.OnPanic(&ferr)

	if id == "" {
		return fail.InvalidParameterCannotBeEmptyStringError("id")
	}
	if body == nil {
		return fail.InvalidParameterCannotBeNilError("body")
	}

	defer debug.NewTracer(ctx, tracing.ShouldTrace("resource."+m.desc.ResourceKey), "(%s)", id).Entering().Exiting()

	return m.call(ctx, "action", func() error {
		_, err := m.client.Post(m.client.ServiceURL(m.desc.BasePath, id, "action"), body, nil, &gophercloud.RequestOpts{
			OkCodes:     []int{200, 202},
			MoreHeaders: map[string]string{"Accept": ""},
		})
		return err
	})
}

// ListURL returns the URL of the first page of the collection
func (m *Mapper[T]) ListURL(details bool, query map[string]string) (string, fail.Error) {
	path := m.desc.BasePath
	if details && m.desc.DetailPath != "" {
		path = m.desc.DetailPath
	}
	translated, xerr := m.desc.TranslateQuery(query)
	if xerr != nil {
		return "", xerr
	}

	out := m.client.ServiceURL(path)
	if len(translated) > 0 {
		values := url.Values{}
		for k, v := range translated {
			values.Set(k, v)
		}
		out += "?" + values.Encode()
	}
	return out, nil
}

// Each walks the pages of the collection, following the "next" links, and calls 'handler' with the items of each page.
// The traversal stops on the first error, which is returned; pages already handled stay handled.
func (m *Mapper[T]) Each(ctx context.Context, details bool, query map[string]string, handler func([]T) fail.Error) (ferr fail.Error) {
	defer fail.OnPanic(&ferr)

	if handler == nil {
		return fail.InvalidParameterCannotBeNilError("handler")
	}
	if xerr := m.desc.checkAllowed(m.desc.AllowList, "list"); xerr != nil {
		return xerr
	}
	first, xerr := m.ListURL(details, query)
	if xerr != nil {
		return xerr
	}

	tracer := debug.NewTracer(ctx, tracing.ShouldTrace("resource."+m.desc.ResourceKey), "(%s)", first).WithStopwatch().Entering()
	defer tracer.Exiting()

	pager := pagination.NewPager(m.client, first, func(r pagination.PageResult) pagination.Page {
		return linkedPage{LinkedPageBase: pagination.LinkedPageBase{PageResult: r}, resourcesKey: m.desc.ResourcesKey}
	})
	return m.call(ctx, "list", func() error {
		return pager.EachPage(func(page pagination.Page) (bool, error) {
			if err := ctx.Err(); err != nil {
				return false, fail.AbortedError(err, "listing canceled")
			}
			items, err := extractItems[T](page, m.desc.ResourcesKey)
			if err != nil {
				return false, fail.SyntaxErrorWithCause(err, "failed to decode %s list", m.desc.Kind)
			}
			if xerr := handler(items); xerr != nil {
				return false, xerr
			}
			return true, nil
		})
	})
}

// List returns all the items of the collection
func (m *Mapper[T]) List(ctx context.Context, details bool, query map[string]string) ([]T, fail.Error) {
	var out []T
	xerr := m.Each(ctx, details, query, func(items []T) fail.Error {
		out = append(out, items...)
		return nil
	})
	if xerr != nil {
		return nil, xerr
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
