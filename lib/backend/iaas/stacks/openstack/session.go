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

package openstack

import (
	"context"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack"
	"github.com/sirupsen/logrus"

	"github.com/CS-SI/sharedfs/lib/backend/iaas/options"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/stacks"
	"github.com/CS-SI/sharedfs/lib/utils/debug"
	"github.com/CS-SI/sharedfs/lib/utils/debug/tracing"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

// NewSession authenticates against the identity service and returns a client bound to the shared file system v2 endpoint
func NewSession(ctx context.Context, auth options.Authentication, cfg options.Configuration) (_ *gophercloud.ServiceClient, ferr fail.Error) {
	defer fail.OnPanic(&ferr)

	if ctx == nil {
		return nil, fail.InvalidParameterCannotBeNilError("ctx")
	}

	tracer := debug.NewTracer(ctx, tracing.ShouldTrace("stacks.openstack"), "(%s)", auth.IdentityEndpoint).WithStopwatch().Entering()
	defer tracer.Exiting()

	if xerr := auth.Validate(); xerr != nil {
		return nil, xerr
	}
	cfg.Normalize()
	if xerr := cfg.Validate(); xerr != nil {
		return nil, xerr
	}
	if _, xerr := ParseMicroversion(cfg.SharedFileSystem.Microversion); xerr != nil {
		return nil, xerr
	}

	provider, err := openstack.NewClient(auth.IdentityEndpoint)
	if err != nil {
		return nil, fail.InvalidRequestErrorWithCause(err, "invalid identity endpoint '%s'", auth.IdentityEndpoint)
	}
	provider.HTTPClient.Timeout = cfg.Timings.CommunicationTimeout()

	xerr := stacks.RemoteCall(ctx,
		func() error {
			return openstack.Authenticate(provider, auth.ToGophercloud())
		},
		NormalizeError,
	)
	if xerr != nil {
		return nil, fail.Wrap(xerr, "failed to authenticate")
	}

	client, err := openstack.NewSharedFileSystemV2(provider, gophercloud.EndpointOpts{
		Region:       auth.Region,
		Availability: gophercloud.Availability(cfg.SharedFileSystem.Availability),
	})
	if err != nil {
		return nil, fail.NotFoundErrorWithCause(err, "no shared file system endpoint found in catalog")
	}
	if endpoint := cfg.SharedFileSystem.Endpoint; endpoint != "" {
		client.Endpoint = gophercloud.NormalizeURL(endpoint)
	}
	client.Microversion = cfg.SharedFileSystem.Microversion

	logrus.WithContext(ctx).Debugf("shared file system endpoint: %s (microversion '%s')", client.Endpoint, client.Microversion)
	return client, nil
}
