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

package iaas

import (
	"context"
	"strings"

	"github.com/gophercloud/gophercloud"
	"github.com/sirupsen/logrus"

	"github.com/CS-SI/sharedfs/lib/backend/iaas/config"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/options"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/stacks/openstack"
	"github.com/CS-SI/sharedfs/lib/utils/debug"
	"github.com/CS-SI/sharedfs/lib/utils/debug/tracing"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

// UseService returns the service of the cloud named 'name', described in the configuration file 'path'.
// The service is created on first use and reused afterwards.
// If 'name' is empty, the only cloud of the configuration is used; without configuration file, OS_* environment
// variables describe the cloud.
func UseService(inctx context.Context, path, name string) (_ Service, ferr fail.Error) {
	ctx := inctx

	defer fail.OnExitLogError(ctx, &ferr)
	defer fail.OnPanic(&ferr)

	if svc, ok := registered(path, name); ok {
		return svc, nil
	}

	cloud, xerr := config.Find(ctx, path, name)
	if xerr != nil {
		return nil, xerr
	}

	svc, xerr := NewService(ctx, *cloud)
	if xerr != nil {
		return nil, xerr
	}
	return register(path, name, svc), nil
}

// NewService authenticates against the cloud described by 'cloud' and returns a Service bound to its shared
// file system endpoint
func NewService(ctx context.Context, cloud config.Cloud) (_ Service, ferr fail.Error) {
	defer fail.OnPanic(&ferr)

	tracer := debug.NewTracer(ctx, tracing.ShouldTrace("iaas"), "(%s)", cloud.Name).WithStopwatch().Entering()
	defer tracer.Exiting()

	if strings.TrimSpace(cloud.Name) == "" {
		return nil, fail.InvalidParameterError("cloud.Name", "cannot be empty string")
	}

	cfg := cloud.Configuration()
	client, xerr := openstack.NewSession(ctx, cloud.Auth, cfg)
	if xerr != nil {
		return nil, fail.Wrap(xerr, "failed to open session on cloud '%s'", cloud.Name)
	}

	svc, xerr := newService(cloud.Name, client, cfg)
	if xerr != nil {
		return nil, xerr
	}
	logrus.WithContext(ctx).Debugf("using shared file system endpoint '%s' of cloud '%s'", client.Endpoint, cloud.Name)
	return svc, nil
}

// NewServiceFromClient returns a Service using an already authenticated client
func NewServiceFromClient(name string, client *gophercloud.ServiceClient, cfg options.Configuration) (Service, fail.Error) {
	if name == "" {
		return nil, fail.InvalidParameterCannotBeEmptyStringError("name")
	}
	if client == nil {
		return nil, fail.InvalidParameterCannotBeNilError("client")
	}
	if cfg.SharedFileSystem.Microversion == "" {
		cfg.SharedFileSystem.Microversion = client.Microversion
	}

	svc, xerr := newService(name, client, cfg)
	if xerr != nil {
		return nil, xerr
	}
	return svc, nil
}
