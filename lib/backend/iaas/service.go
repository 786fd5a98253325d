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

	"github.com/gophercloud/gophercloud"

	"github.com/CS-SI/sharedfs/lib/backend/iaas/cache"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/cloud"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/metrics"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/options"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/stacks"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/stacks/sharedfilesystem"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
	"github.com/CS-SI/sharedfs/lib/utils/temporal"
)

// Service gives access to the shared file system of one cloud
type Service interface {
	GetName() string
	// Proxy returns the typed access to shares and share types
	Proxy() *sharedfilesystem.Proxy
	// Cloud returns the cached access to shares and share types
	Cloud() *cloud.Cloud
	Metrics() *metrics.Collector
	Configuration() options.Configuration
	Timings() temporal.Timings
	// InvalidateCache drops every cached listing
	InvalidateCache(ctx context.Context) fail.Error
}

// service is the implementation struct of interface Service
type service struct {
	name    string
	cfg     options.Configuration
	proxy   *sharedfilesystem.Proxy
	cloud   *cloud.Cloud
	cache   cache.Service
	metrics *metrics.Collector
}

// newService wires the layers of a Service on top of an authenticated client
func newService(name string, client *gophercloud.ServiceClient, cfg options.Configuration) (*service, fail.Error) {
	cfg.Normalize()
	if xerr := cfg.Validate(); xerr != nil {
		return nil, xerr
	}

	collector, xerr := metrics.NewCollector(metrics.DefaultNamespace)
	if xerr != nil {
		return nil, xerr
	}

	var caller *stacks.RemoteCaller
	if cfg.Breaker.Enabled {
		caller = stacks.NewRemoteCaller(name, cfg.Breaker)
	}

	proxy, xerr := sharedfilesystem.NewProxy(client, caller, collector)
	if xerr != nil {
		return nil, xerr
	}

	listingCache := cache.NewNoop()
	if cfg.Cache.Enabled {
		listingCache, xerr = cache.NewRistretto(cfg.Cache.Expiration, cfg.Cache.MaxEntries)
		if xerr != nil {
			return nil, xerr
		}
	}

	c, xerr := cloud.New(proxy,
		cloud.WithCache(listingCache),
		cloud.WithMetrics(collector),
		cloud.WithPollInterval(cfg.Timings.NormalDelay()),
	)
	if xerr != nil {
		return nil, xerr
	}

	return &service{
		name:    name,
		cfg:     cfg,
		proxy:   proxy,
		cloud:   c,
		cache:   listingCache,
		metrics: collector,
	}, nil
}

// GetName returns the name of the cloud
func (instance *service) GetName() string {
	if instance == nil {
		return ""
	}
	return instance.name
}

func (instance *service) Proxy() *sharedfilesystem.Proxy {
	if instance == nil {
		return nil
	}
	return instance.proxy
}

func (instance *service) Cloud() *cloud.Cloud {
	if instance == nil {
		return nil
	}
	return instance.cloud
}

func (instance *service) Metrics() *metrics.Collector {
	if instance == nil {
		return nil
	}
	return instance.metrics
}

func (instance *service) Configuration() options.Configuration {
	if instance == nil {
		return options.DefaultConfiguration()
	}
	return instance.cfg
}

// Timings returns the timings configured for the cloud
func (instance *service) Timings() temporal.Timings {
	if instance == nil || instance.cfg.Timings == nil {
		return temporal.NewTimings()
	}
	return instance.cfg.Timings
}

func (instance *service) InvalidateCache(ctx context.Context) fail.Error {
	if instance == nil {
		return fail.InvalidInstanceError()
	}
	return instance.cache.Clear(ctx)
}
