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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

const DefaultNamespace = "sharedfs"

// Collector gathers the counters of the shared file system client in its own registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	listingRestarts prometheus.Counter
	waitPolls       *prometheus.CounterVec
}

// NewCollector creates a Collector whose metrics are prefixed by 'namespace'
func NewCollector(namespace string) (*Collector, fail.Error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Number of requests sent to the shared file system API",
		}, []string{"operation", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Number of lookups in the listing cache",
		}, []string{"result"}),
		listingRestarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_restarts_total",
			Help:      "Number of share listings restarted from the first page",
		}),
		waitPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wait_polls_total",
			Help:      "Number of polls done while waiting for a status change",
		}, []string{"operation"}),
	}

	for _, col := range []prometheus.Collector{c.requests, c.cacheLookups, c.listingRestarts, c.waitPolls} {
		if err := c.registry.Register(col); err != nil {
			return nil, fail.Wrap(err, "failed to register metrics")
		}
	}
	return c, nil
}

// Registry returns the registry holding the metrics
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// WriteToTextfile dumps the metrics in Prometheus text format into file 'filename'
func (c *Collector) WriteToTextfile(filename string) fail.Error {
	if c == nil {
		return fail.InvalidInstanceError()
	}
	if err := prometheus.WriteToTextfile(filename, c.registry); err != nil {
		return fail.Wrap(err, "failed to write metrics")
	}
	return nil
}

// RecordRequest counts a request of 'operation' ending with 'err'
func (c *Collector) RecordRequest(operation string, err error) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(operation, Status(err)).Inc()
}

// RecordCacheLookup counts a cache hit or miss
func (c *Collector) RecordCacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// RecordListingRestart counts a listing restarted after a vanished page
func (c *Collector) RecordListingRestart() {
	if c == nil {
		return
	}
	c.listingRestarts.Inc()
}

// RecordWaitPoll counts a poll done by a wait on 'operation'
func (c *Collector) RecordWaitPoll(operation string) {
	if c == nil {
		return
	}
	c.waitPolls.WithLabelValues(operation).Inc()
}

// Status returns the label value describing the outcome 'err'
func Status(err error) string {
	switch err.(type) {
	case nil:
		return "ok"
	case *fail.ErrNotFound:
		return "not_found"
	case *fail.ErrTimeout:
		return "timeout"
	case *fail.ErrInvalidRequest, *fail.ErrInvalidParameter:
		return "invalid_request"
	case *fail.ErrNotAuthenticated, *fail.ErrForbidden:
		return "denied"
	case *fail.ErrNotAvailable, *fail.ErrOverload:
		return "unavailable"
	case *fail.ErrAborted:
		return "aborted"
	default:
		return "error"
	}
}
