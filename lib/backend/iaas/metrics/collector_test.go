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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

func TestCollectorCounts(t *testing.T) {
	c, xerr := NewCollector("")
	require.Nil(t, xerr)

	c.RecordRequest("share.get", nil)
	c.RecordRequest("share.get", fail.NotFoundError("gone"))
	c.RecordRequest("share.get", fail.NotFoundError("gone"))
	c.RecordCacheLookup(true)
	c.RecordCacheLookup(false)
	c.RecordCacheLookup(false)
	c.RecordListingRestart()
	c.RecordWaitPoll("share.create")

	require.Equal(t, float64(1), testutil.ToFloat64(c.requests.WithLabelValues("share.get", "ok")))
	require.Equal(t, float64(2), testutil.ToFloat64(c.requests.WithLabelValues("share.get", "not_found")))
	require.Equal(t, float64(1), testutil.ToFloat64(c.cacheLookups.WithLabelValues("hit")))
	require.Equal(t, float64(2), testutil.ToFloat64(c.cacheLookups.WithLabelValues("miss")))
	require.Equal(t, float64(1), testutil.ToFloat64(c.listingRestarts))
	require.Equal(t, float64(1), testutil.ToFloat64(c.waitPolls.WithLabelValues("share.create")))

	expected := `
# HELP sharedfs_listing_restarts_total Number of share listings restarted from the first page
# TYPE sharedfs_listing_restarts_total counter
sharedfs_listing_restarts_total 1
`
	require.NoError(t, testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "sharedfs_listing_restarts_total"))
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	require.NotPanics(t, func() {
		c.RecordRequest("share.get", nil)
		c.RecordCacheLookup(true)
		c.RecordListingRestart()
		c.RecordWaitPoll("share.delete")
	})
	require.Nil(t, c.Registry())
	require.NotNil(t, c.WriteToTextfile("unused"))
}

func TestStatus(t *testing.T) {
	require.Equal(t, "ok", Status(nil))
	require.Equal(t, "not_found", Status(fail.NotFoundError("")))
	require.Equal(t, "timeout", Status(fail.TimeoutError(nil, 0)))
	require.Equal(t, "invalid_request", Status(fail.InvalidRequestError("")))
	require.Equal(t, "unavailable", Status(fail.NotAvailableError("")))
	require.Equal(t, "error", Status(fmt.Errorf("boom")))
}

func TestWriteToTextfile(t *testing.T) {
	c, xerr := NewCollector("test")
	require.Nil(t, xerr)
	c.RecordRequest("type.list", nil)

	filename := filepath.Join(t.TempDir(), "metrics.prom")
	require.Nil(t, c.WriteToTextfile(filename))

	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	require.Contains(t, string(content), `test_requests_total{operation="type.list",status="ok"} 1`)
}
