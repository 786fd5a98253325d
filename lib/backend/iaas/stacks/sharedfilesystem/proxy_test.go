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
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/antihax/optional"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/CS-SI/sharedfs/lib/backend/iaas/manilatest"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/metrics"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/resource"
	"github.com/CS-SI/sharedfs/lib/backend/resources/abstract"
	"github.com/CS-SI/sharedfs/lib/backend/resources/enums/sharestate"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

func newTestProxy(t *testing.T, microversion string) (*Proxy, *manilatest.Server) {
	server := manilatest.NewServer()
	t.Cleanup(server.Close)

	p, xerr := NewProxy(server.Client(microversion), nil, nil)
	require.Nil(t, xerr)
	return p, server
}

func fastWait() resource.WaitOptions {
	return resource.WaitOptions{Interval: 5 * time.Millisecond, Wait: 2 * time.Second}
}

func TestTypes(t *testing.T) {
	p, server := newTestProxy(t, "")
	server.AddType(abstract.ShareType{ID: "t1", Name: "default", IsPublic: true, ExtraSpecs: map[string]interface{}{abstract.DriverHandlesShareServers: "false"}})
	server.AddType(abstract.ShareType{ID: "t2", Name: "private"})

	ctx := context.Background()
	all, xerr := p.Types(ctx, nil)
	require.Nil(t, xerr)
	require.Len(t, all, 2)

	public, xerr := p.Types(ctx, map[string]string{"is_public": "true"})
	require.Nil(t, xerr)
	require.Len(t, public, 1)
	require.Equal(t, "default", public[0].Name)
	require.True(t, public[0].IsPublic)

	_, xerr = p.Types(ctx, map[string]string{"name": "default"})
	require.NotNil(t, xerr)

	st, xerr := p.GetType(ctx, "t2")
	require.Nil(t, xerr)
	require.Equal(t, "private", st.Name)
}

func TestCreateAndDeleteType(t *testing.T) {
	p, server := newTestProxy(t, "")
	ctx := context.Background()

	_, xerr := p.CreateType(ctx, abstract.ShareTypeRequest{Name: "gold"})
	require.NotNil(t, xerr)
	_, ok := xerr.(*fail.ErrInvalidRequest)
	require.True(t, ok)
	require.Equal(t, 0, server.Count(http.MethodPost, "/types"))

	st, xerr := p.CreateType(ctx, abstract.ShareTypeRequest{
		Name:       "gold",
		ExtraSpecs: map[string]interface{}{abstract.DriverHandlesShareServers: "true"},
		IsPublic:   true,
	})
	require.Nil(t, xerr)
	require.Equal(t, "gold", st.Name)
	require.Equal(t, "true", st.ExtraSpecs[abstract.DriverHandlesShareServers])

	require.Nil(t, p.DeleteType(ctx, st.ID, false))
	require.Nil(t, p.DeleteType(ctx, st.ID, true))

	xerr = p.DeleteType(ctx, st.ID, false)
	_, ok = xerr.(*fail.ErrNotFound)
	require.True(t, ok)
}

func TestShareLifecycle(t *testing.T) {
	p, server := newTestProxy(t, "")
	server.NewShareStatuses = []sharestate.Enum{sharestate.Creating, sharestate.Creating, sharestate.Available}
	ctx := context.Background()

	share, xerr := p.CreateShare(ctx, abstract.ShareRequest{ShareProto: "nfs", Size: 1, Name: "data"})
	require.Nil(t, xerr)
	require.Equal(t, sharestate.Creating, share.Status)
	require.Equal(t, "NFS", share.ShareProto)

	share, xerr = p.WaitForStatus(ctx, share, sharestate.Available.String(), fastWait())
	require.Nil(t, xerr)
	require.Equal(t, sharestate.Available, share.Status)

	updated, xerr := p.UpdateShare(ctx, share.ID, abstract.ShareUpdate{DisplayName: optional.NewString("renamed")})
	require.Nil(t, xerr)
	require.Equal(t, "renamed", updated.Name)

	_, xerr = p.UpdateShare(ctx, share.ID, abstract.ShareUpdate{})
	require.NotNil(t, xerr)

	list, xerr := p.Shares(ctx, true, map[string]string{"name": "renamed"})
	require.Nil(t, xerr)
	require.Len(t, list, 1)
	require.Equal(t, 1, server.Count(http.MethodGet, "/shares/detail"))

	server.DeleteObservations = 2
	require.Nil(t, p.DeleteShare(ctx, share.ID, false))
	require.Nil(t, p.WaitForDelete(ctx, share, fastWait()))
	require.Nil(t, server.Share(share.ID))

	xerr = p.DeleteShare(ctx, share.ID, false)
	_, ok := xerr.(*fail.ErrNotFound)
	require.True(t, ok)
	require.Nil(t, p.DeleteShare(ctx, share.ID, true))
}

func TestCreateShareValidation(t *testing.T) {
	p, server := newTestProxy(t, "")
	_, xerr := p.CreateShare(context.Background(), abstract.ShareRequest{ShareProto: "NFS", Size: 0})
	require.NotNil(t, xerr)
	require.Equal(t, 0, server.Count(http.MethodPost, "/shares"))
}

func TestResizeActions(t *testing.T) {
	cases := []struct {
		microversion string
		extendBody   string
		shrinkBody   string
	}{
		{"", `{"os-extend": {"new_size": 3}}`, `{"os-shrink": {"new_size": 2}}`},
		{"2.6", `{"os-extend": {"new_size": 3}}`, `{"os-shrink": {"new_size": 2}}`},
		{"2.7", `{"extend": {"new_size": 3}}`, `{"shrink": {"new_size": 2}}`},
	}
	for _, tc := range cases {
		t.Run("microversion "+tc.microversion, func(t *testing.T) {
			p, server := newTestProxy(t, tc.microversion)
			server.AddShare(abstract.Share{ID: "abc", Size: 1, Status: sharestate.Available})
			ctx := context.Background()

			require.Nil(t, p.ExtendShare(ctx, "abc", 3))
			require.Equal(t, 3, server.Share("abc").Size)
			require.Nil(t, p.ShrinkShare(ctx, "abc", 2))
			require.Equal(t, 2, server.Share("abc").Size)

			var bodies []string
			for _, r := range server.Requests() {
				if r.Path == "/shares/abc/action" {
					bodies = append(bodies, r.Body)
				}
			}
			require.Len(t, bodies, 2)
			require.JSONEq(t, tc.extendBody, bodies[0])
			require.JSONEq(t, tc.shrinkBody, bodies[1])

			xerr := p.ExtendShare(ctx, "abc", 0)
			_, ok := xerr.(*fail.ErrInvalidParameter)
			require.True(t, ok)
		})
	}
}

func TestForceDeleteShare(t *testing.T) {
	p, server := newTestProxy(t, "")
	server.AddShare(abstract.Share{ID: "abc", Status: sharestate.ErrorDeleting})

	require.Nil(t, p.ForceDeleteShare(context.Background(), "abc"))
	require.Nil(t, server.Share("abc"))

	requests := server.Requests()
	require.JSONEq(t, `{"os-force_delete": null}`, requests[len(requests)-1].Body)
	require.Equal(t, 0, server.Count(http.MethodDelete, "/shares"))
}

func TestWaitForStatusFailure(t *testing.T) {
	p, server := newTestProxy(t, "")
	server.AddShare(abstract.Share{ID: "abc", Status: sharestate.Extending})
	server.Evolve("abc", sharestate.Extending, sharestate.ErrorExtending)

	opts := fastWait()
	opts.Failures = []string{"error", "error_extending"}
	_, xerr := p.WaitForStatus(context.Background(), &abstract.Share{ID: "abc", Status: sharestate.Extending}, "available", opts)
	require.NotNil(t, xerr)
	_, ok := xerr.(*fail.ErrExecution)
	require.True(t, ok, "unexpected error kind %T", xerr)
}

func TestWaitForSize(t *testing.T) {
	p, server := newTestProxy(t, "")
	server.ResizeObservations = 2
	server.AddShare(abstract.Share{ID: "abc", Size: 1, Status: sharestate.Available})

	ctx := context.Background()
	share, xerr := p.GetShare(ctx, "abc")
	require.Nil(t, xerr)
	require.Nil(t, p.ExtendShare(ctx, "abc", 4))

	share, xerr = p.WaitForSize(ctx, share, 4, fastWait())
	require.Nil(t, xerr)
	require.Equal(t, 4, share.Size)
	require.Equal(t, sharestate.Available, share.Status)
	require.Equal(t, 4, server.Count(http.MethodGet, "/shares/abc"))
}

func TestWaitForSizeFailure(t *testing.T) {
	p, server := newTestProxy(t, "")
	server.ResizeObservations = 5
	server.AddShare(abstract.Share{ID: "abc", Size: 4, Status: sharestate.Available})

	ctx := context.Background()
	require.Nil(t, p.ShrinkShare(ctx, "abc", 2))
	server.Evolve("abc", sharestate.Shrinking, sharestate.ErrorShrinking)

	_, xerr := p.WaitForSize(ctx, &abstract.Share{ID: "abc"}, 2, fastWait())
	require.NotNil(t, xerr)
	_, ok := xerr.(*fail.ErrExecution)
	require.True(t, ok, "unexpected error kind %T", xerr)

	_, xerr = p.WaitForSize(ctx, &abstract.Share{ID: "abc"}, 0, fastWait())
	require.NotNil(t, xerr)
}

func TestWaitCountsPolls(t *testing.T) {
	server := manilatest.NewServer()
	defer server.Close()
	collector, xerr := metrics.NewCollector("test")
	require.Nil(t, xerr)
	p, xerr := NewProxy(server.Client(""), nil, collector)
	require.Nil(t, xerr)

	server.AddShare(abstract.Share{ID: "abc", Status: sharestate.Creating})
	server.Evolve("abc", sharestate.Creating, sharestate.Available)

	_, xerr = p.WaitForStatus(context.Background(), &abstract.Share{ID: "abc", Status: sharestate.Creating}, "", fastWait())
	require.Nil(t, xerr)
	require.Equal(t, 2, server.Count(http.MethodGet, "/shares/abc"))

	expected := `
# HELP test_wait_polls_total Number of polls done while waiting for a status change
# TYPE test_wait_polls_total counter
test_wait_polls_total{operation="share.wait_status"} 2
`
	require.NoError(t, testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected), "test_wait_polls_total"))
}

func TestNewProxyValidation(t *testing.T) {
	_, xerr := NewProxy(nil, nil, nil)
	require.NotNil(t, xerr)

	server := manilatest.NewServer()
	defer server.Close()
	_, xerr = NewProxy(server.Client("latest"), nil, nil)
	require.NotNil(t, xerr)

	var p *Proxy
	_, xerr = p.GetShare(context.Background(), "abc")
	_, ok := xerr.(*fail.ErrInvalidInstance)
	require.True(t, ok)
}
