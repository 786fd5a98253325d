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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gophercloud/gophercloud"
	"github.com/stretchr/testify/require"

	"github.com/CS-SI/sharedfs/lib/backend/iaas/metrics"
	"github.com/CS-SI/sharedfs/lib/backend/resources/abstract"
	"github.com/CS-SI/sharedfs/lib/backend/resources/enums/sharestate"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

var shareDescriptor = Descriptor{
	Kind:         abstract.ShareKind,
	ResourceKey:  "share",
	ResourcesKey: "shares",
	BasePath:     "shares",
	DetailPath:   "shares/detail",
	AllowFetch:   true,
	AllowCreate:  true,
	AllowCommit:  true,
	AllowDelete:  true,
	AllowList:    true,
	QueryMapping: QueryParameters([]string{"name", "status", "project_id"}, map[string]string{"all_projects": "all_tenants"}),
}

func writeJSON(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}

func newTestMapper(t *testing.T, handler http.Handler, opts ...Option) (*Mapper[abstract.Share], *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := &gophercloud.ServiceClient{
		ProviderClient: &gophercloud.ProviderClient{TokenID: "tok"},
		Endpoint:       server.URL + "/",
		Type:           "sharev2",
		Microversion:   "2.7",
	}
	m, xerr := NewMapper[abstract.Share](client, shareDescriptor, opts...)
	require.Nil(t, xerr)
	return m, server
}

func TestGet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/shares/abc", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "tok", r.Header.Get("X-Auth-Token"))
		require.Equal(t, "2.7", r.Header.Get("X-OpenStack-Manila-API-Version"))
		writeJSON(w, http.StatusOK, `{"share": {"id": "abc", "name": "data", "size": 1, "status": "available", "metadata": {"k": "v"}}}`)
	})
	m, _ := newTestMapper(t, mux)

	share, xerr := m.Get(context.Background(), "abc")
	require.Nil(t, xerr)
	require.Equal(t, "abc", share.ID)
	require.Equal(t, "data", share.Name)
	require.Equal(t, sharestate.Available, share.Status)
	require.Equal(t, "v", share.Metadata["k"])

	_, xerr = m.Get(context.Background(), "")
	require.NotNil(t, xerr)
	_, ok := xerr.(*fail.ErrInvalidParameter)
	require.True(t, ok)
}

func TestGetNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/shares/missing", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"itemNotFound": {"code": 404, "message": "Share missing could not be found."}}`)
	})
	collector, xerr := metrics.NewCollector("test")
	require.Nil(t, xerr)
	m, _ := newTestMapper(t, mux, WithMetrics(collector))

	_, xerr = m.Get(context.Background(), "missing")
	require.NotNil(t, xerr)
	_, ok := xerr.(*fail.ErrNotFound)
	require.True(t, ok)
	require.Contains(t, xerr.Error(), "could not be found")
}

func TestListFollowsNextLinks(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/shares/detail", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("offset") {
		case "":
			writeJSON(w, http.StatusOK, fmt.Sprintf(`{"shares": [{"id": "1", "status": "available"}, {"id": "2", "status": "available"}],
				"shares_links": [{"href": "%s/shares/detail?offset=2", "rel": "next"}]}`, server.URL))
		case "2":
			writeJSON(w, http.StatusOK, fmt.Sprintf(`{"shares": [{"id": "3", "status": "error"}],
				"shares_links": [{"href": "%s/shares/detail?offset=0", "rel": "previous"}]}`, server.URL))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	m, s := newTestMapper(t, mux)
	server = s

	shares, xerr := m.List(context.Background(), true, nil)
	require.Nil(t, xerr)
	require.Len(t, shares, 3)
	require.Equal(t, "1", shares[0].ID)
	require.Equal(t, "2", shares[1].ID)
	require.Equal(t, "3", shares[2].ID)
}

func TestListGoesThroughEmptyPages(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/shares/detail", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("offset") {
		case "":
			writeJSON(w, http.StatusOK, fmt.Sprintf(`{"shares": [{"id": "a", "status": "available"}],
				"shares_links": [{"href": "%s/shares/detail?offset=1", "rel": "next"}]}`, server.URL))
		case "1":
			writeJSON(w, http.StatusOK, fmt.Sprintf(`{"shares": [],
				"shares_links": [{"href": "%s/shares/detail?offset=2", "rel": "next"}]}`, server.URL))
		case "2":
			writeJSON(w, http.StatusOK, `{"shares": [{"id": "b", "status": "available"}]}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	m, s := newTestMapper(t, mux)
	server = s

	shares, xerr := m.List(context.Background(), true, nil)
	require.Nil(t, xerr)
	require.Len(t, shares, 2)
	require.Equal(t, "a", shares[0].ID)
	require.Equal(t, "b", shares[1].ID)
}

func TestListEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/shares", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"shares": []}`)
	})
	m, _ := newTestMapper(t, mux)

	shares, xerr := m.List(context.Background(), false, nil)
	require.Nil(t, xerr)
	require.NotNil(t, shares)
	require.Empty(t, shares)
}

func TestListTranslatesQuery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/shares/detail", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "true", r.URL.Query().Get("all_tenants"))
		require.Equal(t, "data", r.URL.Query().Get("name"))
		require.Empty(t, r.URL.Query().Get("all_projects"))
		writeJSON(w, http.StatusOK, `{"shares": [{"id": "1", "name": "data"}]}`)
	})
	m, _ := newTestMapper(t, mux)

	shares, xerr := m.List(context.Background(), true, map[string]string{"all_projects": "true", "name": "data"})
	require.Nil(t, xerr)
	require.Len(t, shares, 1)

	_, xerr = m.List(context.Background(), true, map[string]string{"color": "blue"})
	require.NotNil(t, xerr)
	_, ok := xerr.(*fail.ErrInvalidParameter)
	require.True(t, ok)
}

func TestEachStopsOnHandlerError(t *testing.T) {
	var server *httptest.Server
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/shares/detail", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"shares": [{"id": "1"}], "shares_links": [{"href": "%s/shares/detail?marker=1", "rel": "next"}]}`, server.URL))
	})
	m, s := newTestMapper(t, mux)
	server = s

	xerr := m.Each(context.Background(), true, nil, func(items []abstract.Share) fail.Error {
		return fail.AbortedError(nil, "enough")
	})
	require.NotNil(t, xerr)
	_, ok := xerr.(*fail.ErrAborted)
	require.True(t, ok)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCreateAndCommit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/shares", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "NFS", body["share"]["share_proto"])
		require.Equal(t, float64(1), body["share"]["size"])
		writeJSON(w, http.StatusOK, `{"share": {"id": "new", "status": "creating", "size": 1, "share_proto": "NFS"}}`)
	})
	mux.HandleFunc("/shares/new", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		var body map[string]map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "renamed", body["share"]["display_name"])
		writeJSON(w, http.StatusOK, `{"share": {"id": "new", "name": "renamed", "status": "available"}}`)
	})
	m, _ := newTestMapper(t, mux)

	share, xerr := m.Create(context.Background(), abstract.ShareRequest{ShareProto: "NFS", Size: 1})
	require.Nil(t, xerr)
	require.Equal(t, "new", share.ID)
	require.Equal(t, sharestate.Creating, share.Status)

	share, xerr = m.Commit(context.Background(), "new", map[string]interface{}{"display_name": "renamed"})
	require.Nil(t, xerr)
	require.Equal(t, "renamed", share.Name)
}

func TestDelete(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/shares/abc", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/shares/missing", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"itemNotFound": {"code": 404, "message": "not found"}}`)
	})
	m, _ := newTestMapper(t, mux)

	require.Nil(t, m.Delete(context.Background(), "abc", false))
	require.Nil(t, m.Delete(context.Background(), "missing", true))

	xerr := m.Delete(context.Background(), "missing", false)
	require.NotNil(t, xerr)
	_, ok := xerr.(*fail.ErrNotFound)
	require.True(t, ok)
}

func TestAction(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/shares/abc/action", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.JSONEq(t, `{"extend": {"new_size": 2}}`, string(raw))
		w.WriteHeader(http.StatusAccepted)
	})
	m, _ := newTestMapper(t, mux)

	xerr := m.Action(context.Background(), "abc", map[string]interface{}{"extend": map[string]int{"new_size": 2}})
	require.Nil(t, xerr)
}

func TestNotAllowed(t *testing.T) {
	desc := shareDescriptor
	desc.AllowCommit = false
	client := &gophercloud.ServiceClient{ProviderClient: &gophercloud.ProviderClient{}, Endpoint: "http://localhost/"}
	m, xerr := NewMapper[abstract.Share](client, desc)
	require.Nil(t, xerr)

	_, xerr = m.Commit(context.Background(), "abc", map[string]interface{}{"name": "x"})
	require.NotNil(t, xerr)
	_, ok := xerr.(*fail.ErrNotImplemented)
	require.True(t, ok)
}

func TestNewMapperValidation(t *testing.T) {
	_, xerr := NewMapper[abstract.Share](nil, shareDescriptor)
	require.NotNil(t, xerr)

	client := &gophercloud.ServiceClient{ProviderClient: &gophercloud.ProviderClient{}, Endpoint: "http://localhost/"}
	_, xerr = NewMapper[abstract.Share](client, Descriptor{})
	require.NotNil(t, xerr)
}

func TestListURL(t *testing.T) {
	client := &gophercloud.ServiceClient{ProviderClient: &gophercloud.ProviderClient{}, Endpoint: "http://localhost/v2/"}
	m, xerr := NewMapper[abstract.Share](client, shareDescriptor)
	require.Nil(t, xerr)

	u, xerr := m.ListURL(true, nil)
	require.Nil(t, xerr)
	require.Equal(t, "http://localhost/v2/shares/detail", u)

	u, xerr = m.ListURL(false, map[string]string{"status": "available"})
	require.Nil(t, xerr)
	require.Equal(t, "http://localhost/v2/shares?status=available", u)
}

func shareWithStatus(status string) *abstract.Share {
	return &abstract.Share{ID: "abc", Status: sharestate.Enum(status)}
}

func fastWait() WaitOptions {
	return WaitOptions{Kind: abstract.ShareKind, ID: "abc", Interval: 5 * time.Millisecond, Wait: time.Second}
}

func TestWaitForStatusReachesStatus(t *testing.T) {
	statuses := []string{"creating", "creating", "available"}
	count := 0
	polls := 0
	opts := fastWait()
	opts.OnPoll = func() { polls++ }

	share, xerr := WaitForStatus(context.Background(), shareWithStatus("creating"), func(context.Context) (*abstract.Share, fail.Error) {
		s := shareWithStatus(statuses[count])
		if count < len(statuses)-1 {
			count++
		}
		return s, nil
	}, "available", opts)
	require.Nil(t, xerr)
	require.Equal(t, sharestate.Available, share.Status)
	require.Equal(t, 3, polls)
}

func TestWaitUntilPollsEvenWhenAvailable(t *testing.T) {
	sizes := []int{1, 1, 4}
	count := 0
	share, xerr := WaitUntil(context.Background(), func(context.Context) (*abstract.Share, fail.Error) {
		s := shareWithStatus("available")
		s.Size = sizes[count]
		if count < len(sizes)-1 {
			count++
		}
		return s, nil
	}, func(s *abstract.Share) bool { return s.Size == 4 }, "size 4 GB", fastWait())
	require.Nil(t, xerr)
	require.Equal(t, 4, share.Size)
	require.Equal(t, 2, count)

	_, xerr = WaitUntil[*abstract.Share](context.Background(), func(context.Context) (*abstract.Share, fail.Error) {
		return shareWithStatus("available"), nil
	}, nil, "nothing", fastWait())
	require.NotNil(t, xerr)
}

func TestWaitForStatusAlreadyThere(t *testing.T) {
	called := false
	share, xerr := WaitForStatus(context.Background(), shareWithStatus("AVAILABLE"), func(context.Context) (*abstract.Share, fail.Error) {
		called = true
		return nil, nil
	}, "available", fastWait())
	require.Nil(t, xerr)
	require.False(t, called)
	require.Equal(t, "abc", share.ID)
}

func TestWaitForStatusFailureIsNotTimeout(t *testing.T) {
	opts := fastWait()
	opts.Interval = 2 * time.Millisecond
	opts.Wait = 50 * time.Millisecond
	opts.Failures = []string{"ERROR"}

	_, xerr := WaitForStatus(context.Background(), nil, func(context.Context) (*abstract.Share, fail.Error) {
		return shareWithStatus("ERROR"), nil
	}, "ACTIVE", opts)
	require.NotNil(t, xerr)
	cast, ok := xerr.(*fail.ErrExecution)
	require.True(t, ok, "unexpected error kind %T", xerr)
	status, found := cast.Annotation("status")
	require.True(t, found)
	require.Equal(t, "ERROR", status)
}

func TestWaitForStatusDefaultFailures(t *testing.T) {
	_, xerr := WaitForStatus(context.Background(), nil, func(context.Context) (*abstract.Share, fail.Error) {
		return shareWithStatus("error"), nil
	}, "available", fastWait())
	_, ok := xerr.(*fail.ErrExecution)
	require.True(t, ok)
}

func TestWaitForStatusTimeout(t *testing.T) {
	opts := fastWait()
	opts.Wait = 30 * time.Millisecond
	_, xerr := WaitForStatus(context.Background(), nil, func(context.Context) (*abstract.Share, fail.Error) {
		return shareWithStatus("creating"), nil
	}, "available", opts)
	require.NotNil(t, xerr)
	_, ok := xerr.(*fail.ErrTimeout)
	require.True(t, ok, "unexpected error kind %T", xerr)
}

func TestWaitForStatusWentAway(t *testing.T) {
	_, xerr := WaitForStatus(context.Background(), nil, func(context.Context) (*abstract.Share, fail.Error) {
		return nil, fail.NotFoundError("gone")
	}, "available", fastWait())
	require.NotNil(t, xerr)
	_, ok := xerr.(*fail.ErrExecution)
	require.True(t, ok)
	require.Contains(t, xerr.Error(), "went away")
}

func TestWaitForStatusCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opts := fastWait()
	opts.Wait = Unbounded
	count := 0
	_, xerr := WaitForStatus(ctx, nil, func(context.Context) (*abstract.Share, fail.Error) {
		count++
		if count == 3 {
			cancel()
		}
		return shareWithStatus("creating"), nil
	}, "available", opts)
	require.NotNil(t, xerr)
	_, ok := xerr.(*fail.ErrAborted)
	require.True(t, ok, "unexpected error kind %T", xerr)
}

func TestWaitForDelete(t *testing.T) {
	count := 0
	xerr := WaitForDelete(context.Background(), func(context.Context) (*abstract.Share, fail.Error) {
		count++
		if count < 3 {
			return shareWithStatus("deleting"), nil
		}
		return nil, fail.NotFoundError("gone")
	}, fastWait())
	require.Nil(t, xerr)
	require.Equal(t, 3, count)

	xerr = WaitForDelete(context.Background(), func(context.Context) (*abstract.Share, fail.Error) {
		return shareWithStatus("deleted"), nil
	}, fastWait())
	require.Nil(t, xerr)

	opts := fastWait()
	opts.Wait = 20 * time.Millisecond
	xerr = WaitForDelete(context.Background(), func(context.Context) (*abstract.Share, fail.Error) {
		return shareWithStatus("deleting"), nil
	}, opts)
	_, ok := xerr.(*fail.ErrTimeout)
	require.True(t, ok)
}

func TestWaitOptionsDefaults(t *testing.T) {
	var opts WaitOptions
	require.Equal(t, DefaultWaitInterval, opts.interval())
	require.Equal(t, DefaultWaitTimeout, opts.timeout())
	require.True(t, opts.failures().Contains("error"))

	opts.Wait = Unbounded
	require.Equal(t, time.Duration(0), opts.timeout())
}
