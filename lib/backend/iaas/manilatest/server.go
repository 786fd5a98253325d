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

// Package manilatest provides an in-memory shared file system API served over HTTP, for tests
package manilatest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/gophercloud/gophercloud"

	"github.com/CS-SI/sharedfs/lib/backend/resources/abstract"
	"github.com/CS-SI/sharedfs/lib/backend/resources/enums/sharestate"
	"github.com/CS-SI/sharedfs/lib/utils/data/json"
)

// Request is a request received by the Server
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Body     string
}

// Server is a fake shared file system API
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	shares   []*abstract.Share
	types    []*abstract.ShareType
	requests []Request
	nextID   int

	// PageSize limits the number of shares per listing page; 0 disables pagination
	PageSize int
	// BrokenNextLinks is the number of "next" link requests answered with 404; -1 breaks them all
	BrokenNextLinks int
	// NewShareStatuses are the statuses taken by a created share, one per observation (GET or listing)
	NewShareStatuses []sharestate.Enum
	// DeleteObservations is the number of observations of a deleted share before it disappears
	DeleteObservations int
	// GoneOnDelete removes a share when its deletion is requested and answers 404, as if it vanished meanwhile
	GoneOnDelete bool
	// ResizeObservations is the number of observations of a resized share still showing its former size
	ResizeObservations int

	evolutions map[string][]sharestate.Enum
	vanishing  map[string]int
	resizing   map[string]pendingSize
}

type pendingSize struct {
	size int
	left int
}

// NewServer starts a Server
func NewServer() *Server {
	s := &Server{
		evolutions: map[string][]sharestate.Enum{},
		vanishing:  map[string]int{},
		resizing:   map[string]pendingSize{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Client returns a service client bound to the server
func (s *Server) Client(microversion string) *gophercloud.ServiceClient {
	return &gophercloud.ServiceClient{
		ProviderClient: &gophercloud.ProviderClient{TokenID: "fake-token"},
		Endpoint:       s.URL + "/",
		Type:           "sharev2",
		Microversion:   microversion,
	}
}

// AddShare registers a share
func (s *Server) AddShare(share abstract.Share) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := share
	s.shares = append(s.shares, &cp)
}

// AddType registers a share type
func (s *Server) AddType(st abstract.ShareType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := st
	s.types = append(s.types, &cp)
}

// SetStatus changes the status of a share
func (s *Server) SetStatus(id string, status sharestate.Enum) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if share := s.findShare(id); share != nil {
		share.Status = status
	}
}

// Evolve queues the statuses a share takes on its next observations
func (s *Server) Evolve(id string, statuses ...sharestate.Enum) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evolutions[id] = append(s.evolutions[id], statuses...)
}

// Share returns a copy of a share, or nil
func (s *Server) Share(id string) *abstract.Share {
	s.mu.Lock()
	defer s.mu.Unlock()
	if share := s.findShare(id); share != nil {
		cp := *share
		return &cp
	}
	return nil
}

// Requests returns the requests received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request{}, s.requests...)
}

// Count returns the number of requests with 'method' whose path starts with 'prefix'
func (s *Server) Count(method, prefix string) int {
	count := 0
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, prefix) {
			count++
		}
	}
	return count
}

func (s *Server) findShare(id string) *abstract.Share {
	for _, v := range s.shares {
		if v.ID == id {
			return v
		}
	}
	return nil
}

func (s *Server) removeShare(id string) {
	for i, v := range s.shares {
		if v.ID == id {
			s.shares = append(s.shares[:i], s.shares[i+1:]...)
			return
		}
	}
}

// observe applies the pending status change of a share; returns false if the share vanished
func (s *Server) observe(share *abstract.Share) bool {
	if left, ok := s.vanishing[share.ID]; ok {
		if left <= 0 {
			delete(s.vanishing, share.ID)
			s.removeShare(share.ID)
			return false
		}
		s.vanishing[share.ID] = left - 1
	}
	if pending, ok := s.resizing[share.ID]; ok {
		if pending.left <= 0 {
			share.Size = pending.size
			delete(s.resizing, share.ID)
		} else {
			pending.left--
			s.resizing[share.ID] = pending
		}
	}
	if queue := s.evolutions[share.ID]; len(queue) > 0 {
		share.Status = queue[0]
		s.evolutions[share.ID] = queue[1:]
	}
	return true
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, RawQuery: r.URL.RawQuery, Body: string(raw)})

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch parts[0] {
	case "shares":
		s.serveShares(w, r, parts[1:], raw)
	case "types":
		s.serveTypes(w, r, parts[1:], raw)
	default:
		notFound(w, "resource")
	}
}

func (s *Server) serveShares(w http.ResponseWriter, r *http.Request, parts []string, body []byte) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet, len(parts) == 1 && parts[0] == "detail" && r.Method == http.MethodGet:
		s.listShares(w, r)
	case len(parts) == 0 && r.Method == http.MethodPost:
		s.createShare(w, body)
	case len(parts) == 1:
		share := s.findShare(parts[0])
		if share == nil {
			notFound(w, "Share "+parts[0])
			return
		}
		switch r.Method {
		case http.MethodGet:
			if !s.observe(share) {
				notFound(w, "Share "+parts[0])
				return
			}
			reply(w, http.StatusOK, map[string]interface{}{"share": share})
		case http.MethodPut:
			s.updateShare(w, share, body)
		case http.MethodDelete:
			if s.GoneOnDelete {
				s.removeShare(share.ID)
				notFound(w, "Share "+share.ID)
				return
			}
			s.deleteShare(share)
			w.WriteHeader(http.StatusAccepted)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && parts[1] == "action" && r.Method == http.MethodPost:
		share := s.findShare(parts[0])
		if share == nil {
			notFound(w, "Share "+parts[0])
			return
		}
		s.shareAction(w, share, body)
	default:
		notFound(w, "resource")
	}
}

func (s *Server) listShares(w http.ResponseWriter, r *http.Request) {
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if s.BrokenNextLinks != 0 {
			if s.BrokenNextLinks > 0 {
				s.BrokenNextLinks--
			}
			notFound(w, "page")
			return
		}
		offset, _ = strconv.Atoi(v)
	}

	var visible []*abstract.Share
	for _, v := range append([]*abstract.Share{}, s.shares...) {
		if s.observe(v) {
			visible = append(visible, v)
		}
	}

	end := len(visible)
	if s.PageSize > 0 && offset+s.PageSize < end {
		end = offset + s.PageSize
	}
	if offset > len(visible) {
		offset = len(visible)
	}

	out := map[string]interface{}{"shares": visible[offset:end]}
	if s.PageSize > 0 {
		links := []map[string]string{}
		if end < len(visible) {
			path := strings.TrimPrefix(r.URL.Path, "/")
			links = append(links, map[string]string{"rel": "next", "href": fmt.Sprintf("%s/%s?offset=%d", s.URL, path, end)})
		}
		out["shares_links"] = links
	}
	reply(w, http.StatusOK, out)
}

func (s *Server) createShare(w http.ResponseWriter, body []byte) {
	var req struct {
		Share abstract.ShareRequest `json:"share"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Share.Size < 1 {
		badRequest(w, "invalid share size")
		return
	}

	s.nextID++
	share := &abstract.Share{
		ID:               fmt.Sprintf("share-%d", s.nextID),
		Name:             req.Share.Name,
		Description:      req.Share.Description,
		Size:             req.Share.Size,
		ShareProto:       req.Share.ShareProto,
		ShareTypeName:    req.Share.ShareType,
		AvailabilityZone: req.Share.AvailabilityZone,
		Metadata:         req.Share.Metadata,
		Status:           sharestate.Creating,
	}
	if req.Share.IsPublic != nil {
		share.IsPublic = *req.Share.IsPublic
	}
	if len(s.NewShareStatuses) > 0 {
		share.Status = s.NewShareStatuses[0]
		s.evolutions[share.ID] = append([]sharestate.Enum{}, s.NewShareStatuses[1:]...)
	}
	s.shares = append(s.shares, share)
	reply(w, http.StatusOK, map[string]interface{}{"share": share})
}

func (s *Server) updateShare(w http.ResponseWriter, share *abstract.Share, body []byte) {
	var req struct {
		Share map[string]interface{} `json:"share"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if v, ok := req.Share["display_name"].(string); ok {
		share.Name = v
	}
	if v, ok := req.Share["display_description"].(string); ok {
		share.Description = v
	}
	if v, ok := req.Share["is_public"].(bool); ok {
		share.IsPublic = v
	}
	reply(w, http.StatusOK, map[string]interface{}{"share": share})
}

func (s *Server) deleteShare(share *abstract.Share) {
	if s.DeleteObservations > 0 {
		share.Status = sharestate.Deleting
		s.vanishing[share.ID] = s.DeleteObservations
		return
	}
	s.removeShare(share.ID)
}

func (s *Server) shareAction(w http.ResponseWriter, share *abstract.Share, body []byte) {
	var req map[string]interface{}
	if err := json.Unmarshal(body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	for k, v := range req {
		switch strings.TrimPrefix(k, "os-") {
		case "force_delete":
			if s.GoneOnDelete {
				s.removeShare(share.ID)
				notFound(w, "Share "+share.ID)
				return
			}
			s.deleteShare(share)
		case "extend", "shrink":
			params, _ := v.(map[string]interface{})
			size, _ := params["new_size"].(float64)
			if s.ResizeObservations > 0 {
				s.resizing[share.ID] = pendingSize{size: int(size), left: s.ResizeObservations}
				break
			}
			share.Size = int(size)
		default:
			badRequest(w, "unknown action "+k)
			return
		}
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) serveTypes(w http.ResponseWriter, r *http.Request, parts []string, body []byte) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		var out []*abstract.ShareType
		isPublic := r.URL.Query().Get("is_public")
		for _, v := range s.types {
			if isPublic == "" || isPublic == "all" || strconv.FormatBool(v.IsPublic) == isPublic {
				out = append(out, v)
			}
		}
		if out == nil {
			out = []*abstract.ShareType{}
		}
		reply(w, http.StatusOK, map[string]interface{}{"share_types": out})
	case len(parts) == 0 && r.Method == http.MethodPost:
		var req struct {
			ShareType abstract.ShareTypeRequest `json:"share_type"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			badRequest(w, err.Error())
			return
		}
		s.nextID++
		st := &abstract.ShareType{
			ID:         fmt.Sprintf("type-%d", s.nextID),
			Name:       req.ShareType.Name,
			ExtraSpecs: req.ShareType.ExtraSpecs,
			IsPublic:   req.ShareType.IsPublic,
		}
		s.types = append(s.types, st)
		reply(w, http.StatusOK, map[string]interface{}{"share_type": st})
	case len(parts) == 1:
		idx := -1
		for i, v := range s.types {
			if v.ID == parts[0] {
				idx = i
			}
		}
		if idx < 0 {
			notFound(w, "Share type "+parts[0])
			return
		}
		switch r.Method {
		case http.MethodGet:
			reply(w, http.StatusOK, map[string]interface{}{"share_type": s.types[idx]})
		case http.MethodDelete:
			s.types = append(s.types[:idx], s.types[idx+1:]...)
			w.WriteHeader(http.StatusAccepted)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		notFound(w, "resource")
	}
}

func reply(w http.ResponseWriter, code int, payload interface{}) {
	content, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(content)
}

func notFound(w http.ResponseWriter, what string) {
	reply(w, http.StatusNotFound, map[string]interface{}{
		"itemNotFound": map[string]interface{}{"code": http.StatusNotFound, "message": what + " could not be found."},
	})
}

func badRequest(w http.ResponseWriter, msg string) {
	reply(w, http.StatusBadRequest, map[string]interface{}{
		"badRequest": map[string]interface{}{"code": http.StatusBadRequest, "message": msg},
	})
}
