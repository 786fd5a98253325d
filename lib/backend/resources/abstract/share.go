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

package abstract

import (
	"regexp"
	"strings"

	"github.com/antihax/optional"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/CS-SI/sharedfs/lib/backend/resources/enums/sharestate"
	"github.com/CS-SI/sharedfs/lib/utils/data/json"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

// Protocols accepted by the shared file system service
var Protocols = []interface{}{"NFS", "CIFS", "GLUSTERFS", "HDFS", "CEPHFS", "MAPRFS"}

// Link is an hypermedia reference returned with a resource
type Link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

// Share represents a networked file-storage volume
type Share struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	AvailabilityZone string            `json:"availability_zone,omitempty"`
	Size             int               `json:"size"`
	ShareProto       string            `json:"share_proto,omitempty"`
	ShareType        string            `json:"share_type,omitempty"`
	ShareTypeName    string            `json:"share_type_name,omitempty"`
	SnapshotID       string            `json:"snapshot_id,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	Status           sharestate.Enum   `json:"status"`
	CreatedAt        string            `json:"created_at,omitempty"`
	Host             string            `json:"host,omitempty"`
	ProjectID        string            `json:"project_id,omitempty"`
	IsPublic         bool              `json:"is_public,omitempty"`
	ExportLocation   string            `json:"export_location,omitempty"`
	Links            []Link            `json:"links,omitempty"`
}

// IsNull ...
func (s *Share) IsNull() bool {
	return s == nil || (s.ID == "" && s.Name == "")
}

// GetID returns the ID of the share
func (s *Share) GetID() string {
	if s == nil {
		return ""
	}
	return s.ID
}

// GetName returns the name of the share
func (s *Share) GetName() string {
	if s == nil {
		return ""
	}
	return s.Name
}

// GetStatus returns the status of the share
func (s *Share) GetStatus() string {
	if s == nil {
		return ""
	}
	return string(s.Status)
}

// Clone returns a copy of the share sharing no map or slice with it
func (s Share) Clone() *Share {
	out := s
	if s.Metadata != nil {
		out.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	if s.Links != nil {
		out.Links = append([]Link{}, s.Links...)
	}
	return &out
}

// Serialize serializes instance into bytes (output json code)
func (s *Share) Serialize() ([]byte, fail.Error) {
	if s == nil {
		return nil, fail.InvalidInstanceError()
	}
	r, err := json.Marshal(s)
	if err != nil {
		return nil, fail.ConvertError(err)
	}
	return r, nil
}

// ShareRequest contains the parameters of a share creation
type ShareRequest struct {
	ShareProto       string            `json:"share_proto"`
	Size             int               `json:"size"`
	Name             string            `json:"name,omitempty"`
	Description      string            `json:"description,omitempty"`
	ShareType        string            `json:"share_type,omitempty"`
	SnapshotID       string            `json:"snapshot_id,omitempty"`
	AvailabilityZone string            `json:"availability_zone,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	IsPublic         *bool             `json:"is_public,omitempty"`
}

// Validate checks the content of the request
func (r *ShareRequest) Validate() fail.Error {
	if r == nil {
		return fail.InvalidInstanceError()
	}

	r.ShareProto = strings.ToUpper(strings.TrimSpace(r.ShareProto))
	err := validation.ValidateStruct(r,
		validation.Field(&r.ShareProto, validation.Required, validation.In(Protocols...)),
		validation.Field(&r.Size, validation.Required, validation.Min(1)),
		validation.Field(&r.Name, validation.Length(0, 255)),
		validation.Field(&r.AvailabilityZone, validation.Match(regexp.MustCompile("^[-a-zA-Z0-9_:.]*$"))),
	)
	if err != nil {
		return ResourceInvalidRequestError(ShareKind, err.Error())
	}
	return nil
}

// ShareUpdate contains the attributes of a share that can be changed; unset values are left untouched
type ShareUpdate struct {
	DisplayName        optional.String
	DisplayDescription optional.String
	IsPublic           optional.Bool
}

// IsEmpty tells if nothing has to be updated
func (u ShareUpdate) IsEmpty() bool {
	return !u.DisplayName.IsSet() && !u.DisplayDescription.IsSet() && !u.IsPublic.IsSet()
}

// ToMap returns the content of the update as expected by the service
func (u ShareUpdate) ToMap() map[string]interface{} {
	out := map[string]interface{}{}
	if u.DisplayName.IsSet() {
		out["display_name"] = u.DisplayName.Value()
	}
	if u.DisplayDescription.IsSet() {
		out["display_description"] = u.DisplayDescription.Value()
	}
	if u.IsPublic.IsSet() {
		out["is_public"] = u.IsPublic.Value()
	}
	return out
}
