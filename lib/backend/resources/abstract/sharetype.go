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
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

// DriverHandlesShareServers is the extra spec every share type must define
const DriverHandlesShareServers = "driver_handles_share_servers"

// ShareType is a named profile of capabilities a share is provisioned against
type ShareType struct {
	ID                 string                 `json:"id"`
	Name               string                 `json:"name"`
	Description        string                 `json:"description,omitempty"`
	ExtraSpecs         map[string]interface{} `json:"extra_specs,omitempty"`
	RequiredExtraSpecs map[string]interface{} `json:"required_extra_specs,omitempty"`
	IsPublic           bool                   `json:"os-share-type-access:is_public"`
}

// IsNull ...
func (st *ShareType) IsNull() bool {
	return st == nil || (st.ID == "" && st.Name == "")
}

// GetID returns the ID of the share type
func (st *ShareType) GetID() string {
	if st == nil {
		return ""
	}
	return st.ID
}

// Clone returns a copy of the share type sharing no map with it
func (st ShareType) Clone() *ShareType {
	out := st
	out.ExtraSpecs = cloneSpecs(st.ExtraSpecs)
	out.RequiredExtraSpecs = cloneSpecs(st.RequiredExtraSpecs)
	return &out
}

func cloneSpecs(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// GetName returns the name of the share type
func (st *ShareType) GetName() string {
	if st == nil {
		return ""
	}
	return st.Name
}

// ShareTypeRequest contains the parameters of a share type creation
type ShareTypeRequest struct {
	Name       string                 `json:"name"`
	ExtraSpecs map[string]interface{} `json:"extra_specs"`
	IsPublic   bool                   `json:"os-share-type-access:is_public"`
}

// Validate checks the content of the request
func (r *ShareTypeRequest) Validate() fail.Error {
	if r == nil {
		return fail.InvalidInstanceError()
	}

	err := validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.ExtraSpecs, validation.Required, validation.Map(
			validation.Key(DriverHandlesShareServers, validation.Required),
		).AllowExtraKeys()),
	)
	if err != nil {
		return ResourceInvalidRequestError(ShareTypeKind, err.Error())
	}
	return nil
}
