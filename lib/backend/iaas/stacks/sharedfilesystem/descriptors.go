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
	"github.com/CS-SI/sharedfs/lib/backend/iaas/resource"
	"github.com/CS-SI/sharedfs/lib/backend/resources/abstract"
)

// ShareDescriptor describes the shares collection
var ShareDescriptor = resource.Descriptor{
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
	QueryMapping: resource.QueryParameters(
		[]string{"name", "status", "project_id"},
		map[string]string{"all_projects": "all_tenants"},
	),
}

// TypeDescriptor describes the share types collection
var TypeDescriptor = resource.Descriptor{
	Kind:         abstract.ShareTypeKind,
	ResourceKey:  "share_type",
	ResourcesKey: "share_types",
	BasePath:     "types",
	AllowFetch:   true,
	AllowCreate:  true,
	AllowDelete:  true,
	AllowList:    true,
	QueryMapping: resource.QueryParameters([]string{"is_public"}, nil),
}
