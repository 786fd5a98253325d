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
	"sort"
	"strings"

	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

// Descriptor describes how a resource is exposed by the API
type Descriptor struct {
	// Kind names the resource in error messages ("share", "share type")
	Kind string
	// ResourceKey is the envelope key of a single resource ("share")
	ResourceKey string
	// ResourcesKey is the envelope key of a collection ("shares"); links are read from "<ResourcesKey>_links"
	ResourcesKey string
	// BasePath is the path of the collection, relative to the service endpoint ("shares")
	BasePath string
	// DetailPath is the path of the detailed collection, if any ("shares/detail")
	DetailPath string

	AllowFetch  bool
	AllowCreate bool
	AllowCommit bool
	AllowDelete bool
	AllowList   bool

	// QueryMapping maps the accepted client query keys to the keys sent to the server
	QueryMapping map[string]string
}

// QueryParameters builds a query mapping where each name is sent as is, plus the renamed keys of 'renames'
func QueryParameters(names []string, renames map[string]string) map[string]string {
	out := make(map[string]string, len(names)+len(renames))
	for _, v := range names {
		out[v] = v
	}
	for k, v := range renames {
		out[k] = v
	}
	return out
}

// TranslateQuery converts client query keys to server query keys
func (d Descriptor) TranslateQuery(query map[string]string) (map[string]string, fail.Error) {
	if len(query) == 0 {
		return nil, nil
	}

	out := make(map[string]string, len(query))
	var invalid []string
	for k, v := range query {
		serverKey, ok := d.QueryMapping[k]
		if !ok {
			invalid = append(invalid, k)
			continue
		}
		out[serverKey] = v
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, fail.InvalidParameterError("query", "invalid query parameter(s) for %s: %s", d.Kind, strings.Join(invalid, ", "))
	}
	return out, nil
}

func (d Descriptor) checkAllowed(allowed bool, operation string) fail.Error {
	if !allowed {
		return fail.NotImplementedError("%s does not support %s", d.Kind, operation)
	}
	return nil
}
