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

package filters

import (
	"github.com/CS-SI/sharedfs/lib/utils/data/json"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

// Apply returns the items designated by 'sel' and kept by 'f', in their original order
func Apply[T Identifiable](items []T, sel Selector, f Filter) ([]T, fail.Error) {
	var selected []T
	for _, v := range items {
		if sel.Matches(v) {
			selected = append(selected, v)
		}
	}
	if f.IsNone() || len(selected) == 0 {
		return selected, nil
	}

	docs := make([]map[string]interface{}, 0, len(selected))
	for _, v := range selected {
		doc, err := json.ToMap(v)
		if err != nil {
			return nil, fail.Wrap(err, "failed to convert item to filter")
		}
		docs = append(docs, doc)
	}
	indexes, xerr := f.keep(docs)
	if xerr != nil {
		return nil, xerr
	}

	out := make([]T, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, selected[i])
	}
	return out, nil
}

// Unique returns the only item designated by 'sel' and kept by 'f'.
// Returns the zero value of T and no error if nothing matches, and a *fail.ErrDuplicate if several items match.
func Unique[T Identifiable](items []T, sel Selector, f Filter) (T, fail.Error) {
	var empty T
	found, xerr := Apply(items, sel, f)
	if xerr != nil {
		return empty, xerr
	}
	switch len(found) {
	case 0:
		return empty, nil
	case 1:
		return found[0], nil
	default:
		return empty, fail.DuplicateError("multiple matches found for %s", sel)
	}
}
