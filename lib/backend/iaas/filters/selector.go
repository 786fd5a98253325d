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
	"fmt"
	"path"

	"github.com/sirupsen/logrus"
)

// Identifiable is implemented by the items a Selector can match
type Identifiable interface {
	GetID() string
	GetName() string
}

type selectorKind int

const (
	selectAll selectorKind = iota
	selectByID
	selectByName
	selectByNameOrID
	selectByPredicate
)

// Selector designates items by ID, by name, by name or ID, or by predicate
type Selector struct {
	kind      selectorKind
	value     string
	predicate func(Identifiable) bool
}

// All selects every item
func All() Selector {
	return Selector{kind: selectAll}
}

// ByID selects the item whose ID is 'id'
func ByID(id string) Selector {
	return Selector{kind: selectByID, value: id}
}

// ByName selects the items named 'name'
func ByName(name string) Selector {
	return Selector{kind: selectByName, value: name}
}

// ByNameOrID selects the items whose ID or name is equal to 'ref' or matches 'ref' used as a glob pattern.
// An empty 'ref' selects every item.
func ByNameOrID(ref string) Selector {
	if ref == "" {
		return All()
	}
	return Selector{kind: selectByNameOrID, value: ref}
}

// ByPredicate selects the items for which 'predicate' returns true
func ByPredicate(predicate func(Identifiable) bool) Selector {
	return Selector{kind: selectByPredicate, predicate: predicate}
}

// String returns a human readable form of the selector, used in messages
func (s Selector) String() string {
	switch s.kind {
	case selectByID:
		return fmt.Sprintf("id '%s'", s.value)
	case selectByName:
		return fmt.Sprintf("name '%s'", s.value)
	case selectByNameOrID:
		return fmt.Sprintf("'%s'", s.value)
	case selectByPredicate:
		return "predicate"
	default:
		return "all"
	}
}

// Ref returns the ID or name the selector was built with, "" for All and ByPredicate
func (s Selector) Ref() string {
	return s.value
}

// IsByID tells if the selector designates an item by its ID
func (s Selector) IsByID() bool {
	return s.kind == selectByID
}

// Matches tells if 'item' is selected
func (s Selector) Matches(item Identifiable) bool {
	switch s.kind {
	case selectAll:
		return true
	case selectByID:
		return item.GetID() == s.value
	case selectByName:
		return item.GetName() == s.value
	case selectByNameOrID:
		id, name := item.GetID(), item.GetName()
		if (id != "" && id == s.value) || (name != "" && name == s.value) {
			return true
		}
		return globMatch(s.value, id) || globMatch(s.value, name)
	case selectByPredicate:
		return s.predicate != nil && s.predicate(item)
	default:
		return false
	}
}

func globMatch(pattern, value string) bool {
	if value == "" {
		return false
	}
	ok, err := path.Match(pattern, value)
	if err != nil {
		logrus.Debugf("'%s' is not a valid pattern: %v", pattern, err)
		return false
	}
	return ok
}
