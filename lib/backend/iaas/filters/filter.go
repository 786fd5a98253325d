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
	"reflect"

	"github.com/itchyny/gojq"
	"github.com/jmespath/go-jmespath"

	"github.com/CS-SI/sharedfs/lib/utils/data/json"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

type filterKind int

const (
	filterNone filterKind = iota
	filterAttributes
	filterQuery
	filterJMESPath
)

// Filter refines a selection using the JSON form of the items
type Filter struct {
	kind       filterKind
	expression string
	attributes map[string]interface{}
	query      *gojq.Code
	jmes       *jmespath.JMESPath
}

// None does not filter anything
func None() Filter {
	return Filter{kind: filterNone}
}

// Attributes keeps the items whose fields are equal to those of 'attrs'; nested maps are compared recursively,
// so {"metadata": {"tier": "gold"}} keeps the items with metadata.tier equal to "gold"
func Attributes(attrs map[string]interface{}) (Filter, fail.Error) {
	if len(attrs) == 0 {
		return None(), nil
	}
	// round trip through JSON, so values compare with the decoded items
	jsoned, err := json.Marshal(attrs)
	if err != nil {
		return Filter{}, fail.InvalidParameterError("attrs", err.Error())
	}
	normalized := map[string]interface{}{}
	if err = json.Unmarshal(jsoned, &normalized); err != nil {
		return Filter{}, fail.InvalidParameterError("attrs", err.Error())
	}
	return Filter{kind: filterAttributes, attributes: normalized}, nil
}

// Query keeps the items for which the jq expression 'expr' yields true, e.g. `.status == "available" and .size > 1`
func Query(expr string) (Filter, fail.Error) {
	if expr == "" {
		return None(), nil
	}
	parsed, err := gojq.Parse(expr)
	if err != nil {
		return Filter{}, fail.SyntaxErrorWithCause(err, "invalid query '%s'", expr)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return Filter{}, fail.SyntaxErrorWithCause(err, "invalid query '%s'", expr)
	}
	return Filter{kind: filterQuery, expression: expr, query: code}, nil
}

// JMESPath keeps the items returned by the JMESPath expression 'expr' applied to the whole list,
// e.g. "[?status=='available']"
func JMESPath(expr string) (Filter, fail.Error) {
	if expr == "" {
		return None(), nil
	}
	compiled, err := jmespath.Compile(expr)
	if err != nil {
		return Filter{}, fail.SyntaxErrorWithCause(err, "invalid JMESPath expression '%s'", expr)
	}
	return Filter{kind: filterJMESPath, expression: expr, jmes: compiled}, nil
}

// IsNone tells if the filter keeps everything
func (f Filter) IsNone() bool {
	return f.kind == filterNone
}

// keep returns the indexes of the items kept among 'docs'
func (f Filter) keep(docs []map[string]interface{}) ([]int, fail.Error) {
	var out []int
	switch f.kind {
	case filterAttributes:
		for i, d := range docs {
			if dictMatch(f.attributes, d) {
				out = append(out, i)
			}
		}
	case filterQuery:
		for i, d := range docs {
			ok, xerr := f.evaluate(d)
			if xerr != nil {
				return nil, xerr
			}
			if ok {
				out = append(out, i)
			}
		}
	case filterJMESPath:
		data := make([]interface{}, 0, len(docs))
		for _, d := range docs {
			data = append(data, d)
		}
		result, err := f.jmes.Search(data)
		if err != nil {
			return nil, fail.InvalidRequestError("failed to evaluate '%s': %v", f.expression, err)
		}
		found, ok := result.([]interface{})
		if !ok {
			return nil, fail.InvalidRequestError("expression '%s' does not return a list", f.expression)
		}
		for _, r := range found {
			for i, d := range docs {
				if reflect.DeepEqual(r, d) {
					out = append(out, i)
					break
				}
			}
		}
	default:
		for i := range docs {
			out = append(out, i)
		}
	}
	return out, nil
}

// evaluate runs the jq program on 'doc'; the item is kept if one of the outputs is true
func (f Filter) evaluate(doc map[string]interface{}) (bool, fail.Error) {
	iter := f.query.Run(doc)
	for {
		v, ok := iter.Next()
		if !ok {
			return false, nil
		}
		if err, ok := v.(error); ok {
			return false, fail.InvalidRequestError("failed to evaluate '%s': %v", f.expression, err)
		}
		if b, ok := v.(bool); ok && b {
			return true, nil
		}
	}
}

func dictMatch(filter map[string]interface{}, doc map[string]interface{}) bool {
	if len(doc) == 0 {
		return false
	}
	for k, want := range filter {
		got := doc[k]
		if sub, ok := want.(map[string]interface{}); ok {
			subDoc, _ := got.(map[string]interface{})
			if !dictMatch(sub, subDoc) {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
