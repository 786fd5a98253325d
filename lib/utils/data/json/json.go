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

package json

import (
	stdjson "encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// RawMessage is a raw encoded JSON value, decoded later
type RawMessage = stdjson.RawMessage

// Marshal is a wrapper around json Marshal
func Marshal(in interface{}) ([]byte, error) {
	res, err := codec.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshaling error: %w", err)
	}
	return res, nil
}

// Unmarshal is a wrapper around json Unmarshal
func Unmarshal(jsoned []byte, out interface{}) error {
	if err := codec.Unmarshal(jsoned, out); err != nil {
		return fmt.Errorf("unmarshaling error: %w", err)
	}
	return nil
}

// MarshalIndent is a wrapper around json MarshalIndent
func MarshalIndent(in interface{}, prefix, indent string) ([]byte, error) {
	res, err := codec.MarshalIndent(in, prefix, indent)
	if err != nil {
		return nil, fmt.Errorf("marshaling with indentation error: %w", err)
	}
	return res, nil
}

// ToMap converts any JSON-serializable value to a generic map, the way attribute filters and query expressions
// expect to see it
func ToMap(in interface{}) (map[string]interface{}, error) {
	if m, ok := in.(map[string]interface{}); ok {
		return m, nil
	}
	jsoned, err := Marshal(in)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	if err = Unmarshal(jsoned, &out); err != nil {
		return nil, err
	}
	return out, nil
}
