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

package valid

import (
	"reflect"
)

// IsNil tells if something is nil, including typed nil pointers hidden behind an interface and instances declaring
// themselves as null values (through IsNull())
func IsNil(something interface{}) bool {
	if something == nil {
		return true
	}

	rv := reflect.ValueOf(something)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if rv.IsNil() {
			return true
		}
	}

	if casted, ok := something.(interface{ IsNull() bool }); ok {
		return casted.IsNull()
	}
	return false
}
