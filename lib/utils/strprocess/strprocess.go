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

package strprocess

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Plural returns 's' if value > 1, "" otherwise
func Plural(value uint) string {
	if value > 1 {
		return "s"
	}
	return ""
}

// Capitalize makes the first letter of the first word uppercased
func Capitalize(value string) string {
	fields := strings.Fields(value)
	if len(fields) > 0 {
		// WORKAROUND: cases.Title considers ' as the beginning of a new word, so "can't" would become "Can'T"
		quoted := strings.Split(fields[0], "'")
		caser := cases.Title(language.Und, cases.NoLower)
		if len(quoted) > 1 {
			quoted[0] = caser.String(quoted[0])
			fields[0] = strings.Join(quoted, "'")
		} else {
			fields[0] = caser.String(fields[0])
		}
	}
	return strings.Join(fields, " ")
}

// FormatStrings formats the values passed as parameters, using the first one as format specifier for fmt.Sprintf
// when there are more than one.
func FormatStrings(msg ...interface{}) string {
	switch len(msg) {
	case 0:
		return ""
	case 1:
		if s, ok := msg[0].(string); ok {
			return s
		}
		return ""
	default:
		if format, ok := msg[0].(string); ok {
			return fmt.Sprintf(format, msg[1:]...)
		}
		return ""
	}
}
