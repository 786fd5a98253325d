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

package cli

import (
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

var (
	formatLock sync.RWMutex
	format     *template.Template
)

// SetFormat sets the Go template used to display successful results; an empty string restores JSON output.
// The sprig functions are available in the template.
func SetFormat(text string) fail.Error {
	formatLock.Lock()
	defer formatLock.Unlock()

	if strings.TrimSpace(text) == "" {
		format = nil
		return nil
	}

	tmpl, err := template.New("format").Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return fail.SyntaxErrorWithCause(err, "invalid output format")
	}
	format = tmpl
	return nil
}

func currentFormat() *template.Template {
	formatLock.RLock()
	defer formatLock.RUnlock()
	return format
}
