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
	"testing"

	"github.com/stretchr/testify/require"
)

type nullable struct{ null bool }

func (n *nullable) IsNull() bool { return n == nil || n.null }

func TestIsNil(t *testing.T) {
	var typed *nullable
	var asIface interface{} = typed

	require.True(t, IsNil(nil))
	require.True(t, IsNil(asIface))
	require.True(t, IsNil(&nullable{null: true}))
	require.False(t, IsNil(&nullable{}))
	require.False(t, IsNil(42))
	require.True(t, IsNil(map[string]int(nil)))
}
