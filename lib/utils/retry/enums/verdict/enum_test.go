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

package verdict_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CS-SI/sharedfs/lib/utils/retry/enums/verdict"
)

func TestEnum_String(t *testing.T) {
	require.EqualValues(t, "Done", verdict.Done.String())
	require.EqualValues(t, "Retry", verdict.Retry.String())
	require.EqualValues(t, "Abort", verdict.Abort.String())
	require.EqualValues(t, "Undecided", verdict.Undecided.String())
	require.EqualValues(t, "Enum(42)", verdict.Enum(42).String())
}
