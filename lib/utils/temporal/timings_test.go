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

package temporal

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewTimingsDefaults(t *testing.T) {
	timings := NewTimings()
	require.Equal(t, defaultOperationTimeout, timings.OperationTimeout())
	require.Equal(t, defaultNormalDelay, timings.NormalDelay())
	require.Equal(t, defaultCommunicationTimeout, timings.CommunicationTimeout())
}

func TestNilTimingsFallBackToDefaults(t *testing.T) {
	var timings *MutableTimings
	require.Equal(t, OperationTimeout(), timings.OperationTimeout())
	require.Equal(t, SmallDelay(), timings.SmallDelay())
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SHAREDFS_OPERATION_TIMEOUT", "45s")
	require.Equal(t, 45*time.Second, OperationTimeout())

	t.Setenv("SHAREDFS_NORMAL_DELAY", "not-a-duration")
	require.Equal(t, defaultNormalDelay, NormalDelay())
}

func TestUpdate(t *testing.T) {
	partial := &MutableTimings{Timeouts: Timeouts{Operation: 5 * time.Minute}}
	require.Nil(t, partial.Update(NewTimings()))
	require.Equal(t, 5*time.Minute, partial.Operation)
	require.Equal(t, NormalDelay(), partial.Normal)

	var null *MutableTimings
	require.NotNil(t, null.Update(NewTimings()))
}

func TestToToml(t *testing.T) {
	os.Unsetenv("SHAREDFS_OPERATION_TIMEOUT")
	out, err := NewTimings().ToToml()
	require.Nil(t, err)
	require.Contains(t, out, "[timeouts]")
	require.Contains(t, out, "[delays]")
	require.Contains(t, out, "operation")
}

func TestStopwatch(t *testing.T) {
	sw := NewStopwatch()
	require.Equal(t, time.Duration(0), sw.Duration())
	sw.Start()
	time.Sleep(10 * time.Millisecond)
	sw.Pause()
	paused := sw.Duration()
	require.GreaterOrEqual(t, paused, 10*time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	require.Equal(t, paused, sw.Duration())
	sw.Stop()
	sw.Start()
	require.Equal(t, paused, sw.Duration())
}

func TestFormatDuration(t *testing.T) {
	require.Equal(t, "00h00m00.001s", FormatDuration(0))
	require.Equal(t, "00h01m05.250s", FormatDuration(65*time.Second+250*time.Millisecond))
	require.Equal(t, "01h00m00.000s", FormatDuration(time.Hour))
}
