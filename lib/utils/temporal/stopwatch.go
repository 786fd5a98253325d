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
	"fmt"
	"sync"
	"time"
)

// Stopwatch measures the time spent in an operation, possibly in several intervals
type Stopwatch interface {
	// Start starts the stopwatch, or resumes it after Pause
	Start()
	// Pause suspends the measure until the next Start
	Pause()
	// Stop ends the measure; the stopwatch cannot be started again
	Stop()
	Duration() time.Duration
	String() string
}

type stopwatch struct {
	mu       sync.Mutex
	since    time.Time
	running  bool
	stopped  bool
	measured time.Duration
}

// NewStopwatch returns a Stopwatch not yet started
func NewStopwatch() Stopwatch {
	return &stopwatch{}
}

// StartStopwatch returns a running Stopwatch
func StartStopwatch() Stopwatch {
	sw := &stopwatch{}
	sw.Start()
	return sw
}

func (sw *stopwatch) Start() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.running || sw.stopped {
		return
	}
	sw.since = time.Now()
	sw.running = true
}

func (sw *stopwatch) Pause() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.accumulate()
}

func (sw *stopwatch) Stop() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.accumulate()
	sw.stopped = true
}

// accumulate adds the running interval to the measure; sw.mu must be held
func (sw *stopwatch) accumulate() {
	if sw.running {
		sw.measured += time.Since(sw.since)
		sw.running = false
	}
}

func (sw *stopwatch) Duration() time.Duration {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.running {
		return sw.measured + time.Since(sw.since)
	}
	return sw.measured
}

func (sw *stopwatch) String() string {
	return FormatDuration(sw.Duration())
}

// FormatDuration renders 'dur' as 00h00m00.000s; durations under a millisecond show as one
func FormatDuration(dur time.Duration) string {
	if dur < time.Millisecond {
		dur = time.Millisecond
	}
	hours := dur / time.Hour
	dur -= hours * time.Hour
	minutes := dur / time.Minute
	dur -= minutes * time.Minute
	seconds := dur / time.Second
	dur -= seconds * time.Second
	return fmt.Sprintf("%02dh%02dm%02d.%03ds", hours, minutes, seconds, dur/time.Millisecond)
}
