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

package debug

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"

	"github.com/CS-SI/sharedfs/lib/utils/strprocess"
	"github.com/CS-SI/sharedfs/lib/utils/temporal"
)

type ctxKey string

// KeyForID is the context key carrying the signature of a request
const KeyForID ctxKey = "sharedfs.request.id"

const (
	enteringPrefix = ">>> "
	exitingPrefix  = "<<< "
	tracePrefix    = "--- "
)

// Tracer logs, at trace level, the entry in and the exit from a function
type Tracer interface {
	WithStopwatch() Tracer
	Entering() Tracer
	Exiting() Tracer
	Trace(msg ...interface{}) Tracer
	EnteringMessage() string
	ExitingMessage() string
	TraceMessage(msg ...interface{}) string
	Stopwatch() temporal.Stopwatch
}

type tracer struct {
	entry    *logrus.Entry
	sig      string
	caller   string
	location string
	enabled  bool
	entered  bool
	exited   bool
	sw       temporal.Stopwatch
}

func newSignature() string {
	id, err := uuid.NewV4()
	if err != nil {
		return "no-signature"
	}
	return id.String()
}

// WithRequestID returns ctx carrying a request signature, shared by all the tracers built from it
func WithRequestID(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if sig, ok := ctx.Value(KeyForID).(string); ok && sig != "" {
		return ctx
	}
	return context.WithValue(ctx, KeyForID, newSignature())
}

// NewTracer returns a Tracer for the calling function; 'msg' describes its parameters, formatted as fmt.Sprintf
// would do when the first one is a format string
func NewTracer(ctx context.Context, enable bool, msg ...interface{}) Tracer {
	if ctx == nil {
		ctx = context.Background()
	}

	sig, ok := ctx.Value(KeyForID).(string)
	if !ok || sig == "" {
		sig = newSignature()
	}

	params := strings.TrimSpace(strprocess.FormatStrings(msg...))
	if params == "" {
		params = "()"
	}

	funcName, location := "<unknown function>", "<unknown file>"
	if pc, file, line, ok := runtime.Caller(1); ok {
		location = fmt.Sprintf("%s:%d", filepath.Base(file), line)
		if f := runtime.FuncForPC(pc); f != nil {
			funcName = filepath.Base(f.Name())
		}
	}

	return &tracer{
		entry:    logrus.WithContext(ctx).WithField("request", sig),
		sig:      sig,
		caller:   funcName + params,
		location: location,
		enabled:  enable,
	}
}

func (t *tracer) message(prefix string) string {
	return prefix + t.sig + " " + t.caller + " [" + t.location + "]"
}

// WithStopwatch measures the time spent between Entering and Exiting
func (t *tracer) WithStopwatch() Tracer {
	if t != nil && t.sw == nil {
		t.sw = temporal.NewStopwatch()
	}
	return t
}

func (t *tracer) EnteringMessage() string {
	if t == nil {
		return ""
	}
	return t.message(enteringPrefix)
}

func (t *tracer) ExitingMessage() string {
	if t == nil {
		return ""
	}
	msg := t.message(exitingPrefix)
	if t.sw != nil && t.exited {
		msg += " (duration: " + t.sw.String() + ")"
	}
	return msg
}

func (t *tracer) TraceMessage(msg ...interface{}) string {
	if t == nil {
		return ""
	}
	return t.message(tracePrefix) + ": " + strprocess.FormatStrings(msg...)
}

// Entering starts the stopwatch and logs the entry, once
func (t *tracer) Entering() Tracer {
	if t == nil || t.entered {
		return t
	}
	t.entered = true
	if t.sw != nil {
		t.sw.Start()
	}
	if t.enabled {
		t.entry.Trace(t.EnteringMessage())
	}
	return t
}

// Exiting stops the stopwatch and logs the exit with the elapsed time, once
func (t *tracer) Exiting() Tracer {
	if t == nil || t.exited {
		return t
	}
	t.exited = true
	if t.sw != nil {
		t.sw.Stop()
	}
	if t.enabled {
		t.entry.Trace(t.ExitingMessage())
	}
	return t
}

func (t *tracer) Trace(msg ...interface{}) Tracer {
	if t != nil && t.enabled {
		t.entry.Trace(t.TraceMessage(msg...))
	}
	return t
}

// Stopwatch returns the stopwatch started by Entering, or an idle one when WithStopwatch was not called
func (t *tracer) Stopwatch() temporal.Stopwatch {
	if t == nil || t.sw == nil {
		return temporal.NewStopwatch()
	}
	return t.sw
}
