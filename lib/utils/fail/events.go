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

package fail

import (
	"context"
	"fmt"
	"reflect"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CS-SI/sharedfs/lib/utils/strprocess"
)

// FormatMessage builds a message from a format and its parameters
func FormatMessage(msg ...interface{}) string {
	return strprocess.FormatStrings(msg...)
}

// OnPanic captures panic error and fill the error pointer with a ErrRuntimePanic.
// Must be called as 'defer fail.OnPanic(&ferr)' where ferr is a named return value of type error or fail.Error
func OnPanic(err interface{}) {
	if x := recover(); x != nil {
		trace := errors.Errorf("%v", x)
		switch v := err.(type) {
		case *Error:
			if v != nil {
				*v = RuntimePanicError("runtime panic occurred: %+v", trace)
				return
			}
		case *error:
			if v != nil {
				*v = RuntimePanicError("runtime panic occurred: %+v", trace)
				return
			}
		default:
			logrus.Errorf("fail.OnPanic(): intercepted panic but parameter 'err' is invalid: unexpected type '%s'", reflect.TypeOf(err))
			return
		}
		logrus.Errorf("fail.OnPanic(): intercepted panic but '*err' is nil: %+v", trace)
	}
}

// OnExitLogErrorWithLevel logs error with the log level wanted
func OnExitLogErrorWithLevel(ctx context.Context, err interface{}, level logrus.Level, msg ...interface{}) {
	if err == nil {
		return
	}

	var target error
	switch v := err.(type) {
	case *Error:
		if v != nil && *v != nil {
			target = *v
		}
	case *error:
		if v != nil && *v != nil {
			target = *v
		}
	default:
		logrus.WithContext(ctx).Errorf("fail.OnExitLogErrorWithLevel(): invalid parameter 'err': unexpected type '%s'", reflect.TypeOf(err))
		return
	}
	if target == nil {
		return
	}

	switch target.(type) {
	case *ErrRuntimePanic, *ErrInvalidInstance, *ErrInvalidParameter:
		// systematically logged by the caller that received them
		return
	}

	prefix := FormatMessage(msg...)
	if prefix == "" {
		prefix = "operation failed"
	}
	logrus.WithContext(ctx).Log(level, fmt.Sprintf("%s: %+v", prefix, target))
}

// OnExitLogError logs error with level logrus.ErrorLevel.
func OnExitLogError(ctx context.Context, err interface{}, msg ...interface{}) {
	OnExitLogErrorWithLevel(ctx, err, logrus.ErrorLevel, msg...)
}

// OnExitTraceError logs error with level logrus.TraceLevel.
func OnExitTraceError(ctx context.Context, err interface{}, msg ...interface{}) {
	OnExitLogErrorWithLevel(ctx, err, logrus.TraceLevel, msg...)
}
