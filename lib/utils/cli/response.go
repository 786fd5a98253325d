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
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	urfcli "github.com/urfave/cli"

	"github.com/CS-SI/sharedfs/lib/utils/cli/enums/cmdstatus"
	"github.com/CS-SI/sharedfs/lib/utils/data/json"
)

var (
	outputLock sync.Mutex
	output     io.Writer = os.Stdout
)

// SetOutput changes where responses are written; returns the previous writer
func SetOutput(w io.Writer) io.Writer {
	outputLock.Lock()
	defer outputLock.Unlock()

	previous := output
	if w == nil {
		w = os.Stdout
	}
	output = w
	return previous
}

// response define a standard response for sharedfs commands
type response struct {
	Status cmdstatus.Enum
	Error  urfcli.ExitCoder
	Result interface{}
}

type jsonError struct {
	Message  string `json:"message"`
	ExitCode int    `json:"exitcode"`
}

type responseDisplay struct {
	Status string      `json:"status"`
	Error  *jsonError  `json:"error,omitempty"`
	Result interface{} `json:"result,omitempty"`
}

func newResponse() response {
	return response{
		Status: cmdstatus.UNKNOWN,
	}
}

// Success ...
func (r *response) Success(result interface{}) error {
	r.Status = cmdstatus.SUCCESS
	r.Result = result
	return r.Display()
}

// Failure ...
func (r *response) Failure(err error) error {
	if err == nil {
		return nil
	}

	r.Status = cmdstatus.FAILURE
	exitCoder, ok := err.(urfcli.ExitCoder)
	if !ok {
		exitCoder = ExitOnFailure(err, "")
	}
	r.Error = exitCoder
	_ = r.Display()
	return r.Error
}

// Display writes the response, as JSON or through the output template when one is set
func (r *response) Display() error {
	display := r.getDisplayResponse()

	if forensics := os.Getenv("SHAREDFS_FORENSICS"); forensics != "" {
		logrus.Debugf("command response: %+v", display)
	}

	var (
		out []byte
		err error
	)
	if tmpl := currentFormat(); tmpl != nil && r.Status == cmdstatus.SUCCESS {
		var sb strings.Builder
		if err = tmpl.Execute(&sb, r.Result); err != nil {
			logrus.Errorf("failed to apply the output format: %v", err)
			return ExitOnInvalidOption(fmt.Sprintf("failed to apply the output format: %v", err))
		}
		out = []byte(sb.String())
	} else {
		out, err = json.Marshal(display)
		if err != nil {
			logrus.Error("failed to marshal the response")
			return err
		}
	}

	outputLock.Lock()
	defer outputLock.Unlock()
	_, err = fmt.Fprintln(output, string(out))
	return err
}

func (r *response) getDisplayResponse() responseDisplay {
	display := responseDisplay{
		Status: strings.ToLower(r.Status.String()),
		Result: r.Result,
	}
	if r.Error != nil {
		display.Error = &jsonError{
			Message:  r.Error.Error(),
			ExitCode: r.Error.ExitCode(),
		}
	}
	return display
}

// FailureResponse displays the failure 'err' and returns an error carrying only its exit code, the message being
// already part of the response
func FailureResponse(err error) error {
	r := newResponse()
	_ = r.Failure(err)
	if r.Error != nil {
		return urfcli.NewExitError("", r.Error.ExitCode())
	}
	return nil
}

// SuccessResponse displays 'result'
func SuccessResponse(result interface{}) error {
	r := newResponse()
	if err := r.Success(result); err != nil {
		return FailureResponse(err)
	}
	return nil
}
