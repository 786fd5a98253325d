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
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	urfcli "github.com/urfave/cli"

	"github.com/CS-SI/sharedfs/lib/utils/cli/enums/exitcode"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	buf := &bytes.Buffer{}
	previous := SetOutput(buf)
	t.Cleanup(func() {
		SetOutput(previous)
		_ = SetFormat("")
	})
	return buf
}

func TestSuccessResponse(t *testing.T) {
	buf := captureOutput(t)

	require.Nil(t, SuccessResponse(map[string]interface{}{"name": "data", "size": 1}))
	require.JSONEq(t, `{"status":"success","result":{"name":"data","size":1}}`, buf.String())
}

func TestSuccessResponseWithoutResult(t *testing.T) {
	buf := captureOutput(t)

	require.Nil(t, SuccessResponse(nil))
	require.JSONEq(t, `{"status":"success"}`, buf.String())
}

func TestFailureResponse(t *testing.T) {
	buf := captureOutput(t)

	err := FailureResponse(fail.NotFoundError("share 'data' not found"))
	require.NotNil(t, err)
	exitCoder, ok := err.(urfcli.ExitCoder)
	require.True(t, ok)
	require.Equal(t, int(exitcode.NotFound), exitCoder.ExitCode())
	require.Empty(t, exitCoder.Error())
	require.JSONEq(t, `{"status":"failure","error":{"message":"Share 'data' not found","exitcode":4}}`, buf.String())

	require.Nil(t, FailureResponse(nil))
}

func TestFailureResponseKeepsExitCoder(t *testing.T) {
	buf := captureOutput(t)

	err := FailureResponse(ExitOnInvalidArgument("missing argument"))
	require.Equal(t, int(exitcode.InvalidArgument), err.(urfcli.ExitCoder).ExitCode())
	require.Contains(t, buf.String(), `"missing argument"`)
}

func TestFormat(t *testing.T) {
	buf := captureOutput(t)

	require.Nil(t, SetFormat(`{{ range . }}{{ .name | upper }} {{ .size }}{{ "\n" }}{{ end }}`))
	require.Nil(t, SuccessResponse([]map[string]interface{}{{"name": "a", "size": 1}, {"name": "b", "size": 2}}))
	require.Equal(t, "A 1\nB 2\n\n", buf.String())

	// failures stay in JSON
	buf.Reset()
	_ = FailureResponse(fail.TimeoutError(nil, 0, "too long"))
	require.Contains(t, buf.String(), `"status":"failure"`)

	xerr := SetFormat("{{ .name ")
	require.IsType(t, &fail.ErrSyntax{}, xerr)
}

func TestFormatExecutionError(t *testing.T) {
	buf := captureOutput(t)

	require.Nil(t, SetFormat(`{{ index . 5 }}`))
	err := SuccessResponse([]int{1})
	require.NotNil(t, err)
	require.Equal(t, int(exitcode.InvalidOption), err.(urfcli.ExitCoder).ExitCode())
	require.Contains(t, buf.String(), `"status":"failure"`)
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want exitcode.Enum
	}{
		{nil, exitcode.OK},
		{fail.NotFoundError("x"), exitcode.NotFound},
		{fail.TimeoutError(nil, 0, "x"), exitcode.Timeout},
		{fail.DuplicateError("x"), exitcode.Duplicate},
		{fail.InvalidParameterError("x", "y"), exitcode.InvalidArgument},
		{fail.SyntaxError("x"), exitcode.InvalidArgument},
		{fail.InvalidRequestError("x"), exitcode.InvalidRequest},
		{fail.NotAuthenticatedError("x"), exitcode.NotAuthenticated},
		{fail.ForbiddenError("x"), exitcode.Forbidden},
		{fail.NotAvailableError("x"), exitcode.NotAvailable},
		{fail.OverloadError("x"), exitcode.NotAvailable},
		{fail.AbortedError(nil, "x"), exitcode.Interrupted},
		{fail.NotImplementedError("x"), exitcode.NotImplemented},
		{fail.ExecutionError(nil, "x"), exitcode.Run},
		{errors.New("x"), exitcode.Run},
		{context.Canceled, exitcode.Interrupted},
		{context.DeadlineExceeded, exitcode.Timeout},
	}
	for _, c := range cases {
		require.Equal(t, c.want, ExitCode(c.err), "%v", c.err)
	}
}

func TestExitOnFailure(t *testing.T) {
	require.Nil(t, ExitOnFailure(nil, "delete share"))

	exitCoder := ExitOnFailure(fail.NotFoundError("share 'x' not found"), "delete share")
	require.Equal(t, "Failed to delete share: share 'x' not found", exitCoder.Error())
	require.Equal(t, int(exitcode.NotFound), exitCoder.ExitCode())

	original := ExitOnInvalidOption("bad option")
	require.Equal(t, original, ExitOnFailure(original, "anything"))
}

func TestParameterToQuery(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"size >= 10", "(.size >= 10)"},
		{"size>2, status = available", `(.size > 2) and (.status == "available")`},
		{"status != in-use", `(.status != "in-use")`},
		{"is_public == true", "(.is_public == true)"},
		{`name = "my share"`, `(.name == "my share")`},
		{"size lt 5", "(.size < 5)"},
		{"size > -1", "(.size > -1)"},
		{`Name ~ "^data"`, `(.name // "" | tostring | test("^data"))`},
		{`name ~ "^a", size > 1`, `(.name // "" | tostring | test("^a")) and (.size > 1)`},
	}
	for _, c := range cases {
		got, xerr := ParameterToQuery(c.in)
		require.Nil(t, xerr, c.in)
		require.Equal(t, c.want, got, c.in)
	}
}

func TestParameterToQueryErrors(t *testing.T) {
	for _, in := range []string{
		"size >=",
		"size >= big",
		"size ? 3",
		", , size",
		"size = 1 2",
	} {
		_, xerr := ParameterToQuery(in)
		require.NotNil(t, xerr, in)
	}
}
