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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

// ReadSecret prints 'prompt' on stderr and reads a value from stdin, without echo when stdin is a terminal
func ReadSecret(prompt string) (string, fail.Error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine(os.Stdin)
	}

	_, _ = fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fail.Wrap(err, "failed to read secret")
	}
	return string(raw), nil
}

func readLine(in io.Reader) (string, fail.Error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fail.Wrap(err, "failed to read secret")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
