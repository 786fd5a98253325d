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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/CS-SI/sharedfs/cli/sharedfs/commands"
)

var (
	// VERSION is set at build time
	VERSION = "dev"
	// REV is the git revision, set at build time
	REV = "unknown"
	// BUILD_DATE is set at build time
	BUILD_DATE = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	commands.SetContext(ctx)

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logrus.SetOutput(os.Stderr)

	app := commands.NewApp(fmt.Sprintf("%s, build %s (%s)", VERSION, REV, BUILD_DATE))
	if err := app.Run(os.Args); err != nil {
		logrus.Debugf("command failed: %v", err)
		os.Exit(1)
	}
}
