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

package commands

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	clitools "github.com/CS-SI/sharedfs/lib/utils/cli"
	"github.com/CS-SI/sharedfs/lib/utils/debug/tracing"
)

// NewApp returns the sharedfs command line application
func NewApp(version string) *cli.App {
	app := cli.NewApp()
	app.Writer = os.Stderr
	app.Name = "sharedfs"
	app.Usage = "sharedfs COMMAND"
	app.Version = version
	app.Authors = []cli.Author{
		{
			Name:  "CS-SI",
			Email: "safescale@csgroup.eu",
		},
	}
	app.EnableBashCompletion = true

	// -v belongs to --verbose
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version, V",
		Usage: "Print program version",
	}

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "Increase verbosity",
		},
		cli.BoolFlag{
			Name:  "debug, d",
			Usage: "Show debug information",
		},
		cli.StringFlag{
			Name:   "cloud, c",
			Usage:  "Use the cloud `NAME` of the configuration file (\"env\" uses OS_* environment variables)",
			EnvVar: "SHAREDFS_CLOUD",
		},
		cli.StringFlag{
			Name:   "config",
			Usage:  "Read the clouds from `FILE`",
			EnvVar: "SHAREDFS_CONFIG",
		},
		cli.StringFlag{
			Name:  "format",
			Usage: "Display results with the Go `TEMPLATE` (sprig functions available) instead of JSON",
		},
		cli.StringFlag{
			Name:  "metrics",
			Usage: "Write the metrics of the command in Prometheus text format to `FILE`",
		},
	}

	app.Before = func(c *cli.Context) error {
		logrus.SetLevel(logrus.WarnLevel)
		if c.GlobalBool("verbose") {
			logrus.SetLevel(logrus.InfoLevel)
			Verbose = true
		}
		if c.GlobalBool("debug") {
			logrus.SetLevel(logrus.DebugLevel)
			Debug = true
		}
		if settings := os.Getenv("SHAREDFS_TRACE_SETTINGS"); settings != "" || os.Getenv("SHAREDFS_TRACE") != "" {
			if xerr := tracing.RegisterTraceSettings(settings); xerr != nil {
				logrus.Warnf("ignoring trace settings: %v", xerr)
			}
		}
		if xerr := clitools.SetFormat(c.GlobalString("format")); xerr != nil {
			return clitools.FailureResponse(clitools.ExitOnInvalidOption(xerr.Error()))
		}
		return nil
	}

	app.Commands = append(app.Commands, ShareCmd, ShareTypeCmd, ConfigCmd)
	return app
}
