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
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/CS-SI/sharedfs/lib/backend/iaas/config"
	clitools "github.com/CS-SI/sharedfs/lib/utils/cli"
)

const configCmdLabel = "config"

// ConfigCmd config command
var ConfigCmd = cli.Command{
	Name:  "config",
	Usage: "config COMMAND",
	Subcommands: []cli.Command{
		configShow,
		configTimings,
	},
}

func findCloud(c *cli.Context) (*config.Cloud, error) {
	cloud, xerr := config.Find(rootContext(), c.GlobalString("config"), c.GlobalString("cloud"))
	if xerr != nil {
		return nil, clitools.FailureResponse(clitools.ExitOnFailure(xerr, "find cloud"))
	}
	return cloud, nil
}

var configShow = cli.Command{
	Name:  "show",
	Usage: "Show the effective configuration of the cloud, secrets excluded",
	Action: func(c *cli.Context) error {
		logrus.Tracef("sharedfs command: %s %s", configCmdLabel, c.Command.Name)

		cloud, err := findCloud(c)
		if err != nil {
			return err
		}
		cfg := cloud.Configuration()
		return clitools.SuccessResponse(map[string]interface{}{
			"name":             cloud.Name,
			"auth":             cloud.Auth,
			"sharedfilesystem": cfg.SharedFileSystem,
			"cache":            cfg.Cache,
			"breaker":          cfg.Breaker,
			"timings":          cfg.Timings,
		})
	},
}

var configTimings = cli.Command{
	Name:  "timings",
	Usage: "Show the effective timings of the cloud, in TOML",
	Action: func(c *cli.Context) error {
		logrus.Tracef("sharedfs command: %s %s", configCmdLabel, c.Command.Name)

		cloud, err := findCloud(c)
		if err != nil {
			return err
		}
		out, err := cloud.Configuration().Timings.ToToml()
		if err != nil {
			return clitools.FailureResponse(clitools.ExitOnFailure(err, "render timings"))
		}
		return clitools.SuccessResponse(out)
	},
}
