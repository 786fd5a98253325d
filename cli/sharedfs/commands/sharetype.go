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
	"context"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/CS-SI/sharedfs/lib/backend/iaas"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/filters"
	"github.com/CS-SI/sharedfs/lib/backend/resources/abstract"
	clitools "github.com/CS-SI/sharedfs/lib/utils/cli"
)

const typeCmdLabel = "type"

// ShareTypeCmd type command
var ShareTypeCmd = cli.Command{
	Name:    "type",
	Aliases: []string{"share-type"},
	Usage:   "type COMMAND",
	Subcommands: []cli.Command{
		typeList,
		typeInspect,
		typeCreate,
		typeDelete,
	},
}

var typeList = cli.Command{
	Name:    "list",
	Aliases: []string{"ls"},
	Usage:   "List share types, public or not",
	Flags: append([]cli.Flag{
		cli.StringFlag{
			Name:  "name, n",
			Usage: "Keep the share types whose name or ID matches `PATTERN` (glob patterns accepted)",
		},
	}, filterFlags...),
	Action: func(c *cli.Context) error {
		logrus.Tracef("sharedfs command: %s %s with args '%s'", typeCmdLabel, c.Command.Name, c.Args())

		f, err := extractFilter(c)
		if err != nil {
			return clitools.FailureResponse(err)
		}

		svc, ctx, done, err := prepare(c)
		if err != nil {
			return err
		}
		defer done()

		types, xerr := svc.Cloud().SearchShareTypes(ctx, filters.ByNameOrID(c.String("name")), f)
		if xerr != nil {
			return clitools.FailureResponse(clitools.ExitOnFailure(xerr, "list share types"))
		}
		return clitools.SuccessResponse(types)
	},
}

func inspectShareType(ctx context.Context, svc iaas.Service, ref string) (*abstract.ShareType, error) {
	st, xerr := svc.Cloud().GetShareType(ctx, filters.ByNameOrID(ref), filters.None())
	if xerr != nil {
		return nil, clitools.ExitOnFailure(xerr, "inspect share type")
	}
	if st == nil {
		return nil, clitools.ExitOnFailure(abstract.ResourceNotFoundError(abstract.ShareTypeKind, ref), "")
	}
	return st, nil
}

var typeInspect = cli.Command{
	Name:      "inspect",
	Aliases:   []string{"show"},
	Usage:     "Show the details of a share type",
	ArgsUsage: "<Type_name|Type_ID>",
	Action: func(c *cli.Context) error {
		logrus.Tracef("sharedfs command: %s %s with args '%s'", typeCmdLabel, c.Command.Name, c.Args())

		ref, err := extractArgument(c, 0, "<Type_name|Type_ID>")
		if err != nil {
			return err
		}

		svc, ctx, done, err := prepare(c)
		if err != nil {
			return err
		}
		defer done()

		st, err := inspectShareType(ctx, svc, ref)
		if err != nil {
			return clitools.FailureResponse(err)
		}
		return clitools.SuccessResponse(st)
	},
}

var typeCreate = cli.Command{
	Name:      "create",
	Aliases:   []string{"new"},
	Usage:     "Create a share type",
	ArgsUsage: "<Type_name>",
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:  "driver-handles-share-servers, dhss",
			Usage: "The back end driver manages the share servers",
		},
		cli.StringSliceFlag{
			Name:  "spec",
			Usage: "Extra spec of the share type (KEY=VALUE); may be repeated",
		},
		cli.BoolFlag{
			Name:  "private",
			Usage: "Makes the share type visible to its project only",
		},
	},
	Action: func(c *cli.Context) error {
		logrus.Tracef("sharedfs command: %s %s with args '%s'", typeCmdLabel, c.Command.Name, c.Args())

		name, err := extractArgument(c, 0, "<Type_name>")
		if err != nil {
			return err
		}
		specs, err := parseKeyValues(c.StringSlice("spec"))
		if err != nil {
			return clitools.FailureResponse(err)
		}

		req := abstract.ShareTypeRequest{
			Name:       name,
			ExtraSpecs: map[string]interface{}{},
			IsPublic:   !c.Bool("private"),
		}
		for k, v := range specs {
			req.ExtraSpecs[k] = v
		}
		if _, ok := req.ExtraSpecs[abstract.DriverHandlesShareServers]; !ok || c.IsSet("driver-handles-share-servers") {
			req.ExtraSpecs[abstract.DriverHandlesShareServers] = boolString(c.Bool("driver-handles-share-servers"))
		}

		svc, ctx, done, err := prepare(c)
		if err != nil {
			return err
		}
		defer done()

		st, xerr := svc.Proxy().CreateType(ctx, req)
		svc.Cloud().InvalidateShareTypes(ctx)
		if xerr != nil {
			return clitools.FailureResponse(clitools.ExitOnFailure(xerr, "create share type"))
		}
		return clitools.SuccessResponse(st)
	},
}

var typeDelete = cli.Command{
	Name:      "delete",
	Aliases:   []string{"rm", "remove"},
	Usage:     "Delete a share type",
	ArgsUsage: "<Type_name|Type_ID>",
	Action: func(c *cli.Context) error {
		logrus.Tracef("sharedfs command: %s %s with args '%s'", typeCmdLabel, c.Command.Name, c.Args())

		ref, err := extractArgument(c, 0, "<Type_name|Type_ID>")
		if err != nil {
			return err
		}

		svc, ctx, done, err := prepare(c)
		if err != nil {
			return err
		}
		defer done()

		st, err := inspectShareType(ctx, svc, ref)
		if err != nil {
			return clitools.FailureResponse(err)
		}
		xerr := svc.Proxy().DeleteType(ctx, st.ID, false)
		svc.Cloud().InvalidateShareTypes(ctx)
		if xerr != nil {
			return clitools.FailureResponse(clitools.ExitOnFailure(xerr, "delete share type"))
		}
		return clitools.SuccessResponse(nil)
	},
}

func boolString(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
