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
	"fmt"
	"strconv"
	"strings"

	"github.com/antihax/optional"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/CS-SI/sharedfs/lib/backend/iaas"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/filters"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/resource"
	"github.com/CS-SI/sharedfs/lib/backend/resources/abstract"
	clitools "github.com/CS-SI/sharedfs/lib/utils/cli"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
	"github.com/CS-SI/sharedfs/lib/utils/temporal"
)

const shareCmdLabel = "share"

var timeoutFlag = cli.DurationFlag{
	Name:  "timeout",
	Usage: "Maximum duration of the wait (0 waits forever); defaults to the operation timeout of the cloud",
}

// ShareCmd share command
var ShareCmd = cli.Command{
	Name:    "share",
	Aliases: []string{"nas"},
	Usage:   "share COMMAND",
	Subcommands: []cli.Command{
		shareList,
		shareInspect,
		shareCreate,
		shareUpdate,
		shareDelete,
		shareExtend,
		shareShrink,
		shareWait,
	},
}

var shareList = cli.Command{
	Name:    "list",
	Aliases: []string{"ls"},
	Usage:   "List shares",
	Flags: append([]cli.Flag{
		cli.StringFlag{
			Name:  "name, n",
			Usage: "Keep the shares whose name or ID matches `PATTERN` (glob patterns accepted)",
		},
		cli.BoolFlag{
			Name:  "refresh",
			Usage: "Ignore the cached listing",
		},
	}, filterFlags...),
	Action: func(c *cli.Context) error {
		logrus.Tracef("sharedfs command: %s %s with args '%s'", shareCmdLabel, c.Command.Name, c.Args())

		f, err := extractFilter(c)
		if err != nil {
			return clitools.FailureResponse(err)
		}

		svc, ctx, done, err := prepare(c)
		if err != nil {
			return err
		}
		defer done()

		if c.Bool("refresh") {
			svc.Cloud().InvalidateShares(ctx)
		}
		shares, xerr := svc.Cloud().SearchShares(ctx, filters.ByNameOrID(c.String("name")), f)
		if xerr != nil {
			return clitools.FailureResponse(clitools.ExitOnFailure(xerr, "list shares"))
		}
		return clitools.SuccessResponse(shares)
	},
}

// inspectShare returns the share designated by 'ref', failing when there is none
func inspectShare(ctx context.Context, svc iaas.Service, ref string) (*abstract.Share, error) {
	share, xerr := svc.Cloud().GetShare(ctx, filters.ByNameOrID(ref), filters.None())
	if xerr != nil {
		return nil, clitools.ExitOnFailure(xerr, "inspect share")
	}
	if share == nil {
		return nil, clitools.ExitOnFailure(abstract.ResourceNotFoundError(abstract.ShareKind, ref), "")
	}
	return share, nil
}

var shareInspect = cli.Command{
	Name:      "inspect",
	Aliases:   []string{"show"},
	Usage:     "Show the details of a share",
	ArgsUsage: "<Share_name|Share_ID>",
	Action: func(c *cli.Context) error {
		logrus.Tracef("sharedfs command: %s %s with args '%s'", shareCmdLabel, c.Command.Name, c.Args())

		ref, err := extractArgument(c, 0, "<Share_name|Share_ID>")
		if err != nil {
			return err
		}

		svc, ctx, done, err := prepare(c)
		if err != nil {
			return err
		}
		defer done()

		share, err := inspectShare(ctx, svc, ref)
		if err != nil {
			return clitools.FailureResponse(err)
		}
		return clitools.SuccessResponse(share)
	},
}

var shareCreate = cli.Command{
	Name:      "create",
	Aliases:   []string{"new"},
	Usage:     "Create a share",
	ArgsUsage: "<Share_name>",
	Flags: []cli.Flag{
		cli.IntFlag{
			Name:  "size, s",
			Usage: "Size of the share in GB",
		},
		cli.StringFlag{
			Name:  "protocol, proto",
			Value: "NFS",
			Usage: "Protocol of the share (NFS, CIFS, GLUSTERFS, HDFS, CEPHFS, MAPRFS)",
		},
		cli.StringFlag{
			Name:  "description",
			Usage: "Description of the share",
		},
		cli.StringFlag{
			Name:  "type",
			Usage: "Share type of the share",
		},
		cli.StringFlag{
			Name:  "availability-zone, az",
			Usage: "Availability zone of the share",
		},
		cli.StringFlag{
			Name:  "snapshot",
			Usage: "ID of the snapshot to create the share from",
		},
		cli.StringSliceFlag{
			Name:  "metadata, m",
			Usage: "Metadata of the share (KEY=VALUE); may be repeated",
		},
		cli.BoolFlag{
			Name:  "public",
			Usage: "Makes the share visible to all projects",
		},
		cli.BoolFlag{
			Name:  "wait",
			Usage: "Wait until the share is available",
		},
		timeoutFlag,
	},
	Action: func(c *cli.Context) error {
		logrus.Tracef("sharedfs command: %s %s with args '%s'", shareCmdLabel, c.Command.Name, c.Args())

		name, err := extractArgument(c, 0, "<Share_name>")
		if err != nil {
			return err
		}
		metadata, err := parseKeyValues(c.StringSlice("metadata"))
		if err != nil {
			return clitools.FailureResponse(err)
		}

		req := abstract.ShareRequest{
			Name:             name,
			ShareProto:       c.String("protocol"),
			Size:             c.Int("size"),
			Description:      c.String("description"),
			ShareType:        c.String("type"),
			AvailabilityZone: c.String("availability-zone"),
			SnapshotID:       c.String("snapshot"),
		}
		if len(metadata) > 0 {
			req.Metadata = metadata
		}
		if c.IsSet("public") {
			public := c.Bool("public")
			req.IsPublic = &public
		}
		if xerr := req.Validate(); xerr != nil {
			return clitools.FailureResponse(clitools.ExitOnInvalidOption(xerr.Error()))
		}

		svc, ctx, done, err := prepare(c)
		if err != nil {
			return err
		}
		defer done()

		wait := c.Bool("wait")
		if wait {
			defer clitools.InteractiveFeedback(fmt.Sprintf("Creating share '%s'", name))()
		}
		share, xerr := svc.Cloud().CreateShare(ctx, req, wait, operationTimeout(c, svc))
		if xerr != nil {
			return clitools.FailureResponse(clitools.ExitOnFailure(xerr, "create share"))
		}
		return clitools.SuccessResponse(share)
	},
}

var shareUpdate = cli.Command{
	Name:      "update",
	Usage:     "Change the name, the description or the visibility of a share",
	ArgsUsage: "<Share_name|Share_ID>",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "name",
			Usage: "New name of the share",
		},
		cli.StringFlag{
			Name:  "description",
			Usage: "New description of the share",
		},
		cli.BoolFlag{
			Name:  "public",
			Usage: "Makes the share visible to all projects",
		},
		cli.BoolFlag{
			Name:  "private",
			Usage: "Makes the share visible to its project only",
		},
	},
	Action: func(c *cli.Context) error {
		logrus.Tracef("sharedfs command: %s %s with args '%s'", shareCmdLabel, c.Command.Name, c.Args())

		ref, err := extractArgument(c, 0, "<Share_name|Share_ID>")
		if err != nil {
			return err
		}
		if c.Bool("public") && c.Bool("private") {
			return clitools.FailureResponse(clitools.ExitOnInvalidOption("--public and --private are mutually exclusive"))
		}

		var update abstract.ShareUpdate
		if c.IsSet("name") {
			update.DisplayName = optional.NewString(c.String("name"))
		}
		if c.IsSet("description") {
			update.DisplayDescription = optional.NewString(c.String("description"))
		}
		switch {
		case c.Bool("public"):
			update.IsPublic = optional.NewBool(true)
		case c.Bool("private"):
			update.IsPublic = optional.NewBool(false)
		}
		if update.IsEmpty() {
			return clitools.FailureResponse(clitools.ExitOnInvalidOption("nothing to update, use --name, --description, --public or --private"))
		}

		svc, ctx, done, err := prepare(c)
		if err != nil {
			return err
		}
		defer done()

		share, xerr := svc.Cloud().UpdateShare(ctx, filters.ByNameOrID(ref), update)
		if xerr != nil {
			return clitools.FailureResponse(clitools.ExitOnFailure(xerr, "update share"))
		}
		return clitools.SuccessResponse(share)
	},
}

// deletionResult is the result of share delete
type deletionResult struct {
	Deleted []string `json:"deleted"`
	Missing []string `json:"missing,omitempty"`
}

var shareDelete = cli.Command{
	Name:      "delete",
	Aliases:   []string{"rm", "remove"},
	Usage:     "Delete shares",
	ArgsUsage: "<Share_name|Share_ID> [<Share_name|Share_ID>...]",
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:  "force, f",
			Usage: "Delete the share whatever its status",
		},
		cli.BoolFlag{
			Name:  "wait",
			Usage: "Wait until the share is gone",
		},
		timeoutFlag,
	},
	Action: func(c *cli.Context) error {
		logrus.Tracef("sharedfs command: %s %s with args '%s'", shareCmdLabel, c.Command.Name, c.Args())

		if _, err := extractArgument(c, 0, "<Share_name|Share_ID>"); err != nil {
			return err
		}

		svc, ctx, done, err := prepare(c)
		if err != nil {
			return err
		}
		defer done()

		wait := c.Bool("wait")
		if wait {
			defer clitools.InteractiveFeedback("Deleting shares")()
		}

		result := deletionResult{Deleted: []string{}}
		for _, ref := range c.Args() {
			deleted, xerr := svc.Cloud().DeleteShare(ctx, filters.ByNameOrID(ref), wait, operationTimeout(c, svc), c.Bool("force"))
			if xerr != nil {
				return clitools.FailureResponse(clitools.ExitOnFailure(xerr, fmt.Sprintf("delete share '%s'", ref)))
			}
			if deleted {
				result.Deleted = append(result.Deleted, ref)
			} else {
				result.Missing = append(result.Missing, ref)
			}
		}
		return clitools.SuccessResponse(result)
	},
}

var shareExtend = cli.Command{
	Name:      "extend",
	Usage:     "Grow a share",
	ArgsUsage: "<Share_name|Share_ID> <New_size>",
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:  "wait",
			Usage: "Wait until the share is available with its new size",
		},
		timeoutFlag,
	},
	Action: func(c *cli.Context) error {
		return resizeShare(c, "extend")
	},
}

var shareShrink = cli.Command{
	Name:      "shrink",
	Usage:     "Reduce a share",
	ArgsUsage: "<Share_name|Share_ID> <New_size>",
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:  "wait",
			Usage: "Wait until the share is available with its new size",
		},
		timeoutFlag,
	},
	Action: func(c *cli.Context) error {
		return resizeShare(c, "shrink")
	},
}

func resizeShare(c *cli.Context, action string) error {
	logrus.Tracef("sharedfs command: %s %s with args '%s'", shareCmdLabel, c.Command.Name, c.Args())

	ref, err := extractArgument(c, 0, "<Share_name|Share_ID>")
	if err != nil {
		return err
	}
	rawSize, err := extractArgument(c, 1, "<New_size>")
	if err != nil {
		return err
	}
	size, convErr := strconv.Atoi(rawSize)
	if convErr != nil || size < 1 {
		return clitools.FailureResponse(clitools.ExitOnInvalidArgument(fmt.Sprintf("invalid size '%s'", rawSize)))
	}

	svc, ctx, done, err := prepare(c)
	if err != nil {
		return err
	}
	defer done()

	share, err := inspectShare(ctx, svc, ref)
	if err != nil {
		return clitools.FailureResponse(err)
	}

	proxy := svc.Proxy()
	var xerr fail.Error
	switch action {
	case "extend":
		xerr = proxy.ExtendShare(ctx, share.ID, size)
	default:
		xerr = proxy.ShrinkShare(ctx, share.ID, size)
	}
	svc.Cloud().InvalidateShares(ctx)
	if xerr != nil {
		return clitools.FailureResponse(clitools.ExitOnFailure(xerr, action+" share"))
	}

	if c.Bool("wait") {
		defer clitools.InteractiveFeedback(fmt.Sprintf("Waiting for share '%s'", ref))()
		share, xerr = proxy.WaitForSize(ctx, share, size, waitOptions(c, svc))
		svc.Cloud().InvalidateShares(ctx)
	} else {
		share, xerr = proxy.GetShare(ctx, share.ID)
	}
	if xerr != nil {
		return clitools.FailureResponse(clitools.ExitOnFailure(xerr, action+" share"))
	}
	return clitools.SuccessResponse(share)
}

// waitOptions returns the wait options described by the flags of the command
func waitOptions(c *cli.Context, svc iaas.Service) resource.WaitOptions {
	timeout := operationTimeout(c, svc)
	if timeout <= 0 {
		timeout = resource.Unbounded
	}
	return resource.WaitOptions{
		Interval: svc.Timings().NormalDelay(),
		Wait:     timeout,
	}
}

var shareWait = cli.Command{
	Name:      "wait",
	Usage:     "Wait for a share to reach a status, or to disappear",
	ArgsUsage: "<Share_name|Share_ID>",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "status",
			Value: "available",
			Usage: "Status to wait for",
		},
		cli.StringSliceFlag{
			Name:  "failure",
			Usage: "Status ending the wait in error; may be repeated (defaults to 'error')",
		},
		cli.BoolFlag{
			Name:  "deleted",
			Usage: "Wait for the share to disappear",
		},
		timeoutFlag,
	},
	Action: func(c *cli.Context) error {
		logrus.Tracef("sharedfs command: %s %s with args '%s'", shareCmdLabel, c.Command.Name, c.Args())

		ref, err := extractArgument(c, 0, "<Share_name|Share_ID>")
		if err != nil {
			return err
		}

		svc, ctx, done, err := prepare(c)
		if err != nil {
			return err
		}
		defer done()

		share, err := inspectShare(ctx, svc, ref)
		if err != nil {
			return clitools.FailureResponse(err)
		}

		opts := waitOptions(c, svc)
		if failures := c.StringSlice("failure"); len(failures) > 0 {
			opts.Failures = failures
		}

		sw := temporal.StartStopwatch()
		defer clitools.InteractiveFeedback(fmt.Sprintf("Waiting for share '%s'", ref))()
		if c.Bool("deleted") {
			xerr := svc.Proxy().WaitForDelete(ctx, share, opts)
			svc.Cloud().InvalidateShares(ctx)
			if xerr != nil {
				return clitools.FailureResponse(clitools.ExitOnFailure(xerr, "wait for share"))
			}
			return clitools.SuccessResponse(map[string]interface{}{"id": share.ID, "deleted": true, "elapsed": sw.String()})
		}

		share, xerr := svc.Proxy().WaitForStatus(ctx, share, strings.TrimSpace(c.String("status")), opts)
		svc.Cloud().InvalidateShares(ctx)
		if xerr != nil {
			return clitools.FailureResponse(clitools.ExitOnFailure(xerr, "wait for share"))
		}
		return clitools.SuccessResponse(share)
	},
}
