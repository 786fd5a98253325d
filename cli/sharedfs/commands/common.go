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
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/term"

	"github.com/CS-SI/sharedfs/lib/backend/iaas"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/config"
	"github.com/CS-SI/sharedfs/lib/backend/iaas/filters"
	clitools "github.com/CS-SI/sharedfs/lib/utils/cli"
	"github.com/CS-SI/sharedfs/lib/utils/debug"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

var (
	// Verbose tells if user asks more verbosity
	Verbose bool
	// Debug tells if user asks debug information
	Debug bool

	rootLock sync.Mutex
	rootCtx  = context.Background()

	// serviceFactory builds the Service used by the commands
	serviceFactory = defaultServiceFactory
)

// SetContext sets the context the commands derive theirs from; it is canceled on interruption
func SetContext(ctx context.Context) {
	rootLock.Lock()
	defer rootLock.Unlock()
	rootCtx = ctx
}

func rootContext() context.Context {
	rootLock.Lock()
	defer rootLock.Unlock()
	return rootCtx
}

// defaultServiceFactory uses the cloud selected by --cloud and --config, asking for the password when none is known
// and stdin is a terminal
func defaultServiceFactory(ctx context.Context, c *cli.Context) (iaas.Service, fail.Error) {
	path, name := c.GlobalString("config"), c.GlobalString("cloud")

	cloud, xerr := config.Find(ctx, path, name)
	if xerr != nil {
		return nil, xerr
	}
	auth := cloud.Auth
	if auth.Password != "" || auth.TokenID != "" || auth.ApplicationCredentialSecret != "" || !term.IsTerminal(int(os.Stdin.Fd())) {
		return iaas.UseService(ctx, path, name)
	}

	password, xerr := clitools.ReadSecret(fmt.Sprintf("Password of %s on cloud '%s': ", auth.Username, cloud.Name))
	if xerr != nil {
		return nil, xerr
	}
	cloud.Auth.Password = password
	return iaas.NewService(ctx, *cloud)
}

// prepare returns the Service and a context bounded by the command timeout; the returned function releases them
// and writes the metrics file if asked
func prepare(c *cli.Context) (iaas.Service, context.Context, func(), error) {
	base := debug.WithRequestID(rootContext())
	ctx, cancel := context.WithCancel(base)

	svc, xerr := serviceFactory(ctx, c)
	if xerr != nil {
		cancel()
		return nil, nil, nil, clitools.FailureResponse(clitools.ExitOnFailure(xerr, "use cloud"))
	}

	if timeout := svc.Timings().ContextTimeout(); timeout > 0 {
		cancel()
		ctx, cancel = context.WithTimeout(base, timeout)
	}

	done := func() {
		cancel()
		if file := c.GlobalString("metrics"); file != "" {
			if xerr := svc.Metrics().WriteToTextfile(file); xerr != nil {
				logrus.Warnf("failed to write metrics: %v", xerr)
			}
		}
	}
	return svc, ctx, done, nil
}

// extractArgument returns the argument at position 'pos', failing with a message naming 'what' when it is missing
func extractArgument(c *cli.Context, pos int, what string) (string, error) {
	value := strings.TrimSpace(c.Args().Get(pos))
	if value == "" {
		_ = cli.ShowSubcommandHelp(c)
		return "", clitools.FailureResponse(clitools.ExitOnInvalidArgument(fmt.Sprintf("Missing mandatory argument %s", what)))
	}
	return value, nil
}

// filterFlags are the flags selecting items in listings
var filterFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "where, w",
		Usage: "Keep the items satisfying every condition (e.g. 'size >= 10, status = available')",
	},
	cli.StringFlag{
		Name:  "query, q",
		Usage: "Keep the items for which the jq expression yields true (e.g. '.size > 1')",
	},
	cli.StringFlag{
		Name:  "jmespath",
		Usage: "Keep the items selected by the JMESPath expression applied to the list (e.g. \"[?status=='available']\")",
	},
	cli.StringSliceFlag{
		Name:  "attribute, a",
		Usage: "Keep the items having the attribute (KEY=VALUE); may be repeated",
	},
}

// extractFilter builds the filter described by the filter flags; at most one kind of filter may be given
func extractFilter(c *cli.Context) (filters.Filter, error) {
	set := 0
	for _, name := range []string{"where", "query", "jmespath", "attribute"} {
		if c.IsSet(name) {
			set++
		}
	}
	if set > 1 {
		return filters.None(), clitools.ExitOnInvalidOption("--where, --query, --jmespath and --attribute are mutually exclusive")
	}

	var (
		f    filters.Filter
		xerr fail.Error
	)
	switch {
	case c.IsSet("where"):
		var query string
		query, xerr = clitools.ParameterToQuery(c.String("where"))
		if xerr != nil {
			return filters.None(), clitools.ExitOnInvalidOption(xerr.Error())
		}
		if query == "" {
			return filters.None(), nil
		}
		f, xerr = filters.Query(query)
	case c.IsSet("query"):
		f, xerr = filters.Query(c.String("query"))
	case c.IsSet("jmespath"):
		f, xerr = filters.JMESPath(c.String("jmespath"))
	case c.IsSet("attribute"):
		attrs, err := parseKeyValues(c.StringSlice("attribute"))
		if err != nil {
			return filters.None(), err
		}
		values := make(map[string]interface{}, len(attrs))
		for k, v := range attrs {
			values[k] = v
		}
		f, xerr = filters.Attributes(values)
	default:
		return filters.None(), nil
	}
	if xerr != nil {
		return filters.None(), clitools.ExitOnInvalidOption(xerr.Error())
	}
	return f, nil
}

// parseKeyValues converts a list of KEY=VALUE to a map
func parseKeyValues(list []string) (map[string]string, error) {
	out := make(map[string]string, len(list))
	for _, v := range list {
		parts := strings.SplitN(v, "=", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, clitools.ExitOnInvalidOption(fmt.Sprintf("invalid KEY=VALUE '%s'", v))
		}
		out[strings.TrimSpace(parts[0])] = parts[1]
	}
	return out, nil
}

// operationTimeout returns the value of --timeout, or the operation timeout of the cloud
func operationTimeout(c *cli.Context, svc iaas.Service) time.Duration {
	if c.IsSet("timeout") {
		return c.Duration("timeout")
	}
	return svc.Timings().OperationTimeout()
}
