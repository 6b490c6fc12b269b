/* Copyright (C) 2019, 2020, 2021, 2022, 2023, 2024, 2025 Dnote contributors
 *
 * This file is part of Dnote.
 *
 * Dnote is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * Dnote is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with Dnote.  If not, see <https://www.gnu.org/licenses/>.
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/notesync/notesync/pkg/cli/infra"
	"github.com/notesync/notesync/pkg/cli/log"
	"github.com/notesync/notesync/pkg/cli/output"
	"github.com/pkg/errors"

	// commands
	"github.com/notesync/notesync/pkg/cli/cmd/add"
	"github.com/notesync/notesync/pkg/cli/cmd/edit"
	"github.com/notesync/notesync/pkg/cli/cmd/fav"
	"github.com/notesync/notesync/pkg/cli/cmd/login"
	"github.com/notesync/notesync/pkg/cli/cmd/logout"
	"github.com/notesync/notesync/pkg/cli/cmd/ls"
	"github.com/notesync/notesync/pkg/cli/cmd/remove"
	"github.com/notesync/notesync/pkg/cli/cmd/root"
	"github.com/notesync/notesync/pkg/cli/cmd/share"
	"github.com/notesync/notesync/pkg/cli/cmd/status"
	"github.com/notesync/notesync/pkg/cli/cmd/unshare"
	"github.com/notesync/notesync/pkg/cli/cmd/version"
	"github.com/notesync/notesync/pkg/cli/cmd/view"
)

// apiEndpoint and versionTag are populated during link time
var apiEndpoint string
var versionTag = "master"

// parseAPIEndpoint extracts the --apiEndpoint flag value from command line
// arguments regardless of where it appears (before or after subcommand).
// Returns empty string if not found.
func parseAPIEndpoint(args []string) string {
	for i, arg := range args {
		if strings.HasPrefix(arg, "--apiEndpoint=") {
			return strings.TrimPrefix(arg, "--apiEndpoint=")
		}
		if arg == "--apiEndpoint" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func run() int {
	// The store is built before cobra parses the flags
	override := parseAPIEndpoint(os.Args[1:])

	ctx, err := infra.Init(versionTag, apiEndpoint, override)
	if err != nil {
		log.Errorf("%s\n", errors.Wrap(err, "initializing context").Error())
		return 1
	}

	root.Register(add.NewCmd(*ctx))
	root.Register(edit.NewCmd(*ctx))
	root.Register(remove.NewCmd(*ctx))
	root.Register(fav.NewCmd(*ctx))
	root.Register(share.NewCmd(*ctx))
	root.Register(unshare.NewCmd(*ctx))
	root.Register(ls.NewCmd(*ctx))
	root.Register(view.NewCmd(*ctx))
	root.Register(login.NewCmd(*ctx))
	root.Register(logout.NewCmd(*ctx))
	root.Register(status.NewCmd(*ctx))
	root.Register(version.NewCmd(*ctx))

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := 0
	if err := root.ExecuteContext(sigCtx); err != nil {
		log.Errorf("%s\n", err.Error())
		code = 1
	}

	if pending := infra.Close(ctx); len(pending) > 0 {
		log.Warnf("%d operation(s) could not be delivered to %s and were discarded\n", len(pending), ctx.APIEndpoint)
		output.PendingOperations(color.Output, pending)
		if code == 0 {
			code = 2
		}
	}

	return code
}

func main() {
	os.Exit(run())
}
