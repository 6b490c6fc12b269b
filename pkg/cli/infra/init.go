/* Copyright 2025 Dnote Authors
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

// Package infra provides operations and definitions for the
// local infrastructure of the notesync CLI
package infra

import (
	gocontext "context"
	"time"

	"github.com/notesync/notesync/pkg/cli/config"
	"github.com/notesync/notesync/pkg/cli/consts"
	"github.com/notesync/notesync/pkg/cli/context"
	"github.com/notesync/notesync/pkg/cli/log"
	"github.com/notesync/notesync/pkg/cli/ui"
	"github.com/notesync/notesync/pkg/cli/utils"
	"github.com/notesync/notesync/pkg/clock"
	"github.com/notesync/notesync/pkg/dirs"
	"github.com/notesync/notesync/pkg/notesync"
	"github.com/notesync/notesync/pkg/store/httpstore"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// stopTimeout bounds the last drain attempt made when the CLI exits
const stopTimeout = 10 * time.Second

// RunEFunc is a function type of notesync commands
type RunEFunc func(*cobra.Command, []string) error

// newBaseCtx creates a minimal context with paths only. It is enriched with
// config values by setupCtx.
func newBaseCtx(versionTag string) context.NotesyncCtx {
	return context.NotesyncCtx{
		Paths: context.Paths{
			Home:   dirs.Home,
			Config: dirs.Config(),
			Cache:  dirs.Cache(),
		},
		Version: versionTag,
	}
}

// Init initializes the notesync environment and returns a new context with a
// started service. apiEndpoint is used when creating a new config file.
// endpointOverride, if not empty, replaces the configured endpoint for this
// run only.
func Init(versionTag, apiEndpoint, endpointOverride string) (*context.NotesyncCtx, error) {
	ctx := newBaseCtx(versionTag)

	if err := initFiles(ctx, apiEndpoint); err != nil {
		return nil, errors.Wrap(err, "initializing files")
	}

	ctx, err := setupCtx(ctx, endpointOverride)
	if err != nil {
		return nil, errors.Wrap(err, "setting up the context")
	}

	if err := ctx.Service.Start(gocontext.Background()); err != nil {
		return nil, errors.Wrap(err, "starting the service")
	}

	log.Debug("context: %+v\n", context.Redact(ctx))

	return &ctx, nil
}

// setupCtx enriches the base context with values from the config file and
// builds the service against the configured store server
func setupCtx(ctx context.NotesyncCtx, endpointOverride string) (context.NotesyncCtx, error) {
	cf, err := config.Read(ctx)
	if err != nil {
		return ctx, errors.Wrap(err, "reading config")
	}
	if endpointOverride != "" {
		cf.APIEndpoint = endpointOverride
	}

	retryDelay, err := cf.GetRetryDelay()
	if err != nil {
		return ctx, errors.Wrap(err, "reading retry delay")
	}
	probeInterval, err := cf.GetProbeInterval()
	if err != nil {
		return ctx, errors.Wrap(err, "reading probe interval")
	}

	st, err := httpstore.New(httpstore.Params{
		Endpoint: cf.APIEndpoint,
		Version:  ctx.Version,
	})
	if err != nil {
		return ctx, errors.Wrapf(err, "connecting to %s", cf.APIEndpoint)
	}

	c := clock.New()
	svc, err := notesync.New(notesync.Params{
		Store:         st,
		Prober:        st,
		Clock:         c,
		RetryDelay:    retryDelay,
		ProbeInterval: probeInterval,
	})
	if err != nil {
		return ctx, errors.Wrap(err, "initializing the service")
	}

	ret := context.NotesyncCtx{
		Paths:       ctx.Paths,
		Version:     ctx.Version,
		APIEndpoint: cf.APIEndpoint,
		Editor:      cf.Editor,
		UserID:      cf.UserID,
		Email:       cf.Email,
		Clock:       c,
		Service:     svc,
	}

	return ret, nil
}

// Close stops the service of the context and returns the operations that
// could not be applied before exiting
func Close(ctx *context.NotesyncCtx) []notesync.PendingOperation {
	if ctx == nil || ctx.Service == nil {
		return nil
	}

	c, cancel := gocontext.WithTimeout(gocontext.Background(), stopTimeout)
	defer cancel()

	if err := ctx.Service.Stop(c); err != nil {
		log.Debug("stopping the service: %s\n", err.Error())
	}

	return ctx.Service.PendingOperations()
}

// initConfigFile populates a new config file if it does not exist yet
func initConfigFile(ctx context.NotesyncCtx, apiEndpoint string) error {
	path := config.GetPath(ctx)
	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if config exists")
	}
	if ok {
		return nil
	}

	endpoint := apiEndpoint
	if endpoint == "" {
		endpoint = consts.DefaultAPIEndpoint
	}

	cf := config.Config{
		Editor:      ui.GetEditorCommand(ctx),
		APIEndpoint: endpoint,
	}

	if err := config.Write(ctx, cf); err != nil {
		return errors.Wrap(err, "writing config")
	}

	return nil
}

// initFiles creates, if necessary, the notesync directories and files inside
func initFiles(ctx context.NotesyncCtx, apiEndpoint string) error {
	if err := dirs.Ensure(); err != nil {
		return errors.Wrap(err, "creating the notesync dirs")
	}
	if err := initConfigFile(ctx, apiEndpoint); err != nil {
		return errors.Wrap(err, "generating the config file")
	}

	return nil
}
