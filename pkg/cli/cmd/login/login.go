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

package login

import (
	gocontext "context"
	"strings"

	"github.com/notesync/notesync/pkg/cli/config"
	"github.com/notesync/notesync/pkg/cli/context"
	"github.com/notesync/notesync/pkg/cli/infra"
	"github.com/notesync/notesync/pkg/cli/log"
	"github.com/notesync/notesync/pkg/cli/ui"
	"github.com/notesync/notesync/pkg/helpers"
	"github.com/notesync/notesync/pkg/models"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ErrEmailInvalid is an error for an email that cannot identify a user
var ErrEmailInvalid = errors.New("invalid email")

var example = `
  notesync login alice@example.com`

// NewCmd returns a new login command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "login [email]",
		Short:   "Set the identity used to own and share notes",
		Example: example,
		Args:    cobra.MaximumNArgs(1),
		RunE:    newRun(ctx),
	}

	return cmd
}

// Result is the outcome of a login
type Result struct {
	UID   string
	Email string
	// Created is true if the identity was registered by this login
	Created bool
}

// Do resolves the identity registered with the email, registering a new one
// if there is none, and saves it in the config file
func Do(c gocontext.Context, ctx context.NotesyncCtx, email string) (Result, error) {
	email = models.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return Result{}, ErrEmailInvalid
	}

	uid, err := ctx.Service.LookupUser(c, email)
	if err != nil {
		return Result{}, errors.Wrap(err, "looking up the user")
	}

	var created bool
	if uid == "" {
		uid, err = helpers.GenUUID()
		if err != nil {
			return Result{}, errors.Wrap(err, "generating user id")
		}

		created, err = ctx.Service.SaveUserProfile(c, models.UserEntry{UID: uid, Email: email})
		if err != nil {
			return Result{}, errors.Wrap(err, "registering the user")
		}
	}

	cf, err := config.Read(ctx)
	if err != nil {
		return Result{}, errors.Wrap(err, "reading config")
	}
	cf.UserID = uid
	cf.Email = email
	if err := config.Write(ctx, cf); err != nil {
		return Result{}, errors.Wrap(err, "writing config")
	}

	return Result{UID: uid, Email: email, Created: created}, nil
}

func newRun(ctx context.NotesyncCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		var email string
		if len(args) > 0 {
			email = args[0]
		} else if err := ui.PromptInput("email", &email); err != nil {
			return errors.Wrap(err, "getting email input")
		}

		res, err := Do(cmd.Context(), ctx, email)
		if err != nil {
			return err
		}

		if res.Created {
			log.Successf("registered and logged in as %s\n", res.Email)
		} else {
			log.Successf("logged in as %s\n", res.Email)
		}

		return nil
	}
}
