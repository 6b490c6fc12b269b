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

package unshare

import (
	gocontext "context"

	"github.com/notesync/notesync/pkg/cli/context"
	"github.com/notesync/notesync/pkg/cli/infra"
	"github.com/notesync/notesync/pkg/cli/log"
	"github.com/notesync/notesync/pkg/models"
	"github.com/notesync/notesync/pkg/notesync"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  notesync unshare 3f2a9c1e bob@example.com`

// NewCmd returns a new unshare command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "unshare <note id> <email>",
		Short:   "Stop sharing a note with a user",
		Example: example,
		Args:    cobra.ExactArgs(2),
		RunE:    newRun(ctx),
	}

	return cmd
}

// Do revokes the access of the user registered with the email
func Do(c gocontext.Context, ctx context.NotesyncCtx, noteID, email string) (models.Note, error) {
	if err := infra.RequireLogin(ctx); err != nil {
		return models.Note{}, err
	}

	uid, err := ctx.Service.LookupUser(c, email)
	if err != nil {
		return models.Note{}, errors.Wrapf(err, "looking up %s", email)
	}
	if uid == "" {
		return models.Note{}, notesync.ErrRecipientNotFound
	}

	n, err := ctx.Service.UnshareNoteFromUser(c, noteID, uid, ctx.UserID)
	if err != nil {
		return models.Note{}, errors.Wrapf(err, "unsharing from %s", email)
	}

	return n, nil
}

func newRun(ctx context.NotesyncCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if err := infra.RequireLogin(ctx); err != nil {
			return err
		}

		noteID, err := infra.ResolveNoteID(cmd.Context(), ctx, args[0])
		if err != nil {
			return err
		}

		n, err := Do(cmd.Context(), ctx, noteID, args[1])
		if err != nil {
			return err
		}

		log.Successf("%s is no longer shared with %s\n", n.Title, models.NormalizeEmail(args[1]))

		return nil
	}
}
