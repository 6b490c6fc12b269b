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

package remove

import (
	gocontext "context"
	"fmt"

	"github.com/notesync/notesync/pkg/cli/context"
	"github.com/notesync/notesync/pkg/cli/infra"
	"github.com/notesync/notesync/pkg/cli/log"
	"github.com/notesync/notesync/pkg/cli/output"
	"github.com/notesync/notesync/pkg/cli/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var yesFlag bool

var example = `
  * Delete a note by its id
  notesync delete 3f2a9c1e

  * Delete without a confirmation prompt
  notesync delete 3f2a9c1e --yes
`

// NewCmd returns a new remove command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <note id>",
		Short:   "Remove a note",
		Aliases: []string{"rm", "d", "delete"},
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&yesFlag, "yes", "y", false, "remove without confirmation")

	return cmd
}

// Do removes the note
func Do(c gocontext.Context, ctx context.NotesyncCtx, noteID string) error {
	if err := infra.RequireLogin(ctx); err != nil {
		return err
	}

	if err := ctx.Service.DeleteNote(c, noteID, ctx.UserID); err != nil {
		return errors.Wrap(err, "removing the note")
	}

	return nil
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

		if !yesFlag {
			n, err := ctx.Service.GetNote(cmd.Context(), noteID)
			if err != nil {
				return errors.Wrap(err, "getting the note")
			}
			output.NoteInfo(n)

			ok, err := ui.Confirm("remove this note?", false)
			if err != nil {
				return errors.Wrap(err, "getting confirmation")
			}
			if !ok {
				log.Warnf("aborted by user\n")
				return nil
			}
		}

		if err := Do(cmd.Context(), ctx, noteID); err != nil {
			return err
		}

		log.Success(fmt.Sprintf("removed %s\n", noteID))

		return nil
	}
}
