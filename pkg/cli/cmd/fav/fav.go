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

package fav

import (
	gocontext "context"

	"github.com/notesync/notesync/pkg/cli/context"
	"github.com/notesync/notesync/pkg/cli/infra"
	"github.com/notesync/notesync/pkg/cli/log"
	"github.com/notesync/notesync/pkg/models"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  notesync fav 3f2a9c1e`

// NewCmd returns a new fav command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fav <note id>",
		Short:   "Toggle the favorite mark of a note",
		Aliases: []string{"star"},
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE:    newRun(ctx),
	}

	return cmd
}

// Do toggles the favorite mark of the note
func Do(c gocontext.Context, ctx context.NotesyncCtx, noteID string) (models.Note, error) {
	if err := infra.RequireLogin(ctx); err != nil {
		return models.Note{}, err
	}

	n, err := ctx.Service.ToggleFavorite(c, noteID, ctx.UserID)
	if err != nil {
		return models.Note{}, errors.Wrap(err, "toggling favorite")
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

		n, err := Do(cmd.Context(), ctx, noteID)
		if err != nil {
			return err
		}

		if n.IsFavorite {
			log.Successf("added %s to favorites\n", n.Title)
		} else {
			log.Successf("removed %s from favorites\n", n.Title)
		}

		return nil
	}
}
