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

package edit

import (
	gocontext "context"

	"github.com/fatih/color"
	"github.com/notesync/notesync/pkg/cli/cmd/add"
	"github.com/notesync/notesync/pkg/cli/context"
	"github.com/notesync/notesync/pkg/cli/infra"
	"github.com/notesync/notesync/pkg/cli/log"
	"github.com/notesync/notesync/pkg/cli/output"
	"github.com/notesync/notesync/pkg/cli/ui"
	"github.com/notesync/notesync/pkg/models"
	"github.com/notesync/notesync/pkg/notesync"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ErrNoChange is an error for an edit that leaves the note as it was
var ErrNoChange = errors.New("nothing changed")

var titleFlag string
var contentFlag string
var publicFlag bool
var tagsFlag []string

var example = `
  * Edit a note by id
  notesync edit 3f2a9c1e

  * Edit a note without launching an editor
  notesync edit 3f2a9c1e -c "new content"

  * Rename a note and make it private
  notesync edit 3f2a9c1e -t "New title" --public=false
`

// NewCmd returns a new edit command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <note id>",
		Short:   "Edit a note",
		Aliases: []string{"e"},
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&titleFlag, "title", "t", "", "a new title for the note")
	f.StringVarP(&contentFlag, "content", "c", "", "a new content for the note")
	f.BoolVar(&publicFlag, "public", false, "whether the note is visible to everyone")
	f.StringSliceVar(&tagsFlag, "tag", nil, "new tags replacing the current ones")

	return cmd
}

// Do applies the update to the note and returns its versions before and
// after the edit
func Do(c gocontext.Context, ctx context.NotesyncCtx, noteID string, u notesync.NoteUpdate) (models.Note, models.Note, error) {
	if err := infra.RequireLogin(ctx); err != nil {
		return models.Note{}, models.Note{}, err
	}

	before, err := ctx.Service.GetNote(c, noteID)
	if err != nil {
		return models.Note{}, models.Note{}, errors.Wrap(err, "getting the note")
	}

	u = dropUnchanged(before, u)
	if u.Title == nil && u.Content == nil && u.IsPublic == nil && u.Tags == nil {
		return before, before, ErrNoChange
	}

	after, err := ctx.Service.UpdateNote(c, noteID, ctx.UserID, u)
	if err != nil {
		return models.Note{}, models.Note{}, errors.Wrap(err, "updating the note")
	}

	return before, after, nil
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// dropUnchanged removes from the update the values the note already has
func dropUnchanged(n models.Note, u notesync.NoteUpdate) notesync.NoteUpdate {
	if u.Title != nil && *u.Title == n.Title {
		u.Title = nil
	}
	if u.Content != nil && *u.Content == n.Content {
		u.Content = nil
	}
	if u.IsPublic != nil && *u.IsPublic == n.IsPublic {
		u.IsPublic = nil
	}
	if u.Tags != nil && equalTags(*u.Tags, n.Tags) {
		u.Tags = nil
	}

	return u
}

func getUpdate(cmd *cobra.Command, ctx context.NotesyncCtx, noteID string) (notesync.NoteUpdate, error) {
	var u notesync.NoteUpdate
	f := cmd.Flags()

	if f.Changed("title") {
		u.Title = &titleFlag
	}
	if f.Changed("content") {
		u.Content = &contentFlag
	}
	if f.Changed("public") {
		u.IsPublic = &publicFlag
	}
	if f.Changed("tag") {
		tags := add.CleanTags(tagsFlag)
		u.Tags = &tags
	}
	if u.Title != nil || u.Content != nil || u.IsPublic != nil || u.Tags != nil {
		return u, nil
	}

	n, err := ctx.Service.GetNote(cmd.Context(), noteID)
	if err != nil {
		return u, errors.Wrap(err, "getting the note")
	}

	fpath, err := ui.GetTmpContentPath(ctx)
	if err != nil {
		return u, errors.Wrap(err, "getting temporarily content file path")
	}

	content, err := ui.GetEditorInput(ctx, fpath, n.Content)
	if err != nil {
		return u, errors.Wrap(err, "getting editor input")
	}
	u.Content = &content

	return u, nil
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

		u, err := getUpdate(cmd, ctx, noteID)
		if err != nil {
			return err
		}

		before, after, err := Do(cmd.Context(), ctx, noteID, u)
		if errors.Is(err, ErrNoChange) {
			log.Plain("nothing changed\n")
			return nil
		} else if err != nil {
			return err
		}

		if before.Title != after.Title {
			log.Infof("title: %s -> %s\n", before.Title, after.Title)
		}
		output.Diff(color.Output, before.Content, after.Content)
		log.Success("edited the note\n")

		return nil
	}
}
