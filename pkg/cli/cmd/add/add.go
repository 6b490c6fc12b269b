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

package add

import (
	gocontext "context"
	"strings"

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

var titleFlag string
var contentFlag string
var publicFlag bool
var tagsFlag []string

var example = `
 * Open an editor to write content
 notesync add -t "Release checklist"

 * Skip the editor by providing content directly
 notesync add -t "Git tips" -c "time is a part of the commit hash" --tag git

 * Send stdin content to a note
 echo "a branch is just a pointer to a commit" | notesync add -t "Git branches"`

// NewCmd returns a new add command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a new note",
		Aliases: []string{"a", "n", "new"},
		Example: example,
		Args:    cobra.NoArgs,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&titleFlag, "title", "t", "", "The title of the note")
	f.StringVarP(&contentFlag, "content", "c", "", "The content of the note")
	f.BoolVar(&publicFlag, "public", false, "Make the note visible to everyone")
	f.StringSliceVar(&tagsFlag, "tag", nil, "Tags of the note. Can be repeated or comma separated")

	return cmd
}

func getContent(ctx context.NotesyncCtx) (string, error) {
	if contentFlag != "" {
		return contentFlag, nil
	}

	if ui.IsPiped() {
		c, err := ui.ReadStdInput()
		if err != nil {
			return "", errors.Wrap(err, "getting piped input")
		}
		return c, nil
	}

	fpath, err := ui.GetTmpContentPath(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting temporarily content file path")
	}

	c, err := ui.GetEditorInput(ctx, fpath, "")
	if err != nil {
		return "", errors.Wrap(err, "getting editor input")
	}

	return c, nil
}

// CleanTags trims the tags and drops empty and duplicate ones
func CleanTags(tags []string) []string {
	ret := []string{}
	seen := map[string]bool{}

	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}

		seen[t] = true
		ret = append(ret, t)
	}

	return ret
}

// Do adds a note owned by the logged in user
func Do(c gocontext.Context, ctx context.NotesyncCtx, title, content string, isPublic bool, tags []string) (models.Note, error) {
	if err := infra.RequireLogin(ctx); err != nil {
		return models.Note{}, err
	}

	n, err := ctx.Service.AddNote(c, notesync.NoteParams{
		Title:      strings.TrimSpace(title),
		Content:    content,
		IsPublic:   isPublic,
		Tags:       CleanTags(tags),
		OwnerID:    ctx.UserID,
		OwnerEmail: ctx.Email,
	})
	if err != nil {
		return models.Note{}, errors.Wrap(err, "adding the note")
	}

	return n, nil
}

func newRun(ctx context.NotesyncCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if err := infra.RequireLogin(ctx); err != nil {
			return err
		}

		title := titleFlag
		if title == "" {
			if err := ui.PromptInput("title", &title); err != nil {
				return errors.Wrap(err, "getting title input")
			}
		}

		content, err := getContent(ctx)
		if err != nil {
			return errors.Wrap(err, "getting content")
		}

		n, err := Do(cmd.Context(), ctx, title, content, publicFlag, tagsFlag)
		if err != nil {
			return err
		}

		if ctx.Service.GetPendingOperationsCount() > 0 {
			log.Warnf("added %s locally. it will be saved once the server is reachable\n", n.Title)
		} else {
			log.Successf("added %s\n", n.Title)
		}

		output.NoteInfo(n)

		return nil
	}
}
