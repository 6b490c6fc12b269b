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

package ls

import (
	gocontext "context"
	"io"

	"github.com/fatih/color"
	"github.com/notesync/notesync/pkg/cli/context"
	"github.com/notesync/notesync/pkg/cli/infra"
	"github.com/notesync/notesync/pkg/cli/log"
	"github.com/notesync/notesync/pkg/cli/output"
	"github.com/notesync/notesync/pkg/models"
	"github.com/notesync/notesync/pkg/notesync"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * List your notes and the notes shared with you
 notesync ls

 * Search favorites, oldest first
 notesync ls release --filter favorites --sort old-to-new

 * List notes by tag
 notesync ls git --filter tag

 * Keep the list up to date as notes change
 notesync ls --watch
 `

var filterFlag string
var sortFlag string
var publicFlag bool
var idsOnly bool
var watchFlag bool

// NewCmd returns a new ls command
func NewCmd(ctx context.NotesyncCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls [search]",
		Aliases: []string{"l", "notes"},
		Short:   "List notes",
		Example: example,
		Args:    cobra.MaximumNArgs(1),
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&filterFlag, "filter", "", "one of mine, not-mine, tag, favorites, shared")
	f.StringVar(&sortFlag, "sort", notesync.SortNewToOld, "one of new-to-old, old-to-new, favorites-first, a-z")
	f.BoolVar(&publicFlag, "public", false, "list the public notes of everyone instead")
	f.BoolVarP(&idsOnly, "quiet", "q", false, "print note ids only")
	f.BoolVarP(&watchFlag, "watch", "w", false, "print the list again whenever it changes")

	return cmd
}

var validFilters = map[string]bool{
	"":                       true,
	notesync.FilterMine:      true,
	notesync.FilterNotMine:   true,
	notesync.FilterTag:       true,
	notesync.FilterFavorites: true,
	notesync.FilterShared:    true,
}

var validSorts = map[string]bool{
	notesync.SortNewToOld:       true,
	notesync.SortOldToNew:       true,
	notesync.SortFavoritesFirst: true,
	notesync.SortAToZ:           true,
}

// ValidateParams checks the filter and the sort order
func ValidateParams(p notesync.FilterParams) error {
	if !validFilters[p.FilterBy] {
		return errors.Errorf("unknown filter '%s'", p.FilterBy)
	}
	if !validSorts[p.SortBy] {
		return errors.Errorf("unknown sort order '%s'", p.SortBy)
	}

	return nil
}

// Do returns the notes matching the parameters. With public set, the public
// notes of every user are listed instead of the notes of the logged in user.
func Do(c gocontext.Context, ctx context.NotesyncCtx, p notesync.FilterParams, public bool) ([]models.Note, error) {
	if err := ValidateParams(p); err != nil {
		return nil, err
	}

	var notes []models.Note
	var err error
	if public {
		notes, err = ctx.Service.GetVisibleNotes(c)
	} else {
		if err := infra.RequireLogin(ctx); err != nil {
			return nil, err
		}
		notes, err = ctx.Service.GetUserNotes(c, ctx.UserID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "getting notes")
	}

	p.UserID = ctx.UserID

	return notesync.FilterNotes(notes, p), nil
}

// Watch calls fn with the filtered notes of the logged in user every time
// they change, until c is done
func Watch(c gocontext.Context, ctx context.NotesyncCtx, p notesync.FilterParams, fn func([]models.Note)) error {
	if err := ValidateParams(p); err != nil {
		return err
	}
	if err := infra.RequireLogin(ctx); err != nil {
		return err
	}

	p.UserID = ctx.UserID

	dispose, err := ctx.Service.SubscribeToUserNotes(c, ctx.UserID, func(notes []models.Note) {
		fn(notesync.FilterNotes(notes, p))
	})
	if err != nil {
		return errors.Wrap(err, "subscribing to notes")
	}
	defer dispose()

	<-c.Done()

	return nil
}

func printNotes(w io.Writer, ctx context.NotesyncCtx, notes []models.Note) {
	if idsOnly {
		output.NoteIDs(w, notes)
		return
	}

	output.NoteList(w, notes, ctx.UserID)
}

func newRun(ctx context.NotesyncCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		p := notesync.FilterParams{
			FilterBy: filterFlag,
			SortBy:   sortFlag,
		}
		if len(args) > 0 {
			p.Query = args[0]
		}

		if watchFlag {
			if publicFlag {
				return errors.New("--watch cannot be used with --public")
			}

			return Watch(cmd.Context(), ctx, p, func(notes []models.Note) {
				log.Plain(log.ColorGray.Sprintf("%s\n", ctx.Clock.Now().Local().Format("15:04:05")))
				printNotes(color.Output, ctx, notes)
			})
		}

		notes, err := Do(cmd.Context(), ctx, p, publicFlag)
		if err != nil {
			return err
		}

		printNotes(color.Output, ctx, notes)

		return nil
	}
}
