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

package infra

import (
	gocontext "context"
	"strings"

	"github.com/notesync/notesync/pkg/cli/context"
	"github.com/notesync/notesync/pkg/helpers"
	"github.com/notesync/notesync/pkg/models"
	"github.com/pkg/errors"
)

var (
	// ErrNotLoggedIn is an error for running a command that needs an identity
	// without one
	ErrNotLoggedIn = errors.New("not logged in. run 'notesync login <email>' first")
	// ErrNoteIDAmbiguous is an error for a note id prefix matching many notes
	ErrNoteIDAmbiguous = errors.New("note id prefix matches more than one note")
)

// RequireLogin returns ErrNotLoggedIn if the context has no identity
func RequireLogin(ctx context.NotesyncCtx) error {
	if !ctx.LoggedIn() {
		return ErrNotLoggedIn
	}

	return nil
}

// ResolveNoteID expands a note id prefix, as shown by the list command, into
// a full id among the notes visible to the logged in user. Full ids are
// returned untouched.
func ResolveNoteID(c gocontext.Context, ctx context.NotesyncCtx, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", errors.New("note id is empty")
	}
	if helpers.ValidateUUID(prefix) {
		return prefix, nil
	}

	notes, err := ctx.Service.GetUserNotes(c, ctx.UserID)
	if err != nil {
		return "", errors.Wrap(err, "getting notes")
	}

	return findByPrefix(notes, prefix)
}

func findByPrefix(notes []models.Note, prefix string) (string, error) {
	var match string
	for _, n := range notes {
		if !strings.HasPrefix(n.ID, prefix) {
			continue
		}
		if match != "" && match != n.ID {
			return "", ErrNoteIDAmbiguous
		}
		match = n.ID
	}

	if match == "" {
		return "", errors.Errorf("no note found with id '%s'", prefix)
	}

	return match, nil
}
