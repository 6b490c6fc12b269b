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

package notesync

import (
	"context"

	"github.com/notesync/notesync/pkg/log"
	"github.com/notesync/notesync/pkg/models"
	"github.com/notesync/notesync/pkg/store"
)

// SharingResolver grants and revokes read access to notes. Both operations
// need the store and are never deferred.
type SharingResolver struct {
	store     store.Store
	directory *UserDirectory
	online    func() bool
	stamps    *stamper
}

func (r *SharingResolver) fetchOwned(ctx context.Context, noteID, actingUID string) (models.Note, error) {
	doc, err := r.store.GetByID(ctx, models.NotesCollection, noteID)
	if err != nil {
		return models.Note{}, remoteError(err, "finding note")
	}
	if doc == nil {
		return models.Note{}, ErrNoteNotFound
	}

	note := models.NoteFromDocument(*doc)
	if note.OwnerID != actingUID {
		return models.Note{}, ErrNotOwner
	}

	return note, nil
}

func (r *SharingResolver) writeSharedWith(ctx context.Context, note models.Note, sharedWith []string) (models.Note, error) {
	note.SharedWith = sharedWith
	note.UpdatedAt = r.stamps.next(note.ID, note.UpdatedAt)

	err := r.store.Patch(ctx, models.NotesCollection, note.ID, store.Fields{
		models.FieldSharedWith: note.SharedWith,
		models.FieldUpdatedAt:  models.TimeValue(note.UpdatedAt),
	})
	if err != nil {
		return models.Note{}, remoteError(err, "updating shared access")
	}

	return note, nil
}

// ShareWith grants the user registered with the email read access to the
// note. Only the owner of the note can share it.
func (r *SharingResolver) ShareWith(ctx context.Context, noteID, recipientEmail, actingUID string) (models.Note, error) {
	if !r.online() {
		return models.Note{}, ErrOffline
	}

	recipient, err := r.directory.FindUIDByEmail(ctx, recipientEmail)
	if err != nil {
		return models.Note{}, remoteError(err, "resolving recipient")
	}
	if recipient == "" {
		return models.Note{}, ErrRecipientNotFound
	}
	if recipient == actingUID {
		return models.Note{}, ErrSelfShareRejected
	}

	note, err := r.fetchOwned(ctx, noteID, actingUID)
	if err != nil {
		return models.Note{}, err
	}
	if note.IsSharedWith(recipient) {
		return models.Note{}, ErrAlreadyShared
	}

	sharedWith := append(append([]string{}, note.SharedWith...), recipient)

	note, err = r.writeSharedWith(ctx, note, sharedWith)
	if err != nil {
		return models.Note{}, err
	}

	log.WithFields(log.Fields{
		"note_id":   noteID,
		"recipient": recipient,
	}).Info("Shared note.")

	return note, nil
}

// Unshare revokes the read access of the user to the note. Revoking access
// that was never granted does nothing.
func (r *SharingResolver) Unshare(ctx context.Context, noteID, recipientUID, actingUID string) (models.Note, error) {
	if !r.online() {
		return models.Note{}, ErrOffline
	}

	note, err := r.fetchOwned(ctx, noteID, actingUID)
	if err != nil {
		return models.Note{}, err
	}
	if !note.IsSharedWith(recipientUID) {
		return note, nil
	}

	sharedWith := []string{}
	for _, uid := range note.SharedWith {
		if uid != recipientUID {
			sharedWith = append(sharedWith, uid)
		}
	}

	note, err = r.writeSharedWith(ctx, note, sharedWith)
	if err != nil {
		return models.Note{}, err
	}

	log.WithFields(log.Fields{
		"note_id":   noteID,
		"recipient": recipientUID,
	}).Info("Unshared note.")

	return note, nil
}
