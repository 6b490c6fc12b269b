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
	"github.com/pkg/errors"
)

// storeExecutor applies operations to the store. Every operation on an
// existing note verifies, at the time it is applied, that the note still
// exists and belongs to the user who issued it.
type storeExecutor struct {
	store store.Store
}

func (e storeExecutor) authorize(ctx context.Context, op PendingOperation) (*store.Document, error) {
	doc, err := e.store.GetByID(ctx, models.NotesCollection, op.NoteID)
	if err != nil {
		return nil, remoteError(err, "finding note")
	}
	if doc == nil {
		return nil, nil
	}

	if op.ActorID != "" {
		if owner := models.NoteFromDocument(*doc).OwnerID; owner != op.ActorID {
			return nil, ErrNotOwner
		}
	}

	return doc, nil
}

func (e storeExecutor) patch(ctx context.Context, op PendingOperation) error {
	doc, err := e.authorize(ctx, op)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrNoteNotFound
	}

	if err := e.store.Patch(ctx, models.NotesCollection, op.NoteID, op.Payload); err != nil {
		return remoteError(err, "patching note")
	}

	return nil
}

func (e storeExecutor) Create(ctx context.Context, op PendingOperation) error {
	fields := op.Payload.Clone()
	if fields == nil {
		fields = store.Fields{}
	}
	fields[store.FieldID] = op.NoteID

	if _, err := e.store.Insert(ctx, models.NotesCollection, fields); err != nil {
		// an earlier attempt went through but its acknowledgement was lost
		if errors.Is(err, store.ErrAlreadyExists) {
			log.WithFields(log.Fields{
				"note_id": op.NoteID,
			}).Debug("Note already created.")
			return nil
		}

		return remoteError(err, "inserting note")
	}

	return nil
}

func (e storeExecutor) Update(ctx context.Context, op PendingOperation) error {
	return e.patch(ctx, op)
}

func (e storeExecutor) Favorite(ctx context.Context, op PendingOperation) error {
	return e.patch(ctx, op)
}

func (e storeExecutor) Share(ctx context.Context, op PendingOperation) error {
	return e.patch(ctx, op)
}

func (e storeExecutor) Unshare(ctx context.Context, op PendingOperation) error {
	return e.patch(ctx, op)
}

func (e storeExecutor) Delete(ctx context.Context, op PendingOperation) error {
	doc, err := e.authorize(ctx, op)
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}

	if err := e.store.Remove(ctx, models.NotesCollection, op.NoteID); err != nil {
		return remoteError(err, "removing note")
	}

	return nil
}
