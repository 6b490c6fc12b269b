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
	"testing"

	"github.com/notesync/notesync/pkg/assert"
	"github.com/notesync/notesync/pkg/models"
)

func setupSharing(t *testing.T) (testService, models.Note) {
	s := newTestService(t)
	ctx := context.Background()

	for _, u := range []models.UserEntry{
		{UID: "u1", Email: "alice@example.com"},
		{UID: "u2", Email: "bob@example.com"},
		{UID: "u3", Email: "carol@example.com"},
	} {
		_, err := s.SaveUserProfile(ctx, u)
		assert.NoError(t, err, "saving user profile")
	}

	note, err := s.AddNote(ctx, validNote("u1"))
	assert.NoError(t, err, "adding note")

	return s, note
}

func TestShareNoteWithUser(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		s, note := setupSharing(t)

		got, err := s.ShareNoteWithUser(ctx, note.ID, "Bob@Example.com", "u1")
		assert.NoError(t, err, "sharing")
		assert.DeepEqual(t, got.SharedWith, []string{"u2"}, "sharedWith mismatch")
		assert.Equal(t, got.UpdatedAt.After(note.UpdatedAt), true, "updatedAt should increase")

		stored, err := s.GetNote(ctx, note.ID)
		assert.NoError(t, err, "getting note")
		assert.DeepEqual(t, stored.SharedWith, []string{"u2"}, "stored sharedWith mismatch")
	})

	t.Run("unknown recipient", func(t *testing.T) {
		s, note := setupSharing(t)

		_, err := s.ShareNoteWithUser(ctx, note.ID, "nobody@example.com", "u1")
		assert.ErrorIs(t, err, ErrRecipientNotFound, "error mismatch")
		assert.ErrorIs(t, err, ErrNotFound, "kind mismatch")
	})

	t.Run("already shared", func(t *testing.T) {
		s, note := setupSharing(t)

		_, err := s.ShareNoteWithUser(ctx, note.ID, "bob@example.com", "u1")
		assert.NoError(t, err, "sharing")

		_, err = s.ShareNoteWithUser(ctx, note.ID, "bob@example.com", "u1")
		assert.ErrorIs(t, err, ErrAlreadyShared, "error mismatch")
	})

	t.Run("self share", func(t *testing.T) {
		s, note := setupSharing(t)

		_, err := s.ShareNoteWithUser(ctx, note.ID, "alice@example.com", "u1")
		assert.ErrorIs(t, err, ErrSelfShareRejected, "error mismatch")
		assert.ErrorIs(t, err, ErrAuthorization, "kind mismatch")
	})

	t.Run("not owner", func(t *testing.T) {
		s, note := setupSharing(t)

		_, err := s.ShareNoteWithUser(ctx, note.ID, "carol@example.com", "u2")
		assert.ErrorIs(t, err, ErrNotOwner, "error mismatch")
	})

	t.Run("missing note", func(t *testing.T) {
		s, _ := setupSharing(t)

		_, err := s.ShareNoteWithUser(ctx, "missing", "bob@example.com", "u1")
		assert.ErrorIs(t, err, ErrNoteNotFound, "error mismatch")
	})

	t.Run("offline", func(t *testing.T) {
		s, note := setupSharing(t)
		s.SetNetworkEnabled(false)

		_, err := s.ShareNoteWithUser(ctx, note.ID, "bob@example.com", "u1")
		assert.ErrorIs(t, err, ErrOffline, "error mismatch")
		assert.Equal(t, s.GetPendingOperationsCount(), 0, "sharing should never be queued")
	})
}

func TestUnshareNoteFromUser(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		s, note := setupSharing(t)

		_, err := s.ShareNoteWithUser(ctx, note.ID, "bob@example.com", "u1")
		assert.NoError(t, err, "sharing with bob")
		_, err = s.ShareNoteWithUser(ctx, note.ID, "carol@example.com", "u1")
		assert.NoError(t, err, "sharing with carol")

		got, err := s.UnshareNoteFromUser(ctx, note.ID, "u2", "u1")
		assert.NoError(t, err, "unsharing")
		assert.DeepEqual(t, got.SharedWith, []string{"u3"}, "sharedWith mismatch")
	})

	t.Run("not shared", func(t *testing.T) {
		s, note := setupSharing(t)

		got, err := s.UnshareNoteFromUser(ctx, note.ID, "u2", "u1")
		assert.NoError(t, err, "unsharing access never granted")
		assert.DeepEqual(t, got.SharedWith, []string{}, "sharedWith mismatch")
		assert.Equal(t, got.UpdatedAt.Equal(note.UpdatedAt), true, "nothing should be written")
	})

	t.Run("not owner", func(t *testing.T) {
		s, note := setupSharing(t)

		_, err := s.UnshareNoteFromUser(ctx, note.ID, "u2", "u2")
		assert.ErrorIs(t, err, ErrNotOwner, "error mismatch")
	})

	t.Run("offline", func(t *testing.T) {
		s, note := setupSharing(t)
		s.SetNetworkEnabled(false)

		_, err := s.UnshareNoteFromUser(ctx, note.ID, "u2", "u1")
		assert.ErrorIs(t, err, ErrOffline, "error mismatch")
	})
}

func TestSaveUserProfile_FirstWriteWins(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	created, err := s.SaveUserProfile(ctx, models.UserEntry{UID: "u1", Email: "alice@example.com"})
	assert.NoError(t, err, "saving profile")
	assert.Equal(t, created, true, "first save should write")

	created, err = s.SaveUserProfile(ctx, models.UserEntry{UID: "u1", Email: "other@example.com"})
	assert.NoError(t, err, "saving profile again")
	assert.Equal(t, created, false, "second save should not write")

	uid, err := NewUserDirectory(s.mem).FindUIDByEmail(ctx, "alice@example.com")
	assert.NoError(t, err, "finding uid")
	assert.Equal(t, uid, "u1", "uid mismatch")

	uid, err = NewUserDirectory(s.mem).FindUIDByEmail(ctx, "other@example.com")
	assert.NoError(t, err, "finding uid")
	assert.Equal(t, uid, "", "the entry should not be updated")
}

func TestLookupUser(t *testing.T) {
	s, _ := setupSharing(t)
	ctx := context.Background()

	uid, err := s.LookupUser(ctx, " CAROL@example.com")
	assert.NoError(t, err, "looking up")
	assert.Equal(t, uid, "u3", "uid mismatch")

	uid, err = s.LookupUser(ctx, "nobody@example.com")
	assert.NoError(t, err, "looking up an unknown email")
	assert.Equal(t, uid, "", "unknown email should yield no uid")

	s.SetNetworkEnabled(false)
	_, err = s.LookupUser(ctx, "carol@example.com")
	assert.ErrorIs(t, err, ErrOffline, "offline lookup")
}
