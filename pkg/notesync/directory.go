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

	"github.com/notesync/notesync/pkg/models"
	"github.com/notesync/notesync/pkg/store"
	"github.com/pkg/errors"
)

// UserDirectory maps emails to identities. Entries are written once, the
// first time an identity is seen, and never updated.
type UserDirectory struct {
	store store.Store
}

// NewUserDirectory returns a directory kept in the given store
func NewUserDirectory(s store.Store) *UserDirectory {
	return &UserDirectory{store: s}
}

// FindUIDByEmail returns the identity registered with the email, or an
// empty string if there is none
func (d *UserDirectory) FindUIDByEmail(ctx context.Context, email string) (string, error) {
	docs, err := d.store.Query(ctx, models.UsersCollection, store.Query{
		Filters: []store.Filter{store.Where(models.FieldEmail, store.OpEqual, models.NormalizeEmail(email))},
	})
	if err != nil {
		return "", errors.Wrap(err, "querying user directory")
	}
	if len(docs) == 0 {
		return "", nil
	}

	return models.UserEntryFromDocument(docs[0]).UID, nil
}

// SaveUserProfile records the entry unless the identity is already known.
// It reports whether the entry was written.
func (d *UserDirectory) SaveUserProfile(ctx context.Context, u models.UserEntry) (bool, error) {
	if u.UID == "" {
		return false, validationError(errors.New("uid is required"))
	}

	existing, err := d.store.GetByID(ctx, models.UsersCollection, u.UID)
	if err != nil {
		return false, errors.Wrap(err, "finding user entry")
	}
	if existing != nil {
		return false, nil
	}

	fields := u.Fields()
	fields[store.FieldID] = u.UID

	if _, err := d.store.Insert(ctx, models.UsersCollection, fields); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return false, nil
		}
		return false, errors.Wrap(err, "inserting user entry")
	}

	return true, nil
}
