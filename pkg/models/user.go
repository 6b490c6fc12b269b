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

package models

import (
	"strings"

	"github.com/notesync/notesync/pkg/store"
)

// User directory field names in the store
const (
	FieldUID   = "uid"
	FieldEmail = "email"
)

// UserEntry maps an identity to the email it signed in with
type UserEntry struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// NormalizeEmail returns the form of an email address used for lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Fields returns the store representation of the entry
func (u UserEntry) Fields() store.Fields {
	return store.Fields{
		FieldUID:   u.UID,
		FieldEmail: NormalizeEmail(u.Email),
	}
}

// UserEntryFromDocument converts a stored document into a user entry
func UserEntryFromDocument(doc store.Document) UserEntry {
	uid := stringField(doc.Fields, FieldUID)
	if uid == "" {
		uid = doc.ID
	}

	return UserEntry{
		UID:   uid,
		Email: stringField(doc.Fields, FieldEmail),
	}
}
