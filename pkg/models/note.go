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

// Package models defines the records the sync engine persists
package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/notesync/notesync/pkg/store"
	"github.com/pkg/errors"
)

const (
	// NotesCollection is the store collection holding notes
	NotesCollection = "notes"
	// UsersCollection is the store collection holding the user directory
	UsersCollection = "users"
)

// Note field names in the store
const (
	FieldTitle      = "title"
	FieldContent    = "content"
	FieldIsPublic   = "isPublic"
	FieldTags       = "tags"
	FieldOwnerID    = "ownerId"
	FieldOwnerEmail = "ownerEmail"
	FieldIsFavorite = "isFavorite"
	FieldSharedWith = "sharedWith"
	FieldCreatedAt  = "createdAt"
	FieldUpdatedAt  = "updatedAt"
)

const (
	// TitleMinLength is the minimum number of characters of a title
	TitleMinLength = 5
	// ContentMinLength is the minimum number of characters of a content
	ContentMinLength = 10
)

var (
	// ErrTitleRequired is returned when the title is blank
	ErrTitleRequired = errors.New("title is required")
	// ErrContentRequired is returned when the content is blank
	ErrContentRequired = errors.New("content is required")
	// ErrTitleTooShort is returned when the title is shorter than TitleMinLength
	ErrTitleTooShort = errors.Errorf("title must be at least %d characters", TitleMinLength)
	// ErrContentTooShort is returned when the content is shorter than ContentMinLength
	ErrContentTooShort = errors.Errorf("content must be at least %d characters", ContentMinLength)
	// ErrOwnerRequired is returned when a note has no owner
	ErrOwnerRequired = errors.New("owner is required")
)

// Note is a note
type Note struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	IsPublic   bool      `json:"isPublic"`
	Tags       []string  `json:"tags"`
	OwnerID    string    `json:"ownerId"`
	OwnerEmail string    `json:"ownerEmail"`
	IsFavorite bool      `json:"isFavorite"`
	SharedWith []string  `json:"sharedWith"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ValidateTitle checks that a title is not blank and long enough. The length
// counts surrounding whitespace.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(title) < TitleMinLength {
		return ErrTitleTooShort
	}

	return nil
}

// ValidateContent checks that a content is not blank and long enough
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrContentRequired
	}
	if utf8.RuneCountInString(content) < ContentMinLength {
		return ErrContentTooShort
	}

	return nil
}

// Validate checks the invariants a note must satisfy before it is written
func (n Note) Validate() error {
	if err := ValidateTitle(n.Title); err != nil {
		return err
	}
	if err := ValidateContent(n.Content); err != nil {
		return err
	}
	if n.OwnerID == "" {
		return ErrOwnerRequired
	}

	return nil
}

// Clone returns a copy of the note that shares no slices with it
func (n Note) Clone() Note {
	n.Tags = append([]string{}, n.Tags...)
	n.SharedWith = append([]string{}, n.SharedWith...)

	return n
}

// IsSharedWith reports whether the user was granted access to the note
func (n Note) IsSharedWith(uid string) bool {
	for _, id := range n.SharedWith {
		if id == uid {
			return true
		}
	}

	return false
}

// HasTag reports whether the note carries the tag
func (n Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}

	return false
}

// Fields returns the store representation of the note. Timestamps are
// stored as Unix nanoseconds.
func (n Note) Fields() store.Fields {
	return store.NormalizeFields(map[string]interface{}{
		FieldTitle:      n.Title,
		FieldContent:    n.Content,
		FieldIsPublic:   n.IsPublic,
		FieldTags:       stringsOrEmpty(n.Tags),
		FieldOwnerID:    n.OwnerID,
		FieldOwnerEmail: n.OwnerEmail,
		FieldIsFavorite: n.IsFavorite,
		FieldSharedWith: stringsOrEmpty(n.SharedWith),
		FieldCreatedAt:  TimeValue(n.CreatedAt),
		FieldUpdatedAt:  TimeValue(n.UpdatedAt),
	})
}

// TimeValue returns the store representation of a timestamp
func TimeValue(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.UnixNano()
}

// NoteFromDocument converts a stored document into a note. Missing fields
// take their zero value.
func NoteFromDocument(doc store.Document) Note {
	f := doc.Fields

	return Note{
		ID:         doc.ID,
		Title:      stringField(f, FieldTitle),
		Content:    stringField(f, FieldContent),
		IsPublic:   boolField(f, FieldIsPublic),
		Tags:       stringsField(f, FieldTags),
		OwnerID:    stringField(f, FieldOwnerID),
		OwnerEmail: stringField(f, FieldOwnerEmail),
		IsFavorite: boolField(f, FieldIsFavorite),
		SharedWith: stringsField(f, FieldSharedWith),
		CreatedAt:  timeField(f, FieldCreatedAt),
		UpdatedAt:  timeField(f, FieldUpdatedAt),
	}
}

// NotesFromDocuments converts stored documents into notes
func NotesFromDocuments(docs []store.Document) []Note {
	ret := make([]Note, 0, len(docs))
	for _, d := range docs {
		ret = append(ret, NoteFromDocument(d))
	}

	return ret
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}

func stringField(f store.Fields, key string) string {
	s, _ := f[key].(string)
	return s
}

func boolField(f store.Fields, key string) bool {
	b, _ := f[key].(bool)
	return b
}

func stringsField(f store.Fields, key string) []string {
	ret := []string{}

	arr, ok := store.Normalize(f[key]).([]interface{})
	if !ok {
		return ret
	}
	for _, v := range arr {
		if s, ok := v.(string); ok {
			ret = append(ret, s)
		}
	}

	return ret
}

func timeField(f store.Fields, key string) time.Time {
	switch v := store.Normalize(f[key]).(type) {
	case int64:
		if v == 0 {
			return time.Time{}
		}
		return time.Unix(0, v).UTC()
	case float64:
		return time.Unix(0, int64(v)).UTC()
	}

	return time.Time{}
}
