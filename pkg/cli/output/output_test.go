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

package output

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/notesync/notesync/pkg/assert"
	"github.com/notesync/notesync/pkg/models"
	"github.com/notesync/notesync/pkg/notesync"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestFormatNoteLine(t *testing.T) {
	n := models.Note{
		ID:         "0123456789abcdef",
		Title:      "Groceries",
		Tags:       []string{"home", "food"},
		OwnerID:    "u2",
		OwnerEmail: "bob@example.com",
		IsFavorite: true,
		IsPublic:   true,
	}

	got := FormatNoteLine(n, "u1")
	assert.Equal(t, got, "(01234567) Groceries #home #food [★, public, shared by bob@example.com]", "line mismatch")

	n.OwnerID = "u1"
	n.IsFavorite = false
	n.IsPublic = false
	n.Tags = nil
	assert.Equal(t, FormatNoteLine(n, "u1"), "(01234567) Groceries", "plain line mismatch")
}

func TestNoteList(t *testing.T) {
	var buf bytes.Buffer
	NoteList(&buf, nil, "u1")
	assert.Equal(t, buf.String(), "  no notes\n", "empty list mismatch")

	buf.Reset()
	NoteList(&buf, []models.Note{{ID: "a", Title: "One", OwnerID: "u1"}, {ID: "b", Title: "Two", OwnerID: "u1"}}, "u1")
	assert.Equal(t, buf.String(), "  (a) One\n  (b) Two\n", "list mismatch")
}

func TestNoteIDs(t *testing.T) {
	var buf bytes.Buffer
	NoteIDs(&buf, []models.Note{{ID: "a"}, {ID: "b"}})
	assert.Equal(t, buf.String(), "a\nb\n", "ids mismatch")
}

func TestPendingOperations(t *testing.T) {
	var buf bytes.Buffer
	PendingOperations(&buf, []notesync.PendingOperation{
		{Kind: notesync.OpCreate, NoteID: "n1", Timestamp: time.Now()},
		{Kind: notesync.OpDelete, NoteID: "n2", Timestamp: time.Now()},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, len(lines), 2, "line count mismatch")
	assert.Equal(t, strings.HasSuffix(lines[0], "create   n1"), true, "first line mismatch")
	assert.Equal(t, strings.HasSuffix(lines[1], "delete   n2"), true, "second line mismatch")
}

func TestDiff(t *testing.T) {
	var buf bytes.Buffer
	Diff(&buf, "keep\nold\n", "keep\nnew\n")
	assert.Equal(t, buf.String(), "  - old\n  + new\n", "diff mismatch")
}
