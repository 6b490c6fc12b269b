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

// Package output provides functions to print informations on the terminal
// in a consistent manner
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/notesync/notesync/pkg/cli/log"
	"github.com/notesync/notesync/pkg/cli/utils/diff"
	"github.com/notesync/notesync/pkg/models"
	"github.com/notesync/notesync/pkg/notesync"
)

const timeLayout = "Jan 2, 2006 3:04pm (MST)"

func formatTime(n models.Note) (created, updated string) {
	if !n.CreatedAt.IsZero() {
		created = n.CreatedAt.Local().Format(timeLayout)
	}
	if !n.UpdatedAt.IsZero() && !n.UpdatedAt.Equal(n.CreatedAt) {
		updated = n.UpdatedAt.Local().Format(timeLayout)
	}

	return created, updated
}

// NoteInfo prints a note information
func NoteInfo(n models.Note) {
	log.Infof("title: %s\n", n.Title)
	log.Infof("note id: %s\n", n.ID)
	log.Infof("owner: %s\n", n.OwnerEmail)
	if len(n.Tags) > 0 {
		log.Infof("tags: %s\n", strings.Join(n.Tags, ", "))
	}
	log.Infof("public: %t\n", n.IsPublic)
	if n.IsFavorite {
		log.Infof("favorite: %t\n", n.IsFavorite)
	}
	if len(n.SharedWith) > 0 {
		log.Infof("shared with: %d user(s)\n", len(n.SharedWith))
	}

	created, updated := formatTime(n)
	if created != "" {
		log.Infof("created at: %s\n", created)
	}
	if updated != "" {
		log.Infof("updated at: %s\n", updated)
	}

	fmt.Fprintf(color.Output, "\n------------------------content------------------------\n")
	fmt.Fprintf(color.Output, "%s", n.Content)
	fmt.Fprintf(color.Output, "\n-------------------------------------------------------\n")
}

// NoteContent prints the content of a note only
func NoteContent(n models.Note) {
	fmt.Fprintf(color.Output, "%s", n.Content)
}

// FormatNoteLine returns the one line summary of a note used in listings
func FormatNoteLine(n models.Note, uid string) string {
	var markers []string
	if n.IsFavorite {
		markers = append(markers, "★")
	}
	if n.IsPublic {
		markers = append(markers, "public")
	}
	if uid != "" && n.OwnerID != uid {
		markers = append(markers, "shared by "+n.OwnerEmail)
	}

	line := fmt.Sprintf("%s %s", log.ColorYellow.Sprintf("(%s)", shortID(n.ID)), n.Title)
	if len(n.Tags) > 0 {
		line += " " + log.ColorBlue.Sprintf("#%s", strings.Join(n.Tags, " #"))
	}
	if len(markers) > 0 {
		line += " " + log.ColorGray.Sprintf("[%s]", strings.Join(markers, ", "))
	}

	return line
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}

// NoteList prints one line per note
func NoteList(w io.Writer, notes []models.Note, uid string) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "  no notes")
		return
	}

	for _, n := range notes {
		fmt.Fprintf(w, "  %s\n", FormatNoteLine(n, uid))
	}
}

// NoteIDs prints the full ids of the notes, one per line
func NoteIDs(w io.Writer, notes []models.Note) {
	for _, n := range notes {
		fmt.Fprintln(w, n.ID)
	}
}

// Status prints the synchronization status
func Status(s notesync.Status, pending int) {
	var c *color.Color
	switch s {
	case notesync.StatusSynced:
		c = log.ColorGreen
	case notesync.StatusSyncing:
		c = log.ColorBlue
	case notesync.StatusOffline:
		c = log.ColorYellow
	default:
		c = log.ColorRed
	}

	log.Infof("status: %s\n", c.Sprint(s))
	log.Infof("pending operations: %d\n", pending)
}

// PendingOperations prints the queued operations in order
func PendingOperations(w io.Writer, ops []notesync.PendingOperation) {
	for _, op := range ops {
		fmt.Fprintf(w, "  %s %-8s %s\n", op.Timestamp.Local().Format(timeLayout), op.Kind, op.NoteID)
	}
}

// Diff prints the line changes between two versions of a content
func Diff(w io.Writer, before, after string) {
	for _, l := range diff.Lines(before, after, false) {
		switch l.Type {
		case diff.DiffInsert:
			fmt.Fprintf(w, "  %s\n", log.ColorGreen.Sprintf("+ %s", l.Text))
		case diff.DiffDelete:
			fmt.Fprintf(w, "  %s\n", log.ColorRed.Sprintf("- %s", l.Text))
		}
	}
}
