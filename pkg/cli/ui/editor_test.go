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

package ui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/notesync/notesync/pkg/assert"
	"github.com/notesync/notesync/pkg/cli/context"
	"github.com/pkg/errors"
)

func TestGetTmpContentPath(t *testing.T) {
	testCases := []struct {
		existing []string
		expected string
	}{
		{
			existing: []string{},
			expected: "NOTESYNC_TMPCONTENT_0.md",
		},
		{
			existing: []string{"NOTESYNC_TMPCONTENT_0.md"},
			expected: "NOTESYNC_TMPCONTENT_1.md",
		},
		{
			existing: []string{"NOTESYNC_TMPCONTENT_0.md", "NOTESYNC_TMPCONTENT_1.md"},
			expected: "NOTESYNC_TMPCONTENT_2.md",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			ctx := context.NotesyncCtx{Paths: context.Paths{Cache: t.TempDir()}}

			for _, name := range tc.existing {
				if err := os.WriteFile(filepath.Join(ctx.Paths.Cache, name), nil, 0644); err != nil {
					t.Fatal(errors.Wrap(err, "preparing the conflicting file"))
				}
			}

			res, err := GetTmpContentPath(ctx)
			if err != nil {
				t.Fatal(errors.Wrap(err, "executing"))
			}

			assert.Equal(t, res, filepath.Join(ctx.Paths.Cache, tc.expected), "filename did not match")
		})
	}
}

func TestGetEditorInput(t *testing.T) {
	ctx := context.NotesyncCtx{
		Paths: context.Paths{Cache: t.TempDir()},
		// cat exits immediately without touching the file
		Editor: "cat",
	}

	fpath, err := GetTmpContentPath(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting tmp path"))
	}

	got, err := GetEditorInput(ctx, fpath, "seeded content")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting editor input"))
	}

	assert.Equal(t, got, "seeded content", "content mismatch")

	if _, err := os.Stat(fpath); !os.IsNotExist(err) {
		t.Error("temporary file was not removed")
	}
}

func TestGetEditorCommand(t *testing.T) {
	t.Setenv("EDITOR", "nvim")

	assert.Equal(t, GetEditorCommand(context.NotesyncCtx{Editor: "code -w"}), "code -w", "configured editor")
	assert.Equal(t, GetEditorCommand(context.NotesyncCtx{}), "nvim", "editor from env")
}
