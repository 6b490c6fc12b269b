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

package ls

import (
	gocontext "context"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/notesync/notesync/pkg/assert"
	"github.com/notesync/notesync/pkg/cli/infra"
	"github.com/notesync/notesync/pkg/cli/testutils"
	"github.com/notesync/notesync/pkg/log"
	"github.com/notesync/notesync/pkg/models"
	"github.com/notesync/notesync/pkg/notesync"
	"github.com/notesync/notesync/pkg/store/memstore"
	"github.com/pkg/errors"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func titles(notes []models.Note) []string {
	ret := []string{}
	for _, n := range notes {
		ret = append(ret, n.Title)
	}

	return ret
}

func TestValidateParams(t *testing.T) {
	testCases := []struct {
		params    notesync.FilterParams
		expectErr bool
	}{
		{params: notesync.FilterParams{SortBy: notesync.SortAToZ}},
		{params: notesync.FilterParams{FilterBy: notesync.FilterTag, SortBy: notesync.SortNewToOld}},
		{params: notesync.FilterParams{FilterBy: "everything", SortBy: notesync.SortAToZ}, expectErr: true},
		{params: notesync.FilterParams{SortBy: "random"}, expectErr: true},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			err := ValidateParams(tc.params)
			assert.Equal(t, err != nil, tc.expectErr, "error mismatch")
		})
	}
}

func TestDo(t *testing.T) {
	ctx := testutils.InitCtx(t, memstore.New())
	c := gocontext.Background()

	testutils.MustAddNote(t, ctx, "Banana bread", "flour, bananas and sugar")
	fav := testutils.MustAddNote(t, ctx, "Apple pie", "apples, butter and flour")
	if _, err := ctx.Service.ToggleFavorite(c, fav.ID, ctx.UserID); err != nil {
		t.Fatal(errors.Wrap(err, "marking favorite"))
	}

	bob := testutils.AsUser(ctx, testutils.Bob)
	shared := testutils.MustAddNote(t, bob, "Cherry tart", "cherries and pastry")
	if _, err := ctx.Service.ShareNoteWithUser(c, shared.ID, testutils.Alice.Email, testutils.Bob.UID); err != nil {
		t.Fatal(errors.Wrap(err, "sharing"))
	}
	testutils.MustAddNote(t, bob, "Private plans", "not visible to alice")

	testCases := []struct {
		params   notesync.FilterParams
		expected []string
	}{
		{
			params:   notesync.FilterParams{SortBy: notesync.SortAToZ},
			expected: []string{"Apple pie", "Banana bread", "Cherry tart"},
		},
		{
			params:   notesync.FilterParams{SortBy: notesync.SortNewToOld},
			expected: []string{"Cherry tart", "Apple pie", "Banana bread"},
		},
		{
			params:   notesync.FilterParams{FilterBy: notesync.FilterMine, SortBy: notesync.SortAToZ},
			expected: []string{"Apple pie", "Banana bread"},
		},
		{
			params:   notesync.FilterParams{FilterBy: notesync.FilterShared, SortBy: notesync.SortAToZ},
			expected: []string{"Cherry tart"},
		},
		{
			params:   notesync.FilterParams{FilterBy: notesync.FilterFavorites, SortBy: notesync.SortAToZ},
			expected: []string{"Apple pie"},
		},
		{
			params:   notesync.FilterParams{Query: "flour", SortBy: notesync.SortAToZ},
			expected: []string{"Apple pie", "Banana bread"},
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			notes, err := Do(c, ctx, tc.params, false)
			if err != nil {
				t.Fatal(errors.Wrap(err, "listing"))
			}

			assert.DeepEqual(t, titles(notes), tc.expected, "titles mismatch")
		})
	}
}

func TestDo_Public(t *testing.T) {
	ctx := testutils.InitCtx(t, memstore.New())
	c := gocontext.Background()

	bob := testutils.AsUser(ctx, testutils.Bob)
	if _, err := bob.Service.AddNote(c, notesync.NoteParams{
		Title:      "Public recipe",
		Content:    "anyone can read this",
		IsPublic:   true,
		OwnerID:    bob.UserID,
		OwnerEmail: bob.Email,
	}); err != nil {
		t.Fatal(errors.Wrap(err, "adding note"))
	}
	testutils.MustAddNote(t, bob, "Private plans", "not visible to alice")

	anonymous := ctx
	anonymous.UserID = ""

	notes, err := Do(c, anonymous, notesync.FilterParams{SortBy: notesync.SortAToZ}, true)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing"))
	}
	assert.DeepEqual(t, titles(notes), []string{"Public recipe"}, "titles mismatch")

	_, err = Do(c, anonymous, notesync.FilterParams{SortBy: notesync.SortAToZ}, false)
	assert.ErrorIs(t, err, infra.ErrNotLoggedIn, "anonymous listing")
}

func TestWatch(t *testing.T) {
	ctx := testutils.InitCtx(t, memstore.New())

	var mu sync.Mutex
	var snapshots [][]string

	c, cancel := gocontext.WithCancel(gocontext.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(c, ctx, notesync.FilterParams{SortBy: notesync.SortAToZ}, func(notes []models.Note) {
			mu.Lock()
			snapshots = append(snapshots, titles(notes))
			mu.Unlock()
		})
	}()

	latest := func() []string {
		mu.Lock()
		defer mu.Unlock()

		if len(snapshots) == 0 {
			return nil
		}
		return snapshots[len(snapshots)-1]
	}

	assert.Eventually(t, time.Second, func() bool {
		return latest() != nil && len(latest()) == 0
	}, "initial snapshot")

	testutils.MustAddNote(t, ctx, "Watched note", "appears in the watch")

	assert.Eventually(t, time.Second, func() bool {
		got := latest()
		return len(got) == 1 && got[0] == "Watched note"
	}, "snapshot after adding")

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "watching")
	case <-time.After(time.Second):
		t.Fatal("watch did not return after cancellation")
	}
}
