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

// Package storetest provides a behavioral test suite that every store.Store
// backend is run against
package storetest

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/notesync/notesync/pkg/assert"
	"github.com/notesync/notesync/pkg/store"
)

// Factory returns a fresh, empty store and a function releasing it
type Factory func(t *testing.T) (store.Store, func())

// Run runs the suite against stores built by the factory
func Run(t *testing.T, factory Factory) {
	t.Run("insert and get", func(t *testing.T) {
		s, done := factory(t)
		defer done()
		testInsertGet(t, s)
	})
	t.Run("duplicate insert", func(t *testing.T) {
		s, done := factory(t)
		defer done()
		testDuplicateInsert(t, s)
	})
	t.Run("patch", func(t *testing.T) {
		s, done := factory(t)
		defer done()
		testPatch(t, s)
	})
	t.Run("remove", func(t *testing.T) {
		s, done := factory(t)
		defer done()
		testRemove(t, s)
	})
	t.Run("query", func(t *testing.T) {
		s, done := factory(t)
		defer done()
		testQuery(t, s)
	})
	t.Run("subscribe", func(t *testing.T) {
		s, done := factory(t)
		defer done()
		testSubscribe(t, s)
	})
}

func testInsertGet(t *testing.T, s store.Store) {
	ctx := context.Background()

	id, err := s.Insert(ctx, "notes", store.Fields{
		"title":     "hello world",
		"tags":      []string{"a", "b"},
		"isPublic":  true,
		"updatedAt": int64(1700000000123456789),
	})
	assert.NoError(t, err, "inserting")
	assert.NotEqual(t, id, "", "id should be assigned")

	doc, err := s.GetByID(ctx, "notes", id)
	assert.NoError(t, err, "getting")
	if doc == nil {
		t.Fatal("document not found")
	}

	assert.Equal(t, doc.ID, id, "id mismatch")
	assert.Equal(t, doc.Fields["title"], "hello world", "title mismatch")
	assert.Equal(t, doc.Fields["isPublic"], true, "isPublic mismatch")
	assert.Equal(t, doc.Fields["updatedAt"], int64(1700000000123456789), "updatedAt mismatch")
	assert.DeepEqual(t, doc.Fields["tags"], []interface{}{"a", "b"}, "tags mismatch")

	missing, err := s.GetByID(ctx, "notes", "missing")
	assert.NoError(t, err, "getting a missing document")
	assert.Equal(t, missing == nil, true, "missing document should be nil")
}

func testDuplicateInsert(t *testing.T, s store.Store) {
	ctx := context.Background()

	id, err := s.Insert(ctx, "notes", store.Fields{store.FieldID: "n1", "title": "first"})
	assert.NoError(t, err, "inserting")
	assert.Equal(t, id, "n1", "requested id should be used")

	_, err = s.Insert(ctx, "notes", store.Fields{store.FieldID: "n1", "title": "second"})
	assert.ErrorIs(t, err, store.ErrAlreadyExists, "duplicate insert")

	doc, err := s.GetByID(ctx, "notes", "n1")
	assert.NoError(t, err, "getting")
	assert.Equal(t, doc.Fields["title"], "first", "original document should be kept")

	// ids are scoped to a collection
	_, err = s.Insert(ctx, "users", store.Fields{store.FieldID: "n1"})
	assert.NoError(t, err, "inserting into another collection")
}

func testPatch(t *testing.T, s store.Store) {
	ctx := context.Background()

	id, err := s.Insert(ctx, "notes", store.Fields{"title": "hello world", "isFavorite": false})
	assert.NoError(t, err, "inserting")

	err = s.Patch(ctx, "notes", id, store.Fields{"isFavorite": true, "sharedWith": []string{"u2"}})
	assert.NoError(t, err, "patching")

	doc, err := s.GetByID(ctx, "notes", id)
	assert.NoError(t, err, "getting")
	assert.Equal(t, doc.Fields["title"], "hello world", "untouched field mismatch")
	assert.Equal(t, doc.Fields["isFavorite"], true, "isFavorite mismatch")
	assert.DeepEqual(t, doc.Fields["sharedWith"], []interface{}{"u2"}, "sharedWith mismatch")

	err = s.Patch(ctx, "notes", "missing", store.Fields{"isFavorite": true})
	assert.ErrorIs(t, err, store.ErrNotFound, "patching a missing document")
}

func testRemove(t *testing.T, s store.Store) {
	ctx := context.Background()

	id, err := s.Insert(ctx, "notes", store.Fields{"title": "hello world"})
	assert.NoError(t, err, "inserting")

	assert.NoError(t, s.Remove(ctx, "notes", id), "removing")
	assert.NoError(t, s.Remove(ctx, "notes", id), "removing a missing document")

	doc, err := s.GetByID(ctx, "notes", id)
	assert.NoError(t, err, "getting")
	assert.Equal(t, doc == nil, true, "document should be gone")
}

func testQuery(t *testing.T, s store.Store) {
	ctx := context.Background()

	seed := []store.Fields{
		{store.FieldID: "a", "ownerId": "u1", "isPublic": false, "sharedWith": []string{}, "updatedAt": int64(1)},
		{store.FieldID: "b", "ownerId": "u2", "isPublic": true, "sharedWith": []string{}, "updatedAt": int64(4)},
		{store.FieldID: "c", "ownerId": "u1", "isPublic": true, "sharedWith": []string{"u2"}, "updatedAt": int64(3)},
		{store.FieldID: "d", "ownerId": "u3", "isPublic": false, "sharedWith": []string{"u1", "u2"}, "updatedAt": int64(2)},
	}
	for _, f := range seed {
		_, err := s.Insert(ctx, "notes", f)
		assert.NoError(t, err, "seeding")
	}

	testCases := []struct {
		query    store.Query
		expected []string
	}{
		{
			query: store.Query{
				Filters: []store.Filter{store.Where("ownerId", store.OpEqual, "u1")},
				Order:   []store.Order{store.OrderBy("updatedAt", true)},
			},
			expected: []string{"c", "a"},
		},
		{
			query: store.Query{
				Filters: []store.Filter{
					store.Where("isPublic", store.OpEqual, true),
					store.Where("ownerId", store.OpNotEqual, "u1"),
				},
			},
			expected: []string{"b"},
		},
		{
			query: store.Query{
				Filters: []store.Filter{store.Where("sharedWith", store.OpArrayContains, "u2")},
				Order:   []store.Order{store.OrderBy("updatedAt", false)},
			},
			expected: []string{"d", "c"},
		},
		{
			query: store.Query{
				Order: []store.Order{store.OrderBy("updatedAt", true)},
			},
			expected: []string{"b", "c", "d", "a"},
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			docs, err := s.Query(ctx, "notes", tc.query)
			assert.NoError(t, err, "querying")

			assert.DeepEqual(t, ids(docs), tc.expected, "result mismatch")
		})
	}

	docs, err := s.Query(ctx, "users", store.Query{})
	assert.NoError(t, err, "querying an empty collection")
	assert.Equal(t, len(docs), 0, "empty collection should yield nothing")
}

func testSubscribe(t *testing.T, s store.Store) {
	ctx := context.Background()

	snapshots := make(chan []string, 32)
	dispose, err := s.Subscribe(ctx, "notes", store.Query{
		Filters: []store.Filter{store.Where("ownerId", store.OpEqual, "u1")},
	}, func(docs []store.Document) {
		snapshots <- sortedIDs(docs)
	}, func(err error) {
		t.Errorf("unexpected subscription error: %v", err)
	})
	assert.NoError(t, err, "subscribing")

	waitFor(t, snapshots, []string{})

	_, err = s.Insert(ctx, "notes", store.Fields{store.FieldID: "x", "ownerId": "u1"})
	assert.NoError(t, err, "inserting")
	waitFor(t, snapshots, []string{"x"})

	_, err = s.Insert(ctx, "notes", store.Fields{store.FieldID: "y", "ownerId": "u2"})
	assert.NoError(t, err, "inserting")
	_, err = s.Insert(ctx, "notes", store.Fields{store.FieldID: "z", "ownerId": "u1"})
	assert.NoError(t, err, "inserting")
	waitFor(t, snapshots, []string{"x", "z"})

	assert.NoError(t, s.Remove(ctx, "notes", "x"), "removing")
	waitFor(t, snapshots, []string{"z"})

	dispose()
	dispose()
}

// waitFor consumes snapshots until one equals the expected ids. Intermediate
// snapshots may be seen because bursts of writes can be coalesced or not.
func waitFor(t *testing.T, snapshots chan []string, expected []string) {
	timeout := time.After(3 * time.Second)

	for {
		select {
		case got := <-snapshots:
			if fmt.Sprint(got) == fmt.Sprint(expected) {
				return
			}
		case <-timeout:
			t.Fatalf("snapshot %v not delivered", expected)
		}
	}
}

func ids(docs []store.Document) []string {
	ret := []string{}
	for _, d := range docs {
		ret = append(ret, d.ID)
	}

	return ret
}

func sortedIDs(docs []store.Document) []string {
	ret := ids(docs)
	sort.Strings(ret)

	return ret
}
