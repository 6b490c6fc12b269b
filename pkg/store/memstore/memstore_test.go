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

package memstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/notesync/notesync/pkg/assert"
	"github.com/notesync/notesync/pkg/store"
	"github.com/notesync/notesync/pkg/store/storetest"
)

func TestInsert(t *testing.T) {
	ctx := context.Background()

	t.Run("generated id", func(t *testing.T) {
		s := New()
		defer s.Close()

		id, err := s.Insert(ctx, "notes", store.Fields{"title": "hello"})
		assert.NoError(t, err, "inserting")
		assert.NotEqual(t, id, "", "id should be generated")

		doc, err := s.GetByID(ctx, "notes", id)
		assert.NoError(t, err, "getting")
		assert.Equal(t, doc.Fields["title"], "hello", "title mismatch")
	})

	t.Run("requested id", func(t *testing.T) {
		s := New()
		defer s.Close()

		id, err := s.Insert(ctx, "notes", store.Fields{store.FieldID: "n1", "title": "hello"})
		assert.NoError(t, err, "inserting")
		assert.Equal(t, id, "n1", "id mismatch")

		doc, err := s.GetByID(ctx, "notes", id)
		assert.NoError(t, err, "getting")
		_, hasID := doc.Fields[store.FieldID]
		assert.Equal(t, hasID, false, "id should not be stored as a field")

		_, err = s.Insert(ctx, "notes", store.Fields{store.FieldID: "n1"})
		assert.ErrorIs(t, err, store.ErrAlreadyExists, "duplicate insert")
	})
}

func TestPatchRemove(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	id, err := s.Insert(ctx, "notes", store.Fields{"title": "hello", "isFavorite": false})
	assert.NoError(t, err, "inserting")

	assert.NoError(t, s.Patch(ctx, "notes", id, store.Fields{"isFavorite": true}), "patching")
	doc, err := s.GetByID(ctx, "notes", id)
	assert.NoError(t, err, "getting")
	assert.Equal(t, doc.Fields["isFavorite"], true, "isFavorite mismatch")
	assert.Equal(t, doc.Fields["title"], "hello", "untouched field should be kept")

	err = s.Patch(ctx, "notes", "missing", store.Fields{"isFavorite": true})
	assert.ErrorIs(t, err, store.ErrNotFound, "patching a missing document")

	assert.NoError(t, s.Remove(ctx, "notes", id), "removing")
	assert.NoError(t, s.Remove(ctx, "notes", id), "removing again")

	doc, err = s.GetByID(ctx, "notes", id)
	assert.NoError(t, err, "getting")
	assert.Equal(t, doc == nil, true, "document should be gone")
}

func TestGetByID_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	id, err := s.Insert(ctx, "notes", store.Fields{"tags": []string{"a"}})
	assert.NoError(t, err, "inserting")

	doc, err := s.GetByID(ctx, "notes", id)
	assert.NoError(t, err, "getting")
	doc.Fields["tags"].([]interface{})[0] = "b"

	doc, err = s.GetByID(ctx, "notes", id)
	assert.NoError(t, err, "getting")
	assert.DeepEqual(t, doc.Fields["tags"], []interface{}{"a"}, "stored value should not change")
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	for i := 0; i < 4; i++ {
		_, err := s.Insert(ctx, "notes", store.Fields{
			store.FieldID: fmt.Sprintf("n%d", i),
			"ownerId":     fmt.Sprintf("u%d", i%2),
			"updatedAt":   int64(i),
		})
		assert.NoError(t, err, "inserting")
	}

	docs, err := s.Query(ctx, "notes", store.Query{
		Filters: []store.Filter{store.Where("ownerId", store.OpEqual, "u1")},
		Order:   []store.Order{store.OrderBy("updatedAt", true)},
	})
	assert.NoError(t, err, "querying")
	assert.Equal(t, len(docs), 2, "result count mismatch")
	assert.Equal(t, docs[0].ID, "n3", "first id mismatch")
	assert.Equal(t, docs[1].ID, "n1", "second id mismatch")
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	counts := make(chan int, 16)
	dispose, err := s.Subscribe(ctx, "notes", store.Query{
		Filters: []store.Filter{store.Where("isPublic", store.OpEqual, true)},
	}, func(docs []store.Document) {
		counts <- len(docs)
	}, nil)
	assert.NoError(t, err, "subscribing")
	defer dispose()

	expect := func(n int) {
		select {
		case got := <-counts:
			assert.Equal(t, got, n, "snapshot size mismatch")
		case <-time.After(time.Second):
			t.Fatalf("snapshot of size %d not delivered", n)
		}
	}

	expect(0)

	_, err = s.Insert(ctx, "notes", store.Fields{"isPublic": true})
	assert.NoError(t, err, "inserting")
	expect(1)
}

func TestSetFailure(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	s.SetFailure(func(c Call) error {
		if c.Op == OpPatch {
			return store.ErrUnavailable
		}
		return nil
	})

	id, err := s.Insert(ctx, "notes", store.Fields{"title": "hello"})
	assert.NoError(t, err, "inserting")

	err = s.Patch(ctx, "notes", id, store.Fields{"title": "world"})
	assert.ErrorIs(t, err, store.ErrUnavailable, "patch should fail")

	s.SetFailure(nil)
	assert.NoError(t, s.Patch(ctx, "notes", id, store.Fields{"title": "world"}), "patching")
}

func TestSubscribe_SnapshotFailure(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	s.SetFailure(func(c Call) error {
		if c.Op == OpSnapshot {
			return store.ErrUnavailable
		}
		return nil
	})

	errCh := make(chan error, 1)
	_, err := s.Subscribe(ctx, "notes", store.Query{}, func(docs []store.Document) {}, func(err error) {
		errCh <- err
	})
	assert.NoError(t, err, "subscribing")

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, store.ErrUnavailable, "error mismatch")
	case <-time.After(time.Second):
		t.Fatal("error not delivered")
	}
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) (store.Store, func()) {
		s := New()
		return s, s.Close
	})
}
