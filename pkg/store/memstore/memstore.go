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

// Package memstore provides an in-memory document store with live queries.
// It is used by tests and by servers started without a database.
package memstore

import (
	"context"
	"sync"

	"github.com/notesync/notesync/pkg/helpers"
	"github.com/notesync/notesync/pkg/store"
	"github.com/pkg/errors"
)

// Call describes a store call, as seen by a failure hook
type Call struct {
	Op         string
	Collection string
	ID         string
	Query      store.Query
}

// Call operations
const (
	OpQuery    = "query"
	OpSnapshot = "snapshot"
	OpInsert   = "insert"
	OpPatch    = "patch"
	OpRemove   = "remove"
	OpGet      = "get"
)

// FailureFunc decides whether a call should fail, and with which error
type FailureFunc func(c Call) error

// Store is an in-memory store.Store
type Store struct {
	mu      sync.RWMutex
	data    map[string]map[string]store.Fields
	order   map[string][]string
	failure FailureFunc

	hub *store.Hub
}

// New returns an empty store
func New() *Store {
	s := &Store{
		data:  map[string]map[string]store.Fields{},
		order: map[string][]string{},
	}
	s.hub = store.NewHub(s.snapshot)

	return s
}

// SetFailure installs a hook that can make calls fail. Passing nil removes it.
func (s *Store) SetFailure(fn FailureFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failure = fn
}

// Close terminates every live subscription
func (s *Store) Close() {
	s.hub.Close()
}

// SubscriptionCount returns the number of live subscriptions
func (s *Store) SubscriptionCount() int {
	return s.hub.Count()
}

func (s *Store) check(c Call) error {
	s.mu.RLock()
	fn := s.failure
	s.mu.RUnlock()

	if fn == nil {
		return nil
	}

	return fn(c)
}

func (s *Store) run(collection string, q store.Query) []store.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := []store.Document{}
	for _, id := range s.order[collection] {
		docs = append(docs, store.Document{ID: id, Fields: s.data[collection][id].Clone()})
	}

	return store.Apply(docs, store.NormalizeQuery(q))
}

func (s *Store) snapshot(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	if err := s.check(Call{Op: OpSnapshot, Collection: collection, Query: q}); err != nil {
		return nil, err
	}

	return s.run(collection, q), nil
}

// Query runs a one-shot query
func (s *Store) Query(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	if err := s.check(Call{Op: OpQuery, Collection: collection, Query: q}); err != nil {
		return nil, err
	}

	return s.run(collection, q), nil
}

// Subscribe runs a live query
func (s *Store) Subscribe(ctx context.Context, collection string, q store.Query, onSnapshot store.SnapshotFunc, onError store.ErrorFunc) (store.Disposer, error) {
	if err := s.check(Call{Op: OpQuery, Collection: collection, Query: q}); err != nil {
		return nil, err
	}

	return s.hub.Subscribe(collection, q, onSnapshot, onError), nil
}

// Insert creates a document
func (s *Store) Insert(ctx context.Context, collection string, fields store.Fields) (string, error) {
	fields = store.NormalizeFields(fields)

	var id string
	if v, ok := fields[store.FieldID].(string); ok && v != "" {
		id = v
	} else {
		uuid, err := helpers.GenUUID()
		if err != nil {
			return "", errors.Wrap(err, "generating id")
		}
		id = uuid
	}
	delete(fields, store.FieldID)

	if err := s.check(Call{Op: OpInsert, Collection: collection, ID: id}); err != nil {
		return "", err
	}

	s.mu.Lock()
	coll, ok := s.data[collection]
	if !ok {
		coll = map[string]store.Fields{}
		s.data[collection] = coll
	}
	if _, exists := coll[id]; exists {
		s.mu.Unlock()
		return "", errors.Wrapf(store.ErrAlreadyExists, "inserting %s/%s", collection, id)
	}
	coll[id] = fields
	s.order[collection] = append(s.order[collection], id)
	s.mu.Unlock()

	s.hub.Notify(collection)

	return id, nil
}

// Patch replaces the given top-level fields of a document
func (s *Store) Patch(ctx context.Context, collection, id string, fields store.Fields) error {
	if err := s.check(Call{Op: OpPatch, Collection: collection, ID: id}); err != nil {
		return err
	}

	fields = store.NormalizeFields(fields)
	delete(fields, store.FieldID)

	s.mu.Lock()
	cur, ok := s.data[collection][id]
	if !ok {
		s.mu.Unlock()
		return errors.Wrapf(store.ErrNotFound, "patching %s/%s", collection, id)
	}
	for k, v := range fields {
		cur[k] = v
	}
	s.mu.Unlock()

	s.hub.Notify(collection)

	return nil
}

// Remove deletes a document
func (s *Store) Remove(ctx context.Context, collection, id string) error {
	if err := s.check(Call{Op: OpRemove, Collection: collection, ID: id}); err != nil {
		return err
	}

	s.mu.Lock()
	if _, ok := s.data[collection][id]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.data[collection], id)
	ids := s.order[collection]
	for i, v := range ids {
		if v == id {
			s.order[collection] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.hub.Notify(collection)

	return nil
}

// GetByID returns a document, or nil if it does not exist
func (s *Store) GetByID(ctx context.Context, collection, id string) (*store.Document, error) {
	if err := s.check(Call{Op: OpGet, Collection: collection, ID: id}); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.data[collection][id]
	if !ok {
		return nil, nil
	}

	return &store.Document{ID: id, Fields: f.Clone()}, nil
}
