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

package store

import (
	"context"
	"sync"
)

// RunFunc evaluates a query against the current state of a backend
type RunFunc func(ctx context.Context, collection string, q Query) ([]Document, error)

// Hub fans changes out to live subscriptions. Backends call Notify after
// every write; the hub re-runs the affected queries and delivers the fresh
// result sets. Deliveries to one subscription never overlap, and bursts of
// changes may be coalesced into a single snapshot.
type Hub struct {
	run RunFunc

	mu     sync.Mutex
	subs   map[uint64]*subscription
	nextID uint64
	closed bool
}

type subscription struct {
	id         uint64
	collection string
	query      Query
	onSnapshot SnapshotFunc
	onError    ErrorFunc

	ctx    context.Context
	cancel context.CancelFunc
	signal chan struct{}
}

// NewHub returns a hub that evaluates queries with the given function
func NewHub(run RunFunc) *Hub {
	return &Hub{
		run:  run,
		subs: map[uint64]*subscription{},
	}
}

// Subscribe registers a live query. The first snapshot is delivered
// asynchronously.
func (h *Hub) Subscribe(collection string, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) Disposer {
	ctx, cancel := context.WithCancel(context.Background())

	s := &subscription{
		collection: collection,
		query:      q,
		onSnapshot: onSnapshot,
		onError:    onError,
		ctx:        ctx,
		cancel:     cancel,
		signal:     make(chan struct{}, 1),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		cancel()
		return func() {}
	}
	h.nextID++
	s.id = h.nextID
	h.subs[s.id] = s
	h.mu.Unlock()

	s.poke()
	go h.loop(s)

	return func() {
		h.remove(s)
	}
}

// Notify marks every subscription on the collection as stale
func (h *Hub) Notify(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range h.subs {
		if s.collection == collection {
			s.poke()
		}
	}
}

// Count returns the number of live subscriptions
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs)
}

// Close terminates every subscription
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = map[uint64]*subscription{}
	h.closed = true
	h.mu.Unlock()

	for _, s := range subs {
		s.cancel()
	}
}

func (h *Hub) remove(s *subscription) {
	h.mu.Lock()
	delete(h.subs, s.id)
	h.mu.Unlock()

	s.cancel()
}

func (s *subscription) poke() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (h *Hub) loop(s *subscription) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.signal:
		}

		docs, err := h.run(s.ctx, s.collection, s.query)
		if s.ctx.Err() != nil {
			return
		}
		if err != nil {
			h.remove(s)
			if s.onError != nil {
				s.onError(err)
			}
			return
		}

		s.onSnapshot(docs)
	}
}
