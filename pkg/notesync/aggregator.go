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

package notesync

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/notesync/notesync/pkg/log"
	"github.com/notesync/notesync/pkg/models"
	"github.com/notesync/notesync/pkg/store"
	"github.com/pkg/errors"
)

type source int

// Sources in precedence order. When the same note comes from several
// sources, the copy of the earliest one wins.
const (
	sourceOwned source = iota
	sourcePublic
	sourceShared
	sourceCount
)

func (s source) String() string {
	switch s {
	case sourceOwned:
		return "owned"
	case sourcePublic:
		return "public"
	case sourceShared:
		return "shared"
	}

	return "unknown"
}

// OwnedQuery selects the notes owned by the user
func OwnedQuery(uid string) store.Query {
	return store.Query{
		Filters: []store.Filter{store.Where(models.FieldOwnerID, store.OpEqual, uid)},
		Order:   []store.Order{store.OrderBy(models.FieldUpdatedAt, true)},
	}
}

// PublicQuery selects the public notes of everyone but the user. An empty
// uid selects every public note.
func PublicQuery(uid string) store.Query {
	q := store.Query{
		Filters: []store.Filter{store.Where(models.FieldIsPublic, store.OpEqual, true)},
		Order:   []store.Order{store.OrderBy(models.FieldUpdatedAt, true)},
	}
	if uid != "" {
		q.Filters = append(q.Filters, store.Where(models.FieldOwnerID, store.OpNotEqual, uid))
	}

	return q
}

// SharedQuery selects the notes shared with the user
func SharedQuery(uid string) store.Query {
	return store.Query{
		Filters: []store.Filter{store.Where(models.FieldSharedWith, store.OpArrayContains, uid)},
	}
}

func queryFor(s source, uid string) store.Query {
	switch s {
	case sourceOwned:
		return OwnedQuery(uid)
	case sourcePublic:
		return PublicQuery(uid)
	default:
		return SharedQuery(uid)
	}
}

// Merge combines the owned, public and shared result sets into one list
// without duplicates, sorted by most recent update first. A note present in
// several sets is taken from the first set it appears in.
func Merge(owned, public, shared []models.Note) []models.Note {
	seen := map[string]bool{}
	ret := []models.Note{}

	for _, set := range [][]models.Note{owned, public, shared} {
		for _, n := range set {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			ret = append(ret, n.Clone())
		}
	}

	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].UpdatedAt.After(ret[j].UpdatedAt)
	})

	return ret
}

// Aggregator maintains the merged view of the notes visible to a user
type Aggregator struct {
	store store.Store
}

// NewAggregator returns an aggregator reading from the given store
func NewAggregator(s store.Store) *Aggregator {
	return &Aggregator{store: s}
}

type view struct {
	uid string
	cb  func([]models.Note)

	closed atomic.Bool

	// mu is held while the merged view is recomputed and delivered
	mu      sync.Mutex
	buffers [sourceCount][]models.Note

	disposeMu sync.Mutex
	disposers [sourceCount]store.Disposer
}

func (v *view) deliver(src source, notes []models.Note) {
	if v.closed.Load() {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed.Load() {
		return
	}

	v.buffers[src] = notes
	merged := Merge(v.buffers[sourceOwned], v.buffers[sourcePublic], v.buffers[sourceShared])

	v.cb(merged)
}

func (v *view) fail(src source, err error) {
	log.WithFields(log.Fields{
		"uid":    v.uid,
		"source": src.String(),
	}).ErrorWrap(err, "live query failed")

	v.disposeMu.Lock()
	d := v.disposers[src]
	v.disposers[src] = nil
	v.disposeMu.Unlock()

	if d != nil {
		d()
	}
}

func (v *view) dispose() {
	v.closed.Store(true)

	v.disposeMu.Lock()
	disposers := v.disposers
	v.disposers = [sourceCount]store.Disposer{}
	v.disposeMu.Unlock()

	for _, d := range disposers {
		if d != nil {
			d()
		}
	}
}

// Subscribe keeps the callback informed of the notes visible to the user:
// the ones they own, the public ones of others and the ones shared with
// them. The callback is called after every change of any of the three
// result sets, never concurrently. For an anonymous user the public notes
// are fetched once instead.
//
// The returned disposer ends the subscription. It can be called from any
// goroutine, including from the callback.
func (a *Aggregator) Subscribe(ctx context.Context, uid string, cb func([]models.Note)) (store.Disposer, error) {
	v := &view{uid: uid, cb: cb}

	if uid == "" {
		go func() {
			docs, err := a.store.Query(ctx, models.NotesCollection, PublicQuery(""))
			if err != nil {
				log.ErrorWrap(err, "fetching public notes")
				return
			}

			v.deliver(sourcePublic, models.NotesFromDocuments(docs))
		}()

		return v.dispose, nil
	}

	var failures int
	var lastErr error
	for src := source(0); src < sourceCount; src++ {
		src := src

		d, err := a.store.Subscribe(ctx, models.NotesCollection, queryFor(src, uid), func(docs []store.Document) {
			v.deliver(src, models.NotesFromDocuments(docs))
		}, func(err error) {
			v.fail(src, err)
		})
		if err != nil {
			log.WithFields(log.Fields{
				"uid":    uid,
				"source": src.String(),
			}).ErrorWrap(err, "subscribing")

			failures++
			lastErr = err
			continue
		}

		v.disposeMu.Lock()
		if v.closed.Load() {
			v.disposeMu.Unlock()
			d()
			continue
		}
		v.disposers[src] = d
		v.disposeMu.Unlock()
	}

	if failures == int(sourceCount) {
		return nil, remoteError(lastErr, "subscribing to notes")
	}

	return v.dispose, nil
}

// Fetch returns the notes visible to the user once, merged the same way as
// Subscribe does
func (a *Aggregator) Fetch(ctx context.Context, uid string) ([]models.Note, error) {
	if uid == "" {
		docs, err := a.store.Query(ctx, models.NotesCollection, PublicQuery(""))
		if err != nil {
			return nil, remoteError(err, "fetching public notes")
		}

		return Merge(nil, models.NotesFromDocuments(docs), nil), nil
	}

	var results [sourceCount][]models.Note
	var errs [sourceCount]error

	var wg sync.WaitGroup
	for src := source(0); src < sourceCount; src++ {
		wg.Add(1)
		go func(src source) {
			defer wg.Done()

			docs, err := a.store.Query(ctx, models.NotesCollection, queryFor(src, uid))
			if err != nil {
				errs[src] = errors.Wrapf(err, "querying %s notes", src)
				return
			}
			results[src] = models.NotesFromDocuments(docs)
		}(src)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, remoteError(err, "fetching notes")
		}
	}

	return Merge(results[sourceOwned], results[sourcePublic], results[sourceShared]), nil
}
