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
	"sort"
	"sync"
	"sync/atomic"

	"github.com/notesync/notesync/pkg/log"
	"github.com/pkg/errors"
)

// Status is the coarse synchronization state shown to users
type Status string

const (
	// StatusSynced means online with nothing pending
	StatusSynced Status = "synced"
	// StatusSyncing means online with operations pending
	StatusSyncing Status = "syncing"
	// StatusOffline means disconnected, whatever is pending
	StatusOffline Status = "offline"
	// StatusError means online but the pending operations cannot be applied
	StatusError Status = "error"
)

// ComputeStatus derives the status from connectivity and queue state
func ComputeStatus(online bool, pending int, stalled bool) Status {
	if !online {
		return StatusOffline
	}
	if stalled {
		return StatusError
	}
	if pending > 0 {
		return StatusSyncing
	}

	return StatusSynced
}

type statusSubscriber struct {
	id        int
	fn        func(Status)
	last      Status
	cancelled atomic.Bool
}

// StatusPublisher fans the status out to subscribers. A subscriber receives
// the current status when it subscribes and then every change, in order and
// never twice in a row for the same status.
type StatusPublisher struct {
	compute func() Status

	mu         sync.Mutex
	current    Status
	subs       map[int]*statusSubscriber
	nextID     int
	dirty      bool
	delivering bool
}

// NewStatusPublisher returns a publisher that derives the status with the
// given function
func NewStatusPublisher(compute func() Status) *StatusPublisher {
	return &StatusPublisher{
		compute: compute,
		subs:    map[int]*statusSubscriber{},
	}
}

// Current returns the status
func (p *StatusPublisher) Current() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = p.compute()

	return p.current
}

// Subscribe registers a callback and delivers the current status to it
func (p *StatusPublisher) Subscribe(fn func(Status)) func() {
	p.mu.Lock()
	p.nextID++
	s := &statusSubscriber{id: p.nextID, fn: fn}
	p.subs[s.id] = s
	p.current = p.compute()
	p.mu.Unlock()

	p.flush()

	return func() {
		s.cancelled.Store(true)

		p.mu.Lock()
		delete(p.subs, s.id)
		p.mu.Unlock()
	}
}

// Refresh recomputes the status and notifies subscribers if it changed
func (p *StatusPublisher) Refresh() {
	p.mu.Lock()
	p.current = p.compute()
	p.mu.Unlock()

	p.flush()
}

// flush delivers the current status to every subscriber that has not seen it.
// A single goroutine delivers at a time; a flush requested during delivery,
// including from a callback, is carried out by the delivering goroutine.
func (p *StatusPublisher) flush() {
	p.mu.Lock()
	p.dirty = true
	if p.delivering {
		p.mu.Unlock()
		return
	}
	p.delivering = true

	for p.dirty {
		p.dirty = false
		status := p.current

		var due []*statusSubscriber
		for _, s := range p.subs {
			if s.last != status {
				s.last = status
				due = append(due, s)
			}
		}
		sort.Slice(due, func(i, j int) bool { return due[i].id < due[j].id })
		p.mu.Unlock()

		for _, s := range due {
			if !s.cancelled.Load() {
				call(s.fn, status)
			}
		}

		p.mu.Lock()
	}

	p.delivering = false
	p.mu.Unlock()
}

func call(fn func(Status), status Status) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"status": status,
			}).ErrorWrap(errors.Errorf("%v", r), "status callback panicked")
		}
	}()

	fn(status)
}
