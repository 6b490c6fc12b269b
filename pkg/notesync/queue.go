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
	"sync"
	"time"

	"github.com/notesync/notesync/pkg/clock"
	"github.com/notesync/notesync/pkg/helpers"
	"github.com/notesync/notesync/pkg/log"
	"github.com/notesync/notesync/pkg/store"
	"github.com/pkg/errors"
)

// DefaultRetryDelay is the delay before a failed drain is attempted again
const DefaultRetryDelay = 5 * time.Second

// stallThreshold is the number of consecutive drain attempts without
// progress after which the queue is reported as stalled
const stallThreshold = 2

// OperationKind is the kind of a deferred mutation
type OperationKind string

const (
	// OpCreate inserts a note
	OpCreate OperationKind = "create"
	// OpUpdate patches the content of a note
	OpUpdate OperationKind = "update"
	// OpDelete removes a note
	OpDelete OperationKind = "delete"
	// OpFavorite patches the favorite flag of a note
	OpFavorite OperationKind = "favorite"
	// OpShare patches the access list of a note
	OpShare OperationKind = "share"
	// OpUnshare patches the access list of a note
	OpUnshare OperationKind = "unshare"
)

// PendingOperation is a mutation waiting to be applied to the store
type PendingOperation struct {
	ID        string        `json:"id"`
	Kind      OperationKind `json:"kind"`
	NoteID    string        `json:"noteId,omitempty"`
	ActorID   string        `json:"actorId,omitempty"`
	Payload   store.Fields  `json:"payload,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// OperationExecutor applies pending operations to the store
type OperationExecutor interface {
	Create(ctx context.Context, op PendingOperation) error
	Update(ctx context.Context, op PendingOperation) error
	Delete(ctx context.Context, op PendingOperation) error
	Favorite(ctx context.Context, op PendingOperation) error
	Share(ctx context.Context, op PendingOperation) error
	Unshare(ctx context.Context, op PendingOperation) error
}

// Execute dispatches the operation to the executor method of its kind
func Execute(ctx context.Context, e OperationExecutor, op PendingOperation) error {
	switch op.Kind {
	case OpCreate:
		return e.Create(ctx, op)
	case OpUpdate:
		return e.Update(ctx, op)
	case OpDelete:
		return e.Delete(ctx, op)
	case OpFavorite:
		return e.Favorite(ctx, op)
	case OpShare:
		return e.Share(ctx, op)
	case OpUnshare:
		return e.Unshare(ctx, op)
	}

	return validationError(errors.Errorf("unknown operation kind %q", op.Kind))
}

// QueueParams configures a Queue
type QueueParams struct {
	Executor   OperationExecutor
	Clock      clock.Clock
	RetryDelay time.Duration
	// Online reports whether a drain can be attempted
	Online func() bool
	// OnChange is called after every change of the queue contents or health
	OnChange func()
}

// Queue holds mutations deferred while offline and replays them in order
type Queue struct {
	executor   OperationExecutor
	clock      clock.Clock
	retryDelay time.Duration
	online     func() bool
	onChange   func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	ops      []PendingOperation
	draining bool
	rerun    bool
	done     chan struct{}
	lastErr  error
	stalls   int
	timer    *time.Timer
	stopped  bool
}

// NewQueue returns an empty queue
func NewQueue(p QueueParams) *Queue {
	ctx, cancel := context.WithCancel(context.Background())

	q := &Queue{
		executor:   p.Executor,
		clock:      p.Clock,
		retryDelay: p.RetryDelay,
		online:     p.Online,
		onChange:   p.OnChange,
		ctx:        ctx,
		cancel:     cancel,
	}
	if q.clock == nil {
		q.clock = clock.New()
	}
	if q.retryDelay <= 0 {
		q.retryDelay = DefaultRetryDelay
	}
	if q.online == nil {
		q.online = func() bool { return true }
	}

	return q
}

func (q *Queue) notify() {
	if q.onChange != nil {
		q.onChange()
	}
}

// Enqueue appends an operation, assigning its id and timestamp, and starts a
// drain in the background if online
func (q *Queue) Enqueue(op PendingOperation) (PendingOperation, error) {
	now := q.clock.Now()

	id, err := helpers.GenULID(now)
	if err != nil {
		return op, errors.Wrap(err, "generating operation id")
	}
	op.ID = id
	op.Timestamp = now

	q.mu.Lock()
	q.ops = append(q.ops, op)
	count := len(q.ops)
	q.mu.Unlock()

	log.WithFields(log.Fields{
		"id":      op.ID,
		"kind":    op.Kind,
		"note_id": op.NoteID,
		"pending": count,
	}).Debug("Enqueued operation.")

	q.notify()

	if q.online() {
		q.DrainAsync()
	}

	return op, nil
}

// Count returns the number of pending operations
func (q *Queue) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.ops)
}

// Pending returns a copy of the pending operations in replay order
func (q *Queue) Pending() []PendingOperation {
	q.mu.Lock()
	defer q.mu.Unlock()

	ret := make([]PendingOperation, len(q.ops))
	copy(ret, q.ops)

	return ret
}

// HasPending reports whether an operation on the note is waiting
func (q *Queue) HasPending(noteID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, op := range q.ops {
		if op.NoteID == noteID {
			return true
		}
	}

	return false
}

// Stalled reports whether the last drain attempts could not make progress
func (q *Queue) Stalled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.stalls >= stallThreshold && len(q.ops) > 0
}

// Clear discards every pending operation
func (q *Queue) Clear() {
	q.mu.Lock()
	n := len(q.ops)
	q.ops = nil
	q.stalls = 0
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.mu.Unlock()

	log.WithFields(log.Fields{
		"count": n,
	}).Info("Cleared pending operations.")

	q.notify()
}

// DrainAsync starts a drain in the background
func (q *Queue) DrainAsync() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.wg.Add(1)
	q.mu.Unlock()

	go func() {
		defer q.wg.Done()

		if err := q.Drain(q.ctx); err != nil {
			log.WithFields(log.Fields{
				"pending": q.Count(),
			}).Debug("Drain stopped on failure.")
		}
	}()
}

// Drain applies pending operations in order until the queue is empty or an
// operation fails. A failure schedules another attempt after the retry
// delay and is returned. Only one drain runs at a time: a drain requested
// while another is running makes the running one go over the queue once
// more, and waits for it.
func (q *Queue) Drain(ctx context.Context) error {
	q.mu.Lock()
	if q.draining {
		q.rerun = true
		done := q.done
		q.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}

		q.mu.Lock()
		defer q.mu.Unlock()

		return q.lastErr
	}
	q.draining = true
	q.done = make(chan struct{})
	q.mu.Unlock()

	var err error
	for {
		var progressed, attempted bool
		progressed, attempted, err = q.drainOnce(ctx)

		q.mu.Lock()
		if progressed || len(q.ops) == 0 {
			q.stalls = 0
		} else if attempted && err != nil {
			q.stalls++
		}
		again := q.rerun
		q.rerun = false
		if !again {
			q.draining = false
			q.lastErr = err
			close(q.done)
		}
		q.mu.Unlock()

		if !again {
			break
		}
	}

	q.notify()

	return err
}

func (q *Queue) head() (PendingOperation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped || len(q.ops) == 0 {
		return PendingOperation{}, false
	}

	return q.ops[0], true
}

func (q *Queue) remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, op := range q.ops {
		if op.ID == id {
			q.ops = append(q.ops[:i:i], q.ops[i+1:]...)
			return
		}
	}
}

func (q *Queue) drainOnce(ctx context.Context) (progressed, attempted bool, err error) {
	for {
		if !q.online() {
			return progressed, attempted, nil
		}

		op, ok := q.head()
		if !ok {
			return progressed, attempted, nil
		}
		attempted = true

		err := Execute(ctx, q.executor, op)
		if err != nil {
			// the operation stays at the head until it is applied or the
			// queue is cleared
			log.WithFields(log.Fields{
				"id":        op.ID,
				"kind":      op.Kind,
				"note_id":   op.NoteID,
				"permanent": IsPermanent(err),
			}).ErrorWrap(err, "applying pending operation")

			q.scheduleRetry()
			return progressed, attempted, err
		}

		q.remove(op.ID)
		progressed = true
		q.notify()
	}
}

func (q *Queue) scheduleRetry() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return
	}
	if q.timer != nil {
		q.timer.Stop()
	}

	q.timer = time.AfterFunc(q.retryDelay, func() {
		if q.online() && q.Count() > 0 {
			q.DrainAsync()
		}
	})
}

// Stop cancels the retry timer and waits for background drains. Pending
// operations are kept.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
}
