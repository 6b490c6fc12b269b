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
	"sync/atomic"
	"testing"
	"time"

	"github.com/notesync/notesync/pkg/assert"
	"github.com/notesync/notesync/pkg/clock"
	"github.com/notesync/notesync/pkg/store"
	"github.com/pkg/errors"
)

type testQueue struct {
	*Queue
	executor *recordingExecutor
	online   *atomic.Bool
	changes  *atomic.Int32
}

func newTestQueue(t *testing.T, retryDelay time.Duration) testQueue {
	e := &recordingExecutor{}
	online := &atomic.Bool{}
	changes := &atomic.Int32{}

	q := NewQueue(QueueParams{
		Executor:   e,
		Clock:      clock.NewTicking(time.Millisecond),
		RetryDelay: retryDelay,
		Online:     online.Load,
		OnChange: func() {
			changes.Add(1)
		},
	})
	t.Cleanup(q.Stop)

	return testQueue{Queue: q, executor: e, online: online, changes: changes}
}

func (q testQueue) enqueue(t *testing.T, kind OperationKind, noteID string, seq int) PendingOperation {
	op, err := q.Enqueue(PendingOperation{
		Kind:    kind,
		NoteID:  noteID,
		Payload: store.Fields{"seq": seq},
	})
	assert.NoError(t, err, "enqueueing")

	return op
}

func seqs(ops []PendingOperation) []int64 {
	ret := []int64{}
	for _, op := range ops {
		ret = append(ret, store.Normalize(op.Payload["seq"]).(int64))
	}

	return ret
}

var errRemote = errors.Wrap(store.ErrUnavailable, "patching")

func TestQueue_Enqueue(t *testing.T) {
	q := newTestQueue(t, time.Hour)

	a := q.enqueue(t, OpUpdate, "A", 1)
	b := q.enqueue(t, OpUpdate, "B", 2)

	assert.Equal(t, q.Count(), 2, "count mismatch")
	assert.NotEqual(t, a.ID, "", "id should be assigned")
	assert.Equal(t, a.ID < b.ID, true, "ids should follow enqueue order")
	assert.Equal(t, a.Timestamp.Before(b.Timestamp), true, "timestamps should follow enqueue order")
	assert.Equal(t, q.changes.Load(), int32(2), "every enqueue should be announced")
	assert.Equal(t, q.HasPending("A"), true, "A should be pending")
	assert.Equal(t, q.HasPending("C"), false, "C should not be pending")
	assert.Equal(t, len(q.executor.Applied()), 0, "nothing should be applied while offline")
}

func TestQueue_DrainOrder(t *testing.T) {
	q := newTestQueue(t, time.Hour)

	q.enqueue(t, OpUpdate, "A", 1)
	q.enqueue(t, OpUpdate, "B", 2)
	q.enqueue(t, OpUpdate, "A", 3)

	q.executor.setFail(func(op PendingOperation) error {
		if store.Normalize(op.Payload["seq"]) == int64(3) {
			return errRemote
		}
		return nil
	})

	q.online.Store(true)
	err := q.Drain(context.Background())
	assert.ErrorIs(t, err, store.ErrUnavailable, "drain should report the failure")

	assert.DeepEqual(t, seqs(q.executor.Applied()), []int64{1, 2}, "applied operations mismatch")
	assert.DeepEqual(t, seqs(q.Pending()), []int64{3}, "the failed operation should remain alone")

	q.executor.setFail(nil)
	assert.NoError(t, q.Drain(context.Background()), "draining again")

	assert.DeepEqual(t, seqs(q.executor.Applied()), []int64{1, 2, 3}, "operations should be applied once each")
	assert.Equal(t, q.Count(), 0, "queue should be empty")
}

func TestQueue_DrainStopsWhenOffline(t *testing.T) {
	q := newTestQueue(t, time.Hour)

	q.enqueue(t, OpCreate, "A", 1)
	q.enqueue(t, OpCreate, "B", 2)

	q.executor.setFail(func(op PendingOperation) error {
		q.online.Store(false)
		return nil
	})
	q.online.Store(true)

	assert.NoError(t, q.Drain(context.Background()), "draining")
	assert.DeepEqual(t, seqs(q.Pending()), []int64{2}, "drain should stop once offline")
}

func TestQueue_PermanentFailureStaysQueued(t *testing.T) {
	q := newTestQueue(t, time.Hour)

	q.enqueue(t, OpUpdate, "gone", 1)
	q.enqueue(t, OpUpdate, "B", 2)

	q.executor.setFail(func(op PendingOperation) error {
		if op.NoteID == "gone" {
			return ErrNoteNotFound
		}
		return nil
	})
	q.online.Store(true)

	assert.ErrorIs(t, q.Drain(context.Background()), ErrNoteNotFound, "first attempt")
	assert.Equal(t, len(q.executor.Applied()), 0, "nothing should be applied past the failed operation")
	assert.DeepEqual(t, seqs(q.Pending()), []int64{1, 2}, "failed operation should stay at the head")
	assert.Equal(t, q.Stalled(), false, "one failed attempt is not a stall")

	assert.ErrorIs(t, q.Drain(context.Background()), ErrNoteNotFound, "second attempt")
	assert.Equal(t, q.Stalled(), true, "queue should be stalled")

	q.Clear()
	assert.Equal(t, q.Count(), 0, "clearing should discard the failed operation")
	assert.Equal(t, q.Stalled(), false, "clearing should end the stall")
}

func TestQueue_EnqueueOnlineDrains(t *testing.T) {
	q := newTestQueue(t, time.Hour)
	q.online.Store(true)

	q.enqueue(t, OpDelete, "A", 1)

	assert.Eventually(t, waitTimeout, func() bool {
		return q.Count() == 0
	}, "operation should be applied in the background")
	assert.DeepEqual(t, seqs(q.executor.Applied()), []int64{1}, "applied operations mismatch")
}

func TestQueue_Retry(t *testing.T) {
	q := newTestQueue(t, 20*time.Millisecond)

	q.enqueue(t, OpUpdate, "A", 1)

	var attempts atomic.Int32
	q.executor.setFail(func(op PendingOperation) error {
		if attempts.Add(1) == 1 {
			return errRemote
		}
		return nil
	})
	q.online.Store(true)

	assert.ErrorIs(t, q.Drain(context.Background()), store.ErrUnavailable, "first attempt should fail")

	assert.Eventually(t, waitTimeout, func() bool {
		return q.Count() == 0
	}, "retry should apply the operation")
	assert.Equal(t, attempts.Load(), int32(2), "attempt count mismatch")
}

func TestQueue_Stalled(t *testing.T) {
	q := newTestQueue(t, time.Hour)

	q.enqueue(t, OpUpdate, "A", 1)
	q.executor.setFail(func(op PendingOperation) error {
		return errRemote
	})
	q.online.Store(true)

	q.Drain(context.Background())
	assert.Equal(t, q.Stalled(), false, "one failed attempt is not a stall")

	q.Drain(context.Background())
	assert.Equal(t, q.Stalled(), true, "two failed attempts in a row are a stall")

	q.executor.setFail(nil)
	assert.NoError(t, q.Drain(context.Background()), "draining")
	assert.Equal(t, q.Stalled(), false, "progress should clear the stall")
}

func TestQueue_Clear(t *testing.T) {
	q := newTestQueue(t, time.Hour)

	q.enqueue(t, OpUpdate, "A", 1)
	q.enqueue(t, OpUpdate, "B", 2)
	before := q.changes.Load()

	q.Clear()

	assert.Equal(t, q.Count(), 0, "queue should be empty")
	assert.Equal(t, q.changes.Load(), before+1, "clear should be announced")

	q.online.Store(true)
	assert.NoError(t, q.Drain(context.Background()), "draining")
	assert.Equal(t, len(q.executor.Applied()), 0, "cleared operations should not be applied")
}

func TestExecute_UnknownKind(t *testing.T) {
	err := Execute(context.Background(), &recordingExecutor{}, PendingOperation{Kind: "rename"})

	assert.ErrorIs(t, err, ErrValidation, "error mismatch")
	assert.Equal(t, IsPermanent(err), true, "unknown operations can never be applied")
}
