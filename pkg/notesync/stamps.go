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
	"sync"
	"time"

	"github.com/notesync/notesync/pkg/clock"
)

// stamper hands out modification times that strictly increase per note,
// even when the clock does not move between two mutations
type stamper struct {
	clock clock.Clock

	mu   sync.Mutex
	last map[string]time.Time
}

func newStamper(c clock.Clock) *stamper {
	return &stamper{
		clock: c,
		last:  map[string]time.Time{},
	}
}

// next returns the time of a new mutation of the note whose current
// modification time is prev
func (s *stamper) next(noteID string, prev time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	floor := prev
	if l, ok := s.last[noteID]; ok && l.After(floor) {
		floor = l
	}

	t := s.clock.Now().UTC()
	if !t.After(floor) {
		t = floor.Add(time.Nanosecond)
	}
	s.last[noteID] = t

	return t
}

func (s *stamper) forget(noteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.last, noteID)
}
