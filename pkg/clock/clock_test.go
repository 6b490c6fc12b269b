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

package clock

import (
	"testing"
	"time"

	"github.com/notesync/notesync/pkg/assert"
)

func TestMock(t *testing.T) {
	t.Run("frozen", func(t *testing.T) {
		c := NewMock()
		t1 := c.Now()
		t2 := c.Now()

		assert.Equal(t, t1, t2, "frozen clock moved")
	})

	t.Run("ticking", func(t *testing.T) {
		c := NewTicking(time.Millisecond)
		t1 := c.Now()
		t2 := c.Now()

		assert.Equal(t, t2.Sub(t1), time.Millisecond, "step mismatch")
	})

	t.Run("advance", func(t *testing.T) {
		c := NewMock()
		t1 := c.Now()
		c.Advance(time.Hour)

		assert.Equal(t, c.Now().Sub(t1), time.Hour, "advance mismatch")
	})
}
