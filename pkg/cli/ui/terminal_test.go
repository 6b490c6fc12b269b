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

package ui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/notesync/notesync/pkg/assert"
)

func TestFormatQuestion(t *testing.T) {
	testCases := []struct {
		question   string
		optimistic bool
		expected   string
	}{
		{
			question:   "Are you sure?",
			optimistic: false,
			expected:   "Are you sure? (y/N)",
		},
		{
			question:   "Continue?",
			optimistic: true,
			expected:   "Continue? (Y/n)",
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			assert.Equal(t, formatQuestion(tc.question, tc.optimistic), tc.expected, "result mismatch")
		})
	}
}

func TestReadYesNo(t *testing.T) {
	testCases := []struct {
		input      string
		optimistic bool
		expected   bool
	}{
		{input: "y\n", optimistic: false, expected: true},
		{input: "Y\n", optimistic: false, expected: true},
		{input: "yes\n", optimistic: false, expected: true},
		{input: "n\n", optimistic: false, expected: false},
		{input: "\n", optimistic: false, expected: false},
		{input: "\n", optimistic: true, expected: true},
		{input: "n\n", optimistic: true, expected: false},
		{input: "  y  \n", optimistic: false, expected: true},
		{input: "y", optimistic: false, expected: true},
		{input: "maybe\n", optimistic: true, expected: false},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			got, err := readYesNo(strings.NewReader(tc.input), tc.optimistic)
			assert.NoError(t, err, "reading answer")
			assert.Equal(t, got, tc.expected, "result mismatch")
		})
	}
}

func TestReadYesNo_EmptyInput(t *testing.T) {
	if _, err := readYesNo(strings.NewReader(""), true); err == nil {
		t.Error("expected an error for a closed input")
	}
}
