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

package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/notesync/notesync/pkg/assert"
	"github.com/notesync/notesync/pkg/cli/context"
	"github.com/pkg/errors"
)

func TestReadWrite(t *testing.T) {
	ctx := context.NotesyncCtx{
		Paths: context.Paths{Config: t.TempDir()},
	}

	cf := Config{
		Editor:        "vim",
		APIEndpoint:   "http://127.0.0.1:3001",
		UserID:        "u1",
		Email:         "alice@example.com",
		RetryDelay:    "2s",
		ProbeInterval: "30s",
	}

	if err := Write(ctx, cf); err != nil {
		t.Fatal(errors.Wrap(err, "writing config"))
	}

	got, err := Read(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading config"))
	}

	assert.DeepEqual(t, got, cf, "config mismatch")
}

func TestRead_Missing(t *testing.T) {
	ctx := context.NotesyncCtx{
		Paths: context.Paths{Config: t.TempDir()},
	}

	if _, err := Read(ctx); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestDurations(t *testing.T) {
	testCases := []struct {
		retryDelay    string
		probeInterval string
		expectedRetry time.Duration
		expectedProbe time.Duration
		expectErr     bool
	}{
		{
			expectedRetry: 5 * time.Second,
			expectedProbe: 5 * time.Second,
		},
		{
			retryDelay:    "1m",
			probeInterval: "10s",
			expectedRetry: time.Minute,
			expectedProbe: 10 * time.Second,
		},
		{
			retryDelay: "soon",
			expectErr:  true,
		},
		{
			retryDelay: "-1s",
			expectErr:  true,
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			cf := Config{RetryDelay: tc.retryDelay, ProbeInterval: tc.probeInterval}

			retry, err := cf.GetRetryDelay()
			if tc.expectErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			assert.NoError(t, err, "getting retry delay")

			probe, err := cf.GetProbeInterval()
			assert.NoError(t, err, "getting probe interval")

			assert.Equal(t, retry, tc.expectedRetry, "retry delay mismatch")
			assert.Equal(t, probe, tc.expectedProbe, "probe interval mismatch")
		})
	}
}
