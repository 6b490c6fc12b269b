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

// Package context defines the notesync CLI context
package context

import (
	"github.com/notesync/notesync/pkg/clock"
	"github.com/notesync/notesync/pkg/notesync"
)

// Paths contain directory definitions
type Paths struct {
	Home   string
	Config string
	Cache  string
}

// NotesyncCtx is a context holding the information of the current runtime
type NotesyncCtx struct {
	Paths       Paths
	APIEndpoint string
	Version     string
	Editor      string
	UserID      string
	Email       string
	Clock       clock.Clock
	Service     *notesync.Service
}

// LoggedIn reports whether an identity is configured
func (ctx NotesyncCtx) LoggedIn() bool {
	return ctx.UserID != ""
}

// Redact replaces private information from the context with a set of
// placeholder values.
func Redact(ctx NotesyncCtx) NotesyncCtx {
	if ctx.Email != "" {
		ctx.Email = "1"
	} else {
		ctx.Email = "0"
	}
	ctx.Service = nil

	return ctx
}
