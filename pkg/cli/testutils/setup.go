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

// Package testutils provides utilities used in tests of the CLI commands
package testutils

import (
	gocontext "context"
	"testing"
	"time"

	"github.com/notesync/notesync/pkg/cli/config"
	"github.com/notesync/notesync/pkg/cli/context"
	"github.com/notesync/notesync/pkg/clock"
	"github.com/notesync/notesync/pkg/models"
	"github.com/notesync/notesync/pkg/notesync"
	"github.com/notesync/notesync/pkg/store/memstore"
	"github.com/pkg/errors"
)

// Alice is the identity the test contexts are logged in as
var Alice = models.UserEntry{UID: "u-alice", Email: "alice@example.com"}

// Bob is a second registered identity
var Bob = models.UserEntry{UID: "u-bob", Email: "bob@example.com"}

// InitCtx returns a context logged in as Alice, backed by a service over the
// given in-memory store. Alice and Bob are registered in the user directory.
func InitCtx(t *testing.T, mem *memstore.Store) context.NotesyncCtx {
	t.Helper()

	c := clock.NewTicking(time.Second)
	svc, err := notesync.New(notesync.Params{
		Store: mem,
		Clock: c,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "initializing service"))
	}
	if err := svc.Start(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "starting service"))
	}
	t.Cleanup(func() {
		svc.Stop(gocontext.Background())
	})

	for _, u := range []models.UserEntry{Alice, Bob} {
		if _, err := svc.SaveUserProfile(gocontext.Background(), u); err != nil {
			t.Fatal(errors.Wrapf(err, "registering %s", u.Email))
		}
	}

	ctx := context.NotesyncCtx{
		Paths: context.Paths{
			Config: t.TempDir(),
			Cache:  t.TempDir(),
		},
		APIEndpoint: "http://127.0.0.1:3001",
		Version:     "test",
		Editor:      "cat",
		UserID:      Alice.UID,
		Email:       Alice.Email,
		Clock:       c,
		Service:     svc,
	}

	if err := config.Write(ctx, config.Config{
		Editor:      ctx.Editor,
		APIEndpoint: ctx.APIEndpoint,
		UserID:      ctx.UserID,
		Email:       ctx.Email,
	}); err != nil {
		t.Fatal(errors.Wrap(err, "writing config"))
	}

	return ctx
}

// MustAddNote adds a note owned by the logged in user of the context
func MustAddNote(t *testing.T, ctx context.NotesyncCtx, title, content string) models.Note {
	t.Helper()

	n, err := ctx.Service.AddNote(gocontext.Background(), notesync.NoteParams{
		Title:      title,
		Content:    content,
		OwnerID:    ctx.UserID,
		OwnerEmail: ctx.Email,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "adding note"))
	}

	return n
}

// AsUser returns a copy of the context logged in as the given identity
func AsUser(ctx context.NotesyncCtx, u models.UserEntry) context.NotesyncCtx {
	ctx.UserID = u.UID
	ctx.Email = u.Email

	return ctx
}
