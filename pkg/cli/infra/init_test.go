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

package infra

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/notesync/notesync/pkg/assert"
	"github.com/notesync/notesync/pkg/cli/config"
	"github.com/notesync/notesync/pkg/dirs"
	"github.com/notesync/notesync/pkg/log"
	"github.com/notesync/notesync/pkg/server/controllers"
	"github.com/notesync/notesync/pkg/store/memstore"
	"github.com/pkg/errors"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func setupDirs(t *testing.T) string {
	t.Cleanup(dirs.Reload)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmpDir, "cache"))
	t.Setenv("EDITOR", "nano")
	dirs.Reload()

	return tmpDir
}

func TestInit(t *testing.T) {
	tmpDir := setupDirs(t)

	server := controllers.MustNewServer(t, memstore.New())
	defer server.Close()

	ctx, err := Init("1.0.0", server.URL, "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "initializing"))
	}
	defer Close(ctx)

	assert.Equal(t, ctx.Paths.Config, filepath.Join(tmpDir, "config", "notesync"), "config path mismatch")
	assert.Equal(t, ctx.Paths.Cache, filepath.Join(tmpDir, "cache", "notesync"), "cache path mismatch")
	assert.Equal(t, ctx.APIEndpoint, server.URL, "endpoint mismatch")
	assert.Equal(t, ctx.Editor, "nano", "editor mismatch")
	assert.Equal(t, ctx.Version, "1.0.0", "version mismatch")
	assert.Equal(t, ctx.LoggedIn(), false, "should not be logged in")
	assert.Equal(t, ctx.Service.Online(), true, "service should be online")

	cf, err := config.Read(*ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading config"))
	}
	assert.Equal(t, cf.APIEndpoint, server.URL, "persisted endpoint mismatch")
}

func TestInit_ExistingConfig(t *testing.T) {
	setupDirs(t)

	server := controllers.MustNewServer(t, memstore.New())
	defer server.Close()

	base := newBaseCtx("1.0.0")
	if err := dirs.Ensure(); err != nil {
		t.Fatal(errors.Wrap(err, "creating dirs"))
	}
	if err := config.Write(base, config.Config{
		Editor:      "vim",
		APIEndpoint: server.URL,
		UserID:      "u1",
		Email:       "alice@example.com",
	}); err != nil {
		t.Fatal(errors.Wrap(err, "writing config"))
	}

	ctx, err := Init("1.0.0", "http://ignored.example.com", "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "initializing"))
	}
	defer Close(ctx)

	assert.Equal(t, ctx.APIEndpoint, server.URL, "endpoint mismatch")
	assert.Equal(t, ctx.Editor, "vim", "editor mismatch")
	assert.Equal(t, ctx.UserID, "u1", "user id mismatch")
	assert.Equal(t, ctx.Email, "alice@example.com", "email mismatch")
	assert.Equal(t, ctx.LoggedIn(), true, "should be logged in")
}

func TestInit_ServerDown(t *testing.T) {
	setupDirs(t)

	server := controllers.MustNewServer(t, memstore.New())
	endpoint := server.URL
	server.Close()

	ctx, err := Init("1.0.0", endpoint, "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "initializing"))
	}

	assert.Equal(t, ctx.Service.Online(), false, "service should be offline")

	pending := Close(ctx)
	assert.Equal(t, len(pending), 0, "pending mismatch")
}

func TestInit_EndpointOverride(t *testing.T) {
	setupDirs(t)

	server := controllers.MustNewServer(t, memstore.New())
	defer server.Close()

	ctx, err := Init("1.0.0", "http://127.0.0.1:1", server.URL)
	if err != nil {
		t.Fatal(errors.Wrap(err, "initializing"))
	}
	defer Close(ctx)

	assert.Equal(t, ctx.APIEndpoint, server.URL, "endpoint mismatch")
	assert.Equal(t, ctx.Service.Online(), true, "service should be online")

	cf, err := config.Read(*ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading config"))
	}
	assert.Equal(t, cf.APIEndpoint, "http://127.0.0.1:1", "override should not be persisted")
}

func TestClose_Nil(t *testing.T) {
	assert.Equal(t, len(Close(nil)), 0, "pending mismatch")
}
