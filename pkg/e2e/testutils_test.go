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

package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/notesync/notesync/pkg/notesync"
	"github.com/notesync/notesync/pkg/server/controllers"
	"github.com/notesync/notesync/pkg/store/httpstore"
	"github.com/notesync/notesync/pkg/store/sqlstore"
	"github.com/pkg/errors"
)

// testServer is a store server backed by sqlite that can be made
// unreachable
type testServer struct {
	*httptest.Server
	down atomic.Bool
}

func (s *testServer) setDown(down bool) {
	s.down.Store(down)
}

func newTestServer(t *testing.T) *testServer {
	st, err := sqlstore.Open(sqlstore.DriverSqlite, filepath.Join(t.TempDir(), "e2e.db"))
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening sqlstore"))
	}
	t.Cleanup(func() {
		st.Close()
	})

	ctl := controllers.New(st)
	r, err := controllers.NewRouter(controllers.RouteConfig{
		Routes:      controllers.NewRoutes(ctl),
		Controllers: ctl,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "initializing router"))
	}

	ts := &testServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if ts.down.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		r.ServeHTTP(w, req)
	}))
	t.Cleanup(ts.Close)

	return ts
}

// newClient returns a started service talking to the server
func newClient(t *testing.T, server *testServer) *notesync.Service {
	st, err := httpstore.New(httpstore.Params{
		Endpoint: server.URL,
		Version:  "e2e",
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "initializing httpstore"))
	}

	svc, err := notesync.New(notesync.Params{
		Store:         st,
		Prober:        st,
		RetryDelay:    100 * time.Millisecond,
		ProbeInterval: time.Second,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "initializing service"))
	}
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "starting service"))
	}
	t.Cleanup(func() {
		svc.Stop(context.Background())
	})

	return svc
}
