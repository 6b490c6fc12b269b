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

package httpstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/notesync/notesync/pkg/assert"
	"github.com/notesync/notesync/pkg/log"
	"github.com/notesync/notesync/pkg/server/controllers"
	"github.com/notesync/notesync/pkg/store"
	"github.com/notesync/notesync/pkg/store/memstore"
	"github.com/notesync/notesync/pkg/store/storetest"
	"github.com/notesync/notesync/pkg/store/wire"
	"github.com/pkg/errors"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)

	os.Exit(m.Run())
}

func setupStore(t *testing.T) (*Store, *memstore.Store, *httptest.Server) {
	mem := memstore.New()
	server := controllers.MustNewServer(t, mem)

	s, err := New(Params{Endpoint: server.URL, Version: "test"})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating client"))
	}

	t.Cleanup(func() {
		server.Close()
		mem.Close()
	})

	return s, mem, server
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) (store.Store, func()) {
		mem := memstore.New()
		server := controllers.MustNewServer(t, mem)

		s, err := New(Params{Endpoint: server.URL})
		if err != nil {
			t.Fatal(errors.Wrap(err, "creating client"))
		}

		return s, func() {
			server.Close()
			mem.Close()
		}
	})
}

func TestNew_InvalidEndpoint(t *testing.T) {
	testCases := []string{
		"",
		"localhost:3001",
		"ftp://example.com",
		"http://",
	}

	for _, endpoint := range testCases {
		t.Run(endpoint, func(t *testing.T) {
			_, err := New(Params{Endpoint: endpoint})
			assert.ErrorIs(t, err, ErrEndpointInvalid, "error mismatch")
		})
	}
}

func TestNew_TrailingSlash(t *testing.T) {
	s, err := New(Params{Endpoint: "https://example.com/api/"})
	assert.NoError(t, err, "creating client")

	assert.Equal(t, s.endpoint, "https://example.com/api", "endpoint mismatch")
	assert.Equal(t, s.wsEndpoint, "wss://example.com/api", "websocket endpoint mismatch")
}

func TestProbe(t *testing.T) {
	s, _, server := setupStore(t)

	assert.Equal(t, s.Probe(context.Background()), true, "server should be reachable")

	server.Close()
	assert.Equal(t, s.Probe(context.Background()), false, "closed server should be unreachable")
}

func TestUnavailable(t *testing.T) {
	s, _, server := setupStore(t)
	server.Close()

	ctx := context.Background()

	_, err := s.Query(ctx, "notes", store.Query{})
	assert.ErrorIs(t, err, store.ErrUnavailable, "query")

	_, err = s.Insert(ctx, "notes", store.Fields{"title": "hello"})
	assert.ErrorIs(t, err, store.ErrUnavailable, "insert")

	_, err = s.Subscribe(ctx, "notes", store.Query{}, func([]store.Document) {}, func(error) {})
	assert.ErrorIs(t, err, store.ErrUnavailable, "subscribe")

	assert.Equal(t, store.IsTransient(err), true, "unavailability should be transient")
}

func TestServerFailure(t *testing.T) {
	s, mem, _ := setupStore(t)
	mem.SetFailure(func(c memstore.Call) error {
		return errors.New("disk on fire")
	})

	_, err := s.Query(context.Background(), "notes", store.Query{})
	assert.ErrorIs(t, err, store.ErrUnavailable, "query should be unavailable")

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected an HTTPError, got %v", err)
	}
	assert.Equal(t, httpErr.StatusCode, http.StatusInternalServerError, "status code mismatch")
}

func TestHTTPError_Unwrap(t *testing.T) {
	testCases := []struct {
		statusCode int
		expected   error
	}{
		{statusCode: http.StatusNotFound, expected: store.ErrNotFound},
		{statusCode: http.StatusConflict, expected: store.ErrAlreadyExists},
		{statusCode: http.StatusTooManyRequests, expected: store.ErrUnavailable},
		{statusCode: http.StatusBadGateway, expected: store.ErrUnavailable},
		{statusCode: http.StatusBadRequest, expected: nil},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			err := &HTTPError{StatusCode: tc.statusCode}

			assert.Equal(t, err.Unwrap(), tc.expected, "unwrapped error mismatch")
		})
	}
}

func TestContentTypeMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	s, err := New(Params{Endpoint: server.URL})
	assert.NoError(t, err, "creating client")

	_, err = s.Query(context.Background(), "notes", store.Query{})
	assert.ErrorIs(t, err, ErrContentTypeMismatch, "error mismatch")
}

func TestSubscribe_DisposeFromCallback(t *testing.T) {
	s, mem, _ := setupStore(t)

	var dispose store.Disposer
	ready := make(chan struct{})
	delivered := make(chan struct{}, 8)

	d, err := s.Subscribe(context.Background(), "notes", store.Query{}, func(docs []store.Document) {
		<-ready
		dispose()
		delivered <- struct{}{}
	}, func(err error) {
		t.Errorf("unexpected error: %v", err)
	})
	assert.NoError(t, err, "subscribing")
	dispose = d
	close(ready)

	select {
	case <-delivered:
	case <-time.After(3 * time.Second):
		t.Fatal("snapshot not delivered")
	}

	assert.Eventually(t, 3*time.Second, func() bool {
		return mem.SubscriptionCount() == 0
	}, "server side subscription should be released")

	_, err = mem.Insert(context.Background(), "notes", store.Fields{"title": "after"})
	assert.NoError(t, err, "inserting")

	select {
	case <-delivered:
		t.Error("no snapshot should be delivered after dispose")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribe_RemoteError(t *testing.T) {
	s, mem, _ := setupStore(t)
	mem.SetFailure(func(c memstore.Call) error {
		if c.Op == memstore.OpSnapshot {
			return errors.New("index corrupted")
		}
		return nil
	})

	errCh := make(chan error, 1)
	_, err := s.Subscribe(context.Background(), "notes", store.Query{}, func([]store.Document) {
		t.Error("no snapshot expected")
	}, func(err error) {
		errCh <- err
	})
	assert.NoError(t, err, "subscribing")

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, store.ErrUnavailable, "error mismatch")
	case <-time.After(3 * time.Second):
		t.Fatal("error not delivered")
	}
}

func TestSubscribe_ConnectionLost(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.WriteJSON(wire.Message{Type: wire.MessageSnapshot})
		conn.Close()
	}))
	defer server.Close()

	s, err := New(Params{Endpoint: server.URL})
	assert.NoError(t, err, "creating client")

	snapshots := make(chan int, 8)
	errCh := make(chan error, 1)
	_, err = s.Subscribe(context.Background(), "notes", store.Query{}, func(docs []store.Document) {
		snapshots <- len(docs)
	}, func(err error) {
		errCh <- err
	})
	assert.NoError(t, err, "subscribing")

	select {
	case n := <-snapshots:
		assert.Equal(t, n, 0, "snapshot should be empty")
	case <-time.After(3 * time.Second):
		t.Fatal("snapshot not delivered")
	}

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, store.ErrUnavailable, "error mismatch")
	case <-time.After(3 * time.Second):
		t.Fatal("error not delivered")
	}
}
