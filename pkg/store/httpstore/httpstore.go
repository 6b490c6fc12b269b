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

// Package httpstore is a store.Store client for the notesync store server.
// Writes and one-shot queries are plain JSON requests; live queries are
// streamed over a websocket.
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/notesync/notesync/pkg/log"
	"github.com/notesync/notesync/pkg/store"
	"github.com/notesync/notesync/pkg/store/wire"
	"github.com/pkg/errors"
)

const (
	// DefaultTimeout bounds every request that is not a live query
	DefaultTimeout = 10 * time.Second

	probeTimeout = 3 * time.Second
	closeTimeout = time.Second
)

// ErrEndpointInvalid is returned when the endpoint is not an absolute http(s) URL
var ErrEndpointInvalid = errors.New("invalid endpoint")

// Params are the parameters of a store client
type Params struct {
	// Endpoint is the base URL of the server, without trailing slash
	Endpoint string
	// HTTPClient defaults to a rate limited client
	HTTPClient *http.Client
	// Dialer defaults to websocket.DefaultDialer
	Dialer *websocket.Dialer
	// Version is sent along every request
	Version string
}

// Store talks to a remote store server
type Store struct {
	endpoint   string
	wsEndpoint string
	version    string
	hc         *http.Client
	dialer     *websocket.Dialer
}

// New returns a client for the server at the given endpoint
func New(p Params) (*Store, error) {
	u, err := url.Parse(p.Endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errors.Wrapf(ErrEndpointInvalid, "'%s'", p.Endpoint)
	}

	endpoint := strings.TrimRight(p.Endpoint, "/")

	hc := p.HTTPClient
	if hc == nil {
		hc = NewRateLimitedHTTPClient(DefaultTimeout)
	}
	dialer := p.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	return &Store{
		endpoint:   endpoint,
		wsEndpoint: "ws" + strings.TrimPrefix(endpoint, "http"),
		version:    p.Version,
		hc:         hc,
		dialer:     dialer,
	}, nil
}

func collectionPath(collection string) string {
	return fmt.Sprintf("/v1/collections/%s", url.PathEscape(collection))
}

func docPath(collection, id string) string {
	return fmt.Sprintf("%s/docs/%s", collectionPath(collection), url.PathEscape(id))
}

// Query runs a one-shot query
func (s *Store) Query(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	var payload wire.DocumentsResponse
	if err := s.doReq(ctx, "POST", collectionPath(collection)+"/query", q, &payload); err != nil {
		return nil, errors.Wrapf(err, "querying %s", collection)
	}

	return store.NormalizeDocuments(payload.Documents), nil
}

// Insert creates a document
func (s *Store) Insert(ctx context.Context, collection string, fields store.Fields) (string, error) {
	var payload wire.InsertResponse
	if err := s.doReq(ctx, "POST", collectionPath(collection)+"/docs", fields, &payload); err != nil {
		return "", errors.Wrapf(err, "inserting into %s", collection)
	}

	return payload.ID, nil
}

// Patch replaces the given top-level fields of a document
func (s *Store) Patch(ctx context.Context, collection, id string, fields store.Fields) error {
	if err := s.doReq(ctx, "PATCH", docPath(collection, id), fields, nil); err != nil {
		return errors.Wrapf(err, "patching %s/%s", collection, id)
	}

	return nil
}

// Remove deletes a document
func (s *Store) Remove(ctx context.Context, collection, id string) error {
	if err := s.doReq(ctx, "DELETE", docPath(collection, id), nil, nil); err != nil {
		return errors.Wrapf(err, "removing %s/%s", collection, id)
	}

	return nil
}

// GetByID returns a document, or nil if it does not exist
func (s *Store) GetByID(ctx context.Context, collection, id string) (*store.Document, error) {
	var doc store.Document
	if err := s.doReq(ctx, "GET", docPath(collection, id), nil, &doc); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "getting %s/%s", collection, id)
	}

	doc.Fields = store.NormalizeFields(doc.Fields)

	return &doc, nil
}

// Probe reports whether the server answers its health check
func (s *Store) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", s.endpoint+"/health", nil)
	if err != nil {
		return false
	}

	res, err := s.hc.Do(req)
	if err != nil {
		return false
	}
	res.Body.Close()

	return res.StatusCode == http.StatusOK
}

// subscription is a live query streamed over a websocket
type subscription struct {
	conn       *websocket.Conn
	collection string
	closed     atomic.Bool
	once       sync.Once
}

// Subscribe opens a live query. The returned disposer does not wait for an
// in-flight callback, so it can be called from within one.
func (s *Store) Subscribe(ctx context.Context, collection string, q store.Query, onSnapshot store.SnapshotFunc, onError store.ErrorFunc) (store.Disposer, error) {
	b, err := json.Marshal(q)
	if err != nil {
		return nil, errors.Wrap(err, "encoding query")
	}

	u := fmt.Sprintf("%s%s/subscribe?%s=%s", s.wsEndpoint, collectionPath(collection), wire.QueryParam, url.QueryEscape(string(b)))

	header := http.Header{}
	if s.version != "" {
		header.Set("Client-Version", s.version)
	}

	conn, res, err := s.dialer.DialContext(ctx, u, header)
	if err != nil {
		if res != nil {
			defer res.Body.Close()
			if respErr := checkRespErr(res); respErr != nil {
				return nil, errors.Wrapf(respErr, "subscribing to %s", collection)
			}
		}
		return nil, errors.Wrapf(store.ErrUnavailable, "subscribing to %s: %v", collection, err)
	}

	sub := &subscription{conn: conn, collection: collection}
	go sub.read(onSnapshot, onError)

	return sub.dispose, nil
}

func (sub *subscription) dispose() {
	sub.once.Do(func() {
		sub.closed.Store(true)

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		sub.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout))
		sub.conn.Close()
	})
}

func (sub *subscription) fail(onError store.ErrorFunc, err error) {
	if sub.closed.Load() {
		return
	}
	sub.dispose()

	log.WithFields(log.Fields{
		"collection": sub.collection,
	}).ErrorWrap(err, "live query ended")

	onError(err)
}

func (sub *subscription) read(onSnapshot store.SnapshotFunc, onError store.ErrorFunc) {
	for {
		_, b, err := sub.conn.ReadMessage()
		if err != nil {
			sub.fail(onError, errors.Wrapf(store.ErrUnavailable, "reading live query: %v", err))
			return
		}

		var m wire.Message
		if err := store.DecodeJSON(bytes.NewReader(b), &m); err != nil {
			sub.fail(onError, errors.Wrap(err, "decoding live query message"))
			return
		}

		switch m.Type {
		case wire.MessageSnapshot:
			if sub.closed.Load() {
				return
			}
			docs := store.NormalizeDocuments(m.Documents)
			onSnapshot(docs)
		case wire.MessageError:
			sub.fail(onError, errors.Wrap(store.ErrUnavailable, m.Message))
			return
		default:
			log.WithFields(log.Fields{
				"type": m.Type,
			}).Warn("Ignoring unknown live query message.")
		}
	}
}
