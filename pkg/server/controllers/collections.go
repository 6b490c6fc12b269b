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

package controllers

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/notesync/notesync/pkg/log"
	"github.com/notesync/notesync/pkg/store"
	"github.com/notesync/notesync/pkg/store/wire"
	"github.com/pkg/errors"
)

const writeTimeout = 10 * time.Second

// NewCollections creates a new Collections controller
func NewCollections(s store.Store) *Collections {
	return &Collections{
		store: s,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Collections serves the documents of a store
type Collections struct {
	store    store.Store
	upgrader websocket.Upgrader
}

// Query handles POST /v1/collections/{collection}/query
func (c *Collections) Query(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]

	var q store.Query
	if err := decodeBody(w, r, &q); err != nil {
		handleJSONError(w, err, "decoding query")
		return
	}

	docs, err := c.store.Query(r.Context(), collection, store.NormalizeQuery(q))
	if err != nil {
		handleJSONError(w, err, "running query")
		return
	}

	respondJSON(w, http.StatusOK, wire.DocumentsResponse{Documents: docs})
}

// Create handles POST /v1/collections/{collection}/docs
func (c *Collections) Create(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]

	var fields map[string]interface{}
	if err := decodeBody(w, r, &fields); err != nil {
		handleJSONError(w, err, "decoding fields")
		return
	}

	id, err := c.store.Insert(r.Context(), collection, store.NormalizeFields(fields))
	if err != nil {
		handleJSONError(w, err, "inserting document")
		return
	}

	respondJSON(w, http.StatusCreated, wire.InsertResponse{ID: id})
}

// Show handles GET /v1/collections/{collection}/docs/{id}
func (c *Collections) Show(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	doc, err := c.store.GetByID(r.Context(), vars["collection"], vars["id"])
	if err != nil {
		handleJSONError(w, err, "finding document")
		return
	}
	if doc == nil {
		handleJSONError(w, store.ErrNotFound, "finding document")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// Update handles PATCH /v1/collections/{collection}/docs/{id}
func (c *Collections) Update(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var fields map[string]interface{}
	if err := decodeBody(w, r, &fields); err != nil {
		handleJSONError(w, err, "decoding fields")
		return
	}

	if err := c.store.Patch(r.Context(), vars["collection"], vars["id"], store.NormalizeFields(fields)); err != nil {
		handleJSONError(w, err, "patching document")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /v1/collections/{collection}/docs/{id}
func (c *Collections) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := c.store.Remove(r.Context(), vars["collection"], vars["id"]); err != nil {
		handleJSONError(w, err, "removing document")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseQueryParam(r *http.Request) (store.Query, error) {
	var q store.Query

	raw := r.URL.Query().Get(wire.QueryParam)
	if raw == "" {
		return q, nil
	}

	if err := store.DecodeJSON(strings.NewReader(raw), &q); err != nil {
		return q, errors.Wrap(errBadRequest, err.Error())
	}

	return store.NormalizeQuery(q), nil
}

// liveConn serializes writes to a websocket connection
type liveConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (l *liveConn) send(m wire.Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return l.conn.WriteJSON(m)
}

// Subscribe handles GET /v1/collections/{collection}/subscribe. It upgrades
// the connection to a websocket and streams snapshots of the live query
// until either side closes it.
func (c *Collections) Subscribe(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]

	q, err := parseQueryParam(r)
	if err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already responded
		log.ErrorWrap(err, "upgrading connection")
		return
	}
	defer conn.Close()

	lc := &liveConn{conn: conn}

	onSnapshot := func(docs []store.Document) {
		if err := lc.send(wire.Message{Type: wire.MessageSnapshot, Documents: docs}); err != nil {
			log.WithFields(log.Fields{
				"collection": collection,
			}).ErrorWrap(err, "sending snapshot")
			conn.Close()
		}
	}
	onError := func(err error) {
		lc.send(wire.Message{Type: wire.MessageError, Message: err.Error()})
		conn.Close()
	}

	dispose, err := c.store.Subscribe(r.Context(), collection, q, onSnapshot, onError)
	if err != nil {
		lc.send(wire.Message{Type: wire.MessageError, Message: err.Error()})
		return
	}
	defer dispose()

	log.WithFields(log.Fields{
		"collection": collection,
	}).Debug("Opened live query.")

	// Clients never send data frames. Reading surfaces the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	log.WithFields(log.Fields{
		"collection": collection,
	}).Debug("Closed live query.")
}
