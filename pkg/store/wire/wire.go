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

// Package wire defines the HTTP and websocket payloads exchanged between the
// store server and its client
package wire

import (
	"github.com/notesync/notesync/pkg/store"
)

const (
	// MessageSnapshot carries the current result set of a live query
	MessageSnapshot = "snapshot"
	// MessageError reports the error that ended a live query
	MessageError = "error"

	// QueryParam is the URL parameter holding the JSON encoded query of a
	// subscription
	QueryParam = "q"
)

// DocumentsResponse is the payload of a query
type DocumentsResponse struct {
	Documents []store.Document `json:"documents"`
}

// InsertResponse is the payload of an insert
type InsertResponse struct {
	ID string `json:"id"`
}

// ErrorResponse is the payload of a failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// Message is a websocket frame of a live query
type Message struct {
	Type      string           `json:"type"`
	Documents []store.Document `json:"documents,omitempty"`
	Message   string           `json:"message,omitempty"`
}
