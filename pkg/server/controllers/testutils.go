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
	"net/http/httptest"
	"testing"

	"github.com/notesync/notesync/pkg/store"
	"github.com/pkg/errors"
)

// MustNewServer is a test utility function to initialize a new server
// serving the given store
func MustNewServer(t *testing.T, s store.Store) *httptest.Server {
	server, err := NewServer(s)
	if err != nil {
		t.Fatal(errors.Wrap(err, "initializing router"))
	}

	return server
}

// NewServer starts a test server for the store without rate limiting
func NewServer(s store.Store) (*httptest.Server, error) {
	ctl := New(s)
	rc := RouteConfig{
		Routes:      NewRoutes(ctl),
		Controllers: ctl,
	}
	r, err := NewRouter(rc)
	if err != nil {
		return nil, errors.Wrap(err, "initializing router")
	}

	server := httptest.NewServer(r)

	return server, nil
}
