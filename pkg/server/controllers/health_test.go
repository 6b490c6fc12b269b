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
	"testing"

	"github.com/notesync/notesync/pkg/assert"
	"github.com/notesync/notesync/pkg/server/testutils"
	"github.com/notesync/notesync/pkg/store/memstore"
)

func TestHealth(t *testing.T) {
	mem := memstore.New()
	defer mem.Close()
	server := MustNewServer(t, mem)
	defer server.Close()

	res := testutils.HTTPDo(t, testutils.MakeReq(server.URL, "GET", "/health", ""))

	assert.StatusCodeEquals(t, res, http.StatusOK, "status code mismatch")
	assert.Equal(t, testutils.MustReadBody(t, res), "ok", "body mismatch")
}

func TestUnknownRoute(t *testing.T) {
	mem := memstore.New()
	defer mem.Close()
	server := MustNewServer(t, mem)
	defer server.Close()

	testCases := []struct {
		method string
		path   string
	}{
		{method: "GET", path: "/v1/notes"},
		{method: "GET", path: "/v1/collections/notes/docs"},
		{method: "POST", path: "/v1/collections/bad.name/query"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			res := testutils.HTTPDo(t, testutils.MakeReq(server.URL, tc.method, tc.path, ""))
			res.Body.Close()

			if res.StatusCode != http.StatusNotFound && res.StatusCode != http.StatusMethodNotAllowed {
				t.Errorf("unexpected status code %d", res.StatusCode)
			}
		})
	}
}
