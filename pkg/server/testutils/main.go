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

// Package testutils provides utilities used in tests of the store server
package testutils

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/notesync/notesync/pkg/store"
	"github.com/pkg/errors"
)

// HTTPDo makes an HTTP request and returns a response
func HTTPDo(t *testing.T, req *http.Request) *http.Response {
	hc := http.Client{}

	res, err := hc.Do(req)
	if err != nil {
		t.Fatal(errors.Wrap(err, "performing http request"))
	}

	return res
}

// MakeReq makes an HTTP request and returns a response
func MakeReq(endpoint string, method, path, data string) *http.Request {
	u := fmt.Sprintf("%s%s", endpoint, path)

	req, err := http.NewRequest(method, u, strings.NewReader(data))
	if err != nil {
		panic(errors.Wrap(err, "constructing http request"))
	}
	if data != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	return req
}

// MustReadJSON decodes the response body into v with exact numbers and closes
// it. The test fails if the body cannot be decoded.
func MustReadJSON(t *testing.T, res *http.Response, v interface{}) {
	defer res.Body.Close()

	if err := store.DecodeJSON(res.Body, v); err != nil {
		t.Fatal(errors.Wrap(err, "reading response body"))
	}
}

// MustReadBody returns the response body as a string and closes it
func MustReadBody(t *testing.T, res *http.Response) string {
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading response body"))
	}

	return string(b)
}
