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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/notesync/notesync/pkg/log"
	"github.com/notesync/notesync/pkg/store"
	"github.com/notesync/notesync/pkg/store/wire"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// ErrContentTypeMismatch is returned when the server answers with a payload
// that is not JSON
var ErrContentTypeMismatch = errors.New("content type mismatch")

var contentTypeApplicationJSON = "application/json"

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100
)

// HTTPError represents an HTTP error response from the server
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
}

// Unwrap maps the status code to the matching store error
func (e *HTTPError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return store.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return store.ErrAlreadyExists
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= 500:
		return store.ErrUnavailable
	default:
		return nil
	}
}

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Wait for rate limiter to allow the request
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting
func NewRateLimitedHTTPClient(timeout time.Duration) *http.Client {
	// Calculate interval from rate: 1 second / requests per second
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// checkRespErr returns an *HTTPError if the response indicates an error
func checkRespErr(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(store.ErrUnavailable, "server responded with %d but client could not read the response body", res.StatusCode)
	}

	msg := strings.TrimRight(string(body), "\n")

	var payload wire.ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}

	return &HTTPError{
		StatusCode: res.StatusCode,
		Message:    msg,
	}
}

func checkContentType(res *http.Response) error {
	got := res.Header.Get("Content-Type")
	if got != contentTypeApplicationJSON {
		return errors.Wrapf(ErrContentTypeMismatch, "got: '%s' want: '%s'. Did you configure your endpoint correctly?", got, contentTypeApplicationJSON)
	}

	return nil
}

func (s *Store) newReq(ctx context.Context, method, path string, payload interface{}) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "encoding payload")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.endpoint+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	if payload != nil {
		req.Header.Set("Content-Type", contentTypeApplicationJSON)
	}
	if s.version != "" {
		req.Header.Set("Client-Version", s.version)
	}

	return req, nil
}

// doReq does a http request to the given path of the endpoint and decodes a
// JSON response into out, unless out is nil. Transport failures are reported
// as store.ErrUnavailable.
func (s *Store) doReq(ctx context.Context, method, path string, payload, out interface{}) error {
	req, err := s.newReq(ctx, method, path, payload)
	if err != nil {
		return errors.Wrap(err, "getting request")
	}

	log.WithFields(log.Fields{
		"method": method,
		"path":   path,
	}).Debug("HTTP request.")

	res, err := s.hc.Do(req)
	if err != nil {
		return errors.Wrapf(store.ErrUnavailable, "making http request: %v", err)
	}
	defer res.Body.Close()

	if err := checkRespErr(res); err != nil {
		return errors.Wrap(err, "server responded with an error")
	}

	if out == nil {
		return nil
	}

	if err := checkContentType(res); err != nil {
		return errors.Wrap(err, "unexpected Content-Type")
	}

	if err := store.DecodeJSON(res.Body, out); err != nil {
		return errors.Wrap(err, "reading response")
	}

	return nil
}
