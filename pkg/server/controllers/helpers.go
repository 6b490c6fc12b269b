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
	"encoding/json"
	"net/http"

	"github.com/notesync/notesync/pkg/log"
	"github.com/notesync/notesync/pkg/store"
	"github.com/notesync/notesync/pkg/store/wire"
	"github.com/pkg/errors"
)

// maxBodySize is the largest request body accepted
const maxBodySize = 1 << 20

// errBadRequest marks errors caused by a malformed request
var errBadRequest = errors.New("bad request")

func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.ErrorWrap(err, "encoding response")
	}
}

func getStatusCode(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleJSONError responds with the status code mapped from the error. Only
// unexpected errors are logged.
func handleJSONError(w http.ResponseWriter, err error, msg string) {
	statusCode := getStatusCode(err)

	if statusCode == http.StatusInternalServerError {
		log.ErrorWrap(err, msg)
	}

	respondJSON(w, statusCode, wire.ErrorResponse{Error: errors.Wrap(err, msg).Error()})
}

// decodeBody decodes a JSON request body with exact numbers
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)

	if err := store.DecodeJSON(body, v); err != nil {
		return errors.Wrap(errBadRequest, err.Error())
	}

	return nil
}
