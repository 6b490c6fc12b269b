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

package store

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// DecodeJSON decodes JSON while keeping numbers exact, so that nanosecond
// timestamps survive the round trip
func DecodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "decoding json")
	}

	return nil
}

// DecodeFields decodes serialized fields into their normalized form
func DecodeFields(b []byte) (Fields, error) {
	var raw map[string]interface{}
	if err := DecodeJSON(bytes.NewReader(b), &raw); err != nil {
		return nil, err
	}

	return NormalizeFields(raw), nil
}

// NormalizeDocuments normalizes the fields of documents decoded from the wire
func NormalizeDocuments(docs []Document) []Document {
	ret := make([]Document, len(docs))
	for i, d := range docs {
		ret[i] = Document{ID: d.ID, Fields: NormalizeFields(d.Fields)}
	}

	return ret
}
