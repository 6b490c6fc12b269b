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

// Package store defines the document store capability the sync engine is
// built on: one-shot filtered queries, live subscriptions that deliver full
// snapshots, and writes addressed by document id.
package store

import (
	"context"

	"github.com/pkg/errors"
)

// FieldID is the reserved field name that addresses a document's id. It can
// be used in filters, and an Insert carrying it uses it as the new id.
const FieldID = "id"

var (
	// ErrNotFound is returned when the addressed document does not exist
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned by Insert when the requested id is taken
	ErrAlreadyExists = errors.New("document already exists")
	// ErrUnavailable is returned when the store cannot be reached
	ErrUnavailable = errors.New("store unavailable")
)

// Fields is the content of a document
type Fields map[string]interface{}

// Document is a stored record
type Document struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

// Op is a filter comparison operator
type Op string

const (
	// OpEqual matches documents whose field equals the value
	OpEqual Op = "=="
	// OpNotEqual matches documents whose field is present and differs from the value
	OpNotEqual Op = "!="
	// OpArrayContains matches documents whose array field contains the value
	OpArrayContains Op = "array-contains"
)

// Filter is a single predicate of a query
type Filter struct {
	Field string      `json:"field"`
	Op    Op          `json:"op"`
	Value interface{} `json:"value"`
}

// Order is a sort key of a query
type Order struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// Query selects documents of a collection. All filters must match.
type Query struct {
	Filters []Filter `json:"filters,omitempty"`
	Order   []Order  `json:"order,omitempty"`
}

// Where returns a filter
func Where(field string, op Op, value interface{}) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// OrderBy returns an order
func OrderBy(field string, desc bool) Order {
	return Order{Field: field, Desc: desc}
}

// Disposer cancels a live subscription. It is safe to call more than once.
type Disposer func()

// SnapshotFunc receives the complete current result set of a live query
type SnapshotFunc func(docs []Document)

// ErrorFunc receives the error that terminated a live query
type ErrorFunc func(err error)

// Store is a remote document store
type Store interface {
	// Query runs a one-shot filtered query
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	// Subscribe runs a live query. onSnapshot is called with the initial result
	// and again after every change to the collection. After onError is called
	// the subscription is over.
	Subscribe(ctx context.Context, collection string, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) (Disposer, error)
	// Insert creates a document and returns its id
	Insert(ctx context.Context, collection string, fields Fields) (string, error)
	// Patch replaces the given top-level fields of an existing document
	Patch(ctx context.Context, collection, id string, fields Fields) error
	// Remove deletes a document. Removing a missing document is not an error.
	Remove(ctx context.Context, collection, id string) error
	// GetByID returns the document, or nil if it does not exist
	GetByID(ctx context.Context, collection, id string) (*Document, error)
}

// IsTransient reports whether the error might go away if the same call is
// attempted again later
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists) {
		return false
	}

	return true
}
