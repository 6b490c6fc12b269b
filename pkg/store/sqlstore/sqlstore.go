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

// Package sqlstore implements store.Store on a SQL database. Documents are
// kept as JSON in a single table keyed by collection and id; filtering and
// ordering happen in Go with the same semantics as every other backend.
package sqlstore

import (
	"context"
	"encoding/json"

	// postgres database/sql driver
	_ "github.com/lib/pq"
	"github.com/notesync/notesync/pkg/clock"
	"github.com/notesync/notesync/pkg/helpers"
	"github.com/notesync/notesync/pkg/store"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// DriverSqlite selects sqlite
	DriverSqlite = "sqlite"
	// DriverPostgres selects postgres
	DriverPostgres = "postgres"
)

// ErrUnsupportedDriver is returned by Open for an unknown driver
var ErrUnsupportedDriver = errors.New("unsupported database driver")

type document struct {
	Collection string `gorm:"primaryKey"`
	ID         string `gorm:"primaryKey"`
	Data       string
	CreatedAt  int64 `gorm:"autoCreateTime:false"`
	UpdatedAt  int64 `gorm:"autoUpdateTime:false"`
}

func (document) TableName() string {
	return "documents"
}

// Store is a SQL backed store.Store
type Store struct {
	db    *gorm.DB
	clock clock.Clock
	hub   *store.Hub
}

// Open connects to the database, migrates the schema and returns a store
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	var dialect string

	switch driver {
	case DriverSqlite:
		dialector = sqlite.Open(dsn)
		dialect = "sqlite3"
	case DriverPostgres:
		dialector = postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        dsn,
		})
		dialect = "postgres"
	default:
		return nil, errors.Wrap(ErrUnsupportedDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening database connection")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "getting database handle")
	}
	if driver == DriverSqlite {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(sqlDB, dialect); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return New(db, clock.New()), nil
}

// New returns a store on an already migrated database
func New(db *gorm.DB, c clock.Clock) *Store {
	s := &Store{
		db:    db,
		clock: c,
	}
	s.hub = store.NewHub(s.run)

	return s
}

// Close terminates the live subscriptions and the database connection
func (s *Store) Close() error {
	s.hub.Close()

	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "getting database handle")
	}

	return sqlDB.Close()
}

func encode(f store.Fields) (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", errors.Wrap(err, "encoding fields")
	}

	return string(b), nil
}

func (d document) toDocument() (store.Document, error) {
	f, err := store.DecodeFields([]byte(d.Data))
	if err != nil {
		return store.Document{}, errors.Wrapf(err, "decoding document %s/%s", d.Collection, d.ID)
	}

	return store.Document{ID: d.ID, Fields: f}, nil
}

func (s *Store) run(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	var rows []document
	if err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("created_at, id").
		Find(&rows).Error; err != nil {
		return nil, errors.Wrapf(err, "querying %s", collection)
	}

	docs := make([]store.Document, 0, len(rows))
	for _, r := range rows {
		d, err := r.toDocument()
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}

	return store.Apply(docs, store.NormalizeQuery(q)), nil
}

// Query runs a one-shot query
func (s *Store) Query(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	return s.run(ctx, collection, q)
}

// Subscribe runs a live query
func (s *Store) Subscribe(ctx context.Context, collection string, q store.Query, onSnapshot store.SnapshotFunc, onError store.ErrorFunc) (store.Disposer, error) {
	return s.hub.Subscribe(collection, q, onSnapshot, onError), nil
}

func (s *Store) find(tx *gorm.DB, collection, id string) (*document, error) {
	var row document
	err := tx.Where("collection = ? AND id = ?", collection, id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "finding %s/%s", collection, id)
	}

	return &row, nil
}

// Insert creates a document
func (s *Store) Insert(ctx context.Context, collection string, fields store.Fields) (string, error) {
	fields = store.NormalizeFields(fields)

	var id string
	if v, ok := fields[store.FieldID].(string); ok && v != "" {
		id = v
	} else {
		uuid, err := helpers.GenUUID()
		if err != nil {
			return "", errors.Wrap(err, "generating id")
		}
		id = uuid
	}
	delete(fields, store.FieldID)

	data, err := encode(fields)
	if err != nil {
		return "", err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.find(tx, collection, id)
		if err != nil {
			return err
		}
		if existing != nil {
			return errors.Wrapf(store.ErrAlreadyExists, "inserting %s/%s", collection, id)
		}

		now := s.clock.Now().UnixNano()
		row := document{
			Collection: collection,
			ID:         id,
			Data:       data,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.Create(&row).Error; err != nil {
			return errors.Wrapf(err, "inserting %s/%s", collection, id)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	s.hub.Notify(collection)

	return id, nil
}

// Patch replaces the given top-level fields of a document
func (s *Store) Patch(ctx context.Context, collection, id string, fields store.Fields) error {
	fields = store.NormalizeFields(fields)
	delete(fields, store.FieldID)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.find(tx, collection, id)
		if err != nil {
			return err
		}
		if row == nil {
			return errors.Wrapf(store.ErrNotFound, "patching %s/%s", collection, id)
		}

		cur, err := row.toDocument()
		if err != nil {
			return err
		}
		for k, v := range fields {
			cur.Fields[k] = v
		}

		data, err := encode(cur.Fields)
		if err != nil {
			return err
		}

		if err := tx.Model(&document{}).
			Where("collection = ? AND id = ?", collection, id).
			Updates(map[string]interface{}{
				"data":       data,
				"updated_at": s.clock.Now().UnixNano(),
			}).Error; err != nil {
			return errors.Wrapf(err, "updating %s/%s", collection, id)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.hub.Notify(collection)

	return nil
}

// Remove deletes a document
func (s *Store) Remove(ctx context.Context, collection, id string) error {
	res := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&document{})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "removing %s/%s", collection, id)
	}

	if res.RowsAffected > 0 {
		s.hub.Notify(collection)
	}

	return nil
}

// GetByID returns a document, or nil if it does not exist
func (s *Store) GetByID(ctx context.Context, collection, id string) (*store.Document, error) {
	row, err := s.find(s.db.WithContext(ctx), collection, id)
	if err != nil || row == nil {
		return nil, err
	}

	doc, err := row.toDocument()
	if err != nil {
		return nil, err
	}

	return &doc, nil
}
