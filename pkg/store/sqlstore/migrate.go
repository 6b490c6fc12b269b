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

package sqlstore

import (
	"database/sql"

	"github.com/notesync/notesync/pkg/log"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
)

// MigrationTableName is the name of the table that keeps track of migrations
const MigrationTableName = "migrations"

var migrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "001-create-documents",
			Up: []string{`CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	data TEXT NOT NULL,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL,
	PRIMARY KEY (collection, id)
)`},
			Down: []string{`DROP TABLE documents`},
		},
		{
			Id:   "002-index-documents-created-at",
			Up:   []string{`CREATE INDEX IF NOT EXISTS idx_documents_collection_created_at ON documents (collection, created_at)`},
			Down: []string{`DROP INDEX idx_documents_collection_created_at`},
		},
	},
}

// Migrate brings the schema up to date
func Migrate(db *sql.DB, dialect string) error {
	migrate.SetTable(MigrationTableName)

	n, err := migrate.Exec(db, dialect, migrations, migrate.Up)
	if err != nil {
		return errors.Wrap(err, "running migrations")
	}

	log.WithFields(log.Fields{
		"count":   n,
		"dialect": dialect,
	}).Info("Applied migrations.")

	return nil
}
