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

package cmd

import (
	"flag"
	"fmt"

	"github.com/notesync/notesync/pkg/log"
	"github.com/notesync/notesync/pkg/server/config"
	"github.com/notesync/notesync/pkg/store"
	"github.com/notesync/notesync/pkg/store/memstore"
	"github.com/notesync/notesync/pkg/store/sqlstore"
	"github.com/pkg/errors"
)

// closableStore is a store that holds resources until closed
type closableStore interface {
	store.Store
	Close()
}

type sqlStoreCloser struct {
	*sqlstore.Store
}

func (s sqlStoreCloser) Close() {
	if err := s.Store.Close(); err != nil {
		log.ErrorWrap(err, "closing database")
	}
}

// initStore opens the backend selected by the configuration
func initStore(cfg config.Config) (closableStore, error) {
	if cfg.Memory {
		log.Warn("Using an in-memory store. Documents are lost on shutdown.")
		return memstore.New(), nil
	}

	s, err := sqlstore.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, errors.Wrap(err, "opening sql store")
	}

	return sqlStoreCloser{s}, nil
}

// printFlags prints flags with -- prefix for consistency with CLI
func printFlags(fs *flag.FlagSet) {
	fs.VisitAll(func(f *flag.Flag) {
		fmt.Printf("  --%s", f.Name)

		// Print type hint for non-boolean flags
		name, usage := flag.UnquoteUsage(f)
		if name != "" {
			fmt.Printf(" %s", name)
		}
		fmt.Println()

		if usage != "" {
			fmt.Printf("    \t%s", usage)
			if f.DefValue != "" && f.DefValue != "false" {
				fmt.Printf(" (default: %s)", f.DefValue)
			}
			fmt.Println()
		}
	})
}

// setupFlagSet creates a FlagSet with standard usage format
func setupFlagSet(name, usageCmd string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Printf(`Usage:
  %s [flags]

Flags:
`, usageCmd)
		printFlags(fs)
	}
	return fs
}
