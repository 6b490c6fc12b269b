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
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/notesync/notesync/pkg/log"
	"github.com/notesync/notesync/pkg/server/buildinfo"
	"github.com/notesync/notesync/pkg/server/config"
	"github.com/notesync/notesync/pkg/server/controllers"
	mw "github.com/notesync/notesync/pkg/server/middleware"
	"github.com/pkg/errors"
)

const shutdownTimeout = 10 * time.Second

func startCmd(args []string) {
	fs := setupFlagSet("start", "notesync-server start")

	port := fs.String("port", "", "Server port (env: PORT, default: 3001)")
	dbDriver := fs.String("dbDriver", "", "Database driver: sqlite or postgres (env: DB_DRIVER, default: sqlite)")
	dbDSN := fs.String("dbDsn", "", "Database DSN, a file path for sqlite (env: DB_DSN, default: notesync.db)")
	memory := fs.Bool("memory", false, "Keep documents in memory instead of a database (env: MEMORY_STORE, default: false)")
	logLevel := fs.String("logLevel", "", "Log level: debug, info, warn, or error (env: LOG_LEVEL, default: info)")
	envFile := fs.String("envFile", "", "Path to a dotenv file (default: .env if present)")

	fs.Parse(args)

	cfg, err := config.New(config.Params{
		Port:     *port,
		DBDriver: *dbDriver,
		DBDSN:    *dbDSN,
		Memory:   *memory,
		LogLevel: *logLevel,
		EnvFile:  *envFile,
	})
	if err != nil {
		fmt.Printf("Error: %s\n\n", err)
		fs.Usage()
		os.Exit(1)
	}

	log.SetLevel(cfg.LogLevel)

	if err := serve(cfg); err != nil {
		log.ErrorWrap(err, "server failed")
		os.Exit(1)
	}
}

func serve(cfg config.Config) error {
	s, err := initStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	var limiter *mw.RateLimiter
	if cfg.RateLimit {
		limiter = mw.NewRateLimiter(mw.DefaultRatePerSecond, mw.DefaultBurst)
		defer limiter.Stop()
	}

	ctl := controllers.New(s)
	r, err := controllers.NewRouter(controllers.RouteConfig{
		Controllers: ctl,
		Routes:      controllers.NewRoutes(ctl),
		Limiter:     limiter,
	})
	if err != nil {
		return errors.Wrap(err, "initializing router")
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.WithFields(log.Fields{
		"version": buildinfo.Version,
		"port":    cfg.Port,
		"memory":  cfg.Memory,
		"driver":  cfg.DBDriver,
	}).Info("notesync server starting.")

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listening")
	case <-ctx.Done():
	}

	log.Info("Shutting down.")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down")
	}

	return nil
}
