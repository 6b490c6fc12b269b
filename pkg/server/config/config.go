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

package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/notesync/notesync/pkg/log"
	"github.com/notesync/notesync/pkg/store/sqlstore"
	"github.com/pkg/errors"
)

const (
	// AppEnvProduction represents an app environment for production.
	AppEnvProduction string = "PRODUCTION"
	// DefaultEnvFile is the dotenv file read when present
	DefaultEnvFile = ".env"
)

var (
	// ErrDBMissingDSN is an error for an incomplete configuration missing the database DSN
	ErrDBMissingDSN = errors.New("DB DSN is empty")
	// ErrDBDriverInvalid is an error for a configuration with an unknown database driver
	ErrDBDriverInvalid = errors.New("Invalid DB driver")
	// ErrPortInvalid is an error for an incomplete configuration with invalid port
	ErrPortInvalid = errors.New("Invalid Port")
	// ErrLogLevelInvalid is an error for a configuration with an unknown log level
	ErrLogLevelInvalid = errors.New("Invalid log level")
)

func readBoolEnv(name string) bool {
	return os.Getenv(name) == "true"
}

// getOrEnv returns value if non-empty, otherwise env var, otherwise default
func getOrEnv(value, envKey, defaultVal string) string {
	if value != "" {
		return value
	}
	if env := os.Getenv(envKey); env != "" {
		return env
	}
	return defaultVal
}

// Config is an application configuration
type Config struct {
	AppEnv    string
	Port      string
	DBDriver  string
	DBDSN     string
	Memory    bool
	LogLevel  string
	RateLimit bool
}

// Params are the configuration parameters for creating a new Config
type Params struct {
	AppEnv   string
	Port     string
	DBDriver string
	DBDSN    string
	Memory   bool
	LogLevel string
	// EnvFile is a dotenv file to load. A missing default file is ignored.
	EnvFile string
}

// loadEnvFile reads a dotenv file into the environment without overriding
// variables that are already set
func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return nil
		}
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "loading env file '%s'", path)
	}

	return nil
}

// New constructs and returns a new validated config.
// Empty string params will fall back to environment variables and defaults.
func New(p Params) (Config, error) {
	if err := loadEnvFile(p.EnvFile); err != nil {
		return Config{}, err
	}

	c := Config{
		AppEnv:    getOrEnv(p.AppEnv, "APP_ENV", AppEnvProduction),
		Port:      getOrEnv(p.Port, "PORT", "3001"),
		DBDriver:  getOrEnv(p.DBDriver, "DB_DRIVER", sqlstore.DriverSqlite),
		DBDSN:     getOrEnv(p.DBDSN, "DB_DSN", "notesync.db"),
		Memory:    p.Memory || readBoolEnv("MEMORY_STORE"),
		LogLevel:  getOrEnv(p.LogLevel, "LOG_LEVEL", log.LevelInfo),
		RateLimit: !readBoolEnv("DISABLE_RATE_LIMIT"),
	}

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// IsProd checks if the app environment is configured to be production.
func (c Config) IsProd() bool {
	return c.AppEnv == AppEnvProduction
}

func validate(c Config) error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.Wrapf(ErrPortInvalid, "'%s'", c.Port)
	}

	if !log.ValidLevel(c.LogLevel) {
		return errors.Wrapf(ErrLogLevelInvalid, "'%s'", c.LogLevel)
	}

	if c.Memory {
		return nil
	}

	if c.DBDriver != sqlstore.DriverSqlite && c.DBDriver != sqlstore.DriverPostgres {
		return errors.Wrapf(ErrDBDriverInvalid, "'%s'", c.DBDriver)
	}
	if c.DBDSN == "" {
		return ErrDBMissingDSN
	}

	return nil
}
