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
	"path/filepath"
	"time"

	"github.com/notesync/notesync/pkg/cli/consts"
	"github.com/notesync/notesync/pkg/cli/context"
	"github.com/notesync/notesync/pkg/notesync"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config holds notesync configuration
type Config struct {
	Editor      string `yaml:"editor"`
	APIEndpoint string `yaml:"apiEndpoint"`
	UserID      string `yaml:"userId,omitempty"`
	Email       string `yaml:"email,omitempty"`
	// RetryDelay and ProbeInterval are durations such as "5s"
	RetryDelay    string `yaml:"retryDelay,omitempty"`
	ProbeInterval string `yaml:"probeInterval,omitempty"`
}

// GetPath returns the path to the notesync config file
func GetPath(ctx context.NotesyncCtx) string {
	return filepath.Join(ctx.Paths.Config, consts.ConfigFilename)
}

// Read reads the config file
func Read(ctx context.NotesyncCtx) (Config, error) {
	var ret Config

	configPath := GetPath(ctx)
	b, err := os.ReadFile(configPath)
	if err != nil {
		return ret, errors.Wrap(err, "reading config file")
	}

	err = yaml.Unmarshal(b, &ret)
	if err != nil {
		return ret, errors.Wrap(err, "unmarshalling config")
	}

	return ret, nil
}

// Write writes the config to the config file
func Write(ctx context.NotesyncCtx, cf Config) error {
	path := GetPath(ctx)

	b, err := yaml.Marshal(cf)
	if err != nil {
		return errors.Wrap(err, "marshalling config into YAML")
	}

	err = os.WriteFile(path, b, 0600)
	if err != nil {
		return errors.Wrap(err, "writing the config file")
	}

	return nil
}

func parseDuration(s string, defaultVal time.Duration) (time.Duration, error) {
	if s == "" {
		return defaultVal, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing '%s'", s)
	}
	if d <= 0 {
		return 0, errors.Errorf("'%s' is not a positive duration", s)
	}

	return d, nil
}

// GetRetryDelay returns the delay between two attempts at applying queued
// operations
func (c Config) GetRetryDelay() (time.Duration, error) {
	return parseDuration(c.RetryDelay, notesync.DefaultRetryDelay)
}

// GetProbeInterval returns the interval between connectivity probes
func (c Config) GetProbeInterval() (time.Duration, error) {
	return parseDuration(c.ProbeInterval, notesync.DefaultProbeInterval)
}
