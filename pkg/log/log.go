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

// Package log writes structured logs as one JSON object per line
package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const (
	fieldKeyLevel         = "level"
	fieldKeyMessage       = "msg"
	fieldKeyTimestamp     = "ts"
	fieldKeyUnixTimestamp = "ts_unix"

	// LevelDebug represents debug log level
	LevelDebug = "debug"
	// LevelInfo represents info log level
	LevelInfo = "info"
	// LevelWarn represents warn log level
	LevelWarn = "warn"
	// LevelError represents error log level
	LevelError = "error"
)

var priorities = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

var (
	mu           sync.Mutex
	currentLevel = LevelInfo
	output       io.Writer = os.Stderr
)

// Fields represents a set of information to be included in the log
type Fields map[string]interface{}

// Entry is a log entry waiting for a level and a message
type Entry struct {
	Fields    Fields
	Timestamp time.Time
}

// WithFields creates a log entry with the given fields
func WithFields(fields Fields) Entry {
	return Entry{
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
}

// ValidLevel reports whether the level is one of the known levels
func ValidLevel(level string) bool {
	_, ok := priorities[level]
	return ok
}

// SetLevel sets the global log level. Unknown levels fall back to info.
func SetLevel(level string) {
	if !ValidLevel(level) {
		level = LevelInfo
	}

	mu.Lock()
	currentLevel = level
	mu.Unlock()
}

// SetOutput sets the writer that log entries are written to. It returns
// the previous writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()

	prev := output
	output = w

	return prev
}

// shouldLog must be called with mu held
func shouldLog(level string) bool {
	return priorities[level] >= priorities[currentLevel]
}

// Debug logs the given entry at a debug level
func (e Entry) Debug(msg string) {
	e.write(LevelDebug, msg)
}

// Info logs the given entry at an info level
func (e Entry) Info(msg string) {
	e.write(LevelInfo, msg)
}

// Warn logs the given entry at a warning level
func (e Entry) Warn(msg string) {
	e.write(LevelWarn, msg)
}

// Error logs the given entry at an error level
func (e Entry) Error(msg string) {
	e.write(LevelError, msg)
}

// ErrorWrap logs the given entry with the error message annotated by the given message
func (e Entry) ErrorWrap(err error, msg string) {
	e.Error(fmt.Sprintf("%s: %v", msg, err))
}

func (e Entry) encode(level, msg string) ([]byte, error) {
	data := Fields{}
	for k, v := range e.Fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		data[k] = v
	}

	data[fieldKeyLevel] = level
	data[fieldKeyMessage] = msg
	data[fieldKeyTimestamp] = e.Timestamp
	data[fieldKeyUnixTimestamp] = e.Timestamp.Unix()

	return json.Marshal(data)
}

func (e Entry) write(level, msg string) {
	mu.Lock()
	defer mu.Unlock()

	if !shouldLog(level) {
		return
	}

	b, err := e.encode(level, msg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encoding log entry: %v\n", err)
		return
	}

	b = append(b, '\n')
	if _, err := output.Write(b); err != nil {
		fmt.Fprintf(os.Stderr, "writing log entry: %v\n", err)
	}
}

// Debug logs a debug message without additional fields
func Debug(msg string) {
	WithFields(nil).Debug(msg)
}

// Info logs an info message without additional fields
func Info(msg string) {
	WithFields(nil).Info(msg)
}

// Warn logs a warning message without additional fields
func Warn(msg string) {
	WithFields(nil).Warn(msg)
}

// Error logs an error message without additional fields
func Error(msg string) {
	WithFields(nil).Error(msg)
}

// ErrorWrap logs an error message without additional fields. It annotates the given error's
// message with the given message
func ErrorWrap(err error, msg string) {
	WithFields(nil).ErrorWrap(err, msg)
}
