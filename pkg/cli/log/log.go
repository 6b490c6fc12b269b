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

// Package log prints colored messages for the users of the CLI
package log

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

const (
	debugEnvName  = "NOTESYNC_DEBUG"
	debugEnvValue = "1"
)

var (
	// ColorRed is a red foreground color
	ColorRed = color.New(color.FgRed)
	// ColorGreen is a green foreground color
	ColorGreen = color.New(color.FgGreen)
	// ColorYellow is a yellow foreground color
	ColorYellow = color.New(color.FgYellow)
	// ColorBlue is a blue foreground color
	ColorBlue = color.New(color.FgBlue)
	// ColorGray is a gray foreground color
	ColorGray = color.New(color.FgHiBlack)
)

const indent = "  "

var (
	symbolInfo    = ColorBlue.Sprint("•")
	symbolSuccess = ColorGreen.Sprint("✔")
	symbolWarn    = ColorYellow.Sprint("•")
	symbolError   = ColorRed.Sprint("⨯")
	symbolAsk     = ColorGreen.Sprint("[?]")
)

func printSymbol(symbol, msg string) {
	fmt.Fprintf(color.Output, "%s%s %s", indent, symbol, msg)
}

// Info prints information
func Info(msg string) {
	printSymbol(symbolInfo, msg)
}

// Infof prints information with optional format verbs
func Infof(msg string, v ...interface{}) {
	printSymbol(symbolInfo, fmt.Sprintf(msg, v...))
}

// Success prints a success message
func Success(msg string) {
	printSymbol(symbolSuccess, msg)
}

// Successf prints a success message with optional format verbs
func Successf(msg string, v ...interface{}) {
	printSymbol(symbolSuccess, fmt.Sprintf(msg, v...))
}

// Plain prints a plain message without any prefix symbol
func Plain(msg string) {
	fmt.Fprintf(color.Output, "%s%s", indent, msg)
}

// Plainf prints a plain message without any prefix symbol. It takes optional format verbs.
func Plainf(msg string, v ...interface{}) {
	Plain(fmt.Sprintf(msg, v...))
}

// Warn prints a warning message
func Warn(msg string) {
	printSymbol(symbolWarn, msg)
}

// Warnf prints a warning message with optional format verbs
func Warnf(msg string, v ...interface{}) {
	printSymbol(symbolWarn, fmt.Sprintf(msg, v...))
}

// Error prints an error message
func Error(msg string) {
	printSymbol(symbolError, msg)
}

// Errorf prints an error message with optional format verbs
func Errorf(msg string, v ...interface{}) {
	printSymbol(symbolError, fmt.Sprintf(msg, v...))
}

// Askf prints a question with optional format verbs
func Askf(msg string, v ...interface{}) {
	fmt.Fprintf(color.Output, "%s%s %s: ", indent, symbolAsk, fmt.Sprintf(msg, v...))
}

func isDebug() bool {
	return os.Getenv(debugEnvName) == debugEnvValue
}

// Debug prints to the console if NOTESYNC_DEBUG is set
func Debug(msg string, v ...interface{}) {
	if isDebug() {
		fmt.Fprintf(color.Output, "%s %s", ColorGray.Sprint("DEBUG:"), fmt.Sprintf(msg, v...))
	}
}
