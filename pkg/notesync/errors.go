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

package notesync

import (
	"fmt"

	"github.com/notesync/notesync/pkg/store"
	"github.com/pkg/errors"
)

// Kind classifies an error by how the caller should react to it
type Kind string

const (
	// KindValidation is a rejected input. It is never retried.
	KindValidation Kind = "validation"
	// KindAuthorization is an action the acting user may not perform
	KindAuthorization Kind = "authorization"
	// KindNotFound is a missing note or recipient
	KindNotFound Kind = "not_found"
	// KindOffline is an action that needs connectivity attempted while offline
	KindOffline Kind = "offline"
	// KindTransient is a remote failure that might go away on retry
	KindTransient Kind = "transient"
)

// Code identifies a specific failure within a kind
type Code string

// Error codes
const (
	CodeInvalidNote       Code = "invalid_note"
	CodeAlreadyShared     Code = "already_shared"
	CodeNotOwner          Code = "not_owner"
	CodeSelfShareRejected Code = "self_share_rejected"
	CodeNoteNotFound      Code = "note_not_found"
	CodeRecipientNotFound Code = "recipient_not_found"
	CodeAnonymous         Code = "anonymous"
	CodeRemoteFailure     Code = "remote_failure"
)

// Error is an error of the notes service
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}

	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code, or by kind when the target has no code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t.Code != "" {
		return t.Code == e.Code
	}

	return t.Kind == e.Kind
}

// Sentinels to match with errors.Is. The ones without a code match every
// error of their kind.
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrAuthorization = &Error{Kind: KindAuthorization}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrTransient     = &Error{Kind: KindTransient}
	ErrOffline       = &Error{Kind: KindOffline, Message: "operation not available offline"}

	ErrAnonymous         = &Error{Kind: KindOffline, Code: CodeAnonymous, Message: "operation requires a signed-in user"}
	ErrInvalidNote       = &Error{Kind: KindValidation, Code: CodeInvalidNote, Message: "invalid note"}
	ErrAlreadyShared     = &Error{Kind: KindValidation, Code: CodeAlreadyShared, Message: "note is already shared with this user"}
	ErrNotOwner          = &Error{Kind: KindAuthorization, Code: CodeNotOwner, Message: "only the owner can modify this note"}
	ErrSelfShareRejected = &Error{Kind: KindAuthorization, Code: CodeSelfShareRejected, Message: "cannot share a note with yourself"}
	ErrNoteNotFound      = &Error{Kind: KindNotFound, Code: CodeNoteNotFound, Message: "note not found"}
	ErrRecipientNotFound = &Error{Kind: KindNotFound, Code: CodeRecipientNotFound, Message: "recipient not found"}
)

func newError(sentinel *Error, err error) *Error {
	return &Error{
		Kind:    sentinel.Kind,
		Code:    sentinel.Code,
		Message: sentinel.Message,
		Err:     err,
	}
}

func validationError(err error) *Error {
	return newError(ErrInvalidNote, err)
}

// remoteError classifies a store failure
func remoteError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, store.ErrNotFound) {
		return newError(ErrNoteNotFound, errors.Wrap(err, msg))
	}

	return &Error{
		Kind:    KindTransient,
		Code:    CodeRemoteFailure,
		Message: msg,
		Err:     err,
	}
}

// IsPermanent reports whether retrying the failed call can never succeed
func IsPermanent(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrAuthorization) ||
		errors.Is(err, ErrNotFound)
}
