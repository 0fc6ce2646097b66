// Package apperr defines the application error taxonomy shared by the
// service and HTTP layers. Every failure a handler can return is one of
// the kinds below; the HTTP layer maps kinds to status codes and never
// exposes internal detail for server errors.
package apperr

import (
	"errors"
	"fmt"
)

// ErrKind identifies the category of an application error.
type ErrKind int

const (
	// KindServer is the fallback for unexpected failures (HTTP 500).
	KindServer ErrKind = iota
	// KindValidation marks missing or malformed input (HTTP 400).
	KindValidation
	// KindConflict marks duplicate unique fields (HTTP 400).
	KindConflict
	// KindAuth marks missing, invalid or expired credentials (HTTP 401).
	KindAuth
	// KindNotFound marks absent records, including records owned by
	// someone else (HTTP 404).
	KindNotFound
)

// Error is an application error carrying a kind and a user-safe message.
type Error struct {
	ErrKind ErrKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is match any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.ErrKind == e.ErrKind
	}
	return false
}

func newError(kind ErrKind, msg string, err error) *Error {
	return &Error{ErrKind: kind, Message: msg, Err: err}
}

// Validation creates a validation error wrapping err.
func Validation(msg string, err error) *Error {
	return newError(KindValidation, msg, err)
}

// Validationf creates a validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return newError(KindValidation, fmt.Sprintf(format, args...), nil)
}

// Conflict creates a duplicate-unique-field error.
func Conflict(msg string) *Error {
	return newError(KindConflict, msg, nil)
}

// Auth creates an authentication error.
func Auth(msg string) *Error {
	return newError(KindAuth, msg, nil)
}

// NotFound creates a not-found error.
func NotFound(msg string) *Error {
	return newError(KindNotFound, msg, nil)
}

// Server wraps an unexpected failure. The message shown to clients is
// generic; err carries the detail for logs only.
func Server(err error) *Error {
	return newError(KindServer, "internal server error", err)
}

// Kind classifies any error. Non-application errors are KindServer.
func Kind(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.ErrKind
	}
	return KindServer
}

// UserMessage returns the message safe to show to a client. Server
// errors collapse to a generic message regardless of the wrapped cause.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.ErrKind != KindServer {
		return e.Message
	}
	return "internal server error"
}
