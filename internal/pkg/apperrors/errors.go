// internal/pkg/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Error carries a client-facing message and the kind it belongs to
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity
func NotFound(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

// InvalidState reports an operation the current state does not allow
func InvalidState(format string, args ...any) error {
	return newError(ErrInvalidState, format, args...)
}

// Validation reports malformed input
func Validation(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

// Conflict reports a uniqueness violation
func Conflict(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

// Unauthorized reports failed authentication
func Unauthorized(format string, args ...any) error {
	return newError(ErrUnauthorized, format, args...)
}

// Forbidden reports access to something the caller does not own
func Forbidden(format string, args ...any) error {
	return newError(ErrForbidden, format, args...)
}

// Message returns the client-facing message if err is an *Error
func Message(err error) (string, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message, true
	}
	return "", false
}
