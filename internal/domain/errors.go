package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every business failure returned by a service wraps exactly one of these.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrExternalUnavailable = errors.New("external service unavailable")
	ErrConflict            = errors.New("concurrent modification")
)

// Error carries a human-readable message alongside its kind.
// The message is what the caller sees; Kind is what errors.Is matches.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Is reports whether target is the kind of this error
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// Unwrap exposes the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.Cause
}

// NotFound builds an ErrNotFound error
func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidState builds an ErrInvalidState error; the message is shown to the caller verbatim
func InvalidState(format string, args ...interface{}) error {
	return &Error{Kind: ErrInvalidState, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized builds an ErrUnauthorized error
func Unauthorized(format string, args ...interface{}) error {
	return &Error{Kind: ErrUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds an ErrConflict error
func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// ExternalUnavailable wraps a failure of an external collaborator (price oracle, policy-rate feed)
func ExternalUnavailable(cause error, format string, args ...interface{}) error {
	return &Error{Kind: ErrExternalUnavailable, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Message returns the caller-facing message of a domain error, or "" for anything else
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
