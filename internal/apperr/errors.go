// Package apperr defines the caller-visible error taxonomy.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for the caller.
type Kind string

const (
	KindValidation         Kind = "ValidationError"
	KindDuplicateEmail     Kind = "DuplicateEmail"
	KindNotFound           Kind = "NotFound"
	KindInvalidCredentials Kind = "InvalidCredentials"
	KindTokenInvalid       Kind = "TokenInvalid"
	KindTokenExpired       Kind = "TokenExpired"
	KindInternal           Kind = "InternalError"
)

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrValidation         = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrDuplicateEmail     = &Error{Kind: KindDuplicateEmail, Message: "Email is already in use."}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "Invalid login credentials."}
	ErrTokenInvalid       = &Error{Kind: KindTokenInvalid, Message: "token is invalid"}
	ErrTokenExpired       = &Error{Kind: KindTokenExpired, Message: "token has expired"}
	ErrInternal           = &Error{Kind: KindInternal, Message: "internal server error"}
)

// Error is a structured business failure.
type Error struct {
	Kind    Kind
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

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Status maps the kind onto an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindDuplicateEmail, KindInvalidCredentials:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindTokenInvalid, KindTokenExpired:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func DuplicateEmail() *Error {
	return &Error{Kind: KindDuplicateEmail, Message: ErrDuplicateEmail.Message}
}

// InvalidCredentials always carries the same message so callers cannot tell
// an unknown account from a wrong password.
func InvalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, Message: ErrInvalidCredentials.Message}
}

func TokenInvalid(message string) *Error {
	return &Error{Kind: KindTokenInvalid, Message: message}
}

func TokenExpired(message string) *Error {
	return &Error{Kind: KindTokenExpired, Message: message}
}

// Internal wraps an unexpected failure. The cause is kept for logs only.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: ErrInternal.Message, Err: err}
}

// From returns err as an *Error, wrapping unknown errors as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
