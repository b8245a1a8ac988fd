// Package apperr defines the operational error taxonomy shared by every
// domain service and serialized uniformly at the HTTP boundary.
//
// An *Error is an expected, business-rule failure: it carries a stable
// machine-readable code and an HTTP-equivalent status. Anything that is not
// an *Error is treated as unexpected, logged with full context, and surfaced
// to the caller as a generic internal error.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
)

// Code identifies a class of operational failure.
type Code string

const (
	CodeNotFound              Code = "not_found"
	CodeInvalid               Code = "invalid"
	CodeConflict              Code = "conflict"
	CodeInsufficientInventory Code = "insufficient_inventory"
	CodeUnauthorized          Code = "unauthorized"
	CodeInternal              Code = "internal_error"
)

// Error is a typed operational error.
type Error struct {
	Code    Code
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error { return e.cause }

// Is makes two *Error values match when their codes match, so sentinel-style
// comparisons like errors.Is(err, apperr.NotFound("")) work at the boundary.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithCause attaches an underlying error without changing code or status.
func (e *Error) WithCause(cause error) *Error {
	clone := *e
	clone.cause = cause
	return &clone
}

func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

func Invalid(format string, args ...any) *Error {
	return &Error{Code: CodeInvalid, Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Status: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}

func InsufficientInventory(format string, args ...any) *Error {
	return &Error{Code: CodeInsufficientInventory, Status: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) *Error {
	return &Error{Code: CodeUnauthorized, Status: http.StatusUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Internal(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: fmt.Sprintf(format, args...)}
}

// From returns err as an *Error when it is one (directly or wrapped), or a
// generic internal error otherwise. The original message of unexpected errors
// is never leaked to callers.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal("unexpected error").WithCause(err)
}
