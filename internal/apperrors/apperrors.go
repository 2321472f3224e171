// Package apperrors defines the error taxonomy shared across the service.
// Each failure is classified by a sentinel so callers can branch with
// errors.Is and HTTP handlers can map errors to status codes in one place.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel error kinds.
var (
	// ErrValidation marks rejected input: empty prompts, oversize payloads,
	// malformed identifiers.
	ErrValidation = errors.New("validation failed")

	// ErrState marks an operation attempted against a draft in the wrong
	// lifecycle status, including a concurrent writer losing the status swap.
	ErrState = errors.New("invalid state for operation")

	// ErrUpstream marks failures from the language model provider.
	ErrUpstream = errors.New("upstream model failure")

	// ErrPersistence marks database or object storage failures.
	ErrPersistence = errors.New("persistence failure")

	// ErrNotFound marks a missing record.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks access to a record owned by someone else.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited marks a caller that exceeded their generation quota.
	ErrRateLimited = errors.New("rate limited")
)

// Error pairs a sentinel kind with a message and an optional cause.
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

// Is reports whether target matches this error's kind, so
// errors.Is(err, ErrValidation) works on wrapped errors.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error of the given kind with a formatted message.
func New(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind that carries cause for
// errors.Is/As chains further down.
func Wrap(kind error, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Validation creates a validation error with a formatted message.
func Validation(format string, args ...any) error {
	return New(ErrValidation, format, args...)
}

// State creates a lifecycle state error with a formatted message.
func State(format string, args ...any) error {
	return New(ErrState, format, args...)
}

// Upstream wraps a model provider failure.
func Upstream(cause error, format string, args ...any) error {
	return Wrap(ErrUpstream, cause, format, args...)
}

// Persistence wraps a database or storage failure.
func Persistence(cause error, format string, args ...any) error {
	return Wrap(ErrPersistence, cause, format, args...)
}

// NotFound creates a not-found error with a formatted message.
func NotFound(format string, args ...any) error {
	return New(ErrNotFound, format, args...)
}

// Forbidden creates a forbidden error with a formatted message.
func Forbidden(format string, args ...any) error {
	return New(ErrForbidden, format, args...)
}

// RateLimited creates a rate-limit error with a formatted message.
func RateLimited(format string, args ...any) error {
	return New(ErrRateLimited, format, args...)
}

// HTTPStatus maps an error to the status code handlers should return.
// Forbidden maps to 404 so responses never reveal that a record owned by
// another user exists.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
		return http.StatusNotFound
	case errors.Is(err, ErrState):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to API clients. Internal
// failure details (persistence causes, provider errors) are replaced with a
// generic message.
func PublicMessage(err error) string {
	switch {
	case errors.Is(err, ErrPersistence):
		return "internal error"
	case errors.Is(err, ErrUpstream):
		return "the model provider is unavailable, try again shortly"
	case errors.Is(err, ErrForbidden):
		return "not found"
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}
