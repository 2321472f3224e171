package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"validation", Validation("prompt must not be empty"), ErrValidation},
		{"state", State("creation %s is already %s", "crtn-1", "published"), ErrState},
		{"upstream", Upstream(errors.New("timeout"), "chat completion failed"), ErrUpstream},
		{"persistence", Persistence(errors.New("conn refused"), "insert failed"), ErrPersistence},
		{"not found", NotFound("creation %s", "crtn-1"), ErrNotFound},
		{"forbidden", Forbidden("creation %s", "crtn-1"), ErrForbidden},
		{"rate limited", RateLimited("10 generations per hour exceeded"), ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.kind))

			// Must not match any other kind
			for _, other := range []error{ErrValidation, ErrState, ErrUpstream, ErrPersistence, ErrNotFound, ErrForbidden, ErrRateLimited} {
				if other == tt.kind {
					continue
				}
				assert.False(t, errors.Is(tt.err, other), "should not match %v", other)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := Validation("name %q is too long", "x")
	assert.Equal(t, `name "x" is too long`, err.Error())

	cause := errors.New("context deadline exceeded")
	wrapped := Upstream(cause, "chat completion failed")
	assert.Equal(t, "chat completion failed: context deadline exceeded", wrapped.Error())
	assert.Equal(t, cause, errors.Unwrap(wrapped))
}

func TestErrorSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("handling request: %w", NotFound("skill %s", "skill-1"))
	assert.True(t, errors.Is(err, ErrNotFound))

	var appErr *Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "skill skill-1", appErr.Message)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{NotFound("gone"), http.StatusNotFound},
		{Forbidden("someone else's"), http.StatusNotFound},
		{State("wrong status"), http.StatusConflict},
		{RateLimited("slow down"), http.StatusTooManyRequests},
		{Upstream(errors.New("boom"), "provider"), http.StatusBadGateway},
		{Persistence(errors.New("boom"), "db"), http.StatusInternalServerError},
		{errors.New("plain error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "for %v", tt.err)
	}
}

func TestPublicMessage(t *testing.T) {
	// Client errors expose their message
	assert.Equal(t, "prompt must not be empty", PublicMessage(Validation("prompt must not be empty")))
	assert.Equal(t, "creation not ready", PublicMessage(State("creation not ready")))

	// Internal causes are hidden
	assert.Equal(t, "internal error", PublicMessage(Persistence(errors.New("pg: relation missing"), "insert failed")))
	assert.Equal(t, "internal error", PublicMessage(errors.New("raw failure")))

	// Forbidden reads as not found
	assert.Equal(t, "not found", PublicMessage(Forbidden("creation crtn-1")))

	// Upstream gets a retry hint without provider details
	msg := PublicMessage(Upstream(errors.New("401 invalid api key"), "chat completion failed"))
	assert.NotContains(t, msg, "api key")
}
