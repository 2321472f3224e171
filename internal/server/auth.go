package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/agentskills/marketplace/internal/apperrors"
	"github.com/agentskills/marketplace/internal/store"
	"github.com/agentskills/marketplace/pkg/logger"
)

type contextKey int

const userContextKey contextKey = iota

// UserFromContext returns the authenticated user attached by the auth
// middleware, if any.
func UserFromContext(ctx context.Context) (*store.User, bool) {
	user, ok := ctx.Value(userContextKey).(*store.User)
	return user, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requireAuth resolves the bearer session token to a user and rejects the
// request when the token is missing, expired, or unknown.
func (a *api) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "authentication required"})
			return
		}

		user, err := a.store.GetSessionUser(r.Context(), token)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid or expired session"})
				return
			}
			writeError(w, a.log, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// optionalAuth attaches the user when a valid token is presented but lets
// anonymous requests through. Catalog reads use it so private skills stay
// visible to their owners only.
func (a *api) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			user, err := a.store.GetSessionUser(r.Context(), token)
			if err == nil {
				r = r.WithContext(context.WithValue(r.Context(), userContextKey, user))
			} else if !errors.Is(err, apperrors.ErrNotFound) {
				a.log.Warn("session lookup failed", logger.ErrorField(err))
			}
		}
		next.ServeHTTP(w, r)
	})
}
