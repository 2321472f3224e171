package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/agentskills/marketplace/internal/apperrors"
	"github.com/agentskills/marketplace/pkg/logger"
)

// errorBody is the JSON error envelope returned by every handler.
type errorBody struct {
	Error string   `json:"error"`
	Files []string `json:"files,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error to its HTTP status and public message. Internal
// failures are logged with the real cause; the client only sees the public
// message.
func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError || errors.Is(err, apperrors.ErrUpstream) {
		log.Error("request failed", logger.ErrorField(err))
	}
	writeJSON(w, status, errorBody{Error: apperrors.PublicMessage(err)})
}

// decodeJSON reads a size-capped JSON request body into dst.
func decodeJSON(r *http.Request, maxBytes int64, dst any) error {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return apperrors.Validation("failed to read request body")
	}
	if len(body) == 0 {
		return apperrors.Validation("request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.Validation("invalid JSON body")
	}
	return nil
}
