package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agentskills/marketplace/internal/apperrors"
	"github.com/agentskills/marketplace/internal/composer"
	"github.com/agentskills/marketplace/internal/store"
	"github.com/agentskills/marketplace/pkg/logger"
)

type clarifyRequest struct {
	CreationID string   `json:"creationId"`
	Prompt     string   `json:"prompt"`
	Answers    []string `json:"answers"`
}

func (a *api) handleClarify(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req clarifyRequest
	if err := decodeJSON(r, a.maxRequestSize, &req); err != nil {
		writeError(w, a.log, err)
		return
	}

	if !a.limiter.Allow(user.ID) {
		writeError(w, a.log, apperrors.RateLimited("generation limit reached, try again later"))
		return
	}

	result, err := a.clarifier.Clarify(r.Context(), user.ID, req.CreationID, req.Prompt, req.Answers)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type generateRequest struct {
	CreationID string `json:"creationId"`
	Prompt     string `json:"prompt"`
	Category   string `json:"category"`
}

func (a *api) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req generateRequest
	if err := decodeJSON(r, a.maxRequestSize, &req); err != nil {
		writeError(w, a.log, err)
		return
	}

	if !a.limiter.Allow(user.ID) {
		writeError(w, a.log, apperrors.RateLimited("generation limit reached, try again later"))
		return
	}

	sink, err := newSSEWriter(w)
	if err != nil {
		writeError(w, a.log, apperrors.Validation("streaming is not supported by this connection"))
		return
	}

	genReq := composer.GenerateRequest{Prompt: req.Prompt, Category: req.Category}
	if err := a.generator.Generate(r.Context(), user.ID, req.CreationID, genReq, sink); err != nil {
		// Failures inside a running stream already produced a terminal
		// error frame; only pre-stream failures get a JSON response.
		if !sink.Started() {
			writeError(w, a.log, err)
			return
		}
		a.log.Warn("generation stream ended with error",
			logger.UserIDField(user.ID), logger.ErrorField(err))
	}
}

type regenerateRequest struct {
	CreationID string `json:"creationId"`
	Feedback   string `json:"feedback"`
}

func (a *api) handleRegenerateStream(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req regenerateRequest
	if err := decodeJSON(r, a.maxRequestSize, &req); err != nil {
		writeError(w, a.log, err)
		return
	}
	if req.CreationID == "" {
		writeError(w, a.log, apperrors.Validation("creationId is required"))
		return
	}

	if !a.limiter.Allow(user.ID) {
		writeError(w, a.log, apperrors.RateLimited("generation limit reached, try again later"))
		return
	}

	sink, err := newSSEWriter(w)
	if err != nil {
		writeError(w, a.log, apperrors.Validation("streaming is not supported by this connection"))
		return
	}

	if err := a.generator.Regenerate(r.Context(), user.ID, req.CreationID, req.Feedback, sink); err != nil {
		if !sink.Started() {
			writeError(w, a.log, err)
			return
		}
		a.log.Warn("regeneration stream ended with error",
			logger.CreationIDField(req.CreationID), logger.ErrorField(err))
	}
}

func (a *api) handleListCreations(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	creations, err := a.store.ListCreationsByOwner(r.Context(), user.ID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"creations": creations})
}

// creationDetail is the full draft view: the row plus its step history and
// latest SKILL.md version.
type creationDetail struct {
	Creation *store.SkillCreation  `json:"creation"`
	Steps    []store.CreationStep  `json:"steps"`
	Output   *store.CreationOutput `json:"output,omitempty"`
}

func (a *api) handleGetCreation(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	creationID := chi.URLParam(r, "creationID")

	creation, err := a.store.GetCreation(r.Context(), creationID, user.ID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}

	steps, err := a.store.GetSteps(r.Context(), creationID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}

	detail := creationDetail{Creation: creation, Steps: steps}
	output, err := a.store.GetLatestOutput(r.Context(), creationID)
	switch {
	case err == nil:
		detail.Output = output
	case !errors.Is(err, apperrors.ErrNotFound):
		writeError(w, a.log, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

type saveOutputRequest struct {
	SkillMd string `json:"skillMd"`
}

func (a *api) handleSaveOutput(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	creationID := chi.URLParam(r, "creationID")

	var req saveOutputRequest
	if err := decodeJSON(r, a.maxRequestSize, &req); err != nil {
		writeError(w, a.log, err)
		return
	}
	if req.SkillMd == "" {
		writeError(w, a.log, apperrors.Validation("skillMd is required"))
		return
	}

	// Ownership and status check before the write; the store's save path is
	// keyed by creation id alone.
	creation, err := a.store.GetCreation(r.Context(), creationID, user.ID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	if creation.Status == store.StatusGenerating || creation.Status == store.StatusPublished {
		writeError(w, a.log, apperrors.State("creation %s is %s, output cannot be edited", creation.ID, creation.Status))
		return
	}

	output, err := a.store.SaveEditedOutput(r.Context(), creationID, req.SkillMd)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

type publishRequest struct {
	CreationID  string `json:"creationId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Visibility  string `json:"visibility"`
}

func (a *api) handlePublish(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req publishRequest
	if err := decodeJSON(r, a.maxRequestSize, &req); err != nil {
		writeError(w, a.log, err)
		return
	}

	result, err := a.publisher.Publish(r.Context(), user.ID, req.CreationID,
		req.Name, req.Description, store.Visibility(req.Visibility), user.Name)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
