package server

import (
	"errors"
	"net/http"

	"github.com/agentskills/marketplace/internal/converter"
	"github.com/agentskills/marketplace/internal/store"
	"github.com/agentskills/marketplace/pkg/logger"
	"github.com/agentskills/marketplace/pkg/utils"
)

type convertGitHubRequest struct {
	URL     string `json:"url"`
	Subpath string `json:"subpath"`
	File    string `json:"file"`
}

type convertPasteRequest struct {
	Content   string           `json:"content"`
	Filename  string           `json:"filename"`
	Resources []store.Resource `json:"resources"`
}

// convertResponse is an import result plus the ready-to-publish draft it was
// stored as.
type convertResponse struct {
	CreationID string            `json:"creationId"`
	Result     *converter.Result `json:"result"`
}

func (a *api) handleConvertGitHub(w http.ResponseWriter, r *http.Request) {
	var req convertGitHubRequest
	if err := decodeJSON(r, a.maxRequestSize, &req); err != nil {
		writeError(w, a.log, err)
		return
	}

	result, err := a.importer.Import(r.Context(), req.URL, req.Subpath)
	if err != nil {
		var pick *converter.PickRequiredError
		if errors.As(err, &pick) {
			writeJSON(w, http.StatusConflict, errorBody{
				Error: "multiple markdown files found, pick one",
				Files: pick.Files,
			})
			return
		}
		writeError(w, a.log, err)
		return
	}

	a.respondWithDraft(w, r, result)
}

func (a *api) handleConvertPick(w http.ResponseWriter, r *http.Request) {
	var req convertGitHubRequest
	if err := decodeJSON(r, a.maxRequestSize, &req); err != nil {
		writeError(w, a.log, err)
		return
	}

	result, err := a.importer.Pick(r.Context(), req.URL, req.File)
	if err != nil {
		writeError(w, a.log, err)
		return
	}

	a.respondWithDraft(w, r, result)
}

func (a *api) handleConvertPaste(w http.ResponseWriter, r *http.Request) {
	var req convertPasteRequest
	if err := decodeJSON(r, a.maxRequestSize, &req); err != nil {
		writeError(w, a.log, err)
		return
	}

	result, err := converter.Paste(req.Content, req.Filename, req.Resources)
	if err != nil {
		writeError(w, a.log, err)
		return
	}

	a.respondWithDraft(w, r, result)
}

// handleValidate scores pasted SKILL.md content without storing anything.
func (a *api) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req convertPasteRequest
	if err := decodeJSON(r, a.maxRequestSize, &req); err != nil {
		writeError(w, a.log, err)
		return
	}

	result := converter.Convert(req.Content, "paste", "")
	writeJSON(w, http.StatusOK, result.Validation)
}

// respondWithDraft stores an import result as a draft in status draft, ready
// for publishing, and returns it with the new creation id.
func (a *api) respondWithDraft(w http.ResponseWriter, r *http.Request, result *converter.Result) {
	user, _ := UserFromContext(r.Context())
	ctx := r.Context()

	prompt := "Imported skill from " + result.Source
	if result.SourceName != "" {
		prompt += ": " + result.SourceName
	}

	creation, err := a.store.CreateCreation(ctx, user.ID, prompt, "other", nil)
	if err != nil {
		writeError(w, a.log, err)
		return
	}

	patch := store.CreationPatch{SkillMdContent: utils.ToPtr(result.SkillMd), Resources: result.Resources}
	if _, err := a.store.UpdateCreation(ctx, creation.ID, patch); err != nil {
		writeError(w, a.log, err)
		return
	}
	if _, err := a.store.CreateOutputVersion(ctx, creation.ID, result.SkillMd, false); err != nil {
		writeError(w, a.log, err)
		return
	}
	if err := a.store.TransitionStatus(ctx, creation.ID, []store.Status{store.StatusClarifying}, store.StatusDraft); err != nil {
		writeError(w, a.log, err)
		return
	}

	a.log.Info("skill imported as draft",
		logger.CreationIDField(creation.ID),
		logger.UserIDField(user.ID),
		logger.StringField("source", result.Source))

	writeJSON(w, http.StatusCreated, convertResponse{CreationID: creation.ID, Result: result})
}
