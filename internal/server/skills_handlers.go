package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/agentskills/marketplace/internal/apperrors"
	"github.com/agentskills/marketplace/internal/bundle"
	"github.com/agentskills/marketplace/internal/composer"
	"github.com/agentskills/marketplace/internal/converter"
	"github.com/agentskills/marketplace/internal/store"
	"github.com/agentskills/marketplace/pkg/logger"
)

type skillListResponse struct {
	Skills []store.Skill `json:"skills"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

func (a *api) handleListSkills(w http.ResponseWriter, r *http.Request) {
	q := store.ListSkillsQuery{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		Sort:     store.SkillSort(r.URL.Query().Get("sort")),
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		q.Limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil {
		q.Offset = v
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	skills, total, err := a.store.ListSkills(r.Context(), q)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, skillListResponse{
		Skills: skills,
		Total:  total,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
}

// visibleSkill loads a skill and hides private ones from everyone but their
// owner, indistinguishable from a missing id.
func (a *api) visibleSkill(r *http.Request, id string) (*store.Skill, error) {
	skill, err := a.store.GetSkill(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if skill.Visibility == store.VisibilityPrivate {
		user, ok := UserFromContext(r.Context())
		if !ok || user.ID != skill.OwnerID {
			return nil, apperrors.NotFound("skill %s", id)
		}
	}
	return skill, nil
}

func (a *api) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	skillID := chi.URLParam(r, "skillID")

	skill, err := a.visibleSkill(r, skillID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}

	if err := a.store.RecordView(r.Context(), skillID); err != nil {
		a.log.Warn("failed to record view", logger.SkillIDField(skillID), logger.ErrorField(err))
	}
	writeJSON(w, http.StatusOK, skill)
}

func (a *api) handleDownloadSkill(w http.ResponseWriter, r *http.Request) {
	skillID := chi.URLParam(r, "skillID")

	skill, err := a.visibleSkill(r, skillID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}

	archive := a.readBundle(r, skill)
	if archive == nil {
		// Storage miss or no uploaded bundle: rebuild from the catalog copy.
		archive, err = bundle.Build(skill.SkillMdContent, nil)
		if err != nil {
			writeError(w, a.log, apperrors.Persistence(err, "build bundle for %s", skillID))
			return
		}
	}

	if err := a.store.RecordDownload(r.Context(), skillID); err != nil {
		a.log.Warn("failed to record download", logger.SkillIDField(skillID), logger.ErrorField(err))
	}

	filename := converter.SanitizeName(skill.Name) + ".zip"
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// readBundle fetches the uploaded ZIP from bundle storage, returning nil when
// the skill has no stored bundle or the read fails.
func (a *api) readBundle(r *http.Request, skill *store.Skill) []byte {
	if a.bundles == nil {
		return nil
	}
	key := skill.BundleKey
	if key == "" {
		key = composer.BundleKey(skill.ID)
	}
	data, err := a.bundles.Read(r.Context(), key)
	if err != nil {
		a.log.Warn("bundle read failed, rebuilding on the fly",
			logger.SkillIDField(skill.ID), logger.ErrorField(err))
		return nil
	}
	return data
}
