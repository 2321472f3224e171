package store

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentskills/marketplace/internal/apperrors"
	"github.com/agentskills/marketplace/internal/store/sqlc"
)

func TestStatusValid(t *testing.T) {
	tests := []struct {
		status Status
		valid  bool
	}{
		{StatusClarifying, true},
		{StatusGenerating, true},
		{StatusDraft, true},
		{StatusPublished, true},
		{Status("archived"), false},
		{Status(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.status.Valid())
		})
	}
}

func TestVisibilityValid(t *testing.T) {
	assert.True(t, VisibilityPublic.Valid())
	assert.True(t, VisibilityPrivate.Valid())
	assert.False(t, Visibility("internal").Valid())
}

func TestIDPrefixes(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewCreationID(), CreationPrefix+"-"))
	assert.True(t, strings.HasPrefix(NewSkillID(), SkillPrefix+"-"))
	assert.NotEqual(t, NewCreationID(), NewCreationID())
}

func TestConvertCreation(t *testing.T) {
	r := &Repository{}
	now := time.Now().UTC()

	row := sqlc.SkillCreation{
		ID:                  "crtn-123",
		OwnerID:             "user-1",
		OriginalPrompt:      "build a skill for reviewing PRs",
		Category:            "development",
		ConversationHistory: []byte(`[{"role":"assistant","content":"What languages?"},{"role":"user","content":"Go"}]`),
		SkillMdContent:      "---\nname: pr-reviewer\n---",
		Resources:           []byte(`[{"path":"reference.md","description":"styleguide","content":"# Style"}]`),
		Status:              sqlc.CreationStatusDraft,
		QuestionsAsked:      2,
		SkillID:             pgtype.Text{String: "skill-9", Valid: true},
		GeneratedAt:         pgtype.Timestamptz{Time: now, Valid: true},
		CreatedAt:           pgtype.Timestamptz{Time: now, Valid: true},
		UpdatedAt:           pgtype.Timestamptz{Time: now, Valid: true},
	}

	creation, err := r.convertCreation(row)
	require.NoError(t, err)

	assert.Equal(t, "crtn-123", creation.ID)
	assert.Equal(t, StatusDraft, creation.Status)
	assert.Equal(t, 2, creation.QuestionsAsked)
	assert.Equal(t, "skill-9", creation.SkillID)
	require.Len(t, creation.ConversationHistory, 2)
	assert.Equal(t, "assistant", creation.ConversationHistory[0].Role)
	assert.Equal(t, "Go", creation.ConversationHistory[1].Content)
	require.Len(t, creation.Resources, 1)
	assert.Equal(t, "reference.md", creation.Resources[0].Path)
	require.NotNil(t, creation.GeneratedAt)
	assert.Equal(t, now, *creation.GeneratedAt)
	assert.Nil(t, creation.PublishedAt)
}

func TestConvertCreationEmptyJSONB(t *testing.T) {
	r := &Repository{}

	creation, err := r.convertCreation(sqlc.SkillCreation{
		ID:     "crtn-empty",
		Status: sqlc.CreationStatusClarifying,
	})
	require.NoError(t, err)
	assert.Empty(t, creation.ConversationHistory)
	assert.Empty(t, creation.Resources)
	assert.Empty(t, creation.SkillID)
}

func TestConvertCreationBadJSON(t *testing.T) {
	r := &Repository{}

	_, err := r.convertCreation(sqlc.SkillCreation{
		ID:                  "crtn-bad",
		ConversationHistory: []byte(`{not json`),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPersistence))
}

func TestConvertSkill(t *testing.T) {
	now := time.Now().UTC()

	skill := convertSkill(sqlc.Skill{
		ID:            "skill-1",
		Name:          "pr-reviewer",
		Description:   "Reviews pull requests",
		Author:        "acme",
		OwnerID:       pgtype.Text{String: "user-1", Valid: true},
		Visibility:    sqlc.SkillVisibilityPublic,
		Category:      "development",
		BundleKey:     "skills/skill-1.zip",
		FileSize:      2048,
		StarsCount:    12,
		ForksCount:    3,
		DownloadCount: 40,
		ViewCount:     100,
		AvgRating:     4.5,
		RatingCount:   8,
		CreatedAt:     pgtype.Timestamptz{Time: now, Valid: true},
		UpdatedAt:     pgtype.Timestamptz{Time: now, Valid: true},
	})

	assert.Equal(t, "skill-1", skill.ID)
	assert.Equal(t, "user-1", skill.OwnerID)
	assert.Equal(t, VisibilityPublic, skill.Visibility)
	assert.Equal(t, int64(2048), skill.FileSize)
	assert.Equal(t, 40, skill.DownloadCount)
	assert.Equal(t, 4.5, skill.AvgRating)
	assert.Equal(t, now, skill.CreatedAt)
}

func TestConvertSkillNoOwner(t *testing.T) {
	skill := convertSkill(sqlc.Skill{ID: "skill-2"})
	assert.Empty(t, skill.OwnerID)
}

func TestTimestampPtr(t *testing.T) {
	assert.Nil(t, timestampPtr(pgtype.Timestamptz{}))

	now := time.Now()
	got := timestampPtr(pgtype.Timestamptz{Time: now, Valid: true})
	require.NotNil(t, got)
	assert.Equal(t, now, *got)
}

func TestMarshalHistory(t *testing.T) {
	data, err := marshalHistory(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = marshalHistory([]ConversationMessage{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"role":"user","content":"hi"}]`, string(data))
}
