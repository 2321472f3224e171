package composer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agentskills/marketplace/internal/apperrors"
	"github.com/agentskills/marketplace/internal/bundle"
	storagemocks "github.com/agentskills/marketplace/internal/storage/mocks"
	"github.com/agentskills/marketplace/internal/store"
	"github.com/agentskills/marketplace/pkg/metrics"
)

const publishedSkillMd = "---\nname: lint-python\ndescription: \"Lints Python code.\"\n---\n\n# Lint Python\n"

func seedDraftWithOutput(t *testing.T, drafts *fakeDraftStore) *store.SkillCreation {
	t.Helper()
	creation := drafts.seed(store.SkillCreation{
		OwnerID:        "user_1",
		OriginalPrompt: "A skill that lints Python code for me",
		Category:       "devtools",
		Status:         store.StatusDraft,
		Resources: []store.Resource{
			{Path: "scripts/check.sh", Content: "#!/bin/sh\nruff check .\n"},
		},
	})
	_, err := drafts.CreateOutputVersion(context.Background(), creation.ID, publishedSkillMd, false)
	require.NoError(t, err)
	return creation
}

func newTestPublisher(t *testing.T, drafts store.DraftStore, catalog store.CatalogStore, bundles *storagemocks.FileProvider) *Publisher {
	t.Helper()
	cfg := PublisherConfig{
		Drafts:  drafts,
		Catalog: catalog,
		Logger:  testLogger(),
		Metrics: metrics.Metrics{},
	}
	if bundles != nil {
		cfg.Bundles = bundles
	}
	p, err := NewPublisher(cfg)
	require.NoError(t, err)
	return p
}

func TestPublish(t *testing.T) {
	drafts := newFakeDraftStore()
	catalog := newFakeCatalog()
	creation := seedDraftWithOutput(t, drafts)

	var uploadedKey string
	var uploadedData []byte
	bundles := storagemocks.NewFileProvider(t)
	bundles.EXPECT().Write(mock.Anything, mock.Anything, mock.Anything).
		Run(func(_ context.Context, key string, data []byte) {
			uploadedKey = key
			uploadedData = data
		}).
		Return(nil)

	p := newTestPublisher(t, drafts, catalog, bundles)
	result, err := p.Publish(context.Background(), "user_1", creation.ID, "Lint Python", "Lints Python code", store.VisibilityPublic, "Ada")
	require.NoError(t, err)

	assert.Equal(t, "/skills/"+result.SkillID, result.URL)

	// The uploaded archive lives under the published skill's key and carries
	// the SKILL.md plus the draft's resources.
	assert.Equal(t, fmt.Sprintf("user-created/%s/skill.zip", result.SkillID), uploadedKey)
	skillMd, err := bundle.ReadSkillMd(uploadedData)
	require.NoError(t, err)
	assert.Equal(t, publishedSkillMd, skillMd)

	skill, err := catalog.GetSkill(context.Background(), result.SkillID)
	require.NoError(t, err)
	assert.Equal(t, "Lint Python", skill.Name)
	assert.Equal(t, "Ada", skill.Author)
	assert.Equal(t, "user_1", skill.OwnerID)
	assert.Equal(t, store.VisibilityPublic, skill.Visibility)
	assert.Equal(t, "devtools", skill.Category)
	assert.Equal(t, uploadedKey, skill.BundleKey)
	assert.Equal(t, int64(len(uploadedData)), skill.FileSize)
	assert.Equal(t, publishedSkillMd, skill.SkillMdContent)

	published, err := drafts.GetCreation(context.Background(), creation.ID, "user_1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusPublished, published.Status)
	assert.Equal(t, result.SkillID, published.SkillID)
	assert.NotNil(t, published.PublishedAt)
}

func TestPublishValidation(t *testing.T) {
	drafts := newFakeDraftStore()
	creation := seedDraftWithOutput(t, drafts)
	p := newTestPublisher(t, drafts, newFakeCatalog(), nil)

	tests := []struct {
		name        string
		skillName   string
		description string
		visibility  store.Visibility
	}{
		{"empty name", "", "desc", store.VisibilityPublic},
		{"blank name", "   ", "desc", store.VisibilityPublic},
		{"empty description", "Name", "", store.VisibilityPublic},
		{"unknown visibility", "Name", "desc", "unlisted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Publish(context.Background(), "user_1", creation.ID, tt.skillName, tt.description, tt.visibility, "Ada")
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}

	// The draft is untouched after every rejected attempt.
	assert.Equal(t, store.StatusDraft, drafts.status(creation.ID))
}

func TestPublishDefaultsToPublic(t *testing.T) {
	drafts := newFakeDraftStore()
	catalog := newFakeCatalog()
	creation := seedDraftWithOutput(t, drafts)
	p := newTestPublisher(t, drafts, catalog, nil)

	result, err := p.Publish(context.Background(), "user_1", creation.ID, "Lint Python", "Lints Python code", "", "Ada")
	require.NoError(t, err)

	skill, err := catalog.GetSkill(context.Background(), result.SkillID)
	require.NoError(t, err)
	assert.Equal(t, store.VisibilityPublic, skill.Visibility)
}

func TestPublishCategoryFallback(t *testing.T) {
	drafts := newFakeDraftStore()
	catalog := newFakeCatalog()
	creation := drafts.seed(store.SkillCreation{
		OwnerID:        "user_1",
		OriginalPrompt: "A skill that lints Python code for me",
		Status:         store.StatusDraft,
	})
	_, err := drafts.CreateOutputVersion(context.Background(), creation.ID, publishedSkillMd, false)
	require.NoError(t, err)

	p := newTestPublisher(t, drafts, catalog, nil)
	result, err := p.Publish(context.Background(), "user_1", creation.ID, "Lint Python", "Lints Python code", store.VisibilityPrivate, "Ada")
	require.NoError(t, err)

	skill, err := catalog.GetSkill(context.Background(), result.SkillID)
	require.NoError(t, err)
	assert.Equal(t, "other", skill.Category)
}

func TestPublishWrongStatus(t *testing.T) {
	drafts := newFakeDraftStore()
	p := newTestPublisher(t, drafts, newFakeCatalog(), nil)

	clarifying := drafts.seed(store.SkillCreation{
		OwnerID:        "user_1",
		OriginalPrompt: "A skill that lints Python code for me",
		Status:         store.StatusClarifying,
	})
	_, err := p.Publish(context.Background(), "user_1", clarifying.ID, "Name", "desc", store.VisibilityPublic, "Ada")
	assert.ErrorIs(t, err, apperrors.ErrState)

	published := drafts.seed(store.SkillCreation{
		OwnerID:        "user_1",
		OriginalPrompt: "A skill that lints Python code for me",
		Status:         store.StatusPublished,
	})
	_, err = p.Publish(context.Background(), "user_1", published.ID, "Name", "desc", store.VisibilityPublic, "Ada")
	assert.ErrorIs(t, err, apperrors.ErrState)
	assert.Contains(t, err.Error(), "already published")
}

func TestPublishWithoutOutput(t *testing.T) {
	drafts := newFakeDraftStore()
	creation := drafts.seed(store.SkillCreation{
		OwnerID:        "user_1",
		OriginalPrompt: "A skill that lints Python code for me",
		Status:         store.StatusDraft,
	})

	p := newTestPublisher(t, drafts, newFakeCatalog(), nil)
	_, err := p.Publish(context.Background(), "user_1", creation.ID, "Name", "desc", store.VisibilityPublic, "Ada")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "no generated content")
}

func TestPublishUploadFailureIsNonFatal(t *testing.T) {
	drafts := newFakeDraftStore()
	catalog := newFakeCatalog()
	creation := seedDraftWithOutput(t, drafts)

	bundles := storagemocks.NewFileProvider(t)
	bundles.EXPECT().Write(mock.Anything, mock.Anything, mock.Anything).
		Return(fmt.Errorf("bucket unavailable"))

	p := newTestPublisher(t, drafts, catalog, bundles)
	result, err := p.Publish(context.Background(), "user_1", creation.ID, "Lint Python", "Lints Python code", store.VisibilityPublic, "Ada")
	require.NoError(t, err)

	// Published anyway; downloads will rebuild the archive on demand.
	assert.Equal(t, store.StatusPublished, drafts.status(creation.ID))
	_, err = catalog.GetSkill(context.Background(), result.SkillID)
	assert.NoError(t, err)
}

func TestPublishOwnership(t *testing.T) {
	drafts := newFakeDraftStore()
	creation := seedDraftWithOutput(t, drafts)

	p := newTestPublisher(t, drafts, newFakeCatalog(), nil)
	_, err := p.Publish(context.Background(), "user_2", creation.ID, "Name", "desc", store.VisibilityPublic, "Ada")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestPublishRejectsBadResourcePaths(t *testing.T) {
	drafts := newFakeDraftStore()
	creation := drafts.seed(store.SkillCreation{
		OwnerID:        "user_1",
		OriginalPrompt: "A skill that lints Python code for me",
		Status:         store.StatusDraft,
		Resources: []store.Resource{
			{Path: "../outside.sh", Content: "echo no"},
		},
	})
	_, err := drafts.CreateOutputVersion(context.Background(), creation.ID, publishedSkillMd, false)
	require.NoError(t, err)

	p := newTestPublisher(t, drafts, newFakeCatalog(), nil)
	_, err = p.Publish(context.Background(), "user_1", creation.ID, "Name", "desc", store.VisibilityPublic, "Ada")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, store.StatusDraft, drafts.status(creation.ID))
}

func TestBundleKey(t *testing.T) {
	key := BundleKey("skill_abc")
	assert.Equal(t, "user-created/skill_abc/skill.zip", key)
	assert.False(t, strings.HasPrefix(key, "/"))
}
