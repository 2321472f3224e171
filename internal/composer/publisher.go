package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agentskills/marketplace/internal/apperrors"
	"github.com/agentskills/marketplace/internal/bundle"
	"github.com/agentskills/marketplace/internal/storage"
	"github.com/agentskills/marketplace/internal/store"
	"github.com/agentskills/marketplace/pkg/logger"
	"github.com/agentskills/marketplace/pkg/metrics"
)

// PublishResult identifies the catalog skill created from a draft.
type PublishResult struct {
	SkillID string `json:"skillId"`
	URL     string `json:"url"`
}

// Publisher turns a finished draft into a published catalog skill.
type Publisher struct {
	drafts  store.DraftStore
	catalog store.CatalogStore
	bundles storage.FileProvider
	logger  logger.Logger
	metrics metrics.Metrics
}

// PublisherConfig configures a Publisher. Bundles may be nil, in which case
// no archive is uploaded and downloads always build one on the fly.
type PublisherConfig struct {
	Drafts  store.DraftStore
	Catalog store.CatalogStore
	Bundles storage.FileProvider
	Logger  logger.Logger
	Metrics metrics.Metrics
}

// NewPublisher builds a Publisher.
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if cfg.Drafts == nil {
		return nil, fmt.Errorf("draft store is required")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Publisher{
		drafts:  cfg.Drafts,
		catalog: cfg.Catalog,
		bundles: cfg.Bundles,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// BundleKey returns the storage key a published skill's archive lives under.
func BundleKey(skillID string) string {
	return fmt.Sprintf("user-created/%s/skill.zip", skillID)
}

// Publish validates the draft, stores its bundle, creates the catalog record
// and only then flips the draft to published. The catalog insert committing
// before the status flip means a failure can leave an orphan catalog row but
// never a published draft without its skill.
func (p *Publisher) Publish(ctx context.Context, ownerID, creationID, name, description string, visibility store.Visibility, authorName string) (*PublishResult, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return nil, apperrors.Validation("name is required")
	}
	if description == "" {
		return nil, apperrors.Validation("description is required")
	}
	if visibility == "" {
		visibility = store.VisibilityPublic
	}
	if !visibility.Valid() {
		return nil, apperrors.Validation("visibility must be public or private")
	}

	creation, err := p.drafts.GetCreation(ctx, creationID, ownerID)
	if err != nil {
		return nil, err
	}
	if creation.Status == store.StatusPublished {
		return nil, apperrors.State("creation %s is already published", creationID)
	}
	if creation.Status != store.StatusDraft {
		return nil, apperrors.State("creation %s is in status %s, not draft", creationID, creation.Status)
	}

	output, err := p.drafts.GetLatestOutput(ctx, creationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Validation("no generated content to publish")
		}
		return nil, err
	}

	skillID := store.NewSkillID()
	bundleKey := BundleKey(skillID)

	archive, err := bundle.Build(output.SkillMd, creation.Resources)
	if err != nil {
		return nil, err
	}

	// Upload failure is deliberately non-fatal: the download endpoint falls
	// back to building the archive on the fly.
	if p.bundles != nil {
		if err := p.bundles.Write(ctx, bundleKey, archive); err != nil {
			p.logger.Warn("bundle upload failed, downloads will build on the fly",
				logger.ErrorField(err),
				logger.SkillIDField(skillID),
			)
		}
	}

	category := creation.Category
	if category == "" {
		category = "other"
	}

	skill, err := p.catalog.CreateSkill(ctx, store.Skill{
		ID:             skillID,
		Name:           name,
		Description:    description,
		Author:         authorName,
		OwnerID:        ownerID,
		Visibility:     visibility,
		Category:       category,
		BundleKey:      bundleKey,
		FileSize:       int64(len(archive)),
		SkillMdContent: output.SkillMd,
	})
	if err != nil {
		return nil, err
	}

	if err := p.drafts.MarkPublished(ctx, creationID, skill.ID); err != nil {
		return nil, err
	}

	p.metrics.IncrementGenerationCounter(metrics.GenerationMetricPublished)
	p.logger.Info("skill published",
		logger.CreationIDField(creationID),
		logger.SkillIDField(skill.ID),
	)

	return &PublishResult{
		SkillID: skill.ID,
		URL:     "/skills/" + skill.ID,
	}, nil
}
