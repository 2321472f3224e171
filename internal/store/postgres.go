package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentskills/marketplace/internal/apperrors"
	"github.com/agentskills/marketplace/internal/store/sqlc"
	"github.com/agentskills/marketplace/pkg/logger"
	"github.com/agentskills/marketplace/pkg/prefixed_uuid"
)

// Repository is the Postgres implementation of Store.
type Repository struct {
	db      *pgxpool.Pool
	queries *sqlc.Queries
	logger  logger.Logger
}

var _ Store = (*Repository)(nil)

// NewRepository creates a Postgres-backed store.
func NewRepository(db *pgxpool.Pool, logger logger.Logger) *Repository {
	return &Repository{
		db:      db,
		queries: sqlc.New(db),
		logger:  logger,
	}
}

// WithTx creates a new repository instance bound to a transaction
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{
		db:      r.db,
		queries: r.queries.WithTx(tx),
		logger:  r.logger,
	}
}

// Connect opens a pgx connection pool and verifies it with a ping.
func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// CreateCreation inserts a new draft in status clarifying.
func (r *Repository) CreateCreation(ctx context.Context, ownerID, prompt, category string, history []ConversationMessage) (*SkillCreation, error) {
	historyJSON, err := marshalHistory(history)
	if err != nil {
		return nil, err
	}

	row, err := r.queries.CreateCreation(ctx, sqlc.CreateCreationParams{
		ID:                  NewCreationID(),
		OwnerID:             ownerID,
		OriginalPrompt:      prompt,
		Category:            category,
		ConversationHistory: historyJSON,
		Status:              sqlc.CreationStatusClarifying,
	})
	if err != nil {
		r.logger.Error("failed to create skill creation", logger.ErrorField(err), logger.UserIDField(ownerID))
		return nil, apperrors.Persistence(err, "create creation")
	}

	creation, err := r.convertCreation(row)
	if err != nil {
		return nil, err
	}
	r.logger.Info("created skill creation", logger.CreationIDField(creation.ID))
	return creation, nil
}

// GetCreation loads a draft and enforces ownership.
func (r *Repository) GetCreation(ctx context.Context, id, ownerID string) (*SkillCreation, error) {
	row, err := r.queries.GetCreation(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("creation %s", id)
		}
		return nil, apperrors.Persistence(err, "get creation %s", id)
	}
	if row.OwnerID != ownerID {
		return nil, apperrors.Forbidden("creation %s", id)
	}
	return r.convertCreation(row)
}

// UpdateCreation applies a merge-patch.
func (r *Repository) UpdateCreation(ctx context.Context, id string, patch CreationPatch) (*SkillCreation, error) {
	params := sqlc.UpdateCreationParams{ID: id}
	if patch.Category != nil {
		params.Category = pgtype.Text{String: *patch.Category, Valid: true}
	}
	if patch.SkillMdContent != nil {
		params.SkillMdContent = pgtype.Text{String: *patch.SkillMdContent, Valid: true}
	}
	if patch.Resources != nil {
		resourcesJSON, err := json.Marshal(patch.Resources)
		if err != nil {
			return nil, apperrors.Persistence(err, "marshal resources")
		}
		params.Resources = resourcesJSON
	}
	if patch.GeneratedAt != nil {
		params.GeneratedAt = pgtype.Timestamptz{Time: *patch.GeneratedAt, Valid: true}
	}

	row, err := r.queries.UpdateCreation(ctx, params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("creation %s", id)
		}
		return nil, apperrors.Persistence(err, "update creation %s", id)
	}
	return r.convertCreation(row)
}

// ListCreationsByOwner returns the owner's drafts, most recent first.
func (r *Repository) ListCreationsByOwner(ctx context.Context, ownerID string) ([]SkillCreation, error) {
	rows, err := r.queries.ListCreationsByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Persistence(err, "list creations for %s", ownerID)
	}
	creations := make([]SkillCreation, 0, len(rows))
	for _, row := range rows {
		creation, err := r.convertCreation(row)
		if err != nil {
			return nil, err
		}
		creations = append(creations, *creation)
	}
	return creations, nil
}

// AppendConversation appends messages to the Q&A log.
func (r *Repository) AppendConversation(ctx context.Context, id string, messages []ConversationMessage, questionsAsked int) (*SkillCreation, error) {
	messagesJSON, err := marshalHistory(messages)
	if err != nil {
		return nil, err
	}

	row, err := r.queries.AppendCreationConversation(ctx, sqlc.AppendCreationConversationParams{
		ID:             id,
		Messages:       messagesJSON,
		QuestionsAsked: int32(questionsAsked),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("creation %s", id)
		}
		return nil, apperrors.Persistence(err, "append conversation for %s", id)
	}
	return r.convertCreation(row)
}

// TransitionStatus moves the draft between statuses via compare-and-swap.
// The WHERE clause on the current status is the single-writer guard: of two
// concurrent writers exactly one updates a row, the other gets zero rows and
// an ErrState.
func (r *Repository) TransitionStatus(ctx context.Context, id string, from []Status, to Status) error {
	fromStrings := make([]string, 0, len(from))
	for _, s := range from {
		fromStrings = append(fromStrings, string(s))
	}

	affected, err := r.queries.TransitionCreationStatus(ctx, sqlc.TransitionCreationStatusParams{
		ID:           id,
		Status:       sqlc.CreationStatus(to),
		FromStatuses: fromStrings,
	})
	if err != nil {
		return apperrors.Persistence(err, "transition creation %s to %s", id, to)
	}
	if affected == 0 {
		return apperrors.State("creation %s is not in status %s", id, strings.Join(fromStrings, "|"))
	}
	return nil
}

// ReplaceSteps deletes the draft's step history and writes a new one inside
// one transaction. Sources pointing at skills absent from the catalog are
// dropped silently, matching what clients see in the stream.
func (r *Repository) ReplaceSteps(ctx context.Context, creationID string, steps []CreationStep) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperrors.Persistence(err, "begin replace steps for %s", creationID)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	q := r.queries.WithTx(tx)
	if err := q.DeleteCreationSteps(ctx, creationID); err != nil {
		return apperrors.Persistence(err, "delete steps for %s", creationID)
	}

	for _, step := range steps {
		row, err := q.CreateCreationStep(ctx, sqlc.CreateCreationStepParams{
			ID:          prefixed_uuid.New(StepPrefix).String(),
			CreationID:  creationID,
			StepNumber:  int32(step.StepNumber),
			Title:       step.Title,
			Description: step.Description,
		})
		if err != nil {
			return apperrors.Persistence(err, "create step %d for %s", step.StepNumber, creationID)
		}

		for _, source := range step.Sources {
			exists, err := q.SkillExists(ctx, source.SkillID)
			if err != nil {
				return apperrors.Persistence(err, "check source skill %s", source.SkillID)
			}
			if !exists {
				continue
			}
			err = q.CreateStepSource(ctx, sqlc.CreateStepSourceParams{
				ID:            prefixed_uuid.New(SourcePrefix).String(),
				StepID:        row.ID,
				SourceSkillID: source.SkillID,
				Reason:        source.Reason,
			})
			if err != nil {
				return apperrors.Persistence(err, "create step source for %s", creationID)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.Persistence(err, "commit replace steps for %s", creationID)
	}
	return nil
}

// GetSteps returns the persisted step history with enriched sources.
func (r *Repository) GetSteps(ctx context.Context, creationID string) ([]CreationStep, error) {
	stepRows, err := r.queries.ListCreationSteps(ctx, creationID)
	if err != nil {
		return nil, apperrors.Persistence(err, "list steps for %s", creationID)
	}
	sourceRows, err := r.queries.ListCreationStepSources(ctx, creationID)
	if err != nil {
		return nil, apperrors.Persistence(err, "list step sources for %s", creationID)
	}

	sourcesByStep := make(map[string][]StepSource)
	for _, src := range sourceRows {
		sourcesByStep[src.StepID] = append(sourcesByStep[src.StepID], StepSource{
			SkillID:   src.SourceSkillID,
			SkillName: src.SkillName,
			Stars:     int(src.StarsCount),
			Forks:     int(src.ForksCount),
			Rating:    src.AvgRating,
			Reason:    src.Reason,
		})
	}

	steps := make([]CreationStep, 0, len(stepRows))
	for _, row := range stepRows {
		steps = append(steps, CreationStep{
			ID:          row.ID,
			CreationID:  row.CreationID,
			StepNumber:  int(row.StepNumber),
			Title:       row.Title,
			Description: row.Description,
			Sources:     sourcesByStep[row.ID],
			CreatedAt:   row.CreatedAt.Time,
		})
	}
	return steps, nil
}

// CreateOutputVersion appends a new SKILL.md version for the draft.
func (r *Repository) CreateOutputVersion(ctx context.Context, creationID, skillMd string, isEdited bool) (*CreationOutput, error) {
	row, err := r.queries.CreateCreationOutput(ctx, sqlc.CreateCreationOutputParams{
		ID:         prefixed_uuid.New(OutputPrefix).String(),
		CreationID: creationID,
		SkillMd:    skillMd,
		IsEdited:   isEdited,
	})
	if err != nil {
		return nil, apperrors.Persistence(err, "create output for %s", creationID)
	}
	return convertOutput(row), nil
}

// GetLatestOutput returns the highest-version output.
func (r *Repository) GetLatestOutput(ctx context.Context, creationID string) (*CreationOutput, error) {
	row, err := r.queries.GetLatestCreationOutput(ctx, creationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("no output for creation %s", creationID)
		}
		return nil, apperrors.Persistence(err, "get latest output for %s", creationID)
	}
	return convertOutput(row), nil
}

// SaveEditedOutput overwrites the latest output in place and marks it edited.
func (r *Repository) SaveEditedOutput(ctx context.Context, creationID, skillMd string) (*CreationOutput, error) {
	latest, err := r.queries.GetLatestCreationOutput(ctx, creationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.CreateOutputVersion(ctx, creationID, skillMd, true)
		}
		return nil, apperrors.Persistence(err, "get latest output for %s", creationID)
	}

	err = r.queries.UpdateOutputContent(ctx, sqlc.UpdateOutputContentParams{
		ID:      latest.ID,
		SkillMd: skillMd,
	})
	if err != nil {
		return nil, apperrors.Persistence(err, "update output %s", latest.ID)
	}

	latest.SkillMd = skillMd
	latest.IsEdited = true
	return convertOutput(latest), nil
}

// MarkPublished flips a draft to published and links the catalog skill.
func (r *Repository) MarkPublished(ctx context.Context, creationID, skillID string) error {
	affected, err := r.queries.SetCreationPublished(ctx, sqlc.SetCreationPublishedParams{
		ID:      creationID,
		SkillID: pgtype.Text{String: skillID, Valid: true},
	})
	if err != nil {
		return apperrors.Persistence(err, "publish creation %s", creationID)
	}
	if affected == 0 {
		return apperrors.State("creation %s is not in status draft", creationID)
	}
	return nil
}

// CreateSkill inserts a catalog skill record.
func (r *Repository) CreateSkill(ctx context.Context, skill Skill) (*Skill, error) {
	if skill.ID == "" {
		skill.ID = NewSkillID()
	}
	var ownerID pgtype.Text
	if skill.OwnerID != "" {
		ownerID = pgtype.Text{String: skill.OwnerID, Valid: true}
	}

	row, err := r.queries.CreateSkill(ctx, sqlc.CreateSkillParams{
		ID:             skill.ID,
		Name:           skill.Name,
		Description:    skill.Description,
		Author:         skill.Author,
		OwnerID:        ownerID,
		Visibility:     sqlc.SkillVisibility(skill.Visibility),
		Category:       skill.Category,
		BundleKey:      skill.BundleKey,
		FileSize:       skill.FileSize,
		StarsCount:     int32(skill.StarsCount),
		ForksCount:     int32(skill.ForksCount),
		SkillMdContent: skill.SkillMdContent,
		SourceUrl:      skill.SourceURL,
	})
	if err != nil {
		r.logger.Error("failed to create skill", logger.ErrorField(err), logger.SkillIDField(skill.ID))
		return nil, apperrors.Persistence(err, "create skill %s", skill.ID)
	}

	created := convertSkill(row)
	r.logger.Info("created skill", logger.SkillIDField(created.ID))
	return &created, nil
}

// GetSkill returns one catalog skill.
func (r *Repository) GetSkill(ctx context.Context, id string) (*Skill, error) {
	row, err := r.queries.GetSkill(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("skill %s", id)
		}
		return nil, apperrors.Persistence(err, "get skill %s", id)
	}
	skill := convertSkill(row)
	return &skill, nil
}

// SkillExists reports whether a catalog skill exists.
func (r *Repository) SkillExists(ctx context.Context, id string) (bool, error) {
	exists, err := r.queries.SkillExists(ctx, id)
	if err != nil {
		return false, apperrors.Persistence(err, "check skill %s", id)
	}
	return exists, nil
}

// ListSkills returns a filtered, sorted catalog page plus the total count.
func (r *Repository) ListSkills(ctx context.Context, q ListSkillsQuery) ([]Skill, int64, error) {
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Sort == "" {
		q.Sort = SortRecent
	}

	rows, err := r.queries.ListSkills(ctx, sqlc.ListSkillsParams{
		Category: q.Category,
		Search:   q.Search,
		Sort:     string(q.Sort),
		Limit:    int32(q.Limit),
		Offset:   int32(q.Offset),
	})
	if err != nil {
		return nil, 0, apperrors.Persistence(err, "list skills")
	}

	total, err := r.queries.CountSkills(ctx, sqlc.CountSkillsParams{
		Category: q.Category,
		Search:   q.Search,
	})
	if err != nil {
		return nil, 0, apperrors.Persistence(err, "count skills")
	}

	skills := make([]Skill, 0, len(rows))
	for _, row := range rows {
		skills = append(skills, convertSkill(row))
	}
	return skills, total, nil
}

// TopSkills returns the highest-quality public skills for prompt context.
func (r *Repository) TopSkills(ctx context.Context, category string, limit int) ([]Skill, error) {
	if limit <= 0 {
		limit = 15
	}
	rows, err := r.queries.TopSkillsByQuality(ctx, int32(limit))
	if err != nil {
		return nil, apperrors.Persistence(err, "top skills")
	}

	all := make([]Skill, 0, len(rows))
	for _, row := range rows {
		all = append(all, convertSkill(row))
	}

	if category == "" {
		return all, nil
	}

	filtered := make([]Skill, 0, len(all))
	for _, s := range all {
		if strings.EqualFold(s.Category, category) {
			filtered = append(filtered, s)
		}
	}
	// A thin category leaves too little context to be useful
	if len(filtered) < 5 {
		return all, nil
	}
	return filtered, nil
}

// RecordView bumps a skill's view counter.
func (r *Repository) RecordView(ctx context.Context, id string) error {
	if err := r.queries.IncrementSkillViewCount(ctx, id); err != nil {
		return apperrors.Persistence(err, "record view for %s", id)
	}
	return nil
}

// RecordDownload bumps a skill's download counter.
func (r *Repository) RecordDownload(ctx context.Context, id string) error {
	if err := r.queries.IncrementSkillDownloadCount(ctx, id); err != nil {
		return apperrors.Persistence(err, "record download for %s", id)
	}
	return nil
}

// GetSessionUser resolves a bearer session token to its user.
func (r *Repository) GetSessionUser(ctx context.Context, token string) (*User, error) {
	row, err := r.queries.GetSessionUser(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("session")
		}
		return nil, apperrors.Persistence(err, "resolve session")
	}
	return &User{
		ID:        row.ID,
		Email:     row.Email,
		Name:      row.Name,
		CreatedAt: row.CreatedAt.Time,
	}, nil
}

// CreateUser inserts a user record.
func (r *Repository) CreateUser(ctx context.Context, email, name string) (*User, error) {
	row, err := r.queries.CreateUser(ctx, sqlc.CreateUserParams{
		ID:    prefixed_uuid.New(UserPrefix).String(),
		Email: email,
		Name:  name,
	})
	if err != nil {
		return nil, apperrors.Persistence(err, "create user %s", email)
	}
	return &User{
		ID:        row.ID,
		Email:     row.Email,
		Name:      row.Name,
		CreatedAt: row.CreatedAt.Time,
	}, nil
}

// CreateSession issues a session token for a user.
func (r *Repository) CreateSession(ctx context.Context, userID string, ttlSeconds int) (*Session, error) {
	row, err := r.queries.CreateSession(ctx, sqlc.CreateSessionParams{
		ID:        prefixed_uuid.New(SessionPrefix).String(),
		UserID:    userID,
		ExpiresAt: pgtype.Timestamptz{Time: time.Now().Add(time.Duration(ttlSeconds) * time.Second), Valid: true},
	})
	if err != nil {
		return nil, apperrors.Persistence(err, "create session for %s", userID)
	}
	return &Session{
		ID:        row.ID,
		UserID:    row.UserID,
		ExpiresAt: row.ExpiresAt.Time,
		CreatedAt: row.CreatedAt.Time,
	}, nil
}

func (r *Repository) convertCreation(row sqlc.SkillCreation) (*SkillCreation, error) {
	var history []ConversationMessage
	if len(row.ConversationHistory) > 0 {
		if err := json.Unmarshal(row.ConversationHistory, &history); err != nil {
			return nil, apperrors.Persistence(err, "decode conversation history for %s", row.ID)
		}
	}

	var resources []Resource
	if len(row.Resources) > 0 {
		if err := json.Unmarshal(row.Resources, &resources); err != nil {
			return nil, apperrors.Persistence(err, "decode resources for %s", row.ID)
		}
	}

	return &SkillCreation{
		ID:                  row.ID,
		OwnerID:             row.OwnerID,
		OriginalPrompt:      row.OriginalPrompt,
		Category:            row.Category,
		ConversationHistory: history,
		SkillMdContent:      row.SkillMdContent,
		Resources:           resources,
		Status:              Status(row.Status),
		QuestionsAsked:      int(row.QuestionsAsked),
		SkillID:             row.SkillID.String,
		GeneratedAt:         timestampPtr(row.GeneratedAt),
		PublishedAt:         timestampPtr(row.PublishedAt),
		CreatedAt:           row.CreatedAt.Time,
		UpdatedAt:           row.UpdatedAt.Time,
	}, nil
}

func convertOutput(row sqlc.SkillCreationOutput) *CreationOutput {
	return &CreationOutput{
		ID:         row.ID,
		CreationID: row.CreationID,
		Version:    int(row.Version),
		SkillMd:    row.SkillMd,
		IsEdited:   row.IsEdited,
		CreatedAt:  row.CreatedAt.Time,
	}
}

func convertSkill(row sqlc.Skill) Skill {
	return Skill{
		ID:             row.ID,
		Name:           row.Name,
		Description:    row.Description,
		Author:         row.Author,
		OwnerID:        row.OwnerID.String,
		Visibility:     Visibility(row.Visibility),
		Category:       row.Category,
		BundleKey:      row.BundleKey,
		FileSize:       row.FileSize,
		StarsCount:     int(row.StarsCount),
		ForksCount:     int(row.ForksCount),
		DownloadCount:  int(row.DownloadCount),
		ViewCount:      int(row.ViewCount),
		AvgRating:      row.AvgRating,
		RatingCount:    int(row.RatingCount),
		SkillMdContent: row.SkillMdContent,
		SourceURL:      row.SourceUrl,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}

func timestampPtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

func marshalHistory(history []ConversationMessage) ([]byte, error) {
	if history == nil {
		history = []ConversationMessage{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return nil, apperrors.Persistence(err, "marshal conversation history")
	}
	return data, nil
}
