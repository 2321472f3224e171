package sqlc

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createUser = `-- name: CreateUser :one
INSERT INTO users (id, email, name)
VALUES ($1, $2, $3)
RETURNING id, email, name, created_at
`

type CreateUserParams struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.ID, arg.Email, arg.Name)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Name,
		&i.CreatedAt,
	)
	return i, err
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, email, name, created_at FROM users WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Name,
		&i.CreatedAt,
	)
	return i, err
}

const createSession = `-- name: CreateSession :one
INSERT INTO sessions (id, user_id, expires_at)
VALUES ($1, $2, $3)
RETURNING id, user_id, expires_at, created_at
`

type CreateSessionParams struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	ExpiresAt pgtype.Timestamptz `json:"expires_at"`
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	row := q.db.QueryRow(ctx, createSession, arg.ID, arg.UserID, arg.ExpiresAt)
	var i Session
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.ExpiresAt,
		&i.CreatedAt,
	)
	return i, err
}

const getSessionUser = `-- name: GetSessionUser :one
SELECT u.id, u.email, u.name, u.created_at
FROM sessions s
JOIN users u ON u.id = s.user_id
WHERE s.id = $1 AND s.expires_at > NOW()
`

func (q *Queries) GetSessionUser(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRow(ctx, getSessionUser, id)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Name,
		&i.CreatedAt,
	)
	return i, err
}

const deleteExpiredSessions = `-- name: DeleteExpiredSessions :exec
DELETE FROM sessions WHERE expires_at <= NOW()
`

func (q *Queries) DeleteExpiredSessions(ctx context.Context) error {
	_, err := q.db.Exec(ctx, deleteExpiredSessions)
	return err
}

const createCreation = `-- name: CreateCreation :one
INSERT INTO skill_creations (id, owner_id, original_prompt, category, conversation_history, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, owner_id, original_prompt, category, conversation_history, skill_md_content, resources, status, questions_asked, skill_id, generated_at, published_at, created_at, updated_at
`

type CreateCreationParams struct {
	ID                  string         `json:"id"`
	OwnerID             string         `json:"owner_id"`
	OriginalPrompt      string         `json:"original_prompt"`
	Category            string         `json:"category"`
	ConversationHistory []byte         `json:"conversation_history"`
	Status              CreationStatus `json:"status"`
}

func (q *Queries) CreateCreation(ctx context.Context, arg CreateCreationParams) (SkillCreation, error) {
	row := q.db.QueryRow(ctx, createCreation,
		arg.ID,
		arg.OwnerID,
		arg.OriginalPrompt,
		arg.Category,
		arg.ConversationHistory,
		arg.Status,
	)
	var i SkillCreation
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.OriginalPrompt,
		&i.Category,
		&i.ConversationHistory,
		&i.SkillMdContent,
		&i.Resources,
		&i.Status,
		&i.QuestionsAsked,
		&i.SkillID,
		&i.GeneratedAt,
		&i.PublishedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getCreation = `-- name: GetCreation :one
SELECT id, owner_id, original_prompt, category, conversation_history, skill_md_content, resources, status, questions_asked, skill_id, generated_at, published_at, created_at, updated_at
FROM skill_creations
WHERE id = $1
`

func (q *Queries) GetCreation(ctx context.Context, id string) (SkillCreation, error) {
	row := q.db.QueryRow(ctx, getCreation, id)
	var i SkillCreation
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.OriginalPrompt,
		&i.Category,
		&i.ConversationHistory,
		&i.SkillMdContent,
		&i.Resources,
		&i.Status,
		&i.QuestionsAsked,
		&i.SkillID,
		&i.GeneratedAt,
		&i.PublishedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listCreationsByOwner = `-- name: ListCreationsByOwner :many
SELECT id, owner_id, original_prompt, category, conversation_history, skill_md_content, resources, status, questions_asked, skill_id, generated_at, published_at, created_at, updated_at
FROM skill_creations
WHERE owner_id = $1
ORDER BY updated_at DESC
`

func (q *Queries) ListCreationsByOwner(ctx context.Context, ownerID string) ([]SkillCreation, error) {
	rows, err := q.db.Query(ctx, listCreationsByOwner, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SkillCreation
	for rows.Next() {
		var i SkillCreation
		if err := rows.Scan(
			&i.ID,
			&i.OwnerID,
			&i.OriginalPrompt,
			&i.Category,
			&i.ConversationHistory,
			&i.SkillMdContent,
			&i.Resources,
			&i.Status,
			&i.QuestionsAsked,
			&i.SkillID,
			&i.GeneratedAt,
			&i.PublishedAt,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateCreation = `-- name: UpdateCreation :one
UPDATE skill_creations SET
	category = COALESCE($2, category),
	skill_md_content = COALESCE($3, skill_md_content),
	resources = COALESCE($4, resources),
	generated_at = COALESCE($5, generated_at),
	updated_at = NOW()
WHERE id = $1
RETURNING id, owner_id, original_prompt, category, conversation_history, skill_md_content, resources, status, questions_asked, skill_id, generated_at, published_at, created_at, updated_at
`

type UpdateCreationParams struct {
	ID             string             `json:"id"`
	Category       pgtype.Text        `json:"category"`
	SkillMdContent pgtype.Text        `json:"skill_md_content"`
	Resources      []byte             `json:"resources"`
	GeneratedAt    pgtype.Timestamptz `json:"generated_at"`
}

func (q *Queries) UpdateCreation(ctx context.Context, arg UpdateCreationParams) (SkillCreation, error) {
	row := q.db.QueryRow(ctx, updateCreation,
		arg.ID,
		arg.Category,
		arg.SkillMdContent,
		arg.Resources,
		arg.GeneratedAt,
	)
	var i SkillCreation
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.OriginalPrompt,
		&i.Category,
		&i.ConversationHistory,
		&i.SkillMdContent,
		&i.Resources,
		&i.Status,
		&i.QuestionsAsked,
		&i.SkillID,
		&i.GeneratedAt,
		&i.PublishedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const appendCreationConversation = `-- name: AppendCreationConversation :one
UPDATE skill_creations SET
	conversation_history = conversation_history || $2::jsonb,
	questions_asked = questions_asked + $3,
	updated_at = NOW()
WHERE id = $1
RETURNING id, owner_id, original_prompt, category, conversation_history, skill_md_content, resources, status, questions_asked, skill_id, generated_at, published_at, created_at, updated_at
`

type AppendCreationConversationParams struct {
	ID             string `json:"id"`
	Messages       []byte `json:"messages"`
	QuestionsAsked int32  `json:"questions_asked"`
}

func (q *Queries) AppendCreationConversation(ctx context.Context, arg AppendCreationConversationParams) (SkillCreation, error) {
	row := q.db.QueryRow(ctx, appendCreationConversation, arg.ID, arg.Messages, arg.QuestionsAsked)
	var i SkillCreation
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.OriginalPrompt,
		&i.Category,
		&i.ConversationHistory,
		&i.SkillMdContent,
		&i.Resources,
		&i.Status,
		&i.QuestionsAsked,
		&i.SkillID,
		&i.GeneratedAt,
		&i.PublishedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const transitionCreationStatus = `-- name: TransitionCreationStatus :execrows
UPDATE skill_creations SET
	status = $2,
	updated_at = NOW()
WHERE id = $1 AND status = ANY($3::creation_status[])
`

type TransitionCreationStatusParams struct {
	ID           string         `json:"id"`
	Status       CreationStatus `json:"status"`
	FromStatuses []string       `json:"from_statuses"`
}

func (q *Queries) TransitionCreationStatus(ctx context.Context, arg TransitionCreationStatusParams) (int64, error) {
	result, err := q.db.Exec(ctx, transitionCreationStatus, arg.ID, arg.Status, arg.FromStatuses)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const setCreationPublished = `-- name: SetCreationPublished :execrows
UPDATE skill_creations SET
	status = 'published',
	skill_id = $2,
	published_at = NOW(),
	updated_at = NOW()
WHERE id = $1 AND status = 'draft'
`

type SetCreationPublishedParams struct {
	ID      string      `json:"id"`
	SkillID pgtype.Text `json:"skill_id"`
}

func (q *Queries) SetCreationPublished(ctx context.Context, arg SetCreationPublishedParams) (int64, error) {
	result, err := q.db.Exec(ctx, setCreationPublished, arg.ID, arg.SkillID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteCreationSteps = `-- name: DeleteCreationSteps :exec
DELETE FROM skill_creation_steps WHERE creation_id = $1
`

func (q *Queries) DeleteCreationSteps(ctx context.Context, creationID string) error {
	_, err := q.db.Exec(ctx, deleteCreationSteps, creationID)
	return err
}

const createCreationStep = `-- name: CreateCreationStep :one
INSERT INTO skill_creation_steps (id, creation_id, step_number, title, description)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, creation_id, step_number, title, description, created_at
`

type CreateCreationStepParams struct {
	ID          string `json:"id"`
	CreationID  string `json:"creation_id"`
	StepNumber  int32  `json:"step_number"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (q *Queries) CreateCreationStep(ctx context.Context, arg CreateCreationStepParams) (SkillCreationStep, error) {
	row := q.db.QueryRow(ctx, createCreationStep,
		arg.ID,
		arg.CreationID,
		arg.StepNumber,
		arg.Title,
		arg.Description,
	)
	var i SkillCreationStep
	err := row.Scan(
		&i.ID,
		&i.CreationID,
		&i.StepNumber,
		&i.Title,
		&i.Description,
		&i.CreatedAt,
	)
	return i, err
}

const listCreationSteps = `-- name: ListCreationSteps :many
SELECT id, creation_id, step_number, title, description, created_at
FROM skill_creation_steps
WHERE creation_id = $1
ORDER BY step_number
`

func (q *Queries) ListCreationSteps(ctx context.Context, creationID string) ([]SkillCreationStep, error) {
	rows, err := q.db.Query(ctx, listCreationSteps, creationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SkillCreationStep
	for rows.Next() {
		var i SkillCreationStep
		if err := rows.Scan(
			&i.ID,
			&i.CreationID,
			&i.StepNumber,
			&i.Title,
			&i.Description,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createStepSource = `-- name: CreateStepSource :exec
INSERT INTO skill_creation_sources (id, step_id, source_skill_id, reason)
VALUES ($1, $2, $3, $4)
`

type CreateStepSourceParams struct {
	ID            string `json:"id"`
	StepID        string `json:"step_id"`
	SourceSkillID string `json:"source_skill_id"`
	Reason        string `json:"reason"`
}

func (q *Queries) CreateStepSource(ctx context.Context, arg CreateStepSourceParams) error {
	_, err := q.db.Exec(ctx, createStepSource,
		arg.ID,
		arg.StepID,
		arg.SourceSkillID,
		arg.Reason,
	)
	return err
}

const listCreationStepSources = `-- name: ListCreationStepSources :many
SELECT src.step_id, src.source_skill_id, src.reason, sk.name AS skill_name, sk.stars_count, sk.forks_count, sk.avg_rating
FROM skill_creation_sources src
JOIN skill_creation_steps st ON st.id = src.step_id
JOIN skills sk ON sk.id = src.source_skill_id
WHERE st.creation_id = $1
ORDER BY st.step_number
`

type ListCreationStepSourcesRow struct {
	StepID        string  `json:"step_id"`
	SourceSkillID string  `json:"source_skill_id"`
	Reason        string  `json:"reason"`
	SkillName     string  `json:"skill_name"`
	StarsCount    int32   `json:"stars_count"`
	ForksCount    int32   `json:"forks_count"`
	AvgRating     float64 `json:"avg_rating"`
}

func (q *Queries) ListCreationStepSources(ctx context.Context, creationID string) ([]ListCreationStepSourcesRow, error) {
	rows, err := q.db.Query(ctx, listCreationStepSources, creationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListCreationStepSourcesRow
	for rows.Next() {
		var i ListCreationStepSourcesRow
		if err := rows.Scan(
			&i.StepID,
			&i.SourceSkillID,
			&i.Reason,
			&i.SkillName,
			&i.StarsCount,
			&i.ForksCount,
			&i.AvgRating,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createCreationOutput = `-- name: CreateCreationOutput :one
INSERT INTO skill_creation_outputs (id, creation_id, version, skill_md, is_edited)
VALUES ($1, $2, (SELECT COALESCE(MAX(version), 0) + 1 FROM skill_creation_outputs WHERE creation_id = $2), $3, $4)
RETURNING id, creation_id, version, skill_md, is_edited, created_at
`

type CreateCreationOutputParams struct {
	ID         string `json:"id"`
	CreationID string `json:"creation_id"`
	SkillMd    string `json:"skill_md"`
	IsEdited   bool   `json:"is_edited"`
}

func (q *Queries) CreateCreationOutput(ctx context.Context, arg CreateCreationOutputParams) (SkillCreationOutput, error) {
	row := q.db.QueryRow(ctx, createCreationOutput,
		arg.ID,
		arg.CreationID,
		arg.SkillMd,
		arg.IsEdited,
	)
	var i SkillCreationOutput
	err := row.Scan(
		&i.ID,
		&i.CreationID,
		&i.Version,
		&i.SkillMd,
		&i.IsEdited,
		&i.CreatedAt,
	)
	return i, err
}

const getLatestCreationOutput = `-- name: GetLatestCreationOutput :one
SELECT id, creation_id, version, skill_md, is_edited, created_at
FROM skill_creation_outputs
WHERE creation_id = $1
ORDER BY version DESC
LIMIT 1
`

func (q *Queries) GetLatestCreationOutput(ctx context.Context, creationID string) (SkillCreationOutput, error) {
	row := q.db.QueryRow(ctx, getLatestCreationOutput, creationID)
	var i SkillCreationOutput
	err := row.Scan(
		&i.ID,
		&i.CreationID,
		&i.Version,
		&i.SkillMd,
		&i.IsEdited,
		&i.CreatedAt,
	)
	return i, err
}

const updateOutputContent = `-- name: UpdateOutputContent :exec
UPDATE skill_creation_outputs SET skill_md = $2, is_edited = TRUE WHERE id = $1
`

type UpdateOutputContentParams struct {
	ID      string `json:"id"`
	SkillMd string `json:"skill_md"`
}

func (q *Queries) UpdateOutputContent(ctx context.Context, arg UpdateOutputContentParams) error {
	_, err := q.db.Exec(ctx, updateOutputContent, arg.ID, arg.SkillMd)
	return err
}

const createSkill = `-- name: CreateSkill :one
INSERT INTO skills (id, name, description, author, owner_id, visibility, category, bundle_key, file_size, stars_count, forks_count, skill_md_content, source_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING id, name, description, author, owner_id, visibility, category, bundle_key, file_size, stars_count, forks_count, download_count, view_count, avg_rating, rating_count, skill_md_content, source_url, created_at, updated_at
`

type CreateSkillParams struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Author         string          `json:"author"`
	OwnerID        pgtype.Text     `json:"owner_id"`
	Visibility     SkillVisibility `json:"visibility"`
	Category       string          `json:"category"`
	BundleKey      string          `json:"bundle_key"`
	FileSize       int64           `json:"file_size"`
	StarsCount     int32           `json:"stars_count"`
	ForksCount     int32           `json:"forks_count"`
	SkillMdContent string          `json:"skill_md_content"`
	SourceUrl      string          `json:"source_url"`
}

func (q *Queries) CreateSkill(ctx context.Context, arg CreateSkillParams) (Skill, error) {
	row := q.db.QueryRow(ctx, createSkill,
		arg.ID,
		arg.Name,
		arg.Description,
		arg.Author,
		arg.OwnerID,
		arg.Visibility,
		arg.Category,
		arg.BundleKey,
		arg.FileSize,
		arg.StarsCount,
		arg.ForksCount,
		arg.SkillMdContent,
		arg.SourceUrl,
	)
	var i Skill
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Author,
		&i.OwnerID,
		&i.Visibility,
		&i.Category,
		&i.BundleKey,
		&i.FileSize,
		&i.StarsCount,
		&i.ForksCount,
		&i.DownloadCount,
		&i.ViewCount,
		&i.AvgRating,
		&i.RatingCount,
		&i.SkillMdContent,
		&i.SourceUrl,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getSkill = `-- name: GetSkill :one
SELECT id, name, description, author, owner_id, visibility, category, bundle_key, file_size, stars_count, forks_count, download_count, view_count, avg_rating, rating_count, skill_md_content, source_url, created_at, updated_at
FROM skills
WHERE id = $1
`

func (q *Queries) GetSkill(ctx context.Context, id string) (Skill, error) {
	row := q.db.QueryRow(ctx, getSkill, id)
	var i Skill
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Author,
		&i.OwnerID,
		&i.Visibility,
		&i.Category,
		&i.BundleKey,
		&i.FileSize,
		&i.StarsCount,
		&i.ForksCount,
		&i.DownloadCount,
		&i.ViewCount,
		&i.AvgRating,
		&i.RatingCount,
		&i.SkillMdContent,
		&i.SourceUrl,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const skillExists = `-- name: SkillExists :one
SELECT EXISTS(SELECT 1 FROM skills WHERE id = $1)
`

func (q *Queries) SkillExists(ctx context.Context, id string) (bool, error) {
	row := q.db.QueryRow(ctx, skillExists, id)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const listSkills = `-- name: ListSkills :many
SELECT id, name, description, author, owner_id, visibility, category, bundle_key, file_size, stars_count, forks_count, download_count, view_count, avg_rating, rating_count, skill_md_content, source_url, created_at, updated_at
FROM skills
WHERE visibility = 'public'
	AND ($1::text = '' OR category = $1)
	AND ($2::text = '' OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
ORDER BY
	CASE WHEN $3::text = 'popular' THEN view_count END DESC,
	CASE WHEN $3::text = 'downloads' THEN download_count END DESC,
	CASE WHEN $3::text = 'rating' THEN avg_rating END DESC,
	created_at DESC
LIMIT $4 OFFSET $5
`

type ListSkillsParams struct {
	Category string `json:"category"`
	Search   string `json:"search"`
	Sort     string `json:"sort"`
	Limit    int32  `json:"limit"`
	Offset   int32  `json:"offset"`
}

func (q *Queries) ListSkills(ctx context.Context, arg ListSkillsParams) ([]Skill, error) {
	rows, err := q.db.Query(ctx, listSkills,
		arg.Category,
		arg.Search,
		arg.Sort,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Skill
	for rows.Next() {
		var i Skill
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Description,
			&i.Author,
			&i.OwnerID,
			&i.Visibility,
			&i.Category,
			&i.BundleKey,
			&i.FileSize,
			&i.StarsCount,
			&i.ForksCount,
			&i.DownloadCount,
			&i.ViewCount,
			&i.AvgRating,
			&i.RatingCount,
			&i.SkillMdContent,
			&i.SourceUrl,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countSkills = `-- name: CountSkills :one
SELECT COUNT(*)
FROM skills
WHERE visibility = 'public'
	AND ($1::text = '' OR category = $1)
	AND ($2::text = '' OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
`

type CountSkillsParams struct {
	Category string `json:"category"`
	Search   string `json:"search"`
}

func (q *Queries) CountSkills(ctx context.Context, arg CountSkillsParams) (int64, error) {
	row := q.db.QueryRow(ctx, countSkills, arg.Category, arg.Search)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const topSkillsByQuality = `-- name: TopSkillsByQuality :many
SELECT id, name, description, author, owner_id, visibility, category, bundle_key, file_size, stars_count, forks_count, download_count, view_count, avg_rating, rating_count, skill_md_content, source_url, created_at, updated_at
FROM skills
WHERE visibility = 'public'
ORDER BY (avg_rating * 0.4 + LN(view_count + 1) * 0.6) DESC
LIMIT $1
`

func (q *Queries) TopSkillsByQuality(ctx context.Context, limit int32) ([]Skill, error) {
	rows, err := q.db.Query(ctx, topSkillsByQuality, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Skill
	for rows.Next() {
		var i Skill
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Description,
			&i.Author,
			&i.OwnerID,
			&i.Visibility,
			&i.Category,
			&i.BundleKey,
			&i.FileSize,
			&i.StarsCount,
			&i.ForksCount,
			&i.DownloadCount,
			&i.ViewCount,
			&i.AvgRating,
			&i.RatingCount,
			&i.SkillMdContent,
			&i.SourceUrl,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const incrementSkillViewCount = `-- name: IncrementSkillViewCount :exec
UPDATE skills SET view_count = view_count + 1 WHERE id = $1
`

func (q *Queries) IncrementSkillViewCount(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, incrementSkillViewCount, id)
	return err
}

const incrementSkillDownloadCount = `-- name: IncrementSkillDownloadCount :exec
UPDATE skills SET download_count = download_count + 1 WHERE id = $1
`

func (q *Queries) IncrementSkillDownloadCount(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, incrementSkillDownloadCount, id)
	return err
}
