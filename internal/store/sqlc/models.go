// SQLC models for the marketplace schema

package sqlc

import (
	"database/sql/driver"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

type CreationStatus string

const (
	CreationStatusClarifying CreationStatus = "clarifying"
	CreationStatusGenerating CreationStatus = "generating"
	CreationStatusDraft      CreationStatus = "draft"
	CreationStatusPublished  CreationStatus = "published"
)

func (e *CreationStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case string:
		*e = CreationStatus(s)
	case []byte:
		*e = CreationStatus(s)
	default:
		return fmt.Errorf("unsupported Scan, storing driver.Value type %T into type %T", src, e)
	}
	return nil
}

func (e CreationStatus) Value() (driver.Value, error) {
	return string(e), nil
}

type SkillVisibility string

const (
	SkillVisibilityPublic  SkillVisibility = "public"
	SkillVisibilityPrivate SkillVisibility = "private"
)

func (e *SkillVisibility) Scan(src interface{}) error {
	switch s := src.(type) {
	case string:
		*e = SkillVisibility(s)
	case []byte:
		*e = SkillVisibility(s)
	default:
		return fmt.Errorf("unsupported Scan, storing driver.Value type %T into type %T", src, e)
	}
	return nil
}

func (e SkillVisibility) Value() (driver.Value, error) {
	return string(e), nil
}

type User struct {
	ID        string             `json:"id"`
	Email     string             `json:"email"`
	Name      string             `json:"name"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type Session struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	ExpiresAt pgtype.Timestamptz `json:"expires_at"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type Skill struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	Author         string             `json:"author"`
	OwnerID        pgtype.Text        `json:"owner_id"`
	Visibility     SkillVisibility    `json:"visibility"`
	Category       string             `json:"category"`
	BundleKey      string             `json:"bundle_key"`
	FileSize       int64              `json:"file_size"`
	StarsCount     int32              `json:"stars_count"`
	ForksCount     int32              `json:"forks_count"`
	DownloadCount  int32              `json:"download_count"`
	ViewCount      int32              `json:"view_count"`
	AvgRating      float64            `json:"avg_rating"`
	RatingCount    int32              `json:"rating_count"`
	SkillMdContent string             `json:"skill_md_content"`
	SourceUrl      string             `json:"source_url"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

type SkillCreation struct {
	ID                  string             `json:"id"`
	OwnerID             string             `json:"owner_id"`
	OriginalPrompt      string             `json:"original_prompt"`
	Category            string             `json:"category"`
	ConversationHistory []byte             `json:"conversation_history"`
	SkillMdContent      string             `json:"skill_md_content"`
	Resources           []byte             `json:"resources"`
	Status              CreationStatus     `json:"status"`
	QuestionsAsked      int32              `json:"questions_asked"`
	SkillID             pgtype.Text        `json:"skill_id"`
	GeneratedAt         pgtype.Timestamptz `json:"generated_at"`
	PublishedAt         pgtype.Timestamptz `json:"published_at"`
	CreatedAt           pgtype.Timestamptz `json:"created_at"`
	UpdatedAt           pgtype.Timestamptz `json:"updated_at"`
}

type SkillCreationStep struct {
	ID          string             `json:"id"`
	CreationID  string             `json:"creation_id"`
	StepNumber  int32              `json:"step_number"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

type SkillCreationSource struct {
	ID            string             `json:"id"`
	StepID        string             `json:"step_id"`
	SourceSkillID string             `json:"source_skill_id"`
	Reason        string             `json:"reason"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
}

type SkillCreationOutput struct {
	ID         string             `json:"id"`
	CreationID string             `json:"creation_id"`
	Version    int32              `json:"version"`
	SkillMd    string             `json:"skill_md"`
	IsEdited   bool               `json:"is_edited"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
}
