// Package store implements the Postgres-backed draft store and skills
// catalog: skill creations with their conversation history, step provenance,
// versioned outputs, and the published skill records.
package store

import (
	"time"

	"github.com/agentskills/marketplace/pkg/prefixed_uuid"
)

// ID prefixes for the marketplace record types.
const (
	CreationPrefix = "crtn"
	SkillPrefix    = "skill"
	UserPrefix     = "user"
	SessionPrefix  = "sess"
	StepPrefix     = "step"
	SourcePrefix   = "src"
	OutputPrefix   = "out"
)

// NewCreationID generates an identifier for a skill creation draft.
func NewCreationID() string {
	return prefixed_uuid.New(CreationPrefix).String()
}

// NewSkillID generates an identifier for a published catalog skill.
func NewSkillID() string {
	return prefixed_uuid.New(SkillPrefix).String()
}

// Status is the lifecycle state of a skill creation draft. Transitions only
// move forward: clarifying -> generating -> draft -> published, with the one
// sanctioned loop generating -> clarifying on a failed or cancelled run.
type Status string

const (
	StatusClarifying Status = "clarifying"
	StatusGenerating Status = "generating"
	StatusDraft      Status = "draft"
	StatusPublished  Status = "published"
)

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	switch s {
	case StatusClarifying, StatusGenerating, StatusDraft, StatusPublished:
		return true
	}
	return false
}

// Visibility controls whether a published skill is discoverable by other users.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// ConversationMessage is one entry in a draft's clarifying Q&A log.
type ConversationMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Resource is an auxiliary file bundled alongside SKILL.md. Paths are
// relative to the bundle root; traversal outside it is rejected at the
// bundle layer.
type Resource struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content"`
}

// SkillCreation is an in-progress (or published, read-only) skill draft.
type SkillCreation struct {
	ID                  string                `json:"id"`
	OwnerID             string                `json:"owner_id"`
	OriginalPrompt      string                `json:"original_prompt"`
	Category            string                `json:"category,omitempty"`
	ConversationHistory []ConversationMessage `json:"conversation_history"`
	SkillMdContent      string                `json:"skill_md_content"`
	Resources           []Resource            `json:"resources"`
	Status              Status                `json:"status"`
	QuestionsAsked      int                   `json:"questions_asked"`
	SkillID             string                `json:"skill_id,omitempty"`
	GeneratedAt         *time.Time            `json:"generated_at,omitempty"`
	PublishedAt         *time.Time            `json:"published_at,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

// CreationPatch is a merge-patch for a skill creation. Nil fields are left
// untouched. Conversation history appends are done through
// AppendConversation, not here.
type CreationPatch struct {
	Category       *string
	SkillMdContent *string
	Resources      []Resource
	GeneratedAt    *time.Time
}

// StepSource records which catalog skill informed a generated step, and why.
type StepSource struct {
	SkillID   string  `json:"skill_id"`
	SkillName string  `json:"skill_name"`
	Stars     int     `json:"stars"`
	Forks     int     `json:"forks"`
	Rating    float64 `json:"rating"`
	Reason    string  `json:"reason"`
}

// CreationStep is one persisted step of a generated skill workflow.
type CreationStep struct {
	ID          string       `json:"id"`
	CreationID  string       `json:"creation_id"`
	StepNumber  int          `json:"step_number"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Sources     []StepSource `json:"sources"`
	CreatedAt   time.Time    `json:"created_at"`
}

// CreationOutput is one versioned SKILL.md body for a draft. Generation
// inserts a new version; a manual save marks the latest version edited.
type CreationOutput struct {
	ID         string    `json:"id"`
	CreationID string    `json:"creation_id"`
	Version    int       `json:"version"`
	SkillMd    string    `json:"skill_md"`
	IsEdited   bool      `json:"is_edited"`
	CreatedAt  time.Time `json:"created_at"`
}

// Skill is a published catalog record, owned by the marketplace rather than
// the composer pipeline.
type Skill struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Author         string     `json:"author"`
	OwnerID        string     `json:"owner_id,omitempty"`
	Visibility     Visibility `json:"visibility"`
	Category       string     `json:"category"`
	BundleKey      string     `json:"bundle_key,omitempty"`
	FileSize       int64      `json:"file_size"`
	StarsCount     int        `json:"stars_count"`
	ForksCount     int        `json:"forks_count"`
	DownloadCount  int        `json:"download_count"`
	ViewCount      int        `json:"view_count"`
	AvgRating      float64    `json:"avg_rating"`
	RatingCount    int        `json:"rating_count"`
	SkillMdContent string     `json:"skill_md_content,omitempty"`
	SourceURL      string     `json:"source_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// SkillSort selects the ordering for catalog listings.
type SkillSort string

const (
	SortRecent    SkillSort = "recent"
	SortPopular   SkillSort = "popular"
	SortTopRated  SkillSort = "rating"
	SortDownloads SkillSort = "downloads"
)

// ListSkillsQuery is the filter set for catalog listings.
type ListSkillsQuery struct {
	Search   string
	Category string
	Sort     SkillSort
	Limit    int
	Offset   int
}

// User is the minimal account record backing ownership and auth resolution.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a bearer-token session row. The token is the session id.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
