package store

import (
	"context"
)

// DraftStore is the persistence contract for skill creation drafts. The
// composer pipeline depends on this interface rather than the Postgres
// repository so tests can run against a fake.
type DraftStore interface {
	// CreateCreation inserts a new draft in status clarifying.
	CreateCreation(ctx context.Context, ownerID, prompt, category string, history []ConversationMessage) (*SkillCreation, error)

	// GetCreation loads a draft and enforces ownership: a missing id returns
	// ErrNotFound, an owner mismatch returns ErrForbidden.
	GetCreation(ctx context.Context, id, ownerID string) (*SkillCreation, error)

	// UpdateCreation applies a merge-patch; nil patch fields are untouched.
	UpdateCreation(ctx context.Context, id string, patch CreationPatch) (*SkillCreation, error)

	// ListCreationsByOwner returns the owner's drafts, most recent first.
	ListCreationsByOwner(ctx context.Context, ownerID string) ([]SkillCreation, error)

	// AppendConversation appends messages to the Q&A log and bumps the
	// lifetime question counter.
	AppendConversation(ctx context.Context, id string, messages []ConversationMessage, questionsAsked int) (*SkillCreation, error)

	// TransitionStatus moves the draft from one of the listed statuses to the
	// target in a single compare-and-swap. Zero rows updated returns
	// ErrState: the draft was not in an eligible status, or a concurrent
	// writer won.
	TransitionStatus(ctx context.Context, id string, from []Status, to Status) error

	// ReplaceSteps deletes the draft's step history and writes a new one.
	// Sources whose skill is missing from the catalog are skipped.
	ReplaceSteps(ctx context.Context, creationID string, steps []CreationStep) error

	// GetSteps returns the persisted step history with enriched sources.
	GetSteps(ctx context.Context, creationID string) ([]CreationStep, error)

	// CreateOutputVersion appends a new SKILL.md version for the draft.
	CreateOutputVersion(ctx context.Context, creationID, skillMd string, isEdited bool) (*CreationOutput, error)

	// GetLatestOutput returns the highest-version output, ErrNotFound if the
	// draft has none yet.
	GetLatestOutput(ctx context.Context, creationID string) (*CreationOutput, error)

	// SaveEditedOutput overwrites the latest output in place and marks it
	// edited; if the draft has no output yet a first edited version is
	// created.
	SaveEditedOutput(ctx context.Context, creationID, skillMd string) (*CreationOutput, error)

	// MarkPublished flips a draft in status draft to published and links the
	// catalog skill, CAS-guarded. Returns ErrState if the draft is not in
	// status draft.
	MarkPublished(ctx context.Context, creationID, skillID string) error
}

// CatalogStore is the persistence contract for the published skills catalog.
type CatalogStore interface {
	CreateSkill(ctx context.Context, skill Skill) (*Skill, error)
	GetSkill(ctx context.Context, id string) (*Skill, error)
	SkillExists(ctx context.Context, id string) (bool, error)
	ListSkills(ctx context.Context, q ListSkillsQuery) ([]Skill, int64, error)

	// TopSkills returns the highest-quality public skills for prompt context,
	// rating and popularity weighted. When a category filter leaves fewer
	// than five results the unfiltered top list is returned instead.
	TopSkills(ctx context.Context, category string, limit int) ([]Skill, error)

	RecordView(ctx context.Context, id string) error
	RecordDownload(ctx context.Context, id string) error
}

// AuthStore resolves bearer session tokens to users.
type AuthStore interface {
	GetSessionUser(ctx context.Context, token string) (*User, error)
	CreateUser(ctx context.Context, email, name string) (*User, error)
	CreateSession(ctx context.Context, userID string, ttlSeconds int) (*Session, error)
}

// Store is the full persistence surface.
type Store interface {
	DraftStore
	CatalogStore
	AuthStore
}
