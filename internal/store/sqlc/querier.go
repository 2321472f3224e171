package sqlc

import (
	"context"
)

type Querier interface {
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error)
	GetSessionUser(ctx context.Context, id string) (User, error)
	DeleteExpiredSessions(ctx context.Context) error

	CreateCreation(ctx context.Context, arg CreateCreationParams) (SkillCreation, error)
	GetCreation(ctx context.Context, id string) (SkillCreation, error)
	ListCreationsByOwner(ctx context.Context, ownerID string) ([]SkillCreation, error)
	UpdateCreation(ctx context.Context, arg UpdateCreationParams) (SkillCreation, error)
	AppendCreationConversation(ctx context.Context, arg AppendCreationConversationParams) (SkillCreation, error)
	TransitionCreationStatus(ctx context.Context, arg TransitionCreationStatusParams) (int64, error)
	SetCreationPublished(ctx context.Context, arg SetCreationPublishedParams) (int64, error)

	DeleteCreationSteps(ctx context.Context, creationID string) error
	CreateCreationStep(ctx context.Context, arg CreateCreationStepParams) (SkillCreationStep, error)
	ListCreationSteps(ctx context.Context, creationID string) ([]SkillCreationStep, error)
	CreateStepSource(ctx context.Context, arg CreateStepSourceParams) error
	ListCreationStepSources(ctx context.Context, creationID string) ([]ListCreationStepSourcesRow, error)

	CreateCreationOutput(ctx context.Context, arg CreateCreationOutputParams) (SkillCreationOutput, error)
	GetLatestCreationOutput(ctx context.Context, creationID string) (SkillCreationOutput, error)
	UpdateOutputContent(ctx context.Context, arg UpdateOutputContentParams) error

	CreateSkill(ctx context.Context, arg CreateSkillParams) (Skill, error)
	GetSkill(ctx context.Context, id string) (Skill, error)
	SkillExists(ctx context.Context, id string) (bool, error)
	ListSkills(ctx context.Context, arg ListSkillsParams) ([]Skill, error)
	CountSkills(ctx context.Context, arg CountSkillsParams) (int64, error)
	TopSkillsByQuality(ctx context.Context, limit int32) ([]Skill, error)
	IncrementSkillViewCount(ctx context.Context, id string) error
	IncrementSkillDownloadCount(ctx context.Context, id string) error
}

var _ Querier = (*Queries)(nil)
