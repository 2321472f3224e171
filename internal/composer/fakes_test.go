package composer

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/agentskills/marketplace/internal/apperrors"
	"github.com/agentskills/marketplace/internal/store"
	"github.com/agentskills/marketplace/pkg/logger"
)

func testLogger() logger.Logger {
	return logger.NewLogger(logger.Config{Level: logger.ErrorLevel, Format: "text", Output: io.Discard})
}

// fakeDraftStore is an in-memory store.DraftStore. Status transitions use the
// same compare-and-swap contract as the Postgres repository.
type fakeDraftStore struct {
	mu        sync.Mutex
	creations map[string]*store.SkillCreation
	steps     map[string][]store.CreationStep
	outputs   map[string][]store.CreationOutput
}

func newFakeDraftStore() *fakeDraftStore {
	return &fakeDraftStore{
		creations: make(map[string]*store.SkillCreation),
		steps:     make(map[string][]store.CreationStep),
		outputs:   make(map[string][]store.CreationOutput),
	}
}

// seed inserts a creation directly, bypassing the clarifying entry point.
func (f *fakeDraftStore) seed(c store.SkillCreation) *store.SkillCreation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == "" {
		c.ID = store.NewCreationID()
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	f.creations[c.ID] = &c
	return &c
}

func (f *fakeDraftStore) CreateCreation(_ context.Context, ownerID, prompt, category string, history []store.ConversationMessage) (*store.SkillCreation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &store.SkillCreation{
		ID:                  store.NewCreationID(),
		OwnerID:             ownerID,
		OriginalPrompt:      prompt,
		Category:            category,
		ConversationHistory: history,
		Status:              store.StatusClarifying,
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}
	f.creations[c.ID] = c
	return copyCreation(c), nil
}

func (f *fakeDraftStore) GetCreation(_ context.Context, id, ownerID string) (*store.SkillCreation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creations[id]
	if !ok {
		return nil, apperrors.NotFound("creation %s not found", id)
	}
	if c.OwnerID != ownerID {
		return nil, apperrors.Forbidden("creation %s belongs to another user", id)
	}
	return copyCreation(c), nil
}

func (f *fakeDraftStore) UpdateCreation(_ context.Context, id string, patch store.CreationPatch) (*store.SkillCreation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creations[id]
	if !ok {
		return nil, apperrors.NotFound("creation %s not found", id)
	}
	if patch.Category != nil {
		c.Category = *patch.Category
	}
	if patch.SkillMdContent != nil {
		c.SkillMdContent = *patch.SkillMdContent
	}
	if patch.Resources != nil {
		c.Resources = patch.Resources
	}
	if patch.GeneratedAt != nil {
		c.GeneratedAt = patch.GeneratedAt
	}
	c.UpdatedAt = time.Now()
	return copyCreation(c), nil
}

func (f *fakeDraftStore) ListCreationsByOwner(_ context.Context, ownerID string) ([]store.SkillCreation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.SkillCreation
	for _, c := range f.creations {
		if c.OwnerID == ownerID {
			out = append(out, *copyCreation(c))
		}
	}
	return out, nil
}

func (f *fakeDraftStore) AppendConversation(_ context.Context, id string, messages []store.ConversationMessage, questionsAsked int) (*store.SkillCreation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creations[id]
	if !ok {
		return nil, apperrors.NotFound("creation %s not found", id)
	}
	c.ConversationHistory = append(c.ConversationHistory, messages...)
	c.QuestionsAsked += questionsAsked
	c.UpdatedAt = time.Now()
	return copyCreation(c), nil
}

func (f *fakeDraftStore) TransitionStatus(_ context.Context, id string, from []store.Status, to store.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creations[id]
	if !ok {
		return apperrors.NotFound("creation %s not found", id)
	}
	for _, s := range from {
		if c.Status == s {
			c.Status = to
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return apperrors.State("creation %s is in status %s", id, c.Status)
}

func (f *fakeDraftStore) ReplaceSteps(_ context.Context, creationID string, steps []store.CreationStep) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := make([]store.CreationStep, len(steps))
	copy(copied, steps)
	f.steps[creationID] = copied
	return nil
}

func (f *fakeDraftStore) GetSteps(_ context.Context, creationID string) ([]store.CreationStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.CreationStep(nil), f.steps[creationID]...), nil
}

func (f *fakeDraftStore) CreateOutputVersion(_ context.Context, creationID, skillMd string, isEdited bool) (*store.CreationOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := store.CreationOutput{
		ID:         fmt.Sprintf("out_%s_%d", creationID, len(f.outputs[creationID])+1),
		CreationID: creationID,
		Version:    len(f.outputs[creationID]) + 1,
		SkillMd:    skillMd,
		IsEdited:   isEdited,
		CreatedAt:  time.Now(),
	}
	f.outputs[creationID] = append(f.outputs[creationID], out)
	return &out, nil
}

func (f *fakeDraftStore) GetLatestOutput(_ context.Context, creationID string) (*store.CreationOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	versions := f.outputs[creationID]
	if len(versions) == 0 {
		return nil, apperrors.NotFound("creation %s has no output", creationID)
	}
	out := versions[len(versions)-1]
	return &out, nil
}

func (f *fakeDraftStore) SaveEditedOutput(_ context.Context, creationID, skillMd string) (*store.CreationOutput, error) {
	f.mu.Lock()
	versions := f.outputs[creationID]
	f.mu.Unlock()
	if len(versions) == 0 {
		return f.CreateOutputVersion(context.Background(), creationID, skillMd, true)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	latest := &f.outputs[creationID][len(versions)-1]
	latest.SkillMd = skillMd
	latest.IsEdited = true
	out := *latest
	return &out, nil
}

func (f *fakeDraftStore) MarkPublished(_ context.Context, creationID, skillID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creations[creationID]
	if !ok {
		return apperrors.NotFound("creation %s not found", creationID)
	}
	if c.Status != store.StatusDraft {
		return apperrors.State("creation %s is in status %s, not draft", creationID, c.Status)
	}
	now := time.Now()
	c.Status = store.StatusPublished
	c.SkillID = skillID
	c.PublishedAt = &now
	return nil
}

func (f *fakeDraftStore) status(id string) store.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creations[id].Status
}

func copyCreation(c *store.SkillCreation) *store.SkillCreation {
	dup := *c
	dup.ConversationHistory = append([]store.ConversationMessage(nil), c.ConversationHistory...)
	dup.Resources = append([]store.Resource(nil), c.Resources...)
	return &dup
}

// fakeCatalog is an in-memory store.CatalogStore.
type fakeCatalog struct {
	mu        sync.Mutex
	skills    map[string]*store.Skill
	top       []store.Skill
	topErr    error
	createErr error
	views     map[string]int
	downloads map[string]int
}

func newFakeCatalog(top ...store.Skill) *fakeCatalog {
	return &fakeCatalog{
		skills:    make(map[string]*store.Skill),
		top:       top,
		views:     make(map[string]int),
		downloads: make(map[string]int),
	}
}

func (f *fakeCatalog) CreateSkill(_ context.Context, skill store.Skill) (*store.Skill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if skill.ID == "" {
		skill.ID = store.NewSkillID()
	}
	skill.CreatedAt = time.Now()
	skill.UpdatedAt = skill.CreatedAt
	f.skills[skill.ID] = &skill
	dup := skill
	return &dup, nil
}

func (f *fakeCatalog) GetSkill(_ context.Context, id string) (*store.Skill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.skills[id]
	if !ok {
		return nil, apperrors.NotFound("skill %s not found", id)
	}
	dup := *s
	return &dup, nil
}

func (f *fakeCatalog) SkillExists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.skills[id]
	return ok, nil
}

func (f *fakeCatalog) ListSkills(_ context.Context, _ store.ListSkillsQuery) ([]store.Skill, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Skill
	for _, s := range f.skills {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (f *fakeCatalog) TopSkills(_ context.Context, _ string, _ int) ([]store.Skill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.topErr != nil {
		return nil, f.topErr
	}
	return append([]store.Skill(nil), f.top...), nil
}

func (f *fakeCatalog) RecordView(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views[id]++
	return nil
}

func (f *fakeCatalog) RecordDownload(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads[id]++
	return nil
}

// recordingSink collects every frame it receives. failOn makes Send fail on
// the first frame of that type.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
	failOn EventType
}

func (s *recordingSink) Send(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && event.Type == s.failOn {
		return fmt.Errorf("sink closed")
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func (s *recordingSink) byType(t EventType) []Event {
	var out []Event
	for _, e := range s.all() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (s *recordingSink) last() Event {
	events := s.all()
	return events[len(events)-1]
}
