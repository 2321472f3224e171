package server

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agentskills/marketplace/internal/apperrors"
	"github.com/agentskills/marketplace/internal/store"
	"github.com/agentskills/marketplace/pkg/logger"
)

func testLogger() logger.Logger {
	return logger.NewLogger(logger.Config{
		Level:   logger.ErrorLevel,
		Format:  "json",
		Service: "server-test",
		Output:  io.Discard,
	})
}

// fakeStore is an in-memory store.Store for handler tests.
type fakeStore struct {
	mu        sync.Mutex
	creations map[string]*store.SkillCreation
	steps     map[string][]store.CreationStep
	outputs   map[string][]store.CreationOutput
	skills    map[string]*store.Skill
	sessions  map[string]*store.User
	users     map[string]*store.User

	views     map[string]int
	downloads map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		creations: map[string]*store.SkillCreation{},
		steps:     map[string][]store.CreationStep{},
		outputs:   map[string][]store.CreationOutput{},
		skills:    map[string]*store.Skill{},
		sessions:  map[string]*store.User{},
		users:     map[string]*store.User{},
		views:     map[string]int{},
		downloads: map[string]int{},
	}
}

func (f *fakeStore) addSession(token string, user *store.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[token] = user
	f.users[user.ID] = user
}

func (f *fakeStore) addSkill(skill store.Skill) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := skill
	f.skills[s.ID] = &s
}

func (f *fakeStore) seedCreation(c store.SkillCreation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := c
	f.creations[c.ID] = &cp
}

func (f *fakeStore) creationStatus(id string) store.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.creations[id]; ok {
		return c.Status
	}
	return ""
}

func copyOf(c *store.SkillCreation) *store.SkillCreation {
	cp := *c
	return &cp
}

func (f *fakeStore) CreateCreation(_ context.Context, ownerID, prompt, category string, history []store.ConversationMessage) (*store.SkillCreation, error) {
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
	return copyOf(c), nil
}

func (f *fakeStore) GetCreation(_ context.Context, id, ownerID string) (*store.SkillCreation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creations[id]
	if !ok {
		return nil, apperrors.NotFound("creation %s", id)
	}
	if c.OwnerID != ownerID {
		return nil, apperrors.Forbidden("creation %s", id)
	}
	return copyOf(c), nil
}

func (f *fakeStore) UpdateCreation(_ context.Context, id string, patch store.CreationPatch) (*store.SkillCreation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creations[id]
	if !ok {
		return nil, apperrors.NotFound("creation %s", id)
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
	return copyOf(c), nil
}

func (f *fakeStore) ListCreationsByOwner(_ context.Context, ownerID string) ([]store.SkillCreation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.SkillCreation
	for _, c := range f.creations {
		if c.OwnerID == ownerID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) AppendConversation(_ context.Context, id string, messages []store.ConversationMessage, questionsAsked int) (*store.SkillCreation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creations[id]
	if !ok {
		return nil, apperrors.NotFound("creation %s", id)
	}
	c.ConversationHistory = append(c.ConversationHistory, messages...)
	c.QuestionsAsked += questionsAsked
	return copyOf(c), nil
}

func (f *fakeStore) TransitionStatus(_ context.Context, id string, from []store.Status, to store.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creations[id]
	if !ok {
		return apperrors.State("creation %s not found for transition", id)
	}
	for _, s := range from {
		if c.Status == s {
			c.Status = to
			return nil
		}
	}
	return apperrors.State("creation %s is %s, not in %v", id, c.Status, from)
}

func (f *fakeStore) ReplaceSteps(_ context.Context, creationID string, steps []store.CreationStep) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps[creationID] = steps
	return nil
}

func (f *fakeStore) GetSteps(_ context.Context, creationID string) ([]store.CreationStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.steps[creationID], nil
}

func (f *fakeStore) CreateOutputVersion(_ context.Context, creationID, skillMd string, isEdited bool) (*store.CreationOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := store.CreationOutput{
		ID:         store.NewCreationID(),
		CreationID: creationID,
		Version:    len(f.outputs[creationID]) + 1,
		SkillMd:    skillMd,
		IsEdited:   isEdited,
		CreatedAt:  time.Now(),
	}
	f.outputs[creationID] = append(f.outputs[creationID], out)
	return &out, nil
}

func (f *fakeStore) GetLatestOutput(_ context.Context, creationID string) (*store.CreationOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	versions := f.outputs[creationID]
	if len(versions) == 0 {
		return nil, apperrors.NotFound("no output for creation %s", creationID)
	}
	out := versions[len(versions)-1]
	return &out, nil
}

func (f *fakeStore) SaveEditedOutput(_ context.Context, creationID, skillMd string) (*store.CreationOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	versions := f.outputs[creationID]
	if len(versions) == 0 {
		out := store.CreationOutput{
			ID:         store.NewCreationID(),
			CreationID: creationID,
			Version:    1,
			SkillMd:    skillMd,
			IsEdited:   true,
			CreatedAt:  time.Now(),
		}
		f.outputs[creationID] = []store.CreationOutput{out}
		return &out, nil
	}
	latest := &f.outputs[creationID][len(versions)-1]
	latest.SkillMd = skillMd
	latest.IsEdited = true
	out := *latest
	return &out, nil
}

func (f *fakeStore) MarkPublished(_ context.Context, creationID, skillID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creations[creationID]
	if !ok || c.Status != store.StatusDraft {
		return apperrors.State("creation %s is not ready to publish", creationID)
	}
	now := time.Now()
	c.Status = store.StatusPublished
	c.SkillID = skillID
	c.PublishedAt = &now
	return nil
}

func (f *fakeStore) CreateSkill(_ context.Context, skill store.Skill) (*store.Skill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := skill
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	f.skills[s.ID] = &s
	cp := s
	return &cp, nil
}

func (f *fakeStore) GetSkill(_ context.Context, id string) (*store.Skill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.skills[id]
	if !ok {
		return nil, apperrors.NotFound("skill %s", id)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) SkillExists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.skills[id]
	return ok, nil
}

func (f *fakeStore) ListSkills(_ context.Context, q store.ListSkillsQuery) ([]store.Skill, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Skill
	for _, s := range f.skills {
		if s.Visibility != store.VisibilityPublic {
			continue
		}
		if q.Category != "" && !strings.EqualFold(s.Category, q.Category) {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(s.Name+" "+s.Description), strings.ToLower(q.Search)) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := int64(len(out))
	if q.Offset < len(out) {
		out = out[q.Offset:]
	} else {
		out = nil
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, total, nil
}

func (f *fakeStore) TopSkills(_ context.Context, _ string, limit int) ([]store.Skill, error) {
	skills, _, err := f.ListSkills(context.Background(), store.ListSkillsQuery{Limit: limit})
	return skills, err
}

func (f *fakeStore) RecordView(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views[id]++
	return nil
}

func (f *fakeStore) RecordDownload(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads[id]++
	return nil
}

func (f *fakeStore) GetSessionUser(_ context.Context, token string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.sessions[token]
	if !ok {
		return nil, apperrors.NotFound("session")
	}
	cp := *user
	return &cp, nil
}

func (f *fakeStore) CreateUser(_ context.Context, email, name string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := &store.User{ID: "user-" + name, Email: email, Name: name, CreatedAt: time.Now()}
	f.users[user.ID] = user
	cp := *user
	return &cp, nil
}

func (f *fakeStore) CreateSession(_ context.Context, userID string, _ int) (*store.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess := &store.Session{ID: "sess-" + userID, UserID: userID, CreatedAt: time.Now()}
	user, ok := f.users[userID]
	if !ok {
		return nil, apperrors.NotFound("user %s", userID)
	}
	f.sessions[sess.ID] = user
	return sess, nil
}
