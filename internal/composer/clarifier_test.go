package composer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agentskills/marketplace/internal/apperrors"
	"github.com/agentskills/marketplace/internal/llm"
	"github.com/agentskills/marketplace/internal/llm/mocks"
	"github.com/agentskills/marketplace/internal/store"
)

func newTestClarifier(t *testing.T, drafts store.DraftStore, chat llm.ChatClient) *Clarifier {
	t.Helper()
	c, err := NewClarifier(ClarifierConfig{Drafts: drafts, Chat: chat, Logger: testLogger()})
	require.NoError(t, err)
	return c
}

func TestClarifyPromptValidation(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
	}{
		{"too short", "lint"},
		{"whitespace only", "           "},
		{"too long", strings.Repeat("x", MaxPromptLen+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClarifier(t, newFakeDraftStore(), mocks.NewChatClient(t))
			_, err := c.Clarify(context.Background(), "user_1", "", tt.prompt, nil)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestClarifyFirstRoundAsksQuestions(t *testing.T) {
	drafts := newFakeDraftStore()
	chat := mocks.NewChatClient(t)
	chat.EXPECT().Complete(mock.Anything, mock.Anything).
		Return(`{"isComplete": false, "questions": [
			{"id": "q1", "question": "Which linter?", "type": "single", "options": ["ruff", "flake8"]},
			{"question": "Anything else?", "type": "text"}
		]}`, nil)

	c := newTestClarifier(t, drafts, chat)
	result, err := c.Clarify(context.Background(), "user_1", "", "A skill that lints Python code for me", nil)
	require.NoError(t, err)

	assert.False(t, result.Ready)
	require.Len(t, result.Questions, 2)
	assert.Equal(t, "q1", result.Questions[0].ID)
	assert.Equal(t, "single", result.Questions[0].Type)
	assert.Equal(t, "q2", result.Questions[1].ID) // default id assigned

	creation, err := drafts.GetCreation(context.Background(), result.CreationID, "user_1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusClarifying, creation.Status)
	assert.Equal(t, 2, creation.QuestionsAsked)
	require.Len(t, creation.ConversationHistory, 1)
	assert.Equal(t, llm.RoleAssistant, creation.ConversationHistory[0].Role)
	assert.Contains(t, creation.ConversationHistory[0].Content, "Which linter?")
}

func TestClarifyImmediateCompleteOverridden(t *testing.T) {
	// The model declares completion before the user answered anything; the
	// clarifier substitutes a follow-up question instead.
	drafts := newFakeDraftStore()
	chat := mocks.NewChatClient(t)
	chat.EXPECT().Complete(mock.Anything, mock.Anything).
		Return(`{"isComplete": true, "refinedPrompt": "done"}`, nil)

	c := newTestClarifier(t, drafts, chat)
	result, err := c.Clarify(context.Background(), "user_1", "", "A skill that lints Python code for me", nil)
	require.NoError(t, err)

	assert.False(t, result.Ready)
	require.Len(t, result.Questions, 1)
	assert.Equal(t, "q_followup", result.Questions[0].ID)
	assert.Equal(t, "text", result.Questions[0].Type)
}

func TestClarifyCompleteAfterAnsweredRound(t *testing.T) {
	drafts := newFakeDraftStore()
	creation := drafts.seed(store.SkillCreation{
		OwnerID:        "user_1",
		OriginalPrompt: "A skill that lints Python code for me",
		Status:         store.StatusClarifying,
		QuestionsAsked: 2,
		ConversationHistory: []store.ConversationMessage{
			{Role: llm.RoleAssistant, Content: `[{"id":"q1","question":"Which linter?","type":"text"}]`},
		},
	})

	chat := mocks.NewChatClient(t)
	chat.EXPECT().Complete(mock.Anything, mock.Anything).
		Return(`{"isComplete": true, "refinedPrompt": "Lint Python with ruff", "summary": "A ruff linting skill"}`, nil)

	c := newTestClarifier(t, drafts, chat)
	result, err := c.Clarify(context.Background(), "user_1", creation.ID, "", []string{"ruff"})
	require.NoError(t, err)

	assert.True(t, result.Ready)
	assert.Equal(t, "Lint Python with ruff", result.RefinedPrompt)
	assert.Equal(t, "A ruff linting skill", result.Summary)
	assert.Empty(t, result.Questions)

	// The user's answer was persisted even though the loop finished.
	updated, err := drafts.GetCreation(context.Background(), creation.ID, "user_1")
	require.NoError(t, err)
	require.Len(t, updated.ConversationHistory, 2)
	assert.Equal(t, "ruff", updated.ConversationHistory[1].Content)
}

func TestClarifyLifetimeCapForcesReady(t *testing.T) {
	// At the lifetime question cap the clarifier reports ready without
	// consulting the model at all.
	drafts := newFakeDraftStore()
	creation := drafts.seed(store.SkillCreation{
		OwnerID:        "user_1",
		OriginalPrompt: "A skill that lints Python code for me",
		Status:         store.StatusClarifying,
		QuestionsAsked: maxQuestionsLifetime,
	})

	c := newTestClarifier(t, drafts, mocks.NewChatClient(t))
	result, err := c.Clarify(context.Background(), "user_1", creation.ID, "", []string{"use ruff"})
	require.NoError(t, err)

	assert.True(t, result.Ready)
	assert.Contains(t, result.RefinedPrompt, "A skill that lints Python code for me")
	assert.Contains(t, result.RefinedPrompt, "use ruff")
}

func TestClarifyQuestionsTrimmedToLifetimeBudget(t *testing.T) {
	drafts := newFakeDraftStore()
	creation := drafts.seed(store.SkillCreation{
		OwnerID:        "user_1",
		OriginalPrompt: "A skill that lints Python code for me",
		Status:         store.StatusClarifying,
		QuestionsAsked: maxQuestionsLifetime - 1,
	})

	chat := mocks.NewChatClient(t)
	chat.EXPECT().Complete(mock.Anything, mock.Anything).
		Return(`{"isComplete": false, "questions": [
			{"id": "q1", "question": "One?", "type": "text"},
			{"id": "q2", "question": "Two?", "type": "text"},
			{"id": "q3", "question": "Three?", "type": "text"}
		]}`, nil)

	c := newTestClarifier(t, drafts, chat)
	result, err := c.Clarify(context.Background(), "user_1", creation.ID, "", nil)
	require.NoError(t, err)

	require.Len(t, result.Questions, 1)
	assert.Equal(t, "q1", result.Questions[0].ID)

	updated, err := drafts.GetCreation(context.Background(), creation.ID, "user_1")
	require.NoError(t, err)
	assert.Equal(t, maxQuestionsLifetime, updated.QuestionsAsked)
}

func TestClarifyForceFinalizeInstruction(t *testing.T) {
	drafts := newFakeDraftStore()
	history := []store.ConversationMessage{
		{Role: llm.RoleUser, Content: "answer 1"},
		{Role: llm.RoleUser, Content: "answer 2"},
	}
	creation := drafts.seed(store.SkillCreation{
		OwnerID:             "user_1",
		OriginalPrompt:      "A skill that lints Python code for me",
		Status:              store.StatusClarifying,
		QuestionsAsked:      3,
		ConversationHistory: history,
	})

	var captured llm.Request
	chat := mocks.NewChatClient(t)
	chat.EXPECT().Complete(mock.Anything, mock.Anything).
		Run(func(_ context.Context, req llm.Request) { captured = req }).
		Return(`{"isComplete": true, "refinedPrompt": "final"}`, nil)

	c := newTestClarifier(t, drafts, chat)
	_, err := c.Clarify(context.Background(), "user_1", creation.ID, "", []string{"answer 3"})
	require.NoError(t, err)

	require.NotEmpty(t, captured.Messages)
	last := captured.Messages[len(captured.Messages)-1]
	assert.Contains(t, last.Content, "finalize")
	assert.True(t, captured.JSONResponse)
}

func TestClarifyGarbageOutputDegradesToReady(t *testing.T) {
	drafts := newFakeDraftStore()
	creation := drafts.seed(store.SkillCreation{
		OwnerID:        "user_1",
		OriginalPrompt: "A skill that lints Python code for me",
		Status:         store.StatusClarifying,
		QuestionsAsked: 1,
		ConversationHistory: []store.ConversationMessage{
			{Role: llm.RoleUser, Content: "fix style issues"},
		},
	})

	chat := mocks.NewChatClient(t)
	chat.EXPECT().Complete(mock.Anything, mock.Anything).
		Return("I think you should clarify your requirements.", nil)

	c := newTestClarifier(t, drafts, chat)
	result, err := c.Clarify(context.Background(), "user_1", creation.ID, "", nil)
	require.NoError(t, err)

	assert.True(t, result.Ready)
	assert.Contains(t, result.RefinedPrompt, "fix style issues")
}

func TestClarifyUpstreamFailure(t *testing.T) {
	drafts := newFakeDraftStore()
	creation := drafts.seed(store.SkillCreation{
		OwnerID:        "user_1",
		OriginalPrompt: "A skill that lints Python code for me",
		Status:         store.StatusClarifying,
	})

	chat := mocks.NewChatClient(t)
	chat.EXPECT().Complete(mock.Anything, mock.Anything).
		Return("", apperrors.Upstream(assert.AnError, "model call"))

	c := newTestClarifier(t, drafts, chat)
	_, err := c.Clarify(context.Background(), "user_1", creation.ID, "", nil)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)

	// The failed round left no trace in the conversation.
	updated, err := drafts.GetCreation(context.Background(), creation.ID, "user_1")
	require.NoError(t, err)
	assert.Empty(t, updated.ConversationHistory)
}

func TestClarifyOwnership(t *testing.T) {
	drafts := newFakeDraftStore()
	creation := drafts.seed(store.SkillCreation{
		OwnerID:        "user_1",
		OriginalPrompt: "A skill that lints Python code for me",
		Status:         store.StatusClarifying,
	})

	c := newTestClarifier(t, drafts, mocks.NewChatClient(t))
	_, err := c.Clarify(context.Background(), "user_2", creation.ID, "", nil)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestClarifyRejectsBusyAndPublishedDrafts(t *testing.T) {
	for _, status := range []store.Status{store.StatusGenerating, store.StatusPublished} {
		t.Run(string(status), func(t *testing.T) {
			drafts := newFakeDraftStore()
			creation := drafts.seed(store.SkillCreation{
				OwnerID:        "user_1",
				OriginalPrompt: "A skill that lints Python code for me",
				Status:         status,
			})

			// No model expectations: the guard fires before any LLM call.
			c := newTestClarifier(t, drafts, mocks.NewChatClient(t))
			_, err := c.Clarify(context.Background(), "user_1", creation.ID, "", []string{"an answer"})
			assert.ErrorIs(t, err, apperrors.ErrState)

			updated, err := drafts.GetCreation(context.Background(), creation.ID, "user_1")
			require.NoError(t, err)
			assert.Empty(t, updated.ConversationHistory)
		})
	}
}

func TestSanitizeQuestions(t *testing.T) {
	questions := sanitizeQuestions([]ClarifyQuestion{
		{ID: "a", Question: "Choice without options", Type: "single"},
		{ID: "b", Question: "", Type: "text"},
		{ID: "c", Question: "Free text with stray options", Type: "text", Options: []string{"x"}},
		{ID: "d", Question: "Unknown kind", Type: "ranking", Options: []string{"x"}},
		{ID: "e", Question: "Over the round cap", Type: "text"},
	})

	require.Len(t, questions, 3)
	assert.Equal(t, "text", questions[0].Type) // single without options downgraded
	assert.Empty(t, questions[1].Options)
	assert.Equal(t, "text", questions[2].Type)
}
