package composer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/agentskills/marketplace/internal/apperrors"
	"github.com/agentskills/marketplace/internal/llm"
	"github.com/agentskills/marketplace/internal/store"
	"github.com/agentskills/marketplace/pkg/logger"
)

const (
	// MinPromptLen is the minimum accepted skill prompt length.
	MinPromptLen = 10
	// MaxPromptLen is the maximum accepted skill prompt length.
	MaxPromptLen = 2000

	// maxQuestionsPerRound caps one clarifying round.
	maxQuestionsPerRound = 3
	// maxQuestionsLifetime caps the total questions asked across all rounds
	// of one draft. Once reached the clarifier always reports ready, which
	// guarantees the loop terminates.
	maxQuestionsLifetime = 5
	// forceFinalizeRounds is the answered-round count after which the model
	// is told to finalize.
	forceFinalizeRounds = 3
)

const clarifySystemPrompt = `You are a product requirements analyst helping users clarify their skill creation requests.

Your task is to ask clarifying questions to better understand what the user wants to build. Based on the conversation history, either:
1. Ask 1-3 focused clarifying questions if the requirements are unclear
2. Indicate the requirements are complete and provide a refined prompt summary

IMPORTANT: Output valid JSON in exactly this format:
{
  "isComplete": false,
  "questions": [
    {
      "id": "q1",
      "question": "What is your primary use case?",
      "type": "single",
      "options": ["Option A", "Option B", "Option C"]
    }
  ]
}

OR if requirements are clear:
{
  "isComplete": true,
  "refinedPrompt": "A detailed, refined version of the user's request incorporating all gathered information",
  "summary": "Brief summary of what will be built"
}

Question types:
- "single": Single choice from options
- "multiple": Multiple choice from options
- "text": Free text input (no options needed)

Guidelines:
- Ask about: target users, main functionality, key constraints, integration points
- Prefer multiple choice questions when possible (faster to answer)
- Maximum 3 questions per round
- Only set isComplete to true after the user has answered at least one round of questions
- Focus on actionable requirements, not philosophical discussions`

// ClarifyQuestion is one structured clarifying question.
type ClarifyQuestion struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Type     string   `json:"type"` // single | multiple | text
	Options  []string `json:"options,omitempty"`
}

// ClarifyResult is one clarifying round's outcome: either more questions, or
// ready-to-generate with a refined prompt.
type ClarifyResult struct {
	CreationID    string            `json:"creationId"`
	Ready         bool              `json:"ready"`
	Questions     []ClarifyQuestion `json:"questions,omitempty"`
	RefinedPrompt string            `json:"refinedPrompt,omitempty"`
	Summary       string            `json:"summary,omitempty"`
}

// clarifyModelResponse is the JSON shape the model is prompted to emit.
type clarifyModelResponse struct {
	IsComplete    bool              `json:"isComplete"`
	Questions     []ClarifyQuestion `json:"questions"`
	RefinedPrompt string            `json:"refinedPrompt"`
	Summary       string            `json:"summary"`
}

// Clarifier runs the interactive Q&A loop that refines a skill prompt before
// generation.
type Clarifier struct {
	drafts store.DraftStore
	chat   llm.ChatClient
	logger logger.Logger
}

// ClarifierConfig configures a Clarifier.
type ClarifierConfig struct {
	Drafts store.DraftStore
	Chat   llm.ChatClient
	Logger logger.Logger
}

// NewClarifier builds a Clarifier.
func NewClarifier(cfg ClarifierConfig) (*Clarifier, error) {
	if cfg.Drafts == nil {
		return nil, fmt.Errorf("draft store is required")
	}
	if cfg.Chat == nil {
		return nil, fmt.Errorf("chat client is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Clarifier{drafts: cfg.Drafts, chat: cfg.Chat, logger: cfg.Logger}, nil
}

// Clarify runs one clarifying round. An empty creationID starts a new draft
// from prompt; otherwise answers are the user's replies to the previous
// round. The draft is only mutated after the model call succeeds, so an
// upstream failure leaves it untouched and retryable.
func (c *Clarifier) Clarify(ctx context.Context, ownerID, creationID, prompt string, answers []string) (*ClarifyResult, error) {
	creation, err := c.loadOrCreate(ctx, ownerID, creationID, prompt)
	if err != nil {
		return nil, err
	}

	answerText := strings.TrimSpace(strings.Join(answers, "\n"))

	history := creation.ConversationHistory
	if answerText != "" {
		history = append(history, store.ConversationMessage{Role: llm.RoleUser, Content: answerText})
	}

	// Lifetime cap reached: always ready, regardless of what the model
	// would say.
	if creation.QuestionsAsked >= maxQuestionsLifetime {
		return c.finishRound(ctx, creation, answerText, nil, &ClarifyResult{
			CreationID:    creation.ID,
			Ready:         true,
			RefinedPrompt: refinedPromptFromHistory(creation.OriginalPrompt, history),
		})
	}

	response, err := c.askModel(ctx, creation.OriginalPrompt, history)
	if err != nil {
		c.logger.Error("clarify model call failed", logger.ErrorField(err), logger.CreationIDField(creation.ID))
		return nil, err
	}

	result := c.interpret(creation, history, response)

	var assistantMsg *store.ConversationMessage
	if len(result.Questions) > 0 {
		content, err := json.Marshal(result.Questions)
		if err != nil {
			return nil, apperrors.Persistence(err, "marshal clarify questions")
		}
		assistantMsg = &store.ConversationMessage{Role: llm.RoleAssistant, Content: string(content)}
	}

	return c.finishRound(ctx, creation, answerText, assistantMsg, result)
}

func (c *Clarifier) loadOrCreate(ctx context.Context, ownerID, creationID, prompt string) (*store.SkillCreation, error) {
	if creationID != "" {
		creation, err := c.drafts.GetCreation(ctx, creationID, ownerID)
		if err != nil {
			return nil, err
		}
		// Only idle drafts take clarifying rounds: a generation in flight owns
		// the draft, and published creations are read-only.
		if creation.Status != store.StatusClarifying && creation.Status != store.StatusDraft {
			return nil, apperrors.State("creation %s is %s, cannot clarify", creation.ID, creation.Status)
		}
		return creation, nil
	}

	prompt = strings.TrimSpace(prompt)
	if len(prompt) < MinPromptLen {
		return nil, apperrors.Validation("prompt must be at least %d characters", MinPromptLen)
	}
	if len(prompt) > MaxPromptLen {
		return nil, apperrors.Validation("prompt must be %d characters or less", MaxPromptLen)
	}
	return c.drafts.CreateCreation(ctx, ownerID, prompt, "", nil)
}

// askModel requests either a question set or a completion signal. Model
// output that cannot be parsed degrades to ready rather than failing the
// round; clarification is an optimization, not a correctness requirement.
func (c *Clarifier) askModel(ctx context.Context, originalPrompt string, history []store.ConversationMessage) (*clarifyModelResponse, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: "Initial request: " + originalPrompt})
	for _, msg := range history {
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}

	if userRounds(history) >= forceFinalizeRounds {
		messages = append(messages, llm.Message{
			Role:    llm.RoleUser,
			Content: "Please finalize the requirements now and set isComplete to true.",
		})
	}

	content, err := c.chat.Complete(ctx, llm.Request{
		System:       clarifySystemPrompt,
		Messages:     messages,
		MaxTokens:    1024,
		JSONResponse: true,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrUpstream) {
			return nil, err
		}
		return nil, apperrors.Upstream(err, "clarify")
	}

	jsonStr, ok := extractJSONObject(content)
	if !ok {
		c.logger.Warn("clarify response had no JSON object, treating as ready")
		return &clarifyModelResponse{IsComplete: true}, nil
	}

	var response clarifyModelResponse
	if err := json.Unmarshal([]byte(jsonStr), &response); err != nil {
		c.logger.Warn("clarify response JSON did not parse, treating as ready", logger.ErrorField(err))
		return &clarifyModelResponse{IsComplete: true}, nil
	}
	return &response, nil
}

// interpret applies the round and lifetime caps to the model's answer.
func (c *Clarifier) interpret(creation *store.SkillCreation, history []store.ConversationMessage, response *clarifyModelResponse) *ClarifyResult {
	questions := sanitizeQuestions(response.Questions)

	// The model likes to declare completion immediately; require at least
	// one answered round first.
	if response.IsComplete && userRounds(history) < 1 {
		if len(questions) == 0 {
			questions = []ClarifyQuestion{{
				ID:       "q_followup",
				Question: "What specific features or capabilities would you like this skill to have?",
				Type:     "text",
			}}
		}
		response.IsComplete = false
	}

	if remaining := maxQuestionsLifetime - creation.QuestionsAsked; len(questions) > remaining {
		questions = questions[:remaining]
	}

	if response.IsComplete || len(questions) == 0 {
		refined := response.RefinedPrompt
		if refined == "" {
			refined = refinedPromptFromHistory(creation.OriginalPrompt, history)
		}
		return &ClarifyResult{
			CreationID:    creation.ID,
			Ready:         true,
			RefinedPrompt: refined,
			Summary:       response.Summary,
		}
	}

	return &ClarifyResult{CreationID: creation.ID, Questions: questions}
}

// finishRound persists the round's conversation delta in one append.
func (c *Clarifier) finishRound(ctx context.Context, creation *store.SkillCreation, answerText string, assistantMsg *store.ConversationMessage, result *ClarifyResult) (*ClarifyResult, error) {
	var messages []store.ConversationMessage
	if answerText != "" {
		messages = append(messages, store.ConversationMessage{Role: llm.RoleUser, Content: answerText})
	}
	if assistantMsg != nil {
		messages = append(messages, *assistantMsg)
	}

	if len(messages) > 0 || len(result.Questions) > 0 {
		if _, err := c.drafts.AppendConversation(ctx, creation.ID, messages, len(result.Questions)); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func sanitizeQuestions(questions []ClarifyQuestion) []ClarifyQuestion {
	valid := make([]ClarifyQuestion, 0, len(questions))
	for i, q := range questions {
		if len(valid) == maxQuestionsPerRound {
			break
		}
		if strings.TrimSpace(q.Question) == "" {
			continue
		}
		switch q.Type {
		case "single", "multiple":
			if len(q.Options) == 0 {
				q.Type = "text"
			}
		case "text":
			q.Options = nil
		default:
			q.Type = "text"
			q.Options = nil
		}
		if q.ID == "" {
			q.ID = fmt.Sprintf("q%d", i+1)
		}
		valid = append(valid, q)
	}
	return valid
}

func userRounds(history []store.ConversationMessage) int {
	rounds := 0
	for _, msg := range history {
		if msg.Role == llm.RoleUser {
			rounds++
		}
	}
	return rounds
}

// refinedPromptFromHistory folds answered rounds into the original prompt
// when the model never supplied a refined version itself.
func refinedPromptFromHistory(originalPrompt string, history []store.ConversationMessage) string {
	var answers []string
	for _, msg := range history {
		if msg.Role == llm.RoleUser {
			answers = append(answers, msg.Content)
		}
	}
	if len(answers) == 0 {
		return originalPrompt
	}
	return originalPrompt + "\n\nAdditional details:\n" + strings.Join(answers, "\n")
}
