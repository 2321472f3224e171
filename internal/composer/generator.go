package composer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agentskills/marketplace/internal/apperrors"
	"github.com/agentskills/marketplace/internal/llm"
	"github.com/agentskills/marketplace/internal/store"
	"github.com/agentskills/marketplace/pkg/logger"
	"github.com/agentskills/marketplace/pkg/metrics"
)

const topSkillsContextLimit = 15

const generateSystemPrompt = `You are an expert AI skill designer for coding agents. Your task is to generate high-quality SKILL.md files based on user requests.

You have access to top-rated skills from the marketplace. For each step in your generated skill's workflow:
1. Identify which existing skill(s) best inform this step
2. Extract relevant patterns, structures, or approaches
3. Explain WHY you're utilizing that skill (what specific part or pattern)

IMPORTANT: Always output valid JSON in exactly this format. NOTE: Output "steps" BEFORE "skillMd" so workflow steps appear early:
{
  "name": "Skill Name",
  "description": "One-line description of what this skill does",
  "steps": [
    {
      "stepNumber": 1,
      "title": "Step Title",
      "description": "What this step does in 1-2 sentences",
      "sources": [
        {
          "skillId": "the-skill-id-from-context",
          "reason": "Specific explanation of what pattern/technique is being utilized from this skill"
        }
      ]
    }
  ],
  "skillMd": "Full SKILL.md content as a string with proper markdown formatting. Use \\n for newlines."
}

CRITICAL - SKILL.md Format Requirements:
The skillMd content MUST start with YAML frontmatter in this exact format:

---
name: skill-name-here
description: "One-line description in quotes. When the agent needs to..."
---

# Skill Title

... rest of the skill content ...

The YAML frontmatter is MANDATORY. The fields are:
- name: Short identifier for the skill (kebab-case recommended)
- description: One-line description explaining when an agent should use this skill
- license: OPTIONAL - only include if user specifies a license preference

After the frontmatter, include:
- A clear # Title heading
- Brief introduction paragraph
- "## When to Use" section listing specific scenarios
- "## Workflow" section describing the step-by-step process
- "## Example Usage" with practical code blocks or examples
- Keep it concise but comprehensive`

// GenerateRequest starts a generation run. Prompt is only consulted when the
// run creates a fresh draft; an existing draft always generates from its own
// prompt and history.
type GenerateRequest struct {
	Prompt   string
	Category string
}

// Generator drives the streaming skill-generation pipeline: status guard,
// top-skills context, model stream, incremental event emission, and final
// persistence.
type Generator struct {
	drafts  store.DraftStore
	catalog store.CatalogStore
	chat    llm.ChatClient
	logger  logger.Logger
	metrics metrics.Metrics
}

// GeneratorConfig configures a Generator. Metrics may be the zero value.
type GeneratorConfig struct {
	Drafts  store.DraftStore
	Catalog store.CatalogStore
	Chat    llm.ChatClient
	Logger  logger.Logger
	Metrics metrics.Metrics
}

// NewGenerator builds a Generator.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if cfg.Drafts == nil {
		return nil, fmt.Errorf("draft store is required")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if cfg.Chat == nil {
		return nil, fmt.Errorf("chat client is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Generator{
		drafts:  cfg.Drafts,
		catalog: cfg.Catalog,
		chat:    cfg.Chat,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// Generate runs generation for a draft, streaming events into sink. An empty
// creationID creates a fresh draft from req.Prompt. The clarifying→generating
// transition is a compare-and-swap: a concurrent run on the same draft loses
// the swap and fails with a state error before emitting anything.
func (g *Generator) Generate(ctx context.Context, ownerID, creationID string, req GenerateRequest, sink EventSink) error {
	var creation *store.SkillCreation
	var err error

	if creationID == "" {
		prompt := strings.TrimSpace(req.Prompt)
		if len(prompt) < MinPromptLen {
			return apperrors.Validation("prompt must be at least %d characters", MinPromptLen)
		}
		if len(prompt) > MaxPromptLen {
			return apperrors.Validation("prompt must be %d characters or less", MaxPromptLen)
		}
		creation, err = g.drafts.CreateCreation(ctx, ownerID, prompt, req.Category, nil)
	} else {
		creation, err = g.drafts.GetCreation(ctx, creationID, ownerID)
	}
	if err != nil {
		return err
	}

	if err := g.drafts.TransitionStatus(ctx, creation.ID, []store.Status{store.StatusClarifying}, store.StatusGenerating); err != nil {
		return err
	}

	prompt := refinedPromptFromHistory(creation.OriginalPrompt, creation.ConversationHistory)
	return g.run(ctx, creation, prompt, sink, store.StatusClarifying)
}

// Regenerate re-runs generation on a completed draft with user feedback
// folded into the prompt. Steps are replaced and a new output version is
// appended; the draft id is preserved.
func (g *Generator) Regenerate(ctx context.Context, ownerID, creationID, feedback string, sink EventSink) error {
	if strings.TrimSpace(feedback) == "" {
		return apperrors.Validation("feedback is required")
	}

	creation, err := g.drafts.GetCreation(ctx, creationID, ownerID)
	if err != nil {
		return err
	}

	if err := g.drafts.TransitionStatus(ctx, creation.ID, []store.Status{store.StatusDraft}, store.StatusGenerating); err != nil {
		return err
	}

	prompt := creation.OriginalPrompt + "\n\nAdditional requirements: " + feedback
	return g.run(ctx, creation, prompt, sink, store.StatusDraft)
}

// run is the shared pipeline body. On any failure the draft's status rolls
// back to rollbackTo and the stream is closed with a single error frame.
func (g *Generator) run(ctx context.Context, creation *store.SkillCreation, prompt string, sink EventSink, rollbackTo store.Status) error {
	started := time.Now()
	g.metrics.IncrementGenerationCounter(metrics.GenerationMetricStarted)

	out := &terminalOnceSink{sink: sink}

	fail := func(cause error, publicMsg string) error {
		g.metrics.IncrementGenerationCounter(metrics.GenerationMetricFailed)
		g.logger.Error("generation failed",
			logger.ErrorField(cause),
			logger.CreationIDField(creation.ID),
		)
		// Best effort even when the caller's context is gone.
		rollbackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if rbErr := g.drafts.TransitionStatus(rollbackCtx, creation.ID, []store.Status{store.StatusGenerating}, rollbackTo); rbErr != nil {
			g.logger.Error("status rollback failed", logger.ErrorField(rbErr), logger.CreationIDField(creation.ID))
		}
		_ = out.send(rollbackCtx, errorEvent(publicMsg))
		return cause
	}

	if err := out.send(ctx, statusEvent("Analyzing top skills for inspiration...")); err != nil {
		return fail(err, "stream closed")
	}

	topSkills, err := g.catalog.TopSkills(ctx, creation.Category, topSkillsContextLimit)
	if err != nil {
		return fail(err, "Generation failed. Please try again.")
	}
	if err := out.send(ctx, statusEvent(fmt.Sprintf("Found %d relevant skills", len(topSkills)))); err != nil {
		return fail(err, "stream closed")
	}

	if err := out.send(ctx, thinkingEvent("AI is analyzing your request...")); err != nil {
		return fail(err, "stream closed")
	}

	parser := newStreamParser()
	streamedSteps := 0
	generatingStarted := false

	onDelta := func(delta string) error {
		parser.append(delta)

		if !generatingStarted {
			generatingStarted = true
			if err := out.send(ctx, generatingEvent("Starting to build skill...")); err != nil {
				return err
			}
		}

		for _, raw := range parser.nextSteps() {
			streamedSteps++
			step := enrichStep(raw, topSkills)
			// The step count is unknown until the array closes, so streamed
			// events carry no total; the complete event has the real one.
			if err := out.send(ctx, stepEvent(step, raw.StepNumber-1, 0)); err != nil {
				return err
			}
			if err := out.send(ctx, generatingEvent(fmt.Sprintf("Building step %d...", raw.StepNumber))); err != nil {
				return err
			}
		}

		chunk, full, startedMd, ok := parser.nextSkillMdChunk()
		if startedMd {
			if err := out.send(ctx, generatingEvent("Writing SKILL.md content...")); err != nil {
				return err
			}
		}
		if ok {
			if err := out.send(ctx, skillMdEvent(chunk, full)); err != nil {
				return err
			}
		}
		return nil
	}

	if _, err := g.chat.Stream(ctx, llm.Request{
		System:       generateSystemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: buildUserMessage(prompt, topSkills)}},
		MaxTokens:    8192,
		JSONResponse: true,
	}, onDelta); err != nil {
		return fail(err, "AI generation failed")
	}

	if chunk, full, ok := parser.flushSkillMd(); ok {
		if err := out.send(ctx, skillMdEvent(chunk, full)); err != nil {
			return fail(err, "stream closed")
		}
	}

	if err := out.send(ctx, statusEvent("Finalizing skill...")); err != nil {
		return fail(err, "stream closed")
	}

	generated, err := parser.finalSkill()
	if err != nil {
		return fail(apperrors.Upstream(err, "generation output"), "AI generation failed")
	}

	steps := make([]Step, 0, len(generated.Steps))
	for _, raw := range generated.Steps {
		steps = append(steps, enrichStep(raw, topSkills))
	}

	// Steps the incremental extraction never completed are emitted now, with
	// the definitive total.
	for i := streamedSteps; i < len(steps); i++ {
		if err := out.send(ctx, stepEvent(steps[i], i, len(steps))); err != nil {
			return fail(err, "stream closed")
		}
	}

	if err := out.send(ctx, statusEvent("Saving to database...")); err != nil {
		return fail(err, "stream closed")
	}

	if err := g.persist(ctx, creation, generated, steps); err != nil {
		return fail(err, "Generation failed. Please try again.")
	}

	result := Result{
		CreationID:  creation.ID,
		Name:        generated.Name,
		Description: generated.Description,
		SkillMd:     generated.SkillMd,
		Steps:       steps,
	}
	if err := out.send(ctx, completeEvent(result)); err != nil {
		// Persisted successfully; only the notification was lost.
		g.logger.Warn("complete event not delivered", logger.ErrorField(err), logger.CreationIDField(creation.ID))
	}

	g.metrics.IncrementGenerationCounter(metrics.GenerationMetricCompleted)
	g.metrics.ObserveGenerationDuration(time.Since(started))
	g.logger.Info("generation completed",
		logger.CreationIDField(creation.ID),
		logger.DurationField("duration", time.Since(started)),
	)
	return nil
}

func (g *Generator) persist(ctx context.Context, creation *store.SkillCreation, generated *generatedSkill, steps []Step) error {
	storeSteps := make([]store.CreationStep, 0, len(steps))
	for _, step := range steps {
		sources := make([]store.StepSource, 0, len(step.Sources))
		for _, src := range step.Sources {
			sources = append(sources, store.StepSource{SkillID: src.SkillID, Reason: src.Reason})
		}
		storeSteps = append(storeSteps, store.CreationStep{
			CreationID:  creation.ID,
			StepNumber:  step.StepNumber,
			Title:       step.Title,
			Description: step.Description,
			Sources:     sources,
		})
	}

	if err := g.drafts.ReplaceSteps(ctx, creation.ID, storeSteps); err != nil {
		return err
	}
	if _, err := g.drafts.CreateOutputVersion(ctx, creation.ID, generated.SkillMd, false); err != nil {
		return err
	}

	now := time.Now()
	if _, err := g.drafts.UpdateCreation(ctx, creation.ID, store.CreationPatch{
		SkillMdContent: &generated.SkillMd,
		GeneratedAt:    &now,
	}); err != nil {
		return err
	}

	return g.drafts.TransitionStatus(ctx, creation.ID, []store.Status{store.StatusGenerating}, store.StatusDraft)
}

// enrichStep resolves each source against the context skills, dropping
// references the model hallucinated.
func enrichStep(raw rawStep, contextSkills []store.Skill) Step {
	byID := make(map[string]*store.Skill, len(contextSkills))
	for i := range contextSkills {
		byID[contextSkills[i].ID] = &contextSkills[i]
	}

	sources := make([]Source, 0, len(raw.Sources))
	for _, src := range raw.Sources {
		skill, ok := byID[src.SkillID]
		if !ok {
			continue
		}
		sources = append(sources, Source{
			SkillID:   src.SkillID,
			SkillName: skill.Name,
			Stars:     skill.StarsCount,
			Forks:     skill.ForksCount,
			Rating:    skill.AvgRating,
			Reason:    src.Reason,
		})
	}

	return Step{
		StepNumber:  raw.StepNumber,
		Title:       raw.Title,
		Description: raw.Description,
		Sources:     sources,
	}
}

func buildUserMessage(prompt string, contextSkills []store.Skill) string {
	return fmt.Sprintf(`Here are top-rated skills from the marketplace for reference:

%s

---

User Request: %s

Generate a high-quality skill based on this request. Use the existing skills above as inspiration and reference them in your steps.`, buildSkillsContext(contextSkills), prompt)
}

// buildSkillsContext formats the top catalog skills into the prompt context
// block.
func buildSkillsContext(skills []store.Skill) string {
	sections := make([]string, 0, len(skills))
	for _, s := range skills {
		content := s.SkillMdContent
		if content == "" {
			content = "No content available"
		}
		sections = append(sections, fmt.Sprintf(`
--- SKILL: %s (ID: %s) ---
Category: %s
Views: %d | Rating: %.1f
Description: %s

SKILL.md Content:
%s
---`, s.Name, s.ID, s.Category, s.ViewCount, s.AvgRating, s.Description, content))
	}
	return strings.Join(sections, "\n\n")
}

// terminalOnceSink suppresses anything after the first terminal frame, so a
// stream never carries two terminal events regardless of which failure path
// fired first.
type terminalOnceSink struct {
	sink     EventSink
	terminal bool
	failed   bool
}

func (s *terminalOnceSink) send(ctx context.Context, event Event) error {
	if s.terminal || s.failed {
		return nil
	}
	if event.Terminal() {
		s.terminal = true
	}
	if err := s.sink.Send(ctx, event); err != nil {
		s.failed = true
		if !event.Terminal() {
			return fmt.Errorf("event sink: %w", err)
		}
	}
	return nil
}
