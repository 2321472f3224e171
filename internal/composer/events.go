// Package composer implements the skill-generation pipeline: the clarifying
// Q&A loop, the streaming generator that turns model output into step and
// content events, and the publisher that turns a finished draft into a
// catalog skill.
package composer

import "context"

// EventType tags a generation stream frame.
type EventType string

const (
	EventStatus     EventType = "status"
	EventThinking   EventType = "thinking"
	EventGenerating EventType = "generating"
	EventStep       EventType = "step"
	EventSkillMd    EventType = "skillMd"
	EventComplete   EventType = "complete"
	EventError      EventType = "error"
)

// Source is the wire form of a step's provenance entry.
type Source struct {
	SkillID   string  `json:"skillId"`
	SkillName string  `json:"skillName"`
	Stars     int     `json:"stars"`
	Forks     int     `json:"forks"`
	Rating    float64 `json:"rating"`
	Reason    string  `json:"reason"`
}

// Step is one generated workflow step.
type Step struct {
	StepNumber  int      `json:"stepNumber"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Sources     []Source `json:"sources"`
}

// Result is the payload of the terminal complete event.
type Result struct {
	CreationID  string `json:"creationId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SkillMd     string `json:"skillMd"`
	Steps       []Step `json:"steps"`
}

// Event is one frame of a generation stream. Exactly one terminal frame
// (complete or error) closes every stream; no frames follow it.
type Event struct {
	Type        EventType `json:"type"`
	Message     string    `json:"message,omitempty"`
	Step        *Step     `json:"step,omitempty"`
	StepIndex   *int      `json:"stepIndex,omitempty"`
	TotalSteps  int       `json:"totalSteps,omitempty"` // omitted until the step count is known
	Chunk       string    `json:"chunk,omitempty"`
	FullContent string    `json:"fullContent,omitempty"`
	Result      *Result   `json:"result,omitempty"`
}

// Terminal reports whether no further frames may follow this one.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

// EventSink receives generation frames in order. A Send error aborts the
// generation run; the sink will not be called again after it returns an
// error or after a terminal frame.
type EventSink interface {
	Send(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Send(ctx context.Context, event Event) error {
	return f(ctx, event)
}

func statusEvent(message string) Event {
	return Event{Type: EventStatus, Message: message}
}

func thinkingEvent(message string) Event {
	return Event{Type: EventThinking, Message: message}
}

func generatingEvent(message string) Event {
	return Event{Type: EventGenerating, Message: message}
}

func stepEvent(step Step, index, total int) Event {
	return Event{Type: EventStep, Step: &step, StepIndex: &index, TotalSteps: total}
}

func skillMdEvent(chunk, fullContent string) Event {
	return Event{Type: EventSkillMd, Chunk: chunk, FullContent: fullContent}
}

func completeEvent(result Result) Event {
	return Event{Type: EventComplete, Result: &result}
}

func errorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}
