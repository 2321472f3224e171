// Package llm abstracts the chat-completion providers behind a single
// client interface so the composer pipeline never talks to a vendor SDK
// directly.
package llm

import (
	"context"
	"fmt"
	"strings"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes a single chat-completion call.
type Request struct {
	System       string
	Messages     []Message
	MaxTokens    int
	Temperature  *float64
	JSONResponse bool
}

// DeltaFunc receives streamed text fragments as the provider emits them.
// Returning an error aborts the stream.
type DeltaFunc func(delta string) error

// ChatClient is the provider-neutral chat interface. Stream returns the
// full concatenated text in addition to invoking the delta callback, so
// callers always end with the complete response.
type ChatClient interface {
	Complete(ctx context.Context, req Request) (string, error)
	Stream(ctx context.Context, req Request, onDelta DeltaFunc) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider  string
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

const deepSeekBaseURL = "https://api.deepseek.com"

// New builds a ChatClient for the configured provider. DeepSeek exposes an
// OpenAI-compatible API, so it reuses the OpenAI client with a different
// base URL.
func New(cfg Config) (ChatClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return newOpenAIClient(cfg), nil
	case "deepseek":
		if cfg.BaseURL == "" {
			cfg.BaseURL = deepSeekBaseURL
		}
		return newOpenAIClient(cfg), nil
	case "anthropic":
		return newAnthropicClient(cfg), nil
	case "gemini":
		return newGeminiClient(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

func (r Request) maxTokensOrDefault(fallback int) int64 {
	if r.MaxTokens > 0 {
		return int64(r.MaxTokens)
	}
	if fallback > 0 {
		return int64(fallback)
	}
	return 4096
}
