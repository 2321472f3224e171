package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/agentskills/marketplace/internal/llm"
)

// LLMConfig selects and configures the chat model provider.
type LLMConfig struct {
	// Provider is one of: openai, anthropic, gemini, deepseek.
	Provider string `env:"LLM_PROVIDER" yaml:"provider" default:"openai"`

	// APIKey authenticates against the selected provider.
	APIKey string `env:"LLM_API_KEY" yaml:"api_key"`

	// Model is the provider model name. Empty picks the provider default.
	Model string `env:"LLM_MODEL" yaml:"model" default:"gpt-4o"`

	// BaseURL overrides the provider endpoint. Required for self-hosted
	// OpenAI-compatible gateways, ignored by gemini.
	BaseURL string `env:"LLM_BASE_URL" yaml:"base_url"`

	// MaxTokens caps completion length when a request does not set its own.
	MaxTokens int `env:"LLM_MAX_TOKENS" yaml:"max_tokens" default:"8192"`
}

// Validate checks the provider selection.
func (l LLMConfig) Validate() error {
	var result error

	switch strings.ToLower(l.Provider) {
	case "openai", "anthropic", "gemini", "deepseek":
	default:
		result = multierror.Append(result, fmt.Errorf("llm provider must be one of [openai, anthropic, gemini, deepseek], got %q", l.Provider))
	}

	if l.APIKey == "" {
		result = multierror.Append(result, fmt.Errorf("llm api key is required"))
	}

	if l.MaxTokens <= 0 {
		result = multierror.Append(result, fmt.Errorf("llm max_tokens must be greater than 0"))
	}

	return result
}

// ClientConfig returns the llm package configuration for this section.
func (l LLMConfig) ClientConfig() llm.Config {
	return llm.Config{
		Provider:  l.Provider,
		APIKey:    l.APIKey,
		BaseURL:   l.BaseURL,
		Model:     l.Model,
		MaxTokens: l.MaxTokens,
	}
}
