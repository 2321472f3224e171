package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/agentskills/marketplace/internal/apperrors"
)

type anthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

func newAnthropicClient(cfg Config) *anthropicClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &anthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

func (c *anthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	message, err := c.client.Messages.New(ctx, c.buildParams(req))
	if err != nil {
		return "", apperrors.Upstream(err, "anthropic completion")
	}
	return collectText(message), nil
}

func (c *anthropicClient) Stream(ctx context.Context, req Request, onDelta DeltaFunc) (string, error) {
	stream := c.client.Messages.NewStreaming(ctx, c.buildParams(req))
	defer stream.Close()

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return "", apperrors.Upstream(err, "anthropic stream accumulate")
		}
		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if deltaVariant, ok := eventVariant.Delta.AsAny().(anthropic.TextDelta); ok && deltaVariant.Text != "" {
				if err := onDelta(deltaVariant.Text); err != nil {
					return "", err
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", apperrors.Upstream(err, "anthropic stream")
	}
	return collectText(&message), nil
}

func (c *anthropicClient) buildParams(req Request) anthropic.MessageNewParams {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		block := anthropic.NewTextBlock(msg.Content)
		switch msg.Role {
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(block))
		default:
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	system := req.System
	// The Messages API has no JSON response mode, so the constraint rides in
	// the system prompt instead.
	if req.JSONResponse {
		if system != "" {
			system += "\n\n"
		}
		system += "Respond with a single valid JSON object and nothing else."
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: req.maxTokensOrDefault(c.maxTokens),
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	return params
}

func collectText(message *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range message.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(textBlock.Text)
		}
	}
	return sb.String()
}
