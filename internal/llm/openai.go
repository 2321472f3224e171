package llm

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/agentskills/marketplace/internal/apperrors"
)

// openAIClient serves both OpenAI and DeepSeek, which speaks the same wire
// protocol.
type openAIClient struct {
	client    openai.Client
	model     string
	maxTokens int
}

func newOpenAIClient(cfg Config) *openAIClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &openAIClient{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

func (c *openAIClient) Complete(ctx context.Context, req Request) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, c.buildParams(req))
	if err != nil {
		return "", apperrors.Upstream(err, "openai completion")
	}
	if len(completion.Choices) == 0 {
		return "", apperrors.Upstream(nil, "openai returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

func (c *openAIClient) Stream(ctx context.Context, req Request, onDelta DeltaFunc) (string, error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.buildParams(req))
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := onDelta(delta); err != nil {
			return "", err
		}
	}
	if err := stream.Err(); err != nil {
		return "", apperrors.Upstream(err, "openai stream")
	}
	if len(acc.Choices) == 0 {
		return "", apperrors.Upstream(nil, "openai stream returned no choices")
	}
	return acc.Choices[0].Message.Content, nil
}

func (c *openAIClient) buildParams(req Request) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:     c.model,
		MaxTokens: openai.Int(req.maxTokensOrDefault(c.maxTokens)),
		Messages:  messages,
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.JSONResponse {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return params
}
