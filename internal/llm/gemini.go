package llm

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/agentskills/marketplace/internal/apperrors"
)

type geminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int
}

func newGeminiClient(cfg Config) (*geminiClient, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apperrors.Upstream(err, "create gemini client")
	}
	return &geminiClient{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (c *geminiClient) Complete(ctx context.Context, req Request) (string, error) {
	contents, config := c.buildRequest(req)
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", apperrors.Upstream(err, "gemini completion")
	}
	return resp.Text(), nil
}

func (c *geminiClient) Stream(ctx context.Context, req Request, onDelta DeltaFunc) (string, error) {
	contents, config := c.buildRequest(req)

	var sb strings.Builder
	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, config) {
		if err != nil {
			return "", apperrors.Upstream(err, "gemini stream")
		}
		delta := resp.Text()
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if err := onDelta(delta); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func (c *geminiClient) buildRequest(req Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		var role genai.Role = genai.RoleUser
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.maxTokensOrDefault(c.maxTokens)),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}
	if req.JSONResponse {
		config.ResponseMIMEType = "application/json"
	}
	return contents, config
}
