package openai_provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/mohammad-safakhou/marketintel/provider/types"
)

// Client adapts an OpenAI-compatible chat model to the one-shot Generator contract.
type Client struct {
	chatModel model.BaseChatModel
}

var _ types.Generator = (*Client)(nil)

// NewClient creates a chat model against baseURL (empty means api.openai.com).
func NewClient(ctx context.Context, baseURL, apiKey, modelName string, timeout time.Duration) (*Client, error) {
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   modelName,
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return &Client{chatModel: cm}, nil
}

// NewWithModel wraps an existing chat model.
func NewWithModel(cm model.BaseChatModel) *Client {
	return &Client{chatModel: cm}
}

// Generate sends the prompt as a single user message.
func (c *Client) Generate(ctx context.Context, req types.Request) (string, error) {
	opts := []model.Option{model.WithTemperature(float32(req.Temperature))}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}
	if req.TopP > 0 {
		opts = append(opts, model.WithTopP(float32(req.TopP)))
	}

	resp, err := c.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(req.Prompt)}, opts...)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return strings.TrimSpace(resp.Content), nil
}
