// Package compat talks to any OpenAI-compatible chat completions endpoint
// (vLLM, Ollama, Azure-style proxies) through the official SDK.
package compat

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"filing-backend/internal/llm"
)

// Client implements llm.Generator with openai-go.
type Client struct {
	client openai.Client
	model  string
}

// NewClient builds a client for baseURL; an empty baseURL uses the SDK default.
func NewClient(apiKey, model, baseURL string, opts ...option.RequestOption) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for the compat provider")
	}
	options := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if strings.TrimSpace(baseURL) != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}
	options = append(options, opts...)
	return &Client{client: openai.NewClient(options...), model: model}, nil
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("compat chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("compat response missing choices")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("compat response empty content")
	}
	return content, nil
}

var _ llm.Generator = (*Client)(nil)
