package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"filing-backend/internal/llm"
	"filing-backend/internal/shared/telemetry"
)

var apiURL = "https://api.openai.com/v1/chat/completions"

const defaultTimeout = 120 * time.Second

// Client implements llm.Generator over the Chat Completions HTTP API.
type Client struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
}

// NewClient constructs a client. An empty baseURL selects the public endpoint.
func NewClient(apiKey, model, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	url := ""
	if base := strings.TrimRight(strings.TrimSpace(baseURL), "/"); base != "" {
		url = base + "/chat/completions"
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float32       `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

var errTemperatureUnsupported = errors.New("temperature unsupported by model")

// Generate sends prompt as a single user message and returns the raw content.
// A model that rejects temperature 0 is retried once without it.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	withTemp := !omitTemperature(c.model)
	content, err := c.complete(ctx, prompt, withTemp)
	if errors.Is(err, errTemperatureUnsupported) && withTemp {
		telemetry.Warn("llm.openai.temperature_retry", map[string]any{"model": c.model})
		content, err = c.complete(ctx, prompt, false)
	}
	return content, err
}

func (c *Client) complete(ctx context.Context, prompt string, withTemp bool) (string, error) {
	reqBody := chatRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	if withTemp {
		temp := float32(0)
		reqBody.Temperature = &temp
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := c.url
	if endpoint == "" {
		endpoint = apiURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("openai request timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("openai http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return "", fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		if isTemperatureError(parsed.Error.Message) {
			return "", fmt.Errorf("%w: %s", errTemperatureUnsupported, parsed.Error.Message)
		}
		return "", fmt.Errorf("openai http status %d: %s (%s)", resp.StatusCode, parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("openai http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}
	if parsed.Usage != nil {
		telemetry.Info("llm.openai.usage", map[string]any{
			"model":             c.model,
			"prompt_tokens":     parsed.Usage.PromptTokens,
			"completion_tokens": parsed.Usage.CompletionTokens,
		})
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai response empty content")
	}
	return content, nil
}

func isTemperatureError(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "temperature") && strings.Contains(m, "unsupported")
}

// omitTemperature covers gpt-5 models and anything listed in LLM_NO_TEMP0_MODELS.
func omitTemperature(model string) bool {
	if isGPT5(model) {
		return true
	}
	m := strings.ToLower(strings.TrimSpace(model))
	for _, denied := range strings.Split(os.Getenv("LLM_NO_TEMP0_MODELS"), ",") {
		if d := strings.ToLower(strings.TrimSpace(denied)); d != "" && d == m {
			return true
		}
	}
	return false
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.Generator = (*Client)(nil)
