package bootstrap

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go/option"

	"filing-backend/internal/llm"
	"filing-backend/internal/llm/claude"
	"filing-backend/internal/llm/compat"
	"filing-backend/internal/llm/gemini"
	"filing-backend/internal/llm/openai"
	"filing-backend/internal/shared/config"
)

// BuildLLM selects the configured provider and wraps it with retries.
// LLM_PROVIDER=none yields an extractor with no generator.
func BuildLLM(ctx context.Context, cfg config.Config) (*llm.Extractor, error) {
	pricing, err := llm.LoadPricing(cfg.LLMPricingFile)
	if err != nil {
		return nil, err
	}

	var gen llm.Generator
	switch cfg.LLMProvider {
	case "openai":
		gen, err = openai.NewClient(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL, 0)
	case "compat":
		gen, err = compat.NewClient(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL)
	case "anthropic":
		var opts []option.RequestOption
		if cfg.LLMBaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.LLMBaseURL))
		}
		gen, err = claude.NewClient(cfg.LLMAPIKey, cfg.LLMModel, opts...)
	case "gemini":
		gen, err = gemini.NewClient(ctx, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL)
	case "none", "":
		return &llm.Extractor{Provider: "none"}, nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("llm provider %s: %w", cfg.LLMProvider, err)
	}

	return &llm.Extractor{
		Generator: llm.NewRetrying(gen),
		Provider:  cfg.LLMProvider,
		Model:     cfg.LLMModel,
		MaxChars:  cfg.LLMMaxChars,
		Pricing:   pricing,
	}, nil
}
