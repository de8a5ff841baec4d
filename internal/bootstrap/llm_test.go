package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filing-backend/internal/shared/config"
)

func TestBuildLLMProviders(t *testing.T) {
	ctx := context.Background()

	none, err := BuildLLM(ctx, config.Config{LLMProvider: "none"})
	require.NoError(t, err)
	assert.False(t, none.Enabled())

	compat, err := BuildLLM(ctx, config.Config{
		LLMProvider: "compat",
		LLMModel:    "llama3",
		LLMBaseURL:  "http://localhost:11434/v1",
		LLMMaxChars: 4000,
	})
	require.NoError(t, err)
	assert.True(t, compat.Enabled())
	assert.Equal(t, "llama3", compat.Model)
	assert.Equal(t, 4000, compat.MaxChars)

	for _, provider := range []string{"openai", "anthropic", "gemini"} {
		_, err := BuildLLM(ctx, config.Config{LLMProvider: provider, LLMModel: "m"})
		assert.Error(t, err, provider)
	}

	_, err = BuildLLM(ctx, config.Config{LLMProvider: "bogus"})
	assert.Error(t, err)
}

func TestBuildLLMLoadsPricingOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models:\n  llama3:\n    input_per_mtok: 0.5\n    output_per_mtok: 1\n"), 0o600))

	ex, err := BuildLLM(context.Background(), config.Config{
		LLMProvider:    "compat",
		LLMModel:       "llama3",
		LLMPricingFile: path,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, ex.Pricing.RateFor("llama3").InputPerMTok)

	_, err = BuildLLM(context.Background(), config.Config{LLMProvider: "compat", LLMModel: "x", LLMPricingFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
