package llm

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rate is a model price in USD per million tokens.
type Rate struct {
	InputPerMTok  float64 `yaml:"input_per_mtok"`
	OutputPerMTok float64 `yaml:"output_per_mtok"`
}

// Pricing maps model names (or name prefixes) to rates.
type Pricing struct {
	Rates   map[string]Rate `yaml:"models"`
	Default Rate            `yaml:"default"`
}

// DefaultPricing is the built-in table used when no pricing file is configured.
func DefaultPricing() Pricing {
	return Pricing{
		Rates: map[string]Rate{
			"gpt-4o-mini":      {InputPerMTok: 0.15, OutputPerMTok: 0.60},
			"gpt-4o":           {InputPerMTok: 2.50, OutputPerMTok: 10.00},
			"gpt-4.1-mini":     {InputPerMTok: 0.40, OutputPerMTok: 1.60},
			"gpt-4.1":          {InputPerMTok: 2.00, OutputPerMTok: 8.00},
			"claude-3-5-haiku": {InputPerMTok: 0.80, OutputPerMTok: 4.00},
			"claude-haiku-4-5": {InputPerMTok: 1.00, OutputPerMTok: 5.00},
			"claude-sonnet-4":  {InputPerMTok: 3.00, OutputPerMTok: 15.00},
			"gemini-2.0-flash": {InputPerMTok: 0.10, OutputPerMTok: 0.40},
			"gemini-2.5-flash": {InputPerMTok: 0.30, OutputPerMTok: 2.50},
			"gemini-2.5-pro":   {InputPerMTok: 1.25, OutputPerMTok: 10.00},
		},
		Default: Rate{InputPerMTok: 1.00, OutputPerMTok: 4.00},
	}
}

// LoadPricing reads a YAML pricing file and layers it over DefaultPricing.
func LoadPricing(path string) (Pricing, error) {
	p := DefaultPricing()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read pricing file: %w", err)
	}
	var override Pricing
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return p, fmt.Errorf("parse pricing file: %w", err)
	}
	for model, rate := range override.Rates {
		p.Rates[strings.ToLower(model)] = rate
	}
	if override.Default != (Rate{}) {
		p.Default = override.Default
	}
	return p, nil
}

// EstimateTokens approximates a token count as characters / 4, rounded up.
func EstimateTokens(chars int) int {
	if chars <= 0 {
		return 0
	}
	return (chars + 3) / 4
}

// RateFor picks the exact model entry, else the longest matching prefix, else Default.
func (p Pricing) RateFor(model string) Rate {
	m := strings.ToLower(strings.TrimSpace(model))
	if r, ok := p.Rates[m]; ok {
		return r
	}
	best := ""
	for name := range p.Rates {
		if strings.HasPrefix(m, name) && len(name) > len(best) {
			best = name
		}
	}
	if best != "" {
		return p.Rates[best]
	}
	return p.Default
}

// Estimate returns (total tokens, USD cost) for a call.
func (p Pricing) Estimate(model string, promptChars, responseChars int) (int, float64) {
	in := EstimateTokens(promptChars)
	out := EstimateTokens(responseChars)
	r := p.RateFor(model)
	cost := (float64(in)*r.InputPerMTok + float64(out)*r.OutputPerMTok) / 1e6
	return in + out, math.Round(cost*1e6) / 1e6
}
