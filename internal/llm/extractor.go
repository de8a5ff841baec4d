package llm

import (
	"context"
	"fmt"
	"time"

	"filing-backend/internal/fields"
	"filing-backend/internal/shared/apperr"
	"filing-backend/internal/shared/metrics"
	"filing-backend/internal/shared/telemetry"
)

// Extractor asks a model for the candidate field map of one document.
type Extractor struct {
	Generator Generator
	Provider  string
	Model     string
	MaxChars  int
	Pricing   Pricing
	Now       func() time.Time
}

// Enabled reports whether a generator is wired.
func (e *Extractor) Enabled() bool {
	return e != nil && e.Generator != nil
}

// Extract builds the prompt for t, calls the model once and returns the
// completed candidate map. Every call, failed or not, is logged and handed to rec.
func (e *Extractor) Extract(ctx context.Context, t fields.DocType, text string, rec Recorder) (fields.Map, error) {
	if !e.Enabled() {
		return nil, ErrNotConfigured
	}
	prompt, ok := BuildPrompt(t, Truncate(text, e.MaxChars))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}

	start := e.now()
	resp, err := e.Generator.Generate(ctx, prompt)
	call := e.logCall(t, prompt, resp, start, err)
	if rec != nil {
		rec.Record(call)
	}
	if err != nil {
		return nil, apperr.Extraction("llm.generate", err)
	}

	obj, err := ParseJSONObject(resp)
	if err != nil {
		return nil, err
	}
	if err := ValidateResponse(t, obj); err != nil {
		return nil, err
	}
	return fields.Complete(t, fields.Map(obj), text), nil
}

func (e *Extractor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Extractor) pricing() Pricing {
	if e.Pricing.Rates == nil {
		return DefaultPricing()
	}
	return e.Pricing
}

func (e *Extractor) logCall(t fields.DocType, prompt, resp string, start time.Time, err error) CallLog {
	tokens, cost := e.pricing().Estimate(e.Model, len([]rune(prompt)), len([]rune(resp)))
	call := CallLog{
		DocType:       string(t),
		Provider:      e.Provider,
		Model:         e.Model,
		PromptChars:   len([]rune(prompt)),
		ResponseChars: len([]rune(resp)),
		EstTokens:     tokens,
		EstCostUSD:    cost,
		Duration:      e.now().Sub(start),
		At:            start,
	}
	logFields := map[string]any{
		"doc_type":     call.DocType,
		"provider":     call.Provider,
		"model":        call.Model,
		"prompt_chars": call.PromptChars,
		"resp_chars":   call.ResponseChars,
		"est_tokens":   call.EstTokens,
		"est_cost_usd": call.EstCostUSD,
		"duration_ms":  call.Duration.Milliseconds(),
	}
	if err != nil {
		call.Err = err.Error()
		logFields["err"] = err
		telemetry.Warn("llm.extract.call", logFields)
	} else {
		telemetry.Info("llm.extract.call", logFields)
	}
	metrics.IncLLMCall(err != nil)
	return call
}
