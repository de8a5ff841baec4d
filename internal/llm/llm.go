package llm

import (
	"context"
	"errors"
	"time"
)

// Generator is the only contract a model provider has to meet: text in, text out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var (
	// ErrNotConfigured is returned when no provider is wired.
	ErrNotConfigured = errors.New("llm provider not configured")
	// ErrUnsupportedType is returned for document types without a prompt template.
	ErrUnsupportedType = errors.New("document type not supported by llm extraction")
)

// CallLog describes one model call for cost monitoring.
type CallLog struct {
	DocType       string
	Provider      string
	Model         string
	PromptChars   int
	ResponseChars int
	EstTokens     int
	EstCostUSD    float64
	Duration      time.Duration
	Err           string
	At            time.Time
}

// Recorder collects call logs; usage sessions implement it.
type Recorder interface {
	Record(call CallLog)
}
