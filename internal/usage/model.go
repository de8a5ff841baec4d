package usage

import "time"

// Call is one persisted model call.
type Call struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"-"`
	DocumentID    *string   `db:"document_id" json:"documentId,omitempty"`
	DocType       string    `db:"doc_type" json:"documentType"`
	Provider      string    `db:"provider" json:"provider"`
	Model         string    `db:"model" json:"model"`
	PromptChars   int       `db:"prompt_chars" json:"promptChars"`
	ResponseChars int       `db:"response_chars" json:"responseChars"`
	EstTokens     int       `db:"est_tokens" json:"estTokens"`
	EstCostUSD    float64   `db:"est_cost_usd" json:"estCostUsd"`
	DurationMs    int64     `db:"duration_ms" json:"durationMs"`
	Error         *string   `db:"error" json:"error,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// ModelSummary aggregates calls for one provider/model pair.
type ModelSummary struct {
	Provider   string  `db:"provider" json:"provider"`
	Model      string  `db:"model" json:"model"`
	Calls      int     `db:"calls" json:"calls"`
	Failed     int     `db:"failed" json:"failed"`
	EstTokens  int     `db:"est_tokens" json:"estTokens"`
	EstCostUSD float64 `db:"est_cost_usd" json:"estCostUsd"`
}

// Summary is a user's LLM usage to date.
type Summary struct {
	Calls      int            `json:"calls"`
	Failed     int            `json:"failed"`
	EstTokens  int            `json:"estTokens"`
	EstCostUSD float64        `json:"estCostUsd"`
	ByModel    []ModelSummary `json:"byModel"`
}

func summarize(byModel []ModelSummary) Summary {
	s := Summary{ByModel: byModel}
	if s.ByModel == nil {
		s.ByModel = []ModelSummary{}
	}
	for _, m := range s.ByModel {
		s.Calls += m.Calls
		s.Failed += m.Failed
		s.EstTokens += m.EstTokens
		s.EstCostUSD += m.EstCostUSD
	}
	return s
}
