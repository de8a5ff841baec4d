package usage

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type sqlStore struct {
	DB *sqlx.DB
}

// NewSQLStore constructs a SQL-backed usage store.
func NewSQLStore(db *sqlx.DB) *sqlStore {
	return &sqlStore{DB: db}
}

func (s *sqlStore) Insert(ctx context.Context, calls []Call) (err error) {
	if len(calls) == 0 {
		return nil
	}
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	const query = `
INSERT INTO llm_calls (id, user_id, document_id, doc_type, provider, model, prompt_chars, response_chars, est_tokens, est_cost_usd, duration_ms, error, created_at)
VALUES (:id, :user_id, :document_id, :doc_type, :provider, :model, :prompt_chars, :response_chars, :est_tokens, :est_cost_usd, :duration_ms, :error, :created_at)`
	for _, c := range calls {
		if _, err = tx.NamedExecContext(ctx, query, c); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqlStore) Summary(ctx context.Context, userID string) (Summary, error) {
	query := s.DB.Rebind(`
SELECT provider, model,
       COUNT(*) AS calls,
       SUM(CASE WHEN error IS NULL THEN 0 ELSE 1 END) AS failed,
       SUM(est_tokens) AS est_tokens,
       SUM(est_cost_usd) AS est_cost_usd
FROM llm_calls
WHERE user_id = ?
GROUP BY provider, model
ORDER BY provider, model`)
	var byModel []ModelSummary
	if err := s.DB.SelectContext(ctx, &byModel, query, userID); err != nil {
		return Summary{}, err
	}
	return summarize(byModel), nil
}

func (s *sqlStore) Recent(ctx context.Context, userID string, limit int) ([]Call, error) {
	query := s.DB.Rebind(`
SELECT id, user_id, document_id, doc_type, provider, model, prompt_chars, response_chars, est_tokens, est_cost_usd, duration_ms, error, created_at
FROM llm_calls
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`)
	out := []Call{}
	if err := s.DB.SelectContext(ctx, &out, query, userID, limit); err != nil {
		return nil, err
	}
	return out, nil
}
