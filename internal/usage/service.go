package usage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"filing-backend/internal/llm"
	"filing-backend/internal/shared/telemetry"
)

type store interface {
	Insert(ctx context.Context, calls []Call) error
	Summary(ctx context.Context, userID string) (Summary, error)
	Recent(ctx context.Context, userID string, limit int) ([]Call, error)
}

// Service manages the LLM call ledger via an underlying store.
type Service struct {
	store store
}

// NewService constructs a Service with in-memory store.
func NewService() *Service {
	return &Service{store: newMemoryStore()}
}

// NewSQLService constructs a Service backed by a SQL store.
func NewSQLService(sqlStore store) *Service {
	return &Service{store: sqlStore}
}

// Begin opens a session that collects the calls of one pipeline run.
func (s *Service) Begin(userID string) *Session {
	return &Session{svc: s, userID: userID}
}

// Summary returns the user's totals.
func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	return s.store.Summary(ctx, userID)
}

// Recent returns the user's latest calls, newest first.
func (s *Service) Recent(ctx context.Context, userID string, limit int) ([]Call, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.Recent(ctx, userID, limit)
}

// Session implements llm.Recorder for a single pipeline run. Calls are held
// in memory until Close persists them.
type Session struct {
	svc        *Service
	userID     string
	mu         sync.Mutex
	documentID string
	calls      []llm.CallLog
	closed     bool
}

// SetDocument tags subsequent persisted calls with a document id.
func (s *Session) SetDocument(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documentID = documentID
}

// Record implements llm.Recorder.
func (s *Session) Record(call llm.CallLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

// Calls returns a copy of the collected calls.
func (s *Session) Calls() []llm.CallLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.CallLog(nil), s.calls...)
}

// Close persists the collected calls. A session with no calls writes nothing.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.closed = true
	calls := s.calls
	docID := s.documentID
	s.mu.Unlock()

	if len(calls) == 0 || s.svc == nil {
		return nil
	}
	rows := make([]Call, 0, len(calls))
	for _, c := range calls {
		rows = append(rows, toCall(s.userID, docID, c))
	}
	if err := s.svc.store.Insert(ctx, rows); err != nil {
		telemetry.Error("usage.session.persist_failed", map[string]any{
			"user_id": s.userID,
			"calls":   len(rows),
			"error":   err.Error(),
		})
		return err
	}
	return nil
}

func toCall(userID, documentID string, c llm.CallLog) Call {
	out := Call{
		ID:            uuid.NewString(),
		UserID:        userID,
		DocType:       c.DocType,
		Provider:      c.Provider,
		Model:         c.Model,
		PromptChars:   c.PromptChars,
		ResponseChars: c.ResponseChars,
		EstTokens:     c.EstTokens,
		EstCostUSD:    c.EstCostUSD,
		DurationMs:    c.Duration.Milliseconds(),
		CreatedAt:     c.At.UTC(),
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	if documentID != "" {
		out.DocumentID = &documentID
	}
	if c.Err != "" {
		msg := c.Err
		out.Error = &msg
	}
	return out
}

var _ llm.Recorder = (*Session)(nil)
