package usage

import (
	"context"
	"sort"
	"sync"
)

type memoryStore struct {
	mu    sync.RWMutex
	calls map[string][]Call // userId -> calls
}

func newMemoryStore() *memoryStore {
	return &memoryStore{calls: make(map[string][]Call)}
}

func (s *memoryStore) Insert(ctx context.Context, calls []Call) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range calls {
		s.calls[c.UserID] = append(s.calls[c.UserID], c)
	}
	return nil
}

func (s *memoryStore) Summary(ctx context.Context, userID string) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := map[[2]string]int{}
	var byModel []ModelSummary
	for _, c := range s.calls[userID] {
		key := [2]string{c.Provider, c.Model}
		i, ok := index[key]
		if !ok {
			i = len(byModel)
			index[key] = i
			byModel = append(byModel, ModelSummary{Provider: c.Provider, Model: c.Model})
		}
		m := &byModel[i]
		m.Calls++
		if c.Error != nil {
			m.Failed++
		}
		m.EstTokens += c.EstTokens
		m.EstCostUSD += c.EstCostUSD
	}
	sort.Slice(byModel, func(i, j int) bool {
		if byModel[i].Provider == byModel[j].Provider {
			return byModel[i].Model < byModel[j].Model
		}
		return byModel[i].Provider < byModel[j].Provider
	})
	return summarize(byModel), nil
}

func (s *memoryStore) Recent(ctx context.Context, userID string, limit int) ([]Call, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	calls := append([]Call(nil), s.calls[userID]...)
	s.mu.RUnlock()

	sort.SliceStable(calls, func(i, j int) bool {
		return calls[i].CreatedAt.After(calls[j].CreatedAt)
	})
	if len(calls) > limit {
		calls = calls[:limit]
	}
	if calls == nil {
		calls = []Call{}
	}
	return calls, nil
}
