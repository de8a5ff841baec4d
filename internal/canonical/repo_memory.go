package canonical

import (
	"context"
	"sort"
	"sync"
)

type memState struct {
	singletons  map[Table]map[Key]Values
	collections map[Table]map[Key][]Values
}

func newMemState() *memState {
	return &memState{
		singletons:  map[Table]map[Key]Values{},
		collections: map[Table]map[Key][]Values{},
	}
}

func (s *memState) clone() *memState {
	out := newMemState()
	for t, rows := range s.singletons {
		m := make(map[Key]Values, len(rows))
		for k, v := range rows {
			m[k] = copyValues(v)
		}
		out.singletons[t] = m
	}
	for t, scopes := range s.collections {
		m := make(map[Key][]Values, len(scopes))
		for k, rows := range scopes {
			cp := make([]Values, len(rows))
			for i, v := range rows {
				cp[i] = copyValues(v)
			}
			m[k] = cp
		}
		out.collections[t] = m
	}
	return out
}

func copyValues(v Values) Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu    sync.Mutex
	state *memState

	// fault lets tests fail a write; nil in production.
	fault func(op string, t Table) error
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{state: newMemState()}
}

func (r *MemoryRepo) writer(s *memState) *memWriter {
	return &memWriter{state: s, fault: r.fault}
}

func (r *MemoryRepo) UpsertSingleton(ctx context.Context, t Table, key Key, values Values) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer(r.state).UpsertSingleton(ctx, t, key, values)
}

func (r *MemoryRepo) ReplaceCollection(ctx context.Context, t Table, scope Key, rows []Values) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer(r.state).ReplaceCollection(ctx, t, scope, rows)
}

func (r *MemoryRepo) CountChildren(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer(r.state).CountChildren(ctx, userID)
}

func (r *MemoryRepo) ClearUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer(r.state).ClearUser(ctx, userID)
}

// Isolated runs fn on a copy of the tables and keeps it only on success.
func (r *MemoryRepo) Isolated(ctx context.Context, name string, fn func(Writer) error) error {
	return r.Stage(ctx, fn)
}

// Stage holds the repository lock while fn runs against a copy of the tables.
func (r *MemoryRepo) Stage(ctx context.Context, fn func(Writer) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	work := r.state.clone()
	if err := fn(r.writer(work)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.state = work
	return nil
}

// Profile assembles the user's snapshot.
func (r *MemoryRepo) Profile(ctx context.Context, userID string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.state
	user := Key{UserID: userID}

	var p Profile
	if v, ok := s.singletons[TablePersonal][user]; ok {
		p.PersonalInfo = &PersonalInfo{}
		fill(p.PersonalInfo, v)
	}
	if v, ok := s.singletons[TableSpouse][user]; ok {
		p.SpouseInfo = &SpouseInfo{}
		fill(p.SpouseInfo, v)
	}
	if v, ok := s.singletons[TableMarriage][user]; ok {
		p.MarriageInfo = &MarriageInfo{}
		fill(p.MarriageInfo, v)
	}
	if v, ok := s.singletons[TableCourt][user]; ok {
		p.CourtInfo = &CourtInfo{}
		fill(p.CourtInfo, v)
	}
	for _, v := range userRows(s.singletons[TableIncome], userID) {
		var row Income
		fill(&row, v)
		p.Incomes = append(p.Incomes, row)
	}
	for _, v := range userRows(s.singletons[TableExpense], userID) {
		var row Expense
		fill(&row, v)
		p.Expenses = append(p.Expenses, row)
	}
	for _, v := range collectionRows(s.collections[TableChildren], userID) {
		var row Child
		fill(&row, v)
		p.Children = append(p.Children, row)
	}
	for _, v := range collectionRows(s.collections[TableEmployers], userID) {
		var row Employer
		fill(&row, v)
		p.Employers = append(p.Employers, row)
	}
	for _, v := range collectionRows(s.collections[TableAssets], userID) {
		var row Asset
		fill(&row, v)
		p.Assets = append(p.Assets, row)
	}
	for _, v := range collectionRows(s.collections[TableDebts], userID) {
		var row Debt
		fill(&row, v)
		p.Debts = append(p.Debts, row)
	}
	p.normalize()
	return p, nil
}

// userRows returns the user's spouse-scoped rows ordered by spouse number.
func userRows(rows map[Key]Values, userID string) []Values {
	keys := make([]Key, 0, 2)
	for k := range rows {
		if k.UserID == userID {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].SpouseNumber < keys[j].SpouseNumber })
	out := make([]Values, 0, len(keys))
	for _, k := range keys {
		out = append(out, rows[k])
	}
	return out
}

func collectionRows(scopes map[Key][]Values, userID string) []Values {
	keys := make([]Key, 0, 2)
	for k := range scopes {
		if k.UserID == userID {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].SpouseNumber < keys[j].SpouseNumber })
	var out []Values
	for _, k := range keys {
		out = append(out, scopes[k]...)
	}
	return out
}

type memWriter struct {
	state *memState
	fault func(op string, t Table) error
}

func (w *memWriter) check(ctx context.Context, op string, t Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.fault != nil {
		return w.fault(op, t)
	}
	return nil
}

func (w *memWriter) UpsertSingleton(ctx context.Context, t Table, key Key, values Values) error {
	def, err := lookupTable(t)
	if err != nil {
		return err
	}
	if err := checkColumns(t, def, values); err != nil {
		return err
	}
	if err := w.check(ctx, "upsert", t); err != nil {
		return err
	}
	key = def.scope(key)
	rows := w.state.singletons[t]
	if rows == nil {
		rows = map[Key]Values{}
		w.state.singletons[t] = rows
	}
	row, ok := rows[key]
	if !ok {
		row = Values{"user_id": key.UserID}
		if def.SpouseScoped {
			row["spouse_number"] = key.SpouseNumber
		}
		rows[key] = row
	}
	for col, v := range values {
		row[col] = v
	}
	return nil
}

func (w *memWriter) ReplaceCollection(ctx context.Context, t Table, scope Key, rows []Values) error {
	def, err := lookupTable(t)
	if err != nil {
		return err
	}
	if err := w.check(ctx, "replace", t); err != nil {
		return err
	}
	scope = def.scope(scope)
	stored := make([]Values, 0, len(rows))
	for i, v := range rows {
		if err := checkColumns(t, def, v); err != nil {
			return err
		}
		row := copyValues(v)
		row["id"] = rowID(t, scope, i)
		row["user_id"] = scope.UserID
		row["position"] = i
		if def.SpouseScoped {
			row["spouse_number"] = scope.SpouseNumber
		}
		stored = append(stored, row)
	}
	scopes := w.state.collections[t]
	if scopes == nil {
		scopes = map[Key][]Values{}
		w.state.collections[t] = scopes
	}
	if len(stored) == 0 {
		delete(scopes, scope)
		return nil
	}
	scopes[scope] = stored
	return nil
}

func (w *memWriter) CountChildren(ctx context.Context, userID string) (int, error) {
	if err := w.check(ctx, "count", TableChildren); err != nil {
		return 0, err
	}
	return len(w.state.collections[TableChildren][Key{UserID: userID}]), nil
}

func (w *memWriter) ClearUser(ctx context.Context, userID string) error {
	if err := w.check(ctx, "clear", ""); err != nil {
		return err
	}
	for _, rows := range w.state.singletons {
		for k := range rows {
			if k.UserID == userID {
				delete(rows, k)
			}
		}
	}
	for _, scopes := range w.state.collections {
		for k := range scopes {
			if k.UserID == userID {
				delete(scopes, k)
			}
		}
	}
	return nil
}

// Isolated runs fn against a copy of the working state and merges it back on success.
func (w *memWriter) Isolated(ctx context.Context, name string, fn func(Writer) error) error {
	work := &memWriter{state: w.state.clone(), fault: w.fault}
	if err := fn(work); err != nil {
		return err
	}
	*w.state = *work.state
	return nil
}
