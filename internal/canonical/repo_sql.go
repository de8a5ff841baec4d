package canonical

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

// SQLRepo implements Repo on Postgres or SQLite through sqlx.
type SQLRepo struct {
	DB *sqlx.DB
}

// NewSQLRepo constructs a SQLRepo.
func NewSQLRepo(db *sqlx.DB) *SQLRepo {
	return &SQLRepo{DB: db}
}

type sqlWriter struct {
	ext       sqlx.ExtContext
	savepoint *int
}

func (r *SQLRepo) direct() *sqlWriter {
	return &sqlWriter{ext: r.DB}
}

func (r *SQLRepo) UpsertSingleton(ctx context.Context, t Table, key Key, values Values) error {
	return r.direct().UpsertSingleton(ctx, t, key, values)
}

// ReplaceCollection runs the delete and inserts in their own transaction.
func (r *SQLRepo) ReplaceCollection(ctx context.Context, t Table, scope Key, rows []Values) error {
	return r.Stage(ctx, func(w Writer) error {
		return w.ReplaceCollection(ctx, t, scope, rows)
	})
}

func (r *SQLRepo) CountChildren(ctx context.Context, userID string) (int, error) {
	return r.direct().CountChildren(ctx, userID)
}

func (r *SQLRepo) ClearUser(ctx context.Context, userID string) error {
	return r.Stage(ctx, func(w Writer) error {
		return w.ClearUser(ctx, userID)
	})
}

// Isolated runs fn in its own transaction.
func (r *SQLRepo) Isolated(ctx context.Context, name string, fn func(Writer) error) error {
	return r.Stage(ctx, fn)
}

// Stage runs fn in one transaction, committed only when fn returns nil.
func (r *SQLRepo) Stage(ctx context.Context, fn func(Writer) error) (err error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	seq := 0
	if err = fn(&sqlWriter{ext: tx, savepoint: &seq}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Isolated wraps fn in a savepoint of the enclosing transaction.
func (w *sqlWriter) Isolated(ctx context.Context, name string, fn func(Writer) error) error {
	if w.savepoint == nil {
		return errors.New("isolated writes need a transaction")
	}
	*w.savepoint++
	sp := fmt.Sprintf("sp_%d", *w.savepoint)
	if _, err := w.ext.ExecContext(ctx, "SAVEPOINT "+sp); err != nil {
		return fmt.Errorf("savepoint %s: %w", name, err)
	}
	if err := fn(w); err != nil {
		if _, rbErr := w.ext.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+sp); rbErr != nil {
			return fmt.Errorf("%w (rollback %s: %v)", err, name, rbErr)
		}
		_, _ = w.ext.ExecContext(ctx, "RELEASE SAVEPOINT "+sp)
		return err
	}
	if _, err := w.ext.ExecContext(ctx, "RELEASE SAVEPOINT "+sp); err != nil {
		return fmt.Errorf("release %s: %w", name, err)
	}
	return nil
}

func keyColumns(def tableDef) []string {
	if def.SpouseScoped {
		return []string{"user_id", "spouse_number"}
	}
	return []string{"user_id"}
}

func keyArgs(def tableDef, k Key) []any {
	if def.SpouseScoped {
		return []any{k.UserID, k.SpouseNumber}
	}
	return []any{k.UserID}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (w *sqlWriter) UpsertSingleton(ctx context.Context, t Table, key Key, values Values) error {
	def, err := lookupTable(t)
	if err != nil {
		return err
	}
	if def.Collection {
		return fmt.Errorf("%s is a collection", t)
	}
	if err := checkColumns(t, def, values); err != nil {
		return err
	}
	key = def.scope(key)

	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	keys := keyColumns(def)
	args := keyArgs(def, key)
	for _, col := range cols {
		args = append(args, values[col])
	}
	all := append(append([]string{}, keys...), cols...)

	conflict := "DO NOTHING"
	if len(cols) > 0 {
		sets := make([]string, len(cols))
		for i, col := range cols {
			sets[i] = col + " = excluded." + col
		}
		conflict = "DO UPDATE SET " + strings.Join(sets, ", ")
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		t, strings.Join(all, ", "), placeholders(len(all)), strings.Join(keys, ", "), conflict)

	if _, err := w.ext.ExecContext(ctx, w.ext.Rebind(query), args...); err != nil {
		return fmt.Errorf("upsert %s: %w", t, err)
	}
	return nil
}

func (w *sqlWriter) ReplaceCollection(ctx context.Context, t Table, scope Key, rows []Values) error {
	def, err := lookupTable(t)
	if err != nil {
		return err
	}
	if !def.Collection {
		return fmt.Errorf("%s is not a collection", t)
	}
	scope = def.scope(scope)
	keys := keyColumns(def)

	where := make([]string, len(keys))
	for i, k := range keys {
		where[i] = k + " = ?"
	}
	del := fmt.Sprintf("DELETE FROM %s WHERE %s", t, strings.Join(where, " AND "))
	if _, err := w.ext.ExecContext(ctx, w.ext.Rebind(del), keyArgs(def, scope)...); err != nil {
		return fmt.Errorf("delete %s: %w", t, err)
	}

	cols := append(append([]string{"id"}, keys...), "position")
	cols = append(cols, def.Columns...)
	insert := w.ext.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t, strings.Join(cols, ", "), placeholders(len(cols))))
	for i, v := range rows {
		if err := checkColumns(t, def, v); err != nil {
			return err
		}
		args := append([]any{rowID(t, scope, i)}, keyArgs(def, scope)...)
		args = append(args, i)
		for _, col := range def.Columns {
			args = append(args, v[col])
		}
		if _, err := w.ext.ExecContext(ctx, insert, args...); err != nil {
			return fmt.Errorf("insert %s: %w", t, err)
		}
	}
	return nil
}

func (w *sqlWriter) CountChildren(ctx context.Context, userID string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, w.ext, &n, w.ext.Rebind("SELECT COUNT(*) FROM children WHERE user_id = ?"), userID)
	if err != nil {
		return 0, fmt.Errorf("count children: %w", err)
	}
	return n, nil
}

func (w *sqlWriter) ClearUser(ctx context.Context, userID string) error {
	for _, t := range Tables {
		if _, err := w.ext.ExecContext(ctx, w.ext.Rebind(fmt.Sprintf("DELETE FROM %s WHERE user_id = ?", t)), userID); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}
	return nil
}

// Profile reads every canonical table for the user.
func (r *SQLRepo) Profile(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	var err error
	if p.PersonalInfo, err = getOne[PersonalInfo](ctx, r.DB, TablePersonal, userID); err != nil {
		return Profile{}, err
	}
	if p.SpouseInfo, err = getOne[SpouseInfo](ctx, r.DB, TableSpouse, userID); err != nil {
		return Profile{}, err
	}
	if p.MarriageInfo, err = getOne[MarriageInfo](ctx, r.DB, TableMarriage, userID); err != nil {
		return Profile{}, err
	}
	if p.CourtInfo, err = getOne[CourtInfo](ctx, r.DB, TableCourt, userID); err != nil {
		return Profile{}, err
	}
	if err := selectAll(ctx, r.DB, &p.Incomes, TableIncome, userID, "spouse_number"); err != nil {
		return Profile{}, err
	}
	if err := selectAll(ctx, r.DB, &p.Expenses, TableExpense, userID, "spouse_number"); err != nil {
		return Profile{}, err
	}
	if err := selectAll(ctx, r.DB, &p.Children, TableChildren, userID, "position"); err != nil {
		return Profile{}, err
	}
	if err := selectAll(ctx, r.DB, &p.Employers, TableEmployers, userID, "spouse_number, position"); err != nil {
		return Profile{}, err
	}
	if err := selectAll(ctx, r.DB, &p.Assets, TableAssets, userID, "position"); err != nil {
		return Profile{}, err
	}
	if err := selectAll(ctx, r.DB, &p.Debts, TableDebts, userID, "position"); err != nil {
		return Profile{}, err
	}
	p.normalize()
	return p, nil
}

func getOne[T any](ctx context.Context, db *sqlx.DB, t Table, userID string) (*T, error) {
	var row T
	err := db.GetContext(ctx, &row, db.Rebind(fmt.Sprintf("SELECT * FROM %s WHERE user_id = ?", t)), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t, err)
	}
	return &row, nil
}

func selectAll(ctx context.Context, db *sqlx.DB, dest any, t Table, userID, orderBy string) error {
	query := db.Rebind(fmt.Sprintf("SELECT * FROM %s WHERE user_id = ? ORDER BY %s", t, orderBy))
	if err := db.SelectContext(ctx, dest, query, userID); err != nil {
		return fmt.Errorf("select %s: %w", t, err)
	}
	return nil
}
