package canonical

import "context"

// Writer is the set of canonical writes a migration performs.
type Writer interface {
	// UpsertSingleton creates the row for key or overwrites the given columns.
	UpsertSingleton(ctx context.Context, t Table, key Key, values Values) error
	// ReplaceCollection deletes every row of scope and inserts rows in order.
	ReplaceCollection(ctx context.Context, t Table, scope Key, rows []Values) error
	CountChildren(ctx context.Context, userID string) (int, error)
	// ClearUser deletes the user's rows from every canonical table.
	ClearUser(ctx context.Context, userID string) error
	// Isolated runs fn so that its writes are kept only if it returns nil.
	Isolated(ctx context.Context, name string, fn func(Writer) error) error
}

// Repo persists canonical tables.
type Repo interface {
	Writer
	// Stage runs fn against a private copy of the tables and publishes it
	// atomically when fn returns nil.
	Stage(ctx context.Context, fn func(Writer) error) error
	Profile(ctx context.Context, userID string) (Profile, error)
}
