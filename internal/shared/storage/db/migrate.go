package db

import (
	"context"
	"embed"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// goose keeps its dialect and filesystem in package state.
var gooseMu sync.Mutex

func withGoose(database *sqlx.DB, fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect(Dialect(database)); err != nil {
		return err
	}
	return fn()
}

// RunMigrations applies embedded SQL migrations via goose. If database is nil, it's a no-op.
// The migration files are written to run unchanged on Postgres and SQLite.
func RunMigrations(ctx context.Context, database *sqlx.DB) error {
	if database == nil {
		return nil
	}
	return withGoose(database, func() error {
		return goose.UpContext(ctx, database.DB, "migrations")
	})
}

// MigrationVersion reports the latest applied migration.
func MigrationVersion(ctx context.Context, database *sqlx.DB) (int64, error) {
	var version int64
	err := withGoose(database, func() error {
		v, err := goose.GetDBVersionContext(ctx, database.DB)
		version = v
		return err
	})
	return version, err
}
