package main

// Run database migrations:
//   go run ./cmd/migrate
//   DB_DRIVER=sqlite SQLITE_PATH=./data/filing.db go run ./cmd/migrate

import (
	"context"
	"log"
	"os"

	"filing-backend/internal/shared/config"
	"filing-backend/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	dsn := cfg.DatabaseURL
	if cfg.DBDriver == db.DriverSQLite {
		dsn = cfg.SQLitePath
	}

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Open(ctx, cfg.DBDriver, dsn, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		log.Printf("failed to run migrations: %v", err)
		os.Exit(1)
	}
	version, err := db.MigrationVersion(ctx, sqlDB)
	if err != nil {
		log.Printf("failed to read migration version: %v", err)
		os.Exit(1)
	}
	log.Printf("migrations applied (%s), schema version %d", cfg.DBDriver, version)
}
