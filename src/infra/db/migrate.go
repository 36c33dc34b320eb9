package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// MigratePostgres applies pending migrations to the Postgres database.
func MigratePostgres(ctx context.Context, pg *Postgres, log *slog.Logger) error {
	sqlDB := pg.StdDB()
	defer sqlDB.Close()
	return migrate(ctx, goose.DialectPostgres, sqlDB, "migrations/postgres", log)
}

// MigrateSQLite applies pending migrations to the SQLite database.
func MigrateSQLite(ctx context.Context, lite *SQLite, log *slog.Logger) error {
	return migrate(ctx, goose.DialectSQLite3, lite.DB, "migrations/sqlite", log)
}

func migrate(ctx context.Context, dialect goose.Dialect, sqlDB *sql.DB, dir string, log *slog.Logger) error {
	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	for _, r := range results {
		log.Info("migration applied",
			"version", r.Source.Version,
			"duration", r.Duration,
		)
	}
	return nil
}
