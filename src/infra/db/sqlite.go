package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite wraps a database/sql handle on a SQLite file.
type SQLite struct {
	DB   *sql.DB
	path string
	log  *slog.Logger
}

// OpenSQLite creates or opens the SQLite database at path.
//
// The handle is configured with:
//   - WAL journal for concurrent readers
//   - a 5-second busy timeout
//   - foreign key enforcement
//   - a single connection, so every transaction is serialized
func OpenSQLite(ctx context.Context, path string, log *slog.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	log.Info("sqlite database opened", "path", path)

	return &SQLite{DB: db, path: path, log: log}, nil
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	if s.DB == nil {
		return nil
	}
	err := s.DB.Close()
	s.log.Info("sqlite database closed", "path", s.path)
	return err
}

// Health checks if the database is reachable.
func (s *SQLite) Health(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}
