// Package db provides database connection and schema management.
//
// This package is responsible for:
//   - PostgreSQL connection pool initialization (pgx)
//   - SQLite database handle initialization (mattn/go-sqlite3)
//   - Connection health checks
//   - Schema migrations (goose, one embedded migration set per dialect)
//
// Example usage:
//
//	pg, err := db.New(ctx, cfg.Database, log)
//	if err != nil {
//	    return err
//	}
//	defer pg.Close()
//	if err := db.MigratePostgres(ctx, pg, log); err != nil {
//	    return err
//	}
package db
