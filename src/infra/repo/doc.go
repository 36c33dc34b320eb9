// Package repo contains the QAStore adapters defined in src/core/ports.
//
//   - MemoryRepository: in-process tables, staged writes committed under one mutex
//   - PostgresRepository: pgx pool, one pgx.Tx per mutating call
//   - SQLiteRepository: database/sql over mattn/go-sqlite3, one sql.Tx per call
//
// All adapters receive their IDGenerator and logger via constructor injection.
// Index buckets are first-class rows (or map entries) so a missing bucket is
// detectable and reported as an invariant violation rather than recreated.
package repo

import (
	"log/slog"

	"qnadonate/src/core/domain"
	"qnadonate/src/infra/logger"
)

// logDanglingEntry reports an index member with no backing row. Listing
// skips such members instead of failing.
func logDanglingEntry(log *slog.Logger, index domain.IndexKind, ownerID, memberID string) {
	logger.Warn(log, "index entry has no backing row",
		"index", string(index),
		"owner_id", ownerID,
		"member_id", memberID,
	)
}
