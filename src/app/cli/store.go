package cli

import (
	"context"
	"fmt"
	"log/slog"

	"qnadonate/src/core/ports"
	"qnadonate/src/infra/config"
	"qnadonate/src/infra/db"
	"qnadonate/src/infra/idgen"
	"qnadonate/src/infra/repo"
)

// OpenedStore is a QAStore together with the connection that backs it.
type OpenedStore struct {
	Store ports.QAStore
	close func()
}

// Close releases the backing connection. It is safe on the memory backend.
func (s *OpenedStore) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStore builds the store selected by cfg.Store.Backend. When migrate is
// set, SQL backends are brought to the latest schema before use.
func OpenStore(ctx context.Context, cfg *config.Config, log *slog.Logger, migrate bool) (*OpenedStore, error) {
	ids, err := idgen.New(cfg.Store)
	if err != nil {
		return nil, err
	}

	switch cfg.Store.Backend {
	case config.BackendMemory:
		return &OpenedStore{Store: repo.NewMemoryRepository(ids, log)}, nil

	case config.BackendPostgres:
		pg, err := db.New(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := db.MigratePostgres(ctx, pg, log); err != nil {
				pg.Close()
				return nil, err
			}
		}
		return &OpenedStore{Store: repo.NewPostgresRepository(pg, ids, log), close: pg.Close}, nil

	case config.BackendSQLite:
		lite, err := db.OpenSQLite(ctx, cfg.Store.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := db.MigrateSQLite(ctx, lite, log); err != nil {
				_ = lite.Close()
				return nil, err
			}
		}
		return &OpenedStore{
			Store: repo.NewSQLiteRepository(lite, ids, log),
			close: func() { _ = lite.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
