package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
	"github.com/odyssey-erp/odyssey-pos/internal/store/memory"
	"github.com/odyssey-erp/odyssey-pos/internal/store/postgres"
	"github.com/odyssey-erp/odyssey-pos/internal/store/sqlite"
)

// OpenStore opens the backend named by STORE_DRIVER. The pool is non-nil only for postgres,
// where it also backs audit logs and idempotency keys.
func OpenStore(ctx context.Context, cfg *Config) (store.Store, *pgxpool.Pool, error) {
	switch cfg.StoreDriver {
	case StoreMemory:
		return memory.New(), nil, nil
	case StoreSQLite:
		st, err := sqlite.Open(ctx, cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, err
		}
		return st, nil, nil
	case StorePostgres:
		pool, err := db.New(ctx, db.Options{DSN: cfg.PGDSN, MaxConns: cfg.PGMaxConns})
		if err != nil {
			return nil, nil, err
		}
		st := postgres.New(pool)
		if err := st.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return st, pool, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
