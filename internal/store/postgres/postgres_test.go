package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
	"github.com/odyssey-erp/odyssey-pos/internal/store/storetest"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError("noop", nil))
	assert.ErrorIs(t, mapError("get product p1", pgx.ErrNoRows), shared.ErrNotFound)

	cases := map[string]error{
		codeUniqueViolation:     shared.ErrValidation,
		codeForeignKeyViolation: shared.ErrValidation,
		codeCheckViolation:      shared.ErrValidation,
		"40001":                 shared.ErrStore,
	}
	for code, want := range cases {
		err := mapError("insert", &pgconn.PgError{Code: code, ConstraintName: "c"})
		assert.ErrorIs(t, err, want, code)
	}

	err := mapError("list products", errors.New("connection reset"))
	assert.ErrorIs(t, err, shared.ErrStore)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestNotFoundIfNone(t *testing.T) {
	assert.ErrorIs(t, notFoundIfNone(pgconn.NewCommandTag("DELETE 0"), "expense", "e1"), shared.ErrNotFound)
	assert.NoError(t, notFoundIfNone(pgconn.NewCommandTag("DELETE 1"), "expense", "e1"))
}

func TestOptionalTime(t *testing.T) {
	assert.Nil(t, optionalTime(time.Time{}))
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NotNil(t, optionalTime(now))
	assert.Equal(t, now, *optionalTime(now))
}

// newTestStore connects to ODYSSEY_TEST_DATABASE_URL, skipping when it is unset, and empties every table.
func newTestStore(t *testing.T) store.Store {
	t.Helper()
	dsn := os.Getenv("ODYSSEY_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ODYSSEY_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.New(ctx, db.Options{DSN: dsn, MaxConns: 4})
	require.NoError(t, err)
	st := New(pool)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(ctx))
	_, err = pool.Exec(ctx, `TRUNCATE sales_items, sales_orders, purchase_items, purchase_orders, expenses,
product_variants, products, customers, suppliers`)
	require.NoError(t, err)
	return st
}

func TestStoreBehaviour(t *testing.T) {
	storetest.Run(t, newTestStore)
}
