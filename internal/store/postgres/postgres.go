// Package postgres implements the store port on PostgreSQL through pgx.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

//go:embed schema.sql
var schema string

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store runs units of work as RepeatableRead transactions with row locks on stock reads.
type Store struct {
	queries
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// New wraps an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{queries: queries{q: pool}, pool: pool}
}

// Migrate creates missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// WithTx runs fn in a transaction. fn must use the Tx it is given, never s.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, store.Tx) error) error {
	return db.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &txStore{queries: queries{q: tx}})
	})
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Pool exposes the pool for the audit and idempotency adapters.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// mapError turns driver errors into the shared error kinds.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, shared.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return shared.Validationf("%s: duplicate value violates %s", op, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return shared.Validationf("%s: referenced row missing or still referenced (%s)", op, pgErr.ConstraintName)
		case codeCheckViolation:
			return shared.Validationf("%s: %s", op, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, shared.ErrStore, err)
}

func notFoundIfNone(tag pgconn.CommandTag, what, id string) error {
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf("%s %s", what, id)
	}
	return nil
}
