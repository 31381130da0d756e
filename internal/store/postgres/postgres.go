// Package postgres implements the store ports on PostgreSQL via pgx.
// Repositories are built over a Querier so the same code runs against
// the pool or inside a transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rezonia/ubl-ingest/internal/store"
)

var _ store.Store = (*Store)(nil)

// Querier abstracts pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store wraps a pgx pool as the full storage handle.
type Store struct {
	pool *pgxpool.Pool
}

// NewPool creates a connection pool with the shopspring decimal codec
// registered, so NUMERIC columns scan straight into decimal.Decimal.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = time.Hour
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Stores returns repositories bound to the pool (auto-commit reads and
// writes outside a batch).
func (s *Store) Stores() store.Stores {
	return storesOver(s.pool)
}

// Run executes fn inside one read-write transaction spanning every
// keyspace, committing only if the callback succeeds.
func (s *Store) Run(ctx context.Context, fn func(st store.Stores) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(storesOver(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func storesOver(q Querier) store.Stores {
	return store.Stores{
		Documents: &DocumentRepo{q: q},
		Lines:     &LineRepo{q: q},
		Taxes:     &TaxRepo{q: q},
		Issuers:   &IssuerRepo{q: q},
		Customers: &CustomerRepo{q: q},
		Errors:    &ErrorRepo{q: q},
	}
}

// isUniqueViolation reports a 23505 unique constraint error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
