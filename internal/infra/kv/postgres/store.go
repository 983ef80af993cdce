// Package postgres implements a slot Store on a Postgres state table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mskboard/internal/kv/core"
)

// DefaultDSN is used when no connection string is configured.
const DefaultDSN = "postgres://localhost/mskboard?sslmode=disable"

const (
	ensureTableSQL = `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BYTEA NOT NULL
	)`
	selectSQL = `SELECT payload FROM state WHERE bucket = $1`
	upsertSQL = `INSERT INTO state (bucket, payload) VALUES ($1, $2)
		ON CONFLICT (bucket) DO UPDATE SET payload = EXCLUDED.payload`
	deleteSQL = `DELETE FROM state WHERE bucket = $1`
)

// pool is the subset of pgxpool.Pool the store relies on.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store persists slot values as rows of the state table.
type Store struct {
	pool pool
}

// Open connects to dsn (DefaultDSN when empty) and ensures the state table exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	store, err := NewWithPool(ctx, p)
	if err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}

// NewWithPool wraps an existing pool and ensures the state table exists.
func NewWithPool(ctx context.Context, p pool) (*Store, error) {
	if p == nil {
		return nil, errors.New("postgres: pool is required")
	}
	if _, err := p.Exec(ctx, ensureTableSQL); err != nil {
		return nil, fmt.Errorf("ensure state table: %w", err)
	}
	return &Store{pool: p}, nil
}

// Driver returns the driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverPostgres }

// Get reads the payload stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	if err := s.pool.QueryRow(ctx, selectSQL, key).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return payload, nil
}

// Set upserts the payload for key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	if _, err := s.pool.Exec(ctx, upsertSQL, key, value); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Remove deletes the row for key.
func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, deleteSQL, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
