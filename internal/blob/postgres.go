package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgCreate = `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
    name TEXT PRIMARY KEY,
    payload BYTEA NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	pgSelect = `SELECT payload FROM ` + tableName + ` WHERE name = $1`
	pgUpsert = `INSERT INTO ` + tableName + ` (name, payload, updated_at) VALUES ($1, $2, now())
ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`
)

// PostgresStore keeps values in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and creates the table.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres backend: dsn is empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgCreate); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create postgres table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Get reads the value stored under key.
func (p *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := p.pool.QueryRow(ctx, pgSelect, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select postgres blob: %w", err)
	}
	return payload, nil
}

// Set replaces the value stored under key.
func (p *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := p.pool.Exec(ctx, pgUpsert, key, value); err != nil {
		return fmt.Errorf("upsert postgres blob: %w", err)
	}
	return nil
}

// Close closes the pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
