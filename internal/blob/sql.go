package blob

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

const tableName = "taskboard_kv"

// Dialect holds the statements that differ between SQL engines.
type Dialect struct {
	Name   string // display name
	Driver string // database/sql driver name
	Create string
	Select string
	Upsert string
}

var (
	// DialectSQLite targets github.com/mattn/go-sqlite3.
	DialectSQLite = Dialect{
		Name:   BackendSQLite,
		Driver: "sqlite3",
		Create: `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
    name TEXT PRIMARY KEY,
    payload BLOB NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
		Select: `SELECT payload FROM ` + tableName + ` WHERE name = ?`,
		Upsert: `INSERT INTO ` + tableName + ` (name, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
	}

	// DialectMySQL targets github.com/go-sql-driver/mysql.
	DialectMySQL = Dialect{
		Name:   BackendMySQL,
		Driver: "mysql",
		Create: `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
    name VARCHAR(191) PRIMARY KEY,
    payload LONGBLOB NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`,
		Select: `SELECT payload FROM ` + tableName + ` WHERE name = ?`,
		Upsert: `INSERT INTO ` + tableName + ` (name, payload) VALUES (?, ?)
ON DUPLICATE KEY UPDATE payload = VALUES(payload)`,
	}
)

// SQLStore keeps values in a single key/value table reached through
// database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQL connects with the dialect's driver and creates the table.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s backend: dsn is empty", dialect.Name)
	}
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name, err)
	}
	if dialect.Driver == DialectSQLite.Driver {
		// One connection keeps ":memory:" databases alive and avoids
		// SQLITE_BUSY between writers in the same process.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	s, err := NewSQLStore(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database and creates the table if needed.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping %s: %w", dialect.Name, err)
	}
	if _, err := db.ExecContext(ctx, dialect.Create); err != nil {
		return nil, fmt.Errorf("create %s table: %w", dialect.Name, err)
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

// Get reads the value stored under key.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.dialect.Select, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s blob: %w", s.dialect.Name, err)
	}
	return payload, nil
}

// Set replaces the value stored under key.
func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Upsert, key, value); err != nil {
		return fmt.Errorf("upsert %s blob: %w", s.dialect.Name, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
