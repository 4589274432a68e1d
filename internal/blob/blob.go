// Package blob provides single-key blob storage backends for the task list.
package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("blob: key not found")

// Store reads and writes opaque values by key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Backends lists every backend name in display order.
func Backends() []string {
	return []string{BackendFile, BackendMemory, BackendSQLite, BackendMySQL, BackendPostgres, BackendRedis}
}

// Options selects and configures a backend.
type Options struct {
	Backend string // one of Backends()
	Dir     string // file: directory holding <key>.json
	DSN     string // sqlite, mysql, postgres: data source name

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open creates the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		s, err = NewFileStore(opts.Dir)
	case BackendMemory:
		s = NewMemoryStore()
	case BackendSQLite:
		s, err = OpenSQL(ctx, DialectSQLite, opts.DSN)
	case BackendMySQL:
		s, err = OpenSQL(ctx, DialectMySQL, opts.DSN)
	case BackendPostgres:
		s, err = OpenPostgres(ctx, opts.DSN)
	case BackendRedis:
		s, err = OpenRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisPrefix)
	default:
		err = fmt.Errorf("unknown backend %q (want one of: %s)", opts.Backend, strings.Join(Backends(), ", "))
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
