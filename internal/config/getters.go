package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/nibzard/taskboard/internal/blob"
	"github.com/nibzard/taskboard/internal/board"
	"github.com/nibzard/taskboard/internal/logging"
	"github.com/nibzard/taskboard/internal/query"
	"github.com/nibzard/taskboard/internal/store"
)

// SQLiteFile is the database file used by the sqlite backend when no DSN
// is configured.
const SQLiteFile = "taskboard.db"

// BlobOptions returns the options for opening the configured backend.
func (c *Config) BlobOptions() blob.Options {
	opts := blob.Options{
		Backend:       strings.ToLower(strings.TrimSpace(c.Backend)),
		Dir:           c.DataDir,
		DSN:           c.DSN,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		RedisPrefix:   c.RedisPrefix,
	}
	if opts.Backend == blob.BackendSQLite && opts.DSN == "" {
		opts.DSN = filepath.Join(c.DataDir, SQLiteFile)
	}
	return opts
}

// StorageLocation describes where tasks are stored, for logs and doctor
// output. Passwords are never included.
func (c *Config) StorageLocation() string {
	switch opts := c.BlobOptions(); opts.Backend {
	case blob.BackendFile:
		return filepath.Join(opts.Dir, c.StorageKey+".json")
	case blob.BackendSQLite:
		return opts.DSN
	case blob.BackendRedis:
		return fmt.Sprintf("redis://%s/%d/%s%s", opts.RedisAddr, opts.RedisDB, opts.RedisPrefix, c.StorageKey)
	case blob.BackendMySQL, blob.BackendPostgres:
		return opts.Backend + " database"
	default:
		return opts.Backend
	}
}

// LogOptions returns the logger options.
func (c *Config) LogOptions() logging.Options {
	return logging.FromConfig(c.LogLevel, c.LogFormat, c.LogTimestamps, c.LogCaller)
}

// LocaleTag returns the collation locale. An empty locale is the root
// locale.
func (c *Config) LocaleTag() (language.Tag, error) {
	if strings.TrimSpace(c.Locale) == "" {
		return language.Und, nil
	}
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("invalid locale %q: %w", c.Locale, err)
	}
	return tag, nil
}

// IDGenerator returns the generator for the configured id format.
func (c *Config) IDGenerator() (store.IDGenerator, error) {
	return store.ParseIDFormat(c.IDFormat)
}

// Sort returns the configured default sort.
func (c *Config) Sort() query.Sort {
	return query.ParseSort(c.DefaultSort)
}

// View returns the configured default view.
func (c *Config) View() board.View {
	return board.ParseView(c.DefaultView)
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(blob.Backends(), strings.ToLower(strings.TrimSpace(c.Backend))) {
		errs = append(errs, fmt.Errorf("backend %q is not one of %s", c.Backend, strings.Join(blob.Backends(), ", ")))
	}
	switch strings.ToLower(strings.TrimSpace(c.Backend)) {
	case blob.BackendMySQL, blob.BackendPostgres:
		if c.DSN == "" {
			errs = append(errs, fmt.Errorf("backend %s requires dsn", c.Backend))
		}
	case blob.BackendFile, blob.BackendSQLite:
		if c.DataDir == "" && c.DSN == "" {
			errs = append(errs, errors.New("data_dir is empty"))
		}
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		errs = append(errs, errors.New("storage_key is empty"))
	}
	if _, err := c.IDGenerator(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LocaleTag(); err != nil {
		errs = append(errs, err)
	}
	if !c.Sort().Known() {
		errs = append(errs, fmt.Errorf("default_sort %q is not a known sort", c.DefaultSort))
	}
	if v := strings.ToLower(strings.TrimSpace(c.DefaultView)); v != string(board.ViewList) && v != string(board.ViewGrid) {
		errs = append(errs, fmt.Errorf("default_view %q is not list or grid", c.DefaultView))
	}
	if !logging.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level %q is not a known level", c.LogLevel))
	}
	if !logging.ValidFormat(c.LogFormat) {
		errs = append(errs, fmt.Errorf("log_format %q is not text, json or logfmt", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Setting is one resolved configuration value.
type Setting struct {
	Key    string
	Env    string
	Value  string
	Source ConfigSource
}

// Settings lists every resolved value in key order with its source.
// Secrets are masked.
func (cws *ConfigWithSources) Settings() []Setting {
	var out []Setting
	for _, b := range bindings() {
		var value string
		switch p := b.target(cws.Config).(type) {
		case *string:
			value = *p
		case *int:
			value = strconv.Itoa(*p)
		case *bool:
			value = strconv.FormatBool(*p)
		}
		if b.key == "redis_password" && value != "" {
			value = "********"
		}
		out = append(out, Setting{Key: b.key, Env: b.env, Value: value, Source: cws.Sources[b.key]})
	}
	return out
}
