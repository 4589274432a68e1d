package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// binding ties one config field to its TOML key, environment variable and
// CLI flag.
type binding struct {
	key    string
	env    string
	flag   string
	usage  string
	target func(*Config) any
}

func bindings() []binding {
	return []binding{
		{"backend", "TASKBOARD_BACKEND", "backend", "Storage backend (file, memory, sqlite, mysql, postgres, redis)", func(c *Config) any { return &c.Backend }},
		{"data_dir", "TASKBOARD_DATA_DIR", "data-dir", "Directory for file and sqlite storage", func(c *Config) any { return &c.DataDir }},
		{"storage_key", "TASKBOARD_STORAGE_KEY", "key", "Storage key holding the task list", func(c *Config) any { return &c.StorageKey }},
		{"dsn", "TASKBOARD_DSN", "dsn", "Database DSN for sqlite, mysql or postgres", func(c *Config) any { return &c.DSN }},
		{"redis_addr", "TASKBOARD_REDIS_ADDR", "redis-addr", "Redis address", func(c *Config) any { return &c.RedisAddr }},
		{"redis_password", "TASKBOARD_REDIS_PASSWORD", "redis-password", "Redis password", func(c *Config) any { return &c.RedisPassword }},
		{"redis_db", "TASKBOARD_REDIS_DB", "redis-db", "Redis database number", func(c *Config) any { return &c.RedisDB }},
		{"redis_prefix", "TASKBOARD_REDIS_PREFIX", "redis-prefix", "Redis key prefix", func(c *Config) any { return &c.RedisPrefix }},
		{"id_format", "TASKBOARD_ID_FORMAT", "id-format", "Id format for new tasks (time, uuid)", func(c *Config) any { return &c.IDFormat }},
		{"locale", "TASKBOARD_LOCALE", "locale", "BCP 47 locale for title sorting", func(c *Config) any { return &c.Locale }},
		{"default_sort", "TASKBOARD_SORT", "default-sort", "Default sort (newest, oldest, deadline, priority, title)", func(c *Config) any { return &c.DefaultSort }},
		{"default_view", "TASKBOARD_VIEW", "default-view", "Default view (list, grid)", func(c *Config) any { return &c.DefaultView }},
		{"log_level", "TASKBOARD_LOG_LEVEL", "log-level", "Log level (debug, info, warn, error)", func(c *Config) any { return &c.LogLevel }},
		{"log_format", "TASKBOARD_LOG_FORMAT", "log-format", "Log format (text, json, logfmt)", func(c *Config) any { return &c.LogFormat }},
		{"log_timestamps", "TASKBOARD_LOG_TIMESTAMPS", "log-timestamps", "Show timestamps in logs", func(c *Config) any { return &c.LogTimestamps }},
		{"log_caller", "TASKBOARD_LOG_CALLER", "log-caller", "Show caller location in logs", func(c *Config) any { return &c.LogCaller }},
		{"log_dir", "TASKBOARD_LOG_DIR", "log-dir", "Directory for per-run log files (empty disables)", func(c *Config) any { return &c.LogDir }},
		{"metrics_file", "TASKBOARD_METRICS_FILE", "metrics-file", "Write Prometheus metrics to this file on exit", func(c *Config) any { return &c.MetricsFile }},
	}
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	bs := bindings()
	fields := make([]string, len(bs))
	for i, b := range bs {
		fields[i] = b.key
	}
	return fields
}

// readDotenv reads KEY=value pairs from the .env file in dir.
// A missing file yields an empty map.
func readDotenv(dir string) (map[string]string, error) {
	vars, err := godotenv.Read(filepath.Join(dir, ".env"))
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	return vars, err
}

// loadFromEnv overrides config from variables returned by lookup.
// If sources is non-nil, it tracks the source of each value.
func loadFromEnv(cfg *Config, lookup func(string) (string, bool), sources map[string]ConfigSource, source ConfigSource) {
	for _, b := range bindings() {
		v, ok := lookup(b.env)
		if !ok || v == "" {
			continue
		}
		switch p := b.target(cfg).(type) {
		case *string:
			*p = v
		case *int:
			i, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				continue
			}
			*p = i
		case *bool:
			*p = boolFromString(v)
		}
		if sources != nil {
			sources[b.key] = source
		}
	}
}

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func boolFromString(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
