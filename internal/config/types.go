package config

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceDotenv   ConfigSource = ".env"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource

	// Files lists the config files that were read, lowest priority first.
	Files []string
	// Unknown lists keys found in config files that taskboard does not use.
	Unknown []string
}

// Default values.
const (
	DefaultBackend     = "file"
	DefaultDataDir     = "~/.taskboard"
	DefaultStorageKey  = "tasks"
	DefaultRedisAddr   = "localhost:6379"
	DefaultRedisPrefix = "taskboard:"
	DefaultIDFormat    = "time"
	DefaultSort        = "newest"
	DefaultView        = "list"
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "text"
)

// Config holds the full configuration for taskboard.
type Config struct {
	// Storage
	Backend    string `toml:"backend"`
	DataDir    string `toml:"data_dir"`
	StorageKey string `toml:"storage_key"`
	DSN        string `toml:"dsn"`

	// Redis backend
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix"`

	// Tasks and views
	IDFormat    string `toml:"id_format"`
	Locale      string `toml:"locale"`
	DefaultSort string `toml:"default_sort"`
	DefaultView string `toml:"default_view"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`
	LogDir        string `toml:"log_dir"`

	// Prometheus textfile written on exit
	MetricsFile string `toml:"metrics_file"`

	// Working directory (computed)
	WorkDir string `toml:"-"`
}
