package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"

	"github.com/nibzard/taskboard/internal/blob"
	"github.com/nibzard/taskboard/internal/query"
	"github.com/nibzard/taskboard/internal/store"
)

// isolate points HOME, XDG_CONFIG_HOME and the working directory at fresh
// temp dirs and clears TASKBOARD_* variables.
func isolate(t *testing.T) (home, wd string) {
	t.Helper()
	home = t.TempDir()
	wd = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	for _, b := range bindings() {
		t.Setenv(b.env, "")
	}
	prevWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(wd); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prevWD) })
	if resolved, err := os.Getwd(); err == nil {
		wd = resolved
	}
	return home, wd
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("taskboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestDefaults(t *testing.T) {
	home, wd := isolate(t)

	cfg, err := Load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend != DefaultBackend {
		t.Errorf("Backend: got %q, want %q", cfg.Backend, DefaultBackend)
	}
	if want := filepath.Join(home, ".taskboard"); cfg.DataDir != want {
		t.Errorf("DataDir: got %q, want %q", cfg.DataDir, want)
	}
	if cfg.StorageKey != DefaultStorageKey || cfg.IDFormat != DefaultIDFormat {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || cfg.LogFormat != "text" || cfg.LogDir != "" {
		t.Errorf("logging defaults: %+v", cfg)
	}
	if cfg.WorkDir != wd {
		t.Errorf("WorkDir: got %q, want %q", cfg.WorkDir, wd)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLayering(t *testing.T) {
	home, wd := isolate(t)

	writeFile(t, filepath.Join(home, ".taskboard", "taskboard.toml"), `
backend = "sqlite"
storage_key = "user-key"
locale = "de"
default_sort = "title"
log_level = "info"
`)
	writeFile(t, filepath.Join(wd, "taskboard.toml"), `
storage_key = "project-key"
default_view = "grid"
log_format = "json"
`)
	writeFile(t, filepath.Join(wd, ".env"), `
TASKBOARD_LOG_FORMAT=logfmt
TASKBOARD_ID_FORMAT=uuid
TASKBOARD_REDIS_DB=2
`)
	t.Setenv("TASKBOARD_ID_FORMAT", "time")
	t.Setenv("TASKBOARD_LOG_TIMESTAMPS", "yes")

	cws, err := LoadWithSources(newFlagSet(), []string{"-log-level", "debug", "-data-dir", "data", "ls"})
	if err != nil {
		t.Fatalf("LoadWithSources failed: %v", err)
	}
	cfg := cws.Config

	tests := []struct {
		field  string
		got    interface{}
		want   interface{}
		source ConfigSource
	}{
		{"backend", cfg.Backend, "sqlite", SourceUserFile},
		{"locale", cfg.Locale, "de", SourceUserFile},
		{"default_sort", cfg.DefaultSort, "title", SourceUserFile},
		{"storage_key", cfg.StorageKey, "project-key", SourceProjFile},
		{"default_view", cfg.DefaultView, "grid", SourceProjFile},
		{"log_format", cfg.LogFormat, "logfmt", SourceDotenv},
		{"redis_db", cfg.RedisDB, 2, SourceDotenv},
		{"id_format", cfg.IDFormat, "time", SourceEnv},
		{"log_timestamps", cfg.LogTimestamps, true, SourceEnv},
		{"log_level", cfg.LogLevel, "debug", SourceFlag},
		{"data_dir", cfg.DataDir, filepath.Join(wd, "data"), SourceFlag},
		{"redis_addr", cfg.RedisAddr, DefaultRedisAddr, SourceDefault},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("value: got %v, want %v", tt.got, tt.want)
			}
			if got := cws.Sources[tt.field]; got != tt.source {
				t.Errorf("source: got %q, want %q", got, tt.source)
			}
		})
	}

	if len(cws.Files) != 2 || cws.GetConfigFile() != filepath.Join(wd, "taskboard.toml") {
		t.Errorf("Files: %v", cws.Files)
	}
}

func TestRemainingArgs(t *testing.T) {
	isolate(t)
	fs := newFlagSet()
	if _, err := Load(fs, []string{"-backend", "memory", "add", "Buy milk"}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := fs.Args(); len(got) != 2 || got[0] != "add" || got[1] != "Buy milk" {
		t.Errorf("Args: got %v", got)
	}
}

func TestUnknownKeys(t *testing.T) {
	_, wd := isolate(t)
	writeFile(t, filepath.Join(wd, ".taskboard.toml"), "backend = \"memory\"\ncolour = \"blue\"\n")

	cws, err := LoadWithSources(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("LoadWithSources failed: %v", err)
	}
	if len(cws.Unknown) != 1 || !strings.Contains(cws.Unknown[0], "colour") {
		t.Errorf("Unknown: got %v", cws.Unknown)
	}
	if cws.Config.Backend != "memory" {
		t.Errorf("hidden project file not read: %q", cws.Config.Backend)
	}
}

func TestInvalidConfigFile(t *testing.T) {
	_, wd := isolate(t)
	writeFile(t, filepath.Join(wd, "taskboard.toml"), "backend = \n")

	if _, err := Load(newFlagSet(), nil); err == nil || !strings.Contains(err.Error(), "project config file") {
		t.Errorf("expected project config error, got %v", err)
	}
}

func TestInvalidEnvIntIgnored(t *testing.T) {
	isolate(t)
	t.Setenv("TASKBOARD_REDIS_DB", "three")
	cfg, err := Load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.RedisDB != 0 {
		t.Errorf("RedisDB: got %d, want 0", cfg.RedisDB)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		setDefaults(cfg)
		cfg.DataDir = "/tmp/tb"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"backend", func(c *Config) { c.Backend = "s3" }, "backend"},
		{"mysql dsn", func(c *Config) { c.Backend = "mysql" }, "requires dsn"},
		{"id format", func(c *Config) { c.IDFormat = "snowflake" }, "id format"},
		{"locale", func(c *Config) { c.Locale = "not a locale!" }, "locale"},
		{"sort", func(c *Config) { c.DefaultSort = "random" }, "default_sort"},
		{"view", func(c *Config) { c.DefaultView = "kanban" }, "default_view"},
		{"level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"format", func(c *Config) { c.LogFormat = "yaml" }, "log_format"},
		{"key", func(c *Config) { c.StorageKey = " " }, "storage_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate: got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestBlobOptions(t *testing.T) {
	cfg := &Config{Backend: "SQLite", DataDir: "/var/lib/tb", StorageKey: "tasks"}
	opts := cfg.BlobOptions()
	if opts.Backend != blob.BackendSQLite {
		t.Errorf("Backend: got %q", opts.Backend)
	}
	if want := filepath.Join("/var/lib/tb", SQLiteFile); opts.DSN != want {
		t.Errorf("DSN: got %q, want %q", opts.DSN, want)
	}

	cfg = &Config{Backend: "redis", RedisAddr: "cache:6379", RedisDB: 1, RedisPrefix: "tb:", RedisPassword: "secret", StorageKey: "tasks"}
	if loc := cfg.StorageLocation(); loc != "redis://cache:6379/1/tb:tasks" || strings.Contains(loc, "secret") {
		t.Errorf("StorageLocation: got %q", loc)
	}
}

func TestTypedGetters(t *testing.T) {
	cfg := &Config{Locale: "sv", IDFormat: "uuid", DefaultSort: "Priority", DefaultView: "grid"}
	tag, err := cfg.LocaleTag()
	if err != nil || tag.String() != "sv" {
		t.Errorf("LocaleTag: got %v, %v", tag, err)
	}
	g, err := cfg.IDGenerator()
	if err != nil {
		t.Fatalf("IDGenerator: %v", err)
	}
	if _, ok := g.(store.UUIDIDs); !ok {
		t.Errorf("IDGenerator: got %T", g)
	}
	if cfg.Sort() != query.SortPriority {
		t.Errorf("Sort: got %q", cfg.Sort())
	}
	if cfg.View() != "grid" {
		t.Errorf("View: got %q", cfg.View())
	}
	if tag, _ := (&Config{}).LocaleTag(); tag != language.Und {
		t.Errorf("empty locale: got %v", tag)
	}
}

func TestExampleConfigDecodes(t *testing.T) {
	cfg := &Config{}
	md, err := toml.Decode(ExampleConfig(), cfg)
	if err != nil {
		t.Fatalf("example config does not decode: %v", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		t.Errorf("example config has unknown keys: %v", undecoded)
	}
	if cfg.Backend != DefaultBackend || cfg.RedisPrefix != DefaultRedisPrefix {
		t.Errorf("example config disagrees with defaults: %+v", cfg)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"~", home},
		{"/absolute/path", "/absolute/path"},
		{"relative", "relative"},
		{"~other/x", "~other/x"},
		{"", ""},
	}
	if runtime.GOOS == "windows" {
		t.Setenv("TASKBOARD_TEST_HOME", home)
		tests = append(tests, struct {
			input string
			want  string
		}{`%TASKBOARD_TEST_HOME%\data`, filepath.Join(home, "data")})
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := expandPath(tt.input); got != tt.want {
				t.Errorf("expandPath(%q): got %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSettings(t *testing.T) {
	isolate(t)
	t.Setenv("TASKBOARD_REDIS_PASSWORD", "hunter2")
	cws, err := LoadWithSources(newFlagSet(), []string{"-redis-db", "4"})
	if err != nil {
		t.Fatalf("LoadWithSources failed: %v", err)
	}

	settings := cws.Settings()
	if len(settings) != len(configFields()) {
		t.Fatalf("got %d settings, want %d", len(settings), len(configFields()))
	}
	byKey := map[string]Setting{}
	for _, s := range settings {
		byKey[s.Key] = s
	}
	if s := byKey["redis_password"]; s.Value != "********" || s.Source != SourceEnv {
		t.Errorf("redis_password: %+v", s)
	}
	if s := byKey["redis_db"]; s.Value != "4" || s.Source != SourceFlag {
		t.Errorf("redis_db: %+v", s)
	}
	if s := byKey["log_caller"]; s.Value != "false" || s.Env != "TASKBOARD_LOG_CALLER" {
		t.Errorf("log_caller: %+v", s)
	}
}

func TestResolvePaths(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "work")
	tests := []struct {
		backend, dsn, want string
	}{
		{"sqlite", "tasks.db", filepath.Join(base, "tasks.db")},
		{"SQLite", ":memory:", ":memory:"},
		{"sqlite", "file:tasks.db?cache=shared", "file:tasks.db?cache=shared"},
		{"mysql", "user:pw@tcp(db:3306)/tasks", "user:pw@tcp(db:3306)/tasks"},
	}
	for _, tt := range tests {
		cfg := &Config{Backend: tt.backend, DSN: tt.dsn, DataDir: "data", WorkDir: base}
		resolvePaths(cfg)
		if cfg.DSN != tt.want {
			t.Errorf("%s %q: DSN got %q, want %q", tt.backend, tt.dsn, cfg.DSN, tt.want)
		}
		if want := filepath.Join(base, "data"); cfg.DataDir != want {
			t.Errorf("DataDir: got %q, want %q", cfg.DataDir, want)
		}
	}
}
