package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// exerciseStore checks the behavior every backend shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	key := "tasks-conformance"

	if _, err := s.Get(ctx, "missing-key-for-test"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, key, []byte(`[{"id":1,"title":"a"}]`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `[{"id":1,"title":"a"}]` {
		t.Errorf("Get: got %s", got)
	}

	if err := s.Set(ctx, key, []byte(`[]`)); err != nil {
		t.Fatalf("Set (overwrite) failed: %v", err)
	}
	got, err = s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after overwrite failed: %v", err)
	}
	if string(got) != `[]` {
		t.Errorf("Get after overwrite: got %s, want []", got)
	}
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	exerciseStore(t, s)

	if _, err := os.Stat(s.Path("tasks-conformance")); err != nil {
		t.Errorf("expected blob file on disk: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestFileStoreRejectsEmptyDir(t *testing.T) {
	if _, err := NewFileStore("  "); err == nil {
		t.Error("expected error for empty dir")
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := map[string]string{
		"tasks":        "tasks",
		"":             "tasks",
		"../etc/pass":  ".._etc_pass",
		"my tasks:v2":  "my_tasks_v2",
		"work-list_01": "work-list_01",
	}
	for input, want := range tests {
		if got := sanitizeKey(input); got != want {
			t.Errorf("sanitizeKey(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreFailWrites(t *testing.T) {
	s := NewMemoryStore()
	s.FailWrites = errors.New("disk full")
	if err := s.Set(context.Background(), "k", []byte("v")); err == nil {
		t.Error("expected Set to fail")
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	value := []byte("abc")
	if err := s.Set(ctx, "k", value); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value[0] = 'z'
	got, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value aliased caller slice: %s", got)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQL(context.Background(), DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("OpenSQL(sqlite) failed: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStoreFile(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "tasks.db")

	s, err := Open(ctx, Options{Backend: BackendSQLite, DSN: dsn})
	if err != nil {
		t.Fatalf("Open(sqlite) failed: %v", err)
	}
	if err := s.Set(ctx, "tasks", []byte(`[]`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	s.Close()

	reopened, err := Open(ctx, Options{Backend: BackendSQLite, DSN: dsn})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(ctx, "tasks")
	if err != nil || string(got) != `[]` {
		t.Errorf("Get after reopen: %s, %v", got, err)
	}
}

func TestMySQLStore(t *testing.T) {
	dsn := os.Getenv("TASKBOARD_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TASKBOARD_TEST_MYSQL_DSN not set; skipping integration test")
	}
	s, err := OpenSQL(context.Background(), DialectMySQL, dsn)
	if err != nil {
		t.Fatalf("OpenSQL(mysql) failed: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TASKBOARD_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TASKBOARD_TEST_POSTGRES_DSN not set; skipping integration test")
	}
	s, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("OpenPostgres failed: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TASKBOARD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TASKBOARD_TEST_REDIS_ADDR not set; skipping integration test")
	}
	s, err := OpenRedis(context.Background(), addr, os.Getenv("TASKBOARD_TEST_REDIS_PASSWORD"), 0, "taskboard-test:")
	if err != nil {
		t.Fatalf("OpenRedis failed: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"default is file", Options{Dir: t.TempDir()}, false},
		{"memory", Options{Backend: "memory"}, false},
		{"case insensitive", Options{Backend: " MEMORY "}, false},
		{"file without dir", Options{Backend: "file"}, true},
		{"sqlite without dsn", Options{Backend: "sqlite"}, true},
		{"mysql without dsn", Options{Backend: "mysql"}, true},
		{"postgres without dsn", Options{Backend: "postgres"}, true},
		{"redis without addr", Options{Backend: "redis"}, true},
		{"unknown", Options{Backend: "etcd"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if s != nil {
				s.Close()
			}
		})
	}
}
