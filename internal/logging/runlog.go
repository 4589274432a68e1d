package logging

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const runLogExt = ".log"

// RunLog is the log file of a single taskboard invocation.
type RunLog struct {
	Dir   string
	RunID string
	Path  string
	file  *os.File
}

// NewRunLog creates <baseDir>/<slug>/<runID>.log. The slug is derived from
// scope, usually the storage location, so runs against different task
// collections log to different directories.
func NewRunLog(baseDir, scope string) (*RunLog, error) {
	dir, err := LogDir(baseDir, scope)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	id := runID()
	path := filepath.Join(dir, id+runLogExt)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}
	return &RunLog{Dir: dir, RunID: id, Path: path, file: file}, nil
}

// Writer returns the log file.
func (r *RunLog) Writer() io.Writer {
	return r.file
}

// Close closes the log file. It is safe on a nil RunLog.
func (r *RunLog) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}

// Tee returns a logger writing to both console and the run log.
// Timestamps are always reported so the file is useful on its own.
func (r *RunLog) Tee(console io.Writer, opts Options) *log.Logger {
	if r == nil {
		return New(console, opts)
	}
	opts.ReportTimestamp = true
	return New(io.MultiWriter(console, r.file), opts)
}

// LogDir returns the directory NewRunLog would use for scope.
func LogDir(baseDir, scope string) (string, error) {
	if strings.TrimSpace(baseDir) == "" {
		return "", fmt.Errorf("log base dir is empty")
	}
	if abs, err := filepath.Abs(baseDir); err == nil {
		baseDir = abs
	}
	return filepath.Join(filepath.Clean(baseDir), scopeSlug(scope)), nil
}

func scopeSlug(scope string) string {
	name := filepath.Base(strings.TrimRight(scope, `/\`))
	return fmt.Sprintf("%s-%s", slugify(name), hashPath(scope))
}

func slugify(input string) string {
	if strings.TrimSpace(input) == "" || input == "." || input == string(filepath.Separator) {
		return "tasks"
	}

	var b strings.Builder
	lastUnderscore := false
	for i := 0; i < len(input); i++ {
		c := input[i]
		valid := (c >= 'A' && c <= 'Z') ||
			(c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') ||
			c == '.' || c == '_' || c == '-'
		if !valid {
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
			continue
		}
		b.WriteByte(c)
		lastUnderscore = false
	}

	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		return "tasks"
	}
	return slug
}

func hashPath(input string) string {
	sum := sha1.Sum([]byte(input))
	return hex.EncodeToString(sum[:])[:8]
}

func runID() string {
	return fmt.Sprintf("%s-%d", time.Now().UTC().Format("20060102-150405"), os.Getpid())
}

// FindLatestLog returns the most recently modified run log in dir, or ""
// when there is none.
func FindLatestLog(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read log dir: %w", err)
	}

	var latest string
	var latestTime time.Time
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), runLogExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latest = filepath.Join(dir, entry.Name())
		}
	}
	return latest, nil
}

// TailLog copies the last n lines of path to w (all of it when n <= 0).
// With follow it keeps copying appended data until ctx is done.
func TailLog(ctx context.Context, w io.Writer, path string, n int, follow bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if n > 0 {
		if err := seekLastLines(file, n); err != nil {
			return fmt.Errorf("seek to tail position: %w", err)
		}
	}
	if _, err := io.Copy(w, file); err != nil {
		return err
	}
	if !follow {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := io.Copy(w, file); err != nil {
				return err
			}
		}
	}
}

// seekLastLines positions file at the start of its last n lines.
func seekLastLines(file *os.File, n int) error {
	const block = 4096

	stat, err := file.Stat()
	if err != nil {
		return err
	}
	size := stat.Size()
	end := size
	newlines := 0
	buf := make([]byte, block)

	for end > 0 {
		start := end - block
		if start < 0 {
			start = 0
		}
		chunk := buf[:end-start]
		if _, err := file.ReadAt(chunk, start); err != nil && err != io.EOF {
			return err
		}
		for i := len(chunk) - 1; i >= 0; i-- {
			if chunk[i] != '\n' || start+int64(i) == size-1 {
				continue
			}
			newlines++
			if newlines == n {
				_, err := file.Seek(start+int64(i)+1, io.SeekStart)
				return err
			}
		}
		end = start
	}
	_, err = file.Seek(0, io.SeekStart)
	return err
}
