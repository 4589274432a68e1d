package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// resolvePaths expands every path-valued setting and anchors relative ones
// at cfg.WorkDir. A sqlite DSN is treated as a path unless it is a URI or
// the in-memory database.
func resolvePaths(cfg *Config) {
	for _, p := range []*string{&cfg.DataDir, &cfg.LogDir, &cfg.MetricsFile} {
		*p = resolvePath(*p, cfg.WorkDir)
	}
	if strings.EqualFold(cfg.Backend, "sqlite") && isSQLitePath(cfg.DSN) {
		cfg.DSN = resolvePath(cfg.DSN, cfg.WorkDir)
	}
}

// resolvePath expands p and makes it absolute relative to base.
func resolvePath(p, base string) string {
	p = expandPath(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func isSQLitePath(dsn string) bool {
	return dsn != "" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

// expandPath replaces a leading ~ with the home directory and expands
// $VAR references. On Windows %VAR% and ~\ are accepted as well.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if runtime.GOOS == "windows" {
		p = expandPercentVars(p)
	}

	rest, ok := strings.CutPrefix(p, "~")
	if !ok || (rest != "" && !isSeparator(rest[0])) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if rest == "" {
		return home
	}
	return filepath.Join(home, rest[1:])
}

func isSeparator(c byte) bool {
	return c == '/' || (runtime.GOOS == "windows" && c == '\\')
}

// expandPercentVars expands %NAME% for names that are set and leaves the
// rest untouched.
func expandPercentVars(p string) string {
	var b strings.Builder
	for {
		start := strings.IndexByte(p, '%')
		if start < 0 {
			break
		}
		end := strings.IndexByte(p[start+1:], '%')
		if end < 0 {
			break
		}
		end += start + 1
		name := p[start+1 : end]
		if val, ok := os.LookupEnv(name); ok && name != "" {
			b.WriteString(p[:start])
			b.WriteString(val)
			p = p[end+1:]
			continue
		}
		b.WriteString(p[:end])
		p = p[end:]
	}
	b.WriteString(p)
	return b.String()
}
