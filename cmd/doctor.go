package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/nibzard/taskboard/internal/blob"
	"github.com/nibzard/taskboard/internal/config"
	"github.com/nibzard/taskboard/internal/logging"
	"github.com/nibzard/taskboard/internal/task"
)

// doctorCommand checks config files, settings and storage reachability.
func doctorCommand(ctx context.Context, cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("taskboard doctor", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg := cws.Config

	fmt.Println("Taskboard Doctor")
	fmt.Println("================")
	fmt.Println()

	allOK := true

	// Config files
	fmt.Println("Config files:")
	if len(cws.Files) == 0 {
		fmt.Println("  ⚠️  None found (using defaults)")
	}
	for _, f := range cws.Files {
		fmt.Printf("  ✅ %s\n", f)
	}
	for _, key := range cws.Unknown {
		fmt.Printf("  ⚠️  Unknown key %s\n", key)
	}
	fmt.Println()

	// Settings
	fmt.Println("Config:")
	configOK := true
	if err := cfg.Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			fmt.Printf("  ❌ %s\n", line)
		}
		configOK = false
		allOK = false
	} else {
		fmt.Printf("  ✅ Backend: %s\n", cfg.BlobOptions().Backend)
		fmt.Printf("  ✅ Id format: %s\n", cfg.IDFormat)
		fmt.Printf("  ✅ Sort: %s, view: %s\n", cfg.Sort(), cfg.View())
	}
	if *verbose {
		for _, s := range cws.Settings() {
			fmt.Printf("     %s = %q (%s)\n", s.Key, s.Value, s.Source)
		}
	}
	fmt.Println()

	// Storage
	fmt.Printf("Storage: %s\n", cfg.StorageLocation())
	if !configOK {
		fmt.Println("  ⚠️  Skipped (invalid config)")
	} else if !checkStorage(ctx, cfg, *verbose) {
		allOK = false
	}
	fmt.Println()

	// Log directory
	if cfg.LogDir == "" {
		fmt.Println("Log directory: (disabled)")
	} else {
		fmt.Printf("Log directory: %s\n", cfg.LogDir)
		if _, err := os.Stat(cfg.LogDir); err != nil {
			if os.IsNotExist(err) {
				fmt.Println("  ⚠️  Not found (will be created on run)")
			} else {
				fmt.Printf("  ❌ Error: %v\n", err)
				allOK = false
			}
		} else {
			fmt.Println("  ✅ OK")
		}
	}
	if cfg.MetricsFile != "" {
		fmt.Printf("Metrics file: %s\n", cfg.MetricsFile)
	}
	fmt.Println()

	if allOK {
		fmt.Println("✅ All checks passed!")
		return nil
	}
	fmt.Println("⚠️  Some checks failed. Taskboard may not function correctly.")
	return fmt.Errorf("doctor checks failed")
}

// checkStorage opens the backend and decodes the stored collection.
func checkStorage(ctx context.Context, cfg *config.Config, verbose bool) bool {
	opts := cfg.BlobOptions()
	if opts.Backend == blob.BackendSQLite && cfg.DSN == "" {
		if _, err := os.Stat(cfg.DataDir); os.IsNotExist(err) {
			fmt.Println("  ⚠️  Not found (will be created on first write)")
			return true
		}
	}
	backend, err := blob.Open(ctx, opts)
	if err != nil {
		fmt.Printf("  ❌ Open failed: %v\n", err)
		return false
	}
	defer backend.Close()

	data, err := backend.Get(ctx, cfg.StorageKey)
	if errors.Is(err, blob.ErrNotFound) {
		fmt.Println("  ✅ Reachable (no tasks stored yet)")
		return true
	}
	if err != nil {
		fmt.Printf("  ❌ Read failed: %v\n", err)
		return false
	}

	tasks, rejected, err := task.DecodeList(data)
	if err != nil {
		fmt.Printf("  ❌ Stored tasks are unreadable: %v\n", err)
		return false
	}
	fmt.Printf("  ✅ Reachable, %d tasks stored\n", len(tasks))
	if len(rejected) > 0 {
		fmt.Printf("  ⚠️  %d invalid records will be dropped on load\n", len(rejected))
		if verbose {
			for _, r := range rejected {
				fmt.Printf("     - %v\n", r)
			}
		}
	}
	return true
}

// logsCommand prints the latest run log for the configured storage.
func logsCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("taskboard logs", flag.ContinueOnError)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if cfg.LogDir == "" {
		fmt.Println("Run logs are disabled. Set log_dir to enable them.")
		return nil
	}
	logDir, err := logging.LogDir(cfg.LogDir, cfg.StorageLocation())
	if err != nil {
		return fmt.Errorf("finding log directory: %w", err)
	}
	logPath, err := logging.FindLatestLog(logDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Println("No log files found.")
		return nil
	}

	fmt.Printf("Tailing: %s\n", logPath)
	if *follow {
		fmt.Println("(Ctrl+C to stop)")
	}
	fmt.Println()

	return logging.TailLog(ctx, os.Stdout, logPath, *n, *follow)
}

// configCommand prints the resolved settings or an example config file.
func configCommand(cws *config.ConfigWithSources, args []string) error {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "show":
		for _, f := range cws.Files {
			fmt.Printf("# read %s\n", f)
		}
		for _, s := range cws.Settings() {
			fmt.Printf("%s = %q  # %s\n", s.Key, s.Value, s.Source)
		}
		for _, key := range cws.Unknown {
			fmt.Printf("# unknown key %s\n", key)
		}
		return nil
	case "example":
		fmt.Print(config.ExampleConfig())
		return nil
	default:
		return fmt.Errorf("unknown config command: %s (want show or example)", sub)
	}
}
