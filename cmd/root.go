// Package cmd implements the CLI command structure for taskboard.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nibzard/taskboard/internal/blob"
	"github.com/nibzard/taskboard/internal/board"
	"github.com/nibzard/taskboard/internal/config"
	"github.com/nibzard/taskboard/internal/logging"
	"github.com/nibzard/taskboard/internal/metrics"
	"github.com/nibzard/taskboard/internal/query"
	"github.com/nibzard/taskboard/internal/store"
)

// Version is set via ldflags at build time.
var Version = "dev"

// boardCommand is a subcommand that works on an opened board.
type boardCommand func(ctx context.Context, a *app, args []string) error

var boardCommands = map[string]boardCommand{
	"add":    addCommand,
	"edit":   editCommand,
	"rm":     rmCommand,
	"toggle": toggleCommand,
	"show":   showCommand,
	"ls":     lsCommand,
	"stats":  statsCommand,
	"export": exportCommand,
	"import": importCommand,
	"tui":    tuiCommand,
}

// Run executes the taskboard CLI.
func Run(ctx context.Context, args []string) (err error) {
	// Create a flag set for global options
	fs := flag.NewFlagSet("taskboard", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, os.Stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// Determine the subcommand; ls is the default
	subcommand := "ls"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 && !strings.HasPrefix(remainingArgs[0], "-") {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, os.Stdout)
		return nil
	case "doctor":
		return doctorCommand(ctx, cws, remainingArgs)
	case "logs":
		return logsCommand(ctx, cfg, remainingArgs)
	case "config":
		return configCommand(cws, remainingArgs)
	}

	handler, ok := boardCommands[subcommand]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return handler(ctx, a, remainingArgs)
}

// app holds everything a board command needs.
type app struct {
	cfg      *config.Config
	logger   *log.Logger
	runLog   *logging.RunLog
	registry *prometheus.Registry
	backend  blob.Store
	board    *board.Board
}

// openApp validates cfg, sets up logging and metrics, opens the backend and
// loads the task collection.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opts := cfg.LogOptions()
	a := &app{
		cfg:      cfg,
		logger:   logging.New(os.Stderr, opts),
		registry: prometheus.NewRegistry(),
	}
	if cfg.LogDir != "" {
		rl, err := logging.NewRunLog(cfg.LogDir, cfg.StorageLocation())
		if err != nil {
			a.logger.Warn("Run log disabled", "err", err)
		} else {
			a.runLog = rl
			a.logger = rl.Tee(os.Stderr, opts)
		}
	}

	m, err := metrics.NewStore(a.registry)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	blobOpts := cfg.BlobOptions()
	if blobOpts.Backend == blob.BackendSQLite && cfg.DSN == "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			a.Close()
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
	}
	backend, err := blob.Open(ctx, blobOpts)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening %s backend: %w", blobOpts.Backend, err)
	}
	a.backend = backend

	// Both were checked by Validate.
	ids, _ := cfg.IDGenerator()
	tag, _ := cfg.LocaleTag()

	s := store.New(ctx, backend,
		store.WithLogger(a.logger),
		store.WithMetrics(m),
		store.WithIDGenerator(ids),
		store.WithKey(cfg.StorageKey),
	)
	a.board = board.New(s, query.New(query.WithLocale(tag)))
	a.board.SetSort(cfg.Sort())
	a.board.SetView(cfg.View())

	a.logger.Debug("Opened task store", "location", cfg.StorageLocation(), "tasks", s.Len())
	return a, nil
}

// Close releases the backend, writes the metrics file and closes the run log.
func (a *app) Close() error {
	var errs []error
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing backend: %w", err))
		}
	}
	if a.cfg.MetricsFile != "" {
		if err := os.MkdirAll(filepath.Dir(a.cfg.MetricsFile), 0o755); err != nil {
			errs = append(errs, err)
		} else if err := metrics.WriteTextfile(a.cfg.MetricsFile, a.registry); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.runLog.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Printf("taskboard version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Taskboard - A personal task manager")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  taskboard [global options] [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  add <title>       Add a task")
	fmt.Fprintln(w, "  edit <id>         Edit a task")
	fmt.Fprintln(w, "  rm <id>           Delete a task")
	fmt.Fprintln(w, "  toggle <id>       Flip a task between pending and completed")
	fmt.Fprintln(w, "  show <id>         Show one task")
	fmt.Fprintln(w, "  ls                List tasks (default command)")
	fmt.Fprintln(w, "  stats             Show task statistics")
	fmt.Fprintln(w, "  export            Export tasks as json, csv or pdf")
	fmt.Fprintln(w, "  import <file>     Replace all tasks with an exported json file")
	fmt.Fprintln(w, "  tui               Launch terminal UI")
	fmt.Fprintln(w, "  doctor            Check config and storage")
	fmt.Fprintln(w, "  logs              Show the latest run log")
	fmt.Fprintln(w, "  config [show|example]")
	fmt.Fprintln(w, "                    Show resolved config or an example file")
	fmt.Fprintln(w, "  version           Show version information")
	fmt.Fprintln(w, "  help              Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Add/Edit Options:")
	fmt.Fprintln(w, "  -d string     Description")
	fmt.Fprintln(w, "  -due string   Deadline (YYYY-MM-DD, YYYY-MM-DDTHH:MM or RFC 3339)")
	fmt.Fprintln(w, "  -p string     Priority (low|medium|high)")
	fmt.Fprintln(w, "  -c string     Category (work|personal|shopping|health|other)")
	fmt.Fprintln(w, "  -t string     New title (edit only)")
	fmt.Fprintln(w, "  -clear-due    Remove the deadline (edit only)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options:")
	fmt.Fprintln(w, "  -filter string  all|pending|completed|overdue|today|upcoming")
	fmt.Fprintln(w, "  -q string       Search title, description and category")
	fmt.Fprintln(w, "  -sort string    newest|oldest|deadline|priority|title")
	fmt.Fprintln(w, "  -json           Print JSON")
	fmt.Fprintln(w, "  -v              Show more details")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export Options:")
	fmt.Fprintln(w, "  -format string  json|csv|pdf (default json)")
	fmt.Fprintln(w, "  -o string       Output path, - for stdout (default tasks-export-<date>.<ext>)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Logs Options:")
	fmt.Fprintln(w, "  -f, -follow     Follow the log (like tail -f)")
	fmt.Fprintln(w, "  -n int          Number of lines to show (0 = all)")
}

// parseArgs parses fs flags anywhere in args and returns the positional
// arguments in order.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}
