package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/nibzard/taskboard/internal/export"
)

// exportCommand writes the collection in the requested format.
func exportCommand(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("taskboard export", flag.ContinueOnError)
	format := fs.String("format", string(export.FormatJSON), "Format (json|csv|pdf)")
	out := fs.String("o", "", "Output path, - for stdout")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("unexpected arguments: %v", positional)
	}
	f, err := export.ParseFormat(*format)
	if err != nil {
		return err
	}

	snap := a.board.ExportSnapshot()
	if *out == "-" {
		return export.Write(os.Stdout, f, snap)
	}

	path := *out
	if path == "" {
		path = export.DefaultFilename(f, snap.ExportedAt)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := export.Write(file, f, snap); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Printf("Exported %d tasks to %s\n", snap.TotalTasks, path)
	return nil
}

// importCommand replaces the collection with an exported JSON file.
func importCommand(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: taskboard import <file>")
	}
	path := args[0]

	select {
	case res := <-a.board.ImportFile(ctx, path):
		if res.Err != nil {
			return fmt.Errorf("importing %s: %w", path, res.Err)
		}
		fmt.Printf("Imported %d tasks from %s\n", res.Count, path)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
