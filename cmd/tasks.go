package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nibzard/taskboard/internal/board"
	"github.com/nibzard/taskboard/internal/query"
	"github.com/nibzard/taskboard/internal/task"
	"github.com/nibzard/taskboard/internal/ui"
)

// addCommand creates a task from the positional title and flags.
func addCommand(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("taskboard add", flag.ContinueOnError)
	desc := fs.String("d", "", "Description")
	due := fs.String("due", "", "Deadline")
	priority := fs.String("p", "", "Priority (low|medium|high)")
	category := fs.String("c", "", "Category (work|personal|shopping|health|other)")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	in := task.Input{
		Title:       strings.Join(positional, " "),
		Description: *desc,
		Priority:    task.Priority(*priority),
		Category:    task.Category(*category),
	}
	if *due != "" {
		d, err := task.ParseDeadline(*due, time.Local)
		if err != nil {
			return err
		}
		in.Deadline = &d
	}

	created, err := a.board.AddTask(ctx, in)
	if err != nil {
		return fmt.Errorf("adding task: %w", err)
	}
	fmt.Printf("Added %s\n", created.ID)
	printTask(a.board, created, false)
	return nil
}

// editCommand changes the fields named by flags and keeps the rest.
func editCommand(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("taskboard edit", flag.ContinueOnError)
	title := fs.String("t", "", "Title")
	desc := fs.String("d", "", "Description")
	due := fs.String("due", "", "Deadline")
	clearDue := fs.Bool("clear-due", false, "Remove the deadline")
	priority := fs.String("p", "", "Priority (low|medium|high)")
	category := fs.String("c", "", "Category (work|personal|shopping|health|other)")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	id, err := singleID(positional)
	if err != nil {
		return err
	}
	current, ok := a.board.GetTaskByID(id)
	if !ok {
		return &task.NotFoundError{ID: id}
	}

	in := task.Input{
		Title:       current.Title,
		Description: current.Description,
		Deadline:    current.Deadline,
		Priority:    current.Priority,
		Category:    current.Category,
	}
	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			in.Title = *title
		case "d":
			in.Description = *desc
		case "p":
			in.Priority = task.Priority(*priority)
		case "c":
			in.Category = task.Category(*category)
		case "due":
			d, err := task.ParseDeadline(*due, time.Local)
			if err != nil {
				parseErr = err
				return
			}
			in.Deadline = &d
		}
	})
	if parseErr != nil {
		return parseErr
	}
	if *clearDue {
		in.Deadline = nil
	}

	updated, err := a.board.EditTask(ctx, id, in)
	if err != nil {
		return fmt.Errorf("editing task: %w", err)
	}
	fmt.Printf("Updated %s\n", updated.ID)
	printTask(a.board, updated, false)
	return nil
}

// rmCommand deletes a task.
func rmCommand(ctx context.Context, a *app, args []string) error {
	id, err := singleID(args)
	if err != nil {
		return err
	}
	if err := a.board.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
}

// toggleCommand flips a task between pending and completed.
func toggleCommand(ctx context.Context, a *app, args []string) error {
	id, err := singleID(args)
	if err != nil {
		return err
	}
	t, err := a.board.ToggleTask(ctx, id)
	if err != nil {
		return fmt.Errorf("toggling task: %w", err)
	}
	if t.Completed {
		fmt.Printf("Completed %s: %s\n", t.ID, t.Title)
	} else {
		fmt.Printf("Reopened %s: %s\n", t.ID, t.Title)
	}
	return nil
}

// showCommand prints every field of one task.
func showCommand(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("taskboard show", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print JSON")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	id, err := singleID(positional)
	if err != nil {
		return err
	}
	t, ok := a.board.GetTaskByID(id)
	if !ok {
		return &task.NotFoundError{ID: id}
	}
	if *asJSON {
		return printJSON(t)
	}

	status := "pending"
	if t.Completed {
		status = "completed"
	}
	ds := a.board.GetDeadlineStatus(t)
	fmt.Printf("ID:          %s\n", t.ID)
	fmt.Printf("Title:       %s\n", t.Title)
	if t.Description != "" {
		fmt.Printf("Description: %s\n", t.Description)
	}
	fmt.Printf("Status:      %s\n", status)
	fmt.Printf("Priority:    %s\n", t.Priority)
	fmt.Printf("Category:    %s (%s)\n", t.Category, board.CategoryColor(t.Category))
	if t.Deadline != nil {
		fmt.Printf("Deadline:    %s (%s)\n", board.FormatDate(*t.Deadline), ds.Text)
	} else {
		fmt.Printf("Deadline:    %s\n", ds.Text)
	}
	fmt.Printf("Created:     %s\n", board.FormatDate(t.CreatedAt))
	fmt.Printf("Updated:     %s\n", board.FormatDate(t.UpdatedAt))
	return nil
}

// lsCommand lists tasks through the query engine.
func lsCommand(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("taskboard ls", flag.ContinueOnError)
	filter := fs.String("filter", string(query.FilterAll), "Filter (all|pending|completed|overdue|today|upcoming)")
	search := fs.String("q", "", "Search text")
	sortMode := fs.String("sort", "", "Sort (newest|oldest|deadline|priority|title)")
	asJSON := fs.Bool("json", false, "Print JSON")
	verbose := fs.Bool("v", false, "Show more details")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		*filter = positional[0]
	}
	if len(positional) > 1 {
		return fmt.Errorf("unexpected arguments: %v", positional[1:])
	}
	if *sortMode != "" {
		s := query.ParseSort(*sortMode)
		if !s.Known() {
			return fmt.Errorf("unknown sort %q", *sortMode)
		}
		a.board.SetSort(s)
	}

	tasks := a.board.GetTasks(query.ParseFilter(*filter), *search)
	if *asJSON {
		return printJSON(tasks)
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return nil
	}
	for _, t := range tasks {
		printTask(a.board, t, *verbose)
	}
	return nil
}

// statsCommand prints the counters shown above the task list.
func statsCommand(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("taskboard stats", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stats := a.board.GetStats()
	adv := a.board.GetAdvancedStats()
	if *asJSON {
		return printJSON(struct {
			query.Stats
			query.AdvancedStats
		}{stats, adv})
	}
	fmt.Printf("Total:         %d\n", stats.Total)
	fmt.Printf("Completed:     %d\n", stats.Completed)
	fmt.Printf("Pending:       %d\n", stats.Pending)
	fmt.Printf("Overdue:       %d\n", stats.Overdue)
	fmt.Printf("High priority: %d\n", adv.HighPriority)
	fmt.Printf("Due today:     %d\n", adv.DueToday)
	fmt.Printf("Due this week: %d\n", adv.DueThisWeek)
	return nil
}

// tuiCommand launches the TUI.
func tuiCommand(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("taskboard tui", flag.ContinueOnError)
	filter := fs.String("filter", string(query.FilterAll), "Initial filter")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return ui.RunTUI(ctx, a.board, ui.WithFilter(query.ParseFilter(*filter)))
}

// printTask prints a single task line.
func printTask(b *board.Board, t task.Task, verbose bool) {
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}
	ds := b.GetDeadlineStatus(t)
	fmt.Printf("  %s %s  %s  (%s, %s)  %s\n", check, t.ID, t.Title, t.Priority, t.Category, ds.Text)

	if verbose {
		if t.Description != "" {
			fmt.Printf("      Description: %s\n", t.Description)
		}
		fmt.Printf("      Created: %s  Updated: %s\n", board.FormatDate(t.CreatedAt), board.FormatDate(t.UpdatedAt))
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// singleID returns the only positional argument as a task id.
func singleID(args []string) (task.ID, error) {
	switch len(args) {
	case 0:
		return "", fmt.Errorf("missing task id")
	case 1:
		return task.ID(strings.TrimSpace(args[0])), nil
	default:
		return "", fmt.Errorf("unexpected arguments: %v", args[1:])
	}
}
