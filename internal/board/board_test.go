package board

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskboard/internal/blob"
	"github.com/nibzard/taskboard/internal/query"
	"github.com/nibzard/taskboard/internal/store"
	"github.com/nibzard/taskboard/internal/task"
)

func newTestBoard(t *testing.T) *Board {
	t.Helper()
	clock := time.Date(2024, 10, 18, 9, 0, 0, 0, time.UTC)
	tick := func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	s := store.New(context.Background(), blob.NewMemoryStore(),
		store.WithLogger(log.New(io.Discard)),
		store.WithClock(tick),
	)
	e := query.New(query.WithClock(func() time.Time { return clock }))
	return New(s, e)
}

func TestBoardDefaults(t *testing.T) {
	b := newTestBoard(t)
	if b.Sort() != query.SortNewest {
		t.Errorf("Sort: got %q, want newest", b.Sort())
	}
	if b.View() != ViewList {
		t.Errorf("View: got %q, want list", b.View())
	}
	b.SetView(ParseView("GRID"))
	if b.View() != ViewGrid {
		t.Errorf("View after SetView: got %q", b.View())
	}
	if ParseView("table") != ViewList {
		t.Error("unknown view should fall back to list")
	}
}

func TestBoardGetTasksUsesSort(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	a, _ := b.AddTask(ctx, task.Input{Title: "A", Priority: task.PriorityHigh})
	bb, _ := b.AddTask(ctx, task.Input{Title: "B", Priority: task.PriorityLow})

	got := b.GetTasks(query.FilterAll, "")
	if len(got) != 2 || got[0].ID != bb.ID {
		t.Fatalf("newest: got %+v", got)
	}

	b.SetSort(query.SortPriority)
	got = b.GetTasks(query.FilterAll, "")
	if got[0].ID != a.ID {
		t.Errorf("priority: first got %q, want %q", got[0].ID, a.ID)
	}
}

func TestBoardStats(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	x, _ := b.AddTask(ctx, task.Input{Title: "x", Priority: task.PriorityHigh})
	b.AddTask(ctx, task.Input{Title: "y"})
	b.ToggleTask(ctx, x.ID)

	stats := b.GetStats()
	if stats.Total != 2 || stats.Completed != 1 || stats.Pending != 1 {
		t.Errorf("GetStats = %+v", stats)
	}
	if adv := b.GetAdvancedStats(); adv.HighPriority != 0 {
		t.Errorf("completed high-priority task counted: %+v", adv)
	}
	if st := b.GetDeadlineStatus(task.Task{}); st.Status != query.StatusNone {
		t.Errorf("GetDeadlineStatus: got %q", st.Status)
	}
}

func TestImportFile(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	b.AddTask(ctx, task.Input{Title: "to be replaced"})

	path := filepath.Join(t.TempDir(), "tasks-export.json")
	payload := `{"exportedAt": "2024-10-18T09:00:00Z", "totalTasks": 1, "tasks": [{"id": 42, "title": "imported"}]}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	res := <-b.ImportFile(ctx, path)
	if res.Err != nil || res.Count != 1 {
		t.Fatalf("ImportFile: got %+v", res)
	}
	if _, ok := b.GetTaskByID("42"); !ok {
		t.Error("imported task missing")
	}
}

func TestImportFileErrors(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	dir := t.TempDir()

	res := <-b.ImportFile(ctx, filepath.Join(dir, "missing.json"))
	if !errors.Is(res.Err, task.ErrRead) || !errors.Is(res.Err, os.ErrNotExist) {
		t.Errorf("missing file: got %v, want ErrRead wrapping ErrNotExist", res.Err)
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"task": []}`), 0o644)
	res = <-b.ImportFile(ctx, bad)
	if !errors.Is(res.Err, task.ErrFormat) {
		t.Errorf("bad shape: got %v, want ErrFormat", res.Err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	res = <-b.ImportFile(cancelled, bad)
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("cancelled: got %v, want context.Canceled", res.Err)
	}
}

func TestEditAndDelete(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	created, _ := b.AddTask(ctx, task.Input{Title: "draft"})

	if _, err := b.EditTask(ctx, created.ID, task.Input{Title: "final"}); err != nil {
		t.Fatalf("EditTask failed: %v", err)
	}
	if got, _ := b.GetTaskByID(created.ID); got.Title != "final" {
		t.Errorf("Title: got %q", got.Title)
	}
	if err := b.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if snap := b.ExportSnapshot(); snap.TotalTasks != 0 {
		t.Errorf("TotalTasks: got %d, want 0", snap.TotalTasks)
	}
}

func TestHelpers(t *testing.T) {
	if CategoryColor("unknown") != CategoryColor(task.CategoryOther) {
		t.Error("unknown category should use the other color")
	}
	if CategoryIcon(task.CategoryWork) != "fa-briefcase" {
		t.Errorf("CategoryIcon(work) = %q", CategoryIcon(task.CategoryWork))
	}
	d := time.Date(2024, 3, 5, 7, 8, 0, 0, time.UTC)
	if got := FormatDateForInput(&d); got != "2024-03-05T07:08" {
		t.Errorf("FormatDateForInput = %q", got)
	}
	if got := FormatDate(d); got != "5 Mar 2024 07:08" {
		t.Errorf("FormatDate = %q", got)
	}
}
