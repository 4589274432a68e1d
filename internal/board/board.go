// Package board is the boundary the command line and terminal UI talk to.
// It pairs the task store with the query engine and remembers the current
// sort and view modes.
package board

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/nibzard/taskboard/internal/query"
	"github.com/nibzard/taskboard/internal/store"
	"github.com/nibzard/taskboard/internal/task"
)

// View is the presentation layout of the task list.
type View string

const (
	ViewList View = "list"
	ViewGrid View = "grid"
)

// ParseView maps a user string to a view. Unknown values are ViewList.
func ParseView(s string) View {
	if View(strings.ToLower(strings.TrimSpace(s))) == ViewGrid {
		return ViewGrid
	}
	return ViewList
}

// Board combines a Store and an Engine.
type Board struct {
	store  *store.Store
	engine *query.Engine

	mu   sync.Mutex
	sort query.Sort
	view View
}

// New returns a board sorted newest first in list view.
func New(s *store.Store, e *query.Engine) *Board {
	if e == nil {
		e = query.New()
	}
	return &Board{store: s, engine: e, sort: query.SortNewest, view: ViewList}
}

// Store returns the underlying task store.
func (b *Board) Store() *store.Store { return b.store }

// Engine returns the underlying query engine.
func (b *Board) Engine() *query.Engine { return b.engine }

// SetSort sets the sort used by GetTasks.
func (b *Board) SetSort(s query.Sort) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sort = s
}

// Sort returns the current sort.
func (b *Board) Sort() query.Sort {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sort
}

// SetView sets the view mode.
func (b *Board) SetView(v View) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.view = v
}

// View returns the view mode.
func (b *Board) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view
}

// AddTask creates a task from in.
func (b *Board) AddTask(ctx context.Context, in task.Input) (task.Task, error) {
	return b.store.AddTask(ctx, in)
}

// EditTask replaces the editable fields of task id.
func (b *Board) EditTask(ctx context.Context, id task.ID, in task.Input) (task.Task, error) {
	return b.store.EditTask(ctx, id, in)
}

// DeleteTask removes task id.
func (b *Board) DeleteTask(ctx context.Context, id task.ID) error {
	return b.store.DeleteTask(ctx, id)
}

// ToggleTask flips task id between pending and completed.
func (b *Board) ToggleTask(ctx context.Context, id task.ID) (task.Task, error) {
	return b.store.ToggleTask(ctx, id)
}

// GetTaskByID returns the task with id, if any.
func (b *Board) GetTaskByID(id task.ID) (task.Task, bool) {
	return b.store.GetTaskByID(id)
}

// GetTasks returns the tasks matching filter and search in the current sort.
func (b *Board) GetTasks(filter query.Filter, search string) []task.Task {
	return b.engine.Tasks(b.store.Tasks(), filter, search, b.Sort())
}

// GetStats counts total, completed, pending and overdue tasks.
func (b *Board) GetStats() query.Stats {
	return b.engine.Stats(b.store.Tasks())
}

// GetAdvancedStats counts high-priority tasks and tasks due today or this week.
func (b *Board) GetAdvancedStats() query.AdvancedStats {
	return b.engine.AdvancedStats(b.store.Tasks())
}

// GetDeadlineStatus describes how close t is to its deadline.
func (b *Board) GetDeadlineStatus(t task.Task) query.DeadlineStatus {
	return b.engine.DeadlineStatus(t)
}

// ExportSnapshot returns the collection as an export bundle.
func (b *Board) ExportSnapshot() store.Snapshot {
	return b.store.ExportSnapshot()
}

// ImportSnapshot replaces the collection with the valid tasks in payload.
func (b *Board) ImportSnapshot(ctx context.Context, payload []byte) (int, error) {
	return b.store.ImportSnapshot(ctx, payload)
}

// ImportFile imports the snapshot at path in the background. The channel
// delivers one result and is closed.
func (b *Board) ImportFile(ctx context.Context, path string) <-chan store.ImportResult {
	return b.store.ImportAsync(ctx, func(ctx context.Context) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return data, nil
	})
}

// FormatDate renders t for display.
func FormatDate(t time.Time) string { return task.FormatDate(t) }

// FormatDateForInput renders t as YYYY-MM-DDTHH:MM, or "" when t is nil.
func FormatDateForInput(t *time.Time) string { return task.FormatDateForInput(t) }

// CategoryColor returns the display color of c.
func CategoryColor(c task.Category) string { return task.CategoryColor(c) }

// CategoryIcon returns the icon name of c.
func CategoryIcon(c task.Category) string { return task.CategoryIcon(c) }
