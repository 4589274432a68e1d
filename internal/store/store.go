// Package store owns the task collection and persists it to a blob backend.
//
// The in-memory collection is authoritative for the running process. Every
// mutation writes the whole collection back to the backend before
// returning; a failed write is logged and counted but never returned, so
// the session keeps working when storage is unavailable.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskboard/internal/blob"
	"github.com/nibzard/taskboard/internal/metrics"
	"github.com/nibzard/taskboard/internal/task"
)

// DefaultKey is the blob key holding the task array.
const DefaultKey = "tasks"

// Store is the authoritative task collection.
// Tasks are ordered newest first by insertion.
type Store struct {
	mu      sync.Mutex
	backend blob.Store
	key     string
	logger  *log.Logger
	now     func() time.Time
	ids     IDGenerator
	metrics *metrics.Store
	tasks   []task.Task
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the default TimeIDs generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithMetrics records store activity in m.
func WithMetrics(m *metrics.Store) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithKey sets the blob key. The default is DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// New creates a store over backend and loads the persisted collection.
// It never fails: unreadable or unparsable storage yields an empty store.
func New(ctx context.Context, backend blob.Store, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		logger:  log.Default(),
		now:     time.Now,
		ids:     &TimeIDs{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tasks = s.Load(ctx)
	s.metrics.SetTasks(len(s.tasks))
	return s
}

// Load reads and validates the persisted collection without changing the
// store. Invalid records are dropped; a missing, unreadable or unparsable
// payload yields an empty collection.
func (s *Store) Load(ctx context.Context) []task.Task {
	data, err := s.backend.Get(ctx, s.key)
	if errors.Is(err, blob.ErrNotFound) {
		s.logger.Debug("No stored tasks", "key", s.key)
		return []task.Task{}
	}
	if err != nil {
		s.logger.Error("Error loading tasks", "key", s.key, "err", err)
		return []task.Task{}
	}

	tasks, rejected, err := task.DecodeList(data)
	if err != nil {
		s.logger.Error("Error loading tasks", "key", s.key, "err", err)
		return []task.Task{}
	}
	tasks, dupes := dedupe(tasks)
	rejected = append(rejected, dupes...)
	s.logRejected("load", rejected)
	return tasks
}

// Reload replaces the in-memory collection with the persisted one.
func (s *Store) Reload(ctx context.Context) int {
	tasks := s.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks
	s.metrics.SetTasks(len(s.tasks))
	return len(s.tasks)
}

// Tasks returns a copy of the collection in store order.
func (s *Store) Tasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.tasks)
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// GetTaskByID returns the task with id, or false when there is none.
func (s *Store) GetTaskByID(id task.ID) (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return task.Task{}, false
}

// AddTask creates a task at the front of the collection.
func (s *Store) AddTask(ctx context.Context, in task.Input) (task.Task, error) {
	in, err := in.Normalize()
	if err != nil {
		return task.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	t := task.Task{
		ID:          s.ids.NewID(now, func(id task.ID) bool { return s.indexOf(id) >= 0 }),
		Title:       in.Title,
		Description: in.Description,
		Deadline:    in.Deadline,
		Priority:    in.Priority,
		Category:    in.Category,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks = append([]task.Task{t}, s.tasks...)
	s.mutated(ctx, "add")
	return t.Clone(), nil
}

// EditTask overwrites every editable field of the task with id.
func (s *Store) EditTask(ctx context.Context, id task.ID, in task.Input) (task.Task, error) {
	in, err := in.Normalize()
	if err != nil {
		return task.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return task.Task{}, &task.NotFoundError{ID: id}
	}
	t := &s.tasks[i]
	t.Title = in.Title
	t.Description = in.Description
	t.Deadline = in.Deadline
	t.Priority = in.Priority
	t.Category = in.Category
	s.touch(t)
	s.mutated(ctx, "edit")
	return t.Clone(), nil
}

// DeleteTask removes the task with id.
func (s *Store) DeleteTask(ctx context.Context, id task.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return &task.NotFoundError{ID: id}
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.mutated(ctx, "delete")
	return nil
}

// ToggleTask flips the completed flag of the task with id.
func (s *Store) ToggleTask(ctx context.Context, id task.ID) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return task.Task{}, &task.NotFoundError{ID: id}
	}
	t := &s.tasks[i]
	t.Completed = !t.Completed
	s.touch(t)
	s.mutated(ctx, "toggle")
	return t.Clone(), nil
}

// Snapshot is the export bundle.
type Snapshot struct {
	ExportedAt time.Time   `json:"exportedAt"`
	TotalTasks int         `json:"totalTasks"`
	Tasks      []task.Task `json:"tasks"`
}

// ExportSnapshot returns the current collection as an export bundle.
func (s *Store) ExportSnapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ExportedAt: s.clock().UTC(),
		TotalTasks: len(s.tasks),
		Tasks:      cloneAll(s.tasks),
	}
}

// ImportSnapshot replaces the whole collection with the valid records of
// payload and returns how many were accepted. It fails with a
// *task.ParseError for invalid JSON and task.ErrFormat when the payload
// has no tasks array; in both cases the collection is unchanged.
func (s *Store) ImportSnapshot(ctx context.Context, payload []byte) (int, error) {
	tasks, rejected, err := task.DecodeSnapshot(payload)
	if err != nil {
		return 0, err
	}
	tasks, dupes := dedupe(tasks)
	rejected = append(rejected, dupes...)
	s.logRejected("import", rejected)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks
	s.mutated(ctx, "import")
	s.logger.Info("Imported tasks", "accepted", len(tasks), "dropped", len(rejected))
	return len(tasks), nil
}

// FileReader produces the content of an import file.
type FileReader func(ctx context.Context) ([]byte, error)

// ImportResult is the outcome of an asynchronous import.
type ImportResult struct {
	Count int
	Err   error
}

// ImportAsync reads with read in a new goroutine, then imports the content.
// The returned channel delivers exactly one result and is then closed.
// Concurrent imports are not serialized: the last one to finish wins.
func (s *Store) ImportAsync(ctx context.Context, read FileReader) <-chan ImportResult {
	ch := make(chan ImportResult, 1)
	go func() {
		defer close(ch)
		data, err := read(ctx)
		if err != nil {
			ch <- ImportResult{Err: fmt.Errorf("%w: %w", task.ErrRead, err)}
			return
		}
		n, err := s.ImportSnapshot(ctx, data)
		ch <- ImportResult{Count: n, Err: err}
	}()
	return ch
}

// clock returns the current time without its monotonic reading.
func (s *Store) clock() time.Time {
	return s.now().Round(0)
}

// touch refreshes UpdatedAt, keeping it strictly increasing even when the
// clock has not moved since the last mutation.
func (s *Store) touch(t *task.Task) {
	now := s.clock()
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Millisecond)
	}
	t.UpdatedAt = now
}

func (s *Store) indexOf(id task.ID) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// mutated persists and records a completed mutation. Callers hold s.mu.
func (s *Store) mutated(ctx context.Context, op string) {
	s.persist(ctx)
	s.metrics.Mutation(op)
	s.metrics.SetTasks(len(s.tasks))
}

// persist writes the collection to the backend. Failures are logged only.
func (s *Store) persist(ctx context.Context) {
	data, err := json.Marshal(s.tasks)
	if err != nil {
		s.logger.Error("Error saving tasks", "key", s.key, "err", err)
		s.metrics.PersistFailed()
		return
	}
	if err := s.backend.Set(ctx, s.key, data); err != nil {
		s.logger.Error("Error saving tasks", "key", s.key, "err", err)
		s.metrics.PersistFailed()
	}
}

func (s *Store) logRejected(source string, rejected []error) {
	if len(rejected) == 0 {
		return
	}
	for _, err := range rejected {
		s.logger.Debug("Dropped invalid task record", "source", source, "err", err)
	}
	s.logger.Warn("Dropped invalid task records", "source", source, "count", len(rejected))
	s.metrics.Dropped(source, len(rejected))
}

// dedupe keeps the first task for each id.
func dedupe(tasks []task.Task) ([]task.Task, []error) {
	seen := make(map[task.ID]bool, len(tasks))
	out := tasks[:0]
	var dupes []error
	for _, t := range tasks {
		if seen[t.ID] {
			dupes = append(dupes, &task.RecordError{Path: "id", Err: fmt.Errorf("duplicate id %q", string(t.ID))})
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out, dupes
}

func cloneAll(tasks []task.Task) []task.Task {
	out := make([]task.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
