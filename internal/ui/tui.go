// Package ui provides the interactive terminal board.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/taskboard/internal/board"
	"github.com/nibzard/taskboard/internal/query"
	"github.com/nibzard/taskboard/internal/store"
	"github.com/nibzard/taskboard/internal/task"
)

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiModel)

// WithTickInterval sets how often deadline labels are recomputed.
func WithTickInterval(d time.Duration) TUIOption {
	return func(m *tuiModel) {
		if d > 0 {
			m.tickInterval = d
		}
	}
}

// WithLocation sets the location quick-add deadlines are read in.
func WithLocation(loc *time.Location) TUIOption {
	return func(m *tuiModel) {
		if loc != nil {
			m.loc = loc
		}
	}
}

// WithFilter sets the initial filter.
func WithFilter(f query.Filter) TUIOption {
	return func(m *tuiModel) {
		m.filter = f
	}
}

// RunTUI starts the board UI and blocks until the user quits or ctx is done.
func RunTUI(ctx context.Context, b *board.Board, opts ...TUIOption) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	model := newTUIModel(ctx, b, opts...)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type mode int

const (
	modeList mode = iota
	modeSearch
	modeAdd
	modeImport
	modeConfirmDelete
)

type tuiModel struct {
	ctx          context.Context
	board        *board.Board
	loc          *time.Location
	tickInterval time.Duration

	filter query.Filter
	search string
	tasks  []task.Task
	cursor int
	width  int

	mode      mode
	input     textinput.Model
	pending   *task.Task
	importing bool
	status    string
	showHelp  bool
}

type tickMsg time.Time

type importDoneMsg struct {
	result store.ImportResult
}

func newTUIModel(ctx context.Context, b *board.Board, opts ...TUIOption) *tuiModel {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50

	m := &tuiModel{
		ctx:          ctx,
		board:        b,
		loc:          time.Local,
		tickInterval: time.Second,
		filter:       query.FilterAll,
		width:        80,
		input:        ti,
		status:       "Press a to add, space to toggle, / to search, ? for help.",
	}
	for _, opt := range opts {
		opt(m)
	}
	m.refresh()
	return m
}

func (m *tuiModel) Init() tea.Cmd {
	return tickCmd(m.tickInterval)
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeAdd:
			return m.updateAdd(msg)
		case modeImport:
			return m.updateImport(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg.String())
		}
		return m.updateList(msg.String())
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(10, msg.Width-20)
	case tickMsg:
		m.refresh()
		return m, tickCmd(m.tickInterval)
	case importDoneMsg:
		m.importing = false
		if msg.result.Err != nil {
			m.status = "Import failed: " + msg.result.Err.Error()
		} else {
			m.status = fmt.Sprintf("Imported %d tasks", msg.result.Count)
		}
		m.refresh()
	}
	return m, nil
}

func (m *tuiModel) updateList(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return m, tea.Quit
	case "h", "?":
		m.showHelp = !m.showHelp
	case "j", "down", "right":
		m.cursor = clampCursor(m.cursor+1, len(m.tasks))
	case "k", "up", "left":
		m.cursor = clampCursor(m.cursor-1, len(m.tasks))
	case "tab":
		m.setFilter(cycle(query.Filters(), m.filter, 1))
	case "shift+tab":
		m.setFilter(cycle(query.Filters(), m.filter, -1))
	case "0", "1", "2", "3", "4", "5":
		n, _ := strconv.Atoi(key)
		m.setFilter(query.Filters()[n])
	case "s":
		next := cycle(query.Sorts(), m.board.Sort(), 1)
		m.board.SetSort(next)
		m.status = "Sorted by " + string(next)
		m.refresh()
	case "v":
		if m.board.View() == board.ViewGrid {
			m.board.SetView(board.ViewList)
		} else {
			m.board.SetView(board.ViewGrid)
		}
	case " ", "x", "enter":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		updated, err := m.board.ToggleTask(m.ctx, t.ID)
		if err != nil {
			m.status = "Toggle failed: " + err.Error()
			return m, nil
		}
		if updated.Completed {
			m.status = "Completed " + updated.Title
		} else {
			m.status = "Reopened " + updated.Title
		}
		m.refresh()
	case "d":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.pending = &t
		m.mode = modeConfirmDelete
		m.status = fmt.Sprintf("Delete %q? y/n", t.Title)
	case "/":
		m.startInput(modeSearch, "search", m.search)
	case "a":
		m.startInput(modeAdd, "Title !priority #category @deadline", "")
	case "i":
		if m.importing {
			m.status = "Import already running"
			return m, nil
		}
		m.startInput(modeImport, "path/to/tasks-export.json", "")
	case "r", "f5":
		n := m.board.Store().Reload(m.ctx)
		m.status = fmt.Sprintf("Reloaded %d tasks", n)
		m.refresh()
	case "esc":
		if m.search != "" {
			m.search = ""
			m.refresh()
		}
	}
	return m, nil
}

func (m *tuiModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search = ""
		m.stopInput()
		m.refresh()
		return m, nil
	case "enter":
		m.stopInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.search = m.input.Value()
	m.refresh()
	return m, cmd
}

func (m *tuiModel) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stopInput()
		m.status = "Cancelled"
		return m, nil
	case "enter":
		in, err := parseQuickAdd(m.input.Value(), m.loc)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		created, err := m.board.AddTask(m.ctx, in)
		if err != nil {
			m.status = "Add failed: " + err.Error()
			return m, nil
		}
		m.stopInput()
		m.status = "Added " + created.Title
		m.refresh()
		m.selectID(created.ID)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *tuiModel) updateImport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stopInput()
		m.status = "Cancelled"
		return m, nil
	case "enter":
		path := strings.TrimSpace(m.input.Value())
		if path == "" {
			m.status = "Enter a file path"
			return m, nil
		}
		m.stopInput()
		m.importing = true
		m.status = "Importing " + path + "..."
		return m, waitForImport(m.board.ImportFile(m.ctx, path))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *tuiModel) updateConfirmDelete(key string) (tea.Model, tea.Cmd) {
	t := m.pending
	m.pending = nil
	m.mode = modeList
	if t == nil || (key != "y" && key != "Y") {
		m.status = "Delete cancelled"
		return m, nil
	}
	if err := m.board.DeleteTask(m.ctx, t.ID); err != nil {
		m.status = "Delete failed: " + err.Error()
		return m, nil
	}
	m.status = "Deleted " + t.Title
	m.refresh()
	return m, nil
}

func (m *tuiModel) startInput(md mode, placeholder, value string) {
	m.mode = md
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *tuiModel) stopInput() {
	m.mode = modeList
	m.input.Blur()
	m.input.SetValue("")
}

func (m *tuiModel) setFilter(f query.Filter) {
	m.filter = f
	m.cursor = 0
	m.refresh()
}

func (m *tuiModel) refresh() {
	m.tasks = m.board.GetTasks(m.filter, m.search)
	m.cursor = clampCursor(m.cursor, len(m.tasks))
}

func (m *tuiModel) selected() (task.Task, bool) {
	if len(m.tasks) == 0 {
		return task.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func (m *tuiModel) selectID(id task.ID) {
	for i, t := range m.tasks {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForImport(ch <-chan store.ImportResult) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			res.Err = errors.New("import aborted")
		}
		return importDoneMsg{result: res}
	}
}

// cycle returns the element step positions after cur, wrapping around.
// An unknown cur starts from the first element.
func cycle[T comparable](all []T, cur T, step int) T {
	for i, v := range all {
		if v == cur {
			return all[((i+step)%len(all)+len(all))%len(all)]
		}
	}
	return all[0]
}

func clampCursor(cur, n int) int {
	if n == 0 || cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
