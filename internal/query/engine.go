// Package query derives filtered, sorted views and aggregate counts from a
// task collection. It never mutates its input.
package query

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/nibzard/taskboard/internal/task"
)

// Filter narrows a view to tasks matching a named predicate.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterCompleted Filter = "completed"
	FilterPending   Filter = "pending"
	FilterOverdue   Filter = "overdue"
	FilterToday     Filter = "today"
	FilterUpcoming  Filter = "upcoming"
)

// Filters returns all filters in display order.
func Filters() []Filter {
	return []Filter{FilterAll, FilterPending, FilterCompleted, FilterOverdue, FilterToday, FilterUpcoming}
}

// ParseFilter maps a user string to a filter. Unknown values are FilterAll.
func ParseFilter(s string) Filter {
	f := Filter(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Filters(), f) {
		return f
	}
	return FilterAll
}

// Sort orders a view.
type Sort string

const (
	SortNewest   Sort = "newest"
	SortOldest   Sort = "oldest"
	SortDeadline Sort = "deadline"
	SortPriority Sort = "priority"
	SortTitle    Sort = "title"
)

// Sorts returns all sort modes in display order.
func Sorts() []Sort {
	return []Sort{SortNewest, SortOldest, SortDeadline, SortPriority, SortTitle}
}

// ParseSort maps a user string to a sort mode. Unknown values are returned
// as-is and leave the view in input order.
func ParseSort(s string) Sort {
	return Sort(strings.ToLower(strings.TrimSpace(s)))
}

// Known reports whether s is one of Sorts().
func (s Sort) Known() bool {
	return slices.Contains(Sorts(), s)
}

const (
	day  = 24 * time.Hour
	week = 7 * day
)

// Engine evaluates views relative to a clock and a collation locale.
// The zero value is not usable; call New.
type Engine struct {
	now    func() time.Time
	locale language.Tag
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now. Calendar days are taken in the location of
// the returned time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocale sets the collation locale used by SortTitle.
func WithLocale(tag language.Tag) Option {
	return func(e *Engine) {
		e.locale = tag
	}
}

// New returns an Engine using the local clock and the root locale.
func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now, locale: language.Und}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Locale returns the collation locale.
func (e *Engine) Locale() language.Tag {
	return e.locale
}

// Tasks returns the tasks matching search and filter, ordered by sort.
// Search is applied first, then the filter, then the sort. The result is a
// new slice; tasks is never reordered.
func (e *Engine) Tasks(tasks []task.Task, filter Filter, search string, sort Sort) []task.Task {
	now := e.now()
	query := strings.ToLower(search)

	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if query != "" && !matches(t, query) {
			continue
		}
		if !e.keep(t, filter, now) {
			continue
		}
		out = append(out, t)
	}
	e.sort(out, sort)
	return out
}

func matches(t task.Task, query string) bool {
	return strings.Contains(strings.ToLower(t.Title), query) ||
		strings.Contains(strings.ToLower(t.Description), query) ||
		strings.Contains(strings.ToLower(string(t.Category)), query)
}

func (e *Engine) keep(t task.Task, filter Filter, now time.Time) bool {
	switch filter {
	case FilterCompleted:
		return t.Completed
	case FilterPending:
		return !t.Completed
	case FilterOverdue:
		return isOverdue(t, now)
	case FilterToday:
		return !t.Completed && t.Deadline != nil && dueToday(*t.Deadline, now)
	case FilterUpcoming:
		if t.Completed || t.Deadline == nil {
			return false
		}
		d := *t.Deadline
		return d.After(now) && !d.After(now.Add(week))
	default:
		return true
	}
}

func (e *Engine) sort(tasks []task.Task, mode Sort) {
	switch mode {
	case SortNewest:
		slices.SortStableFunc(tasks, func(a, b task.Task) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	case SortOldest:
		slices.SortStableFunc(tasks, func(a, b task.Task) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	case SortDeadline:
		slices.SortStableFunc(tasks, func(a, b task.Task) int {
			switch {
			case a.Deadline == nil && b.Deadline == nil:
				return 0
			case a.Deadline == nil:
				return 1
			case b.Deadline == nil:
				return -1
			}
			return a.Deadline.Compare(*b.Deadline)
		})
	case SortPriority:
		slices.SortStableFunc(tasks, func(a, b task.Task) int {
			return b.Priority.Weight() - a.Priority.Weight()
		})
	case SortTitle:
		// Collators keep internal buffers and are not safe for concurrent use.
		c := collate.New(e.locale)
		slices.SortStableFunc(tasks, func(a, b task.Task) int {
			return c.CompareString(a.Title, b.Title)
		})
	}
}

// Stats counts tasks over the whole collection.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
}

// Stats returns totals over tasks. Overdue uses the FilterOverdue predicate.
func (e *Engine) Stats(tasks []task.Task) Stats {
	now := e.now()
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		} else {
			s.Pending++
		}
		if isOverdue(t, now) {
			s.Overdue++
		}
	}
	return s
}

// AdvancedStats counts incomplete tasks by urgency.
type AdvancedStats struct {
	HighPriority int `json:"highPriority"`
	DueToday     int `json:"dueToday"`
	DueThisWeek  int `json:"dueThisWeek"`
}

// AdvancedStats returns urgency counts over the incomplete tasks.
// The week window runs from midnight today to midnight seven days later,
// both ends inclusive; it is deliberately not the FilterUpcoming window.
func (e *Engine) AdvancedStats(tasks []task.Task) AdvancedStats {
	now := e.now()
	start := startOfDay(now)
	end := start.AddDate(0, 0, 7)

	var s AdvancedStats
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		if t.Priority == task.PriorityHigh {
			s.HighPriority++
		}
		if t.Deadline == nil {
			continue
		}
		d := *t.Deadline
		if dueToday(d, now) {
			s.DueToday++
		}
		if !d.Before(start) && !d.After(end) {
			s.DueThisWeek++
		}
	}
	return s
}

// Status classifies a deadline for display.
type Status string

const (
	StatusNone      Status = "none"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
	StatusToday     Status = "today"
	StatusTomorrow  Status = "tomorrow"
	StatusUpcoming  Status = "upcoming"
	StatusFuture    Status = "future"
)

// DeadlineStatus is a display classification of a task's deadline.
// Days is the overdue day count for StatusOverdue and the number of
// calendar days ahead otherwise.
type DeadlineStatus struct {
	Status Status `json:"status"`
	Text   string `json:"text"`
	Icon   string `json:"icon"`
	Days   int    `json:"days,omitempty"`
}

// DeadlineStatus classifies t's deadline. The checks run in order: no
// deadline, completed, overdue, then calendar days ahead. Overdue days are
// rounded up, so a deadline one millisecond ago is overdue by 1 day.
func (e *Engine) DeadlineStatus(t task.Task) DeadlineStatus {
	if t.Deadline == nil {
		return DeadlineStatus{Status: StatusNone, Text: "No deadline", Icon: "fa-calendar-times"}
	}
	d := *t.Deadline
	if t.Completed {
		return DeadlineStatus{
			Status: StatusCompleted,
			Text:   "Completed - " + task.FormatDate(d),
			Icon:   "fa-check-circle",
		}
	}

	now := e.now()
	diff := d.Sub(now)
	if diff < 0 {
		n := int(math.Ceil(float64(-diff) / float64(day)))
		return DeadlineStatus{
			Status: StatusOverdue,
			Text:   fmt.Sprintf("Overdue by %d %s", n, plural(n, "day")),
			Icon:   "fa-exclamation-circle",
			Days:   n,
		}
	}

	days := calendarDays(now, d)
	switch {
	case days == 0:
		return DeadlineStatus{Status: StatusToday, Text: "Due today", Icon: "fa-clock"}
	case days == 1:
		return DeadlineStatus{Status: StatusTomorrow, Text: "Due tomorrow", Icon: "fa-calendar-day", Days: 1}
	case days <= 7:
		return DeadlineStatus{Status: StatusUpcoming, Text: fmt.Sprintf("Due in %d days", days), Icon: "fa-calendar-alt", Days: days}
	default:
		return DeadlineStatus{Status: StatusFuture, Text: "Due " + task.FormatDate(d), Icon: "fa-calendar", Days: days}
	}
}

func isOverdue(t task.Task, now time.Time) bool {
	return !t.Completed && t.Deadline != nil && t.Deadline.Before(now)
}

// dueToday reports whether d falls in [midnight today, midnight tomorrow)
// in now's location.
func dueToday(d, now time.Time) bool {
	start := startOfDay(now)
	return !d.Before(start) && d.Before(start.AddDate(0, 0, 1))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// calendarDays returns the number of calendar days from now's date to d's
// date, both taken in now's location.
func calendarDays(now, d time.Time) int {
	y1, m1, d1 := now.Date()
	y2, m2, d2 := d.In(now.Location()).Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a) / day)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
