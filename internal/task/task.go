package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID identifies a task. It is assigned once and never reused.
type ID string

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool {
	return id == ""
}

// numeric reports whether the id is a positive canonical decimal integer
// and can be encoded as a JSON number without changing its value. "0" stays
// a string because a numeric 0 decodes as a missing id.
func (id ID) numeric() bool {
	s := string(id)
	if s == "" || len(s) > 18 || s[0] == '0' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MarshalJSON encodes numeric ids as JSON numbers and everything else as
// JSON strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a JSON string, an integral JSON number, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}

	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(data), 64)
		if ferr != nil || f != float64(int64(f)) {
			return fmt.Errorf("invalid id %s", data)
		}
		n = int64(f)
	}
	if n <= 0 {
		*id = ""
		return nil
	}
	*id = ID(strconv.FormatInt(n, 10))
	return nil
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority maps user or stored input to a Priority.
// Missing or unknown values become PriorityMedium.
func ParsePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Weight orders priorities: high 3, medium 2, low 1.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Category groups tasks for display and search.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryShopping Category = "shopping"
	CategoryHealth   Category = "health"
	CategoryOther    Category = "other"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{CategoryWork, CategoryPersonal, CategoryShopping, CategoryHealth, CategoryOther}
}

// ParseCategory maps user or stored input to a Category.
// Missing or unknown values become CategoryOther.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories() {
		if c == known {
			return c
		}
	}
	return CategoryOther
}

// Task is a single to-do record.
type Task struct {
	ID          ID
	Title       string
	Description string
	Deadline    *time.Time
	Priority    Priority
	Category    Category
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasDeadline reports whether the task has a deadline.
func (t *Task) HasDeadline() bool {
	return t.Deadline != nil
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	if t.Deadline != nil {
		d := *t.Deadline
		t.Deadline = &d
	}
	return t
}

// Input carries the user-editable fields of a task.
// Zero values fall back to the documented defaults.
type Input struct {
	Title       string
	Description string
	Deadline    *time.Time
	Priority    Priority
	Category    Category
}

// Normalize trims text fields, applies defaults, and rejects an empty title.
func (in Input) Normalize() (Input, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, &ValidationError{Field: "title", Err: fmt.Errorf("must not be empty")}
	}
	in.Description = strings.TrimSpace(in.Description)
	in.Priority = ParsePriority(string(in.Priority))
	in.Category = ParseCategory(string(in.Category))
	if in.Deadline != nil {
		d := *in.Deadline
		in.Deadline = &d
	}
	return in, nil
}

// wireTask is the persisted and exported JSON shape of a Task.
type wireTask struct {
	ID          ID       `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Deadline    *string  `json:"deadline"`
	Priority    Priority `json:"priority"`
	Category    Category `json:"category"`
	Completed   bool     `json:"completed"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

// MarshalJSON encodes the task in its wire shape. Timestamps use RFC 3339
// with nanoseconds; an absent deadline is null.
func (t Task) MarshalJSON() ([]byte, error) {
	w := wireTask{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Category:    t.Category,
		Completed:   t.Completed,
		CreatedAt:   formatTimestamp(t.CreatedAt),
		UpdatedAt:   formatTimestamp(t.UpdatedAt),
	}
	if t.Deadline != nil {
		s := t.Deadline.Format(time.RFC3339Nano)
		w.Deadline = &s
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes and normalizes a single record.
// Records that would be dropped on load fail here with a *RecordError.
func (t *Task) UnmarshalJSON(data []byte) error {
	decoded, err := Normalize(data)
	if err != nil {
		return err
	}
	*t = decoded
	return nil
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339Nano)
}
