package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const recordSchemaURL = "taskboard://task.schema.json"

// recordSchema only pins what a record cannot be repaired without.
// Everything else is backfilled by Normalize.
const recordSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["id", "title"],
  "properties": {
    "id": {
      "oneOf": [
        {"type": "integer", "minimum": 1},
        {"type": "string", "minLength": 1}
      ]
    },
    "title": {"type": "string", "minLength": 1}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(recordSchemaURL, strings.NewReader(recordSchema)); err != nil {
			schemaErr = fmt.Errorf("add record schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(recordSchemaURL)
	})
	return compiledSchema, schemaErr
}

// record is the loosely typed shape of a stored task. Fields that may hold
// junk are kept raw so one bad field backfills instead of rejecting.
type record struct {
	ID          ID              `json:"id"`
	Title       json.RawMessage `json:"title"`
	Description json.RawMessage `json:"description"`
	Deadline    json.RawMessage `json:"deadline"`
	Priority    json.RawMessage `json:"priority"`
	Category    json.RawMessage `json:"category"`
	Completed   json.RawMessage `json:"completed"`
	CreatedAt   json.RawMessage `json:"createdAt"`
	UpdatedAt   json.RawMessage `json:"updatedAt"`
}

// Normalize validates one raw record and returns it as a Task.
// A rejected record yields a *RecordError.
func Normalize(raw json.RawMessage) (Task, error) {
	if err := validateRecord(raw); err != nil {
		return Task{}, err
	}

	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return Task{}, &RecordError{Err: err}
	}
	if r.ID.IsZero() {
		return Task{}, &RecordError{Path: "id", Err: fmt.Errorf("missing required field")}
	}
	title, _ := rawString(r.Title)
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, &RecordError{Path: "title", Err: fmt.Errorf("missing required field")}
	}

	t := Task{
		ID:       r.ID,
		Title:    title,
		Priority: PriorityMedium,
		Category: CategoryOther,
	}
	if s, ok := rawString(r.Description); ok {
		t.Description = strings.TrimSpace(s)
	}
	if s, ok := rawString(r.Priority); ok {
		t.Priority = ParsePriority(s)
	}
	if s, ok := rawString(r.Category); ok {
		t.Category = ParseCategory(s)
	}
	if s, ok := rawString(r.Deadline); ok && strings.TrimSpace(s) != "" {
		if d, err := ParseDeadline(s, time.Local); err == nil {
			t.Deadline = &d
		}
	}
	t.Completed = bytes.Equal(bytes.TrimSpace(r.Completed), []byte("true"))
	if s, ok := rawString(r.CreatedAt); ok {
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			t.CreatedAt = ts
		}
	}
	if s, ok := rawString(r.UpdatedAt); ok {
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			t.UpdatedAt = ts
		}
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	return t, nil
}

func validateRecord(raw json.RawMessage) error {
	schema, err := loadSchema()
	if err != nil {
		return &RecordError{Err: err}
	}

	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return &RecordError{Err: err}
	}
	if err := schema.Validate(doc); err != nil {
		return schemaRecordError(err)
	}
	return nil
}

// schemaRecordError flattens a schema failure to its first leaf cause.
func schemaRecordError(err error) *RecordError {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &RecordError{Err: err}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &RecordError{
		Path: jsonPointerToPath(ve.InstanceLocation),
		Err:  fmt.Errorf("%s", ve.Message),
	}
}

// DecodeList decodes a persisted JSON array of records.
// The payload must be an array; individual bad records are returned in
// rejected and left out of tasks.
func DecodeList(data []byte) (tasks []Task, rejected []error, err error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, nil, &ParseError{Err: err}
	}
	tasks, rejected = normalizeAll(raws, "")
	return tasks, rejected, nil
}

// DecodeSnapshot decodes an import payload of the form {"tasks": [...]}.
// It fails with a *ParseError for invalid JSON and with ErrFormat when the
// tasks array is missing.
func DecodeSnapshot(data []byte) (tasks []Task, rejected []error, err error) {
	if !json.Valid(data) {
		var probe interface{}
		return nil, nil, &ParseError{Err: json.Unmarshal(data, &probe)}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, nil, fmt.Errorf("%w: expected an object with a tasks array", ErrFormat)
	}
	rawTasks, ok := envelope["tasks"]
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing tasks array", ErrFormat)
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(rawTasks, &raws); err != nil || raws == nil {
		return nil, nil, fmt.Errorf("%w: tasks is not an array", ErrFormat)
	}

	tasks, rejected = normalizeAll(raws, "tasks")
	return tasks, rejected, nil
}

func normalizeAll(raws []json.RawMessage, prefix string) ([]Task, []error) {
	tasks := make([]Task, 0, len(raws))
	var rejected []error
	for i, raw := range raws {
		t, err := Normalize(raw)
		if err != nil {
			rejected = append(rejected, prefixRecordError(err, fmt.Sprintf("%s[%d]", prefix, i)))
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, rejected
}

func prefixRecordError(err error, prefix string) error {
	re, ok := err.(*RecordError)
	if !ok {
		return &RecordError{Path: prefix, Err: err}
	}
	path := prefix
	if re.Path != "" {
		path += "." + re.Path
	}
	return &RecordError{Path: path, Err: re.Err}
}

func rawString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// jsonPointerToPath converts a JSON Pointer to a dot-notation path.
// For example, "/tasks/0/title" becomes "tasks[0].title".
func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	path := ""
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			path += fmt.Sprintf("[%d]", idx)
			continue
		}
		if path == "" {
			path = part
		} else {
			path += "." + part
		}
	}
	return path
}
