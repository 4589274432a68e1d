package task

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIDJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{"number", `1729250000000`, "1729250000000", false},
		{"string", `"abc-123"`, "abc-123", false},
		{"string trimmed", `"  T1 "`, "T1", false},
		{"null", `null`, "", false},
		{"zero is missing", `0`, "", false},
		{"zero string", `"0"`, "0", false},
		{"integral float", `1.5e3`, "1500", false},
		{"fractional float", `1.5`, "", true},
		{"object", `{}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			err := json.Unmarshal([]byte(tt.input), &id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if id != tt.want {
				t.Errorf("Unmarshal(%s) = %q, want %q", tt.input, id, tt.want)
			}
		})
	}
}

func TestIDMarshalKeepsNumbers(t *testing.T) {
	tests := []struct {
		id   ID
		want string
	}{
		{"1729250000000", `1729250000000`},
		{"007", `"007"`},
		{"0", `"0"`},
		{"018f0c1e-7b6a-7c4e-9a35-3d2b0c4b5e6f", `"018f0c1e-7b6a-7c4e-9a35-3d2b0c4b5e6f"`},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.id)
		if err != nil {
			t.Fatalf("Marshal(%q) failed: %v", tt.id, err)
		}
		if string(data) != tt.want {
			t.Errorf("Marshal(%q) = %s, want %s", tt.id, data, tt.want)
		}
	}
}

func TestParsePriority(t *testing.T) {
	tests := map[string]Priority{
		"high":   PriorityHigh,
		" LOW ":  PriorityLow,
		"medium": PriorityMedium,
		"":       PriorityMedium,
		"urgent": PriorityMedium,
	}
	for input, want := range tests {
		if got := ParsePriority(input); got != want {
			t.Errorf("ParsePriority(%q) = %q, want %q", input, got, want)
		}
	}
	if PriorityHigh.Weight() <= PriorityMedium.Weight() || PriorityMedium.Weight() <= PriorityLow.Weight() {
		t.Error("expected high > medium > low weights")
	}
}

func TestParseCategory(t *testing.T) {
	tests := map[string]Category{
		"work":     CategoryWork,
		"Health":   CategoryHealth,
		"shopping": CategoryShopping,
		"":         CategoryOther,
		"hobby":    CategoryOther,
	}
	for input, want := range tests {
		if got := ParseCategory(input); got != want {
			t.Errorf("ParseCategory(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestInputNormalize(t *testing.T) {
	t.Run("trims and defaults", func(t *testing.T) {
		in, err := Input{Title: "  Buy milk ", Description: " two liters "}.Normalize()
		if err != nil {
			t.Fatalf("Normalize failed: %v", err)
		}
		if in.Title != "Buy milk" || in.Description != "two liters" {
			t.Errorf("got title %q description %q", in.Title, in.Description)
		}
		if in.Priority != PriorityMedium || in.Category != CategoryOther {
			t.Errorf("got priority %q category %q, want medium/other", in.Priority, in.Category)
		}
	})

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := Input{Title: title}.Normalize()
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Normalize(%q) error = %v, want ErrValidation", title, err)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != "title" {
			t.Errorf("Normalize(%q) expected title ValidationError, got %v", title, err)
		}
	}
}

func TestTaskJSONRoundTrip(t *testing.T) {
	created := time.Date(2024, 10, 18, 10, 33, 20, 123000000, time.UTC)
	deadline := time.Date(2024, 10, 20, 18, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	original := Task{
		ID:          "1729250000000",
		Title:       "Buy groceries",
		Description: "Milk",
		Deadline:    &deadline,
		Priority:    PriorityHigh,
		Category:    CategoryShopping,
		Completed:   true,
		CreatedAt:   created,
		UpdatedAt:   created.Add(time.Minute),
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"id":1729250000000`) {
		t.Errorf("expected numeric id in %s", data)
	}

	var decoded Task
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.ID != original.ID || decoded.Title != original.Title || decoded.Priority != original.Priority ||
		decoded.Category != original.Category || decoded.Completed != original.Completed {
		t.Errorf("decoded = %+v, want %+v", decoded, original)
	}
	if decoded.Deadline == nil || !decoded.Deadline.Equal(deadline) {
		t.Errorf("Deadline: got %v, want %v", decoded.Deadline, deadline)
	}
	if !decoded.CreatedAt.Equal(original.CreatedAt) || !decoded.UpdatedAt.Equal(original.UpdatedAt) {
		t.Errorf("timestamps: got %v/%v", decoded.CreatedAt, decoded.UpdatedAt)
	}
}

func TestMarshalNullDeadline(t *testing.T) {
	data, err := json.Marshal(Task{ID: "1", Title: "x", Priority: PriorityLow, Category: CategoryWork})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"deadline":null`) {
		t.Errorf("expected null deadline in %s", data)
	}
}

func TestCloneDoesNotShareDeadline(t *testing.T) {
	d := time.Now()
	original := Task{ID: "1", Title: "x", Deadline: &d}
	clone := original.Clone()
	*clone.Deadline = clone.Deadline.Add(time.Hour)
	if !original.Deadline.Equal(d) {
		t.Error("Clone shares the deadline pointer")
	}
}
