package task

import (
	"testing"
	"time"
)

func TestParseDeadline(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"2024-10-18T23:59", time.Date(2024, 10, 18, 23, 59, 0, 0, loc), false},
		{"2024-10-18T23:59:30", time.Date(2024, 10, 18, 23, 59, 30, 0, loc), false},
		{"2024-10-18", time.Date(2024, 10, 18, 0, 0, 0, 0, loc), false},
		{"2024-10-18 08:15", time.Date(2024, 10, 18, 8, 15, 0, 0, loc), false},
		{"2024-10-18T16:59:00Z", time.Date(2024, 10, 18, 16, 59, 0, 0, time.UTC), false},
		{"2024-10-18T16:59:00.250Z", time.Date(2024, 10, 18, 16, 59, 0, 250000000, time.UTC), false},
		{"tomorrow", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		got, err := ParseDeadline(tt.input, loc)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDeadline(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !got.Equal(tt.want) {
			t.Errorf("ParseDeadline(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2024, 10, 18, 14, 30, 0, 0, time.UTC)
	if got := FormatDate(ts); got != "18 Oct 2024 14:30" {
		t.Errorf("FormatDate: got %q", got)
	}
	if got := FormatDate(time.Time{}); got != "Invalid date" {
		t.Errorf("FormatDate(zero): got %q", got)
	}
	if got := FormatDateForInput(&ts); got != "2024-10-18T14:30" {
		t.Errorf("FormatDateForInput: got %q", got)
	}
	if got := FormatDateForInput(nil); got != "" {
		t.Errorf("FormatDateForInput(nil): got %q", got)
	}
}

func TestCategoryLookups(t *testing.T) {
	if got := CategoryColor(CategoryWork); got != "#3b82f6" {
		t.Errorf("CategoryColor(work) = %q", got)
	}
	if got := CategoryColor("unknown"); got != "#6b7280" {
		t.Errorf("CategoryColor(unknown) = %q, want other color", got)
	}
	if got := CategoryIcon(CategoryHealth); got != "fa-heart" {
		t.Errorf("CategoryIcon(health) = %q", got)
	}
	if got := CategoryIcon("unknown"); got != "fa-star" {
		t.Errorf("CategoryIcon(unknown) = %q, want fa-star", got)
	}
	for _, c := range Categories() {
		if CategoryColor(c) == "" || CategoryIcon(c) == "" {
			t.Errorf("category %q missing lookup entries", c)
		}
	}
}
