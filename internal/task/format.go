package task

import (
	"fmt"
	"strings"
	"time"
)

// InputLayout is the zone-less layout of a datetime-local form field.
const InputLayout = "2006-01-02T15:04"

const displayLayout = "2 Jan 2006 15:04"

// deadlineLayouts are tried in order. Zone-less layouts are read in the
// caller's location.
var deadlineLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	InputLayout,
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDeadline parses a deadline in any accepted layout.
func ParseDeadline(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid deadline %q (want RFC 3339, YYYY-MM-DDTHH:MM or YYYY-MM-DD)", s)
}

// FormatDate renders a timestamp for display, e.g. "18 Oct 2024 14:30".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "Invalid date"
	}
	return t.Format(displayLayout)
}

// FormatDateForInput renders a deadline for a datetime-local style field.
// A nil deadline renders as the empty string.
func FormatDateForInput(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(InputLayout)
}

var categoryColors = map[Category]string{
	CategoryWork:     "#3b82f6",
	CategoryPersonal: "#ec4899",
	CategoryShopping: "#f59e0b",
	CategoryHealth:   "#10b981",
	CategoryOther:    "#6b7280",
}

var categoryIcons = map[Category]string{
	CategoryWork:     "fa-briefcase",
	CategoryPersonal: "fa-user",
	CategoryShopping: "fa-shopping-cart",
	CategoryHealth:   "fa-heart",
	CategoryOther:    "fa-star",
}

// CategoryColor returns the hex display color of a category.
func CategoryColor(c Category) string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return categoryColors[CategoryOther]
}

// CategoryIcon returns the icon name of a category.
func CategoryIcon(c Category) string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return categoryIcons[CategoryOther]
}
