package ui

import (
	"strings"
	"time"

	"github.com/nibzard/taskboard/internal/task"
)

// parseQuickAdd reads a one-line task. Words starting with ! set the
// priority, # the category and @ the deadline; the rest form the title.
//
//	Pay rent !high #personal @2024-11-01T09:00
func parseQuickAdd(line string, loc *time.Location) (task.Input, error) {
	var in task.Input
	var words []string
	for _, w := range strings.Fields(line) {
		if len(w) < 2 {
			words = append(words, w)
			continue
		}
		switch w[0] {
		case '!':
			in.Priority = task.Priority(w[1:])
		case '#':
			in.Category = task.Category(w[1:])
		case '@':
			d, err := task.ParseDeadline(w[1:], loc)
			if err != nil {
				return in, err
			}
			in.Deadline = &d
		default:
			words = append(words, w)
		}
	}
	in.Title = strings.Join(words, " ")
	return in.Normalize()
}
