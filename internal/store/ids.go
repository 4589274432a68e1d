package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nibzard/taskboard/internal/task"
)

// IDGenerator issues task ids. taken reports ids already in the store;
// a generator must never return one of them.
type IDGenerator interface {
	NewID(now time.Time, taken func(task.ID) bool) task.ID
}

// TimeIDs issues millisecond timestamps, bumped so that every id is
// strictly greater than the previous one issued by this generator.
type TimeIDs struct {
	last int64
}

// NewID returns the next time-derived id.
func (g *TimeIDs) NewID(now time.Time, taken func(task.ID) bool) task.ID {
	n := now.UnixMilli()
	if n <= g.last {
		n = g.last + 1
	}
	for taken(task.ID(strconv.FormatInt(n, 10))) {
		n++
	}
	g.last = n
	return task.ID(strconv.FormatInt(n, 10))
}

// UUIDIDs issues time-ordered UUIDv7 strings.
type UUIDIDs struct{}

// NewID returns a fresh UUIDv7.
func (UUIDIDs) NewID(now time.Time, taken func(task.ID) bool) task.ID {
	for {
		u, err := uuid.NewV7()
		if err != nil {
			u = uuid.New()
		}
		id := task.ID(u.String())
		if !taken(id) {
			return id
		}
	}
}

// ID format names accepted by ParseIDFormat.
const (
	IDFormatTime = "time"
	IDFormatUUID = "uuid"
)

// ParseIDFormat returns the generator for a configured id format.
func ParseIDFormat(format string) (IDGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", IDFormatTime:
		return &TimeIDs{}, nil
	case IDFormatUUID:
		return UUIDIDs{}, nil
	default:
		return nil, fmt.Errorf("invalid id format %q (want time or uuid)", format)
	}
}
