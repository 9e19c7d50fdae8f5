package calendar

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is returned when a range ends before it starts.
var ErrInvalidRange = errors.New("invalid day range")

// Range is an inclusive span of days.
type Range struct {
	Start Day
	End   Day
}

// NewRange validates that both ends are set and start <= end.
func NewRange(start, end Day) (Range, error) {
	if start.IsZero() || end.IsZero() {
		return Range{}, fmt.Errorf("%w: both ends are required", ErrInvalidRange)
	}
	if end.Before(start) {
		return Range{}, fmt.Errorf("%w: %s is before %s", ErrInvalidRange, end, start)
	}
	return Range{Start: start, End: end}, nil
}

// Len is the number of days in the range, both ends included.
func (r Range) Len() int {
	if r.Start.IsZero() || r.End.Before(r.Start) {
		return 0
	}
	return r.Start.DaysUntil(r.End) + 1
}

// Contains reports whether d lies within the range.
func (r Range) Contains(d Day) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Covers reports whether other lies entirely within r.
func (r Range) Covers(other Range) bool {
	return r.Contains(other.Start) && r.Contains(other.End)
}

// Truncate keeps at most max days from the start. max <= 0 leaves r as is.
func (r Range) Truncate(max int) Range {
	if max <= 0 || r.Len() <= max {
		return r
	}
	return Range{Start: r.Start, End: r.Start.AddDays(max - 1)}
}

// Days lists every day in ascending order.
func (r Range) Days() []Day {
	n := r.Len()
	days := make([]Day, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, r.Start.AddDays(i))
	}
	return days
}

func (r Range) String() string {
	return r.Start.String() + ".." + r.End.String()
}
