// Package dates parses the loosely typed date strings stored on tasks,
// versions and labor records. Unparsable values are reported as absent.
package dates

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Boundary formats.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// ErrMalformed marks a caller-supplied date that could not be parsed.
var ErrMalformed = errors.New("malformed date")

var layouts = []string{
	DateLayout,
	DateTimeLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006/01/02",
	"2006/01/02 15:04:05",
}

// Parse reads s using the accepted layouts. Date-only and zone-less values
// are interpreted in UTC.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isDateOnly reports whether s carries no time-of-day component.
func isDateOnly(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) == len(DateLayout)
}

// Format renders t as yyyy-MM-dd HH:mm:ss.
func Format(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// FormatDate renders t as yyyy-MM-dd.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Range is an optional closed interval. A nil bound is unbounded.
type Range struct {
	Start *time.Time
	End   *time.Time
}

// ParseRange validates caller-supplied bounds. Empty strings mean unbounded.
// A date-only end bound is widened to the last instant of that day.
func ParseRange(start, end string) (Range, error) {
	var r Range
	if strings.TrimSpace(start) != "" {
		t, ok := Parse(start)
		if !ok {
			return Range{}, fmt.Errorf("dates: start %q: %w", start, ErrMalformed)
		}
		r.Start = &t
	}
	if strings.TrimSpace(end) != "" {
		t, ok := Parse(end)
		if !ok {
			return Range{}, fmt.Errorf("dates: end %q: %w", end, ErrMalformed)
		}
		if isDateOnly(end) {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		r.End = &t
	}
	if r.Start != nil && r.End != nil && r.End.Before(*r.Start) {
		return Range{}, fmt.Errorf("dates: end %q before start %q: %w", end, start, ErrMalformed)
	}
	return r, nil
}

// IsZero reports whether neither bound is set.
func (r Range) IsZero() bool {
	return r.Start == nil && r.End == nil
}

// Contains reports whether t lies within the range, inclusive on both ends.
func (r Range) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// ContainsString parses s and checks it against the range. An unbounded
// range admits anything, including unparsable values; a bounded range
// rejects values it cannot parse.
func (r Range) ContainsString(s string) bool {
	if r.IsZero() {
		return true
	}
	t, ok := Parse(s)
	if !ok {
		return false
	}
	return r.Contains(t)
}

// String renders the bounds for display, leaving unbounded sides empty.
func (r Range) String() string {
	var start, end string
	if r.Start != nil {
		start = FormatDate(*r.Start)
	}
	if r.End != nil {
		end = FormatDate(*r.End)
	}
	return start + ".." + end
}
