// Package reports computes the aggregated views of the reports page: daily
// hours coverage per assignee and the overview of hours, delays and
// completion. Every function is pure; callers load the inputs.
package reports

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultMaxWindowDays bounds a report window when no limit is configured.
const DefaultMaxWindowDays = 366

// ErrInvalidWindow is returned for reversed or oversized date windows.
var ErrInvalidWindow = errors.New("invalid report window")

// Window is an inclusive range of calendar days.
type Window struct {
	From time.Time
	To   time.Time
}

// NewWindow validates a date range. maxDays <= 0 falls back to
// DefaultMaxWindowDays.
func NewWindow(from, to time.Time, maxDays int) (Window, error) {
	if maxDays <= 0 {
		maxDays = DefaultMaxWindowDays
	}
	w := Window{From: Day(from), To: Day(to)}
	if w.To.Before(w.From) {
		return Window{}, fmt.Errorf("%w: %s is before %s", ErrInvalidWindow, w.To.Format(time.DateOnly), w.From.Format(time.DateOnly))
	}
	if n := w.Days(); n > maxDays {
		return Window{}, fmt.Errorf("%w: %d days exceeds the limit of %d", ErrInvalidWindow, n, maxDays)
	}
	return w, nil
}

// ParseWindow parses two YYYY-MM-DD dates into a window.
func ParseWindow(from, to string, maxDays int) (Window, error) {
	f, err := time.Parse(time.DateOnly, from)
	if err != nil {
		return Window{}, fmt.Errorf("%w: from: %v", ErrInvalidWindow, err)
	}
	t, err := time.Parse(time.DateOnly, to)
	if err != nil {
		return Window{}, fmt.Errorf("%w: to: %v", ErrInvalidWindow, err)
	}
	return NewWindow(f, t, maxDays)
}

// Days returns the number of calendar days in the window.
func (w Window) Days() int {
	return int(w.To.Sub(w.From).Hours()/24) + 1
}

// Contains reports whether t falls on a day inside the window.
func (w Window) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(w.From) && !d.After(w.To)
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWorkDays parses a comma separated list of weekdays such as
// "mon,tue,wed". Full names such as "Monday" are accepted too; anything
// else is an error. Duplicates collapse.
func ParseWorkDays(s string) ([]time.Weekday, error) {
	var (
		out  []time.Weekday
		seen = map[time.Weekday]bool{}
	)
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		wd, ok := weekdayNames[name]
		if !ok && len(name) > 3 {
			wd, ok = weekdayNames[name[:3]]
			ok = ok && strings.ToLower(wd.String()) == name
		}
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", strings.TrimSpace(part))
		}
		if !seen[wd] {
			seen[wd] = true
			out = append(out, wd)
		}
	}
	return out, nil
}

func weekdayCode(wd time.Weekday) string {
	return strings.ToLower(wd.String()[:3])
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func percent(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return round2(part / total * 100)
}
