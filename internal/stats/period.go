package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/fakeyudi/codepulse/internal/store"
)

// Period is the calendar unit a summary covers.
type Period string

const (
	Weekly  Period = "week"
	Monthly Period = "month"
	Yearly  Period = "year"
)

// ParsePeriod accepts "week", "month" or "year" and a few aliases.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "week", "weekly", "w":
		return Weekly, nil
	case "month", "monthly", "m":
		return Monthly, nil
	case "year", "yearly", "y":
		return Yearly, nil
	}
	return "", fmt.Errorf("unknown period %q: want week, month or year", s)
}

// Range is an inclusive span of calendar days. Start and End are midnight
// in UTC so that day arithmetic is unaffected by DST.
type Range struct {
	Start time.Time
	End   time.Time
}

// Range returns the period containing now, shifted back offset periods.
// Weeks start on Monday.
func (p Period) Range(now time.Time, offset int) Range {
	if offset < 0 {
		offset = -offset
	}
	today := civil(now)
	switch p {
	case Monthly:
		start := time.Date(today.Year(), today.Month()-time.Month(offset), 1, 0, 0, 0, 0, time.UTC)
		return Range{Start: start, End: start.AddDate(0, 1, -1)}
	case Yearly:
		start := time.Date(today.Year()-offset, time.January, 1, 0, 0, 0, 0, time.UTC)
		return Range{Start: start, End: time.Date(start.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)}
	default:
		start := weekStart(today).AddDate(0, 0, -7*offset)
		return Range{Start: start, End: start.AddDate(0, 0, 6)}
	}
}

// Days lists every date in the range in ascending order.
func (r Range) Days() []time.Time {
	var out []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Keys returns the store keys of the first and last day.
func (r Range) Keys() (string, string) {
	return store.DateKey(r.Start), store.DateKey(r.End)
}

// civil strips the clock and location from t, keeping its local calendar date.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// weekStart returns the Monday of the week containing t.
func weekStart(t time.Time) time.Time {
	wd := t.Weekday()
	if wd == time.Sunday {
		wd = 7
	}
	return t.AddDate(0, 0, -(int(wd) - int(time.Monday)))
}

func parseDay(key string) (time.Time, bool) {
	t, err := time.Parse(store.DateLayout, key)
	return t, err == nil
}
