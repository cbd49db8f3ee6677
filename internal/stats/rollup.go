package stats

import (
	"cmp"
	"path/filepath"
	"slices"
	"time"

	"github.com/fakeyudi/codepulse/internal/store"
)

// TopN is how many entries each ranking keeps.
const TopN = 5

// Day pairs a calendar date with its aggregate. Missing dates carry a zero
// aggregate.
type Day struct {
	Date time.Time
	Agg  store.DailyAggregate
}

// Rollup is the sum of a run of days.
type Rollup struct {
	TotalTimeMs      int64
	ActiveTimeMs     int64
	NightOwlTimeMs   int64
	CharactersEdited int64
	EditedFileCount  int
	LongestSessionMs int64
	ActiveDays       int
	Languages        map[string]int64
	Projects         map[string]int64
	Files            map[string]int64
	Hourly           [24]int64
	// DayOfWeek is indexed by time.Weekday (Sunday = 0).
	DayOfWeek [7]int64
}

// rollup sums scalars, merges maps key-wise and merges the hourly and
// weekday distributions index-wise.
func rollup(days []Day) Rollup {
	r := Rollup{
		Languages: make(map[string]int64),
		Projects:  make(map[string]int64),
		Files:     make(map[string]int64),
	}
	for _, d := range days {
		a := d.Agg
		r.TotalTimeMs += a.TotalTimeMs
		r.ActiveTimeMs += a.ActiveTimeMs
		r.NightOwlTimeMs += a.NightOwlTimeMs
		r.CharactersEdited += a.TotalCharactersEdited
		r.EditedFileCount += a.EditedFileCount
		r.LongestSessionMs = max(r.LongestSessionMs, a.LongestSessionMs)
		if a.TotalTimeMs > 0 {
			r.ActiveDays++
		}
		for k, v := range a.LanguageTime {
			r.Languages[k] += v
		}
		for k, v := range a.ProjectTime {
			r.Projects[k] += v
		}
		for k, v := range a.FileTimeMs {
			r.Files[k] += v
		}
		for h, v := range a.HourlyDistribution {
			r.Hourly[h] += v
		}
		r.DayOfWeek[d.Date.Weekday()] += a.TotalTimeMs
	}
	return r
}

// Ranked is one entry of a top-N list.
type Ranked struct {
	Name       string  `json:"name"`
	Label      string  `json:"label"`
	TimeMs     int64   `json:"timeMs"`
	Percentage float64 `json:"percentage"`
}

// topN sorts m by value descending and keeps n entries. Ties are broken by
// name so output is stable across runs.
func topN(m map[string]int64, n int, label func(string) string) []Ranked {
	var total int64
	entries := make([]Ranked, 0, len(m))
	for k, v := range m {
		total += v
		if v <= 0 {
			continue
		}
		entries = append(entries, Ranked{Name: k, Label: label(k), TimeMs: v})
	}
	slices.SortFunc(entries, func(a, b Ranked) int {
		if c := cmp.Compare(b.TimeMs, a.TimeMs); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Percentage = percent(entries[i].TimeMs, total)
	}
	return entries
}

// Rank is topN for callers outside the package. A nil label keeps names.
func Rank(m map[string]int64, n int, label func(string) string) []Ranked {
	if label == nil {
		label = identity
	}
	return topN(m, n, label)
}

func identity(s string) string { return s }

func baseName(s string) string {
	if s == "" {
		return s
	}
	return filepath.Base(s)
}

func percent(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// DayTotal is a single day's total.
type DayTotal struct {
	Date   string `json:"date"`
	TimeMs int64  `json:"timeMs"`
}

// peakDay returns the day with the largest total; the earliest wins ties.
func peakDay(days []Day) DayTotal {
	var best DayTotal
	for i, d := range days {
		if i == 0 || d.Agg.TotalTimeMs > best.TimeMs {
			best = DayTotal{Date: store.DateKey(d.Date), TimeMs: d.Agg.TotalTimeMs}
		}
	}
	return best
}

// peakHour returns the hour with the largest total; the earliest wins ties.
func peakHour(hourly [24]int64) int {
	best := 0
	for h, v := range hourly {
		if v > hourly[best] {
			best = h
		}
	}
	return best
}

// activeDates returns the dates with recorded time.
func activeDates(days []Day) []time.Time {
	var out []time.Time
	for _, d := range days {
		if d.Agg.TotalTimeMs > 0 {
			out = append(out, d.Date)
		}
	}
	return out
}
