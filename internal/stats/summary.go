// Package stats turns persisted daily aggregates into weekly, monthly and
// yearly summaries. It holds no state of its own.
package stats

import (
	"time"

	"github.com/fakeyudi/codepulse/internal/store"
)

// Source provides the daily aggregates for an inclusive date-key range.
type Source interface {
	Aggregates(from, to string) map[string]store.DailyAggregate
}

// Summary is the derived rollup of one period. It is never persisted.
type Summary struct {
	Period Period    `json:"period"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	// TotalDays counts the days of the period that have already begun.
	TotalDays      int   `json:"totalDays"`
	DailyAverageMs int64 `json:"dailyAverageMs"`

	TotalTimeMs      int64     `json:"totalTimeMs"`
	ActiveTimeMs     int64     `json:"activeTimeMs"`
	ActiveDays       int       `json:"activeDays"`
	NightOwlTimeMs   int64     `json:"nightOwlTimeMs"`
	LongestSessionMs int64     `json:"longestSessionMs"`
	CharactersEdited int64     `json:"charactersEdited"`
	EditedFileCount  int       `json:"editedFileCount"`
	Hourly           [24]int64 `json:"hourlyDistribution"`
	DayOfWeek        [7]int64  `json:"dayOfWeekDistribution"`

	Languages map[string]int64 `json:"languages"`
	Projects  map[string]int64 `json:"projects"`

	TopLanguages []Ranked `json:"topLanguages"`
	TopProjects  []Ranked `json:"topProjects"`
	TopFiles     []Ranked `json:"topFiles"`

	PeakDay  DayTotal `json:"peakDay"`
	PeakHour int      `json:"peakHour"`

	// CurrentStreak is reported for weekly and monthly summaries,
	// LongestStreak for yearly ones.
	CurrentStreak int `json:"currentStreak"`
	LongestStreak int `json:"longestStreak,omitempty"`

	PreviousTotalMs int64   `json:"previousTotalMs"`
	ChangePercent   float64 `json:"changePercent"`

	Days           []DayTotal      `json:"days"`
	Weeks          []UnitBreakdown `json:"weeks,omitempty"`
	Months         []UnitBreakdown `json:"months,omitempty"`
	LanguageTrends []LanguageTrend `json:"languageTrends,omitempty"`
}

// TopProject returns the highest-ranked project, if any.
func (s *Summary) TopProject() (Ranked, bool) {
	if len(s.TopProjects) == 0 {
		return Ranked{}, false
	}
	return s.TopProjects[0], true
}

// TopLanguage returns the highest-ranked language, if any.
func (s *Summary) TopLanguage() (Ranked, bool) {
	if len(s.TopLanguages) == 0 {
		return Ranked{}, false
	}
	return s.TopLanguages[0], true
}

// Engine computes summaries from a Source.
type Engine struct {
	src Source
	now func() time.Time
}

// NewEngine returns an Engine reading from src. now may be nil.
func NewEngine(src Source, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{src: src, now: now}
}

// GenerateSummary summarizes the period offset periods before the current
// one. It returns nil when the period has no recorded time.
func (e *Engine) GenerateSummary(p Period, offset int) *Summary {
	now := e.now()
	r := p.Range(now, offset)
	s := e.Summarize(p, r)
	if s == nil {
		return nil
	}

	prev := e.total(p.Range(now, abs(offset)+1))
	s.PreviousTotalMs = prev
	s.ChangePercent = ChangePercent(s.TotalTimeMs, prev)
	return s
}

// Summarize builds the summary of r. It returns nil when r has no time.
func (e *Engine) Summarize(p Period, r Range) *Summary {
	days := e.days(r)
	roll := rollup(days)
	if roll.TotalTimeMs == 0 {
		return nil
	}

	s := &Summary{
		Period:           p,
		Start:            r.Start,
		End:              r.End,
		TotalDays:        elapsedDays(r, civil(e.now())),
		TotalTimeMs:      roll.TotalTimeMs,
		ActiveTimeMs:     roll.ActiveTimeMs,
		ActiveDays:       roll.ActiveDays,
		NightOwlTimeMs:   roll.NightOwlTimeMs,
		LongestSessionMs: roll.LongestSessionMs,
		CharactersEdited: roll.CharactersEdited,
		EditedFileCount:  roll.EditedFileCount,
		Hourly:           roll.Hourly,
		DayOfWeek:        roll.DayOfWeek,
		Languages:        roll.Languages,
		Projects:         roll.Projects,
		TopLanguages:     topN(roll.Languages, TopN, identity),
		TopProjects:      topN(roll.Projects, TopN, baseName),
		TopFiles:         topN(roll.Files, TopN, baseName),
		PeakDay:          peakDay(days),
		PeakHour:         peakHour(roll.Hourly),
	}
	if roll.ActiveDays > 0 {
		s.DailyAverageMs = roll.TotalTimeMs / int64(roll.ActiveDays)
	}
	for _, d := range days {
		s.Days = append(s.Days, DayTotal{Date: store.DateKey(d.Date), TimeMs: d.Agg.TotalTimeMs})
	}

	active := activeDates(days)
	switch p {
	case Monthly:
		s.CurrentStreak = CurrentStreak(active)
		s.Weeks = breakdown(days, isoWeek)
	case Yearly:
		s.LongestStreak = LongestStreak(active)
		s.Months = breakdown(days, calendarMonth)
		s.LanguageTrends = languageTrends(s.Months)
	default:
		s.CurrentStreak = CurrentStreak(active)
	}
	return s
}

// days returns every date of r with its aggregate, zero-filled.
func (e *Engine) days(r Range) []Day {
	from, to := r.Keys()
	aggs := e.src.Aggregates(from, to)
	dates := r.Days()
	out := make([]Day, len(dates))
	for i, d := range dates {
		out[i] = Day{Date: d, Agg: aggs[store.DateKey(d)]}
	}
	return out
}

func (e *Engine) total(r Range) int64 {
	from, to := r.Keys()
	var sum int64
	for _, a := range e.src.Aggregates(from, to) {
		sum += a.TotalTimeMs
	}
	return sum
}

// elapsedDays counts the days of r up to and including today.
func elapsedDays(r Range, today time.Time) int {
	end := r.End
	if today.Before(end) {
		end = today
	}
	if end.Before(r.Start) {
		return 0
	}
	return int(end.Sub(r.Start).Hours()/24) + 1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
