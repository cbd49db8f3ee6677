// Package style derives qualitative coding-style observations from a period
// summary. Every observation comes from an independent threshold rule.
package style

import (
	"fmt"
	"slices"
	"time"

	"github.com/fakeyudi/codepulse/internal/stats"
)

// Category groups observations for presentation.
type Category string

const (
	CategoryTime        Category = "time"
	CategoryRhythm      Category = "rhythm"
	CategoryFocus       Category = "focus"
	CategoryExploration Category = "exploration"
)

// categoryOrder is the order categories are evaluated and presented in.
var categoryOrder = []Category{CategoryTime, CategoryRhythm, CategoryFocus, CategoryExploration}

// ShortPeriodLimit caps weekly and monthly output. Yearly output is uncapped.
const ShortPeriodLimit = 5

// Observation is one emitted style note.
type Observation struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Observation string   `json:"observation"`
}

// Variant marks whether a rule is the base form, a stricter yearly form of
// a base rule, or a rule that exists only for years.
type Variant int

const (
	Base Variant = iota
	Escalated
	YearOnly
)

// Rule is one row of the classification table.
type Rule struct {
	ID          string
	Category    Category
	Variant     Variant
	Title       string
	Description string
	When        func(Metrics) bool
	Observe     func(Metrics) string
}

// Classify evaluates every applicable rule against s and returns the
// matches ordered by category, then by table order.
func Classify(s *stats.Summary) []Observation {
	return ClassifyWith(Rules, s)
}

// ClassifyWith evaluates a custom rule table.
func ClassifyWith(rules []Rule, s *stats.Summary) []Observation {
	if s == nil {
		return nil
	}
	yearly := s.Period == stats.Yearly
	m := metricsOf(s)

	var out []Observation
	for _, cat := range categoryOrder {
		for _, r := range rules {
			if r.Category != cat {
				continue
			}
			if r.Variant != Base && !yearly {
				continue
			}
			if !r.When(m) {
				continue
			}
			out = append(out, Observation{
				ID:          r.ID,
				Category:    r.Category,
				Title:       r.Title,
				Description: r.Description,
				Observation: r.Observe(m),
			})
		}
	}
	if !yearly && len(out) > ShortPeriodLimit {
		out = out[:ShortPeriodLimit]
	}
	return out
}

// Metrics are the summary values rules look at.
type Metrics struct {
	Period              stats.Period
	TotalHours          float64
	ActiveDays          int
	TotalDays           int
	ActiveRatio         float64
	DailyAverageHours   float64
	LongestSessionHours float64
	TopProject          string
	TopProjectPct       float64
	TopLanguage         string
	TopLanguagePct      float64
	LanguageCount       int
	ProjectCount        int
	NightOwlPct         float64
	MorningPct          float64
	WeekendPct          float64
	PeakHour            int
	Streak              int
	CharsPerHour        float64
	FilesEdited         int
	Rising              []string
}

func metricsOf(s *stats.Summary) Metrics {
	m := Metrics{
		Period:              s.Period,
		TotalHours:          hours(s.TotalTimeMs),
		ActiveDays:          s.ActiveDays,
		TotalDays:           s.TotalDays,
		DailyAverageHours:   hours(s.DailyAverageMs),
		LongestSessionHours: hours(s.LongestSessionMs),
		LanguageCount:       countPositive(s.Languages),
		ProjectCount:        countPositive(s.Projects),
		PeakHour:            s.PeakHour,
		FilesEdited:         s.EditedFileCount,
	}
	if s.TotalDays > 0 {
		m.ActiveRatio = float64(s.ActiveDays) / float64(s.TotalDays)
	}
	if p, ok := s.TopProject(); ok {
		m.TopProject, m.TopProjectPct = p.Label, p.Percentage
	}
	if l, ok := s.TopLanguage(); ok {
		m.TopLanguage, m.TopLanguagePct = l.Name, l.Percentage
	}
	if s.TotalTimeMs > 0 {
		total := float64(s.TotalTimeMs)
		m.NightOwlPct = float64(s.NightOwlTimeMs) / total * 100
		var morning int64
		for h := 5; h < 9; h++ {
			morning += s.Hourly[h]
		}
		m.MorningPct = float64(morning) / total * 100
		weekend := s.DayOfWeek[time.Saturday] + s.DayOfWeek[time.Sunday]
		m.WeekendPct = float64(weekend) / total * 100
	}
	if m.TotalHours > 0 {
		m.CharsPerHour = float64(s.CharactersEdited) / m.TotalHours
	}
	if s.Period == stats.Yearly {
		m.Streak = s.LongestStreak
	} else {
		m.Streak = s.CurrentStreak
	}
	for _, lt := range s.LanguageTrends {
		if lt.Trend == stats.Increasing {
			m.Rising = append(m.Rising, lt.Language)
		}
	}
	return m
}

func hours(ms int64) float64 {
	return float64(ms) / float64(time.Hour/time.Millisecond)
}

func countPositive(m map[string]int64) int {
	n := 0
	for _, v := range m {
		if v > 0 {
			n++
		}
	}
	return n
}

// categories returns the evaluation order of categories.
func categories() []Category {
	return slices.Clone(categoryOrder)
}

func fmtHours(h float64) string {
	if h < 1 {
		return fmt.Sprintf("%dm", int(h*60+0.5))
	}
	return fmt.Sprintf("%.1fh", h)
}
