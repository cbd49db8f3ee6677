package stats

import (
	"cmp"
	"slices"
)

// Trend classifies how a language's usage moved across a year.
type Trend string

const (
	Increasing Trend = "increasing"
	Decreasing Trend = "decreasing"
	Stable     Trend = "stable"
)

// trendThreshold is the half-year change, in percent, beyond which a
// language counts as growing or shrinking.
const trendThreshold = 20.0

// LanguageTrend is one language's month-by-month time over a year.
type LanguageTrend struct {
	Language      string    `json:"language"`
	Monthly       [12]int64 `json:"monthly"`
	Trend         Trend     `json:"trend"`
	ChangePercent float64   `json:"changePercent"`
}

// classifyTrend compares the first half-year to the second.
func classifyTrend(monthly [12]int64) (Trend, float64) {
	var first, second int64
	for i, v := range monthly {
		if i < 6 {
			first += v
		} else {
			second += v
		}
	}
	if first == 0 {
		if second > 0 {
			return Increasing, 100
		}
		return Stable, 0
	}
	change := ChangePercent(second, first)
	switch {
	case change > trendThreshold:
		return Increasing, change
	case change < -trendThreshold:
		return Decreasing, change
	default:
		return Stable, change
	}
}

// languageTrends builds a trend for every language that appears in months,
// ordered by total time descending.
func languageTrends(months []UnitBreakdown) []LanguageTrend {
	byLang := make(map[string]*LanguageTrend)
	totals := make(map[string]int64)
	for _, m := range months {
		day, ok := parseDay(m.Start)
		if !ok {
			continue
		}
		idx := int(day.Month()) - 1
		for lang, v := range m.Rollup.Languages {
			lt, ok := byLang[lang]
			if !ok {
				lt = &LanguageTrend{Language: lang}
				byLang[lang] = lt
			}
			lt.Monthly[idx] += v
			totals[lang] += v
		}
	}

	out := make([]LanguageTrend, 0, len(byLang))
	for _, lt := range byLang {
		lt.Trend, lt.ChangePercent = classifyTrend(lt.Monthly)
		out = append(out, *lt)
	}
	slices.SortFunc(out, func(a, b LanguageTrend) int {
		if c := cmp.Compare(totals[b.Language], totals[a.Language]); c != 0 {
			return c
		}
		return cmp.Compare(a.Language, b.Language)
	})
	return out
}
