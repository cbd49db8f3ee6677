package stats

import (
	"fmt"
	"time"

	"github.com/fakeyudi/codepulse/internal/store"
)

// UnitBreakdown is the rollup of one calendar unit (a week or a month)
// inside a longer period.
type UnitBreakdown struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Start       string `json:"start"`
	End         string `json:"end"`
	TotalTimeMs int64  `json:"totalTimeMs"`
	ActiveDays  int    `json:"activeDays"`
	TopLanguage string `json:"topLanguage,omitempty"`
	TopProject  string `json:"topProject,omitempty"`
	Rollup      Rollup `json:"-"`
}

// unitKey maps a date to its calendar unit and a display label.
type unitKey func(time.Time) (key, label string)

// isoWeek groups days by ISO week.
func isoWeek(t time.Time) (string, string) {
	y, w := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w), fmt.Sprintf("Week %d", w)
}

// calendarMonth groups days by month.
func calendarMonth(t time.Time) (string, string) {
	return t.Format("2006-01"), t.Month().String()
}

// breakdown groups ascending days by unit and reduces each group with the
// same rollup as the whole period.
func breakdown(days []Day, unit unitKey) []UnitBreakdown {
	var out []UnitBreakdown
	var group []Day
	var key, label string

	flush := func() {
		if len(group) == 0 {
			return
		}
		r := rollup(group)
		b := UnitBreakdown{
			Key:         key,
			Label:       label,
			Start:       store.DateKey(group[0].Date),
			End:         store.DateKey(group[len(group)-1].Date),
			TotalTimeMs: r.TotalTimeMs,
			ActiveDays:  r.ActiveDays,
			Rollup:      r,
		}
		if top := topN(r.Languages, 1, identity); len(top) > 0 {
			b.TopLanguage = top[0].Name
		}
		if top := topN(r.Projects, 1, baseName); len(top) > 0 {
			b.TopProject = top[0].Label
		}
		out = append(out, b)
		group = nil
	}

	for _, d := range days {
		k, l := unit(d.Date)
		if k != key {
			flush()
			key, label = k, l
		}
		group = append(group, d)
	}
	flush()
	return out
}
