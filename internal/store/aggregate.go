package store

import (
	"maps"
	"time"
)

// DateLayout is the key format of daily aggregates.
const DateLayout = "2006-01-02"

// DateKey returns the local calendar date of t as a store key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// DailyAggregate is the persisted rollup of one calendar day. Every time
// increment is routed to both LanguageTime and ProjectTime, so their sums
// equal TotalTimeMs.
type DailyAggregate struct {
	TotalTimeMs           int64             `json:"totalTimeMs"`
	ActiveTimeMs          int64             `json:"activeTimeMs"`
	LanguageTime          map[string]int64  `json:"languageTime"`
	ProjectTime           map[string]int64  `json:"projectTime"`
	FileTimeMs            map[string]int64  `json:"fileTimeMs"`
	FileWorkspaces        map[string]string `json:"fileWorkspaces"`
	HourlyDistribution    [24]int64         `json:"hourlyDistribution"`
	EditedFileCount       int               `json:"editedFileCount"`
	TotalCharactersEdited int64             `json:"totalCharactersEdited"`
	NightOwlTimeMs        int64             `json:"nightOwlTimeMs"`
	LongestSessionMs      int64             `json:"longestSessionMs"`
}

// NewDailyAggregate returns an empty aggregate with allocated maps.
func NewDailyAggregate() *DailyAggregate {
	a := &DailyAggregate{}
	a.normalize()
	return a
}

func (a *DailyAggregate) normalize() {
	if a.LanguageTime == nil {
		a.LanguageTime = make(map[string]int64)
	}
	if a.ProjectTime == nil {
		a.ProjectTime = make(map[string]int64)
	}
	if a.FileTimeMs == nil {
		a.FileTimeMs = make(map[string]int64)
	}
	if a.FileWorkspaces == nil {
		a.FileWorkspaces = make(map[string]string)
	}
}

// Clone returns a deep copy that callers may keep or mutate freely.
func (a *DailyAggregate) Clone() DailyAggregate {
	c := *a
	c.LanguageTime = maps.Clone(a.LanguageTime)
	c.ProjectTime = maps.Clone(a.ProjectTime)
	c.FileTimeMs = maps.Clone(a.FileTimeMs)
	c.FileWorkspaces = maps.Clone(a.FileWorkspaces)
	c.normalize()
	return c
}

// Total returns TotalTimeMs as a duration.
func (a *DailyAggregate) Total() time.Duration {
	return time.Duration(a.TotalTimeMs) * time.Millisecond
}

// IsNightOwlHour reports whether hour falls in the 22:00-04:00 window.
func IsNightOwlHour(hour int) bool {
	return hour >= 22 || hour < 4
}
