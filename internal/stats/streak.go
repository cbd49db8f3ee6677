package stats

import (
	"slices"
	"time"
)

// CurrentStreak counts consecutive days backwards from the most recent
// active date, stopping at the first gap.
func CurrentStreak(active []time.Time) int {
	if len(active) == 0 {
		return 0
	}
	days := uniqueDays(active)
	slices.Reverse(days)

	streak := 1
	for i := 1; i < len(days); i++ {
		if !days[i].AddDate(0, 0, 1).Equal(days[i-1]) {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of consecutive active days
// anywhere in the input.
func LongestStreak(active []time.Time) int {
	if len(active) == 0 {
		return 0
	}
	days := uniqueDays(active)

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}
	return longest
}

// uniqueDays normalizes to calendar dates, sorts ascending and removes
// duplicates.
func uniqueDays(in []time.Time) []time.Time {
	days := make([]time.Time, len(in))
	for i, t := range in {
		days[i] = civil(t)
	}
	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(days, func(a, b time.Time) bool { return a.Equal(b) })
}
