package style

import (
	"fmt"
	"strings"
)

// Rules is the classification table. Rows are independent: a row's
// eligibility never depends on another row.
var Rules = []Rule{
	// time
	{
		ID: "marathoner", Category: CategoryTime, Variant: Base,
		Title:       "Marathoner",
		Description: "Sustains long uninterrupted sessions.",
		When:        func(m Metrics) bool { return m.LongestSessionHours >= 3 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("Your longest session ran %s without a break.", fmtHours(m.LongestSessionHours))
		},
	},
	{
		ID: "ultra-marathoner", Category: CategoryTime, Variant: Escalated,
		Title:       "Ultra Marathoner",
		Description: "Has at least one session of six hours or more in the year.",
		When:        func(m Metrics) bool { return m.LongestSessionHours >= 6 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("Your longest session of the year lasted %s.", fmtHours(m.LongestSessionHours))
		},
	},
	{
		ID: "steady-builder", Category: CategoryTime, Variant: Base,
		Title:       "Steady Builder",
		Description: "Codes for a solid block of time on each active day.",
		When:        func(m Metrics) bool { return m.DailyAverageHours >= 2 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("You averaged %s on the days you coded.", fmtHours(m.DailyAverageHours))
		},
	},
	{
		ID: "full-timer", Category: CategoryTime, Variant: Escalated,
		Title:       "Full Timer",
		Description: "Averages four or more hours per active day across the year.",
		When:        func(m Metrics) bool { return m.DailyAverageHours >= 4 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("Across the year you averaged %s per active day.", fmtHours(m.DailyAverageHours))
		},
	},
	{
		ID: "consistent", Category: CategoryTime, Variant: Base,
		Title:       "Consistent",
		Description: "Shows up on most days of the period.",
		When:        func(m Metrics) bool { return m.TotalDays > 0 && m.ActiveRatio >= 0.7 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("You coded on %d of %d days.", m.ActiveDays, m.TotalDays)
		},
	},
	{
		ID: "unstoppable", Category: CategoryTime, Variant: Escalated,
		Title:       "Unstoppable",
		Description: "Coded on nine out of ten days of the year.",
		When:        func(m Metrics) bool { return m.TotalDays > 0 && m.ActiveRatio >= 0.9 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("You coded on %.0f%% of the year's days.", m.ActiveRatio*100)
		},
	},
	{
		ID: "dedicated", Category: CategoryTime, Variant: YearOnly,
		Title:       "Dedicated",
		Description: "Logged 500 hours or more in a year.",
		When:        func(m Metrics) bool { return m.TotalHours >= 500 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("You put %.0f hours into code this year.", m.TotalHours)
		},
	},

	// rhythm
	{
		ID: "night-owl", Category: CategoryRhythm, Variant: Base,
		Title:       "Night Owl",
		Description: "Does a large share of work between 22:00 and 04:00.",
		When:        func(m Metrics) bool { return m.NightOwlPct >= 30 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("%.0f%% of your time was logged late at night.", m.NightOwlPct)
		},
	},
	{
		ID: "creature-of-the-night", Category: CategoryRhythm, Variant: Escalated,
		Title:       "Creature of the Night",
		Description: "Does most of the year's work between 22:00 and 04:00.",
		When:        func(m Metrics) bool { return m.NightOwlPct >= 50 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("Over half of your year (%.0f%%) happened after dark.", m.NightOwlPct)
		},
	},
	{
		ID: "early-bird", Category: CategoryRhythm, Variant: Base,
		Title:       "Early Bird",
		Description: "Gets going before 09:00.",
		When:        func(m Metrics) bool { return m.MorningPct >= 30 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("%.0f%% of your time was logged between 05:00 and 09:00.", m.MorningPct)
		},
	},
	{
		ID: "weekend-warrior", Category: CategoryRhythm, Variant: Base,
		Title:       "Weekend Warrior",
		Description: "Puts serious time in on Saturdays and Sundays.",
		When:        func(m Metrics) bool { return m.WeekendPct >= 30 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("%.0f%% of your time fell on weekends.", m.WeekendPct)
		},
	},
	{
		ID: "nine-to-five", Category: CategoryRhythm, Variant: Base,
		Title:       "Nine to Five",
		Description: "Peaks during regular working hours.",
		When: func(m Metrics) bool {
			return m.NightOwlPct < 10 && m.PeakHour >= 9 && m.PeakHour < 17
		},
		Observe: func(m Metrics) string {
			return fmt.Sprintf("Your busiest hour was %02d:00.", m.PeakHour)
		},
	},
	{
		ID: "on-a-roll", Category: CategoryRhythm, Variant: Base,
		Title:       "On a Roll",
		Description: "Keeps a run of consecutive coding days going.",
		When:        func(m Metrics) bool { return m.Streak >= 5 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("You strung together %d days in a row.", m.Streak)
		},
	},
	{
		ID: "iron-streak", Category: CategoryRhythm, Variant: Escalated,
		Title:       "Iron Streak",
		Description: "Coded thirty or more days in a row at some point in the year.",
		When:        func(m Metrics) bool { return m.Streak >= 30 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("Your longest run this year was %d consecutive days.", m.Streak)
		},
	},

	// focus
	{
		ID: "deep-focus", Category: CategoryFocus, Variant: Base,
		Title:       "Deep Focus",
		Description: "Spends most of the period in one project.",
		When:        func(m Metrics) bool { return m.TopProjectPct >= 70 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("%.0f%% of your time went into %s.", m.TopProjectPct, m.TopProject)
		},
	},
	{
		ID: "single-minded", Category: CategoryFocus, Variant: Escalated,
		Title:       "Single Minded",
		Description: "Devoted the year almost entirely to one project.",
		When:        func(m Metrics) bool { return m.TopProjectPct >= 85 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("%s took %.0f%% of your year.", m.TopProject, m.TopProjectPct)
		},
	},
	{
		ID: "specialist", Category: CategoryFocus, Variant: Base,
		Title:       "Specialist",
		Description: "Works almost entirely in one language.",
		When:        func(m Metrics) bool { return m.TopLanguagePct >= 80 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("%s accounted for %.0f%% of your time.", m.TopLanguage, m.TopLanguagePct)
		},
	},
	{
		ID: "prolific", Category: CategoryFocus, Variant: Base,
		Title:       "Prolific",
		Description: "Edits a lot of text per hour.",
		When:        func(m Metrics) bool { return m.CharsPerHour >= 2000 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("You edited about %.0f characters per hour.", m.CharsPerHour)
		},
	},

	// exploration
	{
		ID: "polyglot", Category: CategoryExploration, Variant: Base,
		Title:       "Polyglot",
		Description: "Moves between several languages.",
		When:        func(m Metrics) bool { return m.LanguageCount >= 4 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("You worked in %d languages.", m.LanguageCount)
		},
	},
	{
		ID: "language-collector", Category: CategoryExploration, Variant: Escalated,
		Title:       "Language Collector",
		Description: "Touched eight or more languages in the year.",
		When:        func(m Metrics) bool { return m.LanguageCount >= 8 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("%d languages passed through your editor this year.", m.LanguageCount)
		},
	},
	{
		ID: "juggler", Category: CategoryExploration, Variant: Base,
		Title:       "Juggler",
		Description: "Keeps several projects moving at once.",
		When:        func(m Metrics) bool { return m.ProjectCount >= 4 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("You split your time across %d projects.", m.ProjectCount)
		},
	},
	{
		ID: "portfolio", Category: CategoryExploration, Variant: Escalated,
		Title:       "Portfolio",
		Description: "Worked on ten or more projects in the year.",
		When:        func(m Metrics) bool { return m.ProjectCount >= 10 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("You contributed to %d projects this year.", m.ProjectCount)
		},
	},
	{
		ID: "explorer", Category: CategoryExploration, Variant: Base,
		Title:       "Explorer",
		Description: "Edits many different files.",
		When:        func(m Metrics) bool { return m.FilesEdited >= 50 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("You edited %d distinct files.", m.FilesEdited)
		},
	},
	{
		ID: "cartographer", Category: CategoryExploration, Variant: Escalated,
		Title:       "Cartographer",
		Description: "Edited five hundred or more files in the year.",
		When:        func(m Metrics) bool { return m.FilesEdited >= 500 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("You left your mark on %d files this year.", m.FilesEdited)
		},
	},
	{
		ID: "rising-star", Category: CategoryExploration, Variant: YearOnly,
		Title:       "Rising Star",
		Description: "Grew into a language over the second half of the year.",
		When:        func(m Metrics) bool { return len(m.Rising) > 0 },
		Observe: func(m Metrics) string {
			return fmt.Sprintf("Your time in %s grew in the second half of the year.", strings.Join(m.Rising, ", "))
		},
	},
}
