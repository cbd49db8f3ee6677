// Package report renders today's aggregate and period summaries for the
// terminal, styled when writing to a TTY and plain otherwise.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"

	"github.com/fakeyudi/codepulse/internal/stats"
	"github.com/fakeyudi/codepulse/internal/store"
	"github.com/fakeyudi/codepulse/internal/style"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	badgeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

const barWidth = 20

// IsTTY reports whether f is an interactive terminal that accepts color.
func IsTTY(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(f.Fd())
}

// Renderer writes reports to w.
type Renderer struct {
	w      io.Writer
	styled bool
}

// New returns a Renderer. styled enables colors and decorations.
func New(w io.Writer, styled bool) *Renderer {
	return &Renderer{w: w, styled: styled}
}

func (r *Renderer) paint(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

func (r *Renderer) title(text string) {
	if r.styled {
		fmt.Fprintln(r.w, titleStyle.Render(text))
	} else {
		fmt.Fprintln(r.w, "# "+text)
	}
	fmt.Fprintln(r.w)
}

func (r *Renderer) heading(text string) {
	if r.styled {
		fmt.Fprintln(r.w, sectionHeader.Render("  "+text))
	} else {
		fmt.Fprintln(r.w, "## "+text)
	}
}

func (r *Renderer) row(label, value string) {
	fmt.Fprintf(r.w, "%s  %s\n", r.paint(labelStyle, fmt.Sprintf("  %-16s", label)), value)
}

func (r *Renderer) ranked(entries []stats.Ranked) {
	if len(entries) == 0 {
		fmt.Fprintln(r.w, r.paint(dimStyle, "  (none)"))
		return
	}
	for _, e := range entries {
		n := int(e.Percentage / 100 * barWidth)
		bar := strings.Repeat("█", n) + strings.Repeat(" ", barWidth-n)
		fmt.Fprintf(r.w, "  %-24s %s %s %s\n",
			truncate(e.Label, 24),
			r.paint(barStyle, bar),
			r.paint(timeStyle, fmt.Sprintf("%8s", Duration(e.TimeMs))),
			r.paint(dimStyle, fmt.Sprintf("%5.1f%%", e.Percentage)))
	}
}

// Today renders one day's aggregate.
func (r *Renderer) Today(date string, a store.DailyAggregate) {
	r.title("codepulse  " + date)
	r.row("Total:", r.paint(timeStyle, Duration(a.TotalTimeMs)))
	r.row("Active:", Duration(a.ActiveTimeMs))
	r.row("Longest session:", Duration(a.LongestSessionMs))
	r.row("Files edited:", fmt.Sprintf("%d", a.EditedFileCount))
	r.row("Characters:", fmt.Sprintf("%d", a.TotalCharactersEdited))
	if a.NightOwlTimeMs > 0 {
		r.row("Night owl:", Duration(a.NightOwlTimeMs))
	}
	fmt.Fprintln(r.w)

	r.heading("Languages")
	r.ranked(stats.Rank(a.LanguageTime, stats.TopN, nil))
	fmt.Fprintln(r.w)
	r.heading("Projects")
	r.ranked(stats.Rank(a.ProjectTime, stats.TopN, filepath.Base))
	fmt.Fprintln(r.w)
}

// Summary renders a period summary and its observations.
func (r *Renderer) Summary(s *stats.Summary, obs []style.Observation) {
	r.title(fmt.Sprintf("codepulse  %s of %s", periodNoun(s.Period), periodLabel(s)))

	r.row("Total:", r.paint(timeStyle, Duration(s.TotalTimeMs)))
	r.row("Active days:", fmt.Sprintf("%d of %d", s.ActiveDays, s.TotalDays))
	r.row("Daily average:", Duration(s.DailyAverageMs))
	r.row("Longest session:", Duration(s.LongestSessionMs))
	r.row("Peak day:", fmt.Sprintf("%s (%s)", s.PeakDay.Date, Duration(s.PeakDay.TimeMs)))
	r.row("Peak hour:", fmt.Sprintf("%02d:00", s.PeakHour))
	if s.Period == stats.Yearly {
		r.row("Longest streak:", days(s.LongestStreak))
	} else {
		r.row("Current streak:", days(s.CurrentStreak))
	}
	r.row("Change:", r.change(s))
	fmt.Fprintln(r.w)

	r.heading("Top languages")
	r.ranked(s.TopLanguages)
	fmt.Fprintln(r.w)
	r.heading("Top projects")
	r.ranked(s.TopProjects)
	fmt.Fprintln(r.w)
	r.heading("Top files")
	r.ranked(s.TopFiles)
	fmt.Fprintln(r.w)

	units := s.Weeks
	if s.Period == stats.Yearly {
		units = s.Months
	}
	if len(units) > 0 {
		r.heading("Breakdown")
		for _, u := range units {
			top := u.TopLanguage
			if top == "" {
				top = "-"
			}
			fmt.Fprintf(r.w, "  %-12s %s  %2d days  %s\n", u.Label,
				r.paint(timeStyle, fmt.Sprintf("%8s", Duration(u.TotalTimeMs))), u.ActiveDays, r.paint(dimStyle, top))
		}
		fmt.Fprintln(r.w)
	}

	if len(s.LanguageTrends) > 0 {
		r.heading("Language trends")
		for _, lt := range s.LanguageTrends {
			fmt.Fprintf(r.w, "  %-16s %-10s %+6.1f%%\n", lt.Language, lt.Trend, lt.ChangePercent)
		}
		fmt.Fprintln(r.w)
	}

	if len(obs) > 0 {
		r.heading("Coding style")
		for _, o := range obs {
			fmt.Fprintf(r.w, "  %s %s\n", r.paint(badgeStyle, "["+o.Title+"]"), o.Observation)
		}
		fmt.Fprintln(r.w)
	}
}

func (r *Renderer) change(s *stats.Summary) string {
	if s.PreviousTotalMs == 0 {
		return r.paint(dimStyle, "no data for the previous "+periodNoun(s.Period))
	}
	text := fmt.Sprintf("%+.0f%% vs previous %s (%s)", s.ChangePercent, periodNoun(s.Period), Duration(s.PreviousTotalMs))
	switch {
	case s.ChangePercent > 0:
		return r.paint(upStyle, text)
	case s.ChangePercent < 0:
		return r.paint(downStyle, text)
	}
	return text
}

// StatusLine is the one-line today total printed on each tick.
func (r *Renderer) StatusLine(a store.DailyAggregate) string {
	line := "codepulse  today " + Duration(a.TotalTimeMs)
	if top := stats.Rank(a.LanguageTime, stats.TopN, nil); len(top) > 0 {
		line += "  " + top[0].Label
	}
	return r.paint(statusBarStyle, line)
}

// Duration formats milliseconds as "1h 05m", "12m" or "<1m".
func Duration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Minute {
		if d <= 0 {
			return "0m"
		}
		return "<1m"
	}
	h := int64(d / time.Hour)
	m := int64(d%time.Hour) / int64(time.Minute)
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}

func periodNoun(p stats.Period) string {
	switch p {
	case stats.Monthly:
		return "month"
	case stats.Yearly:
		return "year"
	}
	return "week"
}

func periodLabel(s *stats.Summary) string {
	switch s.Period {
	case stats.Monthly:
		return s.Start.Format("January 2006")
	case stats.Yearly:
		return s.Start.Format("2006")
	}
	return s.Start.Format("Jan 2") + " - " + s.End.Format("Jan 2, 2006")
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
