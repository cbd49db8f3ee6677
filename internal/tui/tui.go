// Package tui provides a Bubble Tea viewer for today's activity and period
// summaries.
package tui

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/codepulse/internal/app"
	"github.com/fakeyudi/codepulse/internal/report"
	"github.com/fakeyudi/codepulse/internal/stats"
	"github.com/fakeyudi/codepulse/internal/store"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

type tabID int

const (
	tabToday tabID = iota
	tabWeek
	tabMonth
	tabYear
	tabCount
)

var tabNames = [tabCount]string{"Today", "Week", "Month", "Year"}

var tabPeriods = [tabCount]stats.Period{tabWeek: stats.Weekly, tabMonth: stats.Monthly, tabYear: stats.Yearly}

// Source is the data the viewer reads. *app.App implements it.
type Source interface {
	TodayAggregate(ctx context.Context) store.DailyAggregate
	GenerateSummary(p stats.Period, offset int) *app.Report
}

// Model is the root Bubble Tea model for the viewer.
type Model struct {
	ctx       context.Context
	src       Source
	now       func() time.Time
	styled    bool
	activeTab tabID
	offsets   [tabCount]int
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool
}

// New creates a viewer over src. styled enables colors inside the tabs.
func New(ctx context.Context, src Source, now func() time.Time, styled bool) Model {
	if now == nil {
		now = time.Now
	}
	return Model{ctx: ctx, src: src, now: now, styled: styled}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil
		case "1", "2", "3", "4":
			m.activeTab = tabID(msg.String()[0] - '1')
			return m, nil
		case "[":
			if m.activeTab != tabToday {
				m.offsets[m.activeTab]++
				m.rebuild(m.activeTab)
			}
			return m, nil
		case "]":
			if m.activeTab != tabToday && m.offsets[m.activeTab] > 0 {
				m.offsets[m.activeTab]--
				m.rebuild(m.activeTab)
			}
			return m, nil
		case "r":
			for i := tabID(0); i < tabCount; i++ {
				m.rebuild(i)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := "  codepulse  " + store.DateKey(m.now())
	if off := m.offsets[m.activeTab]; off > 0 {
		title += fmt.Sprintf("  (%d %s back)", off, tabPeriods[m.activeTab])
	}
	titleBar := titleStyle.Width(m.width).Render(title)

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  ←/→ tab  ↑/↓ scroll  1-4 jump  r refresh  q quit"
	if m.activeTab != tabToday {
		hint += "  [ older  ] newer"
	}
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(hint + strings.Repeat(" ", pad) + pct)

	return lipgloss.JoinVertical(lipgloss.Left, titleBar, tabRow, content, statusBar)
}

func (m *Model) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		m.viewports[i] = viewport.New(m.width, vpHeight)
		m.viewports[i].SetContent(m.renderTab(i))
	}
}

func (m *Model) rebuild(t tabID) {
	if !m.ready {
		return
	}
	m.viewports[t].SetContent(m.renderTab(t))
	m.viewports[t].GotoTop()
}

func (m *Model) renderTab(t tabID) string {
	var buf bytes.Buffer
	r := report.New(&buf, m.styled)
	if t == tabToday {
		r.Today(store.DateKey(m.now()), m.src.TodayAggregate(m.ctx))
		return buf.String()
	}
	p := tabPeriods[t]
	rep := m.src.GenerateSummary(p, m.offsets[t])
	if rep == nil {
		msg := fmt.Sprintf("  No coding activity recorded for this %s.", p)
		if m.styled {
			msg = dimStyle.Render(msg)
		}
		return msg + "\n"
	}
	r.Summary(rep.Summary, rep.Observations)
	return buf.String()
}

// Run starts the viewer and blocks until the user quits.
func Run(ctx context.Context, src Source) error {
	p := tea.NewProgram(New(ctx, src, time.Now, true), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
