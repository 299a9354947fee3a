package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/hochfrequenz/critpath/internal/cpa"
	"github.com/hochfrequenz/critpath/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	criticalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	slackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	dimmedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("238"))

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Underline(true)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))
)

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(headerStyle.Width(m.width).Render(m.renderHeader()))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	var content string
	switch m.activeTab {
	case TabProjects:
		content = m.renderProjects()
	case TabTasks:
		content = m.renderTasks()
	case TabWaves:
		content = m.renderWaves()
	case TabEvents:
		content = m.renderEvents()
	}
	b.WriteString(sectionStyle.Width(m.width - 2).Render(content))
	b.WriteString("\n")

	if m.statusMsg != "" {
		b.WriteString(dimmedStyle.Render(" " + m.statusMsg))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m Model) renderHeader() string {
	p, ok := m.current()
	if !ok {
		return "critpath │ no projects"
	}
	parts := []string{"critpath", fmt.Sprintf("%d/%d %s", m.selected+1, len(m.projects), p.Name)}
	if p.Result != nil {
		parts = append(parts,
			"Duration: "+p.Result.ProjectDuration().String(),
			fmt.Sprintf("Window: %s → %s", p.Result.PlannedStart(), p.Result.PlannedFinish()),
		)
	}
	parts = append(parts, "updated "+humanize.Time(m.lastRefresh))
	return strings.Join(parts, " │ ")
}

func (m Model) renderTabs() string {
	var parts []string
	for i, tab := range tabNames {
		if Tab(i) == m.activeTab {
			parts = append(parts, tabActiveStyle.Render(fmt.Sprintf(" %s ", tab)))
		} else {
			parts = append(parts, tabInactiveStyle.Render(fmt.Sprintf(" %s ", tab)))
		}
	}
	return strings.Join(parts, "│")
}

// visible returns the row range to render
func (m Model) visible(n int) (int, int) {
	start := m.scroll
	if start > n {
		start = n
	}
	end := start + maxVisible
	if end > n {
		end = n
	}
	return start, end
}

func (m Model) row(i int, line string, style lipgloss.Style) string {
	if i == m.selectedRow {
		return selectedStyle.Render("> " + style.Render(line))
	}
	return "  " + style.Render(line)
}

func (m Model) renderProjects() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("PROJECTS"))
	b.WriteString("\n")

	if len(m.projects) == 0 {
		b.WriteString(dimmedStyle.Render("  No projects. Run 'critpath import <dir>' to add some."))
		return b.String()
	}

	start, end := m.visible(len(m.projects))
	for i := start; i < end; i++ {
		p := m.projects[i]
		var line string
		style := lipgloss.NewStyle()
		switch {
		case p.Err != nil:
			line = fmt.Sprintf("%-24s %s", truncate(p.Name, 24), p.Err)
			style = warningStyle
		case p.Result == nil:
			line = fmt.Sprintf("%-24s not analysed", truncate(p.Name, 24))
			style = dimmedStyle
		default:
			line = fmt.Sprintf("%-24s %9s  %s", truncate(p.Name, 24), p.Result.ProjectDuration(),
				strings.Join(pathNames(p.Result), " → "))
		}
		b.WriteString(m.row(i, line, style))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) renderTasks() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("TASKS"))
	b.WriteString("\n")

	r, msg := m.result()
	if r == nil {
		b.WriteString(msg)
		return b.String()
	}

	tasks := r.Tasks()
	b.WriteString(dimmedStyle.Render(fmt.Sprintf("  %-24s %9s %6s %6s %6s %6s %9s %4s",
		"Task", "Duration", "ES", "EF", "LS", "LF", "Float", "Wave")))
	b.WriteString("\n")

	start, end := m.visible(len(tasks))
	for i := start; i < end; i++ {
		t := tasks[i]
		line := fmt.Sprintf("%-24s %9s %6s %6s %6s %6s %9s %4d",
			truncate(t.Name, 24), t.Duration, t.EarliestStart, t.EarliestFinish,
			t.LatestStart, t.LatestFinish, t.Float, t.Wave)
		style := slackStyle
		if t.Critical {
			style = criticalStyle
		}
		b.WriteString(m.row(i, line, style))
		b.WriteString("\n")
	}
	if len(tasks) > maxVisible {
		b.WriteString(dimmedStyle.Render(fmt.Sprintf("  %d-%d of %d", start+1, end, len(tasks))))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) renderWaves() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("WAVES"))
	b.WriteString("\n")

	r, msg := m.result()
	if r == nil {
		b.WriteString(msg)
		return b.String()
	}

	byID := taskNames(r)
	waves := r.Waves()
	start, end := m.visible(len(waves))
	for i := start; i < end; i++ {
		w := waves[i]
		names := make([]string, len(w.Tasks))
		for j, id := range w.Tasks {
			names[j] = byID[id]
		}
		line := fmt.Sprintf("Wave %-3d @ %6s  %s", w.Index, w.Start, strings.Join(names, ", "))
		style := slackStyle
		if w.Critical {
			style = criticalStyle
		}
		b.WriteString(m.row(i, line, style))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) renderEvents() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("EVENTS"))
	b.WriteString("\n")

	r, msg := m.result()
	if r == nil {
		b.WriteString(msg)
		return b.String()
	}

	stats := r.Network().Stats()
	b.WriteString(dimmedStyle.Render(fmt.Sprintf("  %d events, %d activities, %d dummies",
		stats.Events, stats.Activities, stats.Dummies)))
	b.WriteString("\n")

	events := r.Events()
	start, end := m.visible(len(events))
	for i := start; i < end; i++ {
		e := events[i]
		line := fmt.Sprintf("e%-4d earliest %6s  latest %6s  float %9s", e.Event, e.Earliest, e.Latest, e.Float)
		style := slackStyle
		if e.Float.IsZero() {
			style = criticalStyle
		}
		b.WriteString(m.row(i, line, style))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// result returns the selected project's analysis, or a message saying why
// there is none
func (m Model) result() (*cpa.Result, string) {
	p, ok := m.current()
	if !ok {
		return nil, dimmedStyle.Render("  No project selected.")
	}
	if p.Err != nil {
		return nil, warningStyle.Render("  " + p.Err.Error())
	}
	if p.Result == nil {
		return nil, dimmedStyle.Render("  Not analysed yet.")
	}
	return p.Result, ""
}

func taskNames(r *cpa.Result) map[domain.TaskID]string {
	byID := make(map[domain.TaskID]string)
	for _, t := range r.Tasks() {
		byID[t.Task] = t.Name
	}
	return byID
}

func pathNames(r *cpa.Result) []string {
	byID := taskNames(r)
	path := r.CriticalPath()
	names := make([]string, len(path))
	for i, id := range path {
		names[i] = byID[id]
	}
	return names
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
