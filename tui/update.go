package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			m.statusMsg = "Refreshing..."
			return m, m.loadCmd()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Down):
			m.moveRow(1)
		case key.Matches(msg, m.keys.Up):
			m.moveRow(-1)
		case key.Matches(msg, m.keys.NextTab):
			m.activeTab = (m.activeTab + 1) % numTabs
			m.resetRows()
		case key.Matches(msg, m.keys.NextProject):
			m.selectProject(m.selected + 1)
		case key.Matches(msg, m.keys.PrevProject):
			m.selectProject(m.selected - 1)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case TickMsg:
		return m, tea.Batch(m.loadCmd(), m.tickCmd())

	case ProjectsLoadedMsg:
		if msg.Err != nil {
			m.statusMsg = "Refresh failed: " + msg.Err.Error()
			return m, nil
		}
		m.SetProjects(msg.Projects)
		m.lastRefresh = time.Now()
		m.statusMsg = fmt.Sprintf("Loaded %d projects", len(msg.Projects))
	}

	return m, nil
}

// SetProjects replaces the projects, keeping the selection by name when
// the selected project is still there
func (m *Model) SetProjects(projects []ProjectView) {
	name := ""
	if p, ok := m.current(); ok {
		name = p.Name
	}
	m.projects = projects
	m.selected = 0
	for i, p := range projects {
		if p.Name == name {
			m.selected = i
			break
		}
	}
	m.clampRow()
}

func (m *Model) selectProject(i int) {
	if i < 0 || i >= len(m.projects) {
		return
	}
	m.selected = i
	if m.activeTab == TabProjects {
		m.selectedRow = i
		m.follow()
		return
	}
	m.resetRows()
}

func (m *Model) moveRow(delta int) {
	m.selectedRow += delta
	m.clampRow()
	if m.activeTab == TabProjects && len(m.projects) > 0 {
		m.selected = m.selectedRow
	}
}

func (m *Model) resetRows() {
	m.selectedRow = 0
	m.scroll = 0
	if m.activeTab == TabProjects {
		m.selectedRow = m.selected
		m.follow()
	}
}

func (m *Model) clampRow() {
	n := m.rows()
	if m.selectedRow >= n {
		m.selectedRow = n - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
	m.follow()
}

// follow scrolls so the selected row is visible
func (m *Model) follow() {
	if m.selectedRow < m.scroll {
		m.scroll = m.selectedRow
	}
	if m.selectedRow >= m.scroll+maxVisible {
		m.scroll = m.selectedRow - maxVisible + 1
	}
}
