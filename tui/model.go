// Package tui is a terminal dashboard for analysed projects.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hochfrequenz/critpath/internal/cpa"
)

// Tab selects what the content section shows
type Tab int

const (
	TabProjects Tab = iota
	TabTasks
	TabWaves
	TabEvents
	numTabs
)

var tabNames = [numTabs]string{"Projects", "Tasks", "Waves", "Events"}

// maxVisible is the number of table rows shown before scrolling
const maxVisible = 15

// ProjectView is one project as the dashboard shows it. Err is set when the
// project failed to analyse.
type ProjectView struct {
	Name   string
	Result *cpa.Result
	Err    error
}

// Loader fetches fresh project views
type Loader func() ([]ProjectView, error)

// Model is the TUI application model
type Model struct {
	projects []ProjectView
	loader   Loader

	// UI state
	width       int
	height      int
	activeTab   Tab
	selected    int // project index
	selectedRow int
	scroll      int

	keys      KeyMap
	help      help.Model
	statusMsg string

	refreshEvery time.Duration
	lastRefresh  time.Time
}

// ModelConfig holds initial data for the TUI model
type ModelConfig struct {
	Projects     []ProjectView
	Loader       Loader        // optional
	RefreshEvery time.Duration // zero disables periodic refresh
}

// NewModel creates a new TUI model
func NewModel(cfg ModelConfig) Model {
	return Model{
		projects:     cfg.Projects,
		loader:       cfg.Loader,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		refreshEvery: cfg.RefreshEvery,
		lastRefresh:  time.Now(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

// TickMsg triggers a refresh
type TickMsg time.Time

// ProjectsLoadedMsg carries the outcome of a refresh
type ProjectsLoadedMsg struct {
	Projects []ProjectView
	Err      error
}

func (m Model) tickCmd() tea.Cmd {
	if m.refreshEvery <= 0 || m.loader == nil {
		return nil
	}
	return tea.Tick(m.refreshEvery, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) loadCmd() tea.Cmd {
	if m.loader == nil {
		return nil
	}
	load := m.loader
	return func() tea.Msg {
		projects, err := load()
		return ProjectsLoadedMsg{Projects: projects, Err: err}
	}
}

// current returns the selected project, if any
func (m Model) current() (ProjectView, bool) {
	if m.selected < 0 || m.selected >= len(m.projects) {
		return ProjectView{}, false
	}
	return m.projects[m.selected], true
}

// rows returns the number of rows in the active tab
func (m Model) rows() int {
	if m.activeTab == TabProjects {
		return len(m.projects)
	}
	p, ok := m.current()
	if !ok || p.Result == nil {
		return 0
	}
	switch m.activeTab {
	case TabTasks:
		return len(p.Result.Tasks())
	case TabWaves:
		return len(p.Result.Waves())
	case TabEvents:
		return len(p.Result.Events())
	}
	return 0
}
