// Package usage provides the usage tab for session totals, all-time
// statistics, and the active configuration.
package usage

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmallory/llm-desk-tui/internal/app"
	"github.com/jmallory/llm-desk-tui/internal/services"
)

// keyMap defines the key bindings specific to the usage tab.
type keyMap struct {
	Reset      key.Binding
	Refresh    key.Binding
	SaveConfig key.Binding
	Up         key.Binding
	Down       key.Binding
}

// defaultKeyMap returns the default key bindings for the usage tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Reset: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "reset session usage"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		SaveConfig: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save config"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the usage tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model
}

// New creates a new usage model.
func New(state *app.State, svc *services.Manager) *Model {
	return &Model{
		state:    state,
		services: svc,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the usage tab.
func (m *Model) Init() tea.Cmd {
	return m.refreshCmd()
}

// refreshCmd reloads session usage and all-time statistics.
func (m *Model) refreshCmd() tea.Cmd {
	if m.services == nil {
		return nil
	}
	svc := m.services
	return tea.Batch(
		func() tea.Msg {
			return app.UsageLoadedMsg{Usage: svc.UsageSnapshot()}
		},
		func() tea.Msg {
			stats, err := svc.Stats()
			if err != nil {
				return app.ErrorMsg{Error: err, Context: "stats"}
			}
			series, err := svc.TokenSeries(50)
			if err != nil {
				return app.ErrorMsg{Error: err, Context: "stats"}
			}
			return app.StatsLoadedMsg{Stats: stats, Series: series}
		},
	)
}

// Update handles messages for the usage tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.TabSwitchMsg:
		if msg.Tab == app.TabUsage {
			return m, m.refreshCmd()
		}

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Reset):
		return m, func() tea.Msg { return app.ResetUsageMsg{} }

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd()

	case key.Matches(msg, m.keys.SaveConfig):
		return m, func() tea.Msg { return app.SaveConfigMsg{} }

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
}

// SetSize sets the available size for the usage tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Reset,
		m.keys.Refresh,
		m.keys.SaveConfig,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Reset, m.keys.Refresh, m.keys.SaveConfig},
		{m.keys.Up, m.keys.Down},
	}
}
