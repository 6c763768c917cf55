// Package history provides the history tab for reviewing past completions.
package history

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmallory/llm-desk-tui/internal/app"
	"github.com/jmallory/llm-desk-tui/internal/models"
	"github.com/jmallory/llm-desk-tui/internal/services"
)

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Refresh key.Binding
	Clear   key.Binding
}

// defaultKeyMap returns the default key bindings for the history tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous entry"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next entry"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear history"),
		),
	}
}

// Model represents the history tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	// cursor indexes into the newest-first display order.
	cursor int
}

// New creates a new history model.
func New(state *app.State, svc *services.Manager) *Model {
	return &Model{
		state:    state,
		services: svc,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	return m.refreshCmd()
}

// refreshCmd reloads the history list from the orchestration layer.
func (m *Model) refreshCmd() tea.Cmd {
	if m.services == nil {
		return nil
	}
	svc := m.services
	return func() tea.Msg {
		return app.HistoryLoadedMsg{Entries: svc.HistoryEntries()}
	}
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.HistoryLoadedMsg:
		m.clampCursor()

	case app.ClearHistoryResultMsg:
		if msg.Error == nil {
			m.cursor = 0
		}

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.state.HistoryLen()-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd()

	case key.Matches(msg, m.keys.Clear):
		return m, func() tea.Msg { return app.ClearHistoryMsg{} }

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) clampCursor() {
	if n := m.state.HistoryLen(); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

// selected returns the entry under the cursor, newest first.
func (m *Model) selected(entries []models.HistoryEntry) *models.HistoryEntry {
	if len(entries) == 0 || m.cursor >= len(entries) {
		return nil
	}
	return &entries[len(entries)-1-m.cursor]
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Up,
		m.keys.Down,
		m.keys.Refresh,
		m.keys.Clear,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
		{m.keys.Refresh, m.keys.Clear},
	}
}
