// Package chat provides the chat tab for composing prompts and reading
// completions.
package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmallory/llm-desk-tui/internal/app"
	"github.com/jmallory/llm-desk-tui/internal/services"
)

// inputHeight is the number of text rows in the prompt editor.
const inputHeight = 4

// keyMap defines the key bindings specific to the chat tab.
type keyMap struct {
	Submit     key.Binding
	ClearInput key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

// defaultKeyMap returns the default key bindings for the chat tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "send prompt"),
		),
		ClearInput: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear input"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
	}
}

// Model represents the chat tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model
	input    textarea.Model

	// followTail keeps the conversation pinned to the newest exchange
	// unless the user has scrolled up.
	followTail bool
}

// New creates a new chat model.
func New(state *app.State, svc *services.Manager) *Model {
	ta := textarea.New()
	ta.Placeholder = "Type a prompt, Ctrl+S to send..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.Focus()

	return &Model{
		state:      state,
		services:   svc,
		keys:       defaultKeyMap(),
		viewport:   viewport.New(0, 0),
		input:      ta,
		followTail: true,
	}
}

// Init initializes the chat tab.
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the chat tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case app.ServiceEventMsg:
		switch msg.Event.(type) {
		case services.RequestSubmittedEvent:
			// The prompt is now in flight, so the editor can start fresh.
			m.input.Reset()
			m.followTail = true
		case services.RequestSettledEvent:
			m.followTail = true
		}

	case app.HistoryLoadedMsg:
		m.followTail = true

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	default:
		// Cursor blink and other component messages
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Submit):
		if cmd := m.submit(); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case key.Matches(msg, m.keys.ClearInput):
		m.input.Reset()

	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
		m.followTail = false
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
		if m.viewport.AtBottom() {
			m.followTail = true
		}

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// submit hands the current prompt to the orchestration layer. Empty input
// is rejected locally so the editor keeps focus without a round trip.
func (m *Model) submit() tea.Cmd {
	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" {
		return func() tea.Msg {
			return app.AddNotificationMsg{
				Type:     app.NotificationWarning,
				Message:  "Prompt is empty",
				Duration: app.QuickNotificationDuration,
			}
		}
	}
	if m.state.IsSubmitting() {
		return func() tea.Msg {
			return app.AddNotificationMsg{
				Type:     app.NotificationWarning,
				Message:  "A request is already in flight",
				Duration: app.QuickNotificationDuration,
			}
		}
	}
	return func() tea.Msg {
		return app.SubmitPromptMsg{Prompt: prompt}
	}
}

// SetSize sets the available size for the chat tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	m.input.SetWidth(max(width-6, 20))

	m.viewport.Width = max(width-4, 20)
	// Leave room for the editor and its border.
	m.viewport.Height = max(height-inputHeight-5, 3)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Submit,
		m.keys.ClearInput,
		m.keys.ScrollUp,
		m.keys.ScrollDown,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Submit, m.keys.ClearInput},
		{m.keys.ScrollUp, m.keys.ScrollDown},
	}
}
