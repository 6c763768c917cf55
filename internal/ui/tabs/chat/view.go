package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmallory/llm-desk-tui/internal/models"
	"github.com/jmallory/llm-desk-tui/internal/ui/styles"
)

// View renders the chat tab.
func (m *Model) View() string {
	conversation := m.renderConversation()
	m.viewport.SetContent(conversation)
	if m.followTail {
		m.viewport.GotoBottom()
	}

	editor := styles.FocusedBorderStyle.
		Width(max(m.width-4, 20)).
		Render(m.input.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		editor,
	)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderConversation() string {
	entries := m.state.GetHistory()

	if len(entries) == 0 && !m.state.IsSubmitting() {
		return m.renderEmpty()
	}

	var sections []string
	for i := range entries {
		sections = append(sections, m.renderExchange(&entries[i]))
	}

	if m.state.IsSubmitting() {
		sections = append(sections, m.renderPending())
	}

	return strings.Join(sections, "\n\n")
}

func (m *Model) renderEmpty() string {
	cfg := m.state.GetConfig()
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Chat"),
		styles.HelpStyle.Render(fmt.Sprintf("Endpoint: %s", cfg.EndpointURL)),
		styles.HelpStyle.Render(fmt.Sprintf("Model:    %s", cfg.Model)),
		"",
		styles.HelpStyle.Render("Type a prompt below and press Ctrl+S to send it."),
	)
}

// renderExchange shows one prompt/response pair, with failures tagged by
// status instead of a response body.
func (m *Model) renderExchange(entry *models.HistoryEntry) string {
	var lines []string

	lines = append(lines,
		styles.UserLabelStyle.Render("You ›")+" "+wrap(entry.Request.Prompt, m.textWidth()),
	)

	if entry.Result.OK() {
		label := styles.AssistantLabelStyle.Render(entry.Result.Model + " ›")
		lines = append(lines, label+" "+wrap(entry.Result.Text, m.textWidth()))
	} else {
		tag := styles.GetStatusStyle(entry.Result.Status).Render("[" + entry.Result.Status.String() + "]")
		lines = append(lines, tag+" "+styles.ErrorTextStyle.Render(wrap(entry.Result.ErrorMessage, m.textWidth())))
	}

	lines = append(lines, styles.HelpStyle.Render(m.renderMeta(entry)))

	return strings.Join(lines, "\n")
}

func (m *Model) renderMeta(entry *models.HistoryEntry) string {
	parts := []string{entry.Timestamp.Format("15:04:05")}

	if entry.Result.OK() {
		parts = append(parts,
			fmt.Sprintf("%d+%d tokens", entry.Result.PromptTokens, entry.Result.CompletionTokens),
			fmt.Sprintf("$%.4f", entry.Result.CostEstimate),
		)
	}
	if entry.Result.Duration > 0 {
		parts = append(parts, entry.Result.Duration.Round(time.Millisecond).String())
	}

	return strings.Join(parts, " · ")
}

func (m *Model) renderPending() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.UserLabelStyle.Render("You ›")+" "+wrap(m.state.PendingPrompt(), m.textWidth()),
		styles.HelpStyle.Render("waiting for response... (Esc to cancel)"),
	)
}

func (m *Model) textWidth() int {
	return max(m.viewport.Width-8, 20)
}

// wrap soft-wraps text to the given width, preserving existing newlines.
func wrap(text string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(text)
}
