package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmallory/llm-desk-tui/internal/models"
	"github.com/jmallory/llm-desk-tui/internal/ui/styles"
)

// listHeight caps the number of list rows so the detail card stays visible.
const listHeight = 12

// View renders the history tab.
func (m *Model) View() string {
	entries := m.state.GetHistory()

	if len(entries) == 0 {
		return m.renderEmpty()
	}

	sections := []string{
		m.renderHeader(len(entries)),
		m.renderList(entries),
	}

	if sel := m.selected(entries); sel != nil {
		sections = append(sections, m.renderDetail(sel))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("History"),
		"",
		styles.HelpStyle.Render("No requests recorded yet."),
		styles.HelpStyle.Render("Completed and failed requests will appear here."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader(count int) string {
	title := styles.TitleStyle.Render("History")
	subtitle := styles.HelpStyle.Render(fmt.Sprintf("%d entries, newest first · [c] clear", count))
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// renderList shows a scrolling window of entries around the cursor.
func (m *Model) renderList(entries []models.HistoryEntry) string {
	cardWidth := max(m.width-6, 40)

	start := 0
	if m.cursor >= listHeight {
		start = m.cursor - listHeight + 1
	}
	end := min(start+listHeight, len(entries))

	var rows []string
	for i := start; i < end; i++ {
		entry := &entries[len(entries)-1-i]
		row := m.renderRow(entry, cardWidth-8)
		if i == m.cursor {
			rows = append(rows, styles.SelectedListItemStyle.Render(row))
		} else {
			rows = append(rows, styles.ListItemStyle.Render(row))
		}
	}

	if end < len(entries) {
		rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("  ... %d more", len(entries)-end)))
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderRow(entry *models.HistoryEntry, width int) string {
	tag := styles.GetStatusStyle(entry.Result.Status).
		Render(fmt.Sprintf("%-13s", "["+entry.Result.Status.String()+"]"))

	prompt := oneLine(entry.Request.Prompt)
	budget := max(width-32, 10)
	if len(prompt) > budget {
		prompt = prompt[:budget-3] + "..."
	}

	return fmt.Sprintf("%s %s  %s",
		entry.Timestamp.Format("Jan 2 15:04"),
		tag,
		prompt,
	)
}

// renderDetail shows the full record for the entry under the cursor.
func (m *Model) renderDetail(entry *models.HistoryEntry) string {
	cardWidth := max(m.width-6, 40)
	textWidth := max(cardWidth-8, 20)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Detail"), "")

	rows = append(rows,
		styles.UserLabelStyle.Render("Prompt")+"  "+wrap(entry.Request.Prompt, textWidth),
		"",
	)

	if entry.Result.OK() {
		rows = append(rows,
			styles.AssistantLabelStyle.Render("Response")+"  "+wrap(entry.Result.Text, textWidth),
		)
	} else {
		tag := styles.GetStatusStyle(entry.Result.Status).Render("[" + entry.Result.Status.String() + "]")
		rows = append(rows,
			tag+" "+styles.ErrorTextStyle.Render(wrap(entry.Result.ErrorMessage, textWidth)),
		)
	}

	rows = append(rows, "", m.renderDetailMeta(entry))

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderDetailMeta(entry *models.HistoryEntry) string {
	parts := []string{
		fmt.Sprintf("model: %s", entry.Request.Profile.Model),
	}

	if entry.Result.OK() {
		parts = append(parts,
			fmt.Sprintf("tokens: %d prompt + %d completion", entry.Result.PromptTokens, entry.Result.CompletionTokens),
			styles.CostStyle.Render(fmt.Sprintf("$%.4f", entry.Result.CostEstimate)),
		)
	} else if entry.Result.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("http %d", entry.Result.StatusCode))
	}

	if entry.Result.Duration > 0 {
		parts = append(parts, entry.Result.Duration.Round(time.Millisecond).String())
	}

	return styles.HelpStyle.Render(strings.Join(parts, " · "))
}

func oneLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func wrap(text string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(text)
}
