package usage

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmallory/llm-desk-tui/internal/ui/components"
	"github.com/jmallory/llm-desk-tui/internal/ui/styles"
)

// View renders the usage tab.
func (m *Model) View() string {
	sections := []string{
		m.renderHeader(),
		m.renderSessionCard(),
		m.renderAllTimeCard(),
		m.renderTokenChart(),
		m.renderConfigCard(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Usage")
	subtitle := styles.HelpStyle.Render("[x] reset session · [r] refresh · [s] save config")
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderSessionCard() string {
	cardWidth := max(m.width-6, 40)
	usage := m.state.GetUsage()

	rows := []string{
		styles.CardTitleStyle.Render("This Session"),
		"",
		fmt.Sprintf("  Requests:           %d", usage.Requests),
		fmt.Sprintf("  Prompt tokens:      %d", usage.PromptTokens),
		fmt.Sprintf("  Completion tokens:  %d", usage.CompletionTokens),
		fmt.Sprintf("  Estimated cost:     %s", styles.CostStyle.Render(fmt.Sprintf("$%.4f", usage.Cost))),
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderAllTimeCard() string {
	cardWidth := max(m.width-6, 40)

	rows := []string{
		styles.CardTitleStyle.Render("All Time"),
		"",
	}

	stats := m.state.GetStats()
	if stats == nil || stats.TotalCalls == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No recorded requests yet."))
	} else {
		rows = append(rows,
			fmt.Sprintf("  Requests:           %d", stats.TotalCalls),
			fmt.Sprintf("  Failed:             %d", stats.ErrorCount),
			fmt.Sprintf("  Prompt tokens:      %d", stats.TotalPromptTokens),
			fmt.Sprintf("  Completion tokens:  %d", stats.TotalCompletionTokens),
			fmt.Sprintf("  Estimated cost:     %s", styles.CostStyle.Render(fmt.Sprintf("$%.4f", stats.TotalCost))),
			fmt.Sprintf("  Models used:        %d", stats.UniqueModels),
			"",
		)

		succeeded := float64(stats.TotalCalls - stats.ErrorCount)
		failed := float64(stats.ErrorCount)
		bar := components.RenderBarChart(
			[]float64{succeeded, failed},
			[]string{"ok", "err"},
			max(cardWidth-10, 30),
		)
		for line := range strings.SplitSeq(bar, "\n") {
			rows = append(rows, "  "+line)
		}

		legend := components.RenderLegend([]components.LegendItem{
			{Label: "Succeeded", Color: styles.Success},
			{Label: "Failed", Color: styles.Error},
		})
		rows = append(rows, "", "  "+legend)
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderTokenChart plots total tokens per successful request, oldest to
// newest.
func (m *Model) renderTokenChart() string {
	cardWidth := max(m.width-6, 40)

	rows := []string{
		styles.CardTitleStyle.Render("Tokens per Request"),
		"",
	}

	series := m.state.GetTokenSeries()
	if len(series) < 2 {
		rows = append(rows, styles.HelpStyle.Render("  Not enough data to chart yet."))
	} else {
		chartWidth := max(cardWidth-12, 30)
		chart := components.RenderLineChart(series, chartWidth, 8,
			fmt.Sprintf("Last %d successful requests", len(series)))
		for line := range strings.SplitSeq(chart, "\n") {
			rows = append(rows, "  "+line)
		}
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderConfigCard() string {
	cardWidth := max(m.width-6, 40)
	cfg := m.state.GetConfig()

	rows := []string{
		styles.CardTitleStyle.Render("Configuration"),
		"",
		fmt.Sprintf("  Endpoint:     %s", cfg.EndpointURL),
		fmt.Sprintf("  Model:        %s", cfg.Model),
		fmt.Sprintf("  API key:      %s", maskKey(cfg.APIKey)),
		fmt.Sprintf("  Temperature:  %.2f", cfg.Temperature),
		fmt.Sprintf("  Max tokens:   %d", cfg.MaxTokens),
		fmt.Sprintf("  Timeout:      %s", cfg.RequestTimeout),
	}

	if cfg.SystemPrompt != "" {
		prompt := cfg.SystemPrompt
		if len(prompt) > 60 {
			prompt = prompt[:57] + "..."
		}
		rows = append(rows, fmt.Sprintf("  System:       %s", prompt))
	}

	rows = append(rows, "",
		styles.HelpStyle.Render("  Edit the config file on disk; changes are picked up live."),
	)

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// maskKey hides all but a short prefix of the API key.
func maskKey(key string) string {
	if key == "" {
		return styles.ErrorTextStyle.Render("(not set)")
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:6] + "..." + key[len(key)-2:]
}
