package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmallory/llm-desk-tui/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// submitPromptCmd returns a command that submits a prompt. Pre-flight
// rejections come back synchronously in the result message.
func submitPromptCmd(mgr *services.Manager, prompt string) tea.Cmd {
	return func() tea.Msg {
		err := mgr.Submit(prompt)
		return SubmitResultMsg{Prompt: prompt, Error: err}
	}
}

// cancelRequestCmd returns a command that aborts the in-flight request.
func cancelRequestCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		mgr.CancelRequest()
		return nil
	}
}

// loadHistoryCmd returns a command that loads the history list.
func loadHistoryCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return HistoryLoadedMsg{Entries: mgr.HistoryEntries()}
	}
}

// loadUsageCmd returns a command that loads session usage.
func loadUsageCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return UsageLoadedMsg{Usage: mgr.UsageSnapshot()}
	}
}

// loadStatsCmd returns a command that loads all-time statistics and the
// token series for charting.
func loadStatsCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		stats, err := mgr.Stats()
		if err != nil {
			return ErrorMsg{Error: err, Context: "stats"}
		}
		series, err := mgr.TokenSeries(50)
		if err != nil {
			return ErrorMsg{Error: err, Context: "stats"}
		}
		return StatsLoadedMsg{Stats: stats, Series: series}
	}
}

// loadInitialData returns a command that loads all initial data.
func loadInitialData(mgr *services.Manager) tea.Cmd {
	return tea.Batch(
		loadHistoryCmd(mgr),
		loadUsageCmd(mgr),
		loadStatsCmd(mgr),
	)
}

// resetUsageCmd returns a command that zeroes session usage.
func resetUsageCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		mgr.ResetUsage()
		return UsageLoadedMsg{Usage: mgr.UsageSnapshot()}
	}
}

// clearHistoryCmd returns a command that clears history everywhere.
func clearHistoryCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return ClearHistoryResultMsg{Error: mgr.ClearHistory()}
	}
}

// saveConfigCmd returns a command that persists the configuration.
func saveConfigCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return SaveConfigResultMsg{Error: mgr.SaveConfig()}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

// notifyWarningCmd returns a command that adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationWarning,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: QuickNotificationDuration,
		}
	}
}

// delayedCmd returns a command that sends a message after a delay.
func delayedCmd(delay time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return msg
	})
}

// Commands provides a public interface to the command functions.
type Commands struct {
	manager *services.Manager
}

// NewCommands creates a new Commands instance.
func NewCommands(mgr *services.Manager) *Commands {
	return &Commands{manager: mgr}
}

// Tick returns a tick command with the specified interval.
func (c *Commands) Tick(interval time.Duration) tea.Cmd {
	return tickCmd(interval)
}

// DefaultTick returns a tick command with the default interval.
func (c *Commands) DefaultTick() tea.Cmd {
	return defaultTickCmd()
}

// SubmitPrompt returns a command that submits a prompt.
func (c *Commands) SubmitPrompt(prompt string) tea.Cmd {
	return submitPromptCmd(c.manager, prompt)
}

// CancelRequest returns a command that aborts the in-flight request.
func (c *Commands) CancelRequest() tea.Cmd {
	return cancelRequestCmd(c.manager)
}

// LoadHistory returns a command that loads the history list.
func (c *Commands) LoadHistory() tea.Cmd {
	return loadHistoryCmd(c.manager)
}

// LoadUsage returns a command that loads session usage.
func (c *Commands) LoadUsage() tea.Cmd {
	return loadUsageCmd(c.manager)
}

// LoadStats returns a command that loads all-time statistics.
func (c *Commands) LoadStats() tea.Cmd {
	return loadStatsCmd(c.manager)
}

// LoadInitialData returns a command that loads all initial data.
func (c *Commands) LoadInitialData() tea.Cmd {
	return loadInitialData(c.manager)
}

// ResetUsage returns a command that zeroes session usage.
func (c *Commands) ResetUsage() tea.Cmd {
	return resetUsageCmd(c.manager)
}

// ClearHistory returns a command that clears history everywhere.
func (c *Commands) ClearHistory() tea.Cmd {
	return clearHistoryCmd(c.manager)
}

// SaveConfig returns a command that persists the configuration.
func (c *Commands) SaveConfig() tea.Cmd {
	return saveConfigCmd(c.manager)
}

// SubscribeToServices returns a command that subscribes to service events.
func (c *Commands) SubscribeToServices() tea.Cmd {
	return subscribeToServicesCmd(c.manager)
}

// NotifySuccess returns a command that adds a success notification.
func (c *Commands) NotifySuccess(message string) tea.Cmd {
	return notifySuccessCmd(message)
}

// NotifyError returns a command that adds an error notification.
func (c *Commands) NotifyError(message string) tea.Cmd {
	return notifyErrorCmd(message)
}

// NotifyWarning returns a command that adds a warning notification.
func (c *Commands) NotifyWarning(message string) tea.Cmd {
	return notifyWarningCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func (c *Commands) NotifyInfo(message string) tea.Cmd {
	return notifyInfoCmd(message)
}

// ClearNotification returns a command that removes a notification after a delay.
func (c *Commands) ClearNotification(id string, delay time.Duration) tea.Cmd {
	return clearNotificationCmd(id, delay)
}

// Delayed returns a command that sends a message after a delay.
func (c *Commands) Delayed(delay time.Duration, msg tea.Msg) tea.Cmd {
	return delayedCmd(delay, msg)
}

// Batch combines multiple commands into one.
func (c *Commands) Batch(cmds ...tea.Cmd) tea.Cmd {
	return tea.Batch(cmds...)
}
