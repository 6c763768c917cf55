package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmallory/llm-desk-tui/internal/config"
	"github.com/jmallory/llm-desk-tui/internal/models"
	"github.com/jmallory/llm-desk-tui/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// SubmitPromptMsg requests submission of a prompt.
type SubmitPromptMsg struct {
	Prompt string
}

// SubmitResultMsg carries the synchronous outcome of a submission
// attempt. A nil error means the request was accepted and is in flight.
type SubmitResultMsg struct {
	Prompt string
	Error  error
}

// CancelRequestMsg requests cancellation of the in-flight request.
type CancelRequestMsg struct{}

// HistoryLoadedMsg contains the refreshed history list.
type HistoryLoadedMsg struct {
	Entries []models.HistoryEntry
}

// ClearHistoryMsg requests clearing of all history.
type ClearHistoryMsg struct{}

// ClearHistoryResultMsg contains the result of a history clear.
type ClearHistoryResultMsg struct {
	Error error
}

// ResetUsageMsg requests zeroing the session usage counters.
type ResetUsageMsg struct{}

// UsageLoadedMsg contains refreshed session usage.
type UsageLoadedMsg struct {
	Usage models.SessionUsage
}

// StatsLoadedMsg contains all-time statistics and the token series.
type StatsLoadedMsg struct {
	Stats  *models.TotalStats
	Series []float64
}

// SaveConfigMsg requests persisting the current configuration.
type SaveConfigMsg struct{}

// SaveConfigResultMsg contains the result of a config save.
type SaveConfigResultMsg struct {
	Error error
}

// ConfigReloadedMsg signals that the configuration changed on disk.
type ConfigReloadedMsg struct {
	Config config.Config
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

// DelayedMsg wraps a message to be sent after a delay.
type DelayedMsg struct {
	Delay time.Duration
	Msg   tea.Msg
}
