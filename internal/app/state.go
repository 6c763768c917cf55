// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/jmallory/llm-desk-tui/internal/config"
	"github.com/jmallory/llm-desk-tui/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

// LoadingNotificationID is the fixed ID for the in-flight notification.
const LoadingNotificationID = "__loading__"

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// State holds shared application state read by all tabs.
type State struct {
	mu sync.RWMutex

	usage      models.SessionUsage
	history    []models.HistoryEntry
	lastEntry  *models.HistoryEntry
	submitting bool
	pending    string // prompt currently in flight
	cfg        config.Config
	stats      *models.TotalStats
	series     []float64

	LastUpdated time.Time

	notifications   []Notification
	notificationSeq int
}

// NewState creates an empty application state.
func NewState() *State {
	return &State{
		history:       make([]models.HistoryEntry, 0),
		notifications: make([]Notification, 0),
	}
}

// SetSubmitting marks whether a request is in flight and remembers the
// pending prompt for display.
func (s *State) SetSubmitting(submitting bool, prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = submitting
	s.pending = prompt
}

// IsSubmitting returns true while a request is in flight.
func (s *State) IsSubmitting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submitting
}

// PendingPrompt returns the prompt of the in-flight request, if any.
func (s *State) PendingPrompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// SetUsage updates the session usage totals.
func (s *State) SetUsage(usage models.SessionUsage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = usage
	s.LastUpdated = time.Now()
}

// GetUsage returns the session usage totals.
func (s *State) GetUsage() models.SessionUsage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usage
}

// SetHistory replaces the history list.
func (s *State) SetHistory(entries []models.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = entries
	s.LastUpdated = time.Now()
}

// GetHistory returns a copy of the history list, oldest first.
func (s *State) GetHistory() []models.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]models.HistoryEntry, len(s.history))
	copy(entries, s.history)
	return entries
}

// HistoryLen returns the number of history entries.
func (s *State) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// SetLastEntry records the most recently settled entry.
func (s *State) SetLastEntry(entry *models.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastEntry = entry
}

// GetLastEntry returns the most recently settled entry, or nil.
func (s *State) GetLastEntry() *models.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastEntry
}

// SetConfig caches the active configuration for display.
func (s *State) SetConfig(cfg config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// GetConfig returns the cached configuration.
func (s *State) GetConfig() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetStats caches all-time statistics and the token series.
func (s *State) SetStats(stats *models.TotalStats, series []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
	s.series = series
}

// GetStats returns the cached all-time statistics, or nil.
func (s *State) GetStats() *models.TotalStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// GetTokenSeries returns the cached per-request token totals.
func (s *State) GetTokenSeries() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series := make([]float64, len(s.series))
	copy(series, s.series)
	return series
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	notification := Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}

	s.notifications = append(s.notifications, notification)

	// Keep only the last 10 notifications
	if len(s.notifications) > 10 {
		s.notifications = s.notifications[len(s.notifications)-10:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets the in-flight notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  0,
	})
}

// ClearLoadingNotification removes the in-flight notification.
func (s *State) ClearLoadingNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// TimeSinceUpdate returns the duration since the last update.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.LastUpdated)
}
