// Package services provides service orchestration for the TUI.
package services

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/jmallory/llm-desk-tui/internal/config"
	"github.com/jmallory/llm-desk-tui/internal/db"
	"github.com/jmallory/llm-desk-tui/internal/history"
	"github.com/jmallory/llm-desk-tui/internal/logger"
	"github.com/jmallory/llm-desk-tui/internal/models"
	"github.com/jmallory/llm-desk-tui/internal/pricing"
	"github.com/jmallory/llm-desk-tui/internal/services/completion"
	"github.com/jmallory/llm-desk-tui/internal/transport"
	"github.com/jmallory/llm-desk-tui/internal/usage"
)

// Desktop notifications fire only for requests that outlived this
// threshold, so quick exchanges stay silent.
const notifyThreshold = 10 * time.Second

type (
	// RequestSubmittedEvent is emitted when a prompt enters flight.
	RequestSubmittedEvent struct {
		Request models.PromptRequest
	}

	// RequestSettledEvent is emitted when a request finishes, carrying the
	// recorded history entry and the session usage after recording.
	RequestSettledEvent struct {
		Entry *models.HistoryEntry
		Usage models.SessionUsage
	}

	// RequestCancelledEvent is emitted when the user aborts an in-flight
	// request. Nothing was recorded.
	RequestCancelledEvent struct {
		Request models.PromptRequest
	}

	// ConfigReloadedEvent is emitted when the config file changes on disk
	// and the new contents were applied.
	ConfigReloadedEvent struct {
		Config config.Config
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (RequestSubmittedEvent) isServiceEvent() {}
func (RequestSettledEvent) isServiceEvent()   {}
func (RequestCancelledEvent) isServiceEvent() {}
func (ConfigReloadedEvent) isServiceEvent()   {}
func (ErrorEvent) isServiceEvent()            {}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	store       *config.Store
	tracker     *usage.Tracker
	log         *history.Log
	database    *db.DB
	completions *completion.Service
	http        *transport.HTTPTransport
	watcher     *config.Watcher
	eventChan   chan ServiceEvent
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent
	notify      bool
}

// NewManager creates a new service manager around an already-loaded
// config store. Persisted history is hydrated into the in-memory log.
func NewManager(store *config.Store, settings *config.Settings) (*Manager, error) {
	cfg := store.Get()

	m := &Manager{
		store:     store,
		tracker:   usage.New(pricing.NewTable(cfg.Pricing)),
		log:       history.New(),
		http:      transport.NewHTTP(cfg.RequestTimeout),
		eventChan: make(chan ServiceEvent, 100),
		stopChan:  make(chan struct{}),
		notify:    true,
	}

	var err error
	m.database, err = db.New(settings.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.hydrateHistory()

	m.completions = completion.New(store, m.tracker, m.log, m.database, m.http)

	m.startWatcher()

	go m.routeEvents()

	return m, nil
}

// hydrateHistory loads persisted completions into the in-memory log so
// past requests are visible from the first frame.
func (m *Manager) hydrateHistory() {
	entries, err := m.database.RecentCompletions(200)
	if err != nil {
		logger.Warn("failed to load persisted history", "error", err)
		return
	}
	for _, entry := range entries {
		m.log.Append(entry)
	}
	if len(entries) > 0 {
		logger.Info("history hydrated", "entries", len(entries))
	}
}

// startWatcher begins watching the config file if it exists. On first
// run there is no file yet and watching is skipped.
func (m *Manager) startWatcher() {
	watcher, err := config.NewWatcher(m.store, m.handleConfigReload, m.handleConfigError)
	if err != nil {
		logger.Debug("config watcher not started", "error", err)
		return
	}
	m.watcher = watcher
	m.watcher.Start()
}

// handleConfigError surfaces watcher failures to subscribers so the UI
// can show them; the previous config stays active.
func (m *Manager) handleConfigError(err error) {
	m.broadcast(ErrorEvent{Service: "config", Error: err})
}

// handleConfigReload applies a reloaded config to the running services.
func (m *Manager) handleConfigReload(cfg config.Config) {
	m.tracker.SetTable(pricing.NewTable(cfg.Pricing))
	m.http.SetTimeout(cfg.RequestTimeout)
	m.broadcast(ConfigReloadedEvent{Config: cfg})
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.completions.Events():
			m.handleCompletionEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

// handleCompletionEvent converts and broadcasts orchestrator events.
func (m *Manager) handleCompletionEvent(event completion.Event) {
	switch event.Type {
	case completion.EventSubmitted:
		m.broadcast(RequestSubmittedEvent{Request: event.Request})

	case completion.EventSettled:
		m.broadcast(RequestSettledEvent{
			Entry: event.Entry,
			Usage: event.Usage,
		})
		if event.Entry != nil {
			m.checkNotification(event.Entry)
		}

	case completion.EventCancelled:
		m.broadcast(RequestCancelledEvent{Request: event.Request})
	}
}

// checkNotification sends a desktop notification for long-running
// requests, so the user can switch away while waiting.
func (m *Manager) checkNotification(entry *models.HistoryEntry) {
	m.mu.RLock()
	enabled := m.notify
	m.mu.RUnlock()

	if !enabled || entry.Result.Duration < notifyThreshold {
		return
	}

	if entry.Result.OK() {
		title := fmt.Sprintf("Completion ready: %s", entry.Result.Model)
		body := fmt.Sprintf("%d tokens in %s", entry.Result.TotalTokens(), entry.Result.Duration.Round(time.Second))
		_ = beeep.Notify(title, body, "")
	} else {
		title := "Completion failed"
		body := entry.Result.ErrorMessage
		if len(body) > 120 {
			body = body[:120]
		}
		_ = beeep.Notify(title, body, "")
	}
}

// SetNotifications toggles desktop notifications.
func (m *Manager) SetNotifications(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notify = enabled
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to main event channel
	select {
	case m.eventChan <- event:
	default:
	}

	// Send to subscribers
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Submit validates and launches a request for the prompt text.
// Pre-flight failures are returned synchronously.
func (m *Manager) Submit(prompt string) error {
	return m.completions.Submit(prompt)
}

// CancelRequest aborts the in-flight request, if any.
func (m *Manager) CancelRequest() {
	m.completions.Cancel()
}

// RequestState returns the orchestrator lifecycle state.
func (m *Manager) RequestState() completion.State {
	return m.completions.State()
}

// UsageSnapshot returns the current session usage totals.
func (m *Manager) UsageSnapshot() models.SessionUsage {
	return m.tracker.Snapshot()
}

// ResetUsage zeroes the session usage counters. History is unaffected.
func (m *Manager) ResetUsage() {
	m.tracker.Reset()
}

// HistoryEntries returns the session history, oldest first.
func (m *Manager) HistoryEntries() []models.HistoryEntry {
	return m.log.All()
}

// ClearHistory removes all history, in memory and on disk.
func (m *Manager) ClearHistory() error {
	m.log.Clear()
	if err := m.database.ClearCompletions(); err != nil {
		return fmt.Errorf("failed to clear persisted history: %w", err)
	}
	return nil
}

// Stats returns aggregate statistics over all persisted completions.
func (m *Manager) Stats() (*models.TotalStats, error) {
	return m.database.TotalStats()
}

// TokenSeries returns per-request token totals for charting.
func (m *Manager) TokenSeries(limit int) ([]float64, error) {
	return m.database.TokenSeries(limit)
}

// Store returns the config store.
func (m *Manager) Store() *config.Store {
	return m.store
}

// SaveConfig persists the current configuration to disk. The watcher is
// started on first save if it was skipped at startup.
func (m *Manager) SaveConfig() error {
	if err := m.store.Save(); err != nil {
		return err
	}
	if m.watcher == nil {
		m.startWatcher()
	}
	return nil
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	close(m.stopChan)

	if m.watcher != nil {
		m.watcher.Stop()
	}

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	if m.database != nil {
		if err := m.database.Close(); err != nil {
			return err
		}
	}
	return nil
}
