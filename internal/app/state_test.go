package app

import (
	"testing"
	"time"

	"github.com/jmallory/llm-desk-tui/internal/config"
	"github.com/jmallory/llm-desk-tui/internal/models"
)

func TestNewState(t *testing.T) {
	s := NewState()
	if s == nil {
		t.Fatal("NewState returned nil")
	}
	if s.HistoryLen() != 0 {
		t.Error("history should be empty")
	}
	if s.IsSubmitting() {
		t.Error("fresh state should not be submitting")
	}
}

func TestState_Submitting(t *testing.T) {
	s := NewState()

	s.SetSubmitting(true, "hello")
	if !s.IsSubmitting() {
		t.Error("IsSubmitting should be true")
	}
	if s.PendingPrompt() != "hello" {
		t.Errorf("PendingPrompt = %q, want hello", s.PendingPrompt())
	}

	s.SetSubmitting(false, "")
	if s.IsSubmitting() {
		t.Error("IsSubmitting should be false")
	}
}

func TestState_Usage(t *testing.T) {
	s := NewState()

	s.SetUsage(models.SessionUsage{PromptTokens: 5, CompletionTokens: 3, Requests: 1})

	got := s.GetUsage()
	if got.TotalTokens() != 8 {
		t.Errorf("TotalTokens = %d, want 8", got.TotalTokens())
	}
	if s.TimeSinceUpdate() == 0 {
		t.Error("TimeSinceUpdate should be > 0 after SetUsage")
	}
}

func TestState_History(t *testing.T) {
	s := NewState()

	entries := []models.HistoryEntry{
		{Request: models.PromptRequest{Prompt: "first"}},
		{Request: models.PromptRequest{Prompt: "second"}},
	}
	s.SetHistory(entries)

	if s.HistoryLen() != 2 {
		t.Errorf("HistoryLen = %d, want 2", s.HistoryLen())
	}

	got := s.GetHistory()
	got[0].Request.Prompt = "mutated"
	if s.GetHistory()[0].Request.Prompt != "first" {
		t.Error("GetHistory must return a copy")
	}
}

func TestState_LastEntry(t *testing.T) {
	s := NewState()

	if s.GetLastEntry() != nil {
		t.Error("fresh state has a last entry")
	}

	entry := &models.HistoryEntry{Result: models.CompletionResult{Text: "hi"}}
	s.SetLastEntry(entry)
	if s.GetLastEntry() != entry {
		t.Error("GetLastEntry mismatch")
	}
}

func TestState_Config(t *testing.T) {
	s := NewState()

	cfg := config.Default()
	cfg.Model = "test-model"
	s.SetConfig(cfg)

	if s.GetConfig().Model != "test-model" {
		t.Errorf("Model = %q", s.GetConfig().Model)
	}
}

func TestState_Stats(t *testing.T) {
	s := NewState()

	stats := &models.TotalStats{TotalCalls: 10}
	s.SetStats(stats, []float64{1, 2, 3})

	if got := s.GetStats(); got == nil || got.TotalCalls != 10 {
		t.Errorf("GetStats = %+v", got)
	}

	series := s.GetTokenSeries()
	if len(series) != 3 {
		t.Fatalf("series len = %d, want 3", len(series))
	}
	series[0] = 99
	if s.GetTokenSeries()[0] != 1 {
		t.Error("GetTokenSeries must return a copy")
	}
}

func TestState_Notifications(t *testing.T) {
	s := NewState()

	id := s.AddNotification(NotificationInfo, "test", time.Minute)
	if id == "" {
		t.Error("AddNotification returned empty ID")
	}

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("GetNotifications len = %d, want 1", len(notifs))
	}
	if notifs[0].Message != "test" {
		t.Errorf("Notification message = %s, want test", notifs[0].Message)
	}

	s.RemoveNotification(id)
	if len(s.GetNotifications()) != 0 {
		t.Error("Notification should be removed")
	}
}

func TestState_ClearExpiredNotifications(t *testing.T) {
	s := NewState()

	// Expired
	s.notifications = append(s.notifications, Notification{
		ID:        "expired",
		CreatedAt: time.Now().Add(-2 * time.Minute),
		Duration:  time.Minute,
	})

	// Active
	s.notifications = append(s.notifications, Notification{
		ID:        "active",
		CreatedAt: time.Now(),
		Duration:  time.Minute,
	})

	s.ClearExpiredNotifications()

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].ID != "active" {
		t.Errorf("Expected active notification, got %s", notifs[0].ID)
	}
}

func TestState_LoadingNotification(t *testing.T) {
	s := NewState()

	s.SetLoadingNotification("loading...")
	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].ID != LoadingNotificationID {
		t.Errorf("Expected ID %s, got %s", LoadingNotificationID, notifs[0].ID)
	}

	// Update message in place
	s.SetLoadingNotification("still loading...")
	notifs = s.GetNotifications()
	if len(notifs) != 1 {
		t.Error("Expected 1 notification after update")
	}
	if notifs[0].Message != "still loading..." {
		t.Errorf("message = %s", notifs[0].Message)
	}

	s.ClearLoadingNotification()
	if len(s.GetNotifications()) != 0 {
		t.Error("Loading notification should be cleared")
	}
}

func TestState_NotificationCap(t *testing.T) {
	s := NewState()

	for range 15 {
		s.AddNotification(NotificationInfo, "n", time.Minute)
	}
	if got := len(s.GetNotifications()); got > 10 {
		t.Errorf("notifications = %d, want at most 10", got)
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := []struct {
		t    NotificationType
		want string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
		{NotificationType(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
