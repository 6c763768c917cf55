package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmallory/llm-desk-tui/internal/config"
	"github.com/jmallory/llm-desk-tui/internal/db"
	"github.com/jmallory/llm-desk-tui/internal/history"
	"github.com/jmallory/llm-desk-tui/internal/models"
	"github.com/jmallory/llm-desk-tui/internal/pricing"
	"github.com/jmallory/llm-desk-tui/internal/services/completion"
	"github.com/jmallory/llm-desk-tui/internal/transport"
	"github.com/jmallory/llm-desk-tui/internal/usage"
)

// stubTransport returns a canned response without touching the network.
type stubTransport struct {
	resp *transport.Response
	err  error
}

func (s *stubTransport) Send(context.Context, string, map[string]string, []byte) (*transport.Response, error) {
	return s.resp, s.err
}

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	dir := t.TempDir()
	return &config.Settings{
		ConfigPath:   filepath.Join(dir, "config.yaml"),
		DatabasePath: filepath.Join(dir, "history.db"),
	}
}

func validStore(t *testing.T, path string) *config.Store {
	t.Helper()
	store := config.NewStore(path)
	store.Update(func(c *config.Config) {
		c.APIKey = "sk-test"
	})
	return store
}

// newTestManager assembles a manager around a stub transport so tests
// exercise event routing without real HTTP.
func newTestManager(t *testing.T, tr transport.Transport) *Manager {
	t.Helper()
	settings := testSettings(t)
	store := validStore(t, settings.ConfigPath)

	database, err := db.New(settings.DatabasePath)
	if err != nil {
		t.Fatalf("db.New failed: %v", err)
	}

	cfg := store.Get()
	m := &Manager{
		store:     store,
		tracker:   usage.New(pricing.NewTable(cfg.Pricing)),
		log:       history.New(),
		database:  database,
		http:      transport.NewHTTP(cfg.RequestTimeout),
		eventChan: make(chan ServiceEvent, 100),
		stopChan:  make(chan struct{}),
	}
	m.completions = completion.New(store, m.tracker, m.log, m.database, tr)
	go m.routeEvents()

	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestNewManager(t *testing.T) {
	settings := testSettings(t)
	store := validStore(t, settings.ConfigPath)

	mgr, err := NewManager(store, settings)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Close()

	if mgr.Store() == nil {
		t.Error("Store should be initialized")
	}
	if mgr.Database() == nil {
		t.Error("Database should be initialized")
	}
	if mgr.RequestState() != completion.StateIdle {
		t.Errorf("RequestState = %v, want idle", mgr.RequestState())
	}
	if got := mgr.UsageSnapshot(); got != (models.SessionUsage{}) {
		t.Errorf("fresh manager has usage: %+v", got)
	}
}

func TestManager_Subscription(t *testing.T) {
	mgr := newTestManager(t, &stubTransport{})

	ch, cmd := mgr.Subscribe()
	if ch == nil {
		t.Error("Subscribe returned nil channel")
	}
	if cmd == nil {
		t.Error("Subscribe returned nil command")
	}

	mgr.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("channel should be closed after Unsubscribe")
		}
	default:
	}
}

func TestManager_Broadcast(t *testing.T) {
	mgr := newTestManager(t, &stubTransport{})

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	event := ErrorEvent{Service: "test"}
	mgr.broadcast(event)

	select {
	case e := <-ch:
		if e != event {
			t.Errorf("got event %v, want %v", e, event)
		}
	case <-time.After(time.Second):
		t.Error("timeout waiting for broadcast")
	}
}

func TestManager_SubmitRoutesEvents(t *testing.T) {
	body := []byte(`{"model":"gpt-3.5","choices":[{"message":{"role":"assistant","content":"hi"}}],"usage":{"prompt_tokens":2,"completion_tokens":1}}`)
	mgr := newTestManager(t, &stubTransport{resp: &transport.Response{StatusCode: 200, Body: body}})

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	if err := mgr.Submit("hello"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	var gotSubmitted, gotSettled bool
	deadline := time.After(5 * time.Second)
	for !gotSettled {
		select {
		case e := <-ch:
			switch ev := e.(type) {
			case RequestSubmittedEvent:
				gotSubmitted = true
			case RequestSettledEvent:
				gotSettled = true
				if ev.Entry == nil || ev.Entry.Result.Text != "hi" {
					t.Errorf("settled entry = %+v", ev.Entry)
				}
				if ev.Usage.PromptTokens != 2 {
					t.Errorf("settled usage = %+v", ev.Usage)
				}
			}
		case <-deadline:
			t.Fatal("timeout waiting for request events")
		}
	}
	if !gotSubmitted {
		t.Error("RequestSubmittedEvent never arrived")
	}

	if len(mgr.HistoryEntries()) != 1 {
		t.Errorf("history entries = %d, want 1", len(mgr.HistoryEntries()))
	}
}

func TestManager_CancelRoutesEvent(t *testing.T) {
	blocked := make(chan struct{})
	defer close(blocked)
	mgr := newTestManager(t, &blockingTransport{unblock: blocked})

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	if err := mgr.Submit("hello"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, ch, func(e ServiceEvent) bool {
		_, ok := e.(RequestSubmittedEvent)
		return ok
	})

	mgr.CancelRequest()
	waitFor(t, ch, func(e ServiceEvent) bool {
		_, ok := e.(RequestCancelledEvent)
		return ok
	})

	if len(mgr.HistoryEntries()) != 0 {
		t.Error("cancelled request recorded history")
	}
}

type blockingTransport struct {
	unblock chan struct{}
}

func (b *blockingTransport) Send(ctx context.Context, _ string, _ map[string]string, _ []byte) (*transport.Response, error) {
	select {
	case <-b.unblock:
		return &transport.Response{StatusCode: 200, Body: []byte(`{}`)}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestManager_ConfigErrorBroadcast(t *testing.T) {
	mgr := newTestManager(t, &stubTransport{})
	ch, _ := mgr.Subscribe()

	mgr.handleConfigError(errors.New("reload failed"))

	waitFor(t, ch, func(e ServiceEvent) bool {
		ev, ok := e.(ErrorEvent)
		return ok && ev.Service == "config" && ev.Error != nil
	})
}

func waitFor(t *testing.T, ch chan ServiceEvent, match func(ServiceEvent) bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case e := <-ch:
			if match(e) {
				return
			}
		case <-deadline:
			t.Fatal("timeout waiting for event")
		}
	}
}

func TestManager_HydrateHistory(t *testing.T) {
	settings := testSettings(t)
	store := validStore(t, settings.ConfigPath)

	// Persist an entry through a first manager lifetime.
	database, err := db.New(settings.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	entry := models.HistoryEntry{
		Request:   models.PromptRequest{Prompt: "earlier", CreatedAt: time.Now()},
		Result:    models.CompletionResult{Status: models.StatusSuccess, Text: "reply"},
		Timestamp: time.Now(),
	}
	if err := database.InsertCompletion(&entry); err != nil {
		t.Fatal(err)
	}
	if err := database.Close(); err != nil {
		t.Fatal(err)
	}

	mgr, err := NewManager(store, settings)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Close()

	entries := mgr.HistoryEntries()
	if len(entries) != 1 {
		t.Fatalf("hydrated %d entries, want 1", len(entries))
	}
	if entries[0].Request.Prompt != "earlier" {
		t.Errorf("hydrated prompt = %q", entries[0].Request.Prompt)
	}
}

func TestManager_ClearHistory(t *testing.T) {
	body := []byte(`{"choices":[{"message":{"content":"hi"}}],"usage":{"prompt_tokens":1,"completion_tokens":1}}`)
	mgr := newTestManager(t, &stubTransport{resp: &transport.Response{StatusCode: 200, Body: body}})

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	if err := mgr.Submit("hello"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, ch, func(e ServiceEvent) bool {
		_, ok := e.(RequestSettledEvent)
		return ok
	})

	if err := mgr.ClearHistory(); err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}
	if len(mgr.HistoryEntries()) != 0 {
		t.Error("in-memory history not cleared")
	}

	persisted, err := mgr.Database().RecentCompletions(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(persisted) != 0 {
		t.Error("persisted history not cleared")
	}
}

func TestManager_ResetUsage(t *testing.T) {
	body := []byte(`{"choices":[{"message":{"content":"hi"}}],"usage":{"prompt_tokens":3,"completion_tokens":2}}`)
	mgr := newTestManager(t, &stubTransport{resp: &transport.Response{StatusCode: 200, Body: body}})

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	if err := mgr.Submit("hello"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, ch, func(e ServiceEvent) bool {
		_, ok := e.(RequestSettledEvent)
		return ok
	})

	if mgr.UsageSnapshot().TotalTokens() == 0 {
		t.Fatal("usage not recorded before reset")
	}

	mgr.ResetUsage()
	if got := mgr.UsageSnapshot(); got != (models.SessionUsage{}) {
		t.Errorf("usage after reset: %+v", got)
	}
	// History survives a usage reset.
	if len(mgr.HistoryEntries()) != 1 {
		t.Error("history lost on usage reset")
	}
}

func TestManager_ConfigReloadBroadcast(t *testing.T) {
	mgr := newTestManager(t, &stubTransport{})

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	cfg := mgr.Store().Get()
	cfg.Model = "reloaded-model"
	mgr.handleConfigReload(cfg)

	waitFor(t, ch, func(e ServiceEvent) bool {
		reload, ok := e.(ConfigReloadedEvent)
		return ok && reload.Config.Model == "reloaded-model"
	})
}

func TestManager_Stats(t *testing.T) {
	mgr := newTestManager(t, &stubTransport{})

	stats, err := mgr.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalCalls != 0 {
		t.Errorf("TotalCalls = %d, want 0", stats.TotalCalls)
	}

	series, err := mgr.TokenSeries(10)
	if err != nil {
		t.Fatalf("TokenSeries failed: %v", err)
	}
	if len(series) != 0 {
		t.Errorf("TokenSeries = %v, want empty", series)
	}
}

func TestWaitForEvent(t *testing.T) {
	ch := make(chan ServiceEvent, 1)
	ch <- ErrorEvent{}

	cmd := WaitForEvent(ch)
	if msg := cmd(); msg == nil {
		t.Error("WaitForEvent cmd returned nil msg")
	}
}

func TestServiceEvent_Interface(t *testing.T) {
	var _ ServiceEvent = RequestSubmittedEvent{}
	var _ ServiceEvent = RequestSettledEvent{}
	var _ ServiceEvent = RequestCancelledEvent{}
	var _ ServiceEvent = ConfigReloadedEvent{}
	var _ ServiceEvent = ErrorEvent{}
}
