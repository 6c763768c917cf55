// Package completion orchestrates prompt submissions against an
// OpenAI-compatible chat completions endpoint.
package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmallory/llm-desk-tui/internal/config"
	"github.com/jmallory/llm-desk-tui/internal/db"
	"github.com/jmallory/llm-desk-tui/internal/history"
	"github.com/jmallory/llm-desk-tui/internal/logger"
	"github.com/jmallory/llm-desk-tui/internal/models"
	"github.com/jmallory/llm-desk-tui/internal/pricing"
	"github.com/jmallory/llm-desk-tui/internal/transport"
	"github.com/jmallory/llm-desk-tui/internal/usage"
)

// Pre-flight errors. These are returned synchronously from Submit and
// leave history and usage untouched.
var (
	// ErrInvalidPrompt is returned when the prompt is empty after trimming.
	ErrInvalidPrompt = errors.New("prompt must not be empty")
	// ErrInvalidConfig is returned when the current configuration fails validation.
	ErrInvalidConfig = errors.New("configuration is invalid")
	// ErrRequestInFlight is returned when a submission overlaps an active one.
	// Requests are rejected rather than queued.
	ErrRequestInFlight = errors.New("a request is already in flight")
)

// State is the orchestrator lifecycle state.
type State int

const (
	// StateIdle means no request is active and submissions are accepted.
	StateIdle State = iota
	// StateSubmitting means a request is in flight.
	StateSubmitting
	// StateCompleted is the transient state after a successful result.
	StateCompleted
	// StateFailed is the transient state after a failed result.
	StateFailed
)

// String returns the display name for a state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EventType defines the type of completion event.
type EventType int

const (
	// EventSubmitted indicates a request has entered flight.
	EventSubmitted EventType = iota
	// EventSettled indicates a request finished, successfully or not.
	EventSettled
	// EventCancelled indicates the user aborted the in-flight request.
	EventCancelled
)

// Event is emitted on state transitions. Settled events carry the
// history entry and the session usage after recording.
type Event struct {
	Type    EventType
	Request models.PromptRequest
	Entry   *models.HistoryEntry
	Usage   models.SessionUsage
}

// Service is the request orchestrator. At most one request is in
// flight per instance, enforced by the Submitting state guard.
type Service struct {
	mu     sync.Mutex
	state  State
	cancel context.CancelFunc

	transport transport.Transport
	store     *config.Store
	tracker   *usage.Tracker
	log       *history.Log
	database  *db.DB // optional; nil disables persistence

	events chan Event
}

// New creates an orchestrator. database may be nil to keep history
// in-memory only.
func New(store *config.Store, tracker *usage.Tracker, log *history.Log, database *db.DB, tr transport.Transport) *Service {
	return &Service{
		state:     StateIdle,
		transport: tr,
		store:     store,
		tracker:   tracker,
		log:       log,
		database:  database,
		events:    make(chan Event, 100),
	}
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.events
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Submit validates and launches a request for the given prompt text.
// Pre-flight failures are returned synchronously; the outcome of an
// accepted submission arrives as an EventSettled or EventCancelled.
func (s *Service) Submit(promptText string) error {
	prompt := strings.TrimSpace(promptText)

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrRequestInFlight
	}
	if prompt == "" {
		s.mu.Unlock()
		return ErrInvalidPrompt
	}

	cfg := s.store.Get()
	if errs := cfg.Validate(); len(errs) > 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidConfig, errs.Error())
	}

	// Snapshot the configuration now: edits made while the request is
	// in flight only affect the next submission.
	req := models.PromptRequest{
		Prompt:    prompt,
		Profile:   cfg.Profile(),
		CreatedAt: time.Now(),
	}
	table := pricing.NewTable(cfg.Pricing)

	ctx, cancel := context.WithCancel(context.Background())
	s.state = StateSubmitting
	s.cancel = cancel
	s.mu.Unlock()

	s.emit(Event{Type: EventSubmitted, Request: req})
	go s.fly(ctx, req, table)
	return nil
}

// Cancel aborts the in-flight request, if any. Cancellation is distinct
// from failure: nothing is recorded in history or usage.
func (s *Service) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting && s.cancel != nil {
		s.cancel()
	}
}

// fly performs one request from payload rendering to settlement.
func (s *Service) fly(ctx context.Context, req models.PromptRequest, table *pricing.Table) {
	start := time.Now()

	body, err := json.Marshal(buildPayload(req))
	if err != nil {
		s.settle(req, models.CompletionResult{
			Status:       models.StatusParseError,
			Model:        req.Profile.Model,
			ErrorMessage: fmt.Sprintf("failed to encode request: %v", err),
			Duration:     time.Since(start),
		})
		return
	}

	resp, err := s.transport.Send(ctx, req.Profile.EndpointURL, buildHeaders(req.Profile), body)

	var result models.CompletionResult
	switch {
	case err != nil && ctx.Err() != nil:
		// User cancellation, not a failure: no history, no usage.
		s.settleCancelled(req)
		return
	case err != nil:
		result = models.CompletionResult{
			Status:       models.StatusNetworkError,
			Model:        req.Profile.Model,
			ErrorMessage: err.Error(),
		}
	default:
		result = classify(resp, req, table)
	}

	result.Duration = time.Since(start)
	s.settle(req, result)
}

// settle records the outcome and returns the orchestrator to Idle.
// Every non-cancelled flight appends exactly one history entry; only
// successes are recorded in usage.
func (s *Service) settle(req models.PromptRequest, result models.CompletionResult) {
	s.mu.Lock()
	if result.OK() {
		s.state = StateCompleted
	} else {
		s.state = StateFailed
	}
	s.mu.Unlock()

	entry := models.HistoryEntry{
		Request:   req,
		Result:    result,
		Timestamp: time.Now(),
	}

	if s.database != nil {
		if err := s.database.InsertCompletion(&entry); err != nil {
			logger.Warn("failed to persist completion", "error", err)
		}
	}
	s.log.Append(entry)

	if result.OK() {
		s.tracker.Record(result)
	}

	s.mu.Lock()
	s.state = StateIdle
	s.cancel = nil
	s.mu.Unlock()

	s.emit(Event{
		Type:    EventSettled,
		Request: req,
		Entry:   &entry,
		Usage:   s.tracker.Snapshot(),
	})
}

func (s *Service) settleCancelled(req models.PromptRequest) {
	s.mu.Lock()
	s.state = StateIdle
	s.cancel = nil
	s.mu.Unlock()

	s.emit(Event{Type: EventCancelled, Request: req, Usage: s.tracker.Snapshot()})
}

func (s *Service) emit(event Event) {
	select {
	case s.events <- event:
	default:
		logger.Warn("completion event dropped, channel full")
	}
}

// buildPayload renders the chat completions request body from a
// request snapshot.
func buildPayload(req models.PromptRequest) chatRequest {
	messages := make([]chatMessage, 0, 2)
	if req.Profile.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.Profile.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	return chatRequest{
		Model:       req.Profile.Model,
		Messages:    messages,
		MaxTokens:   req.Profile.MaxTokens,
		Temperature: req.Profile.Temperature,
	}
}

// buildHeaders renders the HTTP headers, including the bearer key and
// the optional attribution headers some providers expect.
func buildHeaders(profile models.RequestProfile) map[string]string {
	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + profile.APIKey,
	}
	if profile.HTTPReferer != "" {
		headers["HTTP-Referer"] = profile.HTTPReferer
	}
	if profile.XTitle != "" {
		headers["X-Title"] = profile.XTitle
	}
	return headers
}

// classify turns a completed HTTP exchange into a CompletionResult.
func classify(resp *transport.Response, req models.PromptRequest, table *pricing.Table) models.CompletionResult {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.CompletionResult{
			Status:       models.StatusAPIError,
			Model:        req.Profile.Model,
			StatusCode:   resp.StatusCode,
			ErrorMessage: apiErrorMessage(resp.StatusCode, resp.Body),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return models.CompletionResult{
			Status:       models.StatusParseError,
			Model:        req.Profile.Model,
			StatusCode:   resp.StatusCode,
			ErrorMessage: fmt.Sprintf("failed to decode response body: %v", err),
		}
	}

	if len(parsed.Choices) == 0 {
		// Some providers return HTTP 200 with an error payload.
		var envelope errorEnvelope
		if err := json.Unmarshal(resp.Body, &envelope); err == nil && envelope.Error.Message != "" {
			return models.CompletionResult{
				Status:       models.StatusAPIError,
				Model:        req.Profile.Model,
				StatusCode:   resp.StatusCode,
				ErrorMessage: envelope.Error.Message,
			}
		}
		return models.CompletionResult{
			Status:       models.StatusParseError,
			Model:        req.Profile.Model,
			StatusCode:   resp.StatusCode,
			ErrorMessage: "response contained no choices",
		}
	}

	model := parsed.Model
	if model == "" {
		model = req.Profile.Model
	}

	return models.CompletionResult{
		Status:           models.StatusSuccess,
		Text:             parsed.Choices[0].Message.Content,
		Model:            model,
		StatusCode:       resp.StatusCode,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
		CostEstimate:     table.Cost(model, parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens),
	}
}

// apiErrorMessage extracts the provider's error message and adds hints
// for the status codes users hit most.
func apiErrorMessage(statusCode int, body []byte) string {
	msg := strings.TrimSpace(string(body))
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}
	if len(msg) > 500 {
		msg = msg[:500]
	}

	switch statusCode {
	case 401, 403:
		return fmt.Sprintf("authentication failed, check your API key (%d): %s", statusCode, msg)
	case 402:
		return fmt.Sprintf("API credits exhausted (%d): %s", statusCode, msg)
	default:
		return fmt.Sprintf("API error (%d): %s", statusCode, msg)
	}
}
