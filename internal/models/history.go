package models

import "time"

// HistoryEntry pairs a prompt request with its result. Entries are
// append-only and ordered by submission.
type HistoryEntry struct {
	ID        int64
	Request   PromptRequest
	Result    CompletionResult
	Timestamp time.Time
}

// TotalStats represents aggregated statistics over all persisted
// completions, across sessions.
type TotalStats struct {
	TotalCalls            int
	TotalPromptTokens     int64
	TotalCompletionTokens int64
	TotalCost             float64
	ErrorCount            int
	UniqueModels          int
}
