// Package models defines data structures and domain types.
package models

import "time"

// RequestProfile is the immutable configuration snapshot carried by a
// PromptRequest. Editing the live configuration while a request is in
// flight only affects the next submission.
type RequestProfile struct {
	EndpointURL  string
	APIKey       string
	Model        string
	SystemPrompt string
	HTTPReferer  string
	XTitle       string
	Temperature  float64
	MaxTokens    int
}

// PromptRequest represents a single prompt submission. It is immutable
// once sent.
type PromptRequest struct {
	Prompt    string
	Profile   RequestProfile
	CreatedAt time.Time
}
