package models

import "time"

// ResultStatus classifies the outcome of a completion request.
type ResultStatus int

const (
	// StatusSuccess indicates a parseable completion was received.
	StatusSuccess ResultStatus = iota
	// StatusAPIError indicates the provider returned an error payload.
	StatusAPIError
	// StatusNetworkError indicates the transport call itself failed.
	StatusNetworkError
	// StatusParseError indicates the response body was malformed.
	StatusParseError
)

// String returns the display name for a result status.
func (s ResultStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusAPIError:
		return "api_error"
	case StatusNetworkError:
		return "network_error"
	case StatusParseError:
		return "parse_error"
	default:
		return "unknown"
	}
}

// ParseResultStatus converts a stored status string back to a ResultStatus.
func ParseResultStatus(s string) ResultStatus {
	switch s {
	case "success":
		return StatusSuccess
	case "api_error":
		return StatusAPIError
	case "network_error":
		return StatusNetworkError
	default:
		return StatusParseError
	}
}

// CompletionResult is the outcome of one prompt submission. It is
// constructed once from the transport response and never mutated.
type CompletionResult struct {
	Text             string
	Model            string
	ErrorMessage     string
	Status           ResultStatus
	StatusCode       int
	PromptTokens     int
	CompletionTokens int
	CostEstimate     float64
	Duration         time.Duration
}

// OK returns true if the result carries a usable completion.
func (r CompletionResult) OK() bool {
	return r.Status == StatusSuccess
}

// TotalTokens returns the combined prompt and completion token count.
func (r CompletionResult) TotalTokens() int {
	return r.PromptTokens + r.CompletionTokens
}
