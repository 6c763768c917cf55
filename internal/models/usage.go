package models

import "fmt"

// SessionUsage accumulates token counts and estimated cost for the
// lifetime of one running client instance. Counters only grow until an
// explicit reset.
type SessionUsage struct {
	PromptTokens     int64
	CompletionTokens int64
	Cost             float64
	Requests         int
}

// TotalTokens returns the combined token count for the session.
func (u SessionUsage) TotalTokens() int64 {
	return u.PromptTokens + u.CompletionTokens
}

// Summary returns a short display string for the status bar.
func (u SessionUsage) Summary() string {
	return fmt.Sprintf("in %d · out %d · $%.4f (%d requests)",
		u.PromptTokens, u.CompletionTokens, u.Cost, u.Requests)
}

// ModelPricing holds the price per million tokens for one model. Cost
// figures derived from it are estimates, not billed truth.
type ModelPricing struct {
	PromptPerMillion     float64 `yaml:"prompt_per_million"`
	CompletionPerMillion float64 `yaml:"completion_per_million"`
}
