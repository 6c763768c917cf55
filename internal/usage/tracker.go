// Package usage tracks session token usage and estimated cost.
package usage

import (
	"sync"

	"github.com/jmallory/llm-desk-tui/internal/models"
	"github.com/jmallory/llm-desk-tui/internal/pricing"
)

// Tracker accumulates token counts and cost per session. Bubble Tea
// commands run on their own goroutines, so access is mutex-guarded.
type Tracker struct {
	mu     sync.RWMutex
	table  *pricing.Table
	totals models.SessionUsage
}

// New creates a Tracker using the given pricing table for cost
// estimation. A nil table prices everything at zero.
func New(table *pricing.Table) *Tracker {
	return &Tracker{table: table}
}

// SetTable swaps the pricing table, e.g. after a config reload. Already
// accumulated cost is not recomputed.
func (t *Tracker) SetTable(table *pricing.Table) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.table = table
}

// Record accumulates the usage of one successful result. Failed results
// must not be recorded; callers enforce this.
func (t *Tracker) Record(result models.CompletionResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.totals.PromptTokens += int64(result.PromptTokens)
	t.totals.CompletionTokens += int64(result.CompletionTokens)
	t.totals.Cost += t.table.Cost(result.Model, result.PromptTokens, result.CompletionTokens)
	t.totals.Requests++
}

// Snapshot returns an immutable copy of the session totals.
func (t *Tracker) Snapshot() models.SessionUsage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totals
}

// Reset zeroes all counters.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totals = models.SessionUsage{}
}
