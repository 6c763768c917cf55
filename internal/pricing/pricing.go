// Package pricing computes cost estimates from per-model pricing tables.
package pricing

import (
	"github.com/jmallory/llm-desk-tui/internal/models"
)

const tokensPerMillion = 1_000_000

// Table maps model names to their pricing. Tables come from
// configuration; there is no hard-coded price schedule.
type Table struct {
	prices map[string]models.ModelPricing
}

// NewTable builds a pricing table from configuration-supplied entries.
// A nil or empty map yields a table that prices everything at zero.
func NewTable(prices map[string]models.ModelPricing) *Table {
	copied := make(map[string]models.ModelPricing, len(prices))
	for name, p := range prices {
		copied[name] = p
	}
	return &Table{prices: copied}
}

// Lookup returns the pricing for a model. Unknown models get zero
// pricing, so their cost is tracked as zero rather than guessed.
func (t *Table) Lookup(model string) models.ModelPricing {
	if t == nil {
		return models.ModelPricing{}
	}
	return t.prices[model]
}

// Cost estimates the dollar cost of a request from its token counts.
func (t *Table) Cost(model string, promptTokens, completionTokens int) float64 {
	p := t.Lookup(model)
	promptCost := float64(promptTokens) / tokensPerMillion * p.PromptPerMillion
	completionCost := float64(completionTokens) / tokensPerMillion * p.CompletionPerMillion
	return promptCost + completionCost
}

// Models returns the number of models the table knows about.
func (t *Table) Models() int {
	if t == nil {
		return 0
	}
	return len(t.prices)
}
