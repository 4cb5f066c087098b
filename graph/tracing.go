package graph

import "sync"

// Usage accumulates LLM token/cost accounting for a run (spec.md §3
// "usage accounting", §6 "usage (prompt/completion tokens) is optional").
// Node behaviors add to it from their own goroutines (via
// RunContext.RecordUsage), so Add and Snapshot both take its lock.
type Usage struct {
	mu               sync.Mutex
	PromptTokens     int
	CompletionTokens int
	Calls            int
	TotalCost        float64
}

// Add folds one LLM call's usage into the running total. cost is the
// caller-computed dollar cost for this call (the engine has no pricing
// table of its own; callers supply one via WithCostFunc or a custom
// llm.Provider wrapper).
func (u *Usage) Add(promptTokens, completionTokens int, cost float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.PromptTokens += promptTokens
	u.CompletionTokens += completionTokens
	u.Calls++
	u.TotalCost += cost
}

// Snapshot returns a copy of the current totals.
func (u *Usage) Snapshot() Usage {
	u.mu.Lock()
	defer u.mu.Unlock()
	return Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		Calls:            u.Calls,
		TotalCost:        u.TotalCost,
	}
}
