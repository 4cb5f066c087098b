package graph

import (
	"context"
	"time"
)

// HistoryRecord is the terminal summary of one completed run: enough to
// reconstruct "what happened" without any intermediate vertex state
// (spec.md §1's persistence Non-goal; SPEC_FULL.md §4.10).
type HistoryRecord struct {
	RunID      ID
	StartedAt  time.Time
	FinishedAt time.Time
	Reason     FinishReason
	Message    string
	Usage      Usage
}

// HistoryRecorder persists HistoryRecords once a run reaches a terminal
// FinishReason. Declared here, alongside FinishReason and Usage, rather
// than in package history where its implementations live, so RunContext
// can hold one without history importing graph circularly — the same
// shape package history's Recorder settles on, so its SQLite/Postgres/
// Redis/MemoryRecorder types satisfy this interface directly.
type HistoryRecorder interface {
	Record(ctx context.Context, rec HistoryRecord) error
}
