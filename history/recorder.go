package history

import (
	"context"

	"github.com/cannoliai/cannoli/graph"
)

// Record is graph.HistoryRecord under this package's name: the terminal
// summary of one completed run (SPEC_FULL.md §4.10: "records completed
// runs (id, start/end time, onFinish reason, usage, total cost)"). It is
// an alias, not a new type, so every Recorder below also satisfies
// graph.HistoryRecorder and can be passed straight to
// graph.WithHistoryRecorder.
type Record = graph.HistoryRecord

// Recorder persists Records. Implementations must tolerate being called
// from the goroutine that ran onFinish; Record itself does not need to be
// fast, since it happens once per run after the run has already ended.
type Recorder = graph.HistoryRecorder

// NopRecorder discards every record. Nothing installs it by default: a
// run compiled without graph.WithHistoryRecorder records nothing.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Record) error { return nil }

var _ Recorder = NopRecorder{}
