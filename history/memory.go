package history

import (
	"context"
	"sync"
)

// MemoryRecorder is an in-process ring buffer of the most recent runs.
// Like every Recorder it records only when passed to
// graph.WithHistoryRecorder, as cmd/cannoli does. Grounded on the teacher's
// store/memory in-process map, generalized to a fixed-capacity ring so a
// long-lived process doesn't grow this list without bound.
type MemoryRecorder struct {
	mu       sync.Mutex
	capacity int
	records  []Record
}

// NewMemoryRecorder returns a MemoryRecorder holding at most capacity
// records, oldest evicted first. capacity <= 0 means unbounded.
func NewMemoryRecorder(capacity int) *MemoryRecorder {
	return &MemoryRecorder{capacity: capacity}
}

func (m *MemoryRecorder) Record(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	if m.capacity > 0 && len(m.records) > m.capacity {
		m.records = m.records[len(m.records)-m.capacity:]
	}
	return nil
}

// Recent returns a copy of the recorded runs, oldest first.
func (m *MemoryRecorder) Recent() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

var _ Recorder = (*MemoryRecorder)(nil)
