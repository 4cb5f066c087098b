package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider returns scripted completions in call order, for tests of
// Call-node behaviors that must not hit a real API.
type MockProvider struct {
	mu        sync.Mutex
	responses []Completion
	errs      []error
	calls     []MockCall
	served    int
}

// MockCall records one Complete/Stream invocation for assertions.
type MockCall struct {
	Messages []Message
	Options  Options
	Streamed bool
}

// NewMockProvider returns a provider that yields responses in order,
// repeating the last one once exhausted.
func NewMockProvider(responses ...Completion) *MockProvider {
	return &MockProvider{responses: responses}
}

var _ Provider = (*MockProvider)(nil)

// FailNext queues err for the next call not already claimed by an
// earlier FailNext; that call returns err instead of consuming a
// scripted response.
func (m *MockProvider) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, err)
}

// Calls returns every recorded invocation so far.
func (m *MockProvider) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockProvider) Complete(_ context.Context, messages []Message, opts Options) (Completion, error) {
	return m.next(messages, opts, false)
}

func (m *MockProvider) Stream(_ context.Context, messages []Message, opts Options, onDelta StreamFunc) (Completion, error) {
	c, err := m.next(messages, opts, true)
	if err == nil && onDelta != nil && c.Text != "" {
		onDelta(c.Text)
	}
	return c, err
}

func (m *MockProvider) next(messages []Message, opts Options, streamed bool) (Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Messages: messages, Options: opts, Streamed: streamed})

	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return Completion{}, err
	}
	if len(m.responses) == 0 {
		return Completion{}, fmt.Errorf("llm: mock provider has no scripted response")
	}
	idx := m.served
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.served++
	return m.responses[idx], nil
}
