package graph

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds the number of in-flight LLM calls to pLimit (spec.md §5,
// default 50); excess callers queue FIFO behind the weighted semaphore.
// Nodes whose behavior is not an LLM call (Content, Formatter, Floating,
// HTTP, Reference) never acquire it, so only the resource the spec names
// is actually bounded.
type Limiter struct {
	sem *semaphore.Weighted
}

// NewLimiter creates a Limiter admitting at most n concurrent holders. A
// non-positive n is treated as unbounded (semaphore sized to effectively
// never block).
func NewLimiter(n int) *Limiter {
	if n <= 0 {
		n = 1 << 30
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(n))}
}

// Acquire blocks until a slot is free or ctx is cancelled.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

// Release frees the slot acquired by a matching Acquire call.
func (l *Limiter) Release() {
	l.sem.Release(1)
}
