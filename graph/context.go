package graph

import "context"

type runContextKey struct{}

// WithRunContext attaches the run to ctx so node behaviors (in package
// node) can reach capabilities, the object table, and the loop-index
// stack without threading an extra parameter through every call.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// FromContext retrieves the RunContext stashed by WithRunContext, or nil
// if none is present (e.g. in a unit test calling a behavior directly).
func FromContext(ctx context.Context) *RunContext {
	rc, _ := ctx.Value(runContextKey{}).(*RunContext)
	return rc
}

type loopStackKey struct{}

// WithLoopStack attaches the current innermost-to-outermost stack of
// enclosing loop groups' current indices, consulted by {{#}}/{{##}}
// reference resolution (spec.md §4.8).
func WithLoopStack(ctx context.Context, indices []int) context.Context {
	return context.WithValue(ctx, loopStackKey{}, indices)
}

// LoopStack retrieves the loop-index stack, or nil outside any loop.
func LoopStack(ctx context.Context) []int {
	idx, _ := ctx.Value(loopStackKey{}).([]int)
	return idx
}
