package graph

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FinishReason describes why a Run stopped (spec.md §4.2).
type FinishReason string

const (
	FinishComplete FinishReason = "complete" // every vertex reached a terminal status
	FinishError    FinishReason = "error"    // a node behavior returned an error
	FinishStopped  FinishReason = "stopped"  // Stop was called
)

// signal is posted to the scheduler's single event channel whenever a
// vertex reaches a terminal status. The scheduler processes signals
// one at a time, so all status transitions and dependency re-evaluation
// happen on a single goroutine even though behaviors run concurrently
// (spec.md §5: "a single scheduler; concurrency is confined to the
// async suspension points inside node behaviors").
type signal struct {
	id  ID
	err error
}

// RunContext is the live state of one canvas execution: the object
// table, the dependency index, the concurrency limiter, usage counters,
// and the event channel the scheduler drains. Node behaviors reach it
// via FromContext to read edges, resolve config, and report completion.
type RunContext struct {
	RunID ID

	coll *Collection

	// dependents maps a vertex id to every vertex whose Dependencies
	// reference it, so a single completion only re-evaluates the vertices
	// it can actually unblock.
	dependents map[ID][]ID

	limiter    *Limiter
	usage      *Usage
	bcast      broadcaster
	log        Logger
	vault           Vault
	activeNote      string
	selection       string
	hasSelection    bool
	costFn          func(model string, promptTokens, completionTokens int) float64
	streamListeners []StreamListener
	onFinish        func(FinishReason, error)
	historyRecorder HistoryRecorder
	startedAt       time.Time

	mu       sync.Mutex
	sig      chan signal
	inflight int
	stopped  bool
	done     chan struct{}
	result   FinishReason
	resErr   error

	condMu sync.Mutex
	cond   *sync.Cond
}

// Logger is the minimal logging surface RunContext needs; package log's
// Logger satisfies it.
type Logger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Error(string, ...any) {}

// CompileOption configures a Run at Compile time.
type CompileOption func(*RunContext)

// WithConcurrency bounds simultaneous Call-node executions (spec.md §5,
// default 50 when unset).
func WithConcurrency(n int) CompileOption {
	return func(rc *RunContext) { rc.limiter = NewLimiter(n) }
}

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) CompileOption {
	return func(rc *RunContext) { rc.log = l }
}

// WithListener registers l for every status update the run emits.
func WithListener(l Listener) CompileOption {
	return func(rc *RunContext) { rc.bcast.add(l) }
}

// WithCostFunc supplies the dollar-cost model RecordUsage multiplies
// through; without one, usage accounting still tracks tokens but
// TotalCost stays zero (spec.md §6: "usage... is optional").
func WithCostFunc(fn func(model string, promptTokens, completionTokens int) float64) CompileOption {
	return func(rc *RunContext) { rc.costFn = fn }
}

// CostFunc returns the run's configured cost function, or nil.
func (rc *RunContext) CostFunc() func(model string, promptTokens, completionTokens int) float64 {
	return rc.costFn
}

// WithHistoryRecorder registers the run's completed-run ledger (SPEC_FULL.md
// §4.10). Without one, finish records nothing — callers that want the
// default always-on ledger supply a history.MemoryRecorder here.
func WithHistoryRecorder(r HistoryRecorder) CompileOption {
	return func(rc *RunContext) { rc.historyRecorder = r }
}

// Compile validates coll and returns a RunContext ready for Start. It
// computes every vertex's Dependencies and the reverse dependents index;
// Floating nodes (complete from construction, spec.md §4.9) are marked
// Complete immediately.
func Compile(coll *Collection, opts ...CompileOption) (*RunContext, error) {
	if err := coll.validate(); err != nil {
		return nil, err
	}

	rc := &RunContext{
		RunID:      NewID(),
		coll:       coll,
		dependents: map[ID][]ID{},
		limiter:    NewLimiter(50),
		usage:      &Usage{},
		log:        noopLogger{},
		sig:        make(chan signal, 64),
		done:       make(chan struct{}),
		startedAt:  time.Now(),
	}
	rc.cond = sync.NewCond(&rc.condMu)
	for _, opt := range opts {
		opt(rc)
	}

	for id, n := range coll.Nodes {
		n.initPending()
		n.Dependencies = buildVertexDependencies(n.Incoming, n.Enclosing, coll.Edges, coll.Groups)
		rc.indexDependents(id, n.Dependencies)
	}
	for id, g := range coll.Groups {
		g.initPending()
		g.Dependencies = buildVertexDependencies(g.Incoming, g.Enclosing, coll.Edges, coll.Groups)
		rc.indexDependents(id, g.Dependencies)
	}
	for _, e := range coll.Edges {
		e.initPending()
	}

	for _, n := range coll.Nodes {
		if n.Subtype == NodeFloating {
			if ev, ok := n.setStatus(StatusComplete, ""); ok {
				rc.emit(ev)
			}
		}
	}

	return rc, nil
}

// emit broadcasts ev to listeners and wakes any goroutine blocked in
// awaitMembersTerminal (group iteration controllers, see group.go).
func (rc *RunContext) emit(ev UpdateEvent) {
	rc.bcast.emit(ev)
	rc.condMu.Lock()
	rc.cond.Broadcast()
	rc.condMu.Unlock()
}

func (rc *RunContext) indexDependents(id ID, deps []Dependency) {
	for _, d := range deps {
		if d.isCluster() {
			for _, branch := range d.Cluster {
				rc.dependents[branch.Source] = append(rc.dependents[branch.Source], id)
			}
			continue
		}
		rc.dependents[d.Single] = append(rc.dependents[d.Single], id)
	}
}

// statusOf looks up any object's current status by id.
func (rc *RunContext) statusOf(id ID) Status {
	if n, ok := rc.coll.Nodes[id]; ok {
		return n.ObjStatus()
	}
	if e, ok := rc.coll.Edges[id]; ok {
		return e.ObjStatus()
	}
	if g, ok := rc.coll.Groups[id]; ok {
		return g.ObjStatus()
	}
	return ""
}

// Node, Edge, Group give node behaviors (package node) read access to the
// compiled object table without exposing the Collection type.
func (rc *RunContext) Node(id ID) *Node   { return rc.coll.Nodes[id] }
func (rc *RunContext) Edge(id ID) *Edge   { return rc.coll.Edges[id] }
func (rc *RunContext) Group(id ID) *Group { return rc.coll.Groups[id] }

// Usage returns the run's running token/cost totals.
func (rc *RunContext) Usage() Usage { return rc.usage.Snapshot() }

// RecordUsage folds one LLM call's token/cost accounting into the run's
// running total; node behaviors call this after every provider round trip.
func (rc *RunContext) RecordUsage(promptTokens, completionTokens int, cost float64) {
	rc.usage.Add(promptTokens, completionTokens, cost)
}

// Limiter returns the bounded-concurrency gate Call nodes must acquire
// before issuing an LLM request (spec.md §5).
func (rc *RunContext) Limiter() *Limiter { return rc.limiter }

// Log returns the run's logger.
func (rc *RunContext) Log() Logger { return rc.log }

// Start launches the ready vertices and the scheduler loop, then returns
// without waiting; onFinish is invoked exactly once when the run finishes
// (or ctx is cancelled). Use Wait or the onFinish callback to block until
// then.
func (rc *RunContext) Start(ctx context.Context, onFinish func(FinishReason, error)) {
	rc.onFinish = onFinish
	ctx = WithRunContext(ctx, rc)

	ready := rc.initialReady()
	if len(ready) == 0 && rc.inflight == 0 {
		rc.finish(FinishComplete, nil)
		return
	}
	for _, id := range ready {
		rc.launch(ctx, id)
	}

	go rc.loop(ctx)
}

// Wait blocks until the run reaches a terminal FinishReason.
func (rc *RunContext) Wait() (FinishReason, error) {
	<-rc.done
	return rc.result, rc.resErr
}

// Stop requests the run halt after in-flight behaviors return; no new
// vertex is launched once stopped.
func (rc *RunContext) Stop() {
	rc.mu.Lock()
	rc.stopped = true
	rc.mu.Unlock()
}

func (rc *RunContext) initialReady() []ID {
	var ready []ID
	for id, n := range rc.coll.Nodes {
		if n.Subtype == NodeFloating {
			continue
		}
		if n.ObjStatus() == StatusPending {
			res, _ := rc.evaluate(n.Dependencies)
			if res == evalSatisfied {
				ready = append(ready, id)
			}
		}
	}
	for id, g := range rc.coll.Groups {
		if g.ObjStatus() == StatusPending {
			res, _ := rc.evaluate(g.Dependencies)
			if res == evalSatisfied {
				ready = append(ready, id)
			}
		}
	}
	return ready
}

// launch transitions id Pending→Executing and runs its behavior
// asynchronously, reporting completion back through rc.sig.
func (rc *RunContext) launch(ctx context.Context, id ID) {
	rc.mu.Lock()
	rc.inflight++
	rc.mu.Unlock()

	if n, ok := rc.coll.Nodes[id]; ok {
		if ev, ok := n.setStatus(StatusExecuting, ""); ok {
			rc.emit(ev)
		}
		go func() {
			var err error
			if n.Behavior != nil {
				err = n.Behavior.Execute(ctx, rc, n)
			}
			rc.complete(n, err)
			rc.sig <- signal{id: id, err: err}
		}()
		return
	}

	if g, ok := rc.coll.Groups[id]; ok {
		g.execCount++
		if ev, ok := g.setStatus(StatusExecuting, ""); ok {
			rc.emit(ev)
		}
		go func() {
			err := rc.driveGroup(ctx, g)
			if !rc.anyMemberRejectedOrErrored(g) {
				rc.complete(g, err)
			} else if ev, ok := g.setStatus(StatusRejected, ""); ok {
				rc.emit(ev)
			}
			rc.sig <- signal{id: id, err: err}
		}()
	}
}

// terminable is satisfied by Node and Group, letting complete mark
// either kind of vertex Complete or Error.
type terminable interface {
	setStatus(Status, string) (UpdateEvent, bool)
}

func (rc *RunContext) complete(obj terminable, err error) {
	var ev UpdateEvent
	var ok bool
	switch {
	case err != nil:
		ev, ok = obj.setStatus(StatusError, err.Error())
	default:
		ev, ok = obj.setStatus(StatusComplete, "")
	}
	if ok {
		rc.emit(ev)
	}
}

// loop is the single scheduler goroutine: it drains signals and, for
// each, re-evaluates every dependent vertex exactly once.
func (rc *RunContext) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			rc.finish(FinishError, ctx.Err())
			return
		case s := <-rc.sig:
			rc.mu.Lock()
			rc.inflight--
			stopped := rc.stopped
			rc.mu.Unlock()

			if s.err != nil {
				rc.finish(FinishError, fmt.Errorf("vertex %s: %w", s.id, s.err))
				return
			}
			if rc.rejectDependents(s.id) {
				// a dependent was rejected; its own dependents are
				// re-evaluated in the same pass below via the signal
				// it would emit, but rejection does not go through sig,
				// so cascade immediately here.
				rc.cascadeRejections()
			}

			if stopped && rc.inflightCount() == 0 {
				rc.finish(FinishStopped, nil)
				return
			}

			ready := rc.reevaluate(s.id)
			if !stopped {
				for _, id := range ready {
					rc.launch(ctx, id)
				}
			}

			if rc.allTerminal() {
				rc.finish(FinishComplete, nil)
				return
			}
		}
	}
}

func (rc *RunContext) inflightCount() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.inflight
}

// reevaluate checks every vertex waiting on id and returns those now
// satisfied and ready to launch.
func (rc *RunContext) reevaluate(id ID) []ID {
	var ready []ID
	for _, dep := range rc.dependents[id] {
		deps := rc.depsOf(dep)
		if deps == nil || rc.statusOf(dep) != StatusPending {
			continue
		}
		res, err := rc.evaluate(deps)
		switch {
		case err != nil:
			rc.markError(dep, err)
		case res == evalSatisfied:
			ready = append(ready, dep)
		case res == evalIrrecoverable:
			rc.markRejected(dep)
		}
	}
	return ready
}

// rejectDependents marks Rejected every dependent whose deps just became
// irrecoverable as a direct result of id's completion. Returns true if
// anything was rejected, so the caller knows to cascade further.
func (rc *RunContext) rejectDependents(id ID) bool {
	any := false
	for _, dep := range rc.dependents[id] {
		deps := rc.depsOf(dep)
		if deps == nil || rc.statusOf(dep) != StatusPending {
			continue
		}
		res, err := rc.evaluate(deps)
		if err != nil {
			rc.markError(dep, err)
			any = true
			continue
		}
		if res == evalIrrecoverable {
			rc.markRejected(dep)
			any = true
		}
	}
	return any
}

// cascadeRejections repeatedly propagates Rejected status through the
// dependents graph until a pass produces no new rejections.
func (rc *RunContext) cascadeRejections() {
	for {
		changed := false
		for id := range rc.coll.Nodes {
			if rc.statusOf(id) != StatusPending {
				continue
			}
			deps := rc.depsOf(id)
			res, err := rc.evaluate(deps)
			if err != nil {
				rc.markError(id, err)
				changed = true
			} else if res == evalIrrecoverable {
				rc.markRejected(id)
				changed = true
			}
		}
		for id := range rc.coll.Groups {
			if rc.statusOf(id) != StatusPending {
				continue
			}
			deps := rc.depsOf(id)
			res, err := rc.evaluate(deps)
			if err != nil {
				rc.markError(id, err)
				changed = true
			} else if res == evalIrrecoverable {
				rc.markRejected(id)
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

func (rc *RunContext) depsOf(id ID) []Dependency {
	if n, ok := rc.coll.Nodes[id]; ok {
		return n.Dependencies
	}
	if g, ok := rc.coll.Groups[id]; ok {
		return g.Dependencies
	}
	return nil
}

func (rc *RunContext) markRejected(id ID) {
	if n, ok := rc.coll.Nodes[id]; ok {
		if ev, ok := n.setStatus(StatusRejected, ""); ok {
			rc.emit(ev)
		}
		return
	}
	if g, ok := rc.coll.Groups[id]; ok {
		if ev, ok := g.setStatus(StatusRejected, ""); ok {
			rc.emit(ev)
		}
	}
}

func (rc *RunContext) markError(id ID, err error) {
	if n, ok := rc.coll.Nodes[id]; ok {
		if ev, ok := n.setStatus(StatusError, err.Error()); ok {
			rc.emit(ev)
		}
		return
	}
	if g, ok := rc.coll.Groups[id]; ok {
		if ev, ok := g.setStatus(StatusError, err.Error()); ok {
			rc.emit(ev)
		}
	}
}

func (rc *RunContext) allTerminal() bool {
	if rc.inflightCount() > 0 {
		return false
	}
	for _, n := range rc.coll.Nodes {
		if !n.ObjStatus().Terminal() {
			return false
		}
	}
	for _, g := range rc.coll.Groups {
		if !g.ObjStatus().Terminal() {
			return false
		}
	}
	return true
}

func (rc *RunContext) finish(reason FinishReason, err error) {
	rc.mu.Lock()
	if rc.result != "" {
		rc.mu.Unlock()
		return
	}
	rc.result, rc.resErr = reason, err
	rc.mu.Unlock()
	close(rc.done)
	if rc.onFinish != nil {
		rc.onFinish(reason, err)
	}
	if rc.historyRecorder != nil {
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		rec := HistoryRecord{
			RunID:      rc.RunID,
			StartedAt:  rc.startedAt,
			FinishedAt: time.Now(),
			Reason:     reason,
			Message:    msg,
			Usage:      rc.usage.Snapshot(),
		}
		if recErr := rc.historyRecorder.Record(context.Background(), rec); recErr != nil {
			rc.log.Error("history: recording run %s: %v", rc.RunID, recErr)
		}
	}
}
