package graph_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cannoliai/cannoli/graph"
)

// countingBehavior loads a fixed string onto every outgoing edge it's
// given and counts how many times Execute runs, for the Repeat/ForEach
// scenarios below.
type countingBehavior struct {
	mu    sync.Mutex
	runs  int
	value string
}

func (b *countingBehavior) Reset() {}

func (b *countingBehavior) Execute(_ context.Context, rc *graph.RunContext, n *graph.Node) error {
	b.mu.Lock()
	b.runs++
	b.mu.Unlock()
	for _, eid := range n.Outgoing {
		if e := rc.Edge(eid); e != nil {
			e.Load(b.value, nil)
		}
	}
	return nil
}

func (b *countingBehavior) Runs() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runs
}

// choosingBehavior mimics a NodeCallChoose node that always selects one
// named outgoing Choice edge and leaves the others unloaded, without
// going through package node/llm at all — exactly the shape that exposed
// the dependency-resolution bug documented in DESIGN.md.
type choosingBehavior struct {
	pick string
}

func (choosingBehavior) Reset() {}

func (b choosingBehavior) Execute(_ context.Context, rc *graph.RunContext, n *graph.Node) error {
	for _, eid := range n.Outgoing {
		e := rc.Edge(eid)
		if e == nil {
			continue
		}
		if e.Name() == b.pick {
			e.Load("chosen", nil)
		}
	}
	return nil
}

// erroringBehavior always fails, to exercise FinishError propagation.
type erroringBehavior struct{ err error }

func (erroringBehavior) Reset() {}
func (b erroringBehavior) Execute(context.Context, *graph.RunContext, *graph.Node) error {
	return b.err
}

// statusRecorder collects every UpdateEvent a run emits, for assertions
// on transition counts and on the "no status repeats without change"
// invariant (spec.md §8).
type statusRecorder struct {
	mu     sync.Mutex
	events []graph.UpdateEvent
}

func (r *statusRecorder) OnUpdate(ev graph.UpdateEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *statusRecorder) countOf(id graph.ID, s graph.Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Object == id && ev.Status == s {
			n++
		}
	}
	return n
}

func (r *statusRecorder) all() []graph.UpdateEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]graph.UpdateEvent, len(r.events))
	copy(out, r.events)
	return out
}

func waitFinish(t *testing.T, rc *graph.RunContext) (graph.FinishReason, error) {
	t.Helper()
	done := make(chan struct{})
	var reason graph.FinishReason
	var err error
	rc.Start(context.Background(), func(r graph.FinishReason, e error) {
		reason, err = r, e
		close(done)
	})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish in time")
	}
	got, gotErr := rc.Wait()
	require.Equal(t, reason, got)
	require.Equal(t, err, gotErr)
	return reason, err
}

// Scenario 1 analog (linear Call): a Content node's text flows through a
// named Variable edge into a downstream Content node that reuses it, and
// the run finishes Complete.
func TestLinearCompletionFlowsThroughNamedEdge(t *testing.T) {
	src, dst := graph.ID("src"), graph.ID("dst")
	edgeID := graph.ID("e1")

	edge := &graph.Edge{
		Base:    graph.Base{ID: edgeID, Text: "topic"},
		Source:  src,
		Target:  dst,
		Subtype: graph.EdgeVariable,
	}
	srcBehavior := &countingBehavior{value: "weather"}
	srcNode := &graph.Node{
		Base:     graph.Base{ID: src, Text: "weather"},
		Subtype:  graph.NodeContentStandard,
		Outgoing: []graph.ID{edgeID},
		Behavior: srcBehavior,
	}
	dstBehavior := &countingBehavior{value: "done"}
	dstNode := &graph.Node{
		Base:     graph.Base{ID: dst, Text: "{{topic}}"},
		Subtype:  graph.NodeContentStandard,
		Incoming: []graph.ID{edgeID},
		Behavior: dstBehavior,
	}

	rc, err := graph.Compile(&graph.Collection{
		Nodes:  map[graph.ID]*graph.Node{src: srcNode, dst: dstNode},
		Edges:  map[graph.ID]*graph.Edge{edgeID: edge},
		Groups: map[graph.ID]*graph.Group{},
	})
	require.NoError(t, err)

	reason, err := waitFinish(t, rc)
	require.NoError(t, err)
	assert.Equal(t, graph.FinishComplete, reason)
	assert.Equal(t, graph.StatusComplete, srcNode.ObjStatus())
	assert.Equal(t, graph.StatusComplete, dstNode.ObjStatus())
	assert.True(t, edge.Loaded())
	assert.Equal(t, 1, srcBehavior.Runs())
	assert.Equal(t, 1, dstBehavior.Runs())
}

// Scenario 2 analog (Choice branches): exercises the DependencyBranch fix
// directly. A Choose-shaped node has two named Choice edges, "yes" and
// "no"; the behavior only loads "no". The downstream listener on "yes"
// must end Rejected, not be falsely treated as satisfied just because
// the source node reached Complete.
func TestChoiceBranchRejectsUnselectedPath(t *testing.T) {
	chooser := graph.ID("chooser")
	yesTarget, noTarget := graph.ID("yesTarget"), graph.ID("noTarget")
	yesEdge, noEdge := graph.ID("eyes"), graph.ID("eno")

	yes := &graph.Edge{Base: graph.Base{ID: yesEdge, Text: "yes"}, Source: chooser, Target: yesTarget, Subtype: graph.EdgeChoice}
	no := &graph.Edge{Base: graph.Base{ID: noEdge, Text: "no"}, Source: chooser, Target: noTarget, Subtype: graph.EdgeChoice}

	chooserNode := &graph.Node{
		Base:     graph.Base{ID: chooser, Text: "pick one"},
		Subtype:  graph.NodeCallChoose,
		Outgoing: []graph.ID{yesEdge, noEdge},
		Behavior: choosingBehavior{pick: "no"},
	}
	yesConsumer := &graph.Node{
		Base:     graph.Base{ID: yesTarget, Text: "{{yes}}"},
		Subtype:  graph.NodeContentStandard,
		Incoming: []graph.ID{yesEdge},
		Behavior: &countingBehavior{value: "yes-ran"},
	}
	noConsumer := &graph.Node{
		Base:     graph.Base{ID: noTarget, Text: "{{no}}"},
		Subtype:  graph.NodeContentStandard,
		Incoming: []graph.ID{noEdge},
		Behavior: &countingBehavior{value: "no-ran"},
	}

	rc, err := graph.Compile(&graph.Collection{
		Nodes: map[graph.ID]*graph.Node{
			chooser: chooserNode, yesTarget: yesConsumer, noTarget: noConsumer,
		},
		Edges:  map[graph.ID]*graph.Edge{yesEdge: yes, noEdge: no},
		Groups: map[graph.ID]*graph.Group{},
	})
	require.NoError(t, err)

	reason, err := waitFinish(t, rc)
	require.NoError(t, err)
	assert.Equal(t, graph.FinishComplete, reason)

	assert.Equal(t, graph.StatusComplete, chooserNode.ObjStatus())
	assert.True(t, no.Loaded())
	assert.False(t, yes.Loaded())
	assert.Equal(t, graph.StatusComplete, noConsumer.ObjStatus())
	assert.Equal(t, graph.StatusRejected, yesConsumer.ObjStatus(), "unselected choice branch's dependent must be rejected, not falsely satisfied")
}

// Scenario 3 analog (Repeat(3)): a Repeat group with a single member
// drives that member to Executing exactly MaxLoops times.
func TestRepeatGroupDrivesMemberExactlyMaxLoopsTimes(t *testing.T) {
	groupID, memberID := graph.ID("g"), graph.ID("m")
	behavior := &countingBehavior{value: "tick"}
	member := &graph.Node{
		Base:      graph.Base{ID: memberID, Text: "tick"},
		Subtype:   graph.NodeContentStandard,
		Enclosing: []graph.ID{groupID},
		Behavior:  behavior,
	}
	group := &graph.Group{
		Base:     graph.Base{ID: groupID, Text: "Repeat(3)"},
		Subtype:  graph.GroupRepeat,
		Members:  []graph.ID{memberID},
		MaxLoops: 3,
	}

	rc, err := graph.Compile(&graph.Collection{
		Nodes:  map[graph.ID]*graph.Node{memberID: member},
		Edges:  map[graph.ID]*graph.Edge{},
		Groups: map[graph.ID]*graph.Group{groupID: group},
	})
	require.NoError(t, err)

	recorder := &statusRecorder{}
	graph.WithListener(recorder)(rc)

	reason, err := waitFinish(t, rc)
	require.NoError(t, err)
	assert.Equal(t, graph.FinishComplete, reason)
	assert.Equal(t, 3, behavior.Runs())
	assert.Equal(t, 3, recorder.countOf(memberID, graph.StatusExecuting))
	assert.Equal(t, graph.StatusComplete, member.ObjStatus())
}

// sequenceBehavior loads "run<n>" (n starting at 1) onto every outgoing
// edge each time it executes, so a test can tell which iteration's
// write actually stuck versus was swallowed by Edge.Load's write-once
// rule.
type sequenceBehavior struct {
	mu  sync.Mutex
	run int
}

func (*sequenceBehavior) Reset() {}

func (b *sequenceBehavior) Execute(_ context.Context, rc *graph.RunContext, n *graph.Node) error {
	b.mu.Lock()
	b.run++
	value := "run" + strconv.Itoa(b.run)
	b.mu.Unlock()
	for _, eid := range n.Outgoing {
		if e := rc.Edge(eid); e != nil {
			e.Load(value, nil)
		}
	}
	return nil
}

// TestRepeatGroupResetsOnlyBoundaryCrossingEdges verifies spec.md §4.6:
// between Repeat iterations, a member's outgoing edge whose target lies
// outside the group is reset (so it can be reloaded each iteration),
// while an outgoing edge whose target is another member of the same
// group is left alone (its first-iteration payload persists).
func TestRepeatGroupResetsOnlyBoundaryCrossingEdges(t *testing.T) {
	groupID := graph.ID("g")
	aID, bID, cID := graph.ID("a"), graph.ID("b"), graph.ID("c")
	internalID, boundaryID := graph.ID("e-internal"), graph.ID("e-boundary")

	seq := &sequenceBehavior{}
	a := &graph.Node{
		Base:      graph.Base{ID: aID, Text: "a"},
		Subtype:   graph.NodeContentStandard,
		Enclosing: []graph.ID{groupID},
		Outgoing:  []graph.ID{internalID, boundaryID},
		Behavior:  seq,
	}
	b := &graph.Node{
		Base:      graph.Base{ID: bID, Text: "b"},
		Subtype:   graph.NodeContentStandard,
		Enclosing: []graph.ID{groupID},
		Incoming:  []graph.ID{internalID},
		Behavior:  &countingBehavior{value: "b"},
	}
	c := &graph.Node{
		Base:     graph.Base{ID: cID, Text: "c"},
		Subtype:  graph.NodeContentStandard,
		Incoming: []graph.ID{boundaryID},
		Behavior: &countingBehavior{value: "c"},
	}

	internal := &graph.Edge{Base: graph.Base{ID: internalID}, Source: aID, Target: bID, Subtype: graph.EdgeVariable}
	boundary := &graph.Edge{Base: graph.Base{ID: boundaryID}, Source: aID, Target: cID, Subtype: graph.EdgeVariable}

	group := &graph.Group{
		Base:     graph.Base{ID: groupID, Text: "Repeat(3)"},
		Subtype:  graph.GroupRepeat,
		Members:  []graph.ID{aID, bID},
		MaxLoops: 3,
	}

	rc, err := graph.Compile(&graph.Collection{
		Nodes:  map[graph.ID]*graph.Node{aID: a, bID: b, cID: c},
		Edges:  map[graph.ID]*graph.Edge{internalID: internal, boundaryID: boundary},
		Groups: map[graph.ID]*graph.Group{groupID: group},
	})
	require.NoError(t, err)

	reason, err := waitFinish(t, rc)
	require.NoError(t, err)
	assert.Equal(t, graph.FinishComplete, reason)

	assert.Equal(t, "run1", internal.ContentString(), "intra-group edge should keep its first iteration's payload")
	assert.Equal(t, "run3", boundary.ContentString(), "boundary-crossing edge should be reloaded every iteration")
}

// Scenario 4 analog (ForEach(2)): two independently-cloned member sets,
// mirroring what canvas.expandForEach produces, complete in parallel and
// each feeds its own downstream collector.
func TestForEachClonesCompleteIndependently(t *testing.T) {
	g1, m1, edge1 := graph.ID("g1"), graph.ID("m1"), graph.ID("e1")
	g2, m2, edge2 := graph.ID("g2"), graph.ID("m2"), graph.ID("e2")

	collector1, collector2 := graph.ID("c1"), graph.ID("c2")

	nodes := map[graph.ID]*graph.Node{}
	edges := map[graph.ID]*graph.Edge{}
	groups := map[graph.ID]*graph.Group{}

	for _, clone := range []struct {
		groupID, memberID, edgeID, collectorID graph.ID
		value                                  string
	}{
		{g1, m1, edge1, collector1, "apple"},
		{g2, m2, edge2, collector2, "banana"},
	} {
		e := &graph.Edge{Base: graph.Base{ID: clone.edgeID, Text: "item"}, Source: clone.memberID, Target: clone.collectorID, Subtype: graph.EdgeList}
		member := &graph.Node{
			Base:      graph.Base{ID: clone.memberID, Text: clone.value},
			Subtype:   graph.NodeContentStandard,
			Enclosing: []graph.ID{clone.groupID},
			Outgoing:  []graph.ID{clone.edgeID},
			Behavior:  &countingBehavior{value: clone.value},
		}
		collector := &graph.Node{
			Base:     graph.Base{ID: clone.collectorID, Text: "{{item}}"},
			Subtype:  graph.NodeContentStandard,
			Incoming: []graph.ID{clone.edgeID},
			Behavior: &countingBehavior{value: "collected"},
		}
		group := &graph.Group{
			Base:    graph.Base{ID: clone.groupID, Text: "ForEach"},
			Subtype: graph.GroupForEach,
			Members: []graph.ID{clone.memberID},
			Outgoing: []graph.ID{clone.edgeID},
		}
		nodes[clone.memberID] = member
		nodes[clone.collectorID] = collector
		edges[clone.edgeID] = e
		groups[clone.groupID] = group
	}

	rc, err := graph.Compile(&graph.Collection{Nodes: nodes, Edges: edges, Groups: groups})
	require.NoError(t, err)

	reason, err := waitFinish(t, rc)
	require.NoError(t, err)
	assert.Equal(t, graph.FinishComplete, reason)

	assert.Equal(t, graph.StatusComplete, nodes[collector1].ObjStatus())
	assert.Equal(t, graph.StatusComplete, nodes[collector2].ObjStatus())
	assert.True(t, edges[edge1].Loaded())
	assert.True(t, edges[edge2].Loaded())
}

// Scenario 5 analog (Cycle rejection), direct coverage of graph.Compile
// in isolation: a 2-node A->B->A cycle must fail Compile with
// ErrCycleDetected, without the canvas layer involved at all.
func TestCompileRejectsCycle(t *testing.T) {
	a, b := graph.ID("a"), graph.ID("b")
	ab, ba := graph.ID("ab"), graph.ID("ba")

	edgeAB := &graph.Edge{Base: graph.Base{ID: ab, Text: "x"}, Source: a, Target: b, Subtype: graph.EdgeVariable}
	edgeBA := &graph.Edge{Base: graph.Base{ID: ba, Text: "y"}, Source: b, Target: a, Subtype: graph.EdgeVariable}

	nodeA := &graph.Node{Base: graph.Base{ID: a, Text: "a"}, Subtype: graph.NodeContentStandard, Incoming: []graph.ID{ba}, Outgoing: []graph.ID{ab}}
	nodeB := &graph.Node{Base: graph.Base{ID: b, Text: "b"}, Subtype: graph.NodeContentStandard, Incoming: []graph.ID{ab}, Outgoing: []graph.ID{ba}}

	_, err := graph.Compile(&graph.Collection{
		Nodes:  map[graph.ID]*graph.Node{a: nodeA, b: nodeB},
		Edges:  map[graph.ID]*graph.Edge{ab: edgeAB, ba: edgeBA},
		Groups: map[graph.ID]*graph.Group{},
	})
	require.Error(t, err)

	var structErr *graph.StructuralError
	require.ErrorAs(t, err, &structErr)
	assert.ErrorIs(t, err, graph.ErrCycleDetected)
}

// Scenario 6 analog (duplicate variable): two same-named edges from two
// independent sources both load simultaneously, which is a configuration
// bug rather than an ordinary race; the dependent must end in Error.
func TestDuplicateVariableEndsDependentInError(t *testing.T) {
	src1, src2, dst := graph.ID("s1"), graph.ID("s2"), graph.ID("dst")
	e1, e2 := graph.ID("e1"), graph.ID("e2")

	edge1 := &graph.Edge{Base: graph.Base{ID: e1, Text: "topic"}, Source: src1, Target: dst, Subtype: graph.EdgeVariable}
	edge2 := &graph.Edge{Base: graph.Base{ID: e2, Text: "topic"}, Source: src2, Target: dst, Subtype: graph.EdgeVariable}

	node1 := &graph.Node{Base: graph.Base{ID: src1, Text: "a"}, Subtype: graph.NodeContentStandard, Outgoing: []graph.ID{e1}, Behavior: &countingBehavior{value: "a"}}
	node2 := &graph.Node{Base: graph.Base{ID: src2, Text: "b"}, Subtype: graph.NodeContentStandard, Outgoing: []graph.ID{e2}, Behavior: &countingBehavior{value: "b"}}
	dstNode := &graph.Node{Base: graph.Base{ID: dst, Text: "{{topic}}"}, Subtype: graph.NodeContentStandard, Incoming: []graph.ID{e1, e2}, Behavior: &countingBehavior{value: "dst"}}

	rc, err := graph.Compile(&graph.Collection{
		Nodes:  map[graph.ID]*graph.Node{src1: node1, src2: node2, dst: dstNode},
		Edges:  map[graph.ID]*graph.Edge{e1: edge1, e2: edge2},
		Groups: map[graph.ID]*graph.Group{},
	})
	require.NoError(t, err)

	reason, _ := waitFinish(t, rc)
	assert.Equal(t, graph.FinishComplete, reason)
	assert.Equal(t, graph.StatusError, dstNode.ObjStatus())
}

// TestRuntimeErrorAbortsTheRun exercises a node behavior's error return
// terminating the run with FinishError (spec.md §7).
func TestRuntimeErrorAbortsTheRun(t *testing.T) {
	id := graph.ID("failing")
	failErr := assertErr{}
	n := &graph.Node{
		Base:     graph.Base{ID: id, Text: "boom"},
		Subtype:  graph.NodeContentStandard,
		Behavior: erroringBehavior{err: failErr},
	}

	rc, err := graph.Compile(&graph.Collection{
		Nodes:  map[graph.ID]*graph.Node{id: n},
		Edges:  map[graph.ID]*graph.Edge{},
		Groups: map[graph.ID]*graph.Group{},
	})
	require.NoError(t, err)

	reason, rerr := waitFinish(t, rc)
	assert.Equal(t, graph.FinishError, reason)
	assert.Error(t, rerr)
	assert.Equal(t, graph.StatusError, n.ObjStatus())
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

// TestNoStatusRepeatsWithoutChange asserts the universal invariant that a
// Listener never observes the same status for the same object twice in a
// row (spec.md §8).
func TestNoStatusRepeatsWithoutChange(t *testing.T) {
	src, dst := graph.ID("src"), graph.ID("dst")
	edgeID := graph.ID("e1")
	edge := &graph.Edge{Base: graph.Base{ID: edgeID, Text: "x"}, Source: src, Target: dst, Subtype: graph.EdgeVariable}
	srcNode := &graph.Node{Base: graph.Base{ID: src, Text: "x"}, Subtype: graph.NodeContentStandard, Outgoing: []graph.ID{edgeID}, Behavior: &countingBehavior{value: "x"}}
	dstNode := &graph.Node{Base: graph.Base{ID: dst, Text: "{{x}}"}, Subtype: graph.NodeContentStandard, Incoming: []graph.ID{edgeID}, Behavior: &countingBehavior{value: "y"}}

	rc, err := graph.Compile(&graph.Collection{
		Nodes:  map[graph.ID]*graph.Node{src: srcNode, dst: dstNode},
		Edges:  map[graph.ID]*graph.Edge{edgeID: edge},
		Groups: map[graph.ID]*graph.Group{},
	})
	require.NoError(t, err)

	recorder := &statusRecorder{}
	graph.WithListener(recorder)(rc)

	_, err = waitFinish(t, rc)
	require.NoError(t, err)

	seen := map[graph.ID]graph.Status{}
	for _, ev := range recorder.all() {
		require.NotEqual(t, seen[ev.Object], ev.Status, "status %s repeated without change on %s", ev.Status, ev.Object)
		seen[ev.Object] = ev.Status
	}
}

// fakeHistoryRecorder captures every HistoryRecord passed to it, for the
// history-wiring test below.
type fakeHistoryRecorder struct {
	mu      sync.Mutex
	records []graph.HistoryRecord
}

func (f *fakeHistoryRecorder) Record(_ context.Context, rec graph.HistoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func TestHistoryRecorderIsInvokedOnceOnFinish(t *testing.T) {
	id := graph.ID("only")
	n := &graph.Node{
		Base:     graph.Base{ID: id, Text: "x"},
		Subtype:  graph.NodeContentStandard,
		Behavior: &countingBehavior{value: "x"},
	}

	recorder := &fakeHistoryRecorder{}
	rc, err := graph.Compile(&graph.Collection{
		Nodes:  map[graph.ID]*graph.Node{id: n},
		Edges:  map[graph.ID]*graph.Edge{},
		Groups: map[graph.ID]*graph.Group{},
	}, graph.WithHistoryRecorder(recorder))
	require.NoError(t, err)

	reason, err := waitFinish(t, rc)
	require.NoError(t, err)
	assert.Equal(t, graph.FinishComplete, reason)

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	require.Len(t, recorder.records, 1)
	assert.Equal(t, rc.RunID, recorder.records[0].RunID)
	assert.Equal(t, graph.FinishComplete, recorder.records[0].Reason)
}
