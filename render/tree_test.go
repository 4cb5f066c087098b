package render_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cannoliai/cannoli/graph"
	"github.com/cannoliai/cannoli/render"
)

type loadingBehavior struct{ value string }

func (loadingBehavior) Reset() {}

func (b loadingBehavior) Execute(_ context.Context, rc *graph.RunContext, n *graph.Node) error {
	for _, eid := range n.Outgoing {
		if e := rc.Edge(eid); e != nil {
			e.Load(b.value, nil)
		}
	}
	return nil
}

func TestStatusTreeRendersEveryVertexReachedFromARoot(t *testing.T) {
	src, dst := graph.ID("src"), graph.ID("dst")
	edgeID := graph.ID("e1")

	edge := &graph.Edge{Base: graph.Base{ID: edgeID, Text: "topic"}, Source: src, Target: dst, Subtype: graph.EdgeVariable}
	srcNode := &graph.Node{Base: graph.Base{ID: src, Text: "weather report"}, Subtype: graph.NodeContentStandard, Outgoing: []graph.ID{edgeID}, Behavior: loadingBehavior{value: "sunny"}}
	dstNode := &graph.Node{Base: graph.Base{ID: dst, Text: "{{topic}}"}, Subtype: graph.NodeContentStandard, Incoming: []graph.ID{edgeID}, Behavior: loadingBehavior{value: "done"}}

	coll := &graph.Collection{
		Nodes:  map[graph.ID]*graph.Node{src: srcNode, dst: dstNode},
		Edges:  map[graph.ID]*graph.Edge{edgeID: edge},
		Groups: map[graph.ID]*graph.Group{},
	}
	rc, err := graph.Compile(coll)
	require.NoError(t, err)

	done := make(chan struct{})
	rc.Start(context.Background(), func(graph.FinishReason, error) { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish in time")
	}

	out := render.StatusTree(coll, rc)
	assert.Contains(t, out, "weather report")
	assert.Contains(t, out, "{{topic}}")
	assert.Contains(t, out, string(graph.StatusComplete))
	assert.NotContains(t, out, "Unreached by the tree walk")
}
