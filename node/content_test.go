package node_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cannoliai/cannoli/graph"
	"github.com/cannoliai/cannoli/node"
)

func TestContentBehaviorResolvesVariablesAndLoadsOutgoing(t *testing.T) {
	nodeID := graph.ID("n1")
	inID, outID := graph.ID("ein"), graph.ID("eout")

	in := &graph.Edge{Base: graph.Base{ID: inID, Text: "city"}, Target: nodeID, Subtype: graph.EdgeChat}
	in.Load("Lisbon", nil)
	out := &graph.Edge{Base: graph.Base{ID: outID}, Source: nodeID}

	n := &graph.Node{
		Base:     graph.Base{ID: nodeID, Text: "The city is {{city}}."},
		Subtype:  graph.NodeContentStandard,
		Incoming: []graph.ID{inID},
		Outgoing: []graph.ID{outID},
	}

	rc, err := graph.Compile(&graph.Collection{
		Nodes:  map[graph.ID]*graph.Node{nodeID: n},
		Edges:  map[graph.ID]*graph.Edge{inID: in, outID: out},
		Groups: map[graph.ID]*graph.Group{},
	})
	require.NoError(t, err)

	require.NoError(t, node.ContentBehavior{}.Execute(context.Background(), rc, n))

	assert.Equal(t, "The city is Lisbon.", out.ContentString())
}

func TestContentBehaviorAdoptsLoggingEdgePayloadOverOwnText(t *testing.T) {
	nodeID := graph.ID("n1")
	logID, outID := graph.ID("elog"), graph.ID("eout")

	logEdge := &graph.Edge{Base: graph.Base{ID: logID}, Target: nodeID, Subtype: graph.EdgeLogging}
	logEdge.Load("transcript so far...", nil)
	out := &graph.Edge{Base: graph.Base{ID: outID}, Source: nodeID}

	n := &graph.Node{
		Base:     graph.Base{ID: nodeID, Text: "this text should be ignored"},
		Subtype:  graph.NodeContentStandard,
		Incoming: []graph.ID{logID},
		Outgoing: []graph.ID{outID},
	}

	rc, err := graph.Compile(&graph.Collection{
		Nodes:  map[graph.ID]*graph.Node{nodeID: n},
		Edges:  map[graph.ID]*graph.Edge{logID: logEdge, outID: out},
		Groups: map[graph.ID]*graph.Group{},
	})
	require.NoError(t, err)

	require.NoError(t, node.ContentBehavior{}.Execute(context.Background(), rc, n))

	assert.Equal(t, "transcript so far...", out.ContentString())
}
