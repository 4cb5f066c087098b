package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cannoliai/cannoli/graph"
)

type fakeVault struct {
	notes map[string]string
}

func (v *fakeVault) Note(name string) (string, bool) {
	body, ok := v.notes[name]
	return body, ok
}
func (v *fakeVault) NoteProperty(string, string) (string, bool) { return "", false }
func (v *fakeVault) NoteFolder(string) (string, bool)            { return "", false }
func (v *fakeVault) CreateNote(name, content string) error {
	v.notes[name] = content
	return nil
}

// TestReferenceTokenAtNameResolvesVariableAsNoteName verifies spec.md
// §4.8: `{{@name}}` treats the named variable's resolved value as a
// note name and extracts that note, not a Floating-node lookup.
func TestReferenceTokenAtNameResolvesVariableAsNoteName(t *testing.T) {
	v := &fakeVault{notes: map[string]string{"Plan": "Ship it."}}

	nodeID, varID := graph.ID("n1"), graph.ID("evar")
	varEdge := &graph.Edge{Base: graph.Base{ID: varID, Text: "target"}, Target: nodeID, Subtype: graph.EdgeVariable}
	varEdge.Load("Plan", nil)

	n := &graph.Node{
		Base:     graph.Base{ID: nodeID, Text: "{{@target}}"},
		Subtype:  graph.NodeContentStandard,
		Incoming: []graph.ID{varID},
	}

	rc, err := graph.Compile(&graph.Collection{
		Nodes:  map[graph.ID]*graph.Node{nodeID: n},
		Edges:  map[graph.ID]*graph.Edge{varID: varEdge},
		Groups: map[graph.ID]*graph.Group{},
	}, graph.WithVault(v))
	require.NoError(t, err)

	assert.Equal(t, "Ship it.", rc.ResolveReferences(context.Background(), n, n.Text))
}

// TestReferenceTokenBracketNameResolvesFloatingNode verifies spec.md
// §4.8: `{{[Name]}}` extracts a Floating (named-constant) node's value,
// not a vault lookup.
func TestReferenceTokenBracketNameResolvesFloatingNode(t *testing.T) {
	floatID, nodeID := graph.ID("f1"), graph.ID("n1")
	floating := &graph.Node{
		Base:          graph.Base{ID: floatID},
		Subtype:       graph.NodeFloating,
		FloatingName:  "Greeting",
		FloatingValue: "hello there",
	}
	n := &graph.Node{
		Base:    graph.Base{ID: nodeID, Text: "{{[Greeting]}}"},
		Subtype: graph.NodeContentStandard,
	}

	rc, err := graph.Compile(&graph.Collection{
		Nodes:  map[graph.ID]*graph.Node{nodeID: n, floatID: floating},
		Edges:  map[graph.ID]*graph.Edge{},
		Groups: map[graph.ID]*graph.Group{},
	})
	require.NoError(t, err)

	assert.Equal(t, "hello there", rc.ResolveReferences(context.Background(), n, n.Text))
}

// TestReferenceTokenDoubleBracketReadsNoteBody verifies the
// `{{[[NoteName]]}}` form still reads the vault directly, unaffected by
// the {{@name}}/{{[Name]}} fix.
func TestReferenceTokenDoubleBracketReadsNoteBody(t *testing.T) {
	v := &fakeVault{notes: map[string]string{"Plan": "Ship it."}}
	nodeID := graph.ID("n1")
	n := &graph.Node{
		Base:    graph.Base{ID: nodeID, Text: "{{[[Plan]]}}"},
		Subtype: graph.NodeContentStandard,
	}

	rc, err := graph.Compile(&graph.Collection{
		Nodes:  map[graph.ID]*graph.Node{nodeID: n},
		Edges:  map[graph.ID]*graph.Edge{},
		Groups: map[graph.ID]*graph.Group{},
	}, graph.WithVault(v))
	require.NoError(t, err)

	assert.Equal(t, "Ship it.", rc.ResolveReferences(context.Background(), n, n.Text))
}
