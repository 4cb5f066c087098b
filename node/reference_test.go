package node_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cannoliai/cannoli/graph"
	"github.com/cannoliai/cannoli/node"
	"github.com/cannoliai/cannoli/vault"
)

func TestReferenceBehaviorNoteResolvesViaVault(t *testing.T) {
	v := vault.NewMemoryVault()
	v.AddNote(&vault.Note{Name: "Plan", Body: "# Plan\n\nShip it."})

	nodeID, outID := graph.ID("n1"), graph.ID("eout")
	out := &graph.Edge{Base: graph.Base{ID: outID}, Source: nodeID}
	n := &graph.Node{
		Base:      graph.Base{ID: nodeID},
		Subtype:   graph.NodeContentReference,
		Outgoing:  []graph.ID{outID},
		Reference: &graph.NodeReference{Name: "Plan", Kind: graph.ReferenceNote},
	}

	rc, err := graph.Compile(&graph.Collection{
		Nodes:  map[graph.ID]*graph.Node{nodeID: n},
		Edges:  map[graph.ID]*graph.Edge{outID: out},
		Groups: map[graph.ID]*graph.Group{},
	}, graph.WithVault(v))
	require.NoError(t, err)

	require.NoError(t, node.ReferenceBehavior{}.Execute(context.Background(), rc, n))

	assert.Contains(t, out.ContentString(), "Ship it.")
}

func TestReferenceBehaviorCreateNoteWritesToVault(t *testing.T) {
	v := vault.NewMemoryVault()
	nodeID, outID := graph.ID("n1"), graph.ID("eout")
	out := &graph.Edge{Base: graph.Base{ID: outID}, Source: nodeID}
	n := &graph.Node{
		Base:      graph.Base{ID: nodeID, Text: "Generated content"},
		Subtype:   graph.NodeContentReference,
		Outgoing:  []graph.ID{outID},
		Reference: &graph.NodeReference{Name: "NewNote", Kind: graph.ReferenceCreateNote},
	}

	rc, err := graph.Compile(&graph.Collection{
		Nodes:  map[graph.ID]*graph.Node{nodeID: n},
		Edges:  map[graph.ID]*graph.Edge{outID: out},
		Groups: map[graph.ID]*graph.Group{},
	}, graph.WithVault(v))
	require.NoError(t, err)

	require.NoError(t, node.ReferenceBehavior{}.Execute(context.Background(), rc, n))

	got, ok := v.Note("NewNote")
	require.True(t, ok)
	assert.Equal(t, "Generated content", got)
}

func TestReferenceBehaviorReadDispatchesPerOutgoingModifier(t *testing.T) {
	v := vault.NewMemoryVault()
	v.AddNote(&vault.Note{
		Name:       "Plan",
		Folder:     "projects/cannoli",
		Properties: map[string]string{"status": "in-progress"},
		Body:       "# Plan\n\nShip it.",
	})

	nodeID := graph.ID("n1")
	bodyID, propID, folderID, noteID := graph.ID("ebody"), graph.ID("eprop"), graph.ID("efolder"), graph.ID("enote")

	body := &graph.Edge{Base: graph.Base{ID: bodyID}, Source: nodeID}
	prop := &graph.Edge{Base: graph.Base{ID: propID, Text: "status"}, Source: nodeID, Modifier: graph.ModifierProperty}
	folder := &graph.Edge{Base: graph.Base{ID: folderID}, Source: nodeID, Modifier: graph.ModifierFolder}
	note := &graph.Edge{Base: graph.Base{ID: noteID}, Source: nodeID, Modifier: graph.ModifierNote}

	n := &graph.Node{
		Base:      graph.Base{ID: nodeID},
		Subtype:   graph.NodeContentReference,
		Outgoing:  []graph.ID{bodyID, propID, folderID, noteID},
		Reference: &graph.NodeReference{Name: "Plan", Kind: graph.ReferenceNote},
	}

	rc, err := graph.Compile(&graph.Collection{
		Nodes:  map[graph.ID]*graph.Node{nodeID: n},
		Edges:  map[graph.ID]*graph.Edge{bodyID: body, propID: prop, folderID: folder, noteID: note},
		Groups: map[graph.ID]*graph.Group{},
	}, graph.WithVault(v))
	require.NoError(t, err)

	require.NoError(t, node.ReferenceBehavior{}.Execute(context.Background(), rc, n))

	assert.Contains(t, body.ContentString(), "Ship it.")
	assert.Equal(t, "in-progress", prop.ContentString())
	assert.Equal(t, "projects/cannoli", folder.ContentString())
	assert.Equal(t, "Plan", note.ContentString())
}

func TestReferenceBehaviorSelectionResolvesFromCompileOption(t *testing.T) {
	nodeID, outID := graph.ID("n1"), graph.ID("eout")
	out := &graph.Edge{Base: graph.Base{ID: outID}, Source: nodeID}
	n := &graph.Node{
		Base:      graph.Base{ID: nodeID},
		Subtype:   graph.NodeContentReference,
		Outgoing:  []graph.ID{outID},
		Reference: &graph.NodeReference{Kind: graph.ReferenceSelection},
	}

	rc, err := graph.Compile(&graph.Collection{
		Nodes:  map[graph.ID]*graph.Node{nodeID: n},
		Edges:  map[graph.ID]*graph.Edge{outID: out},
		Groups: map[graph.ID]*graph.Group{},
	}, graph.WithSelection("highlighted text"))
	require.NoError(t, err)

	require.NoError(t, node.ReferenceBehavior{}.Execute(context.Background(), rc, n))

	assert.Equal(t, "highlighted text", out.ContentString())
}
