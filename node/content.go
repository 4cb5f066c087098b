package node

import (
	"context"

	"github.com/cannoliai/cannoli/graph"
)

// ContentBehavior handles NodeContentStandard and NodeContentFormatter
// alike: if any incoming Write/Logging/ChatResponse edge is loaded, its
// payload becomes the node's new text; otherwise the node's own text is
// resolved against incoming variables and the active loop/note context
// (spec.md §4.9). Either way the result is loaded onto every outgoing
// edge. A Formatter node differs from a plain Content node only in that
// its authors lean on {{name}} tokens more heavily; the substitution
// pipeline does not distinguish them.
type ContentBehavior struct{}

var _ graph.NodeBehavior = (*ContentBehavior)(nil)

func (ContentBehavior) Reset() {}

func (ContentBehavior) Execute(ctx context.Context, rc *graph.RunContext, n *graph.Node) error {
	resolved, ok := adoptedText(rc, n)
	if !ok {
		resolved = rc.ResolveReferences(ctx, n, n.Text)
	}
	for _, eid := range n.Outgoing {
		e := rc.Edge(eid)
		if e == nil {
			continue
		}
		var messages []graph.ChatMessage
		if e.Subtype.CarriesMessages() {
			messages = []graph.ChatMessage{{Role: roleFor(e.Subtype), Content: resolved}}
		}
		e.Load(resolved, messages)
	}
	return nil
}

// adoptedText reports the payload of n's first loaded incoming
// Write/Logging/ChatResponse edge, if any — the transcript/edit source a
// standard content node adopts in place of rendering its own text.
func adoptedText(rc *graph.RunContext, n *graph.Node) (string, bool) {
	for _, eid := range n.Incoming {
		e := rc.Edge(eid)
		if e == nil || !e.Loaded() {
			continue
		}
		switch e.Subtype {
		case graph.EdgeWrite, graph.EdgeLogging, graph.EdgeChatResponse:
			return e.ContentString(), true
		}
	}
	return "", false
}
