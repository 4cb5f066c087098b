package node

import (
	"context"
	"fmt"
	"strings"

	"github.com/cannoliai/cannoli/graph"
)

// ReferenceBehavior drives NodeContentReference nodes: it resolves the
// node's embedded graph.NodeReference against the run's variables, vault,
// floating values, or selection, optionally wraps the result with the
// note's name and link, and loads it onto every outgoing edge
// (spec.md §4.6).
type ReferenceBehavior struct{}

var _ graph.NodeBehavior = (*ReferenceBehavior)(nil)

func (ReferenceBehavior) Reset() {}

func (ReferenceBehavior) Execute(ctx context.Context, rc *graph.RunContext, n *graph.Node) error {
	ref := n.Reference
	if ref == nil {
		return fmt.Errorf("reference node %s: no Reference configured", n.ID)
	}

	switch ref.Kind {
	case graph.ReferenceCreateNote:
		content := rc.ResolveReferences(ctx, n, n.Text)
		if err := rc.CreateNote(ref.Name, content); err != nil {
			return fmt.Errorf("reference node %s: creating note %q: %w", n.ID, ref.Name, err)
		}
		return loadOutgoing(rc, n, decorate(ref, content))
	case graph.ReferenceNote:
		return readNote(rc, n, ref)
	}

	var (
		content string
		ok      bool
	)
	switch ref.Kind {
	case graph.ReferenceVariable:
		content, ok = rc.Variable(n, ref.Name)
	case graph.ReferenceFloating:
		content, ok = rc.Floating(ref.Name)
	case graph.ReferenceSelection:
		content, ok = rc.Selection()
	default:
		return fmt.Errorf("reference node %s: unknown reference kind %q", n.ID, ref.Kind)
	}
	if !ok {
		content = ""
	}
	return loadOutgoing(rc, n, decorate(ref, content))
}

// readNote resolves a ReferenceNote read. Per spec.md §4.9, each
// outgoing edge carries whatever its own modifier asks for — a specific
// property value (property-modifier edge, property key taken from the
// edge's own name), the note's path (folder-modifier edge), the note
// name itself (note-modifier edge), or the note's full body (no
// modifier) — rather than one value loaded identically onto every edge.
func readNote(rc *graph.RunContext, n *graph.Node, ref *graph.NodeReference) error {
	body, bodyOK := rc.Note(ref.Name)
	for _, eid := range n.Outgoing {
		e := rc.Edge(eid)
		if e == nil {
			continue
		}
		var (
			content string
			ok      bool
		)
		switch e.Modifier {
		case graph.ModifierProperty:
			key := e.Name()
			if key == "" {
				key = ref.Subpath
			}
			content, ok = rc.NoteProperty(ref.Name, key)
		case graph.ModifierFolder:
			content, ok = rc.NoteFolder(ref.Name)
		case graph.ModifierNote:
			content, ok = ref.Name, true
		default:
			content, ok = body, bodyOK
		}
		if !ok {
			content = ""
		}
		loadEdge(e, decorate(ref, content))
	}
	return nil
}

func loadOutgoing(rc *graph.RunContext, n *graph.Node, rendered string) error {
	for _, eid := range n.Outgoing {
		e := rc.Edge(eid)
		if e == nil {
			continue
		}
		loadEdge(e, rendered)
	}
	return nil
}

func loadEdge(e *graph.Edge, rendered string) {
	var messages []graph.ChatMessage
	if e.Subtype.CarriesMessages() {
		messages = []graph.ChatMessage{{Role: roleFor(e.Subtype), Content: rendered}}
	}
	e.Load(rendered, messages)
}

// decorate wraps content with the note's name and a markdown link when
// IncludeName/IncludeLink are set, matching how the canvas authoring tool
// embeds a note reference inline (spec.md §4.6). IncludeProps adds no
// property to the output; with only IncludeProps set, content is
// returned unchanged.
func decorate(ref *graph.NodeReference, content string) string {
	if !ref.IncludeName && !ref.IncludeLink && !ref.IncludeProps {
		return content
	}
	var b strings.Builder
	if ref.IncludeName {
		fmt.Fprintf(&b, "# %s\n\n", ref.Name)
	}
	b.WriteString(content)
	if ref.IncludeLink {
		fmt.Fprintf(&b, "\n\n[[%s]]", ref.Name)
	}
	return b.String()
}
