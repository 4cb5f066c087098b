package graph

import "context"

// NodeBehavior is the pluggable execution contract a Node's concrete
// subtype implements (package node). Execute runs when the node
// transitions Pending→Executing; it must respect ctx cancellation at
// every suspension point (LLM call, HTTP call, vault read/write) per
// spec.md §5. A nil error means the node completes; a returned error
// becomes the node's terminal StatusError and stops the run (spec.md §7).
type NodeBehavior interface {
	Execute(ctx context.Context, rc *RunContext, n *Node) error

	// Reset returns any internal behavior state to what it was before
	// Execute ran, called when an enclosing Repeat/While group re-drives
	// its members (spec.md §4.6).
	Reset()
}

// Node is a vertex that performs work.
type Node struct {
	Base

	Rect      Rect
	Incoming  []ID // edge ids
	Outgoing  []ID
	Enclosing []ID // group ids, innermost first

	Subtype  NodeSubtype
	Behavior NodeBehavior

	// Config holds this node's own key/value settings, as set on the Node
	// when the Collection is built (spec.md §4.4). Resolution against
	// enclosing groups and incoming Config edges happens at run time via
	// RunContext.ConfigFor.
	Config map[string]string

	// Reference is populated for NodeContentReference nodes.
	Reference *NodeReference

	// FloatingValue holds a Floating node's constant text, already
	// resolved at graph-construction time (spec.md §4.9): Floating nodes
	// are Complete from the moment they're built.
	FloatingName  string
	FloatingValue string
}

var _ Object = (*Node)(nil)

// Group is a vertex that encloses other vertices and controls iteration.
type Group struct {
	Base

	Rect      Rect
	Incoming  []ID
	Outgoing  []ID
	Enclosing []ID

	Members []ID
	Subtype GroupSubtype

	// Config holds this group's own key/value settings, inherited by
	// every enclosed vertex unless overridden closer in (spec.md §4.4).
	Config map[string]string

	MaxLoops    int // Repeat/While label
	CurrentLoop int // 0-based
	Versions    int // ForEach clone count K

	// execCount counts how many times the group was launched into
	// Executing. Nothing reads it; tests count transitions via a Listener.
	execCount int
}

var _ Object = (*Group)(nil)
