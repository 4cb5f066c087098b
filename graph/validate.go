package graph

// Collection is the raw, classified object set handed to Compile by
// package canvas: every vertex and edge of one canvas, before dependency
// lists are attached.
type Collection struct {
	Nodes  map[ID]*Node
	Edges  map[ID]*Edge
	Groups map[ID]*Group
}

// validate runs every structural check in spec.md §4.1/§4.4 and returns
// the first StructuralError encountered. Checks are ordered cheapest
// first so a malformed canvas fails fast.
func (c *Collection) validate() error {
	if err := c.validateEnclosure(); err != nil {
		return err
	}
	if err := c.validateOverlap(); err != nil {
		return err
	}
	if err := c.validateGroupBoundaries(); err != nil {
		return err
	}
	if err := c.validateOutgoingSubtypes(); err != nil {
		return err
	}
	if err := c.validateGroupOutgoingEdges(); err != nil {
		return err
	}
	if err := c.validateListEdges(); err != nil {
		return err
	}
	if err := c.validateAcyclic(); err != nil {
		return err
	}
	return nil
}

// validateEnclosure requires every group's rectangle to geometrically
// enclose every one of its members (spec.md §4.1).
func (c *Collection) validateEnclosure() error {
	for gid, g := range c.Groups {
		for _, mid := range g.Members {
			var rect Rect
			if n, ok := c.Nodes[mid]; ok {
				rect = n.Rect
			} else if mg, ok := c.Groups[mid]; ok {
				rect = mg.Rect
			} else {
				continue
			}
			if !g.Rect.Encloses(rect) {
				return &StructuralError{Vertex: gid, Err: ErrEnclosureViolation}
			}
		}
	}
	return nil
}

// validateOverlap forbids two groups from overlapping unless one
// encloses the other (spec.md §4.1: ambiguous membership is rejected).
func (c *Collection) validateOverlap() error {
	ids := make([]ID, 0, len(c.Groups))
	for id := range c.Groups {
		ids = append(ids, id)
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := c.Groups[ids[i]], c.Groups[ids[j]]
			if a.Rect.Encloses(b.Rect) || b.Rect.Encloses(a.Rect) {
				continue
			}
			if a.Rect.Overlaps(b.Rect) {
				return &StructuralError{Vertex: ids[i], Err: ErrOverlapViolation}
			}
		}
	}
	return nil
}

// validateGroupBoundaries confirms that the only edges crossing a
// group's boundary are the ones already recorded on the group's
// Incoming/Outgoing lists. An edge that crosses the boundary without
// being declared there means dataflow exited the group and is trying to
// re-enter (or leave) through an undeclared path (spec.md §4.1).
func (c *Collection) validateGroupBoundaries() error {
	for gid, g := range c.Groups {
		inside := c.transitiveMembers(gid)

		declaredIn := make(map[ID]bool, len(g.Incoming))
		for _, eid := range g.Incoming {
			declaredIn[eid] = true
		}
		declaredOut := make(map[ID]bool, len(g.Outgoing))
		for _, eid := range g.Outgoing {
			declaredOut[eid] = true
		}

		for eid, e := range c.Edges {
			if e.Reflexive {
				continue
			}
			srcIn, tgtIn := inside[e.Source], inside[e.Target]
			switch {
			case !srcIn && tgtIn && !declaredIn[eid]:
				return &StructuralError{Vertex: gid, Err: ErrExitAndReenter}
			case srcIn && !tgtIn && !declaredOut[eid]:
				return &StructuralError{Vertex: gid, Err: ErrExitAndReenter}
			}
		}
	}
	return nil
}

// transitiveMembers returns the set of node/group ids enclosed by gid,
// directly or through nested groups.
func (c *Collection) transitiveMembers(gid ID) map[ID]bool {
	seen := map[ID]bool{}
	var walk func(id ID)
	walk = func(id ID) {
		g, ok := c.Groups[id]
		if !ok {
			return
		}
		for _, mid := range g.Members {
			if seen[mid] {
				continue
			}
			seen[mid] = true
			walk(mid)
		}
	}
	walk(gid)
	return seen
}

// outgoingAllowed maps a node subtype to the edge subtypes it may emit.
// A node never listed here permits any outgoing subtype (e.g. Content
// nodes, whose single outgoing edge just carries their text forward).
var outgoingAllowed = map[NodeSubtype]map[EdgeSubtype]bool{
	NodeCallChoose: {
		EdgeChoice:   true,
		EdgeCategory: true,
		EdgeLogging:  true,
	},
	NodeCallForm: {
		EdgeField:   true,
		EdgeLogging: true,
	},
	NodeCallStandard: {
		EdgeChat:         true,
		EdgeChatResponse: true,
		EdgeLogging:      true,
	},
	NodeCallAccumulate: {
		EdgeChat:         true,
		EdgeChatResponse: true,
		EdgeLogging:      true,
	},
}

// validateOutgoingSubtypes enforces that a node only emits edge subtypes
// its behavior is capable of producing (spec.md §4.5/§4.7).
func (c *Collection) validateOutgoingSubtypes() error {
	for nid, n := range c.Nodes {
		allowed, restricted := outgoingAllowed[n.Subtype]
		if !restricted {
			continue
		}
		for _, eid := range n.Outgoing {
			e, ok := c.Edges[eid]
			if !ok {
				continue
			}
			if !allowed[e.Subtype] {
				return &StructuralError{Vertex: nid, Err: ErrIllegalOutgoingEdge}
			}
		}
	}
	return nil
}

// validateGroupOutgoingEdges enforces the invariant that a group may only
// emit List-subtype edges (spec.md §4: "Groups may only have outgoing
// edges of the list subtype") — a group's outgoing dataflow is always its
// accumulated iteration results, never an arbitrary per-member payload.
func (c *Collection) validateGroupOutgoingEdges() error {
	for gid, g := range c.Groups {
		for _, eid := range g.Outgoing {
			e, ok := c.Edges[eid]
			if !ok {
				continue
			}
			if e.Subtype != EdgeList {
				return &StructuralError{Vertex: gid, Err: ErrIllegalGroupEdge}
			}
		}
	}
	return nil
}

// validateListEdges forbids a node from having more than one incoming
// List-subtype edge, since a List edge fully determines a ForEach
// group's item set and two would be ambiguous (spec.md §4.6).
func (c *Collection) validateListEdges() error {
	for nid, n := range c.Nodes {
		count := 0
		for _, eid := range n.Incoming {
			if e, ok := c.Edges[eid]; ok && e.Subtype == EdgeList {
				count++
			}
		}
		if count > 1 {
			return &StructuralError{Vertex: nid, Err: ErrMultipleListEdges}
		}
	}
	for gid, g := range c.Groups {
		count := 0
		for _, eid := range g.Incoming {
			if e, ok := c.Edges[eid]; ok && e.Subtype == EdgeList {
				count++
			}
		}
		if count > 1 {
			return &StructuralError{Vertex: gid, Err: ErrMultipleListEdges}
		}
	}
	return nil
}

type dfsColor int

const (
	white dfsColor = iota
	gray
	black
)

// validateAcyclic runs a three-color DFS over the non-reflexive edge
// graph. Reflexive edges model a group's own loop feedback and are
// intentionally excluded: iteration is driven by the group controller,
// not by a literal cycle in the dataflow graph (spec.md §4.6).
func (c *Collection) validateAcyclic() error {
	adj := map[ID][]ID{}
	for _, e := range c.Edges {
		if e.Reflexive {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
	}

	color := map[ID]dfsColor{}
	var cycleAt ID
	var visit func(id ID) bool
	visit = func(id ID) bool {
		color[id] = gray
		for _, next := range adj[id] {
			switch color[next] {
			case gray:
				cycleAt = next
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	for id := range c.Nodes {
		if color[id] == white {
			if visit(id) {
				return &StructuralError{Vertex: cycleAt, Err: ErrCycleDetected}
			}
		}
	}
	for id := range c.Groups {
		if color[id] == white {
			if visit(id) {
				return &StructuralError{Vertex: cycleAt, Err: ErrCycleDetected}
			}
		}
	}
	return nil
}
