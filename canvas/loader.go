package canvas

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cannoliai/cannoli/graph"
)

// Loader is the narrow boundary spec.md §1 leaves external: something
// that hands Cannoli a graph.Collection, regardless of where the canvas
// actually lives (file, database, in-memory fixture).
type Loader interface {
	Load() (*graph.Collection, error)
}

// JSONLoader reads a RawCanvas and classifies it into a graph.Collection
// (spec.md §4.1's two-pass type decision), including compile-time
// ForEach(K) clone expansion (see graph/group.go's driveGroup: ForEach is
// resolved as K physical clones, not a runtime redrive).
type JSONLoader struct {
	raw RawCanvas
}

var _ Loader = (*JSONLoader)(nil)

// NewJSONLoader decodes r as a RawCanvas.
func NewJSONLoader(r io.Reader) (*JSONLoader, error) {
	var raw RawCanvas
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("canvas: decoding fixture: %w", err)
	}
	return &JSONLoader{raw: raw}, nil
}

// NewJSONLoaderFromCanvas wraps an already-decoded RawCanvas, for tests
// that build fixtures as Go literals instead of JSON text.
func NewJSONLoaderFromCanvas(raw RawCanvas) *JSONLoader {
	return &JSONLoader{raw: raw}
}

type built struct {
	nodes     map[graph.ID]*graph.Node
	groups    map[graph.ID]*graph.Group
	edges     map[graph.ID]*graph.Edge
	rawNodeOf map[graph.ID]RawNode
}

func (l *JSONLoader) Load() (*graph.Collection, error) {
	b := &built{
		nodes:     map[graph.ID]*graph.Node{},
		groups:    map[graph.ID]*graph.Group{},
		edges:     map[graph.ID]*graph.Edge{},
		rawNodeOf: map[graph.ID]RawNode{},
	}

	for _, rn := range l.raw.Nodes {
		id := graph.ID(rn.ID)
		b.rawNodeOf[id] = rn
		rect := graph.Rect{X: rn.X, Y: rn.Y, W: rn.Width, H: rn.Height}
		it := classifyIndicated(rn.Text, rn.Color)

		if rn.Type == "group" {
			gt, err := finalGroupType(it)
			if err != nil {
				return nil, &graph.StructuralError{Vertex: id, Err: err}
			}
			g := &graph.Group{
				Base:    graph.Base{ID: id, Text: rn.Text, Kind: graph.KindGroup},
				Rect:    rect,
				Subtype: gt,
			}
			if n, ok := labelNumber(rn.Text); ok {
				g.MaxLoops = n
				g.Versions = n
			}
			b.groups[id] = g
			continue
		}

		nt, err := finalNodeType(it)
		if err != nil {
			return nil, &graph.StructuralError{Vertex: id, Err: err}
		}
		n := &graph.Node{
			Base:    graph.Base{ID: id, Text: rn.Text, Kind: graph.KindNode},
			Rect:    rect,
			Subtype: nt,
		}
		if nt == graph.NodeFloating {
			name, value, _ := strings.Cut(rn.Text, ":")
			n.FloatingName = strings.TrimSpace(name)
			n.FloatingValue = strings.TrimSpace(value)
		}
		if nt == graph.NodeContentReference {
			n.Reference = &graph.NodeReference{Name: strings.TrimSpace(rn.Text), Kind: graph.ReferenceNote, ShouldExtract: true}
		}
		b.nodes[id] = n
	}

	assignEnclosing(b)

	for _, re := range l.raw.Edges {
		id := graph.ID(re.ID)
		src, tgt := graph.ID(re.FromNode), graph.ID(re.ToNode)

		srcGroup, srcIsGroup := b.groups[src]
		_ = srcGroup
		var srcNodeSubtype graph.NodeSubtype
		if sn, ok := b.nodes[src]; ok {
			srcNodeSubtype = sn.Subtype
		}

		label := re.Label
		subtype := classifyEdge(label, srcIsGroup, srcNodeSubtype)
		name := label
		if label != "" {
			if _, ok := edgePrefixMap[label[0]]; ok {
				name = label[1:]
			}
		}

		e := &graph.Edge{
			Base:    graph.Base{ID: id, Text: name, Kind: graph.KindEdge},
			Source:  src,
			Target:  tgt,
			Subtype: subtype,
		}
		e.Reflexive = enclosingSetsEqual(enclosingOf(b, src), enclosingOf(b, tgt))
		b.edges[id] = e

		attachEdge(b, id, e)
	}

	coll := &graph.Collection{Nodes: b.nodes, Edges: b.edges, Groups: b.groups}
	return expandForEach(coll), nil
}

// assignEnclosing computes each node/group's Enclosing list (innermost
// first) by geometric containment, and each group's Members list (direct
// children only, innermost owner wins).
func assignEnclosing(b *built) {
	type vertex struct {
		id   graph.ID
		rect graph.Rect
	}
	var vertices []vertex
	for id, n := range b.nodes {
		vertices = append(vertices, vertex{id, n.Rect})
	}
	for id, g := range b.groups {
		vertices = append(vertices, vertex{id, g.Rect})
	}

	groupIDs := make([]graph.ID, 0, len(b.groups))
	for id := range b.groups {
		groupIDs = append(groupIDs, id)
	}

	for _, v := range vertices {
		var enclosing []graph.ID
		for _, gid := range groupIDs {
			if gid == v.id {
				continue
			}
			if b.groups[gid].Rect.Encloses(v.rect) {
				enclosing = append(enclosing, gid)
			}
		}
		sort.Slice(enclosing, func(i, j int) bool {
			return area(b.groups[enclosing[i]].Rect) < area(b.groups[enclosing[j]].Rect)
		})
		if n, ok := b.nodes[v.id]; ok {
			n.Enclosing = enclosing
		} else if g, ok := b.groups[v.id]; ok {
			g.Enclosing = enclosing
		}
		if len(enclosing) > 0 {
			innermost := b.groups[enclosing[0]]
			innermost.Members = append(innermost.Members, v.id)
		}
	}
}

func area(r graph.Rect) float64 { return r.W * r.H }

func enclosingOf(b *built, id graph.ID) []graph.ID {
	if n, ok := b.nodes[id]; ok {
		return n.Enclosing
	}
	if g, ok := b.groups[id]; ok {
		return g.Enclosing
	}
	return nil
}

func enclosingSetsEqual(a, b []graph.ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// attachEdge records id on the source's Outgoing and target's Incoming,
// plus every crossed group's declared Incoming/Outgoing so
// validateGroupBoundaries accepts the crossing (spec.md §4.1).
func attachEdge(b *built, id graph.ID, e *graph.Edge) {
	srcEnclosing := enclosingOf(b, e.Source)
	tgtEnclosing := enclosingOf(b, e.Target)

	if n, ok := b.nodes[e.Source]; ok {
		n.Outgoing = append(n.Outgoing, id)
	} else if g, ok := b.groups[e.Source]; ok {
		g.Outgoing = append(g.Outgoing, id)
	}
	if n, ok := b.nodes[e.Target]; ok {
		n.Incoming = append(n.Incoming, id)
	} else if g, ok := b.groups[e.Target]; ok {
		g.Incoming = append(g.Incoming, id)
	}

	srcSet := idSet(srcEnclosing)
	for _, gid := range tgtEnclosing {
		if !srcSet[gid] {
			g := b.groups[gid]
			g.Incoming = append(g.Incoming, id)
			e.CrossingIn = append(e.CrossingIn, gid)
		}
	}
	tgtSet := idSet(tgtEnclosing)
	for _, gid := range srcEnclosing {
		if !tgtSet[gid] {
			g := b.groups[gid]
			g.Outgoing = append(g.Outgoing, id)
			e.CrossingOut = append(e.CrossingOut, gid)
		}
	}
}

func idSet(ids []graph.ID) map[graph.ID]bool {
	m := make(map[graph.ID]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
