package canvas

import (
	"fmt"

	"github.com/cannoliai/cannoli/graph"
)

// expandForEach resolves every GroupForEach group into Versions physical
// clones of its member subgraph, suffixing each clone's ids with
// "#<version>". This is the compile-time expansion graph/group.go's
// driveGroup relies on instead of a runtime redrive: by the time
// graph.Compile sees the collection, a ForEach group's iterations are
// already separate vertices the ordinary scheduler drives in parallel.
func expandForEach(coll *graph.Collection) *graph.Collection {
	var forEachIDs []graph.ID
	for id, g := range coll.Groups {
		if g.Subtype == graph.GroupForEach {
			forEachIDs = append(forEachIDs, id)
		}
	}
	for _, gid := range forEachIDs {
		g := coll.Groups[gid]
		versions := g.Versions
		if versions < 1 {
			versions = 1
		}
		members := transitiveSubgraph(coll, gid)
		for v := 1; v < versions; v++ {
			cloneSubgraph(coll, members, v)
		}
		g.Versions = versions
	}
	return coll
}

// transitiveSubgraph collects every node/group/edge wholly inside gid
// (the original, not-yet-cloned member set), plus gid itself.
func transitiveSubgraph(coll *graph.Collection, gid graph.ID) map[graph.ID]bool {
	inside := map[graph.ID]bool{gid: true}
	var walk func(id graph.ID)
	walk = func(id graph.ID) {
		g, ok := coll.Groups[id]
		if !ok {
			return
		}
		for _, mid := range g.Members {
			if inside[mid] {
				continue
			}
			inside[mid] = true
			walk(mid)
		}
	}
	walk(gid)
	return inside
}

// cloneSubgraph builds fresh copies of every vertex/edge in members,
// retargeting internal references to the clone's own ids. Clone v is
// version v (1-based); version 0 is the group already present in coll.
// Fresh struct literals are built (rather than dereferencing the
// originals) so the clones start with their own zero-valued, unlocked
// status machinery instead of sharing the originals' internal mutexes.
func cloneSubgraph(coll *graph.Collection, members map[graph.ID]bool, version int) {
	remap := map[graph.ID]graph.ID{}
	for id := range members {
		remap[id] = graph.ID(fmt.Sprintf("%s#%d", id, version))
	}

	for id := range members {
		if n, ok := coll.Nodes[id]; ok {
			coll.Nodes[remap[id]] = &graph.Node{
				Base:          graph.Base{ID: remap[id], Text: n.Text, Kind: n.Kind},
				Rect:          n.Rect,
				Incoming:      remapIDs(n.Incoming, remap),
				Outgoing:      remapIDs(n.Outgoing, remap),
				Enclosing:     remapIDs(n.Enclosing, remap),
				Subtype:       n.Subtype,
				Behavior:      n.Behavior,
				Config:        n.Config,
				Reference:     n.Reference,
				FloatingName:  n.FloatingName,
				FloatingValue: n.FloatingValue,
			}
		}
		if g, ok := coll.Groups[id]; ok {
			coll.Groups[remap[id]] = &graph.Group{
				Base:        graph.Base{ID: remap[id], Text: g.Text, Kind: g.Kind},
				Rect:        g.Rect,
				Incoming:    remapIDs(g.Incoming, remap),
				Outgoing:    remapIDs(g.Outgoing, remap),
				Enclosing:   remapIDs(g.Enclosing, remap),
				Members:     remapIDs(g.Members, remap),
				Subtype:     g.Subtype,
				Config:      g.Config,
				MaxLoops:    g.MaxLoops,
				CurrentLoop: 0,
				Versions:    g.Versions,
			}
		}
	}

	for eid, e := range coll.Edges {
		srcIn, tgtIn := members[e.Source], members[e.Target]
		if !srcIn && !tgtIn {
			continue
		}
		src, tgt := e.Source, e.Target
		if srcIn {
			src = remap[e.Source]
		}
		if tgtIn {
			tgt = remap[e.Target]
		}
		cloneID := graph.ID(fmt.Sprintf("%s#%d", eid, version))
		coll.Edges[cloneID] = &graph.Edge{
			Base:        graph.Base{ID: cloneID, Text: e.Text, Kind: e.Kind},
			Source:      src,
			Target:      tgt,
			CrossingIn:  remapIDs(e.CrossingIn, remap),
			CrossingOut: remapIDs(e.CrossingOut, remap),
			Reflexive:   e.Reflexive,
			Subtype:     e.Subtype,
			Modifier:    e.Modifier,
			AddMessages: e.AddMessages,
		}
	}
}

func remapIDs(ids []graph.ID, remap map[graph.ID]graph.ID) []graph.ID {
	out := make([]graph.ID, len(ids))
	for i, id := range ids {
		if r, ok := remap[id]; ok {
			out[i] = r
		} else {
			out[i] = id
		}
	}
	return out
}
