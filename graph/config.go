package graph

import "fmt"

// configKeys lists every setting a Call node's Config may carry
// (spec.md §4.4). A key outside this set is a structural error returned
// by ConfigFor when the node resolves its config at run time, rather
// than silently ignored.
var configKeys = map[string]bool{
	"model":         true,
	"provider":      true,
	"temperature":   true,
	"top_p":         true,
	"max_tokens":    true,
	"stop":          true,
	"stream":        true,
	"system":        true,
	"frequency_penalty": true,
	"presence_penalty":   true,
}

// ConfigFor resolves n's effective configuration: enclosing groups'
// Config maps are applied outermost-first, then the node's own Config,
// then any loaded Config-subtype incoming edge (the most specific
// override, since it is set at run time rather than canvas-authoring
// time). Unknown keys anywhere in the chain are rejected (spec.md §4.4).
func (rc *RunContext) ConfigFor(n *Node) (map[string]string, error) {
	resolved := map[string]string{}

	for i := len(n.Enclosing) - 1; i >= 0; i-- {
		g := rc.coll.Groups[n.Enclosing[i]]
		if g == nil {
			continue
		}
		for k, v := range g.Config {
			resolved[k] = v
		}
	}
	for k, v := range n.Config {
		resolved[k] = v
	}

	for _, eid := range n.Incoming {
		e := rc.coll.Edges[eid]
		if e == nil || e.Subtype != EdgeConfig || !e.Loaded() {
			continue
		}
		if m := e.ContentMap(); m != nil {
			for k, v := range m {
				resolved[k] = v
			}
		} else if s := e.ContentString(); s != "" && e.Name() != "" {
			resolved[e.Name()] = s
		}
	}

	for k := range resolved {
		if !configKeys[k] {
			return nil, &StructuralError{Vertex: n.ID, Err: fmt.Errorf("%w: %q", ErrUnknownConfigKey, k)}
		}
	}
	return resolved, nil
}
