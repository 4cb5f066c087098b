package node

import (
	"context"
	"strings"

	"github.com/cannoliai/cannoli/graph"
	"github.com/cannoliai/cannoli/httpcap"
)

// HTTPBehavior drives NodeContentHTTP nodes: the node's resolved text
// names a template, or — when a Floating node carries that name —
// that node's value is the template name instead. The body is
// assembled from loaded incoming edges as either a single string (one
// unnamed edge) or a name→value map (named edges), then handed to the
// executeTemplate capability for {{var}} interpolation (spec.md §4.9,
// §6). The interpolated result is loaded onto every outgoing edge.
type HTTPBehavior struct {
	Executor httpcap.TemplateExecutor
}

var _ graph.NodeBehavior = (*HTTPBehavior)(nil)

func (HTTPBehavior) Reset() {}

func (b HTTPBehavior) Execute(ctx context.Context, rc *graph.RunContext, n *graph.Node) error {
	template := strings.TrimSpace(rc.ResolveReferences(ctx, n, n.Text))
	if floating, ok := rc.Floating(template); ok {
		template = strings.TrimSpace(floating)
	}

	result, err := b.Executor.ExecuteTemplate(ctx, template, requestBody(n, rc))
	if err != nil {
		return err
	}

	for _, eid := range n.Outgoing {
		e := rc.Edge(eid)
		if e == nil {
			continue
		}
		loadEdge(e, result)
	}
	return nil
}

// requestBody assembles an HTTP node's template body from its loaded
// incoming edges: a single unnamed edge contributes a plain string; any
// named edge contributes a name→value map entry. A node with no loaded
// incoming edges has no body (nil).
func requestBody(n *graph.Node, rc *graph.RunContext) any {
	named := map[string]string{}
	var plain string
	var loaded bool
	for _, eid := range n.Incoming {
		e := rc.Edge(eid)
		if e == nil || !e.Loaded() {
			continue
		}
		loaded = true
		if name := e.Name(); name != "" {
			named[name] = e.ContentString()
			continue
		}
		plain = e.ContentString()
	}
	if !loaded {
		return nil
	}
	if len(named) == 0 {
		return plain
	}
	return named
}
