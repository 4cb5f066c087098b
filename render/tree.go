package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cannoliai/cannoli/graph"
)

var (
	styleComplete = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleRejected = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleError    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	stylePending  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleHeading  = lipgloss.NewStyle().Bold(true)
)

func styleFor(s graph.Status) lipgloss.Style {
	switch s {
	case graph.StatusComplete:
		return styleComplete
	case graph.StatusRejected:
		return styleRejected
	case graph.StatusError:
		return styleError
	default:
		return stylePending
	}
}

// StatusTree renders every vertex of coll as observed on rc into an ASCII
// tree, one root per entry vertex (a node or group with no enclosing
// group and no incoming edge), with orphaned vertices a tree walk from
// the roots never reaches listed separately rather than silently
// dropped.
func StatusTree(coll *graph.Collection, rc *graph.RunContext) string {
	var sb strings.Builder
	sb.WriteString(styleHeading.Render(fmt.Sprintf("Run %s", rc.RunID)))
	sb.WriteString("\n")

	roots := rootVertices(coll)
	visited := map[graph.ID]bool{}
	for i, id := range roots {
		writeVertex(&sb, coll, rc, id, "", i == len(roots)-1, visited)
	}

	if stragglers := unvisited(coll, visited); len(stragglers) > 0 {
		sb.WriteString(styleHeading.Render("Unreached by the tree walk:"))
		sb.WriteString("\n")
		for _, id := range stragglers {
			sb.WriteString(fmt.Sprintf("  %s\n", vertexLabel(coll, rc, id)))
		}
	}

	return sb.String()
}

func rootVertices(coll *graph.Collection) []graph.ID {
	var roots []graph.ID
	for id, n := range coll.Nodes {
		if len(n.Enclosing) == 0 && len(n.Incoming) == 0 {
			roots = append(roots, id)
		}
	}
	for id, g := range coll.Groups {
		if len(g.Enclosing) == 0 && len(g.Incoming) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	return roots
}

func unvisited(coll *graph.Collection, visited map[graph.ID]bool) []graph.ID {
	var out []graph.ID
	for id := range coll.Nodes {
		if !visited[id] {
			out = append(out, id)
		}
	}
	for id := range coll.Groups {
		if !visited[id] {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func vertexLabel(coll *graph.Collection, rc *graph.RunContext, id graph.ID) string {
	text, status := "", graph.Status("")
	if n := rc.Node(id); n != nil {
		text, status = coll.Nodes[id].Text, n.ObjStatus()
	} else if g := rc.Group(id); g != nil {
		text, status = coll.Groups[id].Text, g.ObjStatus()
	}
	if text == "" {
		text = string(id)
	}
	return fmt.Sprintf("%s %s", styleFor(status).Render(string(status)), text)
}

func childrenOf(coll *graph.Collection, id graph.ID) []graph.ID {
	var kids []graph.ID
	if g, ok := coll.Groups[id]; ok {
		kids = append(kids, g.Members...)
		for _, eid := range g.Outgoing {
			if e, ok := coll.Edges[eid]; ok {
				kids = append(kids, e.Target)
			}
		}
		return kids
	}
	if n, ok := coll.Nodes[id]; ok {
		for _, eid := range n.Outgoing {
			if e, ok := coll.Edges[eid]; ok && !e.Reflexive {
				kids = append(kids, e.Target)
			}
		}
	}
	return kids
}

func writeVertex(sb *strings.Builder, coll *graph.Collection, rc *graph.RunContext, id graph.ID, prefix string, last bool, visited map[graph.ID]bool) {
	connector := "├── "
	nextPrefix := prefix + "│   "
	if last {
		connector = "└── "
		nextPrefix = prefix + "    "
	}

	if visited[id] {
		sb.WriteString(fmt.Sprintf("%s%s%s (already shown)\n", prefix, connector, vertexLabel(coll, rc, id)))
		return
	}
	visited[id] = true
	sb.WriteString(fmt.Sprintf("%s%s%s\n", prefix, connector, vertexLabel(coll, rc, id)))

	kids := childrenOf(coll, id)
	sort.Slice(kids, func(i, j int) bool { return kids[i] < kids[j] })
	for i, kid := range kids {
		writeVertex(sb, coll, rc, kid, nextPrefix, i == len(kids)-1, visited)
	}
}
