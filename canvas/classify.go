package canvas

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cannoliai/cannoli/graph"
)

// indicatedType is the first-pass classification spec.md §4.1 describes:
// derived from a vertex's first label character, then its color, then
// whether its label is a bare positive integer (Repeat), falling through
// to Basic/NonLogic.
type indicatedType string

const (
	indicatedList        indicatedType = "list"
	indicatedWhile       indicatedType = "while"
	indicatedRepeat      indicatedType = "repeat"
	indicatedForEach     indicatedType = "for_each"
	indicatedCall        indicatedType = "call"
	indicatedCallForm    indicatedType = "call_form"
	indicatedCallChoose  indicatedType = "call_choose"
	indicatedAccumulate  indicatedType = "accumulate"
	indicatedContent     indicatedType = "content"
	indicatedReference   indicatedType = "reference"
	indicatedHTTP        indicatedType = "http"
	indicatedFormatter   indicatedType = "formatter"
	indicatedFloating    indicatedType = "floating"
	indicatedBasic       indicatedType = "basic"
)

// prefixMap is checked first, against the vertex's first label byte.
var prefixMap = map[byte]indicatedType{
	'<': indicatedList,
	'?': indicatedWhile,
	'*': indicatedForEach,
}

// colorMap is checked second, keyed by the canvas's numeric color code
// ("1".."9", extending the Obsidian JSONCanvas palette). This table is this module's
// own concrete interpretation of "node color" classification — the raw
// canvas format and its color semantics are out of scope of the spec
// (spec.md §1), so the mapping lives here rather than in package graph.
var colorMap = map[string]indicatedType{
	"1": indicatedFloating,
	"2": indicatedCall,
	"3": indicatedCallForm,
	"4": indicatedCallChoose,
	"5": indicatedAccumulate,
	"6": indicatedContent,
	"7": indicatedReference,
	"8": indicatedHTTP,
	"9": indicatedFormatter,
}

// classifyIndicated runs the first pass of spec.md §4.1 on one vertex.
func classifyIndicated(text, color string) indicatedType {
	if text != "" {
		if it, ok := prefixMap[text[0]]; ok {
			return it
		}
	}
	if it, ok := colorMap[color]; ok {
		return it
	}
	if n, ok := labelNumber(text); ok && n > 0 {
		return indicatedRepeat
	}
	return indicatedBasic
}

// labelNumber reports whether text is, after trimming the group-type
// prefix characters, a bare integer — a Repeat/While/List group's
// loop-count or ForEach version-count label (spec.md §4, "each
// Repeat/While/List group must carry a positive integer label"). Zero and
// negative values are reported too; callers check the sign.
func labelNumber(text string) (int, bool) {
	trimmed := strings.TrimLeft(text, "<?*")
	trimmed = strings.TrimSpace(trimmed)
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return n, true
}

// finalNodeType maps an indicated type to a concrete NodeSubtype for a
// plain (non-group) vertex. Unresolved combinations are a structural
// error surfaced on the vertex (spec.md §4.1).
func finalNodeType(it indicatedType) (graph.NodeSubtype, error) {
	switch it {
	case indicatedCall:
		return graph.NodeCallStandard, nil
	case indicatedCallForm:
		return graph.NodeCallForm, nil
	case indicatedCallChoose:
		return graph.NodeCallChoose, nil
	case indicatedAccumulate:
		return graph.NodeCallAccumulate, nil
	case indicatedContent, indicatedBasic:
		return graph.NodeContentStandard, nil
	case indicatedReference:
		return graph.NodeContentReference, nil
	case indicatedHTTP:
		return graph.NodeContentHTTP, nil
	case indicatedFormatter:
		return graph.NodeContentFormatter, nil
	case indicatedFloating:
		return graph.NodeFloating, nil
	default:
		return "", fmt.Errorf("canvas: indicated type %q has no node subtype", it)
	}
}

// finalGroupType maps an indicated type to a concrete GroupSubtype.
func finalGroupType(it indicatedType) (graph.GroupSubtype, error) {
	switch it {
	case indicatedList, indicatedBasic, indicatedContent:
		return graph.GroupBasic, nil
	case indicatedWhile:
		return graph.GroupWhile, nil
	case indicatedRepeat:
		return graph.GroupRepeat, nil
	case indicatedForEach:
		return graph.GroupForEach, nil
	default:
		return "", fmt.Errorf("canvas: indicated type %q has no group subtype", it)
	}
}

// edgePrefixMap mirrors prefixMap but for edge labels, determining edge
// subtype ahead of the source node's default.
var edgePrefixMap = map[byte]graph.EdgeSubtype{
	'=': graph.EdgeConfig,
	'#': graph.EdgeField,
	'%': graph.EdgeLogging,
	'<': graph.EdgeList,
	'+': graph.EdgeMerge,
}

// classifyEdge assigns an EdgeSubtype, preferring an explicit label
// prefix, then falling back to the subtype the source vertex's final
// type defaults to producing (spec.md §4.5: transport semantics follow
// from what the source can actually emit).
func classifyEdge(label string, sourceIsGroup bool, sourceNodeSubtype graph.NodeSubtype) graph.EdgeSubtype {
	if label != "" {
		if st, ok := edgePrefixMap[label[0]]; ok {
			return st
		}
	}
	if sourceIsGroup {
		return graph.EdgeList
	}
	switch sourceNodeSubtype {
	case graph.NodeCallChoose:
		return graph.EdgeChoice
	case graph.NodeCallForm:
		return graph.EdgeField
	case graph.NodeCallStandard, graph.NodeCallAccumulate:
		return graph.EdgeChat
	default:
		return graph.EdgeChat
	}
}
