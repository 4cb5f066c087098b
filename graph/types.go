package graph

// NodeSubtype is the final, concrete classification of a Node vertex
// (spec.md §3, §4.1).
type NodeSubtype string

const (
	NodeCallStandard   NodeSubtype = "call"
	NodeCallForm       NodeSubtype = "call_form"
	NodeCallChoose     NodeSubtype = "call_choose"
	NodeCallAccumulate NodeSubtype = "call_accumulate"

	NodeContentStandard  NodeSubtype = "content"
	NodeContentReference NodeSubtype = "reference"
	NodeContentHTTP      NodeSubtype = "http"
	NodeContentFormatter NodeSubtype = "formatter"

	NodeFloating NodeSubtype = "floating"

	NodeNonLogic NodeSubtype = "non_logic"
	NodeError    NodeSubtype = "error"
)

// IsCall reports whether the subtype is any flavor of Call node.
func (s NodeSubtype) IsCall() bool {
	switch s {
	case NodeCallStandard, NodeCallForm, NodeCallChoose, NodeCallAccumulate:
		return true
	}
	return false
}

// GroupSubtype is the final classification of a Group vertex.
type GroupSubtype string

const (
	GroupBasic   GroupSubtype = "basic"
	GroupRepeat  GroupSubtype = "repeat"
	GroupWhile   GroupSubtype = "while"
	GroupForEach GroupSubtype = "for_each"
)

// EdgeSubtype determines an edge's transport semantics (spec.md §4.5).
type EdgeSubtype string

const (
	EdgeChat          EdgeSubtype = "chat"
	EdgeSystemMessage EdgeSubtype = "system_message"
	EdgeChatResponse  EdgeSubtype = "chat_response"
	EdgeLogging       EdgeSubtype = "logging"
	EdgeField         EdgeSubtype = "field"
	EdgeChoice        EdgeSubtype = "choice"
	EdgeCategory      EdgeSubtype = "category"
	EdgeList          EdgeSubtype = "list"
	EdgeMerge         EdgeSubtype = "merge"
	EdgeVariable      EdgeSubtype = "variable"
	EdgeConfig        EdgeSubtype = "config"
	EdgeWrite         EdgeSubtype = "write"
)

// CarriesMessages reports whether this edge subtype always propagates a
// chat-message history, independent of the AddMessages flag.
func (s EdgeSubtype) CarriesMessages() bool {
	return s == EdgeChat || s == EdgeSystemMessage || s == EdgeChatResponse
}

// HasName reports whether this edge subtype carries a named payload (its
// text is the field/choice/category/... name rather than a free message).
func (s EdgeSubtype) HasName() bool {
	switch s {
	case EdgeField, EdgeChoice, EdgeCategory, EdgeList, EdgeMerge, EdgeVariable, EdgeConfig:
		return true
	}
	return false
}

// Modifier marks an edge as note-, folder-, or property-typed, used by
// Reference nodes and note_select coercion (spec.md §4.7, §4.9).
type Modifier string

const (
	ModifierNone     Modifier = ""
	ModifierNote     Modifier = "note"
	ModifierFolder   Modifier = "folder"
	ModifierProperty Modifier = "property"
)

// ReferenceKind is the kind of named artifact a node-level Reference
// resolves (spec.md §3).
type ReferenceKind string

const (
	ReferenceVariable   ReferenceKind = "variable"
	ReferenceNote       ReferenceKind = "note"
	ReferenceFloating   ReferenceKind = "floating"
	ReferenceSelection  ReferenceKind = "selection"
	ReferenceCreateNote ReferenceKind = "create_note"
)

// NodeReference is a node-embedded reference to an external artifact,
// used by Reference-subtype content nodes.
type NodeReference struct {
	Name          string
	Kind          ReferenceKind
	ShouldExtract bool
	IncludeName   bool
	IncludeProps  bool
	IncludeLink   bool
	Subpath       string
}

// Rect is a vertex's canvas rectangle, used only for the enclosure and
// overlap checks in validation (spec.md §4.1).
type Rect struct {
	X, Y, W, H float64
}

// Encloses reports whether r fully contains other.
func (r Rect) Encloses(other Rect) bool {
	return r.X <= other.X && r.Y <= other.Y &&
		r.X+r.W >= other.X+other.W && r.Y+r.H >= other.Y+other.H
}

// Overlaps reports whether r and other share any area.
func (r Rect) Overlaps(other Rect) bool {
	return r.X < other.X+other.W && other.X < r.X+r.W &&
		r.Y < other.Y+other.H && other.Y < r.Y+r.H
}

// ChatMessage is a provider-neutral chat message, the unit carried by
// message-bearing edges and passed to the LLM provider contract (spec.md
// §4.5, §6).
type ChatMessage struct {
	Role    string // "system", "user", "assistant", "function"
	Content string
	Name    string // set for function-role messages
}

// DependencyBranch is one candidate source of a Dependency: the vertex
// whose completion is awaited, and the specific incoming edge that must
// actually have loaded for this branch to count as satisfied. Tracking
// the edge alongside the source matters for Choice/Category/Field edges,
// where a source node can complete without loading every outgoing edge
// (spec.md §4.9: a Choice node completes once, but only its chosen
// branch's edge ever loads).
type DependencyBranch struct {
	Source ID
	Edge   ID
}

// Dependency is either a single branch or a disjunctive cluster of
// branches treated as alternatives (spec.md §4.3). Exactly one of Single
// or Cluster is populated; Edge accompanies Single.
type Dependency struct {
	Single ID
	Edge   ID

	Cluster []DependencyBranch
}

func (d Dependency) isCluster() bool { return d.Cluster != nil }
