package canvas

// RawCanvas is the serializable fixture format canvas.JSONLoader decodes.
// It is deliberately modeled on the Obsidian JSONCanvas conventions (a
// "group" node type, a small numeric color palette) since that is the
// real-world format this domain's canvas authoring tool produces, but it
// is this module's own fixture shape, not a spec requirement.
type RawCanvas struct {
	Nodes []RawNode `json:"nodes"`
	Edges []RawEdge `json:"edges"`
}

// RawNode is one canvas vertex before classification.
type RawNode struct {
	ID     string  `json:"id"`
	Type   string  `json:"type"` // "group" or "" (plain node)
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Color  string  `json:"color"`
	Text   string  `json:"text"`
}

// RawEdge is one canvas connection before classification.
type RawEdge struct {
	ID       string `json:"id"`
	FromNode string `json:"fromNode"`
	ToNode   string `json:"toNode"`
	Label    string `json:"label"`
	Color    string `json:"color"`
}
