package graph

// =============================================================================
// Derived Display Attributes
// =============================================================================

// Color palette shared by all rendering backends.
const (
	colorEntry    = "#2da44e" // green
	colorTerminal = "#cf222e" // red
	colorStep     = "#0969da" // blue
	colorStroke   = "#24292f"
	colorEdge     = "#57606a"
)

// Shape names understood by the rendering backends, which translate them
// to their own vocabulary (graphviz shapes, echarts symbols).
const (
	ShapeCircle  = "circle"
	ShapeDiamond = "diamond"
	ShapeSquare  = "square"
)

// dimOpacity is applied to elements outside an active highlight set.
const dimOpacity = 0.25

// Emphasis is the visual weight of an element relative to the current
// highlight state.
type Emphasis int

const (
	// EmphasisNormal means no highlight is active; everything renders fully.
	EmphasisNormal Emphasis = iota
	// EmphasisHighlighted marks a member of the active highlight set.
	EmphasisHighlighted
	// EmphasisDimmed marks a non-member while a highlight is active.
	// Dimmed elements are de-emphasized, never removed.
	EmphasisDimmed
)

// Style carries the display attributes derived for one element.
// Nothing here is ever stored on a Node or Edge; styles are computed fresh
// at render time from role, payload, and highlight state.
type Style struct {
	Fill    string  // fill color (hex)
	Stroke  string  // border or line color (hex)
	Shape   string  // abstract shape name (nodes only)
	Opacity float64 // 0..1
	Width   float64 // stroke width multiplier
}

// NodeEmphasis computes a node's emphasis given the active highlight set.
// An empty set means no highlight is active.
func NodeEmphasis(id string, highlighted map[string]bool) Emphasis {
	if len(highlighted) == 0 {
		return EmphasisNormal
	}
	if highlighted[id] {
		return EmphasisHighlighted
	}
	return EmphasisDimmed
}

// EdgeEmphasis computes an edge's emphasis given the active highlight set.
// An edge sits on the highlighted path iff both endpoints are members.
func EdgeEmphasis(e Edge, highlighted map[string]bool) Emphasis {
	if len(highlighted) == 0 {
		return EmphasisNormal
	}
	if highlighted[e.From] && highlighted[e.To] {
		return EmphasisHighlighted
	}
	return EmphasisDimmed
}

// NodeStyle derives the display attributes for a node.
func NodeStyle(n Node, emphasis Emphasis) Style {
	s := Style{
		Fill:    colorStep,
		Stroke:  colorStroke,
		Shape:   ShapeCircle,
		Opacity: 1,
		Width:   1,
	}
	switch n.Role {
	case RoleEntry:
		s.Fill = colorEntry
		s.Shape = ShapeDiamond
	case RoleTerminal:
		s.Fill = colorTerminal
		s.Shape = ShapeSquare
	}
	if emphasis == EmphasisDimmed {
		s.Opacity = dimOpacity
	}
	return s
}

// EdgeStyle derives the display attributes for an edge.
// Weight scales the stroke width on top of the base width of 1.
func EdgeStyle(e Edge, emphasis Emphasis) Style {
	s := Style{
		Stroke:  colorEdge,
		Opacity: 1,
		Width:   1,
	}
	if e.Weight > 0 {
		s.Width += e.Weight
	}
	if emphasis == EmphasisDimmed {
		s.Opacity = dimOpacity
	}
	return s
}
