package graph

import (
	"errors"
	"fmt"
	"slices"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Layout identifies the layout mode of a visualization.
type Layout string

// Layout kinds.
const (
	// LayoutForce arranges nodes with a force-directed simulation.
	LayoutForce Layout = "force"
	// LayoutHierarchical arranges nodes in layered ranks (flow diagrams).
	LayoutHierarchical Layout = "hierarchical"
)

// ErrUnknownLayout is returned by [ParseLayout] for unrecognized layout names.
var ErrUnknownLayout = errors.New("unknown layout")

// Valid reports whether l is a recognized layout kind.
func (l Layout) Valid() bool {
	return l == LayoutForce || l == LayoutHierarchical
}

// ParseLayout converts a string to a Layout.
// Returns ErrUnknownLayout for anything other than "force" or "hierarchical".
func ParseLayout(s string) (Layout, error) {
	l := Layout(s)
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownLayout, s)
	}
	return l, nil
}

// Role tags a node with its position in a flow.
// The zero value (empty string) marks an ordinary step node.
type Role string

// Node roles recognized by flow validation.
const (
	// RoleEntry marks the single starting point of a flow.
	RoleEntry Role = "entry"
	// RoleTerminal marks an exit point of a flow.
	RoleTerminal Role = "terminal"
)

// =============================================================================
// Node
// =============================================================================

// Node is one vertex of a visualization graph.
//
// Display attributes (color, shape, opacity) are never stored on the node;
// they are derived at render time from Role and the domain payload by
// [NodeStyle]. The registry never mutates payload fields on its own.
type Node struct {
	ID     string         `json:"id" bson:"id"`
	Label  string         `json:"label,omitempty" bson:"label,omitempty"`   // Display label (defaults to ID)
	Role   Role           `json:"role,omitempty" bson:"role,omitempty"`     // "entry", "terminal", or empty for a step
	Tier   int            `json:"tier,omitempty" bson:"tier,omitempty"`     // Rank hint for hierarchical layouts (0 = auto)
	Value  float64        `json:"value,omitempty" bson:"value,omitempty"`   // Visual weight (node size scaling)
	Pinned bool           `json:"pinned,omitempty" bson:"pinned,omitempty"` // Excluded from force movement
	Meta   map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// IsEntry returns true if this node is tagged as the flow entry.
func (n *Node) IsEntry() bool { return n.Role == RoleEntry }

// IsTerminal returns true if this node is tagged as a flow terminal.
func (n *Node) IsTerminal() bool { return n.Role == RoleTerminal }

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Clone returns a copy of the node with its metadata map cloned.
func (n Node) Clone() Node {
	out := n
	out.Meta = cloneMeta(n.Meta)
	return out
}

// NodePatch describes a partial update to an existing node.
// Nil pointer fields are left untouched; Meta entries are merged key-wise
// onto the existing metadata.
type NodePatch struct {
	Label  *string        `json:"label,omitempty"`
	Role   *Role          `json:"role,omitempty"`
	Tier   *int           `json:"tier,omitempty"`
	Value  *float64       `json:"value,omitempty"`
	Pinned *bool          `json:"pinned,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// apply merges the patch onto n.
func (p NodePatch) apply(n *Node) {
	if p.Label != nil {
		n.Label = *p.Label
	}
	if p.Role != nil {
		n.Role = *p.Role
	}
	if p.Tier != nil {
		n.Tier = *p.Tier
	}
	if p.Value != nil {
		n.Value = *p.Value
	}
	if p.Pinned != nil {
		n.Pinned = *p.Pinned
	}
	if len(p.Meta) > 0 {
		if n.Meta == nil {
			n.Meta = make(map[string]any, len(p.Meta))
		}
		for k, v := range p.Meta {
			n.Meta[k] = v
		}
	}
}

// =============================================================================
// Edge
// =============================================================================

// Edge is a directed connection between two nodes.
//
// From and To should reference existing nodes, but dangling references are
// tolerated: renderers skip them silently instead of failing. Multiple edges
// between the same pair are permitted; identity is the edge ID alone.
type Edge struct {
	ID     string  `json:"id" bson:"id"`
	From   string  `json:"from" bson:"from"`
	To     string  `json:"to" bson:"to"`
	Label  string  `json:"label,omitempty" bson:"label,omitempty"`
	Weight float64 `json:"weight,omitempty" bson:"weight,omitempty"` // Visual weight (stroke scaling)
}

// =============================================================================
// Data - Wire Format
// =============================================================================

// Data is the canonical serialization format for graph contents.
// Used for API payloads, session storage, caching, and file import/export.
//
// Nodes are sorted by ID on export for deterministic output; edge order is
// insertion order and is preserved exactly.
type Data struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Clone returns a deep copy of the data.
func (d Data) Clone() Data {
	out := Data{
		Nodes: make([]Node, len(d.Nodes)),
		Edges: slices.Clone(d.Edges),
	}
	for i, n := range d.Nodes {
		out.Nodes[i] = n.Clone()
	}
	return out
}

// =============================================================================
// ViewState
// =============================================================================

// ViewState is a point-in-time copy of an instance's view configuration.
//
// Selected and Highlighted are always subsets of the instance's node IDs:
// node removal prunes them, and highlight intersects its input with the
// current node set. Both slices are sorted.
type ViewState struct {
	Physics     bool     `json:"physics" bson:"physics"`
	Layout      Layout   `json:"layout" bson:"layout"`
	Selected    []string `json:"selected,omitempty" bson:"selected,omitempty"`
	Highlighted []string `json:"highlighted,omitempty" bson:"highlighted,omitempty"`
}

// Clone returns a copy of the view state with its slices cloned.
func (v ViewState) Clone() ViewState {
	out := v
	out.Selected = slices.Clone(v.Selected)
	out.Highlighted = slices.Clone(v.Highlighted)
	return out
}

// =============================================================================
// Internal Helpers
// =============================================================================

// cloneMeta creates a shallow copy of metadata to avoid mutation.
func cloneMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
