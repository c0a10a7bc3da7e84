package graph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

var (
	// ErrEmptyNodeID is returned by [Graph.AddNode] and [FromData] when a
	// node ID is empty. All nodes must have non-empty identifiers.
	ErrEmptyNodeID = errors.New("node ID must not be empty")

	// ErrUnknownNode is returned by [Graph.UpdateNode] and [Graph.RemoveNode]
	// when the target node does not exist. UpdateNode never auto-creates.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownEdge is returned by [Graph.RemoveEdge] when no edge carries
	// the given ID.
	ErrUnknownEdge = errors.New("unknown edge")

	// ErrEmptyEdgeEndpoint is returned by [Graph.AddEdge] and [FromData] when
	// an edge's From or To is empty. Endpoints may dangle (reference nodes
	// that do not exist) but must always name something.
	ErrEmptyEdgeEndpoint = errors.New("edge endpoints must not be empty")

	// ErrDuplicateEdgeID is returned by [Graph.AddEdge] and [FromData] when
	// an explicitly supplied edge ID is already in use. Edge identity is the
	// ID alone, so IDs must be unique within a graph.
	ErrDuplicateEdgeID = errors.New("duplicate edge ID")
)

// Graph is a mutable node/edge container for one visualization instance.
//
// Nodes are keyed by ID; insertion order is irrelevant and accessors sort
// by ID for deterministic output. Edges are an ordered sequence in insertion
// order; duplicates between the same node pair are permitted and identity is
// the edge ID alone. Adjacency indexes track incident edge IDs per node so
// that node removal can cascade without scanning.
//
// The zero value is not usable - use New or FromData. Graph is not safe for
// concurrent use without external synchronization; the registry serializes
// access per instance.
type Graph struct {
	nodes    map[string]Node
	edges    []Edge
	outgoing map[string][]string // node ID -> outgoing edge IDs
	incoming map[string][]string // node ID -> incoming edge IDs
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// FromData builds a graph from a data snapshot.
//
// Nodes with duplicate IDs follow upsert semantics (last wins). Edges with
// empty IDs are assigned UUIDs; explicit duplicate edge IDs are an error.
// On error the returned graph is nil, so callers can swap in the result
// atomically: either the whole snapshot loads or nothing changes.
func FromData(d Data) (*Graph, error) {
	g := New()
	for _, n := range d.Nodes {
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
	}
	for _, e := range d.Edges {
		if _, err := g.AddEdge(e); err != nil {
			return nil, fmt.Errorf("edge %s→%s: %w", e.From, e.To, err)
		}
	}
	return g, nil
}

// =============================================================================
// Mutation
// =============================================================================

// AddNode inserts a node, overwriting any existing node with the same ID
// (upsert semantics, not duplication). Returns ErrEmptyNodeID if the ID is
// empty. The node's metadata map is cloned on the way in.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrEmptyNodeID
	}
	g.nodes[n.ID] = n.Clone()
	return nil
}

// UpdateNode merges a partial update onto an existing node.
// Returns ErrUnknownNode if the node does not exist - UpdateNode never
// auto-creates.
func (g *Graph) UpdateNode(id string, patch NodePatch) error {
	n, ok := g.nodes[id]
	if !ok {
		return ErrUnknownNode
	}
	patch.apply(&n)
	g.nodes[id] = n
	return nil
}

// RemoveNode deletes a node and cascades: every edge whose From or To equals
// id is removed with it. Leaving dangling edges behind after a node removal
// is a correctness bug, so the cascade is unconditional.
//
// Returns the IDs of the removed edges in their original insertion order,
// or ErrUnknownNode if the node does not exist. Callers that track
// selection/highlight sets must prune id from them after a successful
// removal.
func (g *Graph) RemoveNode(id string) ([]string, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, ErrUnknownNode
	}

	incident := make(map[string]bool)
	for _, eid := range g.outgoing[id] {
		incident[eid] = true
	}
	for _, eid := range g.incoming[id] {
		incident[eid] = true
	}

	var removed []string
	if len(incident) > 0 {
		removed = make([]string, 0, len(incident))
		kept := g.edges[:0]
		for _, e := range g.edges {
			if incident[e.ID] {
				removed = append(removed, e.ID)
				g.unindexEdge(e)
				continue
			}
			kept = append(kept, e)
		}
		g.edges = kept
	}

	delete(g.nodes, id)
	delete(g.outgoing, id)
	delete(g.incoming, id)
	return removed, nil
}

// AddEdge appends an edge. Appending never de-duplicates: two edges between
// the same pair coexist, distinguished by ID. An empty ID is assigned a
// fresh UUID; the stored edge (with its final ID) is returned.
//
// Returns ErrEmptyEdgeEndpoint if From or To is empty, or ErrDuplicateEdgeID
// if an explicitly supplied ID is already in use. Endpoints are not required
// to exist: dangling edges are tolerated and skipped at render time.
func (g *Graph) AddEdge(e Edge) (Edge, error) {
	if e.From == "" || e.To == "" {
		return Edge{}, ErrEmptyEdgeEndpoint
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	} else if g.hasEdge(e.ID) {
		return Edge{}, fmt.Errorf("%w: %q", ErrDuplicateEdgeID, e.ID)
	}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e.ID)
	g.incoming[e.To] = append(g.incoming[e.To], e.ID)
	return e, nil
}

// RemoveEdge deletes one edge by ID. No cascade is needed.
// Returns ErrUnknownEdge if no edge carries the ID.
func (g *Graph) RemoveEdge(id string) error {
	for i, e := range g.edges {
		if e.ID == id {
			g.unindexEdge(e)
			g.edges = slices.Delete(g.edges, i, i+1)
			return nil
		}
	}
	return ErrUnknownEdge
}

// Clear empties all nodes and edges. The container itself stays usable;
// clearing an instance preserves its external rendering handle.
func (g *Graph) Clear() {
	g.nodes = make(map[string]Node)
	g.edges = nil
	g.outgoing = make(map[string][]string)
	g.incoming = make(map[string][]string)
}

// unindexEdge removes the edge's ID from both adjacency lists.
func (g *Graph) unindexEdge(e Edge) {
	g.outgoing[e.From] = slices.DeleteFunc(g.outgoing[e.From], func(s string) bool { return s == e.ID })
	g.incoming[e.To] = slices.DeleteFunc(g.incoming[e.To], func(s string) bool { return s == e.ID })
}

func (g *Graph) hasEdge(id string) bool {
	return slices.ContainsFunc(g.edges, func(e Edge) bool { return e.ID == id })
}

// =============================================================================
// Accessors
// =============================================================================

// Node returns a copy of the node with the given ID and true, or a zero
// node and false if not found.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.Clone(), true
}

// Edge returns a copy of the edge with the given ID and true, or a zero
// edge and false if not found.
func (g *Graph) Edge(id string) (Edge, bool) {
	for _, e := range g.edges {
		if e.ID == id {
			return e, true
		}
	}
	return Edge{}, false
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns copies of all nodes sorted by ID for deterministic output.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n.Clone())
	}
	slices.SortFunc(out, func(a, b Node) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

// Edges returns copies of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// InDegree returns the number of edges pointing at the node.
// Dangling edges count; a missing node has degree 0.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }

// OutDegree returns the number of edges leaving the node.
// Dangling edges count; a missing node has degree 0.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// Snapshot returns a deep-copied data view of the graph: nodes sorted by
// ID, edges in insertion order. Mutating the snapshot never affects the
// graph.
func (g *Graph) Snapshot() Data {
	return Data{
		Nodes: g.Nodes(),
		Edges: g.Edges(),
	}
}
