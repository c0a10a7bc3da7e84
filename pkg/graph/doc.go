// Package graph provides the data model for visualization instances.
//
// This package defines the mutable node/edge container each instance owns,
// the wire format for graph data, view-state snapshots, flow validation,
// and the derivation of display attributes at render time.
//
// # Architecture
//
// The package sits below the registry and the rendering backends:
//
//   - [Graph]: Mutable container (one per live instance)
//   - [Data]: Serialization snapshot (API payloads, sessions, caching)
//   - [ViewState]: Point-in-time view configuration copy
//   - [Node], [Edge]: Shared structural types
//
// The registry mediates all mutation; renderers only ever see immutable
// [Data] snapshots plus highlight sets.
//
// # Mutation Semantics
//
// The container follows fixed rules:
//
//   - AddNode upserts: a duplicate ID overwrites, never duplicates.
//   - AddEdge appends: duplicates between the same pair are permitted,
//     identity is the edge ID alone (auto-assigned a UUID when empty).
//   - UpdateNode merges partial fields and never auto-creates.
//   - RemoveNode cascades to every incident edge, unconditionally.
//
// # Serialization
//
// Graph data uses a node-link JSON format:
//
//	{
//	  "nodes": [{"id": "start", "role": "entry"}, {"id": "done", "role": "terminal"}],
//	  "edges": [{"id": "e1", "from": "start", "to": "done"}]
//	}
//
// Common operations:
//
//	d, _ := graph.ReadDataFile("flow.json")     // File → Data
//	g, _ := graph.FromData(d)                   // Data → Graph
//	graph.WriteDataFile(g.Snapshot(), "out.json")
//
// Nodes are sorted by ID on export so output is deterministic; edge order
// is insertion order and survives round-trips exactly.
//
// # Flow Validation
//
// [ValidateFlow] checks the journey shape of a snapshot (exactly one entry,
// at least one terminal, every step connected in both directions) and
// returns an ordered error list. It is a pure function and never mutates.
//
// # Display Attributes
//
// Color, shape, and opacity are never stored on nodes or edges. They are
// derived at render time by [NodeStyle]/[EdgeStyle] from the role, the
// payload, and the active highlight set.
//
// # Concurrency
//
// Graph is not safe for concurrent use; the registry serializes access per
// instance. Data, ViewState, and the validation/style functions are pure
// values safe to share.
package graph
