// Package nodelink renders instance graphs as traditional node-link diagrams.
//
// # Overview
//
// This package is the default rendering backend. It draws directed graphs
// with Graphviz: nodes appear as filled shapes keyed by role, connected by
// arrows. Rendering happens fully in-process through a WebAssembly build of
// Graphviz, so no external binary is required.
//
// # Handles
//
// [Engine.NewHandle] boots one Graphviz instance per handle. The handle
// retains the last applied graph data together with the view flags (physics,
// layout, highlight set, focused node) and lazily builds DOT source on every
// [render.Handle.Snapshot] call:
//
//	h, err := engine.NewHandle(ctx, surf, render.Options{})
//	...
//	h.ApplyData(ctx, data)
//	frame, err := h.Snapshot(ctx, render.FormatSVG)
//
// Closing the handle releases the Graphviz instance; a closed handle rejects
// all further calls.
//
// # Layouts
//
// The two graph layouts map onto Graphviz engines:
//
//   - [graph.LayoutForce] runs fdp, a force-directed spring model. With
//     physics enabled the simulation is reseeded per snapshot; without it
//     the seed is fixed so placement stays stable.
//   - [graph.LayoutHierarchical] runs dot with rankdir=TB. Explicit node
//     tiers become rank=same groups.
//
// # Formats
//
// Snapshots support [render.FormatSVG] and [render.FormatPNG]. HTML output
// is not a thing Graphviz can produce; asking for it yields an INVALID_FORMAT
// error.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering.
package nodelink
