// Package render defines the boundary to the rendering backends.
//
// # Overview
//
// Every non-trivial visual behavior - layout, force simulation, drawing,
// rasterization - is delegated to wrapped third-party libraries. This
// package defines what the rest of the system sees of them:
//
//   - [Engine]: creates handles bound to drawing surfaces
//   - [Handle]: the exclusively-owned rendering state of one instance
//   - [Frame], [Format]: exported snapshots (PNG, SVG, HTML)
//   - [Options]: handle creation options with documented defaults
//
// # Backends
//
// The [nodelink] subpackage renders directed graph diagrams with Graphviz:
// hierarchical layouts use the dot engine, force layouts use fdp, and PNG
// and SVG snapshots are produced natively.
//
// The [echarts] subpackage renders interactive force-directed graphs as
// self-contained HTML pages. PNG snapshots require a headless-browser
// capturer; without one, PNG export reports an external-library failure.
//
// # Handle Lifecycle
//
// Handles are created exactly once per instance and closed exactly once on
// destroy. Close stops any internal scheduling before releasing, so no
// late callback can touch freed state. The registry enforces both halves
// of this contract; backends only need to make Close safe.
//
// [nodelink]: github.com/vizhost/vizhost/pkg/render/nodelink
// [echarts]: github.com/vizhost/vizhost/pkg/render/echarts
package render
