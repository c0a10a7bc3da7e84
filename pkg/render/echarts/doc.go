// Package echarts renders instance graphs as interactive ECharts documents.
//
// # Overview
//
// This package is the interactive rendering backend. It builds graph charts
// with go-echarts and serves them as self-contained HTML documents: pan,
// zoom, node dragging, and tooltips all work in the browser. A headless
// Chrome capturer turns the same documents into PNG frames.
//
// # Handles
//
// [Engine.NewHandle] allocates chart state bound to one surface. Like the
// nodelink backend, the handle retains the last applied data and view flags
// and rebuilds the chart on every snapshot.
//
// # Styling
//
// The typed go-echarts options cover nodes but not per-edge styling, so the
// chart carries an injected setOption call that re-sends the series with
// role colors, highlight dimming, edge strokes, labels, and arrow heads.
// The injected script addresses the chart through its stable ID, derived
// from the surface ID.
//
// # Layouts
//
// Only [graph.LayoutForce] is supported. Physics toggles between a live
// force simulation and a static circular placement. Hierarchical layout
// requests fail with INVALID_LAYOUT and leave the handle unchanged; layered
// rendering is the nodelink backend's job.
//
// # Formats
//
// Snapshots support [render.FormatHTML] and [render.FormatPNG]. PNG needs a
// [Capturer]; without one the snapshot fails with CAPTURE_FAILED. SVG is not
// supported, the chart draws on a canvas.
//
// Rendered documents load the ECharts script from the go-echarts asset host,
// so PNG capture requires that host to be reachable (or [Engine.AssetsHost]
// pointed at a mirror).
//
// # Dependencies
//
// This package uses [github.com/go-echarts/go-echarts/v2] for chart
// generation and [github.com/chromedp/chromedp] for headless capture.
package echarts
