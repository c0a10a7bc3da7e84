// Package pkg provides the core libraries for vizhost graph visualization.
//
// # Overview
//
// Vizhost keeps named graph-visualization instances alive on behalf of
// remote clients: each instance owns a mutable graph, a view state, and an
// exclusively-owned handle into a rendering backend. The pkg directory is
// organized around that registry:
//
//  1. [registry] - The instance registry (lifecycle, mutations, view state)
//  2. [graph] - Graph data model (nodes, edges, flow validation, styling)
//  3. [render] - Rendering boundary plus the nodelink and echarts backends
//  4. [surface] / [events] - Host boundaries (drawing surfaces, interaction sinks)
//  5. [session], [cache], [frames] - Persistence (saved workspaces, frame cache)
//  6. [theme], [download] - Host-facing utilities
//
// # Architecture
//
// The typical data flow through a hosted instance:
//
//	Client (HTTP/WebSocket)
//	         ↓
//	    [registry] package (create instance, mutate graph + view state)
//	         ↓
//	    [render] package (backend handle: graphviz or echarts)
//	         ↓
//	    [frames] package (content-addressed export cache)
//	         ↓
//	    PNG/SVG/HTML output
//
// # Quick Start
//
// Host a graph in a throwaway registry and export a frame:
//
//	import (
//	    "context"
//	    "github.com/vizhost/vizhost/pkg/graph"
//	    "github.com/vizhost/vizhost/pkg/registry"
//	    "github.com/vizhost/vizhost/pkg/render"
//	    "github.com/vizhost/vizhost/pkg/render/nodelink"
//	    "github.com/vizhost/vizhost/pkg/surface"
//	)
//
//	// 1. Build a registry with one backend
//	reg, _ := registry.New(registry.Options{
//	    Engines:  []render.Engine{nodelink.New()},
//	    Resolver: surface.Static{Width: 800, Height: 600},
//	})
//
//	// 2. Create an instance and load data
//	_ = reg.Create(ctx, "main", registry.Config{})
//	_ = reg.SetData(ctx, "main", graph.Data{
//	    Nodes: []graph.Node{{ID: "a"}, {ID: "b"}},
//	    Edges: []graph.Edge{{From: "a", To: "b"}},
//	})
//
//	// 3. Export the current frame
//	frame, _ := reg.Export(ctx, "main", render.FormatSVG)
//
// # Main Packages
//
// ## Core Domain Logic
//
// [registry] - The instance registry. Maps string IDs to live instances,
// mediates every create/read/update/delete against them, and guarantees
// each backend handle is created and released exactly once. Creating over
// a live ID destroys the old instance first.
//
// [graph] - Mutable graph container: upsert nodes, append-only edges,
// cascade delete, selection/highlight sets kept subsets of the node set,
// flow validation for journey graphs, and role-driven styling.
//
// [render] - The boundary to the wrapped drawing libraries. Engine builds
// a Handle per instance; the registry forwards data and view changes and
// asks the handle for frames.
//
//   - [render/nodelink]: Graphviz backend (dot for hierarchical, fdp for
//     force layouts; native SVG and PNG)
//   - [render/echarts]: browser force-canvas backend (native HTML; PNG via
//     a headless-Chrome capturer)
//
// ## Host Boundaries
//
// [surface] - Resolves container IDs to drawing surfaces. Absence is a
// normal failure, since containers come and go with client navigation.
//
// [events] - Interaction-event sinks (clicks, drags, element changes) with
// a fan-out, a recording stub for tests, and an append-only SQLite journal.
//
// ## Infrastructure
//
// [session] - Saved workspaces (every live instance plus the theme) with
// memory, file, and MongoDB stores.
//
// [cache] - Content-addressed frame cache with file, Redis, and null
// backends; [frames] runs exports through it so unchanged instances never
// re-render.
//
// [observability] - Hook interfaces with no-op defaults and a Prometheus
// adapter.
//
// ## Utilities
//
// [theme] - CSS custom-property sheet, served as /theme.css.
//
// [download] - Base64 payload to HTTP attachment conversion.
//
// [verrors] - Coded errors shared by every operation: not-found,
// precondition, and external-library failures all surface as values,
// never panics.
//
// # Common Workflows
//
// Validate a journey graph:
//
//	result := graph.ValidateFlow(data)
//	if !result.Valid {
//	    for _, msg := range result.Errors {
//	        fmt.Println(msg)
//	    }
//	}
//
// Save and restore a workspace:
//
//	store, _ := session.NewFileStore("")
//	sess := session.Snapshot(reg, "checkout-debug", thm.Vars())
//	_ = store.Put(ctx, sess)
//	// later
//	sess, _ = store.Get(ctx, sess.ID)
//	_ = session.Restore(ctx, reg, sess)
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...              # All tests
//	go test ./pkg/registry/...     # Specific package
//	go test -run Example           # Examples only
//
// [registry]: https://pkg.go.dev/github.com/vizhost/vizhost/pkg/registry
// [graph]: https://pkg.go.dev/github.com/vizhost/vizhost/pkg/graph
// [render]: https://pkg.go.dev/github.com/vizhost/vizhost/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/vizhost/vizhost/pkg/render/nodelink
// [render/echarts]: https://pkg.go.dev/github.com/vizhost/vizhost/pkg/render/echarts
// [surface]: https://pkg.go.dev/github.com/vizhost/vizhost/pkg/surface
// [events]: https://pkg.go.dev/github.com/vizhost/vizhost/pkg/events
// [session]: https://pkg.go.dev/github.com/vizhost/vizhost/pkg/session
// [cache]: https://pkg.go.dev/github.com/vizhost/vizhost/pkg/cache
// [frames]: https://pkg.go.dev/github.com/vizhost/vizhost/pkg/frames
// [observability]: https://pkg.go.dev/github.com/vizhost/vizhost/pkg/observability
// [theme]: https://pkg.go.dev/github.com/vizhost/vizhost/pkg/theme
// [download]: https://pkg.go.dev/github.com/vizhost/vizhost/pkg/download
// [verrors]: https://pkg.go.dev/github.com/vizhost/vizhost/pkg/verrors
package pkg
