// Package registry manages the set of live visualization instances.
//
// This is the core coordination layer: it owns every instance, pairs each
// one's graph with a rendering handle on a drawing surface, and exposes
// the full operation surface - creation, data mutation, view control,
// export, flow validation, and teardown - keyed by caller-chosen string
// IDs.
//
// # Architecture
//
// A [Registry] is an explicit, injectable object; there is no package
// global. It is assembled from four collaborators:
//
//   - [render.Engine] backends that turn graphs into pixels or markup
//   - a [surface.Resolver] that maps instance IDs to drawing surfaces
//   - an [events.Sink] that receives structural change notifications
//   - observability hooks and a logger for operational visibility
//
// Instances are created on one backend and stay there for life; switching
// backends means destroy and recreate. Renderers never see the registry -
// they receive immutable data snapshots and view updates through their
// handle, so all coordination lives here.
//
// # Lifecycle
//
// [Registry.Create] resolves the surface first and fails without side
// effects when it cannot be placed. Reusing a live ID destroys the old
// instance - releasing its handle - before the replacement is built, so a
// given ID never has two live handles. [Registry.Destroy] releases the
// handle and frees the ID; destroying an unknown ID reports
// INSTANCE_NOT_FOUND and changes nothing, which makes repeated destroys
// harmless. [Registry.DestroyAll] sweeps every instance at shutdown.
//
// # Concurrency
//
// The ID table is guarded by one registry mutex and each instance carries
// its own. Operations on different instances run in parallel; operations
// on one instance are serialized, so its graph, view state, and rendered
// output always agree. Event sinks fire after locks are released.
//
// # Errors
//
// Every failure is a coded [verrors.Error] - INSTANCE_NOT_FOUND,
// NODE_NOT_FOUND, INVALID_LAYOUT, CONTAINER_MISSING, and so on - never a
// panic. Graph sentinel errors are translated at this boundary; transports
// map the codes onto their own status space.
package registry
