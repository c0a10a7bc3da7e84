package registry

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vizhost/vizhost/pkg/events"
	"github.com/vizhost/vizhost/pkg/graph"
	"github.com/vizhost/vizhost/pkg/observability"
	"github.com/vizhost/vizhost/pkg/render"
	"github.com/vizhost/vizhost/pkg/surface"
	"github.com/vizhost/vizhost/pkg/verrors"
)

// Registry owns every live visualization instance, keyed by caller-chosen
// string IDs. It is the single entry point for creating, mutating, and
// destroying instances; nothing else touches rendering handles.
//
// A coarse registry mutex guards the ID table and a per-instance mutex
// serializes operations on each instance, so work on different instances
// proceeds in parallel while the graph, view state, and handle of any one
// instance always change together. Event sinks are invoked after locks are
// released and must tolerate being called from any goroutine.
type Registry struct {
	mu        sync.Mutex
	instances map[string]*instance

	engines        map[string]render.Engine
	defaultBackend string
	resolver       surface.Resolver
	sink           events.Sink
	logger         *log.Logger
}

// Options configures a registry. Engines and Resolver are required; the
// rest defaults.
type Options struct {
	// Engines lists the rendering backends instances can be created on.
	Engines []render.Engine
	// DefaultBackend names the engine used when a config leaves Backend
	// empty. Defaults to the first engine.
	DefaultBackend string
	// Resolver maps instance IDs to drawing surfaces. Creation fails for
	// IDs the resolver cannot place.
	Resolver surface.Resolver
	// Sink receives structural change events. Defaults to a no-op sink.
	Sink events.Sink
	// Logger receives lifecycle logs. Defaults to [log.Default].
	Logger *log.Logger
}

// New creates an empty registry.
func New(opts Options) (*Registry, error) {
	if len(opts.Engines) == 0 {
		return nil, verrors.New(verrors.CodeInvalidConfig, "registry needs at least one rendering engine")
	}
	if opts.Resolver == nil {
		return nil, verrors.New(verrors.CodeInvalidConfig, "registry needs a surface resolver")
	}
	engines := make(map[string]render.Engine, len(opts.Engines))
	for _, e := range opts.Engines {
		engines[e.Name()] = e
	}
	def := opts.DefaultBackend
	if def == "" {
		def = opts.Engines[0].Name()
	}
	if _, ok := engines[def]; !ok {
		return nil, verrors.New(verrors.CodeInvalidConfig, "default backend %q is not a registered engine", def)
	}
	sink := opts.Sink
	if sink == nil {
		sink = events.Noop{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		instances:      make(map[string]*instance),
		engines:        engines,
		defaultBackend: def,
		resolver:       opts.Resolver,
		sink:           sink,
		logger:         logger,
	}, nil
}

// =============================================================================
// Lifecycle
// =============================================================================

// Create allocates an instance at id. If an instance already lives there,
// it is destroyed first - its handle fully released - before the
// replacement is built, so an ID reuse can never leak backend state or
// leave two handles on one surface.
//
// The surface is resolved before anything is torn down: when the resolver
// cannot place id, Create fails with CONTAINER_MISSING and the existing
// instance (if any) is untouched.
func (r *Registry) Create(ctx context.Context, id string, cfg Config) error {
	start := time.Now()
	err := r.create(ctx, id, cfg)
	return r.finish(ctx, "create", start, err)
}

func (r *Registry) create(ctx context.Context, id string, cfg Config) error {
	if id == "" {
		return verrors.New(verrors.CodeInvalidInput, "instance ID must not be empty")
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	engine, err := r.engine(cfg.Backend)
	if err != nil {
		return err
	}
	surf, ok := r.resolver.Resolve(id)
	if !ok {
		return verrors.New(verrors.CodeContainerMissing, "no drawing surface for %q", id)
	}

	// Claim the slot first so the old handle is fully released before its
	// replacement exists, then drop the registry lock: handle teardown and
	// construction can be slow (wasm engine init, browser spin-up) and must
	// not stall lookups on unrelated instances.
	r.mu.Lock()
	old, existed := r.instances[id]
	delete(r.instances, id)
	r.mu.Unlock()

	if existed {
		if cerr := old.destroy(); cerr != nil {
			// The slot is free either way; the replacement proceeds.
			r.logger.Warn("release of replaced instance failed", "id", id, "err", cerr)
		}
		observability.Registry().OnInstanceDestroyed(ctx, id)
	}

	handle, err := engine.NewHandle(ctx, surf, cfg.options(surf))
	if err != nil {
		return err
	}

	inst := &instance{
		id:      id,
		backend: engine.Name(),
		surf:    surf,
		config:  cfg,
		graph:   graph.New(),
		view: graph.ViewState{
			Physics: cfg.Physics,
			Layout:  cfg.layout(),
		},
		handle: handle,
	}

	r.mu.Lock()
	displaced := r.instances[id]
	r.instances[id] = inst
	r.mu.Unlock()
	if displaced != nil {
		// A concurrent create on the same ID published while this handle
		// was being built. The later publish wins; the earlier handle is
		// released so the ID never holds two live handles.
		if cerr := displaced.destroy(); cerr != nil {
			r.logger.Warn("release of displaced instance failed", "id", id, "err", cerr)
		}
		observability.Registry().OnInstanceDestroyed(ctx, id)
	}

	observability.Registry().OnInstanceCreated(ctx, id, inst.backend)
	r.logger.Info("created instance", "id", id, "backend", inst.backend, "surface", surf.ID)
	return nil
}

// Destroy removes the instance at id and releases its rendering handle.
// Destroying an ID with no live instance returns INSTANCE_NOT_FOUND and
// changes nothing, so a second Destroy of the same ID is a harmless no-op
// callers can ignore.
func (r *Registry) Destroy(ctx context.Context, id string) error {
	start := time.Now()
	err := r.destroy(ctx, id)
	return r.finish(ctx, "destroy", start, err)
}

func (r *Registry) destroy(ctx context.Context, id string) error {
	r.mu.Lock()
	inst, ok := r.instances[id]
	delete(r.instances, id)
	r.mu.Unlock()
	if !ok {
		return verrors.New(verrors.CodeInstanceNotFound, "no instance %q", id)
	}
	err := inst.destroy()
	observability.Registry().OnInstanceDestroyed(ctx, id)
	r.logger.Info("destroyed instance", "id", id)
	return err
}

// DestroyAll tears down every live instance and empties the registry.
// Handles are released in ID order; release failures are joined and
// returned after the sweep finishes, never aborting it.
func (r *Registry) DestroyAll(ctx context.Context) error {
	start := time.Now()

	r.mu.Lock()
	ids := slices.Sorted(maps.Keys(r.instances))
	insts := make([]*instance, 0, len(ids))
	for _, id := range ids {
		insts = append(insts, r.instances[id])
	}
	clear(r.instances)
	r.mu.Unlock()

	var errs []error
	for _, inst := range insts {
		if err := inst.destroy(); err != nil {
			errs = append(errs, err)
		}
		observability.Registry().OnInstanceDestroyed(ctx, inst.id)
	}
	if len(insts) > 0 {
		r.logger.Info("destroyed all instances", "count", len(insts))
	}
	return r.finish(ctx, "destroyAll", start, errors.Join(errs...))
}

// =============================================================================
// Reads
// =============================================================================

// Get returns a snapshot description of the instance at id.
func (r *Registry) Get(id string) (Info, error) {
	var info Info
	err := r.withInstance(id, func(inst *instance) error {
		info = inst.info()
		return nil
	})
	return info, err
}

// List returns snapshot descriptions of every live instance, sorted by ID.
func (r *Registry) List() []Info {
	r.mu.Lock()
	insts := slices.SortedFunc(maps.Values(r.instances), func(a, b *instance) int {
		return strings.Compare(a.id, b.id)
	})
	r.mu.Unlock()

	infos := make([]Info, 0, len(insts))
	for _, inst := range insts {
		inst.mu.Lock()
		if !inst.destroyed {
			infos = append(infos, inst.info())
		}
		inst.mu.Unlock()
	}
	return infos
}

// Len reports the number of live instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

// Data returns a deep copy of the instance's graph.
func (r *Registry) Data(id string) (graph.Data, error) {
	var d graph.Data
	err := r.withInstance(id, func(inst *instance) error {
		d = inst.graph.Snapshot()
		return nil
	})
	return d, err
}

// Describe returns the instance's description and a deep copy of its
// graph from a single lock acquisition. Get followed by Data can
// interleave with a mutation and describe two different states;
// Describe cannot.
func (r *Registry) Describe(id string) (Info, graph.Data, error) {
	var (
		info Info
		d    graph.Data
	)
	err := r.withInstance(id, func(inst *instance) error {
		info = inst.info()
		d = inst.graph.Snapshot()
		return nil
	})
	return info, d, err
}

// View returns a copy of the instance's view state.
func (r *Registry) View(id string) (graph.ViewState, error) {
	var v graph.ViewState
	err := r.withInstance(id, func(inst *instance) error {
		v = inst.view.Clone()
		return nil
	})
	return v, err
}

// =============================================================================
// Internals
// =============================================================================

// engine resolves a backend name, empty meaning the default.
func (r *Registry) engine(name string) (render.Engine, error) {
	if name == "" {
		name = r.defaultBackend
	}
	e, ok := r.engines[name]
	if !ok {
		return nil, verrors.New(verrors.CodeInvalidConfig, "unknown rendering backend %q", name)
	}
	return e, nil
}

// withInstance runs fn with the instance at id locked. The destroyed flag
// is re-checked under the instance lock: a Destroy racing with the lookup
// marks the instance before releasing the handle, so fn never runs against
// a dead one.
func (r *Registry) withInstance(id string, fn func(*instance) error) error {
	r.mu.Lock()
	inst, ok := r.instances[id]
	r.mu.Unlock()
	if !ok {
		return verrors.New(verrors.CodeInstanceNotFound, "no instance %q", id)
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.destroyed {
		return verrors.New(verrors.CodeInstanceNotFound, "no instance %q", id)
	}
	return fn(inst)
}

// finish reports the operation to the observability hooks and passes the
// error through unchanged.
func (r *Registry) finish(ctx context.Context, op string, start time.Time, err error) error {
	observability.Registry().OnOperation(ctx, op, time.Since(start), err)
	return err
}
