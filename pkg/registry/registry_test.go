package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vizhost/vizhost/pkg/events"
	"github.com/vizhost/vizhost/pkg/graph"
	"github.com/vizhost/vizhost/pkg/render"
	"github.com/vizhost/vizhost/pkg/surface"
	"github.com/vizhost/vizhost/pkg/verrors"
)

// fakeHandle records everything the registry pushes at it.
type fakeHandle struct {
	mu        sync.Mutex
	data      graph.Data
	applies   int
	physics   bool
	layout    graph.Layout
	highlight map[string]bool
	focused   string
	closes    int

	applyErr  error
	layoutErr error
	snapErr   error
	closeErr  error
}

var _ render.Handle = (*fakeHandle)(nil)

func (h *fakeHandle) ApplyData(_ context.Context, d graph.Data) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.applyErr != nil {
		return h.applyErr
	}
	h.data = d
	h.applies++
	return nil
}

func (h *fakeHandle) SetPhysics(_ context.Context, enabled bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.physics = enabled
	return nil
}

func (h *fakeHandle) SetLayout(_ context.Context, l graph.Layout) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.layoutErr != nil {
		return h.layoutErr
	}
	h.layout = l
	return nil
}

func (h *fakeHandle) Highlight(_ context.Context, nodeIDs map[string]bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.highlight = nodeIDs
	return nil
}

func (h *fakeHandle) Focus(_ context.Context, nodeID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.focused = nodeID
	return nil
}

func (h *fakeHandle) Snapshot(_ context.Context, format render.Format) (render.Frame, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.snapErr != nil {
		return render.Frame{}, h.snapErr
	}
	return render.Frame{Format: format, Data: []byte("frame:" + string(format))}, nil
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closes++
	return h.closeErr
}

// fakeEngine hands out fakeHandles and keeps them for inspection.
type fakeEngine struct {
	name    string
	newErr  error
	handles []*fakeHandle
	opts    []render.Options
}

var _ render.Engine = (*fakeEngine)(nil)

func (e *fakeEngine) Name() string { return e.name }

func (e *fakeEngine) NewHandle(_ context.Context, _ surface.Surface, opts render.Options) (render.Handle, error) {
	if e.newErr != nil {
		return nil, e.newErr
	}
	h := &fakeHandle{}
	e.handles = append(e.handles, h)
	e.opts = append(e.opts, opts)
	return h, nil
}

func newTestRegistry(t *testing.T) (*Registry, *fakeEngine, *events.Recorder) {
	t.Helper()
	engine := &fakeEngine{name: "fake"}
	rec := events.NewRecorder()
	reg, err := New(Options{
		Engines:  []render.Engine{engine},
		Resolver: surface.Static{Width: 800, Height: 600, DPR: 1},
		Sink:     rec,
		Logger:   log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return reg, engine, rec
}

func mustCreate(t *testing.T, reg *Registry, id string) {
	t.Helper()
	if err := reg.Create(context.Background(), id, Config{}); err != nil {
		t.Fatalf("Create(%q) error = %v", id, err)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	engine := &fakeEngine{name: "fake"}
	resolver := surface.Static{Width: 100, Height: 100}

	tests := []struct {
		name string
		opts Options
	}{
		{"no engines", Options{Resolver: resolver}},
		{"no resolver", Options{Engines: []render.Engine{engine}}},
		{"unknown default backend", Options{Engines: []render.Engine{engine}, Resolver: resolver, DefaultBackend: "missing"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); !verrors.Is(err, verrors.CodeInvalidConfig) {
				t.Errorf("New() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestCreateAndGet(t *testing.T) {
	reg, engine, _ := newTestRegistry(t)
	mustCreate(t, reg, "main")

	if reg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", reg.Len())
	}
	info, err := reg.Get("main")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if info.ID != "main" || info.Backend != "fake" {
		t.Errorf("info = %+v, want ID main on backend fake", info)
	}
	if info.Surface.Width != 800 || info.Surface.Height != 600 {
		t.Errorf("surface = %+v, want 800x600", info.Surface)
	}
	if info.View.Layout != graph.LayoutForce {
		t.Errorf("View.Layout = %q, want force default", info.View.Layout)
	}
	if len(engine.handles) != 1 {
		t.Errorf("engine built %d handles, want 1", len(engine.handles))
	}
}

func TestCreatePassesConfigToEngine(t *testing.T) {
	reg, engine, _ := newTestRegistry(t)
	cfg := Config{Physics: true, Layout: graph.LayoutHierarchical, Width: 400, NodeSize: 30}
	if err := reg.Create(context.Background(), "main", cfg); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	opts := engine.opts[0]
	if !opts.Physics || opts.Layout != graph.LayoutHierarchical {
		t.Errorf("opts = %+v, want physics on with hierarchical layout", opts)
	}
	if opts.Width != 400 {
		t.Errorf("opts.Width = %d, want explicit 400", opts.Width)
	}
	if opts.Height != 600 {
		t.Errorf("opts.Height = %d, want 600 from the surface", opts.Height)
	}
	if opts.NodeSize != 30 {
		t.Errorf("opts.NodeSize = %v, want 30", opts.NodeSize)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	tests := []struct {
		name string
		id   string
		cfg  Config
		code verrors.Code
	}{
		{"empty id", "", Config{}, verrors.CodeInvalidInput},
		{"bad layout", "main", Config{Layout: "spiral"}, verrors.CodeInvalidLayout},
		{"negative size", "main", Config{Width: -1}, verrors.CodeInvalidConfig},
		{"unknown backend", "main", Config{Backend: "hologram"}, verrors.CodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Create(context.Background(), tt.id, tt.cfg)
			if !verrors.Is(err, tt.code) {
				t.Errorf("Create() error = %v, want code %s", err, tt.code)
			}
		})
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d after rejected creates, want 0", reg.Len())
	}
}

func TestCreateFailsWhenSurfaceMissing(t *testing.T) {
	engine := &fakeEngine{name: "fake"}
	reg, err := New(Options{
		Engines:  []render.Engine{engine},
		Resolver: surface.NewRegistry(), // nothing attached
		Logger:   log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = reg.Create(context.Background(), "main", Config{})
	if !verrors.Is(err, verrors.CodeContainerMissing) {
		t.Fatalf("Create() error = %v, want CONTAINER_MISSING", err)
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d, want 0 - a failed create must not register anything", reg.Len())
	}
	if len(engine.handles) != 0 {
		t.Errorf("engine built %d handles, want 0", len(engine.handles))
	}
}

func TestCreateReplacesExistingInstance(t *testing.T) {
	reg, engine, _ := newTestRegistry(t)
	mustCreate(t, reg, "main")
	if err := reg.AddNode(context.Background(), "main", graph.Node{ID: "orphan"}); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}

	// Same ID again: the old handle must be released and the data gone.
	mustCreate(t, reg, "main")

	if reg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 live instance after reuse", reg.Len())
	}
	if len(engine.handles) != 2 {
		t.Fatalf("engine built %d handles, want 2", len(engine.handles))
	}
	if engine.handles[0].closes != 1 {
		t.Errorf("old handle closed %d times, want exactly 1", engine.handles[0].closes)
	}
	if engine.handles[1].closes != 0 {
		t.Errorf("new handle closed %d times, want 0", engine.handles[1].closes)
	}
	info, err := reg.Get("main")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if info.Nodes != 0 {
		t.Errorf("replacement has %d nodes, want 0 - state must not carry over", info.Nodes)
	}
}

func TestDestroy(t *testing.T) {
	reg, engine, _ := newTestRegistry(t)
	mustCreate(t, reg, "main")

	if err := reg.Destroy(context.Background(), "main"); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d, want 0", reg.Len())
	}
	if engine.handles[0].closes != 1 {
		t.Errorf("handle closed %d times, want 1", engine.handles[0].closes)
	}

	// Second destroy of the same ID: not-found, nothing re-released.
	err := reg.Destroy(context.Background(), "main")
	if !verrors.Is(err, verrors.CodeInstanceNotFound) {
		t.Fatalf("second Destroy() error = %v, want INSTANCE_NOT_FOUND", err)
	}
	if engine.handles[0].closes != 1 {
		t.Errorf("handle closed %d times after double destroy, want still 1", engine.handles[0].closes)
	}
}

func TestDestroyedInstanceRejectsOperations(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	mustCreate(t, reg, "main")
	if err := reg.Destroy(context.Background(), "main"); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}

	ctx := context.Background()
	calls := []struct {
		name string
		call func() error
	}{
		{"SetData", func() error { return reg.SetData(ctx, "main", graph.Data{}) }},
		{"AddNode", func() error { return reg.AddNode(ctx, "main", graph.Node{ID: "a"}) }},
		{"Highlight", func() error { return reg.Highlight(ctx, "main", []string{"a"}) }},
		{"SetPhysics", func() error { return reg.SetPhysics(ctx, "main", true) }},
		{"FocusNode", func() error { return reg.FocusNode(ctx, "main", "a") }},
		{"ExportImage", func() error { _, err := reg.ExportImage(ctx, "main"); return err }},
		{"Get", func() error { _, err := reg.Get("main"); return err }},
	}
	for _, c := range calls {
		if err := c.call(); !verrors.Is(err, verrors.CodeInstanceNotFound) {
			t.Errorf("%s on destroyed instance: error = %v, want INSTANCE_NOT_FOUND", c.name, err)
		}
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d, want 0 - operations must not resurrect instances", reg.Len())
	}
}

func TestDestroyAll(t *testing.T) {
	reg, engine, _ := newTestRegistry(t)
	for _, id := range []string{"a", "b", "c"} {
		mustCreate(t, reg, id)
	}

	if err := reg.DestroyAll(context.Background()); err != nil {
		t.Fatalf("DestroyAll() error = %v", err)
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d, want 0", reg.Len())
	}
	for i, h := range engine.handles {
		if h.closes != 1 {
			t.Errorf("handle %d closed %d times, want 1", i, h.closes)
		}
	}

	// Sweeping an empty registry is fine.
	if err := reg.DestroyAll(context.Background()); err != nil {
		t.Errorf("DestroyAll() on empty registry error = %v", err)
	}
}

func TestDestroyAllJoinsCloseErrors(t *testing.T) {
	reg, engine, _ := newTestRegistry(t)
	mustCreate(t, reg, "a")
	mustCreate(t, reg, "b")
	engine.handles[0].closeErr = errors.New("gpu context lost")

	err := reg.DestroyAll(context.Background())
	if !verrors.Is(err, verrors.CodeRenderFailed) {
		t.Fatalf("DestroyAll() error = %v, want RENDER_FAILED", err)
	}
	// The failing handle must not stop the sweep.
	if engine.handles[1].closes != 1 {
		t.Errorf("second handle closed %d times, want 1", engine.handles[1].closes)
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d, want 0", reg.Len())
	}
}

func TestList(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	for _, id := range []string{"zeta", "alpha", "mid"} {
		mustCreate(t, reg, id)
	}

	infos := reg.List()
	got := make([]string, len(infos))
	for i, info := range infos {
		got[i] = info.ID
	}
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List() IDs = %v, want %v", got, want)
		}
	}
}

func TestDefaultBackendSelection(t *testing.T) {
	first := &fakeEngine{name: "first"}
	second := &fakeEngine{name: "second"}
	reg, err := New(Options{
		Engines:        []render.Engine{first, second},
		DefaultBackend: "second",
		Resolver:       surface.Static{Width: 100, Height: 100},
		Logger:         log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	mustCreate(t, reg, "default")
	if err := reg.Create(context.Background(), "explicit", Config{Backend: "first"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if len(second.handles) != 1 {
		t.Errorf("default backend built %d handles, want 1", len(second.handles))
	}
	if len(first.handles) != 1 {
		t.Errorf("explicit backend built %d handles, want 1", len(first.handles))
	}
	info, _ := reg.Get("default")
	if info.Backend != "second" {
		t.Errorf("Backend = %q, want %q", info.Backend, "second")
	}
}

func TestCreateEngineFailureLeavesNoInstance(t *testing.T) {
	reg, engine, _ := newTestRegistry(t)
	engine.newErr = errors.New("wasm init failed")

	if err := reg.Create(context.Background(), "main", Config{}); err == nil {
		t.Fatal("Create() succeeded, want engine error")
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d, want 0", reg.Len())
	}
	if _, err := reg.Get("main"); !verrors.Is(err, verrors.CodeInstanceNotFound) {
		t.Errorf("Get() error = %v, want INSTANCE_NOT_FOUND", err)
	}
}

// gatedEngine parks NewHandle on a gate so tests can hold a create in
// flight. A nil gate builds handles immediately.
type gatedEngine struct {
	fakeEngine
	mu      sync.Mutex
	gate    chan struct{}
	entered chan struct{}
}

func (e *gatedEngine) NewHandle(ctx context.Context, surf surface.Surface, opts render.Options) (render.Handle, error) {
	if e.gate != nil {
		e.entered <- struct{}{}
		<-e.gate
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fakeEngine.NewHandle(ctx, surf, opts)
}

func TestCreateDoesNotBlockOtherInstances(t *testing.T) {
	engine := &gatedEngine{fakeEngine: fakeEngine{name: "fake"}}
	reg, err := New(Options{
		Engines:  []render.Engine{engine},
		Resolver: surface.Static{Width: 800, Height: 600, DPR: 1},
		Logger:   log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	mustCreate(t, reg, "a")

	engine.gate = make(chan struct{})
	engine.entered = make(chan struct{})
	created := make(chan error, 1)
	go func() { created <- reg.Create(context.Background(), "b", Config{}) }()
	<-engine.entered // the create is now inside the backend

	lookedUp := make(chan struct{})
	go func() {
		defer close(lookedUp)
		if _, err := reg.Get("a"); err != nil {
			t.Errorf("Get(a) error = %v", err)
		}
		if err := reg.AddNode(context.Background(), "a", graph.Node{ID: "n"}); err != nil {
			t.Errorf("AddNode(a) error = %v", err)
		}
	}()
	select {
	case <-lookedUp:
	case <-time.After(2 * time.Second):
		t.Fatal("operations on another instance blocked behind an in-flight create")
	}

	close(engine.gate)
	if err := <-created; err != nil {
		t.Fatalf("Create(b) error = %v", err)
	}
	if _, err := reg.Get("b"); err != nil {
		t.Errorf("Get(b) error = %v", err)
	}
}

func TestConcurrentCreateSameIDLeavesOneLiveHandle(t *testing.T) {
	engine := &gatedEngine{
		fakeEngine: fakeEngine{name: "fake"},
		gate:       make(chan struct{}),
		entered:    make(chan struct{}, 2),
	}
	reg, err := New(Options{
		Engines:  []render.Engine{engine},
		Resolver: surface.Static{Width: 800, Height: 600, DPR: 1},
		Logger:   log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := reg.Create(context.Background(), "main", Config{}); err != nil {
				t.Errorf("Create() error = %v", err)
			}
		}()
	}
	<-engine.entered
	<-engine.entered
	close(engine.gate)
	wg.Wait()

	if reg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", reg.Len())
	}
	closes := engine.handles[0].closes + engine.handles[1].closes
	if closes != 1 {
		t.Errorf("handles closed %d times in total, want exactly 1 - the losing create must release its handle", closes)
	}
	// Whichever create won, the surviving instance serves operations.
	if err := reg.AddNode(context.Background(), "main", graph.Node{ID: "n"}); err != nil {
		t.Errorf("AddNode() error = %v", err)
	}
}

func TestConcurrentOpsOnDistinctInstances(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		mustCreate(t, reg, id)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(id string, i int) {
				defer wg.Done()
				_ = reg.AddNode(context.Background(), id, graph.Node{ID: fmt.Sprintf("n%d", i)})
			}(id, i)
		}
	}
	wg.Wait()

	for _, id := range ids {
		info, err := reg.Get(id)
		if err != nil {
			t.Fatalf("Get(%q) error = %v", id, err)
		}
		if info.Nodes != 10 {
			t.Errorf("instance %q has %d nodes, want 10", id, info.Nodes)
		}
	}
}
