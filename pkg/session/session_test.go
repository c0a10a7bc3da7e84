package session

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vizhost/vizhost/pkg/graph"
	"github.com/vizhost/vizhost/pkg/registry"
	"github.com/vizhost/vizhost/pkg/render"
	"github.com/vizhost/vizhost/pkg/surface"
)

func testSession(id, name string) *Session {
	now := time.Now().UTC().Truncate(time.Second)
	return &Session{
		ID:    id,
		Name:  name,
		Theme: map[string]string{"--viz-bg": "#ffffff"},
		Instances: []Instance{
			{
				ID:     "flow",
				Config: registry.Config{Physics: true, Width: 640},
				Data: graph.Data{
					Nodes: []graph.Node{{ID: "start", Role: graph.RoleEntry}, {ID: "done", Role: graph.RoleTerminal}},
					Edges: []graph.Edge{{ID: "e1", From: "start", To: "done"}},
				},
				View: graph.ViewState{Physics: true, Layout: graph.LayoutForce, Highlighted: []string{"start"}, Selected: []string{"start"}},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	fileStore, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			ctx := context.Background()

			if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
			}

			sess := testSession("s1", "checkout-debug")
			if err := store.Put(ctx, sess); err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			got, err := store.Get(ctx, "s1")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Name != "checkout-debug" {
				t.Errorf("Name = %q, want checkout-debug", got.Name)
			}
			if got.Theme["--viz-bg"] != "#ffffff" {
				t.Errorf("Theme = %v, want the saved variables", got.Theme)
			}
			if len(got.Instances) != 1 {
				t.Fatalf("Instances = %d, want 1", len(got.Instances))
			}
			inst := got.Instances[0]
			if inst.ID != "flow" || !inst.Config.Physics || inst.Config.Width != 640 {
				t.Errorf("instance = %+v, want flow with physics and width 640", inst)
			}
			if len(inst.Data.Nodes) != 2 || len(inst.Data.Edges) != 1 {
				t.Errorf("data = %d nodes %d edges, want 2 and 1", len(inst.Data.Nodes), len(inst.Data.Edges))
			}
			if !slices.Equal(inst.View.Highlighted, []string{"start"}) {
				t.Errorf("Highlighted = %v, want [start]", inst.View.Highlighted)
			}

			if err := store.Delete(ctx, "s1"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
			}
			// Deleting again is a no-op.
			if err := store.Delete(ctx, "s1"); err != nil {
				t.Errorf("repeat Delete() error = %v, want nil", err)
			}
		})
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			ctx := context.Background()

			base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			for i, id := range []string{"old", "mid", "new"} {
				sess := testSession(id, id)
				sess.UpdatedAt = base.Add(time.Duration(i) * time.Hour)
				if err := store.Put(ctx, sess); err != nil {
					t.Fatalf("Put(%q) error = %v", id, err)
				}
			}

			summaries, err := store.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			got := make([]string, len(summaries))
			for i, s := range summaries {
				got[i] = s.ID
			}
			want := []string{"new", "mid", "old"}
			if !slices.Equal(got, want) {
				t.Errorf("List() order = %v, want %v", got, want)
			}
			if summaries[0].Instances != 1 {
				t.Errorf("summary instance count = %d, want 1", summaries[0].Instances)
			}
		})
	}
}

func TestStorePutOverwrites(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			ctx := context.Background()

			if err := store.Put(ctx, testSession("s1", "before")); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			renamed := testSession("s1", "after")
			if err := store.Put(ctx, renamed); err != nil {
				t.Fatalf("Put() overwrite error = %v", err)
			}

			got, err := store.Get(ctx, "s1")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Name != "after" {
				t.Errorf("Name = %q, want after", got.Name)
			}
			summaries, _ := store.List(ctx)
			if len(summaries) != 1 {
				t.Errorf("List() = %d sessions, want 1", len(summaries))
			}
		})
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	sess := testSession("s1", "original")
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// Mutating the caller's copy after Put must not reach the store.
	sess.Name = "mutated"
	sess.Instances[0].Data.Nodes[0].Label = "mutated"

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "original" {
		t.Errorf("Name = %q, want original", got.Name)
	}
	if got.Instances[0].Data.Nodes[0].Label != "" {
		t.Errorf("node label = %q, want untouched", got.Instances[0].Data.Nodes[0].Label)
	}

	// And mutating what Get returned must not reach the store either.
	got.Instances[0].View.Highlighted[0] = "mutated"
	again, _ := store.Get(ctx, "s1")
	if again.Instances[0].View.Highlighted[0] != "start" {
		t.Error("mutation through a Get result leaked into the store")
	}
}

func TestFileStoreRejectsBadIDs(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	for _, id := range []string{"", "a/b", `a\b`, "..", "../escape"} {
		if _, err := store.Get(ctx, id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("Get(%q) error = %v, want ErrInvalidID", id, err)
		}
		if err := store.Put(ctx, testSession(id, "x")); !errors.Is(err, ErrInvalidID) {
			t.Errorf("Put(%q) error = %v, want ErrInvalidID", id, err)
		}
	}
}

func TestFileStoreSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()
	if err := store.Put(ctx, testSession("good", "good")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	summaries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(summaries) != 1 || summaries[0].ID != "good" {
		t.Errorf("List() = %+v, want only the good session", summaries)
	}
}

// =============================================================================
// Snapshot / Restore
// =============================================================================

type stubHandle struct {
	data      graph.Data
	physics   bool
	layout    graph.Layout
	highlight map[string]bool
}

var _ render.Handle = (*stubHandle)(nil)

func (h *stubHandle) ApplyData(_ context.Context, d graph.Data) error { h.data = d; return nil }
func (h *stubHandle) SetPhysics(_ context.Context, on bool) error     { h.physics = on; return nil }
func (h *stubHandle) SetLayout(_ context.Context, l graph.Layout) error {
	h.layout = l
	return nil
}
func (h *stubHandle) Highlight(_ context.Context, ids map[string]bool) error {
	h.highlight = ids
	return nil
}
func (h *stubHandle) Focus(context.Context, string) error { return nil }
func (h *stubHandle) Snapshot(_ context.Context, f render.Format) (render.Frame, error) {
	return render.Frame{Format: f}, nil
}
func (h *stubHandle) Close() error { return nil }

type stubEngine struct{ handles []*stubHandle }

var _ render.Engine = (*stubEngine)(nil)

func (e *stubEngine) Name() string { return "stub" }
func (e *stubEngine) NewHandle(context.Context, surface.Surface, render.Options) (render.Handle, error) {
	h := &stubHandle{}
	e.handles = append(e.handles, h)
	return h, nil
}

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New(registry.Options{
		Engines:  []render.Engine{&stubEngine{}},
		Resolver: surface.Static{Width: 800, Height: 600, DPR: 1},
		Logger:   log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}
	return reg
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestRegistry(t)

	if err := src.Create(ctx, "flow", registry.Config{Width: 640}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	data := graph.Data{
		Nodes: []graph.Node{
			{ID: "start", Role: graph.RoleEntry},
			{ID: "checkout"},
			{ID: "done", Role: graph.RoleTerminal},
		},
		Edges: []graph.Edge{
			{ID: "e1", From: "start", To: "checkout"},
			{ID: "e2", From: "checkout", To: "done"},
		},
	}
	if err := src.SetData(ctx, "flow", data); err != nil {
		t.Fatalf("SetData() error = %v", err)
	}
	if err := src.Highlight(ctx, "flow", []string{"checkout"}); err != nil {
		t.Fatalf("Highlight() error = %v", err)
	}
	if err := src.SetPhysics(ctx, "flow", true); err != nil {
		t.Fatalf("SetPhysics() error = %v", err)
	}
	if err := src.Create(ctx, "aux", registry.Config{}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	sess := Snapshot(src, "debug-session", map[string]string{"--viz-bg": "#111111"})
	if sess.Name != "debug-session" || sess.ID == "" {
		t.Fatalf("session = %+v, want named with generated ID", sess)
	}
	if len(sess.Instances) != 2 {
		t.Fatalf("snapshot has %d instances, want 2", len(sess.Instances))
	}

	// Persist through a real backend so the round trip covers the
	// serialized form, then restore into a fresh registry.
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	loaded, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	dst := newTestRegistry(t)
	if err := Restore(ctx, dst, loaded); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if dst.Len() != 2 {
		t.Fatalf("restored registry has %d instances, want 2", dst.Len())
	}
	got, err := dst.Data("flow")
	if err != nil {
		t.Fatalf("Data() error = %v", err)
	}
	if len(got.Nodes) != 3 || len(got.Edges) != 2 {
		t.Errorf("restored data = %d nodes %d edges, want 3 and 2", len(got.Nodes), len(got.Edges))
	}
	view, err := dst.View("flow")
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if !view.Physics {
		t.Error("restored Physics = false, want the drifted true")
	}
	if !slices.Equal(view.Highlighted, []string{"checkout"}) {
		t.Errorf("restored Highlighted = %v, want [checkout]", view.Highlighted)
	}
	if loaded.Theme["--viz-bg"] != "#111111" {
		t.Errorf("Theme = %v, want saved vars intact", loaded.Theme)
	}
}

func TestRestoreReplacesExistingInstances(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)

	if err := reg.Create(ctx, "flow", registry.Config{}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := reg.AddNode(ctx, "flow", graph.Node{ID: "stale"}); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}

	if err := Restore(ctx, reg, testSession("s1", "saved")); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	data, err := reg.Data("flow")
	if err != nil {
		t.Fatalf("Data() error = %v", err)
	}
	for _, n := range data.Nodes {
		if n.ID == "stale" {
			t.Error("restore kept a node from the pre-restore instance")
		}
	}
	if len(data.Nodes) != 2 {
		t.Errorf("restored data has %d nodes, want 2", len(data.Nodes))
	}
}

func TestSnapshotIsIndependentOfRegistry(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)
	if err := reg.Create(ctx, "flow", registry.Config{}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := reg.AddNode(ctx, "flow", graph.Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}

	sess := Snapshot(reg, "frozen", nil)

	// Registry moves on; the snapshot must not.
	if err := reg.AddNode(ctx, "flow", graph.Node{ID: "b"}); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}
	if len(sess.Instances[0].Data.Nodes) != 1 {
		t.Errorf("snapshot data has %d nodes, want 1", len(sess.Instances[0].Data.Nodes))
	}
}
