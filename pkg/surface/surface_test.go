package surface

import (
	"errors"
	"testing"
)

func TestRegistryAttachResolve(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Resolve("canvas-1"); ok {
		t.Error("resolved surface before attach")
	}

	if err := r.Attach(Surface{ID: "canvas-1", Width: 800, Height: 600}); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	s, ok := r.Resolve("canvas-1")
	if !ok {
		t.Fatal("surface not resolved after attach")
	}
	if s.Width != 800 || s.Height != 600 {
		t.Errorf("surface = %+v", s)
	}
}

func TestRegistryAttachEmptyID(t *testing.T) {
	r := NewRegistry()
	if err := r.Attach(Surface{}); !errors.Is(err, ErrEmptyID) {
		t.Errorf("err = %v, want ErrEmptyID", err)
	}
}

func TestRegistryAttachReplaces(t *testing.T) {
	r := NewRegistry()
	r.Attach(Surface{ID: "c", Width: 100})
	r.Attach(Surface{ID: "c", Width: 200})

	s, _ := r.Resolve("c")
	if s.Width != 200 {
		t.Errorf("width = %d, want 200", s.Width)
	}
	if got := len(r.List()); got != 1 {
		t.Errorf("surfaces = %d, want 1", got)
	}
}

func TestRegistryDetach(t *testing.T) {
	r := NewRegistry()
	r.Attach(Surface{ID: "c"})
	r.Detach("c")

	if _, ok := r.Resolve("c"); ok {
		t.Error("surface resolved after detach")
	}

	// Detaching an unknown ID is a no-op.
	r.Detach("ghost")
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	r.Attach(Surface{ID: "b"})
	r.Attach(Surface{ID: "a"})
	r.Attach(Surface{ID: "c"})

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("surfaces = %d, want 3", len(list))
	}
	for i, want := range []string{"a", "b", "c"} {
		if list[i].ID != want {
			t.Errorf("list[%d] = %q, want %q", i, list[i].ID, want)
		}
	}
}

func TestStatic(t *testing.T) {
	s := Static{Width: 1024, Height: 768, DPR: 2}

	got, ok := s.Resolve("anything")
	if !ok {
		t.Fatal("static resolver must always resolve")
	}
	if got.ID != "anything" || got.Width != 1024 || got.Height != 768 || got.DPR != 2 {
		t.Errorf("surface = %+v", got)
	}
}
