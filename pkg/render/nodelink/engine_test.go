package nodelink

import (
	"context"
	"testing"

	"github.com/vizhost/vizhost/pkg/graph"
	"github.com/vizhost/vizhost/pkg/render"
	"github.com/vizhost/vizhost/pkg/verrors"
)

func TestEngineName(t *testing.T) {
	if got := New().Name(); got != "nodelink" {
		t.Errorf("Name() = %q, want %q", got, "nodelink")
	}
}

func TestHandleRejectsUnknownLayout(t *testing.T) {
	h := &handle{layout: graph.LayoutForce}

	err := h.SetLayout(context.Background(), graph.Layout("circular"))
	if !verrors.Is(err, verrors.CodeInvalidLayout) {
		t.Errorf("SetLayout() error = %v, want code %s", err, verrors.CodeInvalidLayout)
	}
	if h.layout != graph.LayoutForce {
		t.Errorf("SetLayout() changed layout to %q on failure", h.layout)
	}
}

func TestHandleSetLayout(t *testing.T) {
	h := &handle{layout: graph.LayoutForce}

	if err := h.SetLayout(context.Background(), graph.LayoutHierarchical); err != nil {
		t.Fatalf("SetLayout() error = %v", err)
	}
	if h.layout != graph.LayoutHierarchical {
		t.Errorf("layout = %q, want %q", h.layout, graph.LayoutHierarchical)
	}
}

func TestClosedHandleRejectsCalls(t *testing.T) {
	ctx := context.Background()
	h := &handle{closed: true}

	calls := []struct {
		name string
		err  func() error
	}{
		{"ApplyData", func() error { return h.ApplyData(ctx, graph.Data{}) }},
		{"SetPhysics", func() error { return h.SetPhysics(ctx, true) }},
		{"SetLayout", func() error { return h.SetLayout(ctx, graph.LayoutForce) }},
		{"Highlight", func() error { return h.Highlight(ctx, nil) }},
		{"Focus", func() error { return h.Focus(ctx, "a") }},
		{"Snapshot", func() error { _, err := h.Snapshot(ctx, render.FormatSVG); return err }},
	}

	for _, c := range calls {
		if err := c.err(); !verrors.Is(err, verrors.CodeInternal) {
			t.Errorf("%s on closed handle: error = %v, want code %s", c.name, err, verrors.CodeInternal)
		}
	}
}

func TestSnapshotRejectsHTML(t *testing.T) {
	h := &handle{}

	_, err := h.Snapshot(context.Background(), render.FormatHTML)
	if !verrors.Is(err, verrors.CodeInvalidFormat) {
		t.Errorf("Snapshot(html) error = %v, want code %s", err, verrors.CodeInvalidFormat)
	}
}

func TestHandleHighlightCopiesSet(t *testing.T) {
	h := &handle{}
	ids := map[string]bool{"a": true}

	if err := h.Highlight(context.Background(), ids); err != nil {
		t.Fatalf("Highlight() error = %v", err)
	}

	ids["b"] = true
	if len(h.highlighted) != 1 {
		t.Errorf("highlighted has %d entries, want 1 (set should be copied)", len(h.highlighted))
	}

	if err := h.Highlight(context.Background(), nil); err != nil {
		t.Fatalf("Highlight(nil) error = %v", err)
	}
	if h.highlighted != nil {
		t.Error("Highlight(nil) should clear the set")
	}
}

func TestHandleApplyDataClones(t *testing.T) {
	h := &handle{}
	d := graph.Data{Nodes: []graph.Node{{ID: "a"}}}

	if err := h.ApplyData(context.Background(), d); err != nil {
		t.Fatalf("ApplyData() error = %v", err)
	}

	d.Nodes[0].ID = "mutated"
	if h.data.Nodes[0].ID != "a" {
		t.Error("ApplyData() should clone the data, not alias it")
	}
}

func TestHandleFocus(t *testing.T) {
	h := &handle{}

	if err := h.Focus(context.Background(), "a"); err != nil {
		t.Fatalf("Focus() error = %v", err)
	}
	if h.focus != "a" {
		t.Errorf("focus = %q, want %q", h.focus, "a")
	}
}
