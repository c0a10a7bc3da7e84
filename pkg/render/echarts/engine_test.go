package echarts

import (
	"context"
	"strings"
	"testing"

	"github.com/vizhost/vizhost/pkg/graph"
	"github.com/vizhost/vizhost/pkg/render"
	"github.com/vizhost/vizhost/pkg/surface"
	"github.com/vizhost/vizhost/pkg/verrors"
)

func TestEngineName(t *testing.T) {
	if got := New(nil).Name(); got != "echarts" {
		t.Errorf("Name() = %q, want %q", got, "echarts")
	}
}

func TestNewHandleRejectsHierarchical(t *testing.T) {
	_, err := New(nil).NewHandle(context.Background(), surface.Surface{ID: "s"}, render.Options{
		Layout: graph.LayoutHierarchical,
	})
	if !verrors.Is(err, verrors.CodeInvalidLayout) {
		t.Errorf("NewHandle() error = %v, want code %s", err, verrors.CodeInvalidLayout)
	}
}

func TestHandleSetLayout(t *testing.T) {
	ctx := context.Background()
	h := &handle{}

	if err := h.SetLayout(ctx, graph.LayoutForce); err != nil {
		t.Errorf("SetLayout(force) error = %v", err)
	}
	if err := h.SetLayout(ctx, graph.LayoutHierarchical); !verrors.Is(err, verrors.CodeInvalidLayout) {
		t.Errorf("SetLayout(hierarchical) error = %v, want code %s", err, verrors.CodeInvalidLayout)
	}
	if err := h.SetLayout(ctx, graph.Layout("circular")); !verrors.Is(err, verrors.CodeInvalidLayout) {
		t.Errorf("SetLayout(circular) error = %v, want code %s", err, verrors.CodeInvalidLayout)
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
		{"Snapshot", func() error { _, err := h.Snapshot(ctx, render.FormatHTML); return err }},
	}

	for _, c := range calls {
		if err := c.err(); !verrors.Is(err, verrors.CodeInternal) {
			t.Errorf("%s on closed handle: error = %v, want code %s", c.name, err, verrors.CodeInternal)
		}
	}
}

func TestSnapshotRejectsSVG(t *testing.T) {
	h := &handle{engine: New(nil), chartID: "c"}

	_, err := h.Snapshot(context.Background(), render.FormatSVG)
	if !verrors.Is(err, verrors.CodeInvalidFormat) {
		t.Errorf("Snapshot(svg) error = %v, want code %s", err, verrors.CodeInvalidFormat)
	}
}

func TestSnapshotHTML(t *testing.T) {
	ctx := context.Background()
	e := New(nil)

	h, err := e.NewHandle(ctx, surface.Surface{ID: "main-canvas"}, render.Options{})
	if err != nil {
		t.Fatalf("NewHandle() error = %v", err)
	}
	defer h.Close()

	data := graph.Data{
		Nodes: []graph.Node{{ID: "a"}, {ID: "b"}},
		Edges: []graph.Edge{{ID: "e1", From: "a", To: "b"}},
	}
	if err := h.ApplyData(ctx, data); err != nil {
		t.Fatalf("ApplyData() error = %v", err)
	}

	frame, err := h.Snapshot(ctx, render.FormatHTML)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if frame.Format != render.FormatHTML {
		t.Errorf("frame.Format = %q, want %q", frame.Format, render.FormatHTML)
	}

	html := string(frame.Data)
	expected := []string{"goecharts_main_canvas", `"name":"a"`, `"name":"b"`}
	for _, exp := range expected {
		if !strings.Contains(html, exp) {
			t.Errorf("snapshot HTML missing %q", exp)
		}
	}
}

func TestSnapshotPNGWithoutCapturer(t *testing.T) {
	ctx := context.Background()
	e := New(nil)

	h, err := e.NewHandle(ctx, surface.Surface{ID: "s"}, render.Options{})
	if err != nil {
		t.Fatalf("NewHandle() error = %v", err)
	}
	defer h.Close()

	_, err = h.Snapshot(ctx, render.FormatPNG)
	if !verrors.Is(err, verrors.CodeCaptureFailed) {
		t.Errorf("Snapshot(png) error = %v, want code %s", err, verrors.CodeCaptureFailed)
	}
}

type stubCapturer struct {
	width, height int
	out           []byte
	err           error
}

func (s *stubCapturer) CapturePNG(ctx context.Context, html []byte, width, height int) ([]byte, error) {
	s.width, s.height = width, height
	return s.out, s.err
}

func TestSnapshotPNGUsesCapturer(t *testing.T) {
	ctx := context.Background()
	capt := &stubCapturer{out: []byte("png-bytes")}
	e := New(capt)

	h, err := e.NewHandle(ctx, surface.Surface{ID: "s"}, render.Options{Width: 800, Height: 400, Scale: 2})
	if err != nil {
		t.Fatalf("NewHandle() error = %v", err)
	}
	defer h.Close()

	frame, err := h.Snapshot(ctx, render.FormatPNG)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if string(frame.Data) != "png-bytes" {
		t.Errorf("frame.Data = %q, want capturer output", frame.Data)
	}
	if capt.width != 1600 || capt.height != 800 {
		t.Errorf("capture viewport = %dx%d, want 1600x800 (scale applied)", capt.width, capt.height)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	h := &handle{}

	if err := h.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
