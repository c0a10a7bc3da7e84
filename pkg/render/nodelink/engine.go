package nodelink

import (
	"bytes"
	"context"
	"maps"
	"sync"

	"github.com/goccy/go-graphviz"

	"github.com/vizhost/vizhost/pkg/graph"
	"github.com/vizhost/vizhost/pkg/render"
	"github.com/vizhost/vizhost/pkg/surface"
	"github.com/vizhost/vizhost/pkg/verrors"
)

// Engine creates Graphviz-backed rendering handles.
type Engine struct{}

var _ render.Engine = (*Engine)(nil)

// New returns the node-link engine.
func New() *Engine {
	return &Engine{}
}

// Name reports the backend identifier used in configuration.
func (e *Engine) Name() string { return "nodelink" }

// NewHandle boots a Graphviz instance bound to the given surface. The
// instance stays alive until [render.Handle.Close] releases it.
func (e *Engine) NewHandle(ctx context.Context, surf surface.Surface, opts render.Options) (render.Handle, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, verrors.Wrap(verrors.CodeRenderFailed, err, "init graphviz for surface %q", surf.ID)
	}

	norm := opts.Normalized()
	return &handle{
		gv:      gv,
		opts:    norm,
		physics: norm.Physics,
		layout:  norm.Layout,
	}, nil
}

// handle retains graph data and view flags between snapshots. All methods
// serialize on one mutex; the Graphviz instance is not safe for concurrent
// renders.
type handle struct {
	mu          sync.Mutex
	gv          *graphviz.Graphviz
	opts        render.Options
	data        graph.Data
	physics     bool
	layout      graph.Layout
	highlighted map[string]bool
	focus       string
	closed      bool
}

var _ render.Handle = (*handle)(nil)

func (h *handle) ApplyData(ctx context.Context, d graph.Data) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errClosed()
	}
	h.data = d.Clone()
	return nil
}

func (h *handle) SetPhysics(ctx context.Context, enabled bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errClosed()
	}
	h.physics = enabled
	return nil
}

func (h *handle) SetLayout(ctx context.Context, l graph.Layout) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errClosed()
	}
	if !l.Valid() {
		return verrors.New(verrors.CodeInvalidLayout, "unknown layout %q", l)
	}
	h.layout = l
	return nil
}

func (h *handle) Highlight(ctx context.Context, ids map[string]bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errClosed()
	}
	if len(ids) == 0 {
		h.highlighted = nil
		return nil
	}
	h.highlighted = maps.Clone(ids)
	return nil
}

func (h *handle) Focus(ctx context.Context, nodeID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errClosed()
	}
	h.focus = nodeID
	return nil
}

// Snapshot builds DOT from the retained state and renders it through
// Graphviz. Hierarchical scenes run the dot engine, force scenes run fdp.
func (h *handle) Snapshot(ctx context.Context, format render.Format) (render.Frame, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return render.Frame{}, errClosed()
	}

	var gvFormat graphviz.Format
	switch format {
	case render.FormatSVG:
		gvFormat = graphviz.SVG
	case render.FormatPNG:
		gvFormat = graphviz.PNG
	default:
		return render.Frame{}, verrors.New(verrors.CodeInvalidFormat, "nodelink cannot render %q, use png or svg", format)
	}

	dot := buildDOT(scene{
		data:        h.data,
		opts:        h.opts,
		physics:     h.physics,
		layout:      h.layout,
		highlighted: h.highlighted,
		focus:       h.focus,
	})

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return render.Frame{}, verrors.Wrap(verrors.CodeRenderFailed, err, "parse DOT")
	}
	defer g.Close()

	if h.layout == graph.LayoutHierarchical {
		h.gv.SetLayout(graphviz.DOT)
	} else {
		h.gv.SetLayout(graphviz.FDP)
	}

	var buf bytes.Buffer
	if err := h.gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return render.Frame{}, verrors.Wrap(verrors.CodeRenderFailed, err, "render %s", format)
	}

	out := buf.Bytes()
	if format == render.FormatSVG {
		out = normalizeViewBox(out)
	}
	return render.Frame{Format: format, Data: out}, nil
}

// Close releases the Graphviz instance. Further calls on the handle fail;
// closing twice is a no-op.
func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.gv.Close()
}

func errClosed() error {
	return verrors.New(verrors.CodeInternal, "render handle is closed")
}
