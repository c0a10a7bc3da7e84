package echarts

import (
	"bytes"
	"context"
	"maps"
	"sync"

	"github.com/vizhost/vizhost/pkg/graph"
	"github.com/vizhost/vizhost/pkg/render"
	"github.com/vizhost/vizhost/pkg/surface"
	"github.com/vizhost/vizhost/pkg/verrors"
)

// Engine creates ECharts-backed rendering handles.
type Engine struct {
	// Capturer rasterizes charts for PNG snapshots. Leave nil to run
	// HTML-only; PNG snapshots then fail with CAPTURE_FAILED.
	Capturer Capturer

	// AssetsHost overrides the script host baked into rendered documents.
	// Useful when the default CDN is unreachable.
	AssetsHost string
}

var _ render.Engine = (*Engine)(nil)

// New returns a chart engine that screenshots through c. A nil capturer
// disables PNG output.
func New(c Capturer) *Engine {
	return &Engine{Capturer: c}
}

// Name reports the backend identifier used in configuration.
func (e *Engine) Name() string { return "echarts" }

// NewHandle allocates chart state bound to the given surface. Hierarchical
// layouts are rejected up front: the chart series has no layered mode.
func (e *Engine) NewHandle(ctx context.Context, surf surface.Surface, opts render.Options) (render.Handle, error) {
	norm := opts.Normalized()
	if norm.Layout == graph.LayoutHierarchical {
		return nil, errHierarchical()
	}
	return &handle{
		engine:  e,
		chartID: chartID(surf.ID),
		opts:    norm,
		physics: norm.Physics,
	}, nil
}

// handle retains graph data and view flags between snapshots.
type handle struct {
	mu          sync.Mutex
	engine      *Engine
	chartID     string
	opts        render.Options
	data        graph.Data
	physics     bool
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

// SetLayout accepts the force layout only. Hierarchical requests fail and
// leave the handle unchanged.
func (h *handle) SetLayout(ctx context.Context, l graph.Layout) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errClosed()
	}
	switch l {
	case graph.LayoutForce:
		return nil
	case graph.LayoutHierarchical:
		return errHierarchical()
	default:
		return verrors.New(verrors.CodeInvalidLayout, "unknown layout %q", l)
	}
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

// Snapshot renders the retained state. HTML comes straight from the chart
// templates; PNG additionally routes the document through the capturer.
func (h *handle) Snapshot(ctx context.Context, format render.Format) (render.Frame, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return render.Frame{}, errClosed()
	}

	switch format {
	case render.FormatHTML, render.FormatPNG:
	default:
		return render.Frame{}, verrors.New(verrors.CodeInvalidFormat, "echarts cannot render %q, use png or html", format)
	}

	chart := buildChart(scene{
		data:        h.data,
		opts:        h.opts,
		physics:     h.physics,
		highlighted: h.highlighted,
		focus:       h.focus,
		chartID:     h.chartID,
		assetsHost:  h.engine.AssetsHost,
	})

	var buf bytes.Buffer
	if err := chart.Render(&buf); err != nil {
		return render.Frame{}, verrors.Wrap(verrors.CodeRenderFailed, err, "render chart")
	}
	if format == render.FormatHTML {
		return render.Frame{Format: format, Data: buf.Bytes()}, nil
	}

	if h.engine.Capturer == nil {
		return render.Frame{}, verrors.New(verrors.CodeCaptureFailed, "no capture backend configured, png snapshots need a browser")
	}
	png, err := h.engine.Capturer.CapturePNG(ctx, buf.Bytes(), int(float64(h.opts.Width)*h.opts.Scale), int(float64(h.opts.Height)*h.opts.Scale))
	if err != nil {
		return render.Frame{}, verrors.Wrap(verrors.CodeCaptureFailed, err, "capture chart")
	}
	return render.Frame{Format: format, Data: png}, nil
}

// Close releases the handle. Chart state lives in process memory only, so
// this just blocks further use; closing twice is a no-op.
func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func errClosed() error {
	return verrors.New(verrors.CodeInternal, "render handle is closed")
}

func errHierarchical() error {
	return verrors.New(verrors.CodeInvalidLayout, "echarts backend has no hierarchical layout, use the nodelink backend")
}
