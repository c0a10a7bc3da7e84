package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/vizhost/vizhost/pkg/graph"
	"github.com/vizhost/vizhost/pkg/surface"
)

// ErrUnknownFormat is returned by [ParseFormat] for unrecognized format names.
var ErrUnknownFormat = errors.New("unknown format")

// Format identifies an export format for rendered frames.
type Format string

// Export formats.
const (
	FormatPNG  Format = "png"
	FormatSVG  Format = "svg"
	FormatHTML Format = "html"
)

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// ParseFormat converts a string to a Format.
// Returns ErrUnknownFormat for anything other than "png", "svg", or "html".
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatPNG, FormatSVG, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Frame is one exported rendering of an instance's current state.
type Frame struct {
	Format Format
	Data   []byte
}

// Default option values, applied by [Options.Normalized].
const (
	DefaultWidth    = 960
	DefaultHeight   = 600
	DefaultNodeSize = 24
)

// Options configures a handle at creation time. Zero values take the
// documented defaults; the registry fills Width/Height from the resolved
// surface when the caller leaves them unset.
type Options struct {
	Width     int          // canvas width in pixels (0 = DefaultWidth)
	Height    int          // canvas height in pixels (0 = DefaultHeight)
	Scale     float64      // device pixel ratio for raster output (0 = 1)
	NodeSize  float64      // base node size (0 = DefaultNodeSize)
	EdgeWidth float64      // base edge stroke width (0 = 1)
	Physics   bool         // initial physics state
	Layout    graph.Layout // initial layout ("" = LayoutForce)
}

// Normalized returns a copy with zero values replaced by defaults.
func (o Options) Normalized() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.NodeSize <= 0 {
		o.NodeSize = DefaultNodeSize
	}
	if o.EdgeWidth <= 0 {
		o.EdgeWidth = 1
	}
	if o.Layout == "" {
		o.Layout = graph.LayoutForce
	}
	return o
}

// Engine creates rendering handles bound to drawing surfaces.
// Implementations wrap one third-party rendering library each.
type Engine interface {
	// Name identifies the backend ("nodelink", "echarts").
	Name() string

	// NewHandle allocates the external rendering state for one instance on
	// the given surface. The returned handle is exclusively owned by its
	// instance and must be released with Close exactly once.
	NewHandle(ctx context.Context, surf surface.Surface, opts Options) (Handle, error)
}

// Handle is the opaque, exclusively-owned rendering state of one instance.
//
// A handle holds whatever the wrapped library needs to redraw the current
// state on demand: applied data, view flags, highlight set. All mutators
// update that retained state; Snapshot renders it into a concrete frame.
//
// Close releases the underlying library resources and must stop any internal
// scheduling (animation loops, pending captures) before returning, so no
// callback ever touches a released handle. The registry guarantees Close is
// called exactly once per handle.
type Handle interface {
	// ApplyData replaces the handle's retained graph data.
	ApplyData(ctx context.Context, d graph.Data) error

	// SetPhysics toggles force simulation on the retained view.
	SetPhysics(ctx context.Context, enabled bool) error

	// SetLayout switches the layout mode. Backends that cannot express the
	// requested layout return an error and keep their previous state.
	SetLayout(ctx context.Context, layout graph.Layout) error

	// Highlight replaces the active highlight set. Non-members render
	// de-emphasized; an empty or nil set restores full emphasis.
	Highlight(ctx context.Context, nodeIDs map[string]bool) error

	// Focus centers the view on the given node.
	Focus(ctx context.Context, nodeID string) error

	// Snapshot renders the retained state to a frame in the given format.
	Snapshot(ctx context.Context, format Format) (Frame, error)

	// Close releases the external rendering state.
	Close() error
}
