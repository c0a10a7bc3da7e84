package registry

import (
	"github.com/vizhost/vizhost/pkg/graph"
	"github.com/vizhost/vizhost/pkg/render"
	"github.com/vizhost/vizhost/pkg/surface"
	"github.com/vizhost/vizhost/pkg/verrors"
)

// Config describes how an instance should be created. The zero value is
// valid: the default backend, force layout, physics off, and dimensions
// taken from the drawing surface.
type Config struct {
	Backend   string       `json:"backend,omitempty" bson:"backend,omitempty" toml:"backend"`
	Physics   bool         `json:"physics" bson:"physics" toml:"physics"`
	Layout    graph.Layout `json:"layout,omitempty" bson:"layout,omitempty" toml:"layout"`
	Width     int          `json:"width,omitempty" bson:"width,omitempty" toml:"width"`
	Height    int          `json:"height,omitempty" bson:"height,omitempty" toml:"height"`
	Scale     float64      `json:"scale,omitempty" bson:"scale,omitempty" toml:"scale"`
	NodeSize  float64      `json:"node_size,omitempty" bson:"node_size,omitempty" toml:"node_size"`
	EdgeWidth float64      `json:"edge_width,omitempty" bson:"edge_width,omitempty" toml:"edge_width"`
}

// validate rejects configs no engine could accept. Backend names are
// checked by the registry against its engine table, not here.
func (c Config) validate() error {
	if c.Layout != "" && !c.Layout.Valid() {
		return verrors.New(verrors.CodeInvalidLayout, "unknown layout %q", c.Layout)
	}
	if c.Width < 0 || c.Height < 0 {
		return verrors.New(verrors.CodeInvalidConfig, "dimensions must not be negative, got %dx%d", c.Width, c.Height)
	}
	return nil
}

// layout returns the configured layout, defaulting to force.
func (c Config) layout() graph.Layout {
	if c.Layout == "" {
		return graph.LayoutForce
	}
	return c.Layout
}

// options maps the config onto rendering options, filling dimensions and
// pixel ratio from the resolved surface where the caller left them unset.
func (c Config) options(surf surface.Surface) render.Options {
	o := render.Options{
		Width:     c.Width,
		Height:    c.Height,
		Scale:     c.Scale,
		NodeSize:  c.NodeSize,
		EdgeWidth: c.EdgeWidth,
		Physics:   c.Physics,
		Layout:    c.layout(),
	}
	if o.Width <= 0 {
		o.Width = surf.Width
	}
	if o.Height <= 0 {
		o.Height = surf.Height
	}
	if o.Scale <= 0 {
		o.Scale = surf.DPR
	}
	return o.Normalized()
}

// Info is a point-in-time description of a live instance, safe to hold
// after the instance changes or dies.
type Info struct {
	ID      string          `json:"id"`
	Backend string          `json:"backend"`
	Surface surface.Surface `json:"surface"`
	Config  Config          `json:"config"`
	Nodes   int             `json:"nodes"`
	Edges   int             `json:"edges"`
	View    graph.ViewState `json:"view"`
}
