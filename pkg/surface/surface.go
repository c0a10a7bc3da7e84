// Package surface resolves container identifiers to drawing surfaces.
//
// The boundary is racy by design: a container can be attached or torn down
// between the moment a call is issued and the moment it executes. Absence
// is therefore a normal, expected outcome - Resolve reports it with a bool,
// never an error.
package surface

import (
	"errors"
	"slices"
	"sync"
)

// ErrEmptyID is returned by [Registry.Attach] when the surface carries no
// identifier. Surfaces are addressed by ID, so one is required.
var ErrEmptyID = errors.New("surface ID must not be empty")

// Surface describes one resolved drawing surface.
type Surface struct {
	ID     string  `json:"id"`
	Width  int     `json:"width,omitempty"`  // CSS pixels (0 = unknown)
	Height int     `json:"height,omitempty"` // CSS pixels (0 = unknown)
	DPR    float64 `json:"dpr,omitempty"`    // device pixel ratio (0 = 1)
}

// Resolver resolves a container identifier to a drawing surface.
// The second return reports whether the container exists right now.
type Resolver interface {
	Resolve(id string) (Surface, bool)
}

// =============================================================================
// Registry - runtime-mutable resolver
// =============================================================================

// Registry is a resolver whose surfaces attach and detach at runtime.
// Clients attach a surface before creating an instance on it and detach it
// when the container disappears. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	surfaces map[string]Surface
}

var _ Resolver = (*Registry)(nil)

// NewRegistry creates an empty surface registry.
func NewRegistry() *Registry {
	return &Registry{surfaces: make(map[string]Surface)}
}

// Attach registers a surface under its ID, replacing any previous surface
// with the same ID. Returns ErrEmptyID if the surface has no identifier.
func (r *Registry) Attach(s Surface) error {
	if s.ID == "" {
		return ErrEmptyID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surfaces[s.ID] = s
	return nil
}

// Detach removes the surface with the given ID. Detaching an unknown ID is
// a no-op: the container is equally gone either way.
func (r *Registry) Detach(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.surfaces, id)
}

// Resolve implements [Resolver].
func (r *Registry) Resolve(id string) (Surface, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.surfaces[id]
	return s, ok
}

// List returns all attached surfaces sorted by ID.
func (r *Registry) List() []Surface {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Surface, 0, len(r.surfaces))
	for _, s := range r.surfaces {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b Surface) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

// =============================================================================
// Static - fixed resolver
// =============================================================================

// Static resolves every identifier to a surface of a fixed size.
// One-shot CLI renders and tests use it in place of a live registry.
type Static struct {
	Width  int
	Height int
	DPR    float64
}

var _ Resolver = Static{}

// Resolve implements [Resolver]. It always succeeds.
func (s Static) Resolve(id string) (Surface, bool) {
	return Surface{ID: id, Width: s.Width, Height: s.Height, DPR: s.DPR}, true
}
