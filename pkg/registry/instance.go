package registry

import (
	"context"
	"slices"
	"sync"

	"github.com/vizhost/vizhost/pkg/graph"
	"github.com/vizhost/vizhost/pkg/render"
	"github.com/vizhost/vizhost/pkg/surface"
	"github.com/vizhost/vizhost/pkg/verrors"
)

// instance pairs one graph with one rendering handle. All access goes
// through the owning registry, which locks mu around every operation so
// the graph, the view state, and the handle never drift apart.
type instance struct {
	id      string
	backend string
	surf    surface.Surface
	config  Config

	mu        sync.Mutex
	graph     *graph.Graph
	view      graph.ViewState
	handle    render.Handle
	destroyed bool
}

// destroy releases the rendering handle exactly once. Safe to call on an
// instance that was already destroyed.
func (inst *instance) destroy() error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.destroyed {
		return nil
	}
	inst.destroyed = true
	if err := inst.handle.Close(); err != nil {
		return verrors.Wrap(verrors.CodeRenderFailed, err, "release handle for %q", inst.id)
	}
	return nil
}

// pushData sends the current graph snapshot to the rendering handle.
// Callers hold inst.mu.
func (inst *instance) pushData(ctx context.Context) error {
	return inst.handle.ApplyData(ctx, inst.graph.Snapshot())
}

// pushHighlight sends the current highlight set to the rendering handle.
// Callers hold inst.mu.
func (inst *instance) pushHighlight(ctx context.Context) error {
	return inst.handle.Highlight(ctx, inst.highlightSet())
}

// highlightSet converts the view's highlighted IDs into the set form the
// rendering handles take. Empty means "nothing highlighted".
func (inst *instance) highlightSet() map[string]bool {
	if len(inst.view.Highlighted) == 0 {
		return nil
	}
	set := make(map[string]bool, len(inst.view.Highlighted))
	for _, id := range inst.view.Highlighted {
		set[id] = true
	}
	return set
}

// pruneView drops selection and highlight entries whose nodes no longer
// exist, keeping the view a subset of the graph after bulk replaces.
func (inst *instance) pruneView() {
	inst.view.Selected = slices.DeleteFunc(inst.view.Selected, func(id string) bool {
		return !inst.graph.HasNode(id)
	})
	inst.view.Highlighted = slices.DeleteFunc(inst.view.Highlighted, func(id string) bool {
		return !inst.graph.HasNode(id)
	})
}

// dropFromView removes a single node ID from the selection and highlight
// lists after a node removal.
func (inst *instance) dropFromView(nodeID string) {
	inst.view.Selected = slices.DeleteFunc(inst.view.Selected, func(id string) bool {
		return id == nodeID
	})
	inst.view.Highlighted = slices.DeleteFunc(inst.view.Highlighted, func(id string) bool {
		return id == nodeID
	})
}

// info captures the instance for callers outside the lock. Callers hold
// inst.mu.
func (inst *instance) info() Info {
	return Info{
		ID:      inst.id,
		Backend: inst.backend,
		Surface: inst.surf,
		Config:  inst.config,
		Nodes:   inst.graph.NodeCount(),
		Edges:   inst.graph.EdgeCount(),
		View:    inst.view.Clone(),
	}
}
