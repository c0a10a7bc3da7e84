package registry

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/vizhost/vizhost/pkg/graph"
	"github.com/vizhost/vizhost/pkg/observability"
	"github.com/vizhost/vizhost/pkg/render"
	"github.com/vizhost/vizhost/pkg/verrors"
)

// =============================================================================
// Data operations
// =============================================================================

// SetData atomically replaces the instance's graph. The incoming data is
// validated and built aside first: on any error the instance keeps its
// previous graph, view, and rendered state untouched.
//
// Selection and highlight survive the swap only for nodes that still exist.
func (r *Registry) SetData(ctx context.Context, id string, d graph.Data) error {
	start := time.Now()
	err := r.withInstance(id, func(inst *instance) error {
		g, err := graph.FromData(d)
		if err != nil {
			return mapGraphErr(id, err)
		}
		inst.graph = g
		inst.pruneView()
		if err := inst.pushData(ctx); err != nil {
			return err
		}
		return inst.pushHighlight(ctx)
	})
	return r.finish(ctx, "setData", start, err)
}

// AddNode inserts a node, or replaces it wholesale when the ID is already
// present. Replacing does not touch the node's edges.
func (r *Registry) AddNode(ctx context.Context, id string, n graph.Node) error {
	start := time.Now()
	err := r.withInstance(id, func(inst *instance) error {
		if err := inst.graph.AddNode(n); err != nil {
			return mapGraphErr(id, err)
		}
		return inst.pushData(ctx)
	})
	if err == nil {
		r.sink.NodeAdded(id, n.ID)
	}
	return r.finish(ctx, "addNode", start, err)
}

// AddEdge appends an edge and returns it with its assigned ID. Edges with
// an empty ID get a generated one; duplicate connections between the same
// pair of nodes are appended, never merged. Endpoints may reference nodes
// that do not exist yet.
func (r *Registry) AddEdge(ctx context.Context, id string, e graph.Edge) (graph.Edge, error) {
	start := time.Now()
	var created graph.Edge
	err := r.withInstance(id, func(inst *instance) error {
		var err error
		created, err = inst.graph.AddEdge(e)
		if err != nil {
			return mapGraphErr(id, err)
		}
		return inst.pushData(ctx)
	})
	if err == nil {
		r.sink.EdgeAdded(id, created.ID)
	}
	return created, r.finish(ctx, "addEdge", start, err)
}

// UpdateNode merges a patch into an existing node. Unset patch fields keep
// their current values. Patching a node that does not exist fails with
// NODE_NOT_FOUND; UpdateNode never creates.
func (r *Registry) UpdateNode(ctx context.Context, id, nodeID string, patch graph.NodePatch) error {
	start := time.Now()
	err := r.withInstance(id, func(inst *instance) error {
		if err := inst.graph.UpdateNode(nodeID, patch); err != nil {
			return mapGraphErr(id, err)
		}
		return inst.pushData(ctx)
	})
	return r.finish(ctx, "updateNode", start, err)
}

// RemoveNode deletes a node and cascades: every edge touching it goes too,
// and the node leaves the selection and highlight lists. The cascade is
// not optional - a removed node never leaves dangling references behind.
func (r *Registry) RemoveNode(ctx context.Context, id, nodeID string) error {
	start := time.Now()
	var removedEdges []string
	err := r.withInstance(id, func(inst *instance) error {
		removed, err := inst.graph.RemoveNode(nodeID)
		if err != nil {
			return mapGraphErr(id, err)
		}
		removedEdges = removed
		inst.dropFromView(nodeID)
		if err := inst.pushData(ctx); err != nil {
			return err
		}
		return inst.pushHighlight(ctx)
	})
	if err == nil {
		r.sink.NodeRemoved(id, nodeID)
		for _, edgeID := range removedEdges {
			r.sink.EdgeRemoved(id, edgeID)
		}
	}
	return r.finish(ctx, "removeNode", start, err)
}

// RemoveEdge deletes a single edge by ID.
func (r *Registry) RemoveEdge(ctx context.Context, id, edgeID string) error {
	start := time.Now()
	err := r.withInstance(id, func(inst *instance) error {
		if err := inst.graph.RemoveEdge(edgeID); err != nil {
			return mapGraphErr(id, err)
		}
		return inst.pushData(ctx)
	})
	if err == nil {
		r.sink.EdgeRemoved(id, edgeID)
	}
	return r.finish(ctx, "removeEdge", start, err)
}

// Clear empties the instance's graph and view selections while keeping the
// instance and its rendering handle alive, ready for new data.
func (r *Registry) Clear(ctx context.Context, id string) error {
	start := time.Now()
	err := r.withInstance(id, func(inst *instance) error {
		inst.graph.Clear()
		inst.view.Selected = nil
		inst.view.Highlighted = nil
		if err := inst.pushData(ctx); err != nil {
			return err
		}
		return inst.pushHighlight(ctx)
	})
	return r.finish(ctx, "clear", start, err)
}

// =============================================================================
// View operations
// =============================================================================

// Highlight replaces the selection with exactly the given node IDs,
// intersected with the nodes that actually exist. IDs not in the graph are
// dropped silently; the call is not additive, so highlighting twice leaves
// only the second set active. An empty or fully-unknown set clears the
// highlight, same as ResetHighlight.
func (r *Registry) Highlight(ctx context.Context, id string, nodeIDs []string) error {
	start := time.Now()
	err := r.withInstance(id, func(inst *instance) error {
		members := make([]string, 0, len(nodeIDs))
		seen := make(map[string]bool, len(nodeIDs))
		for _, nodeID := range nodeIDs {
			if !seen[nodeID] && inst.graph.HasNode(nodeID) {
				seen[nodeID] = true
				members = append(members, nodeID)
			}
		}
		slices.Sort(members)
		inst.view.Selected = slices.Clone(members)
		inst.view.Highlighted = members
		return inst.pushHighlight(ctx)
	})
	return r.finish(ctx, "highlight", start, err)
}

// ResetHighlight clears the selection and returns every element to full
// opacity.
func (r *Registry) ResetHighlight(ctx context.Context, id string) error {
	start := time.Now()
	err := r.withInstance(id, func(inst *instance) error {
		inst.view.Selected = nil
		inst.view.Highlighted = nil
		return inst.pushHighlight(ctx)
	})
	return r.finish(ctx, "resetHighlight", start, err)
}

// SetPhysics toggles the physics simulation.
func (r *Registry) SetPhysics(ctx context.Context, id string, enabled bool) error {
	start := time.Now()
	err := r.withInstance(id, func(inst *instance) error {
		if err := inst.handle.SetPhysics(ctx, enabled); err != nil {
			return err
		}
		inst.view.Physics = enabled
		return nil
	})
	return r.finish(ctx, "setPhysics", start, err)
}

// SetLayout switches the layout algorithm. The handle is asked first and
// the view state only records layouts the backend accepted, so a rejected
// switch leaves the previous layout in force.
func (r *Registry) SetLayout(ctx context.Context, id string, layout graph.Layout) error {
	start := time.Now()
	err := r.withInstance(id, func(inst *instance) error {
		if !layout.Valid() {
			return verrors.New(verrors.CodeInvalidLayout, "unknown layout %q", layout)
		}
		if err := inst.handle.SetLayout(ctx, layout); err != nil {
			return err
		}
		inst.view.Layout = layout
		return nil
	})
	return r.finish(ctx, "setLayout", start, err)
}

// FocusNode centers the viewport on a node. The node must exist; focusing
// is transient and not part of the persisted view state.
func (r *Registry) FocusNode(ctx context.Context, id, nodeID string) error {
	start := time.Now()
	err := r.withInstance(id, func(inst *instance) error {
		if !inst.graph.HasNode(nodeID) {
			return verrors.New(verrors.CodeNodeNotFound, "instance %q has no node %q", id, nodeID)
		}
		return inst.handle.Focus(ctx, nodeID)
	})
	return r.finish(ctx, "focusNode", start, err)
}

// =============================================================================
// Export and validation
// =============================================================================

// Export renders the instance's current state into the given format. Which
// formats work depends on the instance's backend.
func (r *Registry) Export(ctx context.Context, id string, format render.Format) (render.Frame, error) {
	frame, _, _, err := r.ExportState(ctx, id, format)
	return frame, err
}

// ExportState renders like Export and additionally returns the graph and
// description captured under the same instance lock as the render, so the
// caller knows exactly which state the frame depicts. Content-addressed
// callers need this: a key derived from a separate read can name a state
// the handle never rendered.
func (r *Registry) ExportState(ctx context.Context, id string, format render.Format) (render.Frame, graph.Data, Info, error) {
	start := time.Now()
	var (
		frame render.Frame
		data  graph.Data
		info  Info
	)
	err := r.withInstance(id, func(inst *instance) error {
		observability.Render().OnSnapshotStart(ctx, inst.backend, string(format))
		f, serr := inst.handle.Snapshot(ctx, format)
		observability.Render().OnSnapshotComplete(ctx, inst.backend, string(format), len(f.Data), time.Since(start), serr)
		if serr != nil {
			return serr
		}
		frame = f
		data = inst.graph.Snapshot()
		info = inst.info()
		return nil
	})
	return frame, data, info, r.finish(ctx, "export", start, err)
}

// ExportImage renders the instance as a PNG and returns the raw bytes.
func (r *Registry) ExportImage(ctx context.Context, id string) ([]byte, error) {
	frame, err := r.Export(ctx, id, render.FormatPNG)
	if err != nil {
		return nil, err
	}
	return frame.Data, nil
}

// ValidateFlow checks the instance's graph against the flow rules: exactly
// one entry node, at least one terminal node, and every step connected on
// both sides. The check never mutates the instance; the ordered error list
// is in the result.
func (r *Registry) ValidateFlow(id string) (graph.FlowResult, error) {
	var result graph.FlowResult
	err := r.withInstance(id, func(inst *instance) error {
		result = graph.ValidateFlow(inst.graph.Snapshot())
		return nil
	})
	return result, err
}

// mapGraphErr translates graph sentinel errors into coded errors carrying
// the instance ID.
func mapGraphErr(id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, graph.ErrUnknownNode):
		return verrors.Wrap(verrors.CodeNodeNotFound, err, "instance %q", id)
	case errors.Is(err, graph.ErrUnknownEdge):
		return verrors.Wrap(verrors.CodeEdgeNotFound, err, "instance %q", id)
	default:
		return verrors.Wrap(verrors.CodeInvalidInput, err, "instance %q", id)
	}
}
