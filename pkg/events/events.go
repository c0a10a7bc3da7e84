// Package events carries interaction and mutation events out of
// visualization instances.
//
// The registry reports user interaction (clicks, drags) and data mutations
// (node/edge add/remove) through the [Sink] capability: one method per event
// type, no return values. Callbacks are fire-and-forget - failures inside a
// sink are never the reporting instance's concern, and sinks must not block.
//
// [Recorder] captures events for tests, [Fanout] duplicates them to several
// sinks, [Noop] swallows them, and [Journal] appends them to SQLite for
// audit and replay.
package events

import (
	"slices"
	"sync"
	"time"
)

// Kind identifies the kind of event.
type Kind string

// Event kinds.
const (
	KindNodeClick       Kind = "node_click"
	KindNodeDoubleClick Kind = "node_double_click"
	KindEdgeClick       Kind = "edge_click"
	KindCanvasClick     Kind = "canvas_click"
	KindNodeDragEnd     Kind = "node_drag_end"
	KindNodeAdded       Kind = "node_added"
	KindNodeRemoved     Kind = "node_removed"
	KindEdgeAdded       Kind = "edge_added"
	KindEdgeRemoved     Kind = "edge_removed"
)

// Event is the canonical envelope shared by the recorder, the journal, and
// the server's event stream.
type Event struct {
	Kind     Kind      `json:"kind"`
	Instance string    `json:"instance"`
	Element  string    `json:"element,omitempty"` // node or edge ID, empty for canvas events
	X        float64   `json:"x,omitempty"`       // drag-end position
	Y        float64   `json:"y,omitempty"`
	At       time.Time `json:"at"`
}

// Sink receives events from visualization instances. One method per event
// type; implementations must not block and must not panic - the reporting
// side treats every call as fire-and-forget.
type Sink interface {
	NodeClicked(instance, nodeID string)
	NodeDoubleClicked(instance, nodeID string)
	EdgeClicked(instance, edgeID string)
	CanvasClicked(instance string)
	NodeDragEnded(instance, nodeID string, x, y float64)
	NodeAdded(instance, nodeID string)
	NodeRemoved(instance, nodeID string)
	EdgeAdded(instance, edgeID string)
	EdgeRemoved(instance, edgeID string)
}

// =============================================================================
// Noop
// =============================================================================

// Noop is a sink that discards every event. It is the default wherever no
// sink is injected, so reporting code never nil-checks.
type Noop struct{}

var _ Sink = Noop{}

func (Noop) NodeClicked(instance, nodeID string)                 {}
func (Noop) NodeDoubleClicked(instance, nodeID string)           {}
func (Noop) EdgeClicked(instance, edgeID string)                 {}
func (Noop) CanvasClicked(instance string)                       {}
func (Noop) NodeDragEnded(instance, nodeID string, x, y float64) {}
func (Noop) NodeAdded(instance, nodeID string)                   {}
func (Noop) NodeRemoved(instance, nodeID string)                 {}
func (Noop) EdgeAdded(instance, edgeID string)                   {}
func (Noop) EdgeRemoved(instance, edgeID string)                 {}

// =============================================================================
// Fanout
// =============================================================================

// Fanout duplicates every event to each member sink in order.
type Fanout []Sink

var _ Sink = Fanout{}

func (f Fanout) NodeClicked(instance, nodeID string) {
	for _, s := range f {
		s.NodeClicked(instance, nodeID)
	}
}

func (f Fanout) NodeDoubleClicked(instance, nodeID string) {
	for _, s := range f {
		s.NodeDoubleClicked(instance, nodeID)
	}
}

func (f Fanout) EdgeClicked(instance, edgeID string) {
	for _, s := range f {
		s.EdgeClicked(instance, edgeID)
	}
}

func (f Fanout) CanvasClicked(instance string) {
	for _, s := range f {
		s.CanvasClicked(instance)
	}
}

func (f Fanout) NodeDragEnded(instance, nodeID string, x, y float64) {
	for _, s := range f {
		s.NodeDragEnded(instance, nodeID, x, y)
	}
}

func (f Fanout) NodeAdded(instance, nodeID string) {
	for _, s := range f {
		s.NodeAdded(instance, nodeID)
	}
}

func (f Fanout) NodeRemoved(instance, nodeID string) {
	for _, s := range f {
		s.NodeRemoved(instance, nodeID)
	}
}

func (f Fanout) EdgeAdded(instance, edgeID string) {
	for _, s := range f {
		s.EdgeAdded(instance, edgeID)
	}
}

func (f Fanout) EdgeRemoved(instance, edgeID string) {
	for _, s := range f {
		s.EdgeRemoved(instance, edgeID)
	}
}

// =============================================================================
// Recorder
// =============================================================================

// Recorder is a sink that records every event it receives.
// Tests substitute it for real sinks to assert on reported events.
// Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

var _ Sink = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) record(kind Kind, instance, element string, x, y float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{
		Kind:     kind,
		Instance: instance,
		Element:  element,
		X:        x,
		Y:        y,
		At:       time.Now().UTC(),
	})
}

func (r *Recorder) NodeClicked(instance, nodeID string) {
	r.record(KindNodeClick, instance, nodeID, 0, 0)
}

func (r *Recorder) NodeDoubleClicked(instance, nodeID string) {
	r.record(KindNodeDoubleClick, instance, nodeID, 0, 0)
}

func (r *Recorder) EdgeClicked(instance, edgeID string) {
	r.record(KindEdgeClick, instance, edgeID, 0, 0)
}

func (r *Recorder) CanvasClicked(instance string) {
	r.record(KindCanvasClick, instance, "", 0, 0)
}

func (r *Recorder) NodeDragEnded(instance, nodeID string, x, y float64) {
	r.record(KindNodeDragEnd, instance, nodeID, x, y)
}

func (r *Recorder) NodeAdded(instance, nodeID string) {
	r.record(KindNodeAdded, instance, nodeID, 0, 0)
}

func (r *Recorder) NodeRemoved(instance, nodeID string) {
	r.record(KindNodeRemoved, instance, nodeID, 0, 0)
}

func (r *Recorder) EdgeAdded(instance, edgeID string) {
	r.record(KindEdgeAdded, instance, edgeID, 0, 0)
}

func (r *Recorder) EdgeRemoved(instance, edgeID string) {
	r.record(KindEdgeRemoved, instance, edgeID, 0, 0)
}

// Events returns a copy of everything recorded so far, in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Kinds returns just the kinds recorded so far, in arrival order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

// Reset discards everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
