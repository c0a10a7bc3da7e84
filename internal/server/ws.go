package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vizhost/vizhost/pkg/events"
)

// wsSendBuffer is the per-subscriber queue length. A subscriber that
// falls further behind loses events rather than stalling the sender.
const wsSendBuffer = 64

// wsWriteTimeout bounds a single frame write to a subscriber.
const wsWriteTimeout = 10 * time.Second

// =============================================================================
// Hub
// =============================================================================

// Hub streams events to WebSocket subscribers. It implements
// [events.Sink], so wiring it into a registry's sink forwards every
// interaction and mutation event to connected clients as JSON frames.
//
// Subscribers choose an instance filter at connect time
// (GET /ws?instance=left) or receive everything. Delivery is best-effort:
// sink calls never block, so a subscriber that stops reading is skipped
// once its queue fills.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	conn     *websocket.Conn
	instance string // empty = all instances
	send     chan events.Event
}

var _ events.Sink = (*Hub)(nil)

// NewHub creates a hub with no subscribers.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		// The embedding page and the API are commonly served from
		// different origins during development.
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		logger:   logger,
		subs:     make(map[*subscriber]struct{}),
	}
}

// HandleUpgrade upgrades the request to a WebSocket and streams events
// until the client disconnects.
func (h *Hub) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	sub := &subscriber{
		conn:     conn,
		instance: r.URL.Query().Get("instance"),
		send:     make(chan events.Event, wsSendBuffer),
	}
	h.register(sub)
	defer h.unregister(sub)

	go func() {
		for e := range sub.send {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(e); err != nil {
				// The read loop below sees the broken conn and cleans up.
				return
			}
		}
	}()

	// Inbound frames are ignored; the read loop only detects disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// CloseAll disconnects every subscriber. Used on server shutdown, which
// drains HTTP requests but does not touch hijacked connections.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.send)
		if sub.conn != nil {
			_ = sub.conn.Close()
		}
	}
}

func (h *Hub) register(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sub] = struct{}{}
}

// unregister is idempotent: the read loop and CloseAll may both try.
func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.send)
	if sub.conn != nil {
		_ = sub.conn.Close()
	}
}

// broadcast queues the event for every matching subscriber. Holding the
// lock while sending is safe because sends never block.
func (h *Hub) broadcast(kind events.Kind, instance, element string, x, y float64) {
	e := events.Event{
		Kind:     kind,
		Instance: instance,
		Element:  element,
		X:        x,
		Y:        y,
		At:       time.Now().UTC(),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if sub.instance != "" && sub.instance != instance {
			continue
		}
		select {
		case sub.send <- e:
		default:
			// Queue full; this subscriber misses the event.
		}
	}
}

// =============================================================================
// events.Sink
// =============================================================================

func (h *Hub) NodeClicked(instance, nodeID string) {
	h.broadcast(events.KindNodeClick, instance, nodeID, 0, 0)
}

func (h *Hub) NodeDoubleClicked(instance, nodeID string) {
	h.broadcast(events.KindNodeDoubleClick, instance, nodeID, 0, 0)
}

func (h *Hub) EdgeClicked(instance, edgeID string) {
	h.broadcast(events.KindEdgeClick, instance, edgeID, 0, 0)
}

func (h *Hub) CanvasClicked(instance string) {
	h.broadcast(events.KindCanvasClick, instance, "", 0, 0)
}

func (h *Hub) NodeDragEnded(instance, nodeID string, x, y float64) {
	h.broadcast(events.KindNodeDragEnd, instance, nodeID, x, y)
}

func (h *Hub) NodeAdded(instance, nodeID string) {
	h.broadcast(events.KindNodeAdded, instance, nodeID, 0, 0)
}

func (h *Hub) NodeRemoved(instance, nodeID string) {
	h.broadcast(events.KindNodeRemoved, instance, nodeID, 0, 0)
}

func (h *Hub) EdgeAdded(instance, edgeID string) {
	h.broadcast(events.KindEdgeAdded, instance, edgeID, 0, 0)
}

func (h *Hub) EdgeRemoved(instance, edgeID string) {
	h.broadcast(events.KindEdgeRemoved, instance, edgeID, 0, 0)
}
