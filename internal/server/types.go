package server

import (
	"github.com/vizhost/vizhost/pkg/events"
	"github.com/vizhost/vizhost/pkg/registry"
)

// Request and response payloads. Graph data, nodes, edges, view state,
// and session records travel as their pkg types directly; the structs
// here exist only where an endpoint needs an envelope of its own.

type createInstanceRequest struct {
	ID     string          `json:"id"`
	Config registry.Config `json:"config"`
}

type highlightRequest struct {
	Nodes []string `json:"nodes"`
}

type physicsRequest struct {
	Enabled bool `json:"enabled"`
}

type layoutRequest struct {
	Layout string `json:"layout"`
}

// clientEventRequest is one interaction reported by an embedding client.
// The instance comes from the URL; coordinates only matter for drag ends.
type clientEventRequest struct {
	Kind    events.Kind `json:"kind"`
	Element string      `json:"element,omitempty"`
	X       float64     `json:"x,omitempty"`
	Y       float64     `json:"y,omitempty"`
}

type saveSessionRequest struct {
	ID   string `json:"id,omitempty"` // empty = generate
	Name string `json:"name"`
}

type applyThemeRequest struct {
	Vars map[string]string `json:"vars"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Instances int    `json:"instances"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
