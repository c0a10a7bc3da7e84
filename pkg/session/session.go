// Package session saves and restores visualization workspaces.
//
// A session is a named snapshot of every live instance in a registry -
// graph data, view state, and creation config - plus the active theme
// variables. Sessions have no expiry; they live until deleted.
//
// # Architecture
//
// [Store] is the persistence interface, with implementations for
// different deployments:
//   - memory: in-process map for tests and throwaway hosts
//   - file: JSON files in a config directory for CLI use
//   - mongo: a MongoDB collection for multi-host deployments
//
// [Snapshot] and [Restore] convert between a live registry and the saved
// form. Restoring replaces instances that share IDs with saved ones
// (create semantics), so a restore into a dirty registry converges on the
// saved state.
//
// # Usage
//
//	store, err := session.NewFileStore("") // ~/.config/vizhost/sessions/
//	if err != nil {
//	    return err
//	}
//	sess := session.Snapshot(reg, "checkout-debug", thm.Vars())
//	if err := store.Put(ctx, sess); err != nil {
//	    return err
//	}
//
//	// Later, possibly in another process:
//	sess, err = store.Get(ctx, sess.ID)
//	if err != nil {
//	    return err
//	}
//	if err := session.Restore(ctx, reg, sess); err != nil {
//	    return err
//	}
package session

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/vizhost/vizhost/pkg/graph"
	"github.com/vizhost/vizhost/pkg/registry"
)

// Sentinel errors for session stores.
var (
	// ErrNotFound is returned when no session carries the requested ID.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidID is returned for IDs a store cannot represent, such as
	// ones containing path separators in the file store.
	ErrInvalidID = errors.New("invalid session ID")
)

// Session is a saved workspace.
type Session struct {
	ID        string            `json:"id" bson:"_id"`
	Name      string            `json:"name" bson:"name"`
	Theme     map[string]string `json:"theme,omitempty" bson:"theme,omitempty"`
	Instances []Instance        `json:"instances" bson:"instances"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" bson:"updated_at"`
}

// Instance is one saved visualization instance.
type Instance struct {
	ID     string          `json:"id" bson:"id"`
	Config registry.Config `json:"config" bson:"config"`
	Data   graph.Data      `json:"data" bson:"data"`
	View   graph.ViewState `json:"view" bson:"view"`
}

// Summary is the listing form of a session - enough for pickers without
// loading the graphs.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Instances int       `json:"instances" bson:"instances"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Summary returns the listing form of the session.
func (s *Session) Summary() Summary {
	return Summary{
		ID:        s.ID,
		Name:      s.Name,
		Instances: len(s.Instances),
		UpdatedAt: s.UpdatedAt,
	}
}

// Clone returns a deep copy. Stores that keep sessions in memory hand out
// clones so callers cannot mutate stored state, matching the isolation
// the serializing backends get for free.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Theme = maps.Clone(s.Theme)
	cp.Instances = make([]Instance, len(s.Instances))
	for i, inst := range s.Instances {
		inst.Data = inst.Data.Clone()
		inst.View = inst.View.Clone()
		cp.Instances[i] = inst
	}
	return &cp
}

// NewID creates a session ID.
func NewID() string {
	return uuid.NewString()
}

// Store is the interface for session persistence backends.
type Store interface {
	// Get retrieves a session by ID. Returns ErrNotFound when no session
	// carries the ID.
	Get(ctx context.Context, id string) (*Session, error)

	// Put stores a session, replacing any previous one with the same ID.
	Put(ctx context.Context, sess *Session) error

	// Delete removes a session. Deleting an unknown ID is a no-op.
	Delete(ctx context.Context, id string) error

	// List returns summaries of every stored session, newest first.
	List(ctx context.Context) ([]Summary, error)

	// Close releases backend resources.
	Close() error
}
