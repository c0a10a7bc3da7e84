package session

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/vizhost/vizhost/pkg/graph"
	"github.com/vizhost/vizhost/pkg/registry"
)

// Snapshot captures every live instance in the registry into a new
// session. Instances destroyed while the snapshot is being taken are
// skipped; everything else is deep-copied, so the session is independent
// of later registry activity.
func Snapshot(reg *registry.Registry, name string, themeVars map[string]string) *Session {
	now := time.Now().UTC()
	sess := &Session{
		ID:        NewID(),
		Name:      name,
		Theme:     maps.Clone(themeVars),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, info := range reg.List() {
		data, err := reg.Data(info.ID)
		if err != nil {
			continue
		}
		view, err := reg.View(info.ID)
		if err != nil {
			continue
		}
		sess.Instances = append(sess.Instances, Instance{
			ID:     info.ID,
			Config: info.Config,
			Data:   data,
			View:   view,
		})
	}
	return sess
}

// Restore recreates every saved instance in the registry. Instances
// sharing an ID with a live one replace it, so restoring into a dirty
// registry converges on the saved state. The theme variables are not
// applied here - they travel with the session for the caller to hand to
// its theme.
//
// Restoration stops at the first failure; instances restored before it
// stay live.
func Restore(ctx context.Context, reg *registry.Registry, sess *Session) error {
	for _, inst := range sess.Instances {
		if err := restoreInstance(ctx, reg, inst); err != nil {
			return fmt.Errorf("restore instance %q: %w", inst.ID, err)
		}
	}
	return nil
}

func restoreInstance(ctx context.Context, reg *registry.Registry, inst Instance) error {
	if err := reg.Create(ctx, inst.ID, inst.Config); err != nil {
		return err
	}
	if len(inst.Data.Nodes) > 0 || len(inst.Data.Edges) > 0 {
		if err := reg.SetData(ctx, inst.ID, inst.Data); err != nil {
			return err
		}
	}

	// Create applies the config; the view may have drifted from it before
	// the save, so reapply only what differs.
	configLayout := inst.Config.Layout
	if configLayout == "" {
		configLayout = graph.LayoutForce
	}
	if inst.View.Layout != "" && inst.View.Layout != configLayout {
		if err := reg.SetLayout(ctx, inst.ID, inst.View.Layout); err != nil {
			return err
		}
	}
	if inst.View.Physics != inst.Config.Physics {
		if err := reg.SetPhysics(ctx, inst.ID, inst.View.Physics); err != nil {
			return err
		}
	}
	if len(inst.View.Highlighted) > 0 {
		return reg.Highlight(ctx, inst.ID, inst.View.Highlighted)
	}
	return nil
}
