// Package frames renders exported frames through the content cache.
//
// The registry re-renders on every export; a [Runner] fronts it with the
// cache so instances whose state has not changed are served from disk or
// Redis instead of re-entering graphviz or a headless browser. The cache
// key is a hash of everything that affects the output - graph, view
// state, config, surface geometry, and backend - and every frame is filed
// under the state the handle actually rendered, so a hit always depicts
// the state its key names and a stale entry is simply never addressed
// again. Live-physics scenes re-randomize placement per render and bypass
// the cache entirely.
//
// Both the server's export endpoints and the one-shot CLI render go
// through a Runner.
package frames

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vizhost/vizhost/pkg/cache"
	"github.com/vizhost/vizhost/pkg/graph"
	"github.com/vizhost/vizhost/pkg/observability"
	"github.com/vizhost/vizhost/pkg/registry"
	"github.com/vizhost/vizhost/pkg/render"
	"github.com/vizhost/vizhost/pkg/surface"
)

// TTLFrame bounds how long a cached frame lives. State changes produce
// new keys, so the TTL exists to reclaim space for abandoned states, not
// for correctness.
const TTLFrame = 24 * time.Hour

// Runner exports frames with caching. Both the HTTP layer and the CLI use
// it so the caching logic lives in one place.
//
// The Runner is stateless apart from its collaborators; multiple
// goroutines can share one.
type Runner struct {
	Registry *registry.Registry
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
}

// NewRunner creates a runner for the given registry.
// If c is nil, a NullCache is used (caching disabled).
// If keyer is nil, a DefaultKeyer is used.
// If logger is nil, [log.Default] is used.
func NewRunner(reg *registry.Registry, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Registry: reg, Cache: c, Keyer: keyer, Logger: logger}
}

// ExportWithCacheInfo renders the instance into format, serving an
// identical earlier render from the cache when the instance state is
// unchanged. The bool reports whether the frame came from the cache.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, id string, format render.Format) (render.Frame, bool, error) {
	info, data, err := r.Registry.Describe(id)
	if err != nil {
		return render.Frame{}, false, err
	}

	// A live simulation places nodes differently on every render; a cached
	// frame would pin one arbitrary placement and keep serving it.
	if info.View.Physics {
		frame, _, _, err := r.Registry.ExportState(ctx, id, format)
		return frame, false, err
	}

	key := r.frameKey(data, info, format)

	// Transient backend errors (Redis hiccups) retry; a still-failing
	// cache degrades to a miss rather than failing the export.
	var cached []byte
	var hit bool
	err = cache.RetryWithBackoff(ctx, func() error {
		var gerr error
		cached, hit, gerr = r.Cache.Get(ctx, key)
		return gerr
	})
	if err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "frame")
		r.Logger.Debug("frame cache hit", "instance", id, "format", format)
		return render.Frame{Format: format, Data: cached}, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "frame")

	frame, rendered, renderedInfo, err := r.Registry.ExportState(ctx, id, format)
	if err != nil {
		return render.Frame{}, false, err
	}
	// The frame is filed under the state the handle actually rendered. A
	// mutation landing between the lookup above and the render would
	// otherwise cache the new state's frame under the old state's key.
	renderedKey := r.frameKey(rendered, renderedInfo, format)
	if err := r.Cache.Set(ctx, renderedKey, frame.Data, TTLFrame); err == nil {
		observability.Cache().OnCacheSet(ctx, "frame", len(frame.Data))
	} else {
		r.Logger.Warn("frame cache write failed", "instance", id, "err", err)
	}
	return frame, false, nil
}

// frameKey addresses one rendered frame: the state hash plus the output
// parameters that shape the bytes.
func (r *Runner) frameKey(d graph.Data, info registry.Info, format render.Format) string {
	return r.Keyer.FrameKey(StateHash(d, info), cache.FrameKeyOpts{
		Format: string(format),
		Width:  info.Config.Width,
		Height: info.Config.Height,
		Scale:  info.Config.Scale,
	})
}

// Export is a convenience wrapper that discards the cache hit info.
func (r *Runner) Export(ctx context.Context, id string, format render.Format) (render.Frame, error) {
	frame, _, err := r.ExportWithCacheInfo(ctx, id, format)
	return frame, err
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// StateHash fingerprints everything that affects an instance's rendered
// output. Two exports with the same hash depict the same instance state;
// backends with randomized placement may still produce different bytes
// per render, which is why live-physics exports never enter the cache.
func StateHash(d graph.Data, info registry.Info) string {
	payload := struct {
		Data    graph.Data      `json:"data"`
		View    graph.ViewState `json:"view"`
		Config  registry.Config `json:"config"`
		Surface surface.Surface `json:"surface"`
		Backend string          `json:"backend"`
	}{d, info.View, info.Config, info.Surface, info.Backend}
	b, _ := json.Marshal(payload)
	return cache.Hash(b)
}
