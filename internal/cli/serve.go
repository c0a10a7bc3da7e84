package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vizhost/vizhost/internal/server"
	"github.com/vizhost/vizhost/pkg/cache"
	"github.com/vizhost/vizhost/pkg/events"
	"github.com/vizhost/vizhost/pkg/frames"
	"github.com/vizhost/vizhost/pkg/observability"
	"github.com/vizhost/vizhost/pkg/registry"
	"github.com/vizhost/vizhost/pkg/render"
	"github.com/vizhost/vizhost/pkg/render/echarts"
	"github.com/vizhost/vizhost/pkg/render/nodelink"
	"github.com/vizhost/vizhost/pkg/surface"
	"github.com/vizhost/vizhost/pkg/theme"
)

// shutdownTimeout bounds the drain of in-flight requests after SIGINT.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command running the HTTP host.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		listen  string
		backend string
		noCache bool
		journal string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the visualization host HTTP server",
		Long: `Run the visualization host HTTP server.

The server keeps a registry of live visualization instances and exposes
it under /api: clients attach drawing surfaces, create instances on
them, stream graph mutations, export rendered frames, and save or
restore whole workspaces. Interaction events are pushed to WebSocket
subscribers on /ws, and Prometheus metrics are served on /metrics.

Both rendering backends are registered: nodelink (Graphviz) and echarts
(browser canvas; PNG export needs a headless Chrome). The --backend
flag picks which one handles instances that do not name a backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			if backend != "" {
				cfg.Defaults.Backend = backend
			}
			if journal != "" {
				cfg.Journal.Path = journal
			}
			return c.runServe(withLogger(cmd.Context(), c.Logger), cfg, noCache)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address, e.g. :8780 (overrides config)")
	cmd.Flags().StringVar(&backend, "backend", "", "default rendering backend: nodelink, echarts")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the frame cache")
	cmd.Flags().StringVar(&journal, "journal", "", "SQLite interaction journal path (overrides config)")

	return cmd
}

// runServe builds the full host stack and blocks until ctx is cancelled
// or the listener fails. The logger travels in ctx so helpers below the
// command layer need not hold the CLI.
func (c *CLI) runServe(ctx context.Context, cfg fileConfig, noCache bool) error {
	logger := loggerFromContext(ctx)
	surfaces := surface.NewRegistry()
	hub := server.NewHub(logger)

	sinks := []events.Sink{hub}
	if cfg.Journal.Path != "" {
		j, err := events.OpenJournal(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("open journal %s: %w", cfg.Journal.Path, err)
		}
		defer j.Close()
		sinks = append(sinks, j)
		logger.Info("interaction journal enabled", "path", cfg.Journal.Path)
	}
	sink := events.Fanout(sinks)

	reg, err := registry.New(registry.Options{
		Engines:        []render.Engine{nodelink.New(), echarts.New(&echarts.ChromeCapturer{})},
		DefaultBackend: cfg.Defaults.Backend,
		Resolver:       surfaces,
		Sink:           sink,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	frameCache, err := newFrameCache(cfg.Cache, noCache)
	if err != nil {
		return err
	}
	runner := frames.NewRunner(reg, frameCache, cache.NewDefaultKeyer(), logger)
	defer runner.Close()

	sessions, err := newSessionStore(ctx, cfg.Sessions)
	if err != nil {
		return err
	}
	defer sessions.Close()

	th := theme.Default()
	if len(cfg.Theme) > 0 {
		if err := th.Apply(cfg.Theme); err != nil {
			return fmt.Errorf("apply theme presets: %w", err)
		}
	}

	observability.EnablePrometheus()

	srv, err := server.New(server.Options{
		Addr:     cfg.Listen,
		Registry: reg,
		Surfaces: surfaces,
		Frames:   runner,
		Sessions: sessions,
		Theme:    th,
		Sink:     sink,
		Hub:      hub,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	// Release every backend handle before the process exits.
	if err := reg.DestroyAll(context.Background()); err != nil {
		logger.Error("destroy instances", "err", err)
	}
	return nil
}
