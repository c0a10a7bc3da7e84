// Package server implements the vizhost HTTP API.
//
// One server fronts one [registry.Registry]: REST endpoints for instance
// lifecycle and mutation, a WebSocket stream for interaction events, the
// theme stylesheet, and Prometheus metrics. Handlers translate coded
// errors into HTTP statuses; nothing in this package holds state of its
// own beyond the WebSocket hub.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vizhost/vizhost/pkg/events"
	"github.com/vizhost/vizhost/pkg/frames"
	"github.com/vizhost/vizhost/pkg/registry"
	"github.com/vizhost/vizhost/pkg/session"
	"github.com/vizhost/vizhost/pkg/surface"
	"github.com/vizhost/vizhost/pkg/theme"
	"github.com/vizhost/vizhost/pkg/verrors"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8780"

// =============================================================================
// Server
// =============================================================================

// Server is the HTTP front of a registry. Construct with [New]; all
// collaborators are injected, nothing is global.
type Server struct {
	registry *registry.Registry
	frames   *frames.Runner
	sessions session.Store
	surfaces *surface.Registry
	theme    *theme.Theme
	sink     events.Sink
	hub      *Hub
	logger   *log.Logger

	http *http.Server
}

// Options configures a server. Registry and Surfaces are required; the
// remaining collaborators default to working implementations.
type Options struct {
	// Addr is the listen address (DefaultAddr when empty).
	Addr string

	// Registry hosts the visualization instances. Required.
	Registry *registry.Registry

	// Surfaces must be the same surface registry the instance registry
	// resolves against, so attach/detach endpoints affect creation.
	// Required.
	Surfaces *surface.Registry

	// Frames serves exports through the frame cache. Defaults to an
	// uncached runner over Registry.
	Frames *frames.Runner

	// Sessions stores saved workspaces. Defaults to an in-memory store.
	Sessions session.Store

	// Theme is the stylesheet served at /theme.css. Defaults to the
	// built-in palette.
	Theme *theme.Theme

	// Sink receives interaction events posted by clients. Wire the same
	// sink the registry reports to, so posted clicks reach every consumer.
	// Defaults to a no-op sink.
	Sink events.Sink

	// Hub streams events to WebSocket subscribers. The hub only sees
	// registry events when it is also part of the registry's sink.
	// Defaults to a fresh hub.
	Hub *Hub

	// Logger receives request and lifecycle logs. Defaults to log.Default().
	Logger *log.Logger
}

// New creates a server from the given options.
func New(opts Options) (*Server, error) {
	if opts.Registry == nil {
		return nil, verrors.New(verrors.CodeInvalidConfig, "server requires a registry")
	}
	if opts.Surfaces == nil {
		return nil, verrors.New(verrors.CodeInvalidConfig, "server requires a surface registry")
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		registry: opts.Registry,
		frames:   opts.Frames,
		sessions: opts.Sessions,
		surfaces: opts.Surfaces,
		theme:    opts.Theme,
		sink:     opts.Sink,
		hub:      opts.Hub,
		logger:   logger,
	}
	if s.frames == nil {
		s.frames = frames.NewRunner(opts.Registry, nil, nil, logger)
	}
	if s.sessions == nil {
		s.sessions = session.NewMemoryStore()
	}
	if s.theme == nil {
		s.theme = theme.Default()
	}
	if s.sink == nil {
		s.sink = events.Noop{}
	}
	if s.hub == nil {
		s.hub = NewHub(logger)
	}

	addr := opts.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		// Exports can hold the connection while a headless capture runs,
		// so the write timeout is generous.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// =============================================================================
// Routes
// =============================================================================

// routes builds the router. Split out from New so tests can drive the
// handler tree without a listener.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/theme.css", s.handleThemeCSS)
	r.Get("/ws", s.hub.HandleUpgrade)

	r.Route("/api", func(r chi.Router) {
		r.Route("/surfaces", func(r chi.Router) {
			r.Get("/", s.handleListSurfaces)
			r.Post("/", s.handleAttachSurface)
			r.Delete("/{surfaceID}", s.handleDetachSurface)
		})

		r.Route("/theme", func(r chi.Router) {
			r.Get("/", s.handleGetTheme)
			r.Put("/", s.handleApplyTheme)
		})

		r.Route("/instances", func(r chi.Router) {
			r.Get("/", s.handleListInstances)
			r.Post("/", s.handleCreateInstance)
			r.Delete("/", s.handleDestroyAll)

			r.Route("/{instanceID}", func(r chi.Router) {
				r.Get("/", s.handleGetInstance)
				r.Delete("/", s.handleDestroyInstance)

				r.Get("/data", s.handleGetData)
				r.Put("/data", s.handleSetData)
				r.Post("/clear", s.handleClear)

				r.Post("/nodes", s.handleAddNode)
				r.Patch("/nodes/{nodeID}", s.handleUpdateNode)
				r.Delete("/nodes/{nodeID}", s.handleRemoveNode)
				r.Post("/nodes/{nodeID}/focus", s.handleFocusNode)

				r.Post("/edges", s.handleAddEdge)
				r.Delete("/edges/{edgeID}", s.handleRemoveEdge)

				r.Get("/view", s.handleGetView)
				r.Put("/highlight", s.handleHighlight)
				r.Delete("/highlight", s.handleResetHighlight)
				r.Put("/physics", s.handleSetPhysics)
				r.Put("/layout", s.handleSetLayout)

				r.Get("/export", s.handleExport)
				r.Get("/validate", s.handleValidateFlow)
				r.Post("/events", s.handleClientEvent)
			})
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleSaveSession)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/restore", s.handleRestoreSession)
			})
		})

		r.Post("/download", s.handleDownload)
	})

	return r
}

// Handler returns the full route tree. Tests and embedders drive it
// directly; Start serves it over the configured listener.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// =============================================================================
// Lifecycle
// =============================================================================

// Start serves HTTP until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, disconnects WebSocket subscribers,
// and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server stopping")
	s.hub.CloseAll()
	return s.http.Shutdown(ctx)
}

// =============================================================================
// Middleware
// =============================================================================

// logRequests logs one line per completed request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}
