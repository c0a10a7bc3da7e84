package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vizhost/vizhost/pkg/buildinfo"
	"github.com/vizhost/vizhost/pkg/download"
	"github.com/vizhost/vizhost/pkg/events"
	"github.com/vizhost/vizhost/pkg/graph"
	"github.com/vizhost/vizhost/pkg/registry"
	"github.com/vizhost/vizhost/pkg/render"
	"github.com/vizhost/vizhost/pkg/surface"
	"github.com/vizhost/vizhost/pkg/verrors"
)

// =============================================================================
// Health
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Version:   buildinfo.Version,
		Instances: s.registry.Len(),
	})
}

// =============================================================================
// Instance lifecycle
// =============================================================================

func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	infos := s.registry.List()
	if infos == nil {
		infos = []registry.Info{}
	}
	s.respondJSON(w, http.StatusOK, infos)
}

func (s *Server) handleCreateInstance(w http.ResponseWriter, r *http.Request) {
	var req createInstanceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.registry.Create(r.Context(), req.ID, req.Config); err != nil {
		s.respondError(w, r, err)
		return
	}
	info, err := s.registry.Get(req.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	info, err := s.registry.Get(chi.URLParam(r, "instanceID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDestroyInstance(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Destroy(r.Context(), chi.URLParam(r, "instanceID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDestroyAll(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.DestroyAll(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Data operations
// =============================================================================

func (s *Server) handleGetData(w http.ResponseWriter, r *http.Request) {
	data, err := s.registry.Data(chi.URLParam(r, "instanceID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, data)
}

func (s *Server) handleSetData(w http.ResponseWriter, r *http.Request) {
	var d graph.Data
	if err := decodeJSON(r, &d); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.registry.SetData(r.Context(), chi.URLParam(r, "instanceID"), d); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Clear(r.Context(), chi.URLParam(r, "instanceID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var n graph.Node
	if err := decodeJSON(r, &n); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.registry.AddNode(r.Context(), chi.URLParam(r, "instanceID"), n); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	var patch graph.NodePatch
	if err := decodeJSON(r, &patch); err != nil {
		s.respondError(w, r, err)
		return
	}
	id, nodeID := chi.URLParam(r, "instanceID"), chi.URLParam(r, "nodeID")
	if err := s.registry.UpdateNode(r.Context(), id, nodeID, patch); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	id, nodeID := chi.URLParam(r, "instanceID"), chi.URLParam(r, "nodeID")
	if err := s.registry.RemoveNode(r.Context(), id, nodeID); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddEdge(w http.ResponseWriter, r *http.Request) {
	var e graph.Edge
	if err := decodeJSON(r, &e); err != nil {
		s.respondError(w, r, err)
		return
	}
	created, err := s.registry.AddEdge(r.Context(), chi.URLParam(r, "instanceID"), e)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	// The response carries the generated edge ID back to the client.
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleRemoveEdge(w http.ResponseWriter, r *http.Request) {
	id, edgeID := chi.URLParam(r, "instanceID"), chi.URLParam(r, "edgeID")
	if err := s.registry.RemoveEdge(r.Context(), id, edgeID); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// View operations
// =============================================================================

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	view, err := s.registry.View(chi.URLParam(r, "instanceID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var req highlightRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.registry.Highlight(r.Context(), chi.URLParam(r, "instanceID"), req.Nodes); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetHighlight(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.ResetHighlight(r.Context(), chi.URLParam(r, "instanceID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetPhysics(w http.ResponseWriter, r *http.Request) {
	var req physicsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.registry.SetPhysics(r.Context(), chi.URLParam(r, "instanceID"), req.Enabled); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.registry.SetLayout(r.Context(), chi.URLParam(r, "instanceID"), graph.Layout(req.Layout)); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFocusNode(w http.ResponseWriter, r *http.Request) {
	id, nodeID := chi.URLParam(r, "instanceID"), chi.URLParam(r, "nodeID")
	if err := s.registry.FocusNode(r.Context(), id, nodeID); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Export and validation
// =============================================================================

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(render.FormatPNG)
	}
	format, err := render.ParseFormat(name)
	if err != nil {
		s.respondError(w, r, verrors.New(verrors.CodeInvalidFormat, "unknown export format %q", name))
		return
	}

	frame, hit, err := s.frames.ExportWithCacheInfo(r.Context(), chi.URLParam(r, "instanceID"), format)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", frame.Format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(frame.Data)))
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	if _, err := w.Write(frame.Data); err != nil {
		s.logger.Error("write frame", "err", err)
	}
}

func (s *Server) handleValidateFlow(w http.ResponseWriter, r *http.Request) {
	result, err := s.registry.ValidateFlow(chi.URLParam(r, "instanceID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	// An invalid flow is still a successful validation; the verdict is the body.
	s.respondJSON(w, http.StatusOK, result)
}

// =============================================================================
// Inbound interaction events
// =============================================================================

// handleClientEvent accepts one interaction event from an embedding client
// and forwards it to the sink. Forwarding is fire-and-forget; the instance
// may already be gone, which is the normal race on this boundary.
func (s *Server) handleClientEvent(w http.ResponseWriter, r *http.Request) {
	var req clientEventRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	id := chi.URLParam(r, "instanceID")
	switch req.Kind {
	case events.KindNodeClick:
		s.sink.NodeClicked(id, req.Element)
	case events.KindNodeDoubleClick:
		s.sink.NodeDoubleClicked(id, req.Element)
	case events.KindEdgeClick:
		s.sink.EdgeClicked(id, req.Element)
	case events.KindCanvasClick:
		s.sink.CanvasClicked(id)
	case events.KindNodeDragEnd:
		s.sink.NodeDragEnded(id, req.Element, req.X, req.Y)
	default:
		// Mutation kinds are reported by the registry itself, never posted.
		s.respondError(w, r, verrors.New(verrors.CodeInvalidInput, "event kind %q is not a client interaction", req.Kind))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// =============================================================================
// Surfaces
// =============================================================================

func (s *Server) handleListSurfaces(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.surfaces.List())
}

func (s *Server) handleAttachSurface(w http.ResponseWriter, r *http.Request) {
	var surf surface.Surface
	if err := decodeJSON(r, &surf); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.surfaces.Attach(surf); err != nil {
		s.respondError(w, r, verrors.Wrap(verrors.CodeInvalidInput, err, "attach surface"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDetachSurface(w http.ResponseWriter, r *http.Request) {
	s.surfaces.Detach(chi.URLParam(r, "surfaceID"))
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Theme
// =============================================================================

func (s *Server) handleThemeCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	if _, err := io.WriteString(w, s.theme.CSS()); err != nil {
		s.logger.Error("write theme", "err", err)
	}
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.theme.Vars())
}

func (s *Server) handleApplyTheme(w http.ResponseWriter, r *http.Request) {
	var req applyThemeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.theme.Apply(req.Vars); err != nil {
		s.respondError(w, r, verrors.Wrap(verrors.CodeInvalidInput, err, "apply theme"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Download
// =============================================================================

// handleDownload echoes a client-supplied payload back as a file
// attachment, the bridge a browser needs to turn an exported frame into a
// local save.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var a download.Attachment
	if err := decodeJSON(r, &a); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := download.Write(w, a); err != nil {
		s.respondError(w, r, verrors.Wrap(verrors.CodeInvalidInput, err, "decode attachment"))
	}
}
