package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vizhost/vizhost/pkg/session"
	"github.com/vizhost/vizhost/pkg/verrors"
)

// =============================================================================
// Sessions
// =============================================================================

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.sessions.List(r.Context())
	if err != nil {
		s.respondError(w, r, verrors.Wrap(verrors.CodeStoreFailed, err, "list sessions"))
		return
	}
	if summaries == nil {
		summaries = []session.Summary{}
	}
	s.respondJSON(w, http.StatusOK, summaries)
}

// handleSaveSession snapshots every live instance plus the current theme
// into a named session.
func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	var req saveSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	sess := session.Snapshot(s.registry, req.Name, s.theme.Vars())
	if req.ID != "" {
		sess.ID = req.ID
	}
	if err := s.sessions.Put(r.Context(), sess); err != nil {
		s.respondError(w, r, wrapStoreErr(err, "save session %q", sess.ID))
		return
	}

	s.logger.Info("session saved", "session", sess.ID, "instances", len(sess.Instances))
	s.respondJSON(w, http.StatusCreated, sess.Summary())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, wrapStoreErr(err, "get session %q", id))
		return
	}
	s.respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.respondError(w, r, wrapStoreErr(err, "delete session %q", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRestoreSession recreates the saved instances in the registry and
// reapplies the saved theme.
func (s *Server) handleRestoreSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, wrapStoreErr(err, "get session %q", id))
		return
	}

	if err := session.Restore(r.Context(), s.registry, sess); err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(sess.Theme) > 0 {
		// Vars were validated when the session was saved; a failure here
		// must not undo the instances already restored.
		if err := s.theme.Apply(sess.Theme); err != nil {
			s.logger.Warn("restore theme", "session", id, "err", err)
		}
	}

	s.logger.Info("session restored", "session", id, "instances", len(sess.Instances))
	w.WriteHeader(http.StatusNoContent)
}

// wrapStoreErr tags unexpected store failures as STORE_FAILED while
// letting the store's own sentinels keep their status mapping.
func wrapStoreErr(err error, format string, args ...any) error {
	if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrInvalidID) {
		return err
	}
	return verrors.Wrap(verrors.CodeStoreFailed, err, format, args...)
}
