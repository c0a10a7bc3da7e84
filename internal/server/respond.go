package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vizhost/vizhost/pkg/session"
	"github.com/vizhost/vizhost/pkg/verrors"
)

// statusFor maps an error to its HTTP status. Not-found codes become 404,
// the precondition/invalid family becomes 400, and failures of wrapped
// external libraries or stores become 502; anything uncoded is a 500.
func statusFor(err error) int {
	if verrors.NotFound(err) || errors.Is(err, session.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, session.ErrInvalidID) {
		return http.StatusBadRequest
	}
	switch verrors.GetCode(err) {
	case verrors.CodeContainerMissing,
		verrors.CodeInvalidInput,
		verrors.CodeInvalidLayout,
		verrors.CodeInvalidConfig,
		verrors.CodeInvalidFormat:
		return http.StatusBadRequest
	case verrors.CodeRenderFailed,
		verrors.CodeCaptureFailed,
		verrors.CodeStoreFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// codeFor returns the machine-readable code echoed in error envelopes.
func codeFor(err error) verrors.Code {
	if code := verrors.GetCode(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, session.ErrNotFound):
		return verrors.CodeSessionNotFound
	case errors.Is(err, session.ErrInvalidID):
		return verrors.CodeInvalidInput
	default:
		return verrors.CodeInternal
	}
}

// respondJSON writes v as the response body with the given status.
func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

// respondError writes the error envelope for err at its mapped status.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	s.respondJSON(w, status, errorResponse{Error: errorDetail{
		Code:    string(codeFor(err)),
		Message: verrors.UserMessage(err),
	}})
}

// decodeJSON decodes the request body into v, mapping malformed payloads
// to INVALID_INPUT so they surface as 400s.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return verrors.Wrap(verrors.CodeInvalidInput, err, "decode request body")
	}
	return nil
}
