package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/educontent/internal/assistant"
	"github.com/dgallion1/educontent/internal/session"
	"github.com/dgallion1/educontent/internal/source"
)

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// errorStatus maps domain errors to HTTP status codes. fallback is used for
// anything unrecognised.
func errorStatus(err error, fallback int) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrFull):
		return http.StatusServiceUnavailable
	case assistant.IsPrerequisite(err), errors.Is(err, session.ErrStale):
		return http.StatusConflict
	case errors.Is(err, session.ErrBadIndex),
		errors.Is(err, source.ErrUnsupported),
		errors.Is(err, source.ErrEmpty),
		errors.Is(err, source.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, source.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, assistant.ErrEmptyRoadmap):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return fallback
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, fallback int) {
	code := errorStatus(err, fallback)
	if code >= 500 {
		s.log.Error("request failed", "path", r.URL.Path, "status", code, "error", err)
	}
	jsonError(w, err.Error(), code)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
