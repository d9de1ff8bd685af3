package api

import (
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"backend": s.cfg.Backend,
		"model":   s.cfg.Model(),
		"stats":   s.stats.Snapshot(),
	})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	if s.models == nil {
		jsonError(w, "model listing requires the ollama backend", http.StatusNotFound)
		return
	}
	models, err := s.models.ListModels(r.Context())
	if err != nil {
		s.writeError(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}
