package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/educontent/internal/present"
	"github.com/dgallion1/educontent/internal/roadmap"
)

type roadmapResponse struct {
	SessionID string         `json:"session_id"`
	Nodes     []roadmap.Node `json:"nodes"`
	Graph     roadmap.Graph  `json:"graph"`
	DOT       string         `json:"dot,omitempty"`
}

func (s *Server) handleGenerateRoadmap(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	rm, err := s.assistant.GenerateRoadmap(r.Context(), sess)
	if err != nil {
		s.writeError(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, roadmapResponse{
		SessionID: sess.ID,
		Nodes:     rm.Nodes,
		Graph:     rm.Graph,
		DOT:       rm.Graph.DOT(),
	})
}

// handleGetRoadmap returns the stored roadmap; ?format=dot returns only the
// Graphviz source.
func (s *Server) handleGetRoadmap(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	rm, err := sess.Roadmap()
	if err != nil {
		s.writeError(w, r, err, http.StatusConflict)
		return
	}
	if r.URL.Query().Get("format") == "dot" {
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		w.Write([]byte(rm.Graph.DOT()))
		return
	}
	resp := roadmapResponse{SessionID: sess.ID, Nodes: rm.Nodes, Graph: rm.Graph}
	if !rm.Graph.Empty() {
		resp.DOT = rm.Graph.DOT()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Index *int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Index == nil {
		jsonError(w, "index is required", http.StatusBadRequest)
		return
	}
	node, err := s.assistant.Select(sess, *req.Index)
	if err != nil {
		s.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"index":      *req.Index,
		"node":       node,
	})
}

func (s *Server) handleGenerateContent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	content, err := s.assistant.GenerateContent(r.Context(), sess)
	if err != nil {
		s.writeError(w, r, err, http.StatusBadGateway)
		return
	}
	s.writeMarkdown(w, r, sess.ID, "content", content)
}

func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	quiz, err := s.assistant.GenerateQuiz(r.Context(), sess)
	if err != nil {
		s.writeError(w, r, err, http.StatusBadGateway)
		return
	}
	s.writeMarkdown(w, r, sess.ID, "quiz", quiz)
}

// writeMarkdown sends generated markdown as JSON, or as an HTML fragment
// with ?format=html.
func (s *Server) writeMarkdown(w http.ResponseWriter, r *http.Request, sessionID, key, markdown string) {
	if r.URL.Query().Get("format") == "html" {
		out, err := present.HTML(markdown)
		if err != nil {
			s.writeError(w, r, err, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(out))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": sessionID,
		key:          markdown,
	})
}
