package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/educontent/internal/session"
	"github.com/dgallion1/educontent/internal/source"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		s.writeError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.log.Info("session created", "session_id", sess.ID)
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err, http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !s.sessions.Delete(id) {
		jsonError(w, session.ErrNotFound.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sourceRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// handleSetSource accepts exactly one of: a multipart "file", a "text" field
// or a "url" field (form or JSON body).
func (s *Server) handleSetSource(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	// Limit total request size; extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	var (
		req sourceRequest
		doc *source.Document
		err error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
			return
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()
		if _, ok := r.MultipartForm.File["file"]; ok {
			doc, err = s.sourceFromUpload(r)
			if err != nil {
				s.writeError(w, r, err, http.StatusBadRequest)
				return
			}
		}
		req = sourceRequest{Title: r.FormValue("title"), Text: r.FormValue("text"), URL: r.FormValue("url")}
	default:
		if err := r.ParseForm(); err != nil {
			jsonError(w, "invalid form: "+err.Error(), http.StatusBadRequest)
			return
		}
		req = sourceRequest{Title: r.FormValue("title"), Text: r.FormValue("text"), URL: r.FormValue("url")}
	}

	switch {
	case doc != nil:
	case strings.TrimSpace(req.URL) != "":
		doc, err = s.fetcher.Fetch(r.Context(), req.URL)
		if err != nil {
			s.writeError(w, r, err, http.StatusBadGateway)
			return
		}
	case req.Text != "":
		doc, err = source.FromText(req.Title, req.Text)
		if err != nil {
			s.writeError(w, r, err, http.StatusBadRequest)
			return
		}
	default:
		jsonError(w, "one of file, text or url is required", http.StatusBadRequest)
		return
	}
	if req.Title != "" {
		doc.Title = req.Title
	}

	src := s.assistant.LoadSource(sess, doc)
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"source":     src,
	})
}

func (s *Server) sourceFromUpload(r *http.Request) (*source.Document, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("file is required: %w", err)
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !source.IsSupported(filename) {
		return nil, fmt.Errorf("%w: file type %q", source.ErrUnsupported, filepath.Ext(filename))
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", source.ErrTooLarge, s.cfg.MaxUploadBytes)
	}
	return source.Parse(bytes.NewReader(data), filename, s.cfg.PDFFallbackPdftotext)
}
