package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/educontent/internal/assistant"
	"github.com/dgallion1/educontent/internal/config"
	"github.com/dgallion1/educontent/internal/generate"
	"github.com/dgallion1/educontent/internal/session"
	"github.com/dgallion1/educontent/internal/source"
)

// ModelLister is implemented by backends that can enumerate their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]generate.Model, error)
}

// Server is the HTTP API server for educontent.
type Server struct {
	router    chi.Router
	sessions  *session.Store
	assistant *assistant.Assistant
	fetcher   *source.Fetcher
	stats     *generate.LLMStats
	models    ModelLister
	log       *slog.Logger
	cfg       config.Config
}

// NewServer creates and configures the HTTP server. models may be nil when
// the backend cannot list models.
func NewServer(sessions *session.Store, asst *assistant.Assistant, stats *generate.LLMStats, models ModelLister, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		sessions:  sessions,
		assistant: asst,
		fetcher:   source.NewFetcher(cfg.FetchTimeout, cfg.MaxUploadBytes, cfg.PDFFallbackPdftotext),
		stats:     stats,
		models:    models,
		log:       log,
		cfg:       cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/sessions", s.handleCreateSession)
		r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/source", s.handleSetSource)
			r.Post("/roadmap", s.handleGenerateRoadmap)
			r.Get("/roadmap", s.handleGetRoadmap)
			r.Post("/select", s.handleSelect)
			r.Post("/content", s.handleGenerateContent)
			r.Post("/quiz", s.handleGenerateQuiz)
		})

		r.Get("/api/stats/llm", s.handleLLMStats)
		r.Get("/api/models", s.handleListModels)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
