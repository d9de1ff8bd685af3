package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgallion1/educontent/internal/api"
	"github.com/dgallion1/educontent/internal/assistant"
	"github.com/dgallion1/educontent/internal/config"
	"github.com/dgallion1/educontent/internal/generate"
	"github.com/dgallion1/educontent/internal/session"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the model backend.
	backend, err := generate.New(cfg)
	if err != nil {
		log.Error("invalid backend", "error", err)
		os.Exit(1)
	}
	prompts, err := generate.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		log.Error("invalid prompts file", "path", cfg.PromptsFile, "error", err)
		os.Exit(1)
	}
	stats := generate.NewLLMStats(time.Hour)
	gen := generate.Stack(backend, cfg, stats, log)

	var models api.ModelLister
	if ollama, ok := backend.(*generate.OllamaClient); ok {
		models = ollama
	}

	// Initialize sessions.
	sessions := session.NewStore(cfg.SessionTTL, cfg.MaxSessions, log)
	sessions.Start(ctx)

	asst := assistant.New(gen, prompts, assistant.Options{
		MaxSourceTokens: cfg.MaxSourceTokens,
		UniqueNodeIDs:   cfg.UniqueNodeIDs,
	}, log)

	// Initialize HTTP server.
	srv := api.NewServer(sessions, asst, stats, models, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: generate.CallBudget(cfg) + time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		sessions.Stop()
		generate.Close(gen)
	}()

	log.Info("starting educontent", "port", cfg.Port, "backend", gen.Name())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
