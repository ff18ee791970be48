// Package server exposes the HTTP surface of the chat backend:
// the chat endpoint that drives the turn loop, and read endpoints for
// stored conversations.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Russell-Ding/AWS-Chat-Template/internal/chat"
	"github.com/Russell-Ding/AWS-Chat-Template/internal/config"
	"github.com/Russell-Ding/AWS-Chat-Template/internal/extract"
	"github.com/Russell-Ding/AWS-Chat-Template/internal/providers"
	"github.com/Russell-Ding/AWS-Chat-Template/internal/store"
)

// Server wires the chat core behind HTTP routes.
type Server struct {
	cfg          config.ServerConfig
	store        store.Store
	orchestrator *chat.Orchestrator
	registry     *providers.Registry
	extractor    extract.Extractor
	httpServer   *http.Server
}

// New creates a Server with its routes mounted.
func New(cfg config.ServerConfig, st store.Store, orch *chat.Orchestrator, registry *providers.Registry, ex extract.Extractor) *Server {
	s := &Server{
		cfg:          cfg,
		store:        st,
		orchestrator: orch,
		registry:     registry,
		extractor:    ex,
	}

	r := chi.NewRouter()
	r.Use(panicRecovery)
	r.Use(requestLogging)

	r.Post("/api/chat", s.handleChat)
	r.Get("/api/conversations", s.handleListConversations)
	r.Get("/api/conversations/{id}", s.handleGetConversation)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout.Std(),
		WriteTimeout: cfg.WriteTimeout.Std(),
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// decodeJSONBody decodes a JSON request body with a 1MB cap.
func decodeJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
