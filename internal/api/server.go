// Package api exposes the reconciliation engine over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/uGE89/gestion-compras-app-sub000/internal/api/handlers"
	"github.com/uGE89/gestion-compras-app-sub000/internal/api/middleware"
	"github.com/uGE89/gestion-compras-app-sub000/internal/application/reconcile"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	service    *reconcile.Service
}

// NewServer creates a new API server.
func NewServer(cfg Config, service *reconcile.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:  cfg,
		router:  chi.NewRouter(),
		logger:  logger,
		service: service,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.CORS(s.config.AllowedOrigins))
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	runs := handlers.NewRunCache(s.service)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		sessionsHandler := handlers.NewSessionsHandler(s.service, runs)
		r.Post("/sessions/load", sessionsHandler.Load)
		r.Get("/sessions/{key}", sessionsHandler.Get)
		r.Put("/sessions/{key}/preferences", sessionsHandler.Preferences)
		r.Get("/sessions/{key}/summary", sessionsHandler.Summary)

		candidatesHandler := handlers.NewCandidatesHandler(s.service, runs)
		r.Get("/sessions/{key}/bank/{txnID}/candidates", candidatesHandler.List)

		matchesHandler := handlers.NewMatchesHandler(s.service, runs)
		r.Put("/sessions/{key}/bank/{txnID}/match", matchesHandler.Confirm)
		r.Delete("/sessions/{key}/bank/{txnID}/match", matchesHandler.Unconfirm)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
