// Package server wires the router, the middleware stack and the HTTP server lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/giygas/drugchecker-api/config"
	"github.com/giygas/drugchecker-api/interfaces"
	"github.com/giygas/drugchecker-api/logging"
	"github.com/giygas/drugchecker-api/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const rateLimitCleanupInterval = 30 * time.Minute

// Server represents the HTTP server
type Server struct {
	server  *http.Server
	router  chi.Router
	handler interfaces.HTTPHandler
	limiter *RateLimiter
	config  *config.Config
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, handler interfaces.HTTPHandler) *Server {
	router := chi.NewRouter()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		server: &http.Server{
			Handler:           router,
			Addr:              cfg.Address + ":" + cfg.Port,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    int(cfg.MaxHeaderSize),
		},
		router:  router,
		handler: handler,
		limiter: NewRateLimiter(cfg.RateLimitRate, cfg.RateLimitCapacity),
		config:  cfg,
		ctx:     ctx,
		cancel:  cancel,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logging.LoggingMiddleware(logging.Logger()))
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Metrics)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(s.limiter.Middleware)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/analyze-pdf", s.handler.AnalyzePDF)
		r.Post("/analyze", s.handler.AnalyzeText)
		r.Get("/drugs", s.handler.ListDrugs)
		r.Get("/drugs/{name}", s.handler.GetDrug)
	})

	s.router.Get("/health", s.handler.HealthCheck)
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler())
}

// Handler returns the root handler with all middleware applied
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	s.limiter.StartCleanup(s.ctx, rateLimitCleanupInterval)

	logging.Info(fmt.Sprintf("Starting server at: %s", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}
