// Package server assembles the chi router and HTTP server around the
// transcription service.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/openscribe/openscribe/internal/config"
	apperrors "github.com/openscribe/openscribe/internal/errors"
	"github.com/openscribe/openscribe/internal/server/handlers"
	"github.com/openscribe/openscribe/internal/server/middleware"
	"github.com/openscribe/openscribe/internal/service"
)

// Server is the HTTP front of the transcription service.
type Server struct {
	cfg    config.ServerConfig
	router chi.Router
	http   *http.Server
}

// New wires routes, middleware, and timeouts.
func New(cfg config.ServerConfig, svc *service.Service, version handlers.VersionInfo, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := handlers.New(svc, logger)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.NotFound(apperrors.NotFound)
	r.MethodNotAllowed(apperrors.MethodNotAllowed)

	r.With(middleware.RateLimit(cfg.SubmitRatePerSecond, cfg.SubmitBurst)).
		Post("/transcribe", h.Transcribe)
	r.Get("/status/{id}", h.Status)
	r.Get("/health", h.Health)
	r.Get("/version", h.Version(version))

	return &Server{
		cfg:    cfg,
		router: r,
		http: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.http.Addr }

// ListenAndServe blocks until the listener fails or Shutdown runs.
func (s *Server) ListenAndServe() error {
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
