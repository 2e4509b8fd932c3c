package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/traktrelay/traktrelay/internal/config"
	apperrors "github.com/traktrelay/traktrelay/internal/errors"
	"github.com/traktrelay/traktrelay/internal/gateway"
	"github.com/traktrelay/traktrelay/internal/observability"
	"github.com/traktrelay/traktrelay/internal/server/handlers"
	servermw "github.com/traktrelay/traktrelay/internal/server/middleware"
)

// Server represents the HTTP server fronting the gateway pipeline.
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    config.ServerConfig
}

// New creates the HTTP server and mounts the proxy handler.
func New(cfg config.ServerConfig, gw *gateway.Handler) *Server {
	r := chi.NewRouter()

	// RealIP first so the rate limiter keys on the original client address.
	r.Use(middleware.RealIP)

	// Custom middleware in order: RequestID → Metrics → Recovery.
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	s := &Server{
		router: r,
		cfg:    cfg,
	}

	// Ensure handlers use the centralized error responder
	handlers.SetHTTPErrorResponder(HandleError)

	s.registerRoutes(gw)

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	observability.GatewayLogger.Info("Starting HTTP server",
		zap.String("host", s.cfg.Host),
		zap.Int("port", s.cfg.Port),
		zap.String("addr", addr))

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	observability.GatewayLogger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation.
func (s *Server) Handler() http.Handler {
	return s.router
}
