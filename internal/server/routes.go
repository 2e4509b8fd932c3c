package server

import (
	"os"

	"github.com/fulmenhq/gofulmen/signals"
	"go.uber.org/zap"

	"github.com/traktrelay/traktrelay/internal/gateway"
	"github.com/traktrelay/traktrelay/internal/observability"
	"github.com/traktrelay/traktrelay/internal/server/handlers"
)

// registerRoutes registers all HTTP routes. The proxy route accepts every
// method; OPTIONS preflight is answered inside the gateway handler.
func (s *Server) registerRoutes(gw *gateway.Handler) {
	s.router.Handle("/proxy", gw)

	s.router.Get("/health", handlers.HealthHandler)
	s.router.Get("/health/live", handlers.LivenessHandler)
	s.router.Get("/health/ready", handlers.ReadinessHandler)
	s.router.Get("/health/startup", handlers.StartupHandler)

	s.router.Get("/version", handlers.VersionHandler)

	// Metrics endpoint (in server package to access HandleError)
	s.router.Get("/metrics", MetricsHandler)

	s.registerAdminEndpoint()
}

// registerAdminEndpoint optionally registers the admin signal endpoint.
func (s *Server) registerAdminEndpoint() {
	adminToken := os.Getenv("TRAKTRELAY_ADMIN_TOKEN")
	logger := observability.GatewayLogger

	if adminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no TRAKTRELAY_ADMIN_TOKEN set)")
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: adminToken,
		RateLimit: 10, // requests per minute
		RateBurst: 5,
		Manager:   nil, // use default global manager
	})

	s.router.Post("/admin/signal", handler.ServeHTTP)

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", "/admin/signal"),
			zap.String("auth", "bearer token"))
		logger.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
	}
}
