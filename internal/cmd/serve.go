package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/traktrelay/traktrelay/internal/config"
	errwrap "github.com/traktrelay/traktrelay/internal/errors"
	"github.com/traktrelay/traktrelay/internal/gateway"
	"github.com/traktrelay/traktrelay/internal/observability"
	"github.com/traktrelay/traktrelay/internal/server"
	"github.com/traktrelay/traktrelay/internal/server/handlers"
	"github.com/traktrelay/traktrelay/internal/store"
)

var (
	serverPort int
	serverHost string
)

// limiterHealthChecker reports the limiter as healthy while its map is live.
type limiterHealthChecker struct {
	limiter *gateway.RateLimiter
}

func (c limiterHealthChecker) CheckHealth(ctx context.Context) error {
	if c.limiter == nil {
		return errwrap.NewInternalError("rate limiter not initialized")
	}
	return nil
}

// telemetryHealthChecker ensures the telemetry system and exporter are available.
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// credentialsHealthChecker fails readiness when the upstream OAuth client
// credentials are missing; every proxied request would 500 anyway.
type credentialsHealthChecker struct {
	upstream config.UpstreamConfig
}

func (c credentialsHealthChecker) CheckHealth(ctx context.Context) error {
	if !c.upstream.HasUpstreamCredentials() {
		return errwrap.NewConfigMissingError("upstream client credentials are not configured")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway HTTP server",
	Long: `Start the gateway HTTP server with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (placeholder - restart recommended)

Shutdown stops the HTTP server, cancels the rate-limit sweeper, closes the
audit store, and flushes logs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		observability.InitGatewayLogger(serviceName, cfg.Logging.Level)
		logger := observability.GatewayLogger

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(serviceName, cfg.Metrics.Port); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
			}
		}

		logger.Info("Initializing gateway",
			zap.String("service", serviceName),
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.String("upstream", cfg.Upstream.BaseURL),
			zap.Int("rate_limit", cfg.RateLimit.Limit),
			zap.Duration("rate_window", cfg.RateLimit.Window),
			zap.Bool("credentials_configured", cfg.Upstream.HasUpstreamCredentials()),
			zap.Bool("audit_enabled", cfg.Store.AuditEnabled()))

		if !cfg.Upstream.HasUpstreamCredentials() {
			logger.Warn("Upstream client credentials missing - every proxied request will fail with a configuration error")
		}

		allowlist, err := gateway.DefaultAllowlist()
		if err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "allowlist initialization failed")
		}

		limiter := gateway.NewRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window)
		sweepCtx, stopSweeper := context.WithCancel(context.Background())
		limiter.StartSweeper(sweepCtx, cfg.RateLimit.SweepPeriod)

		var auditStore *store.Store
		if cfg.Store.AuditEnabled() {
			auditStore, err = store.Open(cmd.Context(), cfg.Store)
			if err != nil {
				stopSweeper()
				return errwrap.WrapInternal(cmd.Context(), err, "audit store initialization failed")
			}
			logger.Info("Audit store opened", zap.String("driver", auditStore.Driver()))
		}

		gw := &gateway.Handler{
			Limiter:  limiter,
			Allow:    allowlist,
			Auth:     gateway.Authenticator{CallerKey: cfg.Auth.CallerKey},
			Upstream: gateway.NewUpstreamClient(cfg.Upstream),
			Logger:   logger,
		}
		if auditStore != nil {
			gw.Audit = auditStore
		}

		handlers.InitHealthManager(versionInfo.Version)
		hm := handlers.GetHealthManager()
		hm.RegisterChecker("rate_limiter", limiterHealthChecker{limiter: limiter})
		hm.RegisterChecker("upstream_credentials", credentialsHealthChecker{upstream: cfg.Upstream})
		if cfg.Metrics.Enabled {
			hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		}
		if auditStore != nil {
			hm.RegisterChecker("audit_store", auditStore)
		}

		srv := server.New(cfg.Server, gw)

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Shutdown handlers run LIFO: HTTP server first, then sweeper and
		// store, then the log flush.
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Flushing logger...")
			if err := logger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
			}
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Stopping rate-limit sweeper and audit store...")
			stopSweeper()
			if auditStore != nil {
				if err := auditStore.Close(); err != nil {
					logger.Warn("Audit store close returned error", zap.Error(err))
				}
			}
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		signals.OnReload(func(ctx context.Context) error {
			logger.Info("Received SIGHUP: attempting config reload")

			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); ok {
					logger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				logger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapInternal(ctx, err, "config reload failed")
			}

			logger.Info("Configuration reloaded successfully",
				zap.String("file", viper.ConfigFileUsed()))
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		errChan := make(chan error, 1)
		go func() {
			logger.Info("Starting HTTP server...",
				zap.String("host", cfg.Server.Host),
				zap.Int("port", cfg.Server.Port))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "server error")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "0.0.0.0", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
