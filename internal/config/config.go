// Package config defines the explicit configuration struct built once at
// startup and injected into the server and gateway components. Nothing in the
// request path reads the environment directly.
package config

import "time"

// Config represents the complete application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// UpstreamConfig contains the Trakt API endpoint and the OAuth client
// credentials injected into outbound requests. ClientID and ClientSecret are
// required for the gateway to function; their absence fails each proxied
// request with a configuration error before any upstream call.
type UpstreamConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	Timeout      time.Duration `mapstructure:"timeout"`
	APIVersion   string        `mapstructure:"api_version"`
}

// AuthConfig contains the shared secret expected from legitimate callers.
type AuthConfig struct {
	CallerKey string `mapstructure:"caller_key"`
}

// RateLimitConfig contains the fixed-window limiter parameters.
type RateLimitConfig struct {
	Limit       int           `mapstructure:"limit"`
	Window      time.Duration `mapstructure:"window"`
	SweepPeriod time.Duration `mapstructure:"sweep_period"`
}

// StoreConfig contains the optional libsql decision-audit store settings.
// An empty path and URL disables auditing entirely.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level.
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// AuditEnabled reports whether a decision-audit store is configured.
func (c StoreConfig) AuditEnabled() bool {
	return c.Path != "" || c.URL != ""
}

// HasUpstreamCredentials reports whether both OAuth client credentials are set.
func (c UpstreamConfig) HasUpstreamCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}
