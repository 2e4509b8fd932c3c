package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for all environment variable overrides, e.g.
// TRAKTRELAY_UPSTREAM_CLIENT_ID maps to upstream.client_id.
const EnvPrefix = "TRAKTRELAY"

// Defaults applied before any file or environment override.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("upstream.base_url", "https://api.trakt.tv")
	v.SetDefault("upstream.timeout", 30*time.Second)
	v.SetDefault("upstream.api_version", "2")

	// Secrets default to empty so viper picks up env overrides during
	// Unmarshal; AutomaticEnv only resolves keys it already knows about.
	v.SetDefault("upstream.client_id", "")
	v.SetDefault("upstream.client_secret", "")
	v.SetDefault("auth.caller_key", "")

	v.SetDefault("store.path", "")
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	v.SetDefault("rate_limit.limit", 100)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("rate_limit.sweep_period", time.Minute)

	v.SetDefault("store.driver", "libsql")

	v.SetDefault("logging.level", "info")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
}

// Load builds the configuration from defaults, an optional config file, and
// TRAKTRELAY_* environment variables. Missing upstream credentials are not a
// load error: the gateway reports them per request (see internal/gateway).
func Load(cfgFile string) (*Config, error) {
	v := viper.GetViper()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("traktrelay")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/traktrelay")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects values that would make the limiter or server nonsensical.
// Credential presence is deliberately not validated here.
func validate(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.RateLimit.Limit <= 0 {
		return fmt.Errorf("rate_limit.limit must be positive, got %d", cfg.RateLimit.Limit)
	}
	if cfg.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive, got %s", cfg.RateLimit.Window)
	}
	if cfg.RateLimit.SweepPeriod <= 0 {
		return fmt.Errorf("rate_limit.sweep_period must be positive, got %s", cfg.RateLimit.SweepPeriod)
	}
	if cfg.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	return nil
}
