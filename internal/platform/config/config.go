package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"github.com/SadnessofAtlantis/kibana/internal/bundle"
)

type Config struct {
	AppEnv         string `env:"APP_ENV" default:"development"`
	Port           string `env:"PORT" default:"5601"`
	ServerName     string `env:"SERVER_NAME" default:"kibana"`
	ServerBasePath string `env:"SERVER_BASE_PATH"`
	DatabaseURL    string `env:"DATABASE_URL"`
	RedisURL       string `env:"REDIS_URL"`
	LogLevel       string `env:"LOG_LEVEL" default:"info"`
	LogFormat      string `env:"LOG_FORMAT" default:"text"`

	BundleDir    string `env:"BUNDLE_DIR" default:"optimize/bundles"`
	BundleFilter string `env:"BUNDLE_FILTER" default:"*"`
	SourceMaps   bool   `env:"SOURCE_MAPS" default:"false"`
	PluginsDir   string `env:"PLUGINS_DIR"`
	DefaultApp   string `env:"DEFAULT_APP" default:"kibana"`

	HealthCheckInterval time.Duration `env:"HEALTH_CHECK_INTERVAL" default:"10s"`
	SettingsCacheTTL    time.Duration `env:"SETTINGS_CACHE_TTL" default:"30s"`

	AppRateLimit float64 `env:"APP_RATE_LIMIT" default:"20"`
	AppRateBurst int     `env:"APP_RATE_BURST" default:"40"`
}

// DevMode reports whether the server runs with development conveniences.
func (c *Config) DevMode() bool {
	return c.AppEnv == "development"
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if _, err := url.Parse(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if p := cfg.ServerBasePath; p != "" {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("SERVER_BASE_PATH must start with a slash, got %q", p)
		}
		if strings.HasSuffix(p, "/") {
			return fmt.Errorf("SERVER_BASE_PATH must not end with a slash, got %q", p)
		}
	}

	if _, err := bundle.CompileFilter(cfg.BundleFilter); err != nil {
		return fmt.Errorf("BUNDLE_FILTER is invalid: %w", err)
	}

	if cfg.HealthCheckInterval <= 0 {
		return errors.New("HEALTH_CHECK_INTERVAL must be positive")
	}
	if cfg.AppRateLimit <= 0 || cfg.AppRateBurst < 1 {
		return errors.New("APP_RATE_LIMIT must be positive and APP_RATE_BURST at least 1")
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	return nil
}
