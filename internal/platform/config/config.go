// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (upstream client, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/folio/internal/platform/constants"
)

// # Configuration Schema

// Config holds all runtime configuration for the Folio gateway.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// External Folio backend
	BackendURL string `env:"BACKEND_URL,required,notEmpty"`

	// APIKey is the static service key sent as x-api-key on every outbound call.
	// Left optional on purpose: an empty key is forwarded as an empty header.
	APIKey string `env:"API_KEY"`

	// UpstreamTimeout bounds a single outbound call to the backend.
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"15s"`

	// Key-Value Cache (Redis). Empty disables the anonymous response cache.
	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5s"`

	// Browser navigation targets used by the OAuth callback.
	FeedPath      string `env:"FEED_PATH"       envDefault:"/feed"`
	AuthErrorPath string `env:"AUTH_ERROR_PATH" envDefault:"/auth/error"`

	// Cross-Origin Resource Sharing
	AllowedOriginSuffix string `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"folio.dev"`
	ExtraOrigins        string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")

	// The proxy must answer before the router-level timeout writes its own 504.
	if cfg.UpstreamTimeout <= 0 || cfg.UpstreamTimeout >= constants.GlobalRequestTimeout {
		return nil, fmt.Errorf("config: UPSTREAM_TIMEOUT must be between 0 and %s, got %s",
			constants.GlobalRequestTimeout, cfg.UpstreamTimeout)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// OriginAllowed reports whether a browser origin may call the gateway
// with credentials outside development mode.
func (c *Config) OriginAllowed(origin string) bool {
	if c.AllowedOriginSuffix != "" && strings.HasSuffix(origin, c.AllowedOriginSuffix) {
		return true
	}
	for _, extra := range strings.Split(c.ExtraOrigins, ",") {
		if extra = strings.TrimSpace(extra); extra != "" && extra == origin {
			return true
		}
	}
	return false
}
