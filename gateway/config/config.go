// Package config loads the edge gateway's runtime configuration from a YAML
// file with environment overrides for deployment-specific endpoints.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RateLimitConfig is the fixed-window budget applied per authenticated agent.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// AuthConfig tunes signature verification.
type AuthConfig struct {
	ClockSkew time.Duration `yaml:"clockSkew"`
}

// TelemetryConfig wires the OTLP exporters.
type TelemetryConfig struct {
	Environment string `yaml:"environment"`
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	Metrics     bool   `yaml:"metrics"`
	Tracing     bool   `yaml:"tracing"`
}

// Config captures runtime configuration for the edge gateway.
type Config struct {
	ListenAddress string        `yaml:"listen"`
	ReadTimeout   time.Duration `yaml:"readTimeout"`
	WriteTimeout  time.Duration `yaml:"writeTimeout"`
	IdleTimeout   time.Duration `yaml:"idleTimeout"`
	EngineAddress string        `yaml:"engineAddress"`
	CacheURL      string        `yaml:"cacheURL"`
	Auth          AuthConfig    `yaml:"auth"`
	RateLimit     RateLimitConfig `yaml:"rateLimit"`
	Telemetry     TelemetryConfig `yaml:"telemetry"`
}

// Load reads the config file, applies defaults, and honors environment
// overrides for endpoints that carry credentials. An empty path yields the
// defaults.
func Load(path string) (Config, error) {
	cfg := Config{
		ListenAddress: ":8080",
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   120 * time.Second,
		EngineAddress: "localhost:9090",
		Auth:          AuthConfig{ClockSkew: 60 * time.Second},
		RateLimit:     RateLimitConfig{Requests: 100, Window: 60 * time.Second},
		Telemetry:     TelemetryConfig{Environment: "dev"},
	}
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}
	// The cache URL may carry a password, so the environment wins over the
	// file when both are set.
	if raw := strings.TrimSpace(os.Getenv("AURA_GATEWAY_CACHE_URL")); raw != "" {
		cfg.CacheURL = raw
	}
	if raw := strings.TrimSpace(os.Getenv("AURA_GATEWAY_ENGINE_ADDR")); raw != "" {
		cfg.EngineAddress = raw
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the gateway cannot serve with.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		return fmt.Errorf("listen address required")
	}
	if strings.TrimSpace(cfg.EngineAddress) == "" {
		return fmt.Errorf("engine address required")
	}
	if cfg.Auth.ClockSkew <= 0 {
		return fmt.Errorf("auth.clockSkew must be positive")
	}
	if cfg.RateLimit.Requests <= 0 {
		return fmt.Errorf("rateLimit.requests must be positive")
	}
	if cfg.RateLimit.Window <= 0 {
		return fmt.Errorf("rateLimit.window must be positive")
	}
	return nil
}
