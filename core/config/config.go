// Package config loads the negotiation engine's runtime configuration. Wallet
// and encryption keys are never stored in the file; the file names the
// environment variables that hold them.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ChainConfig controls crypto settlement. When Enabled is false the engine
// issues reservation codes directly and the remaining fields are ignored.
type ChainConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Currency        string        `yaml:"currency"`
	RPCURL          string        `yaml:"rpcURL"`
	Network         string        `yaml:"network"`
	StableTokenMint string        `yaml:"stableTokenMint"`
	DealTTL         time.Duration `yaml:"dealTTL"`
	WalletKeyEnv    string        `yaml:"walletKeyEnv"`
	SecretKeyEnv    string        `yaml:"secretKeyEnv"`

	// Resolved from the environment during Load.
	WalletKey string `yaml:"-"`
	SecretKey []byte `yaml:"-"`
}

// FeedConfig names one external price endpoint for one token.
type FeedConfig struct {
	Token string `yaml:"token"`
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
}

// PricingConfig selects fixed development rates or a live oracle fed by
// polled endpoints.
type PricingConfig struct {
	UseFixedRates bool          `yaml:"useFixedRates"`
	USDPerSOL     float64       `yaml:"usdPerSOL"`
	USDPerUSDC    float64       `yaml:"usdPerUSDC"`
	OracleTTL     time.Duration `yaml:"oracleTTL"`
	FeedInterval  time.Duration `yaml:"feedInterval"`
	Feeds         []FeedConfig  `yaml:"feeds"`
}

// StrategyConfig selects and tunes the pricing strategy.
type StrategyConfig struct {
	Name               string  `yaml:"name"`
	BaseURL            string  `yaml:"baseURL"`
	APIKeyEnv          string  `yaml:"apiKeyEnv"`
	BusinessType       string  `yaml:"businessType"`
	MarketLoad         string  `yaml:"marketLoad"`
	TriggerPrice       float64 `yaml:"triggerPrice"`
	HighValueThreshold float64 `yaml:"highValueThreshold"`

	APIKey string `yaml:"-"`
}

// TelemetryConfig wires the OTLP exporters.
type TelemetryConfig struct {
	Environment string `yaml:"environment"`
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	Metrics     bool   `yaml:"metrics"`
	Tracing     bool   `yaml:"tracing"`
}

// Config captures runtime configuration for the negotiation engine.
// MetricsAddress serves the Prometheus scrape endpoint on a separate
// listener; empty disables it.
type Config struct {
	ListenAddress  string          `yaml:"listen"`
	MetricsAddress string          `yaml:"metricsListen"`
	DatabaseDSN    string          `yaml:"databaseDSN"`
	DatabasePath   string          `yaml:"databasePath"`
	RPCPerMinute   int             `yaml:"rpcPerMinute"`
	Chain          ChainConfig     `yaml:"chain"`
	Pricing        PricingConfig   `yaml:"pricing"`
	Strategy       StrategyConfig  `yaml:"strategy"`
	Telemetry      TelemetryConfig `yaml:"telemetry"`
}

// Load reads the config file, applies defaults, and resolves secrets from the
// environment. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{
		ListenAddress:  ":9090",
		MetricsAddress: ":9091",
		DatabasePath:   "aura.db",
		RPCPerMinute:   600,
		Chain: ChainConfig{
			Currency:     "SOL",
			Network:      "devnet",
			DealTTL:      time.Hour,
			WalletKeyEnv: "AURA_WALLET_KEY",
			SecretKeyEnv: "AURA_SECRET_KEY",
		},
		Pricing: PricingConfig{
			UseFixedRates: true,
			USDPerSOL:     100,
			USDPerUSDC:    1,
			OracleTTL:     time.Minute,
			FeedInterval:  30 * time.Second,
		},
		Strategy: StrategyConfig{
			Name:               "rule",
			APIKeyEnv:          "AURA_STRATEGY_API_KEY",
			HighValueThreshold: 1000,
		},
		Telemetry: TelemetryConfig{Environment: "dev"},
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
	if raw := strings.TrimSpace(os.Getenv("AURA_DATABASE_DSN")); raw != "" {
		cfg.DatabaseDSN = raw
	}
	cfg.Strategy.APIKey = strings.TrimSpace(os.Getenv(cfg.Strategy.APIKeyEnv))
	if cfg.Chain.Enabled {
		cfg.Chain.WalletKey = strings.TrimSpace(os.Getenv(cfg.Chain.WalletKeyEnv))
		rawSecret := strings.TrimSpace(os.Getenv(cfg.Chain.SecretKeyEnv))
		if rawSecret != "" {
			key, err := hex.DecodeString(rawSecret)
			if err != nil {
				return Config{}, fmt.Errorf("decode %s: %w", cfg.Chain.SecretKeyEnv, err)
			}
			cfg.Chain.SecretKey = key
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot start with.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		return fmt.Errorf("listen address required")
	}
	if strings.TrimSpace(cfg.DatabaseDSN) == "" && strings.TrimSpace(cfg.DatabasePath) == "" {
		return fmt.Errorf("either databaseDSN or databasePath required")
	}
	if cfg.Chain.Enabled {
		switch cfg.Chain.Currency {
		case "SOL":
		case "USDC":
			if strings.TrimSpace(cfg.Chain.StableTokenMint) == "" {
				return fmt.Errorf("chain.stableTokenMint required for USDC settlement")
			}
		default:
			return fmt.Errorf("unsupported settlement currency %q", cfg.Chain.Currency)
		}
		if strings.TrimSpace(cfg.Chain.RPCURL) == "" {
			return fmt.Errorf("chain.rpcURL required when settlement is enabled")
		}
		if cfg.Chain.DealTTL <= 0 {
			return fmt.Errorf("chain.dealTTL must be positive")
		}
		if cfg.Chain.WalletKey == "" {
			return fmt.Errorf("%s must hold the receiving wallet key", cfg.Chain.WalletKeyEnv)
		}
		if len(cfg.Chain.SecretKey) != 32 {
			return fmt.Errorf("%s must hold a hex-encoded 32-byte key", cfg.Chain.SecretKeyEnv)
		}
		if !cfg.Pricing.UseFixedRates && len(cfg.Pricing.Feeds) == 0 {
			return fmt.Errorf("pricing.feeds required when useFixedRates is false")
		}
	}
	if cfg.Strategy.Name != "" && cfg.Strategy.Name != "rule" && strings.TrimSpace(cfg.Strategy.BaseURL) == "" {
		return fmt.Errorf("strategy.baseURL required for model-backed strategy %q", cfg.Strategy.Name)
	}
	return nil
}
