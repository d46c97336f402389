package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cored.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.ListenAddress)
	require.Equal(t, ":9091", cfg.MetricsAddress)
	require.Equal(t, "aura.db", cfg.DatabasePath)
	require.False(t, cfg.Chain.Enabled)
	require.Equal(t, "rule", cfg.Strategy.Name)
	require.Equal(t, 1000.0, cfg.Strategy.HighValueThreshold)
	require.Equal(t, time.Hour, cfg.Chain.DealTTL)
}

func TestLoadChainEnabled(t *testing.T) {
	secret := hex.EncodeToString(make([]byte, 32))
	t.Setenv("AURA_WALLET_KEY", "4rQanLxTFvdgtLsGirqkEYLq8nUS5euZpwqy8LTBkPx1")
	t.Setenv("AURA_SECRET_KEY", secret)

	path := writeConfig(t, `
chain:
  enabled: true
  currency: SOL
  rpcURL: "https://api.devnet.solana.com"
  network: devnet
  dealTTL: 30m
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Chain.Enabled)
	require.Equal(t, 30*time.Minute, cfg.Chain.DealTTL)
	require.Equal(t, "4rQanLxTFvdgtLsGirqkEYLq8nUS5euZpwqy8LTBkPx1", cfg.Chain.WalletKey)
	require.Len(t, cfg.Chain.SecretKey, 32)
}

func TestLoadChainMissingSecrets(t *testing.T) {
	t.Setenv("AURA_WALLET_KEY", "")
	t.Setenv("AURA_SECRET_KEY", "")

	path := writeConfig(t, `
chain:
  enabled: true
  rpcURL: "https://api.devnet.solana.com"
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadUSDCRequiresMint(t *testing.T) {
	t.Setenv("AURA_WALLET_KEY", "4rQanLxTFvdgtLsGirqkEYLq8nUS5euZpwqy8LTBkPx1")
	t.Setenv("AURA_SECRET_KEY", hex.EncodeToString(make([]byte, 32)))

	body := `
chain:
  enabled: true
  currency: USDC
  rpcURL: "https://api.devnet.solana.com"
`
	_, err := Load(writeConfig(t, body))
	require.Error(t, err)

	_, err = Load(writeConfig(t, body+"  stableTokenMint: \"4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU\"\n"))
	require.NoError(t, err)
}

func TestLoadModelStrategyNeedsEndpoint(t *testing.T) {
	_, err := Load(writeConfig(t, "strategy:\n  name: gpt-4o-mini\n"))
	require.Error(t, err)

	cfg, err := Load(writeConfig(t, "strategy:\n  name: gpt-4o-mini\n  baseURL: \"https://llm.internal/v1\"\n"))
	require.NoError(t, err)
	require.Equal(t, "gpt-4o-mini", cfg.Strategy.Name)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "chain:\n  enabeld: true\n"))
	require.Error(t, err)
}

func TestDatabaseDSNFromEnv(t *testing.T) {
	t.Setenv("AURA_DATABASE_DSN", "postgres://aura:pw@db:5432/aura")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "postgres://aura:pw@db:5432/aura", cfg.DatabaseDSN)
}
