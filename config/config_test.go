package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.RPCEndpoint = "http://localhost:8545"
	cfg.ContractAddress = "0x00000000000000000000000000000000000000aa"
	return cfg
}

func TestValidateConfig(t *testing.T) {
	require.NoError(t, validConfig().ValidateConfig())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing rpc endpoint", func(c *Config) { c.RPCEndpoint = "" }},
		{"missing contract address", func(c *Config) { c.ContractAddress = "" }},
		{"empty supported chains", func(c *Config) { c.SupportedChains = nil }},
		{"missing history path", func(c *Config) { c.HistoryPath = "" }},
		{"zero watch interval", func(c *Config) { c.WatchInterval = 0 }},
		{"zero rate limit", func(c *Config) { c.RPCRateLimit.RequestsPerSecond = 0 }},
		{"zero burst", func(c *Config) { c.RPCRateLimit.BurstSize = 0 }},
		{"prometheus without endpoint", func(c *Config) { c.PrometheusEnabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			require.Error(t, cfg.ValidateConfig())
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, uint64(11155111), cfg.ChainID)
	assert.Contains(t, cfg.SupportedChains, uint64(1))
	assert.Contains(t, cfg.SupportedChains, uint64(11155111))
	assert.Equal(t, uint32(3000), cfg.DefaultFee1)
	assert.Equal(t, uint32(500), cfg.DefaultFee2)
	assert.Equal(t, 5*time.Second, cfg.WatchInterval)
	assert.NotEmpty(t, cfg.HistoryPath)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := validConfig()
	cfg.DefaultFee1 = 10000
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.RPCEndpoint, loaded.RPCEndpoint)
	assert.Equal(t, uint32(10000), loaded.DefaultFee1)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, SaveConfig(validConfig(), path))

	t.Setenv(EnvRPCURL, "http://override:8545")
	t.Setenv(EnvContract, "0x00000000000000000000000000000000000000bb")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://override:8545", loaded.RPCEndpoint)
	assert.Equal(t, "0x00000000000000000000000000000000000000bb", loaded.ContractAddress)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvRPCURL, "http://localhost:8545")
	t.Setenv(EnvContract, "0x00000000000000000000000000000000000000aa")

	loaded, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().DefaultFee1, loaded.DefaultFee1)
}

func TestGetRequiredEnv(t *testing.T) {
	t.Setenv("ARBCTL_TEST_VAR", "value")

	got, err := GetRequiredEnv("ARBCTL_TEST_VAR")
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	_, err = GetRequiredEnv("ARBCTL_TEST_MISSING")
	require.Error(t, err)
}

func TestGetEnvWithDefault(t *testing.T) {
	t.Setenv("ARBCTL_TEST_VAR", "set")

	assert.Equal(t, "set", GetEnvWithDefault("ARBCTL_TEST_VAR", "fallback"))
	assert.Equal(t, "fallback", GetEnvWithDefault("ARBCTL_TEST_MISSING", "fallback"))
}
