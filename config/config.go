package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds everything the client needs besides secrets, which come
// from the environment.
type Config struct {
	// Chain and network settings
	ChainID         uint64   `json:"chain_id"`
	SupportedChains []uint64 `json:"supported_chains"`
	RPCEndpoint     string   `json:"rpc_endpoint"`
	ContractAddress string   `json:"contract_address"`

	// Local state
	HistoryPath    string `json:"history_path"`
	TokenTablePath string `json:"token_table_path,omitempty"`

	// Flash loan defaults
	DefaultFee1 uint32 `json:"default_fee1"`
	DefaultFee2 uint32 `json:"default_fee2"`

	// RPC throttling
	RPCRateLimit RateLimitConfig `json:"rpc_rate_limit"`

	// Chain watcher
	WatchInterval time.Duration `json:"watch_interval"`

	// Metrics
	PrometheusEnabled  bool   `json:"prometheus_enabled"`
	PrometheusEndpoint string `json:"prometheus_endpoint"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	BurstSize         int     `json:"burst_size"`
}

func (r *RateLimitConfig) Validate() error {
	if r.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive")
	}
	if r.BurstSize <= 0 {
		return fmt.Errorf("burst size must be positive")
	}
	return nil
}

func (c *Config) ValidateConfig() error {
	var errors []string

	if c.RPCEndpoint == "" {
		errors = append(errors, "rpc_endpoint must be specified")
	}
	if c.ContractAddress == "" {
		errors = append(errors, "contract_address must be specified")
	}
	if len(c.SupportedChains) == 0 {
		errors = append(errors, "supported_chains must not be empty")
	}
	if c.HistoryPath == "" {
		errors = append(errors, "history_path must be specified")
	}
	if c.WatchInterval <= 0 {
		errors = append(errors, "watch_interval must be positive")
	}
	if err := c.RPCRateLimit.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("RPC rate limit error: %v", err))
	}
	if c.PrometheusEnabled && c.PrometheusEndpoint == "" {
		errors = append(errors, "prometheus_endpoint must be specified when prometheus is enabled")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}
	return nil
}

// LoadConfig reads the JSON config file, defaulting to ~/.arbctl.json.
// Environment variables override the endpoint and contract address.
func LoadConfig(cfgFile string) (*Config, error) {
	config := DefaultConfig()

	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".arbctl.json")
	}

	file, err := os.Open(cfgFile)
	if err == nil {
		defer file.Close()
		if err := json.NewDecoder(file).Decode(config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	if rpc := os.Getenv(EnvRPCURL); rpc != "" {
		config.RPCEndpoint = rpc
	}
	if contract := os.Getenv(EnvContract); contract != "" {
		config.ContractAddress = contract
	}

	if err := config.ValidateConfig(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes the config back as indented JSON.
func SaveConfig(cfg *Config, cfgFile string) error {
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		cfgFile = filepath.Join(home, ".arbctl.json")
	}

	file, err := os.Create(cfgFile)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "    ")
	return encoder.Encode(cfg)
}

// DefaultConfig targets Sepolia, where the reference deployment lives.
func DefaultConfig() *Config {
	historyPath := "history.json"
	if home, err := os.UserHomeDir(); err == nil {
		historyPath = filepath.Join(home, ".arbctl", "history.json")
	}

	return &Config{
		ChainID:         11155111,
		SupportedChains: []uint64{1, 11155111},
		HistoryPath:     historyPath,
		DefaultFee1:     3000,
		DefaultFee2:     500,
		RPCRateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			BurstSize:         20,
		},
		WatchInterval:      5 * time.Second,
		PrometheusEnabled:  false,
		PrometheusEndpoint: "",
	}
}
