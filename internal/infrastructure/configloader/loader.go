package configloader

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port                string `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// WalletConfig holds wallet session settings.
type WalletConfig struct {
	// TargetChainID is the designated network; connecting on any other
	// supported chain lands in the wrong-network state.
	TargetChainID uint64 `yaml:"target_chain_id"`
	// AccountAddress seeds the headless provider's account list. Empty means
	// the provider reports no accounts.
	AccountAddress string `yaml:"account_address"`
	// ProviderChains are the chain ids the provider starts out knowing;
	// switching to any other chain requires the add-chain flow first.
	ProviderChains []uint64 `yaml:"provider_chains"`
	// InitialChainID is the chain the provider starts on.
	InitialChainID uint64 `yaml:"initial_chain_id"`
}

// PricesConfig holds price feed settings.
type PricesConfig struct {
	RefreshIntervalMillis int64    `yaml:"refresh_interval_millis"`
	StaleThresholdMillis  int64    `yaml:"stale_threshold_millis"`
	RequestTimeoutMillis  int64    `yaml:"request_timeout_millis"`
	Endpoints             []string `yaml:"endpoints"`
}

// PortfolioConfig holds aggregation settings.
type PortfolioConfig struct {
	FetchTimeoutMillis   int64 `yaml:"fetch_timeout_millis"`
	MaxConcurrentFetches int   `yaml:"max_concurrent_fetches"`
}

// RPCConfig holds JSON-RPC client settings.
type RPCConfig struct {
	RequestTimeoutMillis int64   `yaml:"request_timeout_millis"`
	RateLimitPerSecond   float64 `yaml:"rate_limit_per_second"`
}

// SwapConfig holds simulated swap execution settings.
type SwapConfig struct {
	ExecutionLatencyMillis int64 `yaml:"execution_latency_millis"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Wallet    WalletConfig    `yaml:"wallet"`
	Prices    PricesConfig    `yaml:"prices"`
	Portfolio PortfolioConfig `yaml:"portfolio"`
	RPC       RPCConfig       `yaml:"rpc"`
	Swap      SwapConfig      `yaml:"swap"`
}

// Load reads the YAML configuration file from the given path, applies env
// overrides (a .env file is honored when present) and fills defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if addr := os.Getenv("WALLET_ADDRESS"); addr != "" {
		cfg.Wallet.AccountAddress = addr
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ReadTimeoutSeconds <= 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds <= 0 {
		cfg.Server.WriteTimeoutSeconds = 15
	}
	if cfg.Server.IdleTimeoutSeconds <= 0 {
		cfg.Server.IdleTimeoutSeconds = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Wallet.TargetChainID == 0 {
		cfg.Wallet.TargetChainID = 56
	}
	if cfg.Wallet.InitialChainID == 0 {
		cfg.Wallet.InitialChainID = cfg.Wallet.TargetChainID
	}
	if len(cfg.Wallet.ProviderChains) == 0 {
		cfg.Wallet.ProviderChains = []uint64{cfg.Wallet.InitialChainID}
	}
	if cfg.Prices.RefreshIntervalMillis <= 0 {
		cfg.Prices.RefreshIntervalMillis = 10000
	}
	if cfg.Prices.StaleThresholdMillis <= 0 {
		cfg.Prices.StaleThresholdMillis = 30000
	}
	if cfg.Prices.RequestTimeoutMillis <= 0 {
		cfg.Prices.RequestTimeoutMillis = 8000
	}
	if len(cfg.Prices.Endpoints) == 0 {
		cfg.Prices.Endpoints = []string{
			"https://data-api.binance.vision/api/v3/ticker/24hr",
			"https://api.binance.com/api/v3/ticker/24hr",
		}
	}
	if cfg.Portfolio.FetchTimeoutMillis <= 0 {
		cfg.Portfolio.FetchTimeoutMillis = 8000
	}
	if cfg.Portfolio.MaxConcurrentFetches <= 0 {
		cfg.Portfolio.MaxConcurrentFetches = 10
	}
	if cfg.RPC.RequestTimeoutMillis <= 0 {
		cfg.RPC.RequestTimeoutMillis = 10000
	}
	if cfg.RPC.RateLimitPerSecond <= 0 {
		cfg.RPC.RateLimitPerSecond = 20
	}
	if cfg.Swap.ExecutionLatencyMillis <= 0 {
		cfg.Swap.ExecutionLatencyMillis = 2000
	}
}
