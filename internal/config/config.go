// Package config loads process configuration from the environment.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every tunable the process reads at startup. Values come from
// VAULTDESK_-prefixed environment variables.
type Config struct {
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	TelemetryEnabled bool   `envconfig:"TELEMETRY_ENABLED" default:"false"`

	// Wallet provider the signer's accounts and signing requests go through.
	WalletProviderURL string `envconfig:"WALLET_PROVIDER_URL" required:"true"`
	SignerAddress     string `envconfig:"SIGNER_ADDRESS"`

	// Per-chain RPC endpoints.
	BaseRPCURL        string `envconfig:"BASE_RPC_URL" default:"https://mainnet.base.org"`
	BaseSepoliaRPCURL string `envconfig:"BASE_SEPOLIA_RPC_URL" default:"https://sepolia.base.org"`

	// Backend identity-resolution service.
	IdentityResolverURL string `envconfig:"IDENTITY_RESOLVER_URL" required:"true"`

	// Tracked-vault persistence.
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Gasless-path receipt polling.
	ReceiptPollInterval time.Duration `envconfig:"RECEIPT_POLL_INTERVAL" default:"3s"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	err := envconfig.Process("vaultdesk", &cfg)
	return cfg, err
}
