package config

import (
	"time"

	"github.com/vietddude/gateway/internal/core/domain"
	redisclient "github.com/vietddude/gateway/internal/infra/redis"
	"github.com/vietddude/gateway/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	Fetcher  FetcherConfig      `yaml:"fetcher"`
	Chain    ChainConfig        `yaml:"chain"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP and gRPC server settings.
type ServerConfig struct {
	Port     int `yaml:"port"`
	GRPCPort int `yaml:"grpc_port"` // 0 = gRPC health disabled
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// FetcherConfig holds the transaction fetch queue settings.
type FetcherConfig struct {
	Workers        int            `yaml:"workers"`
	MaxAttempts    int            `yaml:"max_attempts"`
	RetryWait      *time.Duration `yaml:"retry_wait"` // nil = default, 0 is allowed
	PublishTimeout time.Duration  `yaml:"publish_timeout"`
}

// ChainConfig holds settings for the upstream chain.
type ChainConfig struct {
	ChainID   domain.ChainID   `yaml:"id"`
	Type      domain.ChainType `yaml:"type"` // "arweave" or "evm"
	Providers []ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds settings for an upstream endpoint.
type ProviderConfig struct {
	Name    string        `yaml:"name"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}
