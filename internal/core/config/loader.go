package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/gateway/internal/core/domain"
)

const (
	defaultPort            = 8080
	defaultWorkers         = 1
	defaultMaxAttempts     = 5
	defaultRetryWait       = 5 * time.Second
	defaultPublishTimeout  = 30 * time.Second
	defaultProviderTimeout = 30 * time.Second
	defaultArweaveGateway  = "https://arweave.net"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding environment variables and applying defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Fetcher.Workers == 0 {
		cfg.Fetcher.Workers = defaultWorkers
	}
	if cfg.Fetcher.MaxAttempts == 0 {
		cfg.Fetcher.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Fetcher.RetryWait == nil {
		wait := defaultRetryWait
		cfg.Fetcher.RetryWait = &wait
	}
	if cfg.Fetcher.PublishTimeout == 0 {
		cfg.Fetcher.PublishTimeout = defaultPublishTimeout
	}

	if cfg.Chain.Type == "" {
		cfg.Chain.Type = domain.ChainTypeArweave
	}
	if cfg.Chain.ChainID == "" && cfg.Chain.Type == domain.ChainTypeArweave {
		cfg.Chain.ChainID = domain.ChainIDArweave
	}
	if len(cfg.Chain.Providers) == 0 && cfg.Chain.Type == domain.ChainTypeArweave {
		cfg.Chain.Providers = []ProviderConfig{{Name: "arweave.net", URL: defaultArweaveGateway}}
	}
	for i := range cfg.Chain.Providers {
		if cfg.Chain.Providers[i].Timeout == 0 {
			cfg.Chain.Providers[i].Timeout = defaultProviderTimeout
		}
		if cfg.Chain.Providers[i].Name == "" {
			cfg.Chain.Providers[i].Name = fmt.Sprintf("provider-%d", i)
		}
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "pgx"
	}
	if cfg.Redis.Encoding == "" {
		cfg.Redis.Encoding = "json"
	}
}

// Validate checks settings that have no sensible default.
func (c *AppConfig) Validate() error {
	if c.Fetcher.Workers < 1 {
		return fmt.Errorf("fetcher.workers must be >= 1, got %d", c.Fetcher.Workers)
	}
	if c.Fetcher.MaxAttempts < 1 {
		return fmt.Errorf("fetcher.max_attempts must be >= 1, got %d", c.Fetcher.MaxAttempts)
	}
	if *c.Fetcher.RetryWait < 0 {
		return fmt.Errorf("fetcher.retry_wait must be >= 0, got %v", *c.Fetcher.RetryWait)
	}
	switch c.Chain.Type {
	case domain.ChainTypeArweave, domain.ChainTypeEVM:
	default:
		return fmt.Errorf("unsupported chain type %q", c.Chain.Type)
	}
	if c.Chain.ChainID == "" {
		return fmt.Errorf("chain.id is required for %s chains", c.Chain.Type)
	}
	if len(c.Chain.Providers) == 0 {
		return fmt.Errorf("chain.providers is required for %s chains", c.Chain.Type)
	}
	for i, p := range c.Chain.Providers {
		if p.URL == "" {
			return fmt.Errorf("chain.providers[%d].url is required", i)
		}
	}
	switch c.Redis.Encoding {
	case "json", "proto":
	default:
		return fmt.Errorf("unsupported redis encoding %q", c.Redis.Encoding)
	}
	return nil
}

// RetryWaitOrDefault returns the configured wait between failed fetch attempts.
func (c FetcherConfig) RetryWaitOrDefault() time.Duration {
	if c.RetryWait == nil {
		return defaultRetryWait
	}
	return *c.RetryWait
}
