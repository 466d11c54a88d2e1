// Package config loads migsmoke settings from an optional YAML file and
// MIGSMOKE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"golang.org/x/mod/semver"
)

// DefaultTitle is the report title used when none is configured.
const DefaultTitle = "Go Module Migration Test Suite"

// Config is the complete migsmoke configuration.
type Config struct {
	// Title is printed in the report header.
	Title string `yaml:"title" env:"MIGSMOKE_TITLE" env-default:"Go Module Migration Test Suite"`

	Ethereum EthereumConfig `yaml:"ethereum"`
	Solana   SolanaConfig   `yaml:"solana"`
	Redis    RedisConfig    `yaml:"redis"`
	Store    StoreConfig    `yaml:"store"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// EthereumConfig holds settings for the go-ethereum checks.
type EthereumConfig struct {
	// RPCURL is dialled lazily; the node does not need to be running.
	RPCURL string `yaml:"rpcUrl" env:"MIGSMOKE_ETH_RPC_URL" env-default:"http://localhost:8545"`

	// MinVersion is the lowest acceptable go-ethereum module version (semver, "v" prefix).
	MinVersion string `yaml:"minVersion" env:"MIGSMOKE_ETH_MIN_VERSION" env-default:"v1.15.0"`

	// ChainID is used for EIP-155 transaction signing.
	ChainID int64 `yaml:"chainId" env:"MIGSMOKE_ETH_CHAIN_ID" env-default:"1"`
}

// SolanaConfig holds settings for the Solana client check.
type SolanaConfig struct {
	RPCURL string `yaml:"rpcUrl" env:"MIGSMOKE_SOLANA_RPC_URL" env-default:"http://localhost:8899"`
}

// RedisConfig holds settings for the Redis client construction check.
type RedisConfig struct {
	Addr string `yaml:"addr" env:"MIGSMOKE_REDIS_ADDR" env-default:"localhost:6379"`
}

// StoreConfig controls run history persistence.
type StoreConfig struct {
	// Path is the SQLite database file. Empty disables history.
	Path string `yaml:"path" env:"MIGSMOKE_DB"`
}

// LoggingConfig controls the slog logger.
type LoggingConfig struct {
	// Level - debug, info, warn, error
	Level string `yaml:"level" env:"MIGSMOKE_LOG_LEVEL" env-default:"info"`

	// Format - text, json
	Format string `yaml:"format" env:"MIGSMOKE_LOG_FORMAT" env-default:"text"`

	// File - when set, logs go to this file with rotation instead of stderr.
	File string `yaml:"file" env:"MIGSMOKE_LOG_FILE"`

	MaxSizeMB  int `yaml:"maxSizeMb" env:"MIGSMOKE_LOG_MAX_SIZE" env-default:"10"`
	MaxBackups int `yaml:"maxBackups" env:"MIGSMOKE_LOG_MAX_BACKUPS" env-default:"3"`
	MaxAgeDays int `yaml:"maxAgeDays" env:"MIGSMOKE_LOG_MAX_AGE" env-default:"7"`
}

// MetricsConfig controls Prometheus export of run results.
type MetricsConfig struct {
	// Textfile is a path for the node_exporter textfile collector. Empty disables it.
	Textfile string `yaml:"textfile" env:"MIGSMOKE_METRICS_TEXTFILE"`

	// PushgatewayURL, when set, receives the run metrics via PUT.
	PushgatewayURL string `yaml:"pushgatewayUrl" env:"MIGSMOKE_METRICS_PUSHGATEWAY_URL"`

	// Job is the Pushgateway job label.
	Job string `yaml:"job" env:"MIGSMOKE_METRICS_JOB" env-default:"migsmoke"`
}

var validLevels = []string{"debug", "info", "warn", "error"}

var validLogFormats = []string{"text", "json"}

// Load reads configuration. When path is non-empty the YAML file is read
// first and environment variables override it; otherwise only the
// environment (and defaults) are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration produced by an empty environment.
func Default() *Config {
	return &Config{
		Title: DefaultTitle,
		Ethereum: EthereumConfig{
			RPCURL:     "http://localhost:8545",
			MinVersion: "v1.15.0",
			ChainID:    1,
		},
		Solana: SolanaConfig{RPCURL: "http://localhost:8899"},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		Metrics: MetricsConfig{Job: "migsmoke"},
	}
}

// Validate checks field values that cleanenv cannot express.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, errors.New("title must not be empty"))
	}
	if !semver.IsValid(c.Ethereum.MinVersion) {
		errs = append(errs, fmt.Errorf("ethereum.minVersion %q is not a valid semantic version", c.Ethereum.MinVersion))
	}
	if c.Ethereum.ChainID <= 0 {
		errs = append(errs, fmt.Errorf("ethereum.chainId must be positive, got %d", c.Ethereum.ChainID))
	}
	if !slices.Contains(validLevels, strings.ToLower(c.Logging.Level)) {
		errs = append(errs, fmt.Errorf("logging.level %q: must be one of %v", c.Logging.Level, validLevels))
	}
	if !slices.Contains(validLogFormats, strings.ToLower(c.Logging.Format)) {
		errs = append(errs, fmt.Errorf("logging.format %q: must be one of %v", c.Logging.Format, validLogFormats))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
