package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "migsmoke.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_DefaultsFromEmptyEnvironment(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("MIGSMOKE_TITLE", "Nightly migration check")
	t.Setenv("MIGSMOKE_ETH_RPC_URL", "http://eth.internal:8545")
	t.Setenv("MIGSMOKE_ETH_CHAIN_ID", "11155111")
	t.Setenv("MIGSMOKE_DB", "/var/lib/migsmoke/history.db")
	t.Setenv("MIGSMOKE_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Nightly migration check", cfg.Title)
	assert.Equal(t, "http://eth.internal:8545", cfg.Ethereum.RPCURL)
	assert.Equal(t, int64(11155111), cfg.Ethereum.ChainID)
	assert.Equal(t, "/var/lib/migsmoke/history.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "v1.15.0", cfg.Ethereum.MinVersion)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, `
title: From file
ethereum:
  rpcUrl: http://127.0.0.1:9545
  minVersion: v1.14.0
solana:
  rpcUrl: http://127.0.0.1:18899
metrics:
  textfile: /tmp/migsmoke.prom
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "From file", cfg.Title)
	assert.Equal(t, "http://127.0.0.1:9545", cfg.Ethereum.RPCURL)
	assert.Equal(t, "v1.14.0", cfg.Ethereum.MinVersion)
	assert.Equal(t, "http://127.0.0.1:18899", cfg.Solana.RPCURL)
	assert.Equal(t, "/tmp/migsmoke.prom", cfg.Metrics.Textfile)
	// Unset fields fall back to defaults
	assert.Equal(t, int64(1), cfg.Ethereum.ChainID)
	assert.Equal(t, "migsmoke", cfg.Metrics.Job)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "title: From file\n")
	t.Setenv("MIGSMOKE_TITLE", "From env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "From env", cfg.Title)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("MIGSMOKE_ETH_MIN_VERSION", "1.15")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid semantic version")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "blank title", mutate: func(c *Config) { c.Title = "  " }, wantErr: "title must not be empty"},
		{name: "bad version", mutate: func(c *Config) { c.Ethereum.MinVersion = "latest" }, wantErr: "minVersion"},
		{name: "zero chain id", mutate: func(c *Config) { c.Ethereum.ChainID = 0 }, wantErr: "chainId"},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "trace" }, wantErr: "logging.level"},
		{name: "bad format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
		{name: "upper case level", mutate: func(c *Config) { c.Logging.Level = "WARN" }},
		{name: "upper case format", mutate: func(c *Config) { c.Logging.Format = "JSON" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
