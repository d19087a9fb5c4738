package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ProviderMock, cfg.Providers.Default)
	assert.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, 70.0, cfg.Quality.MinimumConfidence)

	task, ok := cfg.Tasks["market-research"]
	require.True(t, ok)
	assert.True(t, task.Enabled)
	assert.Equal(t, "1.0.0", task.Version)
	assert.Equal(t, 3, task.Retry.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, task.Retry.InitialDelay.Std())
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `
providers:
  default: anthropic
cache:
  backend: redis
  redis:
    addr: localhost:6379
  default_ttl: 30m
tasks:
  market-research:
    enabled: true
    max_tokens: 4096
    timeout: 90s
    retry:
      max_retries: 5
      initial_delay: 1s
      backoff_factor: 3.0
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.Providers.Default)
	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, "localhost:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Cache.DefaultTTL.Std())

	task := cfg.Tasks["market-research"]
	assert.Equal(t, 4096, task.MaxTokens)
	assert.Equal(t, 90*time.Second, task.Timeout.Std())
	assert.Equal(t, 5, task.Retry.MaxRetries)
	assert.Equal(t, time.Second, task.Retry.InitialDelay.Std())
	assert.Equal(t, 3.0, task.Retry.BackoffFactor)
	// Inherited from the default provider since not set per-task.
	assert.Equal(t, ProviderAnthropic, task.Provider)
}

func TestValidateRejectsBadProvider(t *testing.T) {
	cfg := Default()
	cfg.Providers.Default = "carrier-pigeon"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsRedisWithoutAddr(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = CacheBackendRedis
	cfg.Cache.Redis.Addr = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsConfidenceOutOfRange(t *testing.T) {
	cfg := Default()
	cfg.Quality.MinimumConfidence = 140
	assert.Error(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
