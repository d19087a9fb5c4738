// Package config provides configuration loading and validation for the
// analysis coordinator.
//
// KEY PRINCIPLES:
//
//  1. SEPARATION OF CONCERNS: provider selection, cache backend, quality
//     thresholds, and per-task settings are configuration; execution state
//     (metrics, cache contents) never lives here.
//
//  2. VALUE-BASED ACCESS: Load returns the config by value. There is no
//     package-level singleton; callers construct what they need and inject
//     it, so independent coordinators can coexist (one per test).
//
//  3. VALIDATION FIRST: configs are validated on load. Invalid configs are
//     rejected rather than patched up at call sites.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider identifiers accepted in ProviderConfig.Name and Providers.Default.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

// Cache backend identifiers accepted in CacheConfig.Backend.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendSQLite = "sqlite"
	CacheBackendNone   = "none"
)

// Config is the root configuration document.
type Config struct {
	Providers  ProvidersConfig         `yaml:"providers"`
	Cache      CacheConfig             `yaml:"cache"`
	DataSource DataSourceConfig        `yaml:"data_source"`
	Quality    QualityThresholds       `yaml:"quality"`
	Tasks      map[string]TaskSettings `yaml:"tasks"`
	Metrics    MetricsConfig           `yaml:"metrics"`
}

// ProvidersConfig selects the text-generation backend and its credentials.
// API keys are referenced by environment variable name, never stored inline.
type ProvidersConfig struct {
	Default   string         `yaml:"default"`
	Anthropic ProviderConfig `yaml:"anthropic"`
	OpenAI    ProviderConfig `yaml:"openai"`
	Ollama    ProviderConfig `yaml:"ollama"`
	Gemini    ProviderConfig `yaml:"gemini"`
}

// ProviderConfig holds per-provider connection settings.
type ProviderConfig struct {
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	Host      string `yaml:"host"` // Ollama only
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend       string      `yaml:"backend"`
	Redis         RedisConfig `yaml:"redis"`
	SQLitePath    string      `yaml:"sqlite_path"`
	SweepInterval Duration    `yaml:"sweep_interval"`
	DefaultTTL    Duration    `yaml:"default_ttl"`
}

// RedisConfig holds connection settings for the networked cache store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DataSourceConfig configures the external data lookup backend.
type DataSourceConfig struct {
	BaseURL     string   `yaml:"base_url"`
	Timeout     Duration `yaml:"timeout"`
	MemoEntries int      `yaml:"memo_entries"`
	MemoTTL     Duration `yaml:"memo_ttl"`
}

// QualityThresholds are coordinator-wide gates, not per-task state.
type QualityThresholds struct {
	MinimumConfidence float64 `yaml:"minimum_confidence"`
	Completeness      float64 `yaml:"completeness"`
	Consistency       float64 `yaml:"consistency"`
	Actionability     float64 `yaml:"actionability"`
}

// TaskSettings configure one analysis task. Zero values fall back to
// defaults applied by Normalize.
type TaskSettings struct {
	Enabled     bool          `yaml:"enabled"`
	Version     string        `yaml:"version"`
	Provider    string        `yaml:"provider"` // empty uses Providers.Default
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     Duration      `yaml:"timeout"`
	CacheTTL    Duration      `yaml:"cache_ttl"`
	Retry       RetrySettings `yaml:"retry"`
}

// RetrySettings bound the exponential backoff applied to provider calls.
type RetrySettings struct {
	MaxRetries    int      `yaml:"max_retries"`
	InitialDelay  Duration `yaml:"initial_delay"`
	MaxDelay      Duration `yaml:"max_delay"`
	BackoffFactor float64  `yaml:"backoff_factor"`
}

// MetricsConfig configures the observability surface.
type MetricsConfig struct {
	Addr          string `yaml:"addr"`           // promhttp listen address, empty disables
	PrometheusURL string `yaml:"prometheus_url"` // query endpoint for aggregation, optional
}

// Default returns a runnable configuration with the mock provider and the
// in-process cache, suitable for tests and local development.
func Default() Config {
	cfg := Config{
		Providers: ProvidersConfig{
			Default:   ProviderMock,
			Anthropic: ProviderConfig{Model: "claude-sonnet-4-20250514", APIKeyEnv: "ANTHROPIC_API_KEY"},
			OpenAI:    ProviderConfig{Model: "gpt-4o", APIKeyEnv: "OPENAI_API_KEY"},
			Ollama:    ProviderConfig{Model: "llama3.1", Host: "http://localhost:11434"},
			Gemini:    ProviderConfig{Model: "gemini-2.0-flash", APIKeyEnv: "GEMINI_API_KEY"},
		},
		Cache: CacheConfig{
			Backend:       CacheBackendMemory,
			SweepInterval: Duration(time.Minute),
			DefaultTTL:    Duration(time.Hour),
		},
		DataSource: DataSourceConfig{
			Timeout:     Duration(10 * time.Second),
			MemoEntries: 256,
			MemoTTL:     Duration(5 * time.Minute),
		},
		Quality: QualityThresholds{
			MinimumConfidence: 70,
			Completeness:      70,
			Consistency:       70,
			Actionability:     60,
		},
		Tasks: map[string]TaskSettings{
			"market-research":      {Enabled: true},
			"competitor-analysis":  {Enabled: true},
			"financial-projection": {Enabled: true},
		},
	}
	cfg.Normalize()
	return cfg
}

// Load reads, normalizes, and validates a YAML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Normalize fills defaulted fields in place.
func (c *Config) Normalize() {
	if c.Providers.Default == "" {
		c.Providers.Default = ProviderMock
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheBackendMemory
	}
	if c.Cache.SweepInterval <= 0 {
		c.Cache.SweepInterval = Duration(time.Minute)
	}
	if c.Cache.DefaultTTL <= 0 {
		c.Cache.DefaultTTL = Duration(time.Hour)
	}
	if c.Quality.MinimumConfidence <= 0 {
		c.Quality.MinimumConfidence = 70
	}
	if c.DataSource.Timeout <= 0 {
		c.DataSource.Timeout = Duration(10 * time.Second)
	}
	if c.DataSource.MemoEntries <= 0 {
		c.DataSource.MemoEntries = 256
	}
	if c.DataSource.MemoTTL <= 0 {
		c.DataSource.MemoTTL = Duration(5 * time.Minute)
	}

	for id, task := range c.Tasks {
		if task.Version == "" {
			task.Version = "1.0.0"
		}
		if task.Provider == "" {
			task.Provider = c.Providers.Default
		}
		if task.MaxTokens <= 0 {
			task.MaxTokens = 2048
		}
		if task.Temperature <= 0 {
			task.Temperature = 0.7
		}
		if task.Timeout <= 0 {
			task.Timeout = Duration(60 * time.Second)
		}
		if task.CacheTTL <= 0 {
			task.CacheTTL = c.Cache.DefaultTTL
		}
		if task.Retry.MaxRetries < 0 {
			task.Retry.MaxRetries = 0
		}
		if task.Retry.MaxRetries == 0 && task.Retry.InitialDelay == 0 {
			task.Retry = RetrySettings{
				MaxRetries:    3,
				InitialDelay:  Duration(500 * time.Millisecond),
				MaxDelay:      Duration(10 * time.Second),
				BackoffFactor: 2.0,
			}
		}
		if task.Retry.BackoffFactor <= 0 {
			task.Retry.BackoffFactor = 2.0
		}
		if task.Retry.MaxDelay <= 0 {
			task.Retry.MaxDelay = Duration(10 * time.Second)
		}
		c.Tasks[id] = task
	}
}

// Validate rejects configurations the coordinator cannot run with.
func (c *Config) Validate() error {
	switch c.Providers.Default {
	case ProviderAnthropic, ProviderOpenAI, ProviderOllama, ProviderGemini, ProviderMock:
	default:
		return fmt.Errorf("unknown default provider %q", c.Providers.Default)
	}

	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis, CacheBackendSQLite, CacheBackendNone:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheBackendRedis && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache backend %q requires redis.addr", CacheBackendRedis)
	}
	if c.Cache.Backend == CacheBackendSQLite && c.SQLitePath() == "" {
		return fmt.Errorf("cache backend %q requires sqlite_path", CacheBackendSQLite)
	}

	if c.Quality.MinimumConfidence < 0 || c.Quality.MinimumConfidence > 100 {
		return fmt.Errorf("minimum_confidence must be in [0,100], got %v", c.Quality.MinimumConfidence)
	}

	for id, task := range c.Tasks {
		switch task.Provider {
		case ProviderAnthropic, ProviderOpenAI, ProviderOllama, ProviderGemini, ProviderMock:
		default:
			return fmt.Errorf("task %s: unknown provider %q", id, task.Provider)
		}
		if task.Retry.MaxRetries > 10 {
			return fmt.Errorf("task %s: max_retries %d exceeds limit of 10", id, task.Retry.MaxRetries)
		}
	}
	return nil
}

// SQLitePath returns the configured sqlite cache path.
func (c *Config) SQLitePath() string {
	return c.Cache.SQLitePath
}

// APIKey resolves a provider's API key from the environment. An empty
// return means the key is unset; callers decide whether that is fatal.
func (p ProviderConfig) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}
