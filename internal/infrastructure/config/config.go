// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for secmatch configuration.
	DefaultConfigDir = ".secmatch"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the default SQLite database file name.
	DefaultDatabaseFile = "secmatch.db"
	// DefaultCollection is the default Qdrant collection name.
	DefaultCollection = "secmatch_entities"
	// DefaultDimensions is the reference embedding dimensionality.
	DefaultDimensions = 768
)

// Config holds static infrastructure configuration (read-only after
// init). Every component takes its section explicitly; there is no
// ambient session state.
type Config struct {
	LLM        LLMConfig        `yaml:"llm,omitempty"`
	Embedder   EmbedderConfig   `yaml:"embedder,omitempty"`
	Qdrant     QdrantConfig     `yaml:"qdrant,omitempty"`
	SQLite     SQLiteConfig     `yaml:"sqlite,omitempty"`
	Resolution ResolutionConfig `yaml:"resolution,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
}

// LLMConfig holds configuration for the reasoning oracle.
type LLMConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
}

// EmbedderConfig holds configuration for the embedding oracle.
type EmbedderConfig struct {
	Provider   string `yaml:"provider,omitempty"`
	Model      string `yaml:"model,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
	Dimensions int    `yaml:"dimensions,omitempty"`
}

// QdrantConfig holds configuration for the Qdrant embedding cache.
type QdrantConfig struct {
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite resolution store.
type SQLiteConfig struct {
	Path string `yaml:"path,omitempty"`
}

// ResolutionConfig holds the tunable pipeline parameters. The
// thresholds are product decisions inferred from the reference data
// and will likely change with real-world tuning.
type ResolutionConfig struct {
	ApproveThreshold float64 `yaml:"approve_threshold,omitempty"`
	ReviewThreshold  float64 `yaml:"review_threshold,omitempty"`
	MaxConcurrency   int     `yaml:"max_concurrency,omitempty"`
	OracleTimeoutSec int     `yaml:"oracle_timeout_seconds,omitempty"`
	RetryAttempts    int     `yaml:"retry_attempts,omitempty"`
	RetryBackoffMS   int     `yaml:"retry_backoff_ms,omitempty"`
}

// OracleTimeout returns the per-attempt oracle timeout.
func (c ResolutionConfig) OracleTimeout() time.Duration {
	return time.Duration(c.OracleTimeoutSec) * time.Second
}

// RetryBackoff returns the base backoff between oracle retries.
func (c ResolutionConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}

// LoggingConfig holds configuration for the run logger.
type LoggingConfig struct {
	Level       string `yaml:"level,omitempty"`
	Environment string `yaml:"environment,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Embedder: EmbedderConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			Dimensions: DefaultDimensions,
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: DefaultCollection,
		},
		Resolution: ResolutionConfig{
			ApproveThreshold: 0.90,
			ReviewThreshold:  0.80,
			MaxConcurrency:   4,
			OracleTimeoutSec: 30,
			RetryAttempts:    3,
			RetryBackoffMS:   500,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Environment: "local",
		},
	}
}

// Load loads configuration from the .secmatch directory in the given
// path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'secmatch init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = DatabasePath(basePath)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = key
		}
		if c.Embedder.APIKey == "" {
			c.Embedder.APIKey = key
		}
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" {
		if c.Qdrant.APIKey == "" {
			c.Qdrant.APIKey = key
		}
	}
}

// ConfigDir returns the path to the .secmatch config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// DatabasePath returns the default SQLite database path.
func DatabasePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultDatabaseFile)
}

// Exists checks if a secmatch config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
