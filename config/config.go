// Package config provides layered configuration loading for the
// pipeline service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete pipeline configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Datastore DatastoreConfig `yaml:"datastore"`
	HTTP      HTTPConfig      `yaml:"http"`
	Jobs      JobsConfig      `yaml:"jobs"`
	Alerts    AlertsConfig    `yaml:"alerts"`
}

// LLMConfig configures the primary and fallback LLM endpoints.
type LLMConfig struct {
	Provider          string        `yaml:"provider"`
	Endpoint          string        `yaml:"endpoint"`
	Model             string        `yaml:"model"`
	FallbackProvider  string        `yaml:"fallback_provider"`
	FallbackEndpoint  string        `yaml:"fallback_endpoint"`
	FallbackModel     string        `yaml:"fallback_model"`
	Temperature       float64       `yaml:"temperature"`
	Timeout           time.Duration `yaml:"timeout"`
	BreakerThreshold  int           `yaml:"breaker_threshold"`
	BreakerOpenPeriod time.Duration `yaml:"breaker_open_period"`
}

// DatastoreConfig configures the external review/storage RPC service.
type DatastoreConfig struct {
	BaseURL           string        `yaml:"base_url"`
	MaxConnections    int64         `yaml:"max_connections"`
	Timeout           time.Duration `yaml:"timeout"`
	BreakerThreshold  int           `yaml:"breaker_threshold"`
	BreakerOpenPeriod time.Duration `yaml:"breaker_open_period"`
}

// HTTPConfig configures the pipeline's own HTTP surface. Articles and
// fragments get independent sync/async thresholds since fragments are
// typically much smaller units of work.
type HTTPConfig struct {
	ListenAddr           string `yaml:"listen_addr"`
	SyncMaxBytesArticle  int    `yaml:"sync_max_bytes_article"`
	SyncMaxBytesFragment int    `yaml:"sync_max_bytes_fragment"`
}

// JobsConfig configures the async job tracker.
type JobsConfig struct {
	RetentionPeriod time.Duration `yaml:"retention_period"`
	SweepInterval   time.Duration `yaml:"sweep_interval"`
}

// AlertsConfig configures the alert evaluation loop.
type AlertsConfig struct {
	EvaluationInterval time.Duration `yaml:"evaluation_interval"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:          "anthropic",
			Endpoint:          "",
			Model:             "claude-3-haiku-20240307",
			Temperature:       0.2,
			Timeout:           30 * time.Second,
			BreakerThreshold:  5,
			BreakerOpenPeriod: 30 * time.Second,
		},
		Datastore: DatastoreConfig{
			BaseURL:           "http://localhost:8081",
			MaxConnections:    10,
			Timeout:           15 * time.Second,
			BreakerThreshold:  5,
			BreakerOpenPeriod: 30 * time.Second,
		},
		HTTP: HTTPConfig{
			ListenAddr:           ":8080",
			SyncMaxBytesArticle:  10240,
			SyncMaxBytesFragment: 5120,
		},
		Jobs: JobsConfig{
			RetentionPeriod: time.Hour,
			SweepInterval:   time.Minute,
		},
		Alerts: AlertsConfig{
			EvaluationInterval: 30 * time.Second,
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.LLM.Provider == "" {
		return fmt.Errorf("llm.provider is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		return fmt.Errorf("llm.temperature must be between 0 and 1")
	}
	if c.Datastore.BaseURL == "" {
		return fmt.Errorf("datastore.base_url is required")
	}
	if c.Datastore.MaxConnections <= 0 {
		return fmt.Errorf("datastore.max_connections must be positive")
	}
	if c.HTTP.ListenAddr == "" {
		return fmt.Errorf("http.listen_addr is required")
	}
	if c.HTTP.SyncMaxBytesArticle <= 0 {
		return fmt.Errorf("http.sync_max_bytes_article must be positive")
	}
	if c.HTTP.SyncMaxBytesFragment <= 0 {
		return fmt.Errorf("http.sync_max_bytes_fragment must be positive")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file, starting from
// DefaultConfig so unspecified fields keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// SaveToFile saves configuration to a YAML file, creating parent
// directories as needed.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Merge overlays non-zero fields of other onto c, giving other precedence.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.LLM.Provider != "" {
		c.LLM.Provider = other.LLM.Provider
	}
	if other.LLM.Endpoint != "" {
		c.LLM.Endpoint = other.LLM.Endpoint
	}
	if other.LLM.Model != "" {
		c.LLM.Model = other.LLM.Model
	}
	if other.LLM.FallbackProvider != "" {
		c.LLM.FallbackProvider = other.LLM.FallbackProvider
	}
	if other.LLM.FallbackEndpoint != "" {
		c.LLM.FallbackEndpoint = other.LLM.FallbackEndpoint
	}
	if other.LLM.FallbackModel != "" {
		c.LLM.FallbackModel = other.LLM.FallbackModel
	}
	if other.LLM.Temperature != 0 {
		c.LLM.Temperature = other.LLM.Temperature
	}
	if other.LLM.Timeout != 0 {
		c.LLM.Timeout = other.LLM.Timeout
	}
	if other.LLM.BreakerThreshold != 0 {
		c.LLM.BreakerThreshold = other.LLM.BreakerThreshold
	}
	if other.LLM.BreakerOpenPeriod != 0 {
		c.LLM.BreakerOpenPeriod = other.LLM.BreakerOpenPeriod
	}

	if other.Datastore.BaseURL != "" {
		c.Datastore.BaseURL = other.Datastore.BaseURL
	}
	if other.Datastore.MaxConnections != 0 {
		c.Datastore.MaxConnections = other.Datastore.MaxConnections
	}
	if other.Datastore.Timeout != 0 {
		c.Datastore.Timeout = other.Datastore.Timeout
	}
	if other.Datastore.BreakerThreshold != 0 {
		c.Datastore.BreakerThreshold = other.Datastore.BreakerThreshold
	}
	if other.Datastore.BreakerOpenPeriod != 0 {
		c.Datastore.BreakerOpenPeriod = other.Datastore.BreakerOpenPeriod
	}

	if other.HTTP.ListenAddr != "" {
		c.HTTP.ListenAddr = other.HTTP.ListenAddr
	}
	if other.HTTP.SyncMaxBytesArticle != 0 {
		c.HTTP.SyncMaxBytesArticle = other.HTTP.SyncMaxBytesArticle
	}
	if other.HTTP.SyncMaxBytesFragment != 0 {
		c.HTTP.SyncMaxBytesFragment = other.HTTP.SyncMaxBytesFragment
	}

	if other.Jobs.RetentionPeriod != 0 {
		c.Jobs.RetentionPeriod = other.Jobs.RetentionPeriod
	}
	if other.Jobs.SweepInterval != 0 {
		c.Jobs.SweepInterval = other.Jobs.SweepInterval
	}

	if other.Alerts.EvaluationInterval != 0 {
		c.Alerts.EvaluationInterval = other.Alerts.EvaluationInterval
	}
}
