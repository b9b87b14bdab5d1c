package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// DefaultConfigFile is where Load looks for a YAML config file if
// PIPELINE_CONFIG_FILE is unset.
const DefaultConfigFile = "pipeline.yaml"

// Loader loads configuration with layered precedence: defaults, then a
// YAML file, then environment variables (highest precedence) —
// generalizing the teacher's user/project/default layering into a
// single-file-plus-env scheme suited to a server deployed by env vars.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a configuration loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration from defaults, an optional YAML file, and
// environment variables, validating the result.
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	path := os.Getenv("PIPELINE_CONFIG_FILE")
	if path == "" {
		path = DefaultConfigFile
	}
	if fileConfig, err := LoadFromFile(path); err == nil {
		l.logger.Debug("loaded config file", slog.String("path", path))
		config.Merge(fileConfig)
	} else if !os.IsNotExist(err) {
		l.logger.Warn("failed to load config file", slog.String("path", path), slog.String("error", err.Error()))
	}

	l.applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv overlays environment variables onto config, taking final
// precedence over file-sourced values.
func (l *Loader) applyEnv(c *Config) {
	setString("PIPELINE_LLM_PROVIDER", &c.LLM.Provider)
	setString("PIPELINE_LLM_ENDPOINT", &c.LLM.Endpoint)
	setString("PIPELINE_LLM_MODEL", &c.LLM.Model)
	setString("PIPELINE_LLM_FALLBACK_PROVIDER", &c.LLM.FallbackProvider)
	setString("PIPELINE_LLM_FALLBACK_ENDPOINT", &c.LLM.FallbackEndpoint)
	setString("PIPELINE_LLM_FALLBACK_MODEL", &c.LLM.FallbackModel)
	setFloat("PIPELINE_LLM_TEMPERATURE", &c.LLM.Temperature)
	setDuration("PIPELINE_LLM_TIMEOUT", &c.LLM.Timeout, l.logger)
	setInt("PIPELINE_LLM_BREAKER_THRESHOLD", &c.LLM.BreakerThreshold)

	setString("PIPELINE_DATASTORE_BASE_URL", &c.Datastore.BaseURL)
	setInt64("PIPELINE_DATASTORE_MAX_CONNECTIONS", &c.Datastore.MaxConnections)
	setDuration("PIPELINE_DATASTORE_TIMEOUT", &c.Datastore.Timeout, l.logger)

	setString("PIPELINE_HTTP_LISTEN_ADDR", &c.HTTP.ListenAddr)
	setInt("SYNC_MAX_BYTES_ARTICLE", &c.HTTP.SyncMaxBytesArticle)
	setInt("SYNC_MAX_BYTES_FRAGMENT", &c.HTTP.SyncMaxBytesFragment)
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(key string, dst *int64) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(key string, dst *time.Duration, logger *slog.Logger) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn("invalid duration env var", slog.String("key", key), slog.String("value", v))
		return
	}
	*dst = d
}
