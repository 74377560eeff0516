package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the sqlite-http configuration file
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	HTTP      HTTPConfig      `yaml:"http"`
	Extension ExtensionConfig `yaml:"extension"`
	Log       LogConfig       `yaml:"log"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig holds the initial request settings
type HTTPConfig struct {
	TimeoutMS int64  `yaml:"timeout_ms"` // per-exchange timeout, http_timeout_set overrides it
	RateLimit int64  `yaml:"rate_limit"` // requests per second, 0 means unlimited
	UserAgent string `yaml:"user_agent"` // sent when a request has no User-Agent header
}

// ExtensionConfig selects the registration variant
type ExtensionConfig struct {
	NoNetwork     bool   `yaml:"no_network"`     // register only the pure helpers
	SettingsScope string `yaml:"settings_scope"` // process or connection
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads config from YAML file with graceful fallback
// Returns default config if file doesn't exist or is malformed
func Load(path string) (*Config, error) {
	// Try to read file
	data, err := os.ReadFile(path)
	if err != nil {
		// File doesn't exist - use defaults
		return DefaultConfig(), nil
	}

	var cfg Config
	// Try to parse YAML, but be resilient to bad formatting
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		// YAML parsing failed - use defaults
		return DefaultConfig(), nil
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()

	// Apply defaults for missing values
	cfg.applyDefaults()

	return &cfg, nil
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	cfg := &Config{
		Database: DatabaseConfig{
			Path: getEnv("SQLITE_HTTP_DB_PATH", ":memory:"),
		},
		HTTP: HTTPConfig{
			TimeoutMS: getEnvInt64("SQLITE_HTTP_TIMEOUT_MS", 5000),
			RateLimit: getEnvInt64("SQLITE_HTTP_RATE_LIMIT", 0),
			UserAgent: getEnv("SQLITE_HTTP_USER_AGENT", ""),
		},
		Extension: ExtensionConfig{
			NoNetwork:     getEnvBool("SQLITE_HTTP_NO_NETWORK", false),
			SettingsScope: getEnv("SQLITE_HTTP_SETTINGS_SCOPE", "process"),
		},
		Log: LogConfig{
			Level: getEnv("SQLITE_HTTP_LOG_LEVEL", "info"),
		},
	}
	return cfg
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SQLITE_HTTP_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("SQLITE_HTTP_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.HTTP.TimeoutMS = ms
		}
	}
	if v := os.Getenv("SQLITE_HTTP_RATE_LIMIT"); v != "" {
		if rps, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.HTTP.RateLimit = rps
		}
	}
	if v := os.Getenv("SQLITE_HTTP_USER_AGENT"); v != "" {
		c.HTTP.UserAgent = v
	}
	if v := os.Getenv("SQLITE_HTTP_NO_NETWORK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Extension.NoNetwork = b
		}
	}
	if v := os.Getenv("SQLITE_HTTP_SETTINGS_SCOPE"); v != "" {
		c.Extension.SettingsScope = v
	}
	if v := os.Getenv("SQLITE_HTTP_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = ":memory:"
	}
	if c.HTTP.TimeoutMS <= 0 {
		c.HTTP.TimeoutMS = 5000
	}
	if c.HTTP.RateLimit < 0 {
		c.HTTP.RateLimit = 0
	}
	if c.Extension.SettingsScope == "" {
		c.Extension.SettingsScope = "process"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// getEnv gets environment variable or returns default
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvInt64 gets environment variable as int64 or returns default
func getEnvInt64(key string, defaultVal int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvBool gets environment variable as bool or returns default
func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
