// Package config loads the diagnosis hub configuration from file, environment
// and defaults using Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"

	"github.com/medimaging-diagnosis-hub/internal/domain"
)

// EnvPrefix is the prefix for every environment override, e.g.
// DIAGNOSIS_HUB_BACKEND_BASE_URL.
const EnvPrefix = "DIAGNOSIS_HUB"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v      *viper.Viper
	config *domain.Config
}

// Option customizes how the Manager locates its configuration.
type Option func(*viper.Viper)

// WithConfigFile reads configuration from an explicit path instead of the
// default search paths.
func WithConfigFile(path string) Option {
	return func(v *viper.Viper) {
		if path != "" {
			v.SetConfigFile(path)
		}
	}
}

// NewManager creates a new configuration manager
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{v: viper.New()}
	for _, opt := range opts {
		opt(m.v)
	}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := m.v

	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/diagnosis-hub/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; defaults and env vars cover everything.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "45s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Remote diagnosis backend
	v.SetDefault("backend.base_url", "http://localhost:8000/api/v1")
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("backend.rate_limit", 0)
	v.SetDefault("backend.per_source_cap", 1000)
	v.SetDefault("backend.recent_activity_limit", 10)
	v.SetDefault("backend.token", "")

	// Circuit breaker defaults
	v.SetDefault("circuit_breaker.max_requests", 5)
	v.SetDefault("circuit_breaker.interval", "30s")
	v.SetDefault("circuit_breaker.timeout", "60s")
	v.SetDefault("circuit_breaker.failure_ratio", 0.6)
	v.SetDefault("circuit_breaker.min_requests", 3)

	// Cache defaults; an empty redis_url disables the stats cache
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.stats_ttl", "1m")
	v.SetDefault("cache.snapshot_size", 256)
	v.SetDefault("cache.snapshot_ttl", "30s")

	// Preferences store
	v.SetDefault("preferences.driver", "sqlite")
	v.SetDefault("preferences.sqlite_path", "./data/preferences.db")
	v.SetDefault("preferences.postgres_dsn", "")
	v.SetDefault("preferences.migrations_path", "./migrations")

	// Caller token verification; empty secret keys users by token hash
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// MCP defaults
	v.SetDefault("mcp.server_name", "diagnosis-hub")
	v.SetDefault("mcp.server_version", "1.0.0")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetBackendConfig returns the remote backend configuration
func (m *Manager) GetBackendConfig() *domain.BackendConfig {
	return &m.config.Backend
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required")
	}
	if u, err := url.Parse(config.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend base URL: %q", config.Backend.BaseURL)
	}
	if config.Backend.Timeout < 0 {
		return fmt.Errorf("backend timeout must not be negative")
	}
	if config.Backend.RateLimit < 0 {
		return fmt.Errorf("backend rate limit must not be negative")
	}
	if config.Backend.PerSourceCap <= 0 {
		return fmt.Errorf("backend per-source cap must be positive: %d", config.Backend.PerSourceCap)
	}

	if r := config.CircuitBreaker.FailureRatio; r <= 0 || r > 1 {
		return fmt.Errorf("circuit breaker failure ratio must be in (0, 1]: %v", r)
	}

	if config.Cache.SnapshotSize < 0 {
		return fmt.Errorf("snapshot cache size must not be negative")
	}

	switch config.Preferences.Driver {
	case "sqlite":
		if config.Preferences.SQLitePath == "" {
			return fmt.Errorf("preferences sqlite path is required")
		}
	case "postgres":
		if config.Preferences.PostgresDSN == "" {
			return fmt.Errorf("preferences postgres DSN is required")
		}
	default:
		return fmt.Errorf("unsupported preferences driver: %s", config.Preferences.Driver)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
