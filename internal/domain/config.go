package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment    string               `mapstructure:"environment"`
	Server         ServerConfig         `mapstructure:"server"`
	Backend        BackendConfig        `mapstructure:"backend"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Preferences    PreferencesConfig    `mapstructure:"preferences"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	MCP            MCPConfig            `mapstructure:"mcp"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// BackendConfig describes the remote diagnosis backend.
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"` // 0 disables the client timeout
	// RateLimit is requests per second per source; 0 means unlimited.
	RateLimit           int    `mapstructure:"rate_limit"`
	PerSourceCap        int    `mapstructure:"per_source_cap"`
	RecentActivityLimit int    `mapstructure:"recent_activity_limit"`
	Token               string `mapstructure:"token"` // used by the MCP entrypoint only
}

// CircuitBreakerConfig configures the per-source breakers.
type CircuitBreakerConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

// CacheConfig represents cache configuration
type CacheConfig struct {
	RedisURL     string        `mapstructure:"redis_url"`
	StatsTTL     time.Duration `mapstructure:"stats_ttl"`
	SnapshotSize int           `mapstructure:"snapshot_size"`
	SnapshotTTL  time.Duration `mapstructure:"snapshot_ttl"`
}

// PreferencesConfig selects and configures the preferences store.
type PreferencesConfig struct {
	Driver         string `mapstructure:"driver"` // "sqlite" or "postgres"
	SQLitePath     string `mapstructure:"sqlite_path"`
	PostgresDSN    string `mapstructure:"postgres_dsn"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// AuthConfig holds the key used to verify caller JWTs before their subject is
// trusted as a user key. With no secret every token is keyed by its hash.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName    string `mapstructure:"server_name"`
	ServerVersion string `mapstructure:"server_version"`
}
