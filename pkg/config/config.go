package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/sirosfoundation/go-ehms-backend/pkg/logging"
)

// Schema sync failure policies
const (
	SchemaSyncContinue = "continue"
	SchemaSyncAbort    = "abort"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server" envconfig:"SERVER"`
	Storage       StorageConfig       `yaml:"storage" envconfig:"STORAGE"`
	Logging       logging.Config      `yaml:"logging" envconfig:"LOGGING"`
	JWT           JWTConfig           `yaml:"jwt" envconfig:"JWT"`
	CORS          CORSConfig          `yaml:"cors" envconfig:"CORS"`
	Realtime      RealtimeConfig      `yaml:"realtime" envconfig:"REALTIME"`
	AuthRateLimit AuthRateLimitConfig `yaml:"auth_rate_limit" envconfig:"AUTH_RATE_LIMIT"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host" envconfig:"HOST"`
	Port int    `yaml:"port" envconfig:"PORT"`
	// BasePath prefixes every business route, e.g. /ehms/api/reports
	BasePath string `yaml:"base_path" envconfig:"BASE_PATH"`
	// TempDir is created at startup if missing (upload scratch space)
	TempDir string `yaml:"temp_dir" envconfig:"TEMP_DIR"`
	// MaxBodyBytes caps request bodies accepted by the body parser
	MaxBodyBytes int64 `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES"`
	// Timeouts in seconds
	ReadTimeout     int `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    int `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     int `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout int `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// StorageConfig contains storage configuration
type StorageConfig struct {
	Type    string        `yaml:"type" envconfig:"TYPE"` // memory, mysql, sqlite, mongodb
	MySQL   MySQLConfig   `yaml:"mysql" envconfig:"MYSQL"`
	SQLite  SQLiteConfig  `yaml:"sqlite" envconfig:"SQLITE"`
	MongoDB MongoDBConfig `yaml:"mongodb" envconfig:"MONGODB"`
	// SchemaSync runs create-if-missing reconciliation at startup
	SchemaSync bool `yaml:"schema_sync" envconfig:"SCHEMA_SYNC"`
	// SchemaSyncFailure is "continue" or "abort"
	SchemaSyncFailure string `yaml:"schema_sync_failure" envconfig:"SCHEMA_SYNC_FAILURE"`
	// ProbeTimeout bounds the startup connection check (seconds)
	ProbeTimeout int `yaml:"probe_timeout" envconfig:"PROBE_TIMEOUT"`
	// SyncTimeout bounds startup schema sync (seconds)
	SyncTimeout int `yaml:"sync_timeout" envconfig:"SYNC_TIMEOUT"`
}

// MySQLConfig contains MySQL connection pool configuration
type MySQLConfig struct {
	// DSN in go-sql-driver format: user:pass@tcp(host:3306)/ehms?parseTime=true
	DSN             string `yaml:"dsn" envconfig:"DSN"`
	MaxOpenConns    int    `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS"`
	MaxIdleConns    int    `yaml:"max_idle_conns" envconfig:"MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" envconfig:"CONN_MAX_LIFETIME"` // seconds
}

// SQLiteConfig contains SQLite-specific configuration
type SQLiteConfig struct {
	Path string `yaml:"path" envconfig:"DB_PATH"`
}

// MongoDBConfig contains MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string `yaml:"uri" envconfig:"URI"`
	Database string `yaml:"database" envconfig:"DATABASE"`
	Timeout  int    `yaml:"timeout" envconfig:"TIMEOUT"` // seconds
}

// JWTConfig contains JWT configuration
type JWTConfig struct {
	Secret      string `yaml:"secret" envconfig:"SECRET"`
	ExpiryHours int    `yaml:"expiry_hours" envconfig:"EXPIRY_HOURS"`
	Issuer      string `yaml:"issuer" envconfig:"ISSUER"`
	// LeewaySeconds tolerates clock skew on exp/iat
	LeewaySeconds int `yaml:"leeway_seconds" envconfig:"LEEWAY_SECONDS"`
}

// CORSConfig contains cross-origin policy
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	AllowedMethods   []string `yaml:"allowed_methods" envconfig:"ALLOWED_METHODS"`
	AllowedHeaders   []string `yaml:"allowed_headers" envconfig:"ALLOWED_HEADERS"`
	ExposedHeaders   []string `yaml:"exposed_headers" envconfig:"EXPOSED_HEADERS"`
	AllowCredentials bool     `yaml:"allow_credentials" envconfig:"ALLOW_CREDENTIALS"`
	MaxAge           int      `yaml:"max_age" envconfig:"MAX_AGE"` // seconds
}

// RealtimeConfig contains WebSocket notifier configuration
type RealtimeConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED"`
	Path    string `yaml:"path" envconfig:"MOUNT_PATH"`
}

// AuthRateLimitConfig limits token refreshes per subject
type AuthRateLimitConfig struct {
	Enabled        bool `yaml:"enabled" envconfig:"ENABLED"`
	MaxAttempts    int  `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS"`
	WindowSeconds  int  `yaml:"window_seconds" envconfig:"WINDOW_SECONDS"`
	LockoutSeconds int  `yaml:"lockout_seconds" envconfig:"LOCKOUT_SECONDS"`
}

// SetDefaults fills zero values with usable limits
func (c *AuthRateLimitConfig) SetDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 10
	}
	if c.WindowSeconds <= 0 {
		c.WindowSeconds = 60
	}
	if c.LockoutSeconds <= 0 {
		c.LockoutSeconds = 60
	}
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Load from YAML file if provided (overrides defaults)
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// File doesn't exist, that's ok - we'll use defaults and env vars
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Plain PORT is what most hosting platforms inject
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Server.Port = p
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("EHMS", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	cfg.Server.BasePath = normalizeBasePath(cfg.Server.BasePath)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible default values. The JWT secret
// is left empty and must be supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			BasePath:        "/ehms/api",
			TempDir:         "temp",
			MaxBodyBytes:    10 << 20,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 30,
		},
		Storage: StorageConfig{
			Type: "memory",
			MySQL: MySQLConfig{
				MaxOpenConns:    10,
				MaxIdleConns:    10,
				ConnMaxLifetime: 300,
			},
			SQLite: SQLiteConfig{
				Path: "ehms.db",
			},
			MongoDB: MongoDBConfig{
				URI:      "mongodb://localhost:27017",
				Database: "ehms",
				Timeout:  10,
			},
			SchemaSync:        true,
			SchemaSyncFailure: SchemaSyncContinue,
			ProbeTimeout:      5,
			SyncTimeout:       10,
		},
		Logging: logging.DefaultConfig(),
		JWT: JWTConfig{
			ExpiryHours: 24,
			Issuer:      "ehms-backend",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         12 * 60 * 60,
		},
		Realtime: RealtimeConfig{
			Enabled: false,
			Path:    "/realtime",
		},
		AuthRateLimit: AuthRateLimitConfig{
			Enabled:        true,
			MaxAttempts:    10,
			WindowSeconds:  60,
			LockoutSeconds: 60,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("base_path must start with '/': %q", c.Server.BasePath)
	}

	switch c.Storage.Type {
	case "memory", "sqlite":
	case "mysql":
		if c.Storage.MySQL.DSN == "" {
			return fmt.Errorf("mysql dsn is required when using mysql storage")
		}
	case "mongodb":
		if c.Storage.MongoDB.URI == "" {
			return fmt.Errorf("mongodb uri is required when using mongodb storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be memory, mysql, sqlite, or mongodb)", c.Storage.Type)
	}

	if c.Storage.SchemaSyncFailure != SchemaSyncContinue && c.Storage.SchemaSyncFailure != SchemaSyncAbort {
		return fmt.Errorf("invalid schema_sync_failure: %q (must be %s or %s)",
			c.Storage.SchemaSyncFailure, SchemaSyncContinue, SchemaSyncAbort)
	}

	if c.Storage.ProbeTimeout <= 0 || c.Storage.SyncTimeout <= 0 {
		return fmt.Errorf("storage probe_timeout and sync_timeout must be positive")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}

	if c.JWT.ExpiryHours <= 0 {
		return fmt.Errorf("jwt expiry_hours must be positive")
	}

	if c.Realtime.Enabled {
		if !strings.HasPrefix(c.Realtime.Path, "/") {
			return fmt.Errorf("realtime path must start with '/': %q", c.Realtime.Path)
		}
		if strings.HasPrefix(c.Realtime.Path, c.Server.BasePath+"/") || c.Realtime.Path == c.Server.BasePath {
			return fmt.Errorf("realtime path %q must not live under base_path %q", c.Realtime.Path, c.Server.BasePath)
		}
	}

	return nil
}

// Address returns the server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TokenTTL returns the lifetime of issued tokens
func (c *JWTConfig) TokenTTL() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

// Seconds converts an int seconds setting to a Duration
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// normalizeBasePath strips a trailing slash so routes join cleanly
func normalizeBasePath(p string) string {
	if p == "/" {
		return p
	}
	return strings.TrimRight(p, "/")
}
