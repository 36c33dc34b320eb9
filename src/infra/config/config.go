// Package config handles application configuration via environment variables.
// It uses kelseyhightower/envconfig for parsing and provides sensible defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Id schemes.
const (
	IDSchemeUUID      = "uuid"
	IDSchemeULID      = "ulid"
	IDSchemeSnowflake = "snowflake"
)

// Config holds all application configuration.
// Values are loaded from environment variables with the prefix "APP".
// Example: APP_PORT=8080, APP_STORE_BACKEND=postgres
type Config struct {
	// Server configuration (embedded to flatten env vars)
	Server ServerConfig

	// Database configuration (embedded to flatten env vars)
	Database DatabaseConfig

	// Logging configuration (embedded to flatten env vars)
	Log LogConfig

	// Store configuration
	Store StoreConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// Host is the HTTP server host (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// ReadTimeout is the maximum duration for reading the entire request (default: 10s)
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`

	// WriteTimeout is the maximum duration before timing out writes of the response (default: 30s)
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`

	// ShutdownTimeout is the maximum duration to wait for active connections to finish (default: 30s)
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
// Only used when the store backend is "postgres".
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"qnadonate"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// MaxOpenConns is the maximum number of open connections (default: 25)
	MaxOpenConns int `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`

	// MaxIdleConns is the minimum number of connections kept in the pool (default: 5)
	MaxIdleConns int `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`

	// ConnMaxLifetime is the maximum lifetime of a connection (default: 5m)
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is the log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LOG_LEVEL" default:"info"`

	// Format is the log format: plain, text, json (default: plain)
	Format string `envconfig:"LOG_FORMAT" default:"plain"`
}

// StoreConfig selects the store backend and its collaborators.
type StoreConfig struct {
	// Backend is one of memory, postgres, sqlite (default: memory)
	Backend string `envconfig:"STORE_BACKEND" default:"memory"`

	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `envconfig:"SQLITE_PATH" default:"qnadonate.db"`

	// IDScheme is one of uuid, ulid, snowflake (default: uuid)
	IDScheme string `envconfig:"ID_SCHEME" default:"uuid"`

	// SnowflakeNode is the node number for the snowflake scheme (0-1023).
	SnowflakeNode int64 `envconfig:"SNOWFLAKE_NODE" default:"1"`

	// TruncateCreatedAt records CreatedAt as the start of the current UTC day.
	TruncateCreatedAt bool `envconfig:"TRUNCATE_CREATED_AT" default:"false"`

	// MigrateOnStart applies pending migrations before serving (SQL backends only).
	MigrateOnStart bool `envconfig:"MIGRATE_ON_START" default:"true"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate rejects unknown backends and id schemes.
func (c *StoreConfig) Validate() error {
	switch strings.ToLower(c.Backend) {
	case BackendMemory, BackendPostgres, BackendSQLite:
	default:
		return fmt.Errorf("unknown store backend %q", c.Backend)
	}
	switch strings.ToLower(c.IDScheme) {
	case IDSchemeUUID, IDSchemeULID, IDSchemeSnowflake:
	default:
		return fmt.Errorf("unknown id scheme %q", c.IDScheme)
	}
	if c.Backend == BackendSQLite && c.SQLitePath == "" {
		return fmt.Errorf("sqlite backend requires APP_SQLITE_PATH")
	}
	return nil
}

// Load reads configuration from environment variables.
// It returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	var cfg Config

	// Each section is processed on its own so env vars stay flat (APP_PORT, not APP_SERVER_PORT)
	if err := envconfig.Process("APP", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	if err := envconfig.Process("APP", &cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}
	if err := envconfig.Process("APP", &cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to load log config: %w", err)
	}
	if err := envconfig.Process("APP", &cfg.Store); err != nil {
		return nil, fmt.Errorf("failed to load store config: %w", err)
	}
	cfg.Store.Backend = strings.ToLower(cfg.Store.Backend)
	cfg.Store.IDScheme = strings.ToLower(cfg.Store.IDScheme)
	if err := cfg.Store.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}

	return &cfg, nil
}
