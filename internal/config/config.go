// Package config loads contactsync settings from defaults, an optional YAML
// file and CONTACTSYNC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DriverSQLite stores the projection in a local SQLite file.
	DriverSQLite = "sqlite"
	// DriverPostgres stores the projection in PostgreSQL.
	DriverPostgres = "postgres"

	// LockLocal serializes reconciliation per ID within the process.
	LockLocal = "local"
	// LockRedis serializes reconciliation per ID across processes.
	LockRedis = "redis"
	// LockNone disables per-ID serialization.
	LockNone = "none"

	// DefaultDSN is the SQLite file used when nothing else is configured.
	DefaultDSN = "./contacts.sqlite"

	// DefaultLockTTL bounds how long a crashed holder blocks an ID.
	DefaultLockTTL = 30 * time.Second
)

// Config holds all configuration for contactsync.
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Lock    LockConfig    `mapstructure:"lock"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// StoreConfig selects and locates the projection database.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Reset  bool   `mapstructure:"reset"` // drop an existing SQLite file on open
}

// LockConfig selects the per-ID lock backend.
type LockConfig struct {
	Backend   string        `mapstructure:"backend"`
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
//
// With path empty, contactsync.yaml is looked up in the working directory
// and $HOME/.contactsync; a missing file is fine. With path set, the file
// must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.dsn", DefaultDSN)
	v.SetDefault("store.reset", false)

	v.SetDefault("lock.backend", LockLocal)
	v.SetDefault("lock.redis_addr", "")
	v.SetDefault("lock.ttl", DefaultLockTTL)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("contactsync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(homeDir(), ".contactsync"))
	}

	v.SetEnvPrefix("CONTACTSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and consistent.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Store.Driver)
	}
	if c.Store.DSN == "" {
		return fmt.Errorf("store.dsn must not be empty")
	}
	if c.Store.Reset && c.Store.Driver != DriverSQLite {
		return fmt.Errorf("store.reset is only supported for the %s driver", DriverSQLite)
	}

	switch c.Lock.Backend {
	case LockLocal, LockNone:
	case LockRedis:
		if c.Lock.RedisAddr == "" {
			return fmt.Errorf("lock.redis_addr must be set when lock.backend is %q", LockRedis)
		}
	default:
		return fmt.Errorf("lock.backend must be one of %q, %q, %q, got %q", LockLocal, LockRedis, LockNone, c.Lock.Backend)
	}
	if c.Lock.TTL <= 0 {
		return fmt.Errorf("lock.ttl must be greater than 0")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
