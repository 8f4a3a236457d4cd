// Package config holds the dashboard's runtime settings and the database
// credentials read from the secrets file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"ecomdash/backend/helper"
	"ecomdash/backend/internal/cache"
	"ecomdash/backend/internal/service"
)

const EnvPrefix = "DASHBOARD"

// Config represents the dashboard configuration.
type Config struct {
	Address     string `mapstructure:"address"`
	LogLevel    string `mapstructure:"log-level"`
	SecretsFile string `mapstructure:"secrets-file"`

	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	SSLMode         string        `mapstructure:"sslmode"`
	Schema          string        `mapstructure:"schema"`
	ReadOnly        bool          `mapstructure:"read_only"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	ApplicationName string        `mapstructure:"application_name"`
}

type CacheConfig struct {
	Backend    string        `mapstructure:"backend"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
	Redis      RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type DashboardConfig struct {
	ParallelPanels bool `mapstructure:"parallel_panels"`
}

// SetDefaults registers every key with its default so that environment
// variables are picked up for keys that appear in no file or flag.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("address", ":8501")
	v.SetDefault("log-level", "info")
	v.SetDefault("secrets-file", ".streamlit/secrets.toml")

	v.SetDefault("database.driver", service.DriverPostgres)
	v.SetDefault("database.sslmode", "")
	v.SetDefault("database.schema", "")
	v.SetDefault("database.read_only", true)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.connect_timeout", 10*time.Second)
	v.SetDefault("database.query_timeout", 30*time.Second)
	v.SetDefault("database.application_name", "ecomdash")

	def := cache.DefaultConfig()
	v.SetDefault("cache.backend", def.Backend)
	v.SetDefault("cache.ttl", def.TTL)
	v.SetDefault("cache.max_entries", def.MaxEntries)
	v.SetDefault("cache.redis.addr", def.Redis.Addr)
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", def.Redis.Prefix)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("dashboard.parallel_panels", false)
}

// Load builds the configuration from v. When configFile is set it is read
// first; flags and DASHBOARD_* variables bound to v override it.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}
	if c.SecretsFile == "" {
		return fmt.Errorf("secrets-file is required")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level %q", c.LogLevel)
	}

	switch c.Database.Driver {
	case service.DriverPostgres, service.DriverPgx:
	default:
		return fmt.Errorf("invalid database.driver %q: must be %s or %s", c.Database.Driver, service.DriverPostgres, service.DriverPgx)
	}
	if c.Database.Schema != "" && !helper.IsValidIdentifier(c.Database.Schema) {
		return fmt.Errorf("invalid database.schema %q", c.Database.Schema)
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns && c.Database.MaxOpenConns > 0 {
		c.Database.MaxIdleConns = c.Database.MaxOpenConns
	}
	if c.Database.ConnectTimeout < 0 || c.Database.QueryTimeout < 0 {
		return fmt.Errorf("database timeouts must not be negative")
	}

	if err := c.CacheConfig().Validate(); err != nil {
		return err
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}
	return nil
}

func (c *Config) CacheConfig() *cache.Config {
	return &cache.Config{
		Backend:    c.Cache.Backend,
		MaxEntries: c.Cache.MaxEntries,
		TTL:        c.Cache.TTL,
		Redis: cache.RedisConfig{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
			Prefix:   c.Cache.Redis.Prefix,
		},
	}
}

func (c *Config) PoolOptions() service.PoolOptions {
	return service.PoolOptions{
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	}
}
