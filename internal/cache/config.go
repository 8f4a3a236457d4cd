package cache

import (
	"fmt"
	"time"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Config holds the configuration for the query cache.
type Config struct {
	// Backend is one of memory, redis or none.
	Backend string
	// MaxEntries bounds the memory backend; 0 means unbounded.
	MaxEntries int
	// TTL is the freshness window applied to every panel query.
	TTL   time.Duration
	Redis RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func DefaultConfig() *Config {
	return &Config{
		Backend:    BackendMemory,
		MaxEntries: 256,
		TTL:        600 * time.Second,
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "ecomdash:",
		},
	}
}

func (c *Config) WithBackend(backend string) *Config {
	c.Backend = backend
	return c
}

func (c *Config) WithMaxEntries(n int) *Config {
	c.MaxEntries = n
	return c
}

func (c *Config) WithTTL(ttl time.Duration) *Config {
	c.TTL = ttl
	return c
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendNone:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported cache backend %q: must be memory, redis or none", c.Backend)
	}
	if c.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must not be negative")
	}
	return nil
}

// New builds the cache selected by cfg.
func New(cfg *Config, stats *StatsCollector) (Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendRedis:
		return NewRedisCache(cfg.Redis, stats), nil
	case BackendNone:
		return NoopCache{}, nil
	default:
		return NewMemoryCache(cfg.MaxEntries, stats), nil
	}
}
