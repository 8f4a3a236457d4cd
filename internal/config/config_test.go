package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomdash/backend/internal/cache"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8501", cfg.Address)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ".streamlit/secrets.toml", cfg.SecretsFile)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Database.ReadOnly)
	assert.Equal(t, 600*time.Second, cfg.Cache.TTL)
	assert.Equal(t, cache.BackendMemory, cfg.Cache.Backend)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.Dashboard.ParallelPanels)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DASHBOARD_ADDRESS", ":9000")
	t.Setenv("DASHBOARD_DATABASE_DRIVER", "pgx")
	t.Setenv("DASHBOARD_CACHE_TTL", "2m")
	t.Setenv("DASHBOARD_DASHBOARD_PARALLEL_PANELS", "true")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Address)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.Dashboard.ParallelPanels)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log-level: debug
database:
  schema: olist
  max_open_conns: 4
cache:
  backend: redis
  redis:
    addr: redis:6379
`), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "olist", cfg.Database.Schema)
	assert.Equal(t, 4, cfg.Database.MaxOpenConns)
	assert.Equal(t, 4, cfg.Database.MaxIdleConns)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "redis:6379", cfg.CacheConfig().Redis.Addr)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing address", func(c *Config) { c.Address = "" }, "address is required"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log-level"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "invalid database.driver"},
		{"bad schema", func(c *Config) { c.Database.Schema = "public;drop" }, "invalid database.schema"},
		{"bad cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, "unsupported cache backend"},
		{"bad metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(viper.New(), "")
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func writeSecrets(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadCredentials(t *testing.T) {
	path := writeSecrets(t, `
[connections.postgresql]
host = "db.internal"
port = 5432
database = "ecommerce"
username = "analyst"
password = "s3cret"
`)

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, &Credentials{
		Host:     "db.internal",
		Port:     5432,
		Database: "ecommerce",
		Username: "analyst",
		Password: "s3cret",
	}, creds)
}

func TestLoadCredentials_Errors(t *testing.T) {
	_, err := LoadCredentials(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "failed to read secrets file")

	path := writeSecrets(t, "[connections.mysql]\nhost = \"x\"\n")
	_, err = LoadCredentials(path)
	assert.ErrorContains(t, err, "[connections.postgresql]")
}

func TestCredentialsDSN(t *testing.T) {
	creds := &Credentials{
		Host:     "localhost",
		Port:     5432,
		Database: "ecommerce",
		Username: "analyst",
		Password: "it's secret",
		SSLMode:  "disable",
	}

	t.Run("session params", func(t *testing.T) {
		dsn := creds.DSN(DatabaseConfig{
			ReadOnly:        true,
			Schema:          "olist",
			ApplicationName: "ecomdash",
			ConnectTimeout:  10 * time.Second,
		})
		assert.Equal(t,
			`host=localhost port=5432 dbname=ecommerce user=analyst password='it\'s secret' sslmode=disable connect_timeout=10 application_name=ecomdash default_transaction_read_only=on search_path=olist`,
			dsn)
	})

	t.Run("sslmode override", func(t *testing.T) {
		dsn := creds.DSN(DatabaseConfig{SSLMode: "require"})
		assert.Contains(t, dsn, "sslmode=require")
		assert.NotContains(t, dsn, "default_transaction_read_only")
	})

	t.Run("redacted", func(t *testing.T) {
		dsn := creds.Redacted(DatabaseConfig{})
		assert.Contains(t, dsn, "password=xxxxx")
		assert.NotContains(t, dsn, "secret")
		assert.Equal(t, "it's secret", creds.Password)
	})
}
