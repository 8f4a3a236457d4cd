package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"ecomdash/backend/helper"
)

const credentialsKey = "connections.postgresql"

// Credentials are the connection settings stored under
// [connections.postgresql] in the secrets file. They are passed to the
// driver as-is.
type Credentials struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// LoadCredentials reads the TOML secrets file at path.
func LoadCredentials(path string) (*Credentials, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read secrets file %s: %w", path, err)
	}
	if !v.IsSet(credentialsKey) {
		return nil, fmt.Errorf("secrets file %s has no [%s] table", path, credentialsKey)
	}

	var creds Credentials
	if err := v.UnmarshalKey(credentialsKey, &creds); err != nil {
		return nil, fmt.Errorf("failed to decode [%s]: %w", credentialsKey, err)
	}
	return &creds, nil
}

// DSN renders a libpq keyword/value connection string, understood by both
// lib/pq and pgx. Settings from db add the session parameters.
func (c *Credentials) DSN(db DatabaseConfig) string {
	var parts []string
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, key+"="+helper.QuoteConnValue(value))
		}
	}

	add("host", c.Host)
	if c.Port > 0 {
		add("port", strconv.Itoa(c.Port))
	}
	add("dbname", c.Database)
	add("user", c.Username)
	add("password", c.Password)

	sslmode := c.SSLMode
	if db.SSLMode != "" {
		sslmode = db.SSLMode
	}
	add("sslmode", sslmode)

	if db.ConnectTimeout > 0 {
		secs := int(db.ConnectTimeout.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		add("connect_timeout", strconv.Itoa(secs))
	}
	add("application_name", db.ApplicationName)
	if db.ReadOnly {
		add("default_transaction_read_only", "on")
	}
	if db.Schema != "" && helper.IsValidIdentifier(db.Schema) {
		add("search_path", db.Schema)
	}
	return strings.Join(parts, " ")
}

// Redacted is the DSN with the password masked, for logging.
func (c *Credentials) Redacted(db DatabaseConfig) string {
	masked := *c
	if masked.Password != "" {
		masked.Password = "xxxxx"
	}
	return masked.DSN(db)
}
