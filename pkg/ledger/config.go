// Package ledger reads Redshift's load-commit record to determine which
// object-storage keys have been successfully bulk-loaded.
//
// Redshift speaks the postgres wire protocol, so the reader runs over
// database/sql with the pgx stdlib driver. Connection parameters default
// from the standard PG* environment variables when omitted.
package ledger

import (
	"fmt"
	"net/url"
	"time"
)

// DefaultPort is Redshift's default listener port.
const DefaultPort = 5439

// DefaultQueryTimeout bounds the commit query when the config does not.
const DefaultQueryTimeout = 60 * time.Second

// Config configures a ledger reader.
//
// All connection fields may be left empty to defer to the PG* environment
// variables; the config loader performs that defaulting so the value passed
// here is explicit and immutable.
type Config struct {
	// Database is the warehouse database name.
	Database string

	// User is the warehouse login role.
	User string

	// Password is the warehouse login password.
	Password string

	// Host is the warehouse endpoint hostname.
	Host string

	// Port is the warehouse endpoint port. Zero uses DefaultPort.
	Port int

	// SSLMode is the libpq sslmode parameter. Empty uses the driver default.
	SSLMode string

	// QueryTimeout bounds each commit query. Zero uses DefaultQueryTimeout.
	QueryTimeout time.Duration
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "ledger config: " + e.Field + ": " + e.Message
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Host == "" {
		return &ConfigError{Field: "Host", Message: "warehouse host is required"}
	}
	if c.Database == "" {
		return &ConfigError{Field: "Database", Message: "database name is required"}
	}
	return nil
}

// dsn renders the config as a postgres connection URL.
func (c *Config) dsn() string {
	port := c.Port
	if port <= 0 {
		port = DefaultPort
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, port),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	if c.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", c.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// queryTimeout returns the effective per-query timeout.
func (c *Config) queryTimeout() time.Duration {
	if c.QueryTimeout > 0 {
		return c.QueryTimeout
	}
	return DefaultQueryTimeout
}
