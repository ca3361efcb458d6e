// Package config provides configuration types for the feastflow client.
//
// Configuration comes from an optional feastflow.yaml, FEASTFLOW_*
// environment variables and an optional .env file, in increasing order of
// precedence for the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Storage drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config is the top-level configuration.
type Config struct {
	// API configures the remote REST API.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Push configures the real-time status channel.
	Push PushConfig `yaml:"push" mapstructure:"push"`

	// Storage configures where the cart and credential are persisted.
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	Checkout CheckoutConfig `yaml:"checkout" mapstructure:"checkout"`

	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`

	// LogLevel sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error". Defaults to "warn".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// Trace exports gateway spans and metrics to stderr.
	Trace bool `yaml:"trace" mapstructure:"trace"`
}

// APIConfig configures the REST gateway.
type APIConfig struct {
	// BaseURL is the API root, e.g. "http://localhost:5000/api".
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Timeout bounds each request (e.g. "10s").
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty,duration"`

	Breaker BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
}

// BreakerConfig configures the gateway circuit breaker.
type BreakerConfig struct {
	// MaxFailures is how many consecutive server failures open the breaker.
	MaxFailures int `yaml:"max_failures" mapstructure:"max_failures" validate:"omitempty,min=1"`

	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout string `yaml:"open_timeout" mapstructure:"open_timeout" validate:"omitempty,duration"`
}

// PushConfig configures the push channel.
type PushConfig struct {
	// URL is the socket server origin. Empty derives it from API.BaseURL
	// by dropping the trailing "/api".
	URL string `yaml:"url" mapstructure:"url" validate:"omitempty,url"`

	// Event is the status event name. Defaults to "orderStatusUpdated".
	Event string `yaml:"event" mapstructure:"event"`
}

// StorageConfig configures local persistence.
type StorageConfig struct {
	// Driver is one of "file", "sqlite", "redis", "memory".
	Driver string `yaml:"driver" mapstructure:"driver" validate:"required,oneof=file sqlite redis memory"`

	// Path is the state file or SQLite database for the file and sqlite drivers.
	Path string `yaml:"path" mapstructure:"path"`

	// RedisAddr is host:port of the Redis server for the redis driver.
	RedisAddr string `yaml:"redis_addr" mapstructure:"redis_addr" validate:"omitempty,hostname_port"`

	// Namespace prefixes Redis keys.
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
}

// CheckoutConfig configures order placement.
type CheckoutConfig struct {
	// PaymentDelay is how long the simulated online payment takes.
	PaymentDelay string `yaml:"payment_delay" mapstructure:"payment_delay" validate:"omitempty,duration"`
}

// MetricsConfig configures the metrics listener used by "watch".
type MetricsConfig struct {
	// Addr is where /metrics and /health are served. Empty disables it.
	Addr string `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// SetDefaults applies default values for fields that were not set.
func (c *Config) SetDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:5000/api"
	}
	if c.API.Timeout == "" {
		c.API.Timeout = "10s"
	}
	if c.API.Breaker.MaxFailures == 0 {
		c.API.Breaker.MaxFailures = 5
	}
	if c.API.Breaker.OpenTimeout == "" {
		c.API.Breaker.OpenTimeout = "30s"
	}
	if c.Push.Event == "" {
		c.Push.Event = "orderStatusUpdated"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverFile
	}
	if c.Storage.Path == "" {
		c.Storage.Path = defaultStoragePath(c.Storage.Driver)
	}
	if c.Storage.Namespace == "" {
		c.Storage.Namespace = "feastflow"
	}
	if c.Storage.Driver == DriverRedis && c.Storage.RedisAddr == "" {
		c.Storage.RedisAddr = "127.0.0.1:6379"
	}
	if c.Checkout.PaymentDelay == "" {
		c.Checkout.PaymentDelay = "2s"
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// defaultStoragePath returns a file under ~/.feastflow for the driver.
func defaultStoragePath(driver string) string {
	name := "state.json"
	if driver == DriverSQLite {
		name = "state.db"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".feastflow", name)
}

// PushURL returns the push origin, derived from the API base URL when
// Push.URL is empty.
func (c *Config) PushURL() string {
	if c.Push.URL != "" {
		return c.Push.URL
	}
	return strings.TrimSuffix(strings.TrimRight(c.API.BaseURL, "/"), "/api")
}

// APITimeout returns API.Timeout as a duration. Invalid or empty values
// yield zero so callers fall back to their own default.
func (c *Config) APITimeout() time.Duration {
	return parseDuration(c.API.Timeout)
}

// BreakerOpenTimeout returns API.Breaker.OpenTimeout as a duration.
func (c *Config) BreakerOpenTimeout() time.Duration {
	return parseDuration(c.API.Breaker.OpenTimeout)
}

// PaymentDelay returns Checkout.PaymentDelay as a duration.
func (c *Config) PaymentDelay() time.Duration {
	return parseDuration(c.Checkout.PaymentDelay)
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
