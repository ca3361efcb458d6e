package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/feastflow/storefront/internal/port/outbound"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithBaseURL sets the API root, e.g. "http://localhost:5000/api".
// If not set, defaults to FEASTFLOW_API_BASE_URL or DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets the HTTP request timeout.
// If not set, defaults to 10 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets a custom http.Client for making requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCredentials sets where the bearer credential comes from.
func WithCredentials(src outbound.CredentialSource) Option {
	return func(c *Client) {
		c.credentials = src
	}
}

// WithUnauthorizedHandler sets the hook run when a request that carried a
// credential is answered with 401.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// WithBreaker sets how many consecutive server or transport failures open
// the circuit, and how long it stays open.
func WithBreaker(maxFailures uint32, openTimeout time.Duration) Option {
	return func(c *Client) {
		c.breakerFailures = maxFailures
		c.breakerTimeout = openTimeout
	}
}

// WithDurationObserver records request latency by operation.
func WithDurationObserver(obs prometheus.ObserverVec) Option {
	return func(c *Client) {
		c.durations = obs
	}
}

// WithRequestIDFunc overrides how X-Request-ID values are generated.
func WithRequestIDFunc(fn func() string) Option {
	return func(c *Client) {
		c.requestID = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}
