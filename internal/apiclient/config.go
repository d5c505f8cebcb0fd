package apiclient

import (
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Iron-Ham/adminkit/internal/event"
	"github.com/Iron-Ham/adminkit/internal/logging"
)

// Config holds the client settings.
type Config struct {
	// BaseURL is prepended to relative endpoints.
	BaseURL string

	// Timeout bounds each transport attempt. Zero disables it.
	Timeout time.Duration

	// Retries is the number of extra attempts after a retryable failure.
	Retries int

	// RetryBaseDelay is the backoff base; attempt n waits base * 2^n.
	RetryBaseDelay time.Duration

	// CacheTTL is how long a cached GET response stays fresh.
	CacheTTL time.Duration

	// CacheSize bounds the number of cached responses.
	CacheSize int

	// Headers are sent with every request.
	Headers map[string]string

	// CSRF configures token acquisition.
	CSRF CSRFConfig

	// RequestsPerSecond limits outgoing attempts. Zero disables the limit.
	RequestsPerSecond float64

	// Burst is the rate limiter burst size.
	Burst int
}

// CSRFConfig configures CSRF token handling.
type CSRFConfig struct {
	Enabled  bool
	Endpoint string // Endpoint returning the token
	Header   string // Request header carrying the token
	Field    string // JSON field of the token in the endpoint response
}

// DefaultConfig returns the default client settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "/api",
		Timeout:        30 * time.Second,
		Retries:        3,
		RetryBaseDelay: time.Second,
		CacheTTL:       5 * time.Minute,
		CacheSize:      256,
		Headers: map[string]string{
			"Accept":           "application/json",
			"X-Requested-With": "XMLHttpRequest",
		},
		CSRF: CSRFConfig{
			Endpoint: "/csrf-token",
			Header:   "X-CSRF-Token",
			Field:    "csrfToken",
		},
		Burst: 1,
	}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithClock sets the clock used for cache expiry and retry backoff.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.clock = clk }
}

// WithBus sets the bus that receives loader events.
func WithBus(bus *event.Bus) Option {
	return func(c *Client) { c.bus = bus }
}

// WithLogger sets the client logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRegisterer registers the client metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Client) { c.registerer = reg }
}
