package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/transcribot/resilience"
)

const (
	defaultTimeout = 30 * time.Second
)

// Config configures the HTTP client.
type Config struct {
	// BaseURL is the base URL prepended to all request paths.
	BaseURL string `mapstructure:"base_url"`

	// Timeout bounds a whole request, body included. Defaults to 30s.
	// Negative disables the client timeout and leaves cancellation to ctx.
	Timeout time.Duration `mapstructure:"timeout"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `mapstructure:"headers"`

	// Retry configures retry behavior. Nil disables retry.
	Retry *resilience.RetryConfig `mapstructure:"-"`

	// CircuitBreaker configures circuit breaker behavior. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig `mapstructure:"-"`

	// RateLimiter configures rate limiting. Nil disables it.
	RateLimiter *resilience.RateLimiterConfig `mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout == 0 {
		return fmt.Errorf("httpclient: timeout must be set")
	}
	if c.RateLimiter != nil && c.RateLimiter.Rate <= 0 {
		return fmt.Errorf("httpclient: rate limiter rate must be positive")
	}
	return nil
}

// DefaultRetryConfig returns a retry config that only retries errors
// classified as retryable.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}

// DefaultCircuitBreakerConfig returns a default circuit breaker config.
func DefaultCircuitBreakerConfig(name string) *resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig(name)
	return &cfg
}
