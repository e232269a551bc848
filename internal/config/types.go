package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support string based YAML decoding.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration values expressed as Go-style strings or numbers interpreted as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		raw := strings.TrimSpace(value.Value)
		if raw == "" {
			d.Duration = 0
			return nil
		}
		parsed, err := time.ParseDuration(raw)
		if err == nil {
			d.Duration = parsed
			return nil
		}
		secs, convErr := time.ParseDuration(fmt.Sprintf("%ss", raw))
		if convErr == nil {
			d.Duration = secs
			return nil
		}
		return fmt.Errorf("invalid duration value %q: %w", raw, err)
	default:
		return fmt.Errorf("unsupported duration node kind: %v", value.Kind)
	}
}

// MarshalYAML renders the duration as a string to keep config edits human-friendly.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds application level configuration aggregated from file and environment variables.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Logging        LoggingConfig        `yaml:"logging"`
	Stripe         StripeConfig         `yaml:"stripe"`
	Checkout       CheckoutConfig       `yaml:"checkout"`
	Catalog        CatalogConfig        `yaml:"catalog"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address            string   `yaml:"address"`
	ReadTimeout        Duration `yaml:"read_timeout"`
	WriteTimeout       Duration `yaml:"write_timeout"`
	IdleTimeout        Duration `yaml:"idle_timeout"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	RoutePrefix        string   `yaml:"route_prefix"`          // Optional prefix for all routes (e.g., "/api")
	AdminMetricsAPIKey string   `yaml:"admin_metrics_api_key"` // Optional API key to protect /metrics (empty disables protection)
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error (default: info)
	Format      string `yaml:"format"`      // json, console (default: json)
	Environment string `yaml:"environment"` // production, staging, development
}

// StripeConfig holds Stripe payment integration configuration.
type StripeConfig struct {
	SecretKey string `yaml:"secret_key"`
	Mode      string `yaml:"mode"` // live | test
}

// CheckoutConfig holds the storefront checkout settings.
//
// All five checkout-critical values (the Stripe secret key plus the four
// fields below minus currency) must be present before either checkout
// endpoint will process a request; see Config.ValidateCheckout.
type CheckoutConfig struct {
	SiteURL               string   `yaml:"site_url"`                // Base URL used to build success/cancel redirects
	Currency              string   `yaml:"currency"`                // ISO currency code, lowercase (default: mxn)
	FreeShippingThreshold *float64 `yaml:"free_shipping_threshold"` // Subtotal in major units at which shipping becomes free
	ShippingRateFree      string   `yaml:"shipping_rate_free"`      // Stripe shipping rate ID for the free tier
	ShippingRatePaid      string   `yaml:"shipping_rate_paid"`      // Stripe shipping rate ID for the paid tier
}

// CatalogConfig holds the product catalog definition.
type CatalogConfig struct {
	Products []CatalogProduct `yaml:"products"` // Empty means "use the built-in catalog"
}

// CatalogProduct defines a single purchasable product in YAML configuration.
// Prices are major currency units (whole pesos); conversion to Stripe's
// minor-unit convention happens at session build time.
type CatalogProduct struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Price       int64  `yaml:"price"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	// Global rate limiting (across all clients)
	GlobalEnabled bool     `yaml:"global_enabled"`
	GlobalLimit   int      `yaml:"global_limit"`
	GlobalWindow  Duration `yaml:"global_window"`

	// Per-IP rate limiting
	PerIPEnabled bool     `yaml:"per_ip_enabled"`
	PerIPLimit   int      `yaml:"per_ip_limit"`
	PerIPWindow  Duration `yaml:"per_ip_window"`
}

// CircuitBreakerConfig holds circuit breaker configuration for the Stripe API.
type CircuitBreakerConfig struct {
	Enabled   bool                 `yaml:"enabled"`
	StripeAPI BreakerServiceConfig `yaml:"stripe_api"`
}

// BreakerServiceConfig configures a circuit breaker for a specific external service.
type BreakerServiceConfig struct {
	MaxRequests         uint32   `yaml:"max_requests"`         // Max requests in half-open state (default: 3)
	Interval            Duration `yaml:"interval"`             // Stats reset interval in closed state (default: 60s)
	Timeout             Duration `yaml:"timeout"`              // Open state timeout before half-open (default: 30s)
	ConsecutiveFailures uint32   `yaml:"consecutive_failures"` // Consecutive failures to trip (default: 5)
	FailureRatio        float64  `yaml:"failure_ratio"`        // Failure ratio to trip 0.0-1.0 (default: 0.5)
	MinRequests         uint32   `yaml:"min_requests"`         // Minimum requests before checking ratio (default: 10)
}
