package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file and applies environment overrides.
// An empty path skips the file and builds the config from defaults plus
// environment variables alone.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := cfg.parseFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()
	cfg.finalize()

	return cfg, nil
}

// defaultConfig returns the baseline configuration before file and env merging.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{30 * time.Second},
			IdleTimeout:  Duration{60 * time.Second},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Environment: "production",
		},
		Checkout: CheckoutConfig{
			Currency: "mxn",
		},
		RateLimit: RateLimitConfig{
			GlobalEnabled: true,
			GlobalLimit:   1000,
			GlobalWindow:  Duration{time.Minute},
			PerIPEnabled:  true,
			PerIPLimit:    120,
			PerIPWindow:   Duration{time.Minute},
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled: true,
			StripeAPI: BreakerServiceConfig{
				MaxRequests:         3,
				Interval:            Duration{60 * time.Second},
				Timeout:             Duration{30 * time.Second},
				ConsecutiveFailures: 5,
				FailureRatio:        0.5,
				MinRequests:         10,
			},
		},
	}
}

func (c *Config) parseFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// finalize applies defaults that depend on merged values.
func (c *Config) finalize() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Environment == "" {
		c.Logging.Environment = "production"
	}
	if c.Stripe.Mode == "" {
		c.Stripe.Mode = "test"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Checkout.Currency == "" {
		c.Checkout.Currency = "mxn"
	}
	c.Checkout.Currency = strings.ToLower(c.Checkout.Currency)
	c.Checkout.SiteURL = strings.TrimSuffix(strings.TrimSpace(c.Checkout.SiteURL), "/")
	if c.Server.RoutePrefix != "" {
		c.Server.RoutePrefix = normalizeRoutePrefix(c.Server.RoutePrefix)
	}
}

// ValidateCheckout reports whether the five checkout-critical settings are
// present and well-formed. The joined error enumerates every missing field
// for operator logs; callers must never forward it to clients verbatim.
func (c *Config) ValidateCheckout() error {
	var errs []error
	if strings.TrimSpace(c.Stripe.SecretKey) == "" {
		errs = append(errs, errors.New("stripe.secret_key is required"))
	}
	if c.Checkout.SiteURL == "" {
		errs = append(errs, errors.New("checkout.site_url is required"))
	}
	if c.Checkout.FreeShippingThreshold == nil {
		errs = append(errs, errors.New("checkout.free_shipping_threshold is required"))
	} else if *c.Checkout.FreeShippingThreshold < 0 {
		errs = append(errs, errors.New("checkout.free_shipping_threshold must be non-negative"))
	}
	if strings.TrimSpace(c.Checkout.ShippingRateFree) == "" {
		errs = append(errs, errors.New("checkout.shipping_rate_free is required"))
	}
	if strings.TrimSpace(c.Checkout.ShippingRatePaid) == "" {
		errs = append(errs, errors.New("checkout.shipping_rate_paid is required"))
	}
	return errors.Join(errs...)
}

// SuccessURL returns the provider redirect target for completed payments.
// The {CHECKOUT_SESSION_ID} placeholder is substituted by Stripe.
func (c CheckoutConfig) SuccessURL() string {
	return c.SiteURL + "/success?session_id={CHECKOUT_SESSION_ID}"
}

// CancelURL returns the provider redirect target for abandoned checkouts.
func (c CheckoutConfig) CancelURL() string {
	return c.SiteURL + "/cart"
}

// normalizeRoutePrefix ensures the prefix starts with / and doesn't end with /.
// Examples: "api" -> "/api", "/api/" -> "/api"
func normalizeRoutePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimSuffix(prefix, "/")
}
