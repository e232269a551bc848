package config

import (
	"os"
	"strconv"
	"strings"
)

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over YAML configuration. All vars
// use the DULCE_ prefix for namespace isolation; the checkout settings also
// accept the legacy unprefixed names the original deployment used.
func (c *Config) applyEnvOverrides() {
	// Server config
	setIfEnv(&c.Server.Address, "DULCE_SERVER_ADDRESS")
	setIfEnv(&c.Server.RoutePrefix, "DULCE_ROUTE_PREFIX")
	setIfEnv(&c.Server.AdminMetricsAPIKey, "DULCE_ADMIN_METRICS_API_KEY")
	if v := os.Getenv("DULCE_CORS_ALLOWED_ORIGINS"); v != "" {
		c.Server.CORSAllowedOrigins = splitAndTrim(v)
	}

	// Logging config
	setIfEnv(&c.Logging.Level, "DULCE_LOG_LEVEL")
	setIfEnv(&c.Logging.Format, "DULCE_LOG_FORMAT")
	setIfEnv(&c.Logging.Environment, "DULCE_ENVIRONMENT")

	// Stripe config
	setIfEnv(&c.Stripe.SecretKey, "DULCE_STRIPE_SECRET_KEY", "STRIPE_SECRET_KEY")
	setIfEnv(&c.Stripe.Mode, "DULCE_STRIPE_MODE")

	// Checkout config
	setIfEnv(&c.Checkout.SiteURL, "DULCE_SITE_URL", "SITE_URL")
	setIfEnv(&c.Checkout.Currency, "DULCE_CHECKOUT_CURRENCY")
	setFloatIfEnv(&c.Checkout.FreeShippingThreshold, "DULCE_FREE_SHIPPING_THRESHOLD", "FREE_SHIPPING_THRESHOLD_MXN")
	setIfEnv(&c.Checkout.ShippingRateFree, "DULCE_SHIPPING_RATE_FREE", "STRIPE_SHIPPING_RATE_FREE")
	setIfEnv(&c.Checkout.ShippingRatePaid, "DULCE_SHIPPING_RATE_PAID", "STRIPE_SHIPPING_RATE_PAID")

	// Rate limit config
	setBoolIfEnv(&c.RateLimit.GlobalEnabled, "DULCE_RATE_LIMIT_GLOBAL_ENABLED")
	setIntIfEnv(&c.RateLimit.GlobalLimit, "DULCE_RATE_LIMIT_GLOBAL_LIMIT")
	setBoolIfEnv(&c.RateLimit.PerIPEnabled, "DULCE_RATE_LIMIT_PER_IP_ENABLED")
	setIntIfEnv(&c.RateLimit.PerIPLimit, "DULCE_RATE_LIMIT_PER_IP_LIMIT")

	// Circuit breaker config
	setBoolIfEnv(&c.CircuitBreaker.Enabled, "DULCE_CIRCUIT_BREAKER_ENABLED")
}

// setIfEnv sets a string pointer to the first non-empty environment value.
func setIfEnv(target *string, keys ...string) {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			*target = val
			return
		}
	}
}

// setBoolIfEnv sets a boolean pointer from an environment variable.
// Accepts "1", "true", "TRUE", "True" as true values.
func setBoolIfEnv(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v == "1" || strings.EqualFold(v, "true")
	}
}

// setIntIfEnv sets an int from an environment variable when it parses.
func setIntIfEnv(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

// setFloatIfEnv sets an optional float from the first environment variable
// that is set. An unparsable value leaves the target nil so validation
// reports it as missing rather than silently defaulting.
func setFloatIfEnv(target **float64, keys ...string) {
	for _, key := range keys {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*target = &f
		} else {
			*target = nil
		}
		return
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
