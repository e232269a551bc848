package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the storefront checkout service.
type Metrics struct {
	// Checkout metrics
	CheckoutSessionsTotal *prometheus.CounterVec
	CheckoutItemsTotal    prometheus.Counter
	CheckoutAmountTotal   prometheus.Counter

	// Cart validation metrics
	CartItemsValidatedTotal prometheus.Counter
	CartItemsRejectedTotal  *prometheus.CounterVec

	// Provider call metrics
	StripeCallsTotal   *prometheus.CounterVec
	StripeCallDuration *prometheus.HistogramVec

	// Session lookup metrics
	SessionLookupsTotal *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHitsTotal *prometheus.CounterVec

	// Idempotency metrics
	IdempotentReplaysTotal prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		CheckoutSessionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dulce_checkout_sessions_total",
				Help: "Total number of checkout session requests",
			},
			[]string{"status"},
		),
		CheckoutItemsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dulce_checkout_items_total",
				Help: "Total number of line items sent to checkout",
			},
		),
		CheckoutAmountTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dulce_checkout_amount_total",
				Help: "Total checkout subtotal in centavos",
			},
		),

		CartItemsValidatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dulce_cart_items_validated_total",
				Help: "Total number of cart entries accepted by validation",
			},
		),
		CartItemsRejectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dulce_cart_items_rejected_total",
				Help: "Total number of cart entries rejected by validation",
			},
			[]string{"reason"},
		),

		StripeCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dulce_stripe_calls_total",
				Help: "Total number of Stripe API calls",
			},
			[]string{"operation", "outcome"},
		),
		StripeCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dulce_stripe_call_duration_seconds",
				Help:    "Duration of Stripe API calls (supports p50, p95, p99 percentiles)",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"operation"},
		),

		SessionLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dulce_session_lookups_total",
				Help: "Total number of session summary lookups",
			},
			[]string{"status"},
		),

		RateLimitHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dulce_rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"limit_type"},
		),

		IdempotentReplaysTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dulce_idempotent_replays_total",
				Help: "Total number of checkout requests served from the idempotency cache",
			},
		),
	}
}

// ObserveCheckout records one checkout session attempt and its outcome.
func (m *Metrics) ObserveCheckout(status string, itemCount int, subtotalCentavos int64) {
	m.CheckoutSessionsTotal.WithLabelValues(status).Inc()
	if status == "created" {
		m.CheckoutItemsTotal.Add(float64(itemCount))
		m.CheckoutAmountTotal.Add(float64(subtotalCentavos))
	}
}

// ObserveCartValidation records validation results for one cart payload.
func (m *Metrics) ObserveCartValidation(accepted int, rejectedByReason map[string]int) {
	m.CartItemsValidatedTotal.Add(float64(accepted))
	for reason, count := range rejectedByReason {
		m.CartItemsRejectedTotal.WithLabelValues(reason).Add(float64(count))
	}
}

// ObserveStripeCall records one Stripe API call.
func (m *Metrics) ObserveStripeCall(operation string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.StripeCallsTotal.WithLabelValues(operation, outcome).Inc()
	m.StripeCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveSessionLookup records a session summary lookup.
func (m *Metrics) ObserveSessionLookup(status string) {
	m.SessionLookupsTotal.WithLabelValues(status).Inc()
}

// ObserveRateLimit records a rate limit hit.
func (m *Metrics) ObserveRateLimit(limitType string) {
	m.RateLimitHitsTotal.WithLabelValues(limitType).Inc()
}

// ObserveIdempotentReplay records a checkout response served from cache.
func (m *Metrics) ObserveIdempotentReplay() {
	m.IdempotentReplaysTotal.Inc()
}
