package stripe

import (
	"context"
	"errors"
	"fmt"
	"time"

	stripeapi "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/checkout/session"

	"github.com/DulceVerde/server/internal/circuitbreaker"
	"github.com/DulceVerde/server/internal/config"
	"github.com/DulceVerde/server/internal/metrics"
)

// ErrSessionNotFound is returned when the provider has no session for the
// given identifier, as opposed to a transient provider failure.
var ErrSessionNotFound = errors.New("stripe: checkout session not found")

// Client wraps the stripe-go operations used by the storefront: creating a
// hosted checkout session and reading one back after payment.
type Client struct {
	cfg     config.StripeConfig
	breaker *circuitbreaker.Manager
	metrics *metrics.Metrics
}

// NewClient sets up stripe-go with the provided credentials.
func NewClient(cfg config.StripeConfig, breaker *circuitbreaker.Manager, metricsCollector *metrics.Metrics) *Client {
	stripeapi.Key = cfg.SecretKey
	return &Client{
		cfg:     cfg,
		breaker: breaker,
		metrics: metricsCollector,
	}
}

// LineItem is one catalog-priced entry of a checkout session request.
// UnitAmount is in the provider's minor-unit convention (centavos).
type LineItem struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int64
}

// CreateSessionRequest captures everything needed for one session-creation
// call. All price and description data must be catalog-sourced by the
// caller; this client never sees raw cart input.
type CreateSessionRequest struct {
	Items          []LineItem
	Currency       string
	ShippingRateID string
	SuccessURL     string
	CancelURL      string
	Metadata       map[string]string
}

// CreateSessionResult is the subset of the provider session the storefront
// needs after creation.
type CreateSessionResult struct {
	SessionID string
	URL       string
}

// CreateCheckoutSession builds a Stripe Checkout session in payment mode with
// one shipping option and returns the hosted-payment redirect URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CreateSessionRequest) (CreateSessionResult, error) {
	if len(req.Items) == 0 {
		return CreateSessionResult{}, errors.New("stripe: at least one line item required")
	}

	lineItems := make([]*stripeapi.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		if item.UnitAmount <= 0 {
			return CreateSessionResult{}, fmt.Errorf("stripe: invalid unit amount for %q", item.Name)
		}
		if item.Quantity <= 0 {
			return CreateSessionResult{}, fmt.Errorf("stripe: invalid quantity for %q", item.Name)
		}
		productData := &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripeapi.String(item.Name),
		}
		if item.Description != "" {
			productData.Description = stripeapi.String(item.Description)
		}
		lineItems = append(lineItems, &stripeapi.CheckoutSessionLineItemParams{
			Quantity: stripeapi.Int64(item.Quantity),
			PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripeapi.String(req.Currency),
				UnitAmount:  stripeapi.Int64(item.UnitAmount),
				ProductData: productData,
			},
		})
	}

	params := &stripeapi.CheckoutSessionParams{
		Mode:               stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripeapi.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		SuccessURL:         stripeapi.String(req.SuccessURL),
		CancelURL:          stripeapi.String(req.CancelURL),
		ShippingOptions: []*stripeapi.CheckoutSessionShippingOptionParams{
			{ShippingRate: stripeapi.String(req.ShippingRateID)},
		},
	}
	params.Context = ctx
	params.Metadata = req.Metadata

	start := time.Now()
	result, err := c.breaker.Execute(circuitbreaker.ServiceStripe, func() (interface{}, error) {
		return session.New(params)
	})
	if c.metrics != nil {
		c.metrics.ObserveStripeCall("checkout_session_create", time.Since(start), err)
	}
	if err != nil {
		return CreateSessionResult{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	s := result.(*stripeapi.CheckoutSession)
	return CreateSessionResult{SessionID: s.ID, URL: s.URL}, nil
}

// GetSessionSummary retrieves a checkout session with line items and the
// applied shipping rate expanded, projected into the stable summary shape.
// Returns ErrSessionNotFound for unknown identifiers so callers can
// distinguish a bad ID from a provider outage.
func (c *Client) GetSessionSummary(ctx context.Context, sessionID string) (SessionSummary, error) {
	params := &stripeapi.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")
	params.AddExpand("shipping_rate")

	start := time.Now()
	result, err := c.breaker.Execute(circuitbreaker.ServiceStripe, func() (interface{}, error) {
		return session.Get(sessionID, params)
	})
	if c.metrics != nil {
		c.metrics.ObserveStripeCall("checkout_session_get", time.Since(start), err)
	}
	if err != nil {
		if isNotFound(err) {
			return SessionSummary{}, ErrSessionNotFound
		}
		return SessionSummary{}, fmt.Errorf("stripe: retrieve checkout session: %w", err)
	}

	return ProjectSession(result.(*stripeapi.CheckoutSession)), nil
}

// isNotFound reports whether a stripe-go error is a missing-resource error.
func isNotFound(err error) bool {
	var stripeErr *stripeapi.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.Code == stripeapi.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == 404
	}
	return false
}
