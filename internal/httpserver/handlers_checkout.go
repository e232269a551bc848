package httpserver

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/DulceVerde/server/internal/cart"
	apierrors "github.com/DulceVerde/server/internal/errors"
	"github.com/DulceVerde/server/internal/logger"
	stripesvc "github.com/DulceVerde/server/internal/stripe"
	"github.com/DulceVerde/server/pkg/responders"
)

// createCheckoutSessionRequest captures the checkout request body. Items is
// kept raw: the cart validator owns the decoding of untrusted entries.
type createCheckoutSessionRequest struct {
	Items json.RawMessage `json:"items"`
}

// createCheckoutSessionResponse carries the hosted payment page URL.
type createCheckoutSessionResponse struct {
	URL string `json:"url"`
}

// createCheckoutSession validates the cart against the catalog, selects a
// shipping rate from the subtotal, and creates a hosted checkout session.
func (h *handlers) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	if err := h.cfg.ValidateCheckout(); err != nil {
		log.Error().
			Err(err).
			Msg("checkout.session.config_incomplete")
		h.observeCheckout("config_error", 0, 0)
		apierrors.WriteSimpleError(w, apierrors.ErrCodeConfigError, "checkout is not available")
		return
	}

	var req createCheckoutSessionRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		log.Warn().
			Err(err).
			Msg("checkout.session.invalid_body")
		h.observeCheckout("invalid_body", 0, 0)
		apierrors.WriteSimpleError(w, apierrors.ErrCodeInvalidField, "request body must be JSON with an items array")
		return
	}

	result := cart.Validate(r.Context(), h.catalog, req.Items)
	h.observeCartValidation(result)

	if len(result.Items) == 0 {
		validIDs, _ := h.catalog.ValidIDs(r.Context())
		log.Warn().
			Int("received", len(result.ReceivedIDs())).
			Int("rejected", len(result.Rejected)).
			Msg("checkout.session.empty_cart")
		h.observeCheckout("empty_cart", 0, 0)
		apierrors.WriteError(w, apierrors.ErrCodeEmptyCart, "no valid items in cart", map[string]interface{}{
			"receivedIds": result.ReceivedIDs(),
			"validIds":    validIDs,
			"rejections":  result.Rejected,
		})
		return
	}

	lineItems := make([]stripesvc.LineItem, 0, len(result.Items))
	for _, item := range result.Items {
		if !cart.IsIntegral(item.Quantity) {
			log.Warn().
				Str("product_id", item.Product.ID).
				Float64("quantity", item.Quantity).
				Msg("checkout.session.fractional_quantity")
			h.observeCheckout("invalid_quantity", 0, 0)
			apierrors.WriteErrorWithDetail(w, apierrors.ErrCodeInvalidCartItem,
				"quantity must be a whole number", "id", item.Product.ID)
			return
		}
		lineItems = append(lineItems, stripesvc.LineItem{
			Name:        item.Product.Name,
			Description: item.Product.Description,
			UnitAmount:  item.Product.Price * 100,
			Quantity:    int64(item.Quantity),
		})
	}

	subtotal := result.Subtotal()
	shippingRateID := cart.SelectShippingRate(subtotal, cart.ShippingRates{
		Threshold:  *h.cfg.Checkout.FreeShippingThreshold,
		FreeRateID: h.cfg.Checkout.ShippingRateFree,
		PaidRateID: h.cfg.Checkout.ShippingRatePaid,
	})

	sessionStart := time.Now()
	created, err := h.checkout.CreateCheckoutSession(r.Context(), stripesvc.CreateSessionRequest{
		Items:          lineItems,
		Currency:       h.cfg.Checkout.Currency,
		ShippingRateID: shippingRateID,
		SuccessURL:     h.cfg.Checkout.SuccessURL(),
		CancelURL:      h.cfg.Checkout.CancelURL(),
		Metadata: map[string]string{
			"shipping_rate_applied": shippingRateID,
		},
	})
	if err != nil {
		log.Error().
			Err(err).
			Int("item_count", len(lineItems)).
			Dur("duration", time.Since(sessionStart)).
			Msg("checkout.session.create_failed")
		h.observeCheckout("failed", 0, 0)
		apierrors.WriteSimpleError(w, apierrors.ErrCodeStripeError, "failed to create checkout session")
		return
	}

	subtotalCentavos := int64(math.Round(subtotal * 100))
	h.observeCheckout("created", len(lineItems), subtotalCentavos)

	log.Info().
		Str("session_id", logger.TruncateSessionID(created.SessionID)).
		Str("shipping_rate", shippingRateID).
		Int("item_count", len(lineItems)).
		Float64("subtotal", subtotal).
		Dur("duration", time.Since(sessionStart)).
		Msg("checkout.session.created")

	responders.JSON(w, http.StatusOK, createCheckoutSessionResponse{URL: created.URL})
}

func (h *handlers) observeCheckout(status string, itemCount int, subtotalCentavos int64) {
	if h.metrics != nil {
		h.metrics.ObserveCheckout(status, itemCount, subtotalCentavos)
	}
}

func (h *handlers) observeCartValidation(result cart.Result) {
	if h.metrics == nil {
		return
	}
	rejectedByReason := make(map[string]int, len(result.Rejected))
	for _, rej := range result.Rejected {
		rejectedByReason[rej.Reason]++
	}
	h.metrics.ObserveCartValidation(len(result.Items), rejectedByReason)
}
