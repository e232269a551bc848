package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/DulceVerde/server/internal/catalog"
	"github.com/DulceVerde/server/internal/config"
	"github.com/DulceVerde/server/internal/idempotency"
	stripesvc "github.com/DulceVerde/server/internal/stripe"
)

// fakeCheckout records the last create request and returns canned results.
type fakeCheckout struct {
	lastCreate stripesvc.CreateSessionRequest
	createErr  error

	summary    stripesvc.SessionSummary
	summaryErr error
}

func (f *fakeCheckout) CreateCheckoutSession(_ context.Context, req stripesvc.CreateSessionRequest) (stripesvc.CreateSessionResult, error) {
	f.lastCreate = req
	if f.createErr != nil {
		return stripesvc.CreateSessionResult{}, f.createErr
	}
	return stripesvc.CreateSessionResult{SessionID: "cs_test_123", URL: "https://checkout.stripe.com/pay/cs_test_123"}, nil
}

func (f *fakeCheckout) GetSessionSummary(_ context.Context, sessionID string) (stripesvc.SessionSummary, error) {
	if f.summaryErr != nil {
		return stripesvc.SessionSummary{}, f.summaryErr
	}
	return f.summary, nil
}

func checkoutConfig() *config.Config {
	threshold := 500.0
	cfg, _ := config.Load("")
	cfg.Stripe.SecretKey = "sk_test_configured"
	cfg.Checkout.SiteURL = "https://dulceverde.mx"
	cfg.Checkout.FreeShippingThreshold = &threshold
	cfg.Checkout.ShippingRateFree = "shr_free"
	cfg.Checkout.ShippingRatePaid = "shr_paid"
	return cfg
}

func newTestHandlers(cfg *config.Config, checkout checkoutProvider) *handlers {
	return &handlers{
		cfg:      cfg,
		catalog:  catalog.NewRepository(config.CatalogConfig{}),
		checkout: checkout,
		logger:   zerolog.Nop(),
	}
}

func postCheckout(t *testing.T, h *handlers, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/checkout/v1/session", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.createCheckoutSession(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body struct {
		Error map[string]interface{} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse error body: %v", err)
	}
	return body.Error
}

func TestCreateCheckoutSessionSuccess(t *testing.T) {
	fake := &fakeCheckout{}
	h := newTestHandlers(checkoutConfig(), fake)

	rec := postCheckout(t, h, `{"items": [
		{"id": "brownie-chocolate", "quantity": 2},
		{"id": "galleta-choco-menta", "quantity": 1}
	]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["url"] != "https://checkout.stripe.com/pay/cs_test_123" {
		t.Errorf("unexpected url %q", resp["url"])
	}
	if _, leaked := resp["id"]; leaked {
		t.Error("session id must not be exposed in the create response")
	}

	// 2x250 + 1x250 = 750 >= 500, so the free rate applies.
	if fake.lastCreate.ShippingRateID != "shr_free" {
		t.Errorf("expected free shipping, got %q", fake.lastCreate.ShippingRateID)
	}
	if fake.lastCreate.Metadata["shipping_rate_applied"] != "shr_free" {
		t.Errorf("unexpected metadata %v", fake.lastCreate.Metadata)
	}
	if len(fake.lastCreate.Items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(fake.lastCreate.Items))
	}
	if fake.lastCreate.Items[0].UnitAmount != 25000 {
		t.Errorf("expected centavos unit amount 25000, got %d", fake.lastCreate.Items[0].UnitAmount)
	}
	if fake.lastCreate.Currency != "mxn" {
		t.Errorf("expected mxn, got %q", fake.lastCreate.Currency)
	}
	if fake.lastCreate.SuccessURL != "https://dulceverde.mx/success?session_id={CHECKOUT_SESSION_ID}" {
		t.Errorf("unexpected success url %q", fake.lastCreate.SuccessURL)
	}
	if fake.lastCreate.CancelURL != "https://dulceverde.mx/cart" {
		t.Errorf("unexpected cancel url %q", fake.lastCreate.CancelURL)
	}
}

func TestCreateCheckoutSessionPaidShippingBelowThreshold(t *testing.T) {
	fake := &fakeCheckout{}
	h := newTestHandlers(checkoutConfig(), fake)

	rec := postCheckout(t, h, `{"items": [{"id": "brownie-chocolate", "quantity": 1}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if fake.lastCreate.ShippingRateID != "shr_paid" {
		t.Errorf("expected paid shipping below threshold, got %q", fake.lastCreate.ShippingRateID)
	}
}

func TestCreateCheckoutSessionEmptyCartDiagnostics(t *testing.T) {
	h := newTestHandlers(checkoutConfig(), &fakeCheckout{})

	rec := postCheckout(t, h, `{"items": [
		{"id": "no-such-product", "quantity": 1},
		{"id": "brownie-chocolate", "quantity": 0}
	]}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	errBody := decodeErrorBody(t, rec)
	if errBody["code"] != "empty_cart" {
		t.Errorf("expected empty_cart, got %v", errBody["code"])
	}

	details, _ := errBody["details"].(map[string]interface{})
	if details == nil {
		t.Fatal("expected diagnostic details")
	}
	received, _ := details["receivedIds"].([]interface{})
	if len(received) != 2 {
		t.Errorf("expected 2 received ids, got %v", details["receivedIds"])
	}
	valid, _ := details["validIds"].([]interface{})
	if len(valid) != 5 {
		t.Errorf("expected 5 valid ids, got %v", details["validIds"])
	}
	rejections, _ := details["rejections"].([]interface{})
	if len(rejections) != 2 {
		t.Errorf("expected 2 rejections, got %v", details["rejections"])
	}
}

func TestCreateCheckoutSessionMissingItems(t *testing.T) {
	h := newTestHandlers(checkoutConfig(), &fakeCheckout{})

	rec := postCheckout(t, h, `{}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if errBody := decodeErrorBody(t, rec); errBody["code"] != "empty_cart" {
		t.Errorf("expected empty_cart, got %v", errBody["code"])
	}
}

func TestCreateCheckoutSessionMalformedBody(t *testing.T) {
	h := newTestHandlers(checkoutConfig(), &fakeCheckout{})

	rec := postCheckout(t, h, `{not json`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if errBody := decodeErrorBody(t, rec); errBody["code"] != "invalid_field" {
		t.Errorf("expected invalid_field, got %v", errBody["code"])
	}
}

func TestCreateCheckoutSessionFractionalQuantity(t *testing.T) {
	fake := &fakeCheckout{}
	h := newTestHandlers(checkoutConfig(), fake)

	rec := postCheckout(t, h, `{"items": [{"id": "brownie-chocolate", "quantity": 1.5}]}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	errBody := decodeErrorBody(t, rec)
	if errBody["code"] != "invalid_cart_item" {
		t.Errorf("expected invalid_cart_item, got %v", errBody["code"])
	}
	if fake.lastCreate.Items != nil {
		t.Error("provider must not be called for fractional quantities")
	}
}

func TestCreateCheckoutSessionConfigIncomplete(t *testing.T) {
	cfg, _ := config.Load("")
	fake := &fakeCheckout{}
	h := newTestHandlers(cfg, fake)

	rec := postCheckout(t, h, `{"items": [{"id": "brownie-chocolate", "quantity": 1}]}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	errBody := decodeErrorBody(t, rec)
	if errBody["code"] != "config_error" {
		t.Errorf("expected config_error, got %v", errBody["code"])
	}
	// The response must not enumerate which settings are missing.
	if msg, _ := errBody["message"].(string); msg != "checkout is not available" {
		t.Errorf("expected generic message, got %q", msg)
	}
	if fake.lastCreate.Items != nil {
		t.Error("provider must not be called when configuration is incomplete")
	}
}

func TestCreateCheckoutSessionProviderFailure(t *testing.T) {
	fake := &fakeCheckout{createErr: errors.New("stripe: connection reset")}
	h := newTestHandlers(checkoutConfig(), fake)

	rec := postCheckout(t, h, `{"items": [{"id": "brownie-chocolate", "quantity": 1}]}`)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	errBody := decodeErrorBody(t, rec)
	if errBody["code"] != "stripe_error" {
		t.Errorf("expected stripe_error, got %v", errBody["code"])
	}
	if msg, _ := errBody["message"].(string); msg != "failed to create checkout session" {
		t.Errorf("expected generic message, got %q", msg)
	}
}

func TestGetSessionSummarySuccess(t *testing.T) {
	fake := &fakeCheckout{
		summary: stripesvc.SessionSummary{
			ID:          "cs_test_123",
			AmountTotal: 56900,
			Currency:    "mxn",
			Status:      "complete",
		},
	}
	h := newTestHandlers(checkoutConfig(), fake)

	req := httptest.NewRequest("GET", "/checkout/v1/session?session_id=cs_test_123", nil)
	rec := httptest.NewRecorder()
	h.getSessionSummary(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var summary map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("failed to parse summary: %v", err)
	}
	if summary["id"] != "cs_test_123" || summary["status"] != "complete" {
		t.Errorf("unexpected summary %v", summary)
	}
}

func TestGetSessionSummaryMissingID(t *testing.T) {
	h := newTestHandlers(checkoutConfig(), &fakeCheckout{})

	req := httptest.NewRequest("GET", "/checkout/v1/session", nil)
	rec := httptest.NewRecorder()
	h.getSessionSummary(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if errBody := decodeErrorBody(t, rec); errBody["code"] != "missing_field" {
		t.Errorf("expected missing_field, got %v", errBody["code"])
	}
}

func TestGetSessionSummaryNotFound(t *testing.T) {
	fake := &fakeCheckout{summaryErr: stripesvc.ErrSessionNotFound}
	h := newTestHandlers(checkoutConfig(), fake)

	req := httptest.NewRequest("GET", "/checkout/v1/session?session_id=cs_missing", nil)
	rec := httptest.NewRecorder()
	h.getSessionSummary(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if errBody := decodeErrorBody(t, rec); errBody["code"] != "session_not_found" {
		t.Errorf("expected session_not_found, got %v", errBody["code"])
	}
}

func TestGetSessionSummaryProviderFailure(t *testing.T) {
	fake := &fakeCheckout{summaryErr: errors.New("stripe: 500")}
	h := newTestHandlers(checkoutConfig(), fake)

	req := httptest.NewRequest("GET", "/checkout/v1/session?session_id=cs_test_123", nil)
	rec := httptest.NewRecorder()
	h.getSessionSummary(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if errBody := decodeErrorBody(t, rec); errBody["code"] != "stripe_error" {
		t.Errorf("expected stripe_error, got %v", errBody["code"])
	}
}

func TestGetSessionSummaryConfigIncomplete(t *testing.T) {
	cfg, _ := config.Load("")
	h := newTestHandlers(cfg, &fakeCheckout{})

	req := httptest.NewRequest("GET", "/checkout/v1/session?session_id=cs_test_123", nil)
	rec := httptest.NewRecorder()
	h.getSessionSummary(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestListProducts(t *testing.T) {
	h := newTestHandlers(checkoutConfig(), &fakeCheckout{})

	req := httptest.NewRequest("GET", "/checkout/v1/products", nil)
	rec := httptest.NewRecorder()
	h.listProducts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}

	var resp struct {
		Products []catalog.Product `json:"products"`
		Currency string            `json:"currency"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Products) != 5 {
		t.Errorf("expected 5 products, got %d", len(resp.Products))
	}
	if resp.Currency != "mxn" {
		t.Errorf("expected mxn, got %q", resp.Currency)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandlers(checkoutConfig(), &fakeCheckout{})

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected ok, got %v", resp["status"])
	}
	if resp["checkoutReady"] != true {
		t.Errorf("expected checkoutReady true, got %v", resp["checkoutReady"])
	}
}

func TestHealthReportsCheckoutNotReady(t *testing.T) {
	cfg, _ := config.Load("")
	h := newTestHandlers(cfg, &fakeCheckout{})

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 even when unconfigured, got %d", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["checkoutReady"] != false {
		t.Errorf("expected checkoutReady false, got %v", resp["checkoutReady"])
	}
}

func newTestRouter(cfg *config.Config, checkout checkoutProvider) (chi.Router, *idempotency.MemoryStore) {
	store := idempotency.NewMemoryStore()
	router := chi.NewRouter()
	configureRouter(router, handlers{
		cfg:              cfg,
		catalog:          catalog.NewRepository(config.CatalogConfig{}),
		checkout:         checkout,
		idempotencyStore: store,
		logger:           zerolog.Nop(),
	})
	return router, store
}

func TestRouterMethodNotAllowed(t *testing.T) {
	cfg := checkoutConfig()
	cfg.RateLimit.GlobalEnabled = false
	cfg.RateLimit.PerIPEnabled = false
	router, store := newTestRouter(cfg, &fakeCheckout{})
	defer store.Stop()

	req := httptest.NewRequest("DELETE", "/checkout/v1/session", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if errBody := decodeErrorBody(t, rec); errBody["code"] != "method_not_allowed" {
		t.Errorf("expected method_not_allowed, got %v", errBody["code"])
	}
}

func TestRouterIdempotentReplay(t *testing.T) {
	cfg := checkoutConfig()
	cfg.RateLimit.GlobalEnabled = false
	cfg.RateLimit.PerIPEnabled = false
	router, store := newTestRouter(cfg, &fakeCheckout{})
	defer store.Stop()

	body := `{"items": [{"id": "brownie-chocolate", "quantity": 1}]}`

	first := httptest.NewRecorder()
	req1 := httptest.NewRequest("POST", "/checkout/v1/session", bytes.NewBufferString(body))
	req1.Header.Set("Idempotency-Key", "order-42")
	router.ServeHTTP(first, req1)

	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", first.Code, first.Body.String())
	}

	second := httptest.NewRecorder()
	req2 := httptest.NewRequest("POST", "/checkout/v1/session", bytes.NewBufferString(body))
	req2.Header.Set("Idempotency-Key", "order-42")
	router.ServeHTTP(second, req2)

	if second.Code != http.StatusOK {
		t.Fatalf("expected 200 on replay, got %d", second.Code)
	}
	if second.Header().Get("X-Idempotency-Replay") != "true" {
		t.Error("expected replay marker header")
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("expected identical body on replay")
	}
}

func TestRouterSecurityHeaders(t *testing.T) {
	cfg := checkoutConfig()
	cfg.RateLimit.GlobalEnabled = false
	cfg.RateLimit.PerIPEnabled = false
	router, store := newTestRouter(cfg, &fakeCheckout{})
	defer store.Stop()

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("expected nosniff, got %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("expected DENY, got %q", got)
	}
}

func TestRouterRoutePrefix(t *testing.T) {
	cfg := checkoutConfig()
	cfg.Server.RoutePrefix = "/api"
	cfg.RateLimit.GlobalEnabled = false
	cfg.RateLimit.PerIPEnabled = false
	router, store := newTestRouter(cfg, &fakeCheckout{})
	defer store.Stop()

	req := httptest.NewRequest("GET", "/api/checkout/v1/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on prefixed route, got %d", rec.Code)
	}
}
