package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/DulceVerde/server/internal/catalog"
	apierrors "github.com/DulceVerde/server/internal/errors"
	"github.com/DulceVerde/server/internal/logger"
)

// productsListResponse wraps the catalog for the storefront frontend.
type productsListResponse struct {
	Products []catalog.Product `json:"products"`
	Currency string            `json:"currency"`
}

// listProducts returns the purchasable catalog. The catalog is static per
// process, so browsers may cache it briefly.
func (h *handlers) listProducts(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		log.Error().
			Err(err).
			Msg("products.list.fetch_failed")
		apierrors.WriteSimpleError(w, apierrors.ErrCodeInternalError, "failed to fetch products")
		return
	}

	response := productsListResponse{
		Products: products,
		Currency: h.cfg.Checkout.Currency,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().
			Err(err).
			Int("product_count", len(products)).
			Msg("products.list.encode_failed")
	}
}
