package cart

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/DulceVerde/server/internal/catalog"
)

// Rejection reasons reported per dropped cart entry.
const (
	ReasonMalformedEntry  = "malformed_entry"
	ReasonInvalidQuantity = "invalid_quantity"
	ReasonUnknownProduct  = "unknown_product"
)

// LineItem is a validated cart entry. The product reference is always
// catalog-sourced; any price or description the client submitted is ignored.
// Quantity is kept as a float: positive fractional quantities survive
// validation (see Result) and are only tightened at the provider boundary.
type LineItem struct {
	Product  catalog.Product
	Quantity float64
}

// LineTotal returns the catalog price times quantity in major units.
func (li LineItem) LineTotal() float64 {
	return float64(li.Product.Price) * li.Quantity
}

// Rejection records a dropped cart entry with the reason it was dropped,
// enabling the diagnostic detail returned on empty-after-validation carts.
type Rejection struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Result is the discriminated outcome of cart validation: the entries that
// resolved against the catalog and the entries that were dropped, each with
// a reason. An all-rejected cart is a client fault, distinct from any
// decoding failure (Validate never fails).
type Result struct {
	Items    []LineItem
	Rejected []Rejection
}

// Subtotal sums line totals over the validated items in major units.
func (r Result) Subtotal() float64 {
	var total float64
	for _, item := range r.Items {
		total += item.LineTotal()
	}
	return total
}

// ReceivedIDs returns every product identifier the client submitted,
// valid or not, in submission order.
func (r Result) ReceivedIDs() []string {
	ids := make([]string, 0, len(r.Items)+len(r.Rejected))
	for _, item := range r.Items {
		ids = append(ids, item.Product.ID)
	}
	for _, rej := range r.Rejected {
		if rej.ID != "" {
			ids = append(ids, rej.ID)
		}
	}
	return ids
}

// rawEntry is the lenient decoding target for one untrusted cart entry.
// Unknown fields (including any client-supplied price) are ignored.
type rawEntry struct {
	ID       string          `json:"id"`
	Quantity json.RawMessage `json:"quantity"`
}

// Validate resolves an untrusted cart payload against the catalog.
//
// The payload is whatever the client claimed to be a list of {id, quantity}
// pairs; anything that is not a JSON array validates as an empty cart, and
// each malformed entry is dropped with a reason rather than failing the
// whole request. Quantities are coerced the way loose frontends send them:
// JSON numbers or numeric strings, required positive and finite.
func Validate(ctx context.Context, repo catalog.Repository, payload json.RawMessage) Result {
	var result Result

	var rawItems []json.RawMessage
	if err := json.Unmarshal(payload, &rawItems); err != nil {
		// Non-array input is an empty cart, never an error.
		return result
	}

	for _, raw := range rawItems {
		var entry rawEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			result.Rejected = append(result.Rejected, Rejection{Reason: ReasonMalformedEntry})
			continue
		}

		quantity, ok := coerceQuantity(entry.Quantity)
		if !ok || quantity <= 0 {
			result.Rejected = append(result.Rejected, Rejection{ID: entry.ID, Reason: ReasonInvalidQuantity})
			continue
		}

		product, err := repo.GetProduct(ctx, entry.ID)
		if err != nil {
			result.Rejected = append(result.Rejected, Rejection{ID: entry.ID, Reason: ReasonUnknownProduct})
			continue
		}

		result.Items = append(result.Items, LineItem{Product: product, Quantity: quantity})
	}

	return result
}

// coerceQuantity converts a raw JSON quantity to a number, accepting JSON
// numbers and numeric strings. NaN, infinities, and everything else fail
// the coercion.
func coerceQuantity(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	}

	return 0, false
}

// IsIntegral reports whether a validated quantity is a whole number.
// The payment provider types line-item quantities as integers, so the
// session builder refuses fractional quantities explicitly instead of
// truncating them.
func IsIntegral(quantity float64) bool {
	return quantity == math.Trunc(quantity)
}
