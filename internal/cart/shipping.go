package cart

// ShippingRates holds the externally configured shipping tiers. Both rate
// identifiers are opaque references to shipping prices defined at the
// payment provider.
type ShippingRates struct {
	Threshold  float64 // Subtotal (major units) at which shipping becomes free
	FreeRateID string
	PaidRateID string
}

// SelectShippingRate picks the shipping rate for a subtotal. The subtotal
// must be computed from validated, catalog-sourced prices. A subtotal
// exactly at the threshold ships free.
func SelectShippingRate(subtotal float64, rates ShippingRates) string {
	if subtotal >= rates.Threshold {
		return rates.FreeRateID
	}
	return rates.PaidRateID
}
