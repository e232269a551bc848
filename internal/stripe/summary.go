package stripe

import (
	stripeapi "github.com/stripe/stripe-go/v72"
)

// SessionSummary is the stable, minimal view of a provider checkout session
// returned to the storefront after payment. Fields absent in the provider
// response stay absent here; nothing is defaulted.
type SessionSummary struct {
	ID              string            `json:"id"`
	AmountTotal     int64             `json:"amount_total,omitempty"`
	Currency        string            `json:"currency,omitempty"`
	Status          string            `json:"status,omitempty"`
	CustomerDetails *CustomerDetails  `json:"customer_details,omitempty"`
	ShippingDetails *ShippingDetails  `json:"shipping_details,omitempty"`
	ShippingCost    *ShippingCost     `json:"shipping_cost,omitempty"`
	LineItems       []SummaryLineItem `json:"line_items,omitempty"`
}

// CustomerDetails is the contact information the provider collected.
type CustomerDetails struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ShippingDetails is the delivery address the provider collected.
type ShippingDetails struct {
	Name    string   `json:"name,omitempty"`
	Address *Address `json:"address,omitempty"`
}

// Address mirrors the provider's postal address shape.
type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// ShippingCost reports the shipping amount charged and which configured
// rate produced it.
type ShippingCost struct {
	AmountTotal     int64  `json:"amount_total,omitempty"`
	ShippingRateID  string `json:"shipping_rate,omitempty"`
	RateDisplayName string `json:"rate_display_name,omitempty"`
}

// SummaryLineItem is one purchased entry as recorded by the provider.
type SummaryLineItem struct {
	ID             string `json:"id"`
	Description    string `json:"description,omitempty"`
	Quantity       int64  `json:"quantity,omitempty"`
	AmountSubtotal int64  `json:"amount_subtotal,omitempty"`
	AmountTotal    int64  `json:"amount_total,omitempty"`
	Currency       string `json:"currency,omitempty"`
}

// ProjectSession maps a provider session onto the summary shape. The
// projection is explicit field by field: optional provider sub-objects map
// to nil pointers, zero amounts stay omitted, and unknown provider fields
// never pass through.
func ProjectSession(s *stripeapi.CheckoutSession) SessionSummary {
	if s == nil {
		return SessionSummary{}
	}

	summary := SessionSummary{
		ID:          s.ID,
		AmountTotal: s.AmountTotal,
		Currency:    string(s.Currency),
		Status:      string(s.Status),
	}

	if s.CustomerDetails != nil {
		summary.CustomerDetails = &CustomerDetails{
			Email: s.CustomerDetails.Email,
			Phone: s.CustomerDetails.Phone,
		}
	}

	if s.Shipping != nil {
		summary.ShippingDetails = &ShippingDetails{
			Name:    s.Shipping.Name,
			Address: projectAddress(s.Shipping.Address),
		}
	}

	if cost := projectShippingCost(s); cost != nil {
		summary.ShippingCost = cost
	}

	if s.LineItems != nil {
		summary.LineItems = make([]SummaryLineItem, 0, len(s.LineItems.Data))
		for _, item := range s.LineItems.Data {
			if item == nil {
				continue
			}
			summary.LineItems = append(summary.LineItems, SummaryLineItem{
				ID:             item.ID,
				Description:    item.Description,
				Quantity:       item.Quantity,
				AmountSubtotal: item.AmountSubtotal,
				AmountTotal:    item.AmountTotal,
				Currency:       string(item.Currency),
			})
		}
	}

	return summary
}

func projectAddress(a *stripeapi.Address) *Address {
	if a == nil {
		return nil
	}
	return &Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func projectShippingCost(s *stripeapi.CheckoutSession) *ShippingCost {
	var cost ShippingCost
	if s.TotalDetails != nil {
		cost.AmountTotal = s.TotalDetails.AmountShipping
	}
	if s.ShippingRate != nil {
		cost.ShippingRateID = s.ShippingRate.ID
		cost.RateDisplayName = s.ShippingRate.DisplayName
	}
	if cost == (ShippingCost{}) {
		return nil
	}
	return &cost
}
