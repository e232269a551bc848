package catalog

import (
	"context"
	"errors"

	"github.com/DulceVerde/server/internal/config"
)

// ErrProductNotFound is returned when a product doesn't exist.
var ErrProductNotFound = errors.New("product not found")

// Product represents a purchasable catalog entry. Price is in major currency
// units (whole pesos); conversion to the provider's minor-unit convention
// happens at checkout-session build time.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Repository defines the read-only interface for catalog lookups.
// Products are defined at deploy time; there is no runtime mutation.
type Repository interface {
	// GetProduct retrieves a product by ID.
	// Returns ErrProductNotFound when the ID is unknown; callers treat this
	// as "the cart entry is invalid", never as a fatal condition.
	GetProduct(ctx context.Context, id string) (Product, error)

	// ListProducts returns all products in stable order.
	ListProducts(ctx context.Context) ([]Product, error)

	// ValidIDs returns the identifiers of all purchasable products,
	// used for cart-rejection diagnostics.
	ValidIDs(ctx context.Context) ([]string, error)
}

// NewRepository builds the catalog repository from config. An empty product
// list falls back to the built-in default catalog.
func NewRepository(cfg config.CatalogConfig) Repository {
	if len(cfg.Products) == 0 {
		return NewStaticRepository(DefaultProducts())
	}
	products := make([]Product, 0, len(cfg.Products))
	for _, p := range cfg.Products {
		products = append(products, Product{
			ID:          p.ID,
			Name:        p.Name,
			Price:       p.Price,
			Type:        p.Type,
			Description: p.Description,
		})
	}
	return NewStaticRepository(products)
}
