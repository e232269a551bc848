package catalog

import "context"

// StaticRepository implements Repository over an in-memory product list
// loaded once at process start.
type StaticRepository struct {
	byID  map[string]Product
	order []string
}

// NewStaticRepository creates a read-only repository from a product slice.
// Input order is preserved for listings; duplicate IDs keep the first entry.
func NewStaticRepository(products []Product) *StaticRepository {
	r := &StaticRepository{
		byID:  make(map[string]Product, len(products)),
		order: make([]string, 0, len(products)),
	}
	for _, p := range products {
		if _, exists := r.byID[p.ID]; exists {
			continue
		}
		r.byID[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	return r
}

// GetProduct retrieves a product by ID.
func (r *StaticRepository) GetProduct(_ context.Context, id string) (Product, error) {
	p, ok := r.byID[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

// ListProducts returns all products in catalog order.
func (r *StaticRepository) ListProducts(_ context.Context) ([]Product, error) {
	products := make([]Product, 0, len(r.order))
	for _, id := range r.order {
		products = append(products, r.byID[id])
	}
	return products, nil
}

// ValidIDs returns the identifiers of all purchasable products.
func (r *StaticRepository) ValidIDs(_ context.Context) ([]string, error) {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids, nil
}

// DefaultProducts returns the built-in catalog used when no products are
// configured. Prices are MXN major units.
func DefaultProducts() []Product {
	return []Product{
		{
			ID:          "brownie-chocolate",
			Name:        "Brownie de chocolate",
			Price:       250,
			Type:        "brownie",
			Description: "Brownie clásico, súper chocolatoso, con textura húmeda por dentro y ligera costra por fuera. Perfecto para antojo de algo intenso pero sencillo.",
		},
		{
			ID:          "brownie-super-chocolate",
			Name:        "Brownie de súper chocolate con trozos de chocolate Hershey's",
			Price:       350,
			Type:        "brownie",
			Description: "Brownie extra cargado de chocolate, con trozos de Hershey's que se derriten al morder. Ideal para los que 'nunca es suficiente chocolate'.",
		},
		{
			ID:          "galleta-chispas-chocolate",
			Name:        "Galleta con chispas de chocolate",
			Price:       250,
			Type:        "galleta",
			Description: "Galleta suave por dentro y ligeramente crujiente por fuera, llena de chispas de chocolate en cada bocado. Un clásico que nunca falla.",
		},
		{
			ID:          "galleta-choco-menta",
			Name:        "Galleta choco-menta",
			Price:       250,
			Type:        "galleta",
			Description: "Galleta de chocolate con un toque fresco de menta, perfecta para quienes aman la combinación intensa y refrescante.",
		},
		{
			ID:          "galleta-chispas-cajeta",
			Name:        "Galleta con chispas y cajeta",
			Price:       250,
			Type:        "galleta",
			Description: "Galleta con chispas de chocolate y centros de cajeta suave que se derrite. Dulce, cremosa y súper antojable.",
		},
	}
}
