package port

import (
	"context"

	"frigo/internal/domain"
)

// CatalogLookup is the read side of the product catalog.
type CatalogLookup interface {
	// FindByBarcode returns domain.ErrNotFound when no product has the code.
	FindByBarcode(ctx context.Context, code string) (*domain.Product, error)
	// SearchByName returns products whose name contains name; an empty name
	// returns the whole catalog.
	SearchByName(ctx context.Context, name string) ([]domain.Product, error)
}

// CatalogWriter loads products into the catalog.
type CatalogWriter interface {
	UpsertProducts(ctx context.Context, products []domain.Product) (int, error)
}
