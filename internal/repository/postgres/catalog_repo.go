package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"frigo/internal/domain"
	"frigo/internal/port"
)

const productColumns = "id, name, brand, category, barcode, packaging, unit"

type catalogRepo struct {
	db *sqlx.DB
}

// CatalogRepo is both sides of the product catalog.
type CatalogRepo interface {
	port.CatalogLookup
	port.CatalogWriter
}

// NewCatalogRepo creates a new PostgreSQL-backed product catalog.
func NewCatalogRepo(db *sqlx.DB) CatalogRepo {
	return &catalogRepo{db: db}
}

func (r *catalogRepo) FindByBarcode(ctx context.Context, code string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p,
		"SELECT "+productColumns+" FROM products WHERE barcode = $1", code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("catalogRepo.FindByBarcode: %w", err)
	}
	return &p, nil
}

func (r *catalogRepo) SearchByName(ctx context.Context, name string) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.SelectContext(ctx, &products,
		`SELECT `+productColumns+` FROM products
		 WHERE $1 = '' OR name ILIKE '%' || $1 || '%'
		 ORDER BY name`, name)
	if err != nil {
		return nil, fmt.Errorf("catalogRepo.SearchByName: %w", err)
	}
	return products, nil
}

// UpsertProducts inserts or updates products by id in one transaction and
// returns how many rows were written.
func (r *catalogRepo) UpsertProducts(ctx context.Context, products []domain.Product) (int, error) {
	written := 0
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for i := range products {
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO products (id, name, brand, category, barcode, packaging, unit)
				VALUES (:id, :name, :brand, :category, :barcode, :packaging, :unit)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name,
					brand = EXCLUDED.brand,
					category = EXCLUDED.category,
					barcode = EXCLUDED.barcode,
					packaging = EXCLUDED.packaging,
					unit = EXCLUDED.unit,
					updated_at = NOW()`, &products[i])
			if err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("catalogRepo.UpsertProducts: %w", err)
	}
	return written, nil
}
