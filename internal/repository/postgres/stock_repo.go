package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"frigo/internal/domain"
	"frigo/internal/port"
)

type stockRepo struct {
	db *sqlx.DB
}

// NewStockRepo creates a new PostgreSQL-backed StockWriter.
func NewStockRepo(db *sqlx.DB) port.StockWriter {
	return &stockRepo{db: db}
}

// Add appends a stock entry. A second entry for the same receipt line is
// ignored; two lines mapped to the same product each get their own entry.
func (r *stockRepo) Add(ctx context.Context, e *domain.StockEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO stock_entries (id, user_id, product_id, quantity, unit, expiration_date, source_receipt_id, receipt_item_id, created_at)
		VALUES (:id, :user_id, :product_id, :quantity, :unit, :expiration_date, :source_receipt_id, :receipt_item_id, :created_at)
		ON CONFLICT (receipt_item_id) DO NOTHING`, e)
	if err != nil {
		return fmt.Errorf("stockRepo.Add: %w", err)
	}
	return nil
}
