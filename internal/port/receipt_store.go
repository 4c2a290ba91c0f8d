package port

import (
	"context"

	"github.com/google/uuid"

	"frigo/internal/domain"
)

// ReceiptStore defines the contract for receipt persistence.
type ReceiptStore interface {
	// Save inserts or replaces a receipt together with its items.
	Save(ctx context.Context, receipt *domain.Receipt) error
	FindByUser(ctx context.Context, userID uuid.UUID) ([]domain.Receipt, error)
	// FindByID returns domain.ErrNotFound when the receipt does not exist or
	// belongs to another user.
	FindByID(ctx context.Context, id, userID uuid.UUID) (*domain.Receipt, error)
}

// StockWriter appends stock entries. Adding the same product twice for one
// receipt is a no-op.
type StockWriter interface {
	Add(ctx context.Context, entry *domain.StockEntry) error
}
