package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"frigo/internal/domain"
	"frigo/internal/port"
)

const upsertReceiptQuery = `
	INSERT INTO receipts (
		id, user_id, household_id, store_name, store_address, receipt_date, total_amount,
		raw_text, ocr_confidence, parsing_confidence, image_quality, parser_used, image_key,
		status, confirmed_at, created_at, updated_at
	) VALUES (
		:id, :user_id, :household_id, :store_name, :store_address, :receipt_date, :total_amount,
		:raw_text, :ocr_confidence, :parsing_confidence, :image_quality, :parser_used, :image_key,
		:status, :confirmed_at, :created_at, :updated_at
	)
	ON CONFLICT (id) DO UPDATE SET
		household_id = EXCLUDED.household_id,
		store_name = EXCLUDED.store_name,
		store_address = EXCLUDED.store_address,
		receipt_date = EXCLUDED.receipt_date,
		total_amount = EXCLUDED.total_amount,
		raw_text = EXCLUDED.raw_text,
		ocr_confidence = EXCLUDED.ocr_confidence,
		parsing_confidence = EXCLUDED.parsing_confidence,
		image_quality = EXCLUDED.image_quality,
		parser_used = EXCLUDED.parser_used,
		image_key = EXCLUDED.image_key,
		status = EXCLUDED.status,
		confirmed_at = EXCLUDED.confirmed_at,
		updated_at = EXCLUDED.updated_at`

const insertItemQuery = `
	INSERT INTO receipt_items (
		id, receipt_id, raw_line, name, quantity, unit, unit_price, total_price, product_code,
		discount, confidence, line_number, needs_review, confirmed_product_id, confirmed_quantity
	) VALUES (
		:id, :receipt_id, :raw_line, :name, :quantity, :unit, :unit_price, :total_price, :product_code,
		:discount, :confidence, :line_number, :needs_review, :confirmed_product_id, :confirmed_quantity
	)`

type receiptRepo struct {
	db *sqlx.DB
}

// NewReceiptRepo creates a new PostgreSQL-backed ReceiptStore.
func NewReceiptRepo(db *sqlx.DB) port.ReceiptStore {
	return &receiptRepo{db: db}
}

// Save upserts the receipt and replaces its items in one transaction.
func (r *receiptRepo) Save(ctx context.Context, receipt *domain.Receipt) error {
	now := time.Now().UTC()
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = now
	}
	if receipt.UpdatedAt.IsZero() {
		receipt.UpdatedAt = now
	}

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, upsertReceiptQuery, receipt); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM receipt_items WHERE receipt_id = $1", receipt.ID); err != nil {
			return err
		}
		for i := range receipt.Items {
			item := &receipt.Items[i]
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			item.ReceiptID = receipt.ID
			if _, err := tx.NamedExecContext(ctx, insertItemQuery, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("receiptRepo.Save: %w", err)
	}
	return nil
}

func (r *receiptRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]domain.Receipt, error) {
	var receipts []domain.Receipt
	err := r.db.SelectContext(ctx, &receipts,
		"SELECT * FROM receipts WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("receiptRepo.FindByUser: %w", err)
	}
	if len(receipts) == 0 {
		return receipts, nil
	}

	ids := make([]uuid.UUID, len(receipts))
	for i := range receipts {
		ids[i] = receipts[i].ID
	}
	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("receiptRepo.FindByUser: %w", err)
	}
	for i := range receipts {
		receipts[i].Items = items[receipts[i].ID]
	}
	return receipts, nil
}

func (r *receiptRepo) FindByID(ctx context.Context, id, userID uuid.UUID) (*domain.Receipt, error) {
	var receipt domain.Receipt
	err := r.db.GetContext(ctx, &receipt,
		"SELECT * FROM receipts WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("receiptRepo.FindByID: %w", err)
	}

	items, err := r.itemsFor(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("receiptRepo.FindByID: %w", err)
	}
	receipt.Items = items[id]
	return &receipt, nil
}

// itemsFor loads the items of several receipts, grouped by receipt and
// ordered by line number.
func (r *receiptRepo) itemsFor(ctx context.Context, receiptIDs []uuid.UUID) (map[uuid.UUID][]domain.ReceiptItem, error) {
	query, args, err := sqlx.In(
		"SELECT * FROM receipt_items WHERE receipt_id IN (?) ORDER BY receipt_id, line_number", receiptIDs)
	if err != nil {
		return nil, err
	}

	var items []domain.ReceiptItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	grouped := make(map[uuid.UUID][]domain.ReceiptItem, len(receiptIDs))
	for i := range items {
		grouped[items[i].ReceiptID] = append(grouped[items[i].ReceiptID], items[i])
	}
	return grouped, nil
}
