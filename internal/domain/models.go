package domain

import (
	"time"

	"github.com/google/uuid"
)

// Receipt is a photographed supermarket receipt and the result of parsing it.
type Receipt struct {
	ID                uuid.UUID     `db:"id" json:"id"`
	UserID            uuid.UUID     `db:"user_id" json:"user_id"`
	HouseholdID       *uuid.UUID    `db:"household_id" json:"household_id,omitempty"`
	StoreName         string        `db:"store_name" json:"store_name"`
	StoreAddress      *string       `db:"store_address" json:"store_address,omitempty"`
	ReceiptDate       *time.Time    `db:"receipt_date" json:"receipt_date,omitempty"`
	TotalAmount       *float64      `db:"total_amount" json:"total_amount,omitempty"`
	RawText           string        `db:"raw_text" json:"raw_text"`
	OCRConfidence     float64       `db:"ocr_confidence" json:"ocr_confidence"`
	ParsingConfidence float64       `db:"parsing_confidence" json:"parsing_confidence"`
	ImageQuality      float64       `db:"image_quality" json:"image_quality"`
	ParserUsed        ParserID      `db:"parser_used" json:"parser_used"`
	ImageKey          string        `db:"image_key" json:"image_key,omitempty"`
	Status            ReceiptStatus `db:"status" json:"status"`
	ConfirmedAt       *time.Time    `db:"confirmed_at" json:"confirmed_at,omitempty"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
	Items             []ReceiptItem `db:"-" json:"items"`
}

// AdvanceTo moves the receipt to next, refusing regressions.
func (r *Receipt) AdvanceTo(next ReceiptStatus) error {
	if !r.Status.CanTransitionTo(next) {
		return ErrInvalidStatusTransition
	}
	r.Status = next
	return nil
}

// ItemByID returns the item with the given id, or nil.
func (r *Receipt) ItemByID(id uuid.UUID) *ReceiptItem {
	for i := range r.Items {
		if r.Items[i].ID == id {
			return &r.Items[i]
		}
	}
	return nil
}

// ReceiptItem is one purchased line on a receipt.
type ReceiptItem struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	ReceiptID          uuid.UUID  `db:"receipt_id" json:"receipt_id"`
	RawLine            string     `db:"raw_line" json:"raw_line"`
	Name               string     `db:"name" json:"name"`
	Quantity           float64    `db:"quantity" json:"quantity"`
	Unit               Unit       `db:"unit" json:"unit"`
	UnitPrice          *float64   `db:"unit_price" json:"unit_price,omitempty"`
	TotalPrice         float64    `db:"total_price" json:"total_price"`
	ProductCode        *string    `db:"product_code" json:"product_code,omitempty"`
	Discount           *float64   `db:"discount" json:"discount,omitempty"`
	Confidence         float64    `db:"confidence" json:"confidence"`
	LineNumber         int        `db:"line_number" json:"line_number"`
	NeedsReview        bool       `db:"needs_review" json:"needs_review"`
	ConfirmedProductID *uuid.UUID `db:"confirmed_product_id" json:"confirmed_product_id,omitempty"`
	ConfirmedQuantity  *float64   `db:"confirmed_quantity" json:"confirmed_quantity,omitempty"`
}

// Product is a catalog entry that receipt items can be matched against.
type Product struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Brand     *string   `db:"brand" json:"brand,omitempty"`
	Category  *string   `db:"category" json:"category,omitempty"`
	Barcode   *string   `db:"barcode" json:"barcode,omitempty"`
	Packaging *string   `db:"packaging" json:"packaging,omitempty"`
	Unit      Unit      `db:"unit" json:"unit"`
}

// ProductSuggestion is a ranked catalog candidate for a receipt item.
type ProductSuggestion struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Score     float64   `json:"score"`
	Brand     *string   `json:"brand,omitempty"`
	Category  *string   `json:"category,omitempty"`
}

// PackagingInfo is the parsed form of a packaging string such as "6 x 1 l".
// When IsMultipack is set, TotalQuantity equals PackagingSize times UnitSize.
type PackagingInfo struct {
	TotalQuantity float64  `json:"total_quantity"`
	TotalUnit     Unit     `json:"total_unit"`
	PackagingSize *int     `json:"packaging_size,omitempty"`
	UnitSize      *float64 `json:"unit_size,omitempty"`
	IsMultipack   bool     `json:"is_multipack"`
}

// StockEntry is an inventory addition produced by confirming a receipt item.
type StockEntry struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	ProductID       uuid.UUID  `db:"product_id" json:"product_id"`
	Quantity        float64    `db:"quantity" json:"quantity"`
	Unit            Unit       `db:"unit" json:"unit"`
	ExpirationDate  *time.Time `db:"expiration_date" json:"expiration_date,omitempty"`
	SourceReceiptID uuid.UUID  `db:"source_receipt_id" json:"source_receipt_id"`
	ReceiptItemID   uuid.UUID  `db:"receipt_item_id" json:"receipt_item_id"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}
