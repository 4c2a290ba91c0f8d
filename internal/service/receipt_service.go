package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"frigo/internal/config"
	"frigo/internal/domain"
	"frigo/internal/export"
	"frigo/internal/port"
	"frigo/internal/vision"
)

const imageURLExpirySeconds = 900

// UploadReceiptInput is the DTO for uploading a receipt photo.
type UploadReceiptInput struct {
	Image       []byte
	UserID      uuid.UUID
	HouseholdID *uuid.UUID
}

// ReceiptUploadResult is the structured outcome of an upload.
type ReceiptUploadResult struct {
	ReceiptID         uuid.UUID                                `json:"receipt_id"`
	StoreName         string                                   `json:"store_name"`
	ReceiptDate       *time.Time                               `json:"receipt_date,omitempty"`
	TotalAmount       *float64                                 `json:"total_amount,omitempty"`
	Confidence        float64                                  `json:"confidence"`
	Status            domain.ReceiptStatus                     `json:"status"`
	Items             []domain.ReceiptItem                     `json:"items"`
	SuggestedProducts []domain.ProductSuggestion               `json:"suggested_products"`
	ItemSuggestions   map[uuid.UUID][]domain.ProductSuggestion `json:"item_suggestions,omitempty"`
}

// ConfirmedItemInput is the user's decision for one receipt item. Items
// with Confirmed unset are left out of the stock.
type ConfirmedItemInput struct {
	ReceiptItemID  uuid.UUID  `json:"receipt_item_id" validate:"required"`
	ProductID      *uuid.UUID `json:"product_id,omitempty"`
	Quantity       float64    `json:"quantity" validate:"gte=0"`
	UnitPrice      *float64   `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	Confirmed      bool       `json:"confirmed"`
}

// ConfirmReceiptInput is the DTO for confirming a parsed receipt.
type ConfirmReceiptInput struct {
	ReceiptID      uuid.UUID            `validate:"required"`
	UserID         uuid.UUID            `validate:"required"`
	ConfirmedItems []ConfirmedItemInput `validate:"required,min=1,dive"`
}

// ConfirmReceiptResult reports how many stock entries were written.
type ConfirmReceiptResult struct {
	ConfirmedCount int `json:"confirmed_count"`
}

// ReceiptDetails is a stored receipt plus a temporary link to its image.
type ReceiptDetails struct {
	*domain.Receipt
	ImageURL string `json:"image_url,omitempty"`
}

// ReceiptAnalyzer reads a receipt image into scored items.
type ReceiptAnalyzer interface {
	Analyze(ctx context.Context, image []byte) (*Analysis, error)
}

// ProductSuggester ranks catalog products for receipt items.
type ProductSuggester interface {
	Suggest(ctx context.Context, items []domain.ReceiptItem) ([][]domain.ProductSuggestion, []domain.ProductSuggestion)
	Refresh(ctx context.Context) error
	Size() int
}

// ReceiptService defines the receipt ingestion contract.
type ReceiptService interface {
	UploadReceipt(ctx context.Context, input *UploadReceiptInput) (*ReceiptUploadResult, error)
	ConfirmReceipt(ctx context.Context, input *ConfirmReceiptInput) (*ConfirmReceiptResult, error)
	GetUserReceipts(ctx context.Context, userID uuid.UUID) ([]domain.Receipt, error)
	GetReceiptDetails(ctx context.Context, receiptID, userID uuid.UUID) (*ReceiptDetails, error)
	ExportUserReceipts(ctx context.Context, userID uuid.UUID, w io.Writer) error
	RefreshCatalog(ctx context.Context) (int, error)
}

type receiptService struct {
	store     port.ReceiptStore
	stock     port.StockWriter
	analyzer  ReceiptAnalyzer
	suggester ProductSuggester
	storage   port.ObjectStorage // nil disables the image archive
	validate  *govalidator.Validate
	cfg       *config.Config
	log       *zap.Logger
}

// NewReceiptService creates a new ReceiptService implementation.
func NewReceiptService(
	store port.ReceiptStore,
	stock port.StockWriter,
	analyzer ReceiptAnalyzer,
	suggester ProductSuggester,
	storage port.ObjectStorage,
	cfg *config.Config,
	log *zap.Logger,
) ReceiptService {
	return &receiptService{
		store:     store,
		stock:     stock,
		analyzer:  analyzer,
		suggester: suggester,
		storage:   storage,
		validate:  govalidator.New(),
		cfg:       cfg,
		log:       log,
	}
}

func (s *receiptService) UploadReceipt(ctx context.Context, input *UploadReceiptInput) (*ReceiptUploadResult, error) {
	format, err := vision.ValidateImage(input.Image, s.cfg.Vision.MaxImageBytes())
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	receipt := &domain.Receipt{
		ID:          uuid.New(),
		UserID:      input.UserID,
		HouseholdID: input.HouseholdID,
		Status:      domain.ReceiptStatusProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Save(ctx, receipt); err != nil {
		return nil, fmt.Errorf("receiptService.UploadReceipt: creating receipt: %w", err)
	}

	s.archiveImage(ctx, receipt, format, input.Image)

	analysis, err := s.analyzer.Analyze(ctx, input.Image)
	if err != nil {
		s.markFailed(ctx, receipt, err)
		if errors.Is(err, domain.ErrImageValidation) {
			s.discardImage(ctx, receipt)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("receiptService.UploadReceipt: %w", err)
	}

	applyAnalysis(receipt, analysis)
	next := domain.ReceiptStatusPending
	if analysis.OCR.AllFailed || analysis.Confidence < s.cfg.Pipeline.ReviewThreshold {
		next = domain.ReceiptStatusReview
	}
	if err := receipt.AdvanceTo(next); err != nil {
		s.markFailed(ctx, receipt, err)
		return nil, fmt.Errorf("receiptService.UploadReceipt: %w", err)
	}
	receipt.UpdatedAt = time.Now().UTC()

	if err := s.store.Save(ctx, receipt); err != nil {
		// pending and review may both still move to error.
		s.markFailed(ctx, receipt, err)
		return nil, fmt.Errorf("receiptService.UploadReceipt: saving parsed receipt: %w", err)
	}

	perItem, suggested := s.suggester.Suggest(ctx, receipt.Items)
	itemSuggestions := make(map[uuid.UUID][]domain.ProductSuggestion)
	for i, list := range perItem {
		if len(list) > 0 && i < len(receipt.Items) {
			itemSuggestions[receipt.Items[i].ID] = list
		}
	}

	s.log.Info("receiptService.UploadReceipt: receipt processed",
		zap.String("receipt_id", receipt.ID.String()),
		zap.String("user_id", input.UserID.String()),
		zap.String("status", string(receipt.Status)),
		zap.Int("items", len(receipt.Items)),
		zap.Int("suggestions", len(suggested)))

	return &ReceiptUploadResult{
		ReceiptID:         receipt.ID,
		StoreName:         receipt.StoreName,
		ReceiptDate:       receipt.ReceiptDate,
		TotalAmount:       receipt.TotalAmount,
		Confidence:        receipt.ParsingConfidence,
		Status:            receipt.Status,
		Items:             receipt.Items,
		SuggestedProducts: suggested,
		ItemSuggestions:   itemSuggestions,
	}, nil
}

// applyAnalysis copies the pipeline output onto the receipt and gives each
// item its identity.
func applyAnalysis(receipt *domain.Receipt, a *Analysis) {
	receipt.StoreName = a.StoreName
	receipt.StoreAddress = a.StoreAddress
	receipt.ReceiptDate = a.ReceiptDate
	receipt.TotalAmount = a.DeclaredTotal
	receipt.RawText = a.RawText()
	receipt.OCRConfidence = a.OCR.Result.Confidence
	receipt.ParsingConfidence = a.Confidence
	receipt.ImageQuality = a.Quality.Score
	receipt.ParserUsed = a.ParserID

	receipt.Items = make([]domain.ReceiptItem, len(a.Items))
	for i := range a.Items {
		item := a.Items[i]
		item.ID = uuid.New()
		item.ReceiptID = receipt.ID
		receipt.Items[i] = item
	}
}

func (s *receiptService) archiveImage(ctx context.Context, receipt *domain.Receipt, format vision.Format, image []byte) {
	if s.storage == nil {
		return
	}
	key := fmt.Sprintf("users/%s/receipts/%s.%s", receipt.UserID, receipt.ID, format)
	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.S3.Bucket,
		Key:         key,
		Body:        bytes.NewReader(image),
		ContentType: format.ContentType(),
		Size:        int64(len(image)),
	})
	if err != nil {
		s.log.Warn("receiptService.archiveImage: upload failed",
			zap.String("receipt_id", receipt.ID.String()),
			zap.Error(fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)))
		return
	}
	receipt.ImageKey = key
}

// discardImage removes an archived image the pipeline could not read.
func (s *receiptService) discardImage(ctx context.Context, receipt *domain.Receipt) {
	if s.storage == nil || receipt.ImageKey == "" {
		return
	}
	if err := s.storage.Delete(ctx, s.cfg.S3.Bucket, receipt.ImageKey); err != nil {
		s.log.Warn("receiptService.discardImage: delete failed",
			zap.String("key", receipt.ImageKey), zap.Error(err))
	}
}

// markFailed records a failed analysis. It uses a context detached from
// the caller's so a cancelled upload still leaves no processing row behind.
func (s *receiptService) markFailed(ctx context.Context, receipt *domain.Receipt, cause error) {
	if err := receipt.AdvanceTo(domain.ReceiptStatusError); err != nil {
		return
	}
	receipt.UpdatedAt = time.Now().UTC()

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.store.Save(saveCtx, receipt); err != nil {
		s.log.Error("receiptService.markFailed: could not record failure",
			zap.String("receipt_id", receipt.ID.String()), zap.Error(err))
	}
	s.log.Warn("receiptService.UploadReceipt: receipt marked as failed",
		zap.String("receipt_id", receipt.ID.String()), zap.Error(cause))
}

func (s *receiptService) ConfirmReceipt(ctx context.Context, input *ConfirmReceiptInput) (*ConfirmReceiptResult, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfirmation, err)
	}

	receipt, err := s.store.FindByID(ctx, input.ReceiptID, input.UserID)
	if err != nil {
		return nil, err
	}
	switch receipt.Status {
	case domain.ReceiptStatusConfirmed:
		return nil, domain.ErrReceiptAlreadyConfirmed
	case domain.ReceiptStatusPending, domain.ReceiptStatusReview:
	default:
		return nil, domain.ErrReceiptNotConfirmable
	}

	// Every decision is checked before the first stock write.
	for i := range input.ConfirmedItems {
		ci := &input.ConfirmedItems[i]
		if receipt.ItemByID(ci.ReceiptItemID) == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrReceiptItemNotFound, ci.ReceiptItemID)
		}
		if !ci.Confirmed {
			continue
		}
		if ci.ProductID == nil || *ci.ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfirmationMissingProduct, ci.ReceiptItemID)
		}
		if ci.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive for item %s", domain.ErrInvalidConfirmation, ci.ReceiptItemID)
		}
	}

	now := time.Now().UTC()
	confirmed := 0
	for i := range input.ConfirmedItems {
		ci := &input.ConfirmedItems[i]
		if !ci.Confirmed {
			continue
		}
		item := receipt.ItemByID(ci.ReceiptItemID)

		entry := &domain.StockEntry{
			ID:              uuid.New(),
			UserID:          input.UserID,
			ProductID:       *ci.ProductID,
			Quantity:        ci.Quantity,
			Unit:            stockUnit(item.Unit),
			ExpirationDate:  ci.ExpirationDate,
			SourceReceiptID: receipt.ID,
			ReceiptItemID:   item.ID,
			CreatedAt:       now,
		}
		if err := s.stock.Add(ctx, entry); err != nil {
			s.log.Error("receiptService.ConfirmReceipt: stock write failed",
				zap.String("receipt_id", receipt.ID.String()),
				zap.Int("written", confirmed), zap.Error(err))
			return &ConfirmReceiptResult{ConfirmedCount: confirmed},
				fmt.Errorf("receiptService.ConfirmReceipt: %d of %d stock entries written: %w",
					confirmed, countConfirmed(input.ConfirmedItems), err)
		}
		confirmed++

		productID := *ci.ProductID
		qty := ci.Quantity
		item.ConfirmedProductID = &productID
		item.ConfirmedQuantity = &qty
		if ci.UnitPrice != nil {
			price := *ci.UnitPrice
			item.UnitPrice = &price
		}
	}

	if err := receipt.AdvanceTo(domain.ReceiptStatusConfirmed); err != nil {
		return nil, err
	}
	receipt.ConfirmedAt = &now
	receipt.UpdatedAt = now
	if err := s.store.Save(ctx, receipt); err != nil {
		return &ConfirmReceiptResult{ConfirmedCount: confirmed},
			fmt.Errorf("receiptService.ConfirmReceipt: saving receipt: %w", err)
	}

	s.log.Info("receiptService.ConfirmReceipt: receipt confirmed",
		zap.String("receipt_id", receipt.ID.String()),
		zap.Int("confirmed", confirmed))

	return &ConfirmReceiptResult{ConfirmedCount: confirmed}, nil
}

// stockUnit maps an item unit onto the unit stock is counted in.
func stockUnit(u domain.Unit) domain.Unit {
	if u == domain.UnitNone || u == "" {
		return domain.UnitPiece
	}
	return u
}

func countConfirmed(items []ConfirmedItemInput) int {
	n := 0
	for i := range items {
		if items[i].Confirmed {
			n++
		}
	}
	return n
}

func (s *receiptService) GetUserReceipts(ctx context.Context, userID uuid.UUID) ([]domain.Receipt, error) {
	return s.store.FindByUser(ctx, userID)
}

func (s *receiptService) GetReceiptDetails(ctx context.Context, receiptID, userID uuid.UUID) (*ReceiptDetails, error) {
	receipt, err := s.store.FindByID(ctx, receiptID, userID)
	if err != nil {
		return nil, err
	}

	details := &ReceiptDetails{Receipt: receipt}
	if s.storage == nil || receipt.ImageKey == "" {
		return details, nil
	}
	url, err := s.storage.GetPresignedURL(ctx, s.cfg.S3.Bucket, receipt.ImageKey, imageURLExpirySeconds)
	if err != nil {
		s.log.Warn("receiptService.GetReceiptDetails: presign failed",
			zap.String("receipt_id", receipt.ID.String()), zap.Error(err))
		return details, nil
	}
	details.ImageURL = url
	return details, nil
}

func (s *receiptService) ExportUserReceipts(ctx context.Context, userID uuid.UUID, w io.Writer) error {
	receipts, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("receiptService.ExportUserReceipts: %w", err)
	}

	xw, err := export.NewWriter()
	if err != nil {
		return fmt.Errorf("receiptService.ExportUserReceipts: %w", err)
	}
	defer xw.Close()

	if err := xw.WriteHeader(); err != nil {
		return fmt.Errorf("receiptService.ExportUserReceipts: %w", err)
	}
	if err := xw.WriteReceipts(receipts); err != nil {
		return fmt.Errorf("receiptService.ExportUserReceipts: %w", err)
	}
	if _, err := xw.WriteTo(w); err != nil {
		return fmt.Errorf("receiptService.ExportUserReceipts: writing workbook: %w", err)
	}
	return nil
}

func (s *receiptService) RefreshCatalog(ctx context.Context) (int, error) {
	if err := s.suggester.Refresh(ctx); err != nil {
		return 0, fmt.Errorf("receiptService.RefreshCatalog: %w", err)
	}
	n := s.suggester.Size()
	s.log.Info("receiptService.RefreshCatalog: index rebuilt", zap.Int("products", n))
	return n, nil
}
