package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"frigo/internal/config"
	"frigo/internal/domain"
	"frigo/internal/normalize"
	"frigo/internal/ocr"
	"frigo/internal/parser"
	"frigo/internal/validator"
	"frigo/internal/vision"
)

// Analysis is the structured result of reading one receipt image.
type Analysis struct {
	Format        vision.Format
	Quality       vision.QualityReport
	OCR           ocr.Selection
	ParserID      domain.ParserID
	ParserScore   float64
	StoreName     string
	StoreAddress  *string
	ReceiptDate   *time.Time
	DeclaredTotal *float64
	Items         []domain.ReceiptItem
	Confidence    float64
	Failures      []validator.ItemResult
}

// RawText is the OCR text the items were parsed from.
func (a *Analysis) RawText() string {
	return a.OCR.Result.Text
}

// ReceiptPipeline turns image bytes into scored receipt items. It holds no
// per-request state and is safe for concurrent use.
type ReceiptPipeline struct {
	vision       config.VisionConfig
	preprocessor *vision.Preprocessor
	orchestrator *ocr.Orchestrator
	selector     *parser.Selector
	normalizer   *normalize.Normalizer
	validator    *validator.ConsistencyValidator
	log          *zap.Logger
}

// NewReceiptPipeline wires the pipeline stages.
func NewReceiptPipeline(
	cfg *config.VisionConfig,
	preprocessor *vision.Preprocessor,
	orchestrator *ocr.Orchestrator,
	selector *parser.Selector,
	normalizer *normalize.Normalizer,
	consistency *validator.ConsistencyValidator,
	log *zap.Logger,
) *ReceiptPipeline {
	return &ReceiptPipeline{
		vision:       *cfg,
		preprocessor: preprocessor,
		orchestrator: orchestrator,
		selector:     selector,
		normalizer:   normalizer,
		validator:    consistency,
		log:          log,
	}
}

// Analyze validates the image, then runs quality analysis alongside
// preprocessing and OCR before parsing, normalizing and checking the items.
// An invalid image fails with a *domain.ImageValidationError before any OCR
// work; a cancelled ctx fails with ctx.Err() and no partial result.
func (p *ReceiptPipeline) Analyze(ctx context.Context, image []byte) (*Analysis, error) {
	format, err := vision.ValidateImage(image, p.vision.MaxImageBytes())
	if err != nil {
		return nil, err
	}

	var (
		quality   vision.QualityReport
		selection *ocr.Selection
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		quality = vision.AnalyzeQuality(image, p.vision.ReferencePixels)
		return nil
	})
	g.Go(func() error {
		variants, err := p.preprocessor.Variants(image)
		if err != nil {
			return domain.NewImageValidationError(domain.ImageCorrupt, err.Error())
		}
		selection, err = p.orchestrator.Recognize(gctx, variants)
		return err
	})
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var ive *domain.ImageValidationError
		if errors.As(err, &ive) {
			return nil, err
		}
		return nil, fmt.Errorf("receiptPipeline.Analyze: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := p.normalizer.SplitLines(selection.Result.Text)
	chosen := p.selector.Select(text)
	parsed := chosen.Parser.Parse(text, selection.Result.Confidence)
	items := p.normalizer.NormalizeItems(parsed.Items)

	checked := p.validator.Validate(validator.Input{
		Items:         items,
		DeclaredTotal: parsed.Total,
		OCRConfidence: selection.Result.Confidence,
		ParserID:      parsed.ParserID,
	})

	p.log.Info("receiptPipeline.Analyze: receipt read",
		zap.String("parser", string(parsed.ParserID)),
		zap.String("variant", string(selection.Variant)),
		zap.Float64("ocr_confidence", selection.Result.Confidence),
		zap.Float64("image_quality", quality.Score),
		zap.Int("items", len(checked.Items)),
		zap.Float64("confidence", checked.Confidence))

	return &Analysis{
		Format:        format,
		Quality:       quality,
		OCR:           *selection,
		ParserID:      parsed.ParserID,
		ParserScore:   chosen.Score,
		StoreName:     parsed.StoreName,
		StoreAddress:  parsed.StoreAddress,
		ReceiptDate:   parsed.Date,
		DeclaredTotal: parsed.Total,
		Items:         checked.Items,
		Confidence:    checked.Confidence,
		Failures:      checked.Failures,
	}, nil
}
