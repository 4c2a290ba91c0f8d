package validator

import (
	"math"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"frigo/internal/domain"
)

const (
	ocrWeight  = 0.35
	itemWeight = 0.35

	// genericMaxConfidence bounds receipts read by the store-agnostic parser.
	genericMaxConfidence = 0.85
	emptyMaxConfidence   = 0.1
)

// totalBonusTiers award a bonus by the relative gap between the sum of the
// item totals and the printed total.
var totalBonusTiers = []struct {
	maxDiff float64
	bonus   float64
}{
	{0.01, 0.3},
	{0.05, 0.2},
	{0.15, 0.1},
}

// Input is a parsed receipt ready for consistency checks.
type Input struct {
	Items         []domain.ReceiptItem
	DeclaredTotal *float64
	OCRConfidence float64
	ParserID      domain.ParserID
}

// ItemResult is a failed rule on one item.
type ItemResult struct {
	LineNumber int
	RuleKey    string
	ValidationResult
}

// Output is the checked receipt.
type Output struct {
	Items      []domain.ReceiptItem
	Confidence float64
	Failures   []ItemResult
}

// ConsistencyValidator runs the item rules and computes receipt confidence.
type ConsistencyValidator struct {
	registry *Registry
	log      *zap.Logger
}

// NewConsistencyValidator creates a validator over the given rules.
func NewConsistencyValidator(registry *Registry, log *zap.Logger) *ConsistencyValidator {
	return &ConsistencyValidator{registry: registry, log: log}
}

// Validate merges discounts, caps the confidence of inconsistent items and
// scores the receipt. Items are copied; the input is not modified.
func (v *ConsistencyValidator) Validate(in Input) Output {
	items := MergeDiscounts(in.Items)
	var failures []ItemResult

	for i := range items {
		item := &items[i]
		for _, rule := range v.registry.All() {
			res := rule.Validate(item)
			if res.Passed {
				continue
			}
			item.Confidence = math.Min(item.Confidence, res.ConfidenceCap)
			failures = append(failures, ItemResult{
				LineNumber:       item.LineNumber,
				RuleKey:          rule.RuleKey(),
				ValidationResult: res,
			})
		}
		item.Confidence = clamp01(item.Confidence)
	}

	if len(failures) > 0 {
		v.log.Debug("validator.Validate: item rules failed", zap.Int("count", len(failures)))
	}

	return Output{
		Items:      items,
		Confidence: ReceiptConfidence(in.OCRConfidence, items, in.DeclaredTotal, in.ParserID),
		Failures:   failures,
	}
}

// ReceiptConfidence combines OCR confidence, mean item confidence and the
// agreement between the item totals and the printed total.
func ReceiptConfidence(ocrConfidence float64, items []domain.ReceiptItem, declaredTotal *float64, parserID domain.ParserID) float64 {
	ocrConfidence = clamp01(ocrConfidence)
	if len(items) == 0 {
		return math.Min(emptyMaxConfidence, ocrConfidence*emptyMaxConfidence)
	}

	var confSum float64
	sum := decimal.Zero
	for i := range items {
		confSum += clamp01(items[i].Confidence)
		sum = sum.Add(decimal.NewFromFloat(items[i].TotalPrice))
	}
	mean := confSum / float64(len(items))

	conf := ocrConfidence*ocrWeight + mean*itemWeight + totalBonus(sum, declaredTotal)
	conf = clamp01(conf)
	if parserID == domain.ParserGeneric {
		conf = math.Min(conf, genericMaxConfidence)
	}
	return conf
}

func totalBonus(sum decimal.Decimal, declared *float64) float64 {
	if declared == nil || *declared <= 0 {
		return 0
	}
	d := decimal.NewFromFloat(*declared)
	diff, _ := sum.Sub(d).Abs().Div(d).Float64()
	for _, tier := range totalBonusTiers {
		if diff < tier.maxDiff {
			return tier.bonus
		}
	}
	return 0
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
