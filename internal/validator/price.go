package validator

import (
	"fmt"
	"math"

	"frigo/internal/domain"
)

const (
	relativeTolerance = 0.10
	maxItemPrice      = 1000.0
	minItemPrice      = 0.01

	unitTotalCap    = 0.6
	tooExpensiveCap = 0.3
	tooCheapCap     = 0.4
	fieldTotal      = "total_price"
	fieldUnitCalc   = "unit_price*quantity"
)

// priceValidator checks an item's price fields.
type priceValidator struct {
	ruleKey  string
	ruleName string
	validate func(*domain.ReceiptItem) ValidationResult
}

func (v *priceValidator) RuleKey() string  { return v.ruleKey }
func (v *priceValidator) RuleName() string { return v.ruleName }

func (v *priceValidator) Validate(item *domain.ReceiptItem) ValidationResult {
	return v.validate(item)
}

// approxRelEqual reports whether a and b differ by at most the relative
// tolerance of b.
func approxRelEqual(a, b float64) bool {
	if b == 0 {
		return a == 0
	}
	return math.Abs(a-b)/math.Abs(b) <= relativeTolerance
}

func priceResult(passed bool, fieldPath, expected, actual, ruleName string, limit float64) ValidationResult {
	msg := fmt.Sprintf("%s: %s consistent", ruleName, fieldPath)
	if !passed {
		msg = fmt.Sprintf("%s: %s inconsistent (expected %s, got %s)", ruleName, fieldPath, expected, actual)
	}
	return ValidationResult{
		Passed: passed, FieldPath: fieldPath,
		ExpectedValue: expected, ActualValue: actual, Message: msg,
		ConfidenceCap: limit,
	}
}

func fmtf(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// IsDiscount reports whether item is a tagged discount line.
func IsDiscount(item *domain.ReceiptItem) bool {
	return item.TotalPrice < 0 && hasDiscountTag(item.Name)
}

// ItemValidators returns the built-in item rules.
func ItemValidators() []*priceValidator {
	return []*priceValidator{
		{
			ruleKey: "price.unit_total", ruleName: "Price: Unit Price x Quantity",
			validate: func(item *domain.ReceiptItem) ValidationResult {
				if item.UnitPrice == nil || item.Quantity <= 0 || IsDiscount(item) {
					return priceResult(true, fieldUnitCalc, "", "", "Price: Unit Price x Quantity", 1)
				}
				var discount float64
				if item.Discount != nil {
					discount = *item.Discount
				}
				expected := *item.UnitPrice*item.Quantity - discount
				passed := approxRelEqual(expected, item.TotalPrice)
				return priceResult(passed, fieldUnitCalc, fmtf(expected), fmtf(item.TotalPrice), "Price: Unit Price x Quantity", unitTotalCap)
			},
		},
		{
			ruleKey: "price.range", ruleName: "Price: Plausible Range",
			validate: func(item *domain.ReceiptItem) ValidationResult {
				switch {
				case item.TotalPrice > maxItemPrice:
					return priceResult(false, fieldTotal, "<= "+fmtf(maxItemPrice), fmtf(item.TotalPrice), "Price: Plausible Range", tooExpensiveCap)
				case item.TotalPrice < minItemPrice && !IsDiscount(item):
					return priceResult(false, fieldTotal, ">= "+fmtf(minItemPrice), fmtf(item.TotalPrice), "Price: Plausible Range", tooCheapCap)
				}
				return priceResult(true, fieldTotal, "", fmtf(item.TotalPrice), "Price: Plausible Range", 1)
			},
		},
	}
}
