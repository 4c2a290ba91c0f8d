// Package validator checks receipt items for price and quantity
// consistency, folds discount lines into the items they apply to and
// scores the receipt as a whole.
package validator

import (
	"frigo/internal/domain"
)

// Validator is a single built-in item consistency rule.
type Validator interface {
	Validate(item *domain.ReceiptItem) ValidationResult
	RuleKey() string
	RuleName() string
}

// ValidationResult is the outcome of one rule on one item. A failed rule
// caps the item's confidence at ConfidenceCap.
type ValidationResult struct {
	Passed        bool
	FieldPath     string
	ExpectedValue string
	ActualValue   string
	Message       string
	ConfidenceCap float64
}
