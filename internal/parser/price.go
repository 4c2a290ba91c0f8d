package parser

import (
	"strings"

	"github.com/shopspring/decimal"
)

// priceToken matches a printed amount, tolerating the letter O read in
// place of a zero. Amounts always carry two decimals on French receipts.
const priceToken = `-?\s?\d[\dOo]*[.,][\dOo]{2}`

// ocrDigitFixes maps letters commonly confused with digits by OCR.
var ocrDigitFixes = strings.NewReplacer(
	"O", "0", "o", "0",
	"l", "1", "I", "1",
	"S", "5", "B", "8",
)

// ParsePrice parses a printed amount such as "5,13", "1o.99" or "-0,50 €",
// rounding to cents. ok is false when s holds no digit.
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "EUR"), "€")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if !strings.ContainsAny(s, "0123456789") {
		return 0, false
	}

	s = ocrDigitFixes.Replace(s)
	s = strings.Replace(s, ",", ".", 1)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	f, _ := d.Round(2).Float64()
	return f, true
}
