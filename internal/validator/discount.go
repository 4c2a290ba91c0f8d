package validator

import (
	"strings"

	"github.com/shopspring/decimal"

	"frigo/internal/domain"
	"frigo/internal/normalize"
)

func hasDiscountTag(name string) bool {
	return strings.HasSuffix(strings.TrimSpace(name), domain.DiscountTag)
}

// discountBase returns the comparison key of the product a discount names.
func discountBase(name string) string {
	return normalize.FoldKey(strings.TrimSuffix(strings.TrimSpace(name), domain.DiscountTag))
}

// MergeDiscounts folds each tagged discount line into the nearest item,
// searching from the end of the list, whose folded name contains the
// discount's base name. The amount is recorded on the target and taken off
// its total; the discount line is dropped. A discount with no matching item
// is kept as is, so running MergeDiscounts again changes nothing.
func MergeDiscounts(items []domain.ReceiptItem) []domain.ReceiptItem {
	out := make([]domain.ReceiptItem, len(items))
	copy(out, items)

	drop := make(map[int]bool)
	for i := range out {
		if !IsDiscount(&out[i]) {
			continue
		}
		base := discountBase(out[i].Name)
		if base == "" {
			continue
		}
		target := -1
		for j := len(out) - 1; j >= 0; j-- {
			if j == i || drop[j] || IsDiscount(&out[j]) {
				continue
			}
			if strings.Contains(normalize.FoldKey(out[j].Name), base) {
				target = j
				break
			}
		}
		if target < 0 {
			continue
		}

		amount := decimal.NewFromFloat(out[i].TotalPrice).Abs()
		t := &out[target]
		prior := decimal.Zero
		if t.Discount != nil {
			prior = decimal.NewFromFloat(*t.Discount)
		}
		discount, _ := prior.Add(amount).Round(2).Float64()
		total, _ := decimal.NewFromFloat(t.TotalPrice).Sub(amount).Round(2).Float64()
		t.Discount = &discount
		t.TotalPrice = total
		drop[i] = true
	}

	if len(drop) == 0 {
		return out
	}
	kept := make([]domain.ReceiptItem, 0, len(out)-len(drop))
	for i := range out {
		if !drop[i] {
			kept = append(kept, out[i])
		}
	}
	return kept
}
