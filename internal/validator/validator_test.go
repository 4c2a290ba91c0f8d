package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"frigo/internal/domain"
	"frigo/internal/validator"
)

func ptr(f float64) *float64 { return &f }

func item(name string, qty float64, unitPrice *float64, total, conf float64) domain.ReceiptItem {
	return domain.ReceiptItem{
		Name: name, Quantity: qty, Unit: domain.UnitPiece,
		UnitPrice: unitPrice, TotalPrice: total, Confidence: conf,
	}
}

func TestItemValidators(t *testing.T) {
	reg := validator.NewDefaultRegistry()
	unitTotal := reg.Get("price.unit_total")
	priceRange := reg.Get("price.range")
	require.NotNil(t, unitTotal)
	require.NotNil(t, priceRange)

	t.Run("consistent unit price", func(t *testing.T) {
		it := item("Coca", 2, ptr(1.50), 3.00, 0.85)
		assert.True(t, unitTotal.Validate(&it).Passed)
	})

	t.Run("within ten percent", func(t *testing.T) {
		it := item("Coca", 2, ptr(1.50), 3.25, 0.85)
		assert.True(t, unitTotal.Validate(&it).Passed)
	})

	t.Run("unit price mismatch", func(t *testing.T) {
		it := item("Coca", 2, ptr(1.50), 4.00, 0.85)
		res := unitTotal.Validate(&it)
		assert.False(t, res.Passed)
		assert.Equal(t, 0.6, res.ConfidenceCap)
		assert.Equal(t, "3.00", res.ExpectedValue)
		assert.Equal(t, "4.00", res.ActualValue)
	})

	t.Run("discount accounted for", func(t *testing.T) {
		it := item("Yaourt Nature", 1, ptr(1.80), 1.30, 0.8)
		it.Discount = ptr(0.50)
		assert.True(t, unitTotal.Validate(&it).Passed)
	})

	t.Run("no unit price", func(t *testing.T) {
		it := item("Pain", 1, nil, 1.20, 0.8)
		assert.True(t, unitTotal.Validate(&it).Passed)
	})

	t.Run("too expensive", func(t *testing.T) {
		it := item("Tele", 1, nil, 1200, 0.8)
		res := priceRange.Validate(&it)
		assert.False(t, res.Passed)
		assert.Equal(t, 0.3, res.ConfidenceCap)
	})

	t.Run("too cheap", func(t *testing.T) {
		it := item("Sac", 1, nil, 0, 0.8)
		res := priceRange.Validate(&it)
		assert.False(t, res.Passed)
		assert.Equal(t, 0.4, res.ConfidenceCap)
	})

	t.Run("tagged discount is not too cheap", func(t *testing.T) {
		it := item("Yaourt "+domain.DiscountTag, 1, nil, -0.50, 0.8)
		assert.True(t, priceRange.Validate(&it).Passed)
	})

	t.Run("untagged negative is too cheap", func(t *testing.T) {
		it := item("Yaourt", 1, nil, -0.50, 0.8)
		assert.False(t, priceRange.Validate(&it).Passed)
	})
}

func TestRegistry_Order(t *testing.T) {
	reg := validator.NewDefaultRegistry()
	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "price.unit_total", all[0].RuleKey())
	assert.Equal(t, "price.range", all[1].RuleKey())
	assert.Nil(t, reg.Get("missing"))
}

func TestMergeDiscounts(t *testing.T) {
	t.Run("discount before its item", func(t *testing.T) {
		items := []domain.ReceiptItem{
			item("Yaourt "+domain.DiscountTag, 1, nil, -0.50, 0.85),
			item("Yaourt Nature", 1, ptr(1.80), 1.80, 0.85),
		}
		out := validator.MergeDiscounts(items)
		require.Len(t, out, 1)
		assert.Equal(t, "Yaourt Nature", out[0].Name)
		assert.InDelta(t, 1.30, out[0].TotalPrice, 0.0001)
		require.NotNil(t, out[0].Discount)
		assert.InDelta(t, 0.50, *out[0].Discount, 0.0001)

		assert.Len(t, items, 2, "input must not be mutated")
		assert.InDelta(t, 1.80, items[1].TotalPrice, 0.0001)
	})

	t.Run("last matching item wins", func(t *testing.T) {
		items := []domain.ReceiptItem{
			item("Yaourt Fraise", 1, nil, 2.00, 0.85),
			item("Yaourt Nature", 1, nil, 1.80, 0.85),
			item("Yaourt "+domain.DiscountTag, 1, nil, -0.30, 0.85),
		}
		out := validator.MergeDiscounts(items)
		require.Len(t, out, 2)
		assert.InDelta(t, 2.00, out[0].TotalPrice, 0.0001)
		assert.Nil(t, out[0].Discount)
		assert.InDelta(t, 1.50, out[1].TotalPrice, 0.0001)
	})

	t.Run("accents ignored", func(t *testing.T) {
		items := []domain.ReceiptItem{
			item("Crème Fraîche", 1, nil, 2.10, 0.85),
			item("CREME "+domain.DiscountTag, 1, nil, -0.40, 0.85),
		}
		out := validator.MergeDiscounts(items)
		require.Len(t, out, 1)
		assert.InDelta(t, 1.70, out[0].TotalPrice, 0.0001)
	})

	t.Run("unmatched discount kept", func(t *testing.T) {
		items := []domain.ReceiptItem{
			item("Pain", 1, nil, 1.20, 0.85),
			item("Remise Fidelite "+domain.DiscountTag, 1, nil, -1.00, 0.85),
		}
		out := validator.MergeDiscounts(items)
		assert.Len(t, out, 2)
	})

	t.Run("idempotent", func(t *testing.T) {
		items := []domain.ReceiptItem{
			item("Yaourt "+domain.DiscountTag, 1, nil, -0.50, 0.85),
			item("Yaourt Nature", 1, nil, 1.80, 0.85),
			item("Remise "+domain.DiscountTag, 1, nil, -1.00, 0.85),
		}
		once := validator.MergeDiscounts(items)
		twice := validator.MergeDiscounts(once)
		assert.Equal(t, once, twice)
	})
}

func TestReceiptConfidence(t *testing.T) {
	items := []domain.ReceiptItem{item("Poulet", 1, ptr(5.99), 5.99, 0.85)}

	t.Run("exact total earns the full bonus", func(t *testing.T) {
		conf := validator.ReceiptConfidence(0.9, items, ptr(5.99), domain.ParserCarrefour)
		assert.InDelta(t, 0.9*0.35+0.85*0.35+0.3, conf, 0.0001)
	})

	t.Run("bonus tiers", func(t *testing.T) {
		base := 0.9*0.35 + 0.85*0.35
		assert.InDelta(t, base+0.2, validator.ReceiptConfidence(0.9, items, ptr(6.20), domain.ParserCarrefour), 0.0001)
		assert.InDelta(t, base+0.1, validator.ReceiptConfidence(0.9, items, ptr(6.80), domain.ParserCarrefour), 0.0001)
		assert.InDelta(t, base, validator.ReceiptConfidence(0.9, items, ptr(20), domain.ParserCarrefour), 0.0001)
		assert.InDelta(t, base, validator.ReceiptConfidence(0.9, items, nil, domain.ParserCarrefour), 0.0001)
	})

	t.Run("generic parser is capped", func(t *testing.T) {
		high := []domain.ReceiptItem{item("Pain", 1, nil, 1.20, 1)}
		conf := validator.ReceiptConfidence(1, high, ptr(1.20), domain.ParserGeneric)
		assert.InDelta(t, 0.85, conf, 0.0001)
	})

	t.Run("no items", func(t *testing.T) {
		assert.LessOrEqual(t, validator.ReceiptConfidence(1, nil, ptr(5), domain.ParserCarrefour), 0.1)
		assert.Equal(t, 0.0, validator.ReceiptConfidence(0, nil, nil, domain.ParserGeneric))
	})

	t.Run("bounded", func(t *testing.T) {
		wild := []domain.ReceiptItem{item("X", 1, nil, 5, 7)}
		conf := validator.ReceiptConfidence(3, wild, ptr(5), domain.ParserLeclerc)
		assert.LessOrEqual(t, conf, 1.0)
		assert.GreaterOrEqual(t, conf, 0.0)
	})
}

func TestConsistencyValidator_Validate(t *testing.T) {
	v := validator.NewConsistencyValidator(validator.NewDefaultRegistry(), zap.NewNop())

	in := validator.Input{
		Items: []domain.ReceiptItem{
			{Name: "Yaourt " + domain.DiscountTag, Quantity: 1, TotalPrice: -0.50, Confidence: 0.85, LineNumber: 2},
			{Name: "Yaourt Nature", Quantity: 1, UnitPrice: ptr(1.80), TotalPrice: 1.80, Confidence: 0.85, LineNumber: 3},
			{Name: "Coca", Quantity: 2, UnitPrice: ptr(1.50), TotalPrice: 4.50, Confidence: 0.85, LineNumber: 4},
		},
		DeclaredTotal: ptr(5.80),
		OCRConfidence: 0.8,
		ParserID:      domain.ParserCarrefour,
	}

	out := v.Validate(in)
	require.Len(t, out.Items, 2)
	assert.InDelta(t, 1.30, out.Items[0].TotalPrice, 0.0001)
	assert.InDelta(t, 0.85, out.Items[0].Confidence, 0.0001)
	assert.InDelta(t, 0.6, out.Items[1].Confidence, 0.0001)

	require.Len(t, out.Failures, 1)
	assert.Equal(t, "price.unit_total", out.Failures[0].RuleKey)
	assert.Equal(t, 4, out.Failures[0].LineNumber)

	mean := (0.85 + 0.6) / 2
	assert.InDelta(t, 0.8*0.35+mean*0.35+0.3, out.Confidence, 0.0001)
}
