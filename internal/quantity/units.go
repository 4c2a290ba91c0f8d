package quantity

import (
	"strings"

	"github.com/shopspring/decimal"

	"frigo/internal/domain"
)

// unitSynonym maps a lowercased unit token to its canonical unit and the
// factor applied to the numeric value (centiliters become milliliters).
type unitSynonym struct {
	unit   domain.Unit
	factor int64
}

var unitSynonyms = map[string]unitSynonym{
	"kg": {domain.UnitKilogram, 1}, "kgs": {domain.UnitKilogram, 1}, "kilo": {domain.UnitKilogram, 1},
	"kilos": {domain.UnitKilogram, 1}, "kilogramme": {domain.UnitKilogram, 1},
	"kilogrammes": {domain.UnitKilogram, 1}, "kilogram": {domain.UnitKilogram, 1},
	"kilograms": {domain.UnitKilogram, 1},

	"g": {domain.UnitGram, 1}, "gr": {domain.UnitGram, 1}, "grs": {domain.UnitGram, 1},
	"gramme": {domain.UnitGram, 1}, "grammes": {domain.UnitGram, 1}, "gram": {domain.UnitGram, 1},
	"grams": {domain.UnitGram, 1},

	"l": {domain.UnitLiter, 1}, "lt": {domain.UnitLiter, 1}, "ltr": {domain.UnitLiter, 1},
	"litre": {domain.UnitLiter, 1}, "litres": {domain.UnitLiter, 1}, "liter": {domain.UnitLiter, 1},
	"liters": {domain.UnitLiter, 1},

	"ml": {domain.UnitMilliliter, 1}, "millilitre": {domain.UnitMilliliter, 1},
	"millilitres": {domain.UnitMilliliter, 1}, "milliliter": {domain.UnitMilliliter, 1},
	"milliliters": {domain.UnitMilliliter, 1},

	"cl": {domain.UnitMilliliter, 10}, "centilitre": {domain.UnitMilliliter, 10},
	"centilitres": {domain.UnitMilliliter, 10}, "centiliter": {domain.UnitMilliliter, 10},
	"centiliters": {domain.UnitMilliliter, 10},

	"u": {domain.UnitPiece, 1}, "pc": {domain.UnitPiece, 1}, "pcs": {domain.UnitPiece, 1},
	"pce": {domain.UnitPiece, 1}, "pces": {domain.UnitPiece, 1}, "piece": {domain.UnitPiece, 1},
	"pieces": {domain.UnitPiece, 1}, "pièce": {domain.UnitPiece, 1}, "pièces": {domain.UnitPiece, 1},
	"unite": {domain.UnitPiece, 1}, "unites": {domain.UnitPiece, 1}, "unité": {domain.UnitPiece, 1},
	"unités": {domain.UnitPiece, 1}, "unit": {domain.UnitPiece, 1}, "units": {domain.UnitPiece, 1},
}

func lookupUnit(token string) (unitSynonym, bool) {
	token = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(token)), ".")
	syn, ok := unitSynonyms[token]
	return syn, ok
}

// NormalizeUnit maps a raw unit token to the canonical vocabulary. Unknown
// tokens map to domain.UnitNone.
func NormalizeUnit(token string) domain.Unit {
	if syn, ok := lookupUnit(token); ok {
		return syn.unit
	}
	return domain.UnitNone
}

// ToBase converts mass to grams and volume to milliliters. Other units are
// returned unchanged.
func ToBase(v Value) Value {
	switch v.Unit {
	case domain.UnitKilogram:
		return Value{Amount: mul(v.Amount, 1000), Unit: domain.UnitGram}
	case domain.UnitLiter:
		return Value{Amount: mul(v.Amount, 1000), Unit: domain.UnitMilliliter}
	default:
		return v
	}
}

func mul(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Round(3).Float64()
	return f
}
