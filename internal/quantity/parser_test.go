package quantity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frigo/internal/domain"
	"frigo/internal/quantity"
)

func TestParsePackaging_Multipack(t *testing.T) {
	tests := []struct {
		in       string
		total    float64
		unit     domain.Unit
		packSize int
		unitSize float64
	}{
		{"4 x 250 ml", 1000, domain.UnitMilliliter, 4, 250},
		{"6 x 1 l", 6, domain.UnitLiter, 6, 1},
		{"6X1,5L", 9, domain.UnitLiter, 6, 1.5},
		{"6 x 33 cl", 1980, domain.UnitMilliliter, 6, 330},
		{"12 × 125 g", 1500, domain.UnitGram, 12, 125},
		{"lot de 4 x 125 g", 500, domain.UnitGram, 4, 125},
		{"pack de 6 bouteilles de 1 l", 6, domain.UnitLiter, 6, 1},
		{"8 canettes de 33 cl", 2640, domain.UnitMilliliter, 8, 330},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			info, ok := quantity.ParsePackaging(tt.in)
			require.True(t, ok)
			assert.True(t, info.IsMultipack)
			assert.InDelta(t, tt.total, info.TotalQuantity, 0.0001)
			assert.Equal(t, tt.unit, info.TotalUnit)
			require.NotNil(t, info.PackagingSize)
			require.NotNil(t, info.UnitSize)
			assert.Equal(t, tt.packSize, *info.PackagingSize)
			assert.InDelta(t, tt.unitSize, *info.UnitSize, 0.0001)
			assert.InDelta(t, float64(*info.PackagingSize)**info.UnitSize, info.TotalQuantity, 0.0001)
		})
	}
}

func TestParsePackaging_Simple(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		unit domain.Unit
	}{
		{"330ml", 330, domain.UnitMilliliter},
		{"1,5 kg", 1.5, domain.UnitKilogram},
		{"1.5 kg", 1.5, domain.UnitKilogram},
		{"75 cl", 750, domain.UnitMilliliter},
		{"500 grammes", 500, domain.UnitGram},
		{"2 Litres", 2, domain.UnitLiter},
		{"3 pièces", 3, domain.UnitPiece},
		{"10 pcs.", 10, domain.UnitPiece},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			info, ok := quantity.ParsePackaging(tt.in)
			require.True(t, ok)
			assert.False(t, info.IsMultipack)
			assert.InDelta(t, tt.want, info.TotalQuantity, 0.0001)
			assert.Equal(t, tt.unit, info.TotalUnit)
			assert.Nil(t, info.PackagingSize)
		})
	}
}

func TestParsePackaging_UnknownUnit(t *testing.T) {
	info, ok := quantity.ParsePackaging("12 zorglubs")
	require.True(t, ok)
	assert.Equal(t, domain.UnitNone, info.TotalUnit)
	assert.InDelta(t, 12.0, info.TotalQuantity, 0.0001)

	info, ok = quantity.ParsePackaging("330")
	require.True(t, ok)
	assert.Equal(t, domain.UnitNone, info.TotalUnit)
}

func TestParsePackaging_Unparseable(t *testing.T) {
	for _, in := range []string{"", "   ", "sans quantite", "kg"} {
		t.Run(in, func(t *testing.T) {
			_, ok := quantity.ParsePackaging(in)
			assert.False(t, ok)
		})
	}
}

func TestParse_ReturnsTotal(t *testing.T) {
	v, ok := quantity.Parse("6 x 1 l")
	require.True(t, ok)
	assert.Equal(t, quantity.Value{Amount: 6, Unit: domain.UnitLiter}, v)

	base := quantity.ToBase(v)
	assert.Equal(t, domain.UnitMilliliter, base.Unit)
	assert.InDelta(t, 6000.0, base.Amount, 0.0001)
}

func TestToBase(t *testing.T) {
	assert.Equal(t, quantity.Value{Amount: 1500, Unit: domain.UnitGram},
		quantity.ToBase(quantity.Value{Amount: 1.5, Unit: domain.UnitKilogram}))
	assert.Equal(t, quantity.Value{Amount: 3, Unit: domain.UnitPiece},
		quantity.ToBase(quantity.Value{Amount: 3, Unit: domain.UnitPiece}))
}

func TestNormalizeUnit(t *testing.T) {
	assert.Equal(t, domain.UnitKilogram, quantity.NormalizeUnit("KG"))
	assert.Equal(t, domain.UnitMilliliter, quantity.NormalizeUnit("cl"))
	assert.Equal(t, domain.UnitPiece, quantity.NormalizeUnit("Pce."))
	assert.Equal(t, domain.UnitNone, quantity.NormalizeUnit("bidule"))
}
