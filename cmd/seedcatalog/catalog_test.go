package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frigo/internal/domain"
)

func TestParseRows(t *testing.T) {
	rows := [][]string{
		{"Nom", "Marque", "Rayon", "EAN", "Conditionnement"},
		{"Eau minérale", "Evian", "Boissons", "3 068 320 114 453", "6 x 1,5 L"},
		{"Yaourt nature", "Danone", "Frais", "", "4 x 125 g"},
		{"Beurre doux", "Président", "Frais", "", "250g"},
		{"", "Orphan", "", "", ""},
		{"Eau minérale", "Evian", "Boissons", "3068320114453", "6 x 1,5 L"},
		{"Sel fin", "", "", "", "1 boîte"},
	}

	products, skipped := parseRows(rows)
	require.Len(t, products, 4)
	assert.Equal(t, 2, skipped)

	water := products[0]
	assert.Equal(t, "Eau minérale", water.Name)
	require.NotNil(t, water.Barcode)
	assert.Equal(t, "3068320114453", *water.Barcode)
	require.NotNil(t, water.Packaging)
	assert.Equal(t, "6 x 1500 ml (9000 ml)", *water.Packaging)
	assert.Equal(t, domain.UnitMilliliter, water.Unit)

	butter := products[2]
	require.NotNil(t, butter.Packaging)
	assert.Equal(t, "250 g", *butter.Packaging)
	assert.Equal(t, domain.UnitGram, butter.Unit)

	salt := products[3]
	assert.Nil(t, salt.Brand)
	assert.Equal(t, domain.UnitPiece, salt.Unit)
	require.NotNil(t, salt.Packaging)
	assert.Equal(t, "1 boîte", *salt.Packaging)
}

func TestProductID_Deterministic(t *testing.T) {
	brand := "Danone"
	a := productID(domain.Product{Name: "Yaourt Nature", Brand: &brand})
	b := productID(domain.Product{Name: "yaourt nature", Brand: &brand})
	assert.Equal(t, a, b)

	code := "3068320114453"
	assert.NotEqual(t, a, productID(domain.Product{Name: "Yaourt Nature", Barcode: &code}))
}

func TestInsertBatch_EscapesQuotes(t *testing.T) {
	brand := "L'Angélus"
	sql := insertBatch([]domain.Product{{Name: "Pain d'épices", Brand: &brand, Unit: domain.UnitPiece}})
	assert.Contains(t, sql, "'Pain d''épices'")
	assert.Contains(t, sql, "'L''Angélus'")
	assert.Contains(t, sql, "NULL")
	assert.Contains(t, sql, "ON CONFLICT (id) DO UPDATE")
}
