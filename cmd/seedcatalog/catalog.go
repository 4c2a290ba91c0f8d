package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"frigo/internal/domain"
	"frigo/internal/quantity"
)

// productNamespace seeds deterministic product ids so reseeding the same
// workbook updates rows instead of duplicating them.
var productNamespace = uuid.MustParse("6f1c1d0e-3b8a-4f4c-9a52-0c1b7e1f2a90")

// headerAliases maps accepted column titles to catalog fields.
var headerAliases = map[string]string{
	"name": "name", "nom": "name", "produit": "name", "libelle": "name", "libellé": "name",
	"brand": "brand", "marque": "brand",
	"category": "category", "categorie": "category", "catégorie": "category", "rayon": "category",
	"barcode": "barcode", "ean": "barcode", "code-barres": "barcode", "code barre": "barcode", "gtin": "barcode",
	"packaging": "packaging", "conditionnement": "packaging", "contenance": "packaging", "format": "packaging",
}

func readCatalog(path, sheet string) (products []domain.Product, skipped int, err error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, 0, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	products, skipped = parseRows(rows)
	return products, skipped, nil
}

// parseRows turns worksheet rows into products. The first row is the header.
// Rows without a name are skipped, as are repeats of an earlier id.
func parseRows(rows [][]string) ([]domain.Product, int) {
	if len(rows) == 0 {
		return nil, 0
	}
	cols := make(map[string]int)
	for i, title := range rows[0] {
		if field, ok := headerAliases[strings.ToLower(strings.TrimSpace(title))]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	cell := func(row []string, field string) string {
		idx, ok := cols[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	seen := make(map[uuid.UUID]bool)
	var products []domain.Product
	skipped := 0
	for _, row := range rows[1:] {
		name := cell(row, "name")
		if name == "" {
			skipped++
			continue
		}
		p := domain.Product{
			Name:     name,
			Brand:    optional(cell(row, "brand")),
			Category: optional(cell(row, "category")),
			Barcode:  optional(normalizeBarcode(cell(row, "barcode"))),
			Unit:     domain.UnitPiece,
		}
		if raw := cell(row, "packaging"); raw != "" {
			p.Packaging = &raw
			if info, ok := quantity.ParsePackaging(raw); ok && info.TotalUnit != domain.UnitNone {
				packaging := formatPackaging(info)
				p.Packaging = &packaging
				p.Unit = quantity.ToBase(quantity.Value{Amount: info.TotalQuantity, Unit: info.TotalUnit}).Unit
			}
		}
		p.ID = productID(p)
		if seen[p.ID] {
			skipped++
			continue
		}
		seen[p.ID] = true
		products = append(products, p)
	}
	return products, skipped
}

// productID derives a stable id from the barcode, or from brand and name
// when the product has none.
func productID(p domain.Product) uuid.UUID {
	if p.Barcode != nil {
		return uuid.NewSHA1(productNamespace, []byte("ean:"+*p.Barcode))
	}
	key := strings.ToLower(p.Name)
	if p.Brand != nil {
		key = strings.ToLower(*p.Brand) + "|" + key
	}
	return uuid.NewSHA1(productNamespace, []byte("name:"+key))
}

// formatPackaging renders the canonical packaging in base units, e.g.
// "6 x 1000 ml (6000 ml)" for a pack of six one-liter bottles.
func formatPackaging(info domain.PackagingInfo) string {
	total := quantity.ToBase(quantity.Value{Amount: info.TotalQuantity, Unit: info.TotalUnit})
	if !info.IsMultipack || info.PackagingSize == nil || info.UnitSize == nil {
		return fmt.Sprintf("%s %s", formatAmount(total.Amount), total.Unit)
	}
	each := quantity.ToBase(quantity.Value{Amount: *info.UnitSize, Unit: info.TotalUnit})
	return fmt.Sprintf("%d x %s %s (%s %s)",
		*info.PackagingSize, formatAmount(each.Amount), each.Unit, formatAmount(total.Amount), total.Unit)
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// normalizeBarcode keeps only digits; workbooks often store EANs as numbers
// that excelize renders in scientific notation or with separators.
func normalizeBarcode(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func insertBatch(batch []domain.Product) string {
	if len(batch) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("INSERT INTO products (id, name, brand, category, barcode, packaging, unit) VALUES\n")
	for i := range batch {
		p := &batch[i]
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "  ('%s', %s, %s, %s, %s, %s, '%s')",
			p.ID, sqlString(&p.Name), sqlString(p.Brand), sqlString(p.Category),
			sqlString(p.Barcode), sqlString(p.Packaging), p.Unit)
	}
	b.WriteString("\nON CONFLICT (id) DO UPDATE SET\n" +
		"  name = EXCLUDED.name, brand = EXCLUDED.brand, category = EXCLUDED.category,\n" +
		"  barcode = EXCLUDED.barcode, packaging = EXCLUDED.packaging, unit = EXCLUDED.unit,\n" +
		"  updated_at = NOW();\n")
	return b.String()
}

func sqlString(s *string) string {
	if s == nil {
		return "NULL"
	}
	return "'" + strings.ReplaceAll(*s, "'", "''") + "'"
}
