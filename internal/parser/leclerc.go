package parser

import (
	"regexp"

	"frigo/internal/domain"
)

// NewLeclercParser returns the grammar for E.Leclerc receipts, which print
// the quantity or weight breakdown on the line after the item it completes.
func NewLeclercParser() StoreParser {
	return &grammarParser{g: grammar{
		id:        domain.ParserLeclerc,
		storeName: "E.Leclerc",
		banners: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\be\s?\.?\s?leclerc\b`),
			regexp.MustCompile(`(?i)\bleclerc\b`),
		},
		patterns: []LinePattern{
			patternWeightLine,
			patternQuantityLine,
			patternDiscount,
			patternWeighted,
			patternNameQuantityPrice,
			patternQuantityNamePrice,
			patternNamePrice,
		},
		baseConfidence: 0.8,
		maxConfidence:  1,
		weights:        scoreWeights{Store: 0.3, Lines: 0.5, Total: 0.2},
	}}
}
