package parser

import (
	"regexp"

	"frigo/internal/domain"
)

// NewCarrefourParser returns the grammar for Carrefour, Carrefour Market,
// City and Contact receipts.
func NewCarrefourParser() StoreParser {
	return &grammarParser{g: grammar{
		id:        domain.ParserCarrefour,
		storeName: "Carrefour",
		banners: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bcarrefour\b`),
			regexp.MustCompile(`(?i)\bcarref0ur\b`),
		},
		patterns: []LinePattern{
			patternQuantityLine,
			patternWeightLine,
			patternDiscount,
			patternCodeNamePrice,
			patternWeighted,
			patternNameQuantityPrice,
			patternQuantityNamePrice,
			patternNamePrice,
		},
		baseConfidence: 0.85,
		maxConfidence:  1,
		weights:        scoreWeights{Store: 0.35, Lines: 0.45, Total: 0.2},
	}}
}
