package parser

import (
	"strings"

	"frigo/internal/domain"
)

// UnknownStore is the store name reported when no header line looks like one.
const UnknownStore = "Magasin inconnu"

// genericParser accepts any receipt on which enough lines look like items.
type genericParser struct {
	grammarParser
	minMatchRatio float64
}

// NewGenericParser returns the store-agnostic grammar. It applies when at
// least minMatchRatio of the non-empty lines match an item pattern, and its
// score never exceeds 0.8 so that a store grammar wins when one applies.
func NewGenericParser(minMatchRatio float64) StoreParser {
	if minMatchRatio <= 0 {
		minMatchRatio = 0.2
	}
	return &genericParser{
		grammarParser: grammarParser{g: grammar{
			id: domain.ParserGeneric,
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
			baseConfidence: 0.7,
			maxConfidence:  0.8,
			weights:        scoreWeights{Lines: 0.6, Total: 0.2},
			detectStore:    headerStoreName,
		}},
		minMatchRatio: minMatchRatio,
	}
}

func (p *genericParser) CanParse(text string) bool {
	lines := splitLines(text)
	if len(lines) == 0 {
		return false
	}
	matched := 0
	for _, l := range lines {
		if _, _, ok := p.matchLine(l.text); ok {
			matched++
		}
	}
	return float64(matched)/float64(len(lines)) >= p.minMatchRatio
}

// headerStoreName takes the first plausible name among the top lines.
func headerStoreName(lines []line) (string, int) {
	for i, l := range lines {
		if i >= 5 {
			break
		}
		s := strings.TrimSpace(l.text)
		if isIgnored(s) || priceRe.MatchString(s) || postalRe.MatchString(s) || dateRe.MatchString(s) {
			continue
		}
		if len(lettersRe.FindAllString(s, 3)) < 3 {
			continue
		}
		return s, i
	}
	return UnknownStore, -1
}
