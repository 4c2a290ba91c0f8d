package parser

import (
	"go.uber.org/zap"

	"frigo/internal/domain"
)

// Selection is the outcome of choosing a parser for one OCR text.
type Selection struct {
	Parser StoreParser
	Score  float64
	// Fallback is set when no parser reported it could parse the text.
	Fallback bool
	Scores   map[domain.ParserID]float64
}

// Selector picks the registered parser best suited to a text.
type Selector struct {
	registry *Registry
	log      *zap.Logger
}

// NewSelector creates a Selector over the given registry.
func NewSelector(registry *Registry, log *zap.Logger) *Selector {
	return &Selector{registry: registry, log: log}
}

// Select scores every parser whose CanParse accepts text and returns the
// highest; ties go to the earliest registered. When none accepts the text
// the registry's fallback is returned with Fallback set.
func (s *Selector) Select(text string) Selection {
	sel := Selection{Score: -1, Scores: map[domain.ParserID]float64{}}
	for _, p := range s.registry.All() {
		if !p.CanParse(text) {
			continue
		}
		score := p.ConfidenceScore(text)
		sel.Scores[p.ID()] = score
		if score > sel.Score {
			sel.Parser, sel.Score = p, score
		}
	}

	if sel.Parser == nil {
		sel.Parser, sel.Score, sel.Fallback = s.registry.Fallback(), 0, true
		if sel.Parser == nil {
			sel.Parser = NewGenericParser(0)
		}
		s.log.Debug("no parser accepted receipt text, using fallback",
			zap.String("parser", string(sel.Parser.ID())))
		return sel
	}

	s.log.Debug("parser selected",
		zap.String("parser", string(sel.Parser.ID())),
		zap.Float64("score", sel.Score),
		zap.Any("scores", sel.Scores))
	return sel
}
