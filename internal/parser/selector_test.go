package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"frigo/internal/config"
	"frigo/internal/domain"
	"frigo/internal/parser"
)

// fixedParser reports canned applicability.
type fixedParser struct {
	id       domain.ParserID
	canParse bool
	score    float64
}

func (f *fixedParser) ID() domain.ParserID            { return f.id }
func (f *fixedParser) CanParse(string) bool           { return f.canParse }
func (f *fixedParser) ConfidenceScore(string) float64 { return f.score }
func (f *fixedParser) Parse(string, float64) *parser.ParsedReceipt {
	return &parser.ParsedReceipt{ParserID: f.id}
}

func TestSelector_DefaultRegistry(t *testing.T) {
	reg := parser.NewDefaultRegistry(&config.ParserConfig{GenericMinMatchRatio: 0.2})
	s := parser.NewSelector(reg, zap.NewNop())

	t.Run("carrefour receipt", func(t *testing.T) {
		sel := s.Select("CARREFOUR\n1 POULET 5.99\nTOTAL 5.99")
		assert.Equal(t, domain.ParserCarrefour, sel.Parser.ID())
		assert.False(t, sel.Fallback)
		assert.Greater(t, sel.Score, sel.Scores[domain.ParserGeneric])
	})

	t.Run("leclerc receipt", func(t *testing.T) {
		sel := s.Select(leclercReceipt)
		assert.Equal(t, domain.ParserLeclerc, sel.Parser.ID())
	})

	t.Run("unknown store", func(t *testing.T) {
		sel := s.Select("EPICERIE\nPAIN 1,20\nTOTAL 1,20")
		assert.Equal(t, domain.ParserGeneric, sel.Parser.ID())
		assert.False(t, sel.Fallback)
	})

	t.Run("nothing parses", func(t *testing.T) {
		sel := s.Select("")
		assert.Equal(t, domain.ParserGeneric, sel.Parser.ID())
		assert.True(t, sel.Fallback)
	})
}

func TestSelector_Rules(t *testing.T) {
	t.Run("skips parsers that cannot parse", func(t *testing.T) {
		reg := parser.NewRegistry()
		reg.Register(&fixedParser{id: "a", canParse: false, score: 0.99})
		reg.Register(&fixedParser{id: "b", canParse: true, score: 0.4})

		sel := parser.NewSelector(reg, zap.NewNop()).Select("x")
		assert.Equal(t, domain.ParserID("b"), sel.Parser.ID())
		assert.NotContains(t, sel.Scores, domain.ParserID("a"))
	})

	t.Run("ties go to the first registered", func(t *testing.T) {
		reg := parser.NewRegistry()
		reg.Register(&fixedParser{id: "first", canParse: true, score: 0.7})
		reg.Register(&fixedParser{id: "second", canParse: true, score: 0.7})

		sel := parser.NewSelector(reg, zap.NewNop()).Select("x")
		assert.Equal(t, domain.ParserID("first"), sel.Parser.ID())
	})

	t.Run("fallback when none applies", func(t *testing.T) {
		reg := parser.NewRegistry()
		fb := &fixedParser{id: "fb"}
		reg.Register(&fixedParser{id: "a"})
		reg.SetFallback(fb)

		sel := parser.NewSelector(reg, zap.NewNop()).Select("x")
		assert.True(t, sel.Fallback)
		assert.Equal(t, domain.ParserID("fb"), sel.Parser.ID())
	})
}

func TestRegistry(t *testing.T) {
	reg := parser.NewDefaultRegistry(&config.ParserConfig{})
	all := reg.All()
	require.Len(t, all, 3)
	assert.Equal(t, domain.ParserCarrefour, all[0].ID())
	assert.Equal(t, domain.ParserLeclerc, all[1].ID())
	assert.Equal(t, domain.ParserGeneric, all[2].ID())

	p, ok := reg.Get(domain.ParserLeclerc)
	require.True(t, ok)
	assert.Equal(t, domain.ParserLeclerc, p.ID())

	_, ok = reg.Get("lidl")
	assert.False(t, ok)

	reg.Register(&fixedParser{id: domain.ParserLeclerc})
	assert.Len(t, reg.All(), 3)
}
