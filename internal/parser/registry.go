package parser

import (
	"frigo/internal/config"
	"frigo/internal/domain"
)

// Registry holds store parsers in registration order. Order breaks ties
// during selection, so store grammars are registered before the generic one.
type Registry struct {
	parsers  []StoreParser
	fallback StoreParser
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry registers the Carrefour, Leclerc and generic grammars,
// the last one doubling as the fallback.
func NewDefaultRegistry(cfg *config.ParserConfig) *Registry {
	r := NewRegistry()
	r.Register(NewCarrefourParser())
	r.Register(NewLeclercParser())

	generic := NewGenericParser(cfg.GenericMinMatchRatio)
	r.Register(generic)
	r.SetFallback(generic)
	return r
}

// Register appends a parser. A parser registered twice under the same ID
// replaces the earlier one in place.
func (r *Registry) Register(p StoreParser) {
	for i, existing := range r.parsers {
		if existing.ID() == p.ID() {
			r.parsers[i] = p
			return
		}
	}
	r.parsers = append(r.parsers, p)
}

// SetFallback sets the parser used when none can parse a text.
func (r *Registry) SetFallback(p StoreParser) {
	r.fallback = p
}

// Fallback returns the fallback parser, or nil.
func (r *Registry) Fallback() StoreParser {
	return r.fallback
}

// All returns the registered parsers in order.
func (r *Registry) All() []StoreParser {
	out := make([]StoreParser, len(r.parsers))
	copy(out, r.parsers)
	return out
}

// Get returns the parser registered under id.
func (r *Registry) Get(id domain.ParserID) (StoreParser, bool) {
	for _, p := range r.parsers {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}
