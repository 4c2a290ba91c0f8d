package matcher

import (
	"strings"

	"github.com/agext/levenshtein"

	"frigo/internal/domain"
	"frigo/internal/normalize"
)

// Index is an immutable snapshot of the catalog prepared for fuzzy search.
type Index struct {
	entries []entry
}

type entry struct {
	product domain.Product
	key     string
	tokens  []string
}

type scored struct {
	product domain.Product
	score   float64
	barcode bool
}

// NewIndex builds a snapshot from a catalog listing.
func NewIndex(products []domain.Product) *Index {
	idx := &Index{entries: make([]entry, 0, len(products))}
	for _, p := range products {
		text := p.Name
		if p.Brand != nil {
			text += " " + *p.Brand
		}
		key := normalize.FoldKey(text)
		idx.entries = append(idx.entries, entry{
			product: p,
			key:     key,
			tokens:  strings.Fields(key),
		})
	}
	return idx
}

// Len returns the number of indexed products.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// search scores every product against name and keeps those at or above
// minScore. Query tokens shorter than minLen are ignored unless nothing
// else remains.
func (idx *Index) search(name string, minLen int, minScore float64) []scored {
	query := normalize.FoldKey(name)
	if len([]rune(query)) < minLen {
		return nil
	}
	tokens := queryTokens(query, minLen)

	var out []scored
	for i := range idx.entries {
		e := &idx.entries[i]
		score := tokenScore(tokens, e.tokens)
		if full := levenshtein.Similarity(query, e.key, nil); full > score {
			score = full
		}
		if score >= minScore {
			out = append(out, scored{product: e.product, score: score})
		}
	}
	return out
}

func queryTokens(query string, minLen int) []string {
	all := strings.Fields(query)
	var kept []string
	for _, t := range all {
		if len([]rune(t)) >= minLen {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return all
	}
	return kept
}

// tokenScore averages, weighted by token length, the best similarity of
// each query token to any product token.
func tokenScore(query, product []string) float64 {
	if len(query) == 0 || len(product) == 0 {
		return 0
	}
	var total, weights float64
	for _, q := range query {
		best := 0.0
		for _, p := range product {
			if s := levenshtein.Similarity(q, p, nil); s > best {
				best = s
			}
		}
		w := float64(len([]rune(q)))
		total += best * w
		weights += w
	}
	return total / weights
}
