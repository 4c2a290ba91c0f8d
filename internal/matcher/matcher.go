// Package matcher suggests catalog products for receipt items.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"frigo/internal/config"
	"frigo/internal/domain"
	"frigo/internal/port"
)

const barcodeScore = 1.0

// Matcher looks items up by barcode and by fuzzy name over a cached catalog
// snapshot. Reads are lock-free; Refresh swaps in a fully built snapshot.
type Matcher struct {
	catalog port.CatalogLookup
	cfg     config.MatcherConfig
	log     *zap.Logger

	index     atomic.Pointer[Index]
	refreshMu sync.Mutex
}

// NewMatcher creates a Matcher. The catalog snapshot is built on first use
// or by an explicit Refresh.
func NewMatcher(catalog port.CatalogLookup, cfg *config.MatcherConfig, log *zap.Logger) *Matcher {
	return &Matcher{catalog: catalog, cfg: *cfg, log: log}
}

// Refresh rebuilds the catalog snapshot and swaps it in once complete.
func (m *Matcher) Refresh(ctx context.Context) error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()
	return m.refresh(ctx)
}

func (m *Matcher) refresh(ctx context.Context) error {
	products, err := m.catalog.SearchByName(ctx, "")
	if err != nil {
		return fmt.Errorf("matcher.Refresh: %w", err)
	}
	m.index.Store(NewIndex(products))
	m.log.Info("matcher.Refresh: catalog index rebuilt", zap.Int("products", len(products)))
	return nil
}

// Build refreshes the snapshot only if none has been built yet.
func (m *Matcher) Build(ctx context.Context) error {
	if m.index.Load() != nil {
		return nil
	}
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()
	if m.index.Load() != nil {
		return nil
	}
	return m.refresh(ctx)
}

// Size returns the number of products in the current snapshot.
func (m *Matcher) Size() int {
	if idx := m.index.Load(); idx != nil {
		return idx.Len()
	}
	return 0
}

// SuggestForItem returns up to the configured number of products for one
// item, best first. Lookup failures are logged and yield no suggestions.
func (m *Matcher) SuggestForItem(ctx context.Context, item *domain.ReceiptItem) []domain.ProductSuggestion {
	best := map[string]scored{}

	if item.ProductCode != nil && *item.ProductCode != "" {
		p, err := m.catalog.FindByBarcode(ctx, *item.ProductCode)
		switch {
		case err == nil:
			best[p.ID.String()] = scored{product: *p, score: barcodeScore, barcode: true}
		case errors.Is(err, domain.ErrNotFound):
			// unknown code, fuzzy search still applies
		default:
			m.log.Warn("matcher.SuggestForItem: barcode lookup failed",
				zap.String("code", *item.ProductCode), zap.Error(err))
			return nil
		}
	}

	if err := m.Build(ctx); err != nil {
		m.log.Warn("matcher.SuggestForItem: catalog index unavailable", zap.Error(err))
		return nil
	}
	if idx := m.index.Load(); idx != nil {
		for _, s := range idx.search(item.Name, m.cfg.MinMatchLength, m.cfg.MinScore) {
			key := s.product.ID.String()
			if prev, ok := best[key]; !ok || s.score > prev.score {
				best[key] = s
			}
		}
	}

	return top(best, m.cfg.PerItem)
}

// Suggest matches every item. It returns the per-item suggestions, indexed
// like items, and the de-duplicated best suggestions for the receipt.
func (m *Matcher) Suggest(ctx context.Context, items []domain.ReceiptItem) ([][]domain.ProductSuggestion, []domain.ProductSuggestion) {
	perItem := make([][]domain.ProductSuggestion, len(items))
	flat := map[string]scored{}

	for i := range items {
		if ctx.Err() != nil {
			break
		}
		perItem[i] = m.SuggestForItem(ctx, &items[i])
		for _, s := range perItem[i] {
			key := s.ProductID.String()
			if prev, ok := flat[key]; !ok || s.Score > prev.score {
				flat[key] = scored{product: domain.Product{
					ID: s.ProductID, Name: s.Name, Brand: s.Brand, Category: s.Category,
				}, score: s.Score}
			}
		}
	}
	return perItem, top(flat, m.cfg.PerReceipt)
}

// top ranks by score; on equal scores a barcode hit wins, then names sort.
func top(candidates map[string]scored, n int) []domain.ProductSuggestion {
	list := make([]scored, 0, len(candidates))
	for _, s := range candidates {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].score != list[j].score {
			return list[i].score > list[j].score
		}
		if list[i].barcode != list[j].barcode {
			return list[i].barcode
		}
		return list[i].product.Name < list[j].product.Name
	})
	if n > 0 && len(list) > n {
		list = list[:n]
	}

	out := make([]domain.ProductSuggestion, 0, len(list))
	for _, s := range list {
		out = append(out, domain.ProductSuggestion{
			ProductID: s.product.ID,
			Name:      s.product.Name,
			Score:     s.score,
			Brand:     s.product.Brand,
			Category:  s.product.Category,
		})
	}
	return out
}
