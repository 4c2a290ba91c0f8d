package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CatalogRefreshWorker periodically rebuilds the product matching index so
// catalog edits reach suggestions without a restart.
type CatalogRefreshWorker struct {
	receipts ReceiptService
	interval time.Duration
	log      *zap.Logger
}

// NewCatalogRefreshWorker creates a new CatalogRefreshWorker.
func NewCatalogRefreshWorker(receipts ReceiptService, interval time.Duration, log *zap.Logger) *CatalogRefreshWorker {
	return &CatalogRefreshWorker{
		receipts: receipts,
		interval: interval,
		log:      log,
	}
}

// Start runs the refresh loop until ctx is canceled. A failed refresh keeps
// the previous index and is retried on the next tick.
func (w *CatalogRefreshWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.log.Info("catalogRefreshWorker: disabled")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("catalogRefreshWorker: started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("catalogRefreshWorker: shutdown complete")
			return
		case <-ticker.C:
			refreshCtx, cancel := context.WithTimeout(ctx, w.interval)
			n, err := w.receipts.RefreshCatalog(refreshCtx)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				w.log.Warn("catalogRefreshWorker: refresh failed", zap.Error(err))
				continue
			}
			w.log.Debug("catalogRefreshWorker: index refreshed", zap.Int("products", n))
		}
	}
}
