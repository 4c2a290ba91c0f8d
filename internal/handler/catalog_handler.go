package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"frigo/internal/service"
)

// CatalogHandler handles product catalog maintenance endpoints.
type CatalogHandler struct {
	receipts service.ReceiptService
	log      *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(receipts service.ReceiptService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{receipts: receipts, log: log}
}

// Refresh handles POST /api/v1/catalog/refresh
func (h *CatalogHandler) Refresh(c *gin.Context) {
	n, err := h.receipts.RefreshCatalog(c.Request.Context())
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"products": n})
}
