package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// IndexSizer reports how many products the in-memory catalog index holds.
type IndexSizer interface {
	Size() int
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db      Pinger
	catalog IndexSizer
}

// NewHealthHandler creates a new HealthHandler. catalog may be nil.
func NewHealthHandler(db Pinger, catalog IndexSizer) *HealthHandler {
	return &HealthHandler{db: db, catalog: catalog}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. An empty catalog index is reported but
// does not fail the probe; uploads still parse without suggestions.
func (h *HealthHandler) Readiness(c *gin.Context) {
	body := gin.H{"status": "ok", "database": "ok"}
	if h.catalog != nil {
		body["catalog_products"] = h.catalog.Size()
	}

	if err := h.db.PingContext(c.Request.Context()); err != nil {
		body["status"] = "unavailable"
		body["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}
