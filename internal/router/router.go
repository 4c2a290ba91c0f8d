package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"frigo/internal/handler"
	"frigo/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	receiptH *handler.ReceiptHandler,
	catalogH *handler.CatalogHandler,
	healthH *handler.HealthHandler,
	log *zap.Logger,
	corsOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Identity())

	receipts := v1.Group("/receipts")
	receipts.POST("", receiptH.Upload)
	receipts.GET("", receiptH.List)
	receipts.GET("/export", receiptH.Export)
	receipts.GET("/:id", receiptH.GetByID)
	receipts.POST("/:id/confirm", receiptH.Confirm)

	catalog := v1.Group("/catalog")
	catalog.POST("/refresh", catalogH.Refresh)

	return r
}
