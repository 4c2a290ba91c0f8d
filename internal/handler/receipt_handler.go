package handler

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"frigo/internal/domain"
	"frigo/internal/export"
	"frigo/internal/middleware"
	"frigo/internal/service"
)

// ReceiptHandler handles receipt upload, confirmation and history endpoints.
type ReceiptHandler struct {
	receipts      service.ReceiptService
	maxImageBytes int64
	log           *zap.Logger
}

// NewReceiptHandler creates a new ReceiptHandler.
func NewReceiptHandler(receipts service.ReceiptService, maxImageBytes int64, log *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts, maxImageBytes: maxImageBytes, log: log}
}

// confirmReceiptRequest is the body of POST /receipts/:id/confirm.
type confirmReceiptRequest struct {
	Items []service.ConfirmedItemInput `json:"items"`
}

// Upload handles POST /api/v1/receipts (multipart field "image").
func (h *ReceiptHandler) Upload(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}

	file, _, err := c.Request.FormFile("image")
	if err != nil {
		HandleError(c, h.log, domain.NewImageValidationError(domain.ImageMissing, "image field is required"))
		return
	}
	defer func() { _ = file.Close() }()

	// One byte past the limit is enough for the service to reject it.
	image, err := io.ReadAll(io.LimitReader(file, h.maxImageBytes+1))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_IMAGE", "could not read image")
		return
	}

	result, err := h.receipts.UploadReceipt(c.Request.Context(), &service.UploadReceiptInput{
		Image:       image,
		UserID:      userID,
		HouseholdID: middleware.GetHouseholdID(c),
	})
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondCreated(c, result)
}

// Confirm handles POST /api/v1/receipts/:id/confirm
func (h *ReceiptHandler) Confirm(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}
	receiptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid receipt ID")
		return
	}

	var req confirmReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.receipts.ConfirmReceipt(c.Request.Context(), &service.ConfirmReceiptInput{
		ReceiptID:      receiptID,
		UserID:         userID,
		ConfirmedItems: req.Items,
	})
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, result)
}

// List handles GET /api/v1/receipts
func (h *ReceiptHandler) List(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}

	receipts, err := h.receipts.GetUserReceipts(c.Request.Context(), userID)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	if receipts == nil {
		receipts = []domain.Receipt{}
	}
	RespondOK(c, receipts)
}

// GetByID handles GET /api/v1/receipts/:id
func (h *ReceiptHandler) GetByID(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}
	receiptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid receipt ID")
		return
	}

	details, err := h.receipts.GetReceiptDetails(c.Request.Context(), receiptID, userID)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, details)
}

// Export handles GET /api/v1/receipts/export and streams an XLSX workbook.
func (h *ReceiptHandler) Export(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}

	// Buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := h.receipts.ExportUserReceipts(c.Request.Context(), userID, &buf); err != nil {
		HandleError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.BuildFilename(time.Now())+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
