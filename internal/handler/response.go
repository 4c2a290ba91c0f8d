package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"frigo/internal/domain"
)

// statusClientClosedRequest is reported when the caller went away mid-request.
const statusClientClosedRequest = 499

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	var ive *domain.ImageValidationError
	switch {
	case errors.As(err, &ive) && ive.Reason == domain.ImageTooLarge:
		return http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE", "image exceeds maximum allowed size"
	case errors.As(err, &ive) && ive.Reason == domain.ImageUnsupported:
		return http.StatusUnsupportedMediaType, "UNSUPPORTED_IMAGE", "unsupported image format; allowed: jpeg, png, webp"
	case errors.Is(err, domain.ErrImageValidation):
		return http.StatusBadRequest, "INVALID_IMAGE", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrReceiptAlreadyConfirmed):
		return http.StatusConflict, "RECEIPT_ALREADY_CONFIRMED", "receipt is already confirmed"
	case errors.Is(err, domain.ErrReceiptNotConfirmable):
		return http.StatusConflict, "RECEIPT_NOT_CONFIRMABLE", "receipt cannot be confirmed in its current status"
	case errors.Is(err, domain.ErrReceiptItemNotFound):
		return http.StatusBadRequest, "RECEIPT_ITEM_NOT_FOUND", "item does not belong to this receipt"
	case errors.Is(err, domain.ErrConfirmationMissingProduct):
		return http.StatusBadRequest, "MISSING_PRODUCT", "confirmed items must reference a product"
	case errors.Is(err, domain.ErrInvalidConfirmation):
		return http.StatusBadRequest, "INVALID_CONFIRMATION", err.Error()
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		return http.StatusConflict, "INVALID_STATUS_TRANSITION", "invalid receipt status transition"
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusInternalServerError, "UPLOAD_FAILED", "image upload to storage failed"
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "REQUEST_CANCELED", "request canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT", "request timed out"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, log *zap.Logger, err error) {
	status, code, msg := MapDomainError(err)
	if status >= http.StatusInternalServerError {
		log.Error("handler: internal error",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	RespondError(c, status, code, msg)
}
