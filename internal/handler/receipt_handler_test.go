package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"frigo/internal/domain"
	"frigo/internal/handler"
	"frigo/internal/middleware"
	"frigo/internal/service"
	"frigo/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const maxImageBytes = 1024

func newHandler() (*handler.ReceiptHandler, *mocks.MockReceiptService) {
	svc := new(mocks.MockReceiptService)
	return handler.NewReceiptHandler(svc, maxImageBytes, zap.NewNop()), svc
}

func multipartImage(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, "ticket.jpg")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestReceiptHandler_Upload(t *testing.T) {
	userID := uuid.New()

	t.Run("created", func(t *testing.T) {
		h, svc := newHandler()
		receiptID := uuid.New()
		svc.On("UploadReceipt", mock.Anything, mock.MatchedBy(func(in *service.UploadReceiptInput) bool {
			return in.UserID == userID && string(in.Image) == "jpeg-bytes"
		})).Return(&service.ReceiptUploadResult{ReceiptID: receiptID, Status: domain.ReceiptStatusPending}, nil)

		body, ct := multipartImage(t, "image", []byte("jpeg-bytes"))
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/receipts", body)
		c.Request.Header.Set("Content-Type", ct)
		c.Set(middleware.ContextKeyUserID, userID)

		h.Upload(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := decode(t, w)
		assert.True(t, resp.Success)
		assert.Contains(t, w.Body.String(), receiptID.String())
		svc.AssertExpectations(t)
	})

	t.Run("missing image field", func(t *testing.T) {
		h, svc := newHandler()
		body, ct := multipartImage(t, "file", []byte("x"))
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/receipts", body)
		c.Request.Header.Set("Content-Type", ct)
		c.Set(middleware.ContextKeyUserID, userID)

		h.Upload(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_IMAGE", decode(t, w).Error.Code)
		svc.AssertNotCalled(t, "UploadReceipt", mock.Anything, mock.Anything)
	})

	t.Run("image read is capped", func(t *testing.T) {
		h, svc := newHandler()
		svc.On("UploadReceipt", mock.Anything, mock.MatchedBy(func(in *service.UploadReceiptInput) bool {
			return len(in.Image) == maxImageBytes+1
		})).Return(nil, domain.NewImageValidationError(domain.ImageTooLarge, ""))

		body, ct := multipartImage(t, "image", bytes.Repeat([]byte{1}, 4*maxImageBytes))
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/receipts", body)
		c.Request.Header.Set("Content-Type", ct)
		c.Set(middleware.ContextKeyUserID, userID)

		h.Upload(c)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		h, _ := newHandler()
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/receipts", nil)

		h.Upload(c)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestReceiptHandler_Confirm(t *testing.T) {
	userID := uuid.New()
	receiptID := uuid.New()
	itemID := uuid.New()
	productID := uuid.New()

	newRequest := func(id, body string) (*gin.Context, *httptest.ResponseRecorder) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/receipts/"+id+"/confirm", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = gin.Params{{Key: "id", Value: id}}
		c.Set(middleware.ContextKeyUserID, userID)
		return c, w
	}
	body := `{"items":[{"receipt_item_id":"` + itemID.String() + `","product_id":"` + productID.String() +
		`","quantity":2,"expiration_date":"2024-04-01T00:00:00Z","confirmed":true}]}`

	t.Run("ok", func(t *testing.T) {
		h, svc := newHandler()
		svc.On("ConfirmReceipt", mock.Anything, mock.MatchedBy(func(in *service.ConfirmReceiptInput) bool {
			return in.ReceiptID == receiptID && in.UserID == userID && len(in.ConfirmedItems) == 1 &&
				in.ConfirmedItems[0].Quantity == 2 && *in.ConfirmedItems[0].ProductID == productID &&
				in.ConfirmedItems[0].ExpirationDate != nil
		})).Return(&service.ConfirmReceiptResult{ConfirmedCount: 1}, nil)

		c, w := newRequest(receiptID.String(), body)
		h.Confirm(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"confirmed_count":1`)
	})

	t.Run("error mapping", func(t *testing.T) {
		tests := []struct {
			err      error
			wantCode int
			wantErr  string
		}{
			{domain.ErrReceiptAlreadyConfirmed, http.StatusConflict, "RECEIPT_ALREADY_CONFIRMED"},
			{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
			{domain.ErrConfirmationMissingProduct, http.StatusBadRequest, "MISSING_PRODUCT"},
			{domain.ErrReceiptItemNotFound, http.StatusBadRequest, "RECEIPT_ITEM_NOT_FOUND"},
			{errors.New("db down"), http.StatusInternalServerError, "INTERNAL_ERROR"},
		}
		for _, tt := range tests {
			t.Run(tt.wantErr, func(t *testing.T) {
				h, svc := newHandler()
				svc.On("ConfirmReceipt", mock.Anything, mock.Anything).Return(nil, tt.err)

				c, w := newRequest(receiptID.String(), body)
				h.Confirm(c)

				assert.Equal(t, tt.wantCode, w.Code)
				assert.Equal(t, tt.wantErr, decode(t, w).Error.Code)
			})
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		h, svc := newHandler()
		c, w := newRequest("abc", body)
		h.Confirm(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "ConfirmReceipt", mock.Anything, mock.Anything)
	})

	t.Run("malformed body", func(t *testing.T) {
		h, _ := newHandler()
		c, w := newRequest(receiptID.String(), `{"items":`)
		h.Confirm(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReceiptHandler_ListAndGet(t *testing.T) {
	userID := uuid.New()

	t.Run("list returns empty array", func(t *testing.T) {
		h, svc := newHandler()
		svc.On("GetUserReceipts", mock.Anything, userID).Return(nil, nil)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/receipts", nil)
		c.Set(middleware.ContextKeyUserID, userID)
		h.List(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"data":[]`)
	})

	t.Run("get not found", func(t *testing.T) {
		h, svc := newHandler()
		id := uuid.New()
		svc.On("GetReceiptDetails", mock.Anything, id, userID).Return(nil, domain.ErrNotFound)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/receipts/"+id.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		c.Set(middleware.ContextKeyUserID, userID)
		h.GetByID(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("get includes image url", func(t *testing.T) {
		h, svc := newHandler()
		id := uuid.New()
		svc.On("GetReceiptDetails", mock.Anything, id, userID).Return(&service.ReceiptDetails{
			Receipt:  &domain.Receipt{ID: id, UserID: userID, StoreName: "E.Leclerc"},
			ImageURL: "https://example.test/img.png",
		}, nil)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/receipts/"+id.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		c.Set(middleware.ContextKeyUserID, userID)
		h.GetByID(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"store_name":"E.Leclerc"`)
		assert.Contains(t, w.Body.String(), `"image_url":"https://example.test/img.png"`)
	})
}

func TestReceiptHandler_Export(t *testing.T) {
	userID := uuid.New()

	t.Run("attachment", func(t *testing.T) {
		h, svc := newHandler()
		svc.On("ExportUserReceipts", mock.Anything, userID, mock.Anything).
			Run(func(args mock.Arguments) {
				_, _ = args.Get(2).(io.Writer).Write([]byte("PK-workbook"))
			}).Return(nil)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/receipts/export", nil)
		c.Set(middleware.ContextKeyUserID, userID)
		h.Export(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
		assert.Equal(t, "PK-workbook", w.Body.String())
	})

	t.Run("failure is json", func(t *testing.T) {
		h, svc := newHandler()
		svc.On("ExportUserReceipts", mock.Anything, userID, mock.Anything).Return(context.DeadlineExceeded)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/receipts/export", nil)
		c.Set(middleware.ContextKeyUserID, userID)
		h.Export(c)

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		assert.Empty(t, w.Header().Get("Content-Disposition"))
	})
}

func TestCatalogHandler_Refresh(t *testing.T) {
	svc := new(mocks.MockReceiptService)
	h := handler.NewCatalogHandler(svc, zap.NewNop())
	svc.On("RefreshCatalog", mock.Anything).Return(120, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/catalog/refresh", nil)
	h.Refresh(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"products":120`)
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

type fixedSize int

func (n fixedSize) Size() int { return int(n) }

func TestHealthHandler(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		h := handler.NewHealthHandler(fakePinger{}, fixedSize(42))
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/readyz", nil)
		h.Readiness(c)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"catalog_products":42`)
	})

	t.Run("database down", func(t *testing.T) {
		h := handler.NewHealthHandler(fakePinger{err: errors.New("refused")}, nil)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/readyz", nil)
		h.Readiness(c)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"unreachable"`)
		assert.NotContains(t, w.Body.String(), "catalog_products")
	})
}

func TestMapDomainError(t *testing.T) {
	status, code, _ := handler.MapDomainError(domain.NewImageValidationError(domain.ImageUnsupported, "application/pdf"))
	assert.Equal(t, http.StatusUnsupportedMediaType, status)
	assert.Equal(t, "UNSUPPORTED_IMAGE", code)

	status, code, _ = handler.MapDomainError(domain.NewImageValidationError(domain.ImageCorrupt, ""))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_IMAGE", code)

	status, _, _ = handler.MapDomainError(context.Canceled)
	assert.Equal(t, 499, status)
}
