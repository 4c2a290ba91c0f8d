package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"frigo/internal/domain"
	"frigo/internal/service"
)

// MockReceiptService is a mock implementation of service.ReceiptService.
type MockReceiptService struct {
	mock.Mock
}

func (m *MockReceiptService) UploadReceipt(ctx context.Context, input *service.UploadReceiptInput) (*service.ReceiptUploadResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReceiptUploadResult), args.Error(1)
}

func (m *MockReceiptService) ConfirmReceipt(ctx context.Context, input *service.ConfirmReceiptInput) (*service.ConfirmReceiptResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ConfirmReceiptResult), args.Error(1)
}

func (m *MockReceiptService) GetUserReceipts(ctx context.Context, userID uuid.UUID) ([]domain.Receipt, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Receipt), args.Error(1)
}

func (m *MockReceiptService) GetReceiptDetails(ctx context.Context, receiptID, userID uuid.UUID) (*service.ReceiptDetails, error) {
	args := m.Called(ctx, receiptID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReceiptDetails), args.Error(1)
}

func (m *MockReceiptService) ExportUserReceipts(ctx context.Context, userID uuid.UUID, w io.Writer) error {
	args := m.Called(ctx, userID, w)
	return args.Error(0)
}

func (m *MockReceiptService) RefreshCatalog(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
