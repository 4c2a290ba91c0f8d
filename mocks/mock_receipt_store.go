package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"frigo/internal/domain"
)

// MockReceiptStore is a mock implementation of port.ReceiptStore.
type MockReceiptStore struct {
	mock.Mock
}

func (m *MockReceiptStore) Save(ctx context.Context, receipt *domain.Receipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

func (m *MockReceiptStore) FindByUser(ctx context.Context, userID uuid.UUID) ([]domain.Receipt, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Receipt), args.Error(1)
}

func (m *MockReceiptStore) FindByID(ctx context.Context, id, userID uuid.UUID) (*domain.Receipt, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Receipt), args.Error(1)
}

// MockStockWriter is a mock implementation of port.StockWriter.
type MockStockWriter struct {
	mock.Mock
}

func (m *MockStockWriter) Add(ctx context.Context, entry *domain.StockEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
