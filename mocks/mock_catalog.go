package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"frigo/internal/domain"
)

// MockCatalogLookup is a mock implementation of port.CatalogLookup.
type MockCatalogLookup struct {
	mock.Mock
}

func (m *MockCatalogLookup) FindByBarcode(ctx context.Context, code string) (*domain.Product, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockCatalogLookup) SearchByName(ctx context.Context, name string) ([]domain.Product, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}
