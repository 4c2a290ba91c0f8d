package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"frigo/internal/port"
)

// MockTextRecognizer is a mock implementation of port.TextRecognizer.
type MockTextRecognizer struct {
	mock.Mock
}

func (m *MockTextRecognizer) Recognize(ctx context.Context, img []byte, opts port.OCROptions) (*port.OCRResult, error) {
	args := m.Called(ctx, img, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.OCRResult), args.Error(1)
}
