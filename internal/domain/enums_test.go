package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"frigo/internal/domain"
)

func TestReceiptStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to domain.ReceiptStatus
		want     bool
	}{
		{domain.ReceiptStatusProcessing, domain.ReceiptStatusPending, true},
		{domain.ReceiptStatusProcessing, domain.ReceiptStatusReview, true},
		{domain.ReceiptStatusProcessing, domain.ReceiptStatusError, true},
		{domain.ReceiptStatusPending, domain.ReceiptStatusConfirmed, true},
		{domain.ReceiptStatusReview, domain.ReceiptStatusConfirmed, true},
		{domain.ReceiptStatusPending, domain.ReceiptStatusProcessing, false},
		{domain.ReceiptStatusReview, domain.ReceiptStatusPending, false},
		{domain.ReceiptStatusConfirmed, domain.ReceiptStatusPending, false},
		{domain.ReceiptStatusConfirmed, domain.ReceiptStatusConfirmed, false},
		{domain.ReceiptStatusError, domain.ReceiptStatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestReceipt_AdvanceTo(t *testing.T) {
	r := &domain.Receipt{Status: domain.ReceiptStatusProcessing}
	assert.NoError(t, r.AdvanceTo(domain.ReceiptStatusPending))
	assert.Equal(t, domain.ReceiptStatusPending, r.Status)

	err := r.AdvanceTo(domain.ReceiptStatusProcessing)
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
	assert.Equal(t, domain.ReceiptStatusPending, r.Status)
}

func TestImageValidationError_Unwrap(t *testing.T) {
	err := domain.NewImageValidationError(domain.ImageTooLarge, "12 MB")
	assert.ErrorIs(t, err, domain.ErrImageValidation)
	assert.Contains(t, err.Error(), "too_large")
	assert.Contains(t, err.Error(), "12 MB")
}
