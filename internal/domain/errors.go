package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                   = errors.New("resource not found")
	ErrUnauthorized               = errors.New("unauthorized")
	ErrImageValidation            = errors.New("invalid receipt image")
	ErrReceiptAlreadyConfirmed    = errors.New("receipt is already confirmed")
	ErrReceiptNotConfirmable      = errors.New("receipt cannot be confirmed in its current status")
	ErrReceiptItemNotFound        = errors.New("receipt item does not belong to this receipt")
	ErrConfirmationMissingProduct = errors.New("confirmed item has no product selected")
	ErrInvalidConfirmation        = errors.New("invalid confirmation request")
	ErrInvalidStatusTransition    = errors.New("invalid receipt status transition")
	ErrUploadFailed               = errors.New("receipt image upload to storage failed")
)

// Image validation reasons.
const (
	ImageMissing     = "missing"
	ImageTooLarge    = "too_large"
	ImageUnsupported = "unsupported_format"
	ImageCorrupt     = "corrupt"
)

// ImageValidationError describes why an uploaded image was rejected.
type ImageValidationError struct {
	Reason string
	Detail string
}

func (e *ImageValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: %s", ErrImageValidation, e.Reason)
	}
	return fmt.Sprintf("%v: %s (%s)", ErrImageValidation, e.Reason, e.Detail)
}

func (e *ImageValidationError) Unwrap() error {
	return ErrImageValidation
}

// NewImageValidationError creates an ImageValidationError.
func NewImageValidationError(reason, detail string) *ImageValidationError {
	return &ImageValidationError{Reason: reason, Detail: detail}
}
