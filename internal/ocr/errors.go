package ocr

import (
	"errors"
	"fmt"

	"frigo/internal/vision"
)

// ErrTimeout indicates a recognition call exceeded its time bound.
var ErrTimeout = errors.New("ocr call timed out")

// ErrNoText indicates the recognizer returned nothing usable.
var ErrNoText = errors.New("ocr produced no text")

// ExtractionError records why a variant produced no usable text.
type ExtractionError struct {
	Variant vision.VariantKind
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("ocr extraction failed for %s variant: %v", e.Variant, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
