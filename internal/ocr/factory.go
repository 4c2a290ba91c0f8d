package ocr

import (
	"fmt"

	"frigo/internal/config"
	"frigo/internal/port"
)

// RecognizerFactory creates a TextRecognizer from the OCR config.
type RecognizerFactory func(cfg *config.OCRConfig) (port.TextRecognizer, error)

// registry of recognizer factories, populated by init() in this package or
// explicitly via RegisterRecognizer.
var recognizers = map[string]RecognizerFactory{}

// RegisterRecognizer registers a recognizer factory by provider name.
func RegisterRecognizer(name string, factory RecognizerFactory) {
	recognizers[name] = factory
}

// NewRecognizer creates a TextRecognizer using the configured provider.
func NewRecognizer(cfg *config.OCRConfig) (port.TextRecognizer, error) {
	factory, ok := recognizers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown ocr provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
