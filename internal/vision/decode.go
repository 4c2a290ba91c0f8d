// Package vision validates receipt images, scores their suitability for
// OCR and derives the preprocessed variants fed to the recognizer.
package vision

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp" // register decoder

	"frigo/internal/domain"
)

// Format is an accepted receipt image format.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWEBP Format = "webp"
)

var allowedMIME = map[string]Format{
	"image/jpeg": FormatJPEG,
	"image/png":  FormatPNG,
	"image/webp": FormatWEBP,
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	return "image/" + string(f)
}

// ValidateImage rejects missing, oversized, unsupported or undecodable
// images before any OCR work starts. The returned error wraps
// domain.ErrImageValidation.
func ValidateImage(data []byte, maxBytes int64) (Format, error) {
	if len(data) == 0 {
		return "", domain.NewImageValidationError(domain.ImageMissing, "")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", domain.NewImageValidationError(domain.ImageTooLarge,
			fmt.Sprintf("%d bytes exceeds %d", len(data), maxBytes))
	}

	mtype := mimetype.Detect(data)
	var format Format
	for mime, f := range allowedMIME {
		if mtype.Is(mime) {
			format = f
			break
		}
	}
	if format == "" {
		return "", domain.NewImageValidationError(domain.ImageUnsupported, mtype.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", domain.NewImageValidationError(domain.ImageCorrupt, err.Error())
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return "", domain.NewImageValidationError(domain.ImageCorrupt, "empty dimensions")
	}
	return format, nil
}
