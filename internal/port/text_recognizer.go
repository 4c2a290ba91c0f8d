package port

import (
	"context"
	"image"
	"time"
)

// PageSegMode is a layout hint passed to the recognizer.
type PageSegMode int

const (
	PageSegAuto PageSegMode = iota
	PageSegSingleBlock
	PageSegSparseText
)

func (m PageSegMode) String() string {
	switch m {
	case PageSegSingleBlock:
		return "single_block"
	case PageSegSparseText:
		return "sparse_text"
	default:
		return "auto"
	}
}

// OCROptions carries per-call recognition settings.
type OCROptions struct {
	PageSegMode PageSegMode
	Languages   []string
}

// OCRLine is one recognized text line.
type OCRLine struct {
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
	BBox       image.Rectangle `json:"bbox"`
}

// OCRResult is the output of recognizing one image. Confidence is in [0,1].
type OCRResult struct {
	Text           string        `json:"text"`
	Confidence     float64       `json:"confidence"`
	Lines          []OCRLine     `json:"lines"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// TextRecognizer abstracts an OCR backend. Implementations acquire their
// native resources per call and release them before returning.
type TextRecognizer interface {
	Recognize(ctx context.Context, img []byte, opts OCROptions) (*OCRResult, error)
}
