package ocr

import (
	"context"
	"strings"

	"frigo/internal/config"
	"frigo/internal/port"
)

const staticConfidence = 0.9

func init() {
	RegisterRecognizer("static", func(cfg *config.OCRConfig) (port.TextRecognizer, error) {
		return NewStaticRecognizer(cfg.StaticText, staticConfidence), nil
	})
}

// StaticRecognizer returns fixed text regardless of the image. It backs
// text-only runs of the pipeline.
type StaticRecognizer struct {
	text       string
	confidence float64
}

// NewStaticRecognizer creates a StaticRecognizer.
func NewStaticRecognizer(text string, confidence float64) *StaticRecognizer {
	return &StaticRecognizer{text: text, confidence: confidence}
}

func (s *StaticRecognizer) Recognize(ctx context.Context, _ []byte, _ port.OCROptions) (*port.OCRResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &port.OCRResult{Text: s.text, Confidence: s.confidence}
	for _, line := range strings.Split(s.text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			res.Lines = append(res.Lines, port.OCRLine{Text: line, Confidence: s.confidence})
		}
	}
	return res, nil
}
