// Package tesseract implements port.TextRecognizer with gosseract.
package tesseract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"frigo/internal/config"
	"frigo/internal/port"
)

var pageSegModes = map[port.PageSegMode]gosseract.PageSegMode{
	port.PageSegAuto:        gosseract.PSM_AUTO,
	port.PageSegSingleBlock: gosseract.PSM_SINGLE_BLOCK,
	port.PageSegSparseText:  gosseract.PSM_SPARSE_TEXT,
}

type recognizer struct {
	languages []string
}

// New creates a tesseract-backed recognizer. It matches ocr.RecognizerFactory.
func New(cfg *config.OCRConfig) (port.TextRecognizer, error) {
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []string{"fra"}
	}
	return &recognizer{languages: langs}, nil
}

// Recognize creates a client for this call only; tesseract handles are not
// safe to share across goroutines. The client is closed on every return.
func (r *recognizer) Recognize(ctx context.Context, img []byte, opts port.OCROptions) (*port.OCRResult, error) {
	start := time.Now()

	client := gosseract.NewClient()
	defer client.Close()

	langs := opts.Languages
	if len(langs) == 0 {
		langs = r.languages
	}
	if err := client.SetLanguage(langs...); err != nil {
		return nil, fmt.Errorf("tesseract set language: %w", err)
	}
	if err := client.SetPageSegMode(pageSegModes[opts.PageSegMode]); err != nil {
		return nil, fmt.Errorf("tesseract set page seg mode: %w", err)
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return nil, fmt.Errorf("tesseract set image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("tesseract text: %w", err)
	}

	lineBoxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("tesseract line boxes: %w", err)
	}
	wordBoxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract word boxes: %w", err)
	}

	res := &port.OCRResult{
		Text:           text,
		Confidence:     meanConfidence(wordBoxes),
		ProcessingTime: time.Since(start),
	}
	for _, b := range lineBoxes {
		line := strings.TrimSpace(b.Word)
		if line == "" {
			continue
		}
		res.Lines = append(res.Lines, port.OCRLine{
			Text:       line,
			Confidence: b.Confidence / 100,
			BBox:       b.Box,
		})
	}
	return res, nil
}

// meanConfidence averages word confidences, reported by tesseract on a
// 0-100 scale, into [0,1].
func meanConfidence(words []gosseract.BoundingBox) float64 {
	var sum float64
	var n int
	for _, w := range words {
		if strings.TrimSpace(w.Word) == "" || w.Confidence < 0 {
			continue
		}
		sum += w.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n) / 100
}
