package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"frigo/internal/config"
	"frigo/internal/port"
	"frigo/internal/vision"
)

// EmptyResult is the zero-confidence result used when recognition fails.
func EmptyResult() port.OCRResult {
	return port.OCRResult{}
}

// Engine bounds a TextRecognizer in time and turns its failures into empty
// results.
type Engine struct {
	recognizer port.TextRecognizer
	languages  []string
	timeout    time.Duration
	log        *zap.Logger
}

// NewEngine creates an Engine around recognizer.
func NewEngine(recognizer port.TextRecognizer, cfg *config.OCRConfig, log *zap.Logger) *Engine {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Engine{
		recognizer: recognizer,
		languages:  cfg.Languages,
		timeout:    timeout,
		log:        log,
	}
}

// ExtractText recognizes one variant. It never fails: errors, panics and
// timeouts all yield EmptyResult.
func (e *Engine) ExtractText(ctx context.Context, variant vision.Variant, mode port.PageSegMode) port.OCRResult {
	res, err := e.Extract(ctx, variant, mode)
	if err != nil {
		e.log.Warn("ocr.Engine.ExtractText: variant failed",
			zap.String("variant", string(variant.Kind)),
			zap.Stringer("psm", mode),
			zap.Error(err))
		return EmptyResult()
	}
	return res
}

// Extract recognizes one variant and reports failures as *ExtractionError.
// The recognizer call runs in its own goroutine so a timeout or caller
// cancellation returns immediately; the recognizer still releases its
// resources when it finishes.
func (e *Engine) Extract(ctx context.Context, variant vision.Variant, mode port.PageSegMode) (port.OCRResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		res *port.OCRResult
		err error
	}
	ch := make(chan outcome, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("recognizer panic: %v", r)}
			}
		}()
		res, err := e.recognizer.Recognize(ctx, variant.Image, port.OCROptions{
			PageSegMode: mode,
			Languages:   e.languages,
		})
		ch <- outcome{res, err}
	}()

	select {
	case <-ctx.Done():
		err := ctx.Err()
		if err == context.DeadlineExceeded {
			err = ErrTimeout
		}
		return EmptyResult(), &ExtractionError{Variant: variant.Kind, Err: err}
	case out := <-ch:
		if out.err != nil {
			return EmptyResult(), &ExtractionError{Variant: variant.Kind, Err: out.err}
		}
		if out.res == nil || strings.TrimSpace(out.res.Text) == "" {
			return EmptyResult(), &ExtractionError{Variant: variant.Kind, Err: ErrNoText}
		}
		res := *out.res
		res.Confidence = clamp01(res.Confidence)
		if res.ProcessingTime == 0 {
			res.ProcessingTime = time.Since(start)
		}
		return res, nil
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
