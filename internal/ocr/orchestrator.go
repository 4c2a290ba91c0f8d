package ocr

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"frigo/internal/port"
	"frigo/internal/vision"
)

// variantModes gives each preprocessing variant its own layout hint so the
// three attempts diversify recognition strategy.
var variantModes = map[vision.VariantKind]port.PageSegMode{
	vision.VariantStandard:     port.PageSegAuto,
	vision.VariantHighContrast: port.PageSegSingleBlock,
	vision.VariantDenoised:     port.PageSegSparseText,
}

// Attempt summarises one variant's recognition.
type Attempt struct {
	Variant    vision.VariantKind `json:"variant"`
	Mode       string             `json:"mode"`
	Confidence float64            `json:"confidence"`
	Failed     bool               `json:"failed"`
}

// Selection is the best recognition across all variants.
type Selection struct {
	Result   port.OCRResult     `json:"result"`
	Variant  vision.VariantKind `json:"variant,omitempty"`
	Attempts []Attempt          `json:"attempts"`
	// AllFailed is set when no variant produced text; Result is then empty.
	AllFailed bool `json:"all_failed"`
}

// TextExtractor recognizes a single variant, never failing.
type TextExtractor interface {
	ExtractText(ctx context.Context, variant vision.Variant, mode port.PageSegMode) port.OCRResult
}

// Orchestrator runs the extractor over every variant concurrently and keeps
// the most confident result.
type Orchestrator struct {
	extractor TextExtractor
	log       *zap.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(extractor TextExtractor, log *zap.Logger) *Orchestrator {
	return &Orchestrator{extractor: extractor, log: log}
}

// Recognize waits for every variant to settle; one variant's success never
// cancels the others. If ctx is cancelled first, in-flight calls are
// abandoned and ctx.Err() is returned.
func (o *Orchestrator) Recognize(ctx context.Context, variants []vision.Variant) (*Selection, error) {
	type result struct {
		variant vision.VariantKind
		mode    port.PageSegMode
		res     port.OCRResult
	}

	var wg sync.WaitGroup
	results := make([]chan result, len(variants))

	for i, v := range variants {
		results[i] = make(chan result, 1)
		mode := variantModes[v.Kind]
		wg.Add(1)
		go func(v vision.Variant, ch chan<- result) {
			defer wg.Done()
			ch <- result{variant: v.Kind, mode: mode, res: o.extractor.ExtractText(ctx, v, mode)}
		}(v, results[i])
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		o.log.Info("ocr.Orchestrator.Recognize: cancelled, abandoning in-flight variants")
		return nil, ctx.Err()
	}

	sel := &Selection{AllFailed: true}
	for _, ch := range results {
		r := <-ch
		failed := r.res.Confidence <= 0
		sel.Attempts = append(sel.Attempts, Attempt{
			Variant:    r.variant,
			Mode:       r.mode.String(),
			Confidence: r.res.Confidence,
			Failed:     failed,
		})
		if failed {
			continue
		}
		if sel.AllFailed || r.res.Confidence > sel.Result.Confidence {
			sel.Result = r.res
			sel.Variant = r.variant
			sel.AllFailed = false
		}
	}

	if sel.AllFailed {
		o.log.Warn("ocr.Orchestrator.Recognize: all variants failed", zap.Int("variants", len(variants)))
		sel.Result = EmptyResult()
	} else {
		o.log.Debug("ocr.Orchestrator.Recognize: selected variant",
			zap.String("variant", string(sel.Variant)),
			zap.Float64("confidence", sel.Result.Confidence))
	}
	return sel, nil
}
