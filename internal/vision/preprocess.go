package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"frigo/internal/config"
)

// VariantKind names a preprocessing recipe.
type VariantKind string

const (
	VariantStandard     VariantKind = "standard"
	VariantHighContrast VariantKind = "high_contrast"
	VariantDenoised     VariantKind = "denoised"
)

// Variant is one OCR-ready rendition of a receipt image, PNG encoded.
type Variant struct {
	Kind   VariantKind
	Image  []byte
	Width  int
	Height int
}

// recipe describes the filters applied for one variant.
type recipe struct {
	kind       VariantKind
	blur       float64
	sharpen    float64
	contrast   float64
	brightness float64
	threshold  uint8
}

// Preprocessor derives the OCR variants of a receipt image.
type Preprocessor struct {
	targetWidth int
	recipes     []recipe
}

// NewPreprocessor creates a Preprocessor from the vision settings.
func NewPreprocessor(cfg *config.VisionConfig) *Preprocessor {
	return &Preprocessor{
		targetWidth: cfg.TargetWidth,
		recipes: []recipe{
			{kind: VariantStandard, blur: 0.5, sharpen: 1.0, contrast: 20, threshold: cfg.StandardThreshold},
			{kind: VariantHighContrast, contrast: 50, brightness: 10, threshold: cfg.HighContrastThreshold},
			{kind: VariantDenoised, blur: 1.0, contrast: 10, threshold: cfg.DenoisedThreshold},
		},
	}
}

// Variants decodes data once and renders the standard, high-contrast and
// denoised variants, in that order. The input slice is never modified.
func (p *Preprocessor) Variants(data []byte) ([]Variant, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	base := imaging.Grayscale(p.fitWidth(src))
	base = normalize(base)

	out := make([]Variant, 0, len(p.recipes))
	for _, r := range p.recipes {
		img := r.apply(base)
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("encoding %s variant: %w", r.kind, err)
		}
		b := img.Bounds()
		out = append(out, Variant{Kind: r.kind, Image: buf.Bytes(), Width: b.Dx(), Height: b.Dy()})
	}
	return out, nil
}

// fitWidth shrinks wide images to the target width, keeping aspect ratio.
// Narrower images are left alone.
func (p *Preprocessor) fitWidth(img image.Image) image.Image {
	if p.targetWidth <= 0 || img.Bounds().Dx() <= p.targetWidth {
		return img
	}
	return imaging.Resize(img, p.targetWidth, 0, imaging.Lanczos)
}

func (r recipe) apply(src *image.NRGBA) *image.NRGBA {
	img := src
	if r.blur > 0 {
		img = imaging.Blur(img, r.blur)
	}
	if r.sharpen > 0 {
		img = imaging.Sharpen(img, r.sharpen)
	}
	if r.contrast != 0 {
		img = imaging.AdjustContrast(img, r.contrast)
	}
	if r.brightness != 0 {
		img = imaging.AdjustBrightness(img, r.brightness)
	}
	return binarize(img, r.threshold)
}

// normalize stretches the luminance range between the 1st and 99th
// percentiles to the full 0-255 range.
func normalize(img *image.NRGBA) *image.NRGBA {
	hist := imaging.Histogram(img)
	low, high := 0, 255
	var cum float64
	for v, p := range hist {
		cum += p
		if cum >= 0.01 {
			low = v
			break
		}
	}
	cum = 0
	for v := 255; v >= 0; v-- {
		cum += hist[v]
		if cum >= 0.01 {
			high = v
			break
		}
	}
	if high <= low {
		return img
	}
	span := float64(high - low)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		v := (float64(c.R) - float64(low)) * 255 / span
		g := uint8(clampByte(v))
		return color.NRGBA{R: g, G: g, B: g, A: c.A}
	})
}

func binarize(img *image.NRGBA, threshold uint8) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		if c.R > threshold {
			return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
		}
		return color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	})
}

func clampByte(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
