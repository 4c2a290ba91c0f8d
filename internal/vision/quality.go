package vision

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Weights of each signal in the quality score.
const (
	resolutionWeight = 0.35
	densityWeight    = 0.15
	contrastWeight   = 0.30
	channelWeight    = 0.20

	// Luminance standard deviation at which contrast scores 1.
	goodContrastStdDev = 64.0
)

// QualityReport breaks an image quality score into its signals.
type QualityReport struct {
	Score      float64 `json:"score"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	DPI        int     `json:"dpi,omitempty"`
	Channels   int     `json:"channels"`
	Resolution float64 `json:"resolution"`
	Density    float64 `json:"density"`
	Contrast   float64 `json:"contrast"`
	Depth      float64 `json:"depth"`
}

// AnalyzeQuality scores data for OCR suitability in [0,1]. It never fails:
// signals that cannot be computed contribute nothing, except a missing DPI
// which counts as neutral.
func AnalyzeQuality(data []byte, referencePixels int) QualityReport {
	var r QualityReport

	r.DPI = readDPI(data)
	r.Density = densityScore(r.DPI)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		r.Width, r.Height = cfg.Width, cfg.Height
		r.Resolution = resolutionScore(cfg.Width*cfg.Height, referencePixels)
		r.Channels = channelCount(cfg.ColorModel, nil)
	}

	if img, err := imaging.Decode(bytes.NewReader(data)); err == nil {
		r.Contrast = contrastScore(img)
		r.Channels = channelCount(cfg.ColorModel, img)
	}
	r.Depth = depthScore(r.Channels)

	r.Score = clamp01(r.Resolution*resolutionWeight +
		r.Density*densityWeight +
		r.Contrast*contrastWeight +
		r.Depth*channelWeight)
	return r
}

func resolutionScore(pixels, reference int) float64 {
	if reference <= 0 {
		reference = 2_000_000
	}
	return math.Min(1, float64(pixels)/float64(reference))
}

func densityScore(dpi int) float64 {
	switch {
	case dpi == 0:
		return 0.5
	case dpi >= 300:
		return 1
	case dpi >= 150:
		return 0.7
	case dpi >= 72:
		return 0.4
	default:
		return 0.2
	}
}

// contrastScore uses the standard deviation of the luminance histogram.
func contrastScore(img image.Image) float64 {
	hist := imaging.Histogram(img)
	var mean float64
	for v, p := range hist {
		mean += float64(v) * p
	}
	var variance float64
	for v, p := range hist {
		d := float64(v) - mean
		variance += d * d * p
	}
	return math.Min(1, math.Sqrt(variance)/goodContrastStdDev)
}

// Receipts are expected near-monochrome, so fewer channels score higher.
func depthScore(channels int) float64 {
	switch channels {
	case 1:
		return 1
	case 2:
		return 0.9
	case 3:
		return 0.7
	case 4:
		return 0.6
	default:
		return 0
	}
}

func channelCount(model color.Model, img image.Image) int {
	if model == nil {
		return 0
	}
	// Palettes are slices and must be handled before comparing models.
	if p, ok := model.(color.Palette); ok {
		if grayPalette(p) {
			return 1
		}
		return 3
	}
	switch model {
	case color.GrayModel, color.Gray16Model:
		return 1
	case color.YCbCrModel:
		return 3
	case color.CMYKModel:
		return 4
	}
	if img != nil && isOpaque(img) {
		return 3
	}
	return 4
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

func grayPalette(p color.Palette) bool {
	for _, c := range p {
		r, g, b, _ := c.RGBA()
		if r != g || g != b {
			return false
		}
	}
	return true
}

// readDPI extracts the horizontal density from a JFIF APP0 segment or a PNG
// pHYs chunk. It returns 0 when neither is present.
func readDPI(data []byte) int {
	switch {
	case len(data) >= 18 && data[0] == 0xFF && data[1] == 0xD8 &&
		data[2] == 0xFF && data[3] == 0xE0 && string(data[6:11]) == "JFIF\x00":
		units := data[13]
		x := int(binary.BigEndian.Uint16(data[14:16]))
		switch units {
		case 1:
			return x
		case 2:
			return int(math.Round(float64(x) * 2.54))
		}
	case len(data) > 8 && string(data[1:4]) == "PNG":
		for off := 8; off+12 <= len(data); {
			length := int(binary.BigEndian.Uint32(data[off : off+4]))
			typ := string(data[off+4 : off+8])
			if typ == "pHYs" && length == 9 && off+17 <= len(data) {
				ppu := binary.BigEndian.Uint32(data[off+8 : off+12])
				if data[off+16] == 1 {
					return int(math.Round(float64(ppu) * 0.0254))
				}
				return 0
			}
			if typ == "IDAT" || typ == "IEND" {
				return 0
			}
			off += 12 + length
		}
	}
	return 0
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
