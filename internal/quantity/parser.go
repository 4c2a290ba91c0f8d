// Package quantity parses short, noisy quantity strings such as "6 x 1 l",
// "330ml" or "1,5 kg" into a value and a canonical unit. It is shared by the
// receipt parsers and by catalog packaging ingestion.
package quantity

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"frigo/internal/domain"
)

// Value is a numeric amount in a canonical unit.
type Value struct {
	Amount float64
	Unit   domain.Unit
}

const number = `(\d+(?:[.,]\d+)?)`

var (
	multipackRe = regexp.MustCompile(`(?i)(\d+)\s*[x×*]\s*` + number + `\s*(\p{L}+)`)
	simpleRe    = regexp.MustCompile(`(?i)` + number + `\s*(\p{L}*)`)

	// Natural-language packaging forms, tried after the two structural patterns.
	specialRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)pack\s+de\s+(\d+)\D*?` + number + `\s*(\p{L}+)`),
		regexp.MustCompile(`(?i)lot\s+de\s+(\d+)\s*[x×*]?\s*` + number + `\s*(\p{L}+)`),
		regexp.MustCompile(`(?i)(\d+)\s+(?:bouteilles?|canettes?|pots?|briques?|sachets?|boites?|boîtes?)\s+de\s+` + number + `\s*(\p{L}+)`),
	}
)

// ParsePackaging parses a packaging string. ok is false when no number could
// be found; an unknown unit still yields a value with domain.UnitNone.
func ParsePackaging(s string) (info domain.PackagingInfo, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.PackagingInfo{}, false
	}

	if m := multipackRe.FindStringSubmatch(s); m != nil {
		if info, ok := multipack(m[1], m[2], m[3]); ok {
			return info, true
		}
	}

	// A simple match on a known unit wins; an unknown unit is kept as a
	// fallback so the natural-language forms still get a chance.
	var fallback *domain.PackagingInfo
	if m := simpleRe.FindStringSubmatch(s); m != nil {
		amount, err := parseNumber(m[1])
		if err == nil {
			if syn, known := lookupUnit(m[2]); known {
				return domain.PackagingInfo{
					TotalQuantity: scale(amount, syn.factor),
					TotalUnit:     syn.unit,
				}, true
			}
			fallback = &domain.PackagingInfo{
				TotalQuantity: amount.InexactFloat64(),
				TotalUnit:     domain.UnitNone,
			}
		}
	}

	for _, re := range specialRes {
		if m := re.FindStringSubmatch(s); m != nil {
			if info, ok := multipack(m[1], m[2], m[3]); ok {
				return info, true
			}
		}
	}

	if fallback != nil {
		return *fallback, true
	}
	return domain.PackagingInfo{}, false
}

// Parse returns the total amount described by s, or ok=false when s holds
// no number at all.
func Parse(s string) (Value, bool) {
	info, ok := ParsePackaging(s)
	if !ok {
		return Value{}, false
	}
	return Value{Amount: info.TotalQuantity, Unit: info.TotalUnit}, true
}

func multipack(countStr, sizeStr, unitStr string) (domain.PackagingInfo, bool) {
	count, err := parseNumber(countStr)
	if err != nil || !count.IsPositive() {
		return domain.PackagingInfo{}, false
	}
	size, err := parseNumber(sizeStr)
	if err != nil || !size.IsPositive() {
		return domain.PackagingInfo{}, false
	}

	unit := domain.UnitNone
	factor := int64(1)
	if syn, ok := lookupUnit(unitStr); ok {
		unit, factor = syn.unit, syn.factor
	}

	unitSize := scale(size, factor)
	packSize := int(count.IntPart())
	total, _ := decimal.NewFromFloat(unitSize).Mul(count).Round(3).Float64()

	return domain.PackagingInfo{
		TotalQuantity: total,
		TotalUnit:     unit,
		PackagingSize: &packSize,
		UnitSize:      &unitSize,
		IsMultipack:   true,
	}, true
}

func parseNumber(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.Replace(s, ",", ".", 1))
}

func scale(d decimal.Decimal, factor int64) float64 {
	f, _ := d.Mul(decimal.NewFromInt(factor)).Round(3).Float64()
	return f
}
