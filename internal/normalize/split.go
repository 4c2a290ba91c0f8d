package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// A price, with its optional VAT code, immediately followed by the next
	// item's uppercase name. A lone VAT letter is not a name.
	priceUpperRe = regexp.MustCompile(`(\d[.,]\d{2}(?:\s+[A-D]\b)?)\s*\p{Lu}\p{L}`)
	// A price followed by the next item's leading quantity.
	priceDigitRe = regexp.MustCompile(`(\d[.,]\d{2}(?:\s+[A-D]\b)?)\s+\d`)

	trailingPriceRe = regexp.MustCompile(`-?\d+[.,]\d{2}(?:\s*(?:€|EUR))?(?:\s+[A-D])?$`)
	danglingWordRe  = regexp.MustCompile(`(?i)\b(?:de|du|des)$`)
)

// minFragmentLen is the length below which a fragment without a price is
// taken as the start of the next item.
const minFragmentLen = 15

// SplitLines recovers item lines from OCR text in which several items were
// read as one long line. Lines no longer than the configured limit pass
// through unchanged.
func (n *Normalizer) SplitLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if utf8.RuneCountInString(l) <= n.splitLen {
			out = append(out, l)
			continue
		}
		out = append(out, splitLine(l)...)
	}
	return strings.Join(out, "\n")
}

func splitLine(l string) []string {
	cuts := boundaries(l, priceUpperRe)
	if len(cuts) == 0 {
		cuts = boundaries(l, priceDigitRe)
	}
	if len(cuts) == 0 {
		return []string{l}
	}

	frags := make([]string, 0, len(cuts)+1)
	start := 0
	for _, c := range cuts {
		frags = append(frags, l[start:c])
		start = c
	}
	frags = append(frags, l[start:])

	merged := mergeFragments(frags)
	for i := range merged {
		merged[i] = strings.TrimSpace(merged[i])
	}
	return merged
}

// boundaries returns the byte offsets right after each matched price and
// its VAT code, if any.
func boundaries(l string, re *regexp.Regexp) []int {
	var cuts []int
	for _, loc := range re.FindAllStringSubmatchIndex(l, -1) {
		cuts = append(cuts, loc[3])
	}
	return cuts
}

// mergeFragments glues back fragments without a trailing price. Incomplete
// fragments (ending in DE/DU/DES, or short) join the next fragment; others
// join the previous one.
func mergeFragments(frags []string) []string {
	var out []string
	pending := ""
	for i, f := range frags {
		f = pending + f
		pending = ""

		t := strings.TrimSpace(f)
		if trailingPriceRe.MatchString(t) {
			out = append(out, f)
			continue
		}
		last := i == len(frags)-1
		if !last && (danglingWordRe.MatchString(t) || utf8.RuneCountInString(t) < minFragmentLen) {
			pending = f
			continue
		}
		if len(out) > 0 {
			out[len(out)-1] += f
			continue
		}
		pending = f
	}
	if pending != "" {
		if len(out) > 0 {
			out[len(out)-1] += pending
		} else {
			out = append(out, pending)
		}
	}
	return out
}
