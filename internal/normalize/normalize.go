// Package normalize cleans OCR'd product names and recovers item lines the
// OCR collapsed together.
package normalize

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"frigo/internal/config"
	"frigo/internal/domain"
)

//go:embed corrections.yaml
var correctionsYAML []byte

type corrections struct {
	Fragments []struct {
		From string `yaml:"from"`
		To   string `yaml:"to"`
	} `yaml:"fragments"`
	Words map[string]string `yaml:"words"`
}

var (
	barcodeRe    = regexp.MustCompile(`\d{8,}`)
	markupRe     = regexp.MustCompile(`[*#_|<>\[\]{}]+`)
	spacesRe     = regexp.MustCompile(`\s+`)
	homoglyphsRe = regexp.MustCompile(`(\p{L})([01])(\p{L})`)
)

// Normalizer applies the French OCR correction table and line recovery.
// It is safe for concurrent use.
type Normalizer struct {
	fragments *strings.Replacer
	words     map[string]string
	splitLen  int
}

// NewNormalizer loads the embedded correction table.
func NewNormalizer(cfg *config.ParserConfig) (*Normalizer, error) {
	var c corrections
	if err := yaml.Unmarshal(correctionsYAML, &c); err != nil {
		return nil, fmt.Errorf("normalize.NewNormalizer: %w", err)
	}

	pairs := make([]string, 0, len(c.Fragments)*2)
	for _, f := range c.Fragments {
		pairs = append(pairs, f.From, f.To)
	}
	words := make(map[string]string, len(c.Words))
	for k, v := range c.Words {
		words[strings.ToUpper(k)] = v
	}

	splitLen := cfg.SplitLineLength
	if splitLen <= 0 {
		splitLen = 60
	}
	return &Normalizer{
		fragments: strings.NewReplacer(pairs...),
		words:     words,
		splitLen:  splitLen,
	}, nil
}

// NormalizeName corrects OCR slips, removes barcodes and markup, and
// title-cases the result. A trailing discount tag is preserved as is.
func (n *Normalizer) NormalizeName(name string) string {
	discount := strings.HasSuffix(strings.TrimSpace(name), domain.DiscountTag)
	if discount {
		name = strings.TrimSuffix(strings.TrimSpace(name), domain.DiscountTag)
	}

	name = n.fragments.Replace(name)

	tokens := strings.Fields(name)
	for i, tok := range tokens {
		if fixed, ok := n.words[strings.ToUpper(tok)]; ok {
			tokens[i] = fixed
			continue
		}
		tokens[i] = fixHomoglyphs(tok)
	}
	name = strings.Join(tokens, " ")

	name = barcodeRe.ReplaceAllString(name, " ")
	name = markupRe.ReplaceAllString(name, " ")
	name = strings.TrimSpace(spacesRe.ReplaceAllString(name, " "))

	if name != "" {
		name = cases.Title(language.French).String(name)
	}
	if discount {
		if name == "" {
			return domain.DiscountTag
		}
		return name + " " + domain.DiscountTag
	}
	return name
}

// fixHomoglyphs swaps a 0 or 1 read between two letters for O or I.
// Tokens holding other digits are sizes such as "6X1L" and are left alone.
func fixHomoglyphs(tok string) string {
	if strings.ContainsAny(tok, "23456789") {
		return tok
	}
	for {
		fixed := homoglyphsRe.ReplaceAllStringFunc(tok, func(m string) string {
			r := []rune(m)
			if r[1] == '0' {
				r[1] = 'O'
			} else {
				r[1] = 'I'
			}
			if unicode.IsLower(r[0]) {
				r[1] = unicode.ToLower(r[1])
			}
			return string(r)
		})
		if fixed == tok {
			return tok
		}
		tok = fixed
	}
}

// NormalizeItems returns a copy of items with normalized names. Raw lines
// are kept untouched. An item whose name cleans down to nothing keeps its
// original name and is flagged for review.
func (n *Normalizer) NormalizeItems(items []domain.ReceiptItem) []domain.ReceiptItem {
	out := make([]domain.ReceiptItem, len(items))
	for i, item := range items {
		normalized := n.NormalizeName(item.Name)
		if normalized == "" || normalized == domain.DiscountTag {
			item.NeedsReview = true
		} else {
			item.Name = normalized
		}
		out[i] = item
	}
	return out
}

// FoldKey lowercases s, strips diacritics and collapses whitespace. It is
// the comparison key for names.
func FoldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.TrimSpace(spacesRe.ReplaceAllString(strings.ToLower(folded), " "))
}
