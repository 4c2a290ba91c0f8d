// Package parser turns OCR text into receipt items using store-specific
// grammars. Each grammar is a table of declarative line patterns; the
// Selector picks the grammar that reports the highest applicability.
package parser

import (
	"regexp"
	"time"

	"frigo/internal/domain"
)

// Field is a receipt item attribute a pattern can capture.
type Field string

const (
	FieldName        Field = "name"
	FieldQuantity    Field = "qty"
	FieldWeight      Field = "weight"
	FieldUnit        Field = "unit"
	FieldUnitPrice   Field = "unit_price"
	FieldTotalPrice  Field = "total"
	FieldProductCode Field = "code"
)

// LineMatch holds the captured text of one matched line, keyed by field.
type LineMatch map[Field]string

// LinePattern is one rule of a store grammar.
type LinePattern struct {
	Name  string
	Regex *regexp.Regexp
	// Fields maps an item field to the capture group that holds it. A nil
	// map uses capture groups named after the fields.
	Fields map[Field]string
	// Validate may reject a regex match; the next pattern is then tried.
	Validate func(m LineMatch) bool
	// Transform may override the derived item, e.g. to mark a discount.
	Transform func(item *domain.ReceiptItem, m LineMatch)
	// Continuation patterns complete the previous item (a "2 x 1,50" line
	// printed under the product name) instead of creating a new one.
	Continuation bool
}

// match applies the regex and collects the mapped fields.
func (p *LinePattern) match(line string) (LineMatch, bool) {
	sub := p.Regex.FindStringSubmatch(line)
	if sub == nil {
		return nil, false
	}
	m := LineMatch{}
	for i, group := range p.Regex.SubexpNames() {
		if group == "" || sub[i] == "" {
			continue
		}
		if p.Fields == nil {
			m[Field(group)] = sub[i]
			continue
		}
		for field, g := range p.Fields {
			if g == group {
				m[field] = sub[i]
			}
		}
	}
	if p.Validate != nil && !p.Validate(m) {
		return nil, false
	}
	return m, true
}

// ParsedReceipt is a StoreParser's raw output before normalization and
// consistency checks. It is never persisted directly.
type ParsedReceipt struct {
	ParserID      domain.ParserID
	StoreName     string
	StoreAddress  *string
	Date          *time.Time
	Total         *float64
	Items         []domain.ReceiptItem
	Confidence    float64
	OCRConfidence float64
}

// StoreParser is a receipt grammar able to score its own applicability.
type StoreParser interface {
	ID() domain.ParserID
	// CanParse is a cheap applicability test.
	CanParse(text string) bool
	// ConfidenceScore rates applicability in [0,1].
	ConfidenceScore(text string) float64
	Parse(text string, ocrConfidence float64) *ParsedReceipt
}
