package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"frigo/internal/domain"
	"frigo/internal/quantity"
)

// priceTail allows a currency marker and a VAT code letter after the price.
const priceTail = `(?:\s*(?:€|EUR))?(?:\s+[A-D])?\s*$`

// heuristicPenalty scales an item's confidence when a self-correction fired.
const heuristicPenalty = 0.8

var (
	ignoreRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*(?:sous[- ]?total|total|montant|net\s+[aà]\s+payer|[aà]\s+payer|reste\s+[aà]\s+payer)\b`),
		regexp.MustCompile(`(?i)^\s*(?:tva|t\.v\.a|ht|ttc|taux)\b`),
		regexp.MustCompile(`(?i)^\s*(?:cb|carte\s+(?:bancaire|bleue|cb|fid\w*)|visa|mastercard|esp[eè]ces|rendu|monnaie|paiement|r[eè]glement|ch[eè]que)\b`),
		regexp.MustCompile(`(?i)^\s*(?:(?:ticket|caisse|caissier|h[oô]tesse|merci|[aà]\s+bient[oô]t|bonne\s+journ[eé]e|siret|siren|rcs|t[eé]l|fax|magasin|client|fid[eé]lit[eé]|avantages?|solde|cagnotte|points?)\b|www\.|http|n°)`),
		regexp.MustCompile(`(?i)^\s*(?:nb|nombre)\s+(?:d['’]\s*)?articles?\b|^\s*\d+\s+articles?\b`),
		regexp.MustCompile(`(?i)^\s*(?:date|heure|transaction|terminal|auto(?:risation)?|contrat|commer[cç]ant|pt\s+de\s+vente)\b`),
		regexp.MustCompile(`(?i)^\s*[\d\s/:.\-]+$`),
	}

	totalRe   = regexp.MustCompile(`(?i)^\s*(?:total(?:\s+ttc)?|montant\s+(?:d[uû]|total)|net\s+[aà]\s+payer|[aà]\s+payer)\b[^\d\-]*(` + priceToken + `)`)
	dateRe    = regexp.MustCompile(`\b(\d{2})[/.\-](\d{2})[/.\-](\d{4}|\d{2})\b`)
	postalRe  = regexp.MustCompile(`\b\d{5}\b`)
	streetRe  = regexp.MustCompile(`(?i)\b(?:rue|avenue|av\.|bd|boulevard|route|rte|place|pl\.|chemin|all[eé]e|quai|cours|zac|zi|za|centre\s+commercial|c\.?c\.?)\b`)
	priceRe   = regexp.MustCompile(priceToken + priceTail)
	lettersRe = regexp.MustCompile(`\p{L}`)
)

// Shared line patterns. Store grammars pick and order them.
var (
	patternQuantityLine = LinePattern{
		Name:         "quantity_line",
		Regex:        regexp.MustCompile(`^\s*(?P<qty>\d{1,3})\s*[xX×*]\s*(?P<unit_price>` + priceToken + `)` + priceTail),
		Continuation: true,
	}

	patternWeightLine = LinePattern{
		Name:         "weight_line",
		Regex:        regexp.MustCompile(`(?i)^\s*(?P<weight>\d+[.,]\d{1,3}\s*kg)\s*[x×*]\s*(?P<unit_price>` + priceToken + `)\s*(?:€|EUR)?\s*/\s*kg\s*$`),
		Continuation: true,
	}

	patternDiscount = LinePattern{
		Name:     "discount",
		Regex:    regexp.MustCompile(`^(?P<name>.*?\p{L}.*?)\s+(?P<total>-\s?\d[\dOo]*[.,][\dOo]{2})` + priceTail),
		Validate: hasLetters(2),
		Transform: func(item *domain.ReceiptItem, _ LineMatch) {
			item.TotalPrice = -math.Abs(item.TotalPrice)
			item.Name = strings.TrimSpace(item.Name) + " " + domain.DiscountTag
			item.UnitPrice = nil
			item.Quantity = 1
			item.Unit = domain.UnitPiece
		},
	}

	patternCodeNamePrice = LinePattern{
		Name:     "code_name_price",
		Regex:    regexp.MustCompile(`^\s*(?P<code>\d{8,13})\s+(?P<name>.+?)\s+(?P<total>` + priceToken + `)` + priceTail),
		Validate: hasLetters(2),
	}

	patternWeighted = LinePattern{
		Name:     "weighted",
		Regex:    regexp.MustCompile(`(?i)^(?P<name>.+?)\s+(?P<weight>\d+[.,]\d{1,3}\s*kg)\s*[x×*]\s*(?P<unit_price>` + priceToken + `)\s*(?:€|EUR)?\s*/\s*kg\s+(?P<total>` + priceToken + `)` + priceTail),
		Validate: hasLetters(2),
	}

	patternNameQuantityPrice = LinePattern{
		Name:     "name_qty_unit_price",
		Regex:    regexp.MustCompile(`^(?P<name>.+?)\s+(?P<qty>\d{1,3})\s*[xX×*]\s*(?P<unit_price>` + priceToken + `)\s+(?P<total>` + priceToken + `)` + priceTail),
		Validate: hasLetters(2),
	}

	patternQuantityNamePrice = LinePattern{
		Name:     "qty_name_price",
		Regex:    regexp.MustCompile(`^\s*(?P<qty>\d{1,3}(?:[.,]\d{1,3})?)\s+(?P<name>.+?)\s+(?P<total>` + priceToken + `)` + priceTail),
		Validate: hasLetters(2),
	}

	patternNamePrice = LinePattern{
		Name:     "name_price",
		Regex:    regexp.MustCompile(`^(?P<name>.*?\p{L}.*?)\s+(?P<total>` + priceToken + `)` + priceTail),
		Validate: hasLetters(2),
	}
)

// hasLetters rejects matches whose name holds fewer than n letters.
func hasLetters(n int) func(LineMatch) bool {
	return func(m LineMatch) bool {
		return len(lettersRe.FindAllString(m[FieldName], n)) >= n
	}
}

// scoreWeights splits a parser's applicability score between store-name
// hits, the share of matched item lines and the presence of a total.
type scoreWeights struct {
	Store, Lines, Total float64
}

// grammar is the data describing one store's receipt layout.
type grammar struct {
	id             domain.ParserID
	storeName      string
	banners        []*regexp.Regexp
	patterns       []LinePattern
	baseConfidence float64
	maxConfidence  float64
	weights        scoreWeights
	// detectStore overrides banner matching, returning the store name and
	// the index of the line it was read from (-1 when absent).
	detectStore func(lines []line) (string, int)
}

// grammarParser interprets a grammar.
type grammarParser struct {
	g grammar
}

func (p *grammarParser) ID() domain.ParserID { return p.g.id }

func (p *grammarParser) CanParse(text string) bool {
	return p.bannerHits(splitLines(text)) > 0
}

func (p *grammarParser) ConfidenceScore(text string) float64 {
	lines := splitLines(text)
	if len(lines) == 0 {
		return 0
	}

	var store, total float64
	if p.bannerHits(lines) > 0 {
		store = 1
	}
	if _, ok := findTotal(lines); ok {
		total = 1
	}

	candidates, matched := 0, 0
	for _, l := range lines {
		if isIgnored(l.text) || p.isBanner(l.text) {
			continue
		}
		candidates++
		if _, _, ok := p.matchLine(l.text); ok {
			matched++
		}
	}
	var ratio float64
	if candidates > 0 {
		ratio = float64(matched) / float64(candidates)
	}

	w := p.g.weights
	return clamp(w.Store*store+w.Lines*ratio+w.Total*total, 0, p.g.maxConfidence)
}

func (p *grammarParser) Parse(text string, ocrConfidence float64) *ParsedReceipt {
	lines := splitLines(text)
	out := &ParsedReceipt{
		ParserID:      p.g.id,
		Confidence:    p.ConfidenceScore(text),
		OCRConfidence: ocrConfidence,
		Items:         []domain.ReceiptItem{},
	}

	storeIdx := -1
	if p.g.detectStore != nil {
		out.StoreName, storeIdx = p.g.detectStore(lines)
	} else {
		out.StoreName, storeIdx = p.g.storeName, p.firstBanner(lines)
	}

	skip := map[int]bool{}
	if storeIdx >= 0 {
		skip[storeIdx] = true
		if addr, used := p.findAddress(lines, storeIdx); addr != "" {
			out.StoreAddress = &addr
			for _, i := range used {
				skip[i] = true
			}
		}
	}
	out.Date = findDate(lines)
	if total, ok := findTotal(lines); ok {
		out.Total = &total
	}

	for i, l := range lines {
		if skip[i] || isIgnored(l.text) {
			continue
		}
		pat, m, ok := p.matchLine(l.text)
		if !ok {
			continue
		}
		if pat.Continuation {
			if n := len(out.Items); n > 0 {
				completeItem(&out.Items[n-1], l.text, m)
			}
			continue
		}
		item := p.buildItem(l, pat, m)
		out.Items = append(out.Items, item)
	}
	return out
}

// matchLine returns the first pattern accepting the line.
func (p *grammarParser) matchLine(s string) (*LinePattern, LineMatch, bool) {
	for i := range p.g.patterns {
		pat := &p.g.patterns[i]
		if m, ok := pat.match(s); ok {
			return pat, m, true
		}
	}
	return nil, nil, false
}

func (p *grammarParser) buildItem(l line, pat *LinePattern, m LineMatch) domain.ReceiptItem {
	item := domain.ReceiptItem{
		RawLine:    l.text,
		Name:       strings.TrimSpace(m[FieldName]),
		Quantity:   1,
		Unit:       domain.UnitPiece,
		Confidence: p.g.baseConfidence,
		LineNumber: l.number,
	}

	if total, ok := ParsePrice(m[FieldTotalPrice]); ok {
		item.TotalPrice = total
	}
	if up, ok := ParsePrice(m[FieldUnitPrice]); ok {
		item.UnitPrice = &up
	}
	if code := m[FieldProductCode]; code != "" {
		item.ProductCode = &code
	}
	applyQuantity(&item, m)
	if u := m[FieldUnit]; u != "" {
		if unit := quantity.NormalizeUnit(u); unit != domain.UnitNone {
			item.Unit = unit
		}
	}

	selfCorrect(&item)
	if item.UnitPrice == nil && item.Quantity > 0 && item.TotalPrice != 0 {
		up := round2(item.TotalPrice / item.Quantity)
		item.UnitPrice = &up
	}

	if pat.Transform != nil {
		pat.Transform(&item, m)
	}
	return item
}

// completeItem merges a continuation line into the item above it.
func completeItem(item *domain.ReceiptItem, raw string, m LineMatch) {
	applyQuantity(item, m)
	if item.Quantity <= 0 {
		selfCorrect(item)
	}
	if up, ok := ParsePrice(m[FieldUnitPrice]); ok {
		item.UnitPrice = &up
	}
	item.RawLine += "\n" + strings.TrimSpace(raw)
}

func applyQuantity(item *domain.ReceiptItem, m LineMatch) {
	if w := m[FieldWeight]; w != "" {
		if v, ok := quantity.Parse(w); ok {
			item.Quantity, item.Unit = v.Amount, v.Unit
		}
		return
	}
	if q := m[FieldQuantity]; q != "" {
		if f, err := strconv.ParseFloat(strings.Replace(q, ",", ".", 1), 64); err == nil {
			item.Quantity = f
		}
	}
}

// selfCorrect repairs quantities that are almost certainly misreads.
func selfCorrect(item *domain.ReceiptItem) {
	switch {
	case item.Quantity <= 0:
		// A printed quantity of zero is a dropped digit.
		item.Quantity = 1
	case item.Unit == domain.UnitPiece && item.Quantity > 100:
		misread := item.Quantity
		item.Quantity = 1
		if item.UnitPrice == nil {
			price := item.TotalPrice
			if price == 0 {
				price = round2(misread / 100)
				item.TotalPrice = price
			}
			item.UnitPrice = &price
		}
	case item.Unit == domain.UnitPiece && item.Quantity > 0 && item.Quantity < 1:
		item.Unit = domain.UnitKilogram
	default:
		return
	}
	item.Confidence *= heuristicPenalty
	item.NeedsReview = true
}

func (p *grammarParser) isBanner(s string) bool {
	for _, re := range p.g.banners {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func (p *grammarParser) bannerHits(lines []line) int {
	hits := 0
	for _, l := range lines {
		if p.isBanner(l.text) {
			hits++
		}
	}
	return hits
}

func (p *grammarParser) firstBanner(lines []line) int {
	for i, l := range lines {
		if p.isBanner(l.text) {
			return i
		}
	}
	return -1
}

// findAddress collects up to two address-like lines under the store name.
func (p *grammarParser) findAddress(lines []line, storeIdx int) (string, []int) {
	var parts []string
	var used []int
	for i := storeIdx + 1; i < len(lines) && i <= storeIdx+3 && len(parts) < 2; i++ {
		s := lines[i].text
		if isIgnored(s) || priceRe.MatchString(s) {
			continue
		}
		if postalRe.MatchString(s) || streetRe.MatchString(s) {
			parts = append(parts, strings.TrimSpace(s))
			used = append(used, i)
		}
	}
	return strings.Join(parts, ", "), used
}

// findTotal scans bottom-up so the last printed total wins over subtotals.
func findTotal(lines []line) (float64, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		if m := totalRe.FindStringSubmatch(lines[i].text); m != nil {
			if v, ok := ParsePrice(m[1]); ok {
				return v, true
			}
		}
	}
	return 0, false
}

func findDate(lines []line) *time.Time {
	for _, l := range lines {
		m := dateRe.FindStringSubmatch(l.text)
		if m == nil {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if month < 1 || month > 12 || day < 1 || day > 31 {
			continue
		}
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if d.Day() != day {
			continue
		}
		return &d
	}
	return nil
}

func isIgnored(s string) bool {
	if len(strings.TrimSpace(s)) < 3 {
		return true
	}
	for _, re := range ignoreRes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// line is a non-empty text line with its 1-based position in the OCR text.
type line struct {
	text   string
	number int
}

func splitLines(text string) []line {
	var out []line
	for i, s := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		s = strings.TrimRightFunc(s, unicode.IsSpace)
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, line{text: s, number: i + 1})
	}
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}
