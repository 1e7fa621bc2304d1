package understanding

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amitayks/visara-docpipe/constants"
	"github.com/amitayks/visara-docpipe/internal/ocr"
)

type entityPattern struct {
	re         *regexp.Regexp
	confidence float64
}

// entityTable maps entity types to their recognizers. Pattern order matters:
// earlier patterns claim spans first, later overlapping matches are dropped.
var entityTable = []struct {
	entityType constants.EntityType
	patterns   []entityPattern
}{
	{constants.EntityDate, []entityPattern{
		{regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`), 0.9}, // ISO
		{regexp.MustCompile(`\b\d{1,2}[/.]\d{1,2}[/.]\d{2,4}\b`), 0.8},
		{regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}\b`), 0.8},
	}},
	{constants.EntityAmount, []entityPattern{
		{regexp.MustCompile(`\$\s?\d{1,3}(?:,\d{3})*\.\d{2}\b`), 0.9},
		{regexp.MustCompile(`[£€₪]\s?\d{1,3}(?:[,.]\d{3})*(?:\.\d{2})?\b`), 0.85},
		{regexp.MustCompile(`\b\d{1,3}(?:,\d{3})*\.\d{2}\b`), 0.7},
	}},
	{constants.EntityEmail, []entityPattern{
		{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), 0.95},
	}},
	{constants.EntityURL, []entityPattern{
		{regexp.MustCompile(`\bhttps?://\S+\b`), 0.9},
		{regexp.MustCompile(`\bwww\.[A-Za-z0-9.-]+\.[A-Za-z]{2,}\S*`), 0.85},
	}},
	{constants.EntityPhone, []entityPattern{
		{regexp.MustCompile(`\+\d{1,3}[-.\s]?\(?\d{1,3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`), 0.85},
		{regexp.MustCompile(`\(?\d{3}\)?[-.\s]\d{3}[-.\s]\d{4}\b`), 0.8},
	}},
	{constants.EntityCurrency, []entityPattern{
		{regexp.MustCompile(`(?i)\b(USD|EUR|GBP|ILS|CAD|AUD)\b`), 0.85},
	}},
	{constants.EntityDocumentNumber, []entityPattern{
		{regexp.MustCompile(`(?i)\b(?:no|number|#)[:.]?\s*([A-Z0-9][A-Z0-9-]{4,})`), 0.75},
		{regexp.MustCompile(`\b[A-Z]{1,3}-?\d{6,10}\b`), 0.7},
	}},
}

var (
	// "description .... 12.34" with an optional currency symbol on the price.
	reLineItem = regexp.MustCompile(`(?m)^\s*([A-Za-z][\w .,'&/-]{2,49}?)\s{2,}[$£€₪]?(\d{1,4}(?:,\d{3})*\.\d{2})\s*$`)
	// "total / sum / amount due: $N"
	reTotalLine = regexp.MustCompile(`(?im)^\s*(?:grand\s+)?(total|sum|amount\s+due)\s*:?\s*[$£€₪]?\s*(\d{1,6}(?:,\d{3})*\.\d{2})\s*$`)
	reTaxLine   = regexp.MustCompile(`(?im)^\s*(?:sales\s+)?(tax|vat|gst)\s*:?\s*[$£€₪]?\s*(\d{1,6}(?:,\d{3})*\.\d{2})\s*$`)
	reSubLine   = regexp.MustCompile(`(?im)^\s*(sub[ -]?total)\s*:?\s*[$£€₪]?\s*(\d{1,6}(?:,\d{3})*\.\d{2})\s*$`)
	reDiscLine  = regexp.MustCompile(`(?im)^\s*(discount|savings)\s*:?\s*-?[$£€₪]?\s*(\d{1,6}(?:,\d{3})*\.\d{2})\s*$`)

	reAmountClean = regexp.MustCompile(`[^0-9.\-]`)
)

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"02/01/2006",
	"01/02/06",
	"02.01.2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// ParseDate attempts a best-effort parse of a raw date string. The bool is
// false when no known layout applies; callers keep the raw string in that
// case.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseAmount strips currency symbols and separators and parses the number.
func ParseAmount(raw string) (float64, bool) {
	s := reAmountClean.ReplaceAllString(raw, "")
	// commas already removed; guard against multiple dots left by noise
	if strings.Count(s, ".") > 1 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ExtractEntities runs the pattern tables over the OCR text and derives
// typed entities with normalized values. Line items and labeled totals are
// recovered from raw text lines so block segmentation errors do not split
// them.
func ExtractEntities(res ocr.Result) []*Entity {
	var out []*Entity
	text := res.Text

	for _, row := range entityTable {
		claimed := make([][2]int, 0, 4)
		for _, p := range row.patterns {
			for _, loc := range p.re.FindAllStringIndex(text, -1) {
				if overlapsAny(loc, claimed) {
					continue
				}
				claimed = append(claimed, [2]int{loc[0], loc[1]})
				value := text[loc[0]:loc[1]]
				out = append(out, newEntity(row.entityType, value, p.confidence, res.Blocks))
			}
		}
	}

	out = append(out, extractLineItems(text, res.Blocks)...)
	out = append(out, extractLabeledAmounts(text, res.Blocks)...)
	return out
}

func overlapsAny(loc []int, claimed [][2]int) bool {
	for _, c := range claimed {
		if loc[0] < c[1] && c[0] < loc[1] {
			return true
		}
	}
	return false
}

func newEntity(t constants.EntityType, value string, conf float64, blocks []ocr.TextBlock) *Entity {
	e := &Entity{Type: t, Value: value, Confidence: conf}
	e.Normalized = normalize(t, value)
	e.Box = findBox(value, blocks)
	return e
}

func normalize(t constants.EntityType, value string) *NormalizedValue {
	switch t {
	case constants.EntityDate:
		if d, ok := ParseDate(value); ok {
			return &NormalizedValue{Date: &d}
		}
	case constants.EntityAmount, constants.EntityTotal, constants.EntityTax, constants.EntityDiscount:
		if v, ok := ParseAmount(value); ok {
			return &NormalizedValue{Number: &v}
		}
	}
	return nil
}

// findBox returns the box of the first raw block whose text contains the
// matched substring verbatim.
func findBox(value string, blocks []ocr.TextBlock) *ocr.BoundingBox {
	for i := range blocks {
		if strings.Contains(blocks[i].Text, value) {
			box := blocks[i].Box
			return &box
		}
	}
	return nil
}

// extractLineItems recovers "description + trailing number" lines.
func extractLineItems(text string, blocks []ocr.TextBlock) []*Entity {
	var out []*Entity
	for _, m := range reLineItem.FindAllStringSubmatch(text, -1) {
		desc := strings.TrimSpace(m[1])
		if isTotalsLabel(desc) {
			continue
		}
		total, ok := ParseAmount(m[2])
		if !ok {
			continue
		}
		e := &Entity{
			Type:       constants.EntityLineItem,
			Value:      strings.TrimSpace(m[0]),
			Confidence: 0.75,
			Normalized: &NormalizedValue{LineItem: &LineItemValue{Description: desc, Total: total}},
		}
		e.Box = findBox(desc, blocks)
		out = append(out, e)
	}
	return out
}

func isTotalsLabel(s string) bool {
	l := strings.ToLower(s)
	for _, kw := range []string{"total", "subtotal", "sub-total", "tax", "vat", "gst", "change", "cash", "tip", "balance", "amount due"} {
		if strings.Contains(l, kw) {
			return true
		}
	}
	return false
}

// extractLabeledAmounts recovers totals, taxes and discounts from labeled
// lines in the raw text.
func extractLabeledAmounts(text string, blocks []ocr.TextBlock) []*Entity {
	var out []*Entity
	add := func(t constants.EntityType, re *regexp.Regexp, conf float64) {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			v, ok := ParseAmount(m[2])
			if !ok {
				continue
			}
			e := &Entity{
				Type:       t,
				Value:      strings.TrimSpace(m[0]),
				Confidence: conf,
				Normalized: &NormalizedValue{Number: &v},
			}
			e.Box = findBox(m[2], blocks)
			out = append(out, e)
		}
	}
	add(constants.EntityTotal, reTotalLine, 0.85)
	add(constants.EntityTax, reTaxLine, 0.85)
	add(constants.EntityDiscount, reDiscLine, 0.8)
	// Subtotal lines stay typed as amounts; the label survives in Value so
	// relationship extraction can flag them.
	add(constants.EntityAmount, reSubLine, 0.85)
	return out
}

// isSubtotalAmount reports whether an amount entity originates from a
// subtotal-labeled line.
func isSubtotalAmount(e *Entity) bool {
	if e.Type != constants.EntityAmount && e.Type != constants.EntityTotal {
		return false
	}
	l := strings.ToLower(e.Value)
	return strings.Contains(l, "subtotal") || strings.Contains(l, "sub-total") || strings.Contains(l, "sub total")
}
