package extract

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/amitayks/visara-docpipe/constants"
	"github.com/amitayks/visara-docpipe/internal/understanding"
)

// ReconcileTolerance is the currency-unit slack allowed when checking that
// receipt components sum to the printed total.
const ReconcileTolerance = 1.0

// roundingSlack is the difference below which totals are considered exact.
const roundingSlack = 0.1

var (
	// qty + unit price + line total: "2 x 4.50 9.00" or "2 @ 4.50 9.00"
	reQtyUnitTotal = regexp.MustCompile(`(?m)^\s*(\d{1,3})\s*[x@]\s*[$£€₪]?(\d+\.\d{2})\s+[$£€₪]?(\d+\.\d{2})\s*$`)
	// "@"-priced: "Bananas @ 0.59/lb 1.18"
	reAtPriced = regexp.MustCompile(`(?m)^\s*([A-Za-z][\w .,'&/-]{2,40}?)\s*@\s*[$£€₪]?(\d+\.\d{2})\S*\s+[$£€₪]?(\d+\.\d{2})\s*$`)
	// amount-only item line: "Coffee 3.50"
	reAmountOnly = regexp.MustCompile(`(?m)^\s*([A-Za-z][\w .,'&/-]{2,40}?)\s+[$£€₪]?(\d+\.\d{2})\s*$`)

	reSubtotal = regexp.MustCompile(`(?i)sub[ -]?total\s*:?\s*[$£€₪]?\s*(\d{1,6}(?:,\d{3})*\.\d{2})`)
	reTaxAmt   = regexp.MustCompile(`(?i)(?:sales\s+)?(?:tax|vat|gst)\s*:?\s*[$£€₪]?\s*(\d{1,6}(?:,\d{3})*\.\d{2})`)
	reTipAmt   = regexp.MustCompile(`(?i)(?:tip|gratuity)\s*:?\s*[$£€₪]?\s*(\d{1,6}(?:,\d{3})*\.\d{2})`)
	// anchored so a "Subtotal" line never claims the total
	reTotalAmt = regexp.MustCompile(`(?im)^\s*(?:grand\s+)?total\s*:?\s*[$£€₪]?\s*(\d{1,6}(?:,\d{3})*\.\d{2})`)

	reMaskedCard = regexp.MustCompile(`(?:\*{4}|x{4}|X{4})[ -]?\d{4}`)

	reCashier  = regexp.MustCompile(`(?im)^\s*(?:cashier|served\s+by|operator)\s*:?\s*(.+)$`)
	reRegister = regexp.MustCompile(`(?im)^\s*(?:register|reg|terminal|pos)\s*[:#]?\s*(\w+)\s*$`)
	reStore    = regexp.MustCompile(`(?im)^\s*(?:store|branch|location)\s*[:#]?\s*(.+)$`)

	rePhoneLine   = regexp.MustCompile(`(?:\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]\d{3}[-.\s]\d{4}`)
	reWebsiteLine = regexp.MustCompile(`(?i)(?:https?://|www\.)\S+`)
	reAddressHint = regexp.MustCompile(`(?i)\b(street|st\.?|ave\.?|avenue|road|rd\.?|blvd|suite|drive|dr\.?)\b|\d{5}(-\d{4})?\b`)
)

// paymentKeywords map recognizable payment words to the canonical method.
var paymentKeywords = []struct{ keyword, method string }{
	{"visa", "VISA"},
	{"mastercard", "MASTERCARD"},
	{"amex", "AMEX"},
	{"american express", "AMEX"},
	{"debit", "DEBIT"},
	{"credit", "CREDIT"},
	{"cash", "CASH"},
	{"check", "CHECK"},
	{"apple pay", "APPLE_PAY"},
	{"google pay", "GOOGLE_PAY"},
}

// ReceiptStrategy extracts retail receipts.
type ReceiptStrategy struct {
	logger *slog.Logger
}

func NewReceiptStrategy(logger *slog.Logger) *ReceiptStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReceiptStrategy{logger: logger}
}

func (s *ReceiptStrategy) Name() string { return "receipt" }

func (s *ReceiptStrategy) Extract(ctx context.Context, in understanding.ContextualResult) (StructuredData, error) {
	text := in.RawOCR.Text
	lines := splitLines(text)

	data := ReceiptData{
		Vendor:        s.extractVendor(lines, in),
		Items:         s.extractItems(text, in),
		Totals:        s.extractTotals(text, in),
		PaymentMethod: s.extractPayment(text),
		Metadata:      s.extractMetadata(text),
	}
	for _, e := range in.Context.EntitiesOfType(constants.EntityDate) {
		if d, ok := e.NormalizedDate(); ok {
			data.Date = &d
			break
		}
	}
	return data, nil
}

// extractVendor prefers organization entities, then falls back to the first
// line that is not an address, amount or date.
func (s *ReceiptStrategy) extractVendor(lines []string, in understanding.ContextualResult) Vendor {
	v := Vendor{}
	if orgs := in.Context.EntitiesOfType(constants.EntityOrganization); len(orgs) > 0 {
		v.Name = orgs[0].Value
	}
	for _, line := range lines {
		if v.Name == "" && isVendorNameLine(line) {
			v.Name = line
		}
		if v.Address == "" && reAddressHint.MatchString(line) && !reTotalAmt.MatchString(line) {
			v.Address = line
		}
		if v.Phone == "" {
			if m := rePhoneLine.FindString(line); m != "" {
				v.Phone = m
			}
		}
		if v.Website == "" {
			if m := reWebsiteLine.FindString(line); m != "" {
				v.Website = m
			}
		}
	}
	return v
}

func isVendorNameLine(line string) bool {
	if reAddressHint.MatchString(line) || rePhoneLine.MatchString(line) {
		return false
	}
	if _, ok := understanding.ParseDate(line); ok {
		return false
	}
	if _, ok := understanding.ParseAmount(line); ok && len(strings.Fields(line)) <= 2 {
		return false
	}
	if containsAny(line, "receipt", "total", "subtotal", "tax", "change", "cash") {
		return false
	}
	return len(line) >= 2
}

// extractItems takes line-item entities first, then sweeps the raw text with
// three line patterns for anything the entity pass missed.
func (s *ReceiptStrategy) extractItems(text string, in understanding.ContextualResult) []LineItem {
	items := make([]LineItem, 0, 8)
	seen := map[string]bool{}

	for _, e := range in.Context.EntitiesOfType(constants.EntityLineItem) {
		if e.Normalized == nil || e.Normalized.LineItem == nil {
			continue
		}
		li := e.Normalized.LineItem
		key := strings.ToLower(li.Description)
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, LineItem{
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Total:       li.Total,
		})
	}

	for _, m := range reQtyUnitTotal.FindAllStringSubmatch(text, -1) {
		qty, _ := understanding.ParseAmount(m[1])
		unit, _ := understanding.ParseAmount(m[2])
		total, _ := understanding.ParseAmount(m[3])
		key := fmt.Sprintf("%v x %v", qty, unit)
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, LineItem{Description: strings.TrimSpace(m[0]), Quantity: qty, UnitPrice: unit, Total: total})
	}
	for _, m := range reAtPriced.FindAllStringSubmatch(text, -1) {
		desc := strings.TrimSpace(m[1])
		key := strings.ToLower(desc)
		if seen[key] {
			continue
		}
		seen[key] = true
		unit, _ := understanding.ParseAmount(m[2])
		total, _ := understanding.ParseAmount(m[3])
		items = append(items, LineItem{Description: desc, UnitPrice: unit, Total: total})
	}
	for _, m := range reAmountOnly.FindAllStringSubmatch(text, -1) {
		desc := strings.TrimSpace(m[1])
		if containsAny(desc, "total", "subtotal", "tax", "tip", "change", "cash", "balance", "due") {
			continue
		}
		key := strings.ToLower(desc)
		if seen[key] {
			continue
		}
		seen[key] = true
		total, _ := understanding.ParseAmount(m[2])
		items = append(items, LineItem{Description: desc, Total: total})
	}
	return items
}

// extractTotals reads the monetary summary from entities with a regex
// fallback, then reconciles a missing component when the other two are known.
func (s *ReceiptStrategy) extractTotals(text string, in understanding.ContextualResult) ReceiptTotals {
	t := ReceiptTotals{Currency: detectCurrency(text)}

	for _, e := range in.Context.EntitiesOfType(constants.EntityTotal) {
		if v, ok := e.NormalizedNumber(); ok && t.Total == 0 {
			t.Total = v
		}
	}
	for _, e := range in.Context.EntitiesOfType(constants.EntityTax) {
		if v, ok := e.NormalizedNumber(); ok && t.Tax == 0 {
			t.Tax = v
		}
	}

	if m := reSubtotal.FindStringSubmatch(text); m != nil {
		if v, ok := understanding.ParseAmount(m[1]); ok {
			t.Subtotal = v
		}
	}
	if t.Tax == 0 {
		if m := reTaxAmt.FindStringSubmatch(text); m != nil {
			if v, ok := understanding.ParseAmount(m[1]); ok {
				t.Tax = v
			}
		}
	}
	if m := reTipAmt.FindStringSubmatch(text); m != nil {
		if v, ok := understanding.ParseAmount(m[1]); ok {
			t.Tip = v
		}
	}
	if t.Total == 0 {
		if m := reTotalAmt.FindStringSubmatch(text); m != nil {
			if v, ok := understanding.ParseAmount(m[1]); ok {
				t.Total = v
			}
		}
	}

	// total = subtotal + tax + tip when exactly one of total/subtotal is missing
	if t.Total == 0 && t.Subtotal > 0 {
		t.Total = t.Subtotal + t.Tax + t.Tip
	} else if t.Subtotal == 0 && t.Total > 0 && (t.Tax > 0 || t.Tip > 0) {
		t.Subtotal = t.Total - t.Tax - t.Tip
	}
	return t
}

func detectCurrency(text string) string {
	switch {
	case strings.Contains(text, "₪") || containsAny(text, "ils", "nis", "shekel"):
		return "ILS"
	case strings.Contains(text, "€") || containsAny(text, " eur"):
		return "EUR"
	case strings.Contains(text, "£") || containsAny(text, " gbp"):
		return "GBP"
	default:
		return "USD"
	}
}

func (s *ReceiptStrategy) extractPayment(text string) string {
	l := strings.ToLower(text)
	for _, pk := range paymentKeywords {
		if strings.Contains(l, pk.keyword) {
			return pk.method
		}
	}
	if reMaskedCard.MatchString(text) {
		return "CARD"
	}
	return ""
}

func (s *ReceiptStrategy) extractMetadata(text string) ReceiptMetadata {
	md := ReceiptMetadata{}
	if m := reCashier.FindStringSubmatch(text); m != nil {
		md.Cashier = strings.TrimSpace(m[1])
	}
	if m := reRegister.FindStringSubmatch(text); m != nil {
		md.Register = strings.TrimSpace(m[1])
	}
	if m := reStore.FindStringSubmatch(text); m != nil {
		md.Store = strings.TrimSpace(m[1])
	}
	return md
}

// Validate starts from a receipt base confidence and adjusts for missing
// fields and arithmetic consistency.
func (s *ReceiptStrategy) Validate(data StructuredData) ValidationResult {
	r, ok := data.(ReceiptData)
	if !ok {
		return ValidationResult{Errors: []string{"receipt validator received a non-receipt record"}}
	}

	res := ValidationResult{IsValid: true, Confidence: 0.6}

	if r.Vendor.Name == "" {
		res.Confidence -= 0.15
		res.Warnings = append(res.Warnings, "vendor name missing")
		res.Suggestions = append(res.Suggestions, "check the top lines of the receipt for the store name")
	} else {
		res.Confidence += 0.1
	}
	if r.Totals.Total == 0 {
		res.IsValid = false
		res.Confidence -= 0.25
		res.Errors = append(res.Errors, "total amount missing")
	} else {
		res.Confidence += 0.15
	}
	if len(r.Items) == 0 {
		res.Confidence -= 0.1
		res.Warnings = append(res.Warnings, "no line items recognized")
	} else {
		res.Confidence += 0.1
	}
	if r.Date == nil {
		res.Warnings = append(res.Warnings, "transaction date missing")
		res.Confidence -= 0.05
	}

	// Component reconciliation: exact within rounding slack is fine, a drift
	// up to the tolerance is a warning, beyond it the record is inconsistent.
	if r.Totals.Subtotal > 0 && r.Totals.Total > 0 {
		diff := math.Abs(r.Totals.Subtotal + r.Totals.Tax + r.Totals.Tip - r.Totals.Total)
		if diff > roundingSlack {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"receipt components do not sum to total (off by %.2f)", diff))
			res.Confidence -= 0.1
		}
		if diff > ReconcileTolerance {
			res.IsValid = false
			res.Errors = append(res.Errors, "subtotal, tax and tip are inconsistent with the total")
			res.Confidence -= 0.1
		}
	}

	// Items summing to the subtotal is a strong signal.
	if len(r.Items) > 0 && r.Totals.Subtotal > 0 {
		var sum float64
		for _, it := range r.Items {
			sum += it.Total
		}
		if math.Abs(sum-r.Totals.Subtotal) <= ReconcileTolerance {
			res.Confidence += 0.1
		} else {
			res.Warnings = append(res.Warnings, "line items do not sum to subtotal")
			res.Confidence -= 0.05
		}
	}

	res.Confidence = clamp01(res.Confidence)
	return res
}
