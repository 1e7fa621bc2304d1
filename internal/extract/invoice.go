package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amitayks/visara-docpipe/constants"
	"github.com/amitayks/visara-docpipe/internal/understanding"
)

var (
	reInvoiceNo  = regexp.MustCompile(`(?i)invoice\s*(?:no|number|#)?[:.]?\s*([A-Z0-9][A-Z0-9-]{2,})`)
	reIssueDate  = regexp.MustCompile(`(?i)(?:invoice\s+date|issue\s+date|date)\s*:?\s*(\S+(?:\s+\d{1,2},?\s+\d{4})?)`)
	reDueDate    = regexp.MustCompile(`(?i)due\s+date\s*:?\s*(\S+(?:\s+\d{1,2},?\s+\d{4})?)`)
	reNetTerms   = regexp.MustCompile(`(?i)\bnet\s+(\d{1,3})\b`)
	reFromBlock  = regexp.MustCompile(`(?im)^\s*from\s*:?\s*$`)
	reBillTo     = regexp.MustCompile(`(?im)^\s*(?:bill\s+to|billed\s+to|customer)\s*:?\s*$`)
	reTaxID      = regexp.MustCompile(`(?i)(?:tax\s*id|vat\s*(?:no|number)|ein)[:.]?\s*([A-Z0-9-]{5,})`)
	reInlineFrom = regexp.MustCompile(`(?im)^\s*from\s*:\s*(.+)$`)
	reInlineBill = regexp.MustCompile(`(?im)^\s*(?:bill\s+to|billed\s+to)\s*:\s*(.+)$`)
)

// InvoiceStrategy extracts invoices.
type InvoiceStrategy struct {
	logger *slog.Logger
}

func NewInvoiceStrategy(logger *slog.Logger) *InvoiceStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoiceStrategy{logger: logger}
}

func (s *InvoiceStrategy) Name() string { return "invoice" }

func (s *InvoiceStrategy) Extract(ctx context.Context, in understanding.ContextualResult) (StructuredData, error) {
	text := in.RawOCR.Text
	lines := splitLines(text)

	data := InvoiceData{
		Number:   s.extractNumber(text, in),
		Vendor:   parseBusinessBlock(blockAfter(lines, reFromBlock, reInlineFrom)),
		Customer: parseBusinessBlock(blockAfter(lines, reBillTo, reInlineBill)),
		Totals:   s.extractTotals(text),
	}
	data.IssueDate, data.DueDate, data.Terms = s.extractDates(text)
	data.Items = invoiceItems(in)
	return data, nil
}

func (s *InvoiceStrategy) extractNumber(text string, in understanding.ContextualResult) string {
	for _, e := range in.Context.EntitiesOfType(constants.EntityDocumentNumber) {
		if containsAny(e.Value, "invoice") {
			if m := reInvoiceNo.FindStringSubmatch(e.Value); m != nil {
				return m[1]
			}
		}
	}
	if m := reInvoiceNo.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// extractDates reads labeled issue/due dates. A missing due date is derived
// from "Net N" payment terms applied to the issue date.
func (s *InvoiceStrategy) extractDates(text string) (issue, due *time.Time, terms string) {
	// a bare "Date" label starting inside a "Due Date" label is the due
	// date, not the issue date
	dueSpans := reDueDate.FindAllStringIndex(text, -1)
	for _, m := range reIssueDate.FindAllStringSubmatchIndex(text, -1) {
		if withinSpans(m[0], dueSpans) {
			continue
		}
		if d, ok := understanding.ParseDate(strings.TrimSpace(text[m[2]:m[3]])); ok {
			issue = &d
			break
		}
	}
	if m := reDueDate.FindStringSubmatch(text); m != nil {
		if d, ok := understanding.ParseDate(strings.TrimSpace(m[1])); ok {
			due = &d
		}
	}
	if m := reNetTerms.FindStringSubmatch(text); m != nil {
		terms = "Net " + m[1]
		if due == nil && issue != nil {
			if days, err := strconv.Atoi(m[1]); err == nil {
				d := issue.AddDate(0, 0, days)
				due = &d
			}
		}
	}
	return issue, due, terms
}

func (s *InvoiceStrategy) extractTotals(text string) InvoiceTotals {
	t := InvoiceTotals{Currency: detectCurrency(text)}
	if m := reSubtotal.FindStringSubmatch(text); m != nil {
		if v, ok := understanding.ParseAmount(m[1]); ok {
			t.Subtotal = v
		}
	}
	if m := reTaxAmt.FindStringSubmatch(text); m != nil {
		if v, ok := understanding.ParseAmount(m[1]); ok {
			t.Tax = v
		}
	}
	if m := reTotalAmt.FindStringSubmatch(text); m != nil {
		if v, ok := understanding.ParseAmount(m[1]); ok {
			t.Total = v
		}
	}
	if t.Total == 0 && t.Subtotal > 0 {
		t.Total = t.Subtotal + t.Tax
	}
	return t
}

func withinSpans(pos int, spans [][]int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}

func invoiceItems(in understanding.ContextualResult) []LineItem {
	var items []LineItem
	for _, e := range in.Context.EntitiesOfType(constants.EntityLineItem) {
		if e.Normalized == nil || e.Normalized.LineItem == nil {
			continue
		}
		li := e.Normalized.LineItem
		items = append(items, LineItem{
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Total:       li.Total,
		})
	}
	return items
}

// blockAfter returns the lines following a block label ("From:", "Bill To:")
// until a blank-ish boundary, or the inline remainder when the label and the
// first line share a row.
func blockAfter(lines []string, label, inline *regexp.Regexp) []string {
	for i, line := range lines {
		if m := inline.FindStringSubmatch(line); m != nil {
			block := []string{strings.TrimSpace(m[1])}
			block = append(block, continuationLines(lines, i+1)...)
			return block
		}
		if label.MatchString(line) {
			return continuationLines(lines, i+1)
		}
	}
	return nil
}

// continuationLines collects up to five lines until another labeled section
// begins.
func continuationLines(lines []string, from int) []string {
	var out []string
	for i := from; i < len(lines) && len(out) < 5; i++ {
		l := lines[i]
		if reFromBlock.MatchString(l) || reBillTo.MatchString(l) ||
			reInvoiceNo.MatchString(l) || reTotalAmt.MatchString(l) ||
			reSubtotal.MatchString(l) || reDueDate.MatchString(l) {
			break
		}
		out = append(out, l)
	}
	return out
}

// parseBusinessBlock classifies each line of a party block as name, tax ID,
// phone, email or address continuation. The first unclassified line is the
// name; later unclassified lines accrete onto the address.
func parseBusinessBlock(lines []string) BusinessParty {
	p := BusinessParty{}
	var addr []string
	for _, line := range lines {
		switch {
		case p.TaxID == "" && reTaxID.MatchString(line):
			p.TaxID = reTaxID.FindStringSubmatch(line)[1]
		case p.Email == "" && strings.Contains(line, "@") && !strings.Contains(line, " @"):
			p.Email = strings.TrimSpace(line)
		case p.Phone == "" && rePhoneLine.MatchString(line):
			p.Phone = rePhoneLine.FindString(line)
		case p.Name == "":
			p.Name = line
		default:
			addr = append(addr, line)
		}
	}
	p.Address = strings.Join(addr, ", ")
	return p
}

// Validate checks the invoice's required fields and date ordering.
func (s *InvoiceStrategy) Validate(data StructuredData) ValidationResult {
	inv, ok := data.(InvoiceData)
	if !ok {
		return ValidationResult{Errors: []string{"invoice validator received a non-invoice record"}}
	}

	res := ValidationResult{IsValid: true, Confidence: 0.55}

	if inv.Number == "" {
		res.Confidence -= 0.15
		res.Warnings = append(res.Warnings, "invoice number missing")
	} else {
		res.Confidence += 0.15
	}
	if inv.Totals.Total == 0 {
		res.IsValid = false
		res.Confidence -= 0.2
		res.Errors = append(res.Errors, "invoice total missing")
	} else {
		res.Confidence += 0.15
	}
	if inv.Vendor.Name == "" {
		res.Warnings = append(res.Warnings, "vendor block not found")
		res.Confidence -= 0.1
	} else {
		res.Confidence += 0.05
	}
	if inv.Customer.Name == "" {
		res.Warnings = append(res.Warnings, "customer block not found")
		res.Confidence -= 0.05
	} else {
		res.Confidence += 0.05
	}
	if inv.IssueDate == nil {
		res.Warnings = append(res.Warnings, "issue date missing")
		res.Confidence -= 0.05
	} else {
		res.Confidence += 0.05
	}
	if inv.IssueDate != nil && inv.DueDate != nil && inv.DueDate.Before(*inv.IssueDate) {
		res.Warnings = append(res.Warnings, "due date precedes issue date")
		res.Confidence -= 0.1
	}

	res.Confidence = clamp01(res.Confidence)
	return res
}
