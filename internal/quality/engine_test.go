package quality

import (
	"strings"
	"testing"

	"github.com/amitayks/visara-docpipe/constants"
	"github.com/amitayks/visara-docpipe/internal/extract"
	"github.com/amitayks/visara-docpipe/internal/ocr"
	"github.com/amitayks/visara-docpipe/internal/understanding"
)

func goodInput() understanding.ContextualResult {
	amount := 6.25
	return understanding.ContextualResult{
		DocumentType: constants.DocTypeReceipt,
		Confidence:   0.85,
		Context: understanding.DocumentContext{
			Layout:     understanding.LayoutInfo{Orientation: "portrait", ColumnCount: 1, TextDirection: "ltr", Confidence: 0.7},
			Entities:   []*understanding.Entity{{Type: constants.EntityTotal, Value: "Total: 6.25", Confidence: 0.85, Normalized: &understanding.NormalizedValue{Number: &amount}}},
			Confidence: 0.8,
			Relationships: []understanding.Relationship{
				{Type: constants.RelationTaxTotal, Confidence: 0.85},
			},
		},
		RawOCR: ocr.Result{
			Text:       strings.Repeat("JOE'S MARKET receipt line with words\n", 6),
			Confidence: 0.9,
			Languages:  []string{"eng"},
			Blocks:     []ocr.TextBlock{{Text: "MARKET", Confidence: 0.9}},
		},
	}
}

func goodOutcome() extract.ExtractionOutcome {
	return extract.ExtractionOutcome{
		Strategy: "receipt",
		Data: extract.ReceiptData{
			Vendor: extract.Vendor{Name: "JOE'S MARKET"},
			Items:  []extract.LineItem{{Description: "Coffee", Total: 5.75}},
			Totals: extract.ReceiptTotals{Subtotal: 5.75, Tax: 0.50, Total: 6.25, Currency: "USD"},
		},
		Validation: extract.ValidationResult{IsValid: true, Confidence: 0.85},
	}
}

func TestAssessHealthyRun(t *testing.T) {
	e, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	rep := e.Assess(goodInput(), goodOutcome())

	for _, score := range []float64{rep.OCRQuality, rep.Completeness, rep.Consistency, rep.Overall} {
		if score < 0 || score > 1 {
			t.Fatalf("score %v out of [0,1]: %+v", score, rep)
		}
	}
	if rep.Overall < 0.6 {
		t.Errorf("overall = %v for a healthy run, want >= 0.6", rep.Overall)
	}
	for _, c := range rep.Checks {
		if c.Name == "ocr_confidence" && !c.Passed {
			t.Error("ocr_confidence failed with confidence 0.9")
		}
		if c.Name == "structure" && !c.Passed {
			t.Errorf("structure check failed: %s", c.Message)
		}
	}
}

func TestAssessFailedChecksBecomeWarnings(t *testing.T) {
	e, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	in := understanding.ContextualResult{
		DocumentType: constants.DocTypeUnknown,
		Confidence:   0.3,
		RawOCR:       ocr.Result{Text: "x", Confidence: 0.2},
	}
	rep := e.Assess(in, extract.ExtractionOutcome{})

	warned := map[string]bool{}
	for _, w := range rep.Warnings {
		warned[w] = true
	}
	for _, c := range rep.Checks {
		if c.Passed {
			continue
		}
		if !warned[c.Message] {
			t.Errorf("failed check %q message not carried into warnings verbatim: %q", c.Name, c.Message)
		}
	}
	if len(rep.Warnings) == 0 {
		t.Fatal("expected warnings for a degraded run")
	}
	if rep.Overall >= 0.6 {
		t.Errorf("overall = %v for a degraded run, want < 0.6", rep.Overall)
	}
}

func TestStructuralSchemaRejectsIncompleteRecord(t *testing.T) {
	e, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	bad := extract.ExtractionOutcome{
		Strategy: "invoice",
		Data:     extract.InvoiceData{}, // no number, no total
	}
	ok, msg := validateStructure(e.schemas, bad.Data)
	if ok {
		t.Fatal("schema accepted an invoice without number or total")
	}
	if !strings.Contains(msg, "invoice") {
		t.Errorf("message %q does not name the record kind", msg)
	}
}

func TestConsistencyPenalizesReceiptArithmetic(t *testing.T) {
	in := goodInput()
	balanced := goodOutcome()
	drifted := goodOutcome()
	d := drifted.Data.(extract.ReceiptData)
	d.Totals.Total = 20.00
	drifted.Data = d

	if consistencyScore(in, balanced) <= consistencyScore(in, drifted) {
		t.Error("drifted receipt arithmetic should lower the consistency score")
	}
}

func TestDirectionConsistent(t *testing.T) {
	in := goodInput()
	in.RawOCR.Languages = []string{"heb"}
	in.Context.Layout.TextDirection = "ltr"
	if directionConsistent(in) {
		t.Error("hebrew language with ltr direction should be inconsistent")
	}
	in.Context.Layout.TextDirection = "rtl"
	if !directionConsistent(in) {
		t.Error("hebrew language with rtl direction should be consistent")
	}
}
