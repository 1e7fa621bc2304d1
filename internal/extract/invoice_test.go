package extract

import (
	"context"
	"testing"
	"time"

	"github.com/amitayks/visara-docpipe/constants"
)

const sampleInvoice = `INVOICE #INV-100
Invoice Date: 2024-01-15
Net 30
From:
Acme Supplies
123 Elm Street
Bill To:
Widget Works
Subtotal: 1,000.00
Tax: 80.00
Total: 1,080.00`

func TestInvoiceExtract(t *testing.T) {
	s := NewInvoiceStrategy(nil)
	in := contextualInput(sampleInvoice, constants.DocTypeInvoice, 0.9)

	data, err := s.Extract(context.Background(), in)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	inv, ok := data.(InvoiceData)
	if !ok {
		t.Fatalf("Extract() returned %T, want InvoiceData", data)
	}

	if inv.Number != "INV-100" {
		t.Errorf("number = %q, want INV-100", inv.Number)
	}
	if inv.Vendor.Name != "Acme Supplies" {
		t.Errorf("vendor = %q, want Acme Supplies", inv.Vendor.Name)
	}
	if inv.Customer.Name != "Widget Works" {
		t.Errorf("customer = %q, want Widget Works", inv.Customer.Name)
	}
	if inv.Totals.Subtotal != 1000.00 || inv.Totals.Tax != 80.00 || inv.Totals.Total != 1080.00 {
		t.Errorf("totals = %+v, want 1000.00/80.00/1080.00", inv.Totals)
	}
	if inv.Terms != "Net 30" {
		t.Errorf("terms = %q, want Net 30", inv.Terms)
	}
}

func TestInvoiceDueDateFromNetTerms(t *testing.T) {
	s := NewInvoiceStrategy(nil)
	issue, due, terms := s.extractDates("Invoice Date: 2024-01-15\nNet 30\n")

	if issue == nil {
		t.Fatal("issue date not parsed")
	}
	if terms != "Net 30" {
		t.Errorf("terms = %q, want Net 30", terms)
	}
	if due == nil {
		t.Fatal("due date not derived from terms")
	}
	want := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)
	if !due.Equal(want) {
		t.Errorf("due date = %v, want %v", due, want)
	}
}

func TestInvoiceExplicitDueDateWins(t *testing.T) {
	s := NewInvoiceStrategy(nil)
	_, due, _ := s.extractDates("Invoice Date: 2024-01-15\nDue Date: 2024-03-01\nNet 30\n")
	if due == nil {
		t.Fatal("due date not parsed")
	}
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !due.Equal(want) {
		t.Errorf("due date = %v, want %v", due, want)
	}
}

func TestInvoiceDueDateOnlyLeavesIssueDateUnset(t *testing.T) {
	s := NewInvoiceStrategy(nil)
	issue, due, _ := s.extractDates("Due Date: 2024-03-01\n")

	if issue != nil {
		t.Errorf("issue date = %v from a due-date label alone, want nil", issue)
	}
	if due == nil {
		t.Fatal("due date not parsed")
	}
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !due.Equal(want) {
		t.Errorf("due date = %v, want %v", due, want)
	}
}

func TestInvoiceValidate(t *testing.T) {
	s := NewInvoiceStrategy(nil)

	res := s.Validate(InvoiceData{})
	if res.IsValid {
		t.Error("IsValid = true for an empty invoice")
	}

	issue := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	due := issue.AddDate(0, 0, -5)
	res = s.Validate(InvoiceData{
		Number:    "INV-1",
		IssueDate: &issue,
		DueDate:   &due,
		Vendor:    BusinessParty{Name: "Acme"},
		Totals:    InvoiceTotals{Total: 100, Currency: "USD"},
	})
	found := false
	for _, w := range res.Warnings {
		if w == "due date precedes issue date" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a date-ordering warning, got %v", res.Warnings)
	}
}
