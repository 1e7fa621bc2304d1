package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/amitayks/visara-docpipe/constants"
	"github.com/amitayks/visara-docpipe/internal/extract"
	"github.com/amitayks/visara-docpipe/internal/pipeline"
)

func sampleResults() []*pipeline.Result {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	return []*pipeline.Result{
		{
			DocumentType: constants.DocTypeReceipt,
			Confidence:   0.82,
			Structured: extract.ReceiptData{
				Vendor: extract.Vendor{Name: "JOE'S MARKET"},
				Date:   &date,
				Totals: extract.ReceiptTotals{Total: 6.25, Currency: "USD"},
			},
			Metadata: pipeline.Metadata{RunID: "run-1", ImageRef: "a.png"},
		},
		{
			DocumentType: constants.DocTypeUnknown,
			Structured:   extract.GenericData{Title: "Processing Failed"},
			Metadata:     pipeline.Metadata{RunID: "run-2", ImageRef: "b.png", Error: "ocr failed", FallbackUsed: true},
		},
	}
}

func TestWriteXLSX(t *testing.T) {
	s := NewService(nil, "Documents")
	path := filepath.Join(t.TempDir(), "out.xlsx")

	if err := s.WriteXLSX(path, sampleResults()); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Documents")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header plus 2 results", len(rows))
	}
	if rows[0][0] != "Run ID" {
		t.Errorf("header = %q, want Run ID", rows[0][0])
	}
	if rows[1][3] != "JOE'S MARKET" {
		t.Errorf("receipt summary = %q, want the vendor name", rows[1][3])
	}
	if rows[2][9] != "failed" {
		t.Errorf("failed run status = %q, want failed", rows[2][9])
	}
}

func TestSummarizePerKind(t *testing.T) {
	expiry := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	id := extract.IDData{
		Personal: extract.PersonalInfo{FirstName: "Anna", LastName: "Eriksson"},
		Document: extract.DocumentInfo{Number: "X1", ExpiryDate: &expiry},
	}
	summary, amount, _, date := summarize(id)
	if summary != "Anna Eriksson" {
		t.Errorf("summary = %q, want the holder name", summary)
	}
	if amount != 0 {
		t.Errorf("amount = %v for an id document, want 0", amount)
	}
	if date != "2030-01-02" {
		t.Errorf("date = %q, want 2030-01-02", date)
	}

	inv := extract.InvoiceData{Number: "INV-9", Vendor: extract.BusinessParty{Name: "Acme"}, Totals: extract.InvoiceTotals{Total: 12, Currency: "USD"}}
	summary, amount, currency, _ := summarize(inv)
	if summary != "Acme #INV-9" || amount != 12 || currency != "USD" {
		t.Errorf("invoice summary = (%q, %v, %q)", summary, amount, currency)
	}
}
