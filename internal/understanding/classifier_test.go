package understanding

import (
	"testing"

	"github.com/amitayks/visara-docpipe/constants"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantType constants.DocumentType
		minConf  float64
	}{
		{
			name:     "receipt with totals and payment",
			text:     "RECEIPT\nTotal: $12.50\nTax: $1.00\nCash",
			wantType: constants.DocTypeReceipt,
			minConf:  0.6,
		},
		{
			name:     "invoice with billing block",
			text:     "INVOICE #2024-001\nBill To: Acme Corp\nDue Date: 2024-02-01",
			wantType: constants.DocTypeInvoice,
			minConf:  0.6,
		},
		{
			name:     "passport visual zone",
			text:     "PASSPORT\nNationality: Utopian\nPlace of Birth: Zenith City",
			wantType: constants.DocTypePassport,
			minConf:  0.6,
		},
		{
			name:     "drivers license",
			text:     "DRIVER'S LICENSE\nClass: C\nDL No: D1234567\nRestrictions: NONE",
			wantType: constants.DocTypeDriversLicense,
			minConf:  0.6,
		},
		{
			name:     "bank statement",
			text:     "Bank Statement\nOpening Balance 500.00\nDeposit 120.00\nClosing Balance 620.00",
			wantType: constants.DocTypeBankStatement,
			minConf:  0.6,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotConf := Classify(tt.text)
			if gotType != tt.wantType {
				t.Fatalf("Classify() type = %v, want %v", gotType, tt.wantType)
			}
			if gotConf < tt.minConf {
				t.Errorf("Classify() confidence = %v, want >= %v", gotConf, tt.minConf)
			}
			if gotConf > 0.9 {
				t.Errorf("Classify() confidence = %v, exceeds 0.9 cap", gotConf)
			}
		})
	}
}

func TestClassifyUnknown(t *testing.T) {
	gotType, gotConf := Classify("the quick brown fox jumps over a lazy dog")
	if gotType != constants.DocTypeUnknown {
		t.Fatalf("Classify() type = %v, want %v", gotType, constants.DocTypeUnknown)
	}
	if gotConf != UnknownConfidence {
		t.Errorf("Classify() confidence = %v, want %v", gotConf, UnknownConfidence)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	text := "RECEIPT\nTotal: $9.99\nCash"
	firstType, firstConf := Classify(text)
	for i := 0; i < 10; i++ {
		gotType, gotConf := Classify(text)
		if gotType != firstType || gotConf != firstConf {
			t.Fatalf("run %d: Classify() = (%v, %v), first run was (%v, %v)",
				i, gotType, gotConf, firstType, firstConf)
		}
	}
}
