package extract

import (
	"context"
	"testing"

	"github.com/amitayks/visara-docpipe/constants"
)

func TestRegistryForType(t *testing.T) {
	r := NewRegistry(nil)
	tests := []struct {
		docType constants.DocumentType
		want    string
	}{
		{constants.DocTypeReceipt, "receipt"},
		{constants.DocTypeInvoice, "invoice"},
		{constants.DocTypeIDCard, "id"},
		{constants.DocTypeDriversLicense, "id"},
		{constants.DocTypePassport, "passport"},
		{constants.DocTypeContract, "generic"},
		{constants.DocTypeUnknown, "generic"},
	}
	for _, tt := range tests {
		s := r.ForType(tt.docType)
		if s == nil {
			t.Fatalf("ForType(%v) = nil", tt.docType)
		}
		if s.Name() != tt.want {
			t.Errorf("ForType(%v) = %q, want %q", tt.docType, s.Name(), tt.want)
		}
	}
}

func TestRegistryBestKeepsConfidentType(t *testing.T) {
	r := NewRegistry(nil)
	in := contextualInput("RECEIPT\nTotal: 5.00", constants.DocTypeReceipt, 0.9)

	s, docType, conf := r.Best(in)
	if s.Name() != "receipt" || docType != constants.DocTypeReceipt {
		t.Errorf("Best() = (%s, %v), want receipt", s.Name(), docType)
	}
	if conf != 0.9 {
		t.Errorf("confidence = %v, want the classifier's 0.9", conf)
	}
}

func TestRegistryBestReselectsOnLowConfidence(t *testing.T) {
	r := NewRegistry(nil)
	in := contextualInput("Passport\nNationality: Utopian\nSurname: Doe", constants.DocTypeUnknown, 0.3)

	s, docType, conf := r.Best(in)
	if docType != constants.DocTypePassport {
		t.Fatalf("Best() type = %v, want passport", docType)
	}
	if s.Name() != "passport" {
		t.Errorf("Best() strategy = %q, want passport", s.Name())
	}
	if conf <= 0.3 {
		t.Errorf("confidence = %v, want above the classifier's 0.3", conf)
	}
	if conf > 0.95 {
		t.Errorf("confidence = %v, exceeds the fit score cap", conf)
	}
}

func TestCompareAlternativesSkipsWhenConfident(t *testing.T) {
	r := NewRegistry(nil)
	in := contextualInput(sampleReceipt, constants.DocTypeReceipt, 0.9)
	primary := ExtractionOutcome{Strategy: "receipt", Validation: ValidationResult{Confidence: 0.8}}

	cmp := r.CompareAlternatives(context.Background(), in, primary, 0.9)
	if len(cmp.Alternatives) != 0 {
		t.Errorf("got %d alternatives above the compare threshold, want 0", len(cmp.Alternatives))
	}
	if cmp.SwitchRecommended {
		t.Error("switch recommended without running alternatives")
	}
}

func TestCompareAlternativesCapsProbes(t *testing.T) {
	r := NewRegistry(nil)
	in := contextualInput(sampleReceipt, constants.DocTypeReceipt, 0.5)
	primary := ExtractionOutcome{Strategy: "receipt", Validation: ValidationResult{Confidence: 0.9}}

	cmp := r.CompareAlternatives(context.Background(), in, primary, 0.5)
	if len(cmp.Alternatives) == 0 {
		t.Fatal("expected alternatives below the compare threshold")
	}
	if len(cmp.Alternatives) > 2 {
		t.Errorf("got %d alternatives, want at most 2", len(cmp.Alternatives))
	}
	if cmp.SwitchRecommended {
		t.Error("no alternative should outscore a 0.9 primary validation by the switch margin")
	}
	if cmp.Primary.Strategy != "receipt" {
		t.Errorf("primary mutated: %+v", cmp.Primary)
	}
}
