package understanding

import (
	"testing"
	"time"

	"github.com/amitayks/visara-docpipe/constants"
	"github.com/amitayks/visara-docpipe/internal/ocr"
)

func entitiesOf(entities []*Entity, t constants.EntityType) []*Entity {
	var out []*Entity
	for _, e := range entities {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestExtractEntitiesLabeledAmounts(t *testing.T) {
	res := ocr.Result{Text: "Groceries\nSubtotal: 10.00\nTax: 0.80\nTotal: 10.80\n"}
	entities := ExtractEntities(res)

	totals := entitiesOf(entities, constants.EntityTotal)
	if len(totals) != 1 {
		t.Fatalf("got %d total entities, want 1", len(totals))
	}
	if v, ok := totals[0].NormalizedNumber(); !ok || v != 10.80 {
		t.Errorf("total normalized = %v (ok=%v), want 10.80", v, ok)
	}

	taxes := entitiesOf(entities, constants.EntityTax)
	if len(taxes) != 1 {
		t.Fatalf("got %d tax entities, want 1", len(taxes))
	}
	if v, ok := taxes[0].NormalizedNumber(); !ok || v != 0.80 {
		t.Errorf("tax normalized = %v (ok=%v), want 0.80", v, ok)
	}

	var subtotal *Entity
	for _, e := range entitiesOf(entities, constants.EntityAmount) {
		if isSubtotalAmount(e) {
			subtotal = e
			break
		}
	}
	if subtotal == nil {
		t.Fatal("no subtotal-labeled amount entity found")
	}
	if v, ok := subtotal.NormalizedNumber(); !ok || v != 10.00 {
		t.Errorf("subtotal normalized = %v (ok=%v), want 10.00", v, ok)
	}
}

func TestExtractEntitiesLineItems(t *testing.T) {
	res := ocr.Result{Text: "Coffee  3.50\nBagel  2.25\nTotal: 5.75\n"}
	entities := ExtractEntities(res)

	items := entitiesOf(entities, constants.EntityLineItem)
	if len(items) != 2 {
		t.Fatalf("got %d line item entities, want 2", len(items))
	}
	li := items[0].Normalized.LineItem
	if li.Description != "Coffee" || li.Total != 3.50 {
		t.Errorf("first item = %q/%v, want Coffee/3.50", li.Description, li.Total)
	}
}

func TestExtractEntitiesContact(t *testing.T) {
	res := ocr.Result{Text: "support@example.com\nwww.example.com\n(555) 123-4567\n"}
	entities := ExtractEntities(res)

	if got := entitiesOf(entities, constants.EntityEmail); len(got) != 1 {
		t.Errorf("got %d email entities, want 1", len(got))
	}
	if got := entitiesOf(entities, constants.EntityURL); len(got) != 1 {
		t.Errorf("got %d url entities, want 1", len(got))
	}
	if got := entitiesOf(entities, constants.EntityPhone); len(got) != 1 {
		t.Errorf("got %d phone entities, want 1", len(got))
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"$1,234.56", 1234.56, true},
		{"12.50", 12.50, true},
		{"₪45.00", 45.00, true},
		{"€ 9.99", 9.99, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseAmount(%q) = (%v, %v), want (%v, %v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
		ok   bool
	}{
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"03/05/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"Jan 2, 2024", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"not a date", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.raw)
		if ok != tt.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
