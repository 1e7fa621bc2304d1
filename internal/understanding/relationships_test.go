package understanding

import (
	"testing"

	"github.com/amitayks/visara-docpipe/constants"
	"github.com/amitayks/visara-docpipe/internal/ocr"
)

func boxAt(y float64) *ocr.BoundingBox {
	return &ocr.BoundingBox{X: 0, Y: y, Width: 100, Height: 20}
}

func TestItemPriceRelationships(t *testing.T) {
	item := &Entity{Type: constants.EntityLineItem, Value: "Coffee", Confidence: 0.75, Box: boxAt(100)}
	near := &Entity{Type: constants.EntityAmount, Value: "3.50", Confidence: 0.9, Box: boxAt(110)}
	far := &Entity{Type: constants.EntityAmount, Value: "99.00", Confidence: 0.9, Box: boxAt(400)}

	rels := ExtractRelationships([]*Entity{item, near, far})

	var itemPrice []Relationship
	for _, r := range rels {
		if r.Type == constants.RelationItemPrice {
			itemPrice = append(itemPrice, r)
		}
	}
	if len(itemPrice) != 1 {
		t.Fatalf("got %d item-price relationships, want 1", len(itemPrice))
	}
	if itemPrice[0].Target != near {
		t.Errorf("item paired with %q, want the nearby amount", itemPrice[0].Target.Value)
	}
	if want := (0.75 + 0.9) / 2; itemPrice[0].Confidence != want {
		t.Errorf("confidence = %v, want %v", itemPrice[0].Confidence, want)
	}
}

func TestItemPriceRespectsOffset(t *testing.T) {
	item := &Entity{Type: constants.EntityLineItem, Confidence: 0.75, Box: boxAt(100)}
	amt := &Entity{Type: constants.EntityAmount, Confidence: 0.9, Box: boxAt(200)}

	rels := ExtractRelationships([]*Entity{item, amt})
	for _, r := range rels {
		if r.Type == constants.RelationItemPrice {
			t.Fatal("item paired with an amount beyond the vertical offset")
		}
	}
}

func TestTotalsChain(t *testing.T) {
	sub := &Entity{Type: constants.EntityAmount, Value: "Subtotal: 10.00", Confidence: 0.85}
	tax := &Entity{Type: constants.EntityTax, Value: "Tax: 0.80", Confidence: 0.85}
	total := &Entity{Type: constants.EntityTotal, Value: "Total: 10.80", Confidence: 0.85}

	rels := ExtractRelationships([]*Entity{sub, tax, total})

	counts := map[constants.RelationType]int{}
	for _, r := range rels {
		counts[r.Type]++
	}
	if counts[constants.RelationSubtotalTax] != 1 {
		t.Errorf("got %d subtotal-tax relationships, want 1", counts[constants.RelationSubtotalTax])
	}
	if counts[constants.RelationTaxTotal] != 1 {
		t.Errorf("got %d tax-total relationships, want 1", counts[constants.RelationTaxTotal])
	}
}

func TestTotalsChainWithoutTax(t *testing.T) {
	sub := &Entity{Type: constants.EntityAmount, Value: "Subtotal: 10.00", Confidence: 0.85}
	total := &Entity{Type: constants.EntityTotal, Value: "Total: 10.00", Confidence: 0.85}

	rels := ExtractRelationships([]*Entity{sub, total})
	if len(rels) != 1 {
		t.Fatalf("got %d relationships, want 1", len(rels))
	}
	if rels[0].Source != sub || rels[0].Target != total {
		t.Error("subtotal should link directly to total when no tax is present")
	}
}
