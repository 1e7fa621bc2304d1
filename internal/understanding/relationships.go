package understanding

import (
	"math"

	"github.com/amitayks/visara-docpipe/constants"
)

// itemPriceMaxOffset is the vertical distance in pixels within which a line
// item and an amount are considered to sit on the same printed row.
const itemPriceMaxOffset = 50.0

// ExtractRelationships derives typed associations between entities:
// item-price pairings by vertical proximity and the subtotal→tax→total
// chain as an all-pairs join.
func ExtractRelationships(entities []*Entity) []Relationship {
	var out []Relationship
	out = append(out, itemPriceRelationships(entities)...)
	out = append(out, totalsChainRelationships(entities)...)
	return out
}

// itemPriceRelationships pairs each line item with the nearest amount whose
// bounding-box vertical offset is within itemPriceMaxOffset.
func itemPriceRelationships(entities []*Entity) []Relationship {
	var out []Relationship
	for _, item := range entities {
		if item.Type != constants.EntityLineItem || item.Box == nil {
			continue
		}
		var best *Entity
		bestDist := math.MaxFloat64
		for _, amt := range entities {
			if amt.Type != constants.EntityAmount || amt.Box == nil {
				continue
			}
			dist := math.Abs(amt.Box.CenterY() - item.Box.CenterY())
			if dist <= itemPriceMaxOffset && dist < bestDist {
				best = amt
				bestDist = dist
			}
		}
		if best != nil {
			out = append(out, Relationship{
				Type:       constants.RelationItemPrice,
				Source:     item,
				Target:     best,
				Confidence: relConfidence(item, best),
			})
		}
	}
	return out
}

// totalsChainRelationships joins every subtotal-flagged amount to every tax
// entity and every tax entity to every total. When no tax is present the
// subtotals connect directly to the totals. The join is deliberately
// all-pairs, not nearest-match.
func totalsChainRelationships(entities []*Entity) []Relationship {
	var subtotals, taxes, totals []*Entity
	for _, e := range entities {
		switch {
		case isSubtotalAmount(e):
			subtotals = append(subtotals, e)
		case e.Type == constants.EntityTax:
			taxes = append(taxes, e)
		case e.Type == constants.EntityTotal:
			totals = append(totals, e)
		}
	}

	var out []Relationship
	for _, s := range subtotals {
		for _, t := range taxes {
			out = append(out, Relationship{
				Type:       constants.RelationSubtotalTax,
				Source:     s,
				Target:     t,
				Confidence: relConfidence(s, t),
			})
		}
	}
	if len(taxes) > 0 {
		for _, t := range taxes {
			for _, tot := range totals {
				out = append(out, Relationship{
					Type:       constants.RelationTaxTotal,
					Source:     t,
					Target:     tot,
					Confidence: relConfidence(t, tot),
				})
			}
		}
		return out
	}
	for _, s := range subtotals {
		for _, tot := range totals {
			out = append(out, Relationship{
				Type:       constants.RelationTaxTotal,
				Source:     s,
				Target:     tot,
				Confidence: relConfidence(s, tot),
			})
		}
	}
	return out
}

func relConfidence(a, b *Entity) float64 {
	return (a.Confidence + b.Confidence) / 2
}
