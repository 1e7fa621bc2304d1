// Package understanding turns raw OCR output into a classified, entity-
// annotated document context. All transforms are pure functions over
// immutable inputs; the Engine only wires them together.
package understanding

import (
	"time"

	"github.com/amitayks/visara-docpipe/constants"
	"github.com/amitayks/visara-docpipe/internal/ocr"
)

// LineItemValue is the structured form of a recognized line item.
type LineItemValue struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity,omitempty"`
	UnitPrice   float64 `json:"unit_price,omitempty"`
	Total       float64 `json:"total"`
}

// NormalizedValue carries the typed interpretation of an entity's raw text.
// At most one field is set, matching the entity type.
type NormalizedValue struct {
	Date     *time.Time     `json:"date,omitempty"`
	Number   *float64       `json:"number,omitempty"`
	LineItem *LineItemValue `json:"line_item,omitempty"`
}

// Entity is a typed value extracted from document text. Entities are created
// once and never mutated; downstream stages hold references only.
type Entity struct {
	Type       constants.EntityType `json:"type"`
	Value      string               `json:"value"`
	Confidence float64              `json:"confidence"`
	Box        *ocr.BoundingBox     `json:"bounding_box,omitempty"`
	Normalized *NormalizedValue     `json:"normalized_value,omitempty"`
}

// NormalizedNumber returns the numeric normalization, if present.
func (e *Entity) NormalizedNumber() (float64, bool) {
	if e.Normalized != nil && e.Normalized.Number != nil {
		return *e.Normalized.Number, true
	}
	return 0, false
}

// NormalizedDate returns the date normalization, if present.
func (e *Entity) NormalizedDate() (time.Time, bool) {
	if e.Normalized != nil && e.Normalized.Date != nil {
		return *e.Normalized.Date, true
	}
	return time.Time{}, false
}

// Relationship is a typed association between two entities.
type Relationship struct {
	Type       constants.RelationType `json:"type"`
	Source     *Entity                `json:"source"`
	Target     *Entity                `json:"target"`
	Confidence float64                `json:"confidence"`
}

// LayoutInfo summarizes the inferred page geometry.
type LayoutInfo struct {
	Orientation   string  `json:"orientation"` // "portrait" | "landscape"
	ColumnCount   int     `json:"column_count"`
	HasTable      bool    `json:"has_table"`
	HasHeader     bool    `json:"has_header"`
	HasFooter     bool    `json:"has_footer"`
	TextDirection string  `json:"text_direction"` // "ltr" | "rtl" | "mixed"
	Confidence    float64 `json:"confidence"`
}

// Section types for page partitions.
const (
	SectionHeader = "header"
	SectionFooter = "footer"
	SectionBody   = "body"
	SectionTable  = "table"
)

// DocumentSection is one partition of the page with the blocks and entities
// that fall inside it.
type DocumentSection struct {
	Type     string          `json:"type"`
	Content  []ocr.TextBlock `json:"content"`
	Entities []*Entity       `json:"entities"`
	Box      ocr.BoundingBox `json:"bounding_box"`
}

// DocumentContext aggregates the full Context Engine output for one document.
type DocumentContext struct {
	Layout        LayoutInfo        `json:"layout"`
	Entities      []*Entity         `json:"entities"`
	Relationships []Relationship    `json:"relationships"`
	Sections      []DocumentSection `json:"sections"`
	Confidence    float64           `json:"confidence"`
}

// EntitiesOfType filters the context's entities by type.
func (c *DocumentContext) EntitiesOfType(t constants.EntityType) []*Entity {
	var out []*Entity
	for _, e := range c.Entities {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// ContextualResult is the immutable input handed to the extractor registry.
type ContextualResult struct {
	DocumentType constants.DocumentType `json:"document_type"`
	Confidence   float64                `json:"confidence"`
	Context      DocumentContext        `json:"context"`
	RawOCR       ocr.Result             `json:"raw_ocr"`
}
