package ocr

import (
	"context"
	"time"
)

// BoundingBox describes a rectangular area in pixel coordinates with the
// origin in the upper-left corner of the image.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsEmpty reports whether the box has non-positive dimensions.
func (b BoundingBox) IsEmpty() bool { return b.Width <= 0 || b.Height <= 0 }

// CenterY returns the vertical midpoint of the box.
func (b BoundingBox) CenterY() float64 { return b.Y + b.Height/2 }

// TextBlock is a single recognized region of text. Blocks are immutable once
// produced by a provider.
type TextBlock struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"bounding_box"`
	Language   string      `json:"language,omitempty"`
}

// Result captures OCR output for a single image.
type Result struct {
	// Text is the linearized concatenation of all recognized blocks.
	Text       string        `json:"text"`
	Blocks     []TextBlock   `json:"blocks"`
	Confidence float64       `json:"confidence"`
	Duration   time.Duration `json:"processing_time"`
	Languages  []string      `json:"languages,omitempty"`
	EngineID   string        `json:"engine_id"`
}

// Provider is the OCR capability the pipeline depends on: one image
// reference in, one recognized result out.
type Provider interface {
	Name() string
	ExtractText(ctx context.Context, imageRef string) (Result, error)
}

// Initializer is implemented by providers that need one-time setup before
// the pipeline accepts documents.
type Initializer interface {
	Init(ctx context.Context) error
}
