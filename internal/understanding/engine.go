package understanding

import (
	"context"
	"log/slog"

	"github.com/amitayks/visara-docpipe/internal/ocr"
)

// ModelBackend is an optional learned classifier/extractor that consumes the
// same OCR result and produces the same contextual shape as the rule-based
// path. Backend failures never propagate; the engine falls back to rules.
type ModelBackend interface {
	Name() string
	Understand(ctx context.Context, res ocr.Result) (ContextualResult, error)
}

// Engine is the Context Engine: OCR result in, contextual result out.
type Engine struct {
	logger *slog.Logger
	model  ModelBackend
}

// Option configures an Engine.
type Option func(*Engine)

// WithModelBackend installs a learned backend tried before the rule path.
func WithModelBackend(m ModelBackend) Option {
	return func(e *Engine) { e.model = m }
}

func NewEngine(logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Understand classifies the document, extracts entities and relationships,
// and infers layout. The rule-based path cannot fail; the returned error is
// always nil and exists for interface symmetry with model backends.
func (e *Engine) Understand(ctx context.Context, res ocr.Result) (ContextualResult, error) {
	if e.model != nil {
		out, err := e.model.Understand(ctx, res)
		if err == nil {
			e.logger.Debug("understanding.model.ok", "backend", e.model.Name(), "type", out.DocumentType)
			return out, nil
		}
		e.logger.Warn("understanding.model.failed; using rule-based path", "backend", e.model.Name(), "error", err)
	}
	return e.ruleBased(res), nil
}

func (e *Engine) ruleBased(res ocr.Result) ContextualResult {
	docType, conf := Classify(res.Text)
	entities := ExtractEntities(res)
	relationships := ExtractRelationships(entities)
	layout := AnalyzeLayout(res)
	sections := DetectSections(res, layout, entities)

	ctxConf := contextConfidence(conf, entities, layout)
	out := ContextualResult{
		DocumentType: docType,
		Confidence:   conf,
		Context: DocumentContext{
			Layout:        layout,
			Entities:      entities,
			Relationships: relationships,
			Sections:      sections,
			Confidence:    ctxConf,
		},
		RawOCR: res,
	}
	e.logger.Debug("understanding.rules.ok",
		"type", docType,
		"confidence", conf,
		"entities", len(entities),
		"relationships", len(relationships),
	)
	return out
}

// contextConfidence blends classification confidence with entity yield and
// layout confidence.
func contextConfidence(classConf float64, entities []*Entity, layout LayoutInfo) float64 {
	entityScore := float64(len(entities)) / 10.0
	if entityScore > 1.0 {
		entityScore = 1.0
	}
	c := 0.5*classConf + 0.3*entityScore + 0.2*layout.Confidence
	if c > 1.0 {
		c = 1.0
	}
	return c
}
