package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amitayks/visara-docpipe/constants"
	"github.com/amitayks/visara-docpipe/internal/understanding"
)

// Thresholds used by confidence-aware selection.
const (
	reselectThreshold = 0.7  // below this, Best probes alternate types
	compareThreshold  = 0.8  // below this, CompareAlternatives runs alternates
	switchMargin      = 0.1  // an alternate must beat primary by more than this
	fitScoreCap       = 0.95
)

// reselectCandidates is the fixed set Best probes when classification
// confidence is low.
var reselectCandidates = []constants.DocumentType{
	constants.DocTypeReceipt,
	constants.DocTypeInvoice,
	constants.DocTypeIDCard,
	constants.DocTypePassport,
}

// Registry owns one strategy per known document type plus the generic
// fallback. It is built once at startup and passed into the orchestrator;
// there is no package-level instance.
type Registry struct {
	logger     *slog.Logger
	strategies map[constants.DocumentType]Strategy
	generic    Strategy
}

// NewRegistry constructs the registry with every built-in strategy
// registered. Document types without a specialized strategy resolve to the
// generic one.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	receipt := NewReceiptStrategy(logger)
	invoice := NewInvoiceStrategy(logger)
	id := NewIDStrategy(logger)
	passport := NewPassportStrategy(logger)
	generic := NewGenericStrategy(logger)

	r := &Registry{
		logger:  logger,
		generic: generic,
		strategies: map[constants.DocumentType]Strategy{
			constants.DocTypeReceipt:        receipt,
			constants.DocTypeInvoice:        invoice,
			constants.DocTypeIDCard:         id,
			constants.DocTypeDriversLicense: id,
			constants.DocTypePassport:       passport,
		},
	}
	return r
}

// ForType returns the registered strategy for the type, or the generic
// fallback. It never returns nil.
func (r *Registry) ForType(t constants.DocumentType) Strategy {
	if s, ok := r.strategies[t]; ok {
		return s
	}
	return r.generic
}

// Best re-examines a low-confidence classification. When confidence is below
// the reselect threshold it probes a fixed candidate set with keyword/entity
// fit scores and switches to any candidate that beats the current
// confidence. It returns the chosen strategy, the (possibly revised)
// document type, and the confidence that selected it.
func (r *Registry) Best(in understanding.ContextualResult) (Strategy, constants.DocumentType, float64) {
	docType := in.DocumentType
	conf := in.Confidence
	if conf >= reselectThreshold {
		return r.ForType(docType), docType, conf
	}

	bestType := docType
	bestConf := conf
	for _, cand := range reselectCandidates {
		if cand == docType {
			continue
		}
		fit := fitScore(cand, in)
		if fit > bestConf {
			bestType = cand
			bestConf = fit
		}
	}
	if bestType != docType {
		r.logger.Info("registry.reselect",
			"from", docType, "to", bestType,
			"classifier_confidence", conf, "fit", bestConf,
		)
	}
	return r.ForType(bestType), bestType, bestConf
}

// fitScore estimates how well the raw text and entity mix fit a candidate
// type. Scores are capped below 1 so a probe can never fully outrank a
// confident classification.
func fitScore(cand constants.DocumentType, in understanding.ContextualResult) float64 {
	text := in.RawOCR.Text
	hasAmount := len(in.Context.EntitiesOfType(constants.EntityAmount)) > 0 ||
		len(in.Context.EntitiesOfType(constants.EntityTotal)) > 0
	hasDate := len(in.Context.EntitiesOfType(constants.EntityDate)) > 0
	hasDocNum := len(in.Context.EntitiesOfType(constants.EntityDocumentNumber)) > 0

	score := 0.0
	kw := func(words ...string) {
		for _, w := range words {
			if containsAny(text, w) {
				score += 0.15
			}
		}
	}
	switch cand {
	case constants.DocTypeReceipt:
		kw("receipt", "total", "change", "cash")
		if hasAmount {
			score += 0.1
		}
	case constants.DocTypeInvoice:
		kw("invoice", "bill to", "due date")
		if hasAmount {
			score += 0.1
		}
		if hasDate {
			score += 0.1
		}
	case constants.DocTypeIDCard:
		kw("identification", "date of birth", "sex", "gender")
		if hasDocNum {
			score += 0.1
		}
	case constants.DocTypePassport:
		kw("passport", "nationality", "surname")
		if hasDocNum {
			score += 0.1
		}
	}
	if score > fitScoreCap {
		score = fitScoreCap
	}
	return score
}

// ExtractionOutcome pairs a strategy's structured output with its
// self-validation.
type ExtractionOutcome struct {
	Strategy   string           `json:"strategy"`
	Data       StructuredData   `json:"data"`
	Validation ValidationResult `json:"validation"`
}

// Comparison is the result of probing alternate strategies. The primary
// result is never mutated; the comparison only recommends.
type Comparison struct {
	Primary           ExtractionOutcome   `json:"primary"`
	Alternatives      []ExtractionOutcome `json:"alternatives,omitempty"`
	SwitchRecommended bool                `json:"switch_recommended"`
	Recommendation    string              `json:"recommendation"`
}

// CompareAlternatives runs up to two alternate strategies when overall
// confidence is below the compare threshold, and recommends switching only
// when an alternate's self-validation beats the primary's by more than the
// switch margin.
func (r *Registry) CompareAlternatives(ctx context.Context, in understanding.ContextualResult, primary ExtractionOutcome, overallConfidence float64) Comparison {
	cmp := Comparison{
		Primary:        primary,
		Recommendation: fmt.Sprintf("keep %s extraction", primary.Strategy),
	}
	if overallConfidence >= compareThreshold {
		return cmp
	}

	seen := map[string]bool{primary.Strategy: true}
	for _, cand := range reselectCandidates {
		if len(cmp.Alternatives) >= 2 {
			break
		}
		s := r.ForType(cand)
		if seen[s.Name()] {
			continue
		}
		seen[s.Name()] = true

		data, err := s.Extract(ctx, in)
		if err != nil {
			r.logger.Warn("registry.alternative.failed", "strategy", s.Name(), "error", err)
			continue
		}
		val := s.Validate(data)
		cmp.Alternatives = append(cmp.Alternatives, ExtractionOutcome{
			Strategy:   s.Name(),
			Data:       data,
			Validation: val,
		})
		if val.Confidence > primary.Validation.Confidence+switchMargin && !cmp.SwitchRecommended {
			cmp.SwitchRecommended = true
			cmp.Recommendation = fmt.Sprintf(
				"switch to %s extraction: self-validation %.2f exceeds primary %.2f by more than %.2f",
				s.Name(), val.Confidence, primary.Validation.Confidence, switchMargin,
			)
		}
	}
	return cmp
}
