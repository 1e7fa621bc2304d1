// Package quality scores a completed pipeline run. The engine never mutates
// the results it inspects; it produces an independent report of named checks
// and composite scores, all within [0, 1].
package quality

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/amitayks/visara-docpipe/internal/extract"
	"github.com/amitayks/visara-docpipe/internal/understanding"
)

// Check thresholds.
const (
	minOCRConfidence     = 0.7
	minTextLength        = 10
	minBlockConfidence   = 0.6
	maxSuspiciousRatio   = 0.05
	minClassConfidence   = 0.6
	minLayoutConfidence  = 0.5
	maxConfidenceDelta   = 0.3
	arithmeticTolerance  = 1.0
	textLengthSaturation = 200.0
)

// Check is one named quality probe with its verdict.
type Check struct {
	Name       string  `json:"name"`
	Passed     bool    `json:"passed"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message,omitempty"`
	Suggestion string  `json:"suggestion,omitempty"`
}

// Report is the engine's full assessment of a run.
type Report struct {
	OCRQuality   float64  `json:"ocr_quality"`
	Completeness float64  `json:"completeness"`
	Consistency  float64  `json:"consistency"`
	Overall      float64  `json:"overall"`
	Checks       []Check  `json:"checks"`
	Warnings     []string `json:"warnings,omitempty"`
	Suggestions  []string `json:"suggestions,omitempty"`
}

// Engine runs the quality checks. Structural schemas are compiled once at
// construction.
type Engine struct {
	logger  *slog.Logger
	schemas map[extract.Kind]*jsonschema.Schema
}

func NewEngine(logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schemas, err := compileSchemas()
	if err != nil {
		return nil, fmt.Errorf("compile structural schemas: %w", err)
	}
	return &Engine{logger: logger, schemas: schemas}, nil
}

// Assess scores a run. Failed check messages become warnings verbatim.
func (e *Engine) Assess(in understanding.ContextualResult, outcome extract.ExtractionOutcome) Report {
	checks := e.runChecks(in, outcome)

	rep := Report{
		Checks:       checks,
		OCRQuality:   ocrQualityScore(in, checks),
		Completeness: completenessScore(in, outcome),
		Consistency:  consistencyScore(in, outcome),
	}

	var checkSum float64
	for _, c := range checks {
		checkSum += c.Confidence
		if !c.Passed {
			rep.Warnings = append(rep.Warnings, c.Message)
			if c.Suggestion != "" {
				rep.Suggestions = append(rep.Suggestions, c.Suggestion)
			}
		}
	}
	meanCheck := 0.0
	if len(checks) > 0 {
		meanCheck = checkSum / float64(len(checks))
	}

	rep.Overall = clamp01(0.3*meanCheck + 0.25*rep.OCRQuality + 0.25*rep.Completeness + 0.2*rep.Consistency)

	e.logger.Debug("quality.assessed",
		"overall", rep.Overall,
		"ocr_quality", rep.OCRQuality,
		"completeness", rep.Completeness,
		"consistency", rep.Consistency,
		"failed_checks", len(rep.Warnings),
	)
	return rep
}

func (e *Engine) runChecks(in understanding.ContextualResult, outcome extract.ExtractionOutcome) []Check {
	text := in.RawOCR.Text
	checks := []Check{
		boolCheck("ocr_confidence", in.RawOCR.Confidence >= minOCRConfidence, in.RawOCR.Confidence,
			fmt.Sprintf("ocr confidence %.2f below %.2f", in.RawOCR.Confidence, minOCRConfidence),
			"rescan the document or improve lighting"),
		boolCheck("text_length", len(strings.TrimSpace(text)) > minTextLength, lengthScore(text),
			"extracted text is too short to be a document",
			"verify the image actually contains text"),
	}

	meanBlock := meanBlockConfidence(in)
	checks = append(checks, boolCheck("block_confidence", meanBlock >= minBlockConfidence, meanBlock,
		fmt.Sprintf("mean block confidence %.2f below %.2f", meanBlock, minBlockConfidence), ""))

	ratio := suspiciousRatio(text)
	checks = append(checks, boolCheck("suspicious_characters", ratio < maxSuspiciousRatio, 1-ratio,
		fmt.Sprintf("suspicious character ratio %.3f exceeds %.3f", ratio, maxSuspiciousRatio),
		"ocr output may be garbled; try a different page segmentation mode"))

	checks = append(checks,
		boolCheck("classification_confidence", in.Confidence >= minClassConfidence, in.Confidence,
			fmt.Sprintf("classification confidence %.2f below %.2f", in.Confidence, minClassConfidence), ""),
		boolCheck("entities_present", len(in.Context.Entities) > 0, entityScore(in),
			"no entities were extracted", ""),
		boolCheck("relationships_present", len(in.Context.Relationships) > 0, relationshipScore(in),
			"no entity relationships were inferred", ""),
		boolCheck("layout_confidence", in.Context.Layout.Confidence >= minLayoutConfidence, in.Context.Layout.Confidence,
			fmt.Sprintf("layout confidence %.2f below %.2f", in.Context.Layout.Confidence, minLayoutConfidence), ""),
	)

	if outcome.Data != nil {
		ok, msg := validateStructure(e.schemas, outcome.Data)
		conf := outcome.Validation.Confidence
		if !ok {
			conf = 0
		}
		checks = append(checks, boolCheck("structure", ok, conf, msg, ""))
	}

	dirOK := directionConsistent(in)
	checks = append(checks, boolCheck("language_direction", dirOK, boolScore(dirOK),
		"detected languages disagree with the text direction", ""))

	delta := math.Abs(in.RawOCR.Confidence - in.Context.Confidence)
	checks = append(checks, boolCheck("confidence_agreement", delta < maxConfidenceDelta, 1-delta,
		fmt.Sprintf("ocr and context confidences diverge by %.2f", delta), ""))

	return checks
}

func boolCheck(name string, passed bool, conf float64, failMsg, suggestion string) Check {
	c := Check{Name: name, Passed: passed, Confidence: clamp01(conf)}
	if !passed {
		c.Message = failMsg
		c.Suggestion = suggestion
	}
	return c
}

// ocrQualityScore blends raw confidence, text volume, block agreement and
// language signal.
func ocrQualityScore(in understanding.ContextualResult, checks []Check) float64 {
	langScore := 0.5
	if len(in.RawOCR.Languages) > 0 {
		langScore = 1.0
	}
	for _, c := range checks {
		if c.Name == "language_direction" && !c.Passed {
			langScore *= 0.5
		}
	}
	return clamp01(0.4*in.RawOCR.Confidence +
		0.2*lengthScore(in.RawOCR.Text) +
		0.2*meanBlockConfidence(in) +
		0.2*langScore)
}

// completenessScore measures how much of the document was understood.
func completenessScore(in understanding.ContextualResult, outcome extract.ExtractionOutcome) float64 {
	return clamp01(0.3*in.Context.Confidence +
		0.3*entityScore(in) +
		0.2*relationshipScore(in) +
		0.2*structuredCompleteness(outcome.Data))
}

// consistencyScore penalizes internal disagreement between stages.
func consistencyScore(in understanding.ContextualResult, outcome extract.ExtractionOutcome) float64 {
	score := 1.0
	score -= 0.3 * math.Abs(in.RawOCR.Confidence-in.Context.Confidence)
	if in.Context.Layout.TextDirection == "mixed" {
		score -= 0.2
	}
	if r, ok := outcome.Data.(extract.ReceiptData); ok {
		if r.Totals.Total > 0 && r.Totals.Subtotal > 0 {
			sum := r.Totals.Subtotal + r.Totals.Tax + r.Totals.Tip
			if math.Abs(sum-r.Totals.Total) > arithmeticTolerance {
				score -= 0.2
			}
		}
	}
	return clamp01(score)
}

// structuredCompleteness is the fraction of a record's key fields that were
// populated.
func structuredCompleteness(data extract.StructuredData) float64 {
	switch d := data.(type) {
	case extract.ReceiptData:
		return fraction(
			d.Vendor.Name != "",
			d.Date != nil,
			len(d.Items) > 0,
			d.Totals.Total > 0,
		)
	case extract.InvoiceData:
		return fraction(
			d.Number != "",
			d.IssueDate != nil,
			d.Vendor.Name != "",
			d.Totals.Total > 0,
		)
	case extract.IDData:
		return fraction(
			d.Personal.LastName != "" || d.Personal.FirstName != "",
			d.Document.Number != "",
			d.Personal.DateOfBirth != nil,
			d.Document.ExpiryDate != nil,
		)
	case extract.PassportData:
		return fraction(
			d.Personal.LastName != "" || d.Personal.FirstName != "",
			d.Document.Number != "",
			d.Personal.DateOfBirth != nil,
			d.Document.ExpiryDate != nil,
			!d.MRZ.Placeholder,
		)
	case extract.GenericData:
		return fraction(
			d.Title != "",
			len(d.Fields) > 0,
			len(d.Tables) > 0 || len(d.Sections) > 0,
		)
	default:
		return 0
	}
}

func fraction(fields ...bool) float64 {
	if len(fields) == 0 {
		return 0
	}
	n := 0
	for _, f := range fields {
		if f {
			n++
		}
	}
	return float64(n) / float64(len(fields))
}

func meanBlockConfidence(in understanding.ContextualResult) float64 {
	blocks := in.RawOCR.Blocks
	if len(blocks) == 0 {
		return in.RawOCR.Confidence
	}
	var sum float64
	for _, b := range blocks {
		sum += b.Confidence
	}
	return sum / float64(len(blocks))
}

// suspiciousRatio is the share of characters outside the letter, digit,
// punctuation and whitespace classes.
func suspiciousRatio(text string) float64 {
	if text == "" {
		return 0
	}
	total, odd := 0, 0
	for _, r := range text {
		total++
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
			!unicode.IsPunct(r) && !unicode.IsSpace(r) && !unicode.IsSymbol(r) {
			odd++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(odd) / float64(total)
}

// directionConsistent checks the detected languages against the inferred
// text direction. Hebrew and Arabic expect rtl or mixed; everything else
// expects ltr or mixed.
func directionConsistent(in understanding.ContextualResult) bool {
	dir := in.Context.Layout.TextDirection
	if dir == "" || dir == "mixed" {
		return true
	}
	rtlLang := false
	for _, l := range in.RawOCR.Languages {
		switch strings.ToLower(l) {
		case "heb", "ara", "he", "ar":
			rtlLang = true
		}
	}
	if rtlLang {
		return dir == "rtl"
	}
	return dir == "ltr"
}

func lengthScore(text string) float64 {
	return clamp01(float64(len(strings.TrimSpace(text))) / textLengthSaturation)
}

func entityScore(in understanding.ContextualResult) float64 {
	return clamp01(float64(len(in.Context.Entities)) / 10.0)
}

func relationshipScore(in understanding.ContextualResult) float64 {
	return clamp01(float64(len(in.Context.Relationships)) / 5.0)
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
