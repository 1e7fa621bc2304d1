package pipeline

import (
	"time"

	"github.com/amitayks/visara-docpipe/constants"
	"github.com/amitayks/visara-docpipe/internal/extract"
	"github.com/amitayks/visara-docpipe/internal/ocr"
	"github.com/amitayks/visara-docpipe/internal/quality"
	"github.com/amitayks/visara-docpipe/internal/understanding"
)

// StageTrace records one stage's outcome for the run metadata.
type StageTrace struct {
	Stage    constants.Stage `json:"stage"`
	Status   string          `json:"status"`
	Duration time.Duration   `json:"duration"`
	Error    string          `json:"error,omitempty"`
}

// Metadata describes how a result was produced.
type Metadata struct {
	RunID        string        `json:"run_id"`
	ImageRef     string        `json:"image_ref"`
	ImageSHA256  string        `json:"image_sha256,omitempty"`
	ProcessedAt  time.Time     `json:"processed_at"`
	Duration     time.Duration `json:"duration"`
	Stages       []StageTrace  `json:"stages"`
	FallbackUsed bool          `json:"fallback_used"`
	Error        string        `json:"error,omitempty"`
	Warnings     []string      `json:"warnings,omitempty"`
}

// Result is the pipeline's envelope. Processing always yields one, even when
// every stage degrades; consumers check Metadata.Error and the quality report
// rather than an error return.
type Result struct {
	DocumentType constants.DocumentType         `json:"document_type"`
	Confidence   float64                        `json:"confidence"`
	OCR          ocr.Result                     `json:"ocr"`
	Context      understanding.ContextualResult `json:"context"`
	Structured   extract.StructuredData         `json:"structured"`
	Validation   extract.ValidationResult       `json:"validation"`
	Comparison   *extract.Comparison            `json:"comparison,omitempty"`
	Quality      quality.Report                 `json:"quality"`
	Metadata     Metadata                       `json:"metadata"`
}
