// Package pipeline orchestrates the document stages: preprocessing, OCR,
// context understanding, structured extraction and quality assessment. Stages
// degrade independently; a run always ends with a usable result envelope.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amitayks/visara-docpipe/constants"
	"github.com/amitayks/visara-docpipe/internal/common"
	"github.com/amitayks/visara-docpipe/internal/extract"
	"github.com/amitayks/visara-docpipe/internal/metrics"
	"github.com/amitayks/visara-docpipe/internal/ocr"
	"github.com/amitayks/visara-docpipe/internal/quality"
	"github.com/amitayks/visara-docpipe/internal/understanding"
)

// Processor wires the stages together. Construct with NewProcessor and call
// Init once before processing.
type Processor struct {
	logger   *slog.Logger
	provider ocr.Provider
	engine   *understanding.Engine
	registry *extract.Registry
	qa       *quality.Engine
	pre      Preprocessor
	metrics  *metrics.Metrics
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithPreprocessor replaces the default content-hash preprocessor.
func WithPreprocessor(p Preprocessor) ProcessorOption {
	return func(proc *Processor) { proc.pre = p }
}

// WithMetrics attaches pipeline instrumentation.
func WithMetrics(m *metrics.Metrics) ProcessorOption {
	return func(proc *Processor) { proc.metrics = m }
}

// WithUnderstandingEngine replaces the default rule-based engine, for
// installing a model backend.
func WithUnderstandingEngine(e *understanding.Engine) ProcessorOption {
	return func(proc *Processor) { proc.engine = e }
}

func NewProcessor(logger *slog.Logger, provider ocr.Provider, opts ...ProcessorOption) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if provider == nil {
		return nil, common.WrapError(common.ErrInvalidInput, "ocr provider is required")
	}
	qa, err := quality.NewEngine(logger)
	if err != nil {
		return nil, fmt.Errorf("build quality engine: %w", err)
	}

	p := &Processor{
		logger:   logger,
		provider: provider,
		engine:   understanding.NewEngine(logger),
		registry: extract.NewRegistry(logger),
		qa:       qa,
		pre:      hashPreprocessor{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Init warms up the stages concurrently. An OCR provider that cannot
// initialize aborts Init; every other component degrades at run time instead.
func (p *Processor) Init(ctx context.Context) error {
	var wg sync.WaitGroup
	var ocrErr error

	if init, ok := p.provider.(ocr.Initializer); ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ocrErr = init.Init(ctx)
		}()
	}
	wg.Wait()

	if ocrErr != nil {
		return fmt.Errorf("initialize ocr provider %s: %w", p.provider.Name(), ocrErr)
	}
	p.logger.Info("pipeline.initialized", "ocr_provider", p.provider.Name())
	return nil
}

// ProcessDocument runs the full pipeline on one image. It never returns an
// error: failures degrade stage by stage, and a total failure still yields an
// envelope with the error recorded in its metadata.
func (p *Processor) ProcessDocument(ctx context.Context, imageRef string, opts Options) *Result {
	start := time.Now()
	res := &Result{
		DocumentType: constants.DocTypeUnknown,
		Metadata: Metadata{
			RunID:       uuid.NewString(),
			ImageRef:    imageRef,
			ProcessedAt: start,
		},
	}
	log := p.logger.With("run_id", res.Metadata.RunID, "image", imageRef)

	if opts.EnablePreprocessing {
		info, err := p.pre.Prepare(ctx, imageRef)
		if err != nil {
			log.Warn("processor.preprocess.failed", "error", err)
			res.Metadata.Warnings = append(res.Metadata.Warnings, "preprocessing failed: "+err.Error())
		} else {
			imageRef = info.ImageRef
			res.Metadata.ImageSHA256 = info.SHA256
		}
	}

	ocrRes, err := p.runOCR(ctx, log, res, imageRef)
	if err != nil {
		return p.failedResult(log, res, start, err)
	}
	res.OCR = ocrRes

	in := p.runUnderstanding(ctx, log, res, ocrRes, opts)
	res.Context = in
	res.DocumentType = in.DocumentType

	outcome := p.runExtraction(ctx, log, res, in, opts)
	res.Structured = outcome.Data
	res.Validation = outcome.Validation
	in.DocumentType = res.Context.DocumentType
	res.DocumentType = in.DocumentType

	p.runQuality(log, res, in, outcome)

	res.Confidence = overallConfidence(res)
	if res.OCR.Confidence < opts.QualityThreshold {
		res.Metadata.Warnings = append(res.Metadata.Warnings,
			fmt.Sprintf("ocr confidence %.2f below threshold %.2f", res.OCR.Confidence, opts.QualityThreshold))
	}

	cmp := p.registry.CompareAlternatives(ctx, in, outcome, res.Confidence)
	if len(cmp.Alternatives) > 0 || cmp.SwitchRecommended {
		res.Comparison = &cmp
	}

	res.Metadata.Duration = time.Since(start)
	if opts.MaxProcessingTime > 0 && res.Metadata.Duration > opts.MaxProcessingTime {
		res.Metadata.Warnings = append(res.Metadata.Warnings,
			fmt.Sprintf("processing took %s, over the %s budget", res.Metadata.Duration, opts.MaxProcessingTime))
	}

	p.observe(res, statusOf(res))
	log.Info("processor.done",
		"type", res.DocumentType,
		"confidence", res.Confidence,
		"quality", res.Quality.Overall,
		"duration", res.Metadata.Duration,
		"fallback", res.Metadata.FallbackUsed,
	)
	return res
}

func (p *Processor) runOCR(ctx context.Context, log *slog.Logger, res *Result, imageRef string) (ocr.Result, error) {
	t := time.Now()
	out, err := p.provider.ExtractText(ctx, imageRef)
	d := time.Since(t)
	p.observeStage(constants.StageOCR, d)

	trace := StageTrace{Stage: constants.StageOCR, Status: constants.StageStatusOK, Duration: d}
	if err != nil {
		trace.Status = constants.StageStatusFailed
		trace.Error = err.Error()
		log.Error("processor.ocr.failed", "provider", p.provider.Name(), "error", err)
	}
	res.Metadata.Stages = append(res.Metadata.Stages, trace)
	return out, err
}

func (p *Processor) runUnderstanding(ctx context.Context, log *slog.Logger, res *Result, ocrRes ocr.Result, opts Options) understanding.ContextualResult {
	t := time.Now()
	trace := StageTrace{Stage: constants.StageContext, Status: constants.StageStatusOK}

	var in understanding.ContextualResult
	if !opts.EnableContextUnderstanding {
		in = basicContext(ocrRes)
		trace.Status = constants.StageStatusSkipped
		res.Metadata.FallbackUsed = true
		p.countFallback(constants.StageContext)
	} else {
		var err error
		in, err = p.engine.Understand(ctx, ocrRes)
		if err != nil {
			log.Warn("processor.context.failed; using keyword classifier", "error", err)
			in = basicContext(ocrRes)
			trace.Status = constants.StageStatusFallback
			trace.Error = err.Error()
			res.Metadata.FallbackUsed = true
			res.Metadata.Warnings = append(res.Metadata.Warnings, "context understanding degraded: "+err.Error())
			p.countFallback(constants.StageContext)
		}
	}

	trace.Duration = time.Since(t)
	p.observeStage(constants.StageContext, trace.Duration)
	res.Metadata.Stages = append(res.Metadata.Stages, trace)
	return in
}

func (p *Processor) runExtraction(ctx context.Context, log *slog.Logger, res *Result, in understanding.ContextualResult, opts Options) extract.ExtractionOutcome {
	t := time.Now()
	trace := StageTrace{Stage: constants.StageExtraction, Status: constants.StageStatusOK}

	var outcome extract.ExtractionOutcome
	if !opts.EnableStructuredExtraction {
		outcome = p.genericOutcome(ctx, in)
		trace.Status = constants.StageStatusSkipped
		res.Metadata.FallbackUsed = true
		p.countFallback(constants.StageExtraction)
	} else {
		strategy, docType, _ := p.registry.Best(in)
		in.DocumentType = docType

		data, err := strategy.Extract(ctx, in)
		if err != nil {
			log.Warn("processor.extraction.failed; using generic strategy",
				"strategy", strategy.Name(), "error", err)
			outcome = p.genericOutcome(ctx, in)
			trace.Status = constants.StageStatusFallback
			trace.Error = err.Error()
			res.Metadata.FallbackUsed = true
			res.Metadata.Warnings = append(res.Metadata.Warnings,
				fmt.Sprintf("%s extraction degraded: %s", strategy.Name(), err))
			p.countFallback(constants.StageExtraction)
		} else {
			outcome = extract.ExtractionOutcome{
				Strategy:   strategy.Name(),
				Data:       data,
				Validation: strategy.Validate(data),
			}
		}
	}
	res.Context.DocumentType = in.DocumentType

	trace.Duration = time.Since(t)
	p.observeStage(constants.StageExtraction, trace.Duration)
	res.Metadata.Stages = append(res.Metadata.Stages, trace)
	return outcome
}

func (p *Processor) runQuality(log *slog.Logger, res *Result, in understanding.ContextualResult, outcome extract.ExtractionOutcome) {
	t := time.Now()
	res.Quality = p.qa.Assess(in, outcome)
	d := time.Since(t)
	p.observeStage(constants.StageQuality, d)
	res.Metadata.Stages = append(res.Metadata.Stages, StageTrace{
		Stage:    constants.StageQuality,
		Status:   constants.StageStatusOK,
		Duration: d,
	})
	res.Metadata.Warnings = append(res.Metadata.Warnings, res.Quality.Warnings...)
}

// genericOutcome extracts with the catch-all strategy. The generic path has
// no failure mode worth propagating; an error still yields an empty record.
func (p *Processor) genericOutcome(ctx context.Context, in understanding.ContextualResult) extract.ExtractionOutcome {
	s := p.registry.ForType(constants.DocTypeUnknown)
	data, err := s.Extract(ctx, in)
	if err != nil || data == nil {
		data = extract.GenericData{}
	}
	return extract.ExtractionOutcome{
		Strategy:   s.Name(),
		Data:       data,
		Validation: s.Validate(data),
	}
}

// failedResult builds the total-failure envelope: zeroed scores, a generic
// placeholder record, and the cause in both the metadata and the quality
// warnings.
func (p *Processor) failedResult(log *slog.Logger, res *Result, start time.Time, cause error) *Result {
	res.DocumentType = constants.DocTypeUnknown
	res.Structured = extract.GenericData{Title: "Processing Failed"}
	res.Validation = extract.ValidationResult{Errors: []string{cause.Error()}}
	res.Metadata.Error = cause.Error()
	res.Metadata.Warnings = append(res.Metadata.Warnings, cause.Error())
	res.Quality.Warnings = append(res.Quality.Warnings, cause.Error())
	res.Metadata.FallbackUsed = true
	res.Metadata.Duration = time.Since(start)

	p.observe(res, constants.StageStatusFailed)
	log.Error("processor.failed", "error", cause, "duration", res.Metadata.Duration)
	return res
}

// ExtractText runs only the OCR stage.
func (p *Processor) ExtractText(ctx context.Context, imageRef string) (ocr.Result, error) {
	return p.provider.ExtractText(ctx, imageRef)
}

// UnderstandContext runs only the context stage on an existing OCR result.
func (p *Processor) UnderstandContext(ctx context.Context, res ocr.Result) (understanding.ContextualResult, error) {
	return p.engine.Understand(ctx, res)
}

// ExtractStructuredData runs only the extraction stage on an existing
// contextual result.
func (p *Processor) ExtractStructuredData(ctx context.Context, in understanding.ContextualResult) (extract.ExtractionOutcome, error) {
	strategy, docType, _ := p.registry.Best(in)
	in.DocumentType = docType
	data, err := strategy.Extract(ctx, in)
	if err != nil {
		return extract.ExtractionOutcome{}, fmt.Errorf("%s extraction: %w", strategy.Name(), err)
	}
	return extract.ExtractionOutcome{
		Strategy:   strategy.Name(),
		Data:       data,
		Validation: strategy.Validate(data),
	}, nil
}

// basicContext is the degraded substitute for the full Context Engine: a
// keyword classification over the raw text with no entities or layout.
func basicContext(res ocr.Result) understanding.ContextualResult {
	docType, conf := keywordClassify(res.Text)
	return understanding.ContextualResult{
		DocumentType: docType,
		Confidence:   conf,
		Context:      understanding.DocumentContext{Confidence: conf * 0.5},
		RawOCR:       res,
	}
}

func keywordClassify(text string) (constants.DocumentType, float64) {
	l := strings.ToLower(text)
	switch {
	case strings.Contains(l, "passport"):
		return constants.DocTypePassport, 0.7
	case strings.Contains(l, "invoice"):
		return constants.DocTypeInvoice, 0.7
	case strings.Contains(l, "receipt"):
		return constants.DocTypeReceipt, 0.7
	case strings.Contains(l, "total") && strings.Contains(l, "$"):
		return constants.DocTypeReceipt, 0.5
	case strings.Contains(l, "license") || strings.Contains(l, "identification"):
		return constants.DocTypeIDCard, 0.6
	default:
		return constants.DocTypeUnknown, 0.3
	}
}

// overallConfidence blends the per-stage confidences into the envelope's
// headline number.
func overallConfidence(res *Result) float64 {
	c := 0.25*res.OCR.Confidence +
		0.25*res.Context.Confidence +
		0.25*res.Validation.Confidence +
		0.25*res.Quality.Overall
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return c
}

func statusOf(res *Result) string {
	if res.Metadata.Error != "" {
		return constants.StageStatusFailed
	}
	if res.Metadata.FallbackUsed {
		return constants.StageStatusFallback
	}
	return constants.StageStatusOK
}

func (p *Processor) observe(res *Result, status string) {
	if p.metrics == nil {
		return
	}
	p.metrics.DocumentsTotal.WithLabelValues(string(res.DocumentType), status).Inc()
	p.metrics.QualityScore.Observe(res.Quality.Overall)
}

func (p *Processor) observeStage(stage constants.Stage, d time.Duration) {
	if p.metrics == nil {
		return
	}
	p.metrics.StageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
}

func (p *Processor) countFallback(stage constants.Stage) {
	if p.metrics == nil {
		return
	}
	p.metrics.FallbacksTotal.WithLabelValues(string(stage)).Inc()
}
