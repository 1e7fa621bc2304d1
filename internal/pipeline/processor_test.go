package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/amitayks/visara-docpipe/constants"
	"github.com/amitayks/visara-docpipe/internal/extract"
	"github.com/amitayks/visara-docpipe/internal/metrics"
	"github.com/amitayks/visara-docpipe/internal/ocr"
)

type fakeProvider struct {
	res     ocr.Result
	err     error
	initErr error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) ExtractText(ctx context.Context, imageRef string) (ocr.Result, error) {
	return f.res, f.err
}

func (f *fakeProvider) Init(ctx context.Context) error { return f.initErr }

const fakeReceiptText = `JOE'S MARKET
Coffee  3.50
Subtotal: $3.50
Tax: $0.30
Total: $3.80
Cash`

func testOptions() Options {
	opts := DefaultOptions()
	opts.EnablePreprocessing = false
	return opts
}

func newTestProcessor(t *testing.T, provider ocr.Provider) *Processor {
	t.Helper()
	p, err := NewProcessor(nil, provider, WithMetrics(metrics.New()))
	if err != nil {
		t.Fatalf("NewProcessor() error = %v", err)
	}
	return p
}

func TestProcessDocument(t *testing.T) {
	provider := &fakeProvider{res: ocr.Result{
		Text:       fakeReceiptText,
		Confidence: 0.9,
		Languages:  []string{"eng"},
		EngineID:   "fake",
	}}
	p := newTestProcessor(t, provider)

	res := p.ProcessDocument(context.Background(), "receipt.png", testOptions())
	if res == nil {
		t.Fatal("ProcessDocument() = nil")
	}
	if res.Metadata.Error != "" {
		t.Fatalf("unexpected failure: %s", res.Metadata.Error)
	}
	if res.DocumentType != constants.DocTypeReceipt {
		t.Errorf("type = %v, want receipt", res.DocumentType)
	}
	if res.Structured == nil || res.Structured.Kind() != extract.KindReceipt {
		t.Errorf("structured kind = %v, want receipt", res.Structured)
	}
	if len(res.Metadata.Stages) != 4 {
		t.Errorf("got %d stage traces, want 4", len(res.Metadata.Stages))
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		t.Errorf("confidence %v out of [0,1]", res.Confidence)
	}
	if res.Metadata.RunID == "" {
		t.Error("run id missing")
	}
}

func TestProcessDocumentDeterministic(t *testing.T) {
	provider := &fakeProvider{res: ocr.Result{Text: fakeReceiptText, Confidence: 0.9}}
	p := newTestProcessor(t, provider)

	first := p.ProcessDocument(context.Background(), "a.png", testOptions())
	second := p.ProcessDocument(context.Background(), "a.png", testOptions())
	if first.DocumentType != second.DocumentType {
		t.Errorf("types differ across runs: %v vs %v", first.DocumentType, second.DocumentType)
	}
	if first.Confidence != second.Confidence {
		t.Errorf("confidences differ across runs: %v vs %v", first.Confidence, second.Confidence)
	}
	if first.Metadata.RunID == second.Metadata.RunID {
		t.Error("run ids should be unique per run")
	}
}

func TestProcessDocumentOCRFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("engine exploded")}
	p := newTestProcessor(t, provider)

	res := p.ProcessDocument(context.Background(), "broken.png", testOptions())
	if res == nil {
		t.Fatal("ProcessDocument() = nil on failure, want an envelope")
	}
	if res.Metadata.Error == "" {
		t.Fatal("failure not recorded in metadata")
	}
	if res.DocumentType != constants.DocTypeUnknown {
		t.Errorf("type = %v, want unknown", res.DocumentType)
	}
	g, ok := res.Structured.(extract.GenericData)
	if !ok {
		t.Fatalf("structured = %T, want GenericData placeholder", res.Structured)
	}
	if g.Title != "Processing Failed" {
		t.Errorf("placeholder title = %q", g.Title)
	}
	if !res.Metadata.FallbackUsed {
		t.Error("fallback flag not set on failure")
	}
	if res.Quality.Overall != 0 {
		t.Errorf("quality = %v on total failure, want 0", res.Quality.Overall)
	}
	if !hasWarningContaining(res.Quality.Warnings, "engine exploded") {
		t.Errorf("failure cause missing from quality warnings: %v", res.Quality.Warnings)
	}
}

func TestLowOCRConfidenceWarning(t *testing.T) {
	low := &fakeProvider{res: ocr.Result{Text: fakeReceiptText, Confidence: 0.5}}
	p := newTestProcessor(t, low)

	opts := testOptions()
	opts.QualityThreshold = 0.6

	res := p.ProcessDocument(context.Background(), "blurry.png", opts)
	if !hasWarningContaining(res.Metadata.Warnings, "below threshold") {
		t.Errorf("ocr confidence 0.5 under threshold 0.6, no warning in %v", res.Metadata.Warnings)
	}

	high := &fakeProvider{res: ocr.Result{Text: fakeReceiptText, Confidence: 0.9}}
	p = newTestProcessor(t, high)
	res = p.ProcessDocument(context.Background(), "sharp.png", opts)
	if hasWarningContaining(res.Metadata.Warnings, "below threshold") {
		t.Errorf("ocr confidence 0.9 over threshold 0.6, unexpected warning in %v", res.Metadata.Warnings)
	}
}

func hasWarningContaining(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestProcessDocumentDisabledStages(t *testing.T) {
	provider := &fakeProvider{res: ocr.Result{Text: fakeReceiptText, Confidence: 0.9}}
	p := newTestProcessor(t, provider)

	opts := testOptions()
	opts.EnableContextUnderstanding = false
	opts.EnableStructuredExtraction = false

	res := p.ProcessDocument(context.Background(), "a.png", opts)
	if res.Metadata.Error != "" {
		t.Fatalf("unexpected failure: %s", res.Metadata.Error)
	}
	if !res.Metadata.FallbackUsed {
		t.Error("fallback flag not set for skipped stages")
	}
	if res.Structured == nil || res.Structured.Kind() != extract.KindGeneric {
		t.Errorf("structured kind = %v, want generic substitute", res.Structured)
	}
	// The keyword fallback still recognizes the receipt.
	if res.DocumentType != constants.DocTypeReceipt {
		t.Errorf("type = %v, want receipt from the keyword classifier", res.DocumentType)
	}

	skipped := 0
	for _, st := range res.Metadata.Stages {
		if st.Status == constants.StageStatusSkipped {
			skipped++
		}
	}
	if skipped != 2 {
		t.Errorf("got %d skipped stages, want 2", skipped)
	}
}

func TestInitPropagatesProviderFailure(t *testing.T) {
	provider := &fakeProvider{initErr: errors.New("no language data")}
	p := newTestProcessor(t, provider)

	if err := p.Init(context.Background()); err == nil {
		t.Fatal("Init() = nil, want the provider's error")
	}
}

func TestNewProcessorRequiresProvider(t *testing.T) {
	if _, err := NewProcessor(nil, nil); err == nil {
		t.Fatal("NewProcessor(nil provider) = nil error")
	}
}

func TestKeywordClassify(t *testing.T) {
	tests := []struct {
		text string
		want constants.DocumentType
	}{
		{"PASSPORT of Utopia", constants.DocTypePassport},
		{"INVOICE #12", constants.DocTypeInvoice},
		{"store receipt", constants.DocTypeReceipt},
		{"total $4.50", constants.DocTypeReceipt},
		{"driver license", constants.DocTypeIDCard},
		{"plain prose", constants.DocTypeUnknown},
	}
	for _, tt := range tests {
		got, conf := keywordClassify(tt.text)
		if got != tt.want {
			t.Errorf("keywordClassify(%q) = %v, want %v", tt.text, got, tt.want)
		}
		if conf < 0.3 || conf > 0.7 {
			t.Errorf("keywordClassify(%q) confidence = %v out of expected range", tt.text, conf)
		}
	}
}
