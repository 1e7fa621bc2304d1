package pipeline

import (
	"time"

	"github.com/amitayks/visara-docpipe/internal/common"
)

// Options are per-run knobs. Time and quality limits are advisory: crossing
// them adds warnings to the result but never discards work already done.
type Options struct {
	EnableContextUnderstanding bool
	EnableStructuredExtraction bool
	EnablePreprocessing        bool
	Languages                  []string
	MaxProcessingTime          time.Duration
	QualityThreshold           float64
}

func DefaultOptions() Options {
	return Options{
		EnableContextUnderstanding: true,
		EnableStructuredExtraction: true,
		EnablePreprocessing:        true,
		Languages:                  []string{"eng"},
		MaxProcessingTime:          30 * time.Second,
		QualityThreshold:           0.6,
	}
}

// OptionsFromConfig maps the environment-backed config onto run options.
func OptionsFromConfig(cfg *common.Config) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	opts.EnableContextUnderstanding = cfg.Pipeline.EnableContextUnderstanding
	opts.EnableStructuredExtraction = cfg.Pipeline.EnableStructuredExtraction
	if len(cfg.OCR.Languages) > 0 {
		opts.Languages = cfg.OCR.Languages
	}
	if cfg.Pipeline.MaxProcessingTime > 0 {
		opts.MaxProcessingTime = cfg.Pipeline.MaxProcessingTime
	}
	if cfg.Pipeline.QualityThreshold > 0 {
		opts.QualityThreshold = cfg.Pipeline.QualityThreshold
	}
	return opts
}
