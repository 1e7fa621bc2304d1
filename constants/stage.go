package constants

// Stage names the pipeline phases in execution order.
type Stage string

const (
	StageOCR        Stage = "ocr"
	StageContext    Stage = "context_understanding"
	StageExtraction Stage = "structured_extraction"
	StageQuality    Stage = "quality_assessment"
)

// Stage outcome labels used in processing logs and metrics.
const (
	StageStatusOK       = "ok"
	StageStatusFallback = "fallback"
	StageStatusSkipped  = "skipped"
	StageStatusFailed   = "failed"
)
