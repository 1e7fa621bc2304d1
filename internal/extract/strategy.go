package extract

import (
	"context"
	"strings"

	"github.com/amitayks/visara-docpipe/internal/understanding"
)

// Strategy converts a classified, entity-annotated document into its
// structured record and can self-validate the result.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, in understanding.ContextualResult) (StructuredData, error)
	Validate(data StructuredData) ValidationResult
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

// splitLines returns the non-empty, trimmed lines of the text.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if s := strings.TrimSpace(l); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsAny(haystack string, needles ...string) bool {
	l := strings.ToLower(haystack)
	for _, n := range needles {
		if strings.Contains(l, n) {
			return true
		}
	}
	return false
}
