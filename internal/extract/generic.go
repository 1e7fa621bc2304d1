package extract

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/amitayks/visara-docpipe/internal/understanding"
)

const (
	titleMaxLen    = 100
	titleScanLines = 3
	tableMinRows   = 3
	tableMinCols   = 2
)

var (
	reKVColon   = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9 /().#-]{1,40}?)\s*:\s*(\S.*)$`)
	reKVDash    = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9 /().#-]{1,40}?)\s+-\s+(\S.*)$`)
	reKVEquals  = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9 /().#-]{1,40}?)\s*=\s*(\S.*)$`)
	reKVSpaced  = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z .-]{2,30})\s{3,}(\S.*)$`)
	reLeadDigit = regexp.MustCompile(`^\s*\d`)
	reDateLead  = regexp.MustCompile(`^\s*\d{1,4}[/-]\d{1,2}`)

	reAllCaps    = regexp.MustCompile(`^[A-Z][A-Z0-9 &.,'-]{2,}$`)
	reNumberedHd = regexp.MustCompile(`^\s*(?:\d+|[IVXivx]+)[.)]\s+\S`)
	reColonHd    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9 ]{2,40}:$`)

	reTableSplit = regexp.MustCompile(`\s{2,}|\t|\s*\|\s*`)
)

// kvPatterns in priority order; the first pattern that matches a line claims
// it.
var kvPatterns = []struct {
	re   *regexp.Regexp
	conf float64
}{
	{reKVColon, 0.9},
	{reKVDash, 0.75},
	{reKVEquals, 0.85},
	{reKVSpaced, 0.6},
}

// GenericStrategy handles documents no specialized strategy claims. It
// recovers a title, labeled fields, tabular regions and headed sections from
// plain text.
type GenericStrategy struct {
	logger *slog.Logger
}

func NewGenericStrategy(logger *slog.Logger) *GenericStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenericStrategy{logger: logger}
}

func (s *GenericStrategy) Name() string { return "generic" }

func (s *GenericStrategy) Extract(ctx context.Context, in understanding.ContextualResult) (StructuredData, error) {
	lines := splitLines(in.RawOCR.Text)
	data := GenericData{
		Title:    detectTitle(lines),
		Fields:   extractKeyValues(lines),
		Tables:   detectTables(lines),
		Sections: detectSections(lines),
	}
	return data, nil
}

// detectTitle scans the first few lines for a short line that does not open
// with a number, a date or an address.
func detectTitle(lines []string) string {
	limit := titleScanLines
	if len(lines) < limit {
		limit = len(lines)
	}
	for i := 0; i < limit; i++ {
		l := strings.TrimSpace(lines[i])
		if l == "" || len(l) > titleMaxLen {
			continue
		}
		if reLeadDigit.MatchString(l) || reDateLead.MatchString(l) || reAddressHint.MatchString(l) {
			continue
		}
		return l
	}
	return ""
}

// extractKeyValues applies the labeled-field patterns in priority order,
// dedupes case-insensitively keeping the higher confidence, and returns the
// fields sorted by confidence descending.
func extractKeyValues(lines []string) []KeyValue {
	byKey := make(map[string]KeyValue)
	for _, line := range lines {
		for _, p := range kvPatterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			key := strings.TrimSpace(m[1])
			val := strings.TrimSpace(m[2])
			if key == "" || val == "" {
				break
			}
			norm := strings.ToLower(key)
			if prev, ok := byKey[norm]; !ok || p.conf > prev.Confidence {
				byKey[norm] = KeyValue{Key: key, Value: val, Confidence: p.conf}
			}
			break
		}
	}

	out := make([]KeyValue, 0, len(byKey))
	for _, kv := range byKey {
		out = append(out, kv)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// detectTables finds runs of at least three consecutive lines that split into
// the same column count, then extends each run while the count holds.
func detectTables(lines []string) []GenericTable {
	var tables []GenericTable
	i := 0
	for i < len(lines) {
		cols := columnsOf(lines[i])
		if len(cols) < tableMinCols {
			i++
			continue
		}
		j := i + 1
		for j < len(lines) && len(columnsOf(lines[j])) == len(cols) {
			j++
		}
		if j-i >= tableMinRows {
			tbl := GenericTable{StartLine: i, Rows: [][]string{cols}}
			for k := i + 1; k < j; k++ {
				tbl.Rows = append(tbl.Rows, columnsOf(lines[k]))
			}
			tables = append(tables, tbl)
		}
		i = j
	}
	return tables
}

func columnsOf(line string) []string {
	parts := reTableSplit.Split(strings.TrimSpace(line), -1)
	var cols []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cols = append(cols, p)
		}
	}
	return cols
}

// detectSections records header-looking lines and where they occur. A line is
// a header when it is all caps, numbered, or colon-terminated, and the next
// line is not itself a header.
func detectSections(lines []string) []GenericSection {
	var sections []GenericSection
	for i, line := range lines {
		l := strings.TrimSpace(line)
		if l == "" || !isSectionHeader(l) {
			continue
		}
		if i+1 < len(lines) && isSectionHeader(strings.TrimSpace(lines[i+1])) {
			continue
		}
		sections = append(sections, GenericSection{Heading: strings.TrimRight(l, ":"), Line: i})
	}
	return sections
}

func isSectionHeader(l string) bool {
	if l == "" || len(l) > titleMaxLen {
		return false
	}
	return reAllCaps.MatchString(l) || reNumberedHd.MatchString(l) || reColonHd.MatchString(l)
}

// Validate scores structure recovery; a generic result is almost never
// invalid, only weak.
func (s *GenericStrategy) Validate(data StructuredData) ValidationResult {
	g, ok := data.(GenericData)
	if !ok {
		return ValidationResult{Errors: []string{"generic validator received a non-generic record"}}
	}

	res := ValidationResult{IsValid: true, Confidence: 0.4}
	if g.Title != "" {
		res.Confidence += 0.1
	}
	if len(g.Fields) > 0 {
		res.Confidence += 0.2
	} else {
		res.Warnings = append(res.Warnings, "no labeled fields recovered")
	}
	if len(g.Tables) > 0 {
		res.Confidence += 0.1
	}
	if len(g.Sections) > 0 {
		res.Confidence += 0.1
	}
	if g.Title == "" && len(g.Fields) == 0 && len(g.Tables) == 0 && len(g.Sections) == 0 {
		res.Warnings = append(res.Warnings, "no structure recovered from text")
		res.Suggestions = append(res.Suggestions, "rescan the document at a higher resolution")
	}

	res.Confidence = clamp01(res.Confidence)
	return res
}
