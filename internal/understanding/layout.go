package understanding

import (
	"sort"
	"strings"
	"unicode"

	"github.com/amitayks/visara-docpipe/internal/ocr"
)

const (
	columnGapThreshold = 50.0  // px between left-edge clusters
	maxColumns         = 4
	edgeMargin         = 100.0 // px from page edge for header/footer
	tableMinTokenLines = 3     // lines with >=3 tokens needed for a table
)

// AnalyzeLayout infers page geometry from the OCR blocks and raw text.
func AnalyzeLayout(res ocr.Result) LayoutInfo {
	info := LayoutInfo{
		Orientation:   orientationOf(res.Blocks),
		ColumnCount:   columnCount(res.Blocks),
		HasTable:      hasTable(res.Text),
		TextDirection: textDirection(res.Text),
		Confidence:    0.7,
	}
	info.HasHeader, info.HasFooter = headerFooter(res.Blocks)
	if len(res.Blocks) == 0 {
		info.Confidence = 0.4
	}
	return info
}

// orientationOf derives orientation from the mean block aspect ratio; wide
// blocks dominate portrait pages of running text.
func orientationOf(blocks []ocr.TextBlock) string {
	if len(blocks) == 0 {
		return "portrait"
	}
	var sum float64
	n := 0
	for _, b := range blocks {
		if b.Box.Height <= 0 {
			continue
		}
		sum += b.Box.Width / b.Box.Height
		n++
	}
	if n == 0 {
		return "portrait"
	}
	if sum/float64(n) > 6.0 {
		return "landscape"
	}
	return "portrait"
}

// columnCount clusters block left edges in one dimension with a fixed gap
// threshold, capped at maxColumns.
func columnCount(blocks []ocr.TextBlock) int {
	if len(blocks) == 0 {
		return 1
	}
	xs := make([]float64, 0, len(blocks))
	for _, b := range blocks {
		xs = append(xs, b.Box.X)
	}
	sort.Float64s(xs)
	count := 1
	for i := 1; i < len(xs); i++ {
		if xs[i]-xs[i-1] > columnGapThreshold {
			count++
		}
	}
	if count > maxColumns {
		count = maxColumns
	}
	return count
}

// hasTable counts lines that split into three or more whitespace tokens.
func hasTable(text string) bool {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if len(strings.Fields(line)) >= 3 {
			count++
			if count >= tableMinTokenLines {
				return true
			}
		}
	}
	return false
}

// headerFooter checks whether the topmost and bottommost blocks hug the page
// edges. The page extent is estimated from the blocks themselves.
func headerFooter(blocks []ocr.TextBlock) (header, footer bool) {
	if len(blocks) == 0 {
		return false, false
	}
	top := blocks[0].Box.Y
	pageBottom := blocks[0].Box.Y + blocks[0].Box.Height
	lastTop := blocks[0].Box.Y
	for _, b := range blocks {
		if b.Box.Y < top {
			top = b.Box.Y
		}
		if e := b.Box.Y + b.Box.Height; e > pageBottom {
			pageBottom = e
			lastTop = b.Box.Y
		}
	}
	header = top <= edgeMargin
	footer = pageBottom-lastTop <= edgeMargin && pageBottom > 2*edgeMargin
	return header, footer
}

// textDirection counts RTL (Hebrew/Arabic) versus Latin characters. The page
// is "mixed" when RTL characters exceed half the Latin count while Latin is
// still present.
func textDirection(text string) string {
	var rtl, latin int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Hebrew, r) || unicode.Is(unicode.Arabic, r):
			rtl++
		case unicode.IsLetter(r) && r < 0x250:
			latin++
		}
	}
	if latin == 0 {
		if rtl > 0 {
			return "rtl"
		}
		return "ltr"
	}
	if rtl > latin/2 {
		return "mixed"
	}
	return "ltr"
}
