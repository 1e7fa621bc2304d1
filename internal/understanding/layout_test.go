package understanding

import (
	"testing"

	"github.com/amitayks/visara-docpipe/internal/ocr"
)

func block(x, y, w, h float64) ocr.TextBlock {
	return ocr.TextBlock{Box: ocr.BoundingBox{X: x, Y: y, Width: w, Height: h}}
}

func TestColumnCount(t *testing.T) {
	tests := []struct {
		name   string
		blocks []ocr.TextBlock
		want   int
	}{
		{
			name:   "single column",
			blocks: []ocr.TextBlock{block(0, 0, 100, 20), block(10, 30, 100, 20), block(20, 60, 100, 20)},
			want:   1,
		},
		{
			name:   "two columns",
			blocks: []ocr.TextBlock{block(0, 0, 100, 20), block(300, 0, 100, 20)},
			want:   2,
		},
		{
			name: "capped at four",
			blocks: []ocr.TextBlock{
				block(0, 0, 40, 20), block(100, 0, 40, 20), block(200, 0, 40, 20),
				block(300, 0, 40, 20), block(400, 0, 40, 20), block(500, 0, 40, 20),
			},
			want: 4,
		},
		{
			name:   "no blocks",
			blocks: nil,
			want:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := columnCount(tt.blocks); got != tt.want {
				t.Errorf("columnCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHeaderFooter(t *testing.T) {
	blocks := []ocr.TextBlock{
		block(0, 10, 200, 20),  // near the top edge
		block(0, 250, 200, 20), // body
		block(0, 500, 200, 20), // near the bottom
	}
	header, footer := headerFooter(blocks)
	if !header {
		t.Error("headerFooter() header = false, want true")
	}
	if !footer {
		t.Error("headerFooter() footer = false, want true")
	}

	// A page whose content starts deep below the top edge has no header.
	header, _ = headerFooter([]ocr.TextBlock{block(0, 200, 100, 20), block(0, 400, 100, 20)})
	if header {
		t.Error("headerFooter() header = true for content starting at y=200")
	}
}

func TestHasTable(t *testing.T) {
	tabular := "Item Qty Price\nApple 2 1.00\nPear 1 0.50"
	if !hasTable(tabular) {
		t.Error("hasTable() = false for three token-dense lines")
	}
	if hasTable("one line\nanother line") {
		t.Error("hasTable() = true for sparse text")
	}
}

func TestTextDirection(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"latin", "Hello world", "ltr"},
		{"hebrew", "שלום עולם", "rtl"},
		{"hebrew dominant with latin", "שלום שלום שלום ab", "mixed"},
		{"empty", "", "ltr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := textDirection(tt.text); got != tt.want {
				t.Errorf("textDirection(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestAnalyzeLayoutNoBlocks(t *testing.T) {
	info := AnalyzeLayout(ocr.Result{Text: "just text"})
	if info.Confidence != 0.4 {
		t.Errorf("confidence = %v, want 0.4 without blocks", info.Confidence)
	}
	if info.Orientation != "portrait" {
		t.Errorf("orientation = %q, want portrait", info.Orientation)
	}
}
