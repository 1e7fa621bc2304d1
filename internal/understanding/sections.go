package understanding

import (
	"github.com/amitayks/visara-docpipe/internal/ocr"
)

// DetectSections partitions the page into header, body and footer bands and
// assigns blocks and entities to them by vertical position. The split uses
// the same edge margin as layout analysis.
func DetectSections(res ocr.Result, layout LayoutInfo, entities []*Entity) []DocumentSection {
	if len(res.Blocks) == 0 {
		return nil
	}

	top, bottom := pageExtent(res.Blocks)
	headerEnd := top
	if layout.HasHeader {
		headerEnd = top + edgeMargin
	}
	footerStart := bottom
	if layout.HasFooter {
		footerStart = bottom - edgeMargin
	}

	var sections []DocumentSection
	if layout.HasHeader {
		sections = append(sections, buildSection(SectionHeader, res.Blocks, entities, top, headerEnd))
	}
	bodyType := SectionBody
	if layout.HasTable {
		bodyType = SectionTable
	}
	sections = append(sections, buildSection(bodyType, res.Blocks, entities, headerEnd, footerStart))
	if layout.HasFooter {
		sections = append(sections, buildSection(SectionFooter, res.Blocks, entities, footerStart, bottom+1))
	}
	return sections
}

func pageExtent(blocks []ocr.TextBlock) (top, bottom float64) {
	top = blocks[0].Box.Y
	bottom = blocks[0].Box.Y + blocks[0].Box.Height
	for _, b := range blocks {
		if b.Box.Y < top {
			top = b.Box.Y
		}
		if e := b.Box.Y + b.Box.Height; e > bottom {
			bottom = e
		}
	}
	return top, bottom
}

func buildSection(sectionType string, blocks []ocr.TextBlock, entities []*Entity, yFrom, yTo float64) DocumentSection {
	sec := DocumentSection{Type: sectionType}
	first := true
	for _, b := range blocks {
		if b.Box.CenterY() < yFrom || b.Box.CenterY() >= yTo {
			continue
		}
		sec.Content = append(sec.Content, b)
		if first {
			sec.Box = b.Box
			first = false
			continue
		}
		sec.Box = union(sec.Box, b.Box)
	}
	for _, e := range entities {
		if e.Box == nil {
			continue
		}
		if e.Box.CenterY() >= yFrom && e.Box.CenterY() < yTo {
			sec.Entities = append(sec.Entities, e)
		}
	}
	return sec
}

func union(a, b ocr.BoundingBox) ocr.BoundingBox {
	x1, y1 := a.X, a.Y
	if b.X < x1 {
		x1 = b.X
	}
	if b.Y < y1 {
		y1 = b.Y
	}
	x2, y2 := a.X+a.Width, a.Y+a.Height
	if e := b.X + b.Width; e > x2 {
		x2 = e
	}
	if e := b.Y + b.Height; e > y2 {
		y2 = e
	}
	return ocr.BoundingBox{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}
