package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/amitayks/visara-docpipe/constants"
	"github.com/amitayks/visara-docpipe/internal/ocr"
	"github.com/amitayks/visara-docpipe/internal/understanding"
)

const photoMinSize = 50.0 // px; minimum width and height of a photo region

var (
	reDOB       = regexp.MustCompile(`(?i)(?:date\s+of\s+birth|dob|born)\s*:?\s*(\S+)`)
	reGender    = regexp.MustCompile(`(?i)(?:sex|gender)\s*:?\s*([MF]|male|female)\b`)
	reFullName  = regexp.MustCompile(`(?i)(?:name|full\s+name)\s*:?\s*([A-Za-z][A-Za-z .'-]+)$`)
	reIDNumber  = regexp.MustCompile(`(?i)(?:id|dl|license|document)\s*(?:no|number|#)[:.]?\s*([A-Z0-9-]{4,})`)
	reIssueDt   = regexp.MustCompile(`(?i)(?:issue(?:d)?(?:\s+date)?|iss)\s*:?\s*(\S+)`)
	reExpiryDt  = regexp.MustCompile(`(?i)(?:exp(?:iry|ires|iration)?(?:\s+date)?)\s*:?\s*(\S+)`)
	reAuthority = regexp.MustCompile(`(?i)(?:issued\s+by|issuing\s+authority|authority)\s*:?\s*(.+)$`)
	// trailing "City, ST 12345" line
	reCityStZip = regexp.MustCompile(`(?m)^\s*([A-Za-z .'-]+),\s*([A-Z]{2})\s+(\d{5}(?:-\d{4})?)\s*$`)
)

// securityFeatureKeywords are scanned verbatim in the OCR text.
var securityFeatureKeywords = []string{
	"hologram", "watermark", "uv", "microprint", "barcode", "ghost image", "magnetic stripe",
}

// defaultAuthorities supplies an issuing authority when none is printed.
var defaultAuthorities = map[constants.DocumentType]string{
	constants.DocTypeDriversLicense: "Department of Motor Vehicles",
	constants.DocTypeIDCard:         "National Registry",
	constants.DocTypePassport:       "Passport Authority",
}

// IDStrategy extracts ID cards and driver's licenses.
type IDStrategy struct {
	logger *slog.Logger
}

func NewIDStrategy(logger *slog.Logger) *IDStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &IDStrategy{logger: logger}
}

func (s *IDStrategy) Name() string { return "id" }

func (s *IDStrategy) Extract(ctx context.Context, in understanding.ContextualResult) (StructuredData, error) {
	data := s.extractID(in)
	return data, nil
}

// extractID is shared with the passport strategy, which layers MRZ parsing
// on top of the same field extraction.
func (s *IDStrategy) extractID(in understanding.ContextualResult) IDData {
	text := in.RawOCR.Text
	subtype := in.DocumentType
	if !constants.IsIdentityType(subtype) {
		subtype = constants.DocTypeIDCard
	}

	data := IDData{
		Personal: extractPersonal(text, in),
		Document: DocumentInfo{Subtype: subtype},
		Address:  extractAddress(text),
	}

	if m := reIDNumber.FindStringSubmatch(text); m != nil {
		data.Document.Number = m[1]
	} else {
		for _, e := range in.Context.EntitiesOfType(constants.EntityDocumentNumber) {
			data.Document.Number = lastToken(e.Value)
			break
		}
	}
	if m := reIssueDt.FindStringSubmatch(text); m != nil {
		if d, ok := understanding.ParseDate(m[1]); ok {
			data.Document.IssueDate = &d
		}
	}
	if m := reExpiryDt.FindStringSubmatch(text); m != nil {
		if d, ok := understanding.ParseDate(m[1]); ok {
			data.Document.ExpiryDate = &d
		}
	}
	if m := reAuthority.FindStringSubmatch(text); m != nil {
		data.Document.Authority = strings.TrimSpace(m[1])
	} else {
		data.Document.Authority = defaultAuthorities[subtype]
	}

	data.PhotoRegion = detectPhotoRegion(in.RawOCR.Blocks)
	data.SecurityFeatures = scanSecurityFeatures(text)
	return data
}

func extractPersonal(text string, in understanding.ContextualResult) PersonalInfo {
	p := PersonalInfo{}

	name := ""
	if m := reFullName.FindStringSubmatch(text); m != nil {
		name = strings.TrimSpace(m[1])
	} else if names := in.Context.EntitiesOfType(constants.EntityPersonName); len(names) > 0 {
		name = names[0].Value
	}
	if name != "" {
		parts := strings.Fields(name)
		switch len(parts) {
		case 1:
			p.LastName = parts[0]
		case 2:
			p.FirstName, p.LastName = parts[0], parts[1]
		default:
			p.FirstName = parts[0]
			p.MiddleName = strings.Join(parts[1:len(parts)-1], " ")
			p.LastName = parts[len(parts)-1]
		}
	}

	if m := reDOB.FindStringSubmatch(text); m != nil {
		if d, ok := understanding.ParseDate(m[1]); ok {
			p.DateOfBirth = &d
		}
	}
	if m := reGender.FindStringSubmatch(text); m != nil {
		g := strings.ToUpper(m[1])
		if g == "MALE" {
			g = "M"
		}
		if g == "FEMALE" {
			g = "F"
		}
		p.Gender = g
	}
	return p
}

func extractAddress(text string) PostalAddress {
	addr := PostalAddress{}
	m := reCityStZip.FindStringSubmatchIndex(text)
	if m == nil {
		return addr
	}
	addr.City = strings.TrimSpace(text[m[2]:m[3]])
	addr.State = text[m[4]:m[5]]
	addr.Zip = text[m[6]:m[7]]

	// The street is the last address-looking line above the city line.
	head := text[:m[0]]
	lines := splitLines(head)
	for i := len(lines) - 1; i >= 0; i-- {
		if reAddressHint.MatchString(lines[i]) {
			addr.Street = lines[i]
			break
		}
	}
	return addr
}

// detectPhotoRegion approximates the portrait location as the largest
// text-free quadrant of the card, provided it clears the minimum size.
func detectPhotoRegion(blocks []ocr.TextBlock) *ocr.BoundingBox {
	if len(blocks) == 0 {
		return nil
	}
	minX, minY := blocks[0].Box.X, blocks[0].Box.Y
	maxX, maxY := minX+blocks[0].Box.Width, minY+blocks[0].Box.Height
	for _, b := range blocks {
		if b.Box.X < minX {
			minX = b.Box.X
		}
		if b.Box.Y < minY {
			minY = b.Box.Y
		}
		if e := b.Box.X + b.Box.Width; e > maxX {
			maxX = e
		}
		if e := b.Box.Y + b.Box.Height; e > maxY {
			maxY = e
		}
	}
	midX, midY := (minX+maxX)/2, (minY+maxY)/2

	quadrants := []ocr.BoundingBox{
		{X: minX, Y: minY, Width: midX - minX, Height: midY - minY},
		{X: midX, Y: minY, Width: maxX - midX, Height: midY - minY},
		{X: minX, Y: midY, Width: midX - minX, Height: maxY - midY},
		{X: midX, Y: midY, Width: maxX - midX, Height: maxY - midY},
	}

	var best *ocr.BoundingBox
	bestCoverage := 0.25 // a photo quadrant should be mostly text-free
	for i := range quadrants {
		q := quadrants[i]
		if q.Width < photoMinSize || q.Height < photoMinSize {
			continue
		}
		coverage := textCoverage(q, blocks)
		if coverage < bestCoverage {
			bestCoverage = coverage
			best = &quadrants[i]
		}
	}
	return best
}

func textCoverage(region ocr.BoundingBox, blocks []ocr.TextBlock) float64 {
	area := region.Width * region.Height
	if area <= 0 {
		return 1
	}
	var covered float64
	for _, b := range blocks {
		w := overlap(region.X, region.X+region.Width, b.Box.X, b.Box.X+b.Box.Width)
		h := overlap(region.Y, region.Y+region.Height, b.Box.Y, b.Box.Y+b.Box.Height)
		covered += w * h
	}
	return covered / area
}

func overlap(a1, a2, b1, b2 float64) float64 {
	lo, hi := a1, a2
	if b1 > lo {
		lo = b1
	}
	if b2 < hi {
		hi = b2
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}

func scanSecurityFeatures(text string) []string {
	l := strings.ToLower(text)
	var out []string
	for _, kw := range securityFeatureKeywords {
		if strings.Contains(l, kw) {
			out = append(out, kw)
		}
	}
	return out
}

func lastToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	return fields[len(fields)-1]
}

// Validate checks identity completeness and document currency.
func (s *IDStrategy) Validate(data StructuredData) ValidationResult {
	id, ok := data.(IDData)
	if !ok {
		return ValidationResult{Errors: []string{"id validator received a non-id record"}}
	}
	return validateIDFields(id)
}

func validateIDFields(id IDData) ValidationResult {
	res := ValidationResult{IsValid: true, Confidence: 0.5}

	if id.Personal.LastName == "" && id.Personal.FirstName == "" {
		res.IsValid = false
		res.Confidence -= 0.2
		res.Errors = append(res.Errors, "holder name missing")
	} else {
		res.Confidence += 0.15
	}
	if id.Document.Number == "" {
		res.IsValid = false
		res.Confidence -= 0.2
		res.Errors = append(res.Errors, "document number missing")
	} else {
		res.Confidence += 0.15
	}
	if id.Personal.DateOfBirth == nil {
		res.Warnings = append(res.Warnings, "date of birth missing")
		res.Confidence -= 0.05
	} else {
		res.Confidence += 0.05
	}
	if id.Document.ExpiryDate != nil && id.Document.ExpiryDate.Before(time.Now()) {
		res.Warnings = append(res.Warnings, "document is expired")
		res.Confidence -= 0.1
	}
	if id.PhotoRegion != nil {
		res.Confidence += 0.05
	}
	if len(id.SecurityFeatures) > 0 {
		res.Confidence += 0.05
	}

	res.Confidence = clamp01(res.Confidence)
	return res
}
