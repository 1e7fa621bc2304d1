package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/amitayks/visara-docpipe/internal/understanding"
)

const (
	mrzLineLength  = 44 // TD3 standard
	mrzYearPivot   = 30 // two-digit years below this are 20xx
	minPassportNum = 6
)

var (
	reMRZLine     = regexp.MustCompile(`^[A-Z0-9<]{40,44}$`)
	reVisualName  = regexp.MustCompile(`(?i)(?:surname|given\s+names?|name)\s*[:/]?\s*([A-Za-z][A-Za-z '-]+)$`)
	reNationality = regexp.MustCompile(`(?i)nationality\s*[:/]?\s*([A-Za-z]+)`)
)

// placeholderMRZ stands in when no machine-readable zone is recognized, so
// downstream validity checks still have a fixed shape to inspect.
var placeholderMRZ = MRZInfo{
	Raw:         []string{strings.Repeat("<", mrzLineLength), strings.Repeat("<", mrzLineLength)},
	CheckDigits: []string{"<", "<", "<", "<", "<"},
	Placeholder: true,
}

// PassportStrategy extends ID extraction with MRZ and visual-zone parsing.
type PassportStrategy struct {
	logger *slog.Logger
	id     *IDStrategy
}

func NewPassportStrategy(logger *slog.Logger) *PassportStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &PassportStrategy{logger: logger, id: NewIDStrategy(logger)}
}

func (s *PassportStrategy) Name() string { return "passport" }

func (s *PassportStrategy) Extract(ctx context.Context, in understanding.ContextualResult) (StructuredData, error) {
	data := PassportData{IDData: s.id.extractID(in)}

	if l1, l2, ok := findMRZLines(in.RawOCR.Text); ok {
		data.MRZ = parseTD3(l1, l2)
	} else {
		s.logger.Debug("passport.mrz.missing; using placeholder")
		data.MRZ = placeholderMRZ
	}

	data.VisualName, data.VisualNationality = parseVisualZone(in.RawOCR.Text)

	// MRZ-derived identity wins over label-derived fields when present.
	if !data.MRZ.Placeholder {
		if data.MRZ.Surname != "" {
			data.Personal.LastName = titleCase(data.MRZ.Surname)
		}
		if data.MRZ.GivenNames != "" {
			given := strings.Fields(titleCase(data.MRZ.GivenNames))
			if len(given) > 0 {
				data.Personal.FirstName = given[0]
			}
			if len(given) > 1 {
				data.Personal.MiddleName = strings.Join(given[1:], " ")
			}
		}
		if data.MRZ.Number != "" {
			data.Document.Number = data.MRZ.Number
		}
		if data.MRZ.BirthDate != nil {
			data.Personal.DateOfBirth = data.MRZ.BirthDate
		}
		if data.MRZ.ExpiryDate != nil {
			data.Document.ExpiryDate = data.MRZ.ExpiryDate
		}
		if data.MRZ.Sex != "" && data.MRZ.Sex != "<" {
			data.Personal.Gender = data.MRZ.Sex
		}
	}

	data.Validity = assessValidity(data)
	return data, nil
}

// findMRZLines locates two consecutive lines of 40+ MRZ-alphabet characters.
func findMRZLines(text string) (string, string, bool) {
	lines := splitLines(text)
	for i := 0; i+1 < len(lines); i++ {
		a := strings.ReplaceAll(lines[i], " ", "")
		b := strings.ReplaceAll(lines[i+1], " ", "")
		if reMRZLine.MatchString(a) && reMRZLine.MatchString(b) {
			return padMRZ(a), padMRZ(b), true
		}
	}
	return "", "", false
}

func padMRZ(line string) string {
	if len(line) >= mrzLineLength {
		return line[:mrzLineLength]
	}
	return line + strings.Repeat("<", mrzLineLength-len(line))
}

// parseTD3 decodes the two-line TD3 zone using the standard fixed offsets.
func parseTD3(l1, l2 string) MRZInfo {
	mrz := MRZInfo{Raw: []string{l1, l2}}

	mrz.DocType = strings.Trim(l1[0:2], "<")
	mrz.IssuingCountry = strings.Trim(l1[2:5], "<")
	names := l1[5:]
	if idx := strings.Index(names, "<<"); idx >= 0 {
		mrz.Surname = strings.ReplaceAll(names[:idx], "<", " ")
		mrz.GivenNames = strings.TrimSpace(strings.ReplaceAll(names[idx+2:], "<", " "))
		mrz.GivenNames = strings.Join(strings.Fields(mrz.GivenNames), " ")
	} else {
		mrz.Surname = strings.TrimSpace(strings.ReplaceAll(names, "<", " "))
	}
	mrz.Surname = strings.TrimSpace(mrz.Surname)

	mrz.Number = strings.Trim(l2[0:9], "<")
	mrz.Nationality = strings.Trim(l2[10:13], "<")
	mrz.BirthDate = parseMRZDate(l2[13:19])
	mrz.Sex = strings.Trim(l2[20:21], "<")
	mrz.ExpiryDate = parseMRZDate(l2[21:27])
	mrz.PersonalNumber = strings.Trim(l2[28:42], "<")
	mrz.CheckDigits = []string{
		l2[9:10],  // document number
		l2[19:20], // birth date
		l2[27:28], // expiry date
		l2[42:43], // personal number
		l2[43:44], // composite
	}
	return mrz
}

// parseMRZDate decodes YYMMDD with the two-digit year resolved as 20xx when
// below the pivot and 19xx otherwise.
func parseMRZDate(s string) *time.Time {
	if len(s) != 6 || strings.ContainsRune(s, '<') {
		return nil
	}
	t, err := time.Parse("060102", s)
	if err != nil {
		return nil
	}
	yy := (t.Year()) % 100
	var year int
	if yy < mrzYearPivot {
		year = 2000 + yy
	} else {
		year = 1900 + yy
	}
	d := time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

func parseVisualZone(text string) (name, nationality string) {
	for _, line := range splitLines(text) {
		if reMRZLine.MatchString(strings.ReplaceAll(line, " ", "")) {
			continue // never read the MRZ as the visual zone
		}
		if name == "" {
			if m := reVisualName.FindStringSubmatch(line); m != nil {
				name = strings.TrimSpace(m[1])
			}
		}
		if nationality == "" {
			if m := reNationality.FindStringSubmatch(line); m != nil {
				nationality = strings.TrimSpace(m[1])
			}
		}
	}
	return name, nationality
}

// assessValidity applies the simplified passport checks: numeric check
// digits (no modulo-7 weighted checksum), unexpired document, a number of at
// least six characters, and agreement between MRZ and visual names.
func assessValidity(data PassportData) PassportValidity {
	v := PassportValidity{IsValid: true}
	fail := func(issue string) {
		v.IsValid = false
		v.Issues = append(v.Issues, issue)
	}

	if data.MRZ.Placeholder {
		fail("machine-readable zone not found")
		return v
	}
	for i, cd := range data.MRZ.CheckDigits {
		if len(cd) != 1 || cd[0] < '0' || cd[0] > '9' {
			fail("check digit " + string(rune('1'+i)) + " is not numeric")
		}
	}
	if data.Document.ExpiryDate != nil && data.Document.ExpiryDate.Before(time.Now()) {
		fail("passport is expired")
	}
	if len(data.MRZ.Number) < minPassportNum {
		fail("document number shorter than six characters")
	}
	if data.VisualName != "" {
		mrzName := strings.ToLower(strings.TrimSpace(data.MRZ.Surname + " " + data.MRZ.GivenNames))
		visName := strings.ToLower(data.VisualName)
		if !strings.Contains(mrzName, visName) && !strings.Contains(visName, strings.ToLower(data.MRZ.Surname)) {
			fail("machine-readable and printed names disagree")
		}
	}
	return v
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Validate layers MRZ validity over the base ID checks.
func (s *PassportStrategy) Validate(data StructuredData) ValidationResult {
	p, ok := data.(PassportData)
	if !ok {
		return ValidationResult{Errors: []string{"passport validator received a non-passport record"}}
	}

	res := validateIDFields(p.IDData)
	res.Confidence += 0.05 // passports carry more anchored fields than cards

	if p.MRZ.Placeholder {
		res.Warnings = append(res.Warnings, "no machine-readable zone recognized")
		res.Confidence -= 0.2
	} else {
		res.Confidence += 0.1
	}
	if !p.Validity.IsValid {
		res.IsValid = false
		res.Errors = append(res.Errors, p.Validity.Issues...)
		res.Confidence -= 0.1
	}

	res.Confidence = clamp01(res.Confidence)
	return res
}
