package understanding

import (
	"regexp"

	"github.com/amitayks/visara-docpipe/constants"
)

// UnknownConfidence is reported when no classification pattern matches.
const UnknownConfidence = 0.3

type typePatterns struct {
	docType  constants.DocumentType
	patterns []*regexp.Regexp
}

// classificationTable maps each known document type to its indicator
// patterns. Order follows constants.KnownDocumentTypes so equal scores
// resolve deterministically to the earlier type.
var classificationTable = []typePatterns{
	{constants.DocTypeReceipt, compileAll(
		`(?i)\breceipt\b`,
		`(?i)\btotal\b[^\n]{0,20}[$£€₪]?\s*\d`,
		`(?i)\btax\b[^\n]{0,20}[$£€₪]?\s*\d`,
		`(?i)\bchange\b[^\n]{0,20}[$£€₪]?\s*\d`,
		`(?i)\b(cash|card|payment)\b`,
	)},
	{constants.DocTypeInvoice, compileAll(
		`(?i)\binvoice\b`,
		`(?i)\bbill\s+to\b`,
		`(?i)\bdue\s+date\b`,
		`(?i)\binvoice\s*(no|number|#)`,
		`(?i)\b(payment\s+terms|net\s+\d+)\b`,
	)},
	{constants.DocTypeIDCard, compileAll(
		`(?i)\bidentity\s+card\b|\bidentification\b`,
		`(?i)\bdate\s+of\s+birth\b|\bdob\b`,
		`(?i)\bsex\b|\bgender\b`,
		`(?i)\bid\s*(no|number)\b`,
	)},
	{constants.DocTypeDriversLicense, compileAll(
		`(?i)driver'?s?\s+licen[cs]e`,
		`(?i)\bclass\b`,
		`(?i)\bdl\s*(no|number|#)`,
		`(?i)\b(endorsements|restrictions)\b`,
	)},
	{constants.DocTypePassport, compileAll(
		`(?i)\bpassport\b`,
		`(?i)\bnationality\b`,
		`(?i)\bplace\s+of\s+birth\b`,
		`P<[A-Z]{3}`,
	)},
	{constants.DocTypeBankStatement, compileAll(
		`(?i)\b(bank\s+statement|account\s+summary)\b`,
		`(?i)\b(opening|closing)\s+balance\b`,
		`(?i)\b(deposit|withdrawal)\b`,
	)},
	{constants.DocTypeUtilityBill, compileAll(
		`(?i)\b(electricity|water|gas)\s+(bill|charges)\b|\butility\b`,
		`(?i)\bmeter\s+reading\b`,
		`(?i)\b(kwh|usage|billing\s+period)\b`,
	)},
	{constants.DocTypeContract, compileAll(
		`(?i)\b(agreement|contract)\b`,
		`(?i)\b(party|parties)\b`,
		`(?i)\bterms\s+and\s+conditions\b`,
		`(?i)\bwhereas\b`,
	)},
	{constants.DocTypeLetter, compileAll(
		`(?i)\bdear\s+[a-z]`,
		`(?i)\b(sincerely|regards|yours\s+(truly|faithfully))\b`,
	)},
	{constants.DocTypeForm, compileAll(
		`(?i)\bform\b`,
		`(?i)\bplease\s+(fill|complete|print)\b`,
		`(?i)\bapplicant\b`,
	)},
	{constants.DocTypeTicket, compileAll(
		`(?i)\b(ticket|admission|boarding\s+pass)\b`,
		`(?i)\b(seat|row|gate)\b`,
		`(?i)\b(event|departure|arrival)\b`,
	)},
	{constants.DocTypeCertificate, compileAll(
		`(?i)\bcertificate\b|\bcertif(y|ies|ied)\b`,
		`(?i)\b(awarded|hereby|completion)\b`,
	)},
	{constants.DocTypeMedicalRecord, compileAll(
		`(?i)\bpatient\b`,
		`(?i)\b(diagnosis|prescription|dosage)\b`,
		`(?i)\b(physician|clinic|dr\.)`,
	)},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// Classify scores the text against every known document type and returns the
// winner. The score of a type is the count of all pattern matches summed
// across its pattern list; confidence saturates at 0.9. When nothing matches
// the result is DocTypeUnknown with confidence 0.3.
func Classify(text string) (constants.DocumentType, float64) {
	bestType := constants.DocTypeUnknown
	bestScore := 0
	for _, tp := range classificationTable {
		score := 0
		for _, re := range tp.patterns {
			score += len(re.FindAllStringIndex(text, -1))
		}
		if score > bestScore {
			bestScore = score
			bestType = tp.docType
		}
	}
	if bestScore == 0 {
		return constants.DocTypeUnknown, UnknownConfidence
	}
	conf := 0.5 + 0.1*float64(bestScore)
	if conf > 0.9 {
		conf = 0.9
	}
	return bestType, conf
}
