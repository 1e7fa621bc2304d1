package constants

import "strings"

// DocumentType identifies the kind of document a pipeline run produced.
type DocumentType string

const (
	DocTypeReceipt        DocumentType = "RECEIPT"
	DocTypeInvoice        DocumentType = "INVOICE"
	DocTypeIDCard         DocumentType = "ID_CARD"
	DocTypeDriversLicense DocumentType = "DRIVERS_LICENSE"
	DocTypePassport       DocumentType = "PASSPORT"
	DocTypeBankStatement  DocumentType = "BANK_STATEMENT"
	DocTypeUtilityBill    DocumentType = "UTILITY_BILL"
	DocTypeContract       DocumentType = "CONTRACT"
	DocTypeLetter         DocumentType = "LETTER"
	DocTypeForm           DocumentType = "FORM"
	DocTypeTicket         DocumentType = "TICKET"
	DocTypeCertificate    DocumentType = "CERTIFICATE"
	DocTypeMedicalRecord  DocumentType = "MEDICAL_RECORD"
	DocTypeUnknown        DocumentType = "UNKNOWN"
)

// KnownDocumentTypes lists every classifiable type in a fixed order.
// Classification iterates this slice, so ties between equally scoring types
// always resolve to the earlier entry.
var KnownDocumentTypes = []DocumentType{
	DocTypeReceipt,
	DocTypeInvoice,
	DocTypeIDCard,
	DocTypeDriversLicense,
	DocTypePassport,
	DocTypeBankStatement,
	DocTypeUtilityBill,
	DocTypeContract,
	DocTypeLetter,
	DocTypeForm,
	DocTypeTicket,
	DocTypeCertificate,
	DocTypeMedicalRecord,
}

// CanonicalizeDocType maps a free-form label to a known DocumentType.
func CanonicalizeDocType(label string) (DocumentType, bool) {
	s := strings.ToUpper(strings.TrimSpace(label))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	for _, t := range KnownDocumentTypes {
		if string(t) == s {
			return t, true
		}
	}
	if s == string(DocTypeUnknown) {
		return DocTypeUnknown, true
	}
	return DocTypeUnknown, false
}

// IsIdentityType reports whether the type carries personal identity fields.
func IsIdentityType(t DocumentType) bool {
	return t == DocTypeIDCard || t == DocTypeDriversLicense || t == DocTypePassport
}
