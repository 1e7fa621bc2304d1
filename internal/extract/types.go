// Package extract owns the per-document-type extraction strategies and the
// registry that selects between them. StructuredData is a closed, tagged
// union: exactly one concrete shape exists per pipeline run, discriminated
// by Kind, so consumers can type-switch without consulting external context.
package extract

import (
	"time"

	"github.com/amitayks/visara-docpipe/constants"
	"github.com/amitayks/visara-docpipe/internal/ocr"
)

// Kind discriminates the concrete StructuredData shape.
type Kind string

const (
	KindReceipt  Kind = "receipt"
	KindInvoice  Kind = "invoice"
	KindID       Kind = "id"
	KindPassport Kind = "passport"
	KindGeneric  Kind = "generic"
)

// StructuredData is the closed union of record shapes a strategy can
// produce. The interface is sealed: only types in this package implement it.
type StructuredData interface {
	Kind() Kind
	isStructuredData()
}

// ValidationResult is a strategy's self-assessment of its own output.
type ValidationResult struct {
	IsValid     bool     `json:"is_valid"`
	Confidence  float64  `json:"confidence"`
	Errors      []string `json:"errors,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Vendor identifies the issuing business on receipts.
type Vendor struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
}

// LineItem is one purchased item on a receipt or invoice.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity,omitempty"`
	UnitPrice   float64 `json:"unit_price,omitempty"`
	Total       float64 `json:"total"`
}

// ReceiptTotals carries the monetary summary of a receipt.
type ReceiptTotals struct {
	Subtotal float64 `json:"subtotal,omitempty"`
	Tax      float64 `json:"tax,omitempty"`
	Tip      float64 `json:"tip,omitempty"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// ReceiptMetadata holds labeled auxiliary fields printed on receipts.
type ReceiptMetadata struct {
	Cashier  string `json:"cashier,omitempty"`
	Register string `json:"register,omitempty"`
	Store    string `json:"store,omitempty"`
}

// ReceiptData is the structured record for retail receipts.
type ReceiptData struct {
	Vendor        Vendor          `json:"vendor"`
	Date          *time.Time      `json:"date,omitempty"`
	Items         []LineItem      `json:"items"`
	Totals        ReceiptTotals   `json:"totals"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Metadata      ReceiptMetadata `json:"metadata"`
}

func (ReceiptData) Kind() Kind        { return KindReceipt }
func (ReceiptData) isStructuredData() {}

// BusinessParty is one side of an invoice (vendor or customer).
type BusinessParty struct {
	Name    string `json:"name"`
	TaxID   string `json:"tax_id,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// InvoiceTotals carries the monetary summary of an invoice.
type InvoiceTotals struct {
	Subtotal float64 `json:"subtotal,omitempty"`
	Tax      float64 `json:"tax,omitempty"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// InvoiceData is the structured record for invoices.
type InvoiceData struct {
	Number    string        `json:"number"`
	IssueDate *time.Time    `json:"issue_date,omitempty"`
	DueDate   *time.Time    `json:"due_date,omitempty"`
	Terms     string        `json:"terms,omitempty"`
	Vendor    BusinessParty `json:"vendor"`
	Customer  BusinessParty `json:"customer"`
	Items     []LineItem    `json:"items,omitempty"`
	Totals    InvoiceTotals `json:"totals"`
}

func (InvoiceData) Kind() Kind        { return KindInvoice }
func (InvoiceData) isStructuredData() {}

// PersonalInfo holds identity fields common to ID documents.
type PersonalInfo struct {
	FirstName   string     `json:"first_name,omitempty"`
	MiddleName  string     `json:"middle_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      string     `json:"gender,omitempty"`
}

// DocumentInfo holds the issuing details of an ID document.
type DocumentInfo struct {
	Number     string                 `json:"number"`
	IssueDate  *time.Time             `json:"issue_date,omitempty"`
	ExpiryDate *time.Time             `json:"expiry_date,omitempty"`
	Authority  string                 `json:"authority,omitempty"`
	Subtype    constants.DocumentType `json:"subtype"`
}

// PostalAddress is a parsed street address.
type PostalAddress struct {
	Street string `json:"street,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zip,omitempty"`
}

// IDData is the structured record for ID cards and driver's licenses.
type IDData struct {
	Personal         PersonalInfo     `json:"personal"`
	Document         DocumentInfo     `json:"document"`
	Address          PostalAddress    `json:"address"`
	PhotoRegion      *ocr.BoundingBox `json:"photo_region,omitempty"`
	SecurityFeatures []string         `json:"security_features,omitempty"`
}

func (IDData) Kind() Kind        { return KindID }
func (IDData) isStructuredData() {}

// MRZInfo holds the fields decoded from a TD3 machine-readable zone.
type MRZInfo struct {
	Raw            []string   `json:"raw"`
	DocType        string     `json:"doc_type"`
	IssuingCountry string     `json:"issuing_country"`
	Surname        string     `json:"surname"`
	GivenNames     string     `json:"given_names"`
	Number         string     `json:"number"`
	Nationality    string     `json:"nationality"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	Sex            string     `json:"sex,omitempty"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
	PersonalNumber string     `json:"personal_number,omitempty"`
	CheckDigits    []string   `json:"check_digits"`
	Placeholder    bool       `json:"placeholder,omitempty"`
}

// PassportValidity is the simplified validity assessment of a passport.
type PassportValidity struct {
	IsValid bool     `json:"is_valid"`
	Issues  []string `json:"issues,omitempty"`
}

// PassportData extends the ID record with MRZ and visual-zone fields.
type PassportData struct {
	IDData
	MRZ               MRZInfo          `json:"mrz"`
	VisualName        string           `json:"visual_name,omitempty"`
	VisualNationality string           `json:"visual_nationality,omitempty"`
	Validity          PassportValidity `json:"validity"`
}

func (PassportData) Kind() Kind        { return KindPassport }
func (PassportData) isStructuredData() {}

// KeyValue is one extracted key/value pair in a generic document.
type KeyValue struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// GenericTable is a detected tabular region: rows of equal column count.
type GenericTable struct {
	StartLine int        `json:"start_line"`
	Rows      [][]string `json:"rows"`
}

// GenericSection is a detected heading with the index of its line.
type GenericSection struct {
	Heading string `json:"heading"`
	Line    int    `json:"line"`
}

// GenericData is the catch-all structured record for unrecognized types.
type GenericData struct {
	Title    string           `json:"title,omitempty"`
	Fields   []KeyValue       `json:"fields,omitempty"`
	Tables   []GenericTable   `json:"tables,omitempty"`
	Sections []GenericSection `json:"sections,omitempty"`
}

func (GenericData) Kind() Kind        { return KindGeneric }
func (GenericData) isStructuredData() {}
