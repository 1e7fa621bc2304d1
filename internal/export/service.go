// Package export writes processed document results to spreadsheet files.
package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/amitayks/visara-docpipe/internal/extract"
	"github.com/amitayks/visara-docpipe/internal/pipeline"
)

var sheetHeaders = []string{
	"Run ID", "Image", "Type", "Summary", "Amount", "Currency",
	"Date", "Confidence", "Quality", "Status", "Warnings",
}

// Service renders pipeline results into an XLSX workbook.
type Service struct {
	logger    *slog.Logger
	sheetName string
}

func NewService(logger *slog.Logger, sheetName string) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if sheetName == "" {
		sheetName = "Documents"
	}
	return &Service{logger: logger, sheetName: sheetName}
}

// WriteXLSX writes one row per result to path. Existing files are replaced.
func (s *Service) WriteXLSX(path string, results []*pipeline.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet, err := f.NewSheet(s.sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(sheet)
	if s.sheetName != "Sheet1" {
		// drop the default sheet excelize always creates
		_ = f.DeleteSheet("Sheet1")
	}

	for col, h := range sheetHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(s.sheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, r := range results {
		row := rowValues(r)
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("row cell: %w", err)
			}
			if err := f.SetCellValue(s.sheetName, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	s.logger.Info("export.xlsx.written", "path", path, "rows", len(results))
	return nil
}

func rowValues(r *pipeline.Result) []any {
	summary, amount, currency, date := summarize(r.Structured)
	status := "ok"
	if r.Metadata.Error != "" {
		status = "failed"
	} else if r.Metadata.FallbackUsed {
		status = "degraded"
	}
	return []any{
		r.Metadata.RunID,
		r.Metadata.ImageRef,
		string(r.DocumentType),
		summary,
		amount,
		currency,
		date,
		r.Confidence,
		r.Quality.Overall,
		status,
		strings.Join(r.Metadata.Warnings, "; "),
	}
}

// summarize flattens the per-kind record into spreadsheet-friendly columns.
func summarize(data extract.StructuredData) (summary string, amount float64, currency, date string) {
	switch d := data.(type) {
	case extract.ReceiptData:
		return d.Vendor.Name, d.Totals.Total, d.Totals.Currency, formatDate(d.Date)
	case extract.InvoiceData:
		label := d.Vendor.Name
		if d.Number != "" {
			label = strings.TrimSpace(label + " #" + d.Number)
		}
		return label, d.Totals.Total, d.Totals.Currency, formatDate(d.IssueDate)
	case extract.IDData:
		return holderName(d), 0, "", formatDate(d.Document.ExpiryDate)
	case extract.PassportData:
		return holderName(d.IDData), 0, "", formatDate(d.Document.ExpiryDate)
	case extract.GenericData:
		return d.Title, 0, "", ""
	default:
		return "", 0, "", ""
	}
}

func holderName(d extract.IDData) string {
	return strings.TrimSpace(d.Personal.FirstName + " " + d.Personal.LastName)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
