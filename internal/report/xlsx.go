package report

import (
	"fmt"
	"io"

	"github.com/rpggio/atlas/internal/domain/finding"
	"github.com/xuri/excelize/v2"
)

// Sheet names in workbook order.
const (
	SheetSummary   = "Summary"
	SheetFindings  = "Findings"
	SheetDocuments = "Documents"
)

var findingHeader = []any{"#", "Title", "Severity", "Status", "Category", "Description", "Financial impact", "Confidence", "Recommendation"}

var documentHeader = []any{"Name", "Type", "File", "Rows", "Columns", "Summary"}

// RenderXLSX writes the audit workbook: Summary, Findings and Documents
// sheets in that order. Any sheet error aborts the export before w is
// touched.
func RenderXLSX(w io.Writer, in *Input) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := buildWorkbook(f, in); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}

func buildWorkbook(f *excelize.File, in *Input) error {
	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return err
	}
	for _, name := range []string{SheetFindings, SheetDocuments} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := writeSummary(f, in, bold); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	if err := writeFindings(f, in, bold); err != nil {
		return fmt.Errorf("findings sheet: %w", err)
	}
	if err := writeDocuments(f, in, bold); err != nil {
		return fmt.Errorf("documents sheet: %w", err)
	}
	f.SetActiveSheet(0)
	return nil
}

func writeSummary(f *excelize.File, in *Input, bold int) error {
	counts := finding.CountBySeverity(in.Findings)
	rows := [][]any{
		{"Report", "Audit Report"},
		{"Company", in.companyName()},
		{"Session", in.Session.Title},
		{"Audit type", in.Session.AuditType},
		{"Standard", in.Session.Standard},
		{"Status", string(in.Session.Status)},
		{"Generated", in.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC")},
		{"Summary", in.summary()},
	}
	if in.Analysis != nil {
		rows = append(rows, []any{"Risk score", in.Analysis.RiskScore})
	}
	rows = append(rows, []any{"Findings", len(in.Findings)})
	for _, s := range finding.Severities {
		rows = append(rows, []any{severityLabel(s), counts[s]})
	}
	rows = append(rows, []any{"Acknowledged", in.acknowledged()})

	if err := writeRows(f, SheetSummary, 1, rows); err != nil {
		return err
	}
	if err := f.SetColStyle(SheetSummary, "A", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 18); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "B", "B", 80)
}

func writeFindings(f *excelize.File, in *Input, bold int) error {
	rows := [][]any{findingHeader}
	for i, fd := range in.Findings {
		rows = append(rows, []any{
			i + 1,
			fd.Title,
			string(fd.Severity),
			string(fd.Status),
			fd.Category,
			fd.Description,
			optional(fd.FinancialImpact),
			optional(fd.Confidence),
			fd.Recommendation,
		})
	}
	if err := writeRows(f, SheetFindings, 1, rows); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetFindings, 1, 1, bold); err != nil {
		return err
	}
	return f.SetColWidth(SheetFindings, "B", "B", 40)
}

func writeDocuments(f *excelize.File, in *Input, bold int) error {
	rows := [][]any{documentHeader}
	for _, d := range in.Documents {
		rows = append(rows, []any{d.Name, string(d.Type), d.FileName, d.RowCount, len(d.Headers), d.Summary})
	}
	if err := writeRows(f, SheetDocuments, 1, rows); err != nil {
		return err
	}
	return f.SetRowStyle(SheetDocuments, 1, 1, bold)
}

func writeRows(f *excelize.File, sheet string, first int, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, first+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func optional(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
