package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const fontFamily = "Helvetica"

func setStyle(pdf *fpdf.Fpdf, s Style) {
	switch s {
	case StyleTitle:
		pdf.SetFont(fontFamily, "B", 18)
	case StyleHeading:
		pdf.SetFont(fontFamily, "B", 13)
	case StyleBold:
		pdf.SetFont(fontFamily, "B", 10)
	case StyleSmall:
		pdf.SetFont(fontFamily, "", 8)
	default:
		pdf.SetFont(fontFamily, "", 10)
	}
}

// pdfMeasurer wraps text with the core font metrics. Text is translated to
// the font's code page first, so measured lines are drawn as they are.
type pdfMeasurer struct {
	pdf       *fpdf.Fpdf
	translate func(string) string
}

func (m *pdfMeasurer) Split(style Style, text string, width float64) []string {
	setStyle(m.pdf, style)
	return m.pdf.SplitText(m.translate(text), width)
}

// RenderPDF lays out and draws the audit report. The document is built in
// memory and written to w only when rendering succeeded.
func RenderPDF(w io.Writer, in *Input) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(Margin, Margin, Margin)
	pdf.SetAutoPageBreak(false, Margin)
	pdf.SetTitle("Audit Report", true)
	pdf.SetCreator("atlas", true)

	layout := BuildLayout(in, &pdfMeasurer{pdf: pdf, translate: pdf.UnicodeTranslatorFromDescriptor("")})

	page := 0
	for _, p := range layout.Blocks {
		for page < p.Page {
			pdf.AddPage()
			page++
		}
		drawBlock(pdf, p)
	}
	if page == 0 {
		pdf.AddPage()
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

func drawBlock(pdf *fpdf.Fpdf, p Placed) {
	y := p.Y
	for _, l := range p.Lines {
		setStyle(pdf, l.Style)
		h := l.Style.LineHeight()
		pdf.SetXY(Margin, y)
		pdf.CellFormat(ContentWidth, h, l.Text, "", 0, "L", false, 0, "")
		y += h
	}
	if p.Table == nil {
		return
	}

	setStyle(pdf, StyleBold)
	pdf.SetFillColor(230, 230, 230)
	x := Margin
	for _, c := range p.Table.Columns {
		pdf.SetXY(x, y)
		pdf.CellFormat(c.Width, RowHeight, c.Title, "1", 0, "L", true, 0, "")
		x += c.Width
	}
	y += RowHeight

	setStyle(pdf, StyleSmall)
	for _, row := range p.Table.Rows {
		x = Margin
		for i, c := range p.Table.Columns {
			text := ""
			if i < len(row) {
				text = row[i]
			}
			pdf.SetXY(x, y)
			pdf.CellFormat(c.Width, RowHeight, text, "1", 0, "L", false, 0, "")
			x += c.Width
		}
		y += RowHeight
	}
}
