package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rpggio/atlas/internal/domain/finding"
)

// A4 portrait geometry in millimetres.
const (
	PageWidth    = 210.0
	PageHeight   = 297.0
	Margin       = 15.0
	ContentWidth = PageWidth - 2*Margin
	BlockGap     = 4.0
	RowHeight    = 6.0
)

// Style selects the font of a line.
type Style int

const (
	StyleBody Style = iota
	StyleTitle
	StyleHeading
	StyleBold
	StyleSmall
)

// LineHeight is the vertical advance of one line in a style.
func (s Style) LineHeight() float64 {
	switch s {
	case StyleTitle:
		return 10
	case StyleHeading:
		return 8
	case StyleSmall:
		return 4.5
	default:
		return 5.5
	}
}

// Section names the part of the report a block belongs to. Sections appear
// in declaration order.
type Section string

const (
	SectionTitle     Section = "title"
	SectionSummary   Section = "summary"
	SectionCounts    Section = "counts"
	SectionFinding   Section = "finding"
	SectionDocuments Section = "documents"
)

// Measurer wraps text to a width in the renderer's font metrics. The
// returned lines are in the encoding the renderer draws.
type Measurer interface {
	Split(style Style, text string, width float64) []string
}

// Line is one measured line of text.
type Line struct {
	Style Style
	Text  string
}

// Column is a table column.
type Column struct {
	Title string
	Width float64
}

// Table is a bordered grid with a header row.
type Table struct {
	Columns []Column
	Rows    [][]string
}

// Block is an unbreakable unit of layout: text lines, optionally followed
// by a table.
type Block struct {
	Section Section
	Lines   []Line
	Table   *Table
}

// Height is the vertical space the block takes.
func (b Block) Height() float64 {
	h := 0.0
	for _, l := range b.Lines {
		h += l.Style.LineHeight()
	}
	if b.Table != nil {
		h += RowHeight * float64(1+len(b.Table.Rows))
	}
	return h
}

// Placed is a block positioned on a page. Pages count from 1.
type Placed struct {
	Block
	Page int
	Y    float64
}

// Layout is the positioned report, ready to render.
type Layout struct {
	Blocks []Placed
	Pages  int
	// FindingsCount is the N of the "Findings: N" line.
	FindingsCount int
}

// Text returns every line and table cell in drawing order.
func (l *Layout) Text() []string {
	var out []string
	for _, p := range l.Blocks {
		for _, line := range p.Lines {
			out = append(out, line.Text)
		}
		if p.Table != nil {
			for _, c := range p.Table.Columns {
				out = append(out, c.Title)
			}
			for _, row := range p.Table.Rows {
				out = append(out, row...)
			}
		}
	}
	return out
}

// BuildLayout computes the report's blocks in fixed section order and
// places them on pages.
func BuildLayout(in *Input, m Measurer) *Layout {
	w := &writer{m: m}
	blocks := []Block{
		titleBlock(w, in),
		summaryBlock(w, in),
		countsBlock(w, in),
	}
	for i, f := range in.Findings {
		blocks = append(blocks, findingBlock(w, i+1, f))
	}
	blocks = append(blocks, documentsBlock(w, in))

	placed, pages := Paginate(blocks)
	return &Layout{Blocks: placed, Pages: pages, FindingsCount: len(in.Findings)}
}

// Paginate places blocks top to bottom, tracking a running vertical
// offset. A block that does not fit in the space left starts a new page;
// one taller than a whole page is split.
func Paginate(blocks []Block) ([]Placed, int) {
	bottom := PageHeight - Margin
	usable := bottom - Margin

	page, y := 1, Margin
	var out []Placed
	for _, b := range blocks {
		for _, part := range fit(b, usable) {
			h := part.Height()
			if y+h > bottom && y > Margin {
				page++
				y = Margin
			}
			out = append(out, Placed{Block: part, Page: page, Y: y})
			y += h + BlockGap
		}
	}
	return out, page
}

// fit splits a block into parts no taller than limit. Tables repeat their
// header on each part.
func fit(b Block, limit float64) []Block {
	if b.Height() <= limit {
		return []Block{b}
	}

	var parts []Block
	cur := Block{Section: b.Section}
	h := 0.0
	for _, l := range b.Lines {
		lh := l.Style.LineHeight()
		if h+lh > limit && len(cur.Lines) > 0 {
			parts = append(parts, cur)
			cur = Block{Section: b.Section}
			h = 0
		}
		cur.Lines = append(cur.Lines, l)
		h += lh
	}

	if b.Table != nil {
		rows := b.Table.Rows
		for {
			room := int((limit - h) / RowHeight)
			if room < 2 && (len(cur.Lines) > 0 || cur.Table != nil) {
				parts = append(parts, cur)
				cur = Block{Section: b.Section}
				h = 0
				continue
			}
			n := room - 1
			if n < 1 {
				n = 1
			}
			if n > len(rows) {
				n = len(rows)
			}
			cur.Table = &Table{Columns: b.Table.Columns, Rows: rows[:n]}
			rows = rows[n:]
			if len(rows) == 0 {
				break
			}
			parts = append(parts, cur)
			cur = Block{Section: b.Section}
			h = 0
		}
	}
	return append(parts, cur)
}

type writer struct {
	m Measurer
}

func (w *writer) lines(style Style, text string) []Line {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out []Line
	for _, s := range w.m.Split(style, text, ContentWidth) {
		out = append(out, Line{Style: style, Text: s})
	}
	return out
}

func (w *writer) cell(text string, width float64) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	parts := w.m.Split(StyleSmall, text, width-2)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func titleBlock(w *writer, in *Input) Block {
	b := Block{Section: SectionTitle}
	b.Lines = append(b.Lines, w.lines(StyleTitle, "Audit Report")...)
	b.Lines = append(b.Lines, w.lines(StyleHeading, in.companyName())...)
	if in.Session.Title != "" {
		b.Lines = append(b.Lines, w.lines(StyleBody, "Session: "+in.Session.Title)...)
	}
	scope := "Audit type: " + orDash(in.Session.AuditType) + "    Standard: " + orDash(in.Session.Standard)
	b.Lines = append(b.Lines, w.lines(StyleBody, scope)...)
	b.Lines = append(b.Lines, w.lines(StyleSmall, "Generated "+in.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"))...)
	return b
}

func summaryBlock(w *writer, in *Input) Block {
	b := Block{Section: SectionSummary}
	b.Lines = append(b.Lines, w.lines(StyleHeading, "Audit Summary")...)
	if s := in.summary(); s != "" {
		b.Lines = append(b.Lines, w.lines(StyleBody, s)...)
	} else {
		b.Lines = append(b.Lines, w.lines(StyleBody, "No summary was recorded.")...)
	}
	if in.Analysis != nil && in.Analysis.RiskScore > 0 {
		b.Lines = append(b.Lines, w.lines(StyleBody, "Risk score: "+strconv.FormatFloat(in.Analysis.RiskScore, 'f', -1, 64))...)
	}
	b.Lines = append(b.Lines, w.lines(StyleSmall, "Status: "+string(in.Session.Status))...)
	return b
}

func countsBlock(w *writer, in *Input) Block {
	counts := finding.CountBySeverity(in.Findings)
	parts := make([]string, 0, len(finding.Severities))
	for _, s := range finding.Severities {
		parts = append(parts, fmt.Sprintf("%s: %d", severityLabel(s), counts[s]))
	}

	b := Block{Section: SectionCounts}
	b.Lines = append(b.Lines, w.lines(StyleHeading, fmt.Sprintf("Findings: %d", len(in.Findings)))...)
	b.Lines = append(b.Lines, w.lines(StyleBody, strings.Join(parts, "    "))...)
	b.Lines = append(b.Lines, w.lines(StyleSmall, fmt.Sprintf("Acknowledged: %d of %d", in.acknowledged(), len(in.Findings)))...)
	return b
}

func findingBlock(w *writer, n int, f finding.Finding) Block {
	b := Block{Section: SectionFinding}
	b.Lines = append(b.Lines, w.lines(StyleBold, fmt.Sprintf("%d. [%s] %s", n, strings.ToUpper(string(f.Severity)), f.Title))...)
	b.Lines = append(b.Lines, w.lines(StyleBody, f.Description)...)

	meta := []string{"Status: " + string(f.Status)}
	if f.Category != "" {
		meta = append(meta, "Category: "+f.Category)
	}
	if f.FinancialImpact != nil {
		meta = append(meta, "Impact: "+strconv.FormatFloat(*f.FinancialImpact, 'f', 2, 64))
	}
	if f.Confidence != nil {
		meta = append(meta, fmt.Sprintf("Confidence: %.0f%%", *f.Confidence*100))
	}
	b.Lines = append(b.Lines, w.lines(StyleSmall, strings.Join(meta, " | "))...)
	if f.Recommendation != "" {
		b.Lines = append(b.Lines, w.lines(StyleBody, "Recommendation: "+f.Recommendation)...)
	}
	return b
}

func documentsBlock(w *writer, in *Input) Block {
	cols := []Column{
		{Title: "Name", Width: 70},
		{Title: "Type", Width: 30},
		{Title: "File", Width: 55},
		{Title: "Rows", Width: 25},
	}
	t := &Table{Columns: cols}
	for _, d := range in.Documents {
		t.Rows = append(t.Rows, []string{
			w.cell(d.Name, cols[0].Width),
			w.cell(string(d.Type), cols[1].Width),
			w.cell(d.FileName, cols[2].Width),
			strconv.Itoa(d.RowCount),
		})
	}

	b := Block{Section: SectionDocuments, Table: t}
	b.Lines = append(b.Lines, w.lines(StyleHeading, "Documents")...)
	if len(in.Documents) == 0 {
		b.Lines = append(b.Lines, w.lines(StyleSmall, "No documents were attached.")...)
	}
	return b
}

func severityLabel(s finding.Severity) string {
	str := string(s)
	if str == "" {
		return str
	}
	return strings.ToUpper(str[:1]) + str[1:]
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
