package report_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/atlas/internal/ai"
	"github.com/rpggio/atlas/internal/domain/company"
	"github.com/rpggio/atlas/internal/domain/dataset"
	"github.com/rpggio/atlas/internal/domain/finding"
	"github.com/rpggio/atlas/internal/domain/session"
	"github.com/rpggio/atlas/internal/report"
	"github.com/stretchr/testify/require"
)

// charMeasurer wraps at a fixed number of characters per line.
type charMeasurer struct {
	perLine int
}

func (m charMeasurer) Split(_ report.Style, text string, _ float64) []string {
	var out []string
	for len(text) > m.perLine {
		out = append(out, text[:m.perLine])
		text = text[m.perLine:]
	}
	return append(out, text)
}

func sampleInput(findings int) *report.Input {
	impact := 12000.0
	conf := 0.8
	in := &report.Input{
		Session: &session.Session{
			ID:        "s1",
			Module:    session.ModuleAudit,
			Status:    session.StatusReview,
			Title:     "FY26 financial audit",
			AuditType: "financial",
			Standard:  "gaap",
		},
		Company:  &company.Company{Name: "Nordlicht GmbH"},
		Analysis: &ai.AuditAnalysisResult{Summary: "Revenue recognition needs work.", RiskScore: 62},
		Documents: []dataset.Dataset{
			{Name: "Ledger", Type: dataset.TypeFinancial, FileName: "ledger.csv", RowCount: 150},
		},
		GeneratedAt: time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC),
	}
	severities := []finding.Severity{finding.SeverityHigh, finding.SeverityMedium}
	for i := 0; i < findings; i++ {
		in.Findings = append(in.Findings, finding.Finding{
			ID:              fmt.Sprintf("f%d", i),
			Title:           fmt.Sprintf("Finding %d", i),
			Description:     "Invoices were booked before delivery.",
			Severity:        severities[i%2],
			Status:          finding.StatusOpen,
			FinancialImpact: &impact,
			Confidence:      &conf,
			Recommendation:  "Book on delivery.",
		})
	}
	return in
}

func TestBuildLayout_SectionOrder(t *testing.T) {
	layout := report.BuildLayout(sampleInput(2), charMeasurer{perLine: 80})

	var sections []report.Section
	for _, b := range layout.Blocks {
		if len(sections) == 0 || sections[len(sections)-1] != b.Section {
			sections = append(sections, b.Section)
		}
	}
	require.Equal(t, []report.Section{
		report.SectionTitle,
		report.SectionSummary,
		report.SectionCounts,
		report.SectionFinding,
		report.SectionDocuments,
	}, sections)

	require.Equal(t, 2, layout.FindingsCount)
	text := layout.Text()
	require.Contains(t, text, "Findings: 2")
	require.Contains(t, text, "High: 1    Medium: 1    Low: 0    Info: 0")
	require.Contains(t, text, "1. [HIGH] Finding 0")
	require.Contains(t, text, "ledger.csv")
	require.Equal(t, 1, layout.Pages)
}

func TestBuildLayout_NoCompanyOrAnalysis(t *testing.T) {
	in := sampleInput(0)
	in.Company = nil
	in.Analysis = nil
	in.Documents = nil

	layout := report.BuildLayout(in, charMeasurer{perLine: 80})
	text := layout.Text()
	require.Contains(t, text, "Findings: 0")
	require.Contains(t, text, "No summary was recorded.")
	require.Contains(t, text, "No documents were attached.")
}

func TestPaginate_BreaksOnRunningOffset(t *testing.T) {
	layout := report.BuildLayout(sampleInput(40), charMeasurer{perLine: 80})
	require.Greater(t, layout.Pages, 1)

	page, lastY := 1, 0.0
	for _, p := range layout.Blocks {
		require.GreaterOrEqual(t, p.Page, page, "pages never go backwards")
		if p.Page > page {
			page = p.Page
			require.Equal(t, report.Margin, p.Y, "a new page starts at the top margin")
		} else {
			require.GreaterOrEqual(t, p.Y, lastY)
		}
		require.LessOrEqual(t, p.Y+p.Height(), report.PageHeight-report.Margin)
		lastY = p.Y
	}
	require.Equal(t, page, layout.Pages)
}

func TestPaginate_SplitsOversizedBlocks(t *testing.T) {
	in := sampleInput(1)
	in.Findings[0].Description = strings.Repeat("x", 80*80)
	for i := 0; i < 120; i++ {
		in.Documents = append(in.Documents, dataset.Dataset{Name: fmt.Sprintf("doc%d", i), FileName: "d.csv"})
	}

	layout := report.BuildLayout(in, charMeasurer{perLine: 80})

	tableParts := 0
	for _, p := range layout.Blocks {
		require.LessOrEqual(t, p.Y+p.Height(), report.PageHeight-report.Margin)
		if p.Table != nil {
			tableParts++
			require.Equal(t, "Name", p.Table.Columns[0].Title)
		}
	}
	require.Greater(t, tableParts, 1)

	rows := 0
	for _, p := range layout.Blocks {
		if p.Table != nil {
			rows += len(p.Table.Rows)
		}
	}
	require.Equal(t, 121, rows)
}
