package report

import (
	"time"

	"github.com/rpggio/atlas/internal/ai"
	"github.com/rpggio/atlas/internal/domain/company"
	"github.com/rpggio/atlas/internal/domain/dataset"
	"github.com/rpggio/atlas/internal/domain/finding"
	"github.com/rpggio/atlas/internal/domain/session"
)

// Input is everything an audit report shows.
type Input struct {
	Session *session.Session
	// Company is nil when the tenant never onboarded.
	Company *company.Company
	// Analysis is the stored audit result; nil when the artifact is missing.
	Analysis    *ai.AuditAnalysisResult
	Findings    []finding.Finding
	Documents   []dataset.Dataset
	GeneratedAt time.Time
}

func (in *Input) companyName() string {
	if in.Company == nil {
		return ""
	}
	return in.Company.Name
}

func (in *Input) summary() string {
	if in.Analysis == nil {
		return ""
	}
	return in.Analysis.Summary
}

func (in *Input) acknowledged() int {
	n := 0
	for _, f := range in.Findings {
		if f.Status == finding.StatusAcknowledged {
			n++
		}
	}
	return n
}
