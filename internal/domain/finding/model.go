package finding

import "time"

// Severity ranks how serious an audit finding is.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
	SeverityInfo   Severity = "info"
)

// Valid reports whether the severity is known.
func (s Severity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	}
	return false
}

// Rank orders severities with high first.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	default:
		return 3
	}
}

// Severities lists all severities in rank order.
var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// Status tracks whether a finding was reviewed.
type Status string

const (
	StatusOpen         Status = "open"
	StatusAcknowledged Status = "acknowledged"
)

// Valid reports whether the status is known.
func (s Status) Valid() bool {
	return s == StatusOpen || s == StatusAcknowledged
}

// Finding is one audit observation attached to a session.
type Finding struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	SessionID       string    `json:"session_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Category        string    `json:"category,omitempty"`
	Severity        Severity  `json:"severity"`
	Status          Status    `json:"status"`
	FinancialImpact *float64  `json:"financial_impact,omitempty"`
	Confidence      *float64  `json:"confidence,omitempty"`
	Recommendation  string    `json:"recommendation,omitempty"`
	Position        int       `json:"position"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Draft is an unsaved finding, usually straight from the analysis result.
type Draft struct {
	Title           string
	Description     string
	Category        string
	Severity        Severity
	FinancialImpact *float64
	Confidence      *float64
	Recommendation  string
}

// CountBySeverity tallies findings per severity.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int, len(Severities))
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}
