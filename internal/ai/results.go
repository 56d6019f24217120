package ai

import (
	"errors"
	"fmt"
	"strings"
)

// DiagnosisResult is the output of a diagnose request.
type DiagnosisResult struct {
	Summary       string      `json:"summary"`
	RootCauses    []RootCause `json:"root_causes"`
	KeyMetrics    []Metric    `json:"key_metrics,omitempty"`
	Risks         []string    `json:"risks,omitempty"`
	Opportunities []string    `json:"opportunities,omitempty"`
}

type RootCause struct {
	Cause    string `json:"cause"`
	Evidence string `json:"evidence,omitempty"`
	Impact   string `json:"impact,omitempty"`
}

type Metric struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Trend string `json:"trend,omitempty"`
}

func (r *DiagnosisResult) Validate() error {
	if strings.TrimSpace(r.Summary) == "" {
		return errors.New("summary is required")
	}
	if r.RootCauses == nil {
		return errors.New("root_causes is required")
	}
	for i, c := range r.RootCauses {
		if strings.TrimSpace(c.Cause) == "" {
			return fmt.Errorf("root_causes[%d].cause is required", i)
		}
	}
	return nil
}

// ScenariosResult is the output of a scenarios request.
type ScenariosResult struct {
	Scenarios   []Scenario `json:"scenarios"`
	Recommended string     `json:"recommended,omitempty"`
}

type Scenario struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Investment  string  `json:"investment,omitempty"`
	ExpectedROI string  `json:"expected_roi,omitempty"`
	Timeline    string  `json:"timeline,omitempty"`
	RiskLevel   string  `json:"risk_level,omitempty"`
	Probability float64 `json:"probability,omitempty"`
}

func (r *ScenariosResult) Validate() error {
	if len(r.Scenarios) == 0 {
		return errors.New("at least one scenario is required")
	}
	for i, s := range r.Scenarios {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("scenarios[%d].name is required", i)
		}
	}
	return nil
}

// ExecutionPlanResult is the output of an execution_plan request.
type ExecutionPlanResult struct {
	Phases []Phase  `json:"phases"`
	Budget string   `json:"budget,omitempty"`
	Risks  []string `json:"risks,omitempty"`
}

type Phase struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	DurationWeeks int      `json:"duration_weeks,omitempty"`
	Owner         string   `json:"owner,omitempty"`
	Tasks         []string `json:"tasks,omitempty"`
	KPIs          []string `json:"kpis,omitempty"`
}

func (r *ExecutionPlanResult) Validate() error {
	if len(r.Phases) == 0 {
		return errors.New("at least one phase is required")
	}
	for i, p := range r.Phases {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("phases[%d].name is required", i)
		}
		if p.DurationWeeks < 0 {
			return fmt.Errorf("phases[%d].duration_weeks is negative", i)
		}
	}
	return nil
}

// AuditAnalysisResult is the output of an audit_analysis request.
type AuditAnalysisResult struct {
	Summary         string         `json:"summary"`
	RiskScore       float64        `json:"risk_score,omitempty"`
	Findings        []AuditFinding `json:"findings"`
	Recommendations []string       `json:"recommendations,omitempty"`
}

type AuditFinding struct {
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Category        string   `json:"category,omitempty"`
	Severity        string   `json:"severity"`
	FinancialImpact *float64 `json:"financial_impact,omitempty"`
	Confidence      *float64 `json:"confidence,omitempty"`
	Recommendation  string   `json:"recommendation,omitempty"`
}

var auditSeverities = map[string]bool{"high": true, "medium": true, "low": true, "info": true}

func (r *AuditAnalysisResult) Validate() error {
	if strings.TrimSpace(r.Summary) == "" {
		return errors.New("summary is required")
	}
	if r.Findings == nil {
		return errors.New("findings is required")
	}
	for i, f := range r.Findings {
		if strings.TrimSpace(f.Title) == "" {
			return fmt.Errorf("findings[%d].title is required", i)
		}
		if !auditSeverities[f.Severity] {
			return fmt.Errorf("findings[%d].severity %q is not high, medium, low or info", i, f.Severity)
		}
		if f.Confidence != nil && (*f.Confidence < 0 || *f.Confidence > 1) {
			return fmt.Errorf("findings[%d].confidence out of range", i)
		}
	}
	return nil
}

// BrandingResult is the output of a branding_strategy request. Fallback is
// set when the completion could not be parsed and the default was used.
type BrandingResult struct {
	BrandName      string         `json:"brand_name"`
	Positioning    string         `json:"positioning"`
	Tagline        string         `json:"tagline,omitempty"`
	Voice          string         `json:"voice,omitempty"`
	Values         []string       `json:"values,omitempty"`
	TargetAudience string         `json:"target_audience,omitempty"`
	ColorPalette   []PaletteColor `json:"color_palette,omitempty"`
	Messaging      []string       `json:"messaging,omitempty"`
	Fallback       bool           `json:"fallback"`
}

type PaletteColor struct {
	Name  string `json:"name"`
	Hex   string `json:"hex"`
	Usage string `json:"usage,omitempty"`
}

func (r *BrandingResult) Validate() error {
	if strings.TrimSpace(r.Positioning) == "" {
		return errors.New("positioning is required")
	}
	return nil
}

// TaxLegalResult is the output of a tax_legal_analysis request.
type TaxLegalResult struct {
	Summary         string       `json:"summary"`
	Obligations     []Obligation `json:"obligations"`
	Risks           []string     `json:"risks,omitempty"`
	Recommendations []string     `json:"recommendations,omitempty"`
	Disclaimer      string       `json:"disclaimer,omitempty"`
}

type Obligation struct {
	Jurisdiction string `json:"jurisdiction"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Deadline     string `json:"deadline,omitempty"`
	RiskLevel    string `json:"risk_level,omitempty"`
}

func (r *TaxLegalResult) Validate() error {
	if strings.TrimSpace(r.Summary) == "" {
		return errors.New("summary is required")
	}
	if r.Obligations == nil {
		return errors.New("obligations is required")
	}
	for i, o := range r.Obligations {
		if strings.TrimSpace(o.Title) == "" {
			return fmt.Errorf("obligations[%d].title is required", i)
		}
	}
	return nil
}

// BrandingFallback is the default brand platform used when the branding
// completion cannot be parsed.
func BrandingFallback(businessName string) *BrandingResult {
	name := strings.TrimSpace(businessName)
	if name == "" {
		name = "Your brand"
	}
	return &BrandingResult{
		BrandName:      name,
		Positioning:    fmt.Sprintf("%s delivers dependable quality with a personal touch.", name),
		Tagline:        fmt.Sprintf("%s: built around you", name),
		Voice:          "Warm, confident and clear",
		Values:         []string{"Quality", "Trust", "Innovation"},
		TargetAudience: "Customers who value reliability and service",
		ColorPalette: []PaletteColor{
			{Name: "Primary", Hex: "#1E3A5F", Usage: "Headlines and key surfaces"},
			{Name: "Accent", Hex: "#F2A541", Usage: "Calls to action"},
			{Name: "Neutral", Hex: "#F5F5F0", Usage: "Backgrounds"},
		},
		Messaging: []string{
			fmt.Sprintf("%s puts customers first.", name),
			"Consistent quality you can count on.",
		},
		Fallback: true,
	}
}
