package session

import (
	"encoding/json"
	"time"
)

// Module identifies which advisory workflow a session runs.
type Module string

const (
	ModuleConsulting Module = "consulting"
	ModuleAudit      Module = "audit"
	ModuleBranding   Module = "branding"
	ModuleTaxLegal   Module = "tax_legal"
)

// Status is a module-specific workflow status.
type Status string

const (
	StatusIntake     Status = "intake"
	StatusDiagnosing Status = "diagnosing"
	StatusSimulating Status = "simulating"
	StatusPlanning   Status = "planning"
	StatusSetup      Status = "setup"
	StatusUpload     Status = "upload"
	StatusAnalyzing  Status = "analyzing"
	StatusReview     Status = "review"
	StatusGenerating Status = "generating"
	StatusComplete   Status = "complete"
)

// Artifact names stored on a session.
const (
	ArtifactDiagnosis       = "diagnosis"
	ArtifactScenarios       = "scenarios"
	ArtifactExecutionPlan   = "execution_plan"
	ArtifactFindings        = "findings"
	ArtifactRecommendations = "recommendations"
	ArtifactBranding        = "branding"
	ArtifactTaxLegal        = "tax_legal"
	ArtifactBrandInput      = "brand_input"
	ArtifactTaxInput        = "tax_input"
)

// Audit types accepted when creating an audit session.
var AuditTypes = []string{"financial", "operational", "compliance", "it", "tax"}

// Audit standards accepted when creating an audit session.
var AuditStandards = []string{"gaap", "ifrs", "sox", "iso_27001", "internal"}

// Session is one run of a multi-step advisory workflow.
type Session struct {
	ID                 string                     `json:"id"`
	TenantID           string                     `json:"tenant_id"`
	CreatedBy          string                     `json:"created_by,omitempty"`
	Module             Module                     `json:"module"`
	Status             Status                     `json:"status"`
	CurrentStep        int                        `json:"current_step"`
	Title              string                     `json:"title,omitempty"`
	ProblemDescription string                     `json:"problem_description,omitempty"`
	Context            string                     `json:"context,omitempty"`
	Domains            []string                   `json:"domains,omitempty"`
	AuditType          string                     `json:"audit_type,omitempty"`
	Standard           string                     `json:"standard,omitempty"`
	DatasetsUsed       []string                   `json:"datasets_used,omitempty"`
	Artifacts          map[string]json.RawMessage `json:"artifacts,omitempty"`
	Version            int64                      `json:"version"`
	CreatedAt          time.Time                  `json:"created_at"`
	UpdatedAt          time.Time                  `json:"updated_at"`
}

// Artifact returns a stored artifact, or nil when it has not been produced.
func (s *Session) Artifact(name string) json.RawMessage {
	if s.Artifacts == nil {
		return nil
	}
	return s.Artifacts[name]
}

// BrandInput holds the branding intake form, stored as the brand_input artifact.
type BrandInput struct {
	BusinessName   string   `json:"business_name"`
	Industry       string   `json:"industry,omitempty"`
	TargetAudience string   `json:"target_audience,omitempty"`
	Values         []string `json:"values,omitempty"`
	Tone           string   `json:"tone,omitempty"`
}

// TaxInput holds the tax and legal intake form, stored as the tax_input artifact.
type TaxInput struct {
	Jurisdictions []string `json:"jurisdictions"`
	EntityType    string   `json:"entity_type,omitempty"`
	Question      string   `json:"question"`
}

// SessionInfo is a lightweight listing entry.
type SessionInfo struct {
	ID          string    `json:"id"`
	Module      Module    `json:"module"`
	Status      Status    `json:"status"`
	CurrentStep int       `json:"current_step"`
	Title       string    `json:"title,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListOptions filters session listings.
type ListOptions struct {
	Module Module
	Limit  int
	Offset int
}
