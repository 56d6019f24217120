package mcp

import (
	"encoding/json"
	"time"

	"github.com/rpggio/atlas/internal/domain/activity"
	"github.com/rpggio/atlas/internal/domain/dataset"
	"github.com/rpggio/atlas/internal/domain/session"
)

type OnboardCompanyParams struct {
	Name          string   `json:"name"`
	Industry      string   `json:"industry,omitempty"`
	Size          string   `json:"size,omitempty"`
	Country       string   `json:"country,omitempty"`
	Description   string   `json:"description,omitempty"`
	AnnualRevenue *float64 `json:"annual_revenue,omitempty"`
}

type UpdateCompanyParams struct {
	Name          *string  `json:"name,omitempty"`
	Industry      *string  `json:"industry,omitempty"`
	Size          *string  `json:"size,omitempty"`
	Country       *string  `json:"country,omitempty"`
	Description   *string  `json:"description,omitempty"`
	AnnualRevenue *float64 `json:"annual_revenue,omitempty"`
}

type UploadDatasetParams struct {
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	FileName string `json:"file_name"`
	// Content is the file, base64 encoded.
	Content string `json:"content"`
}

type IDParams struct {
	ID string `json:"id"`
}

type CreateSessionParams struct {
	Module             string   `json:"module"`
	Title              string   `json:"title,omitempty"`
	ProblemDescription string   `json:"problem_description,omitempty"`
	Context            string   `json:"context,omitempty"`
	Domains            []string `json:"domains,omitempty"`
	AuditType          string   `json:"audit_type,omitempty"`
	Standard           string   `json:"standard,omitempty"`
	DatasetIDs         []string `json:"dataset_ids,omitempty"`
}

type SessionParams struct {
	SessionID string `json:"session_id"`
}

type ListSessionsParams struct {
	Module string `json:"module,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

type UpdateSessionInputsParams struct {
	SessionID          string   `json:"session_id"`
	Title              *string  `json:"title,omitempty"`
	ProblemDescription *string  `json:"problem_description,omitempty"`
	Context            *string  `json:"context,omitempty"`
	Domains            []string `json:"domains,omitempty"`
	AuditType          *string  `json:"audit_type,omitempty"`
	Standard           *string  `json:"standard,omitempty"`
	DatasetIDs         []string `json:"dataset_ids,omitempty"`
}

type AdvanceSessionParams struct {
	SessionID       string                     `json:"session_id"`
	Status          string                     `json:"status"`
	Step            int                        `json:"step"`
	Artifacts       map[string]json.RawMessage `json:"artifacts,omitempty"`
	ExpectedVersion *int64                     `json:"expected_version,omitempty"`
}

type PlanParams struct {
	SessionID string `json:"session_id"`
	Scenario  string `json:"scenario,omitempty"`
}

type AuditConfigureParams struct {
	SessionID  string   `json:"session_id"`
	AuditType  string   `json:"audit_type,omitempty"`
	Standard   string   `json:"standard,omitempty"`
	DatasetIDs []string `json:"dataset_ids,omitempty"`
}

type AuditAnalyzeParams struct {
	SessionID  string   `json:"session_id"`
	DatasetIDs []string `json:"dataset_ids,omitempty"`
}

type AcknowledgeFindingParams struct {
	SessionID string `json:"session_id"`
	FindingID string `json:"finding_id"`
}

type BrandingGenerateParams struct {
	SessionID      string   `json:"session_id"`
	BusinessName   string   `json:"business_name"`
	Industry       string   `json:"industry,omitempty"`
	TargetAudience string   `json:"target_audience,omitempty"`
	Values         []string `json:"values,omitempty"`
	Tone           string   `json:"tone,omitempty"`
}

type TaxLegalAnalyzeParams struct {
	SessionID     string   `json:"session_id"`
	Jurisdictions []string `json:"jurisdictions"`
	EntityType    string   `json:"entity_type,omitempty"`
	Question      string   `json:"question"`
}

type AssignMilestoneParams struct {
	ID    string `json:"id"`
	Owner string `json:"owner,omitempty"`
	// DueDate is YYYY-MM-DD; empty clears it.
	DueDate string `json:"due_date,omitempty"`
}

type ExportReportParams struct {
	SessionID string `json:"session_id"`
	Format    string `json:"format"`
}

type RecentActivityParams struct {
	SessionID string `json:"session_id,omitempty"`
	Type      string `json:"type,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type UploadDatasetResponse struct {
	Dataset  *dataset.Dataset `json:"dataset"`
	RowCount int              `json:"row_count"`
	Summary  string           `json:"summary"`
}

type SessionResponse struct {
	Session  *session.Session `json:"session"`
	Statuses []session.Status `json:"statuses"`
	// NextStatus is empty once the session is complete.
	NextStatus  session.Status `json:"next_status,omitempty"`
	CanContinue bool           `json:"can_continue"`
	Blocker     string         `json:"blocker,omitempty"`
}

type ReportResponse struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	// Content is the file, base64 encoded.
	Content string `json:"content"`
}

type ActivityEntryResponse struct {
	Timestamp time.Time             `json:"timestamp"`
	Type      activity.ActivityType `json:"type"`
	SessionID string                `json:"session_id,omitempty"`
	SubjectID string                `json:"subject_id,omitempty"`
	Summary   string                `json:"summary"`
	Details   string                `json:"details,omitempty"`
}
