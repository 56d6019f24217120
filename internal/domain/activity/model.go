package activity

import "time"

// ActivityType represents the type of workflow event
type ActivityType string

const (
	TypeSessionCreated      ActivityType = "session_created"
	TypeSessionAdvanced     ActivityType = "session_advanced"
	TypeSessionDeleted      ActivityType = "session_deleted"
	TypeAnalysisCompleted   ActivityType = "analysis_completed"
	TypeAnalysisFailed      ActivityType = "analysis_failed"
	TypeFindingAcknowledged ActivityType = "finding_acknowledged"
	TypeMilestoneCycled     ActivityType = "milestone_cycled"
	TypeDatasetUploaded     ActivityType = "dataset_uploaded"
	TypeReportExported      ActivityType = "report_exported"
)

// ActivityEntry represents an event in the tenant's activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	TenantID     string       `json:"tenant_id"`
	SessionID    *string      `json:"session_id,omitempty"`
	SubjectID    *string      `json:"subject_id,omitempty"` // finding, milestone or dataset
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
