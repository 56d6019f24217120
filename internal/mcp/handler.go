package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rpggio/atlas/internal/domain/activity"
	"github.com/rpggio/atlas/internal/domain/company"
	"github.com/rpggio/atlas/internal/domain/dataset"
	"github.com/rpggio/atlas/internal/domain/finding"
	"github.com/rpggio/atlas/internal/domain/milestone"
	"github.com/rpggio/atlas/internal/domain/session"
	"github.com/rpggio/atlas/internal/report"
	"github.com/rpggio/atlas/internal/workflow"
)

// CompanyService defines company operations needed by MCP.
type CompanyService interface {
	Onboard(ctx context.Context, tenantID string, req company.OnboardRequest) (*company.Company, error)
	Get(ctx context.Context, tenantID string) (*company.Company, error)
	Update(ctx context.Context, tenantID string, req company.UpdateRequest) (*company.Company, error)
}

// DatasetService defines dataset operations needed by MCP.
type DatasetService interface {
	Upload(ctx context.Context, tenantID string, req dataset.UploadRequest) (*dataset.UploadResult, error)
	List(ctx context.Context, tenantID string) ([]dataset.Dataset, error)
	Delete(ctx context.Context, tenantID, id string) error
}

// SessionService defines session operations needed by MCP.
type SessionService interface {
	Create(ctx context.Context, tenantID string, req session.CreateRequest) (*session.Session, error)
	Get(ctx context.Context, tenantID, sessionID string) (*session.Session, error)
	List(ctx context.Context, tenantID string, opts session.ListOptions) ([]session.SessionInfo, error)
	UpdateInputs(ctx context.Context, tenantID, sessionID string, req session.InputsRequest) (*session.Session, error)
	Advance(ctx context.Context, tenantID, sessionID string, req session.AdvanceRequest) (*session.Session, error)
	Back(ctx context.Context, tenantID, sessionID string) (*session.Session, error)
	Delete(ctx context.Context, tenantID, sessionID string) error
}

// WorkflowService runs the AI-backed module steps.
type WorkflowService interface {
	Diagnose(ctx context.Context, tenantID, sessionID string, fresh workflow.FreshRows) (*session.Session, error)
	SimulateScenarios(ctx context.Context, tenantID, sessionID string) (*session.Session, error)
	PlanExecution(ctx context.Context, tenantID, sessionID, scenario string) (*session.Session, error)
	ConfigureAudit(ctx context.Context, tenantID, sessionID string, setup workflow.AuditSetup) (*session.Session, error)
	AttachDatasets(ctx context.Context, tenantID, sessionID string, datasetIDs []string) (*session.Session, error)
	AnalyzeAudit(ctx context.Context, tenantID, sessionID string, fresh workflow.FreshRows) (*session.Session, error)
	AcknowledgeFinding(ctx context.Context, tenantID, sessionID, findingID string) (*finding.Finding, error)
	GenerateBranding(ctx context.Context, tenantID, sessionID string, input session.BrandInput) (*session.Session, error)
	AnalyzeTaxLegal(ctx context.Context, tenantID, sessionID string, input session.TaxInput) (*session.Session, error)
	Complete(ctx context.Context, tenantID, sessionID string) (*session.Session, error)
}

// FindingService defines finding reads needed by MCP.
type FindingService interface {
	List(ctx context.Context, tenantID, sessionID string) ([]finding.Finding, error)
}

// MilestoneService defines milestone operations needed by MCP.
type MilestoneService interface {
	List(ctx context.Context, tenantID, sessionID string) ([]milestone.Milestone, error)
	Cycle(ctx context.Context, tenantID, id string) (*milestone.Milestone, error)
	Assign(ctx context.Context, tenantID, id, owner string, dueDate *time.Time) (*milestone.Milestone, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// ReportService renders audit exports.
type ReportService interface {
	Export(ctx context.Context, tenantID, sessionID string, format report.Format, w io.Writer) error
}

// Services bundles the domain services the handler dispatches to.
type Services struct {
	Companies  CompanyService
	Datasets   DatasetService
	Sessions   SessionService
	Workflow   WorkflowService
	Findings   FindingService
	Milestones MilestoneService
	Activity   ActivityService
	Reports    ReportService
}

// Handler dispatches MCP commands.
type Handler struct {
	svc Services
}

// NewHandler creates a new MCP handler.
func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// Handle dispatches requests to domain services. userID is recorded as the
// creator of new sessions and may be empty.
//
// Tool calls never carry fresh dataset rows; analysis steps use the samples
// persisted at upload.
func (h *Handler) Handle(ctx context.Context, tenantID, userID, method string, params json.RawMessage) (any, error) {
	result, err := h.dispatch(ctx, tenantID, userID, method, params)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func (h *Handler) dispatch(ctx context.Context, tenantID, userID, method string, params json.RawMessage) (any, error) {
	switch method {
	case "onboard_company":
		var req OnboardCompanyParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Companies.Onboard(ctx, tenantID, company.OnboardRequest{
			Name:          req.Name,
			Industry:      req.Industry,
			Size:          company.Size(req.Size),
			Country:       req.Country,
			Description:   req.Description,
			AnnualRevenue: req.AnnualRevenue,
		})
	case "get_company":
		return h.svc.Companies.Get(ctx, tenantID)
	case "update_company":
		var req UpdateCompanyParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		update := company.UpdateRequest{
			Name:          req.Name,
			Industry:      req.Industry,
			Country:       req.Country,
			Description:   req.Description,
			AnnualRevenue: req.AnnualRevenue,
		}
		if req.Size != nil {
			size := company.Size(*req.Size)
			update.Size = &size
		}
		return h.svc.Companies.Update(ctx, tenantID, update)

	case "upload_dataset":
		var req UploadDatasetParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		content, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: content is not valid base64", errInvalidParams)
		}
		result, err := h.svc.Datasets.Upload(ctx, tenantID, dataset.UploadRequest{
			Name:     req.Name,
			Type:     dataset.Type(req.Type),
			FileName: req.FileName,
			Content:  bytes.NewReader(content),
		})
		if err != nil {
			return nil, err
		}
		return UploadDatasetResponse{
			Dataset:  result.Dataset,
			RowCount: result.Parsed.RowCount,
			Summary:  result.Parsed.Summary,
		}, nil
	case "list_datasets":
		return h.svc.Datasets.List(ctx, tenantID)
	case "delete_dataset":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.svc.Datasets.Delete(ctx, tenantID, req.ID); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": true, "id": req.ID}, nil

	case "create_session":
		var req CreateSessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.svc.Sessions.Create(ctx, tenantID, session.CreateRequest{
			Module:             session.Module(req.Module),
			CreatedBy:          userID,
			Title:              req.Title,
			ProblemDescription: req.ProblemDescription,
			Context:            req.Context,
			Domains:            req.Domains,
			AuditType:          req.AuditType,
			Standard:           req.Standard,
			DatasetsUsed:       req.DatasetIDs,
		})
		return describe(sess, err)
	case "get_session":
		var req SessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return describe(h.svc.Sessions.Get(ctx, tenantID, req.SessionID))
	case "list_sessions":
		var req ListSessionsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Sessions.List(ctx, tenantID, session.ListOptions{
			Module: session.Module(req.Module),
			Limit:  req.Limit,
			Offset: req.Offset,
		})
	case "update_session_inputs":
		var req UpdateSessionInputsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return describe(h.svc.Sessions.UpdateInputs(ctx, tenantID, req.SessionID, session.InputsRequest{
			Title:              req.Title,
			ProblemDescription: req.ProblemDescription,
			Context:            req.Context,
			Domains:            req.Domains,
			AuditType:          req.AuditType,
			Standard:           req.Standard,
			DatasetsUsed:       req.DatasetIDs,
		}))
	case "advance_session":
		var req AdvanceSessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return describe(h.svc.Sessions.Advance(ctx, tenantID, req.SessionID, session.AdvanceRequest{
			Status:          session.Status(req.Status),
			Step:            req.Step,
			Patch:           req.Artifacts,
			ExpectedVersion: req.ExpectedVersion,
		}))
	case "back_session":
		var req SessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return describe(h.svc.Sessions.Back(ctx, tenantID, req.SessionID))
	case "delete_session":
		var req SessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.svc.Sessions.Delete(ctx, tenantID, req.SessionID); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": true, "session_id": req.SessionID}, nil
	case "complete_session":
		var req SessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return describe(h.svc.Workflow.Complete(ctx, tenantID, req.SessionID))

	case "consulting_diagnose":
		var req SessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return describe(h.svc.Workflow.Diagnose(ctx, tenantID, req.SessionID, nil))
	case "consulting_scenarios":
		var req SessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return describe(h.svc.Workflow.SimulateScenarios(ctx, tenantID, req.SessionID))
	case "consulting_plan":
		var req PlanParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return describe(h.svc.Workflow.PlanExecution(ctx, tenantID, req.SessionID, req.Scenario))

	case "audit_configure":
		var req AuditConfigureParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		var (
			sess *session.Session
			err  error
		)
		if req.AuditType != "" || req.Standard != "" {
			sess, err = h.svc.Workflow.ConfigureAudit(ctx, tenantID, req.SessionID, workflow.AuditSetup{
				AuditType: req.AuditType,
				Standard:  req.Standard,
			})
			if err != nil {
				return nil, err
			}
		}
		if len(req.DatasetIDs) > 0 {
			sess, err = h.svc.Workflow.AttachDatasets(ctx, tenantID, req.SessionID, req.DatasetIDs)
		}
		if sess == nil && err == nil {
			return nil, fmt.Errorf("%w: audit_type and standard or dataset_ids required", errInvalidParams)
		}
		return describe(sess, err)
	case "audit_analyze":
		var req AuditAnalyzeParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if len(req.DatasetIDs) > 0 {
			if _, err := h.svc.Workflow.AttachDatasets(ctx, tenantID, req.SessionID, req.DatasetIDs); err != nil {
				return nil, err
			}
		}
		return describe(h.svc.Workflow.AnalyzeAudit(ctx, tenantID, req.SessionID, nil))
	case "list_findings":
		var req SessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Findings.List(ctx, tenantID, req.SessionID)
	case "acknowledge_finding":
		var req AcknowledgeFindingParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Workflow.AcknowledgeFinding(ctx, tenantID, req.SessionID, req.FindingID)
	case "export_report":
		var req ExportReportParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		format := report.Format(strings.ToLower(req.Format))
		var buf bytes.Buffer
		if err := h.svc.Reports.Export(ctx, tenantID, req.SessionID, format, &buf); err != nil {
			return nil, err
		}
		return ReportResponse{
			FileName:    fmt.Sprintf("audit-%s.%s", req.SessionID, format),
			ContentType: format.ContentType(),
			Content:     base64.StdEncoding.EncodeToString(buf.Bytes()),
		}, nil

	case "branding_generate":
		var req BrandingGenerateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return describe(h.svc.Workflow.GenerateBranding(ctx, tenantID, req.SessionID, session.BrandInput{
			BusinessName:   req.BusinessName,
			Industry:       req.Industry,
			TargetAudience: req.TargetAudience,
			Values:         req.Values,
			Tone:           req.Tone,
		}))
	case "tax_legal_analyze":
		var req TaxLegalAnalyzeParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return describe(h.svc.Workflow.AnalyzeTaxLegal(ctx, tenantID, req.SessionID, session.TaxInput{
			Jurisdictions: req.Jurisdictions,
			EntityType:    req.EntityType,
			Question:      req.Question,
		}))

	case "list_milestones":
		var req SessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Milestones.List(ctx, tenantID, req.SessionID)
	case "cycle_milestone":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Milestones.Cycle(ctx, tenantID, req.ID)
	case "assign_milestone":
		var req AssignMilestoneParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		var due *time.Time
		if req.DueDate != "" {
			t, err := time.Parse(time.DateOnly, req.DueDate)
			if err != nil {
				return nil, fmt.Errorf("%w: due_date must be YYYY-MM-DD", errInvalidParams)
			}
			due = &t
		}
		return h.svc.Milestones.Assign(ctx, tenantID, req.ID, req.Owner, due)

	case "recent_activity":
		var req RecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		opts := activity.ListActivityOptions{Limit: req.Limit}
		if req.SessionID != "" {
			opts.SessionID = &req.SessionID
		}
		if req.Type != "" {
			activityType := activity.ActivityType(req.Type)
			opts.ActivityType = &activityType
		}
		entries, err := h.svc.Activity.GetRecentActivity(ctx, tenantID, opts)
		if err != nil {
			return nil, err
		}
		resp := make([]ActivityEntryResponse, 0, len(entries))
		for _, entry := range entries {
			resp = append(resp, ActivityEntryResponse{
				Timestamp: entry.CreatedAt,
				Type:      entry.ActivityType,
				SessionID: stringValue(entry.SessionID),
				SubjectID: stringValue(entry.SubjectID),
				Summary:   entry.Summary,
				Details:   entry.Details,
			})
		}
		return resp, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

// ExportReport renders an audit report to w for HTTP downloads and returns
// its content type. Errors are mapped like tool errors.
func (h *Handler) ExportReport(ctx context.Context, tenantID, sessionID, format string, w io.Writer) (string, error) {
	f := report.Format(strings.ToLower(format))
	if err := h.svc.Reports.Export(ctx, tenantID, sessionID, f, w); err != nil {
		return "", mapError(err)
	}
	return f.ContentType(), nil
}

// describe wraps a session with its sequence position so clients can render
// a stepper without knowing the module tables.
func describe(sess *session.Session, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	resp := SessionResponse{Session: sess}
	resp.Statuses, _ = session.Statuses(sess.Module)
	if next, _, err := session.Next(sess.Module, sess.Status); err == nil {
		resp.NextStatus = next
	}
	if err := session.CanContinue(sess.Module, sess.Status, session.InputsFromSession(sess)); err != nil {
		resp.Blocker = err.Error()
	} else {
		resp.CanContinue = true
	}
	return resp, nil
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}

func stringValue(val *string) string {
	if val == nil {
		return ""
	}
	return *val
}
