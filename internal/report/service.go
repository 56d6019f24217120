package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rpggio/atlas/internal/ai"
	"github.com/rpggio/atlas/internal/domain/activity"
	"github.com/rpggio/atlas/internal/domain/company"
	"github.com/rpggio/atlas/internal/domain/dataset"
	"github.com/rpggio/atlas/internal/domain/finding"
	"github.com/rpggio/atlas/internal/domain/session"
)

// Format is an export file type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

// ActivityLogger records exports.
type ActivityLogger interface {
	LogActivity(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error
}

// Service gathers an audit session's data and renders it.
type Service struct {
	sessions   *session.Service
	companies  *company.Service
	findings   *finding.Service
	datasets   *dataset.Service
	activities ActivityLogger
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a report service.
func NewService(sessions *session.Service, companies *company.Service, findings *finding.Service, datasets *dataset.Service, activities ActivityLogger, logger *slog.Logger) *Service {
	return &Service{
		sessions:   sessions,
		companies:  companies,
		findings:   findings,
		datasets:   datasets,
		activities: activities,
		logger:     logger,
		now:        time.Now,
	}
}

// Load collects the report input for an audit at review or complete.
// Datasets deleted since the analysis are left out.
func (s *Service) Load(ctx context.Context, tenantID, sessionID string) (*Input, error) {
	sess, err := s.sessions.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Module != session.ModuleAudit {
		return nil, ErrNotAudit
	}
	if sess.Status != session.StatusReview && sess.Status != session.StatusComplete {
		return nil, fmt.Errorf("%w: session is at %s", ErrNotReady, sess.Status)
	}

	in := &Input{Session: sess, GeneratedAt: s.now()}

	if raw := sess.Artifact(session.ArtifactFindings); raw != nil {
		var res ai.AuditAnalysisResult
		if err := json.Unmarshal(raw, &res); err != nil {
			return nil, fmt.Errorf("decoding findings artifact: %w", err)
		}
		in.Analysis = &res
	}

	if s.companies != nil {
		co, err := s.companies.Get(ctx, tenantID)
		switch {
		case err == nil:
			in.Company = co
		case !errors.Is(err, company.ErrCompanyNotFound):
			return nil, err
		}
	}

	if in.Findings, err = s.findings.List(ctx, tenantID, sess.ID); err != nil {
		return nil, err
	}

	for _, id := range sess.DatasetsUsed {
		ds, err := s.datasets.Get(ctx, tenantID, id)
		if err != nil {
			if errors.Is(err, dataset.ErrDatasetNotFound) {
				continue
			}
			return nil, err
		}
		in.Documents = append(in.Documents, *ds)
	}
	return in, nil
}

// Export renders the session's report in the given format to w and logs a
// report_exported activity. Nothing is written on failure.
func (s *Service) Export(ctx context.Context, tenantID, sessionID string, format Format, w io.Writer) error {
	var render func(io.Writer, *Input) error
	switch format {
	case FormatPDF:
		render = RenderPDF
	case FormatXLSX:
		render = RenderXLSX
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	in, err := s.Load(ctx, tenantID, sessionID)
	if err != nil {
		return err
	}
	if err := render(w, in); err != nil {
		if s.logger != nil {
			s.logger.Error("report export failed", "session_id", sessionID, "format", format, "error", err)
		}
		return err
	}

	if s.activities != nil {
		if err := s.activities.LogActivity(ctx, tenantID, &activity.ActivityEntry{
			SessionID:    &sessionID,
			ActivityType: activity.TypeReportExported,
			Summary:      fmt.Sprintf("exported %s report with %d findings", format, len(in.Findings)),
		}); err != nil && s.logger != nil {
			s.logger.Warn("activity log failed", "type", activity.TypeReportExported, "error", err)
		}
	}
	return nil
}
