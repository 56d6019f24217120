package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/atlas/internal/domain/activity"
	"github.com/rpggio/atlas/internal/repository"
)

// ActivityLogger records workflow events.
type ActivityLogger interface {
	LogActivity(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error
}

// Service handles dataset ingestion.
type Service struct {
	repo       Repository
	activities ActivityLogger
	logger     *slog.Logger
}

// NewService creates a new dataset service.
func NewService(repo Repository, activities ActivityLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, activities: activities, logger: logger}
}

// UploadRequest describes an uploaded file.
type UploadRequest struct {
	Name     string
	Type     Type
	FileName string
	Content  io.Reader
}

// UploadResult pairs the persisted dataset with the full parse, which is
// only kept in memory.
type UploadResult struct {
	Dataset *Dataset
	Parsed  *Parsed
}

// Upload parses the file and persists the dataset with at most SampleLimit
// sample rows.
func (s *Service) Upload(ctx context.Context, tenantID string, req UploadRequest) (*UploadResult, error) {
	if tenantID == "" || req.Content == nil || strings.TrimSpace(req.FileName) == "" {
		return nil, ErrInvalidInput
	}
	dsType := req.Type
	if dsType == "" {
		dsType = TypeOther
	}
	if !dsType.Valid() {
		return nil, fmt.Errorf("%w: type %q", ErrInvalidInput, req.Type)
	}

	parsed, err := Parse(req.FileName, req.Content)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = req.FileName
	}

	ds := &Dataset{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Name:      name,
		Type:      dsType,
		FileName:  req.FileName,
		RowCount:  parsed.RowCount,
		Headers:   parsed.Headers,
		Sample:    parsed.Head(SampleLimit),
		Summary:   parsed.Summary,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, tenantID, ds); err != nil {
		return nil, fmt.Errorf("creating dataset: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("dataset uploaded", "tenant_id", tenantID, "dataset_id", ds.ID, "rows", ds.RowCount, "stored_rows", len(ds.Sample))
	}
	if s.activities != nil {
		if err := s.activities.LogActivity(ctx, tenantID, &activity.ActivityEntry{
			SubjectID:    &ds.ID,
			ActivityType: activity.TypeDatasetUploaded,
			Summary:      fmt.Sprintf("uploaded %s (%d rows)", ds.Name, ds.RowCount),
		}); err != nil && s.logger != nil {
			s.logger.Warn("activity log failed", "dataset_id", ds.ID, "error", err)
		}
	}

	return &UploadResult{Dataset: ds, Parsed: parsed}, nil
}

// Get loads a dataset.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Dataset, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	ds, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDatasetNotFound
		}
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	return ds, nil
}

// GetMany loads datasets in the order given.
func (s *Service) GetMany(ctx context.Context, tenantID string, ids []string) ([]Dataset, error) {
	out := make([]Dataset, 0, len(ids))
	for _, id := range ids {
		ds, err := s.Get(ctx, tenantID, id)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", id, err)
		}
		out = append(out, *ds)
	}
	return out, nil
}

// List returns the tenant's datasets, newest first.
func (s *Service) List(ctx context.Context, tenantID string) ([]Dataset, error) {
	return s.repo.List(ctx, tenantID)
}

// Delete removes a dataset. Sessions that reference it keep the dangling id.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDatasetNotFound
		}
		return fmt.Errorf("deleting dataset: %w", err)
	}
	return nil
}
