package mocks

import (
	"context"
	"encoding/json"

	"github.com/rpggio/atlas/internal/domain/activity"
	"github.com/rpggio/atlas/internal/domain/company"
	"github.com/rpggio/atlas/internal/domain/dataset"
	"github.com/rpggio/atlas/internal/domain/finding"
	"github.com/rpggio/atlas/internal/domain/milestone"
	"github.com/rpggio/atlas/internal/domain/session"
	"github.com/stretchr/testify/mock"
)

// CompanyRepository is a mock for company.Repository.
type CompanyRepository struct {
	mock.Mock
}

func (m *CompanyRepository) Create(ctx context.Context, tenantID string, c *company.Company) error {
	args := m.Called(ctx, tenantID, c)
	return args.Error(0)
}

func (m *CompanyRepository) GetByTenant(ctx context.Context, tenantID string) (*company.Company, error) {
	args := m.Called(ctx, tenantID)
	if c, ok := args.Get(0).(*company.Company); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CompanyRepository) Update(ctx context.Context, tenantID string, c *company.Company) error {
	args := m.Called(ctx, tenantID, c)
	return args.Error(0)
}

// SessionRepository is a mock for session.Repository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, tenantID string, sess *session.Session) error {
	args := m.Called(ctx, tenantID, sess)
	return args.Error(0)
}

func (m *SessionRepository) Get(ctx context.Context, tenantID, id string) (*session.Session, error) {
	args := m.Called(ctx, tenantID, id)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) List(ctx context.Context, tenantID string, opts session.ListOptions) ([]session.SessionInfo, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]session.SessionInfo); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) UpdateInputs(ctx context.Context, tenantID string, sess *session.Session) error {
	args := m.Called(ctx, tenantID, sess)
	return args.Error(0)
}

func (m *SessionRepository) Advance(ctx context.Context, tenantID, id string, status session.Status, step int, patch map[string]json.RawMessage, expectedVersion *int64) (*session.Session, error) {
	args := m.Called(ctx, tenantID, id, status, step, patch, expectedVersion)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) Delete(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// DatasetRepository is a mock for dataset.Repository.
type DatasetRepository struct {
	mock.Mock
}

func (m *DatasetRepository) Create(ctx context.Context, tenantID string, ds *dataset.Dataset) error {
	args := m.Called(ctx, tenantID, ds)
	return args.Error(0)
}

func (m *DatasetRepository) Get(ctx context.Context, tenantID, id string) (*dataset.Dataset, error) {
	args := m.Called(ctx, tenantID, id)
	if ds, ok := args.Get(0).(*dataset.Dataset); ok {
		return ds, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DatasetRepository) List(ctx context.Context, tenantID string) ([]dataset.Dataset, error) {
	args := m.Called(ctx, tenantID)
	if list, ok := args.Get(0).([]dataset.Dataset); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DatasetRepository) Delete(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// FindingRepository is a mock for finding.Repository.
type FindingRepository struct {
	mock.Mock
}

func (m *FindingRepository) CreateBatch(ctx context.Context, tenantID string, findings []finding.Finding) error {
	args := m.Called(ctx, tenantID, findings)
	return args.Error(0)
}

func (m *FindingRepository) Get(ctx context.Context, tenantID, id string) (*finding.Finding, error) {
	args := m.Called(ctx, tenantID, id)
	if f, ok := args.Get(0).(*finding.Finding); ok {
		return f, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *FindingRepository) ListBySession(ctx context.Context, tenantID, sessionID string) ([]finding.Finding, error) {
	args := m.Called(ctx, tenantID, sessionID)
	if list, ok := args.Get(0).([]finding.Finding); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *FindingRepository) UpdateStatus(ctx context.Context, tenantID, id string, status finding.Status) error {
	args := m.Called(ctx, tenantID, id, status)
	return args.Error(0)
}

func (m *FindingRepository) ReplaceBySession(ctx context.Context, tenantID, sessionID string, findings []finding.Finding) error {
	args := m.Called(ctx, tenantID, sessionID, findings)
	return args.Error(0)
}

// MilestoneRepository is a mock for milestone.Repository.
type MilestoneRepository struct {
	mock.Mock
}

func (m *MilestoneRepository) CreateBatch(ctx context.Context, tenantID string, milestones []milestone.Milestone) error {
	args := m.Called(ctx, tenantID, milestones)
	return args.Error(0)
}

func (m *MilestoneRepository) Get(ctx context.Context, tenantID, id string) (*milestone.Milestone, error) {
	args := m.Called(ctx, tenantID, id)
	if ms, ok := args.Get(0).(*milestone.Milestone); ok {
		return ms, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MilestoneRepository) ListBySession(ctx context.Context, tenantID, sessionID string) ([]milestone.Milestone, error) {
	args := m.Called(ctx, tenantID, sessionID)
	if list, ok := args.Get(0).([]milestone.Milestone); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MilestoneRepository) Update(ctx context.Context, tenantID string, ms *milestone.Milestone) error {
	args := m.Called(ctx, tenantID, ms)
	return args.Error(0)
}

func (m *MilestoneRepository) ReplaceBySession(ctx context.Context, tenantID, sessionID string, milestones []milestone.Milestone) error {
	args := m.Called(ctx, tenantID, sessionID, milestones)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, tenantID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityLogger is a mock for the services' ActivityLogger dependency.
type ActivityLogger struct {
	mock.Mock
}

func (m *ActivityLogger) LogActivity(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, tenantID, entry)
	return args.Error(0)
}
