package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/atlas/internal/domain/finding"
	"github.com/rpggio/atlas/internal/repository"
)

// FindingRepository implements finding.Repository for SQLite
type FindingRepository struct {
	db *DB
}

// NewFindingRepository creates a new FindingRepository
func NewFindingRepository(db *DB) *FindingRepository {
	return &FindingRepository{db: db}
}

const findingColumns = `
	id, tenant_id, session_id, title, description, category, severity, status,
	financial_impact, confidence, recommendation, position, created_at, updated_at
`

// CreateBatch inserts findings atomically. The session must exist and
// belong to the tenant.
func (r *FindingRepository) CreateBatch(ctx context.Context, tenantID string, findings []finding.Finding) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		return insertFindings(ctx, tx, tenantID, findings)
	})
}

// ReplaceBySession deletes a session's findings and inserts the new set in
// one transaction, so a failed insert keeps the previous findings.
func (r *FindingRepository) ReplaceBySession(ctx context.Context, tenantID, sessionID string, findings []finding.Finding) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		if err := sessionOwned(ctx, tx, tenantID, sessionID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM findings WHERE session_id = ? AND tenant_id = ?`, sessionID, tenantID,
		); err != nil {
			return fmt.Errorf("failed to delete findings: %w", err)
		}
		for _, f := range findings {
			if f.SessionID != sessionID {
				return fmt.Errorf("finding %s belongs to session %s, not %s", f.ID, f.SessionID, sessionID)
			}
		}
		return insertFindings(ctx, tx, tenantID, findings)
	})
}

func insertFindings(ctx context.Context, tx *sql.Tx, tenantID string, findings []finding.Finding) error {
	for _, f := range findings {
		if err := sessionOwned(ctx, tx, tenantID, f.SessionID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO findings (`+findingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.ID,
			tenantID,
			f.SessionID,
			f.Title,
			f.Description,
			f.Category,
			f.Severity,
			f.Status,
			f.FinancialImpact,
			f.Confidence,
			f.Recommendation,
			f.Position,
			f.CreatedAt,
			f.UpdatedAt,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return repository.ErrForeignKeyViolation
			}
			return fmt.Errorf("failed to create finding: %w", err)
		}
	}
	return nil
}

// Get retrieves a finding by ID
func (r *FindingRepository) Get(ctx context.Context, tenantID, id string) (*finding.Finding, error) {
	query := `SELECT ` + findingColumns + ` FROM findings WHERE id = ? AND tenant_id = ?`
	f, err := scanFinding(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get finding: %w", err)
	}
	return f, nil
}

// ListBySession returns a session's findings in creation order
func (r *FindingRepository) ListBySession(ctx context.Context, tenantID, sessionID string) ([]finding.Finding, error) {
	query := `SELECT ` + findingColumns + ` FROM findings WHERE session_id = ? AND tenant_id = ? ORDER BY position, created_at`
	rows, err := r.db.QueryContext(ctx, query, sessionID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list findings: %w", err)
	}
	defer rows.Close()

	var findings []finding.Finding
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		findings = append(findings, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating findings: %w", err)
	}
	return findings, nil
}

// UpdateStatus sets a finding's review status
func (r *FindingRepository) UpdateStatus(ctx context.Context, tenantID, id string, status finding.Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE findings SET status = ?, updated_at = ? WHERE id = ? AND tenant_id = ?`,
		status, time.Now(), id, tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update finding: %w", err)
	}
	return requireAffected(result)
}

func scanFinding(row rowScanner) (*finding.Finding, error) {
	var (
		f                  finding.Finding
		impact, confidence sql.NullFloat64
	)
	if err := row.Scan(
		&f.ID,
		&f.TenantID,
		&f.SessionID,
		&f.Title,
		&f.Description,
		&f.Category,
		&f.Severity,
		&f.Status,
		&impact,
		&confidence,
		&f.Recommendation,
		&f.Position,
		&f.CreatedAt,
		&f.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if impact.Valid {
		f.FinancialImpact = &impact.Float64
	}
	if confidence.Valid {
		f.Confidence = &confidence.Float64
	}
	return &f, nil
}

// sessionOwned checks that a session exists for the tenant. Child rows of
// another tenant's session report as a foreign key violation.
func sessionOwned(ctx context.Context, tx *sql.Tx, tenantID, sessionID string) error {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE id = ? AND tenant_id = ?`, sessionID, tenantID,
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if n == 0 {
		return repository.ErrForeignKeyViolation
	}
	return nil
}
