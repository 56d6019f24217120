package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/atlas/internal/domain/milestone"
	"github.com/rpggio/atlas/internal/repository"
)

// MilestoneRepository implements milestone.Repository for SQLite
type MilestoneRepository struct {
	db *DB
}

// NewMilestoneRepository creates a new MilestoneRepository
func NewMilestoneRepository(db *DB) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

const milestoneColumns = `
	id, tenant_id, session_id, title, description, owner, due_date,
	status, position, created_at, updated_at
`

// CreateBatch inserts milestones atomically
func (r *MilestoneRepository) CreateBatch(ctx context.Context, tenantID string, milestones []milestone.Milestone) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		return insertMilestones(ctx, tx, tenantID, milestones)
	})
}

// ReplaceBySession deletes a session's milestones and inserts the new set in
// one transaction. Ids may be reused from the deleted rows.
func (r *MilestoneRepository) ReplaceBySession(ctx context.Context, tenantID, sessionID string, milestones []milestone.Milestone) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		if err := sessionOwned(ctx, tx, tenantID, sessionID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM milestones WHERE session_id = ? AND tenant_id = ?`, sessionID, tenantID,
		); err != nil {
			return fmt.Errorf("failed to delete milestones: %w", err)
		}
		for _, m := range milestones {
			if m.SessionID != sessionID {
				return fmt.Errorf("milestone %s belongs to session %s, not %s", m.ID, m.SessionID, sessionID)
			}
		}
		return insertMilestones(ctx, tx, tenantID, milestones)
	})
}

func insertMilestones(ctx context.Context, tx *sql.Tx, tenantID string, milestones []milestone.Milestone) error {
	for _, m := range milestones {
		if err := sessionOwned(ctx, tx, tenantID, m.SessionID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO milestones (`+milestoneColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID,
			tenantID,
			m.SessionID,
			m.Title,
			m.Description,
			m.Owner,
			m.DueDate,
			m.Status,
			m.Position,
			m.CreatedAt,
			m.UpdatedAt,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return repository.ErrForeignKeyViolation
			}
			return fmt.Errorf("failed to create milestone: %w", err)
		}
	}
	return nil
}

// Get retrieves a milestone by ID
func (r *MilestoneRepository) Get(ctx context.Context, tenantID, id string) (*milestone.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE id = ? AND tenant_id = ?`
	m, err := scanMilestone(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get milestone: %w", err)
	}
	return m, nil
}

// ListBySession returns a session's milestones in plan order
func (r *MilestoneRepository) ListBySession(ctx context.Context, tenantID, sessionID string) ([]milestone.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE session_id = ? AND tenant_id = ? ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, sessionID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	defer rows.Close()

	var milestones []milestone.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		milestones = append(milestones, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating milestones: %w", err)
	}
	return milestones, nil
}

// Update writes owner, due date and status
func (r *MilestoneRepository) Update(ctx context.Context, tenantID string, m *milestone.Milestone) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE milestones
		SET owner = ?, due_date = ?, status = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?`,
		m.Owner, m.DueDate, m.Status, m.UpdatedAt, m.ID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update milestone: %w", err)
	}
	return requireAffected(result)
}

func scanMilestone(row rowScanner) (*milestone.Milestone, error) {
	var (
		m   milestone.Milestone
		due sql.NullTime
	)
	if err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.SessionID,
		&m.Title,
		&m.Description,
		&m.Owner,
		&due,
		&m.Status,
		&m.Position,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if due.Valid {
		m.DueDate = &due.Time
	}
	return &m, nil
}
