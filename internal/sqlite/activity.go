package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/atlas/internal/domain/activity"
)

// ActivityRepository implements activity.Repository for SQLite.
// The log is append-only: there is no update or delete.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `
	id, tenant_id, session_id, subject_id, activity_type, summary, details, created_at
`

// Log appends an entry and fills in its id, tenant and timestamp.
func (r *ActivityRepository) Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	var details sql.NullString
	if entry.Details != "" {
		details = sql.NullString{String: entry.Details, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_log (tenant_id, session_id, subject_id, activity_type, summary, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tenantID, entry.SessionID, entry.SubjectID, entry.ActivityType, entry.Summary, details, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	entry.TenantID = tenantID
	return nil
}

// List returns the tenant's entries matching opts, newest first.
func (r *ActivityRepository) List(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	where, args := activityFilter(tenantID, opts)
	query := `SELECT ` + activityColumns + ` FROM activity_log WHERE ` + where +
		` ORDER BY created_at DESC, id DESC`

	// SQLite only accepts OFFSET after a LIMIT; -1 means unbounded.
	switch {
	case opts.Limit > 0:
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	case opts.Offset > 0:
		query += ` LIMIT -1`
	}
	if opts.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []activity.ActivityEntry
	for rows.Next() {
		entry, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return entries, nil
}

func activityFilter(tenantID string, opts activity.ListActivityOptions) (string, []any) {
	clauses := []string{"tenant_id = ?"}
	args := []any{tenantID}
	if opts.SessionID != nil {
		clauses = append(clauses, "session_id = ?")
		args = append(args, *opts.SessionID)
	}
	if opts.SubjectID != nil {
		clauses = append(clauses, "subject_id = ?")
		args = append(args, *opts.SubjectID)
	}
	if opts.ActivityType != nil {
		clauses = append(clauses, "activity_type = ?")
		args = append(args, *opts.ActivityType)
	}
	return strings.Join(clauses, " AND "), args
}

func scanActivity(row rowScanner) (*activity.ActivityEntry, error) {
	var (
		e                             activity.ActivityEntry
		sessionID, subjectID, details sql.NullString
	)
	if err := row.Scan(
		&e.ID,
		&e.TenantID,
		&sessionID,
		&subjectID,
		&e.ActivityType,
		&e.Summary,
		&details,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}
	if sessionID.Valid {
		e.SessionID = &sessionID.String
	}
	if subjectID.Valid {
		e.SubjectID = &subjectID.String
	}
	e.Details = details.String
	return &e, nil
}
