package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/atlas/internal/domain/session"
	"github.com/rpggio/atlas/internal/repository"
)

// SessionRepository implements session.Repository for SQLite
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `
	id, tenant_id, created_by, module, status, current_step, title,
	problem_description, context, domains, audit_type, standard,
	datasets_used, artifacts, version, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, tenantID string, sess *session.Session) error {
	domains, datasets, artifacts, err := encodeSessionJSON(sess)
	if err != nil {
		return err
	}

	query := `INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		sess.ID,
		tenantID,
		sess.CreatedBy,
		sess.Module,
		sess.Status,
		sess.CurrentStep,
		sess.Title,
		sess.ProblemDescription,
		sess.Context,
		domains,
		sess.AuditType,
		sess.Standard,
		datasets,
		artifacts,
		sess.Version,
		sess.CreatedAt,
		sess.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, tenantID, id string) (*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ? AND tenant_id = ?`
	return scanSession(r.db.QueryRowContext(ctx, query, id, tenantID))
}

// List returns session summaries, most recently updated first
func (r *SessionRepository) List(ctx context.Context, tenantID string, opts session.ListOptions) ([]session.SessionInfo, error) {
	query := `
		SELECT id, module, status, current_step, title, created_by, created_at, updated_at
		FROM sessions
		WHERE tenant_id = ?
	`
	args := []interface{}{tenantID}
	if opts.Module != "" {
		query += " AND module = ?"
		args = append(args, opts.Module)
	}
	query += " ORDER BY updated_at DESC, id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []session.SessionInfo
	for rows.Next() {
		var info session.SessionInfo
		if err := rows.Scan(
			&info.ID,
			&info.Module,
			&info.Status,
			&info.CurrentStep,
			&info.Title,
			&info.CreatedBy,
			&info.CreatedAt,
			&info.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session info: %w", err)
		}
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}

// UpdateInputs overwrites the step form fields and bumps the version
func (r *SessionRepository) UpdateInputs(ctx context.Context, tenantID string, sess *session.Session) error {
	domains, datasets, _, err := encodeSessionJSON(sess)
	if err != nil {
		return err
	}

	query := `
		UPDATE sessions
		SET title = ?, problem_description = ?, context = ?, domains = ?,
			audit_type = ?, standard = ?, datasets_used = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		sess.Title,
		sess.ProblemDescription,
		sess.Context,
		domains,
		sess.AuditType,
		sess.Standard,
		datasets,
		sess.UpdatedAt,
		sess.ID,
		tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session inputs: %w", err)
	}
	return requireAffected(result)
}

// Advance writes status and step and merges the artifact patch in one
// transaction. Concurrent calls serialize on the connection; the last to
// commit wins. A non-nil expectedVersion that does not match returns
// repository.ErrConflict.
func (r *SessionRepository) Advance(ctx context.Context, tenantID, id string, status session.Status, step int, patch map[string]json.RawMessage, expectedVersion *int64) (*session.Session, error) {
	var updated *session.Session
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		var (
			rawArtifacts string
			version      int64
		)
		err := tx.QueryRowContext(ctx,
			`SELECT artifacts, version FROM sessions WHERE id = ? AND tenant_id = ?`,
			id, tenantID,
		).Scan(&rawArtifacts, &version)
		if err == sql.ErrNoRows {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		if expectedVersion != nil && *expectedVersion != version {
			return repository.ErrConflict
		}

		artifacts := map[string]json.RawMessage{}
		if err := json.Unmarshal([]byte(rawArtifacts), &artifacts); err != nil {
			return fmt.Errorf("failed to decode artifacts: %w", err)
		}
		for name, value := range patch {
			artifacts[name] = value
		}
		merged, err := json.Marshal(artifacts)
		if err != nil {
			return fmt.Errorf("failed to encode artifacts: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE sessions
			SET status = ?, current_step = ?, artifacts = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND tenant_id = ?`,
			status, step, string(merged), time.Now(), id, tenantID,
		); err != nil {
			return fmt.Errorf("failed to advance session: %w", err)
		}

		query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ? AND tenant_id = ?`
		updated, err = scanSession(tx.QueryRowContext(ctx, query, id, tenantID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a session; findings and milestones cascade
func (r *SessionRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return requireAffected(result)
}

func scanSession(row rowScanner) (*session.Session, error) {
	var (
		sess                         session.Session
		domains, datasets, artifacts string
	)
	err := row.Scan(
		&sess.ID,
		&sess.TenantID,
		&sess.CreatedBy,
		&sess.Module,
		&sess.Status,
		&sess.CurrentStep,
		&sess.Title,
		&sess.ProblemDescription,
		&sess.Context,
		&domains,
		&sess.AuditType,
		&sess.Standard,
		&datasets,
		&artifacts,
		&sess.Version,
		&sess.CreatedAt,
		&sess.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := json.Unmarshal([]byte(domains), &sess.Domains); err != nil {
		return nil, fmt.Errorf("failed to decode domains: %w", err)
	}
	if err := json.Unmarshal([]byte(datasets), &sess.DatasetsUsed); err != nil {
		return nil, fmt.Errorf("failed to decode datasets_used: %w", err)
	}
	sess.Artifacts = map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(artifacts), &sess.Artifacts); err != nil {
		return nil, fmt.Errorf("failed to decode artifacts: %w", err)
	}
	return &sess, nil
}

func encodeSessionJSON(sess *session.Session) (domains, datasets, artifacts string, err error) {
	d, err := marshalList(sess.Domains)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode domains: %w", err)
	}
	ds, err := marshalList(sess.DatasetsUsed)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode datasets_used: %w", err)
	}
	a := sess.Artifacts
	if a == nil {
		a = map[string]json.RawMessage{}
	}
	ab, err := json.Marshal(a)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode artifacts: %w", err)
	}
	return d, ds, string(ab), nil
}

// marshalList encodes a nil slice as [] so columns never hold null.
func marshalList[T any](values []T) (string, error) {
	if values == nil {
		values = []T{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
