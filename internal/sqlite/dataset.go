package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rpggio/atlas/internal/domain/dataset"
	"github.com/rpggio/atlas/internal/repository"
)

// DatasetRepository implements dataset.Repository for SQLite
type DatasetRepository struct {
	db *DB
}

// NewDatasetRepository creates a new DatasetRepository
func NewDatasetRepository(db *DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

const datasetColumns = `id, tenant_id, name, type, file_name, row_count, headers, sample, summary, created_at`

// Create stores a dataset. The caller bounds the sample.
func (r *DatasetRepository) Create(ctx context.Context, tenantID string, ds *dataset.Dataset) error {
	headers, err := marshalList(ds.Headers)
	if err != nil {
		return fmt.Errorf("failed to encode headers: %w", err)
	}
	sample, err := marshalList(ds.Sample)
	if err != nil {
		return fmt.Errorf("failed to encode sample: %w", err)
	}

	query := `INSERT INTO datasets (` + datasetColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		ds.ID,
		tenantID,
		ds.Name,
		ds.Type,
		ds.FileName,
		ds.RowCount,
		headers,
		sample,
		ds.Summary,
		ds.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	return nil
}

// Get retrieves a dataset by ID
func (r *DatasetRepository) Get(ctx context.Context, tenantID, id string) (*dataset.Dataset, error) {
	query := `SELECT ` + datasetColumns + ` FROM datasets WHERE id = ? AND tenant_id = ?`
	ds, err := scanDataset(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return ds, nil
}

// List returns the tenant's datasets, newest first
func (r *DatasetRepository) List(ctx context.Context, tenantID string) ([]dataset.Dataset, error) {
	query := `SELECT ` + datasetColumns + ` FROM datasets WHERE tenant_id = ? ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []dataset.Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, *ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating datasets: %w", err)
	}
	return datasets, nil
}

// Delete removes a dataset
func (r *DatasetRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	return requireAffected(result)
}

func scanDataset(row rowScanner) (*dataset.Dataset, error) {
	var (
		ds              dataset.Dataset
		headers, sample string
	)
	if err := row.Scan(
		&ds.ID,
		&ds.TenantID,
		&ds.Name,
		&ds.Type,
		&ds.FileName,
		&ds.RowCount,
		&headers,
		&sample,
		&ds.Summary,
		&ds.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(headers), &ds.Headers); err != nil {
		return nil, fmt.Errorf("failed to decode headers: %w", err)
	}
	if err := json.Unmarshal([]byte(sample), &ds.Sample); err != nil {
		return nil, fmt.Errorf("failed to decode sample: %w", err)
	}
	return &ds, nil
}
