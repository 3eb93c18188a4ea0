package repository

import (
	"context"

	"tessera/internal/database"
	"tessera/internal/models"
)

// ScanRepository appends to the scan audit log. The log records every
// verification attempt including rejected ones; nothing reads it back to
// decide ticket state.
type ScanRepository struct {
	db *database.DB
}

func NewScanRepository(db *database.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

func (r *ScanRepository) Append(ctx context.Context, record *models.ScanRecord) error {
	query := `
		INSERT INTO scan_records (code, scanned_by, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		record.Code, record.ScannedBy, record.Status,
	).Scan(&record.ID, &record.CreatedAt)
}

func (r *ScanRepository) ListByScanner(ctx context.Context, scannerID string, limit int) ([]models.ScanRecord, error) {
	query := `
		SELECT id, code, scanned_by, status, created_at
		FROM scan_records
		WHERE scanned_by = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, scannerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ScanRecord
	for rows.Next() {
		var rec models.ScanRecord
		if err := rows.Scan(&rec.ID, &rec.Code, &rec.ScannedBy, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
