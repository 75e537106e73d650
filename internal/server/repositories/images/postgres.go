// Package images records the object-storage keys of uploaded timesheet
// photos and receipts.
package images

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sitecrew/internal/dbx"
	"github.com/dmitrijs2005/sitecrew/internal/server/models"
)

// PostgresRepository implements image metadata storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create stores the metadata of an object already written to storage and
// fills in the generated id and creation time.
func (r *PostgresRepository) Create(ctx context.Context, img *models.Image) error {
	query := `
		INSERT INTO timesheet_images (timesheet_id, kind, storage_key, file_name, size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		img.TimesheetID, img.Kind, img.StorageKey, img.FileName, img.SizeBytes).
		Scan(&img.ID, &img.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByTimesheet(ctx context.Context, timesheetID string) ([]*models.Image, error) {
	query := ` SELECT id, timesheet_id, kind, storage_key, file_name, size_bytes, created_at
		FROM timesheet_images
		WHERE timesheet_id = $1
		ORDER BY created_at
		`
	rows, err := r.db.QueryContext(ctx, query, timesheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to select images: %w", err)
	}
	defer rows.Close()

	var result []*models.Image
	for rows.Next() {
		var item models.Image
		if err := rows.Scan(&item.ID, &item.TimesheetID, &item.Kind, &item.StorageKey,
			&item.FileName, &item.SizeBytes, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
