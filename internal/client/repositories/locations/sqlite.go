package locations

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Append adds one point with a single INSERT, so concurrent writers never
// lose each other's points.
func (r *SQLiteRepository) Append(ctx context.Context, p models.GeoPoint) error {
	emergency := 0
	if p.IsEmergency {
		emergency = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO locations (latitude, longitude, captured_at, is_emergency)
		VALUES (?, ?, ?, ?)
	`, p.Latitude, p.Longitude, p.Timestamp.Format(time.RFC3339Nano), emergency)
	if err != nil {
		return fmt.Errorf("failed to append location: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.GeoPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT latitude, longitude, captured_at, is_emergency
		FROM locations
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	var result []models.GeoPoint
	for rows.Next() {
		var (
			p         models.GeoPoint
			captured  string
			emergency int
		)
		if err := rows.Scan(&p.Latitude, &p.Longitude, &captured, &emergency); err != nil {
			return nil, fmt.Errorf("failed to scan location row: %w", err)
		}
		p.Timestamp, err = time.Parse(time.RFC3339Nano, captured)
		if err != nil {
			return nil, fmt.Errorf("failed to parse location time %q: %w", captured, err)
		}
		p.IsEmergency = emergency != 0
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate location rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM locations`); err != nil {
		return fmt.Errorf("failed to clear locations: %w", err)
	}
	return nil
}
