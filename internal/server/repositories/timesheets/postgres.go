// Package timesheets provides PostgreSQL-backed persistence for work shifts
// and their location trails.
package timesheets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/sitecrew/internal/common"
	"github.com/dmitrijs2005/sitecrew/internal/dbx"
	"github.com/dmitrijs2005/sitecrew/internal/server/models"
)

const uniqueViolation = "23505"

const selectColumns = `id, user_id, offline_id, project_id, work_order_id, start_at, end_at,
		notes, use_personal_vehicle, fall_detected`

// PostgresRepository implements timesheet storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, ts *models.Timesheet) error {
	query := `
		INSERT INTO timesheets (user_id, offline_id, project_id, work_order_id, start_at, use_personal_vehicle)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		ts.UserID, ts.OfflineID, ts.ProjectID, ts.WorkOrderID, ts.Start, ts.UsePersonalVehicle).Scan(&ts.ID)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (r *PostgresRepository) UpsertOffline(ctx context.Context, ts *models.Timesheet) (bool, error) {
	if ts.OfflineID == nil || *ts.OfflineID == "" {
		return false, fmt.Errorf("%w: offline id is required", common.ErrorValidation)
	}

	query := `
		INSERT INTO timesheets (user_id, offline_id, project_id, work_order_id, start_at, end_at,
			notes, use_personal_vehicle, fall_detected)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, offline_id) WHERE offline_id IS NOT NULL
		DO UPDATE SET
			end_at = COALESCE(timesheets.end_at, EXCLUDED.end_at),
			notes = CASE WHEN timesheets.end_at IS NULL THEN EXCLUDED.notes ELSE timesheets.notes END,
			use_personal_vehicle = CASE WHEN timesheets.end_at IS NULL
				THEN EXCLUDED.use_personal_vehicle ELSE timesheets.use_personal_vehicle END,
			fall_detected = timesheets.fall_detected OR EXCLUDED.fall_detected
		RETURNING id, (xmax = 0) AS inserted
	`
	var inserted bool
	err := r.db.QueryRowContext(ctx, query,
		ts.UserID, ts.OfflineID, ts.ProjectID, ts.WorkOrderID, ts.Start, ts.End,
		ts.Notes, ts.UsePersonalVehicle, ts.FallDetected).Scan(&ts.ID, &inserted)
	if err != nil {
		return false, mapError(err)
	}
	return inserted, nil
}

func (r *PostgresRepository) Resolve(ctx context.Context, userID, ref string) (*models.Timesheet, error) {
	query := `SELECT ` + selectColumns + ` FROM timesheets
		WHERE user_id = $1 AND (id::text = $2 OR offline_id = $2)
		LIMIT 1
		`
	return r.scanOne(ctx, query, userID, ref)
}

func (r *PostgresRepository) GetOpen(ctx context.Context, userID string) (*models.Timesheet, error) {
	query := `SELECT ` + selectColumns + ` FROM timesheets
		WHERE user_id = $1 AND end_at IS NULL
		`
	return r.scanOne(ctx, query, userID)
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*models.Timesheet, error) {
	ts := &models.Timesheet{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&ts.ID, &ts.UserID, &ts.OfflineID, &ts.ProjectID, &ts.WorkOrderID, &ts.Start, &ts.End,
		&ts.Notes, &ts.UsePersonalVehicle, &ts.FallDetected)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ts, nil
}

func (r *PostgresRepository) Close(ctx context.Context, ts *models.Timesheet) (bool, error) {
	query := `
		UPDATE timesheets SET end_at = $1, notes = $2, use_personal_vehicle = $3
		WHERE id = $4 AND user_id = $5 AND end_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, ts.End, ts.Notes, ts.UsePersonalVehicle, ts.ID, ts.UserID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) MarkFallDetected(ctx context.Context, timesheetID string) error {
	query := `UPDATE timesheets SET fall_detected = TRUE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, timesheetID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) AppendLocations(ctx context.Context, timesheetID string, locs []models.Location) (int, error) {
	query := `
		INSERT INTO timesheet_locations (timesheet_id, latitude, longitude, captured_at, is_emergency)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (timesheet_id, captured_at, is_emergency) DO NOTHING
	`
	added := 0
	for _, l := range locs {
		res, err := r.db.ExecContext(ctx, query, timesheetID, l.Latitude, l.Longitude, l.CapturedAt, l.IsEmergency)
		if err != nil {
			return added, fmt.Errorf("db error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return added, fmt.Errorf("rows affected error: %w", err)
		}
		added += int(n)
	}
	return added, nil
}

func (r *PostgresRepository) ListLocations(ctx context.Context, timesheetID string) ([]models.Location, error) {
	query := ` SELECT timesheet_id, latitude, longitude, captured_at, is_emergency
		FROM timesheet_locations
		WHERE timesheet_id = $1
		ORDER BY captured_at, id
		`
	rows, err := r.db.QueryContext(ctx, query, timesheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to select locations: %w", err)
	}
	defer rows.Close()

	result := []models.Location{}
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.TimesheetID, &l.Latitude, &l.Longitude, &l.CapturedAt, &l.IsEmergency); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, pgErr.ConstraintName)
	}
	return fmt.Errorf("db error: %w", err)
}
