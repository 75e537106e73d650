// Package projects provides read access to job sites and their work orders.
package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sitecrew/internal/common"
	"github.com/dmitrijs2005/sitecrew/internal/dbx"
	"github.com/dmitrijs2005/sitecrew/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*models.Project, error) {
	query := `
		SELECT p.id, p.name, p.latitude, p.longitude, w.id, w.description
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		LEFT JOIN work_orders w ON w.project_id = p.id
		WHERE m.user_id = $1
		ORDER BY p.name, p.id, w.description
		`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select projects: %w", err)
	}
	defer rows.Close()

	result := []*models.Project{}
	var current *models.Project
	for rows.Next() {
		var (
			p     models.Project
			woID  sql.NullString
			woDsc sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude, &woID, &woDsc); err != nil {
			return nil, err
		}
		if current == nil || current.ID != p.ID {
			p.WorkOrders = []models.WorkOrder{}
			current = &p
			result = append(result, current)
		}
		if woID.Valid {
			current.WorkOrders = append(current.WorkOrders, models.WorkOrder{
				ID: woID.String, ProjectID: p.ID, Description: woDsc.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetWorkOrder(ctx context.Context, projectID, workOrderID string) (*models.WorkOrder, error) {
	query := `SELECT id, project_id, description FROM work_orders
		WHERE id = $1 AND project_id = $2
		`
	wo := &models.WorkOrder{}
	err := r.db.QueryRowContext(ctx, query, workOrderID, projectID).Scan(&wo.ID, &wo.ProjectID, &wo.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return wo, nil
}
