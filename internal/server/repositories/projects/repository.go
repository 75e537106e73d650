package projects

import (
	"context"

	"github.com/dmitrijs2005/sitecrew/internal/server/models"
)

type Repository interface {
	// ListForUser returns the projects userID is assigned to, each with its
	// work orders.
	ListForUser(ctx context.Context, userID string) ([]*models.Project, error)
	// GetWorkOrder returns the work order if it belongs to projectID.
	GetWorkOrder(ctx context.Context, projectID, workOrderID string) (*models.WorkOrder, error)
}
