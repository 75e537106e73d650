package images

import (
	"context"

	"github.com/dmitrijs2005/sitecrew/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, img *models.Image) error
	ListByTimesheet(ctx context.Context, timesheetID string) ([]*models.Image, error)
}
