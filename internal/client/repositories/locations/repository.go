// Package locations stores the location trail of the open shift as an
// append-only table.
package locations

import (
	"context"

	"github.com/dmitrijs2005/sitecrew/internal/client/models"
)

type Repository interface {
	Append(ctx context.Context, p models.GeoPoint) error
	List(ctx context.Context) ([]models.GeoPoint, error)
	Clear(ctx context.Context) error
}
