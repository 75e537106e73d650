// Package media keeps the photos and receipts staged during the open shift.
package media

import (
	"context"

	"github.com/dmitrijs2005/sitecrew/internal/client/models"
)

type Repository interface {
	// Add stores uri under the next free index for kind and returns it.
	Add(ctx context.Context, kind models.MediaKind, uri string) (models.PendingMedia, error)
	List(ctx context.Context, kind models.MediaKind) ([]models.PendingMedia, error)
	Clear(ctx context.Context) error
}
