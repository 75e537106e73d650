// Package queue persists the offline mutation queue. Entries keep their
// insertion order so a flush replays them the way they were issued.
package queue

import (
	"context"

	"github.com/dmitrijs2005/sitecrew/internal/client/models"
)

type Repository interface {
	// Upsert inserts an entry or, for a known OfflineID, rewrites it in place
	// keeping its original position.
	Upsert(ctx context.Context, e *models.OfflineQueueEntry) error
	Get(ctx context.Context, offlineID string) (*models.OfflineQueueEntry, error)
	// List returns the entries of one kind, or all entries when kind is empty.
	List(ctx context.Context, kind models.QueueKind) ([]*models.OfflineQueueEntry, error)
	// ListReady returns every entry that is not held, oldest first.
	ListReady(ctx context.Context) ([]*models.OfflineQueueEntry, error)
	Delete(ctx context.Context, offlineID string) error
	RecordFailure(ctx context.Context, offlineID string, reason string) error
	Count(ctx context.Context) (map[models.QueueKind]int, error)
}
