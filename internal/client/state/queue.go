package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/client/repositories/queue"
)

// OfflineQueueStore is the durable list of mutations waiting for
// connectivity. Entries leave it only through Remove.
type OfflineQueueStore struct {
	repo queue.Repository
}

func (s *OfflineQueueStore) Enqueue(ctx context.Context, e *models.OfflineQueueEntry) error {
	return s.repo.Upsert(ctx, e)
}

func (s *OfflineQueueStore) Get(ctx context.Context, offlineID string) (*models.OfflineQueueEntry, error) {
	return s.repo.Get(ctx, offlineID)
}

func (s *OfflineQueueStore) List(ctx context.Context, kind models.QueueKind) ([]*models.OfflineQueueEntry, error) {
	return s.repo.List(ctx, kind)
}

// Ready lists the entries a flush may replay, oldest first.
func (s *OfflineQueueStore) Ready(ctx context.Context) ([]*models.OfflineQueueEntry, error) {
	return s.repo.ListReady(ctx)
}

func (s *OfflineQueueStore) Remove(ctx context.Context, offlineID string) error {
	return s.repo.Delete(ctx, offlineID)
}

func (s *OfflineQueueStore) Fail(ctx context.Context, offlineID string, cause error) error {
	return s.repo.RecordFailure(ctx, offlineID, cause.Error())
}

func (s *OfflineQueueStore) Count(ctx context.Context) (map[models.QueueKind]int, error) {
	return s.repo.Count(ctx)
}

// Release rewrites a held entry with its final request and makes it
// replayable, keeping its place in the queue.
func (s *OfflineQueueStore) Release(ctx context.Context, offlineID, method, path string, payload any) error {
	e, err := s.repo.Get(ctx, offlineID)
	if err != nil {
		return fmt.Errorf("release %s: %w", offlineID, err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	e.Method = method
	e.Path = path
	e.Payload = body
	e.Held = false
	return s.repo.Upsert(ctx, e)
}
