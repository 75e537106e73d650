package state

import (
	"context"

	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/client/repositories/media"
)

type MediaStore struct {
	repo media.Repository
}

func (s *MediaStore) Stage(ctx context.Context, kind models.MediaKind, uri string) (models.PendingMedia, error) {
	return s.repo.Add(ctx, kind, uri)
}

func (s *MediaStore) List(ctx context.Context, kind models.MediaKind) ([]models.PendingMedia, error) {
	return s.repo.List(ctx, kind)
}

// URIs returns the staged paths of kind in capture order.
func (s *MediaStore) URIs(ctx context.Context, kind models.MediaKind) ([]string, error) {
	items, err := s.repo.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	uris := make([]string, 0, len(items))
	for _, m := range items {
		uris = append(uris, m.URI)
	}
	return uris, nil
}

func (s *MediaStore) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}
