package state

import (
	"context"

	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/client/repositories/metadata"
)

// ProjectStore caches the last project listing so selection works offline.
type ProjectStore struct {
	meta metadata.Repository
}

func (s *ProjectStore) Save(ctx context.Context, projects []models.Project) error {
	return setJSON(ctx, s.meta, KeyProjects, projects)
}

func (s *ProjectStore) List(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if _, err := getJSON(ctx, s.meta, KeyProjects, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Find returns the cached project with id, or false.
func (s *ProjectStore) Find(ctx context.Context, id string) (*models.Project, bool, error) {
	projects, err := s.List(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range projects {
		if projects[i].ID == id {
			return &projects[i], true, nil
		}
	}
	return nil, false, nil
}
