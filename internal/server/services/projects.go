package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/sitecrew/internal/server/models"
	"github.com/dmitrijs2005/sitecrew/internal/server/repositories/repomanager"
)

type ProjectService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewProjectService(db *sql.DB, m repomanager.RepositoryManager) *ProjectService {
	return &ProjectService{db: db, repomanager: m}
}

// List returns the projects assigned to userID with their work orders.
func (s *ProjectService) List(ctx context.Context, userID string) ([]*models.Project, error) {
	list, err := s.repomanager.Projects(s.db).ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing projects: %w", err)
	}
	return list, nil
}
