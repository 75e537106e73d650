package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sitecrew/internal/client/client"
	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/client/state"
	"github.com/dmitrijs2005/sitecrew/internal/logging"
)

type ProjectService interface {
	// List fetches projects from the backend and caches them. When the
	// backend is unreachable it serves the cache and reports cached=true.
	List(ctx context.Context) (projects []models.Project, cached bool, err error)
	Select(ctx context.Context, projectID, workOrderID string) (*models.Project, models.WorkOrder, error)
	Selection(ctx context.Context) (*models.Project, *models.WorkOrder, error)
}

type projectService struct {
	api    client.API
	state  *state.State
	logger logging.Logger
}

func NewProjectService(api client.API, st *state.State, logger logging.Logger) ProjectService {
	return &projectService{api: api, state: st, logger: logger.With("module", "projects")}
}

func (s *projectService) List(ctx context.Context) ([]models.Project, bool, error) {
	sess, err := s.state.Session.Load(ctx)
	if err != nil {
		return nil, false, err
	}

	projects, err := s.api.Projects(ctx, sess)
	if errors.Is(err, client.ErrUnavailable) {
		cached, cerr := s.state.Projects.List(ctx)
		if cerr != nil {
			return nil, false, cerr
		}
		s.logger.Info(ctx, "serving cached projects", "count", len(cached))
		return cached, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	if err := s.state.Projects.Save(ctx, projects); err != nil {
		return nil, false, err
	}
	return projects, false, nil
}

func (s *projectService) Select(ctx context.Context, projectID, workOrderID string) (*models.Project, models.WorkOrder, error) {
	p, ok, err := s.state.Projects.Find(ctx, projectID)
	if err != nil {
		return nil, models.WorkOrder{}, err
	}
	if !ok {
		return nil, models.WorkOrder{}, fmt.Errorf("%w: %s", ErrUnknownProject, projectID)
	}
	wo, ok := p.WorkOrder(workOrderID)
	if !ok {
		return nil, models.WorkOrder{}, fmt.Errorf("%w: %s", ErrUnknownWorkOrder, workOrderID)
	}

	if err := s.state.Clock.Select(ctx, p.ID, wo.ID); err != nil {
		return nil, models.WorkOrder{}, err
	}
	return p, wo, nil
}

func (s *projectService) Selection(ctx context.Context) (*models.Project, *models.WorkOrder, error) {
	projectID, workOrderID, err := s.state.Clock.Selection(ctx)
	if err != nil || projectID == "" {
		return nil, nil, err
	}
	p, ok, err := s.state.Projects.Find(ctx, projectID)
	if err != nil || !ok {
		return nil, nil, err
	}
	wo, ok := p.WorkOrder(workOrderID)
	if !ok {
		return p, nil, nil
	}
	return p, &wo, nil
}
