package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sitecrew/internal/client/client"
	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/logging"
)

func TestProjects_ListCachesAndFallsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.login(t, false)
	svc := NewProjectService(f.api, f.st, logging.Discard())

	f.api.projects = []models.Project{
		{ID: "p2", Name: "Bridge", WorkOrders: []models.WorkOrder{{ID: "w9", Description: "Rebar"}}},
	}
	got, cached, err := svc.List(ctx)
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, got, 1)

	f.api.projects = nil
	f.api.projectsErr = fmt.Errorf("%w: dial tcp", client.ErrUnavailable)
	got, cached, err = svc.List(ctx)
	require.NoError(t, err)
	assert.True(t, cached)
	require.Len(t, got, 1)
	assert.Equal(t, "Bridge", got[0].Name)
}

func TestProjects_ListPropagatesBackendErrors(t *testing.T) {
	f := newFixture(t)
	f.login(t, false)
	f.api.projectsErr = &client.HTTPError{StatusCode: 500}
	svc := NewProjectService(f.api, f.st, logging.Discard())

	_, _, err := svc.List(context.Background())
	assert.Equal(t, 500, client.StatusCode(err))
}

func TestProjects_Select(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.login(t, false)
	svc := NewProjectService(f.api, f.st, logging.Discard())

	_, _, err := svc.Select(ctx, "nope", "w1")
	require.ErrorIs(t, err, ErrUnknownProject)

	_, _, err = svc.Select(ctx, "p1", "w2")
	require.ErrorIs(t, err, ErrUnknownWorkOrder)

	p, wo, err := svc.Select(ctx, "p1", "w1")
	require.NoError(t, err)
	assert.Equal(t, "Tower", p.Name)
	assert.Equal(t, "Framing", wo.Description)

	sp, sw, err := svc.Selection(ctx)
	require.NoError(t, err)
	require.NotNil(t, sw)
	assert.Equal(t, "p1", sp.ID)
	assert.Equal(t, "w1", sw.ID)
}
