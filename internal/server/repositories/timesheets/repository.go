package timesheets

import (
	"context"

	"github.com/dmitrijs2005/sitecrew/internal/server/models"
)

type Repository interface {
	// Create inserts an open timesheet. A second open timesheet for the same
	// user fails with common.ErrorAlreadyExists.
	Create(ctx context.Context, ts *models.Timesheet) error
	// UpsertOffline inserts or merges the timesheet keyed by (UserID,
	// OfflineID) and reports whether a new row was created. A closed row is
	// never reopened and its notes are kept.
	UpsertOffline(ctx context.Context, ts *models.Timesheet) (bool, error)
	// Resolve finds a user's timesheet by server id or offline id.
	Resolve(ctx context.Context, userID, ref string) (*models.Timesheet, error)
	GetOpen(ctx context.Context, userID string) (*models.Timesheet, error)
	// Close stamps End and Notes on an open timesheet and reports whether a
	// row was changed.
	Close(ctx context.Context, ts *models.Timesheet) (bool, error)
	MarkFallDetected(ctx context.Context, timesheetID string) error
	// AppendLocations stores points, skipping ones already recorded, and
	// returns how many were new.
	AppendLocations(ctx context.Context, timesheetID string, locs []models.Location) (int, error)
	ListLocations(ctx context.Context, timesheetID string) ([]models.Location, error)
}
