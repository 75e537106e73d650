package state

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/client/repositories/locations"
	"github.com/dmitrijs2005/sitecrew/internal/client/repositories/metadata"
)

// ClockStateStore persists the open shift: the record itself under
// ClockInData, the ClockedIn gate and the location trail.
type ClockStateStore struct {
	meta      metadata.Repository
	locations locations.Repository
}

func (s *ClockStateStore) ClockedIn(ctx context.Context) (bool, error) {
	return getBool(ctx, s.meta, KeyClockedIn)
}

// Record returns the open shift with its location trail, or nil when there
// is none.
func (s *ClockStateStore) Record(ctx context.Context) (*models.ClockRecord, error) {
	var rec models.ClockRecord
	ok, err := getJSON(ctx, s.meta, KeyClockInData, &rec)
	if err != nil || !ok {
		return nil, err
	}

	trail, err := s.locations.List(ctx)
	if err != nil {
		return nil, err
	}
	rec.Locations = trail

	if rec.TimesheetID == "" {
		id, err := getString(ctx, s.meta, KeyTimesheetID)
		if err != nil {
			return nil, err
		}
		rec.TimesheetID = id
	}
	return &rec, nil
}

// Begin stores rec as the open shift. The record's locations seed the trail.
func (s *ClockStateStore) Begin(ctx context.Context, rec *models.ClockRecord) error {
	stored := *rec
	stored.Locations = nil
	if err := setJSON(ctx, s.meta, KeyClockInData, &stored); err != nil {
		return err
	}
	if err := setBool(ctx, s.meta, KeyClockedIn, true); err != nil {
		return err
	}
	if rec.TimesheetID != "" {
		if err := setString(ctx, s.meta, KeyTimesheetID, rec.TimesheetID); err != nil {
			return err
		}
	}
	if err := s.locations.Clear(ctx); err != nil {
		return err
	}
	for _, p := range rec.Locations {
		if err := s.locations.Append(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClockStateStore) AppendLocation(ctx context.Context, p models.GeoPoint) error {
	return s.locations.Append(ctx, p)
}

func (s *ClockStateStore) Locations(ctx context.Context) ([]models.GeoPoint, error) {
	return s.locations.List(ctx)
}

// Finish drops the open shift, its trail, saved notes and the fall flag.
func (s *ClockStateStore) Finish(ctx context.Context) error {
	if err := deleteKeys(ctx, s.meta, KeyClockInData, KeyTimesheetID, KeySavedNotes, KeyFallDetected); err != nil {
		return err
	}
	if err := setBool(ctx, s.meta, KeyClockedIn, false); err != nil {
		return err
	}
	return s.locations.Clear(ctx)
}

func (s *ClockStateStore) SaveNotes(ctx context.Context, notes string) error {
	return setString(ctx, s.meta, KeySavedNotes, notes)
}

func (s *ClockStateStore) Notes(ctx context.Context) (string, error) {
	return getString(ctx, s.meta, KeySavedNotes)
}

// Select remembers the project and work order picked for the next clock-in.
func (s *ClockStateStore) Select(ctx context.Context, projectID, workOrderID string) error {
	if err := setString(ctx, s.meta, KeySelectedProject, strings.TrimSpace(projectID)); err != nil {
		return err
	}
	return setString(ctx, s.meta, KeySelectedWorkOrder, strings.TrimSpace(workOrderID))
}

func (s *ClockStateStore) Selection(ctx context.Context) (projectID, workOrderID string, err error) {
	if projectID, err = getString(ctx, s.meta, KeySelectedProject); err != nil {
		return "", "", err
	}
	if workOrderID, err = getString(ctx, s.meta, KeySelectedWorkOrder); err != nil {
		return "", "", err
	}
	return projectID, workOrderID, nil
}

func (s *ClockStateStore) ClearSelection(ctx context.Context) error {
	return deleteKeys(ctx, s.meta, KeySelectedProject, KeySelectedWorkOrder)
}

func (s *ClockStateStore) SetFallDetected(ctx context.Context, v bool) error {
	return setBool(ctx, s.meta, KeyFallDetected, v)
}

func (s *ClockStateStore) FallDetected(ctx context.Context) (bool, error) {
	return getBool(ctx, s.meta, KeyFallDetected)
}
