package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/sitecrew/internal/common"
	"github.com/dmitrijs2005/sitecrew/internal/dbx"
	"github.com/dmitrijs2005/sitecrew/internal/logging"
	"github.com/dmitrijs2005/sitecrew/internal/server/events"
	"github.com/dmitrijs2005/sitecrew/internal/server/media"
	"github.com/dmitrijs2005/sitecrew/internal/server/models"
	"github.com/dmitrijs2005/sitecrew/internal/server/repositories/repomanager"
)

var ErrTimesheetOpen = fmt.Errorf("%w: an open timesheet already exists", common.ErrorAlreadyExists)

type TimesheetService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       media.Store
	publisher   events.Publisher
	logger      logging.Logger
	now         func() time.Time
}

func NewTimesheetService(db *sql.DB, m repomanager.RepositoryManager, store media.Store,
	publisher events.Publisher, logger logging.Logger) *TimesheetService {
	return &TimesheetService{
		db:          db,
		repomanager: m,
		store:       store,
		publisher:   publisher,
		logger:      logger.With("module", "timesheets"),
		now:         time.Now,
	}
}

type ClockInInput struct {
	ProjectID          string
	WorkOrderID        string
	Start              time.Time
	Location           *models.Location
	UsePersonalVehicle bool
	// OfflineID makes the call an idempotent upsert.
	OfflineID string
}

// ClockIn opens a timesheet. A second open timesheet fails with
// ErrTimesheetOpen unless the call replays the same OfflineID.
func (s *TimesheetService) ClockIn(ctx context.Context, userID string, in ClockInInput) (*models.Timesheet, error) {
	if err := s.checkWorkOrder(ctx, in.ProjectID, in.WorkOrderID); err != nil {
		return nil, err
	}

	ts := &models.Timesheet{
		UserID:             userID,
		ProjectID:          in.ProjectID,
		WorkOrderID:        in.WorkOrderID,
		Start:              in.Start,
		UsePersonalVehicle: in.UsePersonalVehicle,
	}
	if in.OfflineID != "" {
		ts.OfflineID = &in.OfflineID
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Timesheets(tx)
		var err error
		if ts.OfflineID != nil {
			_, err = repo.UpsertOffline(ctx, ts)
		} else {
			err = repo.Create(ctx, ts)
		}
		if errors.Is(err, common.ErrorAlreadyExists) {
			return ErrTimesheetOpen
		}
		if err != nil {
			return err
		}
		if in.Location != nil {
			_, err = repo.AppendLocations(ctx, ts.ID, []models.Location{*in.Location})
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "clocked in", "user_id", userID, "timesheet_id", ts.ID, "offline", ts.OfflineID != nil)
	return ts, nil
}

type ClockOutInput struct {
	TimesheetID        string
	End                time.Time
	Notes              string
	Locations          []models.Location
	UsePersonalVehicle bool
}

// ClockOut closes the caller's timesheet. Closing an already closed one is
// a no-op so queued replays succeed.
func (s *TimesheetService) ClockOut(ctx context.Context, userID string, in ClockOutInput) (*models.Timesheet, error) {
	notes := strings.TrimSpace(in.Notes)
	if notes == "" {
		return nil, fmt.Errorf("%w: notes are required", common.ErrorValidation)
	}

	return dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) (*models.Timesheet, error) {
		repo := s.repomanager.Timesheets(tx)

		ts, err := repo.Resolve(ctx, userID, in.TimesheetID)
		if err != nil {
			return nil, err
		}
		if !ts.Open() {
			return ts, nil
		}
		if in.End.Before(ts.Start) {
			return nil, fmt.Errorf("%w: end is before start", common.ErrorValidation)
		}

		end := in.End
		ts.End = &end
		ts.Notes = notes
		ts.UsePersonalVehicle = in.UsePersonalVehicle
		if _, err := repo.Close(ctx, ts); err != nil {
			return nil, err
		}
		if _, err := repo.AppendLocations(ctx, ts.ID, in.Locations); err != nil {
			return nil, err
		}
		return ts, nil
	})
}

type ClockOutOfflineInput struct {
	OfflineID          string
	ProjectID          string
	WorkOrderID        string
	Start              time.Time
	End                time.Time
	Notes              string
	Locations          []models.Location
	UsePersonalVehicle bool
	FallDetected       bool
}

// ClockOutOffline stores a whole shift recorded offline. It upserts by
// (user, OfflineID), so replays return the same timesheet.
func (s *TimesheetService) ClockOutOffline(ctx context.Context, userID string, in ClockOutOfflineInput) (*models.Timesheet, error) {
	if in.OfflineID == "" {
		return nil, fmt.Errorf("%w: offlineId is required", common.ErrorValidation)
	}
	notes := strings.TrimSpace(in.Notes)
	if notes == "" {
		return nil, fmt.Errorf("%w: notes are required", common.ErrorValidation)
	}
	if in.End.Before(in.Start) {
		return nil, fmt.Errorf("%w: end is before start", common.ErrorValidation)
	}
	if err := s.checkWorkOrder(ctx, in.ProjectID, in.WorkOrderID); err != nil {
		return nil, err
	}

	end := in.End
	ts := &models.Timesheet{
		UserID:             userID,
		OfflineID:          &in.OfflineID,
		ProjectID:          in.ProjectID,
		WorkOrderID:        in.WorkOrderID,
		Start:              in.Start,
		End:                &end,
		Notes:              notes,
		UsePersonalVehicle: in.UsePersonalVehicle,
		FallDetected:       in.FallDetected,
	}

	var created bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Timesheets(tx)
		var err error
		if created, err = repo.UpsertOffline(ctx, ts); err != nil {
			return err
		}
		_, err = repo.AppendLocations(ctx, ts.ID, in.Locations)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "offline shift stored", "user_id", userID, "timesheet_id", ts.ID,
		"offline_id", in.OfflineID, "created", created)
	return ts, nil
}

// Current returns the caller's open timesheet with its trail.
func (s *TimesheetService) Current(ctx context.Context, userID string) (*models.Timesheet, error) {
	repo := s.repomanager.Timesheets(s.db)
	ts, err := repo.GetOpen(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ts.Locations, err = repo.ListLocations(ctx, ts.ID); err != nil {
		return nil, err
	}
	return ts, nil
}

type UpdateInput struct {
	TimesheetID  string
	OfflineID    string
	Latitude     *float64
	Longitude    *float64
	Timestamp    time.Time
	IsEmergency  bool
	FallDetected bool
}

// Update appends a location to the timesheet and records a reported fall.
// A fall is published even when the timesheet is not known yet, since an
// offline shift only reaches the backend at clock-out. It returns the
// resolved timesheet, or nil in that case.
func (s *TimesheetService) Update(ctx context.Context, userID string, in UpdateInput) (*models.Timesheet, error) {
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, fmt.Errorf("%w: latitude and longitude go together", common.ErrorValidation)
	}
	if in.Latitude == nil && !in.FallDetected {
		return nil, fmt.Errorf("%w: nothing to update", common.ErrorValidation)
	}

	ts, err := s.resolve(ctx, s.db, userID, in.TimesheetID, in.OfflineID)
	if err != nil && !(errors.Is(err, common.ErrorNotFound) && in.FallDetected) {
		return nil, err
	}

	if ts != nil {
		err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.Timesheets(tx)
			if in.Latitude != nil {
				loc := models.Location{
					Latitude:    *in.Latitude,
					Longitude:   *in.Longitude,
					CapturedAt:  in.Timestamp,
					IsEmergency: in.IsEmergency,
				}
				if _, err := repo.AppendLocations(ctx, ts.ID, []models.Location{loc}); err != nil {
					return err
				}
			}
			if in.FallDetected {
				return repo.MarkFallDetected(ctx, ts.ID)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if in.FallDetected {
		if err := s.publishFall(ctx, userID, ts, in); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

func (s *TimesheetService) publishFall(ctx context.Context, userID string, ts *models.Timesheet, in UpdateInput) error {
	event := events.FallDetectedEvent{
		UserID:     userID,
		OfflineID:  in.OfflineID,
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		DetectedAt: in.Timestamp,
	}
	if ts != nil {
		event.TimesheetID = ts.ID
	}
	if event.DetectedAt.IsZero() {
		event.DetectedAt = s.now()
	}
	if u, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err == nil {
		event.UserName = u.Name
	}

	if err := s.publisher.PublishFallDetected(ctx, event); err != nil {
		s.logger.Error(ctx, "fall alert not published", "user_id", userID, "error", err)
		return fmt.Errorf("publish fall alert: %w", err)
	}
	s.logger.Warn(ctx, "fall detected", "user_id", userID, "timesheet_id", event.TimesheetID,
		"has_location", in.Latitude != nil)
	return nil
}

// Upload is one file of an upload-images request.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// UploadImages stores files under the timesheet identified by ref (server
// or offline id) and records their keys.
func (s *TimesheetService) UploadImages(ctx context.Context, userID, ref, kind string, files []Upload) ([]*models.Image, error) {
	if kind == "" {
		kind = models.ImageKindPhoto
	}
	if kind != models.ImageKindPhoto && kind != models.ImageKindReceipt {
		return nil, fmt.Errorf("%w: unknown kind %q", common.ErrorValidation, kind)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no images", common.ErrorValidation)
	}

	ts, err := s.resolve(ctx, s.db, userID, ref, "")
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Images(s.db)
	stored := make([]*models.Image, 0, len(files))
	for _, f := range files {
		img, err := s.storeOne(ctx, ts.ID, kind, f)
		if err != nil {
			return stored, err
		}
		if err := repo.Create(ctx, img); err != nil {
			return stored, err
		}
		stored = append(stored, img)
	}

	s.logger.Info(ctx, "images stored", "timesheet_id", ts.ID, "kind", kind, "count", len(stored))
	return stored, nil
}

func (s *TimesheetService) storeOne(ctx context.Context, timesheetID, kind string, f Upload) (*models.Image, error) {
	body, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.FileName, err)
	}
	defer body.Close()

	key := media.TimesheetKey(timesheetID)
	if err := s.store.Put(ctx, key, f.ContentType, body, f.Size); err != nil {
		return nil, err
	}
	return &models.Image{
		TimesheetID: timesheetID,
		Kind:        kind,
		StorageKey:  key,
		FileName:    f.FileName,
		SizeBytes:   f.Size,
	}, nil
}

func (s *TimesheetService) resolve(ctx context.Context, db dbx.DBTX, userID, id, offlineID string) (*models.Timesheet, error) {
	repo := s.repomanager.Timesheets(db)
	if id != "" {
		ts, err := repo.Resolve(ctx, userID, id)
		if err == nil || !errors.Is(err, common.ErrorNotFound) || offlineID == "" {
			return ts, err
		}
	}
	if offlineID != "" {
		return repo.Resolve(ctx, userID, offlineID)
	}
	return nil, common.ErrorNotFound
}

func (s *TimesheetService) checkWorkOrder(ctx context.Context, projectID, workOrderID string) error {
	if projectID == "" || workOrderID == "" {
		return fmt.Errorf("%w: projectId and workOrderId are required", common.ErrorValidation)
	}
	_, err := s.repomanager.Projects(s.db).GetWorkOrder(ctx, projectID, workOrderID)
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%w: work order %s is not part of project %s", common.ErrorValidation, workOrderID, projectID)
	}
	return err
}
