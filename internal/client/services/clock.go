package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/sitecrew/internal/client/client"
	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/client/monitor"
	"github.com/dmitrijs2005/sitecrew/internal/client/state"
	"github.com/dmitrijs2005/sitecrew/internal/client/syncclient"
	"github.com/dmitrijs2005/sitecrew/internal/filex"
	"github.com/dmitrijs2005/sitecrew/internal/geo"
	"github.com/dmitrijs2005/sitecrew/internal/logging"
	"github.com/dmitrijs2005/sitecrew/internal/timex"
)

// Executor is the slice of the sync client the services need.
type Executor interface {
	Execute(ctx context.Context, op syncclient.Operation, commit syncclient.CommitFunc) (syncclient.Result, error)
}

type ClockConfig struct {
	GeofenceRadius  float64
	LocationTimeout time.Duration
	LocationMaxAge  time.Duration
	// MediaDir receives copies of staged photos and receipts.
	MediaDir string
}

type ClockInInput struct {
	UsePersonalVehicle bool
}

type ClockResult struct {
	Record *models.ClockRecord
	// Queued is set when the transition was stored for a later flush.
	Queued    bool
	OfflineID string
	// MediaQueued counts media entries left in the offline queue.
	MediaQueued int
}

type Status struct {
	State        models.ClockState
	Record       *models.ClockRecord
	Elapsed      time.Duration
	FallDetected bool
	// EmergencyPoints counts fall locations recorded while no shift was open.
	EmergencyPoints int
	Staged          map[models.MediaKind]int
	Queue           map[models.QueueKind]int
}

// ClockService is the clock-in/out state machine. Transitions are
// exclusive: a second call while one is running fails with ErrBusy.
type ClockService struct {
	state   *state.State
	sync    Executor
	locator monitor.Locator
	cfg     ClockConfig
	logger  logging.Logger

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

func NewClockService(st *state.State, exec Executor, locator monitor.Locator, cfg ClockConfig, logger logging.Logger) *ClockService {
	if cfg.GeofenceRadius <= 0 {
		cfg.GeofenceRadius = geo.DefaultGeofenceRadius
	}
	return &ClockService{
		state:   st,
		sync:    exec,
		locator: locator,
		cfg:     cfg,
		logger:  logger.With("module", "clock"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *ClockService) ClockIn(ctx context.Context, in ClockInInput) (*ClockResult, error) {
	if !s.mu.TryLock() {
		return nil, ErrBusy
	}
	defer s.mu.Unlock()

	sess, err := s.state.Session.Load(ctx)
	if err != nil {
		return nil, err
	}

	projectID, workOrderID, err := s.state.Clock.Selection(ctx)
	if err != nil {
		return nil, err
	}
	if projectID == "" || workOrderID == "" {
		return nil, ErrSelectionRequired
	}

	clockedIn, err := s.state.Clock.ClockedIn(ctx)
	if err != nil {
		return nil, err
	}
	if clockedIn {
		return nil, ErrAlreadyClockedIn
	}

	project, found, err := s.state.Projects.Find(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !found && sess.EnforceGeofence {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProject, projectID)
	}

	fix, err := s.locate(ctx)
	if err != nil {
		return nil, err
	}

	if sess.EnforceGeofence {
		d := geo.Distance(fix.Point(), project.Point())
		if d > s.cfg.GeofenceRadius {
			s.logger.Warn(ctx, "clock-in outside geofence", "project", projectID, "distance_m", d)
			return nil, &GeofenceError{Distance: d, Radius: s.cfg.GeofenceRadius}
		}
	}

	rec := &models.ClockRecord{
		Start:              s.now(),
		ProjectID:          projectID,
		WorkOrderID:        workOrderID,
		Locations:          []models.GeoPoint{fix},
		UsePersonalVehicle: in.UsePersonalVehicle,
	}
	if found {
		if wo, ok := project.WorkOrder(workOrderID); ok {
			rec.WorkOrderDescription = wo.Description
		}
	}

	op := syncclient.Operation{
		Kind:         models.QueueKindTimesheet,
		Method:       http.MethodPost,
		Path:         client.PathClockIn,
		Payload:      ClockInPayload(rec),
		AllowOffline: true,
		OfflineID:    s.newID(),
		Held:         true,
	}

	res, err := s.sync.Execute(ctx, op, func(ctx context.Context, tx *state.State, res syncclient.Result) error {
		if res.Queued {
			rec.IsOnline = false
			rec.OfflineID = res.OfflineID
		} else {
			var resp client.ClockInResponse
			if err := client.Decode(res.Body, &resp); err != nil {
				return err
			}
			rec.IsOnline = true
			rec.TimesheetID = resp.TimesheetID
		}
		return tx.Clock.Begin(ctx, rec)
	})
	if client.StatusCode(err) == http.StatusConflict {
		open, rerr := s.restore(ctx)
		if rerr != nil {
			s.logger.Warn(ctx, "open timesheet could not be restored", "error", rerr)
			return nil, err
		}
		if open != nil {
			return nil, fmt.Errorf("%w: timesheet %s open since %s was restored",
				ErrAlreadyClockedIn, open.TimesheetID, open.Start.Local().Format(time.Kitchen))
		}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "clocked in", "project", projectID, "work_order", workOrderID,
		"online", rec.IsOnline, "timesheet_id", rec.TimesheetID, "offline_id", rec.OfflineID)
	return &ClockResult{Record: rec, Queued: res.Queued, OfflineID: res.OfflineID}, nil
}

// RestoreOpenShift adopts the caller's open timesheet from the backend when
// no shift is open locally. It returns nil when there is nothing to restore.
func (s *ClockService) RestoreOpenShift(ctx context.Context) (*models.ClockRecord, error) {
	if !s.mu.TryLock() {
		return nil, ErrBusy
	}
	defer s.mu.Unlock()
	return s.restore(ctx)
}

func (s *ClockService) restore(ctx context.Context) (*models.ClockRecord, error) {
	in, err := s.state.Clock.ClockedIn(ctx)
	if err != nil || in {
		return nil, err
	}

	op := syncclient.Operation{
		Kind:   models.QueueKindTimesheet,
		Method: http.MethodGet,
		Path:   client.PathCurrent,
	}
	var rec *models.ClockRecord
	_, err = s.sync.Execute(ctx, op, func(ctx context.Context, tx *state.State, res syncclient.Result) error {
		var cur client.CurrentTimesheetResponse
		if err := client.Decode(res.Body, &cur); err != nil {
			return err
		}
		rec = cur.Record()
		if p, found, err := tx.Projects.Find(ctx, rec.ProjectID); err != nil {
			return err
		} else if found {
			if wo, ok := p.WorkOrder(rec.WorkOrderID); ok {
				rec.WorkOrderDescription = wo.Description
			}
		}
		if err := tx.Clock.Begin(ctx, rec); err != nil {
			return err
		}
		return tx.Clock.SetFallDetected(ctx, cur.FallDetected)
	})
	if client.StatusCode(err) == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "open timesheet restored", "timesheet_id", rec.TimesheetID, "project", rec.ProjectID)
	return rec, nil
}

// ClockOut closes the open shift with notes. The notes are kept as a draft
// until the shift is closed, so a failed attempt can be retried with them.
func (s *ClockService) ClockOut(ctx context.Context, notes string) (*ClockResult, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, ErrNoteRequired
	}

	if !s.mu.TryLock() {
		return nil, ErrBusy
	}
	defer s.mu.Unlock()

	if _, err := s.state.Session.Load(ctx); err != nil {
		return nil, err
	}

	rec, err := s.state.Clock.Record(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotClockedIn
	}

	if err := s.state.Clock.SaveNotes(ctx, notes); err != nil {
		return nil, err
	}

	fell, err := s.state.Clock.FallDetected(ctx)
	if err != nil {
		return nil, err
	}

	end := s.now()
	rec.End = &end
	rec.Notes = notes

	staged, err := s.state.Media.List(ctx, "")
	if err != nil {
		return nil, err
	}

	op := syncclient.Operation{
		Kind:         models.QueueKindTimesheet,
		Method:       http.MethodPost,
		AllowOffline: true,
	}
	uploadTarget := rec.TimesheetID
	if rec.IsOnline {
		op.Path = client.PathClockOut
		op.Payload = ClockOutPayload(rec)
	} else {
		op.Path = client.PathClockOutOffline
		op.Payload = ClockOutOfflinePayload(rec, fell)
		op.OfflineID = rec.OfflineID
		uploadTarget = rec.OfflineID
	}

	mediaQueued := 0
	res, err := s.sync.Execute(ctx, op, func(ctx context.Context, tx *state.State, res syncclient.Result) error {
		if !rec.IsOnline && !res.Queued {
			if err := tx.Queue.Remove(ctx, rec.OfflineID); err != nil {
				return err
			}
		}
		if !rec.IsOnline && !res.Queued && len(res.Body) > 0 {
			var resp client.ClockInResponse
			if err := client.Decode(res.Body, &resp); err == nil {
				uploadTarget = resp.TimesheetID
			}
		}
		if res.Queued {
			n, err := s.queueMedia(ctx, tx, uploadTarget, staged)
			if err != nil {
				return err
			}
			mediaQueued = n
		}
		if err := tx.Media.Clear(ctx); err != nil {
			return err
		}
		return tx.Clock.Finish(ctx)
	})
	if err != nil {
		return nil, err
	}

	if !res.Queued && len(staged) > 0 {
		mediaQueued = s.uploadMedia(ctx, uploadTarget, staged)
	}

	s.logger.Info(ctx, "clocked out", "queued", res.Queued, "elapsed", end.Sub(rec.Start).String(), "media_queued", mediaQueued)
	return &ClockResult{Record: rec, Queued: res.Queued, OfflineID: res.OfflineID, MediaQueued: mediaQueued}, nil
}

// uploadMedia sends staged media after an acknowledged clock-out. Failures
// are queued for a later flush and never undo the clock-out.
func (s *ClockService) uploadMedia(ctx context.Context, timesheetID string, staged []models.PendingMedia) int {
	queued := 0
	for kind, uris := range groupMedia(staged) {
		op := mediaOperation(kind, timesheetID, uris)
		res, err := s.sync.Execute(ctx, op, nil)
		if err == nil {
			if res.Queued {
				queued++
			}
			continue
		}

		s.logger.Error(ctx, "media upload failed, queued for retry", "kind", string(kind), "count", len(uris), "error", err)
		qerr := s.state.Queue.Enqueue(ctx, &models.OfflineQueueEntry{
			OfflineID: s.newID(),
			Kind:      kind.QueueKind(),
			Method:    op.Method,
			Path:      op.Path,
			ImageURIs: uris,
			CreatedAt: s.now(),
		})
		if qerr != nil {
			s.logger.Error(ctx, "failed to queue media", "kind", string(kind), "error", qerr)
			continue
		}
		queued++
	}
	return queued
}

func (s *ClockService) queueMedia(ctx context.Context, tx *state.State, target string, staged []models.PendingMedia) (int, error) {
	n := 0
	for kind, uris := range groupMedia(staged) {
		op := mediaOperation(kind, target, uris)
		err := tx.Queue.Enqueue(ctx, &models.OfflineQueueEntry{
			OfflineID: s.newID(),
			Kind:      op.Kind,
			Method:    op.Method,
			Path:      op.Path,
			ImageURIs: uris,
			CreatedAt: s.now(),
		})
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func groupMedia(staged []models.PendingMedia) map[models.MediaKind][]string {
	groups := make(map[models.MediaKind][]string)
	for _, m := range staged {
		groups[m.Kind] = append(groups[m.Kind], m.URI)
	}
	return groups
}

func mediaOperation(kind models.MediaKind, timesheetID string, uris []string) syncclient.Operation {
	return syncclient.Operation{
		Kind:         kind.QueueKind(),
		Method:       http.MethodPost,
		Path:         client.UploadImagesPath(timesheetID),
		Files:        uris,
		MediaKind:    kind,
		AllowOffline: true,
	}
}

// RecordLocation takes a fix and appends it to the open shift. Shifts known
// to the backend also get the point pushed (or queued) right away; offline
// shifts carry their trail in the final clock-out.
func (s *ClockService) RecordLocation(ctx context.Context) (models.GeoPoint, bool, error) {
	rec, err := s.state.Clock.Record(ctx)
	if err != nil {
		return models.GeoPoint{}, false, err
	}
	if rec == nil {
		return models.GeoPoint{}, false, ErrNotClockedIn
	}

	fix, err := s.locate(ctx)
	if err != nil {
		return models.GeoPoint{}, false, err
	}

	if !rec.IsOnline {
		return fix, true, s.state.Clock.AppendLocation(ctx, fix)
	}

	op := syncclient.Operation{
		Kind:         models.QueueKindTimesheet,
		Method:       http.MethodPost,
		Path:         client.PathUpdateTimesheet,
		Payload:      client.NewLocationUpdate(rec, &fix, fix.Timestamp, false),
		AllowOffline: true,
	}
	res, err := s.sync.Execute(ctx, op, func(ctx context.Context, tx *state.State, _ syncclient.Result) error {
		return tx.Clock.AppendLocation(ctx, fix)
	})
	if err != nil {
		return models.GeoPoint{}, false, err
	}
	return fix, res.Queued, nil
}

// StageMedia copies the file at path into the media directory and stages it
// for upload with the shift.
func (s *ClockService) StageMedia(ctx context.Context, kind models.MediaKind, path string) (models.PendingMedia, error) {
	in, err := s.state.Clock.ClockedIn(ctx)
	if err != nil {
		return models.PendingMedia{}, err
	}
	if !in {
		return models.PendingMedia{}, ErrNotClockedIn
	}

	dir, err := filex.EnsureSubdDir(s.cfg.MediaDir, string(kind)+"s")
	if err != nil {
		return models.PendingMedia{}, err
	}
	dst, err := filex.CopyInto(path, dir, s.newID()+strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return models.PendingMedia{}, err
	}

	m, err := s.state.Media.Stage(ctx, kind, dst)
	if err != nil {
		return models.PendingMedia{}, err
	}
	s.logger.Info(ctx, "media staged", "kind", string(kind), "index", m.Index)
	return m, nil
}

// DraftNotes returns the notes of the last unfinished clock-out attempt.
func (s *ClockService) DraftNotes(ctx context.Context) (string, error) {
	return s.state.Clock.Notes(ctx)
}

func (s *ClockService) Status(ctx context.Context) (*Status, error) {
	st := &Status{State: models.ClockStateOut}

	rec, err := s.state.Clock.Record(ctx)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		st.State = rec.State()
		st.Record = rec
		st.Elapsed = timex.Elapsed(rec.Start, s.now())
	} else {
		trail, err := s.state.Clock.Locations(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range trail {
			if p.IsEmergency {
				st.EmergencyPoints++
			}
		}
	}

	if st.FallDetected, err = s.state.Clock.FallDetected(ctx); err != nil {
		return nil, err
	}

	staged, err := s.state.Media.List(ctx, "")
	if err != nil {
		return nil, err
	}
	st.Staged = make(map[models.MediaKind]int)
	for _, m := range staged {
		st.Staged[m.Kind]++
	}

	if st.Queue, err = s.state.Queue.Count(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *ClockService) locate(ctx context.Context) (models.GeoPoint, error) {
	lctx, cancel := ctx, context.CancelFunc(func() {})
	if s.cfg.LocationTimeout > 0 {
		lctx, cancel = context.WithTimeout(ctx, s.cfg.LocationTimeout)
	}
	defer cancel()

	fix, err := s.locator.Locate(lctx, s.cfg.LocationMaxAge)
	switch {
	case err == nil:
		return fix, nil
	case errors.Is(err, monitor.ErrPermissionDenied):
		return models.GeoPoint{}, ErrPermissionDenied
	case errors.Is(err, monitor.ErrLocationUnavailable):
		return models.GeoPoint{}, err
	default:
		return models.GeoPoint{}, fmt.Errorf("%w: %v", monitor.ErrLocationUnavailable, err)
	}
}
