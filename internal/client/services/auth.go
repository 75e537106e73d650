// Package services contains the application services of the SiteCrew
// client: authentication, project selection and the clock-in/out state
// machine. Services own the local state transitions; every backend mutation
// goes through the sync client.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/sitecrew/internal/client/client"
	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/client/state"
	"github.com/dmitrijs2005/sitecrew/internal/common"
	"github.com/dmitrijs2005/sitecrew/internal/logging"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate against the backend and persist the session.
//   - Logout: drop the session and the open shift; queued work survives.
//   - Session: the current session or state.ErrNoSession.
//   - Ping: check backend liveness.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Logout(ctx context.Context) error
	Session(ctx context.Context) (*models.Session, error)
	Ping(ctx context.Context) error
}

type authService struct {
	api    client.API
	state  *state.State
	logger logging.Logger

	now   func() time.Time
	newID func() string
}

func NewAuthService(api client.API, st *state.State, logger logging.Logger) AuthService {
	return &authService{
		api:    api,
		state:  st,
		logger: logger.With("module", "auth"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (a *authService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	resp, err := a.api.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}

	sess := resp.Session()
	if err := a.state.WithTx(ctx, func(ctx context.Context, tx *state.State) error {
		return tx.Session.Save(ctx, sess)
	}); err != nil {
		return nil, err
	}

	a.logger.Info(ctx, "logged in", "user_id", sess.UserID, "enforce_geofence", sess.EnforceGeofence)
	return sess, nil
}

// Logout removes the session, the open shift, staged media and the
// location trail. The offline queue is kept for the next login to flush.
// A shift that was opened offline is handed to the queue as a plain
// clock-in, so the backend still learns about it.
func (a *authService) Logout(ctx context.Context) error {
	var released *models.ClockRecord
	err := a.state.WithTx(ctx, func(ctx context.Context, tx *state.State) error {
		rec, err := tx.Clock.Record(ctx)
		if err != nil {
			return err
		}
		if rec != nil && !rec.IsOnline && rec.OfflineID != "" {
			if err := a.releaseOfflineShift(ctx, tx, rec); err != nil {
				return err
			}
			released = rec
		}

		if err := tx.Session.Clear(ctx); err != nil {
			return err
		}
		if err := tx.Clock.Finish(ctx); err != nil {
			return err
		}
		if err := tx.Clock.ClearSelection(ctx); err != nil {
			return err
		}
		if err := tx.Media.Clear(ctx); err != nil {
			return err
		}
		return tx.Fall.Discard(ctx)
	})
	if err != nil {
		return err
	}
	if released != nil {
		a.logger.Info(ctx, "offline shift released to the queue", "offline_id", released.OfflineID,
			"locations", len(released.Locations))
	}
	a.logger.Info(ctx, "logged out")
	return nil
}

// releaseOfflineShift turns the held clock-in of rec into a replayable
// clock-in keyed by its offline id. Trail points after the clock-in fix
// follow it as location updates.
func (a *authService) releaseOfflineShift(ctx context.Context, tx *state.State, rec *models.ClockRecord) error {
	payload := ClockInPayload(rec)
	payload.OfflineID = rec.OfflineID
	err := tx.Queue.Release(ctx, rec.OfflineID, http.MethodPost, client.PathClockIn, payload)
	if errors.Is(err, common.ErrorNotFound) {
		body, merr := json.Marshal(payload)
		if merr != nil {
			return fmt.Errorf("failed to marshal clock-in: %w", merr)
		}
		err = tx.Queue.Enqueue(ctx, &models.OfflineQueueEntry{
			OfflineID: rec.OfflineID,
			Kind:      models.QueueKindTimesheet,
			Method:    http.MethodPost,
			Path:      client.PathClockIn,
			Payload:   body,
			CreatedAt: a.now(),
		})
	}
	if err != nil {
		return err
	}

	for i := 1; i < len(rec.Locations); i++ {
		p := rec.Locations[i]
		update := client.NewLocationUpdate(&models.ClockRecord{OfflineID: rec.OfflineID}, &p, p.Timestamp, false)
		body, err := json.Marshal(update)
		if err != nil {
			return fmt.Errorf("failed to marshal location update: %w", err)
		}
		err = tx.Queue.Enqueue(ctx, &models.OfflineQueueEntry{
			OfflineID: a.newID(),
			Kind:      models.QueueKindTimesheet,
			Method:    http.MethodPost,
			Path:      client.PathUpdateTimesheet,
			Payload:   body,
			CreatedAt: a.now(),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *authService) Session(ctx context.Context) (*models.Session, error) {
	return a.state.Session.Load(ctx)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.api.Ping(ctx)
}
