package monitor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/sitecrew/internal/client/client"
	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/client/state"
	"github.com/dmitrijs2005/sitecrew/internal/client/syncclient"
	"github.com/dmitrijs2005/sitecrew/internal/logging"
)

// Executor is the slice of the sync client the monitor reports through.
type Executor interface {
	Execute(ctx context.Context, op syncclient.Operation, commit syncclient.CommitFunc) (syncclient.Result, error)
}

type Config struct {
	SampleInterval  time.Duration
	ConfirmWindow   time.Duration
	LocationTimeout time.Duration
	LocationMaxAge  time.Duration
}

type Monitor struct {
	accel    Accelerometer
	locator  Locator
	notifier Notifier
	sync     Executor
	state    *state.State
	cfg      Config
	logger   logging.Logger

	now   func() time.Time
	newID func() string
}

func New(st *state.State, exec Executor, accel Accelerometer, locator Locator, notifier Notifier,
	cfg Config, logger logging.Logger) *Monitor {
	return &Monitor{
		accel:    accel,
		locator:  locator,
		notifier: notifier,
		sync:     exec,
		state:    st,
		cfg:      cfg,
		logger:   logger.With("module", "monitor"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Run samples every SampleInterval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SampleInterval)
	defer ticker.Stop()

	m.logger.Info(ctx, "fall monitor started", "interval", m.cfg.SampleInterval.String())
	for {
		select {
		case <-ticker.C:
			if err := m.Tick(ctx); err != nil && ctx.Err() == nil {
				m.logger.Error(ctx, "monitor tick failed", "error", err)
			}
		case <-ctx.Done():
			m.logger.Info(ctx, "fall monitor stopped")
			return
		}
	}
}

// Tick advances the detector by one step: it confirms a pending event whose
// window has elapsed, or reads a sample and arms on free-fall.
func (m *Monitor) Tick(ctx context.Context) error {
	pending, err := m.state.Fall.Pending(ctx)
	if err != nil {
		return err
	}
	if pending != nil {
		if m.now().Sub(pending.ArmedAt) < m.cfg.ConfirmWindow {
			return nil
		}
		_, err := m.Confirm(ctx, pending.ID)
		return err
	}

	s, err := m.accel.Read(ctx)
	if err != nil {
		return fmt.Errorf("read accelerometer: %w", err)
	}
	mag := Magnitude(s)
	m.logger.Debug(ctx, "sample", "magnitude", mag)

	if !IsFreeFall(mag) {
		return nil
	}

	ev := state.PendingFall{ID: m.newID(), ArmedAt: m.now()}
	armed, err := m.state.Fall.Arm(ctx, ev)
	if err != nil {
		return err
	}
	if armed {
		m.logger.Warn(ctx, "free-fall detected, waiting for impact", "event", ev.ID, "magnitude", mag)
	}
	return nil
}

// Confirm takes a fresh sample for the pending event id and reports a fall
// on impact. It returns true only for the call that confirmed the event;
// repeated calls for the same event are no-ops.
func (m *Monitor) Confirm(ctx context.Context, id string) (bool, error) {
	s, err := m.accel.Read(ctx)
	if err != nil {
		return false, fmt.Errorf("read accelerometer: %w", err)
	}
	mag := Magnitude(s)

	taken, err := m.state.Fall.Take(ctx, id)
	if err != nil || !taken {
		return false, err
	}

	if !IsImpact(mag) {
		m.logger.Info(ctx, "free-fall without impact, discarded", "event", id, "magnitude", mag)
		return false, nil
	}

	m.logger.Warn(ctx, "fall confirmed", "event", id, "magnitude", mag)
	return true, m.report(ctx)
}

func (m *Monitor) report(ctx context.Context) error {
	var point *models.GeoPoint

	lctx, cancel := ctx, context.CancelFunc(func() {})
	if m.cfg.LocationTimeout > 0 {
		lctx, cancel = context.WithTimeout(ctx, m.cfg.LocationTimeout)
	}
	fix, lerr := m.locator.Locate(lctx, m.cfg.LocationMaxAge)
	cancel()

	if lerr == nil {
		fix.IsEmergency = true
		fix.Timestamp = m.now()
		point = &fix
	} else {
		m.logger.Warn(ctx, "no fix for fall report", "error", lerr)
	}

	rec, err := m.state.Clock.Record(ctx)
	if err != nil {
		return err
	}

	op := syncclient.Operation{
		Kind:         models.QueueKindTimesheet,
		Method:       http.MethodPost,
		Path:         client.PathUpdateTimesheet,
		Payload:      client.NewLocationUpdate(rec, point, m.now(), true),
		AllowOffline: true,
	}
	res, err := m.sync.Execute(ctx, op, func(ctx context.Context, tx *state.State, _ syncclient.Result) error {
		if point != nil {
			if err := tx.Clock.AppendLocation(ctx, *point); err != nil {
				return err
			}
		}
		return tx.Clock.SetFallDetected(ctx, true)
	})

	body := "Emergency contacts have been notified."
	switch {
	case err != nil:
		body = "Fall could not be reported, call for help."
	case res.Queued:
		body = "No connection. The fall report will be sent when back online."
	}
	if lerr != nil && err == nil {
		body += " Location unavailable."
	}
	if nerr := m.notifier.Notify(ctx, "Fall detected", body); nerr != nil {
		m.logger.Error(ctx, "notify failed", "error", nerr)
	}

	if err != nil {
		return fmt.Errorf("report fall: %w", err)
	}
	return nil
}
