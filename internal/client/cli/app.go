package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/sitecrew/internal/client/client"
	"github.com/dmitrijs2005/sitecrew/internal/client/config"
	"github.com/dmitrijs2005/sitecrew/internal/client/connectivity"
	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/client/monitor"
	"github.com/dmitrijs2005/sitecrew/internal/client/services"
	"github.com/dmitrijs2005/sitecrew/internal/client/state"
	"github.com/dmitrijs2005/sitecrew/internal/client/syncclient"
	"github.com/dmitrijs2005/sitecrew/internal/logging"
)

// clockService is the part of services.ClockService the commands drive.
type clockService interface {
	ClockIn(ctx context.Context, in services.ClockInInput) (*services.ClockResult, error)
	ClockOut(ctx context.Context, notes string) (*services.ClockResult, error)
	RecordLocation(ctx context.Context) (models.GeoPoint, bool, error)
	StageMedia(ctx context.Context, kind models.MediaKind, path string) (models.PendingMedia, error)
	DraftNotes(ctx context.Context) (string, error)
	RestoreOpenShift(ctx context.Context) (*models.ClockRecord, error)
	Status(ctx context.Context) (*services.Status, error)
}

type flusher interface {
	Flush(ctx context.Context) (syncclient.FlushReport, error)
}

type network interface {
	Mode() connectivity.Mode
	SetDisabled(disabled bool)
}

type queueLister interface {
	List(ctx context.Context, kind models.QueueKind) ([]*models.OfflineQueueEntry, error)
}

type App struct {
	config *config.Config
	logger logging.Logger

	authService    services.AuthService
	projectService services.ProjectService
	clock          clockService
	sync           flusher
	net            network
	queue          queueLister

	watcher *connectivity.Watcher
	monitor *monitor.Monitor
	locator *monitor.StaticLocator
	accel   *monitor.ReplayAccelerometer

	monitorMu   sync.Mutex
	stopMonitor context.CancelFunc
	closers     []io.Closer

	mu       sync.RWMutex
	userName string

	reader      *bufio.Reader
	out         io.Writer
}

// NewApp opens the local state and wires the transport, connectivity
// watcher, sync client, services and fall monitor.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	st, err := state.Open(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	api := client.NewHTTPClient(c.ServerURL, &http.Client{Timeout: 30 * time.Second})
	closers := []io.Closer{st}

	var prober connectivity.Prober = api
	if c.HealthAddr != "" {
		hp, err := connectivity.NewGRPCHealthProber(c.HealthAddr)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("health probe %s: %w", c.HealthAddr, err)
		}
		prober = hp
		closers = append(closers, hp)
	}

	watcher := connectivity.NewWatcher(prober, c.OnlineCheckInterval, logger)
	watcher.SetDisabled(c.Offline)

	sc := syncclient.New(api, st, watcher, logger)
	locator := monitor.NewStaticLocator()

	accel := monitor.NewReplayAccelerometer(nil)
	if c.ReplayFile != "" {
		if accel, err = monitor.LoadReplayCSV(c.ReplayFile); err != nil {
			_ = st.Close()
			return nil, err
		}
	}

	out := os.Stdout
	mon := monitor.New(st, sc, accel, locator, monitor.NewLogNotifier(out, logger), monitor.Config{
		SampleInterval:  c.SampleInterval,
		ConfirmWindow:   c.ConfirmWindow,
		LocationTimeout: c.LocationTimeout,
		LocationMaxAge:  c.LocationMaxAge,
	}, logger)

	clock := services.NewClockService(st, sc, locator, services.ClockConfig{
		GeofenceRadius:  c.GeofenceRadius,
		LocationTimeout: c.LocationTimeout,
		LocationMaxAge:  c.LocationMaxAge,
		MediaDir:        c.MediaDir,
	}, logger)

	a := &App{
		config:         c,
		logger:         logger.With("module", "cli"),
		authService:    services.NewAuthService(api, st, logger),
		projectService: services.NewProjectService(api, st, logger),
		clock:          clock,
		sync:           sc,
		net:            watcher,
		queue:          st.Queue,
		watcher:        watcher,
		monitor:        mon,
		locator:        locator,
		accel:          accel,
		closers:        closers,
		reader:         bufio.NewReader(os.Stdin),
		out:            out,
	}
	watcher.OnReconnect(a.onReconnect)
	return a, nil
}

// Run starts the background goroutines and blocks in the REPL until the
// user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.close()

	go a.watcher.Run(ctx)
	a.startMonitor(ctx)
	a.Root(ctx)
}

func (a *App) close() {
	a.setMonitor(nil)
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.user() != ""
}

func (a *App) user() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.userName
}

func (a *App) setUser(name string) {
	a.mu.Lock()
	a.userName = name
	a.mu.Unlock()
}

// onReconnect replays the offline queue whenever the backend comes back.
func (a *App) onReconnect(ctx context.Context) {
	if !a.isLoggedIn() {
		return
	}
	report, err := a.sync.Flush(ctx)
	if err != nil {
		a.logger.Warn(ctx, "reconnect flush failed", "error", err)
		return
	}
	if report.Sent > 0 || report.Failed > 0 {
		a.logger.Info(ctx, "offline queue flushed", "sent", report.Sent, "failed", report.Failed, "remaining", report.Remaining)
	}
}

func (a *App) startMonitor(ctx context.Context) {
	if a.monitor == nil {
		return
	}
	mctx, cancel := context.WithCancel(ctx)
	if !a.setMonitor(cancel) {
		cancel()
		return
	}
	go a.monitor.Run(mctx)
}

// setMonitor swaps the running monitor's cancel func and reports whether
// the swap started a monitor that was not running.
func (a *App) setMonitor(cancel context.CancelFunc) bool {
	a.monitorMu.Lock()
	defer a.monitorMu.Unlock()

	if cancel != nil && a.stopMonitor != nil {
		return false
	}
	if a.stopMonitor != nil {
		a.stopMonitor()
	}
	a.stopMonitor = cancel
	return cancel != nil
}

func (a *App) monitorRunning() bool {
	a.monitorMu.Lock()
	defer a.monitorMu.Unlock()
	return a.stopMonitor != nil
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
