// Package connectivity decides whether the backend is reachable. A Watcher
// polls a Prober on a ticker, keeps the current Mode and fires reconnect
// handlers on every transition into ModeOnline.
package connectivity

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/sitecrew/internal/logging"
)

type Mode string

const (
	ModeUnknown  Mode = ""
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

// DefaultProbeTimeout bounds a single reachability probe.
const DefaultProbeTimeout = 3 * time.Second

// Prober reports whether the backend answers.
type Prober interface {
	Ping(ctx context.Context) error
}

type Watcher struct {
	prober       Prober
	interval     time.Duration
	probeTimeout time.Duration
	logger       logging.Logger

	sf singleflight.Group

	mu          sync.RWMutex
	mode        Mode
	disabled    bool
	onReconnect []func(ctx context.Context)

	reconnected chan struct{}
}

func NewWatcher(p Prober, interval time.Duration, logger logging.Logger) *Watcher {
	return &Watcher{
		prober:       p,
		interval:     interval,
		probeTimeout: DefaultProbeTimeout,
		logger:       logger.With("module", "connectivity"),
		reconnected:  make(chan struct{}, 1),
	}
}

// OnReconnect registers fn to run on the watcher goroutine after each
// transition into ModeOnline.
func (w *Watcher) OnReconnect(fn func(ctx context.Context)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReconnect = append(w.onReconnect, fn)
}

func (w *Watcher) Mode() Mode {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.disabled {
		return ModeDisabled
	}
	return w.mode
}

// SetDisabled forces the watcher to report the backend as unreachable
// without probing.
func (w *Watcher) SetDisabled(disabled bool) {
	w.mu.Lock()
	w.disabled = disabled
	w.mu.Unlock()
	w.logger.Info(context.Background(), "network use changed", "disabled", disabled)
}

// Reachable probes the backend now. Concurrent callers share one probe.
func (w *Watcher) Reachable(ctx context.Context) bool {
	if w.Mode() == ModeDisabled {
		return false
	}

	v, _, _ := w.sf.Do("probe", func() (any, error) {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.probeTimeout)
		defer cancel()
		err := w.prober.Ping(pctx)
		if err != nil {
			w.logger.Debug(ctx, "probe failed", "error", err)
		}
		return err == nil, nil
	})

	online := v.(bool)
	if online {
		w.setMode(ctx, ModeOnline)
	} else {
		w.setMode(ctx, ModeOffline)
	}
	return online
}

func (w *Watcher) setMode(ctx context.Context, mode Mode) {
	w.mu.Lock()
	prev := w.mode
	w.mode = mode
	w.mu.Unlock()

	if prev == mode {
		return
	}
	w.logger.Info(ctx, "switched mode", "from", string(prev), "to", string(mode))

	if mode == ModeOnline {
		select {
		case w.reconnected <- struct{}{}:
		default:
		}
	}
}

// Run probes every interval until ctx is done and runs reconnect handlers
// as transitions are observed.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Reachable(ctx)

	for {
		select {
		case <-ticker.C:
			w.Reachable(ctx)
		case <-w.reconnected:
			w.fireReconnect(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) fireReconnect(ctx context.Context) {
	w.mu.RLock()
	handlers := append([]func(context.Context){}, w.onReconnect...)
	w.mu.RUnlock()

	for _, fn := range handlers {
		fn(ctx)
	}
}
