package monitor

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/logging"
)

// Resting is what a device lying still reads: 1 g straight down.
var Resting = Sample{Z: 1}

// ReplayAccelerometer plays back recorded samples, one per Read. Once the
// recording is exhausted it keeps returning Resting.
type ReplayAccelerometer struct {
	mu      sync.Mutex
	samples []Sample
	pos     int
	now     func() time.Time
}

func NewReplayAccelerometer(samples []Sample) *ReplayAccelerometer {
	return &ReplayAccelerometer{samples: samples, now: time.Now}
}

// LoadReplayCSV reads "x,y,z" rows. A first row that does not parse as
// numbers is taken as a header.
func LoadReplayCSV(path string) (*ReplayAccelerometer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	samples, err := ParseSamples(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewReplayAccelerometer(samples), nil
}

func ParseSamples(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var samples []Sample
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		var v [3]float64
		for i, field := range rec {
			v[i], err = strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				break
			}
		}
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, Sample{X: v[0], Y: v[1], Z: v[2]})
	}
	return samples, nil
}

// Push appends samples to the end of the recording.
func (a *ReplayAccelerometer) Push(s ...Sample) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.samples = append(a.samples, s...)
}

func (a *ReplayAccelerometer) Read(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Resting
	if a.pos < len(a.samples) {
		s = a.samples[a.pos]
		a.pos++
	}
	s.At = a.now()
	return s, nil
}

// StaticLocator serves the last fix it was given.
type StaticLocator struct {
	mu     sync.RWMutex
	fix    *models.GeoPoint
	denied bool
	now    func() time.Time
}

func NewStaticLocator() *StaticLocator {
	return &StaticLocator{now: time.Now}
}

// Set records a fix taken now.
func (l *StaticLocator) Set(lat, lon float64) models.GeoPoint {
	p := models.GeoPoint{Latitude: lat, Longitude: lon, Timestamp: l.now()}
	l.mu.Lock()
	l.fix = &p
	l.mu.Unlock()
	return p
}

// Deny makes Locate fail with ErrPermissionDenied until called with false.
func (l *StaticLocator) Deny(denied bool) {
	l.mu.Lock()
	l.denied = denied
	l.mu.Unlock()
}

func (l *StaticLocator) Locate(ctx context.Context, maxAge time.Duration) (models.GeoPoint, error) {
	if err := ctx.Err(); err != nil {
		return models.GeoPoint{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.denied {
		return models.GeoPoint{}, ErrPermissionDenied
	}
	if l.fix == nil {
		return models.GeoPoint{}, ErrLocationUnavailable
	}
	if maxAge > 0 && l.now().Sub(l.fix.Timestamp) > maxAge {
		return models.GeoPoint{}, fmt.Errorf("%w: last fix is %s old", ErrLocationUnavailable,
			l.now().Sub(l.fix.Timestamp).Truncate(time.Second))
	}
	return *l.fix, nil
}

// LogNotifier writes alerts to w and to the log.
type LogNotifier struct {
	mu     sync.Mutex
	w      io.Writer
	logger logging.Logger
}

func NewLogNotifier(w io.Writer, logger logging.Logger) *LogNotifier {
	return &LogNotifier{w: w, logger: logger.With("module", "notifier")}
}

func (n *LogNotifier) Notify(ctx context.Context, title, body string) error {
	n.logger.Warn(ctx, "alert", "title", title, "body", body)
	if n.w == nil {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.w, "\n!!! %s: %s\n", title, body)
	return err
}
