// Package monitor watches accelerometer samples for a free-fall followed by
// an impact, and reports a confirmed fall as an emergency location for the
// open shift.
package monitor

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/dmitrijs2005/sitecrew/internal/client/models"
)

// Thresholds in g.
const (
	FreeFallThreshold = 0.3
	ImpactThreshold   = 2.0
)

var (
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrPermissionDenied    = errors.New("location permission denied")
)

type Sample struct {
	X, Y, Z float64
	At      time.Time
}

// Magnitude is the length of the acceleration vector.
func Magnitude(s Sample) float64 {
	return math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
}

func IsFreeFall(m float64) bool { return m < FreeFallThreshold }

func IsImpact(m float64) bool { return m > ImpactThreshold }

type Accelerometer interface {
	Read(ctx context.Context) (Sample, error)
}

// Locator returns a fix no older than maxAge, or ErrLocationUnavailable /
// ErrPermissionDenied.
type Locator interface {
	Locate(ctx context.Context, maxAge time.Duration) (models.GeoPoint, error)
}

type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}
