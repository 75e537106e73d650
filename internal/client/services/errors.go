package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sitecrew/internal/client/monitor"
)

var (
	ErrSelectionRequired = errors.New("project and work order must be selected")
	ErrUnknownProject    = errors.New("unknown project")
	ErrUnknownWorkOrder  = errors.New("unknown work order")
	ErrAlreadyClockedIn  = errors.New("already clocked in")
	ErrNotClockedIn      = errors.New("not clocked in")
	ErrGeofence          = errors.New("outside project geofence")
	ErrNoteRequired      = errors.New("a note is required to clock out")
	ErrBusy              = errors.New("another clock transition is in progress")

	ErrPermissionDenied = monitor.ErrPermissionDenied
)

// GeofenceError carries the measured distance of a rejected clock-in.
type GeofenceError struct {
	Distance float64
	Radius   float64
}

func (e *GeofenceError) Error() string {
	return fmt.Sprintf("%s: %.0f m from site, limit %.0f m", ErrGeofence, e.Distance, e.Radius)
}

func (e *GeofenceError) Unwrap() error { return ErrGeofence }
