package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sitecrew/internal/client/client"
	"github.com/dmitrijs2005/sitecrew/internal/client/monitor"
	"github.com/dmitrijs2005/sitecrew/internal/client/services"
	"github.com/dmitrijs2005/sitecrew/internal/client/state"
	"github.com/dmitrijs2005/sitecrew/internal/client/syncclient"
)

// Alert titles shown to the user.
const (
	AlertGeofence   = "Geofence Error"
	AlertInput      = "Input Required"
	AlertOffline    = "Offline"
	AlertPermission = "Permission Denied"
	AlertLocation   = "Location Unavailable"
	AlertSession    = "Session Expired"
	AlertClock      = "Clock"
	AlertServer     = "Server Error"
	AlertError      = "Error"
	AlertQueued     = "Saved Offline"
)

// alertFor maps an error onto an alert title and message.
func alertFor(err error) (string, string) {
	var ge *services.GeofenceError
	var he *client.HTTPError

	switch {
	case errors.As(err, &ge):
		return AlertGeofence, fmt.Sprintf("You are %.0f m from the site; clock-in is allowed within %.0f m.", ge.Distance, ge.Radius)
	case errors.Is(err, services.ErrNoteRequired):
		return AlertInput, "Please describe the work done before clocking out."
	case errors.Is(err, services.ErrSelectionRequired):
		return AlertInput, "Select a project and a work order first (select <project> <work order>)."
	case errors.Is(err, services.ErrUnknownProject), errors.Is(err, services.ErrUnknownWorkOrder):
		return AlertInput, err.Error()
	case errors.Is(err, services.ErrPermissionDenied):
		return AlertPermission, "Location permission is required to clock in."
	case errors.Is(err, monitor.ErrLocationUnavailable):
		return AlertLocation, "No recent location fix (set one with: position <lat> <lon>)."
	case errors.Is(err, state.ErrNoSession), errors.Is(err, client.ErrUnauthorized):
		return AlertSession, "Please log in again."
	case errors.Is(err, client.ErrUnavailable), errors.Is(err, syncclient.ErrOffline):
		return AlertOffline, "The server cannot be reached right now."
	case errors.Is(err, services.ErrAlreadyClockedIn), errors.Is(err, services.ErrNotClockedIn),
		errors.Is(err, services.ErrBusy), errors.Is(err, syncclient.ErrFlushRunning):
		return AlertClock, err.Error()
	case errors.As(err, &he):
		return AlertServer, he.Error()
	}
	return AlertError, err.Error()
}

// alert prints a titled message.
func (a *App) alert(title, body string) {
	a.printf("[%s] %s\n", title, body)
}

// fail shows err as an alert and returns it.
func (a *App) fail(err error) error {
	title, body := alertFor(err)
	a.alert(title, body)
	return err
}
