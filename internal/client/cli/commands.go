package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/sitecrew/internal/client/connectivity"
	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/client/monitor"
	"github.com/dmitrijs2005/sitecrew/internal/client/services"
	"github.com/dmitrijs2005/sitecrew/internal/timex"
)

var errUsage = errors.New("usage")

func (a *App) usage(text string) error {
	a.printf("Usage: %s\n", text)
	return errUsage
}

// Projects lists the assigned projects, from the cache when offline.
func (a *App) Projects(ctx context.Context) error {
	projects, cached, err := a.projectService.List(ctx)
	if err != nil {
		return a.fail(err)
	}
	if cached {
		a.alert(AlertOffline, "Showing the last downloaded project list.")
	}
	if len(projects) == 0 {
		a.printf("No projects assigned.\n")
		return nil
	}
	for _, p := range projects {
		a.printf("%s  %s (%.5f, %.5f)\n", p.ID, p.Name, p.Latitude, p.Longitude)
		for _, wo := range p.WorkOrders {
			a.printf("    %s  %s\n", wo.ID, wo.Description)
		}
	}
	return nil
}

func (a *App) Select(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return a.usage("select <project id> <work order id>")
	}
	p, wo, err := a.projectService.Select(ctx, args[0], args[1])
	if err != nil {
		return a.fail(err)
	}
	a.printf("Selected %s / %s\n", p.Name, wo.Description)
	return nil
}

// Position sets the device location used by clock-in, locate and the fall
// monitor. "position deny" simulates a revoked permission.
func (a *App) Position(ctx context.Context, args []string) error {
	if len(args) == 1 && (args[0] == "deny" || args[0] == "allow") {
		a.locator.Deny(args[0] == "deny")
		a.printf("Location permission: %s.\n", args[0])
		return nil
	}
	if len(args) != 2 {
		return a.usage("position <latitude> <longitude> | position deny|allow")
	}
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil || lat < -90 || lat > 90 {
		return a.usage("position <latitude> <longitude> (latitude in -90..90)")
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil || lon < -180 || lon > 180 {
		return a.usage("position <latitude> <longitude> (longitude in -180..180)")
	}
	fix := a.locator.Set(lat, lon)
	a.printf("Position set to %.6f, %.6f\n", fix.Latitude, fix.Longitude)
	return nil
}

func (a *App) ClockIn(ctx context.Context, args []string) error {
	vehicle := len(args) > 0 && (args[0] == "vehicle" || args[0] == "-v")
	if len(args) == 0 {
		var err error
		if vehicle, err = GetYesNo(a.reader, "Using a personal vehicle?", a.out); err != nil {
			return err
		}
	}

	res, err := a.clock.ClockIn(ctx, services.ClockInInput{UsePersonalVehicle: vehicle})
	if err != nil {
		return a.fail(err)
	}
	if res.Queued {
		a.alert(AlertOffline, "Clocked in offline; the shift will sync when the connection returns.")
	}
	a.printf("Clocked in at %s.\n", res.Record.Start.Format(time.Kitchen))
	return nil
}

func (a *App) ClockOut(ctx context.Context) error {
	draft, err := a.clock.DraftNotes(ctx)
	if err != nil {
		return a.fail(err)
	}
	prompt := "Describe the work done"
	if draft != "" {
		prompt += fmt.Sprintf(" (empty line keeps: %q)", draft)
	}
	notes, err := GetMultiline(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	if notes == "" {
		notes = draft
	}

	res, err := a.clock.ClockOut(ctx, notes)
	if err != nil {
		return a.fail(err)
	}
	if res.Queued {
		a.alert(AlertOffline, "Clock-out saved; it will be sent when the connection returns.")
	}
	if res.MediaQueued > 0 {
		a.alert(AlertQueued, fmt.Sprintf("%d media upload(s) waiting in the offline queue.", res.MediaQueued))
	}
	a.printf("Clocked out. Shift length %s.\n", timex.Elapsed(res.Record.Start, *res.Record.End))
	return nil
}

func (a *App) Status(ctx context.Context) error {
	st, err := a.clock.Status(ctx)
	if err != nil {
		return a.fail(err)
	}

	a.printf("Network: %s\n", modeLabel(a.net.Mode()))
	if st.Record == nil {
		a.printf("Clock:   OUT\n")
	} else {
		rec := st.Record
		a.printf("Clock:   IN since %s (%s)\n", rec.Start.Format(time.Kitchen), st.Elapsed)
		a.printf("Project: %s / %s %s\n", rec.ProjectID, rec.WorkOrderID, rec.WorkOrderDescription)
		if rec.IsOnline {
			a.printf("Sheet:   %s\n", rec.TimesheetID)
		} else {
			a.printf("Sheet:   offline %s\n", rec.OfflineID)
		}
		a.printf("Trail:   %d point(s)\n", len(rec.Locations))
	}
	if st.FallDetected {
		a.printf("Safety:  fall reported during this shift\n")
	}
	if st.EmergencyPoints > 0 {
		a.printf("Safety:  %d emergency location(s) recorded outside a shift\n", st.EmergencyPoints)
	}
	a.printf("Staged:  %d photo(s), %d receipt(s)\n",
		st.Staged[models.MediaKindImage], st.Staged[models.MediaKindReceipt])
	a.printf("Queue:   %d timesheet, %d image, %d receipt\n",
		st.Queue[models.QueueKindTimesheet], st.Queue[models.QueueKindImage], st.Queue[models.QueueKindReceipt])
	if a.monitorRunning() {
		a.printf("Monitor: running\n")
	} else {
		a.printf("Monitor: stopped\n")
	}
	return nil
}

// Locate records the current position on the open shift.
func (a *App) Locate(ctx context.Context) error {
	fix, queued, err := a.clock.RecordLocation(ctx)
	if err != nil {
		return a.fail(err)
	}
	suffix := ""
	if queued {
		suffix = " (saved offline)"
	}
	a.printf("Location %.6f, %.6f recorded%s.\n", fix.Latitude, fix.Longitude, suffix)
	return nil
}

// Stage copies a photo or receipt into the shift's pending media.
func (a *App) Stage(ctx context.Context, kind models.MediaKind, args []string) error {
	if len(args) != 1 {
		return a.usage(fmt.Sprintf("%s <path>", commandFor(kind)))
	}
	m, err := a.clock.StageMedia(ctx, kind, args[0])
	if err != nil {
		return a.fail(err)
	}
	a.printf("%s #%d staged; it uploads at clock-out.\n", commandFor(kind), m.Index+1)
	return nil
}

func commandFor(kind models.MediaKind) string {
	if kind == models.MediaKindReceipt {
		return "receipt"
	}
	return "photo"
}

// Queue lists everything waiting for the backend.
func (a *App) Queue(ctx context.Context) error {
	entries, err := a.queue.List(ctx, "")
	if err != nil {
		return a.fail(err)
	}
	if len(entries) == 0 {
		a.printf("Offline queue is empty.\n")
		return nil
	}
	for _, e := range entries {
		flags := ""
		if e.Held {
			flags = " [open shift]"
		}
		if e.Attempts > 0 {
			flags += fmt.Sprintf(" [%d failed: %s]", e.Attempts, e.LastError)
		}
		a.printf("%s  %-9s %s %s%s\n", e.CreatedAt.Format(time.DateTime), e.Kind, e.Method, e.Path, flags)
	}
	return nil
}

// Flush replays the offline queue now.
func (a *App) Flush(ctx context.Context) error {
	report, err := a.sync.Flush(ctx)
	if err != nil {
		return a.fail(err)
	}
	if report.Stopped && report.Sent == 0 {
		a.alert(AlertOffline, fmt.Sprintf("Nothing sent; %d item(s) still queued.", report.Remaining))
		return nil
	}
	a.printf("Sent %d, failed %d, remaining %d.\n", report.Sent, report.Failed, report.Remaining)
	return nil
}

// Monitor controls the fall monitor: "monitor on|off" starts or stops it,
// "monitor drop" feeds a free-fall followed by an impact.
func (a *App) Monitor(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("monitor on|off|drop")
	}
	switch args[0] {
	case "on":
		a.startMonitor(ctx)
		a.printf("Fall monitor running.\n")
	case "off":
		a.setMonitor(nil)
		a.printf("Fall monitor stopped.\n")
	case "drop":
		a.accel.Push(monitor.Sample{Z: 0.1}, monitor.Sample{X: 2.5, Y: 1, Z: 1.5})
		a.printf("Simulated drop queued.\n")
	default:
		return a.usage("monitor on|off|drop")
	}
	return nil
}

func modeLabel(m connectivity.Mode) string {
	if m == connectivity.ModeUnknown {
		return "checking"
	}
	return string(m)
}
