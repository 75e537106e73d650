package services

import (
	"github.com/dmitrijs2005/sitecrew/internal/client/client"
	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/timex"
)

func ClockInPayload(rec *models.ClockRecord) client.ClockInRequest {
	req := client.ClockInRequest{
		ProjectID:          rec.ProjectID,
		WorkOrderID:        rec.WorkOrderID,
		Start:              timex.FormatLocal(rec.Start),
		UsePersonalVehicle: rec.UsePersonalVehicle,
	}
	if len(rec.Locations) > 0 {
		req.Location = rec.Locations[0]
	}
	return req
}

func ClockOutPayload(rec *models.ClockRecord) client.ClockOutRequest {
	return client.ClockOutRequest{
		TimesheetID:        rec.TimesheetID,
		End:                formatEnd(rec),
		Notes:              rec.Notes,
		Locations:          trail(rec),
		UsePersonalVehicle: rec.UsePersonalVehicle,
	}
}

// ClockOutOfflinePayload is the whole shift of a record that started
// offline, keyed by its offline id.
func ClockOutOfflinePayload(rec *models.ClockRecord, fallDetected bool) client.ClockOutOfflineRequest {
	return client.ClockOutOfflineRequest{
		OfflineID:          rec.OfflineID,
		ProjectID:          rec.ProjectID,
		WorkOrderID:        rec.WorkOrderID,
		Start:              timex.FormatLocal(rec.Start),
		End:                formatEnd(rec),
		Notes:              rec.Notes,
		Locations:          trail(rec),
		UsePersonalVehicle: rec.UsePersonalVehicle,
		FallDetected:       fallDetected,
	}
}

func formatEnd(rec *models.ClockRecord) string {
	if rec.End == nil {
		return ""
	}
	return timex.FormatLocal(*rec.End)
}

func trail(rec *models.ClockRecord) []models.GeoPoint {
	if rec.Locations == nil {
		return []models.GeoPoint{}
	}
	return rec.Locations
}
