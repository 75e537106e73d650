package models

import (
	"time"

	"github.com/dmitrijs2005/sitecrew/internal/geo"
)

// ClockState is the position of the clock-in/out state machine.
type ClockState string

const (
	ClockStateOut ClockState = "OUT"
	ClockStateIn  ClockState = "IN"
)

// GeoPoint is one location sample. Points are immutable once appended to a
// shift's trail; emergency points come from the fall monitor.
type GeoPoint struct {
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Timestamp   time.Time `json:"timestamp"`
	IsEmergency bool      `json:"isEmergency,omitempty"`
}

// Point strips the sample down to its coordinate.
func (p GeoPoint) Point() geo.Point {
	return geo.Point{Latitude: p.Latitude, Longitude: p.Longitude}
}

// ClockRecord is the client-side view of a work shift.
type ClockRecord struct {
	// TimesheetID is assigned by the backend; empty for a shift started offline.
	TimesheetID string `json:"timesheetId,omitempty"`
	// OfflineID identifies a shift started offline across queue replays.
	OfflineID string `json:"offlineId,omitempty"`

	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`

	ProjectID            string `json:"projectId"`
	WorkOrderID          string `json:"workOrderId"`
	WorkOrderDescription string `json:"workOrderDescription,omitempty"`

	Locations          []GeoPoint `json:"locations,omitempty"`
	UsePersonalVehicle bool       `json:"usePersonalVehicle"`
	IsOnline           bool       `json:"isOnline"`
	Notes              string     `json:"notes,omitempty"`
}

// State derives the machine state from the End stamp.
func (r *ClockRecord) State() ClockState {
	if r == nil || r.End != nil {
		return ClockStateOut
	}
	return ClockStateIn
}
