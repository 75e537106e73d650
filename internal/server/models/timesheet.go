package models

import "time"

// Timesheet is one work shift. End is nil while the shift is open.
type Timesheet struct {
	ID                 string
	UserID             string
	OfflineID          *string
	ProjectID          string
	WorkOrderID        string
	Start              time.Time
	End                *time.Time
	Notes              string
	UsePersonalVehicle bool
	FallDetected       bool
	Locations          []Location
}

// Open reports whether the shift has not been closed yet.
func (t *Timesheet) Open() bool {
	return t.End == nil
}

// Location is one point of a timesheet's append-only trail.
type Location struct {
	TimesheetID string
	Latitude    float64
	Longitude   float64
	CapturedAt  time.Time
	IsEmergency bool
}

// Image is an uploaded photo or receipt stored in object storage.
type Image struct {
	ID          string
	TimesheetID string
	Kind        string
	StorageKey  string
	FileName    string
	SizeBytes   int64
	CreatedAt   time.Time
}

// Media kinds accepted by the upload endpoint.
const (
	ImageKindPhoto   = "image"
	ImageKindReceipt = "receipt"
)
