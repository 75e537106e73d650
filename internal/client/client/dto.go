package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/timex"
)

var validate = validator.New()

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserDTO struct {
	ID    string `json:"id" validate:"required"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type LoginResponse struct {
	Token           string  `json:"token" validate:"required"`
	User            UserDTO `json:"user"`
	EnforceGeofence bool    `json:"enforceGeofence"`
}

// Session converts a login answer into the persisted session.
func (r *LoginResponse) Session() *models.Session {
	return &models.Session{
		AuthToken:       r.Token,
		UserID:          r.User.ID,
		UserEmail:       r.User.Email,
		UserName:        r.User.Name,
		UserRole:        r.User.Role,
		EnforceGeofence: r.EnforceGeofence,
	}
}

type WorkOrderDTO struct {
	ID          string `json:"id" validate:"required"`
	Description string `json:"description"`
}

type ProjectDTO struct {
	ID         string         `json:"id" validate:"required"`
	Name       string         `json:"name"`
	Latitude   float64        `json:"latitude" validate:"latitude"`
	Longitude  float64        `json:"longitude" validate:"longitude"`
	WorkOrders []WorkOrderDTO `json:"workOrders" validate:"dive"`
}

func (p ProjectDTO) Model() models.Project {
	m := models.Project{ID: p.ID, Name: p.Name, Latitude: p.Latitude, Longitude: p.Longitude}
	for _, wo := range p.WorkOrders {
		m.WorkOrders = append(m.WorkOrders, models.WorkOrder{ID: wo.ID, Description: wo.Description})
	}
	return m
}

type ClockInResponse struct {
	TimesheetID string `json:"timesheetId" validate:"required"`
}

// CurrentTimesheetResponse is the caller's open timesheet as the backend
// sees it.
type CurrentTimesheetResponse struct {
	TimesheetID        string            `json:"timesheetId" validate:"required"`
	OfflineID          string            `json:"offlineId"`
	ProjectID          string            `json:"projectId" validate:"required"`
	WorkOrderID        string            `json:"workOrderId" validate:"required"`
	Start              time.Time         `json:"start"`
	UsePersonalVehicle bool              `json:"usePersonalVehicle"`
	FallDetected       bool              `json:"fallDetected"`
	Locations          []models.GeoPoint `json:"locations"`
}

// Record converts the open timesheet into a local clock record.
func (r *CurrentTimesheetResponse) Record() *models.ClockRecord {
	return &models.ClockRecord{
		TimesheetID:        r.TimesheetID,
		OfflineID:          r.OfflineID,
		Start:              r.Start,
		ProjectID:          r.ProjectID,
		WorkOrderID:        r.WorkOrderID,
		Locations:          r.Locations,
		UsePersonalVehicle: r.UsePersonalVehicle,
		IsOnline:           true,
	}
}

// Decode parses body into the struct pointed to by dst and validates it.
func Decode(body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func decodeProjects(body []byte) ([]models.Project, error) {
	var list []ProjectDTO
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	projects := make([]models.Project, 0, len(list))
	for i := range list {
		if err := validate.Struct(&list[i]); err != nil {
			return nil, fmt.Errorf("%w: project %d: %v", ErrInvalidResponse, i, err)
		}
		projects = append(projects, list[i].Model())
	}
	return projects, nil
}

type ClockInRequest struct {
	ProjectID          string          `json:"projectId"`
	WorkOrderID        string          `json:"workOrderId"`
	Start              string          `json:"start"`
	Location           models.GeoPoint `json:"location"`
	UsePersonalVehicle bool            `json:"usePersonalVehicle"`
	OfflineID          string          `json:"offlineId,omitempty"`
}

type ClockOutRequest struct {
	TimesheetID        string            `json:"timesheetId"`
	End                string            `json:"end"`
	Notes              string            `json:"notes"`
	Locations          []models.GeoPoint `json:"locations"`
	UsePersonalVehicle bool              `json:"usePersonalVehicle"`
}

// ClockOutOfflineRequest carries a whole shift that started offline. The
// backend upserts it by OfflineID, so replays are harmless.
type ClockOutOfflineRequest struct {
	OfflineID          string            `json:"offlineId"`
	ProjectID          string            `json:"projectId"`
	WorkOrderID        string            `json:"workOrderId"`
	Start              string            `json:"start"`
	End                string            `json:"end"`
	Notes              string            `json:"notes"`
	Locations          []models.GeoPoint `json:"locations"`
	UsePersonalVehicle bool              `json:"usePersonalVehicle"`
	FallDetected       bool              `json:"fallDetected,omitempty"`
}

// LocationUpdateRequest is a location ping or a fall report for the open
// timesheet. Coordinates are omitted when no fix was available.
type LocationUpdateRequest struct {
	TimesheetID  string   `json:"timesheetId,omitempty"`
	OfflineID    string   `json:"offlineId,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Timestamp    string   `json:"timestamp"`
	IsEmergency  bool     `json:"isEmergency,omitempty"`
	FallDetected bool     `json:"fallDetected,omitempty"`
}

// NewLocationUpdate builds the update-timesheet body for point p of the open
// shift rec. Either argument may be nil.
func NewLocationUpdate(rec *models.ClockRecord, p *models.GeoPoint, at time.Time, fallDetected bool) LocationUpdateRequest {
	req := LocationUpdateRequest{
		Timestamp:    timex.FormatLocal(at),
		FallDetected: fallDetected,
	}
	if rec != nil {
		req.TimesheetID = rec.TimesheetID
		req.OfflineID = rec.OfflineID
	}
	if p != nil {
		lat, lon := p.Latitude, p.Longitude
		req.Latitude = &lat
		req.Longitude = &lon
		req.IsEmergency = p.IsEmergency
		req.Timestamp = timex.FormatLocal(p.Timestamp)
	}
	return req
}
