package httpapi

import (
	"time"

	"github.com/dmitrijs2005/sitecrew/internal/server/models"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type LoginResponse struct {
	Token           string  `json:"token"`
	User            UserDTO `json:"user"`
	EnforceGeofence bool    `json:"enforceGeofence"`
}

type CreateUserRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Name            string `json:"name" binding:"required"`
	Role            string `json:"role" binding:"omitempty,oneof=worker supervisor"`
	Password        string `json:"password" binding:"required,min=8"`
	EnforceGeofence bool   `json:"enforceGeofence"`
}

type WorkOrderDTO struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

type ProjectDTO struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Latitude   float64        `json:"latitude"`
	Longitude  float64        `json:"longitude"`
	WorkOrders []WorkOrderDTO `json:"workOrders"`
}

// GeoPointDTO is one trail sample as the device reports it.
type GeoPointDTO struct {
	Latitude    float64   `json:"latitude" binding:"latitude"`
	Longitude   float64   `json:"longitude" binding:"longitude"`
	Timestamp   time.Time `json:"timestamp"`
	IsEmergency bool      `json:"isEmergency,omitempty"`
}

type ClockInRequest struct {
	ProjectID          string       `json:"projectId" binding:"required"`
	WorkOrderID        string       `json:"workOrderId" binding:"required"`
	Start              time.Time    `json:"start"`
	Location           *GeoPointDTO `json:"location"`
	UsePersonalVehicle bool         `json:"usePersonalVehicle"`
	OfflineID          string       `json:"offlineId"`
}

type ClockOutRequest struct {
	TimesheetID        string        `json:"timesheetId" binding:"required"`
	End                time.Time     `json:"end"`
	Notes              string        `json:"notes" binding:"required"`
	Locations          []GeoPointDTO `json:"locations" binding:"dive"`
	UsePersonalVehicle bool          `json:"usePersonalVehicle"`
}

type ClockOutOfflineRequest struct {
	OfflineID          string        `json:"offlineId" binding:"required"`
	ProjectID          string        `json:"projectId" binding:"required"`
	WorkOrderID        string        `json:"workOrderId" binding:"required"`
	Start              time.Time     `json:"start"`
	End                time.Time     `json:"end"`
	Notes              string        `json:"notes" binding:"required"`
	Locations          []GeoPointDTO `json:"locations" binding:"dive"`
	UsePersonalVehicle bool          `json:"usePersonalVehicle"`
	FallDetected       bool          `json:"fallDetected"`
}

type UpdateTimesheetRequest struct {
	TimesheetID  string    `json:"timesheetId" binding:"required_without=OfflineID"`
	OfflineID    string    `json:"offlineId"`
	Latitude     *float64  `json:"latitude" binding:"omitempty,latitude"`
	Longitude    *float64  `json:"longitude" binding:"omitempty,longitude"`
	Timestamp    time.Time `json:"timestamp"`
	IsEmergency  bool      `json:"isEmergency"`
	FallDetected bool      `json:"fallDetected"`
}

type TimesheetResponse struct {
	TimesheetID string `json:"timesheetId,omitempty"`
}

type CurrentTimesheetResponse struct {
	TimesheetID        string        `json:"timesheetId"`
	OfflineID          string        `json:"offlineId,omitempty"`
	ProjectID          string        `json:"projectId"`
	WorkOrderID        string        `json:"workOrderId"`
	Start              time.Time     `json:"start"`
	UsePersonalVehicle bool          `json:"usePersonalVehicle"`
	FallDetected       bool          `json:"fallDetected"`
	Locations          []GeoPointDTO `json:"locations"`
}

type ImageDTO struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Key      string `json:"key"`
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
}

type UploadImagesResponse struct {
	TimesheetID string     `json:"timesheetId"`
	Images      []ImageDTO `json:"images"`
}

func toUserDTO(u *models.User) UserDTO {
	return UserDTO{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func toProjectDTOs(list []*models.Project) []ProjectDTO {
	out := make([]ProjectDTO, 0, len(list))
	for _, p := range list {
		dto := ProjectDTO{
			ID:         p.ID,
			Name:       p.Name,
			Latitude:   p.Latitude,
			Longitude:  p.Longitude,
			WorkOrders: make([]WorkOrderDTO, 0, len(p.WorkOrders)),
		}
		for _, wo := range p.WorkOrders {
			dto.WorkOrders = append(dto.WorkOrders, WorkOrderDTO{ID: wo.ID, Description: wo.Description})
		}
		out = append(out, dto)
	}
	return out
}

func (p GeoPointDTO) model() models.Location {
	return models.Location{
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		CapturedAt:  p.Timestamp,
		IsEmergency: p.IsEmergency,
	}
}

func toLocations(points []GeoPointDTO) []models.Location {
	out := make([]models.Location, 0, len(points))
	for _, p := range points {
		out = append(out, p.model())
	}
	return out
}

func toCurrentResponse(ts *models.Timesheet) CurrentTimesheetResponse {
	resp := CurrentTimesheetResponse{
		TimesheetID:        ts.ID,
		ProjectID:          ts.ProjectID,
		WorkOrderID:        ts.WorkOrderID,
		Start:              ts.Start,
		UsePersonalVehicle: ts.UsePersonalVehicle,
		FallDetected:       ts.FallDetected,
		Locations:          make([]GeoPointDTO, 0, len(ts.Locations)),
	}
	if ts.OfflineID != nil {
		resp.OfflineID = *ts.OfflineID
	}
	for _, l := range ts.Locations {
		resp.Locations = append(resp.Locations, GeoPointDTO{
			Latitude:    l.Latitude,
			Longitude:   l.Longitude,
			Timestamp:   l.CapturedAt,
			IsEmergency: l.IsEmergency,
		})
	}
	return resp
}

func toImageDTOs(list []*models.Image) []ImageDTO {
	out := make([]ImageDTO, 0, len(list))
	for _, img := range list {
		out = append(out, ImageDTO{
			ID:       img.ID,
			Kind:     img.Kind,
			Key:      img.StorageKey,
			FileName: img.FileName,
			Size:     img.SizeBytes,
		})
	}
	return out
}
