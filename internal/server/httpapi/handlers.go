package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/sitecrew/internal/common"
	"github.com/dmitrijs2005/sitecrew/internal/server/models"
	"github.com/dmitrijs2005/sitecrew/internal/server/services"
)

type UserService interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
}

type ProjectService interface {
	List(ctx context.Context, userID string) ([]*models.Project, error)
}

type TimesheetService interface {
	ClockIn(ctx context.Context, userID string, in services.ClockInInput) (*models.Timesheet, error)
	ClockOut(ctx context.Context, userID string, in services.ClockOutInput) (*models.Timesheet, error)
	ClockOutOffline(ctx context.Context, userID string, in services.ClockOutOfflineInput) (*models.Timesheet, error)
	Current(ctx context.Context, userID string) (*models.Timesheet, error)
	Update(ctx context.Context, userID string, in services.UpdateInput) (*models.Timesheet, error)
	UploadImages(ctx context.Context, userID, ref, kind string, files []services.Upload) ([]*models.Image, error)
}

// Pinger reports whether the database answers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Users          UserService
	Projects       ProjectService
	Timesheets     TimesheetService
	DB             Pinger
	Metrics        *Metrics
	MaxUploadBytes int64
}

type Handler struct {
	users          UserService
	projects       ProjectService
	timesheets     TimesheetService
	db             Pinger
	metrics        *Metrics
	maxUploadBytes int64
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		users:          d.Users,
		projects:       d.Projects,
		timesheets:     d.Timesheets,
		db:             d.DB,
		metrics:        d.Metrics,
		maxUploadBytes: d.MaxUploadBytes,
	}
}

// writeServiceError reports err in the failure envelope. Internal errors are
// attached to the context for the access log and never shown to the caller.
func writeServiceError(c *gin.Context, err error) {
	e := ToAppError(err)
	if e.HTTPStatus >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	Error(c, e.HTTPStatus, e.Code, e.Message, nil)
}

// bindJSON decodes and validates the body, answering 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	e := ToAppError(err)
	if e.Code == CodeInternalError {
		e = WrapAppError(err, CodeInvalidInput, "malformed request body", http.StatusBadRequest)
	}
	Error(c, e.HTTPStatus, e.Code, e.Message, nil)
	return false
}

func validationError(c *gin.Context, msg string) {
	writeServiceError(c, fmt.Errorf("%w: %s", common.ErrorValidation, msg))
}

func (h *Handler) Health(c *gin.Context) {
	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			_ = c.Error(err)
			Error(c, http.StatusServiceUnavailable, CodeServiceUnavailable, "database unavailable", nil)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	h.metrics.trackLogin(err == nil)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:           res.Token,
		User:            toUserDTO(res.User),
		EnforceGeofence: res.User.EnforceGeofence,
	})
}

// CreateUser registers an account. Routed behind RequireRole(supervisor).
func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Email:           req.Email,
		Name:            req.Name,
		Role:            req.Role,
		Password:        req.Password,
		EnforceGeofence: req.EnforceGeofence,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserDTO(u))
}

func (h *Handler) Projects(c *gin.Context) {
	list, err := h.projects.List(c.Request.Context(), userID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectDTOs(list))
}

func (h *Handler) ClockIn(c *gin.Context) {
	var req ClockInRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Start.IsZero() {
		validationError(c, "start is required")
		return
	}

	in := services.ClockInInput{
		ProjectID:          req.ProjectID,
		WorkOrderID:        req.WorkOrderID,
		Start:              req.Start,
		UsePersonalVehicle: req.UsePersonalVehicle,
		OfflineID:          req.OfflineID,
	}
	if req.Location != nil && !req.Location.Timestamp.IsZero() {
		loc := req.Location.model()
		in.Location = &loc
	}

	ts, err := h.timesheets.ClockIn(c.Request.Context(), userID(c), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, TimesheetResponse{TimesheetID: ts.ID})
}

func (h *Handler) ClockOut(c *gin.Context) {
	var req ClockOutRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.End.IsZero() {
		validationError(c, "end is required")
		return
	}

	ts, err := h.timesheets.ClockOut(c.Request.Context(), userID(c), services.ClockOutInput{
		TimesheetID:        req.TimesheetID,
		End:                req.End,
		Notes:              req.Notes,
		Locations:          toLocations(req.Locations),
		UsePersonalVehicle: req.UsePersonalVehicle,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, TimesheetResponse{TimesheetID: ts.ID})
}

// ClockOutOffline accepts a whole shift recorded without connectivity. The
// response carries the server id the device uploads media to.
func (h *Handler) ClockOutOffline(c *gin.Context) {
	var req ClockOutOfflineRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Start.IsZero() || req.End.IsZero() {
		validationError(c, "start and end are required")
		return
	}

	ts, err := h.timesheets.ClockOutOffline(c.Request.Context(), userID(c), services.ClockOutOfflineInput{
		OfflineID:          req.OfflineID,
		ProjectID:          req.ProjectID,
		WorkOrderID:        req.WorkOrderID,
		Start:              req.Start,
		End:                req.End,
		Notes:              req.Notes,
		Locations:          toLocations(req.Locations),
		UsePersonalVehicle: req.UsePersonalVehicle,
		FallDetected:       req.FallDetected,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, TimesheetResponse{TimesheetID: ts.ID})
}

func (h *Handler) Current(c *gin.Context) {
	ts, err := h.timesheets.Current(c.Request.Context(), userID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCurrentResponse(ts))
}

func (h *Handler) UpdateTimesheet(c *gin.Context) {
	var req UpdateTimesheetRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.FallDetected {
		h.metrics.fallAlerts.Inc()
	}

	ts, err := h.timesheets.Update(c.Request.Context(), userID(c), services.UpdateInput{
		TimesheetID:  req.TimesheetID,
		OfflineID:    req.OfflineID,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Timestamp:    req.Timestamp,
		IsEmergency:  req.IsEmergency,
		FallDetected: req.FallDetected,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	var resp TimesheetResponse
	if ts != nil {
		resp.TimesheetID = ts.ID
	}
	c.JSON(http.StatusOK, resp)
}

// UploadImages takes multipart images[] files and an optional kind field.
// The :id segment is a server or offline timesheet id.
func (h *Handler) UploadImages(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	form, err := c.MultipartForm()
	if err != nil {
		e := ToAppError(err)
		if e.Code == CodeInternalError {
			e = WrapAppError(err, CodeInvalidInput, "malformed multipart body", http.StatusBadRequest)
		}
		Error(c, e.HTTPStatus, e.Code, e.Message, nil)
		return
	}

	kind := ""
	if v := form.Value["kind"]; len(v) > 0 {
		kind = v[0]
	}

	headers := form.File["images[]"]
	files := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		files = append(files, services.Upload{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	ref := c.Param("id")
	imgs, err := h.timesheets.UploadImages(c.Request.Context(), userID(c), ref, kind, files)
	for _, img := range imgs {
		h.metrics.imagesStored.WithLabelValues(img.Kind).Inc()
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}

	resp := UploadImagesResponse{TimesheetID: ref, Images: toImageDTOs(imgs)}
	if len(imgs) > 0 {
		resp.TimesheetID = imgs[0].TimesheetID
	}
	c.JSON(http.StatusCreated, resp)
}
