package httpapi

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/sitecrew/internal/logging"
	"github.com/dmitrijs2005/sitecrew/internal/server/models"
)

type RouterConfig struct {
	Secret     []byte
	LoginRate  rate.Limit
	LoginBurst int
}

// NewRouter wires the middleware chain and the routes the field client
// calls.
func NewRouter(h *Handler, logger logging.Logger, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(logger.With("module", "http")), h.metrics.Middleware())

	r.GET("/health", h.Health)
	r.GET("/metrics", h.metrics.Handler())
	r.POST("/auth/login", RateLimitByIP(cfg.LoginRate, cfg.LoginBurst), h.Login)

	authed := r.Group("/", Auth(cfg.Secret))
	authed.GET("/projects", h.Projects)
	authed.POST("/users", RequireRole(models.RoleSupervisor), h.CreateUser)

	ts := authed.Group("/timesheets")
	ts.POST("/clock-in", h.ClockIn)
	ts.POST("/clock-out", h.ClockOut)
	ts.POST("/clockOutOffline", h.ClockOutOffline)
	ts.GET("/current", h.Current)
	ts.POST("/update-timesheet", h.UpdateTimesheet)
	ts.POST("/:id/upload-images", h.UploadImages)

	return r
}
