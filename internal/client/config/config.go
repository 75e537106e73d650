package config

import (
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/sitecrew/internal/geo"
)

// Config holds runtime settings for the SiteCrew field client.
//
// Fields:
//   - ServerURL: base URL of the backend REST API.
//   - HealthAddr: host:port of the gRPC health endpoint; empty probes over HTTP.
//   - DatabasePath: SQLite file holding the local state cache.
//   - MediaDir: directory where staged photos and receipts are copied.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - Offline: never probe, treat the backend as unreachable.
//   - LocationTimeout/LocationMaxAge: bounds on a location fix.
//   - SampleInterval/ConfirmWindow: fall monitor cadence.
//   - GeofenceRadius: clock-in radius in meters when the employer enforces it.
//   - ReplayFile: CSV of accelerometer samples fed to the fall monitor.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerURL           string
	HealthAddr          string
	DatabasePath        string
	MediaDir            string
	OnlineCheckInterval time.Duration
	Offline             bool

	LocationTimeout time.Duration
	LocationMaxAge  time.Duration
	SampleInterval  time.Duration
	ConfirmWindow   time.Duration
	GeofenceRadius  float64

	ReplayFile string
	LogLevel   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.HealthAddr = ""
	c.DatabasePath = "sitecrew.db"
	c.MediaDir = filepath.Join(".", "media")
	c.OnlineCheckInterval = 3 * time.Second
	c.Offline = false
	c.LocationTimeout = 10 * time.Second
	c.LocationMaxAge = time.Minute
	c.SampleInterval = 100 * time.Millisecond
	c.ConfirmWindow = 2 * time.Second
	c.GeofenceRadius = geo.DefaultGeofenceRadius
	c.ReplayFile = ""
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
