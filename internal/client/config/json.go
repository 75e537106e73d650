package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/sitecrew/internal/flagx"
	"github.com/dmitrijs2005/sitecrew/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell an absent key apart from a zero value.
type JsonConfig struct {
	ServerURL           *string         `json:"server_url"`
	HealthAddr          *string         `json:"health_addr"`
	DatabasePath        *string         `json:"database_path"`
	MediaDir            *string         `json:"media_dir"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	Offline             *bool           `json:"offline"`
	LocationTimeout     *timex.Duration `json:"location_timeout"`
	LocationMaxAge      *timex.Duration `json:"location_max_age"`
	SampleInterval      *timex.Duration `json:"sample_interval"`
	ConfirmWindow       *timex.Duration `json:"confirm_window"`
	GeofenceRadius      *float64        `json:"geofence_radius"`
	ReplayFile          *string         `json:"replay_file"`
	LogLevel            *string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from the file named by -c or
// -config. It panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.ServerURL, jc.ServerURL)
	setString(&cfg.HealthAddr, jc.HealthAddr)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.MediaDir, jc.MediaDir)
	setString(&cfg.ReplayFile, jc.ReplayFile)
	setString(&cfg.LogLevel, jc.LogLevel)

	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setDuration(&cfg.LocationTimeout, jc.LocationTimeout)
	setDuration(&cfg.LocationMaxAge, jc.LocationMaxAge)
	setDuration(&cfg.SampleInterval, jc.SampleInterval)
	setDuration(&cfg.ConfirmWindow, jc.ConfirmWindow)

	if jc.Offline != nil {
		cfg.Offline = *jc.Offline
	}
	if jc.GeofenceRadius != nil {
		cfg.GeofenceRadius = *jc.GeofenceRadius
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
