package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/sitecrew/internal/flagx"
)

var knownFlags = []string{"-a", "-g", "-d", "-m", "-i", "-r", "-s", "-l", "-offline"}

// parseFlags populates selected Config fields from command-line flags.
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags, "-offline")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the backend API")
	fs.StringVar(&cfg.HealthAddr, "g", cfg.HealthAddr, "address and port of the gRPC health endpoint")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local state database")
	fs.StringVar(&cfg.MediaDir, "m", cfg.MediaDir, "directory for staged photos and receipts")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.Float64Var(&cfg.GeofenceRadius, "r", cfg.GeofenceRadius, "geofence radius (in meters)")
	fs.StringVar(&cfg.ReplayFile, "s", cfg.ReplayFile, "accelerometer replay CSV")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.Offline, "offline", cfg.Offline, "start in offline mode")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
