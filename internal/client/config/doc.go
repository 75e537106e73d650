// Package config loads runtime configuration for the SiteCrew field client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend REST API
//	-g string   host:port of the gRPC health endpoint
//	-d string   path of the local SQLite state file
//	-m string   media directory
//	-i int      online status check interval (seconds)
//	-r float    geofence radius (meters)
//	-s string   accelerometer replay CSV for the fall monitor
//	-l string   log level
//	-offline    start in offline mode
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "health_addr": "127.0.0.1:50051",
//	  "database_path": "sitecrew.db",
//	  "media_dir": "media",
//	  "online_check_interval": "3s",
//	  "offline": false,
//	  "location_timeout": "10s",
//	  "location_max_age": "1m",
//	  "sample_interval": "100ms",
//	  "confirm_window": "2s",
//	  "geofence_radius": 500,
//	  "replay_file": "",
//	  "log_level": "info"
//	}
//
// Only keys present in the file override the current values.
package config
