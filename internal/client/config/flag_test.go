package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd", "-a", "http://10.0.0.5:9090", "-i", "10", "-g", "10.0.0.5:50051"}, expectPanic: false,
			expected: &Config{ServerURL: "http://10.0.0.5:9090", HealthAddr: "10.0.0.5:50051", OnlineCheckInterval: 10 * time.Second}},
		{name: "Test2 radius, replay and offline", args: []string{"cmd", "-r", "250", "-s", "fall.csv", "-offline", "-d", "x.db"}, expectPanic: false,
			expected: &Config{GeofenceRadius: 250, ReplayFile: "fall.csv", Offline: true, DatabasePath: "x.db"}},
		{name: "Test3 unknown flags ignored", args: []string{"cmd", "-z", "1", "-l", "debug"}, expectPanic: false,
			expected: &Config{LogLevel: "debug"}},
		{name: "Test4 incorrect check interval", args: []string{"cmd", "-a", "http://x", "-i", "abc"}, expectPanic: true, expected: &Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
