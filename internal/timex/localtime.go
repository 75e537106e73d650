package timex

import "time"

// LocalLayout is how shift timestamps travel to the backend: local wall time
// with the zone offset, e.g. 2024-05-02T07:31:12-05:00.
const LocalLayout = time.RFC3339

// FormatLocal renders t in the process-local zone using LocalLayout.
func FormatLocal(t time.Time) string {
	return t.Local().Format(LocalLayout)
}

// ParseLocal parses a timestamp produced by FormatLocal (or any RFC 3339 value).
func ParseLocal(s string) (time.Time, error) {
	return time.Parse(LocalLayout, s)
}

// Elapsed returns now-start truncated to whole seconds; negative spans clamp to zero.
func Elapsed(start, now time.Time) time.Duration {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return d.Truncate(time.Second)
}
