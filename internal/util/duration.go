package util

import (
	"fmt"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"
)

// ParseDuration parses a human-readable duration string into time.Duration.
// Supports standard Go duration units (h, m, s, ms, us, ns) plus days (d) and weeks (w).
// Examples: "500ms", "1s", "1h30m", "2d". Negative durations are rejected.
func ParseDuration(s string) (time.Duration, error) {
	d, err := str2duration.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative: %s", s)
	}
	return d, nil
}
