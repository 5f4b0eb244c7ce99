package util

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// HumanReadableBytes renders n using binary prefixes, e.g. "4.0 MiB".
// Negative values are rendered as zero.
func HumanReadableBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// ParseByteSize parses a human-readable size such as "64KiB", "4GiB" or
// "512MB". A bare number is taken as bytes. "0" disables a limit.
func ParseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size %q overflows int64", s)
	}
	return int64(n), nil
}
