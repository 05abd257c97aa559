package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layouts accepted for the slash form, from most to least precise.
var slashLayouts = []string{
	"2006/01/02:15:04:05.000",
	"2006/01/02:15:04:05",
	"2006/01/02:15:04",
	"2006/01/02:15",
	"2006/01/02",
}

// ParseTime converts a time string to milliseconds since the epoch (UTC).
// It accepts YYYY/MM/DD[:HH[:MM[:SS[.sss]]]] (a 'T' may replace the first
// colon), RFC 3339, or an integer number of epoch milliseconds.
func ParseTime(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time string")
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UnixMilli(), nil
	}

	norm := s
	if i := strings.IndexByte(norm, 'T'); i == 10 {
		norm = norm[:i] + ":" + norm[i+1:]
	}
	for _, layout := range slashLayouts {
		if t, err := time.ParseInLocation(layout, norm, time.UTC); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized time %q", s)
}
