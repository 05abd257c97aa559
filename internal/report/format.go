package report

import (
	"fmt"
	"strings"
	"time"
)

// LabelMode selects what identifies a row.
type LabelMode int

const (
	LabelTimestamp LabelMode = iota
	LabelIndex
)

// ParseLabelMode accepts "timestamp" or "index".
func ParseLabelMode(s string) (LabelMode, error) {
	switch strings.ToLower(s) {
	case "", "timestamp":
		return LabelTimestamp, nil
	case "index":
		return LabelIndex, nil
	}
	return 0, fmt.Errorf("unknown bin label mode: %q", s)
}

// TimeFormat selects how timestamp labels are printed.
type TimeFormat int

const (
	TimeDefault TimeFormat = iota // 2006/01/02T15:04:05
	TimeISO                       // 2006-01-02 15:04:05
	TimeEpoch                     // seconds since the epoch
)

// ParseTimeFormat accepts "default", "iso" or "epoch".
func ParseTimeFormat(s string) (TimeFormat, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return TimeDefault, nil
	case "iso":
		return TimeISO, nil
	case "epoch":
		return TimeEpoch, nil
	}
	return 0, fmt.Errorf("unknown timestamp format: %q", s)
}

// FormatTime prints t (ms since epoch, UTC) in format f, with a millisecond
// part when millis is set.
func FormatTime(t int64, f TimeFormat, millis bool) string {
	if f == TimeEpoch {
		if millis {
			sec, ms := t/1000, t%1000
			if ms < 0 {
				sec, ms = sec-1, ms+1000
			}
			return fmt.Sprintf("%d.%03d", sec, ms)
		}
		return fmt.Sprintf("%d", floorSeconds(t))
	}

	layout := "2006/01/02T15:04:05"
	if f == TimeISO {
		layout = "2006-01-02 15:04:05"
	}
	if millis {
		layout += ".000"
	}
	return time.UnixMilli(t).UTC().Format(layout)
}

// labelWidth is the column width of a timestamp label in format f.
func labelWidth(f TimeFormat, millis bool) int {
	w := 19
	if f == TimeEpoch {
		w = 10
	}
	if millis {
		w += 4
	}
	return w
}

func floorSeconds(t int64) int64 {
	s := t / 1000
	if t%1000 < 0 {
		s--
	}
	return s
}
