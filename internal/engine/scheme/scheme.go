package scheme

import (
	"Go2FlowCount/internal/engine/bins"
	"Go2FlowCount/internal/model"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknown is returned by Parse for names that are not a load scheme.
var ErrUnknown = errors.New("unknown load scheme")

// Scheme selects how a record's volume is spread over the bins it overlaps.
type Scheme int

const (
	Start Scheme = iota
	End
	Middle
	Mean
	Duration
	Maximum
	Minimum
)

var names = [...]string{
	Start:    "start",
	End:      "end",
	Middle:   "middle",
	Mean:     "mean",
	Duration: "duration",
	Maximum:  "maximum",
	Minimum:  "minimum",
}

// All lists every scheme in declaration order.
var All = []Scheme{Start, End, Middle, Mean, Duration, Maximum, Minimum}

func (s Scheme) String() string {
	if s < 0 || int(s) >= len(names) {
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
	return names[s]
}

// Parse returns the scheme with the given name.
func Parse(name string) (Scheme, error) {
	for i, n := range names {
		if strings.EqualFold(name, n) {
			return Scheme(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q (valid: %s)", ErrUnknown, name, strings.Join(names[:], ", "))
}

// Func adds one record to a store.
type Func func(rec *model.FlowRecord, st *bins.Store, r Range) error

var funcs = [...]Func{
	Start:    byStart,
	End:      byEnd,
	Middle:   byMiddle,
	Mean:     byMean,
	Duration: byDuration,
	Maximum:  byMaximum,
	Minimum:  byMinimum,
}

// Func returns the implementation of s. Callers resolve it once per run.
func (s Scheme) Func() Func {
	return funcs[s]
}

// Range is the caller's explicit time bounds, both inclusive.
type Range struct {
	Start    int64
	End      int64
	HasStart bool
	HasEnd   bool
}

// Ignores reports whether [s, e] lies entirely outside the range.
func (r Range) Ignores(s, e int64) bool {
	return (r.HasStart && e < r.Start) || (r.HasEnd && s > r.End)
}

// Clamp pulls t into the range.
func (r Range) Clamp(t int64) int64 {
	if r.HasStart && t < r.Start {
		return r.Start
	}
	if r.HasEnd && t > r.End {
		return r.End
	}
	return t
}
