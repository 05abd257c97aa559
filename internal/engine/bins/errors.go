package bins

import (
	"errors"
	"fmt"
	"time"
)

// ErrAllocation is wrapped by every AllocError.
var ErrAllocation = errors.New("bin allocation failed")

// Phases of an allocation failure.
const (
	PhaseInitial = "initial"
	PhaseGrowth  = "growth"
)

// AllocError reports a span of time the store could not materialize. Both
// phases are fatal for a run; retry with a larger bin size or a narrower
// time range.
type AllocError struct {
	Phase string
	Start int64 // ms since epoch
	Span  int64 // ms
	Bins  int64
	Err   error
}

func (e *AllocError) Error() string {
	msg := fmt.Sprintf("%s allocation of %d bins failed for a span of %d ms at %s",
		e.Phase, e.Bins, e.Span, time.UnixMilli(e.Start).UTC().Format(time.RFC3339))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AllocError) Unwrap() error {
	return ErrAllocation
}
