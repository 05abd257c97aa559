package bins

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultBinCount is the number of bins allocated up front when the run
	// has no explicit time range.
	DefaultBinCount = 2880
	// MinBinCount is the smallest initial store the engine will run with.
	MinBinCount = 64
	// GrowIncrement is the amortizing number of bins added by a growth step.
	GrowIncrement = 1024
	// MaxBinCount is the hard ceiling on the number of materialized bins.
	MaxBinCount = 1 << 24
	// LeadBins is how many bins the heuristic window starts before the first record.
	LeadBins = 16
)

// ErrBeyondLimit is returned when growth is requested past the store's upper bound.
var ErrBeyondLimit = errors.New("time is beyond the upper bound of the store")

// Bin accumulates the (possibly fractional) volume assigned to one time slot.
type Bin struct {
	Flows   float64
	Bytes   float64
	Packets float64
}

// Allocator returns a zeroed bin slice of length n or an error if it cannot.
type Allocator func(n int64) ([]Bin, error)

// DefaultAllocator refuses requests above MaxBinCount.
func DefaultAllocator(n int64) ([]Bin, error) {
	if n <= 0 || n > MaxBinCount {
		return nil, fmt.Errorf("refusing to allocate %d bins (max %d)", n, MaxBinCount)
	}
	return make([]Bin, n), nil
}

// Option configures a Store.
type Option func(*Store)

// WithAllocator replaces the allocator used for initial sizing and growth.
func WithAllocator(a Allocator) Option {
	return func(s *Store) {
		s.alloc = a
	}
}

// WithUpperBound stops back growth past the bin that holds t.
func WithUpperBound(t int64) Option {
	return func(s *Store) {
		s.limit = t
		s.hasLimit = true
	}
}

// Store is a contiguous, growable sequence of fixed-width time bins covering
// [WindowMin, WindowMax). Bin pointers obtained from At are invalidated by any
// call that may grow the store.
type Store struct {
	windowMin int64
	size      int64
	bins      []Bin

	limit    int64
	hasLimit bool
	alloc    Allocator
}

func newStore(windowMin, size int64, opts []Option) (*Store, error) {
	if size <= 0 {
		return nil, fmt.Errorf("bin size must be positive, got %d", size)
	}
	s := &Store{windowMin: windowMin, size: size, alloc: DefaultAllocator}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewExact allocates exactly the bins needed to span [start, end].
func NewExact(start, end, size int64, opts ...Option) (*Store, error) {
	if end < start {
		return nil, fmt.Errorf("end time %d is before start time %d", end, start)
	}
	s, err := newStore(start, size, opts)
	if err != nil {
		return nil, err
	}
	s.limit, s.hasLimit = end, true

	span, ok := subChecked(end, start)
	if !ok {
		return nil, &AllocError{Phase: PhaseInitial, Start: start, Span: math.MaxInt64, Bins: math.MaxInt64,
			Err: fmt.Errorf("span from %d to %d overflows", start, end)}
	}
	count := span/size + 1
	if count > MaxBinCount {
		return nil, &AllocError{Phase: PhaseInitial, Start: start, Span: span, Bins: count}
	}
	if !s.fits(count) {
		return nil, &AllocError{Phase: PhaseInitial, Start: start, Span: span, Bins: count,
			Err: fmt.Errorf("window end overflows for %d bins", count)}
	}
	b, err := s.alloc(count)
	if err != nil {
		return nil, &AllocError{Phase: PhaseInitial, Start: start, Span: span, Bins: count, Err: err}
	}
	s.bins = b
	return s, nil
}

// NewAt allocates a standard-size store whose first bin starts at windowMin,
// halving the request on allocation failure down to MinBinCount.
func NewAt(windowMin, size int64, opts ...Option) (*Store, error) {
	s, err := newStore(windowMin, size, opts)
	if err != nil {
		return nil, err
	}
	want := int64(DefaultBinCount)
	if s.hasLimit {
		if s.limit < windowMin {
			return nil, fmt.Errorf("upper bound %d is before window start %d: %w", s.limit, windowMin, ErrBeyondLimit)
		}
		if c := s.maxCount(); c < want {
			want = c
		}
	}
	floor := int64(MinBinCount)
	if want < floor {
		floor = want
	}

	var lastErr error
	try := func(n int64) bool {
		if !s.fits(n) {
			lastErr = fmt.Errorf("window end overflows for %d bins", n)
			return false
		}
		b, err := s.alloc(n)
		if err != nil {
			lastErr = err
			return false
		}
		s.bins = b
		return true
	}
	last := want
	for n := want; n >= floor; n /= 2 {
		if try(n) {
			return s, nil
		}
		last = n
	}
	// The last halving may skip past the minimum.
	if last != floor && try(floor) {
		return s, nil
	}
	span, _ := mulChecked(want, size)
	return nil, &AllocError{Phase: PhaseInitial, Start: windowMin, Span: span, Bins: want, Err: lastErr}
}

// NewAround allocates a standard-size store whose window starts a little
// before t, on a multiple of size.
func NewAround(t, size int64, opts ...Option) (*Store, error) {
	if size <= 0 {
		return nil, fmt.Errorf("bin size must be positive, got %d", size)
	}
	return NewAt(HeuristicWindowMin(t, size), size, opts...)
}

// HeuristicWindowMin returns a bin-aligned start LeadBins bins before t.
func HeuristicWindowMin(t, size int64) int64 {
	aligned := floorDiv(t, size) * size
	lead, ok := mulChecked(LeadBins, size)
	if !ok || aligned < math.MinInt64+lead {
		return aligned
	}
	return aligned - lead
}

// WindowMin is the inclusive start of the first bin.
func (s *Store) WindowMin() int64 { return s.windowMin }

// WindowMax is the exclusive end of the last bin.
func (s *Store) WindowMax() int64 { return s.windowMin + s.size*int64(len(s.bins)) }

// Size is the bin width in milliseconds.
func (s *Store) Size() int64 { return s.size }

// Count is the number of materialized bins.
func (s *Store) Count() int { return len(s.bins) }

// Bin returns a copy of bin i.
func (s *Store) Bin(i int) Bin { return s.bins[i] }

// At returns a pointer to bin i, valid until the next growth.
func (s *Store) At(i int) *Bin { return &s.bins[i] }

// BinStart returns the start time of bin i.
func (s *Store) BinStart(i int) int64 { return s.windowMin + int64(i)*s.size }

// IndexOf returns the bin holding t, or false when t is outside the window.
func (s *Store) IndexOf(t int64) (int, bool) {
	if t < s.windowMin || t >= s.WindowMax() {
		return -1, false
	}
	return int((t - s.windowMin) / s.size), true
}

// GridIndex returns the position t would have on the store's bin grid. The
// result may be negative or >= Count for times outside the window, and
// saturates when the distance to the window does not fit in an int64.
func (s *Store) GridIndex(t int64) int64 {
	d, ok := subChecked(t, s.windowMin)
	if !ok {
		if t > s.windowMin {
			return math.MaxInt64
		}
		return math.MinInt64
	}
	return floorDiv(d, s.size)
}

// Limit returns the upper time bound, if any.
func (s *Store) Limit() (int64, bool) { return s.limit, s.hasLimit }

// EnsureCapacity grows the store so that t falls inside the window.
func (s *Store) EnsureCapacity(t int64) error {
	if t < s.windowMin {
		return s.growFront(t)
	}
	if t >= s.WindowMax() {
		return s.growBack(t)
	}
	return nil
}

func (s *Store) growFront(t int64) error {
	d, ok := subChecked(s.windowMin, t)
	if !ok {
		return s.unreachable(t)
	}
	return s.grow(ceilDiv(d, s.size), math.MaxInt64, t, true)
}

func (s *Store) growBack(t int64) error {
	if s.hasLimit && t > s.limit {
		return fmt.Errorf("cannot grow to %d past %d: %w", t, s.limit, ErrBeyondLimit)
	}
	d, ok := subChecked(t, s.WindowMax())
	if !ok {
		return s.unreachable(t)
	}
	need := d/s.size + 1
	room := int64(math.MaxInt64)
	if s.hasLimit {
		room = s.maxCount() - int64(len(s.bins))
	}
	return s.grow(need, room, t, false)
}

// unreachable reports a t whose distance from the window overflows int64.
func (s *Store) unreachable(t int64) error {
	return &AllocError{Phase: PhaseGrowth, Start: t, Span: math.MaxInt64, Bins: math.MaxInt64,
		Err: fmt.Errorf("distance from window [%d, %d) to %d overflows", s.windowMin, s.WindowMax(), t)}
}

// grow adds between need and room bins, starting from the amortized
// increment and halving it on allocation failure. Front growth shifts the
// existing bins to the tail of the new slice and moves windowMin back.
func (s *Store) grow(need, room, t int64, front bool) error {
	if need <= 0 {
		return &AllocError{Phase: PhaseGrowth, Start: t, Bins: int64(len(s.bins)),
			Err: fmt.Errorf("invalid growth of %d bins", need)}
	}
	incr := need
	if incr < GrowIncrement {
		incr = GrowIncrement
	}
	if incr > room {
		incr = room
	}
	count := int64(len(s.bins))

	var lastErr error
	for incr >= need {
		newMin, total, err := s.layout(incr, front)
		if err != nil {
			lastErr = err
		} else if b, err := s.alloc(total); err != nil {
			lastErr = err
		} else {
			if front {
				copy(b[incr:], s.bins)
			} else {
				copy(b, s.bins)
			}
			s.bins = b
			s.windowMin = newMin
			return nil
		}

		next := incr / 2
		if next < need && incr > need {
			next = need
		}
		incr = next
	}
	span, _ := mulChecked(need, s.size)
	total, _ := addChecked(count, need)
	return &AllocError{Phase: PhaseGrowth, Start: t, Span: span, Bins: total, Err: lastErr}
}

// layout computes the window start and bin count after adding incr bins,
// failing if any of the window arithmetic would overflow int64.
func (s *Store) layout(incr int64, front bool) (int64, int64, error) {
	total, ok := addChecked(int64(len(s.bins)), incr)
	if !ok {
		return 0, 0, fmt.Errorf("bin count overflows adding %d bins", incr)
	}
	span, ok := mulChecked(total, s.size)
	if !ok {
		return 0, 0, fmt.Errorf("window span overflows for %d bins", total)
	}
	newMin := s.windowMin
	if front {
		shift, ok := mulChecked(incr, s.size)
		if ok {
			newMin, ok = addChecked(s.windowMin, -shift)
		}
		if !ok {
			return 0, 0, fmt.Errorf("window start underflows moving back %d bins", incr)
		}
	}
	if _, ok := addChecked(newMin, span); !ok {
		return 0, 0, fmt.Errorf("window end overflows for %d bins", total)
	}
	return newMin, total, nil
}

// maxCount is the number of bins from windowMin through the bin holding limit.
func (s *Store) maxCount() int64 {
	d, ok := subChecked(s.limit, s.windowMin)
	if !ok {
		return math.MaxInt64
	}
	return d/s.size + 1
}

// fits reports whether n bins starting at windowMin end within int64.
func (s *Store) fits(n int64) bool {
	span, ok := mulChecked(n, s.size)
	if !ok {
		return false
	}
	_, ok = addChecked(s.windowMin, span)
	return ok
}

// Snapshot returns an independent copy of the store's contents.
func (s *Store) Snapshot() Snapshot {
	b := make([]Bin, len(s.bins))
	copy(b, s.bins)
	return Snapshot{WindowMin: s.windowMin, Size: s.size, Bins: b}
}

// Snapshot is an immutable copy of a finished series.
type Snapshot struct {
	WindowMin int64
	Size      int64
	Bins      []Bin
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	return -floorDiv(-a, b)
}

func addChecked(a, b int64) (int64, bool) {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return 0, false
	}
	return c, true
}

func subChecked(a, b int64) (int64, bool) {
	c := a - b
	if (b > 0 && c > a) || (b < 0 && c < a) {
		return 0, false
	}
	return c, true
}

func mulChecked(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}
