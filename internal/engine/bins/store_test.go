package bins

import (
	"errors"
	"math"
	"testing"
)

func TestIndexOf(t *testing.T) {
	s, err := NewAt(-7000, 3000)
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}
	for tm := s.WindowMin(); tm < s.WindowMin()+50*s.Size(); tm += 997 {
		i, ok := s.IndexOf(tm)
		if !ok {
			t.Fatalf("IndexOf(%d) reported out of window", tm)
		}
		if lo := s.BinStart(i); tm < lo || tm >= lo+s.Size() {
			t.Errorf("IndexOf(%d) = %d, bin covers [%d, %d)", tm, i, lo, lo+s.Size())
		}
	}
	if _, ok := s.IndexOf(s.WindowMin() - 1); ok {
		t.Error("Time before the window should not have an index")
	}
	if _, ok := s.IndexOf(s.WindowMax()); ok {
		t.Error("WindowMax is exclusive")
	}
}

func TestGridIndex_Negative(t *testing.T) {
	s, err := NewAt(0, 1000)
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}
	if got := s.GridIndex(-1); got != -1 {
		t.Errorf("GridIndex(-1) = %d, want -1", got)
	}
	if got := s.GridIndex(-1000); got != -1 {
		t.Errorf("GridIndex(-1000) = %d, want -1", got)
	}
	if got := s.GridIndex(-1001); got != -2 {
		t.Errorf("GridIndex(-1001) = %d, want -2", got)
	}
}

func TestNewAround_HoldsFirstRecord(t *testing.T) {
	for _, tm := range []int64{0, 1, -1, 1757689800123, -5000} {
		s, err := NewAround(tm, 30000)
		if err != nil {
			t.Fatalf("NewAround(%d) failed: %v", tm, err)
		}
		if _, ok := s.IndexOf(tm); !ok {
			t.Errorf("NewAround(%d) window [%d, %d) misses the record", tm, s.WindowMin(), s.WindowMax())
		}
		if s.WindowMin()%30000 != 0 {
			t.Errorf("Window start %d is not aligned to the bin size", s.WindowMin())
		}
		if s.Count() != DefaultBinCount {
			t.Errorf("Expected %d bins, got %d", DefaultBinCount, s.Count())
		}
	}
}

func TestNewExact(t *testing.T) {
	s, err := NewExact(1000, 5999, 1000)
	if err != nil {
		t.Fatalf("NewExact failed: %v", err)
	}
	if s.Count() != 5 || s.WindowMin() != 1000 || s.WindowMax() != 6000 {
		t.Errorf("Unexpected window [%d, %d) with %d bins", s.WindowMin(), s.WindowMax(), s.Count())
	}
	if err := s.EnsureCapacity(7000); !errors.Is(err, ErrBeyondLimit) {
		t.Errorf("Expected ErrBeyondLimit growing past the end, got %v", err)
	}
}

func TestNewExact_TooManyBins(t *testing.T) {
	_, err := NewExact(0, int64(MaxBinCount)*10, 1)
	var aerr *AllocError
	if !errors.As(err, &aerr) {
		t.Fatalf("Expected an AllocError, got %v", err)
	}
	if aerr.Phase != PhaseInitial || !errors.Is(err, ErrAllocation) {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestNewAt_HalvesOnAllocationFailure(t *testing.T) {
	var asked []int64
	alloc := func(n int64) ([]Bin, error) {
		asked = append(asked, n)
		if n > 500 {
			return nil, errors.New("out of memory")
		}
		return make([]Bin, n), nil
	}
	s, err := NewAt(0, 1000, WithAllocator(alloc))
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}
	if s.Count() != 360 {
		t.Errorf("Expected 360 bins after halving, got %d (asked %v)", s.Count(), asked)
	}
}

func TestNewAt_FailsBelowMinimum(t *testing.T) {
	alloc := func(n int64) ([]Bin, error) { return nil, errors.New("out of memory") }
	_, err := NewAt(0, 1000, WithAllocator(alloc))
	if !errors.Is(err, ErrAllocation) {
		t.Fatalf("Expected ErrAllocation, got %v", err)
	}
}

func TestGrowthPreservesData(t *testing.T) {
	s, err := NewAt(0, 1000)
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}
	for i := 0; i < s.Count(); i += 7 {
		b := s.At(i)
		b.Flows = float64(i) + 0.5
		b.Bytes = float64(i) * 3.25
		b.Packets = float64(i) / 3
	}
	before := s.Snapshot()

	check := func(stage string) {
		for i, want := range before.Bins {
			t0 := before.WindowMin + int64(i)*before.Size
			j, ok := s.IndexOf(t0)
			if !ok {
				t.Fatalf("%s: time %d fell out of the window", stage, t0)
			}
			if got := s.Bin(j); got != want {
				t.Fatalf("%s: bin at %d changed from %+v to %+v", stage, t0, want, got)
			}
		}
	}

	if err := s.EnsureCapacity(-123456); err != nil {
		t.Fatalf("Front growth failed: %v", err)
	}
	check("front growth")
	if s.WindowMin()%1000 != 0 || s.WindowMin() > -123456 {
		t.Errorf("Unexpected window start after front growth: %d", s.WindowMin())
	}

	if err := s.EnsureCapacity(s.WindowMax() + 5_000_000); err != nil {
		t.Fatalf("Back growth failed: %v", err)
	}
	check("back growth")

	var zero Bin
	if got := s.Bin(0); got != zero {
		t.Errorf("New leading bin should be zero, got %+v", got)
	}
	if got := s.Bin(s.Count() - 1); got != zero {
		t.Errorf("New trailing bin should be zero, got %+v", got)
	}
}

func TestGrow_AmortizedIncrement(t *testing.T) {
	s, err := NewAt(0, 1000)
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}
	if err := s.EnsureCapacity(s.WindowMax()); err != nil {
		t.Fatalf("Growth failed: %v", err)
	}
	if s.Count() != DefaultBinCount+GrowIncrement {
		t.Errorf("Expected %d bins, got %d", DefaultBinCount+GrowIncrement, s.Count())
	}
}

func TestGrow_ClampedToUpperBound(t *testing.T) {
	s, err := NewAt(0, 1000, WithUpperBound(2_900_500))
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}
	if err := s.EnsureCapacity(2_880_000); err != nil {
		t.Fatalf("Growth failed: %v", err)
	}
	if s.WindowMax() != 2_901_000 {
		t.Errorf("Expected growth to stop at 2901000, window ends at %d", s.WindowMax())
	}
}

func TestGrow_HalvesThenFails(t *testing.T) {
	limit := int64(DefaultBinCount + 100)
	alloc := func(n int64) ([]Bin, error) {
		if n > limit {
			return nil, errors.New("out of memory")
		}
		return make([]Bin, n), nil
	}
	s, err := NewAt(0, 1000, WithAllocator(alloc))
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}

	// One bin past the window fits after halving down from the increment.
	if err := s.EnsureCapacity(s.WindowMax()); err != nil {
		t.Fatalf("Growth failed: %v", err)
	}
	if s.Count() > int(limit) || s.Count() <= DefaultBinCount {
		t.Errorf("Unexpected bin count %d", s.Count())
	}

	err = s.EnsureCapacity(s.WindowMax() + 1000*1000)
	var aerr *AllocError
	if !errors.As(err, &aerr) || aerr.Phase != PhaseGrowth {
		t.Fatalf("Expected a growth AllocError, got %v", err)
	}
}

func TestSnapshot_Restore(t *testing.T) {
	s, err := NewAt(5000, 1000)
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}
	s.At(3).Bytes = 42
	r, err := s.Snapshot().Restore()
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if r.WindowMin() != 5000 || r.Count() != s.Count() || r.Bin(3).Bytes != 42 {
		t.Errorf("Restored store differs: [%d, %d) %d bins", r.WindowMin(), r.WindowMax(), r.Count())
	}
	r.At(3).Bytes = 0
	if s.Bin(3).Bytes != 42 {
		t.Error("Restored store shares memory with the original")
	}
}

func TestNewAt_TriesMinimum(t *testing.T) {
	var sizes []int64
	alloc := func(n int64) ([]Bin, error) {
		sizes = append(sizes, n)
		if n > MinBinCount {
			return nil, errors.New("out of memory")
		}
		return make([]Bin, n), nil
	}
	s, err := NewAt(0, 1000, WithAllocator(alloc))
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}
	if s.Count() != MinBinCount {
		t.Errorf("Expected %d bins, got %d", MinBinCount, s.Count())
	}
	if last := sizes[len(sizes)-1]; last != MinBinCount {
		t.Errorf("Expected the last attempt at %d bins, got %v", MinBinCount, sizes)
	}
}

func TestNewAt_WindowEndOverflows(t *testing.T) {
	var ae *AllocError
	if _, err := NewAt(math.MaxInt64-5000, 1000); !errors.As(err, &ae) || ae.Phase != PhaseInitial {
		t.Errorf("Expected an initial AllocError, got %v", err)
	}
}

func TestNewExact_Overflow(t *testing.T) {
	cases := []struct{ start, end, size int64 }{
		{-9e18, 9e18, 1e18},
		{math.MaxInt64 - 500, math.MaxInt64, 1000},
	}
	for _, c := range cases {
		_, err := NewExact(c.start, c.end, c.size)
		var ae *AllocError
		if !errors.As(err, &ae) || ae.Phase != PhaseInitial {
			t.Errorf("NewExact(%d, %d, %d): expected an initial AllocError, got %v", c.start, c.end, c.size, err)
		}
	}
}

func TestGrow_DistanceOverflow(t *testing.T) {
	cases := []struct{ first, far int64 }{
		{4e18, -6e18},
		{-4e18, 6e18},
		{0, -9e18},
	}
	for _, c := range cases {
		s, err := NewAround(c.first, 1000)
		if err != nil {
			t.Fatalf("NewAround(%d) failed: %v", c.first, err)
		}
		lo, hi := s.WindowMin(), s.WindowMax()

		err = s.EnsureCapacity(c.far)
		var ae *AllocError
		if !errors.As(err, &ae) || ae.Phase != PhaseGrowth {
			t.Errorf("first=%d far=%d: expected a growth AllocError, got %v", c.first, c.far, err)
		}
		if s.WindowMin() != lo || s.WindowMax() != hi {
			t.Errorf("first=%d far=%d: window changed to [%d, %d)", c.first, c.far, s.WindowMin(), s.WindowMax())
		}
	}
}

func TestGridIndex_Saturates(t *testing.T) {
	s, err := NewAround(4e18, 1000)
	if err != nil {
		t.Fatalf("NewAround failed: %v", err)
	}
	if got := s.GridIndex(-6e18); got != math.MinInt64 {
		t.Errorf("GridIndex(-6e18) = %d, want MinInt64", got)
	}

	s, err = NewAround(-4e18, 1000)
	if err != nil {
		t.Fatalf("NewAround failed: %v", err)
	}
	if got := s.GridIndex(6e18); got != math.MaxInt64 {
		t.Errorf("GridIndex(6e18) = %d, want MaxInt64", got)
	}
}

func TestHeuristicWindowMin_HugeBins(t *testing.T) {
	if got := HeuristicWindowMin(0, math.MaxInt64/2); got != 0 {
		t.Errorf("Expected the aligned start when the lead overflows, got %d", got)
	}
}
