package scheme

import (
	"Go2FlowCount/internal/engine/bins"
	"Go2FlowCount/internal/model"
	"fmt"
)

func byStart(rec *model.FlowRecord, st *bins.Store, r Range) error {
	return addAt(rec.StartTime, rec, st, r)
}

func byEnd(rec *model.FlowRecord, st *bins.Store, r Range) error {
	return addAt(rec.EndTime, rec, st, r)
}

func byMiddle(rec *model.FlowRecord, st *bins.Store, r Range) error {
	return addAt(midpoint(rec.StartTime, rec.EndTime), rec, st, r)
}

// midpoint is (s+e)/2 rounded toward s, without overflowing for e >= s.
func midpoint(s, e int64) int64 {
	return s + int64((uint64(e)-uint64(s))/2)
}

// addAt gives the whole record to the bin holding t. A t outside the range
// places the record outside the report, so it is dropped.
func addAt(t int64, rec *model.FlowRecord, st *bins.Store, r Range) error {
	if r.Ignores(t, t) {
		return nil
	}
	if err := st.EnsureCapacity(t); err != nil {
		return err
	}
	i, ok := st.IndexOf(t)
	if !ok {
		return fmt.Errorf("time %d is outside the window [%d, %d) after growth", t, st.WindowMin(), st.WindowMax())
	}
	add(st.At(i), rec, 1, 1)
	return nil
}

// byMean splits the record evenly over every bin it overlaps. Bins cut off by
// the range still count in the divisor.
func byMean(rec *model.FlowRecord, st *bins.Store, r Range) error {
	if r.Ignores(rec.StartTime, rec.EndTime) {
		return nil
	}
	lo, hi, err := resolve(rec, st, r)
	if err != nil {
		return err
	}
	share := 1 / (float64(hi) - float64(lo) + 1)
	first, last := clip(lo, hi, st)
	for i := first; i <= last; i++ {
		add(st.At(i), rec, share, share)
	}
	return nil
}

// byDuration spreads the record at a constant per-millisecond rate.
func byDuration(rec *model.FlowRecord, st *bins.Store, r Range) error {
	if r.Ignores(rec.StartTime, rec.EndTime) {
		return nil
	}
	lo, hi, err := resolve(rec, st, r)
	if err != nil {
		return err
	}
	first, last := clip(lo, hi, st)
	if lo == hi {
		if first == last {
			add(st.At(first), rec, 1, 1)
		}
		return nil
	}

	elapsed := float64(rec.EndTime) - float64(rec.StartTime)
	for i := first; i <= last; i++ {
		from := st.BinStart(i)
		to := from + st.Size()
		if rec.StartTime > from {
			from = rec.StartTime
		}
		if rec.EndTime < to {
			to = rec.EndTime
		}
		ratio := float64(to-from) / elapsed
		add(st.At(i), rec, ratio, ratio)
	}
	return nil
}

// byMaximum gives the whole record to every bin it touches.
func byMaximum(rec *model.FlowRecord, st *bins.Store, r Range) error {
	if r.Ignores(rec.StartTime, rec.EndTime) {
		return nil
	}
	lo, hi, err := resolve(rec, st, r)
	if err != nil {
		return err
	}
	first, last := clip(lo, hi, st)
	for i := first; i <= last; i++ {
		add(st.At(i), rec, 1, 1)
	}
	return nil
}

// byMinimum counts the flow in every bin it touches but only keeps its
// volume when the flow fits in a single bin.
func byMinimum(rec *model.FlowRecord, st *bins.Store, r Range) error {
	if r.Ignores(rec.StartTime, rec.EndTime) {
		return nil
	}
	lo, hi, err := resolve(rec, st, r)
	if err != nil {
		return err
	}
	volume := 0.0
	if lo == hi {
		volume = 1
	}
	first, last := clip(lo, hi, st)
	for i := first; i <= last; i++ {
		add(st.At(i), rec, 1, volume)
	}
	return nil
}

// resolve grows the store to hold both record boundaries, each pulled into
// the range first, and returns the unclipped grid indices of the start and
// end bins.
func resolve(rec *model.FlowRecord, st *bins.Store, r Range) (int64, int64, error) {
	if err := st.EnsureCapacity(r.Clamp(rec.StartTime)); err != nil {
		return 0, 0, err
	}
	if err := st.EnsureCapacity(r.Clamp(rec.EndTime)); err != nil {
		return 0, 0, err
	}
	return st.GridIndex(rec.StartTime), st.GridIndex(rec.EndTime), nil
}

// clip limits grid indices to the materialized bins.
func clip(lo, hi int64, st *bins.Store) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if top := int64(st.Count() - 1); hi > top {
		hi = top
	}
	return int(lo), int(hi)
}

func add(b *bins.Bin, rec *model.FlowRecord, flows, volume float64) {
	b.Flows += flows
	b.Bytes += float64(rec.Bytes) * volume
	b.Packets += float64(rec.Packets) * volume
}
