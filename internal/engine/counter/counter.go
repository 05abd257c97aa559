package counter

import (
	"Go2FlowCount/internal/engine/bins"
	"Go2FlowCount/internal/engine/scheme"
	"Go2FlowCount/internal/model"
	"errors"
	"fmt"
	"io"
	"log"
)

// Counter holds the state of one aggregation run: the configured bin size,
// load scheme and time range, and the bin store, which is created when the
// first record is accepted.
type Counter struct {
	size   int64
	scheme scheme.Scheme
	apply  scheme.Func
	rng    scheme.Range
	opts   []bins.Option

	store   *bins.Store
	read    uint64
	skipped uint64
}

// New creates a Counter. Extra store options are applied when the store is created.
func New(size int64, s scheme.Scheme, rng scheme.Range, opts ...bins.Option) (*Counter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("bin size must be positive, got %d", size)
	}
	if s < 0 || int(s) >= len(scheme.All) {
		return nil, fmt.Errorf("%w: %d", scheme.ErrUnknown, int(s))
	}
	if rng.HasStart && rng.HasEnd && rng.End < rng.Start {
		return nil, fmt.Errorf("end time %d is before start time %d", rng.End, rng.Start)
	}
	return &Counter{
		size:   size,
		scheme: s,
		apply:  s.Func(),
		rng:    rng,
		opts:   opts,
	}, nil
}

// Add distributes one record into the bins. The returned error is always an
// allocation failure and is fatal for the run.
func (c *Counter) Add(rec *model.FlowRecord) error {
	c.read++
	if c.rng.Ignores(rec.StartTime, rec.EndTime) {
		return nil
	}
	if c.store == nil {
		st, err := c.initialize(rec)
		if err != nil {
			return err
		}
		c.store = st
	}
	return c.apply(rec, c.store, c.rng)
}

func (c *Counter) initialize(rec *model.FlowRecord) (*bins.Store, error) {
	switch {
	case c.rng.HasStart && c.rng.HasEnd:
		return bins.NewExact(c.rng.Start, c.rng.End, c.size, c.opts...)
	case c.rng.HasStart:
		return bins.NewAt(c.rng.Start, c.size, c.opts...)
	case c.rng.HasEnd:
		opts := append([]bins.Option{bins.WithUpperBound(c.rng.End)}, c.opts...)
		return bins.NewAround(c.rng.Clamp(rec.StartTime), c.size, opts...)
	default:
		return bins.NewAround(rec.StartTime, c.size, c.opts...)
	}
}

// Run reads src until it is exhausted. Records the source reports as bad are
// logged and skipped; any other source error or an allocation failure stops
// the run.
func (c *Counter) Run(src model.RecordSource) error {
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, model.ErrBadRecord) {
			c.skipped++
			log.Printf("Error reading record, skipping: %v", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read flow records: %w", err)
		}
		if err := c.Add(rec); err != nil {
			return err
		}
	}
}

// Store returns the bin store, or nil when no record was accepted.
func (c *Counter) Store() *bins.Store { return c.store }

// Range returns the explicit time range of the run.
func (c *Counter) Range() scheme.Range { return c.rng }

// Scheme returns the load scheme of the run.
func (c *Counter) Scheme() scheme.Scheme { return c.scheme }

// Stats returns the number of records read and skipped.
func (c *Counter) Stats() (read, skipped uint64) { return c.read, c.skipped }

// Result is the finished output of a run, handed to writers.
type Result struct {
	Scheme  string
	Range   scheme.Range
	Series  bins.Snapshot
	Records uint64
	Skipped uint64
}

// Result snapshots the run. Without accepted records the series is empty.
func (c *Counter) Result() Result {
	res := Result{
		Scheme:  c.scheme.String(),
		Range:   c.rng,
		Series:  bins.Snapshot{Size: c.size},
		Records: c.read,
		Skipped: c.skipped,
	}
	if c.store != nil {
		res.Series = c.store.Snapshot()
	}
	return res
}
