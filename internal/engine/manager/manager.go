package manager

import (
	_ "Go2FlowCount/internal/alerter" // Registers the alert writer
	"Go2FlowCount/internal/config"
	"Go2FlowCount/internal/engine/counter"
	"Go2FlowCount/internal/engine/scheme"
	"Go2FlowCount/internal/factory"
	"Go2FlowCount/internal/model"
	"Go2FlowCount/internal/report"
	_ "Go2FlowCount/internal/writer/clickhouse" // Registers the clickhouse writer
	_ "Go2FlowCount/internal/writer/snapshot"   // Registers the gob writer
	_ "Go2FlowCount/internal/writer/text"       // Registers the text writer
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

// Manager runs one aggregation: it feeds a record source into a counter,
// renders the report and hands the finished series to the writers.
type Manager struct {
	counter *counter.Counter
	opts    report.Options
	writers []model.Writer
}

// NewManager creates a Manager from the configuration.
func NewManager(cfg *config.Config) (*Manager, error) {
	opts, err := ReportOptions(cfg)
	if err != nil {
		return nil, err
	}
	c, err := NewCounter(cfg)
	if err != nil {
		return nil, err
	}
	writers, err := factory.CreateWriters(cfg, opts)
	if err != nil {
		return nil, err
	}
	return &Manager{counter: c, opts: opts, writers: writers}, nil
}

// NewCounter builds the counter described by cfg.Count.
func NewCounter(cfg *config.Config) (*counter.Counter, error) {
	size, err := cfg.Count.BinSizeMillis()
	if err != nil {
		return nil, err
	}
	s, err := scheme.Parse(cfg.Count.LoadScheme)
	if err != nil {
		return nil, err
	}

	var rng scheme.Range
	if rng.Start, rng.HasStart, err = cfg.Count.Start(); err != nil {
		return nil, err
	}
	if rng.End, rng.HasEnd, err = cfg.Count.End(); err != nil {
		return nil, err
	}
	return counter.New(size, s, rng)
}

// ReportOptions builds the report layout described by cfg.
func ReportOptions(cfg *config.Config) (report.Options, error) {
	labels, err := report.ParseLabelMode(cfg.Count.BinLabels)
	if err != nil {
		return report.Options{}, err
	}
	tf, err := report.ParseTimeFormat(cfg.Count.TimestampFormat)
	if err != nil {
		return report.Options{}, err
	}
	return report.Options{
		Labels:           labels,
		TimeFormat:       tf,
		Millis:           cfg.Count.Millis,
		SkipZeroes:       cfg.Count.SkipZeroes,
		Delimiter:        cfg.Output.Delimiter,
		NoColumns:        cfg.Output.NoColumns,
		NoFinalDelimiter: cfg.Output.NoFinalDelimiter,
		NoTitles:         cfg.Output.NoTitles,
	}, nil
}

// Run consumes src until it is exhausted. An error means the run failed and
// nothing should be rendered.
func (m *Manager) Run(src model.RecordSource) error {
	log.Printf("Counting records by %s...", m.counter.Scheme())
	if err := m.counter.Run(src); err != nil {
		return err
	}
	read, skipped := m.counter.Stats()
	log.Printf("Finished reading %d records (%d skipped).", read, skipped)
	return nil
}

// Render prints the report table to w.
func (m *Manager) Render(w io.Writer) error {
	return report.New(w, m.opts).Render(m.counter.Store(), m.counter.Range())
}

// Counter returns the counter of the run.
func (m *Manager) Counter() *counter.Counter {
	return m.counter
}

// Flush hands the finished series to every writer.
func (m *Manager) Flush() error {
	if len(m.writers) == 0 {
		return nil
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	res := m.counter.Result()
	log.Printf("Writing series to %d writers at %s.", len(m.writers), timestamp)

	var wg sync.WaitGroup
	errs := make([]error, len(m.writers))
	wg.Add(len(m.writers))
	for i, writer := range m.writers {
		go func(i int, w model.Writer) {
			defer wg.Done()
			if err := w.Write(res, timestamp); err != nil {
				errs[i] = fmt.Errorf("writer '%s': %w", w.Name(), err)
			}
		}(i, writer)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
