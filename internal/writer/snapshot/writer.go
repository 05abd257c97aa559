package snapshot

import (
	"Go2FlowCount/internal/config"
	"Go2FlowCount/internal/engine/counter"
	"Go2FlowCount/internal/factory"
	"Go2FlowCount/internal/model"
	"Go2FlowCount/internal/report"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func init() {
	factory.RegisterWriter("gob", func(def config.WriterDef, _ report.Options) (model.Writer, error) {
		if def.Gob.RootPath == "" {
			return nil, fmt.Errorf("gob writer needs a root_path")
		}
		return NewWriter(def.Gob.RootPath), nil
	})
}

// SeriesFile is the gob-encoded counter.Result inside a snapshot directory.
const SeriesFile = "series.gob"

// SummaryData holds the metadata for a snapshot.
type SummaryData struct {
	LoadScheme   string  `json:"load_scheme"`
	BinSize      int64   `json:"bin_size_ms"`
	WindowMin    int64   `json:"window_min_ms"`
	Bins         int     `json:"bins"`
	Records      uint64  `json:"records"`
	Skipped      uint64  `json:"skipped"`
	TotalFlows   float64 `json:"total_flows"`
	TotalBytes   float64 `json:"total_bytes"`
	TotalPackets float64 `json:"total_packets"`
	Timestamp    string  `json:"timestamp"`
}

// Writer handles writing a finished bin series to disk.
type Writer struct {
	rootPath string
}

// NewWriter creates a new snapshot writer.
func NewWriter(rootPath string) *Writer {
	return &Writer{rootPath: rootPath}
}

// Name returns the writer type.
func (w *Writer) Name() string {
	return "gob"
}

// Write stores the series as gob plus a summary.json in a timestamped directory.
// It expects the payload to be of type counter.Result.
func (w *Writer) Write(payload interface{}, timestamp string) error {
	res, ok := payload.(counter.Result)
	if !ok {
		return fmt.Errorf("invalid payload type for gob Writer: expected counter.Result, got %T", payload)
	}

	// 1. Create timestamped directory
	snapshotDir := filepath.Join(w.rootPath, timestamp)
	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	// 2. Write the series
	seriesPath := filepath.Join(snapshotDir, SeriesFile)
	file, err := os.Create(seriesPath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file '%s': %w", seriesPath, err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(res); err != nil {
		return fmt.Errorf("failed to encode series to gob for file '%s': %w", seriesPath, err)
	}

	// 3. Write summary file
	totals := res.Series.Totals()
	summary := SummaryData{
		LoadScheme:   res.Scheme,
		BinSize:      res.Series.Size,
		WindowMin:    res.Series.WindowMin,
		Bins:         len(res.Series.Bins),
		Records:      res.Records,
		Skipped:      res.Skipped,
		TotalFlows:   totals.Flows,
		TotalBytes:   totals.Bytes,
		TotalPackets: totals.Packets,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
	summaryFilePath := filepath.Join(snapshotDir, "summary.json")
	summaryFile, err := os.Create(summaryFilePath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer summaryFile.Close()

	jsonEncoder := json.NewEncoder(summaryFile)
	jsonEncoder.SetIndent("", "  ")
	if err := jsonEncoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary to json: %w", err)
	}

	return nil
}

// Load reads back a series written by Write.
func Load(dir string) (counter.Result, error) {
	var res counter.Result
	file, err := os.Open(filepath.Join(dir, SeriesFile))
	if err != nil {
		return res, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(&res); err != nil {
		return res, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return res, nil
}
